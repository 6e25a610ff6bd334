package processor

import (
	"errors"
	"fmt"
)

// 定义基础错误类型
var (
	ErrEmptyFile        = errors.New("上传文件为空")
	ErrFileTooLarge     = errors.New("上传文件过大")
	ErrUnsupportedFile  = errors.New("不支持的文件类型")
	ErrDuplicateFile    = errors.New("重复的简历文件")
	ErrDuplicateContent = errors.New("重复的简历内容")
	ErrStoreFailed      = errors.New("对象存储操作失败")
	ErrParseTextFailed  = errors.New("提取简历文本失败")
	ErrExtractFailed    = errors.New("抽取简历信息失败")
	ErrPersistFailed    = errors.New("保存候选人失败")
	ErrPublishFailed    = errors.New("发布消息失败")
	ErrNotConfigured    = errors.New("组件未配置")
)

// ResumeProcessError 包含详细错误信息的自定义错误
type ResumeProcessError struct {
	SubmissionUUID string
	Op             string
	BaseErr        error
	Detail         string
}

func (e *ResumeProcessError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, UUID:%s): %s", e.BaseErr, e.Op, e.SubmissionUUID, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, UUID:%s)", e.BaseErr, e.Op, e.SubmissionUUID)
}

func (e *ResumeProcessError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *ResumeProcessError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

func newError(uuid, op string, base error, detail string) error {
	return &ResumeProcessError{SubmissionUUID: uuid, Op: op, BaseErr: base, Detail: detail}
}

// 错误构造函数

func NewSizeError(uuid string, base error, detail string) error {
	return newError(uuid, "size", base, detail)
}

func NewDedupError(uuid string, base error, md5Hex string) error {
	return newError(uuid, "dedup", base, "md5="+md5Hex)
}

func NewStoreError(uuid, detail string) error {
	return newError(uuid, "store", ErrStoreFailed, detail)
}

func NewParseError(uuid, detail string) error {
	return newError(uuid, "parse", ErrParseTextFailed, detail)
}

func NewExtractError(uuid, detail string) error {
	return newError(uuid, "extract", ErrExtractFailed, detail)
}

func NewPersistError(uuid, detail string) error {
	return newError(uuid, "persist", ErrPersistFailed, detail)
}

func NewPublishError(uuid, detail string) error {
	return newError(uuid, "publish", ErrPublishFailed, detail)
}

// IsPermanent 重试也不会成功的错误，消费者据此直接确认消息
func IsPermanent(err error) bool {
	for _, target := range []error{
		ErrEmptyFile, ErrFileTooLarge, ErrUnsupportedFile,
		ErrDuplicateFile, ErrDuplicateContent, ErrParseTextFailed, ErrExtractFailed,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
