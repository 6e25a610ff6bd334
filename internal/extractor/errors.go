package extractor

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyDocument 文本提取成功但没有可用内容，作为状态上报，Extract不会返回它
	ErrEmptyDocument = errors.New("简历内容为空")
	// ErrUnparseableDateRange 日期区间无法解析或结束早于开始，按0时长处理
	ErrUnparseableDateRange = errors.New("无法解析的日期区间")
	// ErrExtractionAborted 调用方取消或超时
	ErrExtractionAborted = errors.New("简历抽取被中止")
)

// ExtractionError 抽取过程中的错误
type ExtractionError struct {
	Op      string
	BaseErr error
	Detail  string
}

func (e *ExtractionError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s): %s", e.BaseErr, e.Op, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s)", e.BaseErr, e.Op)
}

func (e *ExtractionError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *ExtractionError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

// NewAbortedError 包装context错误，errors.Is 同时匹配 ErrExtractionAborted 和原始的context错误
func NewAbortedError(op string, cause error) error {
	return &ExtractionError{
		Op:      op,
		BaseErr: fmt.Errorf("%w: %w", ErrExtractionAborted, cause),
		Detail:  cause.Error(),
	}
}
