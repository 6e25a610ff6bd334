// Package parser 把上传的简历文件转换为纯文本，PDF字节的解码交给第三方库或Tika服务
package parser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"resume-analyzer-go/internal/config"
	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/tracing"
)

var (
	// ErrUnreadablePDF 所有提取方式都失败，或结果为空
	ErrUnreadablePDF = errors.New("无法读取PDF文本")
	// ErrPDFTooLarge 文件超过大小上限
	ErrPDFTooLarge = errors.New("PDF文件过大")
)

var tracer = otel.Tracer("resume-analyzer-go/parser")

// TextProvider 从文件字节中提取纯文本
type TextProvider interface {
	// ExtractText uri只用于日志和资源名
	ExtractText(ctx context.Context, data []byte, uri string) (string, error)
	Name() string
}

// ChainProvider 依次尝试多个提供者，返回第一个非空结果
type ChainProvider struct {
	providers []TextProvider
	log       zerolog.Logger
}

var _ TextProvider = (*ChainProvider)(nil)

// NewChainProvider nil项会被忽略
func NewChainProvider(providers ...TextProvider) *ChainProvider {
	c := &ChainProvider{log: logger.Component("parser.chain")}
	for _, p := range providers {
		if p != nil {
			c.providers = append(c.providers, p)
		}
	}
	return c
}

func (c *ChainProvider) Name() string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

func (c *ChainProvider) ExtractText(ctx context.Context, data []byte, uri string) (string, error) {
	ctx, span := tracer.Start(ctx, "parser.Chain")
	defer span.End()

	var errs []error
	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := p.ExtractText(ctx, data, uri)
		if err == nil && strings.TrimSpace(text) != "" {
			span.SetAttributes(attribute.String("parser.provider", p.Name()))
			return text, nil
		}
		if err == nil {
			err = fmt.Errorf("%s: 提取结果为空", p.Name())
		}
		c.log.Warn().Err(err).Str("provider", p.Name()).Str("uri", uri).Msg("PDF提取失败，尝试下一个提供者")
		errs = append(errs, err)
	}

	err := ErrUnreadablePDF
	if len(errs) > 0 {
		err = fmt.Errorf("%w: %w", ErrUnreadablePDF, errors.Join(errs...))
	}
	tracing.RecordError(span, err, tracing.ErrorTypeParser)
	return "", err
}

// SizeLimitedProvider 超过上限直接拒绝，不调用下游
type SizeLimitedProvider struct {
	next     TextProvider
	maxBytes int64
}

var _ TextProvider = (*SizeLimitedProvider)(nil)

// WithSizeLimit maxBytes<=0 表示不限制
func WithSizeLimit(next TextProvider, maxBytes int64) TextProvider {
	if maxBytes <= 0 {
		return next
	}
	return &SizeLimitedProvider{next: next, maxBytes: maxBytes}
}

func (s *SizeLimitedProvider) Name() string { return s.next.Name() }

func (s *SizeLimitedProvider) ExtractText(ctx context.Context, data []byte, uri string) (string, error) {
	if err := CheckSize(int64(len(data)), s.maxBytes); err != nil {
		return "", err
	}
	return s.next.ExtractText(ctx, data, uri)
}

// CheckSize 上传入口和提供者共用的大小检查
func CheckSize(size, maxBytes int64) error {
	if maxBytes > 0 && size > maxBytes {
		return fmt.Errorf("%w: %.2f MB，上限 %.2f MB", ErrPDFTooLarge,
			float64(size)/1024/1024, float64(maxBytes)/1024/1024)
	}
	return nil
}

// IsPDF 按文件头判断
func IsPDF(data []byte) bool {
	return len(data) >= 5 && string(data[:5]) == "%PDF-"
}

// NewFromConfig 按 parser.type 组装提供者，外层套大小限制
func NewFromConfig(ctx context.Context, cfg *config.Config) (TextProvider, error) {
	var p TextProvider
	switch cfg.Parser.Type {
	case "tika":
		p = NewTikaTextProvider(cfg.Parser.Tika.ServerURL, WithTikaTimeout(secondsOr(cfg.Parser.Tika.TimeoutSeconds, 60)))
	case "chain":
		eino, err := NewEinoTextProvider(ctx, WithEinoTimeout(secondsOr(cfg.Parser.TimeoutSeconds, 30)))
		if err != nil {
			return nil, err
		}
		var tika TextProvider
		if cfg.Parser.Tika.ServerURL != "" {
			tika = NewTikaTextProvider(cfg.Parser.Tika.ServerURL, WithTikaTimeout(secondsOr(cfg.Parser.Tika.TimeoutSeconds, 60)))
		}
		p = NewChainProvider(eino, tika)
	case "eino", "":
		eino, err := NewEinoTextProvider(ctx, WithEinoTimeout(secondsOr(cfg.Parser.TimeoutSeconds, 30)))
		if err != nil {
			return nil, err
		}
		p = eino
	default:
		return nil, fmt.Errorf("未知的解析器类型: %s", cfg.Parser.Type)
	}
	return WithSizeLimit(p, cfg.MaxPDFSizeBytes()), nil
}

func secondsOr(n, def int) time.Duration {
	if n <= 0 {
		n = def
	}
	return time.Duration(n) * time.Second
}
