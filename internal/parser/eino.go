package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/tracing"
)

// EinoTextProvider 使用 eino-ext 的PDF解析器，进程内完成，不依赖外部服务
type EinoTextProvider struct {
	parser  *pdf.PDFParser
	timeout time.Duration
	log     zerolog.Logger
}

var _ TextProvider = (*EinoTextProvider)(nil)

// EinoOption EinoTextProvider的配置项
type EinoOption func(*EinoTextProvider)

func WithEinoTimeout(d time.Duration) EinoOption {
	return func(e *EinoTextProvider) {
		if d > 0 {
			e.timeout = d
		}
	}
}

func WithEinoLogger(l zerolog.Logger) EinoOption {
	return func(e *EinoTextProvider) {
		e.log = l
	}
}

// NewEinoTextProvider 不按页切分，整份文档作为一段连续文本
func NewEinoTextProvider(ctx context.Context, opts ...EinoOption) (*EinoTextProvider, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{ToPages: false})
	if err != nil {
		return nil, fmt.Errorf("创建eino PDF解析器失败: %w", err)
	}

	e := &EinoTextProvider{
		parser:  p,
		timeout: 30 * time.Second,
		log:     logger.Component("parser.eino"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *EinoTextProvider) Name() string { return "eino" }

func (e *EinoTextProvider) ExtractText(ctx context.Context, data []byte, uri string) (string, error) {
	ctx, span := tracer.Start(ctx, "parser.Eino")
	defer span.End()
	span.SetAttributes(attribute.Int("file.size_bytes", len(data)))

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	docs, err := e.parser.Parse(ctx, bytes.NewReader(data),
		einoParser.WithURI(uri),
		einoParser.WithExtraMeta(map[string]any{"source_uri": uri}),
	)
	if err != nil {
		err = fmt.Errorf("eino解析 %s 失败: %w", uri, err)
		tracing.RecordError(span, err, tracing.ErrorTypeParser)
		return "", err
	}
	if len(docs) == 0 {
		err = fmt.Errorf("eino解析 %s 没有返回文档", uri)
		tracing.RecordError(span, err, tracing.ErrorTypeParser)
		return "", err
	}

	// 多个文档时按空行拼接
	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		parts = append(parts, doc.Content)
	}
	text := strings.Join(parts, "\n\n")

	span.SetAttributes(attribute.Int("text.length", len(text)), attribute.Int("document.count", len(docs)))
	e.log.Debug().
		Str("uri", uri).
		Int("chars", len(text)).
		Dur("elapsed", time.Since(start)).
		Msg("PDF提取完成")
	return text, nil
}
