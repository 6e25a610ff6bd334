package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/tracing"
)

// TikaTextProvider 调用Apache Tika服务器的 /tika 接口获取纯文本
type TikaTextProvider struct {
	ServerURL string
	Client    *http.Client
	// 是否保留PDF链接注释文本
	annotations bool
	log         zerolog.Logger
}

var _ TextProvider = (*TikaTextProvider)(nil)

// TikaOption TikaTextProvider的配置项
type TikaOption func(*TikaTextProvider)

func WithTikaTimeout(d time.Duration) TikaOption {
	return func(t *TikaTextProvider) {
		if d > 0 {
			t.Client.Timeout = d
		}
	}
}

func WithAnnotations(extract bool) TikaOption {
	return func(t *TikaTextProvider) {
		t.annotations = extract
	}
}

func WithHTTPClient(c *http.Client) TikaOption {
	return func(t *TikaTextProvider) {
		if c != nil {
			t.Client = c
		}
	}
}

// NewTikaTextProvider serverURL形如 http://localhost:9998
func NewTikaTextProvider(serverURL string, opts ...TikaOption) *TikaTextProvider {
	t := &TikaTextProvider{
		ServerURL:   strings.TrimRight(serverURL, "/"),
		Client:      &http.Client{Timeout: 60 * time.Second},
		annotations: true,
		log:         logger.Component("parser.tika"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *TikaTextProvider) Name() string { return "tika" }

func (t *TikaTextProvider) ExtractText(ctx context.Context, data []byte, uri string) (string, error) {
	ctx, span := tracer.Start(ctx, "parser.Tika")
	defer span.End()
	span.SetAttributes(
		attribute.String("tika.server", t.ServerURL),
		attribute.Int("file.size_bytes", len(data)),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, t.ServerURL+"/tika", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("创建Tika请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")
	req.Header.Set("Accept", "text/plain")
	if uri != "" {
		req.Header.Set("X-Tika-Resource-Name", uri)
	}
	if !t.annotations {
		req.Header.Set("X-Tika-PDFExtractAnnotationText", "false")
	}

	start := time.Now()
	resp, err := t.Client.Do(req)
	if err != nil {
		err = fmt.Errorf("请求Tika服务器失败: %w", err)
		tracing.RecordError(span, err, tracing.ErrorTypeExternal)
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("tika服务器返回状态码 %d", resp.StatusCode)
		tracing.RecordHTTPError(span, err, resp.StatusCode)
		return "", err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("读取Tika响应失败: %w", err)
	}

	text := string(body)
	span.SetAttributes(attribute.Int("text.length", len(text)))
	t.log.Debug().
		Str("uri", uri).
		Int("chars", len(text)).
		Dur("elapsed", time.Since(start)).
		Msg("Tika提取完成")
	return text, nil
}
