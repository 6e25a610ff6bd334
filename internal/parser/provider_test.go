package parser

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-analyzer-go/internal/config"
)

type fakeProvider struct {
	name  string
	text  string
	err   error
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) ExtractText(ctx context.Context, data []byte, uri string) (string, error) {
	f.calls++
	return f.text, f.err
}

func TestChainProviderFallsThrough(t *testing.T) {
	broken := &fakeProvider{name: "broken", err: errors.New("boom")}
	blank := &fakeProvider{name: "blank", text: "  \n"}
	good := &fakeProvider{name: "good", text: "Jane Doe"}
	never := &fakeProvider{name: "never", text: "unused"}

	chain := NewChainProvider(broken, nil, blank, good, never)
	assert.Equal(t, "chain(broken,blank,good,never)", chain.Name(), "nil提供者被忽略")

	text, err := chain.ExtractText(context.Background(), []byte("%PDF-1.4"), "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", text)
	assert.Equal(t, 1, broken.calls)
	assert.Equal(t, 1, blank.calls)
	assert.Zero(t, never.calls, "成功后不再调用后面的提供者")
}

func TestChainProviderAllFail(t *testing.T) {
	chain := NewChainProvider(
		&fakeProvider{name: "a", err: errors.New("bad xref")},
		&fakeProvider{name: "b", text: ""},
	)
	_, err := chain.ExtractText(context.Background(), nil, "x.pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreadablePDF)
	assert.Contains(t, err.Error(), "bad xref")

	_, err = NewChainProvider().ExtractText(context.Background(), nil, "x.pdf")
	assert.ErrorIs(t, err, ErrUnreadablePDF, "没有提供者时同样不可读")
}

func TestChainProviderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &fakeProvider{name: "p", text: "x"}
	_, err := NewChainProvider(p).ExtractText(ctx, nil, "")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, p.calls)
}

func TestSizeLimitedProvider(t *testing.T) {
	inner := &fakeProvider{name: "inner", text: "ok"}
	p := WithSizeLimit(inner, 4)

	_, err := p.ExtractText(context.Background(), []byte("12345"), "big.pdf")
	assert.ErrorIs(t, err, ErrPDFTooLarge)
	assert.Zero(t, inner.calls, "超限时不调用下游")

	text, err := p.ExtractText(context.Background(), []byte("1234"), "ok.pdf")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)

	assert.Same(t, inner, WithSizeLimit(inner, 0), "上限为0时不包装")
}

func TestIsPDF(t *testing.T) {
	assert.True(t, IsPDF([]byte("%PDF-1.7\n...")))
	assert.False(t, IsPDF([]byte("Jane Doe")))
	assert.False(t, IsPDF(nil))
}

func TestNewFromConfigUnknownType(t *testing.T) {
	cfg := &config.Config{}
	cfg.Parser.Type = "ocr"
	_, err := NewFromConfig(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewFromConfigTika(t *testing.T) {
	cfg := &config.Config{}
	cfg.Parser.Type = "tika"
	cfg.Parser.MaxPDFSizeMB = 5
	cfg.Parser.Tika.ServerURL = "http://localhost:9998/"

	p, err := NewFromConfig(context.Background(), cfg)
	require.NoError(t, err)
	limited, ok := p.(*SizeLimitedProvider)
	require.True(t, ok, "配置了大小上限时外层是SizeLimitedProvider")
	assert.Equal(t, int64(5*1024*1024), limited.maxBytes)

	tika, ok := limited.next.(*TikaTextProvider)
	require.True(t, ok)
	assert.Equal(t, "http://localhost:9998", tika.ServerURL, "去掉末尾斜杠")
}
