package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(Config{Level: "info", Format: "json"}, &buf)

	Debug().Msg("不应输出")
	Info().Str("k", "v").Msg("hello")

	out := buf.String()
	assert.NotContains(t, out, "不应输出", "低于info的日志被过滤")
	assert.Contains(t, out, `"k":"v"`)
	assert.Contains(t, out, `"message":"hello"`)
}

func TestWithSubmissionUUID(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(Config{Level: "debug"}, &buf)

	ctx := WithSubmissionUUID(context.Background(), "0190-abc")
	FromContext(ctx).Info().Msg("处理中")
	assert.Contains(t, buf.String(), `"submission_uuid":"0190-abc"`)

	buf.Reset()
	FromContext(context.Background()).Info().Msg("全局")
	assert.Contains(t, buf.String(), `"message":"全局"`, "context中没有日志时使用全局日志")
}
