package tracing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskPII(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"a", "*"},
		{"张三", "张*"},
		{"王小明", "王*明"},
		{"jane@x.com", "ja******om"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MaskPII(tt.in), "输入 %q", tt.in)
	}
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "abc", TruncateString("abcdef", 3))

	got := TruncateString(strings.Repeat("x", 50)+strings.Repeat("y", 50), 23)
	assert.Equal(t, strings.Repeat("x", 10)+"..."+strings.Repeat("y", 10), got)
}

func TestSafeAttributeValue(t *testing.T) {
	assert.Equal(t, "ja******om", SafeAttributeValue("candidate.email", "jane@x.com", 100), "邮箱需要掩码")
	assert.Equal(t, "J**e", SafeAttributeValue("first_name", "Jane", 100))
	assert.Equal(t, "resume.pdf", SafeAttributeValue("file", "resume.pdf", 100))
	assert.Len(t, []rune(SafeAttributeValue("sql", strings.Repeat("s", 600), 20)), 19)
}
