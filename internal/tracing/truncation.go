package tracing

import (
	"strings"
)

const (
	DefaultMaxLength = 200
	MaxSQLLength     = 500
	MaxRedisLength   = 100

	// MaxResumeLength span属性里简历正文的上限
	MaxResumeLength = 150
)

// 属性名包含这些关键字时值按PII处理
var piiKeywords = []string{
	"email", "phone", "mobile", "linkedin", "github",
	"name", "姓名", "address", "地址", "location",
	"password", "secret", "token",
}

// SafeAttributeValue 敏感属性掩码，其余按maxLength截断
func SafeAttributeValue(name string, value string, maxLength int) string {
	lowerName := strings.ToLower(name)
	for _, keyword := range piiKeywords {
		if strings.Contains(lowerName, keyword) {
			return MaskPII(value)
		}
	}
	return TruncateString(value, maxLength)
}

// MaskPII 保留首尾字符，中间用*替换
//
//	"张三" -> "张*"
//	"王小明" -> "王*明"
//	"jane@x.com" -> "ja******om"
func MaskPII(value string) string {
	runes := []rune(value)
	n := len(runes)
	switch {
	case n == 0:
		return ""
	case n == 1:
		return "*"
	case n == 2:
		return string(runes[0]) + "*"
	case n <= 4:
		return string(runes[0]) + strings.Repeat("*", n-2) + string(runes[n-1])
	}
	return string(runes[:2]) + strings.Repeat("*", n-4) + string(runes[n-2:])
}

// TruncateString 超长时保留头尾，中间以...连接
func TruncateString(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}

	half := (maxLength - 3) / 2
	if half < 1 {
		half = 1
	}
	return string(runes[:half]) + "..." + string(runes[len(runes)-half:])
}

func SafeSQL(sql string) string { return TruncateString(sql, MaxSQLLength) }

func SafeRedisKey(key string) string { return TruncateString(key, MaxRedisLength) }

// SafeResumeContent 简历正文只保留开头，避免把整份简历写进span
func SafeResumeContent(content string) string {
	return TruncateString(content, MaxResumeLength)
}
