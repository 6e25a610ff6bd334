package constants

import "time"

const (
	// DefaultSourceChannel 未指定来源渠道时使用
	DefaultSourceChannel = "web_upload"

	DefaultMD5ExpireDays  = 365
	DefaultRecordCacheTTL = 24 * time.Hour

	// ParsedTextContentType 抽取文本在对象存储中的类型
	ParsedTextContentType = "text/plain; charset=utf-8"
)
