package processor

import (
	"context"

	"resume-analyzer-go/internal/storage"
	"resume-analyzer-go/internal/types"
)

// RecordExtractor 从纯文本抽取结构化记录，*extractor.Extractor 实现该接口
type RecordExtractor interface {
	Extract(ctx context.Context, text string) (*types.ResumeRecord, error)
}

// Deduplicator 文件和文本的MD5去重
type Deduplicator interface {
	// 返回true表示已存在；不存在时原子地加入
	CheckAndAddFileMD5(ctx context.Context, md5Hex string) (bool, error)
	CheckAndAddTextMD5(ctx context.Context, md5Hex string) (bool, error)
	RemoveFileMD5(ctx context.Context, md5Hex string) error
	RemoveTextMD5(ctx context.Context, md5Hex string) error
}

// RecordCache 按文本MD5缓存抽取结果
type RecordCache interface {
	CacheRecord(ctx context.Context, textMD5 string, record *types.ResumeRecord) error
	GetCachedRecord(ctx context.Context, textMD5 string) (*types.ResumeRecord, error)
}

// EventPublisher 发布JSON消息
type EventPublisher interface {
	PublishJSON(ctx context.Context, exchangeName, routingKey string, data interface{}, persistent bool) error
}

// UploadConsumer 上传消息的队列拓扑和消费
type UploadConsumer interface {
	EnsureExchange(exchangeName, exchangeType string, durable bool) error
	EnsureQueue(queueName string, durable bool) error
	BindQueue(queueName, exchangeName, routingKey string) error
	StartConsumer(ctx context.Context, queueName string, prefetchCount, workers int, handler storage.MessageHandler) (<-chan struct{}, error)
}

// outboxWriter 保存候选人时会同时写入事件的存储
type outboxWriter interface {
	OutboxEnabled() bool
}

var (
	_ RecordCache    = (*storage.Redis)(nil)
	_ Deduplicator   = (*storage.Redis)(nil)
	_ EventPublisher = (*storage.RabbitMQ)(nil)
	_ UploadConsumer = (*storage.RabbitMQ)(nil)
	_ outboxWriter   = (*storage.Database)(nil)
)
