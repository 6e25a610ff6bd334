package processor

import (
	"github.com/rs/zerolog"

	"resume-analyzer-go/internal/config"
	"resume-analyzer-go/internal/parser"
	"resume-analyzer-go/internal/storage"
)

// Option 配置ResumeService的可选组件
type Option func(*ResumeService)

// WithTextProvider PDF文本提取
func WithTextProvider(p parser.TextProvider) Option {
	return func(s *ResumeService) {
		s.provider = p
	}
}

// WithObjectStorage 原件和解析文本的对象存储
func WithObjectStorage(o storage.ObjectStorage) Option {
	return func(s *ResumeService) {
		s.objects = o
	}
}

// WithDeduplicator MD5去重
func WithDeduplicator(d Deduplicator) Option {
	return func(s *ResumeService) {
		s.dedup = d
	}
}

// WithRecordCache 抽取结果缓存
func WithRecordCache(c RecordCache) Option {
	return func(s *ResumeService) {
		s.cache = c
	}
}

// WithPublisher 上传消息和解析事件的发布者
func WithPublisher(p EventPublisher) Option {
	return func(s *ResumeService) {
		s.publisher = p
	}
}

// WithUploadConsumer 上传队列消费者
func WithUploadConsumer(c UploadConsumer) Option {
	return func(s *ResumeService) {
		s.consumer = c
	}
}

// WithEvents 交换机、路由键和消费参数，空字段保持默认值
func WithEvents(cfg config.RabbitMQConfig) Option {
	return func(s *ResumeService) {
		if cfg.ResumeEventsExchange != "" {
			s.events.ResumeEventsExchange = cfg.ResumeEventsExchange
		}
		if cfg.UploadedRoutingKey != "" {
			s.events.UploadedRoutingKey = cfg.UploadedRoutingKey
		}
		if cfg.ParsedRoutingKey != "" {
			s.events.ParsedRoutingKey = cfg.ParsedRoutingKey
		}
		if cfg.RawResumeQueue != "" {
			s.events.RawResumeQueue = cfg.RawResumeQueue
		}
		if cfg.PrefetchCount > 0 {
			s.events.PrefetchCount = cfg.PrefetchCount
		}
		if cfg.ConsumerWorkers > 0 {
			s.events.ConsumerWorkers = cfg.ConsumerWorkers
		}
	}
}

// WithMaxFileSize 上传文件大小上限，<=0 表示不限制
func WithMaxFileSize(n int64) Option {
	return func(s *ResumeService) {
		s.maxFileSize = n
	}
}

// WithIDGenerator 替换提交ID生成方式
func WithIDGenerator(fn func() (string, error)) Option {
	return func(s *ResumeService) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithLogger 替换组件日志
func WithLogger(l zerolog.Logger) Option {
	return func(s *ResumeService) {
		s.log = l
	}
}

// FromStorage 按已初始化的存储组件生成选项，nil组件跳过
func FromStorage(cfg *config.Config, st *storage.Storage) []Option {
	opts := []Option{
		WithEvents(cfg.RabbitMQ),
		WithMaxFileSize(cfg.MaxPDFSizeBytes()),
	}
	if st == nil {
		return opts
	}
	if st.MinIO != nil {
		opts = append(opts, WithObjectStorage(st.MinIO))
	}
	if st.Redis != nil {
		opts = append(opts, WithDeduplicator(st.Redis), WithRecordCache(st.Redis))
	}
	if st.RabbitMQ != nil {
		opts = append(opts, WithPublisher(st.RabbitMQ), WithUploadConsumer(st.RabbitMQ))
	}
	return opts
}
