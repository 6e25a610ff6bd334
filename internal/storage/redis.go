package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"resume-analyzer-go/internal/config"
	"resume-analyzer-go/internal/constants"
	"resume-analyzer-go/internal/tracing"
	"resume-analyzer-go/internal/types"
)

// ErrNotFound 缓存中没有该键
var ErrNotFound = redis.Nil

var redisTracer = otel.Tracer("resume-analyzer-go/storage/redis")

// 原子地检查并加入集合，返回加入前是否已存在
var checkAndAddScript = redis.NewScript(`
	local exists = redis.call('SISMEMBER', KEYS[1], ARGV[1])
	redis.call('SADD', KEYS[1], ARGV[1])
	redis.call('EXPIRE', KEYS[1], ARGV[2])
	return exists
`)

// Redis 去重集合与抽取结果缓存
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedis 创建Redis客户端并检查连接
func NewRedis(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
		MaxRetries:   cfg.MaxRetries,
	})

	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return &Redis{Client: client, config: cfg}, nil
}

func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.Client.Ping(ctx).Err()
}

// MD5ExpireDuration 去重记录的过期时间
func (r *Redis) MD5ExpireDuration() time.Duration {
	days := r.config.MD5RecordExpireDays
	if days <= 0 {
		days = constants.DefaultMD5ExpireDays
	}
	return time.Duration(days) * 24 * time.Hour
}

// RecordCacheTTL 抽取结果缓存的过期时间
func (r *Redis) RecordCacheTTL() time.Duration {
	if r.config.RecordCacheTTLHours <= 0 {
		return constants.DefaultRecordCacheTTL
	}
	return time.Duration(r.config.RecordCacheTTLHours) * time.Hour
}

func (r *Redis) startSpan(ctx context.Context, name, op, key string) (context.Context, trace.Span) {
	ctx, span := redisTracer.Start(ctx, "Redis."+name, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		semconv.DBSystemRedis,
		attribute.Int("db.redis.database_index", r.config.DB),
		attribute.String("net.peer.name", r.config.Address),
		attribute.String("db.operation", op),
		attribute.String("db.redis.key", tracing.SafeRedisKey(key)),
	)
	return ctx, span
}

// CheckAndAddFileMD5 原始文件去重，返回是否已经上传过
func (r *Redis) CheckAndAddFileMD5(ctx context.Context, md5Hex string) (bool, error) {
	return r.checkAndAdd(ctx, "CheckAndAddFileMD5", constants.KeyFileMD5Set, md5Hex)
}

// CheckAndAddTextMD5 抽取文本去重，返回是否已经处理过相同内容
func (r *Redis) CheckAndAddTextMD5(ctx context.Context, md5Hex string) (bool, error) {
	return r.checkAndAdd(ctx, "CheckAndAddTextMD5", constants.KeyTextMD5Set, md5Hex)
}

func (r *Redis) checkAndAdd(ctx context.Context, name, key, md5Hex string) (bool, error) {
	ctx, span := r.startSpan(ctx, name, "EVAL", key)
	defer span.End()

	if r.Client == nil {
		err := fmt.Errorf("redis client is not initialized")
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return false, err
	}

	expiry := int64(r.MD5ExpireDuration().Seconds())
	res, err := checkAndAddScript.Run(ctx, r.Client, []string{key}, md5Hex, expiry).Int64()
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return false, fmt.Errorf("执行原子检查和添加操作失败: %w", err)
	}

	exists := res == 1
	span.SetAttributes(attribute.Bool("already_exists", exists))
	span.SetStatus(codes.Ok, "")
	return exists, nil
}

// RemoveFileMD5 处理失败时撤销文件去重记录，允许重新上传
func (r *Redis) RemoveFileMD5(ctx context.Context, md5Hex string) error {
	return r.remove(ctx, "RemoveFileMD5", constants.KeyFileMD5Set, md5Hex)
}

// RemoveTextMD5 持久化失败时撤销文本去重记录
func (r *Redis) RemoveTextMD5(ctx context.Context, md5Hex string) error {
	return r.remove(ctx, "RemoveTextMD5", constants.KeyTextMD5Set, md5Hex)
}

func (r *Redis) remove(ctx context.Context, name, key, md5Hex string) error {
	ctx, span := r.startSpan(ctx, name, "SREM", key)
	defer span.End()

	n, err := r.Client.SRem(ctx, key, md5Hex).Result()
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return fmt.Errorf("从集合中移除MD5失败: %w", err)
	}
	span.SetAttributes(attribute.Int64("removed_count", n))
	span.SetStatus(codes.Ok, "")
	return nil
}

// CacheRecord 按文本MD5缓存抽取结果
func (r *Redis) CacheRecord(ctx context.Context, textMD5 string, record *types.ResumeRecord) error {
	key := fmt.Sprintf(constants.KeyRecordCache, textMD5)
	ctx, span := r.startSpan(ctx, "CacheRecord", "SET", key)
	defer span.End()

	data, err := json.Marshal(record)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		return fmt.Errorf("序列化抽取结果失败: %w", err)
	}
	if err := r.Client.Set(ctx, key, data, r.RecordCacheTTL()).Err(); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return err
	}
	span.SetAttributes(attribute.Int("db.redis.value_length", len(data)))
	span.SetStatus(codes.Ok, "")
	return nil
}

// GetCachedRecord 读取缓存的抽取结果，不存在时返回 ErrNotFound
func (r *Redis) GetCachedRecord(ctx context.Context, textMD5 string) (*types.ResumeRecord, error) {
	key := fmt.Sprintf(constants.KeyRecordCache, textMD5)
	ctx, span := r.startSpan(ctx, "GetCachedRecord", "GET", key)
	defer span.End()

	data, err := r.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		span.SetAttributes(attribute.Bool("db.redis.key_exists", false))
		span.SetStatus(codes.Ok, "key not found")
		return nil, ErrNotFound
	}
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return nil, err
	}

	var record types.ResumeRecord
	if err := json.Unmarshal(data, &record); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		return nil, fmt.Errorf("缓存的抽取结果损坏: %w", err)
	}
	span.SetStatus(codes.Ok, "")
	return &record, nil
}
