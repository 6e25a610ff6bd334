package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"resume-analyzer-go/internal/config"
	"resume-analyzer-go/internal/constants"
	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/tracing"
)

var minioTracer = otel.Tracer("resume-analyzer-go/storage/minio")

// ObjectStorage 简历原件与抽取文本的对象存储
type ObjectStorage interface {
	UploadOriginal(ctx context.Context, submissionUUID, fileExt string, reader io.Reader, size int64) (string, error)
	GetOriginal(ctx context.Context, objectKey string) ([]byte, error)
	UploadParsedText(ctx context.Context, submissionUUID, text string) (string, error)
	DeleteOriginal(ctx context.Context, objectKey string) error
	DeleteParsedText(ctx context.Context, objectKey string) error
}

var _ ObjectStorage = (*MinIO)(nil)

// MinIO 提供对象存储功能
type MinIO struct {
	client         *minio.Client
	cfg            *config.MinIOConfig
	originalBucket string
	parsedBucket   string
	log            zerolog.Logger
}

// NewMinIO 创建MinIO客户端，确保两个存储桶存在
func NewMinIO(ctx context.Context, cfg *config.MinIOConfig) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}
	log := logger.Component("minio")

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	m := &MinIO{
		client:         client,
		cfg:            cfg,
		originalBucket: orDefault(cfg.OriginalsBucket, "resume-originals"),
		parsedBucket:   orDefault(cfg.ParsedTextBucket, "resume-parsed-text"),
		log:            log,
	}

	for _, bucket := range []string{m.originalBucket, m.parsedBucket} {
		if err := m.ensureBucketExists(ctx, bucket); err != nil {
			return nil, err
		}
	}

	if cfg.OriginalFileExpireDays > 0 {
		if err := m.setupBucketLifecycle(ctx, m.originalBucket, "expire-originals", cfg.OriginalFileExpireDays); err != nil {
			log.Warn().Err(err).Str("bucket", m.originalBucket).Msg("设置生命周期规则失败")
		}
	}

	log.Info().Str("endpoint", cfg.Endpoint).
		Str("originals", m.originalBucket).
		Str("parsed", m.parsedBucket).
		Msg("MinIO客户端初始化成功")
	return m, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func (m *MinIO) ensureBucketExists(ctx context.Context, bucket string) error {
	exists, err := m.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 是否存在时出错: %w", bucket, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: m.cfg.Location}); err != nil {
		return fmt.Errorf("创建存储桶 %s 失败: %w", bucket, err)
	}
	m.log.Info().Str("bucket", bucket).Msg("存储桶已创建")
	return nil
}

func (m *MinIO) setupBucketLifecycle(ctx context.Context, bucket, ruleID string, expiryDays int) error {
	cfg := lifecycle.NewConfiguration()
	cfg.Rules = []lifecycle.Rule{
		{
			ID:     ruleID,
			Status: "Enabled",
			Expiration: lifecycle.Expiration{
				Days: lifecycle.ExpirationDays(expiryDays),
			},
		},
	}
	return m.client.SetBucketLifecycle(ctx, bucket, cfg)
}

func (m *MinIO) startSpan(ctx context.Context, name, bucket, key string) (context.Context, trace.Span) {
	return minioTracer.Start(ctx, "MinIO."+name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("object_store.bucket", bucket),
			attribute.String("object_store.key", key),
		))
}

func (m *MinIO) put(ctx context.Context, name, bucket, key string, reader io.Reader, size int64, contentType string) error {
	ctx, span := m.startSpan(ctx, name, bucket, key)
	defer span.End()

	info, err := m.client.PutObject(ctx, bucket, key, reader, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStore)
		return fmt.Errorf("上传对象 %s/%s 失败: %w", bucket, key, err)
	}
	span.SetAttributes(attribute.Int64("object_store.size", info.Size))
	span.SetStatus(codes.Ok, "")
	return nil
}

func (m *MinIO) get(ctx context.Context, name, bucket, key string) ([]byte, error) {
	ctx, span := m.startSpan(ctx, name, bucket, key)
	defer span.End()

	obj, err := m.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStore)
		return nil, fmt.Errorf("获取对象 %s/%s 失败: %w", bucket, key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStore)
		return nil, fmt.Errorf("读取对象 %s/%s 失败: %w", bucket, key, err)
	}
	span.SetAttributes(attribute.Int("object_store.size", len(data)))
	span.SetStatus(codes.Ok, "")
	return data, nil
}

// OriginalObjectKey 原件的对象键，例如 resume/{uuid}/original.pdf
func OriginalObjectKey(submissionUUID, fileExt string) string {
	return fmt.Sprintf("resume/%s/original%s", submissionUUID, strings.ToLower(fileExt))
}

// ParsedTextObjectKey 抽取文本的对象键
func ParsedTextObjectKey(submissionUUID string) string {
	return fmt.Sprintf("resume/%s/parsed_text.txt", submissionUUID)
}

// UploadOriginal 上传原始简历文件，返回对象键(不含bucket)
func (m *MinIO) UploadOriginal(ctx context.Context, submissionUUID, fileExt string, reader io.Reader, size int64) (string, error) {
	key := OriginalObjectKey(submissionUUID, fileExt)
	if err := m.put(ctx, "UploadOriginal", m.originalBucket, key, reader, size, ContentTypeFor(fileExt)); err != nil {
		return "", err
	}
	return key, nil
}

func (m *MinIO) GetOriginal(ctx context.Context, objectKey string) ([]byte, error) {
	return m.get(ctx, "GetOriginal", m.originalBucket, objectKey)
}

// UploadParsedText 保存抽取出的纯文本
func (m *MinIO) UploadParsedText(ctx context.Context, submissionUUID, text string) (string, error) {
	key := ParsedTextObjectKey(submissionUUID)
	data := []byte(text)
	if err := m.put(ctx, "UploadParsedText", m.parsedBucket, key, bytes.NewReader(data), int64(len(data)), constants.ParsedTextContentType); err != nil {
		return "", err
	}
	return key, nil
}

// DeleteOriginal 删除原件，上传后续步骤失败时回滚用
func (m *MinIO) DeleteOriginal(ctx context.Context, objectKey string) error {
	return m.remove(ctx, "DeleteOriginal", m.originalBucket, objectKey)
}

// DeleteParsedText 删除抽取文本，保存候选人失败时回滚用
func (m *MinIO) DeleteParsedText(ctx context.Context, objectKey string) error {
	return m.remove(ctx, "DeleteParsedText", m.parsedBucket, objectKey)
}

func (m *MinIO) remove(ctx context.Context, name, bucket, key string) error {
	ctx, span := m.startSpan(ctx, name, bucket, key)
	defer span.End()

	if err := m.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStore)
		return fmt.Errorf("删除对象 %s/%s 失败: %w", bucket, key, err)
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// ContentTypeFor 按扩展名推断内容类型
func ContentTypeFor(ext string) string {
	switch strings.ToLower(ext) {
	case ".pdf":
		return "application/pdf"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
