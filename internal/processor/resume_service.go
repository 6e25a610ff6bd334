package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"resume-analyzer-go/internal/config"
	"resume-analyzer-go/internal/constants"
	"resume-analyzer-go/internal/extractor"
	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/parser"
	"resume-analyzer-go/internal/storage"
	"resume-analyzer-go/internal/tracing"
	"resume-analyzer-go/internal/types"
	"resume-analyzer-go/pkg/utils"
)

var tracer = otel.Tracer("resume-analyzer-go/processor")

// UploadRequest 一次上传
type UploadRequest struct {
	Filename      string
	Data          []byte
	SourceChannel string
	SubmittedAt   time.Time
}

// UploadResult 处理结果，异步提交时只有SubmissionUUID和对象路径
type UploadResult struct {
	SubmissionUUID string              `json:"submission_uuid"`
	OriginalObject string              `json:"original_object,omitempty"`
	Candidate      *storage.Candidate  `json:"candidate,omitempty"`
	Record         *types.ResumeRecord `json:"record,omitempty"`
	Cached         bool                `json:"cached"`
	Queued         bool                `json:"queued"`
}

// submission 一份简历在流水线中的元数据
type submission struct {
	id          string
	source      string
	filename    string
	fileMD5     string
	originalKey string
	submittedAt time.Time
}

// ResumeService 简历处理服务：去重、存储原件、提取文本、抽取、持久化、发布事件
// 除抽取器和候选人存储外的组件都是可选的，未配置时跳过对应步骤
type ResumeService struct {
	extractor RecordExtractor
	store     storage.CandidateStore
	provider  parser.TextProvider
	objects   storage.ObjectStorage
	dedup     Deduplicator
	cache     RecordCache
	publisher EventPublisher
	consumer  UploadConsumer

	events      config.RabbitMQConfig
	maxFileSize int64
	newID       func() (string, error)
	log         zerolog.Logger
}

// NewResumeService 创建简历处理服务
func NewResumeService(ext RecordExtractor, store storage.CandidateStore, opts ...Option) (*ResumeService, error) {
	if ext == nil {
		return nil, fmt.Errorf("抽取器%w", ErrNotConfigured)
	}
	if store == nil {
		return nil, fmt.Errorf("候选人存储%w", ErrNotConfigured)
	}
	s := &ResumeService{
		extractor: ext,
		store:     store,
		events: config.RabbitMQConfig{
			ResumeEventsExchange: "resume.events.exchange",
			UploadedRoutingKey:   storage.EventResumeUploaded,
			ParsedRoutingKey:     storage.EventResumeParsed,
			RawResumeQueue:       "q.raw_resume_uploaded",
			PrefetchCount:        10,
			ConsumerWorkers:      4,
		},
		newID: newSubmissionUUID,
		log:   logger.Component("processor"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func newSubmissionUUID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Store 候选人存储
func (s *ResumeService) Store() storage.CandidateStore {
	return s.store
}

// dedupMarks 本次处理加入的MD5，失败时回滚
type dedupMarks struct {
	fileMD5 string
	textMD5 string
}

func (s *ResumeService) rollback(ctx context.Context, marks *dedupMarks) {
	if s.dedup == nil {
		return
	}
	log := logger.FromContext(ctx)
	if marks.fileMD5 != "" {
		if err := s.dedup.RemoveFileMD5(ctx, marks.fileMD5); err != nil {
			log.Warn().Err(err).Str("md5", marks.fileMD5).Msg("回滚文件MD5失败")
		}
	}
	if marks.textMD5 != "" {
		if err := s.dedup.RemoveTextMD5(ctx, marks.textMD5); err != nil {
			log.Warn().Err(err).Str("md5", marks.textMD5).Msg("回滚文本MD5失败")
		}
	}
}

// discardOriginal 删除本次上传的原件，异步消费时原件要留给重试，不走这里
func (s *ResumeService) discardOriginal(ctx context.Context, sub *submission) {
	if s.objects == nil || sub == nil || sub.originalKey == "" {
		return
	}
	if err := s.objects.DeleteOriginal(ctx, sub.originalKey); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("object_key", sub.originalKey).Msg("删除原始文件失败")
	}
}

func (s *ResumeService) discardParsedText(ctx context.Context, key string) {
	if s.objects == nil || key == "" {
		return
	}
	if err := s.objects.DeleteParsedText(ctx, key); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("object_key", key).Msg("删除解析文本失败")
	}
}

// checkFile 大小、类型检查，返回小写扩展名
func (s *ResumeService) checkFile(id string, req UploadRequest) (string, error) {
	if len(req.Data) == 0 {
		return "", NewSizeError(id, ErrEmptyFile, req.Filename)
	}
	if s.maxFileSize > 0 && int64(len(req.Data)) > s.maxFileSize {
		return "", NewSizeError(id, ErrFileTooLarge, fmt.Sprintf("%d > %d 字节", len(req.Data), s.maxFileSize))
	}
	ext := strings.ToLower(filepath.Ext(req.Filename))
	switch ext {
	case ".pdf", ".txt":
		return ext, nil
	case "":
		if parser.IsPDF(req.Data) {
			return ".pdf", nil
		}
	}
	return "", newError(id, "size", ErrUnsupportedFile, req.Filename)
}

// admitFile 文件MD5去重并上传原件
func (s *ResumeService) admitFile(ctx context.Context, sub *submission, ext string, data []byte, marks *dedupMarks) error {
	log := logger.FromContext(ctx)
	span := trace.SpanFromContext(ctx)

	sub.fileMD5 = utils.CalculateMD5(data)
	if s.dedup != nil {
		exists, err := s.dedup.CheckAndAddFileMD5(ctx, sub.fileMD5)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("Redis检查文件MD5失败，继续处理，文件去重可能失效")
		case exists:
			span.SetAttributes(attribute.Bool("duplicate_file", true))
			return NewDedupError(sub.id, ErrDuplicateFile, sub.fileMD5)
		default:
			marks.fileMD5 = sub.fileMD5
		}
	}

	if s.objects != nil {
		key, err := s.objects.UploadOriginal(ctx, sub.id, ext, bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return NewStoreError(sub.id, err.Error())
		}
		sub.originalKey = key
		log.Debug().Str("object_key", key).Msg("原始文件已上传到MinIO")
	}
	return nil
}

// ProcessUpload 同步处理一次上传，成功时返回已保存的候选人
func (s *ResumeService) ProcessUpload(ctx context.Context, req UploadRequest) (res *UploadResult, err error) {
	id, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("生成提交ID失败: %w", err)
	}
	ctx, span := tracer.Start(ctx, "ResumeService.ProcessUpload", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()
	span.SetAttributes(
		attribute.String("submission_uuid", id),
		attribute.String("file.name", tracing.SafeAttributeValue("file.name", req.Filename, tracing.DefaultMaxLength)),
		attribute.Int("file.size", len(req.Data)),
	)
	ctx = logger.WithSubmissionUUID(ctx, id)
	log := logger.FromContext(ctx)

	marks := &dedupMarks{}
	var sub *submission
	defer func() {
		if err != nil {
			s.rollback(ctx, marks)
			s.discardOriginal(ctx, sub)
			recordStageError(span, err)
		}
	}()

	ext, err := s.checkFile(id, req)
	if err != nil {
		return nil, err
	}

	sub = &submission{
		id:          id,
		source:      orDefault(req.SourceChannel, constants.DefaultSourceChannel),
		filename:    req.Filename,
		submittedAt: req.SubmittedAt,
	}
	if err = s.admitFile(ctx, sub, ext, req.Data, marks); err != nil {
		return nil, err
	}

	text, err := s.readText(ctx, id, ext, req.Data, req.Filename)
	if err != nil {
		return nil, err
	}

	res, err = s.processText(ctx, sub, text, marks)
	if err != nil {
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	log.Info().Str("candidate_id", res.Candidate.ID).Int("score", res.Candidate.Score).Msg("简历处理完成")
	return res, nil
}

// SubmitUpload 只做去重和原件存储，然后投递 resume.uploaded 消息异步处理
func (s *ResumeService) SubmitUpload(ctx context.Context, req UploadRequest) (res *UploadResult, err error) {
	if s.objects == nil || s.publisher == nil {
		return nil, fmt.Errorf("异步处理需要对象存储和消息队列: %w", ErrNotConfigured)
	}
	id, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("生成提交ID失败: %w", err)
	}
	ctx, span := tracer.Start(ctx, "ResumeService.SubmitUpload", trace.WithSpanKind(trace.SpanKindProducer))
	defer span.End()
	span.SetAttributes(attribute.String("submission_uuid", id))
	ctx = logger.WithSubmissionUUID(ctx, id)

	marks := &dedupMarks{}
	defer func() {
		if err != nil {
			s.rollback(ctx, marks)
			recordStageError(span, err)
		}
	}()

	ext, err := s.checkFile(id, req)
	if err != nil {
		return nil, err
	}
	sub := &submission{id: id, source: orDefault(req.SourceChannel, constants.DefaultSourceChannel), filename: req.Filename}
	if err = s.admitFile(ctx, sub, ext, req.Data, marks); err != nil {
		return nil, err
	}

	submittedAt := req.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = time.Now()
	}
	msg := storage.ResumeUploadMessage{
		SubmissionUUID:      id,
		SubmissionTimestamp: submittedAt,
		SourceChannel:       sub.source,
		OriginalFilename:    req.Filename,
		OriginalObjectKey:   sub.originalKey,
		RawFileMD5:          sub.fileMD5,
	}
	if err = s.publisher.PublishJSON(ctx, s.events.ResumeEventsExchange, s.events.UploadedRoutingKey, msg, true); err != nil {
		s.discardOriginal(ctx, sub)
		return nil, NewPublishError(id, err.Error())
	}
	span.SetStatus(codes.Ok, "")
	logger.FromContext(ctx).Info().Str("object_key", sub.originalKey).Msg("简历已提交到处理队列")
	return &UploadResult{SubmissionUUID: id, OriginalObject: sub.originalKey, Queued: true}, nil
}

// ProcessText 处理已经是纯文本的简历
func (s *ResumeService) ProcessText(ctx context.Context, text, source string) (res *UploadResult, err error) {
	id, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("生成提交ID失败: %w", err)
	}
	ctx, span := tracer.Start(ctx, "ResumeService.ProcessText")
	defer span.End()
	span.SetAttributes(attribute.String("submission_uuid", id), attribute.Int("text_length", len(text)))
	ctx = logger.WithSubmissionUUID(ctx, id)

	marks := &dedupMarks{}
	defer func() {
		if err != nil {
			s.rollback(ctx, marks)
			recordStageError(span, err)
		}
	}()

	sub := &submission{id: id, source: orDefault(source, constants.DefaultSourceChannel)}
	if res, err = s.processText(ctx, sub, text, marks); err != nil {
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return res, nil
}

// Extract 只抽取不保存，配置了缓存时按文本MD5复用结果
func (s *ResumeService) Extract(ctx context.Context, text string) (*types.ResumeRecord, bool, error) {
	return s.extract(ctx, utils.CalculateMD5([]byte(text)), text)
}

func (s *ResumeService) extract(ctx context.Context, textMD5, text string) (*types.ResumeRecord, bool, error) {
	log := logger.FromContext(ctx)
	if s.cache != nil {
		record, err := s.cache.GetCachedRecord(ctx, textMD5)
		switch {
		case err == nil && record != nil:
			log.Debug().Str("md5", textMD5).Msg("命中抽取结果缓存")
			return record, true, nil
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			log.Warn().Err(err).Msg("读取抽取结果缓存失败")
		}
	}

	record, err := s.extractor.Extract(ctx, text)
	if err != nil {
		return nil, false, err
	}
	if s.cache != nil && !record.Empty {
		if err := s.cache.CacheRecord(ctx, textMD5, record); err != nil {
			log.Warn().Err(err).Msg("缓存抽取结果失败")
		}
	}
	return record, false, nil
}

// readText .txt直接当文本，.pdf交给文本提取器
func (s *ResumeService) readText(ctx context.Context, id, ext string, data []byte, uri string) (string, error) {
	ctx, span := tracer.Start(ctx, "ResumeService.ReadText")
	defer span.End()

	if ext == ".txt" {
		if !utf8.Valid(data) {
			return strings.ToValidUTF8(string(data), ""), nil
		}
		return string(data), nil
	}
	if s.provider == nil {
		return "", NewParseError(id, "未配置PDF文本提取器")
	}
	text, err := s.provider.ExtractText(ctx, data, uri)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeParser)
		if errors.Is(err, parser.ErrPDFTooLarge) {
			return "", NewSizeError(id, ErrFileTooLarge, err.Error())
		}
		return "", NewParseError(id, err.Error())
	}
	span.SetAttributes(attribute.Int("text_length", len(text)))
	return text, nil
}

// processText 文本去重、抽取、上传文本、保存、发布
func (s *ResumeService) processText(ctx context.Context, sub *submission, text string, marks *dedupMarks) (*UploadResult, error) {
	log := logger.FromContext(ctx)
	span := trace.SpanFromContext(ctx)

	textMD5 := utils.CalculateMD5([]byte(text))
	if s.dedup != nil {
		exists, err := s.dedup.CheckAndAddTextMD5(ctx, textMD5)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("Redis检查文本MD5失败，继续处理，文本去重可能失效")
		case exists:
			span.SetAttributes(attribute.Bool("duplicate_content", true))
			return nil, NewDedupError(sub.id, ErrDuplicateContent, textMD5)
		default:
			marks.textMD5 = textMD5
		}
	}

	record, cached, err := s.extract(ctx, textMD5, text)
	if err != nil {
		return nil, NewExtractError(sub.id, err.Error())
	}
	if record.Empty {
		return nil, NewExtractError(sub.id, extractor.ErrEmptyDocument.Error())
	}

	c := storage.NewCandidate(sub.id, record)
	c.SourceChannel = sub.source
	c.SourceFilename = sub.filename
	c.FileMD5 = sub.fileMD5
	c.TextMD5 = textMD5
	c.OriginalObject = sub.originalKey
	if !sub.submittedAt.IsZero() {
		c.SubmittedAt = sub.submittedAt
	}

	if s.objects != nil {
		key, err := s.objects.UploadParsedText(ctx, sub.id, text)
		if err != nil {
			return nil, NewStoreError(sub.id, err.Error())
		}
		c.TextObject = key
	}

	if err := s.store.Save(ctx, c); err != nil {
		s.discardParsedText(ctx, c.TextObject)
		return nil, NewPersistError(sub.id, err.Error())
	}
	span.AddEvent("candidate_saved")

	if err := s.publishParsed(ctx, c); err != nil {
		// 候选人已保存，事件丢失只记录
		log.Error().Err(err).Msg("发布解析完成事件失败")
		tracing.RecordError(span, err, tracing.ErrorTypeRabbitMQ)
	}

	return &UploadResult{
		SubmissionUUID: sub.id,
		OriginalObject: sub.originalKey,
		Candidate:      c,
		Record:         record,
		Cached:         cached,
	}, nil
}

// publishParsed 存储自带outbox时由中继投递，这里不重复发布
func (s *ResumeService) publishParsed(ctx context.Context, c *storage.Candidate) error {
	if s.publisher == nil {
		return nil
	}
	if ow, ok := s.store.(outboxWriter); ok && ow.OutboxEnabled() {
		return nil
	}
	if err := s.publisher.PublishJSON(ctx, s.events.ResumeEventsExchange, s.events.ParsedRoutingKey, storage.NewResumeParsedEvent(c), true); err != nil {
		return NewPublishError(c.ID, err.Error())
	}
	return nil
}

// StartUploadConsumer 声明队列拓扑并开始消费 resume.uploaded 消息
func (s *ResumeService) StartUploadConsumer(ctx context.Context) (<-chan struct{}, error) {
	if s.consumer == nil || s.objects == nil {
		return nil, fmt.Errorf("上传消费者需要消息队列和对象存储: %w", ErrNotConfigured)
	}
	ev := s.events
	if err := s.consumer.EnsureExchange(ev.ResumeEventsExchange, "direct", true); err != nil {
		return nil, err
	}
	if err := s.consumer.EnsureQueue(ev.RawResumeQueue, true); err != nil {
		return nil, err
	}
	if err := s.consumer.BindQueue(ev.RawResumeQueue, ev.ResumeEventsExchange, ev.UploadedRoutingKey); err != nil {
		return nil, err
	}
	s.log.Info().
		Str("queue", ev.RawResumeQueue).
		Int("workers", ev.ConsumerWorkers).
		Msg("开始消费简历上传消息")
	return s.consumer.StartConsumer(ctx, ev.RawResumeQueue, ev.PrefetchCount, ev.ConsumerWorkers, s.HandleUploadMessage)
}

// HandleUploadMessage 处理一条上传消息，返回true表示确认
func (s *ResumeService) HandleUploadMessage(ctx context.Context, body []byte) bool {
	var msg storage.ResumeUploadMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		logger.FromContext(ctx).Error().Err(err).Msg("上传消息格式错误，丢弃")
		return true
	}
	err := s.ProcessStoredUpload(ctx, msg)
	switch {
	case err == nil:
		return true
	case ctx.Err() != nil:
		return false
	case IsPermanent(err):
		logger.FromContext(ctx).Warn().Err(err).Msg("简历无法处理，确认消息")
		return true
	}
	logger.FromContext(ctx).Error().Err(err).Msg("处理上传消息失败，重新入队")
	return false
}

// ProcessStoredUpload 处理已在对象存储中的原件
func (s *ResumeService) ProcessStoredUpload(ctx context.Context, msg storage.ResumeUploadMessage) (err error) {
	ctx, span := tracer.Start(ctx, "ResumeService.ProcessStoredUpload", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()
	span.SetAttributes(
		attribute.String("submission_uuid", msg.SubmissionUUID),
		attribute.String("source_channel", msg.SourceChannel),
	)
	ctx = logger.WithSubmissionUUID(ctx, msg.SubmissionUUID)

	// 瞬时失败时回滚文本MD5，重新入队后才能再次处理
	marks := &dedupMarks{}
	defer func() {
		if err != nil && !IsPermanent(err) {
			s.rollback(ctx, marks)
		}
		if err != nil {
			recordStageError(span, err)
		}
	}()

	if s.objects == nil {
		return NewStoreError(msg.SubmissionUUID, "未配置对象存储")
	}
	data, err := s.objects.GetOriginal(ctx, msg.OriginalObjectKey)
	if err != nil {
		return NewStoreError(msg.SubmissionUUID, err.Error())
	}

	ext := strings.ToLower(filepath.Ext(msg.OriginalObjectKey))
	text, err := s.readText(ctx, msg.SubmissionUUID, ext, data, msg.OriginalFilename)
	if err != nil {
		return err
	}

	sub := &submission{
		id:          msg.SubmissionUUID,
		source:      orDefault(msg.SourceChannel, constants.DefaultSourceChannel),
		filename:    msg.OriginalFilename,
		fileMD5:     msg.RawFileMD5,
		originalKey: msg.OriginalObjectKey,
		submittedAt: msg.SubmissionTimestamp,
	}
	res, err := s.processText(ctx, sub, text, marks)
	if err != nil {
		return err
	}
	span.SetStatus(codes.Ok, "")
	logger.FromContext(ctx).Info().Str("candidate_id", res.Candidate.ID).Msg("上传消息处理完成")
	return nil
}

func recordStageError(span trace.Span, err error) {
	errType := tracing.ErrorTypeInternal
	switch {
	case errors.Is(err, ErrDuplicateFile), errors.Is(err, ErrDuplicateContent),
		errors.Is(err, ErrEmptyFile), errors.Is(err, ErrFileTooLarge), errors.Is(err, ErrUnsupportedFile):
		errType = tracing.ErrorTypeValidation
	case errors.Is(err, ErrStoreFailed):
		errType = tracing.ErrorTypeObjectStore
	case errors.Is(err, ErrParseTextFailed):
		errType = tracing.ErrorTypeParser
	case errors.Is(err, ErrExtractFailed):
		errType = tracing.ErrorTypeExtraction
	case errors.Is(err, ErrPersistFailed):
		errType = tracing.ErrorTypeDB
	case errors.Is(err, ErrPublishFailed):
		errType = tracing.ErrorTypeRabbitMQ
	}
	tracing.RecordError(span, err, errType)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
