package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-analyzer-go/internal/extractor"
	"resume-analyzer-go/internal/storage"
	"resume-analyzer-go/internal/types"
	"resume-analyzer-go/internal/vocab"
	"resume-analyzer-go/pkg/utils"
)

const janeDoeText = "Jane Doe\njane.doe@example.com\nEDUCATION\nBachelor of Science in Computer Science, ABC University (2015 - 2019)\nSKILLS\nPython, SQL, Docker\nEXPERIENCE\nSoftware Engineer\nTechCorp\n01/2020 - Present"

// memDedup 内存去重集合
type memDedup struct {
	mu    sync.Mutex
	files map[string]bool
	texts map[string]bool
	err   error
}

func newMemDedup() *memDedup {
	return &memDedup{files: map[string]bool{}, texts: map[string]bool{}}
}

func (m *memDedup) checkAndAdd(set map[string]bool, md5Hex string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	exists := set[md5Hex]
	set[md5Hex] = true
	return exists, nil
}

func (m *memDedup) CheckAndAddFileMD5(ctx context.Context, md5Hex string) (bool, error) {
	return m.checkAndAdd(m.files, md5Hex)
}

func (m *memDedup) CheckAndAddTextMD5(ctx context.Context, md5Hex string) (bool, error) {
	return m.checkAndAdd(m.texts, md5Hex)
}

func (m *memDedup) RemoveFileMD5(ctx context.Context, md5Hex string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, md5Hex)
	return nil
}

func (m *memDedup) RemoveTextMD5(ctx context.Context, md5Hex string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.texts, md5Hex)
	return nil
}

// memCache 内存结果缓存
type memCache struct {
	records map[string]*types.ResumeRecord
}

func (m *memCache) CacheRecord(ctx context.Context, textMD5 string, record *types.ResumeRecord) error {
	m.records[textMD5] = record
	return nil
}

func (m *memCache) GetCachedRecord(ctx context.Context, textMD5 string) (*types.ResumeRecord, error) {
	if r, ok := m.records[textMD5]; ok {
		return r, nil
	}
	return nil, storage.ErrNotFound
}

// memObjects 内存对象存储
type memObjects struct {
	mu        sync.Mutex
	originals map[string][]byte
	texts     map[string]string
	getErr    error
}

func newMemObjects() *memObjects {
	return &memObjects{originals: map[string][]byte{}, texts: map[string]string{}}
}

func (m *memObjects) UploadOriginal(ctx context.Context, submissionUUID, fileExt string, reader io.Reader, size int64) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	key := storage.OriginalObjectKey(submissionUUID, fileExt)
	m.mu.Lock()
	m.originals[key] = data
	m.mu.Unlock()
	return key, nil
}

func (m *memObjects) GetOriginal(ctx context.Context, objectKey string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	data, ok := m.originals[objectKey]
	if !ok {
		return nil, fmt.Errorf("对象不存在: %s", objectKey)
	}
	return data, nil
}

func (m *memObjects) UploadParsedText(ctx context.Context, submissionUUID, text string) (string, error) {
	key := storage.ParsedTextObjectKey(submissionUUID)
	m.mu.Lock()
	m.texts[key] = text
	m.mu.Unlock()
	return key, nil
}

func (m *memObjects) DeleteParsedText(ctx context.Context, objectKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.texts, objectKey)
	return nil
}

func (m *memObjects) DeleteOriginal(ctx context.Context, objectKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.originals, objectKey)
	return nil
}

type published struct {
	exchange   string
	routingKey string
	body       []byte
}

// fakePublisher 记录发布的消息
type fakePublisher struct {
	mu       sync.Mutex
	messages []published
	err      error
}

func (p *fakePublisher) PublishJSON(ctx context.Context, exchangeName, routingKey string, data interface{}, persistent bool) error {
	if p.err != nil {
		return p.err
	}
	body, err := json.Marshal(data)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.messages = append(p.messages, published{exchange: exchangeName, routingKey: routingKey, body: body})
	p.mu.Unlock()
	return nil
}

func (p *fakePublisher) byKey(routingKey string) []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []published
	for _, m := range p.messages {
		if m.routingKey == routingKey {
			out = append(out, m)
		}
	}
	return out
}

// fakeConsumer 记录队列拓扑
type fakeConsumer struct {
	exchange string
	queue    string
	bindings []string
	workers  int
	handler  storage.MessageHandler
}

func (c *fakeConsumer) EnsureExchange(exchangeName, exchangeType string, durable bool) error {
	c.exchange = exchangeName + ":" + exchangeType
	return nil
}

func (c *fakeConsumer) EnsureQueue(queueName string, durable bool) error {
	c.queue = queueName
	return nil
}

func (c *fakeConsumer) BindQueue(queueName, exchangeName, routingKey string) error {
	c.bindings = append(c.bindings, queueName+"<-"+exchangeName+"/"+routingKey)
	return nil
}

func (c *fakeConsumer) StartConsumer(ctx context.Context, queueName string, prefetchCount, workers int, handler storage.MessageHandler) (<-chan struct{}, error) {
	c.workers = workers
	c.handler = handler
	done := make(chan struct{})
	close(done)
	return done, nil
}

// stubProvider 固定返回的文本提取器
type stubProvider struct {
	text string
	err  error
}

func (p stubProvider) Name() string { return "stub" }

func (p stubProvider) ExtractText(ctx context.Context, data []byte, uri string) (string, error) {
	return p.text, p.err
}

// outboxStore 带outbox标记的存储
type outboxStore struct {
	storage.CandidateStore
}

func (outboxStore) OutboxEnabled() bool { return true }

// failingStore 保存总是失败的存储
type failingStore struct {
	storage.CandidateStore
	err error
}

func (f failingStore) Save(ctx context.Context, c *storage.Candidate) error { return f.err }

type harness struct {
	svc     *ResumeService
	store   *storage.SQLiteStore
	dedup   *memDedup
	cache   *memCache
	objects *memObjects
	pub     *fakePublisher
}

func sequentialIDs() func() (string, error) {
	var mu sync.Mutex
	n := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("sub-%03d", n), nil
	}
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "candidates.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	h := &harness{
		store:   store,
		dedup:   newMemDedup(),
		cache:   &memCache{records: map[string]*types.ResumeRecord{}},
		objects: newMemObjects(),
		pub:     &fakePublisher{},
	}
	base := []Option{
		WithTextProvider(stubProvider{text: janeDoeText}),
		WithObjectStorage(h.objects),
		WithDeduplicator(h.dedup),
		WithRecordCache(h.cache),
		WithPublisher(h.pub),
		WithIDGenerator(sequentialIDs()),
	}
	h.svc, err = NewResumeService(extractor.New(extractor.WithVocabulary(vocab.Default())), store, append(base, opts...)...)
	require.NoError(t, err)
	return h
}

func TestNewResumeServiceRequiresCollaborators(t *testing.T) {
	_, err := NewResumeService(nil, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewResumeService(extractor.New(), nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestProcessUploadText(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res, err := h.svc.ProcessUpload(ctx, UploadRequest{Filename: "Jane_Doe.TXT", Data: []byte(janeDoeText)})
	require.NoError(t, err)
	require.NotNil(t, res.Candidate)
	assert.Equal(t, "sub-001", res.SubmissionUUID)
	assert.False(t, res.Cached)

	got, err := h.store.Get(ctx, "sub-001")
	require.NoError(t, err)
	assert.Equal(t, "Jane", got.FirstName)
	assert.Equal(t, "Doe", got.LastName)
	assert.Equal(t, "jane.doe@example.com", got.Email)
	assert.Equal(t, "web_upload", got.SourceChannel, "未指定来源时使用默认渠道")
	assert.Equal(t, "Jane_Doe.TXT", got.SourceFilename)
	assert.Equal(t, utils.CalculateMD5([]byte(janeDoeText)), got.FileMD5)
	assert.Equal(t, utils.CalculateMD5([]byte(janeDoeText)), got.TextMD5)
	assert.Equal(t, "resume/sub-001/original.txt", got.OriginalObject)
	assert.Equal(t, storage.ParsedTextObjectKey("sub-001"), got.TextObject)
	assert.Contains(t, got.Skills, "python")

	assert.Equal(t, janeDoeText, h.objects.texts[got.TextObject], "解析文本已上传")
	assert.Len(t, h.cache.records, 1, "抽取结果已缓存")
	assert.True(t, h.dedup.files[got.FileMD5])
	assert.True(t, h.dedup.texts[got.TextMD5])

	events := h.pub.byKey("resume.parsed")
	require.Len(t, events, 1, "存储没有outbox时直接发布事件")
	var event storage.ResumeParsedEvent
	require.NoError(t, json.Unmarshal(events[0].body, &event))
	assert.Equal(t, "sub-001", event.CandidateID)
	assert.Equal(t, "Jane Doe", event.FullName)
	assert.Equal(t, "resume.events.exchange", events[0].exchange)
}

func TestProcessUploadPDF(t *testing.T) {
	h := newHarness(t)
	res, err := h.svc.ProcessUpload(context.Background(), UploadRequest{
		Filename:      "resume.pdf",
		Data:          []byte("%PDF-1.4 fake"),
		SourceChannel: "email",
	})
	require.NoError(t, err)
	assert.Equal(t, "email", res.Candidate.SourceChannel)
	assert.Equal(t, "resume/sub-001/original.pdf", res.Candidate.OriginalObject)
	assert.Equal(t, "Jane", res.Record.Contact.FirstName)
}

func TestProcessUploadDuplicates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.ProcessUpload(ctx, UploadRequest{Filename: "a.pdf", Data: []byte("%PDF-1.4 a")})
	require.NoError(t, err)

	t.Run("相同文件", func(t *testing.T) {
		_, err := h.svc.ProcessUpload(ctx, UploadRequest{Filename: "copy.pdf", Data: []byte("%PDF-1.4 a")})
		assert.ErrorIs(t, err, ErrDuplicateFile)
		assert.True(t, IsPermanent(err))
	})

	t.Run("不同文件相同内容", func(t *testing.T) {
		other := []byte("%PDF-1.4 b")
		_, err := h.svc.ProcessUpload(ctx, UploadRequest{Filename: "b.pdf", Data: other})
		assert.ErrorIs(t, err, ErrDuplicateContent)
		assert.False(t, h.dedup.files[utils.CalculateMD5(other)], "失败后文件MD5被回滚")
	})

	candidates, err := h.store.Search(ctx, storage.SearchQuery{})
	require.NoError(t, err)
	assert.Len(t, candidates, 1)
}

func TestProcessUploadRejectsFiles(t *testing.T) {
	h := newHarness(t, WithMaxFileSize(32))
	ctx := context.Background()

	_, err := h.svc.ProcessUpload(ctx, UploadRequest{Filename: "empty.pdf"})
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = h.svc.ProcessUpload(ctx, UploadRequest{Filename: "big.pdf", Data: bytes.Repeat([]byte("x"), 33)})
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = h.svc.ProcessUpload(ctx, UploadRequest{Filename: "resume.docx", Data: []byte("PK")})
	assert.ErrorIs(t, err, ErrUnsupportedFile)

	var perr *ResumeProcessError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "size", perr.Op)

	assert.Empty(t, h.dedup.files, "校验失败不写去重记录")
	assert.Empty(t, h.objects.originals)
}

func TestProcessUploadParseFailureRollsBack(t *testing.T) {
	h := newHarness(t, WithTextProvider(stubProvider{err: errors.New("tika down")}))

	_, err := h.svc.ProcessUpload(context.Background(), UploadRequest{Filename: "a.pdf", Data: []byte("%PDF-1.4 a")})
	assert.ErrorIs(t, err, ErrParseTextFailed)
	assert.Contains(t, err.Error(), "tika down")
	assert.Empty(t, h.dedup.files, "失败后可以重新上传")
	assert.Empty(t, h.objects.originals, "失败后删除原件")
}

func TestProcessUploadSaveFailureRemovesObjects(t *testing.T) {
	h := newHarness(t)
	svc, err := NewResumeService(extractor.New(extractor.WithVocabulary(vocab.Default())),
		failingStore{CandidateStore: h.store, err: errors.New("disk full")},
		WithObjectStorage(h.objects),
		WithDeduplicator(h.dedup),
		WithIDGenerator(sequentialIDs()),
	)
	require.NoError(t, err)

	_, err = svc.ProcessUpload(context.Background(), UploadRequest{Filename: "jane.txt", Data: []byte(janeDoeText)})
	assert.ErrorIs(t, err, ErrPersistFailed)
	assert.Empty(t, h.objects.originals, "保存失败后删除原件")
	assert.Empty(t, h.objects.texts, "保存失败后删除解析文本")
	assert.Empty(t, h.dedup.files)
	assert.Empty(t, h.dedup.texts)
}

func TestStoredUploadSaveFailureKeepsOriginal(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res, err := h.svc.SubmitUpload(ctx, UploadRequest{Filename: "jane.txt", Data: []byte(janeDoeText)})
	require.NoError(t, err)
	uploads := h.pub.byKey("resume.uploaded")
	require.Len(t, uploads, 1)

	svc, err := NewResumeService(extractor.New(extractor.WithVocabulary(vocab.Default())),
		failingStore{CandidateStore: h.store, err: errors.New("disk full")},
		WithObjectStorage(h.objects),
		WithDeduplicator(h.dedup),
	)
	require.NoError(t, err)

	assert.False(t, svc.HandleUploadMessage(ctx, uploads[0].body), "保存失败时重新入队")
	assert.Contains(t, h.objects.originals, res.OriginalObject, "原件留给重试")
	assert.Empty(t, h.objects.texts, "解析文本被删除")
	assert.Empty(t, h.dedup.texts, "文本MD5被回滚")

	assert.True(t, h.svc.HandleUploadMessage(ctx, uploads[0].body), "重试成功")
	_, err = h.store.Get(ctx, res.SubmissionUUID)
	assert.NoError(t, err)
}

func TestProcessUploadWithoutProvider(t *testing.T) {
	h := newHarness(t, WithTextProvider(nil))
	_, err := h.svc.ProcessUpload(context.Background(), UploadRequest{Filename: "a.pdf", Data: []byte("%PDF-1.4 a")})
	assert.ErrorIs(t, err, ErrParseTextFailed)
}

func TestProcessTextEmptyDocument(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.ProcessText(context.Background(), "   \n\t", "api")
	assert.ErrorIs(t, err, ErrExtractFailed)
	assert.Empty(t, h.dedup.texts, "空文档的文本MD5被回滚")
}

func TestProcessTextOutboxStore(t *testing.T) {
	h := newHarness(t)
	svc, err := NewResumeService(extractor.New(), outboxStore{h.store}, WithPublisher(h.pub))
	require.NoError(t, err)

	res, err := svc.ProcessText(context.Background(), janeDoeText, "api")
	require.NoError(t, err)
	assert.Equal(t, "api", res.Candidate.SourceChannel)
	assert.Empty(t, h.pub.byKey("resume.parsed"), "outbox存储由中继投递事件")
}

func TestProcessTextPublishFailureKeepsCandidate(t *testing.T) {
	h := newHarness(t)
	h.pub.err = errors.New("broker closed")

	res, err := h.svc.ProcessText(context.Background(), janeDoeText, "")
	require.NoError(t, err, "候选人已保存时发布失败不影响结果")
	_, err = h.store.Get(context.Background(), res.SubmissionUUID)
	assert.NoError(t, err)
}

func TestExtractUsesCache(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, cached, err := h.svc.Extract(ctx, janeDoeText)
	require.NoError(t, err)
	assert.False(t, cached)

	second, cached, err := h.svc.Extract(ctx, janeDoeText)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Same(t, first, second)

	_, _, err = h.svc.Extract(ctx, "")
	require.NoError(t, err)
	assert.Len(t, h.cache.records, 1, "空结果不缓存")
}

func TestSubmitUploadAndConsume(t *testing.T) {
	consumer := &fakeConsumer{}
	h := newHarness(t, WithUploadConsumer(consumer))
	ctx := context.Background()

	res, err := h.svc.SubmitUpload(ctx, UploadRequest{Filename: "jane.txt", Data: []byte(janeDoeText), SourceChannel: "referral"})
	require.NoError(t, err)
	assert.True(t, res.Queued)
	assert.Nil(t, res.Candidate)

	uploads := h.pub.byKey("resume.uploaded")
	require.Len(t, uploads, 1)

	done, err := h.svc.StartUploadConsumer(ctx)
	require.NoError(t, err)
	<-done
	assert.Equal(t, "resume.events.exchange:direct", consumer.exchange)
	assert.Equal(t, "q.raw_resume_uploaded", consumer.queue)
	assert.Equal(t, []string{"q.raw_resume_uploaded<-resume.events.exchange/resume.uploaded"}, consumer.bindings)
	assert.Equal(t, 4, consumer.workers)

	require.NotNil(t, consumer.handler)
	assert.True(t, consumer.handler(ctx, uploads[0].body))

	got, err := h.store.Get(ctx, res.SubmissionUUID)
	require.NoError(t, err)
	assert.Equal(t, "referral", got.SourceChannel)
	assert.Equal(t, "jane.txt", got.SourceFilename)
	assert.Equal(t, utils.CalculateMD5([]byte(janeDoeText)), got.FileMD5)
	assert.Len(t, h.pub.byKey("resume.parsed"), 1)

	assert.True(t, h.svc.HandleUploadMessage(ctx, uploads[0].body), "重复消息按内容去重后确认")
}

func TestHandleUploadMessageFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	assert.True(t, h.svc.HandleUploadMessage(ctx, []byte("{not json")), "格式错误的消息直接确认")

	body, err := json.Marshal(storage.ResumeUploadMessage{SubmissionUUID: "x", OriginalObjectKey: "resume/x/original.pdf"})
	require.NoError(t, err)
	assert.False(t, h.svc.HandleUploadMessage(ctx, body), "读取原件失败时重新入队")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.False(t, h.svc.HandleUploadMessage(cancelled, body))
}

func TestAsyncRequiresCollaborators(t *testing.T) {
	h := newHarness(t, WithObjectStorage(nil))
	_, err := h.svc.SubmitUpload(context.Background(), UploadRequest{Filename: "a.txt", Data: []byte("x")})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = h.svc.StartUploadConsumer(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestResumeProcessError(t *testing.T) {
	err := NewPersistError("u-1", "disk full")
	assert.Equal(t, "保存候选人失败 (操作:persist, UUID:u-1): disk full", err.Error())
	assert.ErrorIs(t, err, ErrPersistFailed)
	assert.False(t, IsPermanent(err))

	assert.True(t, IsPermanent(NewParseError("u-1", "")))
	assert.Equal(t, "提取简历文本失败 (操作:parse, UUID:u-1)", NewParseError("u-1", "").Error())
}
