package extractor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-analyzer-go/internal/config"
	"resume-analyzer-go/internal/nlp"
	"resume-analyzer-go/internal/types"
	"resume-analyzer-go/internal/vocab"
)

const janeDoeResume = "Jane Doe\njane.doe@example.com\nEDUCATION\nBachelor of Science in Computer Science, ABC University (2015 - 2019)\nSKILLS\nPython, SQL, Docker\nEXPERIENCE\nSoftware Engineer\nTechCorp\n01/2020 - Present"

const richResume = `JOHN MICHAEL SMITH
Seattle, WA | (206) 555-0142 | john.smith@example.com
linkedin.com/in/johnsmith | github.com/jsmith

SUMMARY
Backend engineer focused on distributed systems.

EXPERIENCE
Senior Software Engineer | Acme Corp | 01/2020 - Present
Led a team of five engineers building payment APIs
Designed the settlement pipeline
Data Analyst
Globex
06/2017 - 12/2019
Assisted with quarterly reporting

EDUCATION
Master of Science in Computer Science, University of Washington, 2015 - 2017, GPA: 3.9

SKILLS
Golang, Kubernetes, PostgreSQL, Kafka

HONORS AND AWARDS
• Honors: Dean's List
• Employee of the Year 2021
• Hackathon winner`

func fixedNow() time.Time {
	return time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
}

func newTestExtractor(opts ...Option) *Extractor {
	base := []Option{WithClock(fixedNow), WithVocabulary(vocab.Default())}
	return New(append(base, opts...)...)
}

func TestExtractJaneDoeScenario(t *testing.T) {
	e := newTestExtractor()
	record, err := e.Extract(context.Background(), janeDoeResume)
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.False(t, record.Empty)
	assert.Equal(t, "Jane", record.Contact.FirstName)
	assert.Equal(t, "Doe", record.Contact.LastName)
	assert.Equal(t, "jane.doe@example.com", record.Contact.Email)

	for _, skill := range []string{"python", "sql", "docker"} {
		assert.True(t, record.Skills.Contains(skill), "应包含技能 %s", skill)
	}

	require.Len(t, record.Education, 1)
	assert.Contains(t, record.Education[0].Degree, "Bachelor of Science")
	assert.Equal(t, "ABC University", record.Education[0].Institution)
	assert.Equal(t, "Computer Science", record.Education[0].Field)
	assert.Equal(t, "Computer Science", record.Major)

	require.Len(t, record.Experience.Entries, 1)
	entry := record.Experience.Entries[0]
	assert.Equal(t, "Software Engineer", entry.Title)
	assert.Equal(t, "TechCorp", entry.Company)
	assert.True(t, entry.Dates.End.Present, "只写了至今的区间是开放区间")
	assert.True(t, entry.Parseable)
	want, err := ComputeDuration(entry.Dates, fixedNow())
	require.NoError(t, err)
	assert.Equal(t, want, entry.Duration, "时长相对当前时间计算")
	assert.Equal(t, types.Duration{Years: 5, Months: 5}, entry.Duration)

	assert.Equal(t, types.ScoreSchemeWeighted, record.Score.Scheme)
	assert.Equal(t, record.Score.Total(), record.TotalScore)
	assert.Greater(t, record.TotalScore, 0)
	assert.NotEmpty(t, record.Sections)
}

func TestExtractEmptyInput(t *testing.T) {
	e := newTestExtractor()
	for _, input := range []string{"", "   \n\t \r\n"} {
		record, err := e.Extract(context.Background(), input)
		require.NoError(t, err, "空输入不是错误")
		require.NotNil(t, record)

		assert.True(t, record.Empty)
		assert.Equal(t, types.ContactInfo{}, record.Contact)
		assert.Equal(t, 0, record.Skills.Len())
		assert.Empty(t, record.Education)
		assert.Empty(t, record.Achievements)
		assert.Equal(t, types.ExperienceSummary{}, record.Experience)
		assert.Equal(t, 0, record.TotalScore)
		assert.Equal(t, 0, record.Score.Total())
	}
}

func TestExtractRichResume(t *testing.T) {
	e := newTestExtractor()
	record, err := e.Extract(context.Background(), richResume)
	require.NoError(t, err)

	assert.Equal(t, "John", record.Contact.FirstName)
	assert.Equal(t, "Michael Smith", record.Contact.LastName)
	assert.Equal(t, "(206) 555-0142", record.Contact.Phone)
	assert.Equal(t, "+12065550142", record.Contact.PhoneE164)
	assert.Equal(t, "linkedin.com/in/johnsmith", record.Contact.LinkedIn)
	assert.Equal(t, "github.com/jsmith", record.Contact.GitHub)
	assert.Equal(t, "Seattle, WA", record.Contact.Location)

	require.Len(t, record.Experience.Entries, 2)
	assert.Equal(t, "Senior Software Engineer", record.Experience.Entries[0].Title)
	assert.Equal(t, "Acme Corp", record.Experience.Entries[0].Company)
	assert.Equal(t, "Globex", record.Experience.Entries[1].Company)
	assert.Equal(t, types.SenioritySenior, record.Experience.Seniority)
	assert.Equal(t, 2, record.Experience.DistinctPositions)

	require.Len(t, record.Education, 1)
	assert.Equal(t, types.DegreeMaster, record.Education[0].Level)
	assert.Equal(t, "University of Washington", record.Education[0].Institution)
	assert.Equal(t, "3.9", record.Education[0].GPA)

	for _, skill := range []string{"golang", "kubernetes", "postgresql", "kafka"} {
		assert.True(t, record.Skills.Contains(skill), "应包含技能 %s", skill)
	}
	assert.Equal(t, []string{"Employee of the Year 2021", "Hackathon winner"}, record.Achievements)
}

func TestExtractIsIdempotent(t *testing.T) {
	e := newTestExtractor()
	first, err := e.Extract(context.Background(), richResume)
	require.NoError(t, err)
	second, err := e.Extract(context.Background(), richResume)
	require.NoError(t, err)
	assert.Equal(t, first, second, "相同输入两次抽取结果应完全一致")
}

func TestExtractConcurrentUse(t *testing.T) {
	e := newTestExtractor()
	want, err := e.Extract(context.Background(), richResume)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*types.ResumeRecord, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = e.Extract(context.Background(), richResume)
		}(i)
	}
	wg.Wait()
	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestExtractCancelledContext(t *testing.T) {
	e := newTestExtractor()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	record, err := e.Extract(ctx, janeDoeResume)
	assert.Nil(t, record)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtractionAborted)
	assert.ErrorIs(t, err, context.Canceled)

	var extractionErr *ExtractionError
	require.True(t, errors.As(err, &extractionErr))
	assert.Equal(t, "start", extractionErr.Op)
}

// slowModel 每次调用都阻塞到ctx结束
type slowModel struct{}

func (slowModel) wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(10 * time.Second):
		return nil
	}
}

func (m slowModel) FindPersonEntities(ctx context.Context, _ string) ([]nlp.Span, error) {
	return nil, m.wait(ctx)
}

func (m slowModel) FindOrgEntities(ctx context.Context, _ string) ([]nlp.Span, error) {
	return nil, m.wait(ctx)
}

func (m slowModel) FindLocationEntities(ctx context.Context, _ string) ([]nlp.Span, error) {
	return nil, m.wait(ctx)
}

func (m slowModel) FindSkillEntities(ctx context.Context, _ string) ([]nlp.Span, error) {
	return nil, m.wait(ctx)
}

func (m slowModel) FindVerbs(ctx context.Context, _ string) ([]string, error) {
	return nil, m.wait(ctx)
}

// panicModel 每次调用都panic
type panicModel struct{}

func (panicModel) FindPersonEntities(context.Context, string) ([]nlp.Span, error) { panic("boom") }

func (panicModel) FindOrgEntities(context.Context, string) ([]nlp.Span, error) { panic("boom") }

func (panicModel) FindLocationEntities(context.Context, string) ([]nlp.Span, error) { panic("boom") }

func (panicModel) FindSkillEntities(context.Context, string) ([]nlp.Span, error) { panic("boom") }

func (panicModel) FindVerbs(context.Context, string) ([]string, error) { panic("boom") }

func TestExtractFallsBackWhenModelIsSlow(t *testing.T) {
	e := newTestExtractor(WithLanguageModel(slowModel{}), WithModelTimeout(20*time.Millisecond))

	start := time.Now()
	record, err := e.Extract(context.Background(), janeDoeResume)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 3*time.Second, "模型超时后应立即退回正则路径")

	assert.Equal(t, "Jane", record.Contact.FirstName)
	assert.Equal(t, "Doe", record.Contact.LastName)
	assert.True(t, record.Skills.Contains("python"))
	require.Len(t, record.Experience.Entries, 1)
	assert.Equal(t, types.LevelUnassigned, record.Experience.Level, "模型不可用时不判定经验层级")
}

func TestExtractSurvivesPanickingModel(t *testing.T) {
	e := newTestExtractor(WithLanguageModel(panicModel{}))
	record, err := e.Extract(context.Background(), janeDoeResume)
	require.NoError(t, err)
	assert.Equal(t, "Jane", record.Contact.FirstName)
	assert.Equal(t, "ABC University", record.Education[0].Institution)
}

func TestExtractWithoutModel(t *testing.T) {
	withModel, err := newTestExtractor().Extract(context.Background(), janeDoeResume)
	require.NoError(t, err)
	regexOnly, err := newTestExtractor(WithLanguageModel(nil)).Extract(context.Background(), janeDoeResume)
	require.NoError(t, err)

	assert.Equal(t, withModel.Contact, regexOnly.Contact)
	assert.Equal(t, withModel.Education, regexOnly.Education)
	assert.Equal(t, withModel.Experience.Entries[0].Title, regexOnly.Experience.Entries[0].Title)
}

func TestExtractCoarseScheme(t *testing.T) {
	e := newTestExtractor(WithScorer(CoarseScorer{}))
	record, err := e.Extract(context.Background(), janeDoeResume)
	require.NoError(t, err)

	assert.Equal(t, types.ScoreSchemeCoarse, record.Score.Scheme)
	assert.Equal(t, 100, record.TotalScore, "姓名、邮箱、专业、技能齐全")
	assert.Equal(t, 0, record.Score.Experience, "两种方案不混用")
}

func TestExtractWithoutSections(t *testing.T) {
	record, err := newTestExtractor(WithSections(false)).Extract(context.Background(), janeDoeResume)
	require.NoError(t, err)
	assert.Empty(t, record.Sections)
}

func TestNewFromConfig(t *testing.T) {
	e, err := NewFromConfig(config.ExtractorConfig{ScoringScheme: "coarse", ModelTimeout: "500ms", PhoneRegion: "GB"})
	require.NoError(t, err)
	assert.Equal(t, types.ScoreSchemeCoarse, e.Scheme())
	assert.Equal(t, 500*time.Millisecond, e.modelTimeout)
	assert.Equal(t, "GB", e.phoneRegion)
	assert.NotEmpty(t, e.Vocabulary().Skills, "未配置路径时使用内置词表")

	_, err = NewFromConfig(config.ExtractorConfig{ScoringScheme: "fancy"})
	assert.Error(t, err)
}
