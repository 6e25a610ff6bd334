// Package extractor 简历信息抽取引擎：文本规范化、章节切分、字段抽取与评分
//
// Extractor 构造后只读，可被多个goroutine并发调用；每次 Extract 的中间状态都在调用栈上。
package extractor

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/nlp"
	"resume-analyzer-go/internal/tracing"
	"resume-analyzer-go/internal/types"
	"resume-analyzer-go/internal/vocab"
)

var tracer = otel.Tracer("extractor")

// Extractor 简历抽取器
type Extractor struct {
	vocab         *vocab.Vocabulary
	languageModel nlp.LanguageModel
	modelSet      bool
	modelTimeout  time.Duration
	model         *guardedModel
	scorer        Scorer
	now           func() time.Time
	phoneRegion   string
	keepSections  bool
	log           zerolog.Logger

	// 构造时预处理的小写词条，下标与词表一一对应
	skillTerms     []string
	majorTerms     []string
	positionTitles []string
}

// New 创建抽取器
// 未指定语言模型时使用基于规则的 nlp.HeuristicModel；WithLanguageModel(nil) 关闭模型
func New(opts ...Option) *Extractor {
	e := &Extractor{
		modelTimeout: DefaultModelTimeout,
		scorer:       WeightedScorer{},
		now:          time.Now,
		phoneRegion:  "US",
		keepSections: true,
		log:          logger.Component("extractor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.vocab == nil {
		e.vocab = vocab.Default()
	}
	if !e.modelSet {
		e.languageModel = nlp.NewHeuristicModel(nlp.WithNameNoiseWords(e.vocab.PositionTitles()...))
	}
	e.model = &guardedModel{model: e.languageModel, timeout: e.modelTimeout, log: e.log}

	e.skillTerms = lowerTerms(e.vocab.Skills)
	e.majorTerms = lowerTerms(e.vocab.Majors)
	e.positionTitles = lowerTerms(e.vocab.PositionTitles())
	return e
}

func lowerTerms(items []string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = strings.ToLower(foldDiacritics(strings.TrimSpace(item)))
	}
	return out
}

// Vocabulary 返回抽取器使用的词表
func (e *Extractor) Vocabulary() *vocab.Vocabulary {
	return e.vocab
}

// Scheme 返回当前评分方案
func (e *Extractor) Scheme() types.ScoreScheme {
	return e.scorer.Scheme()
}

// Extract 从简历纯文本构建结构化记录
// 字段识别失败不是错误，对应字段为空；只有ctx被取消或超时时返回 *ExtractionError。
// 空白输入返回 Empty=true、得分为0的记录。
func (e *Extractor) Extract(ctx context.Context, text string) (*types.ResumeRecord, error) {
	ctx, span := tracer.Start(ctx, "extractor.Extract")
	defer span.End()
	span.SetAttributes(attribute.Int("text.length", len(text)))

	if err := ctx.Err(); err != nil {
		return nil, e.abort(span, "start", err)
	}

	normalized := Normalize(text)
	if normalized == "" {
		e.log.Debug().Err(ErrEmptyDocument).Msg("输入没有可用文本")
		record := &types.ResumeRecord{Skills: types.NewSkillSet(), Empty: true}
		record.Score = e.scorer.Score(record)
		record.TotalScore = record.Score.Total()
		return record, nil
	}

	sections := Segment(normalized)
	record := &types.ResumeRecord{}

	stages := []struct {
		name string
		run  func()
	}{
		{"contact", func() { record.Contact = e.extractContact(ctx, normalized) }},
		{"name", func() { record.Contact.FirstName, record.Contact.LastName = e.extractName(ctx, normalized) }},
		{"education", func() {
			record.Education = e.extractEducation(ctx, normalized, findSection(sections, types.SectionEducation))
		}},
		{"major", func() { record.Major = e.extractMajor(normalized, findSection(sections, types.SectionEducation)) }},
		{"experience", func() {
			record.Experience = e.extractExperience(ctx, normalized, findSection(sections, types.SectionExperience))
		}},
		{"skills", func() { record.Skills = e.extractSkills(ctx, normalized, findSection(sections, types.SectionSkills)) }},
		{"achievements", func() { record.Achievements = ExtractAchievements(sections) }},
	}
	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return nil, e.abort(span, stage.name, err)
		}
		stage.run()
	}

	if e.keepSections {
		record.Sections = sections
	}
	record.Score = e.scorer.Score(record)
	record.TotalScore = record.Score.Total()

	span.SetAttributes(
		attribute.Int("record.skills", record.Skills.Len()),
		attribute.Int("record.experience_entries", len(record.Experience.Entries)),
		attribute.Int("record.total_score", record.TotalScore),
	)
	e.log.Debug().
		Int("skills", record.Skills.Len()).
		Int("education", len(record.Education)).
		Int("experience", len(record.Experience.Entries)).
		Int("score", record.TotalScore).
		Msg("简历抽取完成")
	return record, nil
}

func (e *Extractor) abort(span trace.Span, op string, cause error) error {
	err := NewAbortedError(op, cause)
	tracing.RecordError(span, err, tracing.ErrorTypeTimeout)
	e.log.Warn().Err(err).Str("stage", op).Msg("简历抽取被中止")
	return err
}
