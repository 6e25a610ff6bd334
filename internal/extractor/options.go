package extractor

import (
	"time"

	"github.com/rs/zerolog"

	"resume-analyzer-go/internal/config"
	"resume-analyzer-go/internal/nlp"
	"resume-analyzer-go/internal/vocab"
)

// DefaultModelTimeout 单次语言模型调用的默认超时
const DefaultModelTimeout = 2 * time.Second

// Option 抽取器构造选项
type Option func(*Extractor)

// WithVocabulary 设置词表，默认使用内置词表
func WithVocabulary(v *vocab.Vocabulary) Option {
	return func(e *Extractor) {
		if v != nil {
			e.vocab = v
		}
	}
}

// WithLanguageModel 注入语言模型；传nil表示只走正则路径
func WithLanguageModel(m nlp.LanguageModel) Option {
	return func(e *Extractor) {
		e.languageModel = m
		e.modelSet = true
	}
}

// WithModelTimeout 设置单次模型调用超时，<=0 表示不设超时
func WithModelTimeout(d time.Duration) Option {
	return func(e *Extractor) {
		e.modelTimeout = d
	}
}

// WithScorer 设置评分方案，默认 WeightedScorer
func WithScorer(s Scorer) Option {
	return func(e *Extractor) {
		if s != nil {
			e.scorer = s
		}
	}
}

// WithClock 设置"至今"使用的时钟，测试中固定当前时间
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		if now != nil {
			e.now = now
		}
	}
}

// WithPhoneRegion 设置电话号码规范化的默认地区（ISO 3166-1 两位代码）
func WithPhoneRegion(region string) Option {
	return func(e *Extractor) {
		if region != "" {
			e.phoneRegion = region
		}
	}
}

// WithSections 结果中是否保留章节切分
func WithSections(keep bool) Option {
	return func(e *Extractor) {
		e.keepSections = keep
	}
}

// WithLogger 设置日志实例
func WithLogger(l zerolog.Logger) Option {
	return func(e *Extractor) {
		e.log = l
	}
}

// NewFromConfig 按配置加载词表并创建抽取器
func NewFromConfig(cfg config.ExtractorConfig) (*Extractor, error) {
	scorer, err := ScorerFor(cfg.ScoringScheme)
	if err != nil {
		return nil, err
	}
	v := vocab.Load(vocab.Paths{
		Skills:    cfg.Vocabulary.Skills,
		Majors:    cfg.Vocabulary.Majors,
		Positions: cfg.Vocabulary.Positions,
		JobSkills: cfg.Vocabulary.JobSkills,
	})
	opts := []Option{
		WithVocabulary(v),
		WithScorer(scorer),
		WithModelTimeout(config.GetDuration(cfg.ModelTimeout, DefaultModelTimeout)),
		WithSections(cfg.IncludeSections),
	}
	if cfg.PhoneRegion != "" {
		opts = append(opts, WithPhoneRegion(cfg.PhoneRegion))
	}
	return New(opts...), nil
}
