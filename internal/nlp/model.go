// Package nlp 定义抽取引擎依赖的语言模型能力，并提供一个基于规则与词表的实现
//
// 抽取器只依赖 LanguageModel 接口；模型在进程启动时创建一次，之后只读共享，
// 可以安全地被多个goroutine并发调用。
package nlp

import "context"

// EntityLabel 实体类型
type EntityLabel string

const (
	LabelPerson   EntityLabel = "PERSON"
	LabelOrg      EntityLabel = "ORG"
	LabelLocation EntityLabel = "GPE"
	LabelSkill    EntityLabel = "SKILL"
)

// Span 文本中被识别为实体的片段，Start/End为字节偏移
type Span struct {
	Text  string      `json:"text"`
	Label EntityLabel `json:"label"`
	Start int         `json:"start"`
	End   int         `json:"end"`
}

// LanguageModel 实体识别能力
type LanguageModel interface {
	// FindPersonEntities 识别人名
	FindPersonEntities(ctx context.Context, text string) ([]Span, error)
	// FindOrgEntities 识别机构名（学校、公司）
	FindOrgEntities(ctx context.Context, text string) ([]Span, error)
	// FindLocationEntities 识别地名
	FindLocationEntities(ctx context.Context, text string) ([]Span, error)
	// FindSkillEntities 识别技能
	FindSkillEntities(ctx context.Context, text string) ([]Span, error)
	// FindVerbs 返回文本中出现的动词原形（小写）
	FindVerbs(ctx context.Context, text string) ([]string, error)
}

// Texts 提取Span的文本
func Texts(spans []Span) []string {
	out := make([]string, 0, len(spans))
	for _, s := range spans {
		out = append(out, s.Text)
	}
	return out
}
