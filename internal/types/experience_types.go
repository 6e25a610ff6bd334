package types

import "fmt"

// DateMarker 日期范围的一端
// Present为true时表示"至今"，解析时取当前日期
type DateMarker struct {
	Raw     string `json:"raw"`
	Year    int    `json:"year,omitempty"`
	Month   int    `json:"month,omitempty"`
	Present bool   `json:"present,omitempty"`
}

// Resolved 是否可以落到具体的年月（或至今）
func (m DateMarker) Resolved() bool {
	if m.Present {
		return true
	}
	return m.Year > 0 && m.Month >= 1 && m.Month <= 12
}

// IsZero 未识别到任何日期文本
func (m DateMarker) IsZero() bool {
	return m.Raw == "" && !m.Present && m.Year == 0
}

func (m DateMarker) String() string {
	if m.Raw != "" {
		return m.Raw
	}
	if m.Present {
		return "Present"
	}
	if m.Year == 0 {
		return ""
	}
	return fmt.Sprintf("%02d/%04d", m.Month, m.Year)
}

// DateRange 起止日期
type DateRange struct {
	Start DateMarker `json:"start"`
	End   DateMarker `json:"end"`
}

func (r DateRange) String() string {
	if r.End.IsZero() {
		return r.Start.String()
	}
	return r.Start.String() + " - " + r.End.String()
}

// Duration 年月形式的时长
type Duration struct {
	Years  int `json:"years"`
	Months int `json:"months"`
}

// DurationFromMonths 将总月数换算为年+月，负数按0处理
func DurationFromMonths(months int) Duration {
	if months < 0 {
		months = 0
	}
	return Duration{Years: months / 12, Months: months % 12}
}

// TotalMonths 换算回总月数
func (d Duration) TotalMonths() int {
	return d.Years*12 + d.Months
}

// Seniority 资历标签
type Seniority string

const (
	SeniorityEntry  Seniority = "entry"
	SeniorityMid    Seniority = "mid"
	SenioritySenior Seniority = "senior"
)

// ExperienceLevel 基于动词的经验层级
type ExperienceLevel string

const (
	LevelEntry      ExperienceLevel = "Entry Level"
	LevelMidJunior  ExperienceLevel = "Mid-Junior"
	LevelMidSenior  ExperienceLevel = "Mid-Senior"
	LevelSenior     ExperienceLevel = "Senior"
	LevelUnassigned ExperienceLevel = ""
)

// WorkExperienceEntry 一段工作经历
type WorkExperienceEntry struct {
	Title     string          `json:"title"`
	Company   string          `json:"company,omitempty"`
	Dates     DateRange       `json:"dates"`
	Duration  Duration        `json:"duration"`
	Parseable bool            `json:"parseable"` // 日期范围能否参与时长计算
	Level     ExperienceLevel `json:"level,omitempty"`
}

// ExperienceSummary 工作经历汇总
type ExperienceSummary struct {
	Entries           []WorkExperienceEntry `json:"entries"`
	TotalYears        int                   `json:"total_years"`
	TotalMonths       int                   `json:"total_months"` // 不足一年的剩余月数
	DistinctPositions int                   `json:"distinct_positions"`
	Seniority         Seniority             `json:"seniority"`
	Level             ExperienceLevel       `json:"level,omitempty"`
	SuggestedPosition string                `json:"suggested_position,omitempty"`
}
