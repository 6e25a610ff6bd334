package types

// ScoreScheme 评分方案
type ScoreScheme string

const (
	// ScoreSchemeWeighted 加权方案：技能30 / 经验30 / 教育25 / 荣誉15
	ScoreSchemeWeighted ScoreScheme = "weighted"
	// ScoreSchemeCoarse 粗粒度方案：姓名、邮箱、专业、技能各25分
	ScoreSchemeCoarse ScoreScheme = "coarse"
)

// 评分组件名称
const (
	ComponentSkills       = "Skills"
	ComponentExperience   = "Experience"
	ComponentEducation    = "Education"
	ComponentAchievements = "Achievements"
	ComponentName         = "Name"
	ComponentEmail        = "Email"
	ComponentMajor        = "Major"
)

// ScoreComponents 各评分组件的得分
// Weighted方案使用 Skills/Experience/Education/Achievements，
// Coarse方案使用 Name/Email/Major/Skills，两者不混用
type ScoreComponents struct {
	Scheme       ScoreScheme `json:"scheme"`
	Skills       int         `json:"skills"`
	Experience   int         `json:"experience"`
	Education    int         `json:"education"`
	Achievements int         `json:"achievements"`
	Name         int         `json:"name,omitempty"`
	Email        int         `json:"email,omitempty"`
	Major        int         `json:"major,omitempty"`
}

// Total 各组件之和
func (s ScoreComponents) Total() int {
	return s.Skills + s.Experience + s.Education + s.Achievements + s.Name + s.Email + s.Major
}

// Map 以组件名为键输出当前方案的组件
func (s ScoreComponents) Map() map[string]int {
	if s.Scheme == ScoreSchemeCoarse {
		return map[string]int{
			ComponentName:   s.Name,
			ComponentEmail:  s.Email,
			ComponentMajor:  s.Major,
			ComponentSkills: s.Skills,
		}
	}
	return map[string]int{
		ComponentSkills:       s.Skills,
		ComponentExperience:   s.Experience,
		ComponentEducation:    s.Education,
		ComponentAchievements: s.Achievements,
	}
}

// Interpretation 总分的文字解读
func (s ScoreComponents) Interpretation() string {
	return InterpretScore(s.Total())
}

// InterpretScore 按分数段给出评价
func InterpretScore(total int) string {
	switch {
	case total >= 80:
		return "Excellent"
	case total >= 60:
		return "Strong"
	case total >= 40:
		return "Good"
	case total >= 20:
		return "Needs Improvement"
	default:
		return "Significant Improvement Needed"
	}
}

// ResumeRecord 一份简历的完整结构化抽取结果
// 由 extractor.Extractor.Extract 一次性构建，之后不应修改
type ResumeRecord struct {
	Contact      ContactInfo       `json:"contact"`
	Skills       SkillSet          `json:"skills"`
	Major        string            `json:"major,omitempty"`
	Education    []EducationEntry  `json:"education"`
	Experience   ExperienceSummary `json:"experience"`
	Achievements []string          `json:"achievements"`
	Sections     []Section         `json:"sections,omitempty"`
	Score        ScoreComponents   `json:"score"`
	TotalScore   int               `json:"total_score"`
	Empty        bool              `json:"empty"` // 输入没有任何可用文本
}
