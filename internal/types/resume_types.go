package types

// SectionLabel 表示简历章节标签
type SectionLabel string

const (
	// SectionEducation 教育经历章节
	SectionEducation SectionLabel = "education"
	// SectionExperience 工作经历章节
	SectionExperience SectionLabel = "experience"
	// SectionSkills 技能章节
	SectionSkills SectionLabel = "skills"
	// SectionProjects 项目经历章节
	SectionProjects SectionLabel = "projects"
	// SectionCertifications 证书章节
	SectionCertifications SectionLabel = "certifications"
	// SectionSummary 个人简介章节
	SectionSummary SectionLabel = "summary"
	// SectionAchievements 荣誉/获奖章节
	SectionAchievements SectionLabel = "achievements"
	// SectionUnknown 未分类内容
	SectionUnknown SectionLabel = "unknown"
)

// AllSectionLabels 固定的章节标签集合，按识别优先级排列
var AllSectionLabels = []SectionLabel{
	SectionEducation,
	SectionExperience,
	SectionSkills,
	SectionProjects,
	SectionCertifications,
	SectionSummary,
	SectionAchievements,
	SectionUnknown,
}

// Section 简历中一段连续的带标签文本
type Section struct {
	Label     SectionLabel `json:"label"`
	Title     string       `json:"title,omitempty"` // 实际的章节标题行，unknown章节为空
	Content   string       `json:"content"`         // 章节正文（不含标题行）
	StartLine int          `json:"start_line"`      // 起始行号（含），0起
	EndLine   int          `json:"end_line"`        // 结束行号（不含）
}

// Lines 返回章节正文中的非空行
func (s *Section) Lines() []string {
	if s == nil || s.Content == "" {
		return nil
	}
	var lines []string
	start := 0
	for i := 0; i <= len(s.Content); i++ {
		if i == len(s.Content) || s.Content[i] == '\n' {
			if line := s.Content[start:i]; line != "" {
				lines = append(lines, line)
			}
			start = i + 1
		}
	}
	return lines
}

// ContactInfo 联系方式，所有字段均可为空
type ContactInfo struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	PhoneE164 string `json:"phone_e164,omitempty"` // 规范化后的E.164号码，无法解析时为空
	LinkedIn  string `json:"linkedin"`
	GitHub    string `json:"github,omitempty"`
	Location  string `json:"location"`
}

// FullName 返回 "名 姓"
func (c ContactInfo) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// HasFullName 名和姓都已识别
func (c ContactInfo) HasFullName() bool {
	return c.FirstName != "" && c.LastName != ""
}

// DegreeLevel 学位层级
type DegreeLevel string

const (
	DegreeHighSchool DegreeLevel = "high_school"
	DegreeAssociate  DegreeLevel = "associate"
	DegreeBachelor   DegreeLevel = "bachelor"
	DegreeMaster     DegreeLevel = "master"
	DegreeDoctorate  DegreeLevel = "doctorate"
	DegreeDiploma    DegreeLevel = "diploma"
	DegreeUnknown    DegreeLevel = "unknown"
)

// EducationEntry 一条教育经历
type EducationEntry struct {
	Degree      string      `json:"degree"` // 原始学位文本，例如 "Bachelor of Science"
	Level       DegreeLevel `json:"level"`
	Field       string      `json:"field,omitempty"`
	Institution string      `json:"institution,omitempty"`
	GPA         string      `json:"gpa,omitempty"`
	Dates       *DateRange  `json:"dates,omitempty"`
}
