package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"resume-analyzer-go/internal/types"
)

// ErrCandidateNotFound 按ID找不到候选人
var ErrCandidateNotFound = errors.New("候选人不存在")

// 候选人状态
const (
	StatusActive   = "Active"
	StatusArchived = "Archived"
)

// IsValidStatus 只接受 Active / Archived
func IsValidStatus(status string) bool {
	return status == StatusActive || status == StatusArchived
}

// Candidate 持久化的候选人，Record为完整抽取结果
type Candidate struct {
	ID              string              `json:"id"`
	FirstName       string              `json:"first_name"`
	LastName        string              `json:"last_name"`
	Email           string              `json:"email"`
	Phone           string              `json:"phone"`
	Location        string              `json:"location,omitempty"`
	Major           string              `json:"major,omitempty"`
	Skills          []string            `json:"skills"`
	ExperienceYears int                 `json:"experience_years"`
	Seniority       string              `json:"seniority"`
	Education       string              `json:"education,omitempty"` // 最高学位的展示文本
	Score           int                 `json:"resume_score"`
	ScoreScheme     string              `json:"score_scheme"`
	Status          string              `json:"status"`
	Shortlisted     bool                `json:"shortlisted"`
	SourceChannel   string              `json:"source_channel,omitempty"`
	SourceFilename  string              `json:"source_filename,omitempty"`
	FileMD5         string              `json:"file_md5,omitempty"`
	TextMD5         string              `json:"text_md5,omitempty"`
	OriginalObject  string              `json:"original_object,omitempty"`
	TextObject      string              `json:"text_object,omitempty"`
	Record          *types.ResumeRecord `json:"record,omitempty"`
	SubmittedAt     time.Time           `json:"submitted_at"`
}

// NewCandidate 从抽取结果生成候选人，ID和来源由调用方填写
func NewCandidate(id string, record *types.ResumeRecord) *Candidate {
	c := &Candidate{
		ID:          id,
		Status:      StatusActive,
		Record:      record,
		SubmittedAt: time.Now(),
	}
	if record == nil {
		return c
	}
	c.FirstName = record.Contact.FirstName
	c.LastName = record.Contact.LastName
	c.Email = record.Contact.Email
	c.Phone = record.Contact.Phone
	if record.Contact.PhoneE164 != "" {
		c.Phone = record.Contact.PhoneE164
	}
	c.Location = record.Contact.Location
	c.Major = record.Major
	c.Skills = record.Skills.Slice()
	c.ExperienceYears = record.Experience.TotalYears
	c.Seniority = string(record.Experience.Seniority)
	c.Education = highestEducation(record.Education)
	c.Score = record.Score.Total()
	c.ScoreScheme = string(record.Score.Scheme)
	return c
}

var degreeRank = map[types.DegreeLevel]int{
	types.DegreeHighSchool: 1,
	types.DegreeDiploma:    2,
	types.DegreeAssociate:  3,
	types.DegreeBachelor:   4,
	types.DegreeMaster:     5,
	types.DegreeDoctorate:  6,
}

func highestEducation(entries []types.EducationEntry) string {
	best, rank := "", -1
	for _, e := range entries {
		label := e.Degree
		if label == "" {
			label = e.Institution
		}
		if label == "" {
			continue
		}
		if r := degreeRank[e.Level]; r > rank {
			best, rank = label, r
		}
	}
	return best
}

// FullName "名 姓"
func (c *Candidate) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// SearchCategory 搜索词匹配的字段范围
type SearchCategory string

const (
	SearchAll    SearchCategory = "All"
	SearchSkills SearchCategory = "Skills"
	SearchName   SearchCategory = "Name"
	SearchEmail  SearchCategory = "Email"
)

// SortOrder 结果排序方式
type SortOrder string

const (
	SortScore      SortOrder = "score"
	SortExperience SortOrder = "experience"
	SortRecent     SortOrder = "recent"
	SortName       SortOrder = "name"
)

// SearchQuery 候选人搜索条件
// Query按逗号拆成多个词，任意一个词命中即可
type SearchQuery struct {
	Query       string
	Category    SearchCategory
	MinScore    int
	Status      string // 空表示不过滤
	Shortlisted *bool
	Sort        SortOrder
	Limit       int
	Offset      int
}

// Terms 拆分后的搜索词
func (q SearchQuery) Terms() []string {
	var terms []string
	for _, t := range strings.Split(q.Query, ",") {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// Columns 搜索词对应的列
func (q SearchQuery) Columns() []string {
	switch q.Category {
	case SearchSkills:
		return []string{"skills"}
	case SearchName:
		return []string{"first_name", "last_name"}
	case SearchEmail:
		return []string{"email"}
	}
	return []string{"first_name", "last_name", "email", "skills"}
}

// OrderBy SQL排序子句
func (q SearchQuery) OrderBy() string {
	switch q.Sort {
	case SortExperience:
		return "experience_years DESC, id"
	case SortRecent:
		return "submitted_at DESC, id"
	case SortName:
		return "first_name, last_name, id"
	}
	return "score DESC, id"
}

// Where 过滤条件，占位符统一用 ?
func (q SearchQuery) Where() (string, []any) {
	var conds []string
	var args []any
	if q.MinScore > 0 {
		conds = append(conds, "score >= ?")
		args = append(args, q.MinScore)
	}
	if q.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, q.Status)
	}
	if q.Shortlisted != nil {
		conds = append(conds, "shortlisted = ?")
		args = append(args, *q.Shortlisted)
	}
	if terms := q.Terms(); len(terms) > 0 {
		var likes []string
		for _, term := range terms {
			pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
			for _, col := range q.Columns() {
				likes = append(likes, fmt.Sprintf("LOWER(%s) LIKE ? ESCAPE '!'", col))
				args = append(args, pattern)
			}
		}
		conds = append(conds, "("+strings.Join(likes, " OR ")+")")
	}
	if len(conds) == 0 {
		return "1 = 1", nil
	}
	return strings.Join(conds, " AND "), args
}

// likeEscaper 搜索词里的 % 和 _ 按字面匹配，转义符与 ESCAPE '!' 对应
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

// Stats 候选人汇总
type Stats struct {
	Count                  int            `json:"count"`
	AverageScore           float64        `json:"average_score"`
	AverageExperienceYears float64        `json:"average_experience_years"`
	HighPerformers         int            `json:"high_performers"` // 分数 >= 80
	Shortlisted            int            `json:"shortlisted"`
	ScoreCategories        map[string]int `json:"score_categories"`
	ExperienceCategories   map[string]int `json:"experience_categories"`
	TopSkills              []SkillCount   `json:"top_skills"`
}

// SkillCount 技能出现次数
type SkillCount struct {
	Skill string `json:"skill"`
	Count int    `json:"count"`
}

const (
	highPerformerScore = 80
	topSkillsLimit     = 10
)

// ScoreCategory 分数段
func ScoreCategory(score int) string {
	switch {
	case score < 50:
		return "Low (0-49)"
	case score < 70:
		return "Medium (50-69)"
	case score < 90:
		return "High (70-89)"
	default:
		return "Excellent (90+)"
	}
}

// ExperienceCategory 工作年限段
func ExperienceCategory(years int) string {
	switch {
	case years < 2:
		return "Junior (0-2 years)"
	case years < 5:
		return "Mid-level (2-5 years)"
	case years < 10:
		return "Senior (5-10 years)"
	default:
		return "Expert (10+ years)"
	}
}

// statsRow 统计只需要的列
type statsRow struct {
	Score           int
	ExperienceYears int
	Shortlisted     bool
	Skills          []string
}

func computeStats(rows []statsRow) *Stats {
	s := &Stats{
		Count:                len(rows),
		ScoreCategories:      map[string]int{},
		ExperienceCategories: map[string]int{},
		TopSkills:            []SkillCount{},
	}
	if len(rows) == 0 {
		return s
	}

	var scoreSum, expSum int
	skills := map[string]int{}
	for _, r := range rows {
		scoreSum += r.Score
		expSum += r.ExperienceYears
		if r.Score >= highPerformerScore {
			s.HighPerformers++
		}
		if r.Shortlisted {
			s.Shortlisted++
		}
		s.ScoreCategories[ScoreCategory(r.Score)]++
		s.ExperienceCategories[ExperienceCategory(r.ExperienceYears)]++
		for _, sk := range r.Skills {
			skills[sk]++
		}
	}
	s.AverageScore = float64(scoreSum) / float64(len(rows))
	s.AverageExperienceYears = float64(expSum) / float64(len(rows))

	for sk, n := range skills {
		s.TopSkills = append(s.TopSkills, SkillCount{Skill: sk, Count: n})
	}
	sort.Slice(s.TopSkills, func(i, j int) bool {
		if s.TopSkills[i].Count != s.TopSkills[j].Count {
			return s.TopSkills[i].Count > s.TopSkills[j].Count
		}
		return s.TopSkills[i].Skill < s.TopSkills[j].Skill
	})
	if len(s.TopSkills) > topSkillsLimit {
		s.TopSkills = s.TopSkills[:topSkillsLimit]
	}
	return s
}

// CandidateStore 候选人仓库，MySQL/Postgres 和 SQLite 各有一份实现
type CandidateStore interface {
	Save(ctx context.Context, c *Candidate) error
	Get(ctx context.Context, id string) (*Candidate, error)
	Search(ctx context.Context, q SearchQuery) ([]*Candidate, error)
	SetShortlisted(ctx context.Context, id string, shortlisted bool) error
	UpdateStatus(ctx context.Context, id string, status string) error
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*Stats, error)
	Close() error
}

// joinSkills 存储用的逗号分隔形式
func joinSkills(skills []string) string {
	return strings.Join(skills, ",")
}

func splitSkills(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}

// decodeRecord 还原存储的抽取结果，空值或null返回nil
func decodeRecord(data []byte) (*types.ResumeRecord, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var r types.ResumeRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
