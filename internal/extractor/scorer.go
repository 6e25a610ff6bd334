package extractor

import (
	"fmt"

	"resume-analyzer-go/internal/types"
)

// Scorer 简历评分方案
type Scorer interface {
	Score(record *types.ResumeRecord) types.ScoreComponents
	Scheme() types.ScoreScheme
}

// WeightedScorer 技能30、经验30（年限15+岗位数10+资历5）、教育25、荣誉15
type WeightedScorer struct{}

func (WeightedScorer) Scheme() types.ScoreScheme { return types.ScoreSchemeWeighted }

func (WeightedScorer) Score(r *types.ResumeRecord) types.ScoreComponents {
	sc := types.ScoreComponents{Scheme: types.ScoreSchemeWeighted}
	if r == nil {
		return sc
	}
	sc.Skills = min(r.Skills.Len()*3, 30)
	if exp := r.Experience; len(exp.Entries) > 0 {
		sc.Experience = min(exp.TotalYears*3, 15) + min(exp.DistinctPositions*2, 10) + seniorityBonus(exp.Seniority)
	}
	sc.Education = min(len(r.Education)*8, 25)
	sc.Achievements = min(len(r.Achievements)*3, 15)
	return sc
}

func seniorityBonus(s types.Seniority) int {
	switch s {
	case types.SenioritySenior:
		return 5
	case types.SeniorityMid:
		return 3
	case types.SeniorityEntry:
		return 1
	}
	return 0
}

// CoarseScorer 姓名、邮箱、专业、技能各25分
type CoarseScorer struct{}

func (CoarseScorer) Scheme() types.ScoreScheme { return types.ScoreSchemeCoarse }

func (CoarseScorer) Score(r *types.ResumeRecord) types.ScoreComponents {
	sc := types.ScoreComponents{Scheme: types.ScoreSchemeCoarse}
	if r == nil {
		return sc
	}
	if r.Contact.HasFullName() {
		sc.Name = 25
	}
	if r.Contact.Email != "" {
		sc.Email = 25
	}
	if r.Major != "" {
		sc.Major = 25
	}
	if r.Skills.Len() > 0 {
		sc.Skills = 25
	}
	return sc
}

// ScorerFor 按名称返回评分方案，空字符串为默认的weighted
func ScorerFor(scheme string) (Scorer, error) {
	switch types.ScoreScheme(scheme) {
	case "", types.ScoreSchemeWeighted:
		return WeightedScorer{}, nil
	case types.ScoreSchemeCoarse:
		return CoarseScorer{}, nil
	}
	return nil, fmt.Errorf("未知的评分方案: %s", scheme)
}
