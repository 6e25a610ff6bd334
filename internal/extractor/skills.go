package extractor

import (
	"context"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"resume-analyzer-go/internal/types"
)

var (
	properNamePattern  = regexp.MustCompile(`\b[A-Z][a-z]+ [A-Z][a-z]+`)
	institutionPattern = regexp.MustCompile(`(?i)university|college|school`)
	degreeAbbrPattern  = regexp.MustCompile(`B\.|M\.|PhD|Bachelor|Master`)
	tenDigitPattern    = regexp.MustCompile(`\b\d{10}\b`)
	linkedInMention    = regexp.MustCompile(`(?i)linkedin\.com`)
	anyDigitPattern    = regexp.MustCompile(`\d`)
	punctPattern       = regexp.MustCompile(`[.,;:]`)

	skillStoplist = map[string]bool{
		"name": true, "email": true, "phone": true, "address": true, "education": true, "university": true,
	}
)

// IsValidSkill 技能候选的校验规则，任一命中即拒绝
// 对原始大小写的文本判断，专有名词规则依赖大小写
func IsValidSkill(candidate string) bool {
	s := strings.TrimSpace(candidate)
	switch {
	case utf8.RuneCountInString(s) < 2:
		return false
	case strings.Contains(s, "@"):
		return false
	case properNamePattern.MatchString(s):
		return false
	case institutionPattern.MatchString(s):
		return false
	case degreeAbbrPattern.MatchString(s):
		return false
	case tenDigitPattern.MatchString(s), anyDigitPattern.MatchString(s):
		return false
	case linkedInMention.MatchString(s):
		return false
	case punctPattern.MatchString(s):
		return false
	case skillStoplist[strings.ToLower(s)]:
		return false
	}
	return true
}

// extractSkills 词典匹配（全文）与语言模型SKILL实体（技能章节，没有时为全文）的并集
func (e *Extractor) extractSkills(ctx context.Context, text string, section *types.Section) types.SkillSet {
	skills := types.NewSkillSet()

	folded := strings.ToLower(foldDiacritics(text))
	for i, term := range e.skillTerms {
		if containsTerm(folded, term) {
			e.addSkill(&skills, e.vocab.Skills[i])
		}
	}

	source := text
	if section != nil && section.Content != "" {
		source = section.Content
	}
	for _, span := range e.model.skills(ctx, source) {
		// 原文先过一遍校验，避免去掉符号后的邮箱、电话等混入
		if !IsValidSkill(span.Text) {
			continue
		}
		e.addSkill(&skills, alphabeticOnly(span.Text))
	}
	return skills
}

func (e *Extractor) addSkill(skills *types.SkillSet, candidate string) {
	if !IsValidSkill(candidate) {
		return
	}
	skills.Add(candidate)
}

// alphabeticOnly 只保留字母和词间空格
func alphabeticOnly(s string) string {
	var b strings.Builder
	space := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		case unicode.IsSpace(r):
			space = true
		}
	}
	return b.String()
}

// containsTerm 在小写文本中查找词条，两侧不能紧挨字母或数字（"rest" 不匹配 "interest"）
func containsTerm(hay, term string) bool {
	if term == "" {
		return false
	}
	for start := 0; start < len(hay); {
		idx := strings.Index(hay[start:], term)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(term)
		if boundaryBefore(hay, idx, term) && boundaryAfter(hay, end, term) {
			return true
		}
		_, size := utf8.DecodeRuneInString(hay[idx:])
		start = idx + size
	}
	return false
}

func boundaryBefore(hay string, idx int, term string) bool {
	if idx == 0 {
		return true
	}
	first, _ := utf8.DecodeRuneInString(term)
	if !isWordRune(first) {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(hay[:idx])
	return !isWordRune(r)
}

func boundaryAfter(hay string, end int, term string) bool {
	if end >= len(hay) {
		return true
	}
	last, _ := utf8.DecodeLastRuneInString(term)
	if !isWordRune(last) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(hay[end:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
