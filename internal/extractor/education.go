package extractor

import (
	"context"
	"regexp"
	"strings"

	"resume-analyzer-go/internal/nlp"
	"resume-analyzer-go/internal/types"
)

const (
	educationWindowBefore = 100
	educationWindowAfter  = 150
)

// degreePattern 长写法大小写不敏感，缩写大小写敏感；第1组为学位文本
var degreePattern = regexp.MustCompile(`\b(` +
	`(?i:bachelor(?:'s)?\s+of\s+[a-z]+(?:\s+(?:administration|engineering|science|arts))?` +
	`|master(?:'s)?\s+of\s+[a-z]+(?:\s+(?:administration|engineering|science|arts))?` +
	`|doctor\s+of\s+philosophy|associate(?:'s)?\s+degree|high\s+school\s+diploma` +
	`|bachelor(?:'s)?|master(?:'s)?|associate(?:'s)?\s+of\s+[a-z]+|diploma)` +
	`|Ph\.?D\.?|MBA|B\.Tech|M\.Tech|B\.Sc\.?|M\.Sc\.?|B\.S\.|M\.S\.|B\.A\.|M\.A\.|BCA|MCA|B\.E\.|M\.E\.` +
	`)(?:[^A-Za-z0-9]|$)`)

var (
	institutionWords = regexp.MustCompile(`(?i)\b(?:university|college|institute|school|academy|polytechnic)\b`)
	fieldPattern     = regexp.MustCompile(`(?i)^\s*,?\s*in\s+([A-Za-z&][A-Za-z& ]*?)\s*(?:,|\.|\bfrom\b|\(|\)|\n|$|\bat\b|-|–|\d)`)
	gpaPattern       = regexp.MustCompile(`(?i)(?:GPA|Grade Point Average|CGPA)[:\s]+([0-9]+(?:\.[0-9]+)?(?:\s*/\s*[0-9]+(?:\.[0-9]+)?)?)`)
)

// extractEducation 在教育章节（没有时为全文）中匹配学位，围绕每个学位取窗口查找学校、日期、GPA
func (e *Extractor) extractEducation(ctx context.Context, text string, section *types.Section) []types.EducationEntry {
	source := text
	if section != nil && section.Content != "" {
		source = section.Content
	}

	var entries []types.EducationEntry
	matches := degreePattern.FindAllStringSubmatchIndex(source, -1)
	for i, m := range matches {
		start, end := m[2], m[3]
		degree := strings.TrimSpace(source[start:end])

		// 窗口不跨越相邻的学位
		lo := clampStart(source, start-educationWindowBefore)
		if i > 0 && matches[i-1][3] > lo {
			lo = matches[i-1][3]
		}
		hi := clampEnd(source, end+educationWindowAfter)
		if i+1 < len(matches) && matches[i+1][2] < hi {
			hi = matches[i+1][2]
		}
		before := source[lo:start]
		after := source[end:hi]

		entry := types.EducationEntry{
			Degree:      degree,
			Level:       degreeLevel(degree),
			Institution: e.findInstitution(ctx, before, after),
			Field:       findField(after),
			GPA:         findGPA(after),
		}
		if r, _, ok := findDateRange(after, false, true); ok {
			entry.Dates = &r
		} else if r, _, ok := findDateRange(before, false, true); ok {
			entry.Dates = &r
		}
		entries = append(entries, entry)
	}

	if len(entries) == 0 && section != nil {
		entries = coarseEducation(section)
	}
	return entries
}

// findInstitution 优先取学位之后的机构名，其次取学位之前最近的一个，最后用语言模型的ORG实体
func (e *Extractor) findInstitution(ctx context.Context, before, after string) string {
	attempt := firstSuccess([]strategy[string]{
		{name: "after", run: func() Attempt[string] {
			if spans := nlp.MatchInstitutions(after); len(spans) > 0 {
				return Success("after", spans[0].Text)
			}
			return NoMatch[string]("after")
		}},
		{name: "before", run: func() Attempt[string] {
			if spans := nlp.MatchInstitutions(before); len(spans) > 0 {
				return Success("before", spans[len(spans)-1].Text)
			}
			return NoMatch[string]("before")
		}},
		{name: "model", run: func() Attempt[string] {
			if spans := e.model.orgs(ctx, after); len(spans) > 0 {
				return Success("model", spans[0].Text)
			}
			return NoMatch[string]("model")
		}},
	})
	return attempt.Value
}

// coarseEducation 章节存在但没有学位时，每个含机构名的行生成一条只有学校和日期的记录
func coarseEducation(section *types.Section) []types.EducationEntry {
	var entries []types.EducationEntry
	for _, line := range section.Lines() {
		spans := nlp.MatchInstitutions(line)
		if len(spans) == 0 {
			continue
		}
		entry := types.EducationEntry{Level: types.DegreeUnknown, Institution: spans[0].Text}
		if r, _, ok := findDateRange(line, false, true); ok {
			entry.Dates = &r
		}
		entries = append(entries, entry)
	}
	return entries
}

func findField(after string) string {
	g := fieldPattern.FindStringSubmatch(after)
	if g == nil {
		return ""
	}
	return strings.TrimSpace(g[1])
}

func findGPA(after string) string {
	g := gpaPattern.FindStringSubmatch(after)
	if g == nil {
		return ""
	}
	return strings.Join(strings.Fields(g[1]), "")
}

func degreeLevel(degree string) types.DegreeLevel {
	d := strings.ToLower(degree)
	switch {
	case strings.Contains(d, "high school"):
		return types.DegreeHighSchool
	case strings.HasPrefix(d, "associate"):
		return types.DegreeAssociate
	case strings.HasPrefix(d, "bachelor"), strings.HasPrefix(d, "b."), d == "bca":
		return types.DegreeBachelor
	case strings.HasPrefix(d, "master"), strings.HasPrefix(d, "m."), d == "mba", d == "mca":
		return types.DegreeMaster
	case strings.HasPrefix(d, "doctor"), strings.HasPrefix(d, "ph"):
		return types.DegreeDoctorate
	case strings.HasPrefix(d, "diploma"):
		return types.DegreeDiploma
	}
	return types.DegreeUnknown
}

// clampStart 向前对齐到UTF-8字符边界
func clampStart(s string, i int) int {
	if i <= 0 {
		return 0
	}
	for i > 0 && i < len(s) && !isRuneStart(s[i]) {
		i--
	}
	return i
}

// clampEnd 向后对齐到UTF-8字符边界
func clampEnd(s string, i int) int {
	if i >= len(s) {
		return len(s)
	}
	for i < len(s) && !isRuneStart(s[i]) {
		i++
	}
	return i
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
