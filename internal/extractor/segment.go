package extractor

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"resume-analyzer-go/internal/types"
)

// maxSectionLines 后面没有任何章节边界时，章节正文最多取的行数
const maxSectionLines = 20

// maxHeaderWords 标题行最多的词数
const maxHeaderWords = 6

var sectionHeaders = map[types.SectionLabel][]string{
	types.SectionEducation: {
		"education", "academic background", "educational background", "academic qualifications",
		"education and training", "education & training", "academics", "academic history",
	},
	types.SectionExperience: {
		"experience", "work experience", "professional experience", "employment history",
		"work history", "employment", "career history", "relevant experience", "internships",
	},
	types.SectionSkills: {
		"skills", "technical skills", "core competencies", "competencies", "key skills",
		"skills and abilities", "skills & abilities", "technologies", "tech stack", "skill set", "skillset",
	},
	types.SectionProjects: {
		"projects", "project experience", "personal projects", "academic projects", "key projects",
	},
	types.SectionCertifications: {
		"certifications", "certificates", "certification", "licenses and certifications",
		"licenses & certifications",
	},
	types.SectionSummary: {
		"summary", "professional summary", "profile", "objective", "career objective",
		"about me", "professional profile",
	},
	types.SectionAchievements: {
		"achievements", "awards", "honors", "honours", "honors and awards", "honors & awards",
		"awards and honors", "awards & honors", "accomplishments", "awards & achievements",
		"awards and achievements",
	},
}

type headerPhrase struct {
	phrase string
	label  types.SectionLabel
}

// headerPhrases 所有标题短语，按长度降序，长短语优先（PROJECT EXPERIENCE -> projects）
var headerPhrases = func() []headerPhrase {
	var out []headerPhrase
	for _, label := range types.AllSectionLabels {
		for _, p := range sectionHeaders[label] {
			out = append(out, headerPhrase{phrase: p, label: label})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i].phrase) > len(out[j].phrase) })
	return out
}()

var allCapsLine = regexp.MustCompile(`^[A-Z][A-Z ]+$`)

// matchHeader 判断一行是否为章节标题
// 先找完全匹配的短语；带额外修饰词（最多2个）时要求整行大写或以冒号结尾
func matchHeader(line string) (types.SectionLabel, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return "", false
	}
	colon := strings.HasSuffix(trimmed, ":")
	lower := strings.ToLower(strings.TrimSpace(strings.TrimSuffix(trimmed, ":")))
	words := strings.Fields(lower)
	if len(words) == 0 || len(words) > maxHeaderWords {
		return "", false
	}
	lower = strings.Join(words, " ")
	emphatic := colon || isUpperLine(trimmed)

	for _, hp := range headerPhrases {
		if lower == hp.phrase {
			return hp.label, true
		}
	}
	if !emphatic {
		return "", false
	}
	for _, hp := range headerPhrases {
		extra := len(words) - len(strings.Fields(hp.phrase))
		if extra <= 0 || extra > 2 {
			continue
		}
		if strings.HasPrefix(lower, hp.phrase+" ") || strings.HasSuffix(lower, " "+hp.phrase) {
			return hp.label, true
		}
	}
	return "", false
}

// isUpperLine 至少有一个字母且没有小写字母
func isUpperLine(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

func isOwnHeader(label types.SectionLabel, line string) bool {
	lower := strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), ":")))
	for _, p := range sectionHeaders[label] {
		if lower == p {
			return true
		}
	}
	return false
}

// isBoundary 章节正文的结束行：任意已知标题，或不属于当前章节的全大写短行
func isBoundary(label types.SectionLabel, line string) bool {
	if _, ok := matchHeader(line); ok {
		return true
	}
	trimmed := strings.TrimSpace(line)
	return len(trimmed) > 3 && allCapsLine.MatchString(trimmed) && !isOwnHeader(label, trimmed)
}

// Segment 把规范化后的文本切分为按文档顺序排列、互不重叠的章节
// 每个标签只取第一次出现，未被覆盖的连续行归为unknown
func Segment(text string) []types.Section {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	covered := make([]bool, len(lines))
	seen := make(map[types.SectionLabel]bool)
	var sections []types.Section

	for i := 0; i < len(lines); {
		label, ok := matchHeader(lines[i])
		if !ok || seen[label] {
			i++
			continue
		}
		seen[label] = true

		end := i + 1
		for end < len(lines) && !isBoundary(label, lines[end]) {
			end++
		}
		if end == len(lines) && end-(i+1) > maxSectionLines {
			end = i + 1 + maxSectionLines
		}

		sections = append(sections, types.Section{
			Label:     label,
			Title:     strings.TrimSpace(lines[i]),
			Content:   strings.TrimSpace(strings.Join(lines[i+1:end], "\n")),
			StartLine: i,
			EndLine:   end,
		})
		for k := i; k < end; k++ {
			covered[k] = true
		}
		i = end
	}

	// 未覆盖的连续行
	for i := 0; i < len(lines); {
		if covered[i] {
			i++
			continue
		}
		j := i
		for j < len(lines) && !covered[j] {
			j++
		}
		if content := strings.TrimSpace(strings.Join(lines[i:j], "\n")); content != "" {
			sections = append(sections, types.Section{
				Label:     types.SectionUnknown,
				Content:   content,
				StartLine: i,
				EndLine:   j,
			})
		}
		i = j
	}

	sort.SliceStable(sections, func(a, b int) bool { return sections[a].StartLine < sections[b].StartLine })
	return sections
}

// findSection 返回指定标签的章节，不存在时返回nil
func findSection(sections []types.Section, label types.SectionLabel) *types.Section {
	for i := range sections {
		if sections[i].Label == label {
			return &sections[i]
		}
	}
	return nil
}
