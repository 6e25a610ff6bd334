package extractor

import (
	"strings"

	"resume-analyzer-go/internal/types"
)

// extractMajor 在教育章节（其次全文）中查找最长的专业名称
func (e *Extractor) extractMajor(text string, section *types.Section) string {
	if section != nil && section.Content != "" {
		if m := e.longestMajor(section.Content); m != "" {
			return m
		}
	}
	return e.longestMajor(text)
}

func (e *Extractor) longestMajor(text string) string {
	lower := strings.ToLower(foldDiacritics(text))
	best := -1
	for i, term := range e.majorTerms {
		if best >= 0 && len(term) <= len(e.majorTerms[best]) {
			continue
		}
		if containsTerm(lower, term) {
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return e.vocab.Majors[best]
}
