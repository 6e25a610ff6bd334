package extractor

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	nameModelLines = 10
	nameLineWindow = 15
	nameRegexChars = 1000
)

var (
	nameHeaderKeywords = regexp.MustCompile(`(?i)\b(?:resume|cv|curriculum|vitae|education|experience|skills|email|phone|address|profile|summary|objective)\b`)
	nameTokenShape     = regexp.MustCompile(`^\pL[\pL.'-]*$`)

	labelledName  = regexp.MustCompile(`(?i:name)\s*:\s*([A-Z][a-z]+ [A-Z][a-z]+)`)
	upperNameLine = regexp.MustCompile(`(?m)^([A-Z]{2,} [A-Z]{2,})$`)
	titleNameLine = regexp.MustCompile(`(?m)^([A-Z][a-z]+ [A-Z][a-z]+)$`)
)

// extractName 依次尝试：语言模型人名、前15行的独立姓名行、正则
func (e *Extractor) extractName(ctx context.Context, text string) (first, last string) {
	lines := nonEmptyLines(text)

	attempt := firstSuccess([]strategy[[]string]{
		{name: "model", run: func() Attempt[[]string] {
			return e.nameFromModel(ctx, strings.Join(headLines(lines, nameModelLines), "\n"))
		}},
		{name: "standalone-line", run: func() Attempt[[]string] {
			return nameFromLines(headLines(lines, nameLineWindow))
		}},
		{name: "regex", run: func() Attempt[[]string] {
			return nameFromRegex(prefixRunes(text, nameRegexChars))
		}},
	})
	if !attempt.Matched {
		return "", ""
	}
	e.log.Debug().Str("strategy", attempt.Strategy).Msg("识别到姓名")
	return splitName(attempt.Value)
}

func (e *Extractor) nameFromModel(ctx context.Context, head string) Attempt[[]string] {
	for _, span := range e.model.persons(ctx, head) {
		if tokens, ok := nameTokens(span.Text); ok {
			return Success("model", tokens)
		}
	}
	return NoMatch[[]string]("model")
}

func nameFromLines(lines []string) Attempt[[]string] {
	for _, line := range lines {
		if titleIndicator.MatchString(line) || institutionWords.MatchString(line) {
			continue
		}
		if tokens, ok := nameTokens(line); ok && len(tokens) <= 4 {
			return Success("standalone-line", tokens)
		}
	}
	return NoMatch[[]string]("standalone-line")
}

func nameFromRegex(prefix string) Attempt[[]string] {
	if g := labelledName.FindStringSubmatch(prefix); g != nil {
		return Success("regex", strings.Fields(g[1]))
	}
	for _, re := range []*regexp.Regexp{upperNameLine, titleNameLine} {
		for _, g := range re.FindAllStringSubmatch(prefix, -1) {
			if nameHeaderKeywords.MatchString(g[1]) || titleIndicator.MatchString(g[1]) {
				continue
			}
			if tokens, ok := nameTokens(g[1]); ok {
				return Success("regex", tokens)
			}
		}
	}
	return NoMatch[[]string]("regex")
}

// nameTokens 校验候选姓名：至少两个词，全部首字母大写或全部大写，不含标题关键词
// 全大写的词转为首字母大写
func nameTokens(candidate string) ([]string, bool) {
	if nameHeaderKeywords.MatchString(candidate) {
		return nil, false
	}
	tokens := strings.Fields(candidate)
	if len(tokens) < 2 {
		return nil, false
	}
	allTitle, allUpper := true, true
	for _, tok := range tokens {
		if !nameTokenShape.MatchString(tok) {
			return nil, false
		}
		allTitle = allTitle && isTitleToken(tok)
		allUpper = allUpper && isUpperToken(tok)
	}
	switch {
	case allTitle && !allUpper:
		return tokens, true
	case allUpper:
		caser := cases.Title(language.English)
		out := make([]string, len(tokens))
		for i, tok := range tokens {
			out[i] = caser.String(tok)
		}
		return out, true
	}
	return nil, false
}

// isTitleToken 大写字母只能出现在非字母之后，小写字母只能出现在字母之后
func isTitleToken(tok string) bool {
	cased, prevCased := false, false
	for _, r := range tok {
		switch {
		case unicode.IsUpper(r) || unicode.IsTitle(r):
			if prevCased {
				return false
			}
			prevCased, cased = true, true
		case unicode.IsLower(r):
			if !prevCased {
				return false
			}
			prevCased, cased = true, true
		default:
			prevCased = false
		}
	}
	return cased
}

func isUpperToken(tok string) bool {
	letters := 0
	for _, r := range tok {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters > 0
}

func splitName(tokens []string) (string, string) {
	switch len(tokens) {
	case 0:
		return "", ""
	case 1:
		return tokens[0], ""
	}
	return tokens[0], strings.Join(tokens[1:], " ")
}

func nonEmptyLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func headLines(lines []string, n int) []string {
	if len(lines) > n {
		return lines[:n]
	}
	return lines
}

// prefixRunes 取前n个字符，不截断多字节字符
func prefixRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
