package extractor

import (
	"context"
	"regexp"
	"strings"

	"resume-analyzer-go/internal/nlp"
	"resume-analyzer-go/internal/types"
)

const (
	maxTitleWords   = 10
	maxCompanyWords = 8
	dateBlockLines  = 5 // 标题行之后参与日期查找的行数
	dateLookBehind  = 3
	seniorYears     = 5
	midYears        = 2
)

var (
	titleIndicator = regexp.MustCompile(`(?i)\b(?:engineer|developer|manager|analyst|consultant|specialist|director|designer|architect|administrator|coordinator|scientist|intern|lead|officer|programmer|technician|executive|president|founder|researcher|accountant|supervisor|representative|head of)s?\b`)
	seniorKeyword  = regexp.MustCompile(`(?i)\b(?:senior|lead|manager|director)\b`)
	midKeyword     = regexp.MustCompile(`(?i)\b(?:mid-level|mid level|intermediate)\b`)

	irregularActionVerbs = map[string]bool{
		"led": true, "built": true, "wrote": true, "ran": true, "drove": true, "made": true,
		"oversaw": true, "taught": true, "grew": true, "won": true, "began": true,
	}
	titleSeparators = []string{" | ", " at ", " @ ", " – ", " — ", " - ", ", "}
)

// jobCandidate 一个候选工作经历及其上下文
type jobCandidate struct {
	title    string
	company  string
	dates    types.DateRange
	hasDates bool
	detail   []string
}

type experiencePass struct {
	name       string
	lookBehind int
	accept     func(c jobCandidate) bool
}

var experiencePasses = []experiencePass{
	{name: "section", accept: func(c jobCandidate) bool { return c.company != "" || c.hasDates }},
	{name: "title-with-date", lookBehind: dateLookBehind, accept: func(c jobCandidate) bool { return c.hasDates }},
	{name: "consecutive-lines", lookBehind: 1, accept: func(c jobCandidate) bool { return c.company != "" }},
}

// extractExperience 依次执行三轮识别（章节、全文标题行+日期、连续行），第一轮有结果即采用
func (e *Extractor) extractExperience(ctx context.Context, text string, section *types.Section) types.ExperienceSummary {
	attempts := make([]strategy[[]jobCandidate], 0, len(experiencePasses))
	for _, pass := range experiencePasses {
		attempts = append(attempts, strategy[[]jobCandidate]{name: pass.name, run: func() Attempt[[]jobCandidate] {
			var lines []string
			if pass.name == "section" {
				if section == nil {
					return NoMatch[[]jobCandidate](pass.name)
				}
				lines = section.Lines()
			} else {
				lines = nonEmptyLines(text)
			}
			if found := e.scanCandidates(lines, pass); len(found) > 0 {
				return Success(pass.name, found)
			}
			return NoMatch[[]jobCandidate](pass.name)
		}})
	}
	attempt := firstSuccess(attempts)
	if attempt.Matched {
		e.log.Debug().Str("pass", attempt.Strategy).Int("entries", len(attempt.Value)).Msg("识别到工作经历")
	}

	summary := types.ExperienceSummary{}
	var durations []types.Duration
	distinct := make(map[string]bool)
	var titles []string
	for _, c := range attempt.Value {
		entry := types.WorkExperienceEntry{Title: c.title, Company: c.company, Dates: c.dates}
		if c.hasDates {
			d, err := ComputeDuration(c.dates, e.now())
			if err != nil {
				e.log.Debug().Err(err).Str("title", c.title).Msg("日期区间不计入时长")
			} else {
				entry.Duration = d
				entry.Parseable = true
				durations = append(durations, d)
			}
		}
		if len(c.detail) > 0 {
			if verbs, ok := e.model.verbs(ctx, strings.Join(c.detail, "\n")); ok {
				entry.Level = classifyLevel(verbs)
			}
		}
		summary.Entries = append(summary.Entries, entry)
		distinct[strings.ToLower(c.title)] = true
		titles = append(titles, c.title)
	}

	total := sumDurations(durations)
	summary.TotalYears = total.Years
	summary.TotalMonths = total.Months
	summary.DistinctPositions = len(distinct)

	keywordText := strings.Join(titles, "\n")
	if section != nil {
		keywordText = section.Content
	}
	summary.Seniority = seniorityFor(total.Years, keywordText)

	if verbs, ok := e.model.verbs(ctx, text); ok {
		summary.Level = classifyLevel(verbs)
	}

	suggestText := text
	if section != nil {
		suggestText = section.Content
	}
	summary.SuggestedPosition = e.suggestPosition(suggestText)
	return summary
}

func (e *Extractor) scanCandidates(lines []string, pass experiencePass) []jobCandidate {
	var out []jobCandidate
	for i := range lines {
		if !e.isTitleLine(lines[i]) {
			continue
		}
		c := e.readCandidate(lines, i, pass.lookBehind)
		if c.title == "" || !pass.accept(c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// readCandidate 以第i行为标题行构建候选：同行或下一行取公司，标题行及其后5行找日期
func (e *Extractor) readCandidate(lines []string, i, lookBehind int) jobCandidate {
	var c jobCandidate
	c.title, c.company = splitTitleLine(stripDateText(lines[i]))

	next := i + 1
	if next < len(lines) && e.isCompanyLine(lines[next]) {
		if c.company == "" {
			c.company = cleanCompany(stripDateText(lines[next]))
		}
		next++
	}

	nextTitle := len(lines)
	for k := i + 1; k < len(lines); k++ {
		if e.isTitleLine(lines[k]) {
			nextTitle = k
			break
		}
	}

	blockEnd := min(i+1+dateBlockLines, nextTitle)
	if r, _, ok := findDateRange(strings.Join(lines[i:blockEnd], "\n"), true, false); ok {
		c.dates, c.hasDates = r, true
	} else if lookBehind > 0 {
		from := max(0, i-lookBehind)
		if r, _, ok := findDateRange(strings.Join(lines[from:i], "\n"), true, false); ok {
			c.dates, c.hasDates = r, true
		}
	}

	if next < nextTitle {
		c.detail = lines[next:nextTitle]
	}
	return c
}

// isTitleLine 不超过10个词、不以句号结尾、首词不是动作动词，且包含职位词或岗位词表中的名称
func (e *Extractor) isTitleLine(line string) bool {
	line = strings.TrimSpace(line)
	words := strings.Fields(line)
	if len(words) == 0 || len(words) > maxTitleWords {
		return false
	}
	if strings.HasSuffix(line, ".") || emailPattern.MatchString(line) || degreePattern.MatchString(line) {
		return false
	}
	if _, ok := matchHeader(line); ok {
		return false
	}
	if isActionVerb(words[0]) {
		return false
	}
	if titleIndicator.MatchString(line) {
		return true
	}
	lower := strings.ToLower(line)
	for _, t := range e.positionTitles {
		if containsTerm(lower, t) {
			return true
		}
	}
	return false
}

// isCompanyLine 标题行之后的短行，只有日期的行也算（公司为空）
func (e *Extractor) isCompanyLine(line string) bool {
	line = strings.TrimSpace(line)
	words := strings.Fields(line)
	if len(words) == 0 || len(words) > maxCompanyWords {
		return false
	}
	if strings.HasSuffix(line, ".") || isActionVerb(words[0]) || emailPattern.MatchString(line) {
		return false
	}
	if _, ok := matchHeader(line); ok {
		return false
	}
	return !e.isTitleLine(line)
}

func isActionVerb(word string) bool {
	w := strings.ToLower(strings.Trim(word, ",;:"))
	if irregularActionVerbs[w] {
		return true
	}
	return len(w) > 4 && strings.HasSuffix(w, "ed")
}

// stripDateText 去掉行内的日期区间
func stripDateText(line string) string {
	if _, loc, ok := findDateRange(line, true, false); ok {
		line = line[:loc[0]] + " " + line[loc[1]:]
	}
	return strings.TrimSpace(line)
}

// splitTitleLine "职位 | 公司"、"职位 at 公司" 等写法拆分为职位和公司
func splitTitleLine(line string) (title, company string) {
	line = trimSeparators(line)
	for _, sep := range titleSeparators {
		idx := strings.Index(line, sep)
		if idx <= 0 {
			continue
		}
		left := trimSeparators(line[:idx])
		right := trimSeparators(line[idx+len(sep):])
		if right == "" {
			return left, ""
		}
		// "公司 | 职位" 的写法
		if !titleIndicator.MatchString(left) && titleIndicator.MatchString(right) {
			return right, left
		}
		return left, right
	}
	return line, ""
}

func cleanCompany(line string) string {
	return trimSeparators(line)
}

func trimSeparators(s string) string {
	return strings.Trim(strings.TrimSpace(s), " \t|,;:-–—()")
}

// classifyLevel 按动词判定经验层级：出现任一高级动词即为Senior，依次向下
func classifyLevel(verbs []string) types.ExperienceLevel {
	has := func(group []string) bool {
		for _, v := range verbs {
			for _, g := range group {
				if v == g {
					return true
				}
			}
		}
		return false
	}
	switch {
	case has(nlp.SeniorVerbs):
		return types.LevelSenior
	case has(nlp.MidSeniorVerbs):
		return types.LevelMidSenior
	case has(nlp.MidJuniorVerbs):
		return types.LevelMidJunior
	}
	return types.LevelEntry
}

func seniorityFor(years int, keywordText string) types.Seniority {
	switch {
	case years >= seniorYears || seniorKeyword.MatchString(keywordText):
		return types.SenioritySenior
	case years >= midYears || midKeyword.MatchString(keywordText):
		return types.SeniorityMid
	}
	return types.SeniorityEntry
}

// suggestPosition 关键词命中最多的岗位，全部未命中返回空
func (e *Extractor) suggestPosition(text string) string {
	lower := strings.ToLower(foldDiacritics(text))
	best, bestHits := "", 0
	for _, p := range e.vocab.Positions {
		hits := 0
		for _, kw := range p.Keywords {
			if containsTerm(lower, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = p.Title, hits
		}
	}
	return best
}
