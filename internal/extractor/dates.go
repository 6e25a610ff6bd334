package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"resume-analyzer-go/internal/types"
)

const (
	minYear = 1900
	maxYear = 2100
)

var monthNumbers = map[string]int{
	"jan": 1, "january": 1,
	"feb": 2, "february": 2,
	"mar": 3, "march": 3,
	"apr": 4, "april": 4,
	"may": 5,
	"jun": 6, "june": 6,
	"jul": 7, "july": 7,
	"aug": 8, "august": 8,
	"sep": 9, "sept": 9, "september": 9,
	"oct": 10, "october": 10,
	"nov": 11, "november": 11,
	"dec": 12, "december": 12,
}

var presentWords = map[string]bool{
	"present": true, "current": true, "now": true, "today": true, "ongoing": true,
}

const (
	monthExpr     = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sept?(?:ember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?`
	yearExpr      = `(?:19|20)\d{2}`
	numericExpr   = `\b(?:0?[1-9]|1[0-2])[/.-]` + yearExpr + `\b`
	monthYearExpr = `\b` + monthExpr + `,?\s+` + yearExpr + `\b`
	presentExpr   = `(?:present|current|now|today|ongoing)\b`
	dashExpr      = `\s*[-–—]+\s*`
	toExpr        = `\s+(?:to|until|till)\s+`
)

type datePattern struct {
	name   string
	re     *regexp.Regexp
	single bool
}

// rangePatterns 按优先级排列，第一个命中的生效
var rangePatterns = []datePattern{
	{name: "numeric-dash", re: regexp.MustCompile(`(?i)(` + numericExpr + `)` + dashExpr + `(` + numericExpr + `|` + presentExpr + `)`)},
	{name: "numeric-to", re: regexp.MustCompile(`(?i)(` + numericExpr + `)` + toExpr + `(` + numericExpr + `|` + presentExpr + `)`)},
	{name: "month-year", re: regexp.MustCompile(`(?i)(` + monthYearExpr + `)(?:` + dashExpr + `|` + toExpr + `)(` + monthYearExpr + `|` + presentExpr + `)`)},
	{name: "year", re: regexp.MustCompile(`(?i)\b(` + yearExpr + `)(?:` + dashExpr + `|` + toExpr + `)(` + yearExpr + `\b|` + presentExpr + `)`)},
	{name: "single-numeric", re: regexp.MustCompile(`(?i)(` + numericExpr + `)`), single: true},
	{name: "single-month-year", re: regexp.MustCompile(`(?i)(` + monthYearExpr + `)`), single: true},
}

var singleYearPattern = datePattern{name: "single-year", re: regexp.MustCompile(`\b(` + yearExpr + `)\b`), single: true}

var (
	numericDate   = regexp.MustCompile(`^(\d{1,2})[/.-](\d{4})$`)
	isoMonthDate  = regexp.MustCompile(`^(\d{4})[/.-](\d{1,2})$`)
	monthNameDate = regexp.MustCompile(`^([A-Za-z]+)\.?,?\s+(\d{4})$`)
	bareYearDate  = regexp.MustCompile(`^(\d{4})$`)
)

// ParseDateMarker 解析单个日期文本，无法解析时只保留Raw
func ParseDateMarker(raw string) types.DateMarker {
	m := types.DateMarker{Raw: strings.TrimSpace(raw)}
	s := strings.ToLower(m.Raw)
	if s == "" {
		return m
	}
	if presentWords[s] {
		m.Present = true
		return m
	}

	year, month := 0, 0
	switch {
	case numericDate.MatchString(s):
		g := numericDate.FindStringSubmatch(s)
		month, _ = strconv.Atoi(g[1])
		year, _ = strconv.Atoi(g[2])
	case isoMonthDate.MatchString(s):
		g := isoMonthDate.FindStringSubmatch(s)
		year, _ = strconv.Atoi(g[1])
		month, _ = strconv.Atoi(g[2])
	case monthNameDate.MatchString(s):
		g := monthNameDate.FindStringSubmatch(s)
		month = monthNumbers[g[1]]
		year, _ = strconv.Atoi(g[2])
	case bareYearDate.MatchString(s):
		year, _ = strconv.Atoi(s)
		month = 1
	default:
		return m
	}

	if year < minYear || year > maxYear || month < 1 || month > 12 {
		return m
	}
	m.Year, m.Month = year, month
	return m
}

// presentMarker 只有开始日期时补上的结束标记
func presentMarker() types.DateMarker {
	return types.DateMarker{Raw: "Present", Present: true}
}

// findDateRange 按优先级在文本中查找日期区间
// openEnded: 只找到开始日期时结束日期记为Present（工作经历）
// bareYear: 允许单独的四位年份（教育经历）
// 返回区间、匹配的字节位置以及是否命中
func findDateRange(text string, openEnded, bareYear bool) (types.DateRange, []int, bool) {
	patterns := rangePatterns
	if bareYear {
		patterns = append(append([]datePattern{}, rangePatterns...), singleYearPattern)
	}
	for _, p := range patterns {
		g := p.re.FindStringSubmatchIndex(text)
		if g == nil {
			continue
		}
		var r types.DateRange
		r.Start = ParseDateMarker(text[g[2]:g[3]])
		if p.single {
			if openEnded {
				r.End = presentMarker()
			}
		} else {
			r.End = ParseDateMarker(text[g[4]:g[5]])
		}
		return r, []int{g[0], g[1]}, true
	}
	return types.DateRange{}, nil, false
}
