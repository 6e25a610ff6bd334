package nlp

import (
	"context"
	"regexp"
	"sort"
	"strings"
)

// HeuristicModel 基于正则、词形与词表的实体识别实现
// 不依赖外部服务，所有状态在构造后只读
type HeuristicModel struct {
	nameNoise  map[string]bool   // 不可能出现在人名中的词（小写）
	verbLemmas map[string]string // 屈折形式 -> 原形
}

// HeuristicOption 构造选项
type HeuristicOption func(*HeuristicModel)

// WithNameNoiseWords 追加人名排除词，例如岗位名称中的词
func WithNameNoiseWords(words ...string) HeuristicOption {
	return func(m *HeuristicModel) {
		for _, w := range words {
			for _, part := range strings.Fields(strings.ToLower(w)) {
				m.nameNoise[part] = true
			}
		}
	}
}

// NewHeuristicModel 创建规则模型
func NewHeuristicModel(opts ...HeuristicOption) *HeuristicModel {
	m := &HeuristicModel{
		nameNoise:  make(map[string]bool, len(defaultNameNoise)),
		verbLemmas: buildVerbLemmas(),
	}
	for _, w := range defaultNameNoise {
		m.nameNoise[w] = true
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var _ LanguageModel = (*HeuristicModel)(nil)

var (
	// 行内分隔：竖线、圆点、逗号、分号、冒号、被空格包围的短横线
	segmentSep = regexp.MustCompile(`\s*(?:\||•|·|,|;|:|\s[-–—]\s|\t)\s*`)
	nameToken  = regexp.MustCompile(`^(?:(?:Mc|Mac|O')?[A-Z][a-z]+(?:['-][A-Z]?[a-z]+)*|[A-Z]{2,}(?:['-][A-Z]+)*|[A-Z]\.)$`)

	listSep     = regexp.MustCompile(`\s*(?:,|\||•|·|;|\t)\s*`)
	labelPrefix = regexp.MustCompile(`^[A-Za-z][A-Za-z &/-]{1,30}:\s*`)
	hasLetter   = regexp.MustCompile(`\pL`)
	wordToken   = regexp.MustCompile(`[a-z]+`)

	institutionPattern = regexp.MustCompile(`(?:[A-Z][\w&'.-]*[ \t]+(?:(?:of|and|the|for|at|de)[ \t]+)?)*(?:University|College|Institute|School|Academy|Polytechnic)(?:[ \t]+(?:of|at|for|in)(?:[ \t]+(?:the|and))?(?:[ \t]+[A-Z][\w&'-]*)+)?`)
	companyPattern     = regexp.MustCompile(`(?:[A-Z][\w&'-]*[ \t]+){0,4}[A-Z][\w&'-]*,?[ \t]+(?:Inc\.?|LLC|Ltd\.?|Limited|Corp\.?|Corporation|Company|Technologies|Technology|Solutions|Systems|Labs|Group|GmbH|Bank|Consulting|Software)\b`)
	locationPattern    = regexp.MustCompile(`\b([A-Z][a-zA-Z.'-]+(?: [A-Z][a-zA-Z.'-]+){0,2}),[ \t]*([A-Z]{2,3}|[A-Z][a-z]+(?: [A-Z][a-z]+)?)\b`)
)

// FindPersonEntities 将每行按分隔符切段，2~4个首字母大写或全大写的词且不含排除词的片段视为人名
func (m *HeuristicModel) FindPersonEntities(ctx context.Context, text string) ([]Span, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var spans []Span
	forEachSegment(text, segmentSep, func(seg string, start int) {
		if m.looksLikePersonName(seg) {
			spans = append(spans, Span{Text: seg, Label: LabelPerson, Start: start, End: start + len(seg)})
		}
	})
	return spans, nil
}

func (m *HeuristicModel) looksLikePersonName(seg string) bool {
	tokens := strings.Fields(seg)
	if len(tokens) < 2 || len(tokens) > 4 {
		return false
	}
	full := 0
	for _, tok := range tokens {
		if !nameToken.MatchString(tok) {
			return false
		}
		if m.nameNoise[strings.ToLower(strings.TrimSuffix(tok, "."))] {
			return false
		}
		if len(tok) > 2 {
			full++
		}
	}
	return full >= 2
}

// FindOrgEntities 学校与公司名称，按出现位置排序
func (m *HeuristicModel) FindOrgEntities(ctx context.Context, text string) ([]Span, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	spans := MatchInstitutions(text)
	for _, loc := range companyPattern.FindAllStringIndex(text, -1) {
		spans = append(spans, Span{Text: strings.TrimSpace(text[loc[0]:loc[1]]), Label: LabelOrg, Start: loc[0], End: loc[1]})
	}
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	return spans, nil
}

// FindLocationEntities "城市, 州/国家" 形式的地名
func (m *HeuristicModel) FindLocationEntities(ctx context.Context, text string) ([]Span, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return MatchLocations(text), nil
}

// FindSkillEntities 只看列表形式的行（逗号、竖线等分隔），每项1~3个词
func (m *HeuristicModel) FindSkillEntities(ctx context.Context, text string) ([]Span, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var spans []Span
	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		lineStart := offset
		offset += len(line)
		content := strings.TrimRight(line, "\n")
		if loc := labelPrefix.FindStringIndex(content); loc != nil {
			lineStart += loc[1]
			content = content[loc[1]:]
		}
		if !listSep.MatchString(content) {
			continue
		}
		forEachSegment(content, listSep, func(seg string, start int) {
			words := strings.Fields(seg)
			if len(words) == 0 || len(words) > 3 || len(seg) > 40 || !hasLetter.MatchString(seg) {
				return
			}
			abs := lineStart + start
			spans = append(spans, Span{Text: seg, Label: LabelSkill, Start: abs, End: abs + len(seg)})
		})
	}
	return spans, nil
}

// FindVerbs 返回识别到的动词原形，按首次出现顺序去重
func (m *HeuristicModel) FindVerbs(ctx context.Context, text string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var verbs []string
	for _, w := range wordToken.FindAllString(strings.ToLower(text), -1) {
		lemma, ok := m.verbLemmas[w]
		if !ok || seen[lemma] {
			continue
		}
		seen[lemma] = true
		verbs = append(verbs, lemma)
	}
	return verbs, nil
}

// MatchInstitutions 用正则匹配 "... University/College/Institute/School (of ...)" 形式的机构名
func MatchInstitutions(text string) []Span {
	var spans []Span
	for _, loc := range institutionPattern.FindAllStringIndex(text, -1) {
		name := strings.TrimRight(text[loc[0]:loc[1]], " \t.,-")
		if name == "" {
			continue
		}
		spans = append(spans, Span{Text: name, Label: LabelOrg, Start: loc[0], End: loc[0] + len(name)})
	}
	return spans
}

// MatchLocations 匹配 "City, ST" 或 "City, Country"，地区部分必须是已知州代码或国家
func MatchLocations(text string) []Span {
	var spans []Span
	for _, m := range locationPattern.FindAllStringSubmatchIndex(text, -1) {
		city := text[m[2]:m[3]]
		region := text[m[4]:m[5]]
		if !knownRegion(region) {
			first := strings.Fields(region)[0]
			if !knownRegion(first) {
				continue
			}
			region = first
		}
		value := city + ", " + region
		spans = append(spans, Span{Text: value, Label: LabelLocation, Start: m[0], End: m[4] + len(region)})
	}
	return spans
}

func knownRegion(region string) bool {
	return usStates[region] || countries[region]
}

// forEachSegment 按分隔符切分文本，回调去掉首尾空白的片段及其字节偏移
func forEachSegment(text string, sep *regexp.Regexp, fn func(seg string, start int)) {
	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		lineStart := offset
		offset += len(line)
		content := strings.TrimRight(line, "\n")

		prev := 0
		emit := func(from, to int) {
			raw := content[from:to]
			trimmed := strings.TrimSpace(raw)
			if trimmed == "" {
				return
			}
			lead := strings.Index(raw, trimmed)
			fn(trimmed, lineStart+from+lead)
		}
		for _, loc := range sep.FindAllStringIndex(content, -1) {
			emit(prev, loc[0])
			prev = loc[1]
		}
		emit(prev, len(content))
	}
}

func buildVerbLemmas() map[string]string {
	lemmas := make(map[string]string)
	for _, group := range [][]string{SeniorVerbs, MidSeniorVerbs, MidJuniorVerbs, EntryVerbs} {
		for _, base := range group {
			for _, form := range inflect(base) {
				if _, exists := lemmas[form]; !exists {
					lemmas[form] = base
				}
			}
		}
	}
	for form, base := range irregularVerbs {
		lemmas[form] = base
	}
	return lemmas
}

// inflect 生成规则变化形式：原形、三单、过去式、进行时
func inflect(base string) []string {
	forms := []string{base}
	last := base[len(base)-1]
	consonantY := last == 'y' && len(base) > 1 && !strings.ContainsRune("aeiou", rune(base[len(base)-2]))

	switch {
	case consonantY:
		stem := base[:len(base)-1]
		forms = append(forms, stem+"ies", stem+"ied")
	case strings.HasSuffix(base, "s"), strings.HasSuffix(base, "sh"), strings.HasSuffix(base, "ch"), strings.HasSuffix(base, "x"):
		forms = append(forms, base+"es", base+"ed")
	case last == 'e':
		forms = append(forms, base+"s", base+"d")
	default:
		forms = append(forms, base+"s", base+"ed")
	}

	if last == 'e' && !strings.HasSuffix(base, "ee") {
		forms = append(forms, base[:len(base)-1]+"ing")
	} else {
		forms = append(forms, base+"ing")
	}
	return forms
}
