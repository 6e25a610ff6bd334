package extractor

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	spaceReplacer = strings.NewReplacer(
		"\r\n", "\n",
		"\r", "\n",
		"\u00a0", " ", // NBSP
		"\u2007", " ",
		"\u202f", " ",
		"\u200b", "", // 零宽字符
		"\u200c", "",
		"\u200d", "",
		"\u2060", "",
		"\ufeff", "", // BOM
		"\t", " ",
	)
	multiSpace   = regexp.MustCompile(` {2,}`)
	bulletPrefix = regexp.MustCompile(`^(?:[•●⚫⭐▪■◦‣∙·▸►➢✓✔*-]+\s*)+`)
)

// Normalize 统一换行与空白、NFC规范化、去掉行首项目符号，连续空行压缩为一行
// 对已规范化的文本再次调用结果不变
func Normalize(raw string) string {
	text := strings.ToValidUTF8(raw, "")
	text = norm.NFC.String(text)
	text = spaceReplacer.Replace(text)

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = bulletPrefix.ReplaceAllString(line, "")
		line = multiSpace.ReplaceAllString(strings.TrimSpace(line), " ")
		if line == "" {
			if blank || len(out) == 0 {
				continue
			}
			blank = true
			out = append(out, "")
			continue
		}
		blank = false
		out = append(out, line)
	}
	// 去掉末尾空行
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}

// foldDiacritics 去掉变音符号，用于大小写无关的词典匹配（é -> e）
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
