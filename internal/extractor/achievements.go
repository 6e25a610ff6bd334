package extractor

import (
	"regexp"
	"strings"

	"resume-analyzer-go/internal/types"
)

var achievementBullet = regexp.MustCompile(`^[•●⚫⭐▪■]\s*`)

// ExtractAchievements 荣誉/获奖章节的逐行内容，去掉项目符号，丢弃以honor/award开头的行
func ExtractAchievements(sections []types.Section) []string {
	section := findSection(sections, types.SectionAchievements)
	if section == nil {
		return nil
	}
	var out []string
	for _, line := range section.Lines() {
		line = strings.TrimSpace(achievementBullet.ReplaceAllString(strings.TrimSpace(line), ""))
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, "honor") || strings.HasPrefix(lower, "award") {
			continue
		}
		out = append(out, line)
	}
	return out
}
