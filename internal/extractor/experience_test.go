package extractor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-analyzer-go/internal/types"
)

const experienceSection = `EXPERIENCE
Senior Software Engineer | Acme Corp | 01/2020 - Present
Led a team of five engineers building payment APIs
Designed the settlement pipeline
Data Analyst
Globex
06/2017 - 12/2019
Assisted with quarterly reporting`

func experienceOf(e *Extractor, raw string) types.ExperienceSummary {
	text := Normalize(raw)
	return e.extractExperience(context.Background(), text, findSection(Segment(text), types.SectionExperience))
}

func TestExtractExperienceSection(t *testing.T) {
	summary := experienceOf(newTestExtractor(), experienceSection)
	require.Len(t, summary.Entries, 2)

	first := summary.Entries[0]
	assert.Equal(t, "Senior Software Engineer", first.Title)
	assert.Equal(t, "Acme Corp", first.Company)
	assert.True(t, first.Parseable)
	assert.Equal(t, types.Duration{Years: 5, Months: 5}, first.Duration)
	assert.Equal(t, types.LevelSenior, first.Level)

	second := summary.Entries[1]
	assert.Equal(t, "Data Analyst", second.Title)
	assert.Equal(t, "Globex", second.Company)
	assert.Equal(t, "06/2017", second.Dates.Start.Raw)
	assert.Equal(t, "12/2019", second.Dates.End.Raw)
	assert.Equal(t, types.Duration{Years: 2, Months: 6}, second.Duration)
	assert.Equal(t, types.LevelMidJunior, second.Level)

	assert.Equal(t, 7, summary.TotalYears)
	assert.Equal(t, 11, summary.TotalMonths)
	assert.Equal(t, 2, summary.DistinctPositions)
	assert.Equal(t, types.SenioritySenior, summary.Seniority)
	assert.Equal(t, types.LevelSenior, summary.Level)
	assert.Equal(t, "Software Engineer", summary.SuggestedPosition)
}

func TestExtractExperienceUnparseableRange(t *testing.T) {
	summary := experienceOf(newTestExtractor(), "EXPERIENCE\nSoftware Engineer\nInitech\n03/2018 - 01/2017")
	require.Len(t, summary.Entries, 1)

	entry := summary.Entries[0]
	assert.Equal(t, "03/2018", entry.Dates.Start.Raw, "原始日期文本保留")
	assert.Equal(t, "01/2017", entry.Dates.End.Raw)
	assert.False(t, entry.Parseable)
	assert.Equal(t, types.Duration{}, entry.Duration)
	assert.Equal(t, 0, summary.TotalYears)
	assert.Equal(t, 0, summary.TotalMonths)
	assert.Equal(t, types.SeniorityEntry, summary.Seniority)
}

func TestExtractExperienceDateFiveLinesBelowTitle(t *testing.T) {
	raw := "Jane Doe\nEXPERIENCE\nSoftware Engineer\nTechCorp\nSan Francisco, CA\nPlatform team\nPayments squad\n01/2020 - 01/2022"
	summary := experienceOf(newTestExtractor(WithLanguageModel(nil)), raw)
	require.Len(t, summary.Entries, 1)

	entry := summary.Entries[0]
	assert.Equal(t, "Software Engineer", entry.Title)
	assert.Equal(t, "TechCorp", entry.Company)
	assert.True(t, entry.Parseable, "标题行后第5行的日期也要识别")
	assert.Equal(t, "01/2020", entry.Dates.Start.Raw)
	assert.Equal(t, types.Duration{Years: 2}, entry.Duration)
	assert.Equal(t, 2, summary.TotalYears)
}

func TestExtractExperienceWithoutSection(t *testing.T) {
	e := newTestExtractor(WithLanguageModel(nil))

	t.Run("标题行加日期", func(t *testing.T) {
		summary := experienceOf(e, "Jane Roe\nBackend Developer, Initrode\n2016 - 2019\nWrote services in Go")
		require.Len(t, summary.Entries, 1)
		assert.Equal(t, "Backend Developer", summary.Entries[0].Title)
		assert.Equal(t, "Initrode", summary.Entries[0].Company)
		assert.Equal(t, types.Duration{Years: 3}, summary.Entries[0].Duration)
		assert.Equal(t, types.SeniorityMid, summary.Seniority)
		assert.Equal(t, types.LevelUnassigned, summary.Level, "没有模型时不判定层级")
	})

	t.Run("连续的标题行和公司行", func(t *testing.T) {
		summary := experienceOf(e, "Alex Kim\nQA Engineer\nUmbrella Corp\nWrote automated tests")
		require.Len(t, summary.Entries, 1)
		assert.Equal(t, "QA Engineer", summary.Entries[0].Title)
		assert.Equal(t, "Umbrella Corp", summary.Entries[0].Company)
		assert.False(t, summary.Entries[0].Parseable)
		assert.Equal(t, types.SeniorityEntry, summary.Seniority)
	})

	t.Run("没有工作经历", func(t *testing.T) {
		summary := experienceOf(e, "Just some text about hobbies and travel")
		assert.Empty(t, summary.Entries)
		assert.Equal(t, 0, summary.TotalYears)
		assert.Equal(t, types.SeniorityEntry, summary.Seniority)
		assert.Empty(t, summary.SuggestedPosition)
	})
}

func TestSplitTitleLine(t *testing.T) {
	tests := []struct {
		line    string
		title   string
		company string
	}{
		{"Software Engineer | Google", "Software Engineer", "Google"},
		{"Google | Software Engineer", "Software Engineer", "Google"},
		{"Software Engineer at Google", "Software Engineer", "Google"},
		{"Software Engineer - ", "Software Engineer", ""},
		{"Product Manager", "Product Manager", ""},
	}
	for _, tt := range tests {
		title, company := splitTitleLine(tt.line)
		assert.Equal(t, tt.title, title, "行 %q", tt.line)
		assert.Equal(t, tt.company, company, "行 %q", tt.line)
	}
}

func TestClassifyLevel(t *testing.T) {
	assert.Equal(t, types.LevelEntry, classifyLevel(nil))
	assert.Equal(t, types.LevelSenior, classifyLevel([]string{"assist", "lead"}), "出现高级动词即为Senior")
	assert.Equal(t, types.LevelMidSenior, classifyLevel([]string{"develop", "support"}))
	assert.Equal(t, types.LevelMidJunior, classifyLevel([]string{"assist"}))
	assert.Equal(t, types.LevelEntry, classifyLevel([]string{"learn"}))
}

func TestSeniorityFor(t *testing.T) {
	assert.Equal(t, types.SenioritySenior, seniorityFor(5, ""))
	assert.Equal(t, types.SenioritySenior, seniorityFor(0, "Lead Engineer"))
	assert.Equal(t, types.SeniorityMid, seniorityFor(2, ""))
	assert.Equal(t, types.SeniorityMid, seniorityFor(0, "Intermediate Developer"))
	assert.Equal(t, types.SeniorityEntry, seniorityFor(1, "Engineer"))
}

func TestIsActionVerb(t *testing.T) {
	assert.True(t, isActionVerb("Led"))
	assert.True(t, isActionVerb("Managed,"))
	assert.False(t, isActionVerb("Red"))
	assert.False(t, isActionVerb("Senior"))
}
