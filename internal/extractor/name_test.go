package extractor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameTokens(t *testing.T) {
	tests := []struct {
		candidate string
		want      []string
		ok        bool
	}{
		{"Jane Doe", []string{"Jane", "Doe"}, true},
		{"JOHN MICHAEL SMITH", []string{"John", "Michael", "Smith"}, true},
		{"Mary-Jane O'Neil", []string{"Mary-Jane", "O'Neil"}, true},
		{"jane doe", nil, false},
		{"Jane", nil, false},
		{"Software Engineer Resume", nil, false},
		{"Name: Jane Doe", nil, false},
	}
	for _, tt := range tests {
		got, ok := nameTokens(tt.candidate)
		assert.Equal(t, tt.ok, ok, "候选 %q", tt.candidate)
		assert.Equal(t, tt.want, got, "候选 %q", tt.candidate)
	}
}

func TestExtractNameStrategies(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		first string
		last  string
	}{
		{"全大写首行", "JOHN MICHAEL SMITH\njohn@example.com", "John", "Michael Smith"},
		{"跳过标题行", "RESUME\nCurriculum Vitae\nMaria Garcia Lopez", "Maria", "Garcia Lopez"},
		{"跳过职位行", "Senior Data Engineer\nGrace Hopper\ngrace@example.com", "Grace", "Hopper"},
		{"跳过简介", "PROFILE\nExperienced engineer\nAda Lovelace", "Ada", "Lovelace"},
		{"带标签的姓名", "Contact details\nName: Alice Walker | alice@x.com", "Alice", "Walker"},
		{"全小写不是姓名", "jane doe\njane@x.com", "", ""},
	}
	e := newTestExtractor(WithLanguageModel(nil))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, last := e.extractName(context.Background(), Normalize(tt.text))
			assert.Equal(t, tt.first, first)
			assert.Equal(t, tt.last, last)
		})
	}
}

func TestExtractNameUsesModelFirst(t *testing.T) {
	e := newTestExtractor()
	first, last := e.extractName(context.Background(), "JANE DOE | Software Engineer\njane@example.com")
	assert.Equal(t, "Jane", first)
	assert.Equal(t, "Doe", last)
}

func TestSplitName(t *testing.T) {
	first, last := splitName([]string{"Cher"})
	assert.Equal(t, "Cher", first)
	assert.Empty(t, last)

	first, last = splitName(nil)
	assert.Empty(t, first)
	assert.Empty(t, last)
}

func TestPrefixRunes(t *testing.T) {
	assert.Equal(t, "hé", prefixRunes("héllo", 2))
	assert.Equal(t, "abc", prefixRunes("abc", 10))
}
