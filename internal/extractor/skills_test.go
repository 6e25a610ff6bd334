package extractor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"resume-analyzer-go/internal/types"
)

func TestIsValidSkill(t *testing.T) {
	for _, s := range []string{"python", "go", "c++", "machine learning", "Kubernetes"} {
		assert.True(t, IsValidSkill(s), "应接受 %q", s)
	}
	for _, s := range []string{
		"a", "", "jane@x.com", "John Smith", "Stanford University", "B.Sc", "PhD",
		"4155552671", "linkedin.com/in/x", "html5", "node.js", "Email", "EDUCATION",
	} {
		assert.False(t, IsValidSkill(s), "应拒绝 %q", s)
	}
}

func TestExtractSkillsDictionary(t *testing.T) {
	e := newTestExtractor(WithLanguageModel(nil))

	skills := e.extractSkills(context.Background(), "Interested in javascript", nil)
	assert.True(t, skills.Contains("javascript"))
	assert.False(t, skills.Contains("java"), "java 不能匹配 javascript 的一部分")
	assert.False(t, skills.Contains("rest"), "rest 不能匹配 interested 的一部分")

	skills = e.extractSkills(context.Background(), "Pýthon and SQL", nil)
	assert.True(t, skills.Contains("python"), "去掉变音符后匹配")
	assert.True(t, skills.Contains("sql"))
}

func TestExtractSkillsFromModel(t *testing.T) {
	e := newTestExtractor()
	text := Normalize("SKILLS\nKustomize, Jane Smith, jane@x.com")
	skills := e.extractSkills(context.Background(), text, findSection(Segment(text), types.SectionSkills))

	assert.True(t, skills.Contains("kustomize"), "模型识别出的技能")
	assert.False(t, skills.Contains("jane smith"), "人名被过滤")
	assert.False(t, skills.Contains("janexcom"), "邮箱先按原文校验")
}

func TestAlphabeticOnly(t *testing.T) {
	assert.Equal(t, "Node JS", alphabeticOnly("Node JS 18"))
	assert.Equal(t, "C Golang", alphabeticOnly("C++ / Go-lang"))
}

func TestContainsTerm(t *testing.T) {
	tests := []struct {
		hay  string
		term string
		want bool
	}{
		{"experience with go and rust", "go", true},
		{"golang", "go", false},
		{"c++ and java", "c++", true},
		{"interest", "rest", false},
		{"rest, grpc", "rest", true},
		{"", "go", false},
		{"go", "", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, containsTerm(tt.hay, tt.term), "%q 中查找 %q", tt.hay, tt.term)
	}
}
