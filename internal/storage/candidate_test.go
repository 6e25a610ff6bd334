package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-analyzer-go/internal/types"
)

func TestNewCandidate(t *testing.T) {
	record := &types.ResumeRecord{
		Contact: types.ContactInfo{FirstName: "Jane", LastName: "Doe", Phone: "(415) 555-2671", PhoneE164: "+14155552671"},
		Education: []types.EducationEntry{
			{Degree: "Bachelor of Science", Level: types.DegreeBachelor},
			{Degree: "Master of Science", Level: types.DegreeMaster},
			{Institution: "Coursera"},
		},
		Experience: types.ExperienceSummary{TotalYears: 3, Seniority: types.SeniorityMid},
	}
	c := NewCandidate("id-1", record)
	assert.Equal(t, "+14155552671", c.Phone, "优先使用E.164格式")
	assert.Equal(t, "Master of Science", c.Education, "取最高学位")
	assert.Equal(t, 3, c.ExperienceYears)
	assert.Equal(t, "mid", c.Seniority)
	assert.Equal(t, StatusActive, c.Status)
	assert.Empty(t, c.Skills)

	empty := NewCandidate("id-2", nil)
	assert.Equal(t, StatusActive, empty.Status)
	assert.Nil(t, empty.Record)
}

func TestSearchQueryWhere(t *testing.T) {
	where, args := SearchQuery{}.Where()
	assert.Equal(t, "1 = 1", where)
	assert.Empty(t, args)

	yes := true
	where, args = SearchQuery{Query: "Go, ,Rust", Category: SearchSkills, MinScore: 50, Status: StatusActive, Shortlisted: &yes}.Where()
	assert.Equal(t, "score >= ? AND status = ? AND shortlisted = ? AND (LOWER(skills) LIKE ? ESCAPE '!' OR LOWER(skills) LIKE ? ESCAPE '!')", where)
	assert.Equal(t, []any{50, StatusActive, true, "%go%", "%rust%"}, args)

	where, args = SearchQuery{Query: "jane"}.Where()
	assert.Contains(t, where, "LOWER(email) LIKE ? ESCAPE '!'")
	assert.Len(t, args, 4, "All 匹配名、姓、邮箱、技能")

	_, args = SearchQuery{Query: "C_, 100%, wow!", Category: SearchEmail}.Where()
	assert.Equal(t, []any{"%c!_%", "%100!%%", "%wow!!%"}, args, "通配符按字面匹配")
}

func TestCategories(t *testing.T) {
	assert.Equal(t, "Low (0-49)", ScoreCategory(49))
	assert.Equal(t, "Medium (50-69)", ScoreCategory(50))
	assert.Equal(t, "High (70-89)", ScoreCategory(89))
	assert.Equal(t, "Excellent (90+)", ScoreCategory(90))

	assert.Equal(t, "Junior (0-2 years)", ExperienceCategory(1))
	assert.Equal(t, "Mid-level (2-5 years)", ExperienceCategory(2))
	assert.Equal(t, "Senior (5-10 years)", ExperienceCategory(9))
	assert.Equal(t, "Expert (10+ years)", ExperienceCategory(10))
}

func TestDecodeRecord(t *testing.T) {
	r, err := decodeRecord(nil)
	require.NoError(t, err)
	assert.Nil(t, r)

	r, err = decodeRecord([]byte("null"))
	require.NoError(t, err)
	assert.Nil(t, r)

	_, err = decodeRecord([]byte("{broken"))
	assert.Error(t, err)
}
