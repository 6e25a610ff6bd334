package types

import (
	"encoding/json"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// SkillSet 小写技能集合，大小写不敏感去重
// 零值可直接使用
type SkillSet struct {
	set mapset.Set[string]
}

// NewSkillSet 用给定技能创建集合
func NewSkillSet(skills ...string) SkillSet {
	s := SkillSet{set: mapset.NewThreadUnsafeSet[string]()}
	for _, skill := range skills {
		s.Add(skill)
	}
	return s
}

// Add 添加技能（转小写、去首尾空白），返回是否为新增
func (s *SkillSet) Add(skill string) bool {
	skill = strings.ToLower(strings.TrimSpace(skill))
	if skill == "" {
		return false
	}
	if s.set == nil {
		s.set = mapset.NewThreadUnsafeSet[string]()
	}
	return s.set.Add(skill)
}

// Contains 判断是否包含某技能
func (s SkillSet) Contains(skill string) bool {
	if s.set == nil {
		return false
	}
	return s.set.Contains(strings.ToLower(strings.TrimSpace(skill)))
}

// Len 技能数量
func (s SkillSet) Len() int {
	if s.set == nil {
		return 0
	}
	return s.set.Cardinality()
}

// Slice 返回排序后的技能列表
func (s SkillSet) Slice() []string {
	if s.set == nil {
		return []string{}
	}
	out := s.set.ToSlice()
	sort.Strings(out)
	return out
}

// MarshalJSON 以排序数组输出，保证同一输入序列化结果稳定
func (s SkillSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

// UnmarshalJSON 从字符串数组恢复
func (s *SkillSet) UnmarshalJSON(data []byte) error {
	var skills []string
	if err := json.Unmarshal(data, &skills); err != nil {
		return err
	}
	*s = NewSkillSet(skills...)
	return nil
}
