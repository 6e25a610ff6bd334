// Package vocab 加载简历抽取所需的词表：技能词典、专业列表、岗位关键词映射
// 词表在启动时加载一次，之后只读共享
package vocab

import (
	"embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"resume-analyzer-go/internal/logger"
)

//go:embed data/*.csv
var defaultData embed.FS

// ErrMissingVocabulary 词表文件缺失或无法读取，对应词表降级为空
var ErrMissingVocabulary = errors.New("词表不可用")

// 内置词表文件名
const (
	defaultSkillsFile    = "data/skills.csv"
	defaultMajorsFile    = "data/majors.csv"
	defaultPositionsFile = "data/positions.csv"
	defaultJobSkillsFile = "data/job_skills.csv"
)

// headerCells CSV首行如果是这些列名则跳过
var headerCells = map[string]bool{
	"skill": true, "skills": true, "major": true, "majors": true,
	"position": true, "title": true, "job": true,
}

// Position 岗位名称及其关键词
type Position struct {
	Title    string
	Keywords []string
}

// Vocabulary 词表集合
type Vocabulary struct {
	Skills    []string            // 技能词典，按文件顺序
	Majors    []string            // 专业名称
	Positions []Position          // 岗位 -> 关键词
	JobSkills map[string][]string // 目标岗位(小写) -> 推荐技能

	// Warnings 加载过程中的降级告警，均包装了 ErrMissingVocabulary
	Warnings []error
}

// Paths 各词表文件路径，为空时使用内置词表
type Paths struct {
	Skills    string `yaml:"skills"`
	Majors    string `yaml:"majors"`
	Positions string `yaml:"positions"`
	JobSkills string `yaml:"job_skills"`
}

// Default 返回内置词表
func Default() *Vocabulary {
	return Load(Paths{})
}

// Empty 返回不含任何条目的词表
func Empty() *Vocabulary {
	return &Vocabulary{JobSkills: map[string][]string{}}
}

// Load 按路径加载词表，单个文件缺失时记录告警并降级为空列表，不会失败
func Load(paths Paths) *Vocabulary {
	v := Empty()

	if rows, err := readRows(paths.Skills, defaultSkillsFile); err != nil {
		v.warn("skills", paths.Skills, err)
	} else {
		v.Skills = flatten(rows)
	}

	if rows, err := readRows(paths.Majors, defaultMajorsFile); err != nil {
		v.warn("majors", paths.Majors, err)
	} else {
		v.Majors = flatten(rows)
	}

	if rows, err := readRows(paths.Positions, defaultPositionsFile); err != nil {
		v.warn("positions", paths.Positions, err)
	} else {
		for _, row := range rows {
			if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
				continue
			}
			v.Positions = append(v.Positions, Position{
				Title:    strings.TrimSpace(row[0]),
				Keywords: splitKeywords(row[1:]),
			})
		}
	}

	if rows, err := readRows(paths.JobSkills, defaultJobSkillsFile); err != nil {
		v.warn("job_skills", paths.JobSkills, err)
	} else {
		for _, row := range rows {
			if len(row) == 0 {
				continue
			}
			job := strings.ToLower(strings.TrimSpace(row[0]))
			if job == "" {
				continue
			}
			v.JobSkills[job] = splitKeywords(row[1:])
		}
	}

	logger.Debug().
		Int("skills", len(v.Skills)).
		Int("majors", len(v.Majors)).
		Int("positions", len(v.Positions)).
		Int("job_skills", len(v.JobSkills)).
		Msg("词表加载完成")
	return v
}

func (v *Vocabulary) warn(name, path string, err error) {
	wrapped := fmt.Errorf("%w: %s (%s): %v", ErrMissingVocabulary, name, path, err)
	v.Warnings = append(v.Warnings, wrapped)
	logger.Warn().Err(err).Str("vocabulary", name).Str("path", path).Msg("词表加载失败，降级为空词表")
}

// PositionTitles 返回全部岗位名称
func (v *Vocabulary) PositionTitles() []string {
	titles := make([]string, 0, len(v.Positions))
	for _, p := range v.Positions {
		titles = append(titles, p.Title)
	}
	return titles
}

// SuggestSkills 返回目标岗位的推荐技能
// 先精确匹配，再按岗位名包含关系匹配；未知岗位返回空
func (v *Vocabulary) SuggestSkills(job string) []string {
	job = strings.ToLower(strings.TrimSpace(job))
	if job == "" {
		return nil
	}
	if skills, ok := v.JobSkills[job]; ok {
		return append([]string(nil), skills...)
	}
	keys := make([]string, 0, len(v.JobSkills))
	for k := range v.JobSkills {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.Contains(job, k) || strings.Contains(k, job) {
			return append([]string(nil), v.JobSkills[k]...)
		}
	}
	return nil
}

// readRows 读取CSV；path为空时读取内置文件
func readRows(path, embedded string) ([][]string, error) {
	var r io.ReadCloser
	var err error
	if path == "" {
		r, err = defaultData.Open(embedded)
	} else {
		r, err = os.Open(path)
	}
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return parseCSV(r)
}

func parseCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var rows [][]string
	first := true
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if first {
			first = false
			if len(row) > 0 && headerCells[strings.ToLower(strings.TrimSpace(row[0]))] {
				continue
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// flatten 将所有单元格展开为去重列表，保持出现顺序
func flatten(rows [][]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, row := range rows {
		for _, cell := range row {
			cell = strings.TrimSpace(cell)
			key := strings.ToLower(cell)
			if cell == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, cell)
		}
	}
	return out
}

func splitKeywords(cells []string) []string {
	var out []string
	for _, cell := range cells {
		for _, kw := range strings.Split(cell, ";") {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				out = append(out, kw)
			}
		}
	}
	return out
}
