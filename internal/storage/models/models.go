package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Candidate 候选人表，列类型保持MySQL与Postgres通用
type Candidate struct {
	ID              string         `gorm:"type:varchar(36);primaryKey"`
	FirstName       string         `gorm:"type:varchar(255);index:idx_candidates_name,priority:1"`
	LastName        string         `gorm:"type:varchar(255);index:idx_candidates_name,priority:2"`
	Email           string         `gorm:"type:varchar(255);index:idx_candidates_email"`
	Phone           string         `gorm:"type:varchar(50)"`
	Location        string         `gorm:"type:varchar(255)"`
	Major           string         `gorm:"type:varchar(255)"`
	Skills          string         `gorm:"type:text"` // 逗号分隔，LIKE搜索
	ExperienceYears int            `gorm:"not null;default:0"`
	Seniority       string         `gorm:"type:varchar(20)"`
	Education       string         `gorm:"type:varchar(255)"`
	Score           int            `gorm:"not null;default:0;index:idx_candidates_status_score,priority:2"`
	ScoreScheme     string         `gorm:"type:varchar(20)"`
	Status          string         `gorm:"type:varchar(20);not null;default:'Active';index:idx_candidates_status_score,priority:1"`
	Shortlisted     bool           `gorm:"not null;default:false;index:idx_candidates_shortlisted"`
	SourceChannel   string         `gorm:"type:varchar(100)"`
	SourceFilename  string         `gorm:"type:varchar(255)"`
	FileMD5         string         `gorm:"type:char(32);index:idx_candidates_file_md5"`
	TextMD5         string         `gorm:"type:char(32);index:idx_candidates_text_md5"`
	OriginalObject  string         `gorm:"type:varchar(1024)"`
	TextObject      string         `gorm:"type:varchar(1024)"`
	RecordJSON      datatypes.JSON // 完整抽取结果
	SubmittedAt     time.Time      `gorm:"not null;index:idx_candidates_submitted_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime"`
}

func (Candidate) TableName() string {
	return "candidates"
}

// ToJSON 序列化为datatypes.JSON，nil返回JSON null
func ToJSON(v any) (datatypes.JSON, error) {
	if v == nil {
		return datatypes.JSON("null"), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
