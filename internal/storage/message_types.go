package storage

import (
	"time"

	"github.com/google/uuid"
)

// 事件类型
const (
	EventResumeUploaded = "resume.uploaded"
	EventResumeParsed   = "resume.parsed"
)

// ResumeUploadMessage 简历上传消息，消费者据此下载原件并抽取
type ResumeUploadMessage struct {
	SubmissionUUID      string    `json:"submission_uuid"`
	SubmissionTimestamp time.Time `json:"submission_timestamp"`
	SourceChannel       string    `json:"source_channel,omitempty"`
	OriginalFilename    string    `json:"original_filename"`
	OriginalObjectKey   string    `json:"original_object_key"`    // MinIO中的对象路径
	RawFileMD5          string    `json:"raw_file_md5,omitempty"` // 失败时回滚去重记录
}

// ResumeParsedEvent 抽取完成事件，经outbox投递
type ResumeParsedEvent struct {
	EventID         string    `json:"event_id"`
	EventType       string    `json:"event_type"`
	CandidateID     string    `json:"candidate_id"`
	FullName        string    `json:"full_name"`
	Email           string    `json:"email,omitempty"`
	Score           int       `json:"resume_score"`
	ScoreScheme     string    `json:"score_scheme"`
	ExperienceYears int       `json:"experience_years"`
	Seniority       string    `json:"seniority"`
	Skills          []string  `json:"skills"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// NewResumeParsedEvent 由候选人生成事件
func NewResumeParsedEvent(c *Candidate) ResumeParsedEvent {
	return ResumeParsedEvent{
		EventID:         uuid.NewString(),
		EventType:       EventResumeParsed,
		CandidateID:     c.ID,
		FullName:        c.FullName(),
		Email:           c.Email,
		Score:           c.Score,
		ScoreScheme:     c.ScoreScheme,
		ExperienceYears: c.ExperienceYears,
		Seniority:       c.Seniority,
		Skills:          c.Skills,
		OccurredAt:      time.Now(),
	}
}
