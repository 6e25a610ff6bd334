package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"resume-analyzer-go/internal/storage/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS candidates (
	id TEXT PRIMARY KEY,
	first_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	location TEXT NOT NULL DEFAULT '',
	major TEXT NOT NULL DEFAULT '',
	skills TEXT NOT NULL DEFAULT '',
	experience_years INTEGER NOT NULL DEFAULT 0,
	seniority TEXT NOT NULL DEFAULT '',
	education TEXT NOT NULL DEFAULT '',
	score INTEGER NOT NULL DEFAULT 0,
	score_scheme TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'Active',
	shortlisted INTEGER NOT NULL DEFAULT 0,
	source_channel TEXT NOT NULL DEFAULT '',
	source_filename TEXT NOT NULL DEFAULT '',
	file_md5 TEXT NOT NULL DEFAULT '',
	text_md5 TEXT NOT NULL DEFAULT '',
	original_object TEXT NOT NULL DEFAULT '',
	text_object TEXT NOT NULL DEFAULT '',
	record_json TEXT,
	submitted_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_candidates_status_score ON candidates(status, score);
CREATE INDEX IF NOT EXISTS idx_candidates_email ON candidates(email);
CREATE INDEX IF NOT EXISTS idx_candidates_text_md5 ON candidates(text_md5);
`

const candidateColumns = `id, first_name, last_name, email, phone, location, major, skills,
	experience_years, seniority, education, score, score_scheme, status, shortlisted,
	source_channel, source_filename, file_md5, text_md5, original_object, text_object,
	record_json, submitted_at`

// SQLiteStore 单文件候选人仓库，供命令行工具离线使用
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ CandidateStore = (*SQLiteStore)(nil)

// NewSQLiteStore 打开(必要时创建)数据库文件并建表
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("SQLite路径不能为空")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("创建数据目录失败: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("打开SQLite失败: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("初始化表结构失败: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Path 数据库文件路径
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Save(ctx context.Context, c *Candidate) error {
	row, err := toModel(c)
	if err != nil {
		return err
	}
	if row.SubmittedAt.IsZero() {
		row.SubmittedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO candidates (`+candidateColumns+`, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			email = excluded.email,
			phone = excluded.phone,
			location = excluded.location,
			major = excluded.major,
			skills = excluded.skills,
			experience_years = excluded.experience_years,
			seniority = excluded.seniority,
			education = excluded.education,
			score = excluded.score,
			score_scheme = excluded.score_scheme,
			status = excluded.status,
			shortlisted = excluded.shortlisted,
			source_channel = excluded.source_channel,
			source_filename = excluded.source_filename,
			file_md5 = excluded.file_md5,
			text_md5 = excluded.text_md5,
			original_object = excluded.original_object,
			text_object = excluded.text_object,
			record_json = excluded.record_json,
			submitted_at = excluded.submitted_at,
			updated_at = excluded.updated_at
	`, row.ID, row.FirstName, row.LastName, row.Email, row.Phone, row.Location, row.Major, row.Skills,
		row.ExperienceYears, row.Seniority, row.Education, row.Score, row.ScoreScheme, row.Status, row.Shortlisted,
		row.SourceChannel, row.SourceFilename, row.FileMD5, row.TextMD5, row.OriginalObject, row.TextObject,
		string(row.RecordJSON), row.SubmittedAt.UTC(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("保存候选人失败: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCandidate(r rowScanner) (*Candidate, error) {
	var m models.Candidate
	var record sql.NullString
	var submittedAt sql.NullTime
	if err := r.Scan(&m.ID, &m.FirstName, &m.LastName, &m.Email, &m.Phone, &m.Location, &m.Major, &m.Skills,
		&m.ExperienceYears, &m.Seniority, &m.Education, &m.Score, &m.ScoreScheme, &m.Status, &m.Shortlisted,
		&m.SourceChannel, &m.SourceFilename, &m.FileMD5, &m.TextMD5, &m.OriginalObject, &m.TextObject,
		&record, &submittedAt); err != nil {
		return nil, err
	}
	if record.Valid {
		m.RecordJSON = []byte(record.String)
	}
	if submittedAt.Valid {
		m.SubmittedAt = submittedAt.Time
	}
	return fromModel(&m)
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Candidate, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+candidateColumns+" FROM candidates WHERE id = ?", id)
	c, err := scanCandidate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCandidateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("读取候选人失败: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) Search(ctx context.Context, q SearchQuery) ([]*Candidate, error) {
	where, args := q.Where()
	var b strings.Builder
	b.WriteString("SELECT " + candidateColumns + " FROM candidates WHERE " + where + " ORDER BY " + q.OrderBy())
	if q.Limit > 0 || q.Offset > 0 {
		limit := q.Limit
		if limit <= 0 {
			limit = -1
		}
		b.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, limit, q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("搜索候选人失败: %w", err)
	}
	defer rows.Close()

	out := []*Candidate{}
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("读取候选人失败: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) exec(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCandidateNotFound
	}
	return nil
}

func (s *SQLiteStore) SetShortlisted(ctx context.Context, id string, shortlisted bool) error {
	return s.exec(ctx, "UPDATE candidates SET shortlisted = ?, updated_at = ? WHERE id = ?",
		shortlisted, time.Now().UTC(), id)
}

func (s *SQLiteStore) UpdateStatus(ctx context.Context, id string, status string) error {
	if !IsValidStatus(status) {
		return fmt.Errorf("无效的状态: %q", status)
	}
	return s.exec(ctx, "UPDATE candidates SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now().UTC(), id)
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	return s.exec(ctx, "DELETE FROM candidates WHERE id = ?", id)
}

func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT score, experience_years, shortlisted, skills FROM candidates")
	if err != nil {
		return nil, fmt.Errorf("统计候选人失败: %w", err)
	}
	defer rows.Close()

	var stats []statsRow
	for rows.Next() {
		var r statsRow
		var skills string
		if err := rows.Scan(&r.Score, &r.ExperienceYears, &r.Shortlisted, &skills); err != nil {
			return nil, fmt.Errorf("读取统计行失败: %w", err)
		}
		r.Skills = splitSkills(skills)
		stats = append(stats, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return computeStats(stats), nil
}
