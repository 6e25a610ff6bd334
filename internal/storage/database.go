package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"resume-analyzer-go/internal/config"
	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/storage/models"
	"resume-analyzer-go/internal/tracing"
)

var dbTracer = otel.Tracer("resume-analyzer-go/storage/database")

type spanKey struct{}

// GormTracingPlugin 是一个GORM插件，用于向OpenTelemetry中添加数据库操作的追踪点
type GormTracingPlugin struct {
	tracer         trace.Tracer
	dbName         string
	dbSystem       attribute.KeyValue
	disableErrSkip bool
}

// NewGormTracingPlugin 创建一个新的GORM追踪插件，driver为 mysql 或 postgres
func NewGormTracingPlugin(dbName, driver string) *GormTracingPlugin {
	system := semconv.DBSystemMySQL
	if driver == "postgres" {
		system = semconv.DBSystemPostgreSQL
	}
	return &GormTracingPlugin{
		tracer:         dbTracer,
		dbName:         dbName,
		dbSystem:       system,
		disableErrSkip: true,
	}
}

// WithDisableErrSkip 设置是否禁用错误跳过
func (p *GormTracingPlugin) WithDisableErrSkip(disable bool) *GormTracingPlugin {
	p.disableErrSkip = disable
	return p
}

func (p *GormTracingPlugin) Name() string {
	return "GormOpenTelemetryPlugin"
}

// Initialize 为CRUD及row/raw注册前后回调
func (p *GormTracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()

	if err := cb.Create().Before("gorm:create").Register("otel:before_create", p.before("CREATE")); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("otel:after_create", p.after()); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("otel:before_query", p.before("SELECT")); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("otel:after_query", p.after()); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("otel:before_update", p.before("UPDATE")); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("otel:after_update", p.after()); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("otel:before_delete", p.before("DELETE")); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("otel:after_delete", p.after()); err != nil {
		return err
	}
	if err := cb.Row().Before("gorm:row").Register("otel:before_row", p.before("ROW")); err != nil {
		return err
	}
	if err := cb.Row().After("gorm:row").Register("otel:after_row", p.after()); err != nil {
		return err
	}
	if err := cb.Raw().Before("gorm:raw").Register("otel:before_raw", p.before("RAW")); err != nil {
		return err
	}
	return cb.Raw().After("gorm:raw").Register("otel:after_raw", p.after())
}

func (p *GormTracingPlugin) before(operation string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		if p.disableErrSkip && db.Statement.SkipHooks {
			return
		}
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}

		attrs := []attribute.KeyValue{
			p.dbSystem,
			attribute.String("db.name", p.dbName),
			attribute.String("db.operation", operation),
			attribute.String("db.sql.table", table),
		}
		if stmt := db.Statement.SQL.String(); stmt != "" {
			attrs = append(attrs, attribute.String("db.statement", tracing.SafeSQL(stmt)))
		}

		newCtx, span := p.tracer.Start(ctx, operation+" "+table,
			trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(attrs...))
		db.Statement.Context = context.WithValue(newCtx, spanKey{}, span)
	}
}

func (p *GormTracingPlugin) after() func(db *gorm.DB) {
	return func(db *gorm.DB) {
		span, ok := db.Statement.Context.Value(spanKey{}).(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
		switch {
		case db.Error == nil:
			span.SetStatus(codes.Ok, "")
		case errors.Is(db.Error, gorm.ErrRecordNotFound):
			// 查不到属于正常业务结果
			span.SetAttributes(attribute.String("error.type", "record_not_found"))
			span.SetStatus(codes.Ok, "record not found")
		default:
			tracing.RecordError(span, db.Error, tracing.ErrorTypeDB)
		}
	}
}

// outboxTarget 候选人写入时同事务写入的事件目的地
type outboxTarget struct {
	exchange   string
	routingKey string
}

// DatabaseOption Database可选配置
type DatabaseOption func(*Database)

// WithOutbox 保存候选人时在同一事务里写入 resume.parsed 事件
func WithOutbox(exchange, routingKey string) DatabaseOption {
	return func(d *Database) {
		if exchange != "" && routingKey != "" {
			d.outbox = &outboxTarget{exchange: exchange, routingKey: routingKey}
		}
	}
}

// Database 基于GORM的候选人仓库，支持MySQL和Postgres
type Database struct {
	db     *gorm.DB
	cfg    *config.MySQLConfig
	outbox *outboxTarget
}

var _ CandidateStore = (*Database)(nil)

// gormWriter 把gorm日志转到zerolog
type gormWriter struct {
	log zerolog.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Debug().Msgf(format, args...)
}

func gormLogLevel(level int) gormlogger.LogLevel {
	switch level {
	case 1:
		return gormlogger.Silent
	case 2:
		return gormlogger.Error
	case 3:
		return gormlogger.Warn
	case 4:
		return gormlogger.Info
	}
	return gormlogger.Warn
}

// DSN 按驱动拼出连接串，配置了DSN时直接返回
func DSN(cfg *config.MySQLConfig) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	if cfg.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=10s&readTimeout=30s&writeTimeout=30s",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database)
}

// NewDatabase 连接数据库并迁移表结构
func NewDatabase(cfg *config.MySQLConfig, opts ...DatabaseOption) (*Database, error) {
	if cfg == nil {
		return nil, fmt.Errorf("数据库配置不能为空")
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", "mysql":
		dialector = mysql.Open(DSN(cfg))
	case "postgres":
		dialector = postgres.Open(DSN(cfg))
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", cfg.Driver)
	}

	log := logger.Component("database")
	gormConfig := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger: gormlogger.New(gormWriter{log: log}, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormLogLevel(cfg.LogLevel),
			IgnoreRecordNotFoundError: true,
		}),
		PrepareStmt: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	d := &Database{db: db, cfg: cfg}
	for _, opt := range opts {
		opt(d)
	}

	if err := db.Use(NewGormTracingPlugin(cfg.Database, cfg.Driver).WithDisableErrSkip(true)); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("注册追踪插件失败: %w", err)
	}

	// 迁移时关闭SQL日志
	silent := db.Session(&gorm.Session{Logger: gormlogger.Discard})
	if err := silent.AutoMigrate(&models.Candidate{}, &models.OutboxMessage{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
	}

	log.Info().Str("driver", dialector.Name()).Msg("成功连接数据库并完成迁移")
	return d, nil
}

// DB 返回GORM数据库连接实例
func (d *Database) DB() *gorm.DB {
	return d.db
}

// OutboxEnabled 保存候选人时是否同时写入 resume.parsed 事件
func (d *Database) OutboxEnabled() bool {
	return d.outbox != nil
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	return sqlDB.Close()
}

func (d *Database) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return dbTracer.Start(ctx, "Database."+name,
		trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(attrs...))
}

// Save 按ID插入或覆盖候选人
func (d *Database) Save(ctx context.Context, c *Candidate) error {
	ctx, span := d.startSpan(ctx, "Save", attribute.String("candidate.id", c.ID))
	defer span.End()

	row, err := toModel(c)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return err
	}

	err = d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(row).Error; err != nil {
			return fmt.Errorf("保存候选人失败: %w", err)
		}
		if d.outbox == nil {
			return nil
		}
		payload, err := models.ToJSON(NewResumeParsedEvent(c))
		if err != nil {
			return fmt.Errorf("序列化事件失败: %w", err)
		}
		msg := &models.OutboxMessage{
			AggregateID:      c.ID,
			EventType:        EventResumeParsed,
			Payload:          payload,
			TargetExchange:   d.outbox.exchange,
			TargetRoutingKey: d.outbox.routingKey,
			Status:           models.OutboxPending,
		}
		if err := tx.Create(msg).Error; err != nil {
			return fmt.Errorf("写入outbox失败: %w", err)
		}
		return nil
	})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func (d *Database) Get(ctx context.Context, id string) (*Candidate, error) {
	ctx, span := d.startSpan(ctx, "Get", attribute.String("candidate.id", id))
	defer span.End()

	var row models.Candidate
	if err := d.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCandidateNotFound
		}
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return nil, err
	}
	return fromModel(&row)
}

func (d *Database) Search(ctx context.Context, q SearchQuery) ([]*Candidate, error) {
	ctx, span := d.startSpan(ctx, "Search",
		attribute.String("search.category", string(q.Category)),
		attribute.Int("search.min_score", q.MinScore))
	defer span.End()

	where, args := q.Where()
	tx := d.db.WithContext(ctx).Where(where, args...).Order(q.OrderBy())
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}

	var rows []models.Candidate
	if err := tx.Find(&rows).Error; err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return nil, fmt.Errorf("搜索候选人失败: %w", err)
	}

	out := make([]*Candidate, 0, len(rows))
	for i := range rows {
		c, err := fromModel(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	span.SetAttributes(attribute.Int("search.results", len(out)))
	return out, nil
}

func (d *Database) update(ctx context.Context, op, id string, values map[string]any) error {
	ctx, span := d.startSpan(ctx, op, attribute.String("candidate.id", id))
	defer span.End()

	res := d.db.WithContext(ctx).Model(&models.Candidate{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		tracing.RecordError(span, res.Error, tracing.ErrorTypeDB)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCandidateNotFound
	}
	return nil
}

func (d *Database) SetShortlisted(ctx context.Context, id string, shortlisted bool) error {
	return d.update(ctx, "SetShortlisted", id, map[string]any{"shortlisted": shortlisted})
}

func (d *Database) UpdateStatus(ctx context.Context, id string, status string) error {
	if !IsValidStatus(status) {
		return fmt.Errorf("无效的状态: %q", status)
	}
	return d.update(ctx, "UpdateStatus", id, map[string]any{"status": status})
}

func (d *Database) Delete(ctx context.Context, id string) error {
	ctx, span := d.startSpan(ctx, "Delete", attribute.String("candidate.id", id))
	defer span.End()

	res := d.db.WithContext(ctx).Delete(&models.Candidate{}, "id = ?", id)
	if res.Error != nil {
		tracing.RecordError(span, res.Error, tracing.ErrorTypeDB)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCandidateNotFound
	}
	return nil
}

func (d *Database) Stats(ctx context.Context) (*Stats, error) {
	ctx, span := d.startSpan(ctx, "Stats")
	defer span.End()

	var rows []struct {
		Score           int
		ExperienceYears int
		Shortlisted     bool
		Skills          string
	}
	err := d.db.WithContext(ctx).Model(&models.Candidate{}).
		Select("score", "experience_years", "shortlisted", "skills").
		Find(&rows).Error
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return nil, fmt.Errorf("统计候选人失败: %w", err)
	}

	stats := make([]statsRow, len(rows))
	for i, r := range rows {
		stats[i] = statsRow{
			Score:           r.Score,
			ExperienceYears: r.ExperienceYears,
			Shortlisted:     r.Shortlisted,
			Skills:          splitSkills(r.Skills),
		}
	}
	return computeStats(stats), nil
}

func toModel(c *Candidate) (*models.Candidate, error) {
	record, err := models.ToJSON(c.Record)
	if err != nil {
		return nil, fmt.Errorf("序列化抽取结果失败: %w", err)
	}
	status := c.Status
	if status == "" {
		status = StatusActive
	}
	return &models.Candidate{
		ID:              c.ID,
		FirstName:       c.FirstName,
		LastName:        c.LastName,
		Email:           c.Email,
		Phone:           c.Phone,
		Location:        c.Location,
		Major:           c.Major,
		Skills:          joinSkills(c.Skills),
		ExperienceYears: c.ExperienceYears,
		Seniority:       c.Seniority,
		Education:       c.Education,
		Score:           c.Score,
		ScoreScheme:     c.ScoreScheme,
		Status:          status,
		Shortlisted:     c.Shortlisted,
		SourceChannel:   c.SourceChannel,
		SourceFilename:  c.SourceFilename,
		FileMD5:         c.FileMD5,
		TextMD5:         c.TextMD5,
		OriginalObject:  c.OriginalObject,
		TextObject:      c.TextObject,
		RecordJSON:      record,
		SubmittedAt:     c.SubmittedAt,
	}, nil
}

func fromModel(m *models.Candidate) (*Candidate, error) {
	c := &Candidate{
		ID:              m.ID,
		FirstName:       m.FirstName,
		LastName:        m.LastName,
		Email:           m.Email,
		Phone:           m.Phone,
		Location:        m.Location,
		Major:           m.Major,
		Skills:          splitSkills(m.Skills),
		ExperienceYears: m.ExperienceYears,
		Seniority:       m.Seniority,
		Education:       m.Education,
		Score:           m.Score,
		ScoreScheme:     m.ScoreScheme,
		Status:          m.Status,
		Shortlisted:     m.Shortlisted,
		SourceChannel:   m.SourceChannel,
		SourceFilename:  m.SourceFilename,
		FileMD5:         m.FileMD5,
		TextMD5:         m.TextMD5,
		OriginalObject:  m.OriginalObject,
		TextObject:      m.TextObject,
		SubmittedAt:     m.SubmittedAt,
	}
	record, err := decodeRecord(m.RecordJSON)
	if err != nil {
		return nil, fmt.Errorf("候选人 %s 的抽取结果损坏: %w", m.ID, err)
	}
	c.Record = record
	return c, nil
}
