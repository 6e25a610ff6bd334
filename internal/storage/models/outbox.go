package models

import (
	"time"

	"gorm.io/datatypes"
)

// Outbox消息状态
const (
	OutboxPending = "PENDING"
	OutboxSent    = "SENT"
	OutboxFailed  = "FAILED"
)

// OutboxMessage 与业务数据同一事务写入，由relay异步投递到RabbitMQ
type OutboxMessage struct {
	ID               uint64         `gorm:"primaryKey;autoIncrement"`
	AggregateID      string         `gorm:"type:varchar(36);not null;index"`
	EventType        string         `gorm:"type:varchar(100);not null"`
	Payload          datatypes.JSON `gorm:"not null"`
	TargetExchange   string         `gorm:"type:varchar(255);not null"`
	TargetRoutingKey string         `gorm:"type:varchar(255);not null"`
	Status           string         `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_outbox_status_created_at,priority:1"`
	RetryCount       int            `gorm:"not null;default:0"`
	CreatedAt        time.Time      `gorm:"index:idx_outbox_status_created_at,priority:2"`
	ProcessedAt      *time.Time
	ErrorMessage     string `gorm:"type:text"`
}

func (OutboxMessage) TableName() string {
	return "outbox_messages"
}
