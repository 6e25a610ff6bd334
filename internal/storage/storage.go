package storage

import (
	"context"
	"fmt"
	"strings"

	"resume-analyzer-go/internal/config"
	"resume-analyzer-go/internal/logger"
)

// Storage 存储管理器，聚合所有存储相关依赖
// 未配置的组件保持为nil
type Storage struct {
	MinIO    *MinIO
	RabbitMQ *RabbitMQ
	Database *Database
	Redis    *Redis
}

// NewStorage 按配置初始化存储组件，数据库必须可用，其余组件失败时只记录警告
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}
	log := logger.Component("storage")
	s := &Storage{}
	var warnings []string
	var err error

	if cfg.MinIO.Endpoint != "" {
		if s.MinIO, err = NewMinIO(ctx, &cfg.MinIO); err != nil {
			warnings = append(warnings, fmt.Sprintf("MinIO: %v", err))
		}
	}

	if cfg.RabbitMQ.URL != "" {
		if s.RabbitMQ, err = NewRabbitMQ(&cfg.RabbitMQ); err != nil {
			warnings = append(warnings, fmt.Sprintf("RabbitMQ: %v", err))
		}
	}

	if cfg.Redis.Address != "" {
		if s.Redis, err = NewRedis(&cfg.Redis); err != nil {
			warnings = append(warnings, fmt.Sprintf("Redis: %v", err))
		}
	}

	var opts []DatabaseOption
	if s.RabbitMQ != nil {
		opts = append(opts, WithOutbox(cfg.RabbitMQ.ResumeEventsExchange, cfg.RabbitMQ.ParsedRoutingKey))
	}
	if s.Database, err = NewDatabase(&cfg.MySQL, opts...); err != nil {
		s.Close()
		return nil, fmt.Errorf("初始化数据库失败: %w", err)
	}

	if len(warnings) > 0 {
		log.Warn().Str("failed", strings.Join(warnings, "; ")).Msg("部分存储组件初始化失败，相关功能不可用")
	}
	return s, nil
}

// Close 关闭所有连接
func (s *Storage) Close() {
	log := logger.Component("storage")
	if s.RabbitMQ != nil {
		if err := s.RabbitMQ.Close(); err != nil {
			log.Error().Err(err).Msg("关闭RabbitMQ连接失败")
		}
	}
	if s.Database != nil {
		if err := s.Database.Close(); err != nil {
			log.Error().Err(err).Msg("关闭数据库连接失败")
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Error().Err(err).Msg("关闭Redis连接失败")
		}
	}
}
