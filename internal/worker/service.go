package worker

import (
	"context"
	"errors"
	"time"

	"github.com/agd-funnel/internal/config"
	"github.com/agd-funnel/internal/logger"
	"github.com/agd-funnel/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	defaultMaintenanceInterval = 10 * time.Minute
	pixExpireBatchSize         = 100
)

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
	interval time.Duration
}

// NewService 创建异步队列服务
func NewService(cfg *config.Config, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Queue.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(&cfg.Queue)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)

	interval := time.Duration(cfg.Attribution.PurgeIntervalMinute) * time.Minute
	if interval <= 0 {
		interval = defaultMaintenanceInterval
	}
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
		interval: interval,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	go s.runMaintenanceLoop(ctx)
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runMaintenanceLoop 定期清理过期归因并取消超时 PIX 认购
func (s *Service) runMaintenanceLoop(ctx context.Context) {
	if s == nil || s.consumer == nil {
		return
	}
	RunMaintenance(s.consumer)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			RunMaintenance(s.consumer)
		}
	}
}

// RunMaintenance 执行一轮维护任务
func RunMaintenance(consumer *Consumer) {
	if consumer == nil || consumer.Container == nil {
		return
	}
	if consumer.AttributionService != nil {
		removed, err := consumer.AttributionService.PurgeExpired()
		if err != nil {
			logger.Warnw("worker_attribution_purge_failed", "error", err)
		} else if removed > 0 {
			logger.Infow("worker_attribution_purged", "removed", removed)
		}
	}
	if consumer.InvestmentService != nil {
		expired, err := consumer.InvestmentService.ExpireOverdue(pixExpireBatchSize)
		if err != nil {
			logger.Warnw("worker_pix_expire_overdue_failed", "error", err)
		} else if expired > 0 {
			logger.Infow("worker_pix_expired", "count", expired)
		}
	}
}
