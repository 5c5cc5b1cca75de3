package app

import (
	"errors"

	"github.com/agd-funnel/internal/config"
	"github.com/agd-funnel/internal/logger"
	"github.com/agd-funnel/internal/provider"
	"github.com/agd-funnel/internal/router"
	"github.com/agd-funnel/internal/worker"
)

// BuildRunner 按启动模式组装 API 与 Worker 服务
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	parsed, err := ParseMode(mode)
	if err != nil {
		return nil, err
	}
	modes := runMode(parsed)

	container := provider.NewContainer(cfg)
	var services []Service

	if modes.http() {
		services = append(services, NewHTTPService(cfg.Server, router.SetupRouter(cfg, container)))
	}

	if modes.worker() {
		workerService, err := worker.NewService(cfg, worker.NewConsumer(container))
		switch {
		case err == nil:
			services = append(services, workerService)
		case parsed == ModeWorker:
			// 纯 worker 模式下队列不可用无法继续
			container.Close()
			return nil, err
		default:
			logger.Warnw("app_worker_disabled", "error", err)
		}
	}

	if len(services) == 0 {
		container.Close()
		return nil, errors.New("no services initialized (check mode and config)")
	}
	return NewRunner(services...).OnClose(container.Close), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	opts.Logger.Infow("app_start",
		"addr", opts.Config.Server.Addr(),
		"mode", opts.Mode,
		"services", runner.Names(),
	)
	return RunWithOptions(runner, opts)
}
