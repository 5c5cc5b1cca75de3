package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/agd-funnel/internal/config"
	"github.com/agd-funnel/internal/logger"

	"go.uber.org/zap"
)

// 启动模式
const (
	ModeAll    = "all"    // API 与异步任务同进程
	ModeAPI    = "api"    // 仅对外 API
	ModeWorker = "worker" // 仅异步任务与定时清理
)

// Options 应用启动选项
type Options struct {
	Config          *config.Config
	Logger          *zap.SugaredLogger
	Signals         []os.Signal
	ShutdownTimeout time.Duration
	Mode            string
}

// ParseMode 校验启动模式，空值视为 all
func ParseMode(raw string) (string, error) {
	mode := strings.ToLower(strings.TrimSpace(raw))
	switch mode {
	case "":
		return ModeAll, nil
	case ModeAll, ModeAPI, ModeWorker:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown run mode %q", raw)
	}
}

type runMode string

func (m runMode) http() bool   { return m == ModeAll || m == ModeAPI }
func (m runMode) worker() bool { return m == ModeAll || m == ModeWorker }

// normalizeOptions 补齐默认参数
func normalizeOptions(opts Options) Options {
	if opts.Logger == nil {
		opts.Logger = logger.S()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	if mode, err := ParseMode(opts.Mode); err == nil {
		opts.Mode = mode
	}
	return opts
}
