package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/agd-funnel/internal/config"
)

// HTTPService 对外 API 服务（漏斗、推广跳转、后台）
type HTTPService struct {
	server *http.Server
}

// NewHTTPService 按服务配置创建 HTTP 服务
func NewHTTPService(cfg config.ServerConfig, handler http.Handler) *HTTPService {
	return &HTTPService{
		server: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           handler,
			ReadHeaderTimeout: secondsOr(cfg.ReadHeaderTimeoutSeconds, 10*time.Second),
			WriteTimeout:      secondsOr(cfg.WriteTimeoutSeconds, 30*time.Second),
			IdleTimeout:       secondsOr(cfg.IdleTimeoutSeconds, 120*time.Second),
		},
	}
}

func secondsOr(seconds int, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// Addr 监听地址
func (s *HTTPService) Addr() string {
	if s == nil || s.server == nil {
		return ""
	}
	return s.server.Addr
}

// Name 服务名称
func (s *HTTPService) Name() string {
	return "http"
}

// Start 阻塞监听，直到 Stop 触发关闭
func (s *HTTPService) Start(context.Context) error {
	if s == nil || s.server == nil {
		return errors.New("http server not initialized")
	}
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop 优雅关闭，等待进行中的请求
func (s *HTTPService) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
