package cache

import (
	"context"
	"strings"
	"time"

	"github.com/agd-funnel/internal/funnel"
)

// RedisFunnelStore 基于 Redis 的漏斗会话存储
type RedisFunnelStore struct{}

// NewRedisFunnelStore 创建 Redis 漏斗会话存储
func NewRedisFunnelStore() *RedisFunnelStore {
	return &RedisFunnelStore{}
}

func funnelSessionKey(id string) string {
	return "funnel:session:" + strings.TrimSpace(id)
}

// Load 读取会话
func (s *RedisFunnelStore) Load(ctx context.Context, id string) (*funnel.Session, bool, error) {
	var session funnel.Session
	hit, err := GetJSON(ctx, funnelSessionKey(id), &session)
	if err != nil || !hit {
		return nil, false, err
	}
	return &session, true, nil
}

// Save 写入会话并刷新有效期
func (s *RedisFunnelStore) Save(ctx context.Context, session *funnel.Session, ttl time.Duration) error {
	if session == nil {
		return nil
	}
	return SetJSON(ctx, funnelSessionKey(session.ID), session, ttl)
}
