package cache

import (
	"context"
	"strings"
	"time"
)

const captchaOpTimeout = 2 * time.Second

// CaptchaStore 图片验证码答案存储，多实例部署时共享
// 方法签名与 base64Captcha.Store 一致
type CaptchaStore struct {
	ttl time.Duration
}

// NewCaptchaStore 创建 Redis 验证码存储，ttl 为答案有效期
func NewCaptchaStore(ttl time.Duration) *CaptchaStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CaptchaStore{ttl: ttl}
}

func captchaKey(id string) string {
	return "captcha:" + strings.TrimSpace(id)
}

// Set 保存答案
func (s *CaptchaStore) Set(id string, value string) error {
	if !Enabled() {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), captchaOpTimeout)
	defer cancel()
	return redisClient.Set(ctx, BuildKey(captchaKey(id)), value, s.ttl).Err()
}

// Get 读取答案，clear 为真时读后删除
func (s *CaptchaStore) Get(id string, clear bool) string {
	if !Enabled() || strings.TrimSpace(id) == "" {
		return ""
	}
	ctx, cancel := context.WithTimeout(context.Background(), captchaOpTimeout)
	defer cancel()
	key := BuildKey(captchaKey(id))
	var (
		value string
		err   error
	)
	if clear {
		value, err = redisClient.GetDel(ctx, key).Result()
	} else {
		value, err = redisClient.Get(ctx, key).Result()
	}
	if err != nil {
		return ""
	}
	return value
}

// Verify 比对答案（忽略大小写与首尾空白）
func (s *CaptchaStore) Verify(id, answer string, clear bool) bool {
	stored := s.Get(id, clear)
	if stored == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(stored), strings.TrimSpace(answer))
}
