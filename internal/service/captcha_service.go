package service

import (
	"strings"
	"sync"
	"time"

	"github.com/agd-funnel/internal/cache"
	"github.com/agd-funnel/internal/config"

	"github.com/mojocn/base64Captcha"
)

const (
	captchaSettingRefresh = 30 * time.Second
	captchaDigitMaxSkew   = 0.7
)

// CaptchaVerifyPayload 验证码校验请求载荷
type CaptchaVerifyPayload struct {
	CaptchaID   string `json:"captcha_id"`
	CaptchaCode string `json:"captcha_code"`
}

// CaptchaImageChallenge 图片验证码挑战
type CaptchaImageChallenge struct {
	CaptchaID   string `json:"captcha_id"`
	ImageBase64 string `json:"image_base64"`
}

// captchaStoreKey 答案存储的构建参数，变化时重建存储
type captchaStoreKey struct {
	shared        bool
	maxStore      int
	expireSeconds int
}

// CaptchaService 买家注册、买家登录与后台登录的数字图片验证码
type CaptchaService struct {
	settings *SettingService
	defaults config.CaptchaConfig
	now      func() time.Time

	mu       sync.Mutex
	setting  CaptchaSetting
	loadedAt time.Time
	store    base64Captcha.Store
	storeKey captchaStoreKey
}

// NewCaptchaService 创建验证码服务
func NewCaptchaService(settings *SettingService, defaults config.CaptchaConfig) *CaptchaService {
	return &CaptchaService{
		settings: settings,
		defaults: defaults,
		now:      time.Now,
	}
}

// InvalidateCache 后台修改配置后立即生效
func (s *CaptchaService) InvalidateCache() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.loadedAt = time.Time{}
	s.mu.Unlock()
}

// Enabled 场景是否启用验证码，配置读取失败时视为关闭
func (s *CaptchaService) Enabled(scene string) bool {
	setting, err := s.currentSetting()
	return err == nil && setting.IsSceneEnabled(scene)
}

// GenerateImageChallenge 生成数字图片验证码，答案写入共享或本地存储
func (s *CaptchaService) GenerateImageChallenge() (*CaptchaImageChallenge, error) {
	setting, err := s.currentSetting()
	if err != nil {
		return nil, err
	}
	if !setting.Enabled {
		return nil, ErrCaptchaConfigInvalid
	}
	driver := base64Captcha.NewDriverDigit(setting.Height, setting.Width, setting.Length, captchaDigitMaxSkew, setting.NoiseCount)
	id, image, _, err := base64Captcha.NewCaptcha(driver, s.answerStore(setting)).Generate()
	if err != nil {
		return nil, err
	}
	return &CaptchaImageChallenge{CaptchaID: id, ImageBase64: image}, nil
}

// Verify 按场景校验并作废答案，场景未开启时直接通过
func (s *CaptchaService) Verify(scene string, payload CaptchaVerifyPayload) error {
	setting, err := s.currentSetting()
	if err != nil {
		return err
	}
	if !setting.IsSceneEnabled(scene) {
		return nil
	}
	id := strings.TrimSpace(payload.CaptchaID)
	code := strings.TrimSpace(payload.CaptchaCode)
	if id == "" || code == "" {
		return ErrCaptchaRequired
	}
	if !s.answerStore(setting).Verify(id, code, true) {
		return ErrCaptchaInvalid
	}
	return nil
}

func (s *CaptchaService) answerStore(setting CaptchaSetting) base64Captcha.Store {
	key := captchaStoreKey{
		shared:        cache.Enabled(),
		maxStore:      setting.MaxStore,
		expireSeconds: setting.ExpireSeconds,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store != nil && s.storeKey == key {
		return s.store
	}
	ttl := time.Duration(key.expireSeconds) * time.Second
	if key.shared {
		s.store = cache.NewCaptchaStore(ttl)
	} else {
		s.store = base64Captcha.NewMemoryStore(key.maxStore, ttl)
	}
	s.storeKey = key
	return s.store
}

// currentSetting 配置在本地缓存一段时间；刷新失败时沿用上一次成功读取的配置
func (s *CaptchaService) currentSetting() (CaptchaSetting, error) {
	if s == nil {
		return CaptchaDefaultSetting(config.CaptchaConfig{}), nil
	}
	now := s.now()
	s.mu.Lock()
	cached, loadedAt := s.setting, s.loadedAt
	s.mu.Unlock()
	if !loadedAt.IsZero() && now.Sub(loadedAt) < captchaSettingRefresh {
		return cached, nil
	}

	setting, err := s.settings.GetCaptchaSetting(s.defaults)
	if err != nil {
		if !loadedAt.IsZero() {
			return cached, nil
		}
		return CaptchaSetting{}, upstream("load captcha setting", err)
	}
	s.mu.Lock()
	s.setting = setting
	s.loadedAt = now
	s.mu.Unlock()
	return setting, nil
}
