package service

import (
	"strings"
	"time"

	"github.com/agd-funnel/internal/constants"
	"github.com/agd-funnel/internal/models"
	"github.com/agd-funnel/internal/repository"

	"gorm.io/gorm"
)

const (
	attributionSourceFast  = "fast"
	attributionSourceStore = "store"
)

// FastAttribution 短期存储（Cookie）中的归因快照
type FastAttribution struct {
	Code            string    `json:"code"`
	SourceChannel   string    `json:"source_channel"`
	DestinationPage string    `json:"destination_page"`
	CapturedAt      time.Time `json:"captured_at"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// Active 快照在给定时间是否有效
func (f *FastAttribution) Active(now time.Time) bool {
	return f != nil && strings.TrimSpace(f.Code) != "" && now.Before(f.ExpiresAt)
}

// AttributionSession 访客归因上下文，由调用方显式传入
type AttributionSession struct {
	VisitorKey string
	Fast       *FastAttribution
}

// ResolvedAttribution 当前有效的归因
type ResolvedAttribution struct {
	AffiliateProfileID uint      `json:"affiliate_profile_id"`
	Code               string    `json:"code"`
	SourceChannel      string    `json:"source_channel"`
	DestinationPage    string    `json:"destination_page"`
	CapturedAt         time.Time `json:"captured_at"`
	ExpiresAt          time.Time `json:"expires_at"`
	Source             string    `json:"source"`
}

// AffiliateClickInput 推广点击记录输入
type AffiliateClickInput struct {
	AffiliateCode string
	VisitorKey    string
	Destination   string
	Source        string
	Referrer      string
	ClientIP      string
	UserAgent     string
}

// AttributionService 推广归因服务
type AttributionService struct {
	repo           repository.AffiliateRepository
	settingService *SettingService
	defaultSetting CommissionSetting
	now            func() time.Time
}

// NewAttributionService 创建归因服务
func NewAttributionService(repo repository.AffiliateRepository, settingService *SettingService, defaults CommissionSetting) *AttributionService {
	return &AttributionService{
		repo:           repo,
		settingService: settingService,
		defaultSetting: NormalizeCommissionSetting(defaults),
		now:            time.Now,
	}
}

func (s *AttributionService) setting() CommissionSetting {
	setting, err := s.settingService.GetCommissionSetting(s.defaultSetting)
	if err != nil {
		return s.defaultSetting
	}
	return setting
}

// TTL 当前归因有效期
func (s *AttributionService) TTL() time.Duration {
	return time.Duration(s.setting().AttributionTTLHours) * time.Hour
}

// Capture 捕获推广归因，有效期内首次归因优先，不会被新的推广码覆盖
func (s *AttributionService) Capture(session *AttributionSession, code, sourceChannel, destinationPage string) (*ResolvedAttribution, error) {
	if session == nil || strings.TrimSpace(session.VisitorKey) == "" {
		return nil, ErrAttributionVisitorEmpty
	}
	normalized := repository.NormalizeAffiliateCode(code)
	if normalized == "" {
		return nil, ErrAffiliateCodeRequired
	}

	current, err := s.Resolve(session)
	if err != nil {
		return nil, err
	}
	if current != nil {
		return current, nil
	}

	profile, err := s.repo.GetProfileByCode(normalized)
	if err != nil {
		return nil, upstream("load affiliate profile", err)
	}
	if profile == nil {
		return nil, ErrAffiliateNotFound
	}
	if profile.Status != constants.AffiliateStatusActive {
		return nil, ErrAffiliateInactive
	}

	now := s.now()
	channel := strings.TrimSpace(sourceChannel)
	if channel == "" {
		channel = constants.SourceChannelDirect
	}
	record := &models.AffiliateAttribution{
		VisitorKey:         strings.TrimSpace(session.VisitorKey),
		AffiliateProfileID: profile.ID,
		AffiliateCode:      profile.AffiliateCode,
		SourceChannel:      channel,
		DestinationPage:    strings.TrimSpace(destinationPage),
		CapturedAt:         now,
		ExpiresAt:          now.Add(s.TTL()),
	}
	saved, err := s.repo.SaveAttribution(record)
	if err != nil {
		return nil, upstream("save attribution", err)
	}
	if saved == nil {
		return nil, upstream("save attribution", gorm.ErrRecordNotFound)
	}
	resolved := resolvedFromRecord(saved, attributionSourceStore)
	session.Fast = fastFromResolved(resolved)
	return resolved, nil
}

// Resolve 获取当前有效归因
// 短期存储有效时优先，否则回退到长期存储；长期记录过期时顺带清理
func (s *AttributionService) Resolve(session *AttributionSession) (*ResolvedAttribution, error) {
	if session == nil {
		return nil, nil
	}
	now := s.now()
	if expiresAt, ok := s.fastExpiry(session.Fast, now); ok {
		fast := session.Fast
		resolved := &ResolvedAttribution{
			Code:            repository.NormalizeAffiliateCode(fast.Code),
			SourceChannel:   fast.SourceChannel,
			DestinationPage: fast.DestinationPage,
			CapturedAt:      fast.CapturedAt,
			ExpiresAt:       expiresAt,
			Source:          attributionSourceFast,
		}
		return resolved, nil
	}
	session.Fast = nil

	visitorKey := strings.TrimSpace(session.VisitorKey)
	if visitorKey == "" {
		return nil, nil
	}
	record, err := s.repo.GetAttributionByVisitor(visitorKey)
	if err != nil {
		return nil, upstream("load attribution", err)
	}
	if record == nil {
		return nil, nil
	}
	if !record.ActiveAt(now) {
		if err := s.repo.DeleteAttribution(record.ID); err != nil {
			return nil, upstream("clear stale attribution", err)
		}
		return nil, nil
	}
	resolved := resolvedFromRecord(record, attributionSourceStore)
	session.Fast = fastFromResolved(resolved)
	return resolved, nil
}

// fastExpiry 短期快照的有效截止时间，以捕获时间加当前 TTL 为上限
func (s *AttributionService) fastExpiry(fast *FastAttribution, now time.Time) (time.Time, bool) {
	if !fast.Active(now) || fast.CapturedAt.IsZero() || fast.CapturedAt.After(now) {
		return time.Time{}, false
	}
	expiresAt := fast.CapturedAt.Add(s.TTL())
	if fast.ExpiresAt.Before(expiresAt) {
		expiresAt = fast.ExpiresAt
	}
	return expiresAt, now.Before(expiresAt)
}

// RecordClick 记录推广点击并累加点击计数，去重窗口内同访客同目标只记一次
func (s *AttributionService) RecordClick(input AffiliateClickInput) (bool, error) {
	code := repository.NormalizeAffiliateCode(input.AffiliateCode)
	if code == "" {
		return false, ErrAffiliateCodeRequired
	}
	profile, err := s.repo.GetProfileByCode(code)
	if err != nil {
		return false, upstream("load affiliate profile", err)
	}
	if profile == nil || profile.Status != constants.AffiliateStatusActive {
		return false, ErrAffiliateNotFound
	}

	now := s.now()
	visitorKey := strings.TrimSpace(input.VisitorKey)
	destination := strings.TrimSpace(input.Destination)
	dedupe := time.Duration(s.setting().ClickDedupeMinutes) * time.Minute
	if visitorKey != "" && dedupe > 0 {
		duplicated, err := s.repo.HasRecentClick(profile.ID, visitorKey, destination, now.Add(-dedupe))
		if err != nil {
			return false, upstream("check recent click", err)
		}
		if duplicated {
			return false, nil
		}
	}

	click := &models.AffiliateClick{
		AffiliateProfileID: profile.ID,
		AffiliateCode:      profile.AffiliateCode,
		VisitorKey:         visitorKey,
		Destination:        destination,
		Source:             strings.TrimSpace(input.Source),
		Referrer:           strings.TrimSpace(input.Referrer),
		ClientIP:           strings.TrimSpace(input.ClientIP),
		UserAgent:          strings.TrimSpace(input.UserAgent),
		CreatedAt:          now,
	}
	err = s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateClick(click); err != nil {
			return err
		}
		return repo.IncrementClickCount(profile.ID)
	})
	if err != nil {
		return false, upstream("record click", err)
	}
	return true, nil
}

// PurgeExpired 清理过期的长期归因记录
func (s *AttributionService) PurgeExpired() (int64, error) {
	removed, err := s.repo.PurgeExpiredAttributions(s.now())
	if err != nil {
		return 0, upstream("purge attributions", err)
	}
	return removed, nil
}

func resolvedFromRecord(record *models.AffiliateAttribution, source string) *ResolvedAttribution {
	return &ResolvedAttribution{
		AffiliateProfileID: record.AffiliateProfileID,
		Code:               record.AffiliateCode,
		SourceChannel:      record.SourceChannel,
		DestinationPage:    record.DestinationPage,
		CapturedAt:         record.CapturedAt,
		ExpiresAt:          record.ExpiresAt,
		Source:             source,
	}
}

func fastFromResolved(resolved *ResolvedAttribution) *FastAttribution {
	return &FastAttribution{
		Code:            resolved.Code,
		SourceChannel:   resolved.SourceChannel,
		DestinationPage: resolved.DestinationPage,
		CapturedAt:      resolved.CapturedAt,
		ExpiresAt:       resolved.ExpiresAt,
	}
}
