package service

import (
	"errors"
	"testing"

	"github.com/agd-funnel/internal/config"
	"github.com/agd-funnel/internal/constants"
)

func TestCommissionSettingFallbackAndUpdate(t *testing.T) {
	svc := NewSettingService(newMockSettingRepo())
	defaults := CommissionDefaultSetting(config.CommissionConfig{LeaderRatePercent: 3, EarlyPenaltyPercent: 10}, config.AttributionConfig{TTLHours: 48, ClickDedupeMinutes: 10})

	got, err := svc.GetCommissionSetting(defaults)
	if err != nil || got != defaults {
		t.Fatalf("expected defaults, got %+v err=%v", got, err)
	}

	updated, err := svc.UpdateCommissionSetting(CommissionSetting{
		LeaderRatePercent:   4.456,
		EarlyPenaltyPercent: 150,
		AttributionTTLHours: 72,
		ClickDedupeMinutes:  5,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.LeaderRatePercent != 4.46 || updated.EarlyPenaltyPercent != 99 {
		t.Fatalf("unexpected normalized setting: %+v", updated)
	}
	reloaded, err := svc.GetCommissionSetting(defaults)
	if err != nil || reloaded.AttributionTTLHours != 72 || reloaded.ClickDedupeMinutes != 5 {
		t.Fatalf("expected stored setting, got %+v err=%v", reloaded, err)
	}
	if reloaded.LeaderRate().String() != "4.46" || reloaded.EarlyPenalty().String() != "99" {
		t.Fatalf("unexpected decimals: %s %s", reloaded.LeaderRate(), reloaded.EarlyPenalty())
	}
}

func TestCommissionSettingRejectsLeaderAboveDirect(t *testing.T) {
	svc := NewSettingService(newMockSettingRepo())
	_, err := svc.UpdateCommissionSetting(CommissionSetting{LeaderRatePercent: 10, AttributionTTLHours: 48})
	if !errors.Is(err, ErrSettingInvalid) || !errors.Is(err, ErrValidation) {
		t.Fatalf("expected invalid setting, got %v", err)
	}
	if _, err := svc.UpdateCommissionSetting(CommissionSetting{LeaderRatePercent: 9.99, AttributionTTLHours: 48}); err != nil {
		t.Fatalf("9.99 should be accepted: %v", err)
	}
}

func TestSettingUpdateNormalizesKnownKeys(t *testing.T) {
	repo := newMockSettingRepo()
	svc := NewSettingService(repo)

	value, err := svc.Update(constants.SettingKeyCommissionConfig, map[string]interface{}{
		"leader_rate_percent":   "2.5",
		"attribution_ttl_hours": 0,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if value["leader_rate_percent"] != 2.5 || value["attribution_ttl_hours"] != 48 {
		t.Fatalf("unexpected normalized value: %+v", value)
	}

	captcha, err := svc.Update(constants.SettingKeyCaptchaConfig, map[string]interface{}{"enabled": "true", "length": 99})
	if err != nil {
		t.Fatalf("update captcha failed: %v", err)
	}
	if captcha["enabled"] != true || captcha["length"] != 8 {
		t.Fatalf("unexpected captcha value: %+v", captcha)
	}

	raw, err := svc.Update("custom", map[string]interface{}{"k": "v"})
	if err != nil || raw["k"] != "v" {
		t.Fatalf("unknown key should be stored as-is: %+v err=%v", raw, err)
	}
}
