package service

import (
	"fmt"
	"math"

	"github.com/agd-funnel/internal/catalog"
	"github.com/agd-funnel/internal/config"
	"github.com/agd-funnel/internal/constants"
	"github.com/agd-funnel/internal/models"

	"github.com/shopspring/decimal"
)

const (
	commissionPenaltyMax       = 99
	attributionTTLHoursMin     = 1
	attributionTTLHoursMax     = 24 * 30
	clickDedupeMinutesMax      = 24 * 60
	commissionSettingPrecision = 100
)

// CommissionSetting 运行时佣金与归因配置
type CommissionSetting struct {
	LeaderRatePercent   float64 `json:"leader_rate_percent"`
	EarlyPenaltyPercent float64 `json:"early_penalty_percent"`
	AttributionTTLHours int     `json:"attribution_ttl_hours"`
	ClickDedupeMinutes  int     `json:"click_dedupe_minutes"`
}

// CommissionDefaultSetting 以启动配置作为默认值
func CommissionDefaultSetting(commission config.CommissionConfig, attribution config.AttributionConfig) CommissionSetting {
	return NormalizeCommissionSetting(CommissionSetting{
		LeaderRatePercent:   commission.LeaderRatePercent,
		EarlyPenaltyPercent: commission.EarlyPenaltyPercent,
		AttributionTTLHours: attribution.TTLHours,
		ClickDedupeMinutes:  attribution.ClickDedupeMinutes,
	})
}

// NormalizeCommissionSetting 归一化佣金配置
func NormalizeCommissionSetting(setting CommissionSetting) CommissionSetting {
	setting.LeaderRatePercent = roundSettingPercent(setting.LeaderRatePercent)
	if setting.LeaderRatePercent < 0 {
		setting.LeaderRatePercent = 0
	}
	setting.EarlyPenaltyPercent = roundSettingPercent(setting.EarlyPenaltyPercent)
	if setting.EarlyPenaltyPercent < 0 {
		setting.EarlyPenaltyPercent = 0
	}
	if setting.EarlyPenaltyPercent > commissionPenaltyMax {
		setting.EarlyPenaltyPercent = commissionPenaltyMax
	}
	if setting.AttributionTTLHours < attributionTTLHoursMin {
		setting.AttributionTTLHours = 48
	}
	if setting.AttributionTTLHours > attributionTTLHoursMax {
		setting.AttributionTTLHours = attributionTTLHoursMax
	}
	if setting.ClickDedupeMinutes < 0 {
		setting.ClickDedupeMinutes = 0
	}
	if setting.ClickDedupeMinutes > clickDedupeMinutesMax {
		setting.ClickDedupeMinutes = clickDedupeMinutesMax
	}
	return setting
}

// ValidateCommissionSetting 校验佣金配置，上级比例必须低于任何套餐的直推比例
func ValidateCommissionSetting(setting CommissionSetting) error {
	normalized := NormalizeCommissionSetting(setting)
	ceiling := lowestAffiliateBonusPercent()
	if decimal.NewFromFloat(normalized.LeaderRatePercent).GreaterThanOrEqual(ceiling) {
		return fmt.Errorf("%w: leader rate must be below %s%%", ErrSettingInvalid, ceiling.String())
	}
	return nil
}

// CommissionSettingToMap 转换为 settings 存储结构
func CommissionSettingToMap(setting CommissionSetting) map[string]interface{} {
	normalized := NormalizeCommissionSetting(setting)
	return map[string]interface{}{
		"leader_rate_percent":   normalized.LeaderRatePercent,
		"early_penalty_percent": normalized.EarlyPenaltyPercent,
		"attribution_ttl_hours": normalized.AttributionTTLHours,
		"click_dedupe_minutes":  normalized.ClickDedupeMinutes,
	}
}

// LeaderRate 上级佣金比例
func (s CommissionSetting) LeaderRate() decimal.Decimal {
	return decimal.NewFromFloat(s.LeaderRatePercent).Round(2)
}

// EarlyPenalty 提前提现罚金比例
func (s CommissionSetting) EarlyPenalty() decimal.Decimal {
	return decimal.NewFromFloat(s.EarlyPenaltyPercent).Round(2)
}

func commissionSettingFromJSON(raw models.JSON, fallback CommissionSetting) CommissionSetting {
	result := fallback
	if value, ok := raw["leader_rate_percent"]; ok {
		if parsed, err := parseSettingFloat(value); err == nil {
			result.LeaderRatePercent = parsed
		}
	}
	if value, ok := raw["early_penalty_percent"]; ok {
		if parsed, err := parseSettingFloat(value); err == nil {
			result.EarlyPenaltyPercent = parsed
		}
	}
	if value, ok := raw["attribution_ttl_hours"]; ok {
		if parsed, err := parseSettingInt(value); err == nil {
			result.AttributionTTLHours = parsed
		}
	}
	if value, ok := raw["click_dedupe_minutes"]; ok {
		if parsed, err := parseSettingInt(value); err == nil {
			result.ClickDedupeMinutes = parsed
		}
	}
	return NormalizeCommissionSetting(result)
}

// GetCommissionSetting 获取佣金配置（优先 settings，空时回退默认）
func (s *SettingService) GetCommissionSetting(fallback CommissionSetting) (CommissionSetting, error) {
	if s == nil {
		return fallback, nil
	}
	value, err := s.GetByKey(constants.SettingKeyCommissionConfig)
	if err != nil {
		return fallback, err
	}
	if value == nil {
		return fallback, nil
	}
	return commissionSettingFromJSON(value, fallback), nil
}

// UpdateCommissionSetting 更新佣金配置
func (s *SettingService) UpdateCommissionSetting(setting CommissionSetting) (CommissionSetting, error) {
	normalized := NormalizeCommissionSetting(setting)
	if err := ValidateCommissionSetting(normalized); err != nil {
		return CommissionSetting{}, err
	}
	if _, err := s.Update(constants.SettingKeyCommissionConfig, CommissionSettingToMap(normalized)); err != nil {
		return CommissionSetting{}, err
	}
	return normalized, nil
}

func lowestAffiliateBonusPercent() decimal.Decimal {
	plans := catalog.Plans()
	lowest := plans[0].AffiliateBonusPercent
	for _, plan := range plans[1:] {
		if plan.AffiliateBonusPercent.LessThan(lowest) {
			lowest = plan.AffiliateBonusPercent
		}
	}
	return lowest
}

func roundSettingPercent(value float64) float64 {
	return math.Round(value*commissionSettingPrecision) / commissionSettingPrecision
}
