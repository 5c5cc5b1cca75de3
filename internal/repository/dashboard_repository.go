package repository

import (
	"fmt"
	"time"

	"github.com/agd-funnel/internal/constants"
	"github.com/agd-funnel/internal/models"

	"gorm.io/gorm"
)

// DashboardRepository 运营仪表盘聚合查询接口
// 说明：仅聚合统计数据，不承载业务规则。
type DashboardRepository interface {
	GetOverview(startAt, endAt time.Time) (DashboardOverviewRow, error)
	GetFunnelTrends(startAt, endAt time.Time) ([]DashboardFunnelTrendRow, error)
	GetTopAffiliates(startAt, endAt time.Time, limit int) ([]DashboardAffiliateRankingRow, error)
}

// DashboardOverviewRow 仪表盘总览原始统计结果
type DashboardOverviewRow struct {
	LeadsTotal           int64
	LeadsOptOut          int64
	InvestmentsPending   int64
	InvestmentsConfirmed int64
	InvestmentsCancelled int64
	ConfirmedAmount      float64
	CommissionPending    float64
	CommissionPaid       float64
	NewIdentities        int64
	ActiveAffiliates     int64
	Clicks               int64
}

// DashboardFunnelTrendRow 漏斗趋势（按天）
type DashboardFunnelTrendRow struct {
	Day                  string
	Leads                int64
	InvestmentsConfirmed int64
	ConfirmedAmount      float64
}

// DashboardAffiliateRankingRow 推广用户排行
type DashboardAffiliateRankingRow struct {
	AffiliateProfileID uint
	AffiliateCode      string
	Sales              int64
	SalesAmount        float64
}

// GormDashboardRepository GORM 仪表盘聚合实现
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository 创建仪表盘仓库
func NewDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

// GetOverview 获取总览统计
func (r *GormDashboardRepository) GetOverview(startAt, endAt time.Time) (DashboardOverviewRow, error) {
	result := DashboardOverviewRow{}

	leadBase := func() *gorm.DB {
		return r.db.Model(&models.Lead{}).Where("submitted_at >= ? AND submitted_at < ?", startAt, endAt)
	}
	if err := leadBase().Count(&result.LeadsTotal).Error; err != nil {
		return result, err
	}
	if err := leadBase().Where("branch = ?", constants.FunnelBranchOptOut).Count(&result.LeadsOptOut).Error; err != nil {
		return result, err
	}

	investmentBase := func() *gorm.DB {
		return r.db.Model(&models.Investment{}).Where("created_at >= ? AND created_at < ?", startAt, endAt)
	}
	counters := []struct {
		status string
		target *int64
	}{
		{constants.InvestmentStatusPending, &result.InvestmentsPending},
		{constants.InvestmentStatusConfirmed, &result.InvestmentsConfirmed},
		{constants.InvestmentStatusCancelled, &result.InvestmentsCancelled},
	}
	for _, counter := range counters {
		if err := investmentBase().Where("status = ?", counter.status).Count(counter.target).Error; err != nil {
			return result, err
		}
	}
	if err := r.db.Model(&models.Investment{}).
		Where("status = ? AND confirmed_at >= ? AND confirmed_at < ?", constants.InvestmentStatusConfirmed, startAt, endAt).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&result.ConfirmedAmount).Error; err != nil {
		return result, err
	}

	commissionSum := func(status string, target *float64) error {
		return r.db.Model(&models.Commission{}).
			Where("status = ? AND generated_at >= ? AND generated_at < ?", status, startAt, endAt).
			Select("COALESCE(SUM(amount), 0)").
			Scan(target).Error
	}
	if err := commissionSum(constants.CommissionStatusPending, &result.CommissionPending); err != nil {
		return result, err
	}
	if err := commissionSum(constants.CommissionStatusPaid, &result.CommissionPaid); err != nil {
		return result, err
	}

	if err := r.db.Model(&models.Identity{}).
		Where("created_at >= ? AND created_at < ?", startAt, endAt).
		Count(&result.NewIdentities).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.AffiliateProfile{}).
		Where("status = ?", constants.AffiliateStatusActive).
		Count(&result.ActiveAffiliates).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.AffiliateClick{}).
		Where("created_at >= ? AND created_at < ?", startAt, endAt).
		Count(&result.Clicks).Error; err != nil {
		return result, err
	}
	return result, nil
}

// GetFunnelTrends 获取线索与成交趋势
func (r *GormDashboardRepository) GetFunnelTrends(startAt, endAt time.Time) ([]DashboardFunnelTrendRow, error) {
	dialect := dbDialectName(r.db)

	type leadRow struct {
		Day   string
		Total int64
	}
	leadDay := dayBucketExprByDialect(dialect, "submitted_at")
	var leads []leadRow
	if err := r.db.Model(&models.Lead{}).
		Select(fmt.Sprintf("%s AS day, COUNT(*) AS total", leadDay)).
		Where("submitted_at >= ? AND submitted_at < ?", startAt, endAt).
		Group(leadDay).
		Order("day asc").
		Scan(&leads).Error; err != nil {
		return nil, err
	}

	type saleRow struct {
		Day    string
		Total  int64
		Amount float64
	}
	saleDay := dayBucketExprByDialect(dialect, "confirmed_at")
	var sales []saleRow
	if err := r.db.Model(&models.Investment{}).
		Select(fmt.Sprintf("%s AS day, COUNT(*) AS total, COALESCE(SUM(amount), 0) AS amount", saleDay)).
		Where("status = ? AND confirmed_at >= ? AND confirmed_at < ?", constants.InvestmentStatusConfirmed, startAt, endAt).
		Group(saleDay).
		Order("day asc").
		Scan(&sales).Error; err != nil {
		return nil, err
	}

	byDay := make(map[string]*DashboardFunnelTrendRow)
	days := make([]string, 0, len(leads)+len(sales))
	rowFor := func(day string) *DashboardFunnelTrendRow {
		if row, ok := byDay[day]; ok {
			return row
		}
		row := &DashboardFunnelTrendRow{Day: day}
		byDay[day] = row
		days = append(days, day)
		return row
	}
	for _, item := range leads {
		rowFor(item.Day).Leads = item.Total
	}
	for _, item := range sales {
		row := rowFor(item.Day)
		row.InvestmentsConfirmed = item.Total
		row.ConfirmedAmount = item.Amount
	}

	result := make([]DashboardFunnelTrendRow, 0, len(days))
	for day := startAt; day.Before(endAt); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		if row, ok := byDay[key]; ok {
			result = append(result, *row)
		} else {
			result = append(result, DashboardFunnelTrendRow{Day: key})
		}
	}
	return result, nil
}

// GetTopAffiliates 获取成交金额排行
func (r *GormDashboardRepository) GetTopAffiliates(startAt, endAt time.Time, limit int) ([]DashboardAffiliateRankingRow, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []DashboardAffiliateRankingRow
	err := r.db.Model(&models.Investment{}).
		Select("investments.affiliate_profile_id AS affiliate_profile_id, affiliate_profiles.affiliate_code AS affiliate_code, COUNT(*) AS sales, COALESCE(SUM(investments.amount), 0) AS sales_amount").
		Joins("JOIN affiliate_profiles ON affiliate_profiles.id = investments.affiliate_profile_id").
		Where("investments.status = ? AND investments.confirmed_at >= ? AND investments.confirmed_at < ?",
			constants.InvestmentStatusConfirmed, startAt, endAt).
		Group("investments.affiliate_profile_id, affiliate_profiles.affiliate_code").
		Order("sales_amount desc").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
