package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/agd-funnel/internal/cache"
	"github.com/agd-funnel/internal/repository"
)

const (
	dashboardCacheTTL      = 45 * time.Second
	dashboardCustomMaxDays = 90
	dashboardTopAffiliates = 10
)

// DashboardService 运营仪表盘服务
// 说明：聚合线索、成交与推广的核心指标。
type DashboardService struct {
	repo repository.DashboardRepository
	now  func() time.Time
}

// NewDashboardService 创建仪表盘服务
func NewDashboardService(repo repository.DashboardRepository) *DashboardService {
	return &DashboardService{repo: repo, now: time.Now}
}

// DashboardQueryInput 仪表盘查询输入
type DashboardQueryInput struct {
	Range        string
	From         *time.Time
	To           *time.Time
	Timezone     string
	ForceRefresh bool
}

// DashboardOverviewResponse 仪表盘总览响应
type DashboardOverviewResponse struct {
	Range    string          `json:"range"`
	From     string          `json:"from"`
	To       string          `json:"to"`
	Timezone string          `json:"timezone"`
	KPI      DashboardKPI    `json:"kpi"`
	Funnel   DashboardFunnel `json:"funnel"`
}

// DashboardKPI 仪表盘核心指标
type DashboardKPI struct {
	LeadsTotal           int64  `json:"leads_total"`
	LeadsOptOut          int64  `json:"leads_opt_out"`
	InvestmentsPending   int64  `json:"investments_pending"`
	InvestmentsConfirmed int64  `json:"investments_confirmed"`
	InvestmentsCancelled int64  `json:"investments_cancelled"`
	ConfirmedAmount      string `json:"confirmed_amount"`
	CommissionPending    string `json:"commission_pending"`
	CommissionPaid       string `json:"commission_paid"`
	NewIdentities        int64  `json:"new_identities"`
	ActiveAffiliates     int64  `json:"active_affiliates"`
	Clicks               int64  `json:"clicks"`
}

// DashboardFunnel 仪表盘转化漏斗
type DashboardFunnel struct {
	Clicks           int64  `json:"clicks"`
	Leads            int64  `json:"leads"`
	Sales            int64  `json:"sales"`
	ClickToLeadRate  string `json:"click_to_lead_rate"`
	LeadToSaleRate   string `json:"lead_to_sale_rate"`
	OptOutRate       string `json:"opt_out_rate"`
	ConfirmationRate string `json:"confirmation_rate"`
}

// DashboardTrendResponse 仪表盘趋势响应
type DashboardTrendResponse struct {
	Range    string                `json:"range"`
	From     string                `json:"from"`
	To       string                `json:"to"`
	Timezone string                `json:"timezone"`
	Points   []DashboardTrendPoint `json:"points"`
}

// DashboardTrendPoint 趋势点
type DashboardTrendPoint struct {
	Date                 string `json:"date"`
	Leads                int64  `json:"leads"`
	InvestmentsConfirmed int64  `json:"investments_confirmed"`
	ConfirmedAmount      string `json:"confirmed_amount"`
}

// DashboardRankingsResponse 推广排行响应
type DashboardRankingsResponse struct {
	Range         string                      `json:"range"`
	From          string                      `json:"from"`
	To            string                      `json:"to"`
	Timezone      string                      `json:"timezone"`
	TopAffiliates []DashboardAffiliateRanking `json:"top_affiliates"`
}

// DashboardAffiliateRanking 推广排行项
type DashboardAffiliateRanking struct {
	AffiliateProfileID uint   `json:"affiliate_profile_id"`
	AffiliateCode      string `json:"affiliate_code"`
	Sales              int64  `json:"sales"`
	SalesAmount        string `json:"sales_amount"`
}

type dashboardWindow struct {
	rangeKey string
	startAt  time.Time
	endAt    time.Time
	timezone string
}

func (w dashboardWindow) cacheKey(kind string) string {
	return fmt.Sprintf("dashboard:%s:%s:%d:%d:%s", kind, w.rangeKey, w.startAt.Unix(), w.endAt.Unix(), w.timezone)
}

// GetOverview 获取仪表盘总览
func (s *DashboardService) GetOverview(ctx context.Context, input DashboardQueryInput) (*DashboardOverviewResponse, error) {
	if s == nil || s.repo == nil {
		return &DashboardOverviewResponse{}, nil
	}
	window, err := resolveDashboardWindow(input, s.now())
	if err != nil {
		return nil, err
	}
	cacheKey := window.cacheKey("overview")
	if !input.ForceRefresh {
		var cached DashboardOverviewResponse
		if hit, cacheErr := cache.GetJSON(ctx, cacheKey, &cached); cacheErr == nil && hit {
			return &cached, nil
		}
	}

	overview, err := s.repo.GetOverview(window.startAt, window.endAt)
	if err != nil {
		return nil, upstream("dashboard overview", err)
	}
	decided := overview.InvestmentsConfirmed + overview.InvestmentsCancelled

	response := &DashboardOverviewResponse{
		Range:    window.rangeKey,
		From:     window.startAt.Format(time.RFC3339),
		To:       window.endAt.Add(-time.Second).Format(time.RFC3339),
		Timezone: window.timezone,
		KPI: DashboardKPI{
			LeadsTotal:           overview.LeadsTotal,
			LeadsOptOut:          overview.LeadsOptOut,
			InvestmentsPending:   overview.InvestmentsPending,
			InvestmentsConfirmed: overview.InvestmentsConfirmed,
			InvestmentsCancelled: overview.InvestmentsCancelled,
			ConfirmedAmount:      formatMoneyValue(overview.ConfirmedAmount),
			CommissionPending:    formatMoneyValue(overview.CommissionPending),
			CommissionPaid:       formatMoneyValue(overview.CommissionPaid),
			NewIdentities:        overview.NewIdentities,
			ActiveAffiliates:     overview.ActiveAffiliates,
			Clicks:               overview.Clicks,
		},
		Funnel: DashboardFunnel{
			Clicks:           overview.Clicks,
			Leads:            overview.LeadsTotal,
			Sales:            overview.InvestmentsConfirmed,
			ClickToLeadRate:  formatPercentValue(ratio(overview.LeadsTotal, overview.Clicks)),
			LeadToSaleRate:   formatPercentValue(ratio(overview.InvestmentsConfirmed, overview.LeadsTotal)),
			OptOutRate:       formatPercentValue(ratio(overview.LeadsOptOut, overview.LeadsTotal)),
			ConfirmationRate: formatPercentValue(ratio(overview.InvestmentsConfirmed, decided)),
		},
	}
	_ = cache.SetJSON(ctx, cacheKey, response, dashboardCacheTTL)
	return response, nil
}

// GetTrends 获取线索与成交趋势
func (s *DashboardService) GetTrends(ctx context.Context, input DashboardQueryInput) (*DashboardTrendResponse, error) {
	if s == nil || s.repo == nil {
		return &DashboardTrendResponse{}, nil
	}
	window, err := resolveDashboardWindow(input, s.now())
	if err != nil {
		return nil, err
	}
	cacheKey := window.cacheKey("trends")
	if !input.ForceRefresh {
		var cached DashboardTrendResponse
		if hit, cacheErr := cache.GetJSON(ctx, cacheKey, &cached); cacheErr == nil && hit {
			return &cached, nil
		}
	}

	rows, err := s.repo.GetFunnelTrends(window.startAt, window.endAt)
	if err != nil {
		return nil, upstream("dashboard trends", err)
	}
	points := make([]DashboardTrendPoint, 0, len(rows))
	for _, row := range rows {
		points = append(points, DashboardTrendPoint{
			Date:                 row.Day,
			Leads:                row.Leads,
			InvestmentsConfirmed: row.InvestmentsConfirmed,
			ConfirmedAmount:      formatMoneyValue(row.ConfirmedAmount),
		})
	}
	response := &DashboardTrendResponse{
		Range:    window.rangeKey,
		From:     window.startAt.Format(time.RFC3339),
		To:       window.endAt.Add(-time.Second).Format(time.RFC3339),
		Timezone: window.timezone,
		Points:   points,
	}
	_ = cache.SetJSON(ctx, cacheKey, response, dashboardCacheTTL)
	return response, nil
}

// GetRankings 获取推广成交排行
func (s *DashboardService) GetRankings(ctx context.Context, input DashboardQueryInput) (*DashboardRankingsResponse, error) {
	if s == nil || s.repo == nil {
		return &DashboardRankingsResponse{}, nil
	}
	window, err := resolveDashboardWindow(input, s.now())
	if err != nil {
		return nil, err
	}
	cacheKey := window.cacheKey("rankings")
	if !input.ForceRefresh {
		var cached DashboardRankingsResponse
		if hit, cacheErr := cache.GetJSON(ctx, cacheKey, &cached); cacheErr == nil && hit {
			return &cached, nil
		}
	}

	rows, err := s.repo.GetTopAffiliates(window.startAt, window.endAt, dashboardTopAffiliates)
	if err != nil {
		return nil, upstream("dashboard rankings", err)
	}
	items := make([]DashboardAffiliateRanking, 0, len(rows))
	for _, row := range rows {
		items = append(items, DashboardAffiliateRanking{
			AffiliateProfileID: row.AffiliateProfileID,
			AffiliateCode:      strings.TrimSpace(row.AffiliateCode),
			Sales:              row.Sales,
			SalesAmount:        formatMoneyValue(row.SalesAmount),
		})
	}
	response := &DashboardRankingsResponse{
		Range:         window.rangeKey,
		From:          window.startAt.Format(time.RFC3339),
		To:            window.endAt.Add(-time.Second).Format(time.RFC3339),
		Timezone:      window.timezone,
		TopAffiliates: items,
	}
	_ = cache.SetJSON(ctx, cacheKey, response, dashboardCacheTTL)
	return response, nil
}

func resolveDashboardWindow(input DashboardQueryInput, now time.Time) (dashboardWindow, error) {
	rangeKey := strings.ToLower(strings.TrimSpace(input.Range))
	if rangeKey == "" {
		rangeKey = "7d"
	}

	timezone := strings.TrimSpace(input.Timezone)
	location := time.Local
	if timezone != "" {
		if parsed, err := time.LoadLocation(timezone); err == nil {
			location = parsed
		} else {
			timezone = ""
		}
	}
	if timezone == "" {
		timezone = location.String()
	}

	localNow := now.In(location)
	todayStart := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), 0, 0, 0, 0, location)
	window := dashboardWindow{rangeKey: rangeKey, timezone: timezone}

	switch rangeKey {
	case "today":
		window.startAt = todayStart
		window.endAt = todayStart.AddDate(0, 0, 1)
	case "7d":
		window.startAt = todayStart.AddDate(0, 0, -6)
		window.endAt = todayStart.AddDate(0, 0, 1)
	case "30d":
		window.startAt = todayStart.AddDate(0, 0, -29)
		window.endAt = todayStart.AddDate(0, 0, 1)
	case "custom":
		if input.From == nil || input.To == nil {
			return dashboardWindow{}, ErrDashboardRangeInvalid
		}
		startAt := input.From.In(location)
		endAt := input.To.In(location)
		if endAt.Before(startAt) || endAt.Sub(startAt) > time.Hour*24*dashboardCustomMaxDays {
			return dashboardWindow{}, ErrDashboardRangeInvalid
		}
		window.startAt = startAt
		window.endAt = endAt.Add(time.Second)
	default:
		return dashboardWindow{}, ErrDashboardRangeInvalid
	}
	return window, nil
}

func ratio(numerator, denominator int64) float64 {
	if denominator <= 0 {
		return 0
	}
	return float64(numerator) / float64(denominator) * 100
}

func formatMoneyValue(value float64) string {
	return fmt.Sprintf("%.2f", value)
}

func formatPercentValue(value float64) string {
	return fmt.Sprintf("%.2f", value)
}
