package admin

import (
	"strconv"
	"strings"

	"github.com/agd-funnel/internal/http/response"
	"github.com/agd-funnel/internal/service"

	"github.com/gin-gonic/gin"
)

// GetDashboardOverview 获取后台仪表盘总览
func (h *Handler) GetDashboardOverview(c *gin.Context) {
	input, err := parseDashboardQuery(c)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	data, err := h.DashboardService.GetOverview(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, data)
}

// GetDashboardTrends 获取后台仪表盘趋势
func (h *Handler) GetDashboardTrends(c *gin.Context) {
	input, err := parseDashboardQuery(c)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	data, err := h.DashboardService.GetTrends(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, data)
}

// GetDashboardRankings 获取推广用户排行榜
func (h *Handler) GetDashboardRankings(c *gin.Context) {
	input, err := parseDashboardQuery(c)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	data, err := h.DashboardService.GetRankings(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, data)
}

func parseDashboardQuery(c *gin.Context) (service.DashboardQueryInput, error) {
	from, err := parseTimeNullable(strings.TrimSpace(c.Query("from")))
	if err != nil {
		return service.DashboardQueryInput{}, err
	}
	to, err := parseTimeNullable(strings.TrimSpace(c.Query("to")))
	if err != nil {
		return service.DashboardQueryInput{}, err
	}

	forceRefresh := false
	if raw := strings.TrimSpace(c.Query("force_refresh")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return service.DashboardQueryInput{}, err
		}
		forceRefresh = parsed
	}

	return service.DashboardQueryInput{
		Range:        strings.TrimSpace(c.DefaultQuery("range", "7d")),
		From:         from,
		To:           to,
		Timezone:     strings.TrimSpace(c.Query("tz")),
		ForceRefresh: forceRefresh,
	}, nil
}
