package public

import (
	"strings"

	handlershared "github.com/agd-funnel/internal/http/handlers/shared"
	"github.com/agd-funnel/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetAffiliateEligibility 查询开通推广资格
func (h *Handler) GetAffiliateEligibility(c *gin.Context) {
	identityID, ok := getIdentityID(c)
	if !ok {
		return
	}
	result, err := h.AffiliateService.Eligibility(identityID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, result)
}

// OpenAffiliate 开通推广
func (h *Handler) OpenAffiliate(c *gin.Context) {
	identityID, ok := getIdentityID(c)
	if !ok {
		return
	}
	profile, err := h.AffiliateService.BecomeAffiliate(identityID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{
		"profile":       profile,
		"referral_link": h.AffiliateService.ReferralLink(profile.AffiliateCode),
	})
}

// GetAffiliateDashboard 推广用户中心
func (h *Handler) GetAffiliateDashboard(c *gin.Context) {
	identityID, ok := getIdentityID(c)
	if !ok {
		return
	}
	dashboard, err := h.AffiliateService.GetDashboard(identityID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, dashboard)
}

// ListAffiliateCommissions 推广用户佣金明细
func (h *Handler) ListAffiliateCommissions(c *gin.Context) {
	identityID, ok := getIdentityID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.QueryPagination(c)
	rows, total, err := h.AffiliateService.ListCommissions(identityID, page, pageSize, strings.TrimSpace(c.Query("status")))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, rows, response.NewPagination(page, pageSize, total))
}
