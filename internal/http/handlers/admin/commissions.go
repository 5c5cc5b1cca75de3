package admin

import (
	"strings"

	handlershared "github.com/agd-funnel/internal/http/handlers/shared"
	"github.com/agd-funnel/internal/http/response"
	"github.com/agd-funnel/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListCommissions 管理端佣金列表
func (h *Handler) ListCommissions(c *gin.Context) {
	page, pageSize := handlershared.QueryPagination(c)
	from, to, err := parseCreatedRange(c)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	rows, total, err := h.CommissionService.ListCommissions(repository.CommissionListFilter{
		Page:               page,
		PageSize:           pageSize,
		AffiliateProfileID: queryUint(c, "affiliate_profile_id"),
		InvestmentID:       queryUint(c, "investment_id"),
		CommissionType:     strings.TrimSpace(c.Query("commission_type")),
		Status:             strings.TrimSpace(c.Query("status")),
		CreatedFrom:        from,
		CreatedTo:          to,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, rows, response.NewPagination(page, pageSize, total))
}

// PayCommission 标记佣金已结算
func (h *Handler) PayCommission(c *gin.Context) {
	actor, ok := auditActor(c)
	if !ok {
		return
	}
	commissionID, ok := handlershared.ParseParamUint(c, "id")
	if !ok {
		return
	}
	commission, err := h.CommissionService.MarkCommissionPaid(commissionID, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, commission)
}

// CancelCommission 作废佣金
func (h *Handler) CancelCommission(c *gin.Context) {
	actor, ok := auditActor(c)
	if !ok {
		return
	}
	commissionID, ok := handlershared.ParseParamUint(c, "id")
	if !ok {
		return
	}
	var req CancelRequest
	if c.Request.ContentLength > 0 && !handlershared.BindJSON(c, &req) {
		return
	}
	commission, err := h.CommissionService.CancelCommission(commissionID, req.Reason, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, commission)
}
