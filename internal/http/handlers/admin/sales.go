package admin

import (
	"strings"

	handlershared "github.com/agd-funnel/internal/http/handlers/shared"
	"github.com/agd-funnel/internal/http/response"
	"github.com/agd-funnel/internal/repository"

	"github.com/gin-gonic/gin"
)

// CancelRequest 取消请求
type CancelRequest struct {
	Reason string `json:"reason"`
}

// ListInvestments 管理端认购（销售）列表
func (h *Handler) ListInvestments(c *gin.Context) {
	page, pageSize := handlershared.QueryPagination(c)
	from, to, err := parseCreatedRange(c)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	rows, total, err := h.CommissionService.ListInvestments(repository.InvestmentListFilter{
		Page:               page,
		PageSize:           pageSize,
		IdentityID:         queryUint(c, "identity_id"),
		AffiliateProfileID: queryUint(c, "affiliate_profile_id"),
		PlanID:             strings.TrimSpace(c.Query("plan_id")),
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

// ConfirmInvestment 确认收款并生成佣金
func (h *Handler) ConfirmInvestment(c *gin.Context) {
	actor, ok := auditActor(c)
	if !ok {
		return
	}
	investmentID, ok := handlershared.ParseParamUint(c, "id")
	if !ok {
		return
	}
	result, err := h.CommissionService.ConfirmSale(c.Request.Context(), investmentID, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, result)
}

// CancelInvestment 取消认购并作废待处理佣金
func (h *Handler) CancelInvestment(c *gin.Context) {
	actor, ok := auditActor(c)
	if !ok {
		return
	}
	investmentID, ok := handlershared.ParseParamUint(c, "id")
	if !ok {
		return
	}
	var req CancelRequest
	if c.Request.ContentLength > 0 && !handlershared.BindJSON(c, &req) {
		return
	}
	investment, err := h.CommissionService.CancelSale(investmentID, req.Reason, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, investment)
}
