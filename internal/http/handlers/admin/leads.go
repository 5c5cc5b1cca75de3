package admin

import (
	"strings"

	handlershared "github.com/agd-funnel/internal/http/handlers/shared"
	"github.com/agd-funnel/internal/http/response"
	"github.com/agd-funnel/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListLeads 漏斗线索列表
func (h *Handler) ListLeads(c *gin.Context) {
	page, pageSize := handlershared.QueryPagination(c)
	from, to, err := parseCreatedRange(c)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	rows, total, err := h.FunnelService.ListLeads(repository.LeadListFilter{
		Page:           page,
		PageSize:       pageSize,
		Email:          strings.TrimSpace(c.Query("email")),
		ProfileSegment: strings.TrimSpace(c.Query("profile")),
		Branch:         strings.TrimSpace(c.Query("branch")),
		AffiliateCode:  strings.TrimSpace(c.Query("affiliate_code")),
		CreatedFrom:    from,
		CreatedTo:      to,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, rows, response.NewPagination(page, pageSize, total))
}
