package admin

import (
	"strings"

	handlershared "github.com/agd-funnel/internal/http/handlers/shared"
	"github.com/agd-funnel/internal/http/response"
	"github.com/agd-funnel/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListAuditLogs 后台操作审计日志
func (h *Handler) ListAuditLogs(c *gin.Context) {
	page, pageSize := handlershared.QueryPagination(c)
	from, to, err := parseCreatedRange(c)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	rows, total, err := h.AdminAuditService.List(repository.AdminAuditLogListFilter{
		Page:            page,
		PageSize:        pageSize,
		OperatorAdminID: queryUint(c, "operator_admin_id"),
		Action:          strings.TrimSpace(c.Query("action")),
		TargetType:      strings.TrimSpace(c.Query("target_type")),
		TargetID:        queryUint(c, "target_id"),
		CreatedFrom:     from,
		CreatedTo:       to,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, rows, response.NewPagination(page, pageSize, total))
}
