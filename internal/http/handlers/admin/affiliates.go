package admin

import (
	"strings"

	handlershared "github.com/agd-funnel/internal/http/handlers/shared"
	"github.com/agd-funnel/internal/http/response"
	"github.com/agd-funnel/internal/repository"
	"github.com/agd-funnel/internal/service"

	"github.com/gin-gonic/gin"
)

// AffiliateProfileStatusRequest 推广用户状态更新请求
type AffiliateProfileStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ListAffiliateProfiles 管理端推广用户列表
func (h *Handler) ListAffiliateProfiles(c *gin.Context) {
	page, pageSize := handlershared.QueryPagination(c)
	rows, total, err := h.AffiliateService.ListAdminProfiles(repository.AffiliateProfileListFilter{
		Page:       page,
		PageSize:   pageSize,
		IdentityID: queryUint(c, "identity_id"),
		Code:       strings.TrimSpace(c.Query("code")),
		Status:     strings.TrimSpace(c.Query("status")),
		Tier:       strings.TrimSpace(c.Query("tier")),
		Keyword:    strings.TrimSpace(c.Query("keyword")),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, rows, response.NewPagination(page, pageSize, total))
}

// UpdateAffiliateProfileStatus 更新推广用户状态
func (h *Handler) UpdateAffiliateProfileStatus(c *gin.Context) {
	actor, ok := auditActor(c)
	if !ok {
		return
	}
	profileID, ok := handlershared.ParseParamUint(c, "id")
	if !ok {
		return
	}
	var req AffiliateProfileStatusRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}

	before, err := h.AffiliateRepo.GetProfileByID(profileID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	if before == nil {
		respondServiceError(c, service.ErrAffiliateNotFound)
		return
	}
	profile, err := h.AffiliateService.UpdateProfileStatus(profileID, req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if before.Status != profile.Status {
		if err := h.AdminAuditService.RecordAffiliateStatus(actor, profileID, before.Status, profile.Status); err != nil {
			requestLog(c).Warnw("admin_audit_write_failed", "action", "affiliate_status", "error", err)
		}
	}
	response.Success(c, profile)
}
