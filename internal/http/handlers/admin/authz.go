package admin

import (
	"errors"

	"github.com/agd-funnel/internal/authz"
	handlershared "github.com/agd-funnel/internal/http/handlers/shared"
	"github.com/agd-funnel/internal/http/response"

	"github.com/gin-gonic/gin"
)

type authzSetAdminRolesPayload struct {
	Roles []string `json:"roles"`
}

// GetAuthzMe 获取当前管理员权限快照
func (h *Handler) GetAuthzMe(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	roles, err := h.AuthzService.GetAdminRoles(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	policies, err := h.AuthzService.GetAdminPolicies(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, gin.H{
		"admin_id": adminID,
		"is_super": isSuperAdmin(c),
		"roles":    roles,
		"policies": policies,
	})
}

// ListAuthzRoles 获取内置角色列表
func (h *Handler) ListAuthzRoles(c *gin.Context) {
	response.Success(c, authz.BuiltinRoleSeeds())
}

// GetAuthzAdminRoles 获取指定管理员角色
func (h *Handler) GetAuthzAdminRoles(c *gin.Context) {
	adminID, ok := handlershared.ParseParamUint(c, "id")
	if !ok {
		return
	}
	roles, err := h.AuthzService.GetAdminRoles(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, gin.H{"admin_id": adminID, "roles": roles})
}

// SetAuthzAdminRoles 覆盖设置管理员角色（仅超级管理员）
func (h *Handler) SetAuthzAdminRoles(c *gin.Context) {
	if !isSuperAdmin(c) {
		respondError(c, response.CodeForbidden, "error.forbidden", nil)
		return
	}
	adminID, ok := handlershared.ParseParamUint(c, "id")
	if !ok {
		return
	}
	var req authzSetAdminRolesPayload
	if !handlershared.BindJSON(c, &req) {
		return
	}
	admin, err := h.AdminRepo.GetByID(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	if admin == nil {
		respondError(c, response.CodeNotFound, "error.not_found", nil)
		return
	}
	if err := h.AuthzService.SetAdminRoles(adminID, req.Roles); err != nil {
		if errors.Is(err, authz.ErrRoleUnknown) {
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	roles, err := h.AuthzService.GetAdminRoles(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, gin.H{"admin_id": adminID, "roles": roles})
}
