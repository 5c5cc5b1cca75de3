package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/agd-funnel/internal/models"
)

const authStateCacheTTL = 10 * time.Minute

// IdentityAuthState 用户鉴权快照，仅用于服务端缓存
type IdentityAuthState struct {
	IdentityID   uint   `json:"identity_id"`
	Status       string `json:"status"`
	TokenVersion uint64 `json:"token_version"`
	UpdatedAt    int64  `json:"updated_at"`
}

// AdminAuthState 管理员鉴权快照
type AdminAuthState struct {
	AdminID      uint   `json:"admin_id"`
	Username     string `json:"username"`
	TokenVersion uint64 `json:"token_version"`
	IsSuper      bool   `json:"is_super"`
	UpdatedAt    int64  `json:"updated_at"`
}

func identityAuthStateKey(identityID uint) string {
	return fmt.Sprintf("auth:identity:%d", identityID)
}

func adminAuthStateKey(adminID uint) string {
	return fmt.Sprintf("auth:admin:%d", adminID)
}

// BuildIdentityAuthState 从身份模型构建鉴权快照
func BuildIdentityAuthState(identity *models.Identity) *IdentityAuthState {
	if identity == nil {
		return nil
	}
	return &IdentityAuthState{
		IdentityID:   identity.ID,
		Status:       identity.Status,
		TokenVersion: identity.TokenVersion,
		UpdatedAt:    time.Now().Unix(),
	}
}

// BuildAdminAuthState 从管理员模型构建鉴权快照
func BuildAdminAuthState(admin *models.Admin) *AdminAuthState {
	if admin == nil {
		return nil
	}
	return &AdminAuthState{
		AdminID:      admin.ID,
		Username:     admin.Username,
		TokenVersion: admin.TokenVersion,
		IsSuper:      admin.IsSuper,
		UpdatedAt:    time.Now().Unix(),
	}
}

// GetIdentityAuthState 获取用户鉴权快照
func GetIdentityAuthState(ctx context.Context, identityID uint) (*IdentityAuthState, bool, error) {
	if identityID == 0 {
		return nil, false, nil
	}
	var state IdentityAuthState
	hit, err := GetJSON(ctx, identityAuthStateKey(identityID), &state)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &state, true, nil
}

// SetIdentityAuthState 写入用户鉴权快照
func SetIdentityAuthState(ctx context.Context, state *IdentityAuthState) error {
	if state == nil || state.IdentityID == 0 {
		return nil
	}
	return SetJSON(ctx, identityAuthStateKey(state.IdentityID), state, authStateCacheTTL)
}

// GetAdminAuthState 获取管理员鉴权快照
func GetAdminAuthState(ctx context.Context, adminID uint) (*AdminAuthState, bool, error) {
	if adminID == 0 {
		return nil, false, nil
	}
	var state AdminAuthState
	hit, err := GetJSON(ctx, adminAuthStateKey(adminID), &state)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &state, true, nil
}

// SetAdminAuthState 写入管理员鉴权快照
func SetAdminAuthState(ctx context.Context, state *AdminAuthState) error {
	if state == nil || state.AdminID == 0 {
		return nil
	}
	return SetJSON(ctx, adminAuthStateKey(state.AdminID), state, authStateCacheTTL)
}
