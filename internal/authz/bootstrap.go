package authz

import (
	"fmt"
	"sort"
)

// 预置角色名称
const (
	RoleReadonlyAuditor = "readonly_auditor"
	RoleOperations      = "operations"
	RoleFinance         = "finance"
)

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string   `json:"role"`
	Inherits []string `json:"inherits"`
	Policies []Policy `json:"policies"`
}

// BuiltinRoleSeeds 后台角色矩阵
// 审计只读；运营管理推广用户与线索；财务确认销售并结算佣金
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: RoleReadonlyAuditor,
			Policies: []Policy{
				{Object: "/admin/*", Action: "GET"},
			},
		},
		{
			Role:     RoleOperations,
			Inherits: []string{RoleReadonlyAuditor},
			Policies: []Policy{
				{Object: "/admin/affiliates/:id/status", Action: "PATCH"},
				{Object: "/admin/settings/commission", Action: "PUT"},
				{Object: "/admin/settings/captcha", Action: "PUT"},
			},
		},
		{
			Role:     RoleFinance,
			Inherits: []string{RoleReadonlyAuditor},
			Policies: []Policy{
				{Object: "/admin/investments/:id/confirm", Action: "POST"},
				{Object: "/admin/investments/:id/cancel", Action: "POST"},
				{Object: "/admin/commissions/:id/pay", Action: "POST"},
				{Object: "/admin/commissions/:id/cancel", Action: "POST"},
			},
		},
	}
}

// BuiltinRoles 预置角色（带前缀，已排序）
func BuiltinRoles() []string {
	seeds := BuiltinRoleSeeds()
	roles := make([]string, 0, len(seeds))
	for _, seed := range seeds {
		name, _ := NormalizeRole(seed.Role)
		roles = append(roles, name)
	}
	sort.Strings(roles)
	return roles
}

// IsBuiltinRole 是否为预置角色
func IsBuiltinRole(role string) bool {
	name, err := NormalizeRole(role)
	if err != nil {
		return false
	}
	for _, builtin := range BuiltinRoles() {
		if builtin == name {
			return true
		}
	}
	return false
}

// BootstrapBuiltinRoles 同步预置角色：补齐缺失策略并移除矩阵外的旧策略
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return ErrUnavailable
	}
	for _, seed := range BuiltinRoleSeeds() {
		role, err := NormalizeRole(seed.Role)
		if err != nil {
			return err
		}

		wanted := map[string]Policy{}
		for _, policy := range seed.Policies {
			action := NormalizeAction(policy.Action)
			if action == "" {
				return fmt.Errorf("builtin policy action is required: %s", seed.Role)
			}
			item := Policy{Subject: role, Object: NormalizeObject(policy.Object), Action: action}
			wanted[item.Object+"|"+item.Action] = item
		}

		existing, err := s.enforcer.GetFilteredPolicy(0, role)
		if err != nil {
			return fmt.Errorf("load builtin policies failed: %w", err)
		}
		for _, current := range convertPolicies(existing) {
			key := current.Object + "|" + current.Action
			if _, ok := wanted[key]; ok {
				delete(wanted, key)
				continue
			}
			if _, err := s.enforcer.RemovePolicy(role, current.Object, current.Action); err != nil {
				return fmt.Errorf("remove stale policy failed: %w", err)
			}
		}
		for _, item := range wanted {
			if _, err := s.enforcer.AddPolicy(item.Subject, item.Object, item.Action); err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
		}

		for _, parent := range seed.Inherits {
			parentRole, err := NormalizeRole(parent)
			if err != nil {
				return err
			}
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole); err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
		}
	}
	return nil
}
