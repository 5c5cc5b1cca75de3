package authz

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzServiceTest(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}
	return svc
}

func mustEnforce(t *testing.T, svc *Service, adminID uint, obj, act string) bool {
	t.Helper()
	allow, err := svc.EnforceAdmin(adminID, obj, act)
	if err != nil {
		t.Fatalf("enforce %s %s failed: %v", act, obj, err)
	}
	return allow
}

func TestFinanceRoleCanConfirmInvestments(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.SetAdminRoles(1, []string{"Finance"}); err != nil {
		t.Fatalf("set admin roles failed: %v", err)
	}

	if !mustEnforce(t, svc, 1, "/api/v1/admin/investments/42/confirm", "post") {
		t.Fatalf("finance should confirm investments")
	}
	if !mustEnforce(t, svc, 1, "/api/v1/admin/commissions/7/pay", "POST") {
		t.Fatalf("finance should pay commissions")
	}
	if !mustEnforce(t, svc, 1, "/api/v1/admin/dashboard/overview", "GET") {
		t.Fatalf("finance inherits read access")
	}
	if mustEnforce(t, svc, 1, "/api/v1/admin/affiliates/3/status", "PATCH") {
		t.Fatalf("finance should not change affiliate status")
	}
}

func TestOperationsAndAuditorMatrix(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.SetAdminRoles(2, []string{"operations"}); err != nil {
		t.Fatalf("set operations failed: %v", err)
	}
	if err := svc.SetAdminRoles(3, []string{"readonly auditor"}); err != nil {
		t.Fatalf("set auditor failed: %v", err)
	}

	if !mustEnforce(t, svc, 2, "/admin/affiliates/3/status", "PATCH") {
		t.Fatalf("operations should change affiliate status")
	}
	if !mustEnforce(t, svc, 2, "/admin/settings/commission", "PUT") {
		t.Fatalf("operations should update commission settings")
	}
	if mustEnforce(t, svc, 2, "/admin/investments/1/confirm", "POST") {
		t.Fatalf("operations should not confirm investments")
	}
	if !mustEnforce(t, svc, 3, "/admin/leads", "GET") {
		t.Fatalf("auditor should read leads")
	}
	if mustEnforce(t, svc, 3, "/admin/settings/commission", "PUT") {
		t.Fatalf("auditor must stay read only")
	}
	if mustEnforce(t, svc, 99, "/admin/leads", "GET") {
		t.Fatalf("admin without roles should be denied")
	}
}

func TestSetAdminRolesRejectsUnknownAndOverrides(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.SetAdminRoles(1, []string{"superuser"}); !errors.Is(err, ErrRoleUnknown) {
		t.Fatalf("want ErrRoleUnknown, got %v", err)
	}
	if err := svc.SetAdminRoles(0, []string{"finance"}); !errors.Is(err, ErrAdminIDZero) {
		t.Fatalf("want ErrAdminIDZero, got %v", err)
	}

	if err := svc.SetAdminRoles(1, []string{"finance", "operations"}); err != nil {
		t.Fatalf("set roles failed: %v", err)
	}
	if err := svc.SetAdminRoles(1, []string{"operations"}); err != nil {
		t.Fatalf("override roles failed: %v", err)
	}
	roles, err := svc.GetAdminRoles(1)
	if err != nil {
		t.Fatalf("get roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "role:operations" {
		t.Fatalf("unexpected roles: %v", roles)
	}
}

func TestGetAdminPoliciesIncludesInherited(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.SetAdminRoles(5, []string{"finance"}); err != nil {
		t.Fatalf("set roles failed: %v", err)
	}
	policies, err := svc.GetAdminPolicies(5)
	if err != nil {
		t.Fatalf("get policies failed: %v", err)
	}
	found := map[string]bool{}
	for _, item := range policies {
		found[item.Action+" "+item.Object] = true
	}
	for _, want := range []string{"GET /admin/*", "POST /admin/investments/:id/confirm", "POST /admin/commissions/:id/cancel"} {
		if !found[want] {
			t.Fatalf("missing policy %q in %+v", want, policies)
		}
	}
}

func TestBootstrapRemovesStalePolicies(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if _, err := svc.enforcer.AddPolicy("role:finance", "/admin/legacy", "DELETE"); err != nil {
		t.Fatalf("add stale policy failed: %v", err)
	}
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("re-bootstrap failed: %v", err)
	}
	if err := svc.SetAdminRoles(1, []string{"finance"}); err != nil {
		t.Fatalf("set roles failed: %v", err)
	}
	if mustEnforce(t, svc, 1, "/admin/legacy", "DELETE") {
		t.Fatalf("stale policy should be removed")
	}
}

func TestNormalizeHelpers(t *testing.T) {
	if got := NormalizeObject("/api/v1/admin/leads"); got != "/admin/leads" {
		t.Fatalf("unexpected object: %s", got)
	}
	if got := NormalizeObject("/api/v1"); got != "/" {
		t.Fatalf("unexpected root object: %s", got)
	}
	if got := NormalizeObject("admin/x"); got != "/admin/x" {
		t.Fatalf("unexpected relative object: %s", got)
	}
	if _, err := NormalizeRole("  "); err == nil {
		t.Fatalf("expected empty role error")
	}
	if !IsBuiltinRole("role:readonly_auditor") || IsBuiltinRole("support") {
		t.Fatalf("builtin role detection broken")
	}
}

func TestNilServiceIsUnavailable(t *testing.T) {
	var svc *Service
	if _, err := svc.EnforceAdmin(1, "/admin", "GET"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("want ErrUnavailable, got %v", err)
	}
}
