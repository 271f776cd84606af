package authz

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/earnko/internal/constants"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzServiceTest(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"), time.Now().UnixNano())
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

func TestResolveRole(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		unknown bool
	}{
		{in: "finance", want: constants.AdminRoleFinance},
		{in: " Role:Operations ", want: constants.AdminRoleOps},
		{in: "", want: constants.AdminRoleAuditor, unknown: true},
		{in: "owner", want: constants.AdminRoleAuditor, unknown: true},
	}
	for _, tc := range cases {
		got, err := ResolveRole(tc.in)
		if got != tc.want || errors.Is(err, ErrUnknownRole) != tc.unknown {
			t.Fatalf("resolve %q: got %s err=%v", tc.in, got, err)
		}
	}
}

func TestAssignAdminRoleReplaces(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.AssignAdminRole(2, constants.AdminRoleOps); err != nil {
		t.Fatalf("assign ops failed: %v", err)
	}
	if err := svc.AssignAdminRole(2, constants.AdminRoleFinance); err != nil {
		t.Fatalf("assign finance failed: %v", err)
	}
	roles, err := svc.GetAdminRoles(2)
	if err != nil {
		t.Fatalf("get roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != constants.AdminRoleFinance {
		t.Fatalf("roles want [finance], got=%v", roles)
	}

	if allow, _ := svc.EnforceAdmin(2, "/api/v1/admin/stores", "POST"); allow {
		t.Fatalf("expected old role permission removed")
	}
	if allow, _ := svc.EnforceAdmin(2, "/api/v1/admin/transactions/:id/status", "patch"); !allow {
		t.Fatalf("expected finance to change transaction status")
	}
}

func TestAssignUnknownRoleBindsAuditor(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.AssignAdminRole(3, "owner"); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("want ErrUnknownRole, got %v", err)
	}
	if allow, _ := svc.EnforceAdmin(3, "/admin/webhook-events", "GET"); !allow {
		t.Fatalf("unknown role should still read as auditor")
	}
	if allow, _ := svc.EnforceAdmin(3, "/admin/settings/:key", "PUT"); allow {
		t.Fatalf("unknown role must not write settings")
	}
}

func TestEffectivePermissionsIncludeInherited(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.AssignAdminRole(4, constants.AdminRoleFinance); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	policies, err := svc.EffectivePermissions(4)
	if err != nil {
		t.Fatalf("effective permissions failed: %v", err)
	}
	var inherited, own bool
	for _, p := range policies {
		if p.Subject == constants.AdminRoleAuditor && p.Object == "/admin/*" && p.Action == "GET" {
			inherited = true
		}
		if p.Subject == constants.AdminRoleFinance && p.Object == "/admin/settings/:key" && p.Action == "PUT" {
			own = true
		}
	}
	if !inherited || !own {
		t.Fatalf("want inherited auditor read and finance settings write, got %+v", policies)
	}
}

func TestNormalizeObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "/api/v1/admin/transactions/:id", want: "/admin/transactions/:id"},
		{in: "/admin/transactions/:id", want: "/admin/transactions/:id"},
		{in: "admin/stores", want: "/admin/stores"},
		{in: "/api/v1", want: "/"},
		{in: "", want: "/"},
	}
	for _, item := range cases {
		if got := NormalizeObject(item.in); got != item.want {
			t.Fatalf("normalize object failed, in=%q want=%q got=%q", item.in, item.want, got)
		}
	}
}

func TestBuiltinRoleMatrix(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("second bootstrap failed: %v", err)
	}

	cases := []struct {
		role   string
		obj    string
		act    string
		expect bool
	}{
		{constants.AdminRoleAuditor, "/admin/transactions", "GET", true},
		{constants.AdminRoleAuditor, "/admin/transactions/:id/status", "PATCH", false},
		{constants.AdminRoleOps, "/admin/webhook-events", "GET", true},
		{constants.AdminRoleOps, "/admin/category-commissions/:id", "DELETE", true},
		{constants.AdminRoleOps, "/admin/transactions/:id/commission", "POST", false},
		{constants.AdminRoleFinance, "/admin/transactions/:id/commission", "POST", true},
		{constants.AdminRoleFinance, "/admin/products", "POST", false},
		{constants.AdminRoleSuper, "/admin/products/:id", "PUT", true},
	}
	for i, tc := range cases {
		adminID := uint(100 + i)
		if err := svc.AssignAdminRole(adminID, tc.role); err != nil {
			t.Fatalf("assign %s failed: %v", tc.role, err)
		}
		allow, err := svc.EnforceAdmin(adminID, tc.obj, tc.act)
		if err != nil {
			t.Fatalf("enforce failed: %v", err)
		}
		if allow != tc.expect {
			t.Fatalf("%s %s %s: allow=%v want %v", tc.role, tc.act, tc.obj, allow, tc.expect)
		}
	}
}
