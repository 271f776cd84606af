package authz

import (
	"fmt"

	"github.com/earnko/internal/constants"
)

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string   `json:"role"`
	Inherits []string `json:"inherits,omitempty"`
	Policies []Policy `json:"policies"`
}

// BuiltinRoleSeeds 系统预置角色矩阵
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: constants.AdminRoleAuditor,
			Policies: []Policy{
				{Object: "/admin/*", Action: "GET"},
			},
		},
		{
			Role:     constants.AdminRoleOps,
			Inherits: []string{constants.AdminRoleAuditor},
			Policies: []Policy{
				{Object: "/admin/stores", Action: "*"},
				{Object: "/admin/stores/:id", Action: "*"},
				{Object: "/admin/products", Action: "*"},
				{Object: "/admin/products/:id", Action: "*"},
				{Object: "/admin/category-commissions", Action: "*"},
				{Object: "/admin/category-commissions/:id", Action: "*"},
			},
		},
		{
			Role:     constants.AdminRoleFinance,
			Inherits: []string{constants.AdminRoleAuditor},
			Policies: []Policy{
				{Object: "/admin/transactions/:id/status", Action: "PATCH"},
				{Object: "/admin/transactions/:id/commission", Action: "POST"},
				{Object: "/admin/settings/:key", Action: "PUT"},
			},
		},
		{
			Role: constants.AdminRoleSuper,
			Policies: []Policy{
				{Object: "/admin/*", Action: "*"},
			},
		},
	}
}

func builtinRoleSet() map[string]struct{} {
	set := make(map[string]struct{})
	for _, seed := range BuiltinRoleSeeds() {
		set[seed.Role] = struct{}{}
	}
	return set
}

// BootstrapBuiltinRoles 写入预置角色、继承关系与策略，重复执行不会产生重复行
func (s *Service) BootstrapBuiltinRoles() error {
	if err := s.ready(); err != nil {
		return err
	}
	for _, seed := range BuiltinRoleSeeds() {
		for _, parent := range seed.Inherits {
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", rolePrefix+seed.Role, rolePrefix+parent); err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
		}
		for _, policy := range seed.Policies {
			if err := s.grant(seed.Role, policy.Object, policy.Action); err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
		}
	}
	return nil
}
