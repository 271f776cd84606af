package authz

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/earnko/internal/constants"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/util"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

const (
	apiV1Prefix     = "/api/v1"
	casbinTableName = "casbin_rule"
	adminSubjectFmt = "admin:%d"
	rolePrefix      = "role:"
)

// 管理端策略：对象为去掉 /api/v1 的 gin 路由模板，keyMatch2 匹配 :id
const adminRBACModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = (g(r.sub, p.sub) || r.sub == p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

var (
	ErrUnavailable = errors.New("authz service unavailable")
	ErrUnknownRole = errors.New("unknown admin role")
)

// Policy 一条授权策略，Subject 为角色名（不带 role: 前缀）
type Policy struct {
	Subject string `json:"subject,omitempty"`
	Object  string `json:"object"`
	Action  string `json:"action"`
}

// Service 管理端 RBAC，策略持久化在 casbin_rule 表
type Service struct {
	enforcer *casbin.SyncedEnforcer
}

// NewService 创建授权服务
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("authz db is nil")
	}
	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", casbinTableName)
	if err != nil {
		return nil, fmt.Errorf("create authz adapter failed: %w", err)
	}
	m, err := model.NewModelFromString(adminRBACModel)
	if err != nil {
		return nil, fmt.Errorf("load authz model failed: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("init authz enforcer failed: %w", err)
	}
	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)
	enforcer.EnableAutoSave(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("load authz policy failed: %w", err)
	}
	return &Service{enforcer: enforcer}, nil
}

func (s *Service) ready() error {
	if s == nil || s.enforcer == nil {
		return ErrUnavailable
	}
	return nil
}

// EnforceAdmin 判定管理员能否对路由模板执行方法
func (s *Service) EnforceAdmin(adminID uint, route, method string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	return s.enforcer.Enforce(SubjectForAdmin(adminID), NormalizeObject(route), NormalizeAction(method))
}

// ResolveRole 把 admins.role 映射为预置角色，未知或为空时退回只读审计
func ResolveRole(role string) (string, error) {
	role = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(role)), rolePrefix)
	if role == "" {
		return constants.AdminRoleFallback, ErrUnknownRole
	}
	if _, ok := builtinRoleSet()[role]; !ok {
		return constants.AdminRoleFallback, ErrUnknownRole
	}
	return role, nil
}

// AssignAdminRole 管理员只绑定一个角色，旧绑定会被替换；未知角色按只读审计绑定并返回 ErrUnknownRole
func (s *Service) AssignAdminRole(adminID uint, role string) error {
	if adminID == 0 {
		return fmt.Errorf("admin id is required")
	}
	if err := s.ready(); err != nil {
		return err
	}
	resolved, resolveErr := ResolveRole(role)
	subject := SubjectForAdmin(adminID)
	target := rolePrefix + resolved

	current, err := s.enforcer.GetRolesForUser(subject)
	if err != nil {
		return fmt.Errorf("get admin roles failed: %w", err)
	}
	if len(current) != 1 || current[0] != target {
		if _, err := s.enforcer.RemoveFilteredNamedGroupingPolicy("g", 0, subject); err != nil {
			return fmt.Errorf("clear admin roles failed: %w", err)
		}
		if _, err := s.enforcer.AddNamedGroupingPolicy("g", subject, target); err != nil {
			return fmt.Errorf("assign admin role failed: %w", err)
		}
	}
	return resolveErr
}

// GetAdminRoles 管理员直接绑定的角色名
func (s *Service) GetAdminRoles(adminID uint) ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	roles, err := s.enforcer.GetRolesForUser(SubjectForAdmin(adminID))
	if err != nil {
		return nil, fmt.Errorf("get admin roles failed: %w", err)
	}
	for i := range roles {
		roles[i] = strings.TrimPrefix(roles[i], rolePrefix)
	}
	sort.Strings(roles)
	return roles, nil
}

// EffectivePermissions 管理员经角色继承后实际拥有的策略
func (s *Service) EffectivePermissions(adminID uint) ([]Policy, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rules, err := s.enforcer.GetImplicitPermissionsForUser(SubjectForAdmin(adminID))
	if err != nil {
		return nil, fmt.Errorf("get admin permissions failed: %w", err)
	}
	return convertPolicies(rules), nil
}

func (s *Service) grant(role, object, action string) error {
	action = NormalizeAction(action)
	if action == "" {
		return fmt.Errorf("action is required")
	}
	if _, err := s.enforcer.AddPolicy(rolePrefix+role, NormalizeObject(object), action); err != nil {
		return fmt.Errorf("grant policy failed: %w", err)
	}
	return nil
}

func convertPolicies(rules [][]string) []Policy {
	policies := make([]Policy, 0, len(rules))
	seen := make(map[Policy]struct{}, len(rules))
	for _, rule := range rules {
		if len(rule) < 3 {
			continue
		}
		p := Policy{
			Subject: strings.TrimPrefix(strings.TrimSpace(rule[0]), rolePrefix),
			Object:  NormalizeObject(rule[1]),
			Action:  NormalizeAction(rule[2]),
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		policies = append(policies, p)
	}
	sort.Slice(policies, func(i, j int) bool {
		if policies[i].Object != policies[j].Object {
			return policies[i].Object < policies[j].Object
		}
		if policies[i].Action != policies[j].Action {
			return policies[i].Action < policies[j].Action
		}
		return policies[i].Subject < policies[j].Subject
	})
	return policies
}

// SubjectForAdmin 生成管理员主体标识
func SubjectForAdmin(adminID uint) string {
	return fmt.Sprintf(adminSubjectFmt, adminID)
}

// NormalizeObject 统一授权资源路径，去掉 /api/v1 前缀
func NormalizeObject(object string) string {
	normalized := strings.TrimSpace(object)
	if normalized == "" || normalized == apiV1Prefix {
		return "/"
	}
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	return strings.TrimPrefix(normalized, apiV1Prefix)
}

// NormalizeAction 统一授权动作
func NormalizeAction(action string) string {
	return strings.ToUpper(strings.TrimSpace(action))
}
