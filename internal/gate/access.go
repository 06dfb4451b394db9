package gate

import "strings"

// Permission names an atomic capability gated to an explicit role set.
type Permission string

const (
	PermManageSystem   Permission = "system.manage"
	PermManageUsers    Permission = "users.manage"
	PermManagePosts    Permission = "posts.manage"
	PermManageProjects Permission = "projects.manage"
	PermManageServices Permission = "services.manage"
	PermManageMedia    Permission = "media.manage"
	PermManageContacts Permission = "contacts.manage"
	PermViewAnalytics  Permission = "analytics.view"
)

// PathRule maps a path prefix to a required permission or, when
// Permission is empty, a minimum role level. Rules are evaluated
// top-down and the first matching prefix wins.
type PathRule struct {
	Prefix     string
	Permission Permission
	MinRole    Role
}

// Decision is the outcome of an authorization check.
type Decision int

const (
	// DecisionAllow admits the request.
	DecisionAllow Decision = iota
	// DecisionUnauthenticated denies a protected path with no valid principal.
	DecisionUnauthenticated
	// DecisionUnauthorized denies a valid principal lacking access.
	DecisionUnauthorized
)

// Engine answers authorization questions from static configuration.
// All tables are copied at construction and never mutated afterwards.
type Engine struct {
	grants map[Permission]map[Role]struct{}
	rules  []PathRule
}

// DefaultGrants is the permission table for the admin surface.
func DefaultGrants() map[Permission][]Role {
	return map[Permission][]Role{
		PermManageSystem:   {RoleSuperAdmin},
		PermManageUsers:    {RoleSuperAdmin, RoleAdmin},
		PermManagePosts:    {RoleSuperAdmin, RoleAdmin, RoleEditor},
		PermManageProjects: {RoleSuperAdmin, RoleAdmin, RoleEditor},
		PermManageServices: {RoleSuperAdmin, RoleAdmin},
		PermManageMedia:    {RoleSuperAdmin, RoleAdmin, RoleEditor},
		PermManageContacts: {RoleSuperAdmin, RoleAdmin},
		PermViewAnalytics:  {RoleSuperAdmin, RoleAdmin, RoleViewer},
	}
}

// DefaultRules is the routing table for the gated surfaces. The two
// catch-all entries keep any admin path from reaching the open
// fallthrough at the bottom of Authorize.
func DefaultRules() []PathRule {
	return []PathRule{
		{Prefix: "/api/admin/system", Permission: PermManageSystem},
		{Prefix: "/admin/system", Permission: PermManageSystem},
		{Prefix: "/api/admin/users", Permission: PermManageUsers},
		{Prefix: "/admin/users", Permission: PermManageUsers},
		{Prefix: "/api/admin/posts", Permission: PermManagePosts},
		{Prefix: "/admin/posts", Permission: PermManagePosts},
		{Prefix: "/api/admin/projects", Permission: PermManageProjects},
		{Prefix: "/api/admin/services", Permission: PermManageServices},
		{Prefix: "/api/admin/media", Permission: PermManageMedia},
		{Prefix: "/api/admin/contacts", Permission: PermManageContacts},
		{Prefix: "/admin/contacts", Permission: PermManageContacts},
		{Prefix: "/api/admin/analytics", Permission: PermViewAnalytics},
		{Prefix: "/api/admin", MinRole: RoleViewer},
		{Prefix: "/admin", MinRole: RoleViewer},
	}
}

// NewEngine builds an engine from the default grants and the supplied rules.
func NewEngine(rules []PathRule) *Engine {
	return NewEngineWithGrants(DefaultGrants(), rules)
}

// NewEngineWithGrants builds an engine from an explicit permission table.
func NewEngineWithGrants(grants map[Permission][]Role, rules []PathRule) *Engine {
	frozen := make(map[Permission]map[Role]struct{}, len(grants))
	for perm, roles := range grants {
		set := make(map[Role]struct{}, len(roles))
		for _, role := range roles {
			set[role] = struct{}{}
		}
		frozen[perm] = set
	}
	copied := make([]PathRule, len(rules))
	copy(copied, rules)
	return &Engine{grants: frozen, rules: copied}
}

// HasPermission reports exact membership of role in the permission's
// allow list. Hierarchy level plays no part here.
func (e *Engine) HasPermission(role Role, perm Permission) bool {
	set, ok := e.grants[perm]
	if !ok {
		return false
	}
	_, ok = set[role]
	return ok
}

// HasRoleLevel reports whether role sits at or above required in the
// hierarchy. Used for coarse gating where no single capability applies.
func (e *Engine) HasRoleLevel(role, required Role) bool {
	return role.Level() >= required.Level()
}

// Authorize evaluates the path rules for the principal. A nil principal
// is denied on any matched rule. Paths matching no rule are admitted;
// the catch-all rules in DefaultRules make that fallthrough unreachable
// under the admin prefixes.
func (e *Engine) Authorize(p *Principal, path string) Decision {
	for _, rule := range e.rules {
		if !strings.HasPrefix(path, rule.Prefix) {
			continue
		}
		if p == nil {
			return DecisionUnauthenticated
		}
		if rule.Permission != "" {
			if e.HasPermission(p.Role, rule.Permission) {
				return DecisionAllow
			}
			return DecisionUnauthorized
		}
		if e.HasRoleLevel(p.Role, rule.MinRole) {
			return DecisionAllow
		}
		return DecisionUnauthorized
	}
	return DecisionAllow
}
