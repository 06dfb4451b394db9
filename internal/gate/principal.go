// Package gate implements the request gate in front of the admin, auth
// and contact surfaces: identity resolution from a signed session token,
// per-client rate limiting, role based access decisions and response
// decoration. Handlers mounted behind the gate always observe an
// admitted, authorized request.
package gate

import "context"

// Role names an access tier. Tiers form a strict total order fixed at
// startup; permissions are granted to explicit role sets independently
// of that order.
type Role string

const (
	RoleUser       Role = "USER"
	RoleViewer     Role = "VIEWER"
	RoleEditor     Role = "EDITOR"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

var roleLevels = map[Role]int{
	RoleUser:       1,
	RoleViewer:     2,
	RoleEditor:     3,
	RoleAdmin:      4,
	RoleSuperAdmin: 5,
}

// Level returns the role's position in the hierarchy, 0 for unknown roles.
func (r Role) Level() int {
	return roleLevels[r]
}

// Known reports whether the role belongs to the configured hierarchy.
func (r Role) Known() bool {
	_, ok := roleLevels[r]
	return ok
}

// Roles lists every configured role in ascending level order.
func Roles() []Role {
	return []Role{RoleUser, RoleViewer, RoleEditor, RoleAdmin, RoleSuperAdmin}
}

// Principal is the resolved identity of an authenticated caller. It is
// never persisted by the gate; the user store is a separate collaborator.
type Principal struct {
	ID            int64
	Role          Role
	EmailVerified bool
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal, nil for anonymous callers.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
