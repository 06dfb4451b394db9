package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasPermissionIsExactMembership(t *testing.T) {
	e := NewEngine(DefaultRules())

	assert.True(t, e.HasPermission(RoleEditor, PermManagePosts))
	assert.True(t, e.HasPermission(RoleAdmin, PermManageUsers))
	assert.True(t, e.HasPermission(RoleSuperAdmin, PermManageUsers))

	// Level never substitutes for membership.
	assert.False(t, e.HasPermission(RoleEditor, PermManageUsers))
	assert.False(t, e.HasPermission(RoleEditor, PermManageContacts))

	// The table is not monotonic by design: VIEWER reads analytics,
	// EDITOR does not.
	assert.True(t, e.HasPermission(RoleViewer, PermViewAnalytics))
	assert.False(t, e.HasPermission(RoleEditor, PermViewAnalytics))

	assert.False(t, e.HasPermission(RoleSuperAdmin, Permission("no.such.permission")))
}

func TestHasRoleLevelIsMonotonic(t *testing.T) {
	e := NewEngine(nil)
	roles := Roles()
	for i, r1 := range roles {
		for j, r2 := range roles {
			got := e.HasRoleLevel(r1, r2)
			assert.Equal(t, i >= j, got, "level(%s) vs level(%s)", r1, r2)
		}
	}
}

func TestAuthorizeRouting(t *testing.T) {
	e := NewEngine(DefaultRules())
	super := &Principal{ID: 1, Role: RoleSuperAdmin}
	editor := &Principal{ID: 2, Role: RoleEditor}
	viewer := &Principal{ID: 3, Role: RoleViewer}
	user := &Principal{ID: 4, Role: RoleUser}

	cases := []struct {
		name string
		p    *Principal
		path string
		want Decision
	}{
		{"super admin manages users", super, "/api/admin/users/5", DecisionAllow},
		{"editor denied on users", editor, "/api/admin/users/5", DecisionUnauthorized},
		{"editor manages posts", editor, "/api/admin/posts", DecisionAllow},
		{"viewer reads analytics", viewer, "/api/admin/analytics/summary", DecisionAllow},
		{"editor denied analytics", editor, "/api/admin/analytics/summary", DecisionUnauthorized},
		{"viewer hits admin catch-all", viewer, "/api/admin/dashboard", DecisionAllow},
		{"plain user below catch-all level", user, "/api/admin/dashboard", DecisionUnauthorized},
		{"system path needs super admin", super, "/admin/system/events", DecisionAllow},
		{"admin denied on system", &Principal{ID: 5, Role: RoleAdmin}, "/admin/system/events", DecisionUnauthorized},
		{"anonymous denied on any admin path", nil, "/admin/anything", DecisionUnauthenticated},
		{"anonymous denied on api admin", nil, "/api/admin/posts", DecisionUnauthenticated},
		{"unmatched path admitted", nil, "/blog/hello-world", DecisionAllow},
		{"unmatched path admitted for users too", user, "/contact", DecisionAllow},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, e.Authorize(tc.p, tc.path))
		})
	}
}

func TestFirstMatchingRuleWins(t *testing.T) {
	e := NewEngine([]PathRule{
		{Prefix: "/api/admin/users", Permission: PermManageUsers},
		{Prefix: "/api/admin", MinRole: RoleViewer},
	})
	viewer := &Principal{ID: 1, Role: RoleViewer}

	// The specific rule shadows the catch-all for its prefix.
	assert.Equal(t, DecisionUnauthorized, e.Authorize(viewer, "/api/admin/users"))
	assert.Equal(t, DecisionAllow, e.Authorize(viewer, "/api/admin/posts"))
}
