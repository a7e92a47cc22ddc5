package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitEnforcer_RoutePolicy(t *testing.T) {
	enforcer, err := InitEnforcer()
	require.NoError(t, err)

	tests := []struct {
		role   string
		path   string
		method string
		want   bool
	}{
		{RoleUser, "/api/todos", "GET", true},
		{RoleUser, "/api/todos/7b7c", "PATCH", true},
		{RoleUser, "/api/canvases/c1/items/i1", "DELETE", true},
		{RoleUser, "/api/todos", "OPTIONS", false},
		{RoleUser, "/admin/users", "GET", false},
		{RoleAdmin, "/admin/users", "GET", true},
		{RoleAdmin, "/admin/users/u1/roles", "PUT", true},
		{RoleAdmin, "/admin/users/u1", "DELETE", false},
		{RoleAdmin, "/api/projects", "POST", true},
		{"GUEST", "/api/todos", "GET", false},
	}

	for _, tt := range tests {
		t.Run(tt.role+" "+tt.method+" "+tt.path, func(t *testing.T) {
			allowed, err := enforcer.Enforce(tt.role, tt.path, tt.method)
			require.NoError(t, err)
			assert.Equal(t, tt.want, allowed)
		})
	}
}

func TestIsKnownRole(t *testing.T) {
	assert.True(t, IsKnownRole(RoleUser))
	assert.True(t, IsKnownRole(RoleAdmin))
	assert.False(t, IsKnownRole("user"))
	assert.False(t, IsKnownRole(""))
}
