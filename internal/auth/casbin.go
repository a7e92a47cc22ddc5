package auth

import (
	_ "embed"
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"
)

const (
	// RoleUser is assigned to every account at registration.
	RoleUser = "USER"
	// RoleAdmin grants the /admin routes in addition to everything USER can do.
	RoleAdmin = "ADMIN"
)

// KnownRoles lists the roles the policy understands.
var KnownRoles = []string{RoleUser, RoleAdmin}

//go:embed model.conf
var casbinModelContent string

//go:embed policy.csv
var casbinPolicyContent string

// InitEnforcer creates a Casbin enforcer from the embedded RBAC model and route policy.
// The policy is static, so the enforcer is only ever read after construction.
func InitEnforcer() (casbin.IEnforcer, error) {
	m, err := model.NewModelFromString(casbinModelContent)
	if err != nil {
		return nil, fmt.Errorf("parse casbin model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m, stringadapter.NewAdapter(casbinPolicyContent))
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}
	enforcer.EnableAutoSave(false)

	return enforcer, nil
}

// IsKnownRole reports whether role is defined by the policy.
func IsKnownRole(role string) bool {
	for _, r := range KnownRoles {
		if r == role {
			return true
		}
	}
	return false
}
