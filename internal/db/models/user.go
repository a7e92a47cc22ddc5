package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/uptrace/bun"
)

// User is an account holder. Every owned resource row references a user.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID                string    `bun:"id,pk,type:uuid" json:"id"`
	Email             string    `bun:"email,notnull,unique" json:"email"`
	Name              string    `bun:"name,notnull,default:''" json:"name"`
	Bio               string    `bun:"bio,notnull,default:''" json:"bio"`
	PasswordHash      string    `bun:"password_hash,notnull" json:"-"`
	Roles             RoleList  `bun:"roles,type:jsonb,notnull" json:"roles"`
	RefreshGeneration int64     `bun:"refresh_generation,notnull,default:0" json:"-"`
	Version           int64     `bun:"version,notnull,default:1" json:"version"`
	CreatedAt         time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt         time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`
}

// RoleList is the set of role names granted to a user, stored as a JSON array.
type RoleList []string

// Has reports whether role is in the list.
func (r RoleList) Has(role string) bool {
	return slices.Contains(r, role)
}

// Scan implements sql.Scanner. Postgres returns jsonb as []byte, SQLite as string.
func (r *RoleList) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*r = RoleList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("failed to scan RoleList: unexpected type %T", value)
	}
	var roles []string
	if err := json.Unmarshal(raw, &roles); err != nil {
		return fmt.Errorf("failed to scan RoleList: %w", err)
	}
	*r = roles
	return nil
}

// Value implements driver.Valuer.
func (r RoleList) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(r))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
