package bunx

import "github.com/google/uuid"

// NewUUIDv7 returns a time-ordered UUID for primary keys. IDs are generated in
// Go so the schema does not depend on gen_random_uuid() and works on SQLite.
func NewUUIDv7() string {
	return uuid.Must(uuid.NewV7()).String()
}
