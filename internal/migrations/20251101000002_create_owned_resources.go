package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/KshitijThareja/Orbyq/internal/db/models"
)

func init() {
	Migrations.MustRegister(up_20251101000002, down_20251101000002)
}

const ownerFK = `("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`

// ownedTable describes one owned resource table. Order matters: referenced
// tables are created first and dropped last.
type ownedTable struct {
	name  string
	model any
	fks   []string
}

func ownedTables() []ownedTable {
	return []ownedTable{
		{name: "projects", model: (*models.Project)(nil), fks: []string{ownerFK}},
		{name: "canvases", model: (*models.Canvas)(nil), fks: []string{ownerFK}},
		{name: "canvas_items", model: (*models.CanvasItem)(nil), fks: []string{
			ownerFK,
			`("canvas_id") REFERENCES "canvases" ("id") ON DELETE CASCADE`,
		}},
		{name: "documents", model: (*models.Document)(nil), fks: []string{ownerFK}},
		{name: "mood_board_items", model: (*models.MoodBoardItem)(nil), fks: []string{ownerFK}},
		{name: "todos", model: (*models.Todo)(nil), fks: []string{ownerFK}},
		{name: "tasks", model: (*models.Task)(nil), fks: []string{
			ownerFK,
			`("project_id") REFERENCES "projects" ("id") ON DELETE SET NULL`,
		}},
		{name: "activity_logs", model: (*models.ActivityLog)(nil), fks: []string{ownerFK}},
		{name: "ideas", model: (*models.Idea)(nil), fks: []string{ownerFK}},
	}
}

func up_20251101000002(ctx context.Context, db *bun.DB) error {
	for _, table := range ownedTables() {
		fmt.Printf(" [up] creating %s table...", table.name)
		q := db.NewCreateTable().
			Model(table.model).
			IfNotExists()
		for _, fk := range table.fks {
			q = q.ForeignKey(fk)
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}

		// Every owner-scoped list filters on user_id.
		idx := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_user_id ON %s(user_id)`, table.name, table.name)
		if _, err := db.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("failed to create %s user_id index: %w", table.name, err)
		}
		fmt.Println(" OK")
	}

	for _, stmt := range []string{
		`CREATE INDEX IF NOT EXISTS idx_canvas_items_canvas_id ON canvas_items(canvas_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_project_id ON tasks(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_logs_created_at ON activity_logs(user_id, created_at)`,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

func down_20251101000002(ctx context.Context, db *bun.DB) error {
	tables := ownedTables()
	for i := len(tables) - 1; i >= 0; i-- {
		fmt.Printf(" [down] dropping %s table...", tables[i].name)
		_, err := db.NewDropTable().
			Model(tables[i].model).
			IfExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop %s table: %w", tables[i].name, err)
		}
		fmt.Println(" OK")
	}
	return nil
}
