package sqlite

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Migration moves a store to generation Version. Up must be safe to run
// again against a store that already has its changes, so an interrupted
// upgrade can resume from the last stamped generation.
//
// Shipped migrations are never reordered or removed; new ones are appended
// with the next generation number.
type Migration struct {
	Version     int
	Description string
	Up          func(ctx context.Context, h dbHandle) error
}

var defaultMigrations = []Migration{
	{
		Version:     1,
		Description: "create projects and steps",
		Up: execStatements(
			`CREATE TABLE IF NOT EXISTS projects (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				description TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				gradient TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS steps (
				id TEXT PRIMARY KEY,
				project_id TEXT NOT NULL,
				title TEXT NOT NULL,
				description TEXT,
				order_index INTEGER NOT NULL,
				completed INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
		),
	},
	{
		Version:     2,
		Description: "add projects current step",
		Up:          addColumn("projects", "current_step_id", "TEXT"),
	},
	{
		Version:     3,
		Description: "create notes",
		Up: execStatements(`CREATE TABLE IF NOT EXISTS notes (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			plain_text TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
		)`),
	},
	{
		Version:     4,
		Description: "add steps plain text",
		Up:          addColumn("steps", "plain_text", "TEXT"),
	},
	{
		Version:     5,
		Description: "create image attachments",
		Up:          execStatements(createImageAttachments),
	},
	{
		Version:     6,
		Description: "add listing indexes",
		Up:          execStatements(indexDDL...),
	},
	{
		Version:     7,
		Description: "add notes important flag",
		Up:          addColumn("notes", "important", "INTEGER NOT NULL DEFAULT 0"),
	},
}

// DefaultMigrations returns a copy of the shipped migration table.
func DefaultMigrations() []Migration {
	out := make([]Migration, len(defaultMigrations))
	copy(out, defaultMigrations)
	return out
}

// LatestGeneration is the generation a fully upgraded store is stamped with.
func LatestGeneration() int {
	return maxMigrationVersion(defaultMigrations)
}

// applyMigrations runs, in ascending order, every migration whose version
// is above current. Each migration commits together with its ledger stamp,
// so a failure leaves the store at the last completed generation. It
// returns the versions it applied.
func applyMigrations(ctx context.Context, c *conn, current int, migrations []Migration) ([]int, error) {
	ordered, err := orderMigrations(migrations)
	if err != nil {
		return nil, err
	}

	latest := maxMigrationVersion(ordered)
	if current > latest {
		c.log.Warn("store generation is newer than this build",
			zap.Int("generation", current), zap.Int("latest", latest))
		return nil, nil
	}
	if current == latest {
		c.log.Info("schema up to date", zap.Int("generation", current))
		return nil, nil
	}

	c.log.Info("applying migrations", zap.Int("from", current), zap.Int("to", latest))

	var applied []int
	for _, m := range ordered {
		if m.Version <= current {
			continue
		}
		err := c.inTx(ctx, func(h dbHandle) error {
			if err := m.Up(ctx, h); err != nil {
				return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
			}
			return setVersion(ctx, h, m.Version)
		})
		if err != nil {
			return applied, err
		}
		applied = append(applied, m.Version)
		c.log.Info("applied migration",
			zap.Int("generation", m.Version), zap.String("description", m.Description))
	}
	return applied, nil
}

// orderMigrations returns a sorted copy, rejecting non-positive or
// duplicate versions.
func orderMigrations(migrations []Migration) ([]Migration, error) {
	ordered := make([]Migration, len(migrations))
	copy(ordered, migrations)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Version < ordered[j].Version })

	for i, m := range ordered {
		if m.Version <= 0 {
			return nil, fmt.Errorf("migration %q: version must be positive", m.Description)
		}
		if m.Up == nil {
			return nil, fmt.Errorf("migration %d: missing Up", m.Version)
		}
		if i > 0 && ordered[i-1].Version == m.Version {
			return nil, fmt.Errorf("migration %d: duplicate version", m.Version)
		}
	}
	return ordered, nil
}

func maxMigrationVersion(migrations []Migration) int {
	max := 0
	for _, m := range migrations {
		if m.Version > max {
			max = m.Version
		}
	}
	return max
}

// execStatements builds an Up that runs each statement in order.
func execStatements(stmts ...string) func(ctx context.Context, h dbHandle) error {
	return func(ctx context.Context, h dbHandle) error {
		for _, stmt := range stmts {
			if _, err := h.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("exec %q: %w", truncateQuery(stmt), err)
			}
		}
		return nil
	}
}

// addColumn builds an Up that adds a column unless it is already there.
func addColumn(table, column, definition string) func(ctx context.Context, h dbHandle) error {
	return func(ctx context.Context, h dbHandle) error {
		exists, err := columnExists(ctx, h, table, column)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		if _, err := h.ExecContext(ctx, `ALTER TABLE `+table+` ADD COLUMN `+column+` `+definition); err != nil {
			return fmt.Errorf("add %s.%s: %w", table, column, err)
		}
		return nil
	}
}

func columnExists(ctx context.Context, h dbHandle, table, column string) (bool, error) {
	columns, err := tableColumns(ctx, h, table)
	if err != nil {
		return false, err
	}
	for _, name := range columns {
		if name == column {
			return true, nil
		}
	}
	return false, nil
}

// tableColumns lists a table's column names in declaration order. A missing
// table yields no columns.
func tableColumns(ctx context.Context, h dbHandle, table string) ([]string, error) {
	rows, err := h.QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, fmt.Errorf("query table info %s: %w", table, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table info %s: %w", table, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table info %s: %w", table, err)
	}
	return names, nil
}
