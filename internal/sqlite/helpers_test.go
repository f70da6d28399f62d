package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/projectsteps/pkg/types"
)

const (
	ts1 = "2026-01-01T10:00:00Z"
	ts2 = "2026-01-02T10:00:00Z"
	ts3 = "2026-01-03T10:00:00Z"
)

// openTestStore opens a fresh store in a temp dir and closes it on cleanup.
func openTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// buildLegacyStore creates a store file stamped at generation gen by running
// only the migrations up to gen, the way an older build would have left it.
func buildLegacyStore(t *testing.T, path string, gen int) {
	t.Helper()
	ctx := context.Background()

	db, err := sql.Open("sqlite", path+dsnPragmas)
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	c := newConn(db, zap.NewNop(), 0)
	require.NoError(t, ensureLedger(ctx, c))
	_, err = applyMigrations(ctx, c, 0, defaultMigrations[:gen])
	require.NoError(t, err)
}

// rawExec runs a statement directly against a store file.
func rawExec(t *testing.T, path, stmt string, args ...any) {
	t.Helper()
	db, err := sql.Open("sqlite", path+dsnPragmas)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(stmt, args...)
	require.NoError(t, err)
}

// columnsOf reads a table's columns through the store's guard.
func columnsOf(t *testing.T, s *Store, table string) []string {
	t.Helper()
	var cols []string
	err := s.guard.do(context.Background(), func(ctx context.Context, c *conn) error {
		var err error
		cols, err = tableColumns(ctx, c, table)
		return err
	})
	require.NoError(t, err)
	return cols
}

func newProject(id, createdAt string) types.Project {
	return types.Project{
		ID:        id,
		Name:      "Project " + id,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
		Gradient:  "linear-gradient(#000, #fff)",
	}
}

func newStep(id, projectID string, order int) types.Step {
	return types.Step{
		ID:         id,
		ProjectID:  projectID,
		Title:      "Step " + id,
		OrderIndex: order,
		CreatedAt:  ts1,
		UpdatedAt:  ts1,
	}
}

func newNote(id, projectID, createdAt string) types.Note {
	return types.Note{
		ID:        id,
		ProjectID: projectID,
		Title:     "Note " + id,
		Content:   "<p>" + id + "</p>",
		PlainText: id,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func newImage(id string, owner types.Owner, createdAt string) types.ImageAttachment {
	return types.ImageAttachment{
		ID:          id,
		FilePath:    "/images/" + id + ".png",
		Filename:    id + ".png",
		ContentType: "image/png",
		Owner:       owner,
		CreatedAt:   createdAt,
	}
}
