package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/projectsteps/pkg/types"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// sentinelString writes an absent optional value as "", the encoding
// existing store files use for current_step_id and plain_text.
func sentinelString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// optionalString reads a sentinel-encoded column back. Both NULL and ""
// mean absent.
func optionalString(ns sql.NullString) *string {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	v := ns.String
	return &v
}

// expectAffected turns an UPDATE that matched nothing into ErrNotFound.
func expectAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for %s %s: %w", entity, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, types.ErrNotFound)
	}
	return nil
}
