package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// The ledger records the schema generation. One row is written per stamped
// generation; the highest row is authoritative.
const createLedgerTable = `CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
)`

func ensureLedger(ctx context.Context, h dbHandle) error {
	if _, err := h.ExecContext(ctx, createLedgerTable); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}
	return nil
}

// getVersion returns the recorded generation, or 0 for a store that has
// never been stamped.
func getVersion(ctx context.Context, h dbHandle) (int, error) {
	var version int
	err := h.QueryRowContext(ctx,
		`SELECT version FROM schema_version ORDER BY version DESC LIMIT 1`,
	).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}

// setVersion stamps version, replacing an existing row for the same value.
// It does not check that version exceeds the current one; the migration
// engine only ever stamps upward.
func setVersion(ctx context.Context, h dbHandle, version int) error {
	if _, err := h.ExecContext(ctx,
		`INSERT OR REPLACE INTO schema_version (version) VALUES (?)`, version,
	); err != nil {
		return fmt.Errorf("set schema version %d: %w", version, err)
	}
	return nil
}
