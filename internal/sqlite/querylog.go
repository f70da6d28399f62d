package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const defaultSlowQueryThreshold = 100 * time.Millisecond

// dbHandle is the statement surface shared by the connection and by open
// transactions. Repository code only ever sees this interface.
type dbHandle interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queryLogger wraps a dbHandle and logs statements that exceed threshold.
type queryLogger struct {
	inner     dbHandle
	log       *zap.Logger
	threshold time.Duration
}

func (q *queryLogger) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	result, err := q.inner.ExecContext(ctx, query, args...)
	q.observe(query, time.Since(start))
	return result, err
}

func (q *queryLogger) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := q.inner.QueryContext(ctx, query, args...)
	q.observe(query, time.Since(start))
	return rows, err
}

func (q *queryLogger) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := q.inner.QueryRowContext(ctx, query, args...)
	q.observe(query, time.Since(start))
	return row
}

func (q *queryLogger) observe(query string, d time.Duration) {
	if q.threshold > 0 && d >= q.threshold {
		q.log.Warn("slow query",
			zap.Duration("took", d.Round(time.Millisecond)),
			zap.String("query", truncateQuery(query)),
		)
	}
}

func truncateQuery(s string) string {
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}

// conn is the single shared connection. It is only reached through a
// connGuard, which serializes every caller.
type conn struct {
	queryLogger
	db *sql.DB
}

func newConn(db *sql.DB, log *zap.Logger, threshold time.Duration) *conn {
	return &conn{
		queryLogger: queryLogger{inner: db, log: log, threshold: threshold},
		db:          db,
	}
}

// inTx runs fn inside a transaction. The transaction commits only if fn
// returns nil; any error or panic rolls it back.
func (c *conn) inTx(ctx context.Context, fn func(h dbHandle) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	h := &queryLogger{inner: tx, log: c.log, threshold: c.threshold}
	if err := fn(h); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			c.log.Warn("rollback failed", zap.Error(rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
