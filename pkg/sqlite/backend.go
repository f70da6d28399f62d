// Package sqlite provides the public entry point for opening a projectsteps
// store backed by an SQLite file. Implementation details stay internal.
package sqlite

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/projectsteps/internal/sqlite"
	"github.com/mesh-intelligence/projectsteps/pkg/types"
)

// Option configures Open.
type Option = sqlite.Option

// WithLogger sets the logger for lifecycle, migration and slow query
// messages.
func WithLogger(l *zap.Logger) Option { return sqlite.WithLogger(l) }

// WithSlowQueryThreshold sets the slow query logging threshold. Zero
// disables it.
func WithSlowQueryThreshold(d time.Duration) Option { return sqlite.WithSlowQueryThreshold(d) }

// Open opens or creates the store file at path and brings its schema to
// the latest generation.
//
// Example:
//
//	store, err := sqlite.Open(ctx, cfg.DBPath(), sqlite.WithLogger(log))
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
func Open(ctx context.Context, path string, opts ...Option) (types.Store, error) {
	s, err := sqlite.Open(ctx, path, opts...)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// OpenConfig opens the store located by cfg.
func OpenConfig(ctx context.Context, cfg types.Config, log *zap.Logger) (types.Store, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return Open(ctx, cfg.DBPath(), WithLogger(log), WithSlowQueryThreshold(cfg.SlowQueryThreshold()))
}

// LatestGeneration is the schema generation this build writes.
func LatestGeneration() int { return sqlite.LatestGeneration() }
