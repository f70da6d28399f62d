package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/projectsteps/pkg/types"
)

// MemoryPath opens a private in-memory store, mostly for tests.
const MemoryPath = ":memory:"

const dsnPragmas = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// Compile-time interface check.
var _ types.Store = (*Store)(nil)

// Store is an open projectsteps store. All repositories share one
// connection behind a single guard.
type Store struct {
	guard   *connGuard
	path    string
	log     *zap.Logger
	created bool
	applied []int

	projects *projectsTable
	steps    *stepsTable
	notes    *notesTable
	images   *imagesTable
}

// Option configures Open.
type Option func(*options)

type options struct {
	logger     *zap.Logger
	slowQuery  time.Duration
	migrations []Migration
}

// WithLogger sets the logger used for lifecycle, migration and slow query
// messages. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSlowQueryThreshold sets the duration above which a statement is
// logged as slow. Zero disables slow query logging.
func WithSlowQueryThreshold(d time.Duration) Option {
	return func(o *options) { o.slowQuery = d }
}

// withMigrations replaces the migration table. Tests only.
func withMigrations(m []Migration) Option {
	return func(o *options) { o.migrations = m }
}

// Open opens the store file at path, creating it if needed.
//
// A file that did not exist before is created at the latest schema and
// stamped with the latest generation directly. An existing file is brought
// up to date by running only the migrations above its recorded generation.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("open store: empty path")
	}
	// The driver splits the DSN at the first '?'.
	if strings.ContainsRune(path, '?') {
		return nil, fmt.Errorf("%w: store path %q must not contain '?'", types.ErrInvalidConfig, path)
	}

	o := options{
		logger:     zap.NewNop(),
		slowQuery:  defaultSlowQueryThreshold,
		migrations: defaultMigrations,
	}
	for _, opt := range opts {
		opt(&o)
	}

	isNew := path == MemoryPath
	if !isNew {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("open store: create parent dir: %w", err)
		}
		_, err := os.Stat(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			isNew = true
		case err != nil:
			return nil, fmt.Errorf("open store: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+dsnPragmas)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// One connection, kept open for the life of the store. An in-memory
	// database lives exactly as long as its connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}

	guard := newConnGuard(newConn(db, o.logger, o.slowQuery))
	s := &Store{
		guard:    guard,
		path:     path,
		log:      o.logger,
		created:  isNew,
		projects: &projectsTable{guard: guard},
		steps:    &stepsTable{guard: guard},
		notes:    &notesTable{guard: guard},
		images:   &imagesTable{guard: guard},
	}

	if err := s.bootstrap(ctx, o.migrations); err != nil {
		_ = guard.close()
		return nil, err
	}
	return s, nil
}

// bootstrap reads the ledger and either creates the full schema (new
// store) or migrates forward from the recorded generation.
func (s *Store) bootstrap(ctx context.Context, migrations []Migration) error {
	return s.guard.do(ctx, func(ctx context.Context, c *conn) error {
		if err := ensureLedger(ctx, c); err != nil {
			return err
		}
		current, err := getVersion(ctx, c)
		if err != nil {
			return err
		}
		s.log.Info("opened store",
			zap.String("path", s.path), zap.Bool("new", s.created), zap.Int("generation", current))

		if s.created {
			latest := maxMigrationVersion(migrations)
			err := c.inTx(ctx, func(h dbHandle) error {
				if err := createInitialSchema(ctx, h); err != nil {
					return err
				}
				return setVersion(ctx, h, latest)
			})
			if err != nil {
				return err
			}
			s.log.Info("created schema", zap.Int("generation", latest))
			return nil
		}

		applied, err := applyMigrations(ctx, c, current, migrations)
		s.applied = applied
		return err
	})
}

// SchemaVersion reports the generation recorded in the ledger.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := s.guard.do(ctx, func(ctx context.Context, c *conn) error {
		v, err := getVersion(ctx, c)
		version = v
		return err
	})
	return version, err
}

// Created reports whether Open created the store file.
func (s *Store) Created() bool { return s.created }

// AppliedMigrations lists the generations migrated through by Open.
func (s *Store) AppliedMigrations() []int {
	out := make([]int, len(s.applied))
	copy(out, s.applied)
	return out
}

// Path is the store file path given to Open.
func (s *Store) Path() string { return s.path }

func (s *Store) Projects() types.ProjectRepository { return s.projects }
func (s *Store) Steps() types.StepRepository       { return s.steps }
func (s *Store) Notes() types.NoteRepository       { return s.notes }
func (s *Store) Images() types.ImageRepository     { return s.images }

// Close waits for any in-flight operation and closes the connection.
func (s *Store) Close() error {
	if s == nil || s.guard == nil {
		return nil
	}
	return s.guard.close()
}
