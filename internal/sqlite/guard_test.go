package sqlite

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/projectsteps/pkg/types"
)

func TestGuard_RecoversPanicAndReleasesLock(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	err := s.guard.do(ctx, func(ctx context.Context, c *conn) error {
		panic("kaboom")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrOperationPanicked)
	assert.Contains(t, err.Error(), "kaboom")

	// The guard is free again.
	_, err = s.Projects().List(ctx)
	assert.NoError(t, err)
}

func TestGuard_PanicInTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	err := s.guard.tx(ctx, func(ctx context.Context, h dbHandle) error {
		_, err := h.ExecContext(ctx,
			`INSERT INTO projects (id, name, created_at, updated_at, gradient) VALUES ('P1', 'x', ?, ?, 'g')`, ts1, ts1)
		require.NoError(t, err)
		panic("halfway")
	})
	assert.ErrorIs(t, err, types.ErrOperationPanicked)

	_, err = s.Projects().Get(ctx, "P1")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestGuard_CancelledContextDoesNotAbortStartedOperation(t *testing.T) {
	s := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	err := s.guard.do(ctx, func(opCtx context.Context, c *conn) error {
		cancel()
		_, err := c.ExecContext(opCtx,
			`INSERT INTO projects (id, name, created_at, updated_at, gradient) VALUES ('P1', 'x', ?, ?, 'g')`, ts1, ts1)
		return err
	})
	require.NoError(t, err)

	_, err = s.Projects().Get(context.Background(), "P1")
	assert.NoError(t, err)
}

func TestGuard_ConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.Projects().Create(ctx, newProject("P1", ts1)))

	const workers = 8
	const perWorker = 10

	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id := fmt.Sprintf("S%d-%d", w, i)
				if err := s.Steps().Create(ctx, newStep(id, "P1", i)); err != nil {
					errs <- err
				}
				if _, err := s.Steps().ListByProject(ctx, "P1"); err != nil {
					errs <- err
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent operation failed: %v", err)
	}

	steps, err := s.Steps().ListByProject(ctx, "P1")
	require.NoError(t, err)
	assert.Len(t, steps, workers*perWorker)
}

func TestGuard_CloseWaitsForHolder(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- s.guard.do(ctx, func(ctx context.Context, c *conn) error {
			close(started)
			<-release
			_, err := c.ExecContext(ctx, `SELECT 1`)
			return err
		})
	}()
	<-started

	closed := make(chan error, 1)
	go func() { closed <- s.Close() }()

	close(release)
	assert.NoError(t, <-done, "holder finished on an open connection")
	assert.NoError(t, <-closed)
}
