package sqlite

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/projectsteps/pkg/types"
)

// connGuard gives one caller at a time exclusive use of the connection.
// Reads and writes are treated alike; there is no reader/writer split.
//
// The lock is always released on return, including when the guarded
// function panics: the panic is recovered and reported as
// ErrOperationPanicked, so one failed caller never wedges the others.
type connGuard struct {
	mu     sync.Mutex
	conn   *conn
	closed bool
}

func newConnGuard(c *conn) *connGuard {
	return &connGuard{conn: c}
}

// do runs fn while holding the connection. Once fn has started it is not
// cancelled by ctx.
func (g *connGuard) do(ctx context.Context, fn func(ctx context.Context, c *conn) error) (err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return types.ErrStoreClosed
	}

	defer func() {
		if r := recover(); r != nil {
			g.conn.log.Error("recovered panic in store operation", zap.Any("panic", r))
			err = fmt.Errorf("%w: %v", types.ErrOperationPanicked, r)
		}
	}()

	return fn(context.WithoutCancel(ctx), g.conn)
}

// tx runs fn inside a transaction while holding the connection.
func (g *connGuard) tx(ctx context.Context, fn func(ctx context.Context, h dbHandle) error) error {
	return g.do(ctx, func(ctx context.Context, c *conn) error {
		return c.inTx(ctx, func(h dbHandle) error {
			return fn(ctx, h)
		})
	})
}

// close waits for the current holder, then closes the connection.
// Idempotent.
func (g *connGuard) close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil
	}
	g.closed = true
	return g.conn.db.Close()
}
