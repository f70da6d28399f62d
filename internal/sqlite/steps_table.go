// This file implements the steps repository, including the all-or-nothing
// batch update used when a project's steps are reordered.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/projectsteps/pkg/types"
)

var _ types.StepRepository = (*stepsTable)(nil)

const stepColumns = `id, project_id, title, description, plain_text, order_index, completed, created_at, updated_at`

type stepsTable struct {
	guard *connGuard
}

func scanStep(row rowScanner) (types.Step, error) {
	var (
		s           types.Step
		description sql.NullString
		plainText   sql.NullString
		completed   int
	)
	if err := row.Scan(&s.ID, &s.ProjectID, &s.Title, &description, &plainText,
		&s.OrderIndex, &completed, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return types.Step{}, err
	}
	s.Description = description.String
	s.PlainText = optionalString(plainText)
	s.Completed = completed != 0
	return s, nil
}

func (t *stepsTable) list(ctx context.Context, query string, args ...any) ([]types.Step, error) {
	out := []types.Step{}
	err := t.guard.do(ctx, func(ctx context.Context, c *conn) error {
		rows, err := c.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("query steps: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			s, err := scanStep(rows)
			if err != nil {
				return fmt.Errorf("scan step: %w", err)
			}
			out = append(out, s)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListAll returns every step, grouped by project and ordered by order index.
func (t *stepsTable) ListAll(ctx context.Context) ([]types.Step, error) {
	return t.list(ctx, `SELECT `+stepColumns+` FROM steps ORDER BY project_id, order_index`)
}

// ListByProject returns the project's steps by ascending order index. Ties
// fall back to storage order.
func (t *stepsTable) ListByProject(ctx context.Context, projectID string) ([]types.Step, error) {
	return t.list(ctx, `SELECT `+stepColumns+` FROM steps WHERE project_id = ? ORDER BY order_index`, projectID)
}

func (t *stepsTable) Get(ctx context.Context, id string) (types.Step, error) {
	if id == "" {
		return types.Step{}, types.ErrInvalidID
	}
	var s types.Step
	err := t.guard.do(ctx, func(ctx context.Context, c *conn) error {
		var err error
		s, err = scanStep(c.QueryRowContext(ctx, `SELECT `+stepColumns+` FROM steps WHERE id = ?`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("step %s: %w", id, types.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get step %s: %w", id, err)
		}
		return nil
	})
	return s, err
}

func (t *stepsTable) Create(ctx context.Context, s types.Step) error {
	if s.ID == "" {
		return types.ErrInvalidID
	}
	return t.guard.do(ctx, func(ctx context.Context, c *conn) error {
		_, err := c.ExecContext(ctx,
			`INSERT INTO steps (`+stepColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.ID, s.ProjectID, s.Title, s.Description, sentinelString(s.PlainText),
			s.OrderIndex, boolToInt(s.Completed), s.CreatedAt, s.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert step %s: %w", s.ID, err)
		}
		return nil
	})
}

func (t *stepsTable) Update(ctx context.Context, s types.Step) error {
	if s.ID == "" {
		return types.ErrInvalidID
	}
	return t.guard.do(ctx, func(ctx context.Context, c *conn) error {
		return updateStep(ctx, c, s)
	})
}

// UpdateBatch applies every update in one transaction. If any update fails,
// including one whose step does not exist, nothing is changed.
func (t *stepsTable) UpdateBatch(ctx context.Context, steps []types.Step) error {
	if len(steps) == 0 {
		return nil
	}
	for _, s := range steps {
		if s.ID == "" {
			return types.ErrInvalidID
		}
	}
	return t.guard.tx(ctx, func(ctx context.Context, h dbHandle) error {
		for i, s := range steps {
			if err := updateStep(ctx, h, s); err != nil {
				return fmt.Errorf("batch update %d of %d: %w", i+1, len(steps), err)
			}
		}
		return nil
	})
}

// updateStep writes the mutable step columns. project_id and created_at are
// never changed.
func updateStep(ctx context.Context, h dbHandle, s types.Step) error {
	res, err := h.ExecContext(ctx,
		`UPDATE steps SET title = ?, description = ?, plain_text = ?, order_index = ?, completed = ?, updated_at = ? WHERE id = ?`,
		s.Title, s.Description, sentinelString(s.PlainText), s.OrderIndex, boolToInt(s.Completed), s.UpdatedAt, s.ID,
	)
	if err != nil {
		return fmt.Errorf("update step %s: %w", s.ID, err)
	}
	return expectAffected(res, "step", s.ID)
}

// Delete removes the step and its attachment rows.
func (t *stepsTable) Delete(ctx context.Context, id string) error {
	_, err := t.DeleteWithAttachments(ctx, id)
	return err
}

// DeleteWithAttachments removes the step and its attachment rows in one
// transaction and returns the attachment rows it removed.
func (t *stepsTable) DeleteWithAttachments(ctx context.Context, id string) ([]types.ImageAttachment, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	var removed []types.ImageAttachment
	err := t.guard.tx(ctx, func(ctx context.Context, h dbHandle) error {
		var err error
		if removed, err = deleteAttachmentsOf(ctx, h, types.StepOwner(id)); err != nil {
			return err
		}
		if _, err := h.ExecContext(ctx, `DELETE FROM steps WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete step %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}
