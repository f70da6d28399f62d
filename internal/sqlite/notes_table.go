// This file implements the notes repository and the per-project important
// note flag.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/projectsteps/pkg/types"
)

var _ types.NoteRepository = (*notesTable)(nil)

const noteColumns = `id, project_id, title, content, plain_text, created_at, updated_at`

type notesTable struct {
	guard *connGuard
}

func scanNote(row rowScanner) (types.Note, error) {
	var n types.Note
	if err := row.Scan(&n.ID, &n.ProjectID, &n.Title, &n.Content, &n.PlainText, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return types.Note{}, err
	}
	return n, nil
}

func (t *notesTable) list(ctx context.Context, query string, args ...any) ([]types.Note, error) {
	out := []types.Note{}
	err := t.guard.do(ctx, func(ctx context.Context, c *conn) error {
		rows, err := c.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("query notes: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			n, err := scanNote(rows)
			if err != nil {
				return fmt.Errorf("scan note: %w", err)
			}
			out = append(out, n)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (t *notesTable) ListAll(ctx context.Context) ([]types.Note, error) {
	return t.list(ctx, `SELECT `+noteColumns+` FROM notes ORDER BY created_at DESC, rowid DESC`)
}

func (t *notesTable) ListByProject(ctx context.Context, projectID string) ([]types.Note, error) {
	return t.list(ctx, `SELECT `+noteColumns+` FROM notes WHERE project_id = ? ORDER BY created_at DESC, rowid DESC`, projectID)
}

func (t *notesTable) Get(ctx context.Context, id string) (types.Note, error) {
	if id == "" {
		return types.Note{}, types.ErrInvalidID
	}
	var n types.Note
	err := t.guard.do(ctx, func(ctx context.Context, c *conn) error {
		var err error
		n, err = scanNote(c.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("note %s: %w", id, types.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get note %s: %w", id, err)
		}
		return nil
	})
	return n, err
}

func (t *notesTable) Create(ctx context.Context, n types.Note) error {
	if n.ID == "" {
		return types.ErrInvalidID
	}
	return t.guard.do(ctx, func(ctx context.Context, c *conn) error {
		_, err := c.ExecContext(ctx,
			`INSERT INTO notes (`+noteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			n.ID, n.ProjectID, n.Title, n.Content, n.PlainText, n.CreatedAt, n.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert note %s: %w", n.ID, err)
		}
		return nil
	})
}

func (t *notesTable) Update(ctx context.Context, n types.Note) error {
	if n.ID == "" {
		return types.ErrInvalidID
	}
	return t.guard.do(ctx, func(ctx context.Context, c *conn) error {
		res, err := c.ExecContext(ctx,
			`UPDATE notes SET title = ?, content = ?, plain_text = ?, updated_at = ? WHERE id = ?`,
			n.Title, n.Content, n.PlainText, n.UpdatedAt, n.ID,
		)
		if err != nil {
			return fmt.Errorf("update note %s: %w", n.ID, err)
		}
		return expectAffected(res, "note", n.ID)
	})
}

// Delete removes the note and its attachment rows.
func (t *notesTable) Delete(ctx context.Context, id string) error {
	_, err := t.DeleteWithAttachments(ctx, id)
	return err
}

// DeleteWithAttachments removes the note and its attachment rows in one
// transaction and returns the attachment rows it removed.
func (t *notesTable) DeleteWithAttachments(ctx context.Context, id string) ([]types.ImageAttachment, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	var removed []types.ImageAttachment
	err := t.guard.tx(ctx, func(ctx context.Context, h dbHandle) error {
		var err error
		if removed, err = deleteAttachmentsOf(ctx, h, types.NoteOwner(id)); err != nil {
			return err
		}
		if _, err := h.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete note %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// Important returns the project's important note, or nil when none is set.
func (t *notesTable) Important(ctx context.Context, projectID string) (*types.Note, error) {
	if projectID == "" {
		return nil, types.ErrInvalidID
	}
	var out *types.Note
	err := t.guard.do(ctx, func(ctx context.Context, c *conn) error {
		n, err := scanNote(c.QueryRowContext(ctx,
			`SELECT `+noteColumns+` FROM notes WHERE project_id = ? AND important = 1 LIMIT 1`, projectID))
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get important note of project %s: %w", projectID, err)
		}
		out = &n
		return nil
	})
	return out, err
}

// SetImportant clears the project's important flag and, unless noteID is
// empty, sets it on noteID. The note must belong to the project.
func (t *notesTable) SetImportant(ctx context.Context, projectID, noteID string) error {
	if projectID == "" {
		return types.ErrInvalidID
	}
	return t.guard.tx(ctx, func(ctx context.Context, h dbHandle) error {
		if _, err := h.ExecContext(ctx,
			`UPDATE notes SET important = 0 WHERE project_id = ? AND important != 0`, projectID,
		); err != nil {
			return fmt.Errorf("clear important note of project %s: %w", projectID, err)
		}
		if noteID == "" {
			return nil
		}
		res, err := h.ExecContext(ctx,
			`UPDATE notes SET important = 1 WHERE id = ? AND project_id = ?`, noteID, projectID,
		)
		if err != nil {
			return fmt.Errorf("set important note %s: %w", noteID, err)
		}
		return expectAffected(res, "note", noteID)
	})
}
