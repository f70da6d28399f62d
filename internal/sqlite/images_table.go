// This file implements the image attachment repository. Owners are the
// (content_id, content_type_enum) pair; no foreign key backs the pair, so
// every query filters on both halves.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/projectsteps/pkg/types"
)

var _ types.ImageRepository = (*imagesTable)(nil)

const imageColumns = `id, file_path, filename, content_type, content_id, content_type_enum, created_at`

type imagesTable struct {
	guard *connGuard
}

func scanImage(row rowScanner) (types.ImageAttachment, error) {
	var (
		a    types.ImageAttachment
		kind string
	)
	if err := row.Scan(&a.ID, &a.FilePath, &a.Filename, &a.ContentType, &a.ContentID, &kind, &a.CreatedAt); err != nil {
		return types.ImageAttachment{}, err
	}
	a.Kind = types.OwnerKind(kind)
	return a, nil
}

func (t *imagesTable) list(ctx context.Context, query string, args ...any) ([]types.ImageAttachment, error) {
	out := []types.ImageAttachment{}
	err := t.guard.do(ctx, func(ctx context.Context, c *conn) error {
		rows, err := c.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("query image attachments: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			a, err := scanImage(rows)
			if err != nil {
				return fmt.Errorf("scan image attachment: %w", err)
			}
			out = append(out, a)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListAll returns every attachment in upload order.
func (t *imagesTable) ListAll(ctx context.Context) ([]types.ImageAttachment, error) {
	return t.list(ctx, `SELECT `+imageColumns+` FROM image_attachments ORDER BY created_at ASC, rowid ASC`)
}

// ListByOwner returns the owner's attachments, oldest first. Rows created
// with the same timestamp keep insertion order.
func (t *imagesTable) ListByOwner(ctx context.Context, owner types.Owner) ([]types.ImageAttachment, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	return t.list(ctx,
		`SELECT `+imageColumns+` FROM image_attachments
		 WHERE content_id = ? AND content_type_enum = ?
		 ORDER BY created_at ASC, rowid ASC`,
		owner.ContentID, string(owner.Kind))
}

// ListByProject returns attachments of the project description and of the
// project's steps and notes.
func (t *imagesTable) ListByProject(ctx context.Context, projectID string) ([]types.ImageAttachment, error) {
	if projectID == "" {
		return nil, types.ErrInvalidID
	}
	return t.list(ctx,
		`SELECT `+imageColumns+` FROM image_attachments WHERE `+projectAttachmentsPredicate+`
		 ORDER BY created_at ASC, rowid ASC`,
		projectID, projectID, projectID)
}

func (t *imagesTable) Get(ctx context.Context, id string) (types.ImageAttachment, error) {
	if id == "" {
		return types.ImageAttachment{}, types.ErrInvalidID
	}
	var a types.ImageAttachment
	err := t.guard.do(ctx, func(ctx context.Context, c *conn) error {
		var err error
		a, err = scanImage(c.QueryRowContext(ctx, `SELECT `+imageColumns+` FROM image_attachments WHERE id = ?`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("image attachment %s: %w", id, types.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get image attachment %s: %w", id, err)
		}
		return nil
	})
	return a, err
}

// Create inserts the attachment record. The owner kind is checked here;
// whether the owner row exists is not.
func (t *imagesTable) Create(ctx context.Context, a types.ImageAttachment) error {
	if a.ID == "" {
		return types.ErrInvalidID
	}
	if err := a.Owner.Validate(); err != nil {
		return err
	}
	return t.guard.do(ctx, func(ctx context.Context, c *conn) error {
		_, err := c.ExecContext(ctx,
			`INSERT INTO image_attachments (`+imageColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.FilePath, a.Filename, a.ContentType, a.ContentID, string(a.Kind), a.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert image attachment %s: %w", a.ID, err)
		}
		return nil
	})
}

func (t *imagesTable) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	return t.guard.do(ctx, func(ctx context.Context, c *conn) error {
		if _, err := c.ExecContext(ctx, `DELETE FROM image_attachments WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete image attachment %s: %w", id, err)
		}
		return nil
	})
}

func (t *imagesTable) DeleteByOwner(ctx context.Context, owner types.Owner) error {
	if err := owner.Validate(); err != nil {
		return err
	}
	return t.guard.tx(ctx, func(ctx context.Context, h dbHandle) error {
		_, err := deleteAttachmentsOf(ctx, h, owner)
		return err
	})
}

func deleteAttachmentsOf(ctx context.Context, h dbHandle, owner types.Owner) ([]types.ImageAttachment, error) {
	removed, err := takeAttachments(ctx, h,
		`content_id = ? AND content_type_enum = ?`, owner.ContentID, string(owner.Kind))
	if err != nil {
		return nil, fmt.Errorf("delete attachments of %s: %w", owner, err)
	}
	return removed, nil
}

// takeAttachments deletes the attachment rows matching where and returns
// them. It must run inside the caller's transaction so the rows returned
// are exactly the rows deleted.
func takeAttachments(ctx context.Context, h dbHandle, where string, args ...any) ([]types.ImageAttachment, error) {
	rows, err := h.QueryContext(ctx,
		`SELECT `+imageColumns+` FROM image_attachments WHERE `+where+` ORDER BY created_at ASC, rowid ASC`, args...)
	if err != nil {
		return nil, err
	}
	removed := []types.ImageAttachment{}
	for rows.Next() {
		a, err := scanImage(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		removed = append(removed, a)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if _, err := h.ExecContext(ctx, `DELETE FROM image_attachments WHERE `+where, args...); err != nil {
		return nil, err
	}
	return removed, nil
}
