// This file implements the projects repository.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/projectsteps/pkg/types"
)

var _ types.ProjectRepository = (*projectsTable)(nil)

const projectColumns = `id, name, description, created_at, updated_at, gradient, current_step_id`

// projectAttachmentsPredicate matches every attachment owned by the project
// bound to all three placeholders: its description, its steps, its notes.
const projectAttachmentsPredicate = `(content_type_enum = 'project_description' AND content_id = ?)
   OR (content_type_enum = 'step' AND content_id IN (SELECT id FROM steps WHERE project_id = ?))
   OR (content_type_enum = 'note' AND content_id IN (SELECT id FROM notes WHERE project_id = ?))`

type projectsTable struct {
	guard *connGuard
}

func scanProject(row rowScanner) (types.Project, error) {
	var (
		p           types.Project
		description sql.NullString
		currentStep sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Name, &description, &p.CreatedAt, &p.UpdatedAt, &p.Gradient, &currentStep); err != nil {
		return types.Project{}, err
	}
	p.Description = description.String
	p.CurrentStepID = optionalString(currentStep)
	return p, nil
}

// List returns all projects, newest created first.
func (t *projectsTable) List(ctx context.Context) ([]types.Project, error) {
	out := []types.Project{}
	err := t.guard.do(ctx, func(ctx context.Context, c *conn) error {
		rows, err := c.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC, rowid DESC`)
		if err != nil {
			return fmt.Errorf("query projects: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			p, err := scanProject(rows)
			if err != nil {
				return fmt.Errorf("scan project: %w", err)
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns the project with the given id or ErrNotFound.
func (t *projectsTable) Get(ctx context.Context, id string) (types.Project, error) {
	if id == "" {
		return types.Project{}, types.ErrInvalidID
	}
	var p types.Project
	err := t.guard.do(ctx, func(ctx context.Context, c *conn) error {
		var err error
		p, err = scanProject(c.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("project %s: %w", id, types.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get project %s: %w", id, err)
		}
		return nil
	})
	return p, err
}

func (t *projectsTable) Create(ctx context.Context, p types.Project) error {
	if p.ID == "" {
		return types.ErrInvalidID
	}
	return t.guard.do(ctx, func(ctx context.Context, c *conn) error {
		_, err := c.ExecContext(ctx,
			`INSERT INTO projects (`+projectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.Description, p.CreatedAt, p.UpdatedAt, p.Gradient, sentinelString(p.CurrentStepID),
		)
		if err != nil {
			return fmt.Errorf("insert project %s: %w", p.ID, err)
		}
		return nil
	})
}

// Update writes every mutable column. created_at is never changed.
func (t *projectsTable) Update(ctx context.Context, p types.Project) error {
	if p.ID == "" {
		return types.ErrInvalidID
	}
	return t.guard.do(ctx, func(ctx context.Context, c *conn) error {
		res, err := c.ExecContext(ctx,
			`UPDATE projects SET name = ?, description = ?, updated_at = ?, gradient = ?, current_step_id = ? WHERE id = ?`,
			p.Name, p.Description, p.UpdatedAt, p.Gradient, sentinelString(p.CurrentStepID), p.ID,
		)
		if err != nil {
			return fmt.Errorf("update project %s: %w", p.ID, err)
		}
		return expectAffected(res, "project", p.ID)
	})
}

func (t *projectsTable) Delete(ctx context.Context, id string) error {
	_, err := t.DeleteWithAttachments(ctx, id)
	return err
}

// DeleteWithAttachments removes the project's attachment rows, steps and
// notes, then the project, and returns the attachment rows it removed.
// Steps and notes are deleted explicitly because stores upgraded from early
// generations have no cascade on steps.
func (t *projectsTable) DeleteWithAttachments(ctx context.Context, id string) ([]types.ImageAttachment, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	var removed []types.ImageAttachment
	err := t.guard.tx(ctx, func(ctx context.Context, h dbHandle) error {
		var err error
		removed, err = takeAttachments(ctx, h, projectAttachmentsPredicate, id, id, id)
		if err != nil {
			return fmt.Errorf("delete attachments of project %s: %w", id, err)
		}
		if _, err := h.ExecContext(ctx, `DELETE FROM steps WHERE project_id = ?`, id); err != nil {
			return fmt.Errorf("delete steps of project %s: %w", id, err)
		}
		if _, err := h.ExecContext(ctx, `DELETE FROM notes WHERE project_id = ?`, id); err != nil {
			return fmt.Errorf("delete notes of project %s: %w", id, err)
		}
		if _, err := h.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete project %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// SetCurrentStep points the project at stepID, or clears it when stepID is
// nil. The step is not checked against the project.
func (t *projectsTable) SetCurrentStep(ctx context.Context, projectID string, stepID *string) error {
	if projectID == "" {
		return types.ErrInvalidID
	}
	return t.guard.do(ctx, func(ctx context.Context, c *conn) error {
		res, err := c.ExecContext(ctx,
			`UPDATE projects SET current_step_id = ? WHERE id = ?`, sentinelString(stepID), projectID,
		)
		if err != nil {
			return fmt.Errorf("set current step of project %s: %w", projectID, err)
		}
		return expectAffected(res, "project", projectID)
	})
}
