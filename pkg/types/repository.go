package types

import "context"

// Store is an opened projectsteps store. Every repository operation holds
// the store's single connection exclusively for its duration.
type Store interface {
	// SchemaVersion reports the generation recorded in the ledger.
	SchemaVersion(ctx context.Context) (int, error)

	Projects() ProjectRepository
	Steps() StepRepository
	Notes() NoteRepository
	Images() ImageRepository

	// Close releases the connection. Later operations return ErrStoreClosed.
	Close() error
}

// ProjectRepository provides CRUD over projects.
type ProjectRepository interface {
	// List returns all projects, newest created first.
	List(ctx context.Context) ([]Project, error)
	Get(ctx context.Context, id string) (Project, error)
	Create(ctx context.Context, p Project) error
	// Update writes name, description, updated_at, gradient and current step.
	// Returns ErrNotFound if no project has p.ID.
	Update(ctx context.Context, p Project) error
	// Delete removes the project with its steps, notes and their attachment
	// rows in one transaction.
	Delete(ctx context.Context, id string) error
	// DeleteWithAttachments is Delete, also returning the attachment rows
	// removed by the same transaction.
	DeleteWithAttachments(ctx context.Context, id string) ([]ImageAttachment, error)
	// SetCurrentStep sets or, with a nil stepID, clears the current step.
	SetCurrentStep(ctx context.Context, projectID string, stepID *string) error
}

// StepRepository provides CRUD and batch updates over steps.
type StepRepository interface {
	// ListAll returns every step ordered by project, then order index.
	ListAll(ctx context.Context) ([]Step, error)
	// ListByProject returns a project's steps by ascending order index.
	ListByProject(ctx context.Context, projectID string) ([]Step, error)
	Get(ctx context.Context, id string) (Step, error)
	Create(ctx context.Context, s Step) error
	Update(ctx context.Context, s Step) error
	// UpdateBatch applies all updates atomically: either every step is
	// updated or none is. A step id that does not exist fails the batch.
	UpdateBatch(ctx context.Context, steps []Step) error
	// Delete removes the step and its attachment rows.
	Delete(ctx context.Context, id string) error
	DeleteWithAttachments(ctx context.Context, id string) ([]ImageAttachment, error)
}

// NoteRepository provides CRUD over notes.
type NoteRepository interface {
	// ListAll returns every note, newest created first.
	ListAll(ctx context.Context) ([]Note, error)
	// ListByProject returns a project's notes, newest created first.
	ListByProject(ctx context.Context, projectID string) ([]Note, error)
	Get(ctx context.Context, id string) (Note, error)
	Create(ctx context.Context, n Note) error
	Update(ctx context.Context, n Note) error
	// Delete removes the note and its attachment rows.
	Delete(ctx context.Context, id string) error
	DeleteWithAttachments(ctx context.Context, id string) ([]ImageAttachment, error)
	// Important returns the project's important note, or nil if none is set.
	Important(ctx context.Context, projectID string) (*Note, error)
	// SetImportant marks noteID as the project's only important note.
	// An empty noteID clears the mark.
	SetImportant(ctx context.Context, projectID, noteID string) error
}

// ImageRepository provides create, query and delete over image attachments.
// There is no update: attachments are immutable.
type ImageRepository interface {
	ListAll(ctx context.Context) ([]ImageAttachment, error)
	// ListByOwner returns the owner's attachments in upload order.
	ListByOwner(ctx context.Context, owner Owner) ([]ImageAttachment, error)
	// ListByProject returns attachments owned by the project description or
	// by any of the project's steps or notes.
	ListByProject(ctx context.Context, projectID string) ([]ImageAttachment, error)
	Get(ctx context.Context, id string) (ImageAttachment, error)
	Create(ctx context.Context, a ImageAttachment) error
	Delete(ctx context.Context, id string) error
	DeleteByOwner(ctx context.Context, owner Owner) error
}
