// Package app is the command layer over the store: it assigns ids and
// timestamps, keeps attachment files in step with their records, and turns
// errors into caller-facing messages.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/projectsteps/internal/attachments"
	"github.com/mesh-intelligence/projectsteps/pkg/types"
)

// Service runs one operation per command against a store.
type Service struct {
	store types.Store
	files *attachments.FileStore
	log   *zap.Logger
	now   func() time.Time
	newID func() string
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now. Tests only.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces the UUID v7 generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// NewService wires a store and an attachment file store together.
func NewService(store types.Store, files *attachments.FileStore, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		store: store,
		files: files,
		log:   log,
		now:   time.Now,
		newID: newV7,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newV7() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// TimestampLayout is the stored form of created_at and updated_at: UTC with
// exactly three fractional digits, so text order is time order.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

func (s *Service) timestamp() string {
	return s.now().UTC().Format(TimestampLayout)
}

// SchemaVersion reports the store's generation.
func (s *Service) SchemaVersion(ctx context.Context) (int, error) {
	return s.store.SchemaVersion(ctx)
}

// Projects.

func (s *Service) ListProjects(ctx context.Context) ([]types.Project, error) {
	return s.store.Projects().List(ctx)
}

func (s *Service) GetProject(ctx context.Context, id string) (types.Project, error) {
	return s.store.Projects().Get(ctx, id)
}

// CreateProject stores p, filling an empty id and timestamps.
func (s *Service) CreateProject(ctx context.Context, p types.Project) (types.Project, error) {
	if p.ID == "" {
		p.ID = s.newID()
	}
	now := s.timestamp()
	if p.CreatedAt == "" {
		p.CreatedAt = now
	}
	if p.UpdatedAt == "" {
		p.UpdatedAt = p.CreatedAt
	}
	if err := s.store.Projects().Create(ctx, p); err != nil {
		return types.Project{}, err
	}
	return p, nil
}

// UpdateProject stores p with a fresh updated_at.
func (s *Service) UpdateProject(ctx context.Context, p types.Project) (types.Project, error) {
	p.UpdatedAt = s.timestamp()
	if err := s.store.Projects().Update(ctx, p); err != nil {
		return types.Project{}, err
	}
	return p, nil
}

// DeleteProject deletes the project with everything scoped to it, then
// removes the files of the attachment rows that transaction deleted.
func (s *Service) DeleteProject(ctx context.Context, id string) error {
	removed, err := s.store.Projects().DeleteWithAttachments(ctx, id)
	if err != nil {
		return err
	}
	s.removeFiles(removed)
	return nil
}

func (s *Service) SetCurrentStep(ctx context.Context, projectID string, stepID *string) error {
	return s.store.Projects().SetCurrentStep(ctx, projectID, stepID)
}

// Steps.

// ListSteps returns the project's steps in display order, or every step
// when projectID is empty.
func (s *Service) ListSteps(ctx context.Context, projectID string) ([]types.Step, error) {
	if projectID == "" {
		return s.store.Steps().ListAll(ctx)
	}
	return s.store.Steps().ListByProject(ctx, projectID)
}

func (s *Service) GetStep(ctx context.Context, id string) (types.Step, error) {
	return s.store.Steps().Get(ctx, id)
}

func (s *Service) CreateStep(ctx context.Context, st types.Step) (types.Step, error) {
	if st.ID == "" {
		st.ID = s.newID()
	}
	now := s.timestamp()
	if st.CreatedAt == "" {
		st.CreatedAt = now
	}
	if st.UpdatedAt == "" {
		st.UpdatedAt = st.CreatedAt
	}
	if err := s.store.Steps().Create(ctx, st); err != nil {
		return types.Step{}, err
	}
	return st, nil
}

func (s *Service) UpdateStep(ctx context.Context, st types.Step) (types.Step, error) {
	st.UpdatedAt = s.timestamp()
	if err := s.store.Steps().Update(ctx, st); err != nil {
		return types.Step{}, err
	}
	return st, nil
}

// UpdateSteps applies a batch of step updates atomically.
func (s *Service) UpdateSteps(ctx context.Context, steps []types.Step) error {
	now := s.timestamp()
	batch := make([]types.Step, len(steps))
	for i, st := range steps {
		st.UpdatedAt = now
		batch[i] = st
	}
	return s.store.Steps().UpdateBatch(ctx, batch)
}

// ReorderSteps gives the listed steps order indexes 0..n-1 in the given
// order, in one batch. Every id must be a step of the project. Steps left
// out keep their relative order and follow the listed ones.
func (s *Service) ReorderSteps(ctx context.Context, projectID string, orderedIDs []string) ([]types.Step, error) {
	current, err := s.store.Steps().ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]types.Step, len(current))
	for _, st := range current {
		byID[st.ID] = st
	}

	seen := make(map[string]bool, len(orderedIDs))
	order := make([]types.Step, 0, len(current))
	for _, id := range orderedIDs {
		st, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("step %s in project %s: %w", id, projectID, types.ErrNotFound)
		}
		if seen[id] {
			return nil, fmt.Errorf("step %s listed twice: %w", id, types.ErrInvalidID)
		}
		seen[id] = true
		order = append(order, st)
	}
	for _, st := range current {
		if !seen[st.ID] {
			order = append(order, st)
		}
	}

	now := s.timestamp()
	batch := make([]types.Step, 0, len(order))
	for i, st := range order {
		if st.OrderIndex == i {
			continue
		}
		st.OrderIndex = i
		st.UpdatedAt = now
		batch = append(batch, st)
	}
	if err := s.store.Steps().UpdateBatch(ctx, batch); err != nil {
		return nil, err
	}
	s.log.Debug("reordered steps", zap.String("project", projectID), zap.Int("changed", len(batch)))
	return s.store.Steps().ListByProject(ctx, projectID)
}

// DeleteStep deletes the step and its attachments.
func (s *Service) DeleteStep(ctx context.Context, id string) error {
	return s.deleteOwned(ctx, id, s.store.Steps().DeleteWithAttachments)
}

// Notes.

func (s *Service) ListNotes(ctx context.Context, projectID string) ([]types.Note, error) {
	if projectID == "" {
		return s.store.Notes().ListAll(ctx)
	}
	return s.store.Notes().ListByProject(ctx, projectID)
}

func (s *Service) GetNote(ctx context.Context, id string) (types.Note, error) {
	return s.store.Notes().Get(ctx, id)
}

func (s *Service) CreateNote(ctx context.Context, n types.Note) (types.Note, error) {
	if n.ID == "" {
		n.ID = s.newID()
	}
	now := s.timestamp()
	if n.CreatedAt == "" {
		n.CreatedAt = now
	}
	if n.UpdatedAt == "" {
		n.UpdatedAt = n.CreatedAt
	}
	if err := s.store.Notes().Create(ctx, n); err != nil {
		return types.Note{}, err
	}
	return n, nil
}

func (s *Service) UpdateNote(ctx context.Context, n types.Note) (types.Note, error) {
	n.UpdatedAt = s.timestamp()
	if err := s.store.Notes().Update(ctx, n); err != nil {
		return types.Note{}, err
	}
	return n, nil
}

func (s *Service) DeleteNote(ctx context.Context, id string) error {
	return s.deleteOwned(ctx, id, s.store.Notes().DeleteWithAttachments)
}

func (s *Service) ImportantNote(ctx context.Context, projectID string) (*types.Note, error) {
	return s.store.Notes().Important(ctx, projectID)
}

// SetImportantNote marks noteID as the project's important note. An empty
// noteID clears it.
func (s *Service) SetImportantNote(ctx context.Context, projectID, noteID string) error {
	return s.store.Notes().SetImportant(ctx, projectID, noteID)
}

// Images.

// UploadRequest is an image to attach.
type UploadRequest struct {
	Data        []byte
	Filename    string
	ContentType string
	Owner       types.Owner
}

// UploadImage writes the file, then records it. If the record cannot be
// stored the file is removed again.
func (s *Service) UploadImage(ctx context.Context, req UploadRequest) (types.ImageAttachment, error) {
	if err := req.Owner.Validate(); err != nil {
		return types.ImageAttachment{}, err
	}
	id := s.newID()
	path, stored, err := s.files.Save(id, req.Filename, req.Data)
	if err != nil {
		return types.ImageAttachment{}, err
	}

	a := types.ImageAttachment{
		ID:          id,
		FilePath:    path,
		Filename:    stored,
		ContentType: req.ContentType,
		Owner:       req.Owner,
		CreatedAt:   s.timestamp(),
	}
	if err := s.store.Images().Create(ctx, a); err != nil {
		if rmErr := s.files.Remove(path); rmErr != nil {
			s.log.Warn("remove orphaned attachment file", zap.String("path", path), zap.Error(rmErr))
		}
		return types.ImageAttachment{}, err
	}
	s.log.Info("attached image", zap.String("id", id), zap.Stringer("owner", a.Owner), zap.Int("bytes", len(req.Data)))
	return a, nil
}

// ListImages returns the owner's attachments in upload order.
func (s *Service) ListImages(ctx context.Context, owner types.Owner) ([]types.ImageAttachment, error) {
	return s.store.Images().ListByOwner(ctx, owner)
}

// ListProjectImages returns every attachment of the project's description,
// steps and notes.
func (s *Service) ListProjectImages(ctx context.Context, projectID string) ([]types.ImageAttachment, error) {
	return s.store.Images().ListByProject(ctx, projectID)
}

// DeleteImage deletes the record, then its file.
func (s *Service) DeleteImage(ctx context.Context, id string) error {
	a, err := s.store.Images().Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Images().Delete(ctx, id); err != nil {
		return err
	}
	return s.files.Remove(a.FilePath)
}

// ImageData returns the stored bytes of an attachment.
func (s *Service) ImageData(ctx context.Context, id string) (types.ImageAttachment, []byte, error) {
	a, err := s.store.Images().Get(ctx, id)
	if err != nil {
		return types.ImageAttachment{}, nil, err
	}
	data, err := s.files.Read(a.FilePath)
	if err != nil {
		return types.ImageAttachment{}, nil, err
	}
	return a, data, nil
}

// deleteOwned runs del and then removes the files of the attachment rows it
// deleted. Files are only touched after the store commits.
func (s *Service) deleteOwned(ctx context.Context, id string, del func(context.Context, string) ([]types.ImageAttachment, error)) error {
	removed, err := del(ctx, id)
	if err != nil {
		return err
	}
	s.removeFiles(removed)
	return nil
}

func (s *Service) removeFiles(images []types.ImageAttachment) {
	for _, a := range images {
		if err := s.files.Remove(a.FilePath); err != nil {
			s.log.Warn("remove attachment file", zap.String("id", a.ID), zap.String("path", a.FilePath), zap.Error(err))
		}
	}
}

// Message turns an error from any Service operation into the message shown
// to the caller.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, types.ErrNotFound):
		return "not found: " + err.Error()
	case errors.Is(err, types.ErrInvalidID), errors.Is(err, types.ErrInvalidOwnerKind):
		return "invalid request: " + err.Error()
	case errors.Is(err, types.ErrStoreClosed):
		return "store is not open"
	case errors.Is(err, types.ErrOperationPanicked):
		return "internal error: " + err.Error()
	case errors.Is(err, types.ErrInvalidConfig):
		return "configuration error: " + err.Error()
	default:
		return "storage error: " + err.Error()
	}
}
