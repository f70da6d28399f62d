package types

import "fmt"

// OwnerKind tags which table an attachment's owner id refers to.
type OwnerKind string

// Owner kinds. The set is closed; the store rejects anything else.
const (
	OwnerStep               OwnerKind = "step"
	OwnerNote               OwnerKind = "note"
	OwnerProjectDescription OwnerKind = "project_description"
)

var validOwnerKinds = map[OwnerKind]bool{
	OwnerStep:               true,
	OwnerNote:               true,
	OwnerProjectDescription: true,
}

// OwnerKinds lists every valid kind in a stable order.
func OwnerKinds() []OwnerKind {
	return []OwnerKind{OwnerStep, OwnerNote, OwnerProjectDescription}
}

// ParseOwnerKind converts s into an OwnerKind.
// Returns ErrInvalidOwnerKind if s is not one of the known kinds.
func ParseOwnerKind(s string) (OwnerKind, error) {
	k := OwnerKind(s)
	if !validOwnerKinds[k] {
		return "", fmt.Errorf("%w: %q", ErrInvalidOwnerKind, s)
	}
	return k, nil
}

// Valid reports whether k is one of the known kinds.
func (k OwnerKind) Valid() bool {
	return validOwnerKinds[k]
}

// Owner identifies the record an attachment belongs to: the (id, kind) pair.
// There is no foreign key behind it; ContentID is interpreted according to
// Kind, so the same ContentID under two kinds names two different owners.
type Owner struct {
	ContentID string    `json:"contentId"`
	Kind      OwnerKind `json:"contentTypeEnum"`
}

// StepOwner returns the owner reference for a step.
func StepOwner(stepID string) Owner { return Owner{ContentID: stepID, Kind: OwnerStep} }

// NoteOwner returns the owner reference for a note.
func NoteOwner(noteID string) Owner { return Owner{ContentID: noteID, Kind: OwnerNote} }

// ProjectDescriptionOwner returns the owner reference for a project's description.
func ProjectDescriptionOwner(projectID string) Owner {
	return Owner{ContentID: projectID, Kind: OwnerProjectDescription}
}

// Validate checks the owner has an id and a known kind.
func (o Owner) Validate() error {
	if o.ContentID == "" {
		return ErrInvalidID
	}
	if !o.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidOwnerKind, o.Kind)
	}
	return nil
}

func (o Owner) String() string {
	return string(o.Kind) + ":" + o.ContentID
}

// ImageAttachment records an image file stored on disk by a collaborator.
// Attachments are immutable; replacing one is delete then create.
type ImageAttachment struct {
	ID          string `json:"id"`
	FilePath    string `json:"filePath"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"` // MIME type.
	Owner
	CreatedAt string `json:"createdAt"`
}
