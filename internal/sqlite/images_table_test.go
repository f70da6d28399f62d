package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/projectsteps/pkg/types"
)

func imageIDs(images []types.ImageAttachment) []string {
	ids := make([]string, len(images))
	for i, a := range images {
		ids[i] = a.ID
	}
	return ids
}

func TestImages_CreateGet(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	a := newImage("I1", types.StepOwner("S1"), ts1)
	require.NoError(t, s.Images().Create(ctx, a))

	got, err := s.Images().Get(ctx, "I1")
	require.NoError(t, err)
	assert.Equal(t, a, got)

	_, err = s.Images().Get(ctx, "ghost")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestImages_CreateValidatesOwner(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	tests := []struct {
		name    string
		owner   types.Owner
		wantErr error
	}{
		{name: "unknown kind", owner: types.Owner{ContentID: "X", Kind: "comment"}, wantErr: types.ErrInvalidOwnerKind},
		{name: "empty kind", owner: types.Owner{ContentID: "X"}, wantErr: types.ErrInvalidOwnerKind},
		{name: "empty owner id", owner: types.Owner{Kind: types.OwnerStep}, wantErr: types.ErrInvalidID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Images().Create(ctx, newImage("I-"+tt.name, tt.owner, ts1))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	all, err := s.Images().ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestImages_ListByOwnerIsolatesKinds(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Images().Create(ctx, newImage("step-late", types.StepOwner("X"), ts2)))
	require.NoError(t, s.Images().Create(ctx, newImage("step-early", types.StepOwner("X"), ts1)))
	require.NoError(t, s.Images().Create(ctx, newImage("note", types.NoteOwner("X"), ts1)))
	require.NoError(t, s.Images().Create(ctx, newImage("desc", types.ProjectDescriptionOwner("X"), ts1)))

	steps, err := s.Images().ListByOwner(ctx, types.StepOwner("X"))
	require.NoError(t, err)
	assert.Equal(t, []string{"step-early", "step-late"}, imageIDs(steps))

	notes, err := s.Images().ListByOwner(ctx, types.NoteOwner("X"))
	require.NoError(t, err)
	assert.Equal(t, []string{"note"}, imageIDs(notes))

	none, err := s.Images().ListByOwner(ctx, types.StepOwner("Y"))
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	_, err = s.Images().ListByOwner(ctx, types.Owner{ContentID: "X", Kind: "bogus"})
	assert.ErrorIs(t, err, types.ErrInvalidOwnerKind)
}

func TestImages_SameTimestampKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for _, id := range []string{"z", "a", "m"} {
		require.NoError(t, s.Images().Create(ctx, newImage(id, types.NoteOwner("N1"), ts1)))
	}
	got, err := s.Images().ListByOwner(ctx, types.NoteOwner("N1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a", "m"}, imageIDs(got))
}

func TestImages_ListByProject(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	setupProjectWithSteps(t, s, "P1", "S1")
	setupProjectWithSteps(t, s, "P2", "S2")
	require.NoError(t, s.Notes().Create(ctx, newNote("N1", "P1", ts1)))

	require.NoError(t, s.Images().Create(ctx, newImage("step", types.StepOwner("S1"), ts1)))
	require.NoError(t, s.Images().Create(ctx, newImage("note", types.NoteOwner("N1"), ts2)))
	require.NoError(t, s.Images().Create(ctx, newImage("desc", types.ProjectDescriptionOwner("P1"), ts3)))
	require.NoError(t, s.Images().Create(ctx, newImage("other", types.StepOwner("S2"), ts1)))

	got, err := s.Images().ListByProject(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, []string{"step", "note", "desc"}, imageIDs(got))
}

func TestImages_Delete(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.Images().Create(ctx, newImage("I1", types.StepOwner("S1"), ts1)))
	require.NoError(t, s.Images().Create(ctx, newImage("I2", types.StepOwner("S1"), ts1)))
	require.NoError(t, s.Images().Create(ctx, newImage("I3", types.NoteOwner("S1"), ts1)))

	require.NoError(t, s.Images().Delete(ctx, "I1"))
	assert.NoError(t, s.Images().Delete(ctx, "I1"), "deleting again is a no-op")

	require.NoError(t, s.Images().DeleteByOwner(ctx, types.StepOwner("S1")))
	all, err := s.Images().ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"I3"}, imageIDs(all))
}

func TestImages_CheckConstraintRejectsRawBadKind(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	err := s.guard.do(ctx, func(ctx context.Context, c *conn) error {
		_, err := c.ExecContext(ctx,
			`INSERT INTO image_attachments (`+imageColumns+`) VALUES ('I1', 'p', 'f', 'image/png', 'X', 'bogus', ?)`, ts1)
		return err
	})
	assert.Error(t, err)
}

func TestImages_OwnerDeleteReturnsRemovedRows(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Projects().Create(ctx, newProject("P1", ts1)))
	require.NoError(t, s.Steps().Create(ctx, newStep("S1", "P1", 0)))
	require.NoError(t, s.Notes().Create(ctx, newNote("N1", "P1", ts1)))
	require.NoError(t, s.Images().Create(ctx, newImage("I1", types.StepOwner("S1"), ts1)))
	require.NoError(t, s.Images().Create(ctx, newImage("I2", types.StepOwner("S1"), ts1)))
	require.NoError(t, s.Images().Create(ctx, newImage("I3", types.NoteOwner("N1"), ts1)))
	// Same id, other kind: must survive the step delete.
	require.NoError(t, s.Images().Create(ctx, newImage("I4", types.NoteOwner("S1"), ts1)))

	removed, err := s.Steps().DeleteWithAttachments(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, []string{"I1", "I2"}, imageIDs(removed))

	removed, err = s.Notes().DeleteWithAttachments(ctx, "N1")
	require.NoError(t, err)
	assert.Equal(t, []string{"I3"}, imageIDs(removed))

	left, err := s.Images().ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"I4"}, imageIDs(left))
}
