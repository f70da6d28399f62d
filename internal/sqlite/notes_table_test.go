package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/projectsteps/pkg/types"
)

func TestNotes_CRUD(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.Projects().Create(ctx, newProject("P1", ts1)))

	n := newNote("N1", "P1", ts1)
	require.NoError(t, s.Notes().Create(ctx, n))

	got, err := s.Notes().Get(ctx, "N1")
	require.NoError(t, err)
	assert.Equal(t, n, got)

	n.Title = "Edited"
	n.Content = "<p>new</p>"
	n.PlainText = "new"
	n.UpdatedAt = ts2
	require.NoError(t, s.Notes().Update(ctx, n))
	got, err = s.Notes().Get(ctx, "N1")
	require.NoError(t, err)
	assert.Equal(t, n, got)

	assert.ErrorIs(t, s.Notes().Update(ctx, newNote("ghost", "P1", ts1)), types.ErrNotFound)

	require.NoError(t, s.Notes().Delete(ctx, "N1"))
	_, err = s.Notes().Get(ctx, "N1")
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.NoError(t, s.Notes().Delete(ctx, "N1"))
}

func TestNotes_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.Projects().Create(ctx, newProject("P1", ts1)))
	require.NoError(t, s.Projects().Create(ctx, newProject("P2", ts1)))
	require.NoError(t, s.Notes().Create(ctx, newNote("a", "P1", ts1)))
	require.NoError(t, s.Notes().Create(ctx, newNote("c", "P1", ts3)))
	require.NoError(t, s.Notes().Create(ctx, newNote("b", "P2", ts2)))

	ids := func(notes []types.Note) []string {
		out := make([]string, len(notes))
		for i, n := range notes {
			out[i] = n.ID
		}
		return out
	}

	byProject, err := s.Notes().ListByProject(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, ids(byProject))

	all, err := s.Notes().ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, ids(all))
}

func TestNotes_DeleteRemovesAttachments(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.Projects().Create(ctx, newProject("P1", ts1)))
	require.NoError(t, s.Notes().Create(ctx, newNote("N1", "P1", ts1)))
	require.NoError(t, s.Images().Create(ctx, newImage("I1", types.NoteOwner("N1"), ts1)))
	require.NoError(t, s.Images().Create(ctx, newImage("I2", types.StepOwner("N1"), ts1)))

	require.NoError(t, s.Notes().Delete(ctx, "N1"))

	left, err := s.Images().ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "I2", left[0].ID)
}

func TestNotes_Important(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.Projects().Create(ctx, newProject("P1", ts1)))
	require.NoError(t, s.Projects().Create(ctx, newProject("P2", ts1)))
	require.NoError(t, s.Notes().Create(ctx, newNote("N1", "P1", ts1)))
	require.NoError(t, s.Notes().Create(ctx, newNote("N2", "P1", ts2)))
	require.NoError(t, s.Notes().Create(ctx, newNote("N3", "P2", ts1)))

	got, err := s.Notes().Important(ctx, "P1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Notes().SetImportant(ctx, "P1", "N1"))
	require.NoError(t, s.Notes().SetImportant(ctx, "P2", "N3"))
	require.NoError(t, s.Notes().SetImportant(ctx, "P1", "N2"))

	got, err = s.Notes().Important(ctx, "P1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "N2", got.ID, "setting a new important note clears the old one")

	got, err = s.Notes().Important(ctx, "P2")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "N3", got.ID, "other projects are untouched")

	require.NoError(t, s.Notes().SetImportant(ctx, "P1", ""))
	got, err = s.Notes().Important(ctx, "P1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNotes_SetImportantRejectsForeignNote(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.Projects().Create(ctx, newProject("P1", ts1)))
	require.NoError(t, s.Projects().Create(ctx, newProject("P2", ts1)))
	require.NoError(t, s.Notes().Create(ctx, newNote("N1", "P1", ts1)))
	require.NoError(t, s.Notes().Create(ctx, newNote("N2", "P2", ts1)))
	require.NoError(t, s.Notes().SetImportant(ctx, "P1", "N1"))

	err := s.Notes().SetImportant(ctx, "P1", "N2")
	assert.ErrorIs(t, err, types.ErrNotFound)

	got, err := s.Notes().Important(ctx, "P1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "N1", got.ID, "failed set leaves the previous mark")
}
