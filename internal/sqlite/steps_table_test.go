package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/projectsteps/pkg/types"
)

func setupProjectWithSteps(t *testing.T, s *Store, projectID string, stepIDs ...string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.Projects().Create(ctx, newProject(projectID, ts1)))
	for i, id := range stepIDs {
		require.NoError(t, s.Steps().Create(ctx, newStep(id, projectID, i)))
	}
}

func stepIDs(steps []types.Step) []string {
	ids := make([]string, len(steps))
	for i, s := range steps {
		ids[i] = s.ID
	}
	return ids
}

func TestSteps_CreateGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.Projects().Create(ctx, newProject("P1", ts1)))

	tests := []struct {
		name string
		step types.Step
	}{
		{name: "minimal", step: newStep("S1", "P1", 0)},
		{
			name: "with plain text and completed",
			step: func() types.Step {
				st := newStep("S2", "P1", 3)
				st.Description = "<b>bold</b>"
				st.PlainText = types.StringPtr("bold")
				st.Completed = true
				return st
			}(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, s.Steps().Create(ctx, tt.step))
			got, err := s.Steps().Get(ctx, tt.step.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.step, got)
		})
	}
}

func TestSteps_EmptyPlainTextReadsAsAbsent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.Projects().Create(ctx, newProject("P1", ts1)))

	st := newStep("S1", "P1", 0)
	st.PlainText = types.StringPtr("")
	require.NoError(t, s.Steps().Create(ctx, st))

	got, err := s.Steps().Get(ctx, "S1")
	require.NoError(t, err)
	assert.Nil(t, got.PlainText)
}

func TestSteps_ListByProjectOrdersByIndex(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.Projects().Create(ctx, newProject("P1", ts1)))
	require.NoError(t, s.Projects().Create(ctx, newProject("P2", ts1)))

	require.NoError(t, s.Steps().Create(ctx, newStep("c", "P1", 20)))
	require.NoError(t, s.Steps().Create(ctx, newStep("a", "P1", 5)))
	require.NoError(t, s.Steps().Create(ctx, newStep("b", "P1", 10)))
	require.NoError(t, s.Steps().Create(ctx, newStep("x", "P2", 0)))

	got, err := s.Steps().ListByProject(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, stepIDs(got))

	none, err := s.Steps().ListByProject(ctx, "nope")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	all, err := s.Steps().ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "x"}, stepIDs(all))
}

func TestSteps_Update(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	setupProjectWithSteps(t, s, "P1", "S1")

	st, err := s.Steps().Get(ctx, "S1")
	require.NoError(t, err)
	st.Title = "Renamed"
	st.Completed = true
	st.PlainText = types.StringPtr("text")
	st.UpdatedAt = ts2
	require.NoError(t, s.Steps().Update(ctx, st))

	got, err := s.Steps().Get(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, st, got)

	assert.ErrorIs(t, s.Steps().Update(ctx, newStep("ghost", "P1", 0)), types.ErrNotFound)
	assert.ErrorIs(t, s.Steps().Update(ctx, newStep("", "P1", 0)), types.ErrInvalidID)
}

func TestSteps_UpdateBatch(t *testing.T) {
	tests := []struct {
		name      string
		batch     func(steps []types.Step) []types.Step
		wantErr   error
		wantOrder []string
	}{
		{
			name: "reorder commits every step",
			batch: func(steps []types.Step) []types.Step {
				steps[0].OrderIndex, steps[1].OrderIndex, steps[2].OrderIndex = 2, 0, 1
				return steps
			},
			wantOrder: []string{"S2", "S3", "S1"},
		},
		{
			name: "missing step rolls back the whole batch",
			batch: func(steps []types.Step) []types.Step {
				steps[0].OrderIndex, steps[1].OrderIndex = 9, 8
				return append(steps[:2], newStep("ghost", "P1", 7))
			},
			wantErr:   types.ErrNotFound,
			wantOrder: []string{"S1", "S2", "S3"},
		},
		{
			name:      "empty batch is a no-op",
			batch:     func([]types.Step) []types.Step { return nil },
			wantOrder: []string{"S1", "S2", "S3"},
		},
		{
			name: "empty id rejects the batch before writing",
			batch: func(steps []types.Step) []types.Step {
				steps[0].OrderIndex = 9
				steps[1].ID = ""
				return steps
			},
			wantErr:   types.ErrInvalidID,
			wantOrder: []string{"S1", "S2", "S3"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := openTestStore(t)
			setupProjectWithSteps(t, s, "P1", "S1", "S2", "S3")

			current, err := s.Steps().ListByProject(ctx, "P1")
			require.NoError(t, err)

			err = s.Steps().UpdateBatch(ctx, tt.batch(current))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			got, err := s.Steps().ListByProject(ctx, "P1")
			require.NoError(t, err)
			assert.Equal(t, tt.wantOrder, stepIDs(got))
		})
	}
}

func TestSteps_DeleteRemovesAttachments(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	setupProjectWithSteps(t, s, "P1", "S1", "S2")
	require.NoError(t, s.Images().Create(ctx, newImage("I1", types.StepOwner("S1"), ts1)))
	require.NoError(t, s.Images().Create(ctx, newImage("I2", types.StepOwner("S2"), ts1)))
	// Same id, different owner kind: not the step's attachment.
	require.NoError(t, s.Images().Create(ctx, newImage("I3", types.NoteOwner("S1"), ts1)))

	require.NoError(t, s.Steps().Delete(ctx, "S1"))

	_, err := s.Steps().Get(ctx, "S1")
	assert.ErrorIs(t, err, types.ErrNotFound)

	images, err := s.Images().ListAll(ctx)
	require.NoError(t, err)
	ids := make([]string, len(images))
	for i, a := range images {
		ids[i] = a.ID
	}
	assert.ElementsMatch(t, []string{"I2", "I3"}, ids)

	assert.NoError(t, s.Steps().Delete(ctx, "S1"), "deleting again is a no-op")
}

func TestSteps_CreateForMissingProjectFails(t *testing.T) {
	s := openTestStore(t)
	err := s.Steps().Create(context.Background(), newStep("S1", "ghost", 0))
	assert.Error(t, err, "fresh stores enforce the project foreign key")
}
