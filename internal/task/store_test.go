package task

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateDefaults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, Fields{Title: "Buy milk"})
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Buy milk", created.Title)
	assert.Nil(t, created.Description)
	assert.Equal(t, StatusPending, created.Status)
	assert.Nil(t, created.DueDate)
	assert.Equal(t, []string{}, created.Subtasks)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	// Round-trips through the database unchanged.
	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Title, got.Title)
	assert.Equal(t, created.Status, got.Status)
	assert.Equal(t, created.Subtasks, got.Subtasks)
}

func TestCreateValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		fields Fields
	}{
		{"empty title", Fields{Title: ""}},
		{"blank title", Fields{Title: "   "}},
		{"unknown status", Fields{Title: "x", Status: Status("archived")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Create(ctx, tt.fields)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
		})
	}
}

func TestCreatePersistsOptionalFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	desc := "weekly shopping run"
	due := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)
	created, err := s.Create(ctx, Fields{
		Title:       "Groceries",
		Description: &desc,
		DueDate:     &due,
		Subtasks:    []string{"Make a list", "Go to the store"},
	})
	require.NoError(t, err)

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Description)
	assert.Equal(t, desc, *got.Description)
	require.NotNil(t, got.DueDate)
	assert.True(t, got.DueDate.Equal(due))
	assert.Equal(t, []string{"Make a list", "Go to the store"}, got.Subtasks)
}

func TestListOrdersNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var ids []string
	for _, title := range []string{"first", "second", "third"} {
		created, err := s.Create(ctx, Fields{Title: title})
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}

	tasks, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, ids[2], tasks[0].ID)
	assert.Equal(t, ids[1], tasks[1].ID)
	assert.Equal(t, ids[0], tasks[2].ID)
}

func TestListEmpty(t *testing.T) {
	s := newTestStore(t)

	tasks, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Task{}, tasks)
}

func TestUpdatePartialPatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	desc := "call before noon"
	created, err := s.Create(ctx, Fields{
		Title:       "Call plumber",
		Description: &desc,
		Subtasks:    []string{"Find number"},
	})
	require.NoError(t, err)

	status := StatusCompleted
	updated, err := s.Update(ctx, created.ID, Patch{Status: &status})
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, updated.Status)
	assert.Equal(t, created.Title, updated.Title)
	require.NotNil(t, updated.Description)
	assert.Equal(t, desc, *updated.Description)
	assert.Equal(t, created.Subtasks, updated.Subtasks)
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))
}

func TestUpdateClearsFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	desc := "temporary note"
	due := time.Now().UTC().Add(time.Hour)
	created, err := s.Create(ctx, Fields{Title: "Pay bills", Description: &desc, DueDate: &due})
	require.NoError(t, err)

	empty := ""
	zero := time.Time{}
	updated, err := s.Update(ctx, created.ID, Patch{Description: &empty, DueDate: &zero})
	require.NoError(t, err)
	assert.Nil(t, updated.Description)
	assert.Nil(t, updated.DueDate)
}

func TestUpdateValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, Fields{Title: "x"})
	require.NoError(t, err)

	blank := "  "
	_, err = s.Update(ctx, created.ID, Patch{Title: &blank})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	bad := Status("paused")
	_, err = s.Update(ctx, created.ID, Patch{Status: &bad})
	require.ErrorAs(t, err, &verr)
}

func TestUpdateNotFound(t *testing.T) {
	s := newTestStore(t)

	status := StatusCompleted
	_, err := s.Update(context.Background(), "no-such-id", Patch{Status: &status})
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "no-such-id", nf.ID)
}

func TestDeleteStrict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, Fields{Title: "throwaway"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, created.ID))

	// Deleting the same id again fails the same way, every time.
	var nf *NotFoundError
	require.ErrorAs(t, s.Delete(ctx, created.ID), &nf)
	require.ErrorAs(t, s.Delete(ctx, created.ID), &nf)
}

func TestOverdue(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		task Task
		want bool
	}{
		{"pending past due", Task{Status: StatusPending, DueDate: &past}, true},
		{"completed past due", Task{Status: StatusCompleted, DueDate: &past}, false},
		{"pending future due", Task{Status: StatusPending, DueDate: &future}, false},
		{"no due date", Task{Status: StatusPending}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.task.Overdue(now))
		})
	}
}
