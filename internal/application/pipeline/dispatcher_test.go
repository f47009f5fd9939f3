package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secondbrain/agent/internal/app/state"
	"secondbrain/agent/internal/domain/intent"
	noterepo "secondbrain/agent/internal/infra/repository/note"
)

func newDispatcher(t *testing.T) (*Dispatcher, *noterepo.FileRepository, *state.Store) {
	t.Helper()
	repo, err := noterepo.NewFileRepository(afero.NewMemMapFs(), "data/notes")
	require.NoError(t, err)
	st := state.New()
	return NewDispatcher(repo, st), repo, st
}

func TestDispatcher_Save(t *testing.T) {
	d, repo, _ := newDispatcher(t)
	ctx := context.Background()

	reply := d.Dispatch(ctx, 1, intent.Descriptor{
		Intent: intent.IntentSave,
		Title:  "Buy milk",
		Tags:   []string{"shopping"},
	})
	assert.Contains(t, reply, "Note saved successfully with ID:")

	notes, err := repo.Search(ctx, "", nil)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Buy milk", notes[0].Title)

	// The reply reports the generated identifier.
	assert.Contains(t, reply, notes[0].ID)
}

func TestDispatcher_SaveUntitled(t *testing.T) {
	d, repo, _ := newDispatcher(t)
	ctx := context.Background()

	d.Dispatch(ctx, 1, intent.Descriptor{Intent: intent.IntentSave, Content: "just content"})

	notes, err := repo.Search(ctx, "", nil)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Untitled Note", notes[0].Title)
}

func TestDispatcher_UpdateNotFound(t *testing.T) {
	d, _, _ := newDispatcher(t)

	reply := d.Dispatch(context.Background(), 1, intent.Descriptor{
		Intent: intent.IntentUpdate,
		NoteID: "20240101_0000",
		Title:  "new",
	})
	assert.Contains(t, reply, "not found")
}

func TestDispatcher_Update(t *testing.T) {
	d, repo, _ := newDispatcher(t)
	ctx := context.Background()

	saved, err := repo.Save(ctx, "old", "content", nil, nil)
	require.NoError(t, err)

	reply := d.Dispatch(ctx, 1, intent.Descriptor{
		Intent: intent.IntentUpdate,
		NoteID: saved.ID,
		Title:  "new title",
	})
	assert.Contains(t, reply, "updated successfully")

	got, err := repo.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "new title", got.Title)
	assert.Equal(t, "content", got.Content)
}

func TestDispatcher_DeleteNotFound(t *testing.T) {
	d, _, _ := newDispatcher(t)

	reply := d.Dispatch(context.Background(), 1, intent.Descriptor{
		Intent: intent.IntentDelete,
		NoteID: "20240101_0000",
	})
	assert.Equal(t, "❌ Note not found", reply)
}

func TestDispatcher_Delete(t *testing.T) {
	d, repo, _ := newDispatcher(t)
	ctx := context.Background()

	saved, err := repo.Save(ctx, "t", "c", nil, nil)
	require.NoError(t, err)

	reply := d.Dispatch(ctx, 1, intent.Descriptor{Intent: intent.IntentDelete, NoteID: saved.ID})
	assert.Equal(t, "✅ Note deleted successfully", reply)

	got, err := repo.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDispatcher_QueryListsAtMostFive(t *testing.T) {
	d, repo, _ := newDispatcher(t)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		_, err := repo.Save(ctx, fmt.Sprintf("note-%d", i), "content", nil, nil)
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}

	reply := d.Dispatch(ctx, 1, intent.Descriptor{Intent: intent.IntentQuery})
	assert.Contains(t, reply, "Here are the matching notes:")
	assert.Contains(t, reply, "...and 2 more notes.")

	// Most recently touched first, capped at five.
	assert.Contains(t, reply, "note-6")
	assert.Contains(t, reply, "note-2")
	assert.NotContains(t, reply, "note-1 ")
}

func TestDispatcher_QueryNoMatches(t *testing.T) {
	d, _, _ := newDispatcher(t)

	reply := d.Dispatch(context.Background(), 1, intent.Descriptor{
		Intent:      intent.IntentQuery,
		SearchQuery: "nothing",
	})
	assert.Equal(t, "No matching notes found.", reply)
}

func TestDispatcher_Unknown(t *testing.T) {
	d, _, _ := newDispatcher(t)

	reply := d.Dispatch(context.Background(), 1, intent.Unknown("parse failed"))
	assert.Equal(t, replyUnknown, reply)
}

func TestDispatcher_ConfirmationParksPending(t *testing.T) {
	d, repo, st := newDispatcher(t)
	ctx := context.Background()

	saved, err := repo.Save(ctx, "t", "c", nil, nil)
	require.NoError(t, err)

	reply := d.Dispatch(ctx, 7, intent.Descriptor{
		Intent:             intent.IntentDelete,
		NoteID:             saved.ID,
		ConfirmationNeeded: true,
	})
	assert.Equal(t, "Would you like me to delete? Please confirm.", reply)

	// No mutation happened.
	got, err := repo.Get(ctx, saved.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	// The pending record is consumable and cleared of the flag.
	pending, ok := st.TakePending(7)
	require.True(t, ok)
	assert.Equal(t, intent.IntentDelete, pending.Intent)
	assert.False(t, pending.ConfirmationNeeded)
}
