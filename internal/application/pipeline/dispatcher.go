// Package pipeline implements the conversation-state and
// intent-resolution pipeline: append, classify, extract, gate on
// confirmation, dispatch to the note store, reply.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"secondbrain/agent/internal/app"
	"secondbrain/agent/internal/app/state"
	"secondbrain/agent/internal/domain/intent"
	"secondbrain/agent/internal/domain/note"
)

// queryResultLimit caps how many matches a query reply lists.
const queryResultLimit = 5

// Reply texts shared across paths.
const (
	replyUnknown = "I'm not sure how to handle that request. Please try again."
	replyApology = "I apologize, but I'm having trouble processing your request right now. Please try again."
)

// Dispatcher maps an extracted intent to exactly one note store
// operation and produces the reply text.
type Dispatcher struct {
	notes  note.Repository
	state  *state.Store
	logger app.Logger
}

// NewDispatcher creates a dispatcher over the given store and
// conversation state.
func NewDispatcher(notes note.Repository, st *state.Store) *Dispatcher {
	return &Dispatcher{
		notes:  notes,
		state:  st,
		logger: app.GetLogger(),
	}
}

// Dispatch resolves a descriptor into one reply. A descriptor asking
// for confirmation is parked as the chat's pending action and answered
// with a confirmation prompt; nothing is executed until the user
// confirms.
func (d *Dispatcher) Dispatch(ctx context.Context, chatID int64, desc intent.Descriptor) string {
	// An unknown intent has nothing meaningful to confirm.
	if desc.Intent == intent.IntentUnknown {
		return replyUnknown
	}

	if desc.ConfirmationNeeded {
		pending := desc
		pending.ConfirmationNeeded = false
		d.state.SetPending(chatID, pending)
		return fmt.Sprintf("Would you like me to %s? Please confirm.", desc.Intent)
	}

	return d.Execute(ctx, desc)
}

// Execute performs the store operation for a confirmed descriptor and
// formats the reply. Not-found conditions become user-visible replies,
// never errors; unexpected store failures become the apology line.
func (d *Dispatcher) Execute(ctx context.Context, desc intent.Descriptor) string {
	switch desc.Intent {
	case intent.IntentSave:
		return d.save(ctx, desc)
	case intent.IntentUpdate:
		return d.update(ctx, desc)
	case intent.IntentDelete:
		return d.delete(ctx, desc)
	case intent.IntentQuery:
		return d.query(ctx, desc)
	default:
		return replyUnknown
	}
}

func (d *Dispatcher) save(ctx context.Context, desc intent.Descriptor) string {
	title := desc.Title
	if title == "" {
		title = "Untitled Note"
	}
	n, err := d.notes.Save(ctx, title, desc.Content, desc.Tags, nil)
	if err != nil {
		d.logger.Error("save note: %v", err)
		return replyApology
	}
	return fmt.Sprintf("✅ Note saved successfully with ID: %s", n.ID)
}

func (d *Dispatcher) update(ctx context.Context, desc intent.Descriptor) string {
	if desc.NoteID == "" {
		return "I couldn't tell which note to update. Please include the note ID."
	}
	n, err := d.notes.Update(ctx, desc.NoteID, desc.Title, desc.Content, desc.Tags)
	if err != nil {
		if errors.Is(err, note.ErrNotFound) {
			return fmt.Sprintf("❌ Note %s not found", desc.NoteID)
		}
		d.logger.Error("update note %s: %v", desc.NoteID, err)
		return replyApology
	}
	return fmt.Sprintf("✅ Note %s updated successfully", n.ID)
}

func (d *Dispatcher) delete(ctx context.Context, desc intent.Descriptor) string {
	if desc.NoteID == "" {
		return "I couldn't tell which note to delete. Please include the note ID."
	}
	removed, err := d.notes.Delete(ctx, desc.NoteID)
	if err != nil {
		d.logger.Error("delete note %s: %v", desc.NoteID, err)
		return replyApology
	}
	if !removed {
		return "❌ Note not found"
	}
	return "✅ Note deleted successfully"
}

func (d *Dispatcher) query(ctx context.Context, desc intent.Descriptor) string {
	notes, err := d.notes.Search(ctx, desc.SearchQuery, desc.Tags)
	if err != nil {
		d.logger.Error("search notes: %v", err)
		return replyApology
	}
	if len(notes) == 0 {
		return "No matching notes found."
	}

	var b strings.Builder
	b.WriteString("📝 Here are the matching notes:\n\n")
	for i, n := range notes {
		if i == queryResultLimit {
			break
		}
		fmt.Fprintf(&b, "- %s (ID: %s)\n", n.Title, n.ID)
	}
	if rest := len(notes) - queryResultLimit; rest > 0 {
		fmt.Fprintf(&b, "\n...and %d more notes.", rest)
	}
	return b.String()
}
