package state

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secondbrain/agent/internal/domain/conversation"
	"secondbrain/agent/internal/domain/intent"
)

func TestStore_AppendAndHistory(t *testing.T) {
	s := New()

	s.Append(1, conversation.RoleUser, "hello", "")
	s.Append(1, conversation.RoleAssistant, "hi there", "")
	s.Append(2, conversation.RoleUser, "other chat", "")

	h := s.History(1)
	require.Len(t, h, 2)
	assert.Equal(t, conversation.RoleUser, h[0].Role)
	assert.Equal(t, "hello", h[0].Text)
	assert.Equal(t, conversation.KindText, h[0].Kind)
	assert.Equal(t, conversation.RoleAssistant, h[1].Role)

	assert.Len(t, s.History(2), 1)
}

func TestStore_UnknownChat(t *testing.T) {
	s := New()
	assert.Empty(t, s.History(99))
}

func TestStore_HistoryLimit(t *testing.T) {
	s := New(WithHistoryLimit(3))

	for i := 0; i < 10; i++ {
		s.Append(1, conversation.RoleUser, fmt.Sprintf("msg-%d", i), "")
	}

	h := s.History(1)
	require.Len(t, h, 3)
	assert.Equal(t, "msg-7", h[0].Text)
	assert.Equal(t, "msg-9", h[2].Text)
}

func TestStore_HistoryReturnsCopy(t *testing.T) {
	s := New()
	s.Append(1, conversation.RoleUser, "original", "")

	h := s.History(1)
	h[0].Text = "mutated"

	assert.Equal(t, "original", s.History(1)[0].Text)
}

func TestStore_ConcurrentChats(t *testing.T) {
	s := New(WithHistoryLimit(1000))

	var wg sync.WaitGroup
	for chat := int64(0); chat < 8; chat++ {
		wg.Add(1)
		go func(chatID int64) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				s.Append(chatID, conversation.RoleUser, fmt.Sprintf("msg-%d", i), "")
			}
		}(chat)
	}
	wg.Wait()

	for chat := int64(0); chat < 8; chat++ {
		h := s.History(chat)
		require.Len(t, h, 100)
		// Per-chat append order must be preserved.
		for i, e := range h {
			assert.Equal(t, fmt.Sprintf("msg-%d", i), e.Text)
		}
	}
}

func TestStore_Pending(t *testing.T) {
	s := New()

	_, ok := s.TakePending(1)
	assert.False(t, ok)

	s.SetPending(1, intent.Descriptor{Intent: intent.IntentDelete, NoteID: "01ABC"})

	d, ok := s.TakePending(1)
	require.True(t, ok)
	assert.Equal(t, intent.IntentDelete, d.Intent)
	assert.Equal(t, "01ABC", d.NoteID)

	// Consumed once.
	_, ok = s.TakePending(1)
	assert.False(t, ok)
}

func TestStore_PendingExpires(t *testing.T) {
	now := time.Now()
	s := New(WithPendingTTL(time.Minute), WithClock(func() time.Time { return now }))

	s.SetPending(1, intent.Descriptor{Intent: intent.IntentSave})

	now = now.Add(2 * time.Minute)
	_, ok := s.TakePending(1)
	assert.False(t, ok, "expired pending action must not be consumable")
}
