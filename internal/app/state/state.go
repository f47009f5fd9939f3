// Package state keeps the in-process mutable state of the agent: the
// per-chat conversation log and the pending-action records behind the
// confirmation gate. Both are process-local by design; notes are the
// only durable state.
package state

import (
	"sync"
	"time"

	"secondbrain/agent/internal/domain/conversation"
	"secondbrain/agent/internal/domain/intent"
)

// DefaultHistoryLimit bounds a chat's retained log when no explicit cap
// is configured.
const DefaultHistoryLimit = 50

// DefaultPendingTTL bounds how long a confirmation request stays
// actionable. A stale "yes" must not fire an old action.
const DefaultPendingTTL = 5 * time.Minute

type pendingAction struct {
	descriptor intent.Descriptor
	storedAt   time.Time
}

// Store is the conversation-state object. It is injected where needed,
// never a package singleton, so tests can bound and inspect it.
type Store struct {
	mu           sync.RWMutex
	histories    map[int64][]conversation.Entry
	pending      map[int64]pendingAction
	historyLimit int
	pendingTTL   time.Duration
	now          func() time.Time
}

// Option tweaks a Store at construction.
type Option func(*Store)

// WithHistoryLimit caps retained entries per chat. Values below 1 keep
// the default.
func WithHistoryLimit(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.historyLimit = n
		}
	}
}

// WithPendingTTL sets how long a pending action stays consumable.
func WithPendingTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.pendingTTL = d
		}
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		histories:    make(map[int64][]conversation.Entry),
		pending:      make(map[int64]pendingAction),
		historyLimit: DefaultHistoryLimit,
		pendingTTL:   DefaultPendingTTL,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append adds an entry to the chat's log, evicting the oldest entries
// past the retention cap. Safe for concurrent use; a single chat's log
// preserves append order.
func (s *Store) Append(chatID int64, role conversation.Role, text, kind string) {
	if kind == "" {
		kind = conversation.KindText
	}
	entry := conversation.Entry{
		ChatID:    chatID,
		Role:      role,
		Text:      text,
		Kind:      kind,
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	log := append(s.histories[chatID], entry)
	if over := len(log) - s.historyLimit; over > 0 {
		log = log[over:]
	}
	s.histories[chatID] = log
}

// History returns a copy of the chat's retained log, oldest first.
// Unknown chats yield an empty slice, never an error.
func (s *Store) History(chatID int64) []conversation.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log := s.histories[chatID]
	out := make([]conversation.Entry, len(log))
	copy(out, log)
	return out
}

// SetPending records the action awaiting confirmation for the chat,
// replacing any previous one.
func (s *Store) SetPending(chatID int64, d intent.Descriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[chatID] = pendingAction{descriptor: d, storedAt: s.now()}
}

// TakePending removes and returns the chat's pending action. Expired
// records are dropped and reported as absent.
func (s *Store) TakePending(chatID int64) (intent.Descriptor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[chatID]
	if !ok {
		return intent.Descriptor{}, false
	}
	delete(s.pending, chatID)
	if s.now().Sub(p.storedAt) > s.pendingTTL {
		return intent.Descriptor{}, false
	}
	return p.descriptor, true
}
