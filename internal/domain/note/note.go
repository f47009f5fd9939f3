package note

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrNotFound is returned when an operation references a note that does
// not exist in the store.
var ErrNotFound = errors.New("note not found")

// Note is a titled, tagged text record persisted by the store.
// The ID is assigned once at creation and never changes; UpdatedAt
// advances on every mutation.
type Note struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	Tags      []string       `json:"tags"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Metadata  map[string]any `json:"metadata"`
}

// Touch refreshes the mutation timestamp.
func (n *Note) Touch(now time.Time) {
	n.UpdatedAt = now
}

// HasAllTags reports whether every tag in want is present on the note.
// An empty want matches any note.
func (n *Note) HasAllTags(want []string) bool {
	for _, w := range want {
		found := false
		for _, t := range n.Tags {
			if t == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// IDGenerator produces note identifiers.
// Format: ULID (e.g., 01JB6X8Y2K9FQR4T3VWHGP5M2C). Monotonic entropy
// guarantees uniqueness even for IDs generated within the same
// millisecond, unlike the wall-clock timestamps this replaces.
type IDGenerator struct {
	mu      sync.Mutex
	entropy io.Reader
}

// NewIDGenerator creates a generator backed by crypto/rand.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// NewID returns a fresh unique identifier.
func (g *IDGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String()
}

// Repository is the note store contract.
//
// Get returns (nil, nil) for a missing note and Delete returns
// (false, nil); neither treats absence as an error. Update reports
// ErrNotFound. Every mutating operation durably persists the record
// before returning.
type Repository interface {
	Save(ctx context.Context, title, content string, tags []string, metadata map[string]any) (*Note, error)
	Get(ctx context.Context, id string) (*Note, error)
	Update(ctx context.Context, id, title, content string, tags []string) (*Note, error)
	Delete(ctx context.Context, id string) (bool, error)
	Search(ctx context.Context, query string, tags []string) ([]*Note, error)
}
