// Package note implements the file-backed note repository: one JSON
// file per note identifier under the data directory. This layout is the
// only durable state of the agent and must stay stable across restarts.
package note

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/text/language"
	"golang.org/x/text/search"

	"secondbrain/agent/internal/app"
	"secondbrain/agent/internal/domain/note"
	"secondbrain/agent/internal/infra/persistence/file"
)

// validID rejects anything that could escape the data directory. Note
// IDs reach this package from language-model output, so they are
// untrusted. ULIDs and the legacy YYYYMMDD_HHMMSS IDs both pass.
var validID = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// FileRepository is the afero-backed note store. Mutations write
// atomically (temp + fsync + rename) and hold a per-note-ID mutex
// across read-modify-write, so concurrent updates of the same note do
// not interleave. Search is served from an in-memory index that is
// rebuilt lazily after Invalidate.
type FileRepository struct {
	fs     afero.Fs
	dir    string
	gen    *note.IDGenerator
	logger app.Logger

	mu         sync.RWMutex
	index      map[string]*note.Note
	indexValid bool

	locks sync.Map // note ID -> *sync.Mutex
}

// NewFileRepository creates the store rooted at dir, creating the
// directory if needed.
func NewFileRepository(fs afero.Fs, dir string) (*FileRepository, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory %s: %w", dir, err)
	}
	return &FileRepository{
		fs:     fs,
		dir:    dir,
		gen:    note.NewIDGenerator(),
		logger: app.GetLogger(),
		index:  make(map[string]*note.Note),
	}, nil
}

func (r *FileRepository) notePath(id string) string {
	return filepath.Join(r.dir, id+".json")
}

func (r *FileRepository) lockID(id string) func() {
	v, _ := r.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Save allocates a fresh identifier, persists the full record, and
// returns it.
func (r *FileRepository) Save(ctx context.Context, title, content string, tags []string, metadata map[string]any) (*note.Note, error) {
	if tags == nil {
		tags = []string{}
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	now := time.Now().UTC()
	n := &note.Note{
		ID:        r.gen.NewID(),
		Title:     title,
		Content:   content,
		Tags:      tags,
		CreatedAt: now,
		UpdatedAt: now,
		Metadata:  metadata,
	}
	if err := r.persist(n); err != nil {
		return nil, err
	}
	r.indexPut(n)
	return clone(n), nil
}

// Get returns the record, or (nil, nil) when no note has that
// identifier.
func (r *FileRepository) Get(ctx context.Context, id string) (*note.Note, error) {
	if !validID.MatchString(id) {
		return nil, nil
	}
	return r.read(id)
}

// Update overwrites only the supplied fields: empty title and content
// are left unchanged, a nil tags slice is left unchanged, a non-nil one
// replaces the tag set. Returns note.ErrNotFound for a missing note.
func (r *FileRepository) Update(ctx context.Context, id, title, content string, tags []string) (*note.Note, error) {
	if !validID.MatchString(id) {
		return nil, fmt.Errorf("%w: %s", note.ErrNotFound, id)
	}
	unlock := r.lockID(id)
	defer unlock()

	n, err := r.read(id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, fmt.Errorf("%w: %s", note.ErrNotFound, id)
	}

	if title != "" {
		n.Title = title
	}
	if content != "" {
		n.Content = content
	}
	if tags != nil {
		n.Tags = tags
	}
	n.Touch(time.Now().UTC())

	if err := r.persist(n); err != nil {
		return nil, err
	}
	r.indexPut(n)
	return clone(n), nil
}

// Delete removes the record. Returns true iff a record existed; a
// missing note is (false, nil), never an error.
func (r *FileRepository) Delete(ctx context.Context, id string) (bool, error) {
	if !validID.MatchString(id) {
		return false, nil
	}
	unlock := r.lockID(id)
	defer unlock()

	path := r.notePath(id)
	if _, err := r.fs.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat note %s: %w", id, err)
	}
	if err := r.fs.Remove(path); err != nil {
		return false, fmt.Errorf("remove note %s: %w", id, err)
	}
	r.indexDelete(id)
	return true, nil
}

// Search returns notes where query (if non-empty) case-insensitively
// substring-matches title or content, and every requested tag is
// present. Absent filters impose no constraint. Results are ordered by
// UpdatedAt descending.
func (r *FileRepository) Search(ctx context.Context, query string, tags []string) ([]*note.Note, error) {
	notes, err := r.all()
	if err != nil {
		return nil, err
	}

	matcher := search.New(language.Und, search.IgnoreCase)
	out := make([]*note.Note, 0, len(notes))
	for _, n := range notes {
		if query != "" && !matches(matcher, n, query) {
			continue
		}
		if !n.HasAllTags(tags) {
			continue
		}
		out = append(out, clone(n))
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// Invalidate marks the in-memory index stale. The next Search rebuilds
// it from disk. Called by the directory watcher when note files change
// outside the process.
func (r *FileRepository) Invalidate() {
	r.mu.Lock()
	r.indexValid = false
	r.mu.Unlock()
}

func matches(m *search.Matcher, n *note.Note, query string) bool {
	if start, _ := m.IndexString(n.Title, query); start >= 0 {
		return true
	}
	start, _ := m.IndexString(n.Content, query)
	return start >= 0
}

func (r *FileRepository) persist(n *note.Note) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal note %s: %w", n.ID, err)
	}
	if err := file.WriteFileAtomic(r.fs, r.notePath(n.ID), data); err != nil {
		return fmt.Errorf("persist note %s: %w", n.ID, err)
	}
	return nil
}

func (r *FileRepository) read(id string) (*note.Note, error) {
	data, err := afero.ReadFile(r.fs, r.notePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read note %s: %w", id, err)
	}
	var n note.Note
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("decode note %s: %w", id, err)
	}
	return &n, nil
}

// all returns the indexed notes, rebuilding the index from disk when it
// is stale.
func (r *FileRepository) all() ([]*note.Note, error) {
	r.mu.RLock()
	if r.indexValid {
		out := make([]*note.Note, 0, len(r.index))
		for _, n := range r.index {
			out = append(out, n)
		}
		r.mu.RUnlock()
		return out, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexValid {
		out := make([]*note.Note, 0, len(r.index))
		for _, n := range r.index {
			out = append(out, n)
		}
		return out, nil
	}

	entries, err := afero.ReadDir(r.fs, r.dir)
	if err != nil {
		return nil, fmt.Errorf("list data directory: %w", err)
	}
	index := make(map[string]*note.Note, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := strings.TrimSuffix(name, ".json")
		data, err := afero.ReadFile(r.fs, filepath.Join(r.dir, name))
		if err != nil {
			r.logger.Warn("skipping unreadable note file %s: %v", name, err)
			continue
		}
		var n note.Note
		if err := json.Unmarshal(data, &n); err != nil {
			r.logger.Warn("skipping malformed note file %s: %v", name, err)
			continue
		}
		index[id] = &n
	}
	r.index = index
	r.indexValid = true

	out := make([]*note.Note, 0, len(index))
	for _, n := range index {
		out = append(out, n)
	}
	return out, nil
}

func (r *FileRepository) indexPut(n *note.Note) {
	r.mu.Lock()
	if r.indexValid {
		r.index[n.ID] = clone(n)
	}
	r.mu.Unlock()
}

func (r *FileRepository) indexDelete(id string) {
	r.mu.Lock()
	if r.indexValid {
		delete(r.index, id)
	}
	r.mu.Unlock()
}

func clone(n *note.Note) *note.Note {
	c := *n
	c.Tags = append([]string(nil), n.Tags...)
	if n.Metadata != nil {
		c.Metadata = make(map[string]any, len(n.Metadata))
		for k, v := range n.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
