package note

import (
	"time"

	"github.com/fsnotify/fsnotify"

	"secondbrain/agent/internal/app"
)

// debounceWindow coalesces bursts of filesystem events (editors write
// temp files then rename) into a single index invalidation.
const debounceWindow = 50 * time.Millisecond

// Watcher invalidates a FileRepository's search index when note files
// change on disk outside the process, for example when the user edits a
// note JSON by hand. It only watches the real filesystem; repositories
// over an in-memory afero.Fs run without one.
type Watcher struct {
	fsw  *fsnotify.Watcher
	done chan struct{}
}

// Watch starts watching dir for the given repository. Callers must
// Close the watcher on shutdown.
func Watch(repo *FileRepository, dir string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{fsw: fsw, done: make(chan struct{})}
	go w.run(repo)
	return w, nil
}

func (w *Watcher) run(repo *FileRepository) {
	defer close(w.done)
	logger := app.GetLogger()

	var debounce *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(debounceWindow)
				fire = debounce.C
			} else {
				if !debounce.Stop() {
					<-debounce.C
				}
				debounce.Reset(debounceWindow)
			}
		case <-fire:
			debounce = nil
			fire = nil
			repo.Invalidate()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			// Degrade to a stale-prone index, never to a failure.
			logger.Warn("note directory watcher: %v", err)
		}
	}
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	<-w.done
	return err
}
