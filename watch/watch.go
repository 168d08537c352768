// Package watch bridges filesystem change notifications into the compile
// actor's interrupt queue, debouncing bursts of events (editors routinely
// emit several writes per save) down to one FsEvent per settled path.
package watch

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"tsvr/compile"
)

// defaultDebounce is how long a path's events are coalesced before a single
// FsEvent is forwarded to the actor.
const defaultDebounce = 75 * time.Millisecond

// Watcher wraps an fsnotify.Watcher, debouncing its events per path and
// forwarding them to a compile.Actor.
type Watcher struct {
	log      *zap.Logger
	fsw      *fsnotify.Watcher
	actor    *compile.Actor
	debounce time.Duration

	mu      sync.Mutex
	timers  map[string]*time.Timer
	closing chan struct{}
	once    sync.Once
}

// New creates a Watcher that forwards debounced filesystem events to actor.
func New(log *zap.Logger, actor *compile.Actor) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		log:      log,
		fsw:      fsw,
		actor:    actor,
		debounce: defaultDebounce,
		timers:   make(map[string]*time.Timer),
		closing:  make(chan struct{}),
	}, nil
}

// Add registers a path (file or directory) for watching.
func (w *Watcher) Add(path string) error {
	return w.fsw.Add(path)
}

// Remove unregisters a path.
func (w *Watcher) Remove(path string) error {
	return w.fsw.Remove(path)
}

// Run drains fsnotify events until Close is called. Meant to run in its own
// goroutine.
func (w *Watcher) Run() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.debounced(ev.Name)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.log != nil {
				w.log.Warn("watch error", zap.Error(err))
			}
		case <-w.closing:
			return
		}
	}
}

// debounced resets path's pending timer, firing once no further event for
// path arrives within the debounce window.
func (w *Watcher) debounced(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.actor.Send(compile.Interrupt{Kind: compile.IKFs, Fs: &compile.FsEvent{Path: path}})
	})
}

// Close stops the watcher and releases its resources.
func (w *Watcher) Close() error {
	w.once.Do(func() { close(w.closing) })
	w.mu.Lock()
	for _, t := range w.timers {
		t.Stop()
	}
	w.mu.Unlock()
	return w.fsw.Close()
}
