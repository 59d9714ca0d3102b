package core

import (
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const DefaultWatchDelay = 750 * time.Millisecond

// debouncer collapses a burst of triggers into one call of fn, delay after
// the last trigger.
type debouncer struct {
	mu    sync.Mutex
	clock clockwork.Clock
	delay time.Duration
	timer clockwork.Timer
	fn    func()
}

func newDebouncer(clock clockwork.Clock, delay time.Duration, fn func()) *debouncer {
	return &debouncer{clock: clock, delay: delay, fn: fn}
}

func (d *debouncer) trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.clock.AfterFunc(d.delay, d.fn)
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Watcher calls onChange after manifest files in the watched library
// directories are created, written, renamed or removed.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce *debouncer
	done     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once

	mu    sync.Mutex
	roots map[string]bool
}

func NewWatcher(roots []string, onChange func()) (*Watcher, error) {
	return NewWatcherWithClock(roots, clockwork.NewRealClock(), DefaultWatchDelay, onChange)
}

func NewWatcherWithClock(roots []string, clock clockwork.Clock, delay time.Duration, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		debounce: newDebouncer(clock, delay, onChange),
		done:     make(chan struct{}),
		roots:    make(map[string]bool),
	}
	w.SetRoots(roots)

	w.wg.Add(1)
	go w.run()

	return w, nil
}

// SetRoots replaces the watched directories. A directory that cannot be
// watched is logged and skipped; the next SetRoots naming it tries again.
func (w *Watcher) SetRoots(roots []string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	want := make(map[string]bool, len(roots))
	for _, root := range roots {
		want[filepath.Clean(root)] = true
	}

	for root := range w.roots {
		if want[root] {
			continue
		}
		if err := w.fsw.Remove(root); err != nil {
			log.Debug().Err(err).Str("root", root).Msg("error unwatching library")
		}
		delete(w.roots, root)
	}

	for _, root := range roots {
		root = filepath.Clean(root)
		if w.roots[root] {
			continue
		}
		if err := w.fsw.Add(root); err != nil {
			log.Warn().Err(err).Str("root", root).Msg("cannot watch library")
			continue
		}
		w.roots[root] = true
	}
}

func (w *Watcher) watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]string, 0, len(w.roots))
	for root := range w.roots {
		out = append(out, root)
	}
	slices.Sort(out)
	return out
}

func (w *Watcher) run() {
	defer w.wg.Done()

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if isManifestEvent(ev) {
				log.Debug().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("library changed")
				w.debounce.trigger()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("library watcher error")
		case <-w.done:
			return
		}
	}
}

func isManifestEvent(ev fsnotify.Event) bool {
	if !IsManifestName(filepath.Base(ev.Name)) {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) ||
		ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}

// Close stops watching and waits for the event loop to exit. A pending
// debounced call is cancelled.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fsw.Close()
		w.wg.Wait()
		w.debounce.stop()
	})
	return err
}
