package watcher

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/doeshing/warden-go/internal/domain"
	"github.com/doeshing/warden-go/internal/ports"
)

// Watcher observes a directory tree for changes to files matching the
// configured glob patterns. Raw fsnotify events are debounced per path on
// the leading edge, pushed through a bounded channel, and collected into a
// bounded queue of ChangeEvents. When the queue is full or the performance
// monitor requests throttling, events are dropped and counted instead.
type Watcher struct {
	dir       string
	patterns  []string
	debounce  time.Duration
	queueSize int
	logger    ports.Logger
	perf      *PerfMonitor

	fsw    *fsnotify.Watcher
	events chan domain.ChangeEvent
	done   chan struct{}
	wg     sync.WaitGroup

	mu       sync.Mutex
	lastSeen map[string]time.Time
	queue    []domain.ChangeEvent
	detected int
	dropped  int
	throttle int
	active   bool
}

// Options configures a Watcher.
type Options struct {
	Dir       string
	Patterns  []string
	Debounce  time.Duration
	QueueSize int
	Perf      *PerfMonitor
	Logger    ports.Logger
}

// New builds a watcher. Start must be called before events flow.
func New(opts Options) *Watcher {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if len(opts.Patterns) == 0 {
		opts.Patterns = domain.DefaultWatchPatterns()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	return &Watcher{
		dir:       opts.Dir,
		patterns:  opts.Patterns,
		debounce:  opts.Debounce,
		queueSize: opts.QueueSize,
		logger:    opts.Logger,
		perf:      opts.Perf,
		lastSeen:  make(map[string]time.Time),
	}
}

// Start begins watching the tree rooted at dir. Directories created later
// are added as they appear.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := addTree(fsw, w.dir); err != nil {
		fsw.Close()
		return err
	}

	w.fsw = fsw
	w.events = make(chan domain.ChangeEvent, w.queueSize)
	w.done = make(chan struct{})

	w.mu.Lock()
	w.active = true
	w.mu.Unlock()

	w.wg.Add(2)
	go w.produce()
	go w.consume()

	if w.perf != nil {
		w.perf.Start()
	}
	return nil
}

// Stop tears the watcher down and waits briefly for the pipeline to drain.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.active {
		w.mu.Unlock()
		return
	}
	w.active = false
	w.mu.Unlock()

	close(w.done)
	w.fsw.Close()

	finished := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		if w.logger != nil {
			w.logger.Warn("watcher shutdown timed out", nil)
		}
	}

	if w.perf != nil {
		w.perf.Stop()
	}
}

// Stats returns a snapshot of the watcher counters.
func (w *Watcher) Stats() domain.WatchStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return domain.WatchStats{
		ChangesDetected: w.detected,
		QueueLength:     len(w.queue),
		DroppedEvents:   w.dropped,
		ThrottleCount:   w.throttle,
		Active:          w.active,
	}
}

// Recent returns up to limit queued events, newest last.
func (w *Watcher) Recent(limit int) []domain.ChangeEvent {
	w.mu.Lock()
	defer w.mu.Unlock()
	if limit <= 0 || limit > len(w.queue) {
		limit = len(w.queue)
	}
	out := make([]domain.ChangeEvent, limit)
	copy(out, w.queue[len(w.queue)-limit:])
	return out
}

// Drain removes and returns all queued events.
func (w *Watcher) Drain() []domain.ChangeEvent {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := w.queue
	w.queue = nil
	return out
}

// Perf exposes the monitor's current reading, zero when none is attached.
func (w *Watcher) Perf() domain.PerfSnapshot {
	if w.perf == nil {
		return domain.PerfSnapshot{}
	}
	return w.perf.Snapshot()
}

func (w *Watcher) produce() {
	defer w.wg.Done()
	defer close(w.events)

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleRaw(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.Warn("watch error", map[string]interface{}{"error": err.Error()})
			}
		}
	}
}

func (w *Watcher) handleRaw(event fsnotify.Event) {
	// New directories join the watch set so the tree stays covered.
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = addTree(w.fsw, event.Name)
			return
		}
	}

	if !matchesAny(w.patterns, event.Name) {
		return
	}

	kind, ok := eventKind(event.Op)
	if !ok {
		return
	}

	now := time.Now()
	w.mu.Lock()
	if last, seen := w.lastSeen[event.Name]; seen && now.Sub(last) < w.debounce {
		w.mu.Unlock()
		return
	}
	w.lastSeen[event.Name] = now
	throttling := w.perf != nil && w.perf.ShouldThrottle()
	if throttling {
		w.throttle++
		w.dropped++
	}
	w.mu.Unlock()
	if throttling {
		return
	}

	change := domain.ChangeEvent{Path: event.Name, Kind: kind, Timestamp: now}
	select {
	case w.events <- change:
	default:
		w.mu.Lock()
		w.dropped++
		w.mu.Unlock()
	}
}

func (w *Watcher) consume() {
	defer w.wg.Done()
	for event := range w.events {
		w.mu.Lock()
		w.detected++
		if len(w.queue) >= w.queueSize {
			w.dropped++
			w.queue = w.queue[1:]
		}
		w.queue = append(w.queue, event)
		w.mu.Unlock()

		if w.logger != nil {
			w.logger.Debug("change detected", map[string]interface{}{
				"path": event.Path,
				"kind": string(event.Kind),
			})
		}
	}
}

func eventKind(op fsnotify.Op) (domain.ChangeEventKind, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return domain.ChangeCreated, true
	case op.Has(fsnotify.Write):
		return domain.ChangeModified, true
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return domain.ChangeDeleted, true
	}
	return "", false
}

// addTree registers dir and every subdirectory; fsnotify itself is not
// recursive.
func addTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if name != "." && strings.HasPrefix(name, ".") {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}

func matchesAny(patterns []string, path string) bool {
	base := filepath.Base(path)
	for _, pattern := range patterns {
		pattern = strings.TrimPrefix(pattern, "**/")
		if ok, err := filepath.Match(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}
