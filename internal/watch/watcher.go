// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package watch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jeranaias/rigrun-diffs/internal/edit"
	"github.com/jeranaias/rigrun-diffs/internal/loader"
	"github.com/jeranaias/rigrun-diffs/internal/model"
)

// DefaultDebounce is used when no debounce is configured.
const DefaultDebounce = 150 * time.Millisecond

// =============================================================================
// UPDATE
// =============================================================================

// Update is delivered after a watched target was reprocessed.
type Update struct {
	Key     string
	Path    string
	Results []model.DiffResult
	// Err is set when processing failed. Cancelled runs are never delivered.
	Err error
}

// Message is the user-facing text for Err, or "" on success.
func (u Update) Message() string {
	if u.Err == nil {
		return ""
	}
	return edit.UserMessage(u.Err)
}

// =============================================================================
// WATCHER
// =============================================================================

type target struct {
	key     string
	file    string // as given in the payload
	path    string // absolute
	dir     string
	tool    model.EditTool
	payload []byte
}

// Watcher re-runs tool payloads when the files they target change on disk.
//
// Each target's parent directory is watched rather than the file itself so
// editors that save by rename are still seen. Bursts of events are
// debounced per target. Targets are processed one at a time, which keeps a
// single-flight reader from cancelling its own work.
type Watcher struct {
	proc     *edit.Processor
	handle   func(Update)
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *log.Logger
	files    *loader.FileCache

	mu      sync.Mutex
	targets map[string]*target   // key -> target
	dirs    map[string]int       // watched dir -> target count
	pending map[string]time.Time // key -> last change time

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long a target must be quiet before it is rerun.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger for WATCH_* events.
func WithLogger(logger *log.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithFileCache invalidates changed paths in the loader's cache before
// rerunning, so a rewrite inside the mtime granularity is never missed.
func WithFileCache(cache *loader.FileCache) Option {
	return func(w *Watcher) { w.files = cache }
}

// New creates a watcher that reports every rerun to handle. handle is
// called from the watcher's goroutine and should not block for long.
func New(proc *edit.Processor, handle func(Update), opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		proc:     proc,
		handle:   handle,
		watcher:  fsw,
		debounce: DefaultDebounce,
		logger:   log.New(io.Discard, "", 0),
		targets:  make(map[string]*target),
		dirs:     make(map[string]int),
		pending:  make(map[string]time.Time),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// =============================================================================
// TARGETS
// =============================================================================

// Add watches the file named by payload's file_path and reruns the payload
// under key whenever it changes. A first run is scheduled right away.
// Adding an existing key replaces its payload.
func (w *Watcher) Add(key string, tool model.EditTool, payload []byte) error {
	var req struct {
		FilePath string `json:"file_path"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		return &edit.DecodingError{Tool: tool, Err: err}
	}
	if req.FilePath == "" {
		return &edit.DecodingError{Tool: tool, Err: errors.New("missing file_path")}
	}
	abs, err := filepath.Abs(req.FilePath)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", req.FilePath, err)
	}
	t := &target{
		key:     key,
		file:    req.FilePath,
		path:    abs,
		dir:     filepath.Dir(abs),
		tool:    tool,
		payload: append([]byte(nil), payload...),
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.dirs[t.dir] == 0 {
		if err := w.watcher.Add(t.dir); err != nil {
			return fmt.Errorf("watch %s: %w", t.dir, err)
		}
	}
	w.dirs[t.dir]++
	if old, ok := w.targets[key]; ok {
		w.releaseDirLocked(old.dir)
	}
	w.targets[key] = t
	w.pending[key] = time.Time{}
	w.logger.Printf("WATCH_ADD | key=%s path=%s tool=%s", key, abs, tool)
	return nil
}

// Remove stops watching key.
func (w *Watcher) Remove(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	t, ok := w.targets[key]
	if !ok {
		return
	}
	delete(w.targets, key)
	delete(w.pending, key)
	w.releaseDirLocked(t.dir)
	w.logger.Printf("WATCH_REMOVE | key=%s", key)
}

func (w *Watcher) releaseDirLocked(dir string) {
	w.dirs[dir]--
	if w.dirs[dir] > 0 {
		return
	}
	delete(w.dirs, dir)
	_ = w.watcher.Remove(dir)
}

// Len returns the number of watched targets.
func (w *Watcher) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.targets)
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Watch starts the event and debounce goroutines. It returns immediately.
func (w *Watcher) Watch() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return errors.New("watcher already started")
	}
	if w.ctx.Err() != nil {
		return errors.New("watcher closed")
	}
	w.started = true

	w.wg.Add(2)
	go w.processEvents()
	go w.processPending()
	return nil
}

// Close stops watching, cancels any run in progress and waits for the
// goroutines to exit.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

// =============================================================================
// EVENT LOOPS
// =============================================================================

func (w *Watcher) processEvents() {
	defer w.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			w.logger.Printf("WATCH_PANIC | loop=events panic=%v", r)
		}
	}()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			w.markChanged(filepath.Clean(event.Name), event.Op)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Printf("WATCH_ERROR | error=%v", err)
		}
	}
}

// markChanged schedules every target whose file is path.
func (w *Watcher) markChanged(path string, op fsnotify.Op) {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := time.Now()
	for key, t := range w.targets {
		if t.path == path {
			w.pending[key] = now
			w.logger.Printf("WATCH_EVENT | key=%s path=%s op=%s", key, path, op)
		}
	}
}

func (w *Watcher) processPending() {
	defer w.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			w.logger.Printf("WATCH_PANIC | loop=pending panic=%v", r)
		}
	}()

	tick := min(100*time.Millisecond, max(10*time.Millisecond, w.debounce/2))
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-ticker.C:
			for _, t := range w.due(time.Now()) {
				w.run(t)
			}
		}
	}
}

// due removes and returns the targets that have been quiet for the
// debounce interval.
func (w *Watcher) due(now time.Time) []*target {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []*target
	for key, changed := range w.pending {
		if now.Sub(changed) < w.debounce {
			continue
		}
		delete(w.pending, key)
		if t, ok := w.targets[key]; ok {
			out = append(out, t)
		}
	}
	return out
}

func (w *Watcher) run(t *target) {
	if w.files != nil {
		w.files.Invalidate(t.file)
	}
	start := time.Now()
	results, err := w.proc.BuildResults(w.ctx, t.payload, t.tool)
	if loader.IsCancelled(err) {
		if w.ctx.Err() != nil {
			return
		}
		// Superseded by another read on the same loader. Try again.
		w.logger.Printf("WATCH_SUPERSEDED | key=%s", t.key)
		w.mu.Lock()
		if _, ok := w.targets[t.key]; ok {
			w.pending[t.key] = time.Now()
		}
		w.mu.Unlock()
		return
	}

	// Removed while running.
	w.mu.Lock()
	current := w.targets[t.key] == t
	w.mu.Unlock()
	if !current {
		return
	}

	if err != nil {
		w.logger.Printf("WATCH_RUN_FAILED | key=%s path=%s error=%v", t.key, t.path, err)
	} else {
		w.logger.Printf("WATCH_RUN | key=%s path=%s duration=%s", t.key, t.path, time.Since(start).Round(time.Millisecond))
	}
	w.handle(Update{Key: t.key, Path: t.path, Results: results, Err: err})
}
