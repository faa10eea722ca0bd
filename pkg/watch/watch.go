// Package watch wraps an engine.Engine with an fsnotify-driven incremental
// loop: on a file write/create it re-extracts just that file and folds the
// result into a running snapshot; on remove/rename it drops the file's
// prior contribution. A debounce timer per path and an event-loop/stopChan
// lifecycle keep rapid successive edits from triggering redundant re-walks.
package watch

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/arjunv/i18nscan/pkg/engine"
	"github.com/arjunv/i18nscan/pkg/keys"
)

// Options configures watch behavior.
type Options struct {
	// DebounceMs groups rapid successive events for the same file into a
	// single re-extraction.
	DebounceMs int

	// IgnorePatterns are glob patterns (filepath.Match syntax, matched
	// against the base name) additional to the built-in
	// node_modules/.git/dist/build/.next skip.
	IgnorePatterns []string
}

// DefaultOptions returns the recommended watch configuration.
func DefaultOptions() Options {
	return Options{
		DebounceMs: 200,
		IgnorePatterns: []string{
			"*.swp",
			"*.tmp",
			"*~",
		},
	}
}

// Event describes one processed file-system change.
type Event struct {
	FilePath  string
	Op        string
	Timestamp time.Time
}

// OnChange is invoked after a file is reindexed or removed. snapshot is the
// accumulator's state at that moment (safe to read, not mutated further by
// the watcher until the next event).
type OnChange func(ev Event, snapshot *keys.KeyMap)

// Watcher incrementally tracks one directory tree's extracted keys.
type Watcher struct {
	fsw     *fsnotify.Watcher
	eng     *engine.Engine
	logger  *slog.Logger
	options Options
	onChange OnChange

	debounceTimers map[string]*time.Timer
	debounceMu     sync.Mutex

	resultsMu sync.Mutex
	results   map[string]*keys.FileResult // per-file, folded into Snapshot on demand

	stopChan chan struct{}
	stopped  bool
	mu       sync.Mutex
}

// New builds a Watcher around eng. onChange may be nil.
func New(eng *engine.Engine, logger *slog.Logger, options Options, onChange OnChange) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if options.DebounceMs == 0 {
		options.DebounceMs = 200
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: failed to create fsnotify watcher: %w", err)
	}
	return &Watcher{
		fsw:            fsw,
		eng:            eng,
		logger:         logger,
		options:        options,
		onChange:       onChange,
		debounceTimers: make(map[string]*time.Timer),
		results:        make(map[string]*keys.FileResult),
		stopChan:       make(chan struct{}),
	}, nil
}

// Seed populates the initial snapshot from a batch extraction, so Start can
// begin incremental tracking from a warm state instead of an empty one.
func (w *Watcher) Seed(paths []string, resultsByPath map[string]*keys.FileResult) {
	w.resultsMu.Lock()
	defer w.resultsMu.Unlock()
	for _, p := range paths {
		if r, ok := resultsByPath[p]; ok {
			w.results[p] = r
		}
	}
}

// Start begins watching rootPath and every subdirectory not ignored. Safe
// to call once; a second call returns an error.
func (w *Watcher) Start(rootPath string) error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return fmt.Errorf("watch: watcher already stopped")
	}
	w.mu.Unlock()

	if err := w.fsw.Add(rootPath); err != nil {
		return fmt.Errorf("watch: failed to watch %s: %w", rootPath, err)
	}

	err := filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if w.shouldIgnoreDir(path) {
			return filepath.SkipDir
		}
		if path == rootPath {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch: failed to set up watches: %w", err)
	}

	w.logger.Info("watch started", "root", rootPath)
	go w.eventLoop()
	return nil
}

// Stop halts the watcher. Idempotent.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopChan)

	w.debounceMu.Lock()
	for _, timer := range w.debounceTimers {
		timer.Stop()
	}
	w.debounceTimers = make(map[string]*time.Timer)
	w.debounceMu.Unlock()

	return w.fsw.Close()
}

// Snapshot folds every tracked file's current KeyMap into one batch result,
// mirroring engine.ExtractAll's merge step.
func (w *Watcher) Snapshot() (*keys.KeyMap, []keys.Warning) {
	w.resultsMu.Lock()
	defer w.resultsMu.Unlock()

	merged := keys.New()
	for _, r := range w.results {
		merged.Merge(r.KeyMap)
		merged.Warnings = append(merged.Warnings, r.Warnings...)
	}
	return merged, merged.Warnings
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.stopChan:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if w.shouldIgnoreFile(event.Name) {
		return
	}

	switch {
	case event.Op&fsnotify.Write == fsnotify.Write, event.Op&fsnotify.Create == fsnotify.Create:
		w.debounceReextract(event.Name)
	case event.Op&fsnotify.Remove == fsnotify.Remove, event.Op&fsnotify.Rename == fsnotify.Rename:
		w.removeFile(event.Name)
	}
}

func (w *Watcher) debounceReextract(path string) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, exists := w.debounceTimers[path]; exists {
		timer.Stop()
	}
	w.debounceTimers[path] = time.AfterFunc(
		time.Duration(w.options.DebounceMs)*time.Millisecond,
		func() {
			w.reextractFile(path)
			w.debounceMu.Lock()
			delete(w.debounceTimers, path)
			w.debounceMu.Unlock()
		},
	)
}

func (w *Watcher) reextractFile(path string) {
	source, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn("failed to read changed file", "file", path, "error", err)
		return
	}

	result, err := w.eng.ExtractFile(path, source)
	if err != nil {
		w.logger.Warn("failed to extract changed file", "file", path, "error", err)
		return
	}

	w.resultsMu.Lock()
	w.results[path] = result
	w.resultsMu.Unlock()

	w.notify(Event{FilePath: path, Op: "write"})
}

func (w *Watcher) removeFile(path string) {
	w.resultsMu.Lock()
	delete(w.results, path)
	w.resultsMu.Unlock()

	w.notify(Event{FilePath: path, Op: "remove"})
}

func (w *Watcher) notify(ev Event) {
	if w.onChange == nil {
		return
	}
	ev.Timestamp = time.Now()
	snapshot, _ := w.Snapshot()
	w.onChange(ev, snapshot)
}

func (w *Watcher) shouldIgnoreDir(path string) bool {
	switch filepath.Base(path) {
	case "node_modules", ".git", "dist", "build", ".next":
		return true
	}
	return false
}

func (w *Watcher) shouldIgnoreFile(path string) bool {
	if w.shouldIgnoreDir(filepath.Dir(path)) {
		return true
	}
	base := filepath.Base(path)
	for _, pattern := range w.options.IgnorePatterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}
