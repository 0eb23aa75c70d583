// SPDX-License-Identifier: MPL-2.0

// Package watch provides file-watching with debounced re-execution.
//
// It monitors directory trees and individual files and invokes a callback
// after a configurable debounce period. Events within the debounce window are
// coalesced so the callback fires once with the full set of changed paths.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is the delay before firing the onChange callback after the
// last filesystem event. Rapid successive events (an editor writing then
// renaming a temp file) coalesce into a single callback.
const defaultDebounce = 500 * time.Millisecond

// defaultIgnores lists path patterns that never trigger a callback: VCS
// metadata, editor swap files and OS metadata files.
var defaultIgnores = []string{
	"**/.git/**",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.DS_Store",
}

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Roots are directories watched recursively, including directories
		// created after the watcher starts.
		Roots []string

		// Files are individual files. Each is watched through its parent
		// directory; the file itself does not have to exist yet.
		Files []string

		// Ignore are additional doublestar-compatible glob patterns matched
		// against the slash-separated path relative to the containing root.
		// They are merged with the built-in default ignores.
		Ignore []string

		// Debounce is the quiet period after the last event before the callback
		// fires. Zero or negative values fall back to defaultDebounce.
		Debounce time.Duration

		// OnChange is called after the debounce window closes with the sorted,
		// deduplicated absolute paths that changed. A nil callback is a no-op.
		OnChange func(ctx context.Context, changed []string) error

		// Logger receives diagnostics. nil uses slog.Default().
		Logger *slog.Logger
	}

	// Watcher monitors filesystem paths and fires a debounced callback when
	// watched files change. Run must be called exactly once; calling it a
	// second time returns an error.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		roots    []string
		files    map[string]struct{}
		ignores  []string
		logger   *slog.Logger
		debounce time.Duration
		started  atomic.Bool
	}
)

// New creates a Watcher from the given Config. Every root must be an existing
// directory and every file's parent directory must exist.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Roots) == 0 && len(cfg.Files) == 0 {
		return nil, errors.New("watch: nothing to watch")
	}

	// Validate all patterns eagerly so invalid globs fail at construction
	// time rather than silently failing to match at runtime.
	if err := validatePatterns(cfg.Ignore); err != nil {
		return nil, err
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ignores := make([]string, 0, len(defaultIgnores)+len(cfg.Ignore))
	ignores = append(ignores, defaultIgnores...)
	ignores = append(ignores, cfg.Ignore...)

	w := &Watcher{
		cfg:      cfg,
		files:    make(map[string]struct{}, len(cfg.Files)),
		ignores:  ignores,
		logger:   logger,
		debounce: debounce,
	}

	for _, root := range cfg.Roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("watch: resolve root %q: %w", root, err)
		}
		w.roots = append(w.roots, abs)
	}
	for _, file := range cfg.Files {
		abs, err := filepath.Abs(file)
		if err != nil {
			return nil, fmt.Errorf("watch: resolve file %q: %w", file, err)
		}
		w.files[abs] = struct{}{}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}
	w.fsw = fsw

	if err := w.register(); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			logger.Warn("watch: close after init failure", "error", closeErr)
		}
		return nil, err
	}

	return w, nil
}

// Run blocks until ctx is cancelled, processing filesystem events and
// dispatching debounced callbacks. It returns nil on clean context
// cancellation and propagates any fatal watcher errors.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("watch: Run called more than once")
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	// fire drains the pending set and invokes the OnChange callback. It runs
	// on the timer goroutine and never overlaps itself: a firing that finds
	// the previous callback still running reschedules instead.
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			w.logger.Debug("watch: previous run still in progress, rescheduling")
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		if w.cfg.OnChange != nil {
			if err := w.cfg.OnChange(ctx, changed); err != nil {
				w.logger.Error("watch: callback failed", "error", err)
			}
		}
	}

	defer func() {
		mu.Lock()
		localTimer := timer
		mu.Unlock()
		if localTimer != nil {
			localTimer.Stop()
		}
		if closeErr := w.fsw.Close(); closeErr != nil {
			w.logger.Warn("watch: close fsnotify", "error", closeErr)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}

			if !w.relevant(evt.Name) {
				continue
			}

			// Extend recursive watches to directories created after startup.
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}

			w.logger.Debug("watch: change", "path", evt.Name, "op", evt.Op.String())

			mu.Lock()
			pending[evt.Name] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			// isFatalFsnotifyError is platform-specific (see watcher_fatal_*.go).
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("watch: fsnotify error", "error", err)
		}
	}
}

// register adds every non-ignored directory under each root, plus the parent
// directory of each file, to the fsnotify watcher.
func (w *Watcher) register() error {
	for _, root := range w.roots {
		info, err := os.Stat(root)
		if err != nil {
			return fmt.Errorf("watch: root %q: %w", root, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("watch: root %q is not a directory", root)
		}
		if err := w.addTree(root); err != nil {
			return err
		}
	}

	parents := make(map[string]struct{})
	for file := range w.files {
		parents[filepath.Dir(file)] = struct{}{}
	}
	for _, dir := range slices.Sorted(maps.Keys(parents)) {
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("watch: add directory %q: %w", dir, err)
		}
	}
	return nil
}

// addTree walks root and registers every non-ignored directory.
func (w *Watcher) addTree(root string) error {
	walkErr := filepath.WalkDir(root, func(path string, d os.DirEntry, walkDirErr error) error {
		if walkDirErr != nil {
			// Skip directories we cannot access rather than aborting the walk.
			w.logger.Warn("watch: skipping inaccessible path", "path", path, "error", walkDirErr)
			return nil //nolint:nilerr // intentional skip of inaccessible paths
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignoredDir(root, path) {
			return filepath.SkipDir
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, addErr)
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("watch: walk %q: %w", root, walkErr)
	}
	return nil
}

// maybeAddDir adds path to the fsnotify watcher if it is a directory under
// one of the roots and is not ignored.
func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	root, ok := w.rootOf(path)
	if !ok || w.ignoredDir(root, path) {
		return
	}
	if err := w.addTree(path); err != nil {
		w.logger.Warn("watch: add new directory", "path", path, "error", err)
	}
}

// relevant reports whether a change to path should trigger a callback.
func (w *Watcher) relevant(path string) bool {
	if _, ok := w.files[path]; ok {
		return true
	}
	root, ok := w.rootOf(path)
	if !ok {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return !w.isIgnored(rel)
}

// rootOf returns the root that contains path.
func (w *Watcher) rootOf(path string) (string, bool) {
	for _, root := range w.roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return root, true
		}
	}
	return "", false
}

func (w *Watcher) ignoredDir(root, dir string) bool {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return false
	}
	return w.isIgnored(rel) || w.isIgnored(rel+"/")
}

// isIgnored returns true if the given root-relative path matches any ignore
// pattern.
func (w *Watcher) isIgnored(rel string) bool {
	return matchAny(w.ignores, rel)
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}

func matchAny(patterns []string, rel string) bool {
	normalized := filepath.ToSlash(rel)
	for _, pat := range patterns {
		if matched, matchErr := doublestar.Match(pat, normalized); matchErr == nil && matched {
			return true
		}
	}
	return false
}

// validatePatterns checks that every pattern is a valid doublestar glob.
func validatePatterns(patterns []string) error {
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("watch: invalid ignore pattern %q: %w", pat, doublestar.ErrBadPattern)
		}
	}
	return nil
}
