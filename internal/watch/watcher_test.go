// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/oxi8/oxi8pack/internal/testutil"
)

// runWatcher starts w and returns a stop function that cancels it and
// reports Run's error.
func runWatcher(t *testing.T, w *Watcher) func() error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	// Give the event loop a moment to start draining events.
	time.Sleep(50 * time.Millisecond)
	return func() error {
		cancel()
		select {
		case err := <-errCh:
			return err
		case <-time.After(5 * time.Second):
			return errors.New("Run did not return after cancel")
		}
	}
}

func TestWatcherDebounce(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	var (
		mu        sync.Mutex
		calls     int
		collected []string
	)
	done := make(chan struct{}, 1)

	w, err := New(Config{
		Roots:    []string{root},
		Debounce: 100 * time.Millisecond,
		OnChange: func(_ context.Context, changed []string) error {
			mu.Lock()
			defer mu.Unlock()
			calls++
			collected = append(collected, changed...)
			select {
			case done <- struct{}{}:
			default:
			}
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	stop := runWatcher(t, w)

	for _, name := range []string{"PONG", "TETRIS", "UFO"} {
		testutil.MustWriteFile(t, filepath.Join(root, name), []byte{0x00, 0xE0})
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for callback")
	}
	time.Sleep(250 * time.Millisecond)

	if err := stop(); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("expected 1 debounced callback, got %d", calls)
	}
	for _, name := range []string{"PONG", "TETRIS", "UFO"} {
		if !slices.Contains(collected, filepath.Join(w.roots[0], name)) {
			t.Errorf("expected %s in changed paths, got %v", name, collected)
		}
	}
}

func TestWatcherNestedAndNewDirectories(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.MustMkdirAll(t, filepath.Join(root, "existing"), 0o755)

	changes := make(chan []string, 10)
	w, err := New(Config{
		Roots:    []string{root},
		Debounce: 50 * time.Millisecond,
		OnChange: func(_ context.Context, changed []string) error {
			changes <- changed
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	stop := runWatcher(t, w)
	defer func() { _ = stop() }()

	testutil.MustWriteFile(t, filepath.Join(root, "existing", "GAME"), []byte{1})
	waitForPath(t, changes, filepath.Join(w.roots[0], "existing", "GAME"))

	testutil.MustMkdirAll(t, filepath.Join(root, "fresh"), 0o755)
	// Let the create event register the new directory before writing into it.
	time.Sleep(200 * time.Millisecond)
	testutil.MustWriteFile(t, filepath.Join(root, "fresh", "DEMO"), []byte{2})
	waitForPath(t, changes, filepath.Join(w.roots[0], "fresh", "DEMO"))
}

func TestWatcherFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	watched := filepath.Join(dir, "index.html")
	testutil.MustWriteFile(t, watched, []byte("<html>"))

	changes := make(chan []string, 10)
	w, err := New(Config{
		Files:    []string{watched},
		Debounce: 50 * time.Millisecond,
		OnChange: func(_ context.Context, changed []string) error {
			changes <- changed
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	stop := runWatcher(t, w)
	defer func() { _ = stop() }()

	// A sibling of a watched file is not watched.
	testutil.MustWriteFile(t, filepath.Join(dir, "notes.txt"), []byte("x"))
	select {
	case got := <-changes:
		t.Fatalf("unexpected callback for sibling file: %v", got)
	case <-time.After(300 * time.Millisecond):
	}

	testutil.MustWriteFile(t, watched, []byte("<html></html>"))
	waitForPath(t, changes, watched)
}

func TestWatcherIgnorePatterns(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	changes := make(chan []string, 10)

	w, err := New(Config{
		Roots:    []string{root},
		Ignore:   []string{"**/*.tmp"},
		Debounce: 50 * time.Millisecond,
		OnChange: func(_ context.Context, changed []string) error {
			changes <- changed
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	stop := runWatcher(t, w)
	defer func() { _ = stop() }()

	testutil.MustWriteFile(t, filepath.Join(root, "scratch.tmp"), []byte("x"))
	testutil.MustWriteFile(t, filepath.Join(root, "GAME~"), []byte("x"))
	select {
	case got := <-changes:
		t.Fatalf("ignored files triggered a callback: %v", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherSkipIfBusy(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	var (
		active    atomic.Int32
		overlap   atomic.Bool
		calls     atomic.Int32
		firstCall = make(chan struct{})
		release   = make(chan struct{})
	)

	w, err := New(Config{
		Roots:    []string{root},
		Debounce: 30 * time.Millisecond,
		OnChange: func(_ context.Context, _ []string) error {
			if active.Add(1) > 1 {
				overlap.Store(true)
			}
			defer active.Add(-1)
			if calls.Add(1) == 1 {
				close(firstCall)
				<-release
			}
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	stop := runWatcher(t, w)

	testutil.MustWriteFile(t, filepath.Join(root, "A"), []byte{1})
	select {
	case <-firstCall:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for first callback")
	}

	// Changes during a running callback are kept and delivered afterwards.
	testutil.MustWriteFile(t, filepath.Join(root, "B"), []byte{2})
	time.Sleep(200 * time.Millisecond)
	close(release)

	deadline := time.Now().Add(5 * time.Second)
	for calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}

	if err := stop(); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if overlap.Load() {
		t.Error("callbacks overlapped")
	}
	if calls.Load() < 2 {
		t.Errorf("expected the pending change to be delivered, got %d calls", calls.Load())
	}
}

func TestWatcherContextCancel(t *testing.T) {
	t.Parallel()

	w, err := New(Config{Roots: []string{t.TempDir()}})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	stop := runWatcher(t, w)
	if err := stop(); err != nil {
		t.Errorf("Run() should return nil on cancel, got %v", err)
	}
}

func TestWatcherDoubleRunError(t *testing.T) {
	t.Parallel()

	w, err := New(Config{Roots: []string{t.TempDir()}})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	stop := runWatcher(t, w)
	defer func() { _ = stop() }()

	if err := w.Run(context.Background()); err == nil {
		t.Error("second Run() should fail")
	}
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	testutil.MustWriteFile(t, file, []byte("x"))

	tests := []struct {
		name string
		cfg  Config
	}{
		{"nothing to watch", Config{}},
		{"missing root", Config{Roots: []string{filepath.Join(dir, "missing")}}},
		{"root is a file", Config{Roots: []string{file}}},
		{"file parent missing", Config{Files: []string{filepath.Join(dir, "nope", "x.js")}}},
		{"invalid ignore pattern", Config{Roots: []string{dir}, Ignore: []string{"[unclosed"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := New(tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDefaultIgnores(t *testing.T) {
	t.Parallel()

	ignored := []string{".git/HEAD", "roms/.git/objects/ab", "GAME.swp", "GAME~", "sub/.DS_Store"}
	for _, rel := range ignored {
		if !matchAny(defaultIgnores, rel) {
			t.Errorf("%q should be ignored by default", rel)
		}
	}
	for _, rel := range []string{"PONG", "octo/demo", "gitlike"} {
		if matchAny(defaultIgnores, rel) {
			t.Errorf("%q should not be ignored by default", rel)
		}
	}

	copied := DefaultIgnores()
	copied[0] = "changed"
	if defaultIgnores[0] == "changed" {
		t.Error("DefaultIgnores() must return a copy")
	}
}

func waitForPath(t *testing.T, changes <-chan []string, want string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case got := <-changes:
			if slices.Contains(got, want) {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for change to %s", want)
		}
	}
}
