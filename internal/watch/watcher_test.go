// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/jmake/jmake/internal/testutil"
)

// startWatcher runs w until the test ends and reports Run's result.
func startWatcher(t *testing.T, w *Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(t.Context())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-errCh; err != nil {
			t.Errorf("Run() error = %v", err)
		}
	})
	// Give fsnotify a moment to settle before the test writes files.
	time.Sleep(20 * time.Millisecond)
}

func TestWatcher_Debounce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	calls := make(chan []string, 10)

	w, err := New(Config{
		Root:     dir,
		Debounce: 100 * time.Millisecond,
		OnChange: func(_ context.Context, changed []string) error {
			calls <- changed
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	startWatcher(t, w)

	for _, name := range []string{"b.cpp", "a.cppm", "c.h"} {
		testutil.MustWriteFile(t, filepath.Join(dir, name), "// x")
		time.Sleep(10 * time.Millisecond)
	}

	var got []string
	select {
	case got = <-calls:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for callback")
	}
	if want := []string{"a.cppm", "b.cpp", "c.h"}; !slices.Equal(got, want) {
		t.Errorf("changed = %v, want %v", got, want)
	}

	select {
	case extra := <-calls:
		t.Errorf("unexpected second callback with %v", extra)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_FiltersPatternsAndIgnores(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{
		"build/.keep": "",
		"src/.keep":   "",
	})
	calls := make(chan []string, 10)

	w, err := New(Config{
		Root:     dir,
		Ignore:   []string{"build/**"},
		Debounce: 50 * time.Millisecond,
		OnChange: func(_ context.Context, changed []string) error {
			calls <- changed
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	startWatcher(t, w)

	testutil.MustWriteFile(t, filepath.Join(dir, "notes.txt"), "not a source")
	testutil.MustWriteFile(t, filepath.Join(dir, "build", "gen.cpp"), "// generated")
	testutil.MustWriteFile(t, filepath.Join(dir, "assets", "a.spv"), "")

	select {
	case got := <-calls:
		t.Fatalf("ignored files triggered callback: %v", got)
	case <-time.After(300 * time.Millisecond):
	}

	testutil.MustWriteFile(t, filepath.Join(dir, "src", "main.cpp"), "int main() {}")
	select {
	case got := <-calls:
		if !slices.Equal(got, []string{"src/main.cpp"}) {
			t.Errorf("changed = %v, want [src/main.cpp]", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for callback")
	}
}

func TestWatcher_NewDirectoriesAreWatched(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	calls := make(chan []string, 10)
	w, err := New(Config{
		Root:     dir,
		Debounce: 50 * time.Millisecond,
		OnChange: func(_ context.Context, changed []string) error {
			calls <- changed
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	startWatcher(t, w)

	sub := filepath.Join(dir, "engine")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	testutil.MustWriteFile(t, filepath.Join(sub, "jmake.cue"), `workspace: "w"`)

	deadline := time.After(5 * time.Second)
	for {
		select {
		case got := <-calls:
			if slices.Contains(got, "engine/jmake.cue") {
				return
			}
		case <-deadline:
			t.Fatal("change in a new directory was not reported")
		}
	}
}

func TestWatcher_CallbacksDoNotOverlap(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var (
		active, maxActive atomic.Int32
		mu                sync.Mutex
		seen              []string
		done              = make(chan struct{}, 10)
	)
	w, err := New(Config{
		Root:     dir,
		Debounce: 20 * time.Millisecond,
		OnChange: func(_ context.Context, changed []string) error {
			n := active.Add(1)
			defer active.Add(-1)
			for {
				m := maxActive.Load()
				if n <= m || maxActive.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(150 * time.Millisecond)
			mu.Lock()
			seen = append(seen, changed...)
			mu.Unlock()
			done <- struct{}{}
			return errors.New("handler errors are logged, not fatal")
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	startWatcher(t, w)

	testutil.MustWriteFile(t, filepath.Join(dir, "a.cpp"), "1")
	time.Sleep(60 * time.Millisecond)
	testutil.MustWriteFile(t, filepath.Join(dir, "b.cpp"), "2")

	deadline := time.After(5 * time.Second)
	for {
		mu.Lock()
		complete := slices.Contains(seen, "a.cpp") && slices.Contains(seen, "b.cpp")
		mu.Unlock()
		if complete {
			break
		}
		select {
		case <-done:
		case <-deadline:
			t.Fatalf("not every change was delivered: %v", seen)
		}
	}
	if maxActive.Load() != 1 {
		t.Errorf("max concurrent callbacks = %d, want 1", maxActive.Load())
	}
}

func TestWatcher_ClearScreen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var out bytes.Buffer
	fired := make(chan struct{})
	w, err := New(Config{
		Root:        dir,
		Debounce:    20 * time.Millisecond,
		ClearScreen: true,
		Stdout:      &out,
		OnChange: func(context.Context, []string) error {
			close(fired)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	startWatcher(t, w)

	testutil.MustWriteFile(t, filepath.Join(dir, "x.cpp"), "")
	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for callback")
	}
	if out.String() != "\033[2J\033[H" {
		t.Errorf("stdout = %q, want clear sequence", out.String())
	}
}

func TestWatcher_RunTwice(t *testing.T) {
	t.Parallel()

	w, err := New(Config{Root: t.TempDir()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	if err := w.Run(ctx); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if err := w.Run(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run() error = %v, want ErrAlreadyRunning", err)
	}
}

func TestNew_InvalidPatterns(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
	}{
		{"watch pattern", Config{Patterns: []string{"src/[a-"}}},
		{"ignore pattern", Config{Ignore: []string{"{build"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tt.cfg.Root = t.TempDir()
			if _, err := New(tt.cfg); !errors.Is(err, doublestar.ErrBadPattern) {
				t.Errorf("New() error = %v, want ErrBadPattern", err)
			}
		})
	}
}

func TestDefaultPatterns(t *testing.T) {
	t.Parallel()

	watched := []string{"jmake.cue", "libs/net/jmake.cue", "deps/zlib/jmakepkg.cue", "src/a.cpp", "include/a.hpp", "mod/m.cppm", "mod/m.ixx"}
	for _, p := range watched {
		if !matchAny(DefaultPatterns(), p) {
			t.Errorf("%s should be watched", p)
		}
	}
	for _, p := range []string{"README.md", "assets/a.vert", "jmake.cue.bak"} {
		if matchAny(DefaultPatterns(), p) {
			t.Errorf("%s should not be watched", p)
		}
	}

	for _, p := range []string{".git/HEAD", "a/.git/objects/x", "assets/a.vert.spv", "src/a.cpp~", ".DS_Store"} {
		if !matchAny(DefaultIgnores(), p) {
			t.Errorf("%s should be ignored", p)
		}
	}
}
