// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package watch

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigrun-diffs/internal/edit"
	"github.com/jeranaias/rigrun-diffs/internal/loader"
	"github.com/jeranaias/rigrun-diffs/internal/model"
	"github.com/jeranaias/rigrun-diffs/internal/state"
)

var quiet = log.New(io.Discard, "", 0)

// =============================================================================
// HELPERS
// =============================================================================

type fixture struct {
	dir     string
	w       *Watcher
	updates chan Update
}

func newFixture(t *testing.T, debounce time.Duration) *fixture {
	t.Helper()
	f := &fixture{dir: t.TempDir(), updates: make(chan Update, 32)}

	cache := loader.NewFileCache(16, 1<<20)
	proc := edit.NewProcessor(loader.NewReader(f.dir, loader.WithCache(cache), loader.WithLogger(quiet)), quiet)

	w, err := New(proc, func(u Update) { f.updates <- u },
		WithDebounce(debounce),
		WithLogger(quiet),
		WithFileCache(cache),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	f.w = w
	return f
}

func (f *fixture) path(name string) string {
	return filepath.Join(f.dir, name)
}

func (f *fixture) write(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(f.path(name), []byte(content), 0o644))
}

func (f *fixture) next(t *testing.T) Update {
	t.Helper()
	select {
	case u := <-f.updates:
		return u
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for watch update")
		return Update{}
	}
}

func (f *fixture) none(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case u := <-f.updates:
		t.Fatalf("unexpected update for %s", u.Key)
	case <-time.After(wait):
	}
}

func editPayload(t *testing.T, path, oldStr, newStr string) []byte {
	t.Helper()
	data, err := json.Marshal(map[string]any{
		"file_path":  path,
		"old_string": oldStr,
		"new_string": newStr,
	})
	require.NoError(t, err)
	return data
}

func writePayload(t *testing.T, path, content string) []byte {
	t.Helper()
	data, err := json.Marshal(map[string]any{"file_path": path, "content": content})
	require.NoError(t, err)
	return data
}

// =============================================================================
// RERUNS
// =============================================================================

func TestWatcher_RunsOnAddAndOnChange(t *testing.T) {
	f := newFixture(t, 20*time.Millisecond)
	f.write(t, "a.txt", "hello\n")

	require.NoError(t, f.w.Add("msg-1", model.ToolEdit, editPayload(t, f.path("a.txt"), "hello", "bye")))
	require.NoError(t, f.w.Watch())

	u := f.next(t)
	require.NoError(t, u.Err)
	assert.Equal(t, "msg-1", u.Key)
	require.Len(t, u.Results, 1)
	assert.Equal(t, "hello\n", u.Results[0].Original)
	assert.Equal(t, "bye\n", u.Results[0].Updated)

	f.write(t, "a.txt", "hello world\n")
	u = f.next(t)
	require.NoError(t, u.Err)
	assert.Equal(t, "hello world\n", u.Results[0].Original)
	assert.Equal(t, "bye world\n", u.Results[0].Updated)
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	f := newFixture(t, 300*time.Millisecond)
	f.write(t, "a.txt", "v0\n")

	require.NoError(t, f.w.Add("k", model.ToolWrite, writePayload(t, f.path("a.txt"), "final\n")))
	require.NoError(t, f.w.Watch())
	f.next(t)

	for _, v := range []string{"v1\n", "v2\n", "v3\n", "v4\n"} {
		f.write(t, "a.txt", v)
		time.Sleep(20 * time.Millisecond)
	}

	u := f.next(t)
	require.NoError(t, u.Err)
	assert.Equal(t, "v4\n", u.Results[0].Original)
	f.none(t, 500*time.Millisecond)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	f := newFixture(t, 20*time.Millisecond)
	f.write(t, "a.txt", "a\n")

	require.NoError(t, f.w.Add("k", model.ToolWrite, writePayload(t, f.path("a.txt"), "b\n")))
	require.NoError(t, f.w.Watch())
	f.next(t)

	f.write(t, "other.txt", "noise\n")
	f.none(t, 200*time.Millisecond)
}

func TestWatcher_WriteTargetRemovedBecomesCreation(t *testing.T) {
	f := newFixture(t, 20*time.Millisecond)
	f.write(t, "new.go", "package old\n")

	require.NoError(t, f.w.Add("k", model.ToolWrite, writePayload(t, f.path("new.go"), "package new\n")))
	require.NoError(t, f.w.Watch())
	u := f.next(t)
	require.NoError(t, u.Err)
	assert.False(t, u.Results[0].IsCreation())

	require.NoError(t, os.Remove(f.path("new.go")))
	u = f.next(t)
	require.NoError(t, u.Err)
	assert.True(t, u.Results[0].IsCreation())
	assert.Equal(t, "package new\n", u.Results[0].Updated)
}

func TestWatcher_EditTargetRemovedReportsError(t *testing.T) {
	f := newFixture(t, 20*time.Millisecond)
	f.write(t, "a.txt", "x\n")

	require.NoError(t, f.w.Add("k", model.ToolEdit, editPayload(t, f.path("a.txt"), "x", "y")))
	require.NoError(t, f.w.Watch())
	f.next(t)

	require.NoError(t, os.Remove(f.path("a.txt")))
	u := f.next(t)
	require.Error(t, u.Err)
	assert.Nil(t, u.Results)
	assert.Contains(t, u.Message(), "Failed to process tool response")
}

// =============================================================================
// TARGETS
// =============================================================================

func TestWatcher_Remove(t *testing.T) {
	f := newFixture(t, 20*time.Millisecond)
	f.write(t, "a.txt", "a\n")
	f.write(t, "b.txt", "b\n")

	require.NoError(t, f.w.Add("a", model.ToolWrite, writePayload(t, f.path("a.txt"), "A\n")))
	require.NoError(t, f.w.Add("b", model.ToolWrite, writePayload(t, f.path("b.txt"), "B\n")))
	assert.Equal(t, 2, f.w.Len())
	require.NoError(t, f.w.Watch())
	f.next(t)
	f.next(t)

	f.w.Remove("a")
	assert.Equal(t, 1, f.w.Len())
	f.write(t, "a.txt", "changed\n")
	f.none(t, 200*time.Millisecond)

	// The shared directory is still watched for b.
	f.write(t, "b.txt", "changed\n")
	assert.Equal(t, "b", f.next(t).Key)
}

func TestWatcher_AddRejectsBadPayload(t *testing.T) {
	f := newFixture(t, 20*time.Millisecond)

	var decErr *edit.DecodingError
	err := f.w.Add("k", model.ToolEdit, []byte(`not json`))
	assert.True(t, errors.As(err, &decErr))

	err = f.w.Add("k", model.ToolEdit, []byte(`{"old_string":"a"}`))
	assert.True(t, errors.As(err, &decErr))
	assert.Zero(t, f.w.Len())
}

func TestWatcher_WatchTwice(t *testing.T) {
	f := newFixture(t, 20*time.Millisecond)
	require.NoError(t, f.w.Watch())
	assert.Error(t, f.w.Watch())
}

// =============================================================================
// CACHE HANDLER
// =============================================================================

func TestCacheHandler(t *testing.T) {
	cache := state.NewCache(10)
	handle := CacheHandler(cache, quiet)

	result := model.NewDiffResult("a.txt", "a\n", "b\n")
	handle(Update{Key: "k", Results: []model.DiffResult{result}})
	require.True(t, cache.Get("k").HasContent())
	assert.Equal(t, "b\n", cache.Get("k").Result.Updated)

	handle(Update{Key: "k", Err: &edit.ProcessingError{Path: "a.txt"}})
	assert.Equal(t, "b\n", cache.Get("k").Result.Updated, "a failed rerun keeps the last diff")
}
