// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigrun-diffs/internal/edit"
	"github.com/jeranaias/rigrun-diffs/internal/loader"
	"github.com/jeranaias/rigrun-diffs/internal/state"
)

var quiet = log.New(io.Discard, "", 0)

func newTestHandler(t *testing.T) (*Handler, *state.Cache, string) {
	t.Helper()
	dir := t.TempDir()
	cache := state.NewCache(10)
	proc := edit.NewProcessor(loader.NewReader(dir, loader.WithLogger(quiet)), quiet)
	h := NewHandler(proc, cache, quiet)
	h.newID = func() string { return "generated" }
	return h, cache, dir
}

func call(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "want text content, got %T", res.Content[0])
	return tc.Text
}

func payload(t *testing.T, v map[string]any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func TestHandlePreview_Edit(t *testing.T) {
	h, cache, dir := newTestHandler(t)
	path := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(path, []byte("x := 1\n"), 0o644))

	res, err := h.HandlePreview(context.Background(), call(map[string]any{
		"tool":       "Edit",
		"payload":    payload(t, map[string]any{"file_path": path, "old_string": "1", "new_string": "2"}),
		"message_id": "m1",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))

	var got PreviewResponse
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &got))
	assert.Equal(t, "m1", got.MessageID)
	assert.True(t, got.Changed)
	assert.Equal(t, "x := 2\n", got.Result.Updated)
	assert.Equal(t, "Modified +1 -1", got.Summary)

	assert.Equal(t, "x := 2\n", cache.Get("m1").Result.Updated)

	// Same content again is stored but not changed.
	res, err = h.HandlePreview(context.Background(), call(map[string]any{
		"tool":       "Edit",
		"payload":    payload(t, map[string]any{"file_path": path, "old_string": "1", "new_string": "2"}),
		"message_id": "m1",
	}))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &got))
	assert.False(t, got.Changed)
}

func TestHandlePreview_WriteCreatesWithGeneratedID(t *testing.T) {
	h, cache, dir := newTestHandler(t)
	path := filepath.Join(dir, "new.txt")

	res, err := h.HandlePreview(context.Background(), call(map[string]any{
		"tool":    "Write",
		"payload": payload(t, map[string]any{"file_path": path, "content": "hello\n"}),
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var got PreviewResponse
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &got))
	assert.Equal(t, "generated", got.MessageID)
	assert.True(t, got.Result.IsCreation())
	assert.Equal(t, "New file +1", got.Summary)
	assert.True(t, cache.Get("generated").HasContent())

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "preview must not write")
}

func TestHandlePreview_Markdown(t *testing.T) {
	h, _, dir := newTestHandler(t)
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

	res, err := h.HandlePreview(context.Background(), call(map[string]any{
		"tool":    "Write",
		"payload": payload(t, map[string]any{"file_path": path, "content": "new\n"}),
		"format":  "markdown",
	}))
	require.NoError(t, err)
	out := text(t, res)
	assert.Contains(t, out, "```diff")
	assert.Contains(t, out, "-old")
	assert.Contains(t, out, "+new")
}

func TestHandlePreview_Errors(t *testing.T) {
	h, _, dir := newTestHandler(t)
	missing := filepath.Join(dir, "missing.go")

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"missing tool", map[string]any{"payload": "{}"}, "tool is required"},
		{"unknown tool", map[string]any{"tool": "Delete", "payload": "{}"}, "unknown edit tool"},
		{"missing payload", map[string]any{"tool": "Edit"}, "payload is required"},
		{"bad json", map[string]any{"tool": "Edit", "payload": "{"}, "Failed to process tool response"},
		{
			"missing file",
			map[string]any{"tool": "Edit", "payload": payload(t, map[string]any{"file_path": missing, "old_string": "a", "new_string": "b"})},
			"Failed to process tool response",
		},
		{
			"bad format",
			map[string]any{"tool": "Write", "payload": payload(t, map[string]any{"file_path": missing, "content": "x"}), "format": "html"},
			"unknown format",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := h.HandlePreview(context.Background(), call(tt.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Contains(t, text(t, res), tt.want)
		})
	}
}

func TestHandleGetAndClear(t *testing.T) {
	h, _, dir := newTestHandler(t)
	path := filepath.Join(dir, "a.txt")

	res, err := h.HandleGet(context.Background(), call(map[string]any{"message_id": "m"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	_, err = h.HandlePreview(context.Background(), call(map[string]any{
		"tool":       "Write",
		"payload":    payload(t, map[string]any{"file_path": path, "content": "x\n"}),
		"message_id": "m",
	}))
	require.NoError(t, err)

	res, err = h.HandleGet(context.Background(), call(map[string]any{"message_id": "m"}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	var got PreviewResponse
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &got))
	assert.Equal(t, "x\n", got.Result.Updated)

	res, err = h.HandleClear(context.Background(), call(map[string]any{"message_id": "m"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	res, err = h.HandleGet(context.Background(), call(map[string]any{"message_id": "m"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestNewRegistersTools(t *testing.T) {
	h, _, _ := newTestHandler(t)
	s := New(h, "test")

	resp := s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name":"`+ToolPreview+`"`)
	assert.Contains(t, string(data), `"name":"`+ToolGet+`"`)
	assert.Contains(t, string(data), `"name":"`+ToolClear+`"`)
}

func TestHandlePreview_ConcurrentMessagesDoNotCancel(t *testing.T) {
	dir := t.TempDir()
	cache := state.NewCache(20)
	proc := edit.NewProcessor(loader.NewReader(dir, loader.WithLogger(quiet)), quiet)
	h := NewHandler(proc, cache, quiet,
		WithReaders(loader.NewPool(dir, loader.WithLogger(quiet), loader.WithChunkSize(16))))

	ids := []string{"ma", "mb", "mc", "md", "me", "mf", "mg", "mh"}
	reqs := make([]mcp.CallToolRequest, len(ids))
	for i, id := range ids {
		path := filepath.Join(dir, id+".go")
		require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("line\n", 200)+id+"\n"), 0o644))
		reqs[i] = call(map[string]any{
			"tool":       "Edit",
			"payload":    payload(t, map[string]any{"file_path": path, "old_string": id, "new_string": "new" + id}),
			"message_id": id,
		})
	}

	results := make([]*mcp.CallToolResult, len(ids))
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			results[i], _ = h.HandlePreview(context.Background(), reqs[i])
		}()
	}
	close(start)
	wg.Wait()

	for i, id := range ids {
		require.NotNil(t, results[i], id)
		assert.False(t, results[i].IsError, "%s: %s", id, text(t, results[i]))
		assert.Contains(t, cache.Get(id).Result.Updated, "new"+id)
	}
}
