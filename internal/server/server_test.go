// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigrun-diffs/internal/bridge"
	"github.com/jeranaias/rigrun-diffs/internal/config"
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
	srv   *Server
	ts    *httptest.Server
	cache *state.Cache
	dir   string
}

func newFixture(t *testing.T, opts ...func(dir string) Option) *fixture {
	t.Helper()
	dir := t.TempDir()
	cache := state.NewCache(10)
	cache.SetLogger(quiet)
	proc := edit.NewProcessor(loader.NewReader(dir, loader.WithLogger(quiet)), quiet)

	serverOpts := []Option{WithLogger(quiet)}
	for _, opt := range opts {
		serverOpts = append(serverOpts, opt(dir))
	}
	srv := New(config.Default(), proc, cache, serverOpts...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return &fixture{srv: srv, ts: ts, cache: cache, dir: dir}
}

func (f *fixture) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (f *fixture) submit(t *testing.T, id string, body any) (*http.Response, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(f.ts.URL+"/api/diffs/"+id, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func (f *fixture) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.ts.URL, "http") + "/bridge?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readCommand(t *testing.T, conn *websocket.Conn) bridge.Command {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	cmd, err := bridge.UnmarshalCommand(data)
	require.NoError(t, err)
	return cmd
}

func sendEvent(t *testing.T, conn *websocket.Conn, ev bridge.Event) {
	t.Helper()
	raw, err := bridge.EncodeEvent(ev)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, raw))
}

func editBody(path, oldString, newString string) map[string]any {
	return map[string]any{
		"tool": "Edit",
		"payload": map[string]any{
			"file_path":  path,
			"old_string": oldString,
			"new_string": newString,
		},
	}
}

// =============================================================================
// API TESTS
// =============================================================================

func TestHandleHealth(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-RateLimit-Limit"))

	var health HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, Version, health.Version)
}

func TestSubmitGetDelete(t *testing.T) {
	f := newFixture(t)
	path := f.writeFile(t, "main.go", "package main\n\nfunc a() {}\n")

	resp, out := f.submit(t, "m1", editBody(path, "a()", "b()"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["changed"])

	st := f.cache.Get("m1")
	require.True(t, st.HasContent())
	assert.Equal(t, "package main\n\nfunc b() {}\n", st.Result.Updated)

	// Same content again is stored once.
	_, out = f.submit(t, "m1", editBody(path, "a()", "b()"))
	assert.Equal(t, false, out["changed"])

	get, err := http.Get(f.ts.URL + "/api/diffs/m1")
	require.NoError(t, err)
	var got DiffResponse
	require.NoError(t, json.NewDecoder(get.Body).Decode(&got))
	get.Body.Close()
	assert.Equal(t, path, got.State.Result.FilePath)

	req, _ := http.NewRequest(http.MethodDelete, f.ts.URL+"/api/diffs/m1", nil)
	del, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	del.Body.Close()
	assert.Equal(t, http.StatusNoContent, del.StatusCode)

	missing, err := http.Get(f.ts.URL + "/api/diffs/m1")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestSubmitConcurrentMessagesDoNotCancel(t *testing.T) {
	f := newFixture(t, func(dir string) Option {
		return WithReaders(loader.NewPool(dir, loader.WithLogger(quiet), loader.WithChunkSize(16)))
	})

	ids := []string{"ma", "mb", "mc", "md", "me", "mf", "mg", "mh"}
	bodies := make([][]byte, len(ids))
	for i, id := range ids {
		path := f.writeFile(t, id+".go", strings.Repeat("line\n", 200)+"func "+id+"() {}\n")
		raw, err := json.Marshal(editBody(path, "func "+id, "func new"+id))
		require.NoError(t, err)
		bodies[i] = raw
	}

	codes := make([]int, len(ids))
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			resp, err := http.Post(f.ts.URL+"/api/diffs/"+id, "application/json", bytes.NewReader(bodies[i]))
			if err != nil {
				return
			}
			resp.Body.Close()
			codes[i] = resp.StatusCode
		}()
	}
	close(start)
	wg.Wait()

	for i, id := range ids {
		assert.Equal(t, http.StatusOK, codes[i], "message %s", id)
		assert.Contains(t, f.cache.Get(id).Result.Updated, "func new"+id)
	}
}

func TestSubmitWriteCreatesFile(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(f.dir, "new.txt")

	resp, _ := f.submit(t, "w1", map[string]any{
		"tool":    "Write",
		"payload": map[string]any{"file_path": path, "content": "hello\n"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, f.cache.Get("w1").Result.IsCreation())
}

func TestSubmitErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		body   any
		status int
		want   string
	}{
		{"unknown tool", map[string]any{"tool": "Delete", "payload": map[string]any{}}, http.StatusBadRequest, ""},
		{"missing payload", map[string]any{"tool": "Edit"}, http.StatusBadRequest, "missing payload"},
		{"payload without path", map[string]any{"tool": "Edit", "payload": map[string]any{"old_string": "a"}}, http.StatusBadRequest, ""},
		{"missing file", editBody(filepath.Join(f.dir, "nope.go"), "a", "b"), http.StatusUnprocessableEntity, "Failed to process tool response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, out := f.submit(t, "e1", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			errBody, ok := out["error"].(map[string]any)
			require.True(t, ok)
			assert.Contains(t, errBody["message"], tt.want)
		})
	}
	assert.Equal(t, 0, f.cache.Len())

	resp, err := http.Post(f.ts.URL+"/api/diffs/e2", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIndexServesEmbeddedPage(t *testing.T) {
	f := newFixture(t)

	for path, want := range map[string]string{"/": `id="diff"`, "/bridge.js": "bridgeReady"} {
		resp, err := http.Get(f.ts.URL + path)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Contains(t, string(body), want, path)
	}
}

// =============================================================================
// WEBSOCKET BRIDGE TESTS
// =============================================================================

func TestBridge_MissingMessage(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.ts.URL + "/bridge")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBridge_RendersCachedStateAfterReady(t *testing.T) {
	f := newFixture(t)
	f.cache.Put(context.Background(), []model.DiffResult{model.NewDiffResult("/a.go", "one\n", "two\n")}, "m1")

	conn := f.dial(t, "message=m1&style=unified&overflow=wrap")
	sendEvent(t, conn, bridge.ReadyEvent{Bridge: true})

	render := readCommand(t, conn)
	require.Equal(t, bridge.MethodRender, render.Method)
	in, err := bridge.DecodeRenderInput(render.Payload)
	require.NoError(t, err)
	assert.Equal(t, "two\n", in.NewFile.Contents)
	assert.Equal(t, model.StyleUnified, in.Options.DiffStyle)
	assert.Equal(t, model.OverflowWrap, in.Options.Overflow)

	theme := readCommand(t, conn)
	assert.Equal(t, bridge.Command{Method: bridge.MethodSetTheme, Arg: "dark"}, theme)
}

func TestBridge_FollowsCacheChanges(t *testing.T) {
	f := newFixture(t)
	path := f.writeFile(t, "x.txt", "alpha\n")

	conn := f.dial(t, "message=m2")
	sendEvent(t, conn, bridge.ReadyEvent{Bridge: true})
	require.Eventually(t, func() bool { return f.srv.SessionCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	resp, _ := f.submit(t, "m2", editBody(path, "alpha", "beta"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, bridge.MethodRender, readCommand(t, conn).Method)
	assert.Equal(t, bridge.MethodSetTheme, readCommand(t, conn).Method)

	// The page reports a light color scheme: only setTheme goes out.
	sendEvent(t, conn, bridge.ThemeChangedEvent{IsDark: false})
	assert.Equal(t, bridge.Command{Method: bridge.MethodSetTheme, Arg: "light"}, readCommand(t, conn))

	f.cache.Remove("m2")
	assert.Equal(t, bridge.MethodCleanup, readCommand(t, conn).Method)
}

func TestBridge_DisconnectRemovesSession(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, "message=m3")
	require.Eventually(t, func() bool { return f.srv.SessionCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return f.srv.SessionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

// =============================================================================
// MIDDLEWARE TESTS
// =============================================================================

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	now := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.Equal(t, 0, rl.Remaining("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "limits are per IP")

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("10.0.0.1"))

	now = now.Add(2 * limiterIdle)
	rl.Allow("10.0.0.3")
	rl.mu.Lock()
	assert.Len(t, rl.clients, 1)
	rl.mu.Unlock()
}

func TestRateLimitMiddleware(t *testing.T) {
	handler := RateLimitMiddleware(NewRateLimiter(0.001, 1), quiet)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 2)
	for range 2 {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.9:5000"
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware(quiet)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(mw("a"), mw("b"))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { order = append(order, "h") }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"a", "b", "h"}, order)
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		realIP     string
		want       string
	}{
		{"direct", "203.0.113.5:1234", "", "", "203.0.113.5"},
		{"untrusted proxy header ignored", "203.0.113.5:1234", "198.51.100.1", "", "203.0.113.5"},
		{"trusted proxy forwarded", "127.0.0.1:1234", "198.51.100.1, 10.0.0.1", "", "198.51.100.1"},
		{"trusted proxy real ip", "10.1.2.3:1234", "", "198.51.100.2", "198.51.100.2"},
		{"invalid forwarded value", "127.0.0.1:1234", "not-an-ip", "", "127.0.0.1"},
		{"no port", "198.51.100.7", "", "", "198.51.100.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			assert.Equal(t, tt.want, GetClientIP(req))
		})
	}
}
