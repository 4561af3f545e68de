// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigrun-diffs/internal/model"
)

// TestConfig_ConcurrentAccess tests that Global() and SetGlobal() can be
// called concurrently. Run with: go test -race ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	ResetGlobalForTesting()
	t.Cleanup(ResetGlobalForTesting)
	SetGlobal(Default())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c := Default()
			c.Version = "test"
			SetGlobal(c)
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}

func TestConfig_SetGlobalOverwrites(t *testing.T) {
	ResetGlobalForTesting()
	t.Cleanup(ResetGlobalForTesting)

	c := Default()
	c.Server.Port = 9999
	SetGlobal(c)
	assert.Equal(t, 9999, Global().Server.Port)
}

func TestConfig_Default(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10, cfg.Loader.MaxConcurrency)
	assert.Equal(t, model.StyleSplit, cfg.DiffStyle())
	assert.Equal(t, model.OverflowScroll, cfg.Overflow())
	assert.Equal(t, "127.0.0.1:7420", cfg.Addr())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"zero concurrency", func(c *Config) { c.Loader.MaxConcurrency = 0 }, "loader.max_concurrency"},
		{"negative cache", func(c *Config) { c.Loader.CacheEntries = -1 }, "loader.cache_entries"},
		{"bad style", func(c *Config) { c.Renderer.DiffStyle = "diagonal" }, "renderer.diff_style"},
		{"bad overflow", func(c *Config) { c.Renderer.Overflow = "clip" }, "renderer.overflow"},
		{"negative state", func(c *Config) { c.State.MaxEntries = -5 }, "state.max_entries"},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"debounce too long", func(c *Config) { c.Watch.DebounceMS = 120000 }, "watch.debounce_ms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)

			var verrs ValidateErrors
			require.ErrorAs(t, err, &verrs)
			require.Len(t, verrs, 1)
			assert.Equal(t, tt.field, verrs[0].Field)
		})
	}
}

func TestConfig_ValidateCollectsAll(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 0
	cfg.Renderer.Overflow = "nope"

	err := cfg.Validate()
	var verrs ValidateErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 2)
	assert.Contains(t, err.Error(), "; ")
}

func TestConfig_Migrate(t *testing.T) {
	cfg := Default()
	cfg.Renderer.DiffStyle = "Side-By-Side"
	require.NoError(t, cfg.Migrate())
	assert.Equal(t, "split", cfg.Renderer.DiffStyle)

	cfg.Renderer.DiffStyle = "inline"
	require.NoError(t, cfg.Migrate())
	assert.Equal(t, "unified", cfg.Renderer.DiffStyle)
}

func TestConfig_LoadFromPathFormats(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"config.toml": "[renderer]\ndiff_style = \"unified\"\n[server]\nport = 8100\n",
		"config.json": `{"renderer":{"diff_style":"unified"},"server":{"port":8100}}`,
		"config.yaml": "renderer:\n  diff_style: unified\nserver:\n  port: 8100\n",
	}

	for name, body := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

			cfg, err := LoadFromPath(path)
			require.NoError(t, err)
			assert.Equal(t, model.StyleUnified, cfg.DiffStyle())
			assert.Equal(t, 8100, cfg.Server.Port)
			// Untouched sections keep their defaults.
			assert.Equal(t, 10, cfg.Loader.MaxConcurrency)
			assert.Equal(t, "pierre-dark", cfg.Renderer.ThemeDark)
		})
	}
}

func TestConfig_LoadFromPathInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 0\nhost = \"\"\n[loader]\nmax_concurrency = 999\n"), 0o600))

	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loader.max_concurrency")
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("RIGRUN_DIFFS_STYLE", "unified")
	t.Setenv("RIGRUN_DIFFS_PORT", "9001")
	t.Setenv("RIGRUN_DIFFS_DETECT_LANGUAGE", "true")
	t.Setenv("RIGRUN_DIFFS_MAX_CONCURRENCY", "not-a-number")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	assert.Equal(t, "unified", cfg.Renderer.DiffStyle)
	assert.Equal(t, 9001, cfg.Server.Port)
	assert.True(t, cfg.Renderer.DetectLanguage)
	assert.Equal(t, 10, cfg.Loader.MaxConcurrency)
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	for _, name := range []string{"out.toml", "out.json", "out.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			cfg := Default()
			cfg.Watch.DebounceMS = 400
			require.NoError(t, cfg.Save(path))

			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

			loaded, err := LoadFromPath(path)
			require.NoError(t, err)
			assert.Equal(t, 400, loaded.Watch.DebounceMS)
		})
	}
}

func TestConfig_EncodeTOML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Default().Encode(&buf, FormatTOML))
	assert.Contains(t, buf.String(), "[renderer]")
	assert.Contains(t, buf.String(), "diff_style = \"split\"")
}
