// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for rigrun-diffs.
//
// TOML is the primary format. JSON and YAML files are accepted too; the
// format is chosen by file extension.
//
// # Key Types
//
//   - Config: Main configuration structure
//   - LoaderConfig: Read concurrency and content cache sizing
//   - RendererConfig: Default diff style, overflow mode and themes
//   - StateConfig: Diff state cache bound
//   - ServerConfig: Renderer host address and rate limit
//   - WatchConfig: File watcher debounce
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (RIGRUN_DIFFS_*)
//   - ~/.rigrun-diffs/config.toml
//   - ~/.rigrun-diffs/config.json
//   - ~/.rigrun-diffs/config.yaml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	reader := loader.NewReader(".", loader.WithCache(
//	    loader.NewFileCache(cfg.Loader.CacheEntries, cfg.Loader.CacheBytes)))
package config
