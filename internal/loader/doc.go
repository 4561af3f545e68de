// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package loader reads file contents for diff previews.
//
// Reads are bounded and cancellable. Paths are split into sequential
// batches and read concurrently within a batch. A DefaultReader runs one
// call at a time: a new call cancels the previous one, and the superseded
// call gets ErrCancelled instead of stale content.
//
// # Key Types
//
//   - Reader: Interface consumed by the edit engine
//   - DefaultReader: Disk-backed implementation with single-flight cancellation
//   - FileCache: Optional LRU content cache validated by mod time and size
//   - ReadError, EncodingError: Per-path failures
//
// # Usage
//
//	r := loader.NewReader(projectRoot, loader.WithCache(loader.NewFileCache(100, 0)))
//	contents, err := r.ReadFileContent(ctx, []string{"/src/a.go", "/src/b.go"}, 3)
//	if loader.IsCancelled(err) {
//	    return // superseded, drop silently
//	}
package loader
