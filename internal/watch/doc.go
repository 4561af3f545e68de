// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package watch reruns edit tool payloads when their target files change.
//
// A target is a (key, tool, payload) triple. The watcher resolves the
// payload's file_path, watches its directory with fsnotify and, once the
// file has been quiet for the debounce interval, rebuilds the diff through
// the edit processor. The result or the failure goes to a handler:
//
//	w, err := watch.New(proc, watch.CacheHandler(cache, logger),
//	    watch.WithDebounce(150*time.Millisecond),
//	    watch.WithLogger(logger),
//	)
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//	if err := w.Add(messageID, model.ToolEdit, payload); err != nil {
//	    return err
//	}
//	return w.Watch()
//
// Runs cancelled by Close are dropped. A run superseded by another read on
// the same loader is scheduled again.
package watch
