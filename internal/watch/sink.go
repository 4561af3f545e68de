// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package watch

import (
	"context"
	"log"

	"github.com/jeranaias/rigrun-diffs/internal/state"
)

// CacheHandler returns a handler that stores successful reruns in cache
// under the update's key. Failures leave the last good diff in place and
// are only logged.
func CacheHandler(cache *state.Cache, logger *log.Logger) func(Update) {
	if logger == nil {
		logger = log.Default()
	}
	return func(u Update) {
		if u.Err != nil {
			logger.Printf("WATCH_KEEP_LAST | key=%s reason=%q", u.Key, u.Message())
			return
		}
		cache.Put(context.Background(), u.Results, u.Key)
	}
}
