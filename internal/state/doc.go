// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package state caches the latest diff produced for each message.
//
// Put is idempotent: storing a result whose original and updated text match
// the stored entry changes nothing and notifies nobody, so a view that
// re-processes the same tool call does not re-render.
//
// # Usage
//
//	cache := state.NewCache(500)
//	if cache.Put(ctx, results, messageID) {
//	    render(cache.Get(messageID))
//	}
package state
