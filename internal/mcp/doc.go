// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package mcp exposes diff previews to MCP clients over stdio.
//
// Tools:
//
//	diff_preview  tool, payload, [message_id], [format]
//	diff_get      message_id, [format]
//	diff_clear    message_id
//
// Results go into the same state cache the renderer host reads, so an
// agent can preview an edit and a human can open it by message id.
// Failures are returned as tool errors carrying the user-facing message,
// never as protocol errors.
//
// # Usage
//
//	h := mcp.NewHandler(proc, cache, logger)
//	if err := mcp.ServeStdio(mcp.New(h, version)); err != nil {
//	    log.Fatal(err)
//	}
package mcp
