// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server hosts the browser renderer and a small JSON API for diffs.
//
// Each websocket connection to /bridge is one renderer session with its own
// bridge.Bridge. The session renders whatever the state cache holds for its
// message id and follows later changes through the cache subscription, so a
// POST to the API updates every open page showing that message.
//
// # Endpoints
//
//   - GET    /                - Renderer page (embedded)
//   - GET    /assets/...      - Optional renderer bundle
//   - GET    /bridge          - Websocket bridge (?message=&style=&overflow=&theme=)
//   - POST   /api/diffs/{id}  - Process {"tool","payload"} and store the result
//   - GET    /api/diffs/{id}  - Stored diff state
//   - DELETE /api/diffs/{id}  - Forget a message
//   - GET    /health          - Health check with cache counters
//
// # Middleware
//
// Recovery, security headers, request logging and per-IP rate limiting
// (golang.org/x/time/rate), composed with Chain.
//
// # Usage
//
//	srv := server.New(cfg, edit.NewProcessor(reader, nil), state.NewCache(500))
//	go srv.Start()
//	defer srv.Shutdown(ctx)
package server
