// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the diff pipeline.
//
// Every other package in the module speaks in these types: the loader and
// edit engine produce DiffResult values, the state cache stores them
// wrapped in DiffState, and the renderer bridge serializes them.
//
// # Key Types
//
//   - DiffResult: Before/after text of one file, with the IsInitial sentinel
//   - DiffState: Cached wrapper around the latest DiffResult of a message
//   - Edit, FileEditRequest, WriteRequest: Decoded tool payloads
//   - EditTool: Edit, MultiEdit or Write
//   - LifecycleState: Applied/rejected diff groups recorded by the host
//   - DiffStyle, OverflowMode: Renderer display options
//
// # Usage
//
// Normalize an Edit payload into an ordered list:
//
//	var req model.FileEditRequest
//	_ = json.Unmarshal(payload, &req)
//	for _, e := range req.AllEdits() {
//	    fmt.Println(e.OldString, "->", e.NewString)
//	}
//
// Check whether a cached state is worth rendering:
//
//	if state.HasContent() {
//	    render(state.Result)
//	}
package model
