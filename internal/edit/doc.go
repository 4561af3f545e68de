// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package edit reconstructs before/after file text from edit tool payloads.
//
// ApplyEdits is pure string substitution. Processor decodes Edit, MultiEdit
// and Write payloads, loads the original file through a loader.Reader and
// returns a model.DiffResult. It never writes to disk.
//
// # Key Types
//
//   - Processor: Payload decoding plus original-content loading
//   - DecodingError: Malformed payload or missing file_path
//   - ProcessingError: Original content could not be loaded
//   - InputError: Missing string parameters
//
// # Usage
//
//	p := edit.NewProcessor(loader.NewReader(root), nil)
//	result, err := p.BuildResult(ctx, payload, model.ToolEdit)
//	if msg := edit.UserMessage(err); msg != "" {
//	    showError(msg)
//	}
package edit
