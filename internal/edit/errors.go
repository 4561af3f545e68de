// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package edit

import (
	"errors"
	"fmt"

	"github.com/jeranaias/rigrun-diffs/internal/loader"
	"github.com/jeranaias/rigrun-diffs/internal/model"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// DecodingError means the tool payload could not be decoded.
type DecodingError struct {
	Tool model.EditTool
	Err  error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("decode %s payload: %v", e.Tool, e.Err)
}

func (e *DecodingError) Unwrap() error {
	return e.Err
}

// ProcessingError means the original content of a file could not be
// obtained.
type ProcessingError struct {
	Path string
	Err  error
}

func (e *ProcessingError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("no content loaded for %s", e.Path)
	}
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// InputError means required string parameters were missing or invalid.
type InputError struct {
	Tool    model.EditTool
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}

// =============================================================================
// USER MESSAGES
// =============================================================================

// UserMessage converts a processing error into the text shown in place of
// the diff. Cancellation is not a failure and yields "".
func UserMessage(err error) string {
	if err == nil || loader.IsCancelled(err) {
		return ""
	}

	var inputErr *InputError
	if errors.As(err, &inputErr) {
		return inputErr.Message
	}
	if errors.Is(err, loader.ErrNoPaths) {
		return "Failed to process tool response: no file path"
	}

	var encErr *loader.EncodingError
	if errors.As(err, &encErr) {
		return fmt.Sprintf("Failed to process tool response: %s is not a text file", encErr.Path)
	}

	return fmt.Sprintf("Failed to process tool response: %v", err)
}
