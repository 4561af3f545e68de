// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package loader

import (
	"context"
	"errors"
	"fmt"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrNoPaths is returned when ReadFileContent is called with an empty list.
var ErrNoPaths = errors.New("no file paths provided")

// ErrCancelled is returned when a read was cancelled or superseded by a newer
// call. It wraps context.Canceled so errors.Is works with either value.
var ErrCancelled = fmt.Errorf("file read cancelled: %w", context.Canceled)

// ReadError reports an I/O failure for one path.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// EncodingError reports a file whose bytes are not valid UTF-8.
type EncodingError struct {
	Path string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("file %s is not valid UTF-8", e.Path)
}

// IsCancelled reports whether err came from a cancelled or superseded read.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}
