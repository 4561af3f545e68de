// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types, display and exit codes for rigrun-diffs commands.
//
// Commands always return errors; main decides how to show them and which
// exit code to use.

package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/jeranaias/rigrun-diffs/internal/config"
	"github.com/jeranaias/rigrun-diffs/internal/edit"
	"github.com/jeranaias/rigrun-diffs/internal/loader"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitNotFoundError indicates a file was not found
	ExitNotFoundError = 7
	// ExitCancelled indicates the command was interrupted
	ExitCancelled = 130
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "preview", "serve")
	Action  string // Action being performed (e.g., "read payload")
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Command, e.Action, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError represents a validation failure for user input.
type ValidationError struct {
	Field   string // Field that failed validation
	Value   string // Value that was provided
	Reason  string // Why validation failed
	Example string // Example of valid value (optional)
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// NewCommandError wraps err with the command and action that failed.
func NewCommandError(command, action string, err error) error {
	return &CommandError{Command: command, Action: action, Err: err}
}

// ErrMissingArgument creates an error for a missing required argument.
func ErrMissingArgument(argName, usage string) error {
	return &ValidationError{
		Field:   argName,
		Reason:  "is required",
		Example: usage,
	}
}

// ErrInvalidValue creates an error for a flag value outside its domain.
func ErrInvalidValue(field, value string, err error) error {
	return &ValidationError{Field: field, Value: value, Reason: err.Error()}
}

// =============================================================================
// DISPLAY
// =============================================================================

// DisplayError writes err to w. In JSON mode the error is a JSONResponse.
// Processing failures are shown as their user-facing message.
func DisplayError(w io.Writer, command string, err error, jsonMode bool) {
	if err == nil {
		return
	}
	msg := err.Error()
	var procErr *edit.ProcessingError
	if errors.As(err, &procErr) {
		msg = edit.UserMessage(err)
	}

	if jsonMode {
		_ = NewJSONErrorResponseStr(command, msg).Write(w)
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), msg)
}

// GetExitCode maps an error to the process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var validationErr *ValidationError
	var decodingErr *edit.DecodingError
	var inputErr *edit.InputError
	var configErrs config.ValidateErrors
	var configErr config.ValidationError

	switch {
	case loader.IsCancelled(err):
		return ExitCancelled
	case errors.As(err, &validationErr), errors.As(err, &decodingErr), errors.As(err, &inputErr):
		return ExitUsageError
	case errors.As(err, &configErrs), errors.As(err, &configErr):
		return ExitConfigError
	case errors.Is(err, fs.ErrNotExist):
		return ExitNotFoundError
	default:
		return ExitGeneralError
	}
}
