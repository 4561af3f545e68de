// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - Terminal detection for rigrun-diffs output.
//
// Interactive terminals get colors and the full-screen viewer; piped
// output gets plain text. NO_COLOR and FORCE_COLOR override detection.

package cli

import (
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

const (
	// DefaultTerminalWidth is the fallback width when detection fails
	DefaultTerminalWidth = 100

	// MinTerminalWidth is the narrowest layout we render
	MinTerminalWidth = 40
)

// fdOf returns the descriptor behind w, or -1 when w is not a file.
func fdOf(v any) int {
	if f, ok := v.(interface{ Fd() uintptr }); ok {
		return int(f.Fd())
	}
	return -1
}

// IsTerminal reports whether v (an *os.File or similar) is a terminal.
func IsTerminal(v any) bool {
	fd := fdOf(v)
	return fd >= 0 && term.IsTerminal(fd)
}

// TerminalWidth returns the width of w, clamped to MinTerminalWidth, or
// DefaultTerminalWidth when w is not a terminal.
func TerminalWidth(w io.Writer) int {
	fd := fdOf(w)
	if fd < 0 {
		return DefaultTerminalWidth
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	return max(width, MinTerminalWidth)
}

// =============================================================================
// COLOR OUTPUT CONTROL
// =============================================================================

// ColorsEnabled reports whether output to w should be styled.
// See https://no-color.org/ for the NO_COLOR specification.
func ColorsEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	return IsTerminal(w)
}

// ColorProfile returns the termenv profile for output to w: Ascii when
// colors are disabled, otherwise whatever the terminal supports.
func ColorProfile(w io.Writer) termenv.Profile {
	if !ColorsEnabled(w) {
		return termenv.Ascii
	}
	if os.Getenv("FORCE_COLOR") != "" && !IsTerminal(w) {
		return termenv.ANSI256
	}
	return termenv.NewOutput(w).EnvColorProfile()
}
