// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"strings"
)

// =============================================================================
// DIFF STYLE
// =============================================================================

// DiffStyle selects side-by-side or single column rendering.
type DiffStyle string

const (
	StyleSplit   DiffStyle = "split"
	StyleUnified DiffStyle = "unified"
)

// String returns the wire value.
func (s DiffStyle) String() string {
	return string(s)
}

// DisplayName returns a human-readable name for the style.
func (s DiffStyle) DisplayName() string {
	switch s {
	case StyleSplit:
		return "Split"
	case StyleUnified:
		return "Unified"
	default:
		return string(s)
	}
}

// Toggle returns the other style.
func (s DiffStyle) Toggle() DiffStyle {
	if s == StyleSplit {
		return StyleUnified
	}
	return StyleSplit
}

// ParseDiffStyle parses "split" or "unified".
func ParseDiffStyle(v string) (DiffStyle, error) {
	switch DiffStyle(strings.ToLower(strings.TrimSpace(v))) {
	case StyleSplit:
		return StyleSplit, nil
	case StyleUnified:
		return StyleUnified, nil
	}
	return "", fmt.Errorf("invalid diff style %q, must be split or unified", v)
}

// =============================================================================
// OVERFLOW MODE
// =============================================================================

// OverflowMode controls what happens to lines wider than the view.
type OverflowMode string

const (
	OverflowScroll OverflowMode = "scroll"
	OverflowWrap   OverflowMode = "wrap"
)

// String returns the wire value.
func (m OverflowMode) String() string {
	return string(m)
}

// DisplayName returns a human-readable name for the mode.
func (m OverflowMode) DisplayName() string {
	switch m {
	case OverflowScroll:
		return "Scroll"
	case OverflowWrap:
		return "Wrap"
	default:
		return string(m)
	}
}

// Toggle returns the other mode.
func (m OverflowMode) Toggle() OverflowMode {
	if m == OverflowScroll {
		return OverflowWrap
	}
	return OverflowScroll
}

// ParseOverflowMode parses "scroll" or "wrap".
func ParseOverflowMode(v string) (OverflowMode, error) {
	switch OverflowMode(strings.ToLower(strings.TrimSpace(v))) {
	case OverflowScroll:
		return OverflowScroll, nil
	case OverflowWrap:
		return OverflowWrap, nil
	}
	return "", fmt.Errorf("invalid overflow mode %q, must be scroll or wrap", v)
}
