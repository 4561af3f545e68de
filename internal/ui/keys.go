// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines the viewer's key bindings. Scrolling keys are handled by
// the embedded viewport.
type KeyMap struct {
	ToggleStyle    key.Binding
	ToggleOverflow key.Binding
	ToggleTheme    key.Binding
	NextChange     key.Binding
	PrevChange     key.Binding
	Approve        key.Binding
	Reject         key.Binding
	Copy           key.Binding
	Quit           key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		ToggleStyle: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "split/unified"),
		),
		ToggleOverflow: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "wrap"),
		),
		ToggleTheme: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "theme"),
		),
		NextChange: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n/N", "next/prev change"),
		),
		PrevChange: key.NewBinding(
			key.WithKeys("N"),
		),
		Approve: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "approve"),
		),
		Reject: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reject"),
		),
		Copy: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.ToggleStyle, k.ToggleOverflow, k.ToggleTheme, k.NextChange,
		k.Approve, k.Reject, k.Copy, k.Quit,
	}
}

// helpLine renders bindings as "key desc" pairs.
func helpLine(bindings []key.Binding, keyStyle, descStyle func(...string) string) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		if h.Key == "" {
			continue
		}
		parts = append(parts, keyStyle(h.Key)+" "+descStyle(h.Desc))
	}
	return strings.Join(parts, "  ")
}
