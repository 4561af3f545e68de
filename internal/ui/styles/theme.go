// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styles of the diff viewer, bound to one lipgloss renderer
// so color detection follows the output the viewer draws on.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	Title      lipgloss.Style
	Path       lipgloss.Style
	Added      lipgloss.Style
	Removed    lipgloss.Style
	Badge      lipgloss.Style
	StatusBar  lipgloss.Style
	Key        lipgloss.Style
	KeyDesc    lipgloss.Style
	Approved   lipgloss.Style
	Rejected   lipgloss.Style
	Notice     lipgloss.Style
	Error      lipgloss.Style
	CompactBox lipgloss.Style
}

// NewTheme builds the styles for r. A nil renderer uses lipgloss's default.
func NewTheme(r *lipgloss.Renderer) *Theme {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	t := &Theme{
		IsDark:       r.HasDarkBackground(),
		ColorProfile: r.ColorProfile(),
	}

	t.Title = r.NewStyle().Foreground(Purple).Bold(true)
	t.Path = r.NewStyle().Foreground(Cyan).Bold(true)
	t.Added = r.NewStyle().Foreground(Emerald).Bold(true)
	t.Removed = r.NewStyle().Foreground(Rose).Bold(true)
	t.Badge = r.NewStyle().Foreground(TextMuted).Italic(true)

	t.StatusBar = r.NewStyle().Foreground(TextPrimary).Background(SurfaceDim)
	t.Key = r.NewStyle().Foreground(Cyan).Bold(true)
	t.KeyDesc = r.NewStyle().Foreground(TextMuted)

	t.Approved = r.NewStyle().Foreground(Emerald).Bold(true)
	t.Rejected = r.NewStyle().Foreground(Rose).Bold(true)
	t.Notice = r.NewStyle().Foreground(Amber)
	t.Error = r.NewStyle().Foreground(Rose)

	t.CompactBox = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Emerald).
		Padding(0, 2)
	return t
}
