// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"io"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestNewTheme_AsciiRendersPlainText(t *testing.T) {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.Ascii)

	theme := NewTheme(r)
	assert.Equal(t, termenv.Ascii, theme.ColorProfile)
	assert.Equal(t, "+3", theme.Added.Render("+3"))
	assert.Equal(t, "path.go", theme.Path.Render("path.go"))
}

func TestNewTheme_TrueColorStyles(t *testing.T) {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.TrueColor)
	r.SetHasDarkBackground(true)

	theme := NewTheme(r)
	assert.True(t, theme.IsDark)
	assert.NotEqual(t, "-1", theme.Removed.Render("-1"), "styled output carries escapes")
}

func TestNewTheme_NilRenderer(t *testing.T) {
	assert.NotNil(t, NewTheme(nil))
}

func TestStatusIndicatorsAreASCII(t *testing.T) {
	for _, s := range []string{StatusIndicators.Success, StatusIndicators.Error, StatusIndicators.Pending, StatusIndicators.Info} {
		for _, r := range s {
			assert.Less(t, r, rune(128), s)
		}
	}
}
