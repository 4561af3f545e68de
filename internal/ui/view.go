// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"fmt"
	"strings"

	"github.com/jeranaias/rigrun-diffs/internal/ui/styles"
)

// =============================================================================
// RENDERING
// =============================================================================

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderTitle())
	b.WriteString("\n")
	if m.lifecycle.ShowCompact() {
		b.WriteString(m.renderCompact())
	} else {
		b.WriteString(m.viewport.View())
	}
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	return b.String()
}

func (m *Model) renderTitle() string {
	t := m.theme
	parts := []string{
		t.Title.Render("Diff Preview"),
		t.Path.Render(m.result.FilePath),
		t.Badge.Render(fmt.Sprintf("[%s] [%s] [%s]", m.style.DisplayName(), m.overflow.DisplayName(), m.appearance)),
	}
	switch {
	case m.lifecycle.IsApplied(m.groupID):
		parts = append(parts, t.Approved.Render(styles.StatusIndicators.Success+" approved"))
	case m.lifecycle.IsRejected(m.groupID):
		parts = append(parts, t.Rejected.Render(styles.StatusIndicators.Error+" rejected"))
	}
	return strings.Join(parts, "  ")
}

// renderCompact replaces the diff once the group was approved.
func (m *Model) renderCompact() string {
	t := m.theme
	lines := []string{t.Approved.Render(styles.StatusIndicators.Success + " Changes Reviewed")}
	if at, ok := m.lifecycle.FirstAppliedAt(); ok {
		lines = append(lines, t.Badge.Render("approved "+at.Format("15:04:05")))
	}
	lines = append(lines, t.KeyDesc.Render("press r to reject and show the diff again"))
	return t.CompactBox.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderStatus() string {
	t := m.theme
	var text string
	switch {
	case m.errText != "":
		text = t.Error.Render(styles.StatusIndicators.Error + " " + m.errText)
	case m.notice != "":
		text = t.Notice.Render(styles.StatusIndicators.Info + " " + m.notice)
	default:
		text = helpLine(m.keys.ShortHelp(), t.Key.Render, t.KeyDesc.Render)
	}
	if m.width > 0 {
		return t.StatusBar.Width(m.width).MaxWidth(m.width).Render(text)
	}
	return t.StatusBar.Render(text)
}
