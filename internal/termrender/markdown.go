// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package termrender

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/rigrun-diffs/internal/bridge"
	"github.com/jeranaias/rigrun-diffs/internal/diff"
)

// MarkdownSource returns the diff as a markdown document with a fenced
// unified diff block.
func MarkdownSource(in bridge.RenderInput) string {
	name := in.NewFile.Name
	if name == "" {
		name = in.OldFile.Name
	}
	d := diff.ComputeDiff(name, in.OldFile.Contents, in.NewFile.Contents)

	var sb strings.Builder
	fmt.Fprintf(&sb, "### `%s`\n\n", name)
	fmt.Fprintf(&sb, "_%s_\n\n", d.Summary())
	if !d.HasChanges() {
		sb.WriteString("No changes.\n")
		return sb.String()
	}
	sb.WriteString("```diff\n")
	sb.WriteString(diff.FormatUnifiedDiff(d))
	sb.WriteString("```\n")
	return sb.String()
}

// Markdown renders MarkdownSource for a terminal. style is a glamour
// standard style: "dark", "light", "notty" or "ascii".
func Markdown(in bridge.RenderInput, style string, width int) (string, error) {
	if style == "" {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("markdown renderer: %w", err)
	}
	out, err := r.Render(MarkdownSource(in))
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}
