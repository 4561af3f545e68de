// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package termrender

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"

	"github.com/jeranaias/rigrun-diffs/internal/bridge"
	"github.com/jeranaias/rigrun-diffs/internal/diff"
	"github.com/jeranaias/rigrun-diffs/internal/model"
)

// Side names reported in line click and selection events.
const (
	SideDeletions = "deletions"
	SideAdditions = "additions"
)

const (
	tabWidth     = 4
	numberWidth  = 4
	minCellWidth = 8
	columnGap    = " │ "
)

// =============================================================================
// PALETTE
// =============================================================================

type palette struct {
	added, removed, hunk, muted, title lipgloss.Color
	addedBg, removedBg                 lipgloss.Color
}

func paletteFor(theme string) palette {
	if theme == ThemeLight {
		return palette{
			added: "#059669", removed: "#E11D48", hunk: "#0891B2",
			muted: "#9CA3AF", title: "#7C3AED",
			addedBg: "#D1FAE5", removedBg: "#FFE4E6",
		}
	}
	return palette{
		added: "#34D399", removed: "#FB7185", hunk: "#22D3EE",
		muted: "#6C7086", title: "#A78BFA",
		addedBg: "#064E3B", removedBg: "#881337",
	}
}

// =============================================================================
// LAYOUT
// =============================================================================

// rowRef records what a rendered row shows, for scroll and click lookups.
type rowRef struct {
	line int
	side string
}

// layout is one rendered frame.
type layout struct {
	text string
	rows []rowRef
}

// rowForLine returns the first row showing line on side, or the first row
// past it when the line is hidden in collapsed context.
func (l *layout) rowForLine(line int, side string) int {
	best := -1
	for i, ref := range l.rows {
		if ref.side != side || ref.line == 0 {
			continue
		}
		if ref.line == line {
			return i
		}
		if ref.line > line && best < 0 {
			best = i
		}
	}
	if best < 0 {
		return max(0, len(l.rows)-1)
	}
	return best
}

type layoutParams struct {
	input   bridge.RenderInput
	theme   string
	style   model.DiffStyle
	wrap    bool
	width   int
	profile termenv.Profile
}

type builder struct {
	p     layoutParams
	r     *lipgloss.Renderer
	pal   palette
	old   [][]chroma.Token
	upd   [][]chroma.Token
	hl    *highlighter
	pairs map[*diff.DiffLine]string
	lines []string
	rows  []rowRef
}

func (b *builder) emit(text string, ref rowRef) {
	b.lines = append(b.lines, text)
	b.rows = append(b.rows, ref)
}

func (b *builder) style() lipgloss.Style {
	return b.r.NewStyle()
}

// render lays out the diff described by p.
func render(p layoutParams) *layout {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(p.profile)
	r.SetHasDarkBackground(p.theme != ThemeLight)

	name := p.input.NewFile.Name
	if name == "" {
		name = p.input.OldFile.Name
	}
	language := p.input.NewFile.Lang
	if language == "" {
		language = p.input.OldFile.Lang
	}
	hl := newHighlighter(language, name, p.theme, p.profile)

	b := &builder{
		p:     p,
		r:     r,
		pal:   paletteFor(p.theme),
		hl:    hl,
		old:   hl.lines(p.input.OldFile.Contents),
		upd:   hl.lines(p.input.NewFile.Contents),
		pairs: map[*diff.DiffLine]string{},
	}

	d := diff.ComputeDiff(name, p.input.OldFile.Contents, p.input.NewFile.Contents)
	for _, h := range d.Hunks {
		for _, row := range diff.SplitRows(h.Lines) {
			if row.Left != nil && row.Right != nil && row.Left.Type == diff.DiffLineRemoved {
				b.pairs[row.Left] = row.Right.Content
				b.pairs[row.Right] = row.Left.Content
			}
		}
	}
	b.header(d)
	if !d.HasChanges() {
		b.emit(b.style().Foreground(b.pal.muted).Italic(true).Render("No changes"), rowRef{})
	}

	prevEnd := 0
	for i, h := range d.Hunks {
		if i > 0 {
			if gap := h.OldStart - prevEnd - 1; gap > 0 {
				b.emit(b.style().Foreground(b.pal.muted).Render(fmt.Sprintf("⋯ %d unchanged lines", gap)), rowRef{})
			}
		}
		b.emit(b.style().Foreground(b.pal.hunk).Bold(true).Render(
			fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldCount, h.NewStart, h.NewCount)), rowRef{})
		if p.style == model.StyleUnified {
			b.unified(h.Lines)
		} else {
			b.split(h.Lines)
		}
		prevEnd = h.OldStart + h.OldCount - 1
	}

	return &layout{text: strings.Join(b.lines, "\n"), rows: b.rows}
}

func (b *builder) header(d *diff.Diff) {
	title := b.style().Foreground(b.pal.title).Bold(true).Render(d.FilePath)
	var stats []string
	if d.Stats.Additions > 0 {
		stats = append(stats, b.style().Foreground(b.pal.added).Render(fmt.Sprintf("+%d", d.Stats.Additions)))
	}
	if d.Stats.Deletions > 0 {
		stats = append(stats, b.style().Foreground(b.pal.removed).Render(fmt.Sprintf("-%d", d.Stats.Deletions)))
	}
	line := title
	if len(stats) > 0 {
		line += "  " + strings.Join(stats, " ")
	}
	b.emit(line, rowRef{})
	b.emit(b.style().Foreground(b.pal.muted).Render(strings.Repeat("─", max(1, b.p.width))), rowRef{})
}

// tokensFor returns the highlighted tokens of one diff line. Without syntax
// colors, a replaced line is split into inline change segments instead.
func (b *builder) tokensFor(line *diff.DiffLine) []chroma.Token {
	if other, ok := b.pairs[line]; ok && !b.hl.enabled() {
		return expandTabs(inlineTokens(line, other), tabWidth)
	}
	var src [][]chroma.Token
	var n int
	if line.Type == diff.DiffLineAdded || (line.Type == diff.DiffLineContext && line.NewLine > 0) {
		src, n = b.upd, line.NewLine
	} else {
		src, n = b.old, line.OldLine
	}
	if n >= 1 && n <= len(src) {
		return expandTabs(src[n-1], tabWidth)
	}
	return expandTabs([]chroma.Token{{Type: chroma.Text, Value: line.Content}}, tabWidth)
}

func (b *builder) signStyle(t diff.DiffLineType) lipgloss.Style {
	switch t {
	case diff.DiffLineAdded:
		return b.style().Foreground(b.pal.added).Bold(true)
	case diff.DiffLineRemoved:
		return b.style().Foreground(b.pal.removed).Bold(true)
	default:
		return b.style().Foreground(b.pal.muted)
	}
}

// cell renders the content of one line as one or more rows of exactly width
// cells. Without syntax colors, changed lines get a tinted background.
func (b *builder) cell(line *diff.DiffLine, width int) []string {
	parts := cutTokens(b.tokensFor(line), width, b.p.wrap)
	out := make([]string, len(parts))
	for i, part := range parts {
		var text string
		if b.hl.enabled() {
			text = b.hl.format(part)
		} else {
			text = b.plain(part)
		}
		pad := width - runewidth.StringWidth(tokensText(part))
		if pad > 0 {
			text += strings.Repeat(" ", pad)
		}
		if !b.hl.enabled() {
			switch line.Type {
			case diff.DiffLineAdded:
				text = b.style().Background(b.pal.addedBg).Render(text)
			case diff.DiffLineRemoved:
				text = b.style().Background(b.pal.removedBg).Render(text)
			}
		}
		out[i] = text
	}
	return out
}

// changedToken marks inline change segments in plain rendering.
const changedToken = chroma.GenericStrong

func inlineTokens(line *diff.DiffLine, other string) []chroma.Token {
	var segs []diff.Segment
	if line.Type == diff.DiffLineRemoved {
		segs, _ = diff.InlineChanges(line.Content, other)
	} else {
		_, segs = diff.InlineChanges(other, line.Content)
	}
	tokens := make([]chroma.Token, 0, len(segs))
	for _, seg := range segs {
		typ := chroma.Text
		if seg.Changed {
			typ = changedToken
		}
		tokens = append(tokens, chroma.Token{Type: typ, Value: seg.Text})
	}
	return tokens
}

// plain renders tokens without syntax colors, emphasizing inline changes.
func (b *builder) plain(tokens []chroma.Token) string {
	var sb strings.Builder
	for _, tok := range tokens {
		if tok.Type == changedToken {
			sb.WriteString(b.style().Bold(true).Underline(true).Render(tok.Value))
			continue
		}
		sb.WriteString(tok.Value)
	}
	return sb.String()
}

func number(n int) string {
	if n == 0 {
		return strings.Repeat(" ", numberWidth)
	}
	return fmt.Sprintf("%*d", numberWidth, n)
}

// unified renders one column: old number, new number, sign, content.
func (b *builder) unified(lines []diff.DiffLine) {
	gutter := 2*numberWidth + 4
	width := max(minCellWidth, b.p.width-gutter)
	blank := strings.Repeat(" ", gutter)

	for i := range lines {
		line := &lines[i]
		sign := b.signStyle(line.Type)
		g := sign.Render(number(line.OldLine) + " " + number(line.NewLine) + " " + line.Type.Prefix() + " ")
		ref := rowRef{line: line.NewLine, side: SideAdditions}
		if line.Type == diff.DiffLineRemoved {
			ref = rowRef{line: line.OldLine, side: SideDeletions}
		}
		for j, row := range b.cell(line, width) {
			if j == 0 {
				b.emit(g+row, ref)
			} else {
				b.emit(blank+row, ref)
			}
		}
	}
}

// split renders old and new side by side with rows paired by diff.SplitRows.
func (b *builder) split(lines []diff.DiffLine) {
	gutter := numberWidth + 3
	col := max(minCellWidth, (b.p.width-runewidth.StringWidth(columnGap))/2-gutter)
	blankCell := strings.Repeat(" ", gutter+col)
	sep := b.style().Foreground(b.pal.muted).Render(columnGap)

	side := func(line *diff.DiffLine, num int) []string {
		if line == nil {
			return []string{blankCell}
		}
		g := b.signStyle(line.Type).Render(number(num) + " " + line.Type.Prefix() + " ")
		cells := b.cell(line, col)
		for i := range cells {
			if i == 0 {
				cells[i] = g + cells[i]
			} else {
				cells[i] = strings.Repeat(" ", gutter) + cells[i]
			}
		}
		return cells
	}

	for _, row := range diff.SplitRows(lines) {
		var left, right []string
		if row.Left != nil {
			left = side(row.Left, row.Left.OldLine)
		} else {
			left = side(nil, 0)
		}
		if row.Right != nil {
			right = side(row.Right, row.Right.NewLine)
		} else {
			right = side(nil, 0)
		}

		ref := rowRef{}
		switch {
		case row.Right != nil:
			ref = rowRef{line: row.Right.NewLine, side: SideAdditions}
		case row.Left != nil:
			ref = rowRef{line: row.Left.OldLine, side: SideDeletions}
		}

		for i := 0; i < max(len(left), len(right)); i++ {
			l, r := blankCell, blankCell
			if i < len(left) {
				l = left[i]
			}
			if i < len(right) {
				r = right[i]
			}
			b.emit(l+sep+r, ref)
		}
	}
}
