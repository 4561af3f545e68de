// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package termrender

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"

	"github.com/jeranaias/rigrun-diffs/internal/lang"
)

// =============================================================================
// SYNTAX HIGHLIGHTING
// =============================================================================

// highlighter tokenizes a whole file side once and formats one visual row
// at a time, so multi-line constructs keep their colors after wrapping.
type highlighter struct {
	lexer     chroma.Lexer // nil when highlighting is off
	style     *chroma.Style
	formatter chroma.Formatter
}

// newHighlighter picks a lexer from the renderer-provided language, then the
// static table, then chroma's own filename patterns.
func newHighlighter(language, fileName, theme string, profile termenv.Profile) *highlighter {
	h := &highlighter{}
	if profile == termenv.Ascii {
		return h
	}

	var lexer chroma.Lexer
	if language != "" {
		lexer = lexers.Get(language)
	}
	if lexer == nil {
		if id := lang.Detect(fileName); id != "" {
			lexer = lexers.Get(id)
		}
	}
	if lexer == nil && fileName != "" {
		lexer = lexers.Match(fileName)
	}
	if lexer == nil {
		return h
	}
	h.lexer = chroma.Coalesce(lexer)

	styleName := "monokai"
	if theme == ThemeLight {
		styleName = "github"
	}
	h.style = chromaStyles.Get(styleName)
	if h.style == nil {
		h.style = chromaStyles.Fallback
	}

	formatterName := "terminal256"
	switch profile {
	case termenv.TrueColor:
		formatterName = "terminal16m"
	case termenv.ANSI:
		formatterName = "terminal16"
	}
	h.formatter = formatters.Get(formatterName)
	if h.formatter == nil {
		h.formatter = formatters.Fallback
	}
	return h
}

// enabled reports whether rows are syntax colored.
func (h *highlighter) enabled() bool {
	return h.lexer != nil
}

// lines tokenizes content and returns one token slice per source line with
// the newline removed.
func (h *highlighter) lines(content string) [][]chroma.Token {
	if !h.enabled() {
		return plainLines(content)
	}
	it, err := h.lexer.Tokenise(nil, content)
	if err != nil {
		return plainLines(content)
	}
	split := chroma.SplitTokensIntoLines(it.Tokens())
	out := make([][]chroma.Token, 0, len(split))
	for _, line := range split {
		trimmed := make([]chroma.Token, 0, len(line))
		for _, tok := range line {
			tok.Value = strings.TrimRight(tok.Value, "\r\n")
			if tok.Value != "" {
				trimmed = append(trimmed, tok)
			}
		}
		out = append(out, trimmed)
	}
	return out
}

func plainLines(content string) [][]chroma.Token {
	if content == "" {
		return nil
	}
	raw := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	out := make([][]chroma.Token, len(raw))
	for i, line := range raw {
		line = strings.TrimRight(line, "\r")
		if line != "" {
			out[i] = []chroma.Token{{Type: chroma.Text, Value: line}}
		}
	}
	return out
}

// format renders one row of tokens.
func (h *highlighter) format(tokens []chroma.Token) string {
	if !h.enabled() {
		return tokensText(tokens)
	}
	var sb strings.Builder
	if err := h.formatter.Format(&sb, h.style, chroma.Literator(tokens...)); err != nil {
		return tokensText(tokens)
	}
	return sb.String()
}

func tokensText(tokens []chroma.Token) string {
	var sb strings.Builder
	for _, tok := range tokens {
		sb.WriteString(tok.Value)
	}
	return sb.String()
}

// =============================================================================
// WIDTH HANDLING
// =============================================================================

// expandTabs replaces tabs with spaces so cell widths are predictable.
func expandTabs(tokens []chroma.Token, tabWidth int) []chroma.Token {
	out := make([]chroma.Token, len(tokens))
	col := 0
	for i, tok := range tokens {
		if !strings.Contains(tok.Value, "\t") {
			col += runewidth.StringWidth(tok.Value)
			out[i] = tok
			continue
		}
		var sb strings.Builder
		for _, r := range tok.Value {
			if r == '\t' {
				n := tabWidth - col%tabWidth
				sb.WriteString(strings.Repeat(" ", n))
				col += n
				continue
			}
			sb.WriteRune(r)
			col += runewidth.RuneWidth(r)
		}
		tok.Value = sb.String()
		out[i] = tok
	}
	return out
}

// cutTokens splits a line into rows no wider than width cells. With wrap
// false only the first row is kept and an ellipsis marks the cut.
func cutTokens(tokens []chroma.Token, width int, wrap bool) [][]chroma.Token {
	if width <= 0 {
		return [][]chroma.Token{tokens}
	}

	var rows [][]chroma.Token
	var row []chroma.Token
	used := 0
	for _, tok := range tokens {
		var sb strings.Builder
		for _, r := range tok.Value {
			w := runewidth.RuneWidth(r)
			if used+w > width {
				if sb.Len() > 0 {
					row = append(row, chroma.Token{Type: tok.Type, Value: sb.String()})
					sb.Reset()
				}
				if !wrap {
					return [][]chroma.Token{ellipsize(row, width)}
				}
				rows = append(rows, row)
				row, used = nil, 0
			}
			sb.WriteRune(r)
			used += w
		}
		if sb.Len() > 0 {
			row = append(row, chroma.Token{Type: tok.Type, Value: sb.String()})
		}
	}
	return append(rows, row)
}

// ellipsize shortens a full row so that it ends in an ellipsis.
func ellipsize(row []chroma.Token, width int) []chroma.Token {
	budget := width - runewidth.RuneWidth('…')
	var out []chroma.Token
	used := 0
	for _, tok := range row {
		var sb strings.Builder
		full := false
		for _, r := range tok.Value {
			w := runewidth.RuneWidth(r)
			if used+w > budget {
				full = true
				break
			}
			sb.WriteRune(r)
			used += w
		}
		if sb.Len() > 0 {
			out = append(out, chroma.Token{Type: tok.Type, Value: sb.String()})
		}
		if full {
			break
		}
	}
	return append(out, chroma.Token{Type: chroma.Text, Value: "…"})
}
