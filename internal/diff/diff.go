// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package diff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// =============================================================================
// DIFF TYPES
// =============================================================================

// DiffLineType represents the type of a diff line.
type DiffLineType int

const (
	// DiffLineContext represents unchanged context lines
	DiffLineContext DiffLineType = iota
	// DiffLineAdded represents added lines
	DiffLineAdded
	// DiffLineRemoved represents removed lines
	DiffLineRemoved
)

// String returns the string representation of a diff line type.
func (t DiffLineType) String() string {
	switch t {
	case DiffLineContext:
		return "context"
	case DiffLineAdded:
		return "added"
	case DiffLineRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Prefix returns the diff prefix character for this line type.
func (t DiffLineType) Prefix() string {
	switch t {
	case DiffLineAdded:
		return "+"
	case DiffLineRemoved:
		return "-"
	default:
		return " "
	}
}

// DiffLine represents a single line in a diff.
type DiffLine struct {
	Type    DiffLineType
	Content string
	OldLine int // 0 if added
	NewLine int // 0 if removed
}

// DiffHunk represents a contiguous section of changes with context.
type DiffHunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []DiffLine
}

// DiffStats holds statistics about a diff.
type DiffStats struct {
	Additions int
	Deletions int
	FileMode  string // "new", "modified", "deleted"
}

// Diff represents a complete file diff.
type Diff struct {
	FilePath   string
	OldContent string
	NewContent string
	// Lines is the full line sequence, context included.
	Lines []DiffLine
	Hunks []DiffHunk
	Stats DiffStats
}

// ContextLines is the number of unchanged lines kept around each change.
const ContextLines = 3

// =============================================================================
// DIFF COMPUTATION
// =============================================================================

// ComputeDiff computes a line diff between old and new content. A missing
// final newline is not treated as a change.
func ComputeDiff(filePath, oldContent, newContent string) *Diff {
	d := &Diff{
		FilePath:   filePath,
		OldContent: oldContent,
		NewContent: newContent,
	}

	switch {
	case oldContent == "" && newContent != "":
		d.Stats.FileMode = "new"
	case oldContent != "" && newContent == "":
		d.Stats.FileMode = "deleted"
	default:
		d.Stats.FileMode = "modified"
	}

	d.Lines = computeLineDiff(splitLines(oldContent), splitLines(newContent))
	d.Hunks = groupIntoHunks(d.Lines, ContextLines)

	for _, line := range d.Lines {
		switch line.Type {
		case DiffLineAdded:
			d.Stats.Additions++
		case DiffLineRemoved:
			d.Stats.Deletions++
		}
	}
	return d
}

// HasChanges reports whether any line was added or removed.
func (d *Diff) HasChanges() bool {
	return d.Stats.Additions > 0 || d.Stats.Deletions > 0
}

// splitLines splits content into lines, dropping the empty element a final
// newline leaves behind.
func splitLines(content string) []string {
	if content == "" {
		return []string{}
	}
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// computeLineDiff runs diff-match-patch in line mode: every distinct line
// is mapped to one rune, diffed, and mapped back.
func computeLineDiff(oldLines, newLines []string) []DiffLine {
	dmp := diffmatchpatch.New()
	a, b, table := dmp.DiffLinesToChars(joinLines(oldLines), joinLines(newLines))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), table)

	var result []DiffLine
	oldNum, newNum := 1, 1
	for _, d := range diffs {
		for _, text := range splitLines(d.Text) {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				result = append(result, DiffLine{Type: DiffLineContext, Content: text, OldLine: oldNum, NewLine: newNum})
				oldNum++
				newNum++
			case diffmatchpatch.DiffDelete:
				result = append(result, DiffLine{Type: DiffLineRemoved, Content: text, OldLine: oldNum})
				oldNum++
			case diffmatchpatch.DiffInsert:
				result = append(result, DiffLine{Type: DiffLineAdded, Content: text, NewLine: newNum})
				newNum++
			}
		}
	}
	return result
}

// groupIntoHunks groups diff lines into hunks, keeping context lines of
// unchanged text before and after each change. Hunks whose context would
// overlap are merged.
func groupIntoHunks(lines []DiffLine, context int) []DiffHunk {
	type span struct{ start, end int }
	var spans []span
	for i, line := range lines {
		if line.Type == DiffLineContext {
			continue
		}
		start := max(0, i-context)
		end := min(len(lines), i+context+1)
		if n := len(spans); n > 0 && start <= spans[n-1].end {
			spans[n-1].end = end
			continue
		}
		spans = append(spans, span{start, end})
	}

	hunks := make([]DiffHunk, 0, len(spans))
	oldBefore, newBefore, pos := 0, 0, 0
	for _, s := range spans {
		for ; pos < s.start; pos++ {
			if lines[pos].Type != DiffLineAdded {
				oldBefore++
			}
			if lines[pos].Type != DiffLineRemoved {
				newBefore++
			}
		}

		h := DiffHunk{Lines: lines[s.start:s.end]}
		for _, line := range h.Lines {
			if line.Type != DiffLineAdded {
				h.OldCount++
			}
			if line.Type != DiffLineRemoved {
				h.NewCount++
			}
		}
		// Unified convention: an empty side starts at the line before it.
		h.OldStart = oldBefore
		if h.OldCount > 0 {
			h.OldStart++
		}
		h.NewStart = newBefore
		if h.NewCount > 0 {
			h.NewStart++
		}
		hunks = append(hunks, h)
	}
	return hunks
}

// =============================================================================
// SPLIT LAYOUT
// =============================================================================

// SplitRow is one row of a side-by-side layout. A nil side is blank.
type SplitRow struct {
	Left  *DiffLine
	Right *DiffLine
}

// SplitRows pairs lines for side-by-side display. Context lines appear on
// both sides; a run of removals is paired row by row with the run of
// additions that follows it.
func SplitRows(lines []DiffLine) []SplitRow {
	var rows []SplitRow
	for i := 0; i < len(lines); {
		if lines[i].Type == DiffLineContext {
			line := &lines[i]
			rows = append(rows, SplitRow{Left: line, Right: line})
			i++
			continue
		}

		var removed, added []*DiffLine
		for i < len(lines) && lines[i].Type == DiffLineRemoved {
			removed = append(removed, &lines[i])
			i++
		}
		for i < len(lines) && lines[i].Type == DiffLineAdded {
			added = append(added, &lines[i])
			i++
		}
		for j := 0; j < max(len(removed), len(added)); j++ {
			var row SplitRow
			if j < len(removed) {
				row.Left = removed[j]
			}
			if j < len(added) {
				row.Right = added[j]
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// =============================================================================
// INLINE CHANGES
// =============================================================================

// Segment is a run of text within one line, flagged when it differs from
// the paired line.
type Segment struct {
	Text    string
	Changed bool
}

// InlineChanges computes character-level segments for a removed line and
// the added line that replaced it.
func InlineChanges(oldLine, newLine string) (oldSegs, newSegs []Segment) {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(oldLine, newLine, false))
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			oldSegs = append(oldSegs, Segment{Text: d.Text})
			newSegs = append(newSegs, Segment{Text: d.Text})
		case diffmatchpatch.DiffDelete:
			oldSegs = append(oldSegs, Segment{Text: d.Text, Changed: true})
		case diffmatchpatch.DiffInsert:
			newSegs = append(newSegs, Segment{Text: d.Text, Changed: true})
		}
	}
	return oldSegs, newSegs
}

// =============================================================================
// UNIFIED DIFF FORMAT
// =============================================================================

// FormatUnifiedDiff returns the diff in standard unified diff format.
func FormatUnifiedDiff(d *Diff) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "--- a/%s\n", d.FilePath)
	fmt.Fprintf(&sb, "+++ b/%s\n", d.FilePath)

	for _, hunk := range d.Hunks {
		fmt.Fprintf(&sb, "@@ -%d,%d +%d,%d @@\n",
			hunk.OldStart, hunk.OldCount,
			hunk.NewStart, hunk.NewCount)
		for _, line := range hunk.Lines {
			sb.WriteString(line.Type.Prefix())
			sb.WriteString(line.Content)
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// Summary returns a human-readable summary of the diff.
func (d *Diff) Summary() string {
	var parts []string

	switch d.Stats.FileMode {
	case "new":
		parts = append(parts, "New file")
	case "deleted":
		parts = append(parts, "File deleted")
	default:
		parts = append(parts, "Modified")
	}

	if d.Stats.Additions > 0 {
		parts = append(parts, fmt.Sprintf("+%d", d.Stats.Additions))
	}
	if d.Stats.Deletions > 0 {
		parts = append(parts, fmt.Sprintf("-%d", d.Stats.Deletions))
	}

	return strings.Join(parts, " ")
}
