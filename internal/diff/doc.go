// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package diff computes line diffs for the terminal renderer.
//
// Line matching uses diff-match-patch in line mode; paired lines can be
// refined to character-level segments with InlineChanges.
//
// # Key Types
//
//   - DiffLineType: Type of diff line (context, added, removed)
//   - DiffLine: Single line in a diff with type, content and line numbers
//   - DiffHunk: Group of related diff lines with line numbers
//   - SplitRow: One side-by-side row
//   - Diff: Complete diff result with hunks and statistics
//
// # Usage
//
//	d := diff.ComputeDiff("main.go", oldContent, newContent)
//	fmt.Println(d.Summary())
//	fmt.Print(diff.FormatUnifiedDiff(d))
package diff
