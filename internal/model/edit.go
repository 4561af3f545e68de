// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"strings"
)

// =============================================================================
// EDIT TOOL
// =============================================================================

// EditTool identifies the kind of tool call that produced a payload.
type EditTool string

const (
	// ToolEdit replaces one string in an existing file.
	ToolEdit EditTool = "Edit"
	// ToolMultiEdit applies an ordered list of edits to one file.
	ToolMultiEdit EditTool = "MultiEdit"
	// ToolWrite replaces the whole file, creating it if needed.
	ToolWrite EditTool = "Write"
)

// String returns the tool name.
func (t EditTool) String() string {
	return string(t)
}

// ParseEditTool parses a tool name case-insensitively.
func ParseEditTool(name string) (EditTool, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "edit":
		return ToolEdit, nil
	case "multiedit", "multi_edit", "multi-edit":
		return ToolMultiEdit, nil
	case "write":
		return ToolWrite, nil
	default:
		return "", fmt.Errorf("unknown edit tool %q (want Edit, MultiEdit or Write)", name)
	}
}

// =============================================================================
// EDITS
// =============================================================================

// Edit is one textual substitution.
type Edit struct {
	OldString  string `json:"old_string"`
	NewString  string `json:"new_string"`
	ReplaceAll bool   `json:"replace_all"`
}

// FileEditRequest is the payload of the Edit and MultiEdit tools. Either
// Edits is set, or the flat OldString/NewString pair is.
type FileEditRequest struct {
	FilePath   string  `json:"file_path"`
	Edits      []Edit  `json:"edits,omitempty"`
	OldString  *string `json:"old_string,omitempty"`
	NewString  *string `json:"new_string,omitempty"`
	ReplaceAll *bool   `json:"replace_all,omitempty"`
}

// AllEdits normalizes the request into an ordered edit list.
func (r FileEditRequest) AllEdits() []Edit {
	if r.Edits != nil {
		return r.Edits
	}
	if r.OldString != nil && r.NewString != nil {
		replaceAll := false
		if r.ReplaceAll != nil {
			replaceAll = *r.ReplaceAll
		}
		return []Edit{{
			OldString:  *r.OldString,
			NewString:  *r.NewString,
			ReplaceAll: replaceAll,
		}}
	}
	return []Edit{}
}

// WriteRequest is the payload of the Write tool.
type WriteRequest struct {
	FilePath string `json:"file_path"`
	Content  string `json:"content"`
}
