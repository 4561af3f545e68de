// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// DIFF RESULT
// =============================================================================

// DiffResult is the before/after text of one file produced by a tool call.
// Values are never mutated after construction; a newer result replaces an
// older one by assignment.
type DiffResult struct {
	FilePath  string `json:"filePath"`
	FileName  string `json:"fileName"`
	Original  string `json:"original"`
	Updated   string `json:"updated"`
	IsInitial bool   `json:"isInitial"`
}

// InitialResult is the sentinel result used before anything was processed.
var InitialResult = DiffResult{IsInitial: true}

// NewDiffResult creates a result for path. The file name shown to the
// renderer is the full path, which is what the language table keys on.
func NewDiffResult(path, original, updated string) DiffResult {
	return DiffResult{
		FilePath: path,
		FileName: path,
		Original: original,
		Updated:  updated,
	}
}

// SameContent reports whether both results carry identical text.
func (r DiffResult) SameContent(other DiffResult) bool {
	return r.Original == other.Original && r.Updated == other.Updated
}

// IsCreation reports whether the result describes a file that did not exist.
func (r DiffResult) IsCreation() bool {
	return !r.IsInitial && r.Original == "" && r.Updated != ""
}

// =============================================================================
// DIFF STATE
// =============================================================================

// DiffState wraps the latest result stored for a message.
type DiffState struct {
	Result DiffResult `json:"result"`
}

// EmptyState is returned for messages that have no stored result.
var EmptyState = &DiffState{Result: InitialResult}

// NewDiffState wraps a result.
func NewDiffState(result DiffResult) *DiffState {
	return &DiffState{Result: result}
}

// HasContent reports whether there is anything worth rendering.
func (s *DiffState) HasContent() bool {
	if s == nil {
		return false
	}
	r := s.Result
	return !r.IsInitial && (r.Original != "" || r.Updated != "")
}
