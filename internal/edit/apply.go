// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package edit

import (
	"strings"

	"github.com/jeranaias/rigrun-diffs/internal/model"
)

// ApplyEdits applies edits to source strictly in order and returns the
// result. Each edit sees the output of the previous one. An edit whose
// OldString is absent, or empty, leaves the text unchanged.
func ApplyEdits(edits []model.Edit, source string) string {
	result := source
	for _, e := range edits {
		if e.OldString == "" {
			continue
		}
		if e.ReplaceAll {
			result = strings.ReplaceAll(result, e.OldString, e.NewString)
		} else {
			result = strings.Replace(result, e.OldString, e.NewString, 1)
		}
	}
	return result
}
