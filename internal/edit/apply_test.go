// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package edit

import (
	"testing"

	"github.com/jeranaias/rigrun-diffs/internal/model"
)

func TestApplyEdits(t *testing.T) {
	tests := []struct {
		name   string
		edits  []model.Edit
		source string
		want   string
	}{
		{
			name:   "first occurrence only",
			edits:  []model.Edit{{OldString: "foo", NewString: "bar"}},
			source: "foo foo",
			want:   "bar foo",
		},
		{
			name:   "replace all",
			edits:  []model.Edit{{OldString: "foo", NewString: "bar", ReplaceAll: true}},
			source: "foo foo",
			want:   "bar bar",
		},
		{
			name:   "missing old string is a no-op",
			edits:  []model.Edit{{OldString: "zzz", NewString: "bar"}},
			source: "foo",
			want:   "foo",
		},
		{
			name: "edits see previous output",
			edits: []model.Edit{
				{OldString: "a", NewString: "b"},
				{OldString: "b", NewString: "c"},
			},
			source: "a",
			want:   "c",
		},
		{
			name:   "empty old string is a no-op",
			edits:  []model.Edit{{OldString: "", NewString: "x", ReplaceAll: true}},
			source: "abc",
			want:   "abc",
		},
		{
			name:   "no edits",
			edits:  nil,
			source: "unchanged",
			want:   "unchanged",
		},
		{
			name:   "non-overlapping replace all",
			edits:  []model.Edit{{OldString: "aa", NewString: "b", ReplaceAll: true}},
			source: "aaa",
			want:   "ba",
		},
		{
			name:   "deletion",
			edits:  []model.Edit{{OldString: "remove me\n", NewString: ""}},
			source: "keep\nremove me\nkeep\n",
			want:   "keep\nkeep\n",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ApplyEdits(tc.edits, tc.source); got != tc.want {
				t.Errorf("Expected %q, got %q", tc.want, got)
			}
		})
	}
}
