// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bridge

import (
	"github.com/jeranaias/rigrun-diffs/internal/model"
)

// =============================================================================
// CHANGE GATE
// =============================================================================

// View is what the host wants the renderer to show.
type View struct {
	Result   model.DiffResult
	Style    model.DiffStyle
	Overflow model.OverflowMode
	// Theme is "dark" or "light".
	Theme string
}

// UpdateKind reports which command an Update dispatched.
type UpdateKind int

const (
	UpdateNone UpdateKind = iota
	UpdateRender
	UpdateStyle
	UpdateOverflow
	UpdateTheme
)

func (k UpdateKind) String() string {
	switch k {
	case UpdateRender:
		return "render"
	case UpdateStyle:
		return "style"
	case UpdateOverflow:
		return "overflow"
	case UpdateTheme:
		return "theme"
	default:
		return "none"
	}
}

// gateState remembers the last dispatched values. valid is false until the
// first render of a session.
type gateState struct {
	valid    bool
	original string
	updated  string
	fileName string
	style    model.DiffStyle
	overflow model.OverflowMode
	theme    string
}

// Update sends the lightest command that brings the renderer to v. Checks
// run in priority order and at most one kind is sent per call:
//
//  1. content or file name changed: full render (plus setTheme)
//  2. style changed: setDiffStyle
//  3. overflow changed: setOverflow
//  4. theme changed: setTheme
func (b *Bridge) Update(v View) UpdateKind {
	b.mu.Lock()
	defer b.mu.Unlock()

	g := &b.gate
	r := v.Result
	switch {
	case !g.valid || g.original != r.Original || g.updated != r.Updated || g.fileName != r.FileName:
		*g = gateState{
			valid:    true,
			original: r.Original,
			updated:  r.Updated,
			fileName: r.FileName,
			style:    v.Style,
			overflow: v.Overflow,
			theme:    v.Theme,
		}
		b.renderLocked(r, v.Theme, v.Style, v.Overflow)
		return UpdateRender

	case g.style != v.Style:
		g.style = v.Style
		b.submitLocked(Command{Method: MethodSetDiffStyle, Arg: v.Style.String()})
		return UpdateStyle

	case g.overflow != v.Overflow:
		g.overflow = v.Overflow
		b.submitLocked(Command{Method: MethodSetOverflow, Arg: v.Overflow.String()})
		return UpdateOverflow

	case g.theme != v.Theme:
		g.theme = v.Theme
		b.submitLocked(Command{Method: MethodSetTheme, Arg: v.Theme})
		return UpdateTheme
	}
	return UpdateNone
}
