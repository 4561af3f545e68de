// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/rigrun-diffs/internal/bridge"
	"github.com/jeranaias/rigrun-diffs/internal/model"
	"github.com/jeranaias/rigrun-diffs/internal/termrender"
)

// =============================================================================
// MESSAGES
// =============================================================================

// FrameMsg carries a new frame from the terminal renderer.
type FrameMsg termrender.Frame

// ResultMsg replaces the diff being shown, e.g. after a watched file changed.
type ResultMsg model.DiffResult

// LineClickedMsg is a lineClicked event from the renderer.
type LineClickedMsg struct {
	Line int
	Side string
}

// SelectionMsg is a selectionChanged event from the renderer.
type SelectionMsg struct {
	Start, End int
	Side       string
}

// ThemeMsg is a systemThemeChanged event from the renderer.
type ThemeMsg struct {
	IsDark bool
}

// RendererErrorMsg is an error event from the renderer.
type RendererErrorMsg string

// ProcessErrorMsg reports that a fresh result could not be built. The
// previous diff stays on screen.
type ProcessErrorMsg struct {
	Message string
}

type copiedMsg struct {
	err error
}

// =============================================================================
// RELAY
// =============================================================================

// Relay forwards renderer callbacks into a running program. The renderer and
// bridge are built before the program exists, so the program is attached
// later; messages sent before that are dropped.
type Relay struct {
	mu      sync.Mutex
	program *tea.Program
}

// Attach sets the program that receives messages.
func (r *Relay) Attach(p *tea.Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.program = p
}

// Send delivers msg if a program is attached.
func (r *Relay) Send(msg tea.Msg) {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// FrameHandler is passed to termrender.WithFrameHandler.
func (r *Relay) FrameHandler() func(termrender.Frame) {
	return func(f termrender.Frame) { r.Send(FrameMsg(f)) }
}

// Handlers returns bridge handlers that forward every event.
func (r *Relay) Handlers() bridge.Handlers {
	return bridge.Handlers{
		OnLineClick: func(line int, side string) {
			r.Send(LineClickedMsg{Line: line, Side: side})
		},
		OnSelectionChanged: func(start, end int, side string) {
			r.Send(SelectionMsg{Start: start, End: end, Side: side})
		},
		OnThemeChanged: func(isDark bool) {
			r.Send(ThemeMsg{IsDark: isDark})
		},
		OnError: func(message string) {
			r.Send(RendererErrorMsg(message))
		},
	}
}
