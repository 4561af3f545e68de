// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"fmt"
	"log"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/rigrun-diffs/internal/bridge"
	"github.com/jeranaias/rigrun-diffs/internal/diff"
	"github.com/jeranaias/rigrun-diffs/internal/model"
	"github.com/jeranaias/rigrun-diffs/internal/termrender"
	"github.com/jeranaias/rigrun-diffs/internal/ui/styles"
)

// Rows taken by the title line and the status bar.
const (
	headerRows = 1
	footerRows = 1
)

// Options configures a viewer.
type Options struct {
	// GroupID identifies the diff group in the lifecycle state. Defaults to
	// the file path.
	GroupID  string
	Style    model.DiffStyle
	Overflow model.OverflowMode
	// Theme pins "dark" or "light". Empty follows the renderer's
	// systemThemeChanged events.
	Theme string

	// Renderer is the lipgloss renderer for the chrome around the diff.
	Renderer *lipgloss.Renderer
	// Clipboard replaces clipboard.WriteAll.
	Clipboard func(string) error
	Now       func() time.Time
	Logger    *log.Logger
}

// =============================================================================
// MODEL
// =============================================================================

// Model is a bubbletea model showing one diff through the bridge.
//
// Every view change goes through Bridge.Update, which sends the lightest
// command that brings the renderer up to date. Frames come back as FrameMsg.
type Model struct {
	bridge   *bridge.Bridge
	renderer *termrender.Renderer
	theme    *styles.Theme
	keys     KeyMap
	logger   *log.Logger

	clip func(string) error
	now  func() time.Time

	result     model.DiffResult
	groupID    string
	lifecycle  *model.LifecycleState
	style      model.DiffStyle
	overflow   model.OverflowMode
	appearance string
	pinned     bool

	viewport   viewport.Model
	frame      termrender.Frame
	lastScroll int
	anchorRow  int
	hunk       int
	width      int
	height     int

	notice   string
	errText  string
	quitting bool
}

// New creates a viewer for result and sends the first render. The render
// is queued by the bridge until the renderer is started.
func New(result model.DiffResult, b *bridge.Bridge, r *termrender.Renderer, opts Options) *Model {
	m := &Model{
		bridge:     b,
		renderer:   r,
		theme:      styles.NewTheme(opts.Renderer),
		keys:       DefaultKeyMap(),
		logger:     opts.Logger,
		clip:       opts.Clipboard,
		now:        opts.Now,
		result:     result,
		groupID:    opts.GroupID,
		lifecycle:  model.NewLifecycleState(),
		style:      opts.Style,
		overflow:   opts.Overflow,
		appearance: opts.Theme,
		pinned:     opts.Theme != "",
		viewport:   viewport.New(termrender.DefaultWidth, 20),
		lastScroll: -1,
		anchorRow:  -1,
		hunk:       -1,
	}
	if m.logger == nil {
		m.logger = log.Default()
	}
	if m.clip == nil {
		m.clip = clipboard.WriteAll
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.groupID == "" {
		m.groupID = result.FilePath
	}
	if m.style == "" {
		m.style = model.StyleSplit
	}
	if m.overflow == "" {
		m.overflow = model.OverflowScroll
	}
	if m.appearance == "" {
		m.appearance = termrender.ThemeDark
		if !m.theme.IsDark {
			m.appearance = termrender.ThemeLight
		}
	}
	m.sync()
	return m
}

// Lifecycle returns the approve/reject state.
func (m *Model) Lifecycle() *model.LifecycleState {
	return m.lifecycle
}

// Approved reports whether the diff group was approved.
func (m *Model) Approved() bool {
	return m.lifecycle.IsApplied(m.groupID)
}

// sync pushes the current view through the change gate.
func (m *Model) sync() bridge.UpdateKind {
	return m.bridge.Update(bridge.View{
		Result:   m.result,
		Style:    m.style,
		Overflow: m.overflow,
		Theme:    m.appearance,
	})
}

// =============================================================================
// BUBBLETEA
// =============================================================================

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(1, msg.Height-headerRows-footerRows)
		m.renderer.SetWidth(msg.Width)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if msg.Type == tea.MouseLeft {
			m.handleClick(msg)
			return m, nil
		}

	case FrameMsg:
		m.applyFrame(termrender.Frame(msg))
		return m, nil

	case ResultMsg:
		m.result = model.DiffResult(msg)
		m.errText = ""
		m.hunk = -1
		m.sync()
		return m, nil

	case ProcessErrorMsg:
		m.errText = msg.Message
		return m, nil

	case LineClickedMsg:
		m.notice = fmt.Sprintf("line %d (%s)", msg.Line, msg.Side)
		return m, nil

	case SelectionMsg:
		m.notice = fmt.Sprintf("lines %d-%d (%s)", msg.Start, msg.End, msg.Side)
		return m, nil

	case ThemeMsg:
		if !m.pinned {
			m.appearance = termrender.ThemeLight
			if msg.IsDark {
				m.appearance = termrender.ThemeDark
			}
			m.sync()
		}
		return m, nil

	case RendererErrorMsg:
		m.errText = string(msg)
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.errText = "copy failed: " + msg.err.Error()
		} else {
			m.notice = "copied updated content"
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.bridge.Cleanup()
		return m, tea.Quit

	case key.Matches(msg, m.keys.ToggleStyle):
		m.style = m.style.Toggle()
		m.sync()

	case key.Matches(msg, m.keys.ToggleOverflow):
		m.overflow = m.overflow.Toggle()
		m.sync()

	case key.Matches(msg, m.keys.ToggleTheme):
		m.pinned = true
		if m.appearance == termrender.ThemeDark {
			m.appearance = termrender.ThemeLight
		} else {
			m.appearance = termrender.ThemeDark
		}
		m.sync()

	case key.Matches(msg, m.keys.NextChange):
		m.jumpChange(1)

	case key.Matches(msg, m.keys.PrevChange):
		m.jumpChange(-1)

	case key.Matches(msg, m.keys.Approve):
		m.lifecycle.MarkApplied(m.groupID, m.now())
		m.logger.Printf("VIEWER_APPROVED | group=%s", m.groupID)

	case key.Matches(msg, m.keys.Reject):
		m.lifecycle.MarkRejected(m.groupID, m.now())
		m.logger.Printf("VIEWER_REJECTED | group=%s", m.groupID)

	case key.Matches(msg, m.keys.Copy):
		content, clip := m.result.Updated, m.clip
		return m, func() tea.Msg { return copiedMsg{err: clip(content)} }

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// jumpChange scrolls to the next (dir > 0) or previous hunk, wrapping
// around at either end.
func (m *Model) jumpChange(dir int) {
	d := diff.ComputeDiff(m.result.FilePath, m.result.Original, m.result.Updated)
	n := len(d.Hunks)
	if n == 0 {
		return
	}
	switch {
	case m.hunk < 0 && dir < 0:
		m.hunk = n - 1
	case m.hunk < 0:
		m.hunk = 0
	default:
		m.hunk = ((m.hunk+dir)%n + n) % n
	}
	m.lastScroll = -1
	m.bridge.ScrollToLine(firstChangedLine(d.Hunks[m.hunk]))
}

// firstChangedLine is the new-side line number of the first change in h.
// A removal maps to the new-side line just before it.
func firstChangedLine(h diff.DiffHunk) int {
	last := h.NewStart
	for _, l := range h.Lines {
		switch l.Type {
		case diff.DiffLineAdded:
			return l.NewLine
		case diff.DiffLineRemoved:
			return max(1, last)
		default:
			last = l.NewLine
		}
	}
	return max(1, h.NewStart)
}

func (m *Model) handleClick(msg tea.MouseMsg) {
	if msg.Y < headerRows || msg.Y >= headerRows+m.viewport.Height {
		return
	}
	row := m.viewport.YOffset + msg.Y - headerRows
	if msg.Alt && m.anchorRow >= 0 {
		m.renderer.SelectRows(m.anchorRow, row)
		return
	}
	if m.renderer.ClickRow(row) {
		m.anchorRow = row
	}
}

func (m *Model) applyFrame(f termrender.Frame) {
	m.frame = f
	m.viewport.SetContent(f.Text)
	if f.ScrollRow >= 0 && f.ScrollRow != m.lastScroll {
		m.viewport.SetYOffset(f.ScrollRow)
	}
	m.lastScroll = f.ScrollRow
}
