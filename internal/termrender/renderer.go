// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package termrender

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/muesli/termenv"

	"github.com/jeranaias/rigrun-diffs/internal/bridge"
	"github.com/jeranaias/rigrun-diffs/internal/model"
)

// Appearance values accepted by setTheme.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// DefaultWidth is used until SetWidth is called.
const DefaultWidth = 100

// Frame is one rendered view of the current diff.
type Frame struct {
	Text     string
	Rows     int
	Theme    string
	Style    model.DiffStyle
	Overflow model.OverflowMode
	// ScrollRow is the row requested by the last scrollToLine, or -1.
	ScrollRow int
}

// =============================================================================
// RENDERER
// =============================================================================

// Renderer is a terminal renderer behind the bridge protocol. It implements
// bridge.Transport: commands are applied synchronously inside Send, while
// events and frame notifications are delivered on a separate goroutine
// started by Start, so callbacks may call back into the bridge.
type Renderer struct {
	mu      sync.Mutex
	logger  *log.Logger
	emit    func(raw []byte)
	onFrame func(Frame)
	isDark  func() bool
	profile termenv.Profile

	width    int
	theme    string
	style    model.DiffStyle
	overflow model.OverflowMode
	input    *bridge.RenderInput
	current  *layout
	frame    Frame

	queue []func()
	wake  chan struct{}
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger used for RENDER_* events.
func WithLogger(logger *log.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithFrameHandler is called with every new frame.
func WithFrameHandler(fn func(Frame)) Option {
	return func(r *Renderer) { r.onFrame = fn }
}

// WithColorProfile overrides terminal color detection. termenv.Ascii turns
// off all styling.
func WithColorProfile(p termenv.Profile) Option {
	return func(r *Renderer) { r.profile = p }
}

// WithDarkDetector replaces the terminal background query used on Start.
// nil skips the systemThemeChanged event.
func WithDarkDetector(fn func() bool) Option {
	return func(r *Renderer) { r.isDark = fn }
}

// WithWidth sets the layout width in cells.
func WithWidth(width int) Option {
	return func(r *Renderer) {
		if width > 0 {
			r.width = width
		}
	}
}

// New creates a renderer. emit receives encoded bridge events, usually
// Bridge.HandleMessage.
func New(emit func(raw []byte), opts ...Option) *Renderer {
	r := &Renderer{
		logger:   log.Default(),
		emit:     emit,
		isDark:   termenv.HasDarkBackground,
		profile:  termenv.ColorProfile(),
		width:    DefaultWidth,
		theme:    ThemeDark,
		style:    model.StyleSplit,
		overflow: model.OverflowScroll,
		wake:     make(chan struct{}, 1),
		frame:    Frame{ScrollRow: -1},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start begins event delivery and announces readiness. Delivery stops when
// ctx is cancelled.
func (r *Renderer) Start(ctx context.Context) {
	go r.pump(ctx)
	r.sendEvent(bridge.ReadyEvent{Bridge: true})
	if r.isDark != nil {
		r.sendEvent(bridge.ThemeChangedEvent{IsDark: r.isDark()})
	}
}

func (r *Renderer) pump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.wake:
		}
		for {
			r.mu.Lock()
			if len(r.queue) == 0 {
				r.mu.Unlock()
				break
			}
			next := r.queue[0]
			r.queue = r.queue[1:]
			r.mu.Unlock()
			next()
		}
	}
}

func (r *Renderer) enqueueLocked(fn func()) {
	r.queue = append(r.queue, fn)
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Renderer) sendEvent(ev bridge.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sendEventLocked(ev)
}

func (r *Renderer) sendEventLocked(ev bridge.Event) {
	raw, err := bridge.EncodeEvent(ev)
	if err != nil {
		r.logger.Printf("RENDER_EVENT_FAILED | type=%s error=%v", ev.EventType(), err)
		return
	}
	if r.emit == nil {
		return
	}
	emit := r.emit
	r.enqueueLocked(func() { emit(raw) })
}

// =============================================================================
// TRANSPORT
// =============================================================================

// Send applies one bridge command.
func (r *Renderer) Send(ctx context.Context, cmd bridge.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	switch cmd.Method {
	case bridge.MethodRender:
		in, err := bridge.DecodeRenderInput(cmd.Payload)
		if err != nil {
			r.logger.Printf("RENDER_DECODE_FAILED | error=%v", err)
			r.sendEventLocked(bridge.ErrorEvent{Message: err.Error()})
			return nil
		}
		r.input = &in
		if in.Options.DiffStyle != "" {
			r.style = in.Options.DiffStyle
		}
		if in.Options.Overflow != "" {
			r.overflow = in.Options.Overflow
		}
		r.frame.ScrollRow = -1
		r.relayoutLocked()
		r.sendEventLocked(bridge.ReadyEvent{})

	case bridge.MethodSetTheme:
		if cmd.Arg != ThemeDark && cmd.Arg != ThemeLight {
			r.sendEventLocked(bridge.ErrorEvent{Message: fmt.Sprintf("unknown theme %q", cmd.Arg)})
			return nil
		}
		r.theme = cmd.Arg
		r.relayoutLocked()

	case bridge.MethodSetDiffStyle:
		style, err := model.ParseDiffStyle(cmd.Arg)
		if err != nil {
			r.sendEventLocked(bridge.ErrorEvent{Message: err.Error()})
			return nil
		}
		r.style = style
		r.relayoutLocked()

	case bridge.MethodSetOverflow:
		mode, err := model.ParseOverflowMode(cmd.Arg)
		if err != nil {
			r.sendEventLocked(bridge.ErrorEvent{Message: err.Error()})
			return nil
		}
		r.overflow = mode
		r.relayoutLocked()

	case bridge.MethodScrollToLine:
		if r.current == nil {
			return nil
		}
		r.frame.ScrollRow = r.current.rowForLine(cmd.Line, SideAdditions)
		r.publishLocked()

	case bridge.MethodCleanup:
		r.input = nil
		r.current = nil
		r.frame = Frame{ScrollRow: -1}
		r.logger.Printf("RENDER_CLEANUP")

	default:
		return fmt.Errorf("unsupported method %q", cmd.Method)
	}
	return nil
}

// SetWidth changes the layout width and re-renders.
func (r *Renderer) SetWidth(width int) {
	if width <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if width == r.width {
		return
	}
	r.width = width
	r.relayoutLocked()
}

// Frame returns the most recent frame.
func (r *Renderer) Frame() Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frame
}

func (r *Renderer) relayoutLocked() {
	if r.input == nil {
		return
	}
	r.current = render(layoutParams{
		input:   *r.input,
		theme:   r.theme,
		style:   r.style,
		wrap:    r.overflow == model.OverflowWrap,
		width:   r.width,
		profile: r.profile,
	})
	scroll := r.frame.ScrollRow
	r.frame = Frame{
		Text:      r.current.text,
		Rows:      len(r.current.rows),
		Theme:     r.theme,
		Style:     r.style,
		Overflow:  r.overflow,
		ScrollRow: scroll,
	}
	r.publishLocked()
}

func (r *Renderer) publishLocked() {
	if r.onFrame == nil {
		return
	}
	fn, frame := r.onFrame, r.frame
	r.enqueueLocked(func() { fn(frame) })
}

// =============================================================================
// INTERACTION
// =============================================================================

// ClickRow reports a click on a rendered row as a lineClicked event. Rows
// that show no line are ignored.
func (r *Renderer) ClickRow(row int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil || row < 0 || row >= len(r.current.rows) {
		return false
	}
	ref := r.current.rows[row]
	if ref.line == 0 {
		return false
	}
	r.sendEventLocked(bridge.LineClickedEvent{
		LineNumber:  ref.line,
		Side:        ref.side,
		LineY:       float64(row+1) * bridge.DefaultLineHeight,
		LineHeight:  bridge.DefaultLineHeight,
		HasPosition: true,
	})
	return true
}

// SelectRows reports the lines between two rows as a selectionChanged
// event. The side is taken from the first row.
func (r *Renderer) SelectRows(from, to int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return false
	}
	if from > to {
		from, to = to, from
	}
	from, to = max(0, from), min(len(r.current.rows)-1, to)

	var side string
	start, end := 0, 0
	for i := from; i <= to; i++ {
		ref := r.current.rows[i]
		if ref.line == 0 || (side != "" && ref.side != side) {
			continue
		}
		if side == "" {
			side, start = ref.side, ref.line
		}
		end = ref.line
	}
	if side == "" {
		return false
	}
	r.sendEventLocked(bridge.SelectionChangedEvent{StartLine: start, EndLine: end, Side: side})
	return true
}
