// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bridge

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/jeranaias/rigrun-diffs/internal/model"
)

// =============================================================================
// HANDLERS
// =============================================================================

// Handlers receive decoded renderer events. Nil callbacks are skipped.
// Callbacks run without the bridge lock held and may issue commands.
type Handlers struct {
	OnReady                 func()
	OnLineClick             func(line int, side string)
	OnLineClickWithPosition func(pos LineClickPosition, local Point)
	OnSelectionChanged      func(start, end int, side string)
	OnThemeChanged          func(isDark bool)
	OnError                 func(message string)
}

// =============================================================================
// BRIDGE
// =============================================================================

// Bridge sends commands to one renderer session and routes its events back.
//
// Until the renderer reports ready, every command except cleanup is queued.
// The first ready or bridgeReady event flushes the queue in submission order;
// later commands go out immediately. Queueing and dispatch share one mutex,
// so a command issued after ready can never overtake a queued one.
type Bridge struct {
	mu        sync.Mutex
	ctx       context.Context
	transport Transport
	logger    *log.Logger
	handlers  Handlers
	surface   Surface
	settings  RenderSettings

	session string
	ready   bool
	pending []Command
	gate    gateState
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger used for BRIDGE_* events.
func WithLogger(logger *log.Logger) Option {
	return func(b *Bridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithHandlers sets the event callbacks.
func WithHandlers(h Handlers) Option {
	return func(b *Bridge) { b.handlers = h }
}

// WithSurface sets the geometry handle used for click positions.
func WithSurface(s Surface) Option {
	return func(b *Bridge) { b.surface = s }
}

// WithRenderSettings overrides the themes and render options.
func WithRenderSettings(s RenderSettings) Option {
	return func(b *Bridge) { b.settings = s }
}

// WithContext sets the context passed to Transport.Send.
func WithContext(ctx context.Context) Option {
	return func(b *Bridge) {
		if ctx != nil {
			b.ctx = ctx
		}
	}
}

// New creates a bridge in the NotReady state.
func New(transport Transport, opts ...Option) *Bridge {
	b := &Bridge{
		ctx:       context.Background(),
		transport: transport,
		logger:    log.Default(),
		settings:  DefaultRenderSettings(),
		session:   uuid.NewString(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Session returns the id of the current renderer session.
func (b *Bridge) Session() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session
}

// IsReady reports whether the renderer has signalled readiness.
func (b *Bridge) IsReady() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ready
}

// Pending returns the number of queued commands.
func (b *Bridge) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// SetHandlers replaces the event callbacks.
func (b *Bridge) SetHandlers(h Handlers) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = h
}

// SetSurface replaces the geometry handle. nil detaches it.
func (b *Bridge) SetSurface(s Surface) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.surface = s
}

// Reset starts a new renderer session: NotReady, an empty queue and no
// memory of what was rendered.
func (b *Bridge) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	dropped := len(b.pending)
	b.ready = false
	b.pending = nil
	b.gate = gateState{}
	b.session = uuid.NewString()
	b.logger.Printf("BRIDGE_RESET | session=%s dropped=%d", b.session, dropped)
}

// =============================================================================
// COMMANDS
// =============================================================================

// Render sends a full render of result, followed by a setTheme as the
// renderer expects after every render.
func (b *Bridge) Render(result model.DiffResult, theme string, style model.DiffStyle, overflow model.OverflowMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.renderLocked(result, theme, style, overflow)
}

// SetTheme sends the "dark" or "light" appearance.
func (b *Bridge) SetTheme(theme string) {
	b.submit(Command{Method: MethodSetTheme, Arg: theme})
}

// SetDiffStyle switches between split and unified layouts.
func (b *Bridge) SetDiffStyle(style model.DiffStyle) {
	b.submit(Command{Method: MethodSetDiffStyle, Arg: style.String()})
}

// SetOverflow switches between scrolling and wrapping long lines.
func (b *Bridge) SetOverflow(mode model.OverflowMode) {
	b.submit(Command{Method: MethodSetOverflow, Arg: mode.String()})
}

// ScrollToLine scrolls the renderer to line.
func (b *Bridge) ScrollToLine(line int) {
	b.submit(Command{Method: MethodScrollToLine, Line: line})
}

// Cleanup tears down the renderer instance. It is sent immediately, even
// before the renderer is ready, and the next Update renders in full.
func (b *Bridge) Cleanup() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gate = gateState{}
	b.dispatchLocked(Command{Method: MethodCleanup})
}

func (b *Bridge) submit(cmd Command) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.submitLocked(cmd)
}

func (b *Bridge) renderLocked(result model.DiffResult, theme string, style model.DiffStyle, overflow model.OverflowMode) {
	payload, err := NewRenderInput(result, style, overflow, b.settings).Encode()
	if err != nil {
		b.logger.Printf("BRIDGE_ENCODE_FAILED | session=%s error=%v", b.session, err)
		return
	}
	b.submitLocked(Command{Method: MethodRender, Payload: payload})
	b.submitLocked(Command{Method: MethodSetTheme, Arg: theme})
}

func (b *Bridge) submitLocked(cmd Command) {
	if !b.ready {
		b.pending = append(b.pending, cmd)
		return
	}
	b.dispatchLocked(cmd)
}

func (b *Bridge) dispatchLocked(cmd Command) {
	if b.transport == nil {
		b.logger.Printf("BRIDGE_SEND_FAILED | session=%s cmd=%s error=no transport", b.session, cmd)
		return
	}
	if err := b.transport.Send(b.ctx, cmd); err != nil {
		b.logger.Printf("BRIDGE_SEND_FAILED | session=%s cmd=%s error=%v", b.session, cmd, err)
	}
}

// =============================================================================
// EVENTS
// =============================================================================

// HandleMessage decodes a raw renderer message and handles it. Malformed
// messages and unknown types are logged and dropped.
func (b *Bridge) HandleMessage(raw []byte) {
	ev, err := DecodeEvent(raw)
	if err != nil {
		b.logger.Printf("BRIDGE_BAD_MESSAGE | error=%v", err)
		return
	}
	b.HandleEvent(ev)
}

// HandleEvent routes a decoded event.
func (b *Bridge) HandleEvent(ev Event) {
	switch e := ev.(type) {
	case ReadyEvent:
		b.mu.Lock()
		flushed := 0
		if !b.ready {
			b.ready = true
			queue := b.pending
			b.pending = nil
			for _, cmd := range queue {
				b.dispatchLocked(cmd)
			}
			flushed = len(queue)
			b.logger.Printf("BRIDGE_READY | session=%s type=%s flushed=%d", b.session, e.EventType(), flushed)
		}
		h := b.handlers
		b.mu.Unlock()
		if h.OnReady != nil {
			h.OnReady()
		}

	case LineClickedEvent:
		b.mu.Lock()
		h, surface := b.handlers, b.surface
		b.mu.Unlock()
		if h.OnLineClick != nil {
			h.OnLineClick(e.LineNumber, e.Side)
		}
		if h.OnLineClickWithPosition != nil {
			if pos, local, ok := locateClick(surface, e); ok {
				h.OnLineClickWithPosition(pos, local)
			}
		}

	case SelectionChangedEvent:
		b.logger.Printf("BRIDGE_SELECTION | lines=%d-%d side=%s", e.StartLine, e.EndLine, e.Side)
		if h := b.currentHandlers(); h.OnSelectionChanged != nil {
			h.OnSelectionChanged(e.StartLine, e.EndLine, e.Side)
		}

	case ThemeChangedEvent:
		b.logger.Printf("BRIDGE_THEME_CHANGED | dark=%v", e.IsDark)
		if h := b.currentHandlers(); h.OnThemeChanged != nil {
			h.OnThemeChanged(e.IsDark)
		}

	case ErrorEvent:
		b.logger.Printf("BRIDGE_RENDERER_ERROR | message=%s", e.Message)
		if h := b.currentHandlers(); h.OnError != nil {
			h.OnError(e.Message)
		}

	case UnknownEvent:
		b.logger.Printf("BRIDGE_UNKNOWN_EVENT | type=%s", e.Type)

	default:
		b.logger.Printf("BRIDGE_UNKNOWN_EVENT | go_type=%T", ev)
	}
}

func (b *Bridge) currentHandlers() Handlers {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.handlers
}
