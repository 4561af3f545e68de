// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bridge

import (
	"context"
	"encoding/json"
	"fmt"
)

// =============================================================================
// COMMANDS
// =============================================================================

// Method names understood by the renderer.
const (
	MethodRender       = "renderDiff"
	MethodSetTheme     = "setTheme"
	MethodSetDiffStyle = "setDiffStyle"
	MethodSetOverflow  = "setOverflow"
	MethodScrollToLine = "scrollToLine"
	MethodCleanup      = "cleanup"
)

// Command is one host-to-renderer instruction.
type Command struct {
	Method string `json:"method"`
	// Payload is the base64 RenderInput for renderDiff.
	Payload string `json:"payload,omitempty"`
	// Arg carries the theme, style or overflow value.
	Arg string `json:"arg,omitempty"`
	// Line is the target of scrollToLine. Always written, so line 0 is
	// still a number on the wire.
	Line int `json:"line"`
}

// String returns a short description for logs. Payloads are not printed.
func (c Command) String() string {
	switch c.Method {
	case MethodRender:
		return fmt.Sprintf("%s(%d bytes)", c.Method, len(c.Payload))
	case MethodScrollToLine:
		return fmt.Sprintf("%s(%d)", c.Method, c.Line)
	case MethodCleanup:
		return c.Method + "()"
	default:
		return fmt.Sprintf("%s(%s)", c.Method, c.Arg)
	}
}

// MarshalCommand encodes a command for a text transport.
func MarshalCommand(c Command) ([]byte, error) {
	return json.Marshal(c)
}

// UnmarshalCommand decodes a command written by MarshalCommand.
func UnmarshalCommand(data []byte) (Command, error) {
	var c Command
	if err := json.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("decode command: %w", err)
	}
	if c.Method == "" {
		return c, fmt.Errorf("decode command: missing method")
	}
	return c, nil
}

// Transport delivers commands to a renderer. Send must not call back into
// the Bridge synchronously; events travel back through Bridge.HandleMessage
// on another goroutine.
type Transport interface {
	Send(ctx context.Context, cmd Command) error
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, cmd Command) error

// Send calls f.
func (f TransportFunc) Send(ctx context.Context, cmd Command) error {
	return f(ctx, cmd)
}
