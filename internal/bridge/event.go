// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
)

// =============================================================================
// EVENT TYPES
// =============================================================================

// Wire values of the "type" discriminator.
const (
	TypeBridgeReady        = "bridgeReady"
	TypeReady              = "ready"
	TypeLineClicked        = "lineClicked"
	TypeSelectionChanged   = "selectionChanged"
	TypeSystemThemeChanged = "systemThemeChanged"
	TypeError              = "error"
)

// Defaults applied when an event omits a field.
const (
	DefaultSide         = "unknown"
	DefaultLineHeight   = 20.0
	DefaultErrorMessage = "Unknown error"
)

// ErrMissingType is returned for messages without a string "type".
var ErrMissingType = errors.New("event has no type")

// Event is a renderer-to-host message. The concrete types are the ones in
// this file; UnknownEvent covers types this host does not understand.
type Event interface {
	// EventType returns the wire discriminator.
	EventType() string
}

// ReadyEvent signals that the renderer accepts commands. Bridge is true for
// "bridgeReady" and false for "ready".
type ReadyEvent struct {
	Bridge bool
}

// LineClickedEvent reports a click on a line. HasPosition is set when the
// renderer sent lineY.
type LineClickedEvent struct {
	LineNumber  int
	Side        string
	LineY       float64
	LineHeight  float64
	HasPosition bool
}

// SelectionChangedEvent reports a line range selection.
type SelectionChangedEvent struct {
	StartLine int
	EndLine   int
	Side      string
}

// ThemeChangedEvent reports a system appearance change.
type ThemeChangedEvent struct {
	IsDark bool
}

// ErrorEvent carries a renderer-side failure.
type ErrorEvent struct {
	Message string
}

// UnknownEvent preserves the type of an unrecognized message.
type UnknownEvent struct {
	Type string
}

func (e ReadyEvent) EventType() string {
	if e.Bridge {
		return TypeBridgeReady
	}
	return TypeReady
}

func (LineClickedEvent) EventType() string      { return TypeLineClicked }
func (SelectionChangedEvent) EventType() string { return TypeSelectionChanged }
func (ThemeChangedEvent) EventType() string     { return TypeSystemThemeChanged }
func (ErrorEvent) EventType() string            { return TypeError }
func (e UnknownEvent) EventType() string        { return e.Type }

// =============================================================================
// DECODING
// =============================================================================

// DecodeEvent parses a raw renderer message. Missing or mistyped fields take
// their defaults instead of failing; an unrecognized type yields an
// UnknownEvent. Only malformed JSON or a missing type is an error.
func DecodeEvent(raw []byte) (Event, error) {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	typ, ok := body["type"].(string)
	if !ok {
		return nil, ErrMissingType
	}

	switch typ {
	case TypeBridgeReady:
		return ReadyEvent{Bridge: true}, nil
	case TypeReady:
		return ReadyEvent{}, nil
	case TypeLineClicked:
		lineY, hasY := number(body, "lineY")
		height, hasHeight := number(body, "lineHeight")
		if !hasHeight {
			height = DefaultLineHeight
		}
		return LineClickedEvent{
			LineNumber:  integer(body, "lineNumber"),
			Side:        stringOr(body, "side", DefaultSide),
			LineY:       lineY,
			LineHeight:  height,
			HasPosition: hasY,
		}, nil
	case TypeSelectionChanged:
		return SelectionChangedEvent{
			StartLine: integer(body, "startLine"),
			EndLine:   integer(body, "endLine"),
			Side:      stringOr(body, "side", DefaultSide),
		}, nil
	case TypeSystemThemeChanged:
		isDark, _ := body["isDark"].(bool)
		return ThemeChangedEvent{IsDark: isDark}, nil
	case TypeError:
		return ErrorEvent{Message: stringOr(body, "message", DefaultErrorMessage)}, nil
	default:
		return UnknownEvent{Type: typ}, nil
	}
}

func number(body map[string]any, key string) (float64, bool) {
	v, ok := body[key].(float64)
	return v, ok
}

func integer(body map[string]any, key string) int {
	v, _ := number(body, key)
	return int(v)
}

func stringOr(body map[string]any, key, fallback string) string {
	if v, ok := body[key].(string); ok {
		return v
	}
	return fallback
}

// =============================================================================
// ENCODING
// =============================================================================

type wireEvent struct {
	Type       string   `json:"type"`
	LineNumber *int     `json:"lineNumber,omitempty"`
	Side       string   `json:"side,omitempty"`
	LineY      *float64 `json:"lineY,omitempty"`
	LineHeight *float64 `json:"lineHeight,omitempty"`
	StartLine  *int     `json:"startLine,omitempty"`
	EndLine    *int     `json:"endLine,omitempty"`
	IsDark     *bool    `json:"isDark,omitempty"`
	Message    string   `json:"message,omitempty"`
}

// EncodeEvent writes an event in the renderer wire format. Renderers
// implemented in Go use it to talk back to the host.
func EncodeEvent(ev Event) ([]byte, error) {
	w := wireEvent{Type: ev.EventType()}
	switch e := ev.(type) {
	case ReadyEvent:
	case LineClickedEvent:
		w.LineNumber = &e.LineNumber
		w.Side = e.Side
		w.LineHeight = &e.LineHeight
		if e.HasPosition {
			w.LineY = &e.LineY
		}
	case SelectionChangedEvent:
		w.StartLine = &e.StartLine
		w.EndLine = &e.EndLine
		w.Side = e.Side
	case ThemeChangedEvent:
		w.IsDark = &e.IsDark
	case ErrorEvent:
		w.Message = e.Message
	case UnknownEvent:
		if e.Type == "" {
			return nil, ErrMissingType
		}
	default:
		return nil, fmt.Errorf("encode event: unsupported %T", ev)
	}
	return json.Marshal(w)
}
