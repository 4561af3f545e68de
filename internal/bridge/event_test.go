// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Event
	}{
		{"bridge ready", `{"type":"bridgeReady"}`, ReadyEvent{Bridge: true}},
		{"ready", `{"type":"ready"}`, ReadyEvent{}},
		{
			name: "line click defaults",
			raw:  `{"type":"lineClicked"}`,
			want: LineClickedEvent{Side: DefaultSide, LineHeight: DefaultLineHeight},
		},
		{
			name: "line click with position",
			raw:  `{"type":"lineClicked","lineNumber":5,"side":"left","lineY":80.5,"lineHeight":18}`,
			want: LineClickedEvent{LineNumber: 5, Side: "left", LineY: 80.5, LineHeight: 18, HasPosition: true},
		},
		{
			name: "mistyped fields take defaults",
			raw:  `{"type":"lineClicked","lineNumber":"five","side":3}`,
			want: LineClickedEvent{Side: DefaultSide, LineHeight: DefaultLineHeight},
		},
		{
			name: "selection",
			raw:  `{"type":"selectionChanged","startLine":2,"endLine":4}`,
			want: SelectionChangedEvent{StartLine: 2, EndLine: 4, Side: DefaultSide},
		},
		{"theme default", `{"type":"systemThemeChanged"}`, ThemeChangedEvent{}},
		{"theme dark", `{"type":"systemThemeChanged","isDark":true}`, ThemeChangedEvent{IsDark: true}},
		{"error default", `{"type":"error"}`, ErrorEvent{Message: DefaultErrorMessage}},
		{"error message", `{"type":"error","message":"Bundle not loaded"}`, ErrorEvent{Message: "Bundle not loaded"}},
		{"unknown", `{"type":"zoomChanged","scale":2}`, UnknownEvent{Type: "zoomChanged"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeEvent([]byte(tc.raw))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecodeEvent_Errors(t *testing.T) {
	_, err := DecodeEvent([]byte(`{`))
	assert.Error(t, err)

	_, err = DecodeEvent([]byte(`{"lineNumber":1}`))
	assert.ErrorIs(t, err, ErrMissingType)

	_, err = DecodeEvent([]byte(`{"type":7}`))
	assert.ErrorIs(t, err, ErrMissingType)
}

func TestEncodeEvent_DecodesBack(t *testing.T) {
	events := []Event{
		ReadyEvent{Bridge: true},
		ReadyEvent{},
		LineClickedEvent{LineNumber: 3, Side: "right", LineHeight: 20},
		LineClickedEvent{LineNumber: 3, Side: "right", LineY: 44, LineHeight: 20, HasPosition: true},
		SelectionChangedEvent{StartLine: 1, EndLine: 2, Side: "unified"},
		ThemeChangedEvent{IsDark: true},
		ErrorEvent{Message: "boom"},
		UnknownEvent{Type: "future"},
	}

	for _, ev := range events {
		data, err := EncodeEvent(ev)
		require.NoError(t, err)
		got, err := DecodeEvent(data)
		require.NoError(t, err)
		assert.Equal(t, ev, got)
	}

	_, err := EncodeEvent(UnknownEvent{})
	assert.ErrorIs(t, err, ErrMissingType)
}
