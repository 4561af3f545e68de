// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bridge

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigrun-diffs/internal/model"
)

func TestRenderInput_EncodeDecodeIsLossless(t *testing.T) {
	tricky := "quote ' \" backslash \\ newline \n tab \t nul \x00 emoji 🚀 </script>"
	in := NewRenderInput(
		model.NewDiffResult("/a/b's file.ts", tricky, tricky+"!"),
		model.StyleUnified, model.OverflowScroll, DefaultRenderSettings(),
	)

	encoded, err := in.Encode()
	require.NoError(t, err)
	for _, r := range encoded {
		if r == '\'' || r == '"' || r == '\n' || r == '\\' {
			t.Fatalf("Expected transport-safe encoding, found %q", r)
		}
	}

	out, err := DecodeRenderInput(encoded)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestRenderInput_WireFieldNames(t *testing.T) {
	in := NewRenderInput(model.NewDiffResult("f.go", "a", "b"), model.StyleSplit, model.OverflowWrap, DefaultRenderSettings())
	encoded, err := in.Encode()
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Contains(t, doc, "oldFile")
	assert.Contains(t, doc, "newFile")
	opts := doc["options"].(map[string]any)
	assert.Equal(t, "split", opts["diffStyle"])
	assert.Equal(t, "wrap", opts["overflow"])
	assert.Equal(t, true, opts["enableLineSelection"])
	assert.Equal(t, map[string]any{"dark": "pierre-dark", "light": "pierre-light"}, opts["theme"])
	assert.NotContains(t, doc["oldFile"], "lang")
}

func TestDecodeRenderInput_Invalid(t *testing.T) {
	_, err := DecodeRenderInput("%%%")
	assert.Error(t, err)
	_, err = DecodeRenderInput(base64.StdEncoding.EncodeToString([]byte("{")))
	assert.Error(t, err)
}

func TestCommand_MarshalRoundTrip(t *testing.T) {
	cmd := Command{Method: MethodScrollToLine, Line: 12}
	data, err := MarshalCommand(cmd)
	require.NoError(t, err)
	got, err := UnmarshalCommand(data)
	require.NoError(t, err)
	assert.Equal(t, cmd, got)

	// Line zero still serializes as a number.
	data, err = MarshalCommand(Command{Method: MethodScrollToLine, Line: 0})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"line":0`)

	_, err = UnmarshalCommand([]byte(`{"arg":"x"}`))
	assert.Error(t, err)
	assert.Equal(t, "renderDiff(4 bytes)", Command{Method: MethodRender, Payload: "abcd"}.String())
}
