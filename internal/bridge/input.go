// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bridge

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/jeranaias/rigrun-diffs/internal/lang"
	"github.com/jeranaias/rigrun-diffs/internal/model"
)

// =============================================================================
// RENDER INPUT
// =============================================================================

// Default renderer theme names.
const (
	DefaultThemeDark  = "pierre-dark"
	DefaultThemeLight = "pierre-light"
)

// FileContents is one side of the diff.
type FileContents struct {
	Name     string `json:"name"`
	Contents string `json:"contents"`
	Lang     string `json:"lang,omitempty"`
}

// ThemeConfig names the renderer themes for dark and light mode.
type ThemeConfig struct {
	Dark  string `json:"dark"`
	Light string `json:"light"`
}

// Options controls how the renderer lays out the diff.
type Options struct {
	Theme               ThemeConfig        `json:"theme"`
	DiffStyle           model.DiffStyle    `json:"diffStyle"`
	Overflow            model.OverflowMode `json:"overflow"`
	EnableLineSelection bool               `json:"enableLineSelection"`
}

// RenderInput is the document the renderer consumes.
type RenderInput struct {
	OldFile FileContents `json:"oldFile"`
	NewFile FileContents `json:"newFile"`
	Options Options      `json:"options"`
}

// RenderSettings are the host-side knobs applied to every RenderInput.
type RenderSettings struct {
	ThemeDark           string
	ThemeLight          string
	EnableLineSelection bool
	DetectLanguage      bool
}

// DefaultRenderSettings returns the standard renderer settings.
func DefaultRenderSettings() RenderSettings {
	return RenderSettings{
		ThemeDark:           DefaultThemeDark,
		ThemeLight:          DefaultThemeLight,
		EnableLineSelection: true,
	}
}

// NewRenderInput builds the renderer document for a diff. Both sides use the
// result's file name. The language is left for the renderer to detect
// unless settings ask for the static table.
func NewRenderInput(result model.DiffResult, style model.DiffStyle, overflow model.OverflowMode, settings RenderSettings) RenderInput {
	var language string
	if settings.DetectLanguage {
		language = lang.Detect(result.FileName)
	}
	dark, light := settings.ThemeDark, settings.ThemeLight
	if dark == "" {
		dark = DefaultThemeDark
	}
	if light == "" {
		light = DefaultThemeLight
	}

	return RenderInput{
		OldFile: FileContents{Name: result.FileName, Contents: result.Original, Lang: language},
		NewFile: FileContents{Name: result.FileName, Contents: result.Updated, Lang: language},
		Options: Options{
			Theme:               ThemeConfig{Dark: dark, Light: light},
			DiffStyle:           style,
			Overflow:            overflow,
			EnableLineSelection: settings.EnableLineSelection,
		},
	}
}

// Encode serializes the input as base64-wrapped JSON so that arbitrary file
// content survives any command channel without quoting issues.
func (in RenderInput) Encode() (string, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("encode render input: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodeRenderInput reverses Encode.
func DecodeRenderInput(encoded string) (RenderInput, error) {
	var in RenderInput
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return in, fmt.Errorf("decode render input: %w", err)
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return in, fmt.Errorf("parse render input: %w", err)
	}
	return in, nil
}
