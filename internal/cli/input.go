// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// input.go - Config, payload and renderer option handling shared by the
// preview, view and watch commands.

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/jeranaias/rigrun-diffs/internal/config"
	"github.com/jeranaias/rigrun-diffs/internal/edit"
	"github.com/jeranaias/rigrun-diffs/internal/loader"
	"github.com/jeranaias/rigrun-diffs/internal/model"
	"github.com/jeranaias/rigrun-diffs/internal/state"
	"github.com/jeranaias/rigrun-diffs/internal/termrender"
)

// maxPayloadSize bounds payloads read from files or stdin.
const maxPayloadSize = 16 * 1024 * 1024

// loadConfig loads --config when given, otherwise the default locations.
func loadConfig(args *ArgParser) (*config.Config, error) {
	if path := args.Flag("config"); path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// pipeline is the loader, processor and state cache built from config.
type pipeline struct {
	cfg   *config.Config
	files *loader.FileCache
	proc  *edit.Processor
	cache *state.Cache

	// readers serves hosts handling many message ids; it shares files.
	readers *loader.Pool
}

func newPipeline(cfg *config.Config, logger *log.Logger) *pipeline {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	opts := []loader.Option{loader.WithLogger(logger)}
	var files *loader.FileCache
	if cfg.Loader.CacheEntries > 0 {
		files = loader.NewFileCache(cfg.Loader.CacheEntries, cfg.Loader.CacheBytes)
		opts = append(opts, loader.WithCache(files))
	}
	reader := loader.NewReader(wd, opts...)
	cache := state.NewCache(cfg.State.MaxEntries)
	cache.SetLogger(logger)
	return &pipeline{
		cfg:     cfg,
		files:   files,
		proc:    edit.NewProcessor(reader, logger),
		cache:   cache,
		readers: loader.NewPool(wd, opts...),
	}
}

// =============================================================================
// TOOL INPUT
// =============================================================================

// toolInput is a parsed --tool/--payload pair.
type toolInput struct {
	Tool    model.EditTool
	Payload []byte
}

// readToolInput reads --tool and --payload. The payload is inline JSON
// when it starts with "{", stdin for "-", and a file path otherwise.
func readToolInput(args *ArgParser, stdin io.Reader) (toolInput, error) {
	toolName := args.FirstFlag("tool", "t")
	if toolName == "" {
		toolName = string(model.ToolEdit)
	}
	tool, err := model.ParseEditTool(toolName)
	if err != nil {
		return toolInput{}, ErrInvalidValue("tool", toolName, err)
	}

	source := args.FirstFlag("payload", "p")
	if source == "" && args.PositionalCount() > 1 {
		source = args.Positional(1)
	}
	if source == "" {
		return toolInput{}, ErrMissingArgument("payload", `--payload edit.json | --payload - | --payload '{"file_path":...}'`)
	}

	var data []byte
	switch {
	case strings.HasPrefix(strings.TrimSpace(source), "{"):
		data = []byte(source)
	case source == "-":
		data, err = io.ReadAll(io.LimitReader(stdin, maxPayloadSize+1))
		if err != nil {
			return toolInput{}, fmt.Errorf("read payload from stdin: %w", err)
		}
	default:
		data, err = readLimited(source)
		if err != nil {
			return toolInput{}, err
		}
	}
	if len(data) > maxPayloadSize {
		return toolInput{}, ErrInvalidValue("payload", source, fmt.Errorf("larger than %d bytes", maxPayloadSize))
	}
	if !json.Valid(data) {
		return toolInput{}, &edit.DecodingError{Tool: tool, Err: errors.New("payload is not valid JSON")}
	}
	return toolInput{Tool: tool, Payload: data}, nil
}

func readLimited(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open payload: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxPayloadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read payload %s: %w", path, err)
	}
	return data, nil
}

// build runs the processor once.
func (p *pipeline) build(ctx context.Context, in toolInput) (model.DiffResult, error) {
	return p.proc.BuildResult(ctx, in.Payload, in.Tool)
}

// =============================================================================
// DISPLAY OPTIONS
// =============================================================================

// displayOptions are the layout flags resolved against config.
type displayOptions struct {
	Style    model.DiffStyle
	Overflow model.OverflowMode
	// Theme is "dark", "light" or "" to follow the terminal.
	Theme string
}

func readDisplayOptions(args *ArgParser, cfg *config.Config) (displayOptions, error) {
	opts := displayOptions{Style: cfg.DiffStyle(), Overflow: cfg.Overflow()}
	if v := args.Flag("style"); v != "" {
		style, err := model.ParseDiffStyle(v)
		if err != nil {
			return opts, ErrInvalidValue("style", v, err)
		}
		opts.Style = style
	}
	if args.BoolFlag("wrap") {
		opts.Overflow = model.OverflowWrap
	}
	switch v := args.Flag("theme"); v {
	case "", termrender.ThemeDark, termrender.ThemeLight:
		opts.Theme = v
	default:
		return opts, ErrInvalidValue("theme", v, errors.New("want dark or light"))
	}
	return opts, nil
}
