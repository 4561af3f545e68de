// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// preview.go - One-shot diff output: terminal, markdown or JSON.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/muesli/termenv"

	"github.com/jeranaias/rigrun-diffs/internal/bridge"
	"github.com/jeranaias/rigrun-diffs/internal/config"
	"github.com/jeranaias/rigrun-diffs/internal/diff"
	"github.com/jeranaias/rigrun-diffs/internal/model"
	"github.com/jeranaias/rigrun-diffs/internal/termrender"
)

// PreviewData is the --json payload of preview.
type PreviewData struct {
	Result  model.DiffResult `json:"result"`
	Summary string           `json:"summary"`
	Unified string           `json:"unified"`
}

// HandlePreview prints the diff for one tool call and exits.
func HandlePreview(ctx context.Context, args *ArgParser, env Env) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	in, err := readToolInput(args, env.Stdin)
	if err != nil {
		return err
	}
	disp, err := readDisplayOptions(args, cfg)
	if err != nil {
		return err
	}

	p := newPipeline(cfg, env.Logger)
	result, err := p.build(ctx, in)
	if err != nil {
		return err
	}
	return writePreview(ctx, env, cfg, disp, result, previewFormat(args))
}

type outputFormat int

const (
	formatTerminal outputFormat = iota
	formatMarkdown
	formatJSON
)

func previewFormat(args *ArgParser) outputFormat {
	switch {
	case args.BoolFlag("json"):
		return formatJSON
	case args.AnyBool("markdown", "md"):
		return formatMarkdown
	default:
		return formatTerminal
	}
}

func writePreview(ctx context.Context, env Env, cfg *config.Config, disp displayOptions, result model.DiffResult, format outputFormat) error {
	width := TerminalWidth(env.Stdout)
	profile := ColorProfile(env.Stdout)

	switch format {
	case formatJSON:
		d := diff.ComputeDiff(result.FilePath, result.Original, result.Updated)
		return NewJSONResponse("preview", PreviewData{
			Result:  result,
			Summary: d.Summary(),
			Unified: diff.FormatUnifiedDiff(d),
		}).Write(env.Stdout)

	case formatMarkdown:
		in := bridge.NewRenderInput(result, disp.Style, disp.Overflow, renderSettings(cfg))
		style := "notty"
		if profile != termenv.Ascii {
			style = resolveTheme(disp.Theme, env.Stdout)
		}
		out, err := termrender.Markdown(in, style, width)
		if err != nil {
			return err
		}
		_, err = io.WriteString(env.Stdout, out)
		return err
	}

	frame, err := renderOnce(ctx, result, disp, renderSettings(cfg), renderTarget{
		width:   width,
		profile: profile,
		theme:   resolveTheme(disp.Theme, env.Stdout),
	}, env.Logger)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(env.Stdout, frame.Text)
	return err
}

// resolveTheme returns theme, or the terminal background when it is empty.
func resolveTheme(theme string, w io.Writer) string {
	if theme != "" {
		return theme
	}
	if IsTerminal(w) && !termenv.HasDarkBackground() {
		return termrender.ThemeLight
	}
	return termrender.ThemeDark
}

func renderSettings(cfg *config.Config) bridge.RenderSettings {
	rc := cfg.Renderer
	return bridge.RenderSettings{
		ThemeDark:           rc.ThemeDark,
		ThemeLight:          rc.ThemeLight,
		EnableLineSelection: rc.EnableLineSelection,
		DetectLanguage:      rc.DetectLanguage,
	}
}

type renderTarget struct {
	width   int
	profile termenv.Profile
	theme   string
}

// renderOnce drives a terminal renderer through a bridge until the first
// render has been applied and returns the resulting frame.
func renderOnce(ctx context.Context, result model.DiffResult, disp displayOptions, settings bridge.RenderSettings, target renderTarget, logger *log.Logger) (termrender.Frame, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ready := make(chan struct{})
	var once sync.Once

	var b *bridge.Bridge
	r := termrender.New(func(raw []byte) { b.HandleMessage(raw) },
		termrender.WithLogger(logger),
		termrender.WithColorProfile(target.profile),
		termrender.WithDarkDetector(nil),
		termrender.WithWidth(target.width),
	)
	b = bridge.New(r,
		bridge.WithLogger(logger),
		bridge.WithContext(ctx),
		bridge.WithRenderSettings(settings),
		bridge.WithHandlers(bridge.Handlers{
			// The queue is flushed before OnReady runs, so the first call
			// sees the render applied.
			OnReady: func() { once.Do(func() { close(ready) }) },
		}),
	)
	b.Update(bridge.View{Result: result, Style: disp.Style, Overflow: disp.Overflow, Theme: target.theme})
	r.Start(ctx)

	select {
	case <-ready:
	case <-ctx.Done():
		return termrender.Frame{}, ctx.Err()
	}
	frame := r.Frame()
	if frame.Text == "" {
		return frame, errors.New("renderer produced no output")
	}
	return frame, nil
}
