// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// view.go - Interactive viewer, optionally following file changes.

package cli

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/rigrun-diffs/internal/bridge"
	"github.com/jeranaias/rigrun-diffs/internal/model"
	"github.com/jeranaias/rigrun-diffs/internal/termrender"
	"github.com/jeranaias/rigrun-diffs/internal/ui"
	"github.com/jeranaias/rigrun-diffs/internal/watch"
)

// viewKey is the watch key for the single viewed target.
const viewKey = "view"

// HandleView opens the full-screen viewer. With --watch the diff is
// rebuilt whenever the target file changes.
func HandleView(ctx context.Context, args *ArgParser, env Env) error {
	if !IsTerminal(env.Stdout) {
		return &ValidationError{
			Field:   "output",
			Reason:  "view needs a terminal",
			Example: "rigrun-diffs preview ... | less -R",
		}
	}

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

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	relay := &ui.Relay{}
	var b *bridge.Bridge
	r := termrender.New(func(raw []byte) { b.HandleMessage(raw) },
		termrender.WithLogger(env.Logger),
		termrender.WithColorProfile(ColorProfile(env.Stdout)),
		termrender.WithWidth(TerminalWidth(env.Stdout)),
		termrender.WithFrameHandler(relay.FrameHandler()),
	)
	b = bridge.New(r,
		bridge.WithLogger(env.Logger),
		bridge.WithContext(ctx),
		bridge.WithRenderSettings(renderSettings(cfg)),
		bridge.WithHandlers(relay.Handlers()),
	)

	m := ui.New(result, b, r, ui.Options{
		Style:    disp.Style,
		Overflow: disp.Overflow,
		Theme:    disp.Theme,
		Renderer: lipgloss.NewRenderer(env.Stdout),
		Logger:   env.Logger,
	})
	prog := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(env.Stdin),
		tea.WithOutput(env.Stdout),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	relay.Attach(prog)

	if args.BoolFlag("watch") {
		w, err := watch.New(p.proc, func(u watch.Update) {
			if u.Err != nil {
				relay.Send(ui.ProcessErrorMsg{Message: u.Message()})
				return
			}
			relay.Send(ui.ResultMsg(u.Results[0]))
		},
			watch.WithDebounce(time.Duration(cfg.Watch.DebounceMS)*time.Millisecond),
			watch.WithLogger(env.Logger),
			watch.WithFileCache(p.files),
		)
		if err != nil {
			return NewCommandError("view", "start watcher", err)
		}
		defer w.Close()
		if err := w.Add(viewKey, in.Tool, in.Payload); err != nil {
			return NewCommandError("view", "watch target", err)
		}
		if err := w.Watch(); err != nil {
			return NewCommandError("view", "start watcher", err)
		}
	}

	r.Start(ctx)
	final, err := prog.Run()
	if err != nil && ctx.Err() == nil {
		return NewCommandError("view", "run viewer", err)
	}
	if vm, ok := final.(*ui.Model); ok {
		reportDecision(env, vm, result)
	}
	return nil
}

// reportDecision prints the approve/reject outcome after the viewer exits,
// so scripts can act on it.
func reportDecision(env Env, m *ui.Model, result model.DiffResult) {
	lc := m.Lifecycle()
	switch {
	case m.Approved():
		fmt.Fprintf(env.Stderr, "%s %s\n", SuccessStyle.Render("[OK]"), "approved "+result.FilePath)
	case lc.IsRejected(result.FilePath):
		fmt.Fprintf(env.Stderr, "%s %s\n", ErrorStyle.Render("[X]"), "rejected "+result.FilePath)
	}
}
