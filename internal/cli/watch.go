// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// watch.go - Re-print a preview each time the target file changes.

package cli

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/muesli/termenv"

	"github.com/jeranaias/rigrun-diffs/internal/watch"
)

// HandleWatch prints the diff, then prints it again after every change to
// the target file until ctx is cancelled. Failed rebuilds are reported and
// the next change is awaited.
func HandleWatch(ctx context.Context, args *ArgParser, env Env) error {
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
	format := previewFormat(args)
	clearScreen := IsTerminal(env.Stdout) && format == formatTerminal
	out := termenv.NewOutput(env.Stdout)

	p := newPipeline(cfg, env.Logger)

	// Updates arrive from the watcher goroutine; output is serialized.
	var mu sync.Mutex
	w, err := watch.New(p.proc, func(u watch.Update) {
		mu.Lock()
		defer mu.Unlock()
		if clearScreen {
			out.ClearScreen()
		}
		if u.Err != nil {
			DisplayError(env.Stderr, "watch", u.Err, format == formatJSON)
			return
		}
		if err := writePreview(ctx, env, cfg, disp, u.Results[0], format); err != nil {
			DisplayError(env.Stderr, "watch", err, format == formatJSON)
			return
		}
		if format == formatTerminal {
			fmt.Fprintln(env.Stderr, DimStyle.Render(fmt.Sprintf("watching %s (%s)", u.Path, time.Now().Format("15:04:05"))))
		}
	},
		watch.WithDebounce(time.Duration(cfg.Watch.DebounceMS)*time.Millisecond),
		watch.WithLogger(env.Logger),
		watch.WithFileCache(p.files),
	)
	if err != nil {
		return NewCommandError("watch", "start watcher", err)
	}
	defer w.Close()

	if err := w.Add("watch", in.Tool, in.Payload); err != nil {
		return err
	}
	if err := w.Watch(); err != nil {
		return NewCommandError("watch", "start watcher", err)
	}
	env.Logger.Printf("WATCH_STARTED | tool=%s", in.Tool)

	<-ctx.Done()
	return nil
}
