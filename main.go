// rigrun-diffs - Preview file edits from tool calls before they are written.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jeranaias/rigrun-diffs/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run())
}

func run() int {
	cmd, args := cli.Parse(os.Args[1:])
	env := cli.StdEnv(args.BoolFlag("verbose"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Run(ctx, cmd, args, env); err != nil {
		// An interrupted watch or serve is a normal way to stop.
		if ctx.Err() != nil && (cmd == cli.CmdWatch || cmd == cli.CmdServe || cmd == cli.CmdMCP) {
			return cli.ExitSuccess
		}
		cli.DisplayError(env.Stderr, cli.CommandName(cmd), err, args.BoolFlag("json"))
		return cli.GetExitCode(err)
	}
	return cli.ExitSuccess
}
