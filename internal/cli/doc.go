// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and execution for rigrun-diffs.
//
// Every command reads an Edit, MultiEdit or Write tool payload, builds the
// proposed file contents in memory and presents the diff. Nothing is ever
// written to the target file.
//
// # Key Types
//
//   - Command: Enumeration of the available commands
//   - ArgParser: Flag and positional parsing shared by all commands
//   - Env: The streams and logger a command runs against
//   - JSONResponse: Envelope for --json output
//
// # Usage
//
//	cmd, args := cli.Parse(os.Args[1:])
//	env := cli.StdEnv(args.BoolFlag("verbose"))
//	if err := cli.Run(ctx, cmd, args, env); err != nil {
//	    cli.DisplayError(env.Stderr, cli.CommandName(cmd), err, args.BoolFlag("json"))
//	    os.Exit(cli.GetExitCode(err))
//	}
//
// # Commands Overview
//
//   - preview: Print the diff once (terminal, markdown or JSON)
//   - view: Interactive viewer with approve/reject
//   - watch: Re-print the diff whenever the target file changes
//   - serve: Host the browser renderer over HTTP and websocket
//   - mcp: Expose diff_preview, diff_get and diff_clear over MCP stdio
//   - config: Show, locate or create the configuration file
//
// # Exit Codes
//
// Usage and payload errors exit 2, configuration errors 3, missing files 7
// and interrupted commands 130.
package cli
