// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command table, usage text and dispatch for rigrun-diffs.

package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdHelp Command = iota
	CmdPreview
	CmdView
	CmdServe
	CmdWatch
	CmdMCP
	CmdConfig
	CmdVersion
	CmdUnknown
)

var commandNames = map[string]Command{
	"preview": CmdPreview,
	"p":       CmdPreview,
	"view":    CmdView,
	"v":       CmdView,
	"serve":   CmdServe,
	"watch":   CmdWatch,
	"w":       CmdWatch,
	"mcp":     CmdMCP,
	"config":  CmdConfig,
	"version": CmdVersion,
	"help":    CmdHelp,
}

// boolFlags never take a value.
var boolFlags = []string{"wrap", "markdown", "md", "json", "watch", "verbose", "help", "h", "version"}

const usageText = `rigrun-diffs - preview file edits before they are written

Reads the file an Edit, MultiEdit or Write tool call targets, applies the
call in memory and shows the result as a diff. Nothing is written to disk.

Usage:
  rigrun-diffs preview [flags]   Print the diff and exit
  rigrun-diffs view [flags]      Interactive diff viewer
  rigrun-diffs watch [flags]     Re-print the diff whenever the file changes
  rigrun-diffs serve             Run the browser renderer host
  rigrun-diffs mcp               Run the MCP stdio server
  rigrun-diffs config [show|path|init]
                                 Inspect or create the configuration file
  rigrun-diffs version           Show version information

Input flags (preview, view, watch):
  --tool, -t NAME       Edit, MultiEdit or Write (default: Edit)
  --payload, -p SOURCE  JSON tool input: a file path, "-" for stdin, or
                        inline JSON starting with "{"

Display flags:
  --style split|unified  Layout (default from config: split)
  --wrap                 Wrap long lines instead of truncating
  --theme dark|light     Color theme (default: terminal background)
  --markdown, --md       Print markdown instead of a terminal diff (preview)
  --json                 Print the result as JSON (preview)

Server flags (serve):
  --addr HOST:PORT       Listen address (default from config: 127.0.0.1:7420)
  --assets DIR           Serve the browser renderer from DIR instead of the
                         embedded build

Watch flags (view):
  --watch                Re-run the preview whenever the file changes

Global flags:
  --config PATH          Configuration file (default: ~/.rigrun-diffs/config.toml)
  --verbose              Log events to stderr

Examples:
  rigrun-diffs preview -t Edit -p '{"file_path":"main.go","old_string":"foo","new_string":"bar"}'
  cat write.json | rigrun-diffs view --tool Write --payload -
  rigrun-diffs serve --config ./rigrun-diffs.toml
`

// Env is the process environment a command runs against.
type Env struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *log.Logger
}

// StdEnv returns the real process streams. The logger discards output
// unless verbose is set.
func StdEnv(verbose bool) Env {
	logger := log.New(io.Discard, "", 0)
	if verbose {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	return Env{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr, Logger: logger}
}

// Parse splits argv into the command and its arguments.
func Parse(argv []string) (Command, *ArgParser) {
	args := NewArgParser(argv, boolFlags...)
	if args.AnyBool("help", "h") {
		return CmdHelp, args
	}
	if args.BoolFlag("version") {
		return CmdVersion, args
	}
	sub := args.Subcommand()
	if sub == "" {
		return CmdHelp, args
	}
	if cmd, ok := commandNames[strings.ToLower(sub)]; ok {
		return cmd, args
	}
	return CmdUnknown, args
}

// Run executes cmd. The returned error is already suitable for
// DisplayError and GetExitCode.
func Run(ctx context.Context, cmd Command, args *ArgParser, env Env) error {
	switch cmd {
	case CmdPreview:
		return HandlePreview(ctx, args, env)
	case CmdView:
		return HandleView(ctx, args, env)
	case CmdWatch:
		return HandleWatch(ctx, args, env)
	case CmdServe:
		return HandleServe(ctx, args, env)
	case CmdMCP:
		return HandleMCP(ctx, args, env)
	case CmdConfig:
		return HandleConfig(ctx, args, env)
	case CmdVersion:
		return HandleVersion(args, env)
	case CmdHelp:
		_, err := io.WriteString(env.Stdout, usageText)
		return err
	default:
		return &ValidationError{
			Field:   "command",
			Value:   args.Subcommand(),
			Reason:  "unknown command",
			Example: "rigrun-diffs help",
		}
	}
}

// CommandName is the subcommand name used in error output.
func CommandName(cmd Command) string {
	for name, c := range commandNames {
		if c == cmd && len(name) > 1 {
			return name
		}
	}
	return "rigrun-diffs"
}

// HandleVersion prints version information.
func HandleVersion(args *ArgParser, env Env) error {
	info := map[string]string{
		"version":    Version,
		"git_commit": GitCommit,
		"build_date": BuildDate,
		"go":         runtime.Version(),
		"platform":   runtime.GOOS + "/" + runtime.GOARCH,
	}
	if args.BoolFlag("json") {
		return NewJSONResponse("version", info).Write(env.Stdout)
	}
	_, err := fmt.Fprintf(env.Stdout, "rigrun-diffs %s\n  commit: %s\n  built:  %s\n  go:     %s (%s)\n",
		Version, GitCommit, BuildDate, info["go"], info["platform"])
	return err
}
