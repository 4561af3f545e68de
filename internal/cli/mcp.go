// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// mcp.go - Run the MCP stdio server.

package cli

import (
	"context"
	"fmt"

	"github.com/jeranaias/rigrun-diffs/internal/mcp"
)

// HandleMCP serves MCP on stdin/stdout. stdout carries the protocol, so
// nothing else may be written to it; status goes to stderr.
func HandleMCP(_ context.Context, args *ArgParser, env Env) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	p := newPipeline(cfg, env.Logger)
	h := mcp.NewHandler(p.proc, p.cache, env.Logger, mcp.WithReaders(p.readers))

	fmt.Fprintln(env.Stderr, "rigrun-diffs MCP server starting...")
	env.Logger.Printf("MCP_START | version=%s", Version)
	if err := mcp.ServeStdio(mcp.New(h, Version)); err != nil {
		return NewCommandError("mcp", "serve", err)
	}
	return nil
}
