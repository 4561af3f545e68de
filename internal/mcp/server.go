// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ServerName is the implementation name announced to MCP clients.
const ServerName = "rigrun-diffs"

// Tool names.
const (
	ToolPreview = "diff_preview"
	ToolGet     = "diff_get"
	ToolClear   = "diff_clear"
)

// New creates the MCP server and registers the diff tools. Protocol
// plumbing only; the work happens in Handler.
func New(h *Handler, version string) *server.MCPServer {
	s := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.AddTool(mcp.NewTool(ToolPreview,
		mcp.WithDescription("Preview the change an Edit, MultiEdit or Write tool call would make. "+
			"The original is read from disk, the edits are applied in memory and nothing is written."),
		mcp.WithString("tool",
			mcp.Required(),
			mcp.Enum("Edit", "MultiEdit", "Write"),
			mcp.Description("Name of the edit tool the payload belongs to"),
		),
		mcp.WithString("payload",
			mcp.Required(),
			mcp.Description(`Tool input as a JSON string, e.g. {"file_path":"/abs/a.go","old_string":"x","new_string":"y"}`),
		),
		mcp.WithString("message_id",
			mcp.Description("Key the result is stored under. Defaults to a new id."),
		),
		mcp.WithString("format",
			mcp.Enum(FormatJSON, FormatMarkdown),
			mcp.Description("json (default) returns the before/after text, markdown a unified diff"),
		),
	), h.HandlePreview)

	s.AddTool(mcp.NewTool(ToolGet,
		mcp.WithDescription("Return the latest stored preview for a message id."),
		mcp.WithString("message_id", mcp.Required(), mcp.Description("Id passed to or returned by diff_preview")),
		mcp.WithString("format", mcp.Enum(FormatJSON, FormatMarkdown)),
	), h.HandleGet)

	s.AddTool(mcp.NewTool(ToolClear,
		mcp.WithDescription("Forget the stored preview for a message id."),
		mcp.WithString("message_id", mcp.Required()),
	), h.HandleClear)

	return s
}

// ServeStdio runs s on stdin/stdout until the client disconnects.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
