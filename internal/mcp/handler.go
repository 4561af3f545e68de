// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jeranaias/rigrun-diffs/internal/bridge"
	"github.com/jeranaias/rigrun-diffs/internal/diff"
	"github.com/jeranaias/rigrun-diffs/internal/edit"
	"github.com/jeranaias/rigrun-diffs/internal/loader"
	"github.com/jeranaias/rigrun-diffs/internal/model"
	"github.com/jeranaias/rigrun-diffs/internal/state"
	"github.com/jeranaias/rigrun-diffs/internal/termrender"
)

// Output formats.
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// PreviewResponse is the JSON text returned by diff_preview and diff_get.
type PreviewResponse struct {
	MessageID string           `json:"messageId"`
	Changed   bool             `json:"changed"`
	Summary   string           `json:"summary"`
	Result    model.DiffResult `json:"result"`
}

// Handler turns MCP tool calls into processor runs and cache lookups.
type Handler struct {
	proc    *edit.Processor
	readers *loader.Pool
	cache   *state.Cache
	logger  *log.Logger
	newID   func() string
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithReaders sets the keyed readers diff_preview loads through, one
// single-flight reader per message id.
func WithReaders(readers *loader.Pool) HandlerOption {
	return func(h *Handler) { h.readers = readers }
}

// NewHandler creates a handler storing results in cache.
func NewHandler(proc *edit.Processor, cache *state.Cache, logger *log.Logger, opts ...HandlerOption) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	h := &Handler{proc: proc, cache: cache, logger: logger, newID: uuid.NewString}
	for _, opt := range opts {
		opt(h)
	}
	if h.readers == nil {
		h.readers = loader.NewPool(proc.Reader().ProjectPath(), loader.WithLogger(logger))
	}
	return h
}

// HandlePreview runs diff_preview.
func (h *Handler) HandlePreview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	toolName, err := req.RequireString("tool")
	if err != nil {
		return mcp.NewToolResultError("tool is required"), nil
	}
	tool, err := model.ParseEditTool(toolName)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	payload, err := req.RequireString("payload")
	if err != nil {
		return mcp.NewToolResultError("payload is required"), nil
	}
	format := req.GetString("format", FormatJSON)
	messageID := req.GetString("message_id", "")
	if messageID == "" {
		messageID = h.newID()
	}

	reader, release := h.readers.Acquire(messageID)
	results, err := h.proc.WithReader(reader).BuildResults(ctx, []byte(payload), tool)
	release()
	if err != nil {
		if loader.IsCancelled(err) {
			return mcp.NewToolResultError("request cancelled"), nil
		}
		h.logger.Printf("MCP_PREVIEW_FAILED | message=%s tool=%s error=%v", messageID, tool, err)
		return mcp.NewToolResultError(edit.UserMessage(err)), nil
	}

	changed := h.cache.Put(ctx, results, messageID)
	h.logger.Printf("MCP_PREVIEW | message=%s tool=%s path=%s changed=%v", messageID, tool, results[0].FilePath, changed)
	return h.respond(messageID, changed, results[0], format)
}

// HandleGet runs diff_get.
func (h *Handler) HandleGet(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	messageID, err := req.RequireString("message_id")
	if err != nil {
		return mcp.NewToolResultError("message_id is required"), nil
	}
	st := h.cache.Get(messageID)
	if !st.HasContent() {
		return mcp.NewToolResultError(fmt.Sprintf("no diff for %s", messageID)), nil
	}
	return h.respond(messageID, false, st.Result, req.GetString("format", FormatJSON))
}

// HandleClear runs diff_clear.
func (h *Handler) HandleClear(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	messageID, err := req.RequireString("message_id")
	if err != nil {
		return mcp.NewToolResultError("message_id is required"), nil
	}
	h.cache.Remove(messageID)
	return mcp.NewToolResultText("cleared " + messageID), nil
}

func (h *Handler) respond(messageID string, changed bool, result model.DiffResult, format string) (*mcp.CallToolResult, error) {
	switch format {
	case FormatMarkdown:
		in := bridge.NewRenderInput(result, model.StyleUnified, model.OverflowWrap, bridge.DefaultRenderSettings())
		return mcp.NewToolResultText(termrender.MarkdownSource(in)), nil
	case FormatJSON, "":
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown format %q", format)), nil
	}

	d := diff.ComputeDiff(result.FilePath, result.Original, result.Updated)
	data, err := json.Marshal(PreviewResponse{
		MessageID: messageID,
		Changed:   changed,
		Summary:   d.Summary(),
		Result:    result,
	})
	if err != nil {
		return nil, fmt.Errorf("encode preview: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
