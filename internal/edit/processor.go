// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package edit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"

	"github.com/jeranaias/rigrun-diffs/internal/loader"
	"github.com/jeranaias/rigrun-diffs/internal/model"
)

// ReadConcurrency is the concurrency hint passed to the loader when
// fetching the original content of a single file.
const ReadConcurrency = 3

// Parameter names used by the string-map form of tool calls.
const (
	ParamFilePath   = "file_path"
	ParamOldString  = "old_string"
	ParamNewString  = "new_string"
	ParamReplaceAll = "replace_all"
	ParamEdits      = "edits"
	ParamContent    = "content"
)

// =============================================================================
// PROCESSOR
// =============================================================================

// Processor turns tool payloads into DiffResults.
type Processor struct {
	reader loader.Reader
	logger *log.Logger
}

// NewProcessor creates a processor that loads originals through reader.
func NewProcessor(reader loader.Reader, logger *log.Logger) *Processor {
	if logger == nil {
		logger = log.Default()
	}
	return &Processor{reader: reader, logger: logger}
}

// Reader returns the loader used by the processor.
func (p *Processor) Reader() loader.Reader {
	return p.reader
}

// WithReader returns a processor that loads through reader and logs like p.
// Hosts serving several message ids use it to give each id its own
// single-flight reader.
func (p *Processor) WithReader(reader loader.Reader) *Processor {
	return &Processor{reader: reader, logger: p.logger}
}

// BuildResult decodes payload for tool and produces the before/after pair.
//
// Cancellation is returned as loader.ErrCancelled so callers can drop it
// without surfacing an error.
func (p *Processor) BuildResult(ctx context.Context, payload []byte, tool model.EditTool) (model.DiffResult, error) {
	switch tool {
	case model.ToolEdit, model.ToolMultiEdit:
		return p.buildEditResult(ctx, payload, tool)
	case model.ToolWrite:
		return p.buildWriteResult(ctx, payload)
	default:
		return model.DiffResult{}, &DecodingError{Tool: tool, Err: fmt.Errorf("unsupported tool %q", tool)}
	}
}

// BuildResults is BuildResult returning the batch shape stored by the state
// cache. On error the slice is nil.
func (p *Processor) BuildResults(ctx context.Context, payload []byte, tool model.EditTool) ([]model.DiffResult, error) {
	result, err := p.BuildResult(ctx, payload, tool)
	if err != nil {
		return nil, err
	}
	return []model.DiffResult{result}, nil
}

func (p *Processor) buildEditResult(ctx context.Context, payload []byte, tool model.EditTool) (model.DiffResult, error) {
	var req model.FileEditRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return model.DiffResult{}, &DecodingError{Tool: tool, Err: err}
	}
	if req.FilePath == "" {
		return model.DiffResult{}, &DecodingError{Tool: tool, Err: errors.New("missing file_path")}
	}

	contents, err := p.reader.ReadFileContent(ctx, []string{req.FilePath}, ReadConcurrency)
	if err != nil {
		if loader.IsCancelled(err) {
			return model.DiffResult{}, loader.ErrCancelled
		}
		p.logger.Printf("EDIT_LOAD_FAILED | tool=%s path=%s error=%v", tool, req.FilePath, err)
		return model.DiffResult{}, &ProcessingError{Path: req.FilePath, Err: err}
	}
	original, ok := contents[req.FilePath]
	if !ok {
		p.logger.Printf("EDIT_LOAD_FAILED | tool=%s path=%s error=no content", tool, req.FilePath)
		return model.DiffResult{}, &ProcessingError{Path: req.FilePath}
	}

	edits := req.AllEdits()
	updated := ApplyEdits(edits, original)
	p.logger.Printf("EDIT_APPLIED | tool=%s path=%s edits=%d changed=%v", tool, req.FilePath, len(edits), updated != original)
	return model.NewDiffResult(req.FilePath, original, updated), nil
}

func (p *Processor) buildWriteResult(ctx context.Context, payload []byte) (model.DiffResult, error) {
	var req model.WriteRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return model.DiffResult{}, &DecodingError{Tool: model.ToolWrite, Err: err}
	}
	if req.FilePath == "" {
		return model.DiffResult{}, &DecodingError{Tool: model.ToolWrite, Err: errors.New("missing file_path")}
	}

	contents, err := p.reader.ReadFileContent(ctx, []string{req.FilePath}, ReadConcurrency)
	switch {
	case err == nil:
		if original, ok := contents[req.FilePath]; ok {
			p.logger.Printf("WRITE_DIFF | path=%s kind=modify", req.FilePath)
			return model.NewDiffResult(req.FilePath, original, req.Content), nil
		}
	case loader.IsCancelled(err):
		return model.DiffResult{}, loader.ErrCancelled
	case !errors.Is(err, fs.ErrNotExist):
		// Unreadable originals (not UTF-8, a directory, no permission) are
		// shown as a creation, never as a failure.
		p.logger.Printf("WRITE_LOAD_FAILED | path=%s error=%v fallback=create", req.FilePath, err)
	}

	p.logger.Printf("WRITE_DIFF | path=%s kind=create", req.FilePath)
	return model.NewDiffResult(req.FilePath, "", req.Content), nil
}

// =============================================================================
// STRING PARAMETERS
// =============================================================================

// ProcessParameters handles tool calls whose parameters arrive as a flat
// string map. For MultiEdit, "edits" holds a JSON array whose values may be
// strings or booleans.
func (p *Processor) ProcessParameters(ctx context.Context, tool model.EditTool, params map[string]string) (model.DiffResult, error) {
	payload, err := PayloadFromParameters(tool, params)
	if err != nil {
		return model.DiffResult{}, err
	}
	return p.BuildResult(ctx, payload, tool)
}

// PayloadFromParameters converts a string parameter map into the JSON
// payload accepted by BuildResult.
func PayloadFromParameters(tool model.EditTool, params map[string]string) ([]byte, error) {
	filePath, hasPath := params[ParamFilePath]

	switch tool {
	case model.ToolEdit:
		oldStr, hasOld := params[ParamOldString]
		newStr, hasNew := params[ParamNewString]
		if !hasPath || !hasOld || !hasNew {
			return nil, &InputError{Tool: tool, Message: "Missing required parameters for Edit tool"}
		}
		replaceAll := params[ParamReplaceAll] == "true"
		return json.Marshal(model.FileEditRequest{
			FilePath:   filePath,
			OldString:  &oldStr,
			NewString:  &newStr,
			ReplaceAll: &replaceAll,
		})

	case model.ToolMultiEdit:
		raw, hasEdits := params[ParamEdits]
		if !hasPath || !hasEdits {
			return nil, &InputError{Tool: tool, Message: "Missing or invalid parameters for MultiEdit tool"}
		}
		edits, err := parseEditList(raw)
		if err != nil {
			return nil, &InputError{Tool: tool, Message: "Missing or invalid parameters for MultiEdit tool"}
		}
		return json.Marshal(model.FileEditRequest{FilePath: filePath, Edits: edits})

	case model.ToolWrite:
		content, hasContent := params[ParamContent]
		if !hasPath || !hasContent {
			return nil, &InputError{Tool: tool, Message: "Missing required parameters for Write tool"}
		}
		return json.Marshal(model.WriteRequest{FilePath: filePath, Content: content})
	}

	return nil, &InputError{Tool: tool, Message: fmt.Sprintf("Unsupported tool %q", tool)}
}

// parseEditList decodes the "edits" parameter. Elements keep only string
// and boolean values; an element with neither is skipped.
func parseEditList(raw string) ([]model.Edit, error) {
	var items []map[string]any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}

	edits := make([]model.Edit, 0, len(items))
	for _, item := range items {
		fields := make(map[string]string, len(item))
		for k, v := range item {
			switch val := v.(type) {
			case string:
				fields[k] = val
			case bool:
				fields[k] = fmt.Sprintf("%t", val)
			}
		}
		if len(fields) == 0 {
			continue
		}
		edits = append(edits, model.Edit{
			OldString:  fields[ParamOldString],
			NewString:  fields[ParamNewString],
			ReplaceAll: strings.EqualFold(fields[ParamReplaceAll], "true"),
		})
	}
	return edits, nil
}
