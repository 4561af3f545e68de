// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package edit

import (
	"context"
	"encoding/json"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigrun-diffs/internal/loader"
	"github.com/jeranaias/rigrun-diffs/internal/model"
)

// fakeReader serves fixed contents or a fixed error.
type fakeReader struct {
	files    map[string]string
	err      error
	gotPaths []string
	gotMax   int
}

func (f *fakeReader) ProjectPath() string { return "/project" }

func (f *fakeReader) ReadFileContent(_ context.Context, paths []string, max int) (map[string]string, error) {
	f.gotPaths = paths
	f.gotMax = max
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]string)
	for _, p := range paths {
		if c, ok := f.files[p]; ok {
			out[p] = c
		}
	}
	return out, nil
}

func (f *fakeReader) CancelCurrentTask() {}

func newTestProcessor(r loader.Reader) *Processor {
	return NewProcessor(r, log.New(io.Discard, "", 0))
}

// =============================================================================
// EDIT / MULTIEDIT
// =============================================================================

func TestBuildResult_Edit(t *testing.T) {
	r := &fakeReader{files: map[string]string{"/p/a.go": "x := 1\nx := 1\n"}}
	p := newTestProcessor(r)

	got, err := p.BuildResult(context.Background(),
		[]byte(`{"file_path":"/p/a.go","old_string":"x := 1","new_string":"x := 2"}`), model.ToolEdit)
	require.NoError(t, err)

	assert.Equal(t, model.DiffResult{
		FilePath: "/p/a.go",
		FileName: "/p/a.go",
		Original: "x := 1\nx := 1\n",
		Updated:  "x := 2\nx := 1\n",
	}, got)
	assert.Equal(t, []string{"/p/a.go"}, r.gotPaths)
	assert.Equal(t, ReadConcurrency, r.gotMax)
}

func TestBuildResult_MultiEditAppliesInOrder(t *testing.T) {
	r := &fakeReader{files: map[string]string{"/a": "one two one"}}
	p := newTestProcessor(r)

	payload := `{"file_path":"/a","edits":[
		{"old_string":"one","new_string":"1","replace_all":true},
		{"old_string":"1 two","new_string":"first"}
	]}`
	got, err := p.BuildResult(context.Background(), []byte(payload), model.ToolMultiEdit)
	require.NoError(t, err)
	assert.Equal(t, "first 1", got.Updated)
}

func TestBuildResult_EditErrors(t *testing.T) {
	tests := []struct {
		name    string
		reader  *fakeReader
		payload string
		check   func(t *testing.T, err error)
	}{
		{
			name:    "malformed json",
			reader:  &fakeReader{},
			payload: `{not json`,
			check: func(t *testing.T, err error) {
				var de *DecodingError
				assert.ErrorAs(t, err, &de)
			},
		},
		{
			name:    "missing file path",
			reader:  &fakeReader{},
			payload: `{"old_string":"a","new_string":"b"}`,
			check: func(t *testing.T, err error) {
				var de *DecodingError
				assert.ErrorAs(t, err, &de)
			},
		},
		{
			name:    "content absent",
			reader:  &fakeReader{files: map[string]string{}},
			payload: `{"file_path":"/gone","old_string":"a","new_string":"b"}`,
			check: func(t *testing.T, err error) {
				var pe *ProcessingError
				require.ErrorAs(t, err, &pe)
				assert.Equal(t, "/gone", pe.Path)
			},
		},
		{
			name:    "read failure",
			reader:  &fakeReader{err: &loader.ReadError{Path: "/a", Err: fs.ErrPermission}},
			payload: `{"file_path":"/a","old_string":"a","new_string":"b"}`,
			check: func(t *testing.T, err error) {
				var pe *ProcessingError
				assert.ErrorAs(t, err, &pe)
				assert.ErrorIs(t, err, fs.ErrPermission)
			},
		},
		{
			name:    "cancelled",
			reader:  &fakeReader{err: loader.ErrCancelled},
			payload: `{"file_path":"/a","old_string":"a","new_string":"b"}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, loader.ErrCancelled)
				assert.Empty(t, UserMessage(err))
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newTestProcessor(tc.reader).BuildResult(context.Background(), []byte(tc.payload), model.ToolEdit)
			require.Error(t, err)
			tc.check(t, err)
		})
	}
}

// =============================================================================
// WRITE
// =============================================================================

func TestBuildResult_Write(t *testing.T) {
	tests := []struct {
		name     string
		reader   *fakeReader
		wantOrig string
		wantErr  bool
	}{
		{
			name:     "existing file",
			reader:   &fakeReader{files: map[string]string{"/w": "old"}},
			wantOrig: "old",
		},
		{
			name:     "new file",
			reader:   &fakeReader{err: &loader.ReadError{Path: "/w", Err: fs.ErrNotExist}},
			wantOrig: "",
		},
		{
			name:     "not utf-8 becomes creation",
			reader:   &fakeReader{err: &loader.EncodingError{Path: "/w"}},
			wantOrig: "",
		},
		{
			name:     "permission denied becomes creation",
			reader:   &fakeReader{err: &loader.ReadError{Path: "/w", Err: fs.ErrPermission}},
			wantOrig: "",
		},
		{
			name:     "missing from results becomes creation",
			reader:   &fakeReader{files: map[string]string{}},
			wantOrig: "",
		},
		{
			name:    "cancelled",
			reader:  &fakeReader{err: loader.ErrCancelled},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := newTestProcessor(tc.reader).BuildResult(context.Background(),
				[]byte(`{"file_path":"/w","content":"new"}`), model.ToolWrite)
			if tc.wantErr {
				assert.True(t, loader.IsCancelled(err), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantOrig, got.Original)
			assert.Equal(t, "new", got.Updated)
			assert.Equal(t, "/w", got.FileName)
		})
	}
}

func TestBuildResults_Shape(t *testing.T) {
	p := newTestProcessor(&fakeReader{files: map[string]string{"/a": "a"}})

	results, err := p.BuildResults(context.Background(), []byte(`{"file_path":"/a","content":"b"}`), model.ToolWrite)
	require.NoError(t, err)
	require.Len(t, results, 1)

	results, err = p.BuildResults(context.Background(), []byte(`nope`), model.ToolWrite)
	assert.Error(t, err)
	assert.Nil(t, results)
}

// =============================================================================
// STRING PARAMETERS
// =============================================================================

func TestProcessParameters(t *testing.T) {
	r := &fakeReader{files: map[string]string{"/a": "foo foo"}}
	p := newTestProcessor(r)
	ctx := context.Background()

	got, err := p.ProcessParameters(ctx, model.ToolEdit, map[string]string{
		"file_path": "/a", "old_string": "foo", "new_string": "bar", "replace_all": "true",
	})
	require.NoError(t, err)
	assert.Equal(t, "bar bar", got.Updated)

	got, err = p.ProcessParameters(ctx, model.ToolMultiEdit, map[string]string{
		"file_path": "/a",
		"edits":     `[{"old_string":"foo","new_string":"baz","replace_all":false},{"old_string":"foo","new_string":"qux"}]`,
	})
	require.NoError(t, err)
	assert.Equal(t, "baz qux", got.Updated)

	got, err = p.ProcessParameters(ctx, model.ToolWrite, map[string]string{
		"file_path": "/a", "content": "replaced",
	})
	require.NoError(t, err)
	assert.Equal(t, "foo foo", got.Original)
	assert.Equal(t, "replaced", got.Updated)
}

func TestProcessParameters_MissingInputs(t *testing.T) {
	p := newTestProcessor(&fakeReader{})
	tests := []struct {
		tool   model.EditTool
		params map[string]string
		want   string
	}{
		{model.ToolEdit, map[string]string{"file_path": "/a", "old_string": "x"}, "Missing required parameters for Edit tool"},
		{model.ToolMultiEdit, map[string]string{"file_path": "/a"}, "Missing or invalid parameters for MultiEdit tool"},
		{model.ToolMultiEdit, map[string]string{"file_path": "/a", "edits": "not json"}, "Missing or invalid parameters for MultiEdit tool"},
		{model.ToolWrite, map[string]string{"content": "x"}, "Missing required parameters for Write tool"},
	}

	for _, tc := range tests {
		_, err := p.ProcessParameters(context.Background(), tc.tool, tc.params)
		var ie *InputError
		if !assert.ErrorAs(t, err, &ie) {
			continue
		}
		assert.Equal(t, tc.want, UserMessage(err))
	}
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "", UserMessage(loader.ErrCancelled))
	assert.Contains(t, UserMessage(&ProcessingError{Path: "/x"}), "Failed to process tool response")
	assert.Contains(t, UserMessage(&loader.EncodingError{Path: "/bin"}), "/bin is not a text file")
}

func TestBuildResult_WriteUnreadableOnDisk(t *testing.T) {
	dir := t.TempDir()
	binary := filepath.Join(dir, "bin.dat")
	require.NoError(t, os.WriteFile(binary, []byte{0xff, 0xfe, 0x00}, 0o644))
	subdir := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(subdir, 0o755))

	p := newTestProcessor(loader.NewReader(dir))
	for _, path := range []string{binary, subdir} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			payload, err := json.Marshal(map[string]string{"file_path": path, "content": "text\n"})
			require.NoError(t, err)

			got, err := p.BuildResult(context.Background(), payload, model.ToolWrite)
			require.NoError(t, err)
			assert.True(t, got.IsCreation())
			assert.Equal(t, "", got.Original)
			assert.Equal(t, "text\n", got.Updated)
		})
	}
}
