// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package loader

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultMaxConcurrency is used when a caller passes a non-positive bound.
	DefaultMaxConcurrency = 10

	// DefaultChunkSize is how much is read between cancellation checks.
	DefaultChunkSize = 64 * 1024
)

// =============================================================================
// READER INTERFACE
// =============================================================================

// Reader loads the text content of files.
type Reader interface {
	// ProjectPath is the root the host associates with this reader.
	ProjectPath() string

	// ReadFileContent reads every path and returns path -> content. Paths
	// are read in sequential batches of at most maxConcurrency parallel
	// reads. Either every path is returned or an error is.
	ReadFileContent(ctx context.Context, paths []string, maxConcurrency int) (map[string]string, error)

	// CancelCurrentTask aborts the in-flight ReadFileContent call, if any.
	CancelCurrentTask()
}

// =============================================================================
// DEFAULT READER
// =============================================================================

// DefaultReader reads files from the local disk. Calls on one instance are
// single-flight: starting a new read cancels the previous one, and the
// superseded call returns ErrCancelled even if its reads had finished.
type DefaultReader struct {
	projectPath string
	chunkSize   int
	cache       *FileCache
	logger      *log.Logger

	// openFile is swapped in tests.
	openFile func(path string) (io.ReadCloser, error)

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
}

// Option configures a DefaultReader.
type Option func(*DefaultReader)

// WithCache enables content caching.
func WithCache(cache *FileCache) Option {
	return func(r *DefaultReader) { r.cache = cache }
}

// WithLogger sets the logger used for LOADER_* events.
func WithLogger(logger *log.Logger) Option {
	return func(r *DefaultReader) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithChunkSize sets the read chunk size.
func WithChunkSize(n int) Option {
	return func(r *DefaultReader) {
		if n > 0 {
			r.chunkSize = n
		}
	}
}

// NewReader creates a reader associated with projectPath.
func NewReader(projectPath string, opts ...Option) *DefaultReader {
	r := &DefaultReader{
		projectPath: projectPath,
		chunkSize:   DefaultChunkSize,
		logger:      log.Default(),
		openFile: func(path string) (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ProjectPath returns the project root. Paths passed to ReadFileContent are
// used as given and are not resolved against it.
func (r *DefaultReader) ProjectPath() string {
	return r.projectPath
}

// ReadFileContent implements Reader.
func (r *DefaultReader) ReadFileContent(ctx context.Context, paths []string, maxConcurrency int) (map[string]string, error) {
	if len(paths) == 0 {
		return nil, ErrNoPaths
	}
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}

	ctx, gen, cancel := r.begin(ctx)
	defer r.finish(gen, cancel)

	unique := dedupe(paths)
	batches := (len(unique) + maxConcurrency - 1) / maxConcurrency
	r.logger.Printf("LOADER_READ_START | gen=%d paths=%d batches=%d max_concurrency=%d",
		gen, len(unique), batches, maxConcurrency)

	results := make(map[string]string, len(unique))
	var resultsMu sync.Mutex

	for start := 0; start < len(unique); start += maxConcurrency {
		end := min(start+maxConcurrency, len(unique))

		g, gctx := errgroup.WithContext(ctx)
		for _, path := range unique[start:end] {
			g.Go(func() error {
				content, err := r.readOne(gctx, path)
				if err != nil {
					return err
				}
				resultsMu.Lock()
				results[path] = content
				resultsMu.Unlock()
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			if ctx.Err() != nil || IsCancelled(err) {
				r.logger.Printf("LOADER_CANCELLED | gen=%d", gen)
				return nil, ErrCancelled
			}
			r.logger.Printf("LOADER_READ_FAILED | gen=%d error=%v", gen, err)
			return nil, err
		}
	}

	if ctx.Err() != nil || !r.isCurrent(gen) {
		r.logger.Printf("LOADER_CANCELLED | gen=%d stale=true", gen)
		return nil, ErrCancelled
	}
	return results, nil
}

// CancelCurrentTask implements Reader. It is safe to call at any time.
func (r *DefaultReader) CancelCurrentTask() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.generation++
}

// =============================================================================
// SINGLE-FLIGHT BOOKKEEPING
// =============================================================================

// begin cancels any in-flight call and registers a new one.
func (r *DefaultReader) begin(parent context.Context) (context.Context, uint64, context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	r.generation++
	r.cancel = cancel
	return ctx, r.generation, cancel
}

func (r *DefaultReader) finish(gen uint64, cancel context.CancelFunc) {
	cancel()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.generation == gen {
		r.cancel = nil
	}
}

func (r *DefaultReader) isCurrent(gen uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generation == gen
}

// =============================================================================
// SINGLE FILE READ
// =============================================================================

func (r *DefaultReader) readOne(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", ErrCancelled
	}

	var info os.FileInfo
	if r.cache != nil {
		st, err := os.Stat(path)
		if err != nil {
			return "", &ReadError{Path: path, Err: err}
		}
		info = st
		if content, ok := r.cache.Get(path, st.ModTime(), st.Size()); ok {
			r.logger.Printf("LOADER_CACHE_HIT | path=%s", path)
			return content, nil
		}
	}

	f, err := r.openFile(path)
	if err != nil {
		return "", &ReadError{Path: path, Err: err}
	}
	defer f.Close()

	content, err := r.readChunked(ctx, path, f)
	if err != nil {
		return "", err
	}

	if r.cache != nil && info != nil {
		r.cache.Put(path, content, info.ModTime())
	}
	return content, nil
}

// readChunked reads src through a UTF-8 validator, checking ctx between
// chunks.
func (r *DefaultReader) readChunked(ctx context.Context, path string, src io.Reader) (string, error) {
	validated := transform.NewReader(src, encoding.UTF8Validator)
	buf := make([]byte, r.chunkSize)
	var sb strings.Builder

	for {
		if ctx.Err() != nil {
			return "", ErrCancelled
		}
		n, err := validated.Read(buf)
		sb.Write(buf[:n])
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, encoding.ErrInvalidUTF8) {
			return "", &EncodingError{Path: path}
		}
		if err != nil {
			return "", &ReadError{Path: path, Err: err}
		}
	}

	if ctx.Err() != nil {
		return "", ErrCancelled
	}
	return sb.String(), nil
}

func dedupe(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
