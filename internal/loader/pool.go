// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package loader

import "sync"

// =============================================================================
// KEYED READERS
// =============================================================================

// Pool hands out one single-flight DefaultReader per key. A new call for a
// key cancels that key's older call; calls for different keys run
// independently. A key's reader lives while at least one caller holds it.
type Pool struct {
	projectPath string
	opts        []Option

	mu      sync.Mutex
	readers map[string]*pooledReader
}

type pooledReader struct {
	reader *DefaultReader
	refs   int
}

// NewPool creates a pool whose readers are built with NewReader(projectPath,
// opts...). Pass WithCache to share one FileCache across keys.
func NewPool(projectPath string, opts ...Option) *Pool {
	return &Pool{
		projectPath: projectPath,
		opts:        opts,
		readers:     make(map[string]*pooledReader),
	}
}

// ProjectPath returns the root passed to every reader.
func (p *Pool) ProjectPath() string {
	return p.projectPath
}

// Acquire returns the reader for key and a release func. Callers must call
// release once the read is done; extra calls are ignored.
func (p *Pool) Acquire(key string) (*DefaultReader, func()) {
	p.mu.Lock()
	pr, ok := p.readers[key]
	if !ok {
		pr = &pooledReader{reader: NewReader(p.projectPath, p.opts...)}
		p.readers[key] = pr
	}
	pr.refs++
	p.mu.Unlock()

	var once sync.Once
	return pr.reader, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			pr.refs--
			if pr.refs == 0 && p.readers[key] == pr {
				delete(p.readers, key)
			}
		})
	}
}

// Len returns the number of keys currently holding a reader.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.readers)
}
