// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package loader

import (
	"container/list"
	"sync"
	"time"
)

// =============================================================================
// FILE CACHE
// =============================================================================

// FileCache keeps recently read file contents so repeated previews of the
// same file skip the disk. An entry is only served while the file's
// modification time and size still match what was cached.
type FileCache struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List // front = most recently used
	maxEntries int
	maxBytes   int64
	usedBytes  int64

	hits      int
	misses    int
	evictions int
}

type cacheEntry struct {
	path    string
	content string
	modTime time.Time
	size    int64
}

// FileCacheStats holds cache statistics.
type FileCacheStats struct {
	Hits       int
	Misses     int
	Evictions  int
	EntryCount int
	UsedBytes  int64
	MaxBytes   int64
	HitRate    float64
}

// NewFileCache creates a cache holding at most maxEntries files and maxBytes
// of content. Zero or negative limits fall back to 100 files and 64MB.
func NewFileCache(maxEntries int, maxBytes int64) *FileCache {
	if maxEntries <= 0 {
		maxEntries = 100
	}
	if maxBytes <= 0 {
		maxBytes = 64 * 1024 * 1024
	}
	return &FileCache{
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		maxEntries: maxEntries,
		maxBytes:   maxBytes,
	}
}

// Get returns the cached content for path if modTime and size match the
// cached entry. A stale entry is dropped.
func (c *FileCache) Get(path string, modTime time.Time, size int64) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[path]
	if !ok {
		c.misses++
		return "", false
	}
	entry := el.Value.(*cacheEntry)
	if !entry.modTime.Equal(modTime) || entry.size != size {
		c.removeLocked(el)
		c.misses++
		return "", false
	}

	c.order.MoveToFront(el)
	c.hits++
	return entry.content, true
}

// Put stores content for path. Files above a tenth of the byte budget are
// not cached.
func (c *FileCache) Put(path, content string, modTime time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	size := int64(len(content))
	if size > c.maxBytes/10 {
		return
	}

	if el, ok := c.entries[path]; ok {
		c.removeLocked(el)
	}

	for c.order.Len() > 0 && (c.usedBytes+size > c.maxBytes || c.order.Len() >= c.maxEntries) {
		c.removeLocked(c.order.Back())
		c.evictions++
	}

	c.entries[path] = c.order.PushFront(&cacheEntry{
		path:    path,
		content: content,
		modTime: modTime,
		size:    size,
	})
	c.usedBytes += size
}

// Invalidate drops path from the cache.
func (c *FileCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[path]; ok {
		c.removeLocked(el)
	}
}

// Clear drops every entry. Statistics are kept.
func (c *FileCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
	c.usedBytes = 0
}

// Stats returns a snapshot of the cache counters.
func (c *FileCache) Stats() FileCacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := FileCacheStats{
		Hits:       c.hits,
		Misses:     c.misses,
		Evictions:  c.evictions,
		EntryCount: c.order.Len(),
		UsedBytes:  c.usedBytes,
		MaxBytes:   c.maxBytes,
	}
	if total := c.hits + c.misses; total > 0 {
		stats.HitRate = float64(c.hits) / float64(total)
	}
	return stats
}

// removeLocked unlinks el. Caller must hold c.mu.
func (c *FileCache) removeLocked(el *list.Element) {
	entry := el.Value.(*cacheEntry)
	c.order.Remove(el)
	delete(c.entries, entry.path)
	c.usedBytes -= entry.size
}
