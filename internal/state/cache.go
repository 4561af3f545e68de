// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package state

import (
	"container/list"
	"context"
	"io"
	"log"
	"sync"

	"github.com/jeranaias/rigrun-diffs/internal/model"
)

// =============================================================================
// TYPES
// =============================================================================

// Change is delivered to subscribers when an entry is stored or removed.
// State is nil for removals.
type Change struct {
	Key   string
	State *model.DiffState
}

// Stats holds cache counters.
type Stats struct {
	Entries   int
	Hits      int
	Misses    int
	Updates   int
	Skipped   int
	Evictions int
}

// Cache maps a message id to the latest DiffState produced for it.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List // front = most recently used
	maxEntries int
	logger     *log.Logger

	subs   map[int]chan Change
	nextID int

	stats Stats
}

type entry struct {
	key   string
	state *model.DiffState
}

// NewCache creates a cache holding at most maxEntries keys. A non-positive
// limit disables eviction.
func NewCache(maxEntries int) *Cache {
	return &Cache{
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		maxEntries: maxEntries,
		logger:     log.New(io.Discard, "", 0),
		subs:       make(map[int]chan Change),
	}
}

// SetLogger sets the logger used for STATE_* events.
func (c *Cache) SetLogger(logger *log.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if logger != nil {
		c.logger = logger
	}
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Get returns the stored state for key, or model.EmptyState.
func (c *Cache) Get(key string) *model.DiffState {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return model.EmptyState
	}
	c.order.MoveToFront(el)
	c.stats.Hits++
	return el.Value.(*entry).state
}

// Put stores the first of results under key. It returns false, leaving the
// cache untouched, when results is empty, ctx is done, or the stored entry
// already has the same original and updated text. Only the first result is
// kept; a multi-file batch is reduced to its first file.
func (c *Cache) Put(ctx context.Context, results []model.DiffResult, key string) bool {
	if len(results) == 0 || ctx.Err() != nil {
		return false
	}
	first := results[0]

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		existing := el.Value.(*entry)
		if existing.state.Result.SameContent(first) {
			c.stats.Skipped++
			return false
		}
		existing.state = model.NewDiffState(first)
		c.order.MoveToFront(el)
		c.stats.Updates++
		c.logger.Printf("STATE_UPDATED | key=%s path=%s", key, first.FilePath)
		c.notifyLocked(Change{Key: key, State: existing.state})
		return true
	}

	if c.maxEntries > 0 {
		for c.order.Len() >= c.maxEntries {
			oldest := c.order.Back().Value.(*entry)
			c.removeLocked(oldest.key)
			c.stats.Evictions++
			c.logger.Printf("STATE_EVICTED | key=%s", oldest.key)
		}
	}

	st := model.NewDiffState(first)
	c.entries[key] = c.order.PushFront(&entry{key: key, state: st})
	c.stats.Updates++
	c.logger.Printf("STATE_STORED | key=%s path=%s", key, first.FilePath)
	c.notifyLocked(Change{Key: key, State: st})
	return true
}

// Remove drops key. Removing an absent key is a no-op.
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(key)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.order.Len() > 0 {
		c.removeLocked(c.order.Back().Value.(*entry).key)
	}
}

// Len returns the number of stored keys.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = c.order.Len()
	return s
}

func (c *Cache) removeLocked(key string) {
	el, ok := c.entries[key]
	if !ok {
		return
	}
	c.order.Remove(el)
	delete(c.entries, key)
	c.notifyLocked(Change{Key: key})
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

// Subscribe returns a channel receiving every real change and a function
// that ends the subscription. Notifications are dropped, never blocked on,
// when the subscriber falls more than buffer changes behind.
func (c *Cache) Subscribe(buffer int) (<-chan Change, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Change, buffer)

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = ch
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
			close(ch)
		})
	}
}

func (c *Cache) notifyLocked(change Change) {
	for _, ch := range c.subs {
		select {
		case ch <- change:
		default:
			c.logger.Printf("STATE_NOTIFY_DROPPED | key=%s", change.Key)
		}
	}
}
