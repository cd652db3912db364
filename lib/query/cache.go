// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kioskbank/atm/lib/clock"
)

// Key identifies a cached read.
type Key string

type entry struct {
	value     any
	fetchedAt time.Time
	// generation is bumped by Invalidate. A value is fresh only if it
	// was fetched under the current generation.
	generation   uint64
	fetchedUnder uint64
	hasValue     bool
}

// Cache holds query results. Safe for concurrent use.
type Cache struct {
	clock  clock.Clock
	logger *slog.Logger
	group  singleflight.Group

	mu      sync.Mutex
	entries map[Key]*entry
}

// NewCache returns an empty cache. Nil clock means clock.Real.
func NewCache(clk clock.Clock, logger *slog.Logger) *Cache {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cache{
		clock:   clk,
		logger:  logger,
		entries: make(map[Key]*entry),
	}
}

// Invalidate marks key stale. The cached value stays readable through
// Peek until the next fetch replaces it.
func (c *Cache) Invalidate(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entryLocked(key).generation++
	c.logger.Debug("query invalidated", "key", string(key))
}

// InvalidatePrefix marks stale every key that starts with prefix.
// Reads parameterized by arguments ("transactions/10") share a prefix.
func (c *Cache) InvalidatePrefix(prefix Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if strings.HasPrefix(string(key), string(prefix)) {
			e.generation++
		}
	}
	c.logger.Debug("query prefix invalidated", "prefix", string(prefix))
}

// Clear drops every entry. Used on logout so the next customer never
// sees the previous one's data.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		e.generation++
		e.value = nil
		e.hasValue = false
	}
}

func (c *Cache) entryLocked(key Key) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	return e
}

// lookup returns the cached value and whether it is fresh under
// staleTime.
func (c *Cache) lookup(key Key, staleTime time.Duration) (value any, present, fresh bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !e.hasValue {
		return nil, false, false
	}
	fresh = e.fetchedUnder == e.generation && c.clock.Now().Sub(e.fetchedAt) < staleTime
	return e.value, true, fresh
}

// fetch runs fn, sharing the call with any concurrent fetch of key,
// and stores a successful result. The shared call outlives any one
// caller's context: a caller whose ctx ends stops waiting, and the
// others still receive the result.
func (c *Cache) fetch(ctx context.Context, key Key, fn func(context.Context) (any, error)) (any, error) {
	c.mu.Lock()
	generation := c.entryLocked(key).generation
	c.mu.Unlock()

	shared := c.group.DoChan(string(key), func() (any, error) {
		value, err := fn(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		e := c.entryLocked(key)
		e.value = value
		e.hasValue = true
		e.fetchedAt = c.clock.Now()
		e.fetchedUnder = generation
		c.mu.Unlock()
		return value, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("query %s: %w", key, ctx.Err())
	case result := <-shared:
		if result.Err != nil {
			return nil, fmt.Errorf("query %s: %w", key, result.Err)
		}
		c.logger.Debug("query fetched", "key", string(key), "shared", result.Shared)
		return result.Val, nil
	}
}
