// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package query

import (
	"context"
	"time"
)

// Query is a typed read bound to a cache key.
type Query[T any] struct {
	cache *Cache

	// Key is the cache key. Invalidating it marks this query stale.
	Key Key

	// Fetch performs the read.
	Fetch func(context.Context) (T, error)

	// StaleTime is how long a fetched value is served without
	// refetching. Zero means every Get fetches.
	StaleTime time.Duration

	// RefetchOnFocus makes Focus refetch a stale value.
	RefetchOnFocus bool
}

// New binds a query to cache.
func New[T any](cache *Cache, key Key, staleTime time.Duration, fetch func(context.Context) (T, error)) *Query[T] {
	return &Query[T]{
		cache:     cache,
		Key:       key,
		Fetch:     fetch,
		StaleTime: staleTime,
	}
}

// Get returns the cached value while fresh; otherwise it fetches.
func (q *Query[T]) Get(ctx context.Context) (T, error) {
	if value, present, fresh := q.cache.lookup(q.Key, q.StaleTime); present && fresh {
		return value.(T), nil
	}
	return q.Refetch(ctx)
}

// Refetch fetches unconditionally. Manual refresh uses it.
func (q *Query[T]) Refetch(ctx context.Context) (T, error) {
	value, err := q.cache.fetch(ctx, q.Key, func(ctx context.Context) (any, error) {
		return q.Fetch(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return value.(T), nil
}

// Peek returns the last fetched value without fetching. present is
// false when nothing has been fetched since the last Clear.
func (q *Query[T]) Peek() (value T, present, fresh bool) {
	raw, present, fresh := q.cache.lookup(q.Key, q.StaleTime)
	if !present {
		return value, false, false
	}
	return raw.(T), true, fresh
}

// Focus is called when the display regains focus. It refetches a
// stale value only when RefetchOnFocus is set, and reports whether it
// fetched.
func (q *Query[T]) Focus(ctx context.Context) (fetched bool, err error) {
	if !q.RefetchOnFocus {
		return false, nil
	}
	if _, present, fresh := q.cache.lookup(q.Key, q.StaleTime); present && fresh {
		return false, nil
	}
	_, err = q.Refetch(ctx)
	return true, err
}
