// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"sync"
)

// Storage is the key/value capability the store persists through.
// GetItem reports found=false (and no error) for a missing key.
//
// Implementations live here (NoopStorage, MemoryStorage) and in
// lib/sessionstorage (file, SQLite, Redis, age-sealed).
type Storage interface {
	GetItem(ctx context.Context, key string) (value string, found bool, err error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// NoopStorage discards writes and finds nothing. A store backed by it
// behaves exactly like a persisted one for the lifetime of the
// process.
type NoopStorage struct{}

func (NoopStorage) GetItem(context.Context, string) (string, bool, error) { return "", false, nil }

func (NoopStorage) SetItem(context.Context, string, string) error { return nil }

func (NoopStorage) RemoveItem(context.Context, string) error { return nil }

// MemoryStorage keeps items in a map. Safe for concurrent use.
type MemoryStorage struct {
	mu    sync.Mutex
	items map[string]string
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string]string)}
}

func (m *MemoryStorage) GetItem(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, found := m.items[key]
	return value, found, nil
}

func (m *MemoryStorage) SetItem(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *MemoryStorage) RemoveItem(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}
