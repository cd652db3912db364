// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// StorageKey is the fixed key the session record is persisted under.
const StorageKey = "atm-session"

// recordVersion is written with every record. Hydrate ignores records
// with a different version.
const recordVersion = 1

// persistTimeout bounds a single storage write or read.
const persistTimeout = 5 * time.Second

// record is the persisted envelope. Only the session is stored.
type record struct {
	Session Session `json:"session"`
	Version int     `json:"version"`
}

// Store is the session container. Mutations are serialized by an
// internal mutex, so every read observes the last completed write.
type Store struct {
	storage Storage
	logger  *slog.Logger

	mu        sync.Mutex
	session   Session
	hydrated  bool
	listeners map[int]func(Session)
	nextID    int

	// writes counts mutations. Hydrate discards a record read while a
	// write landed, since the write is newer.
	writes uint64
}

// NewStore returns a store holding the default session. A nil storage
// is treated as NoopStorage; a nil logger discards.
func NewStore(storage Storage, logger *slog.Logger) *Store {
	if storage == nil {
		storage = NoopStorage{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		storage:   storage,
		logger:    logger,
		session:   Default(),
		listeners: make(map[int]func(Session)),
	}
}

// Session returns a snapshot of the current session.
func (s *Store) Session() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.clone()
}

// Hydrated reports whether Hydrate has completed.
func (s *Store) Hydrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hydrated
}

// Hydrate loads the persisted record, replaces the in-memory session
// with it, and marks the store mounted. A missing, unreadable, or
// foreign-version record leaves the current session in place, as does
// any mutation that completes while the record is being read. The
// store is marked mounted even when the read fails; the returned
// error is informational.
func (s *Store) Hydrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()

	s.mu.Lock()
	writesBefore := s.writes
	s.mu.Unlock()

	value, found, readErr := s.storage.GetItem(ctx, StorageKey)

	var loaded *Session
	var decodeErr error
	if readErr == nil && found {
		var rec record
		if err := json.Unmarshal([]byte(value), &rec); err != nil {
			decodeErr = fmt.Errorf("decoding %s: %w", StorageKey, err)
		} else if rec.Version != recordVersion {
			s.logger.Warn("ignoring persisted session with unknown version",
				"version", rec.Version,
				"want", recordVersion,
			)
		} else {
			loaded = &rec.Session
		}
	}

	s.mu.Lock()
	superseded := s.writes != writesBefore
	if loaded != nil && !superseded {
		s.session = loaded.clone()
	}
	s.hydrated = true
	snapshot := s.session.clone()
	s.mu.Unlock()

	s.logger.Debug("session hydrated",
		"found", found,
		"superseded", superseded,
		"authenticated", snapshot.IsAuthenticated,
		"card", Fingerprint(snapshot.Token()),
	)
	s.notify(snapshot)

	if readErr != nil {
		return fmt.Errorf("reading %s: %w", StorageKey, readErr)
	}
	return decodeErr
}

// SetSession merges p into the session. Fields p does not set keep
// their prior values.
func (s *Store) SetSession(p Partial) {
	s.update(func(current Session) Session {
		return p.apply(current)
	})
}

// ClearSession resets every field to its default. Idempotent.
func (s *Store) ClearSession() {
	s.update(func(Session) Session {
		return Default()
	})
}

// SetCardIdentity replaces the card token, BIN and last four digits
// together. Authentication and customer fields are untouched.
func (s *Store) SetCardIdentity(identity CardIdentity) {
	s.update(func(current Session) Session {
		current.CardToken = clonePtr(identity.CardToken)
		current.BIN = clonePtr(identity.BIN)
		current.Last4 = clonePtr(identity.Last4)
		return current
	})
}

// ClearCardIdentity nulls the card token, BIN and last four digits.
// Authentication is preserved.
func (s *Store) ClearCardIdentity() {
	s.SetCardIdentity(CardIdentity{})
}

// Subscribe registers fn to be called with a snapshot after every
// mutation and after Hydrate. The returned function unregisters it.
// fn is called without the store lock held and may read the store.
func (s *Store) Subscribe(fn func(Session)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// update applies mutate under the lock, persists the result, and
// notifies listeners. The write to storage happens while the lock is
// held so that records reach storage in mutation order.
func (s *Store) update(mutate func(Session) Session) {
	s.mu.Lock()
	s.session = mutate(s.session.clone())
	s.writes++
	snapshot := s.session.clone()
	s.persistLocked(snapshot)
	s.mu.Unlock()

	s.notify(snapshot)
}

func (s *Store) persistLocked(snapshot Session) {
	data, err := json.Marshal(record{Session: snapshot, Version: recordVersion})
	if err != nil {
		s.logger.Warn("encoding session record failed", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.storage.SetItem(ctx, StorageKey, string(data)); err != nil {
		s.logger.Warn("persisting session failed",
			"key", StorageKey,
			"error", err,
		)
	}
}

func (s *Store) notify(snapshot Session) {
	s.mu.Lock()
	listeners := make([]func(Session), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot.clone())
	}
}

// Purge resets the session to defaults and deletes the persisted
// record, so the next process starts without one.
func (s *Store) Purge(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()

	s.mu.Lock()
	s.session = Default()
	s.writes++
	snapshot := s.session.clone()
	err := s.storage.RemoveItem(ctx, StorageKey)
	s.mu.Unlock()

	s.notify(snapshot)
	if err != nil {
		return fmt.Errorf("removing %s: %w", StorageKey, err)
	}
	return nil
}
