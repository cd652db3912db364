// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package sessionstorage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/kioskbank/atm/lib/config"
	"github.com/kioskbank/atm/lib/session"
)

// Backend is an opened storage backend. Close releases connections
// held by the SQLite and Redis backends; it is a no-op for the others.
type Backend struct {
	session.Storage

	// Name is the configured backend name, for logging.
	Name string

	closers []func() error
}

// Close releases the backend's resources.
func (b *Backend) Close() error {
	var errs []error
	for _, closer := range b.closers {
		if err := closer(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Open builds the backend named by cfg.Backend and, when
// cfg.SealKeyFile is set, wraps it in Sealed.
func Open(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	backend := &Backend{Name: cfg.Backend}
	switch cfg.Backend {
	case config.BackendNone:
		backend.Storage = session.NoopStorage{}
	case config.BackendMemory:
		backend.Storage = session.NewMemoryStorage()
	case config.BackendFile:
		backend.Storage = NewFile(afero.NewOsFs(), cfg.Path)
	case config.BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
			return nil, fmt.Errorf("creating %s: %w", filepath.Dir(cfg.Path), err)
		}
		store, err := OpenSQLite(cfg.Path, logger)
		if err != nil {
			return nil, err
		}
		backend.Storage = store
		backend.closers = append(backend.closers, store.Close)
	case config.BackendRedis:
		store, err := DialRedis(ctx, cfg.RedisAddr, cfg.RedisPrefix)
		if err != nil {
			return nil, err
		}
		backend.Storage = store
		backend.closers = append(backend.closers, store.Close)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	if cfg.SealKeyFile != "" {
		identity, err := LoadIdentity(cfg.SealKeyFile)
		if err != nil {
			backend.Close()
			return nil, err
		}
		backend.Storage = NewSealed(backend.Storage, identity)
	}

	logger.Debug("session storage opened",
		"backend", cfg.Backend,
		"sealed", cfg.SealKeyFile != "",
	)
	return backend, nil
}
