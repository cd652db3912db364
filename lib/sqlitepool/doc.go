// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides a small SQLite connection pool for local
// kiosk state, built on zombiezen.com/go/sqlite.
//
// Every connection runs with WAL journaling, synchronous=FULL, and a
// five-second busy timeout, then applies the caller's idempotent
// schema. Callers borrow a connection with [Pool.With] (or Take/Put)
// and write SQL directly through sqlitex; [Pool.Immediate] wraps a
// BEGIN IMMEDIATE transaction.
//
//	pool, err := sqlitepool.Open(sqlitepool.Config{
//	    Path:   "/var/lib/atm/session.db",
//	    Schema: "CREATE TABLE IF NOT EXISTS kv (key TEXT PRIMARY KEY, value TEXT NOT NULL)",
//	})
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
package sqlitepool
