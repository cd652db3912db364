// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

// Package receipt keeps a local journal of completed deposits and
// withdrawals: the kiosk's printed-receipt roll, on disk.
//
// The journal is an append-only file of CBOR items, one [Receipt] per
// successful financial mutation. It records what the bank confirmed
// (the resulting balance) alongside what the kiosk sent (amount and
// idempotency key). The card is identified by fingerprint only.
package receipt

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kioskbank/atm/lib/clock"
	"github.com/kioskbank/atm/lib/codec"
)

// Kind of transaction, matching the bank's transaction types.
const (
	KindDeposit    = "deposit"
	KindWithdrawal = "withdrawal"
)

// Receipt is one journal entry.
type Receipt struct {
	Kind           string    `json:"kind"`
	Amount         float64   `json:"amount"`
	Balance        string    `json:"balance"`
	IdempotencyKey string    `json:"idempotencyKey"`
	Card           string    `json:"card,omitempty"`
	CustomerName   string    `json:"customerName,omitempty"`
	Time           time.Time `json:"time"`
}

// Journal appends receipts to a file. Safe for concurrent use within
// one process.
type Journal struct {
	path  string
	clock clock.Clock

	mu sync.Mutex
}

// NewJournal returns a journal writing to path. The file and its
// directory are created on first Append.
func NewJournal(path string, clk clock.Clock) *Journal {
	if clk == nil {
		clk = clock.Real()
	}
	return &Journal{path: path, clock: clk}
}

// Path returns the journal file path.
func (j *Journal) Path() string { return j.path }

// Append stamps r with the current time (when unset) and writes it.
func (j *Journal) Append(r Receipt) error {
	if r.Time.IsZero() {
		r.Time = j.clock.Now().UTC()
	}
	data, err := codec.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding receipt: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(j.path), 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(j.path), err)
	}
	file, err := os.OpenFile(j.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("opening journal %s: %w", j.path, err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("writing journal %s: %w", j.path, err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("syncing journal %s: %w", j.path, err)
	}
	return file.Close()
}

// List returns every receipt in the journal, oldest first. A missing
// journal is empty. A truncated final item (a crash mid-append) is
// dropped; corruption anywhere else is an error.
func (j *Journal) List() ([]Receipt, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	file, err := os.Open(j.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", j.path, err)
	}
	defer file.Close()

	var receipts []Receipt
	decoder := codec.NewDecoder(file)
	for {
		var r Receipt
		err := decoder.Decode(&r)
		if err == io.EOF {
			return receipts, nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return receipts, nil
		}
		if err != nil {
			return receipts, fmt.Errorf("reading journal %s: entry %d: %w", j.path, len(receipts), err)
		}
		receipts = append(receipts, r)
	}
}
