// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides bounded HTTP body I/O for the bank API
// client and the mock bank.
//
// Every response or request body is read through a limit so a
// misbehaving peer cannot exhaust kiosk memory. Bank API payloads are
// a few hundred bytes; the limit is generous enough never to matter
// for legitimate traffic.
package netutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// MaxBodySize bounds every body read: 1 MiB.
const MaxBodySize int64 = 1 << 20

// ErrBodyTooLarge is returned when a body exceeds MaxBodySize.
var ErrBodyTooLarge = errors.New("body exceeds size limit")

// ReadBody reads up to MaxBodySize bytes. A body longer than the
// limit is an error rather than a silent truncation.
func ReadBody(body io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, MaxBodySize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > MaxBodySize {
		return nil, fmt.Errorf("%w (%d bytes)", ErrBodyTooLarge, MaxBodySize)
	}
	return data, nil
}

// DecodeJSON reads a bounded body and JSON-decodes it into v.
func DecodeJSON(body io.Reader, v any) error {
	data, err := ReadBody(body)
	if err != nil {
		return fmt.Errorf("reading body: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding body: %w", err)
	}
	return nil
}

// Drain discards the rest of a response body, up to MaxBodySize, so
// the underlying connection can be reused.
func Drain(body io.Reader) {
	io.Copy(io.Discard, io.LimitReader(body, MaxBodySize))
}

// IsSuccess reports whether status is 2xx.
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}
