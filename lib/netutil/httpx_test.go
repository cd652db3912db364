// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
)

type failReader struct{}

func (*failReader) Read([]byte) (int, error) {
	return 0, fmt.Errorf("simulated read error")
}

func TestReadBody(t *testing.T) {
	t.Run("normal body", func(t *testing.T) {
		data, err := ReadBody(strings.NewReader(`{"balance":"1250.00"}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != `{"balance":"1250.00"}` {
			t.Fatalf("got %q", data)
		}
	})

	t.Run("empty body", func(t *testing.T) {
		data, err := ReadBody(bytes.NewReader(nil))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(data) != 0 {
			t.Fatalf("expected empty, got %d bytes", len(data))
		}
	})

	t.Run("oversized body", func(t *testing.T) {
		_, err := ReadBody(bytes.NewReader(make([]byte, MaxBodySize+1)))
		if !errors.Is(err, ErrBodyTooLarge) {
			t.Fatalf("error = %v, want ErrBodyTooLarge", err)
		}
	})

	t.Run("read error propagates", func(t *testing.T) {
		if _, err := ReadBody(&failReader{}); err == nil {
			t.Fatal("expected error from failing reader")
		}
	})
}

func TestDecodeJSON(t *testing.T) {
	var result struct {
		Balance string `json:"balance"`
	}
	if err := DecodeJSON(strings.NewReader(`{"balance":"890.00"}`), &result); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if result.Balance != "890.00" {
		t.Errorf("balance = %q", result.Balance)
	}
	if err := DecodeJSON(strings.NewReader(`not json`), &result); err == nil {
		t.Error("DecodeJSON accepted invalid JSON")
	}
}

func TestIsSuccess(t *testing.T) {
	for status, want := range map[int]bool{199: false, 200: true, 204: true, 299: true, 301: false, 401: false} {
		if got := IsSuccess(status); got != want {
			t.Errorf("IsSuccess(%d) = %v, want %v", status, got, want)
		}
	}
}
