// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package mutation

import (
	"context"
	"errors"
	"testing"
)

func TestMutateSuccess(t *testing.T) {
	var order []string
	m := New(
		func(_ context.Context, amount float64) (string, error) {
			return "1300.00", nil
		},
		Options[string]{OnSuccess: func(string) { order = append(order, "hook") }},
		Options[string]{
			OnSuccess: func(balance string) { order = append(order, "caller:"+balance) },
			OnError:   func(error) { t.Error("OnError called on success") },
		},
	)

	result := m.Mutate(context.Background(), 50)
	if !result.OK() || result.Value != "1300.00" {
		t.Errorf("result = %+v", result)
	}
	if len(order) != 2 || order[0] != "hook" || order[1] != "caller:1300.00" {
		t.Errorf("continuation order = %v, want hook then caller", order)
	}
}

func TestMutateFailure(t *testing.T) {
	sentinel := errors.New("insufficient funds")
	var gotErr error
	m := New(
		func(context.Context, float64) (string, error) { return "", sentinel },
		Options[string]{},
		Options[string]{
			OnSuccess: func(string) { t.Error("OnSuccess called on failure") },
			OnError:   func(err error) { gotErr = err },
		},
	)

	result := m.Mutate(context.Background(), 1e6)
	if result.OK() || !errors.Is(result.Err, sentinel) {
		t.Errorf("result = %+v, want the sentinel error", result)
	}
	if !errors.Is(gotErr, sentinel) {
		t.Errorf("OnError got %v", gotErr)
	}
}

func TestPendingDuringRun(t *testing.T) {
	var m *Mutation[struct{}, struct{}]
	var sawPending bool
	m = New(func(context.Context, struct{}) (struct{}, error) {
		sawPending = m.Pending()
		return struct{}{}, nil
	}, Options[struct{}]{}, Options[struct{}]{})

	if m.Pending() {
		t.Error("Pending() before Mutate")
	}
	m.Mutate(context.Background(), struct{}{})
	if !sawPending {
		t.Error("Pending() was false while running")
	}
	if m.Pending() {
		t.Error("Pending() after Mutate returned")
	}
}
