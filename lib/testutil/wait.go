// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"time"
)

// WaitTimeout bounds every wait in this package.
const WaitTimeout = 10 * time.Second

// T is the subset of testing.TB the helpers need.
type T interface {
	Helper()
	Fatalf(format string, args ...any)
}

// Receive returns the next value from ch, failing the test if none
// arrives within WaitTimeout or ch is closed first.
//
//	err := testutil.Receive(t, done, "server shutdown")
func Receive[V any](t T, ch <-chan V, msgAndArgs ...any) V {
	t.Helper()
	select {
	case value, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed while waiting: %s", describe(msgAndArgs))
		}
		return value
	case <-time.After(WaitTimeout):
		t.Fatalf("timed out after %v: %s", WaitTimeout, describe(msgAndArgs))
	}
	panic("unreachable")
}

// Closed waits for ch to close or deliver a value.
func Closed(t T, ch <-chan struct{}, msgAndArgs ...any) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(WaitTimeout):
		t.Fatalf("timed out after %v waiting for close: %s", WaitTimeout, describe(msgAndArgs))
	}
}

// describe renders either a plain message or a format string with
// arguments.
func describe(msgAndArgs []any) string {
	switch {
	case len(msgAndArgs) == 0:
		return "(no message)"
	case len(msgAndArgs) == 1:
		return fmt.Sprint(msgAndArgs[0])
	}
	if format, ok := msgAndArgs[0].(string); ok {
		return fmt.Sprintf(format, msgAndArgs[1:]...)
	}
	return fmt.Sprint(msgAndArgs...)
}
