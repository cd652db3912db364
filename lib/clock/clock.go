// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts time for testability. Production code injects
// Real(); tests inject Fake() and move time with Advance.
//
// Anything that compares against the current time (query staleness,
// session expiry, PIN lockout windows, receipt timestamps) takes a
// Clock instead of calling time.Now directly.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time after
	// duration d elapses. If d <= 0, the channel receives immediately.
	After(d time.Duration) <-chan time.Time
}

// Since returns the time elapsed on c since t.
func Since(c Clock, t time.Time) time.Duration {
	return c.Now().Sub(t)
}
