// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for testability.
//
// The ATM client and the mock bank both make decisions from the wall
// clock: whether a cached balance is still fresh, whether a bank
// session has outlived its TTL, whether a card is still locked after
// repeated wrong PINs. Those components accept a Clock instead of
// calling time.Now so tests can step through the windows
// deterministically:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	cache := query.NewCache(c, nil)
//	// ... fetch ...
//	c.Advance(61 * time.Second) // the entry is now stale
package clock
