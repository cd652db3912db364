// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

// Package atmui is the kiosk's terminal front end: a bubbletea
// program with one screen per route.
//
// The model owns no session state. It drives a [teller.Teller] and
// reads the session store and navigation history after every message,
// so navigation triggered from a request goroutine (the session
// expiry interceptor) is picked up on the next update. Entering a
// route builds that route's guard; a screen renders only while its
// guard is satisfied, and nothing renders except a pending notice
// until the store has hydrated from storage.
//
// Network calls run as tea.Cmds. While a screen's call is in flight
// its submit key is ignored. Terminal focus events are received and
// deliberately discarded: a kiosk regaining focus does not refresh
// the balance.
package atmui
