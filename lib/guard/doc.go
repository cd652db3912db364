// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

// Package guard gates ATM screens on session state.
//
// A [Guard] is in one of three states. It is [Pending] until the
// session store has hydrated: nothing is known yet, so the guard
// neither admits the screen nor redirects (a persisted login must not
// flash the card screen on startup). Once hydrated it is [Satisfied]
// or [Unsatisfied]; on entering Unsatisfied it replace-navigates to the
// card-entry screen exactly once, so "back" cannot return to the gated
// screen.
//
// The auth guard reads only the authentication flag; the card guard
// reads only the card token. Neither looks at the other's field.
package guard
