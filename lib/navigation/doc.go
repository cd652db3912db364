// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

// Package navigation names the ATM screens and records movement
// between them.
//
// A [Route] is a screen path. [GateOf] reports which piece of session
// state a route requires: nothing (card entry), an inserted card (PIN
// entry), or a PIN-authenticated session (everything else). Components
// that need to move the user (guards, the session-expiry interceptor,
// screen flows) depend only on the [Navigator] interface; [History] is
// the in-process implementation the terminal UI and CLI share.
package navigation
