// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

// Package mockbank is an in-process stand-in for the bank API the
// kiosk talks to. It backs development (cmd/atm-mockbank) and the
// end-to-end tests of the teller.
//
// State lives in memory: cards with bcrypt-hashed PINs, one account
// per customer, sessions keyed by the SHA-256 of their cookie value,
// and an append-only transaction ledger. Money is held in integer
// cents; request amounts are rounded half-up to the cent.
//
// Behavior the kiosk depends on:
//
//   - POST /auth/pin sets the atm_sess HttpOnly cookie. Any failure
//     (unknown, blocked or locked card, wrong PIN) is 401 "Invalid PIN
//     or card". Five consecutive wrong PINs lock the card for fifteen
//     minutes.
//   - Every other /account and /transactions route requires the
//     cookie: 401 "Not authenticated" without it, 401 "Session
//     expired" when it is unknown, revoked, or past its TTL.
//   - Deposit and withdraw are idempotent per (account, key): a
//     repeated key returns the current balance without applying the
//     amount again.
//   - Malformed bodies get a 422 whose detail is a list of
//     {type, loc, msg} objects.
package mockbank
