// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

// Package teller binds the bank API to the session store, the query
// cache, and the navigator. It owns every server call a kiosk screen
// makes.
//
// The low-level pieces are the hooks: [Teller.Deposit],
// [Teller.Withdraw], [Teller.PinLogin] and [Teller.Logout] return
// mutations; [Teller.Balance] and [Teller.Transactions] return cached
// queries. Deposit and withdraw generate a fresh idempotency key on
// every Mutate and mark the balance stale on success, so the next
// balance read goes to the bank.
//
// On top of the hooks sit the screen flows ([Teller.InsertCard],
// [Teller.SubmitPIN], [Teller.SubmitDeposit], [Teller.SubmitWithdraw],
// [Teller.Exit]) that both the terminal UI and the CLI drive. Flows
// validate input locally first; a rejected input is a
// [*ValidationError] and never reaches the network.
//
// A 401 from any call is handled by the API client's session-expiry
// interceptor before the teller sees it. Deposit and withdraw push
// the card screen again on 401, so history records two pushes.
package teller
