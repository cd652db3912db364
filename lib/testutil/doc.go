// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds helpers shared by the kiosk's package tests.
//
// [Receive] and [Closed] wrap the select-with-timeout pattern so tests
// that wait on a goroutine never hang the suite. They are the only
// place tests wait on the wall clock; everything else drives
// lib/clock's fake.
//
// [UniqueKey] produces distinct idempotency keys for tests that post
// several deposits or withdrawals against one mock account.
package testutil
