// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"sync/atomic"
)

var keyCounter atomic.Uint64

// UniqueKey returns "prefix-N" with N increasing across the test
// binary.
//
//	bank.Deposit(account, 500, testutil.UniqueKey("deposit")) // "deposit-1"
func UniqueKey(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, keyCounter.Add(1))
}
