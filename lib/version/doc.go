// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

// Package version identifies a kiosk build: what `atm version` and
// `atm-mockbank --version` print, what each binary logs when it
// starts, and the User-Agent the kiosk sends to the bank.
//
// Release builds stamp the package variables:
//
//	go build -ldflags "-X github.com/kioskbank/atm/lib/version.GitCommit=$(git rev-parse --short HEAD)" ./cmd/atm
//
// Development builds and tests see "0.1.0-dev" and "unknown".
package version
