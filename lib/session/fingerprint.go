// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// fingerprintContext separates card fingerprints from any other BLAKE3
// use of the same token.
const fingerprintContext = "kioskbank atm 2026 card fingerprint"

// Fingerprint returns a short, stable, non-reversible identifier for a
// card token. Logs and receipts carry the fingerprint, never the
// token. Returns "" for an empty token.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	hasher := blake3.NewDeriveKey(fingerprintContext)
	hasher.Write([]byte(token))
	sum := hasher.Sum(nil)
	return hex.EncodeToString(sum[:6])
}
