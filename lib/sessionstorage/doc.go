// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

// Package sessionstorage provides the persistent backends behind
// [session.Storage]: one file per key on a local filesystem, a SQLite
// key/value table, and Redis for kiosk fleets that share state. Any
// backend can be wrapped in [Sealed], which encrypts values to an age
// X25519 identity before they leave the process, so card tokens are
// never at rest in cleartext.
//
// [Open] selects and assembles a backend from [config.StorageConfig].
package sessionstorage
