// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec is the shared CBOR configuration for files the kiosk
// writes for itself (the receipt journal). JSON stays the format for
// everything that crosses the bank API boundary.
//
// Encoding is Core Deterministic (RFC 8949 §4.2), so the same receipt
// always produces the same bytes. Struct fields use their json tags
// when no cbor tag is present.
package codec
