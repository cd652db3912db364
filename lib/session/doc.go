// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

// Package session holds the ATM client's persisted session state: the
// PIN-authentication flag, the customer's display name and card
// network, and the identity of the inserted card (token, BIN, last
// four digits).
//
// Card identity and authentication are independent. A card can be
// inserted without a login, and a login can outlive a cleared card
// identity. Screens are gated on one or the other (see lib/guard),
// never on both at once.
//
// A [Store] is an explicit value: construct one per process (or per
// test) with [NewStore] and pass it to the components that read or
// write the session. Every mutation is written through a [Storage]
// backend under the key [StorageKey] so a restarted kiosk resumes
// where it left off. [Store.Hydrate] reads that record back and marks
// the store mounted; until then route guards stay pending and never
// redirect.
//
// The persisted record holds only the session itself:
//
//	{"session":{"isAuthenticated":true,"customerName":"Alex Rivera",
//	  "cardNetwork":"visa","cardToken":"TOK_VISA_1111","bin":null,
//	  "last4":null},"version":1}
//
// Storage failures never fail a mutation. The in-memory session stays
// authoritative and the failure is logged.
package session
