// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

// Package query caches server reads by key with a staleness window.
//
// A [Query] binds a key, a fetch function, and a stale time to a
// shared [Cache]. [Query.Get] serves the cached value while it is
// fresh and fetches otherwise; [Query.Refetch] always fetches.
// [Cache.Invalidate] marks a key stale so the next Get fetches; it is
// how a successful deposit or withdrawal forces the balance to be
// re-read. Concurrent fetches of one key share a single request.
//
// Errors are never cached, and a fetch that was in flight when its key
// was invalidated stores a value that is already stale.
//
// Refetch-on-focus is opt-in per query ([Query.RefetchOnFocus]); the
// terminal UI forwards focus events to [Query.Focus].
package query
