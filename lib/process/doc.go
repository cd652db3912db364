// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds entrypoint helpers for the kiosk binaries: the
// last-resort error report for failures that happen before (or
// instead of) structured logging.
package process
