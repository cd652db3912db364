// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

// Package apiclient is the HTTP client for the bank API.
//
// [Request] sends one JSON request and classifies the outcome into
// exactly one of:
//
//   - a decoded value of the caller's type (any 2xx except 204)
//   - nil with a nil error (204 No Content; the body is never parsed)
//   - an [*HTTPError] (any non-2xx status), carrying the status, the
//     body (re-serialized when it is JSON), and a user-facing message
//     taken from the FastAPI-style "detail" field
//   - a [*TransportError] (the request never produced a response)
//
// Every received response first passes through the client's
// [Interceptor] pipeline. [SessionExpiry] is the interceptor that
// reacts to 401: it clears the session and sends the user back to
// card entry before the caller sees the error. That is the only place
// the 401 side effect lives; callers may add their own reactions, and
// those must be idempotent with it.
//
// The bank authenticates with a session cookie, so the client always
// carries a cookie jar. [PersistentJar] keeps the cookie in session
// storage so separate CLI invocations share one bank session.
//
// [UserMessage] turns any error into the text shown to the customer,
// falling back to [FallbackMessage].
package apiclient
