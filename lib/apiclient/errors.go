// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package apiclient

import "fmt"

// HTTPError is a non-2xx response.
type HTTPError struct {
	Method string
	Path   string

	// Status is the HTTP status code.
	Status int

	// StatusText is the reason phrase the server sent, e.g. "Not Found".
	StatusText string

	// Body is the response body. When the body is valid JSON it is the
	// compact re-serialization; otherwise the raw text.
	Body string

	// Message is the user-facing message extracted from the body's
	// "detail" field, or "<status> <statusText>" when there is none.
	// It may be empty when "detail" is a list without any "msg".
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.Status, e.Message)
}

// UserMessage returns Message.
func (e *HTTPError) UserMessage() string {
	return e.Message
}

// TransportError is a request that never produced a response:
// connection refused, DNS failure, timeout, cancelled context.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
