// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ErrorCategory classifies a command failure so scripts driving the
// kiosk can tell bad input from a bank outage without parsing text.
type ErrorCategory string

const (
	// CategoryValidation: the arguments were wrong. Fix and retry.
	CategoryValidation ErrorCategory = "validation"

	// CategoryDenied: the session does not allow the command yet.
	CategoryDenied ErrorCategory = "denied"

	// CategoryRejected: the bank refused the request (wrong PIN,
	// insufficient funds).
	CategoryRejected ErrorCategory = "rejected"

	// CategoryTransient: the bank could not be reached.
	CategoryTransient ErrorCategory = "transient"

	// CategoryInternal: local failure such as unreadable storage.
	CategoryInternal ErrorCategory = "internal"
)

// ToolError is a categorized command error. Error returns the wrapped
// message only.
type ToolError struct {
	Category ErrorCategory
	Err      error
}

func (e *ToolError) Error() string { return e.Err.Error() }

func (e *ToolError) Unwrap() error { return e.Err }

// ExitCode is ExitDenied for denied commands and ExitFailure
// otherwise.
func (e *ToolError) ExitCode() int {
	if e.Category == CategoryDenied {
		return ExitDenied
	}
	return ExitFailure
}

func newToolError(category ErrorCategory, format string, args ...any) *ToolError {
	return &ToolError{Category: category, Err: fmt.Errorf(format, args...)}
}

// Validation reports bad arguments.
func Validation(format string, args ...any) *ToolError {
	return newToolError(CategoryValidation, format, args...)
}

// Denied reports a route guard refusal.
func Denied(format string, args ...any) *ToolError {
	return newToolError(CategoryDenied, format, args...)
}

// Rejected reports a bank-side refusal.
func Rejected(format string, args ...any) *ToolError {
	return newToolError(CategoryRejected, format, args...)
}

// Transient reports an unreachable bank.
func Transient(format string, args ...any) *ToolError {
	return newToolError(CategoryTransient, format, args...)
}

// Internal reports a local failure.
func Internal(format string, args ...any) *ToolError {
	return newToolError(CategoryInternal, format, args...)
}
