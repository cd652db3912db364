// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
)

// Exit statuses.
const (
	ExitFailure = 1
	// ExitDenied means a route guard refused the command: the kiosk is
	// not in the state the command needs (no card, not signed in).
	ExitDenied = 2
)

// ExitError ends the process with Code without printing anything
// further. The command has already written its own output.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns Code.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// ExitCode maps an error returned by Execute to a process exit
// status: 0 for nil, the carried code for an ExitError, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return ExitFailure
}
