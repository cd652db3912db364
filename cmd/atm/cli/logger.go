// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// NewCommandLogger returns the logger for one-shot commands: text on a
// terminal, JSON when stderr is piped. level is a slog level name;
// empty means info.
func NewCommandLogger(level string) (*slog.Logger, error) {
	parsed, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return newLogger(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())), parsed), nil
}

// NewFileLogger returns a JSON logger writing to w, for processes that
// cannot log to their terminal.
func NewFileLogger(w io.Writer, level string) (*slog.Logger, error) {
	parsed, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return newLogger(w, false, parsed), nil
}

func newLogger(w io.Writer, text bool, level slog.Level) *slog.Logger {
	options := &slog.HandlerOptions{Level: level}
	if text {
		return slog.New(slog.NewTextHandler(w, options))
	}
	return slog.New(slog.NewJSONHandler(w, options))
}

// ParseLevel accepts debug, info, warn and error in any case.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, Validation("unknown log level %q (want debug, info, warn or error)", level)
}
