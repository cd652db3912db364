// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"io"
	"runtime"
)

// Overridden with -ldflags -X by release builds of atm and
// atm-mockbank.
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	GitDirty  = "false"
	BuildTime = "unknown"
)

// revision is the commit, marked when the tree was modified.
func revision() string {
	if GitDirty == "true" {
		return GitCommit + "-dirty"
	}
	return GitCommit
}

// Info is the one-line build identity the kiosk logs at startup:
// "0.1.0-dev (abc1234, 2026-01-02T03:04:05Z)".
func Info() string {
	return fmt.Sprintf("%s (%s, %s)", Version, revision(), BuildTime)
}

// Full is Info plus toolchain and platform lines, for support reports
// from a deployed kiosk.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// UserAgent is sent with every bank API request so the bank can tell
// kiosk builds apart: "kioskbank-atm/0.1.0-dev (abc1234)".
func UserAgent() string {
	return fmt.Sprintf("kioskbank-atm/%s (%s)", Version, revision())
}

// Fprint writes "<binary> <Full()>" to w.
func Fprint(w io.Writer, binary string) {
	fmt.Fprintln(w, binary+" "+Full())
}
