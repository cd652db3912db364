// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command framework behind the atm binary.
//
// A [Command] tree dispatches the first positional argument to a
// subcommand, parses pflag flags (usually declared as tagged struct
// fields through [FlagsFromParams]) and calls Run with the remaining
// arguments. Unknown commands and flags are answered with the closest
// known name.
//
// Errors returned by Run are plain errors, categorized [ToolError]s,
// or an [ExitError] when the command already printed its own output
// and only the exit status remains. [ExitCode] maps any of them to a
// process exit status.
//
// Read commands embed [JSONOutput] to offer --json.
package cli
