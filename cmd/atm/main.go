// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

// atm drives the kiosk from the shell. Each invocation restores the
// persisted session and bank cookie, performs one step of the
// customer flow, and persists the result, so a script can walk the
// same path as a customer at the screen:
//
//	atm card insert TOK_VISA_1111
//	atm pin
//	atm deposit 50
//	atm balance
//	atm logout
//
// "atm ui" runs the full-screen kiosk instead.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kioskbank/atm/cmd/atm/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCommand().Execute(ctx, os.Args[1:])
	stop()
	if err != nil {
		// An ExitError means the command already explained itself.
		var exit *cli.ExitError
		if !errors.As(err, &exit) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(cli.ExitCode(err))
	}
}

func rootCommand() *cli.Command {
	return &cli.Command{
		Name: "atm",
		Description: `Kiosk bank ATM client.

Every command is one step of the customer flow. The session (card,
sign-in state, bank cookie) persists between invocations in the
configured storage backend.`,
		Subcommands: []*cli.Command{
			cardCommand(),
			pinCommand(),
			balanceCommand(),
			depositCommand(),
			withdrawCommand(),
			transactionsCommand(),
			logoutCommand(),
			sessionCommand(),
			receiptsCommand(),
			storageCommand(),
			uiCommand(),
			versionCommand(),
		},
		Examples: []cli.Example{
			{Description: "Sign in with a test card", Command: "atm card insert TOK_VISA_1111 && atm pin"},
			{Description: "Withdraw and print the new balance as JSON", Command: "atm withdraw 20 --json"},
		},
	}
}
