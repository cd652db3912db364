// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/kioskbank/atm/cmd/atm/cli"
	"github.com/kioskbank/atm/lib/atmui"
	"github.com/kioskbank/atm/lib/navigation"
	"github.com/kioskbank/atm/lib/session"
	"github.com/kioskbank/atm/lib/teller"
)

func cardCommand() *cli.Command {
	var insertParams, ejectParams struct {
		AppParams
	}
	return &cli.Command{
		Name:    "card",
		Summary: "Insert or eject a card",
		Subcommands: []*cli.Command{
			{
				Name:    "insert",
				Summary: "Insert a card by its token",
				Usage:   "atm card insert <token> [flags]",
				Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("insert", &insertParams) },
				Run: func(ctx context.Context, args []string) error {
					if len(args) != 1 {
						return cli.Validation("usage: atm card insert <token>")
					}
					a, err := openApp(ctx, insertParams.AppParams, nil)
					if err != nil {
						return err
					}
					defer a.Close()

					if err := a.teller.InsertCard(args[0]); err != nil {
						return commandError(err)
					}
					fmt.Fprintln(cli.Stdout, "Card accepted. Enter your PIN with 'atm pin'.")
					return nil
				},
			},
			{
				Name:    "eject",
				Summary: "Remove the card without signing out of the bank",
				Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("eject", &ejectParams) },
				Run: func(ctx context.Context, args []string) error {
					a, err := openApp(ctx, ejectParams.AppParams, nil)
					if err != nil {
						return err
					}
					defer a.Close()

					a.store.ClearCardIdentity()
					fmt.Fprintln(cli.Stdout, "Card ejected.")
					return nil
				},
			},
		},
	}
}

func pinCommand() *cli.Command {
	var params struct {
		AppParams
		PINFile string `flag:"pin-file" desc:"read the PIN from this file instead of prompting"`
	}
	return &cli.Command{
		Name:    "pin",
		Summary: "Enter the PIN for the inserted card",
		Description: `Sign in with the inserted card. The PIN is read from --pin-file,
prompted for without echo on a terminal, or read as one line from
standard input.`,
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("pin", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 0 {
				return cli.Validation("atm pin takes no arguments; use --pin-file or the prompt")
			}
			a, err := openApp(ctx, params.AppParams, nil)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.require(navigation.PIN); err != nil {
				return err
			}

			pin, err := readPIN(params.PINFile)
			if err != nil {
				return err
			}
			response, err := a.teller.SubmitPIN(ctx, pin)
			if err != nil {
				return commandError(err)
			}
			fmt.Fprintf(cli.Stdout, "Welcome, %s!\n", response.CustomerName)
			return nil
		},
	}
}

// readPIN reads the PIN from path, a no-echo terminal prompt, or a
// line of standard input, in that order of preference.
func readPIN(path string) (string, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", cli.Validation("reading PIN file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(cli.Stderr, "PIN: ")
		pin, err := term.ReadPassword(fd)
		fmt.Fprintln(cli.Stderr)
		if err != nil {
			return "", cli.Internal("reading PIN: %w", err)
		}
		return string(pin), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", cli.Internal("reading PIN: %w", err)
	}
	return strings.TrimSpace(line), nil
}

type balanceResult struct {
	Balance string `json:"balance"`
}

func balanceCommand() *cli.Command {
	var params struct {
		AppParams
		cli.JSONOutput
		Refresh bool `flag:"refresh" desc:"ask the bank even when a cached balance is fresh"`
	}
	return &cli.Command{
		Name:    "balance",
		Summary: "Show the account balance",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("balance", &params) },
		Run: func(ctx context.Context, args []string) error {
			a, err := openApp(ctx, params.AppParams, nil)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.require(navigation.Balance); err != nil {
				return err
			}

			query := a.teller.Balance()
			var response teller.BalanceResponse
			if params.Refresh {
				response, err = query.Refetch(ctx)
			} else {
				response, err = query.Get(ctx)
			}
			if err != nil {
				return commandError(err)
			}
			if done, err := params.EmitJSON(balanceResult{Balance: response.Balance}); done {
				return err
			}
			fmt.Fprintf(cli.Stdout, "Current balance: %s\n", usd(response.Balance))
			return nil
		},
	}
}

func depositCommand() *cli.Command {
	return moneyCommand("deposit", "Deposit funds", navigation.Deposit, "Deposit successful",
		func(ctx context.Context, t *teller.Teller, raw string) (teller.MoneyResponse, error) {
			return t.SubmitDeposit(ctx, raw)
		})
}

func withdrawCommand() *cli.Command {
	return moneyCommand("withdraw", "Withdraw funds", navigation.Withdraw, "Withdrawal successful",
		func(ctx context.Context, t *teller.Teller, raw string) (teller.MoneyResponse, error) {
			return t.SubmitWithdraw(ctx, raw)
		})
}

func moneyCommand(name, summary string, route navigation.Route, success string, submit func(context.Context, *teller.Teller, string) (teller.MoneyResponse, error)) *cli.Command {
	var params struct {
		AppParams
		cli.JSONOutput
	}
	return &cli.Command{
		Name:    name,
		Summary: summary,
		Usage:   "atm " + name + " <amount> [flags]",
		Examples: []cli.Example{
			{Command: "atm " + name + " 20"},
			{Command: "atm " + name + " '$12.50' --json"},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams(name, &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return cli.Validation("usage: atm %s <amount>", name)
			}
			a, err := openApp(ctx, params.AppParams, nil)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.require(route); err != nil {
				return err
			}

			response, err := submit(ctx, a.teller, args[0])
			if err != nil {
				return commandError(err)
			}
			if done, err := params.EmitJSON(balanceResult{Balance: response.Balance}); done {
				return err
			}
			fmt.Fprintf(cli.Stdout, "%s. New balance: %s\n", success, usd(response.Balance))
			return nil
		},
	}
}

func transactionsCommand() *cli.Command {
	var params struct {
		AppParams
		cli.JSONOutput
		Limit int `flag:"limit,n" desc:"number of entries to show" default:"10"`
	}
	return &cli.Command{
		Name:    "transactions",
		Summary: "List recent transactions, newest first",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("transactions", &params) },
		Run: func(ctx context.Context, args []string) error {
			if params.Limit < 1 {
				return cli.Validation("--limit must be at least 1")
			}
			a, err := openApp(ctx, params.AppParams, nil)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.require(navigation.Transactions); err != nil {
				return err
			}

			items, err := a.teller.Transactions(params.Limit).Get(ctx)
			if err != nil {
				return commandError(err)
			}
			if done, err := params.EmitJSON(items); done {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(cli.Stdout, "No transactions yet.")
				return nil
			}
			writer := tabwriter.NewWriter(cli.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(writer, "ID\tDATE\tTYPE\tAMOUNT")
			for _, item := range items {
				fmt.Fprintf(writer, "%d\t%s\t%s\t%s\n",
					item.ID, item.CreatedAt.Local().Format("2006-01-02 15:04"), item.Type, usd(item.Amount.String()))
			}
			return writer.Flush()
		},
	}
}

func logoutCommand() *cli.Command {
	var params struct {
		AppParams
	}
	return &cli.Command{
		Name:    "logout",
		Summary: "End the visit: forget the card and close the bank session",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("logout", &params) },
		Run: func(ctx context.Context, args []string) error {
			a, err := openApp(ctx, params.AppParams, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.teller.Exit(ctx); err != nil {
				fmt.Fprintln(cli.Stdout, "Local session cleared.")
				return commandError(err)
			}
			fmt.Fprintln(cli.Stdout, "Logged out.")
			return nil
		},
	}
}

// usd formats a bank decimal string, passing through anything that
// does not parse.
func usd(amount string) string {
	value, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return amount
	}
	return atmui.FormatUSD(value)
}

// startRoute is the screen the kiosk opens on for a restored session.
func startRoute(current session.Session) navigation.Route {
	switch {
	case current.IsAuthenticated:
		return navigation.Menu
	case current.HasCard():
		return navigation.PIN
	default:
		return navigation.Card
	}
}
