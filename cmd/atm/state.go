// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/kioskbank/atm/cmd/atm/cli"
	"github.com/kioskbank/atm/lib/atmui"
	"github.com/kioskbank/atm/lib/session"
	"github.com/kioskbank/atm/lib/sessionstorage"
)

// sessionView is the session as "atm session show" reports it. The
// card token itself is never printed.
type sessionView struct {
	Authenticated bool   `json:"authenticated"`
	CustomerName  string `json:"customerName,omitempty"`
	CardNetwork   string `json:"cardNetwork,omitempty"`
	Card          string `json:"card,omitempty"`
	BIN           string `json:"bin,omitempty"`
	Last4         string `json:"last4,omitempty"`
	Backend       string `json:"backend"`
}

func sessionCommand() *cli.Command {
	var showParams struct {
		AppParams
		cli.JSONOutput
	}
	var clearParams struct {
		AppParams
	}
	return &cli.Command{
		Name:    "session",
		Summary: "Inspect or discard the persisted session",
		Subcommands: []*cli.Command{
			{
				Name:    "show",
				Summary: "Show the persisted session",
				Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("show", &showParams) },
				Run: func(ctx context.Context, args []string) error {
					a, err := openApp(ctx, showParams.AppParams, nil)
					if err != nil {
						return err
					}
					defer a.Close()

					current := a.store.Session()
					view := sessionView{
						Authenticated: current.IsAuthenticated,
						CustomerName:  session.Deref(current.CustomerName),
						CardNetwork:   session.Deref(current.CardNetwork),
						Card:          session.Fingerprint(current.Token()),
						BIN:           session.Deref(current.BIN),
						Last4:         session.Deref(current.Last4),
						Backend:       a.backend.Name,
					}
					if done, err := showParams.EmitJSON(view); done {
						return err
					}
					writer := tabwriter.NewWriter(cli.Stdout, 2, 0, 2, ' ', 0)
					fmt.Fprintf(writer, "Authenticated:\t%t\n", view.Authenticated)
					fmt.Fprintf(writer, "Customer:\t%s\n", orDash(view.CustomerName))
					fmt.Fprintf(writer, "Network:\t%s\n", orDash(view.CardNetwork))
					fmt.Fprintf(writer, "Card:\t%s\n", orDash(view.Card))
					fmt.Fprintf(writer, "Storage:\t%s\n", view.Backend)
					return writer.Flush()
				},
			},
			{
				Name:    "clear",
				Summary: "Delete the persisted session and bank cookie without contacting the bank",
				Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("clear", &clearParams) },
				Run: func(ctx context.Context, args []string) error {
					a, err := openApp(ctx, clearParams.AppParams, nil)
					if err != nil {
						return err
					}
					defer a.Close()

					if err := a.store.Purge(ctx); err != nil {
						return cli.Internal("%w", err)
					}
					if err := a.jar.Clear(ctx); err != nil {
						return cli.Internal("%w", err)
					}
					fmt.Fprintln(cli.Stdout, "Session cleared.")
					return nil
				},
			},
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func receiptsCommand() *cli.Command {
	var params struct {
		AppParams
		cli.JSONOutput
	}
	return &cli.Command{
		Name:    "receipts",
		Summary: "List receipts of this kiosk's deposits and withdrawals",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("receipts", &params) },
		Run: func(ctx context.Context, args []string) error {
			cfg, err := loadConfig(params.AppParams)
			if err != nil {
				return err
			}
			if cfg.Receipts.Path == "" {
				return cli.Validation("receipts are disabled (receipts.path is empty)")
			}
			a, err := openApp(ctx, params.AppParams, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			receipts, err := a.journal.List()
			if err != nil {
				return cli.Internal("%w", err)
			}
			if done, err := params.EmitJSON(receipts); done {
				return err
			}
			if len(receipts) == 0 {
				fmt.Fprintln(cli.Stdout, "No receipts.")
				return nil
			}
			writer := tabwriter.NewWriter(cli.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(writer, "TIME\tKIND\tAMOUNT\tBALANCE\tCUSTOMER")
			for _, entry := range receipts {
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n",
					entry.Time.Local().Format(time.DateTime), entry.Kind,
					atmui.FormatUSD(entry.Amount), usd(entry.Balance), orDash(entry.CustomerName))
			}
			return writer.Flush()
		},
	}
}

func storageCommand() *cli.Command {
	return &cli.Command{
		Name:    "storage",
		Summary: "Manage session storage",
		Subcommands: []*cli.Command{{
			Name:    "keygen",
			Summary: "Create an age identity for sealing session storage",
			Usage:   "atm storage keygen <path>",
			Run: func(ctx context.Context, args []string) error {
				if len(args) != 1 {
					return cli.Validation("usage: atm storage keygen <path>")
				}
				recipient, err := sessionstorage.GenerateIdentity(args[0])
				if err != nil {
					return cli.Internal("%w", err)
				}
				fmt.Fprintf(cli.Stdout, "Public key: %s\n", recipient)
				fmt.Fprintf(cli.Stdout, "Set storage.seal_key_file: %s to encrypt the stored session.\n", args[0])
				return nil
			},
		}},
	}
}
