// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/kioskbank/atm/cmd/atm/cli"
	"github.com/kioskbank/atm/lib/atmui"
	"github.com/kioskbank/atm/lib/version"
)

func uiCommand() *cli.Command {
	var params struct {
		AppParams
		LogOutput string `flag:"log-output" desc:"write JSON logs to this file (default: log.output from config; empty discards)"`
		Limit     int    `flag:"transactions" desc:"entries on the history screen" default:"10"`
	}
	return &cli.Command{
		Name:    "ui",
		Summary: "Run the full-screen kiosk",
		Description: `Run the kiosk screen. It resumes the persisted session: a signed-in
customer lands on the menu, an inserted card on PIN entry.

The screen owns the terminal, so logs go to a rotating file.`,
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("ui", &params) },
		Run: func(ctx context.Context, args []string) error {
			cfg, err := loadConfig(params.AppParams)
			if err != nil {
				return err
			}

			output := cfg.Log.Output
			if params.LogOutput != "" {
				output = params.LogOutput
			}
			var logWriter io.Writer = io.Discard
			if output != "" {
				rotating := &lumberjack.Logger{
					Filename:   output,
					MaxSize:    cfg.Log.MaxSizeMB,
					MaxBackups: cfg.Log.MaxBackups,
				}
				defer rotating.Close()
				logWriter = rotating
			}
			logger, err := cli.NewFileLogger(logWriter, cfg.Log.Level)
			if err != nil {
				return err
			}
			logger.Info("kiosk starting", "version", version.Info(), "bank", cfg.API.BaseURL)

			a, err := openApp(ctx, params.AppParams, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			a.history.Replace(startRoute(a.store.Session()))
			return atmui.Run(ctx, atmui.Options{
				Teller:           a.teller,
				History:          a.history,
				Renderer:         atmui.NewRenderer(os.Stdout),
				Logger:           logger,
				TransactionLimit: params.Limit,
			})
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Run: func(context.Context, []string) error {
			version.Fprint(cli.Stdout, "atm")
			return nil
		},
	}
}
