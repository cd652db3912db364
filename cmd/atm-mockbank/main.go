// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

// atm-mockbank serves the bank API the kiosk talks to, backed by an
// in-memory ledger of seed cards. It is a development and test server:
// state is lost on exit.
//
//	atm-mockbank --listen 127.0.0.1:8000
//	atm-mockbank --seeds cards.jsonc --list-cards
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/kioskbank/atm/cmd/atm/cli"
	"github.com/kioskbank/atm/lib/config"
	"github.com/kioskbank/atm/lib/mockbank"
	"github.com/kioskbank/atm/lib/process"
	"github.com/kioskbank/atm/lib/version"
)

const shutdownTimeout = 5 * time.Second

type options struct {
	configPath  string
	listen      string
	seedFile    string
	logOutput   string
	listCards   bool
	showVersion bool
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		process.Fatal(err)
	}
}

func parseOptions(args []string) (options, error) {
	var opts options
	flagSet := pflag.NewFlagSet("atm-mockbank", pflag.ContinueOnError)
	flagSet.StringVar(&opts.configPath, "config", "", "path to atm.yaml (default: $ATM_CONFIG, then built-in defaults)")
	flagSet.StringVar(&opts.listen, "listen", "", "address to serve on (default: mockbank.listen)")
	flagSet.StringVar(&opts.seedFile, "seeds", "", "JSONC file of seed cards (default: mockbank.seed_file, then built-in cards)")
	flagSet.StringVar(&opts.logOutput, "log-output", "", "write JSON logs to this rotating file instead of stderr")
	flagSet.BoolVar(&opts.listCards, "list-cards", false, "print the seed cards and exit")
	flagSet.BoolVar(&opts.showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(args); err != nil {
		return opts, err
	}
	if flagSet.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %v", flagSet.Args())
	}
	return opts, nil
}

func run(args []string) error {
	opts, err := parseOptions(args)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	if opts.showVersion {
		version.Fprint(os.Stdout, "atm-mockbank")
		return nil
	}

	cfg, err := config.Resolve(opts.configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	applyFlags(cfg, opts)

	seeds, err := loadSeeds(cfg.MockBank.SeedFile)
	if err != nil {
		return err
	}
	if opts.listCards {
		return listCards(os.Stdout, seeds)
	}

	logger, closeLog, err := newLogger(cfg, opts.logOutput)
	if err != nil {
		return err
	}
	defer closeLog()

	bank, err := mockbank.New(mockbank.Config{
		Seeds:            seeds,
		SessionTTL:       cfg.MockBank.SessionTTL,
		LockoutThreshold: cfg.MockBank.LockoutThreshold,
		LockoutDuration:  cfg.MockBank.LockoutDuration,
		Logger:           logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listener, err := net.Listen("tcp", cfg.MockBank.Listen)
	if err != nil {
		return err
	}
	return serve(ctx, listener, mockbank.NewServer(bank, logger), logger, len(seeds))
}

// applyFlags lets command-line flags override the configuration file.
func applyFlags(cfg *config.Config, opts options) {
	if opts.listen != "" {
		cfg.MockBank.Listen = opts.listen
	}
	if opts.seedFile != "" {
		cfg.MockBank.SeedFile = opts.seedFile
	}
}

func loadSeeds(path string) ([]mockbank.Seed, error) {
	if path == "" {
		return mockbank.DefaultSeeds(), nil
	}
	return mockbank.LoadSeeds(path)
}

func newLogger(cfg *config.Config, output string) (*slog.Logger, func(), error) {
	if output == "" {
		logger, err := cli.NewCommandLogger(cfg.Log.Level)
		return logger, func() {}, err
	}
	rotating := &lumberjack.Logger{
		Filename:   output,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	}
	logger, err := cli.NewFileLogger(rotating, cfg.Log.Level)
	if err != nil {
		rotating.Close()
		return nil, nil, err
	}
	return logger, func() { rotating.Close() }, nil
}

// serve runs the HTTP server on listener until ctx ends, then drains
// in-flight requests.
func serve(ctx context.Context, listener net.Listener, handler http.Handler, logger *slog.Logger, cards int) error {
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- server.Serve(listener)
	}()
	logger.Info("mock bank listening",
		"address", listener.Addr().String(),
		"cards", cards,
		"version", version.Info(),
	)

	select {
	case err := <-serveDone:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-serveDone; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func listCards(w io.Writer, seeds []mockbank.Seed) error {
	writer := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
	fmt.Fprintln(writer, "TOKEN\tPIN\tNETWORK\tCARD\tCUSTOMER\tBALANCE")
	for _, seed := range seeds {
		card := seed.BIN + "..." + seed.Last4
		if seed.Blocked {
			card += " (blocked)"
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\n",
			seed.Token, seed.PIN, seed.Network, card, seed.CustomerName, seed.Balance)
	}
	return writer.Flush()
}
