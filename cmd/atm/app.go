// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/kioskbank/atm/cmd/atm/cli"
	"github.com/kioskbank/atm/lib/apiclient"
	"github.com/kioskbank/atm/lib/clock"
	"github.com/kioskbank/atm/lib/config"
	"github.com/kioskbank/atm/lib/guard"
	"github.com/kioskbank/atm/lib/navigation"
	"github.com/kioskbank/atm/lib/query"
	"github.com/kioskbank/atm/lib/receipt"
	"github.com/kioskbank/atm/lib/session"
	"github.com/kioskbank/atm/lib/sessionstorage"
	"github.com/kioskbank/atm/lib/teller"
	"github.com/kioskbank/atm/lib/version"
)

// AppParams are the flags every command that touches the session
// accepts.
type AppParams struct {
	ConfigPath string `flag:"config" desc:"path to atm.yaml (default: $ATM_CONFIG, then built-in defaults)"`
}

// app is the wiring shared by the commands: configuration, the
// restored session, and a teller talking to the bank.
type app struct {
	config  *config.Config
	logger  *slog.Logger
	backend *sessionstorage.Backend
	store   *session.Store
	history *navigation.History
	jar     *apiclient.PersistentJar
	teller  *teller.Teller
	journal *receipt.Journal
}

func loadConfig(params AppParams) (*config.Config, error) {
	cfg, err := config.Resolve(params.ConfigPath)
	if err != nil {
		return nil, cli.Validation("%w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, cli.Validation("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openApp loads configuration, opens session storage and restores the
// session and bank cookie. logger may be nil, in which case the
// command logger is built from the configured level.
func openApp(ctx context.Context, params AppParams, logger *slog.Logger) (*app, error) {
	cfg, err := loadConfig(params)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger, err = cli.NewCommandLogger(cfg.Log.Level)
		if err != nil {
			return nil, err
		}
	}
	if err := cfg.EnsureRoot(); err != nil {
		return nil, cli.Internal("%w", err)
	}

	backend, err := sessionstorage.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, cli.Internal("opening %s session storage: %w", cfg.Storage.Backend, err)
	}

	store := session.NewStore(backend, logger)
	if err := store.Hydrate(ctx); err != nil {
		logger.Warn("restoring session failed, starting fresh", "error", err)
	}
	history := navigation.NewHistory(navigation.Card, logger)

	jar, err := apiclient.NewPersistentJar(ctx, cfg.API.BaseURL, backend, clock.Real(), logger)
	if err != nil {
		backend.Close()
		return nil, cli.Internal("restoring bank cookie: %w", err)
	}
	client, err := apiclient.New(apiclient.Config{
		BaseURL:      cfg.API.BaseURL,
		Jar:          jar,
		Timeout:      cfg.API.Timeout,
		Interceptors: []apiclient.Interceptor{apiclient.SessionExpiry(store, history, logger)},
		UserAgent:    version.UserAgent(),
		Logger:       logger,
	})
	if err != nil {
		backend.Close()
		return nil, cli.Internal("%w", err)
	}

	var journal *receipt.Journal
	if cfg.Receipts.Path != "" {
		journal = receipt.NewJournal(cfg.Receipts.Path, nil)
	}
	atm, err := teller.New(teller.Config{
		Client:           client,
		Store:            store,
		Cache:            query.NewCache(clock.Real(), logger),
		Navigator:        history,
		Journal:          journal,
		BalanceStaleTime: cfg.Balance.StaleTime,
		Logger:           logger,
	})
	if err != nil {
		backend.Close()
		return nil, cli.Internal("%w", err)
	}

	return &app{
		config:  cfg,
		logger:  logger,
		backend: backend,
		store:   store,
		history: history,
		jar:     jar,
		teller:  atm,
		journal: journal,
	}, nil
}

func (a *app) Close() error {
	return a.backend.Close()
}

// require runs the guard of route against the restored session. A
// refusal names the command that would get the customer there.
func (a *app) require(route navigation.Route) error {
	routeGuard := guard.For(route, a.store, a.history, a.logger)
	if routeGuard == nil || routeGuard.Evaluate() {
		return nil
	}
	if navigation.GateOf(route) == navigation.GateCard {
		return cli.Denied("no card inserted; run 'atm card insert <token>' first")
	}
	if !a.store.Session().HasCard() {
		return cli.Denied("not signed in; run 'atm card insert <token>' and 'atm pin' first")
	}
	return cli.Denied("not signed in; run 'atm pin' first")
}

// commandError categorizes an error from the teller for the CLI.
func commandError(err error) error {
	if err == nil {
		return nil
	}
	var validation *teller.ValidationError
	if errors.As(err, &validation) {
		return cli.Validation("%s: %s", validation.Title, validation.UserMessage())
	}
	var transport *apiclient.TransportError
	if errors.As(err, &transport) {
		return &cli.ToolError{Category: cli.CategoryTransient, Err: fmt.Errorf("bank unreachable: %w", err)}
	}
	var httpErr *apiclient.HTTPError
	if errors.As(err, &httpErr) {
		message := apiclient.UserMessage(err)
		if httpErr.Status == http.StatusUnauthorized {
			message += "; run 'atm card insert <token>' to start again"
		}
		return &cli.ToolError{Category: cli.CategoryRejected, Err: errors.New(message)}
	}
	return cli.Internal("%w", err)
}
