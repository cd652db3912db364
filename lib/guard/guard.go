// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package guard

import (
	"log/slog"
	"sync"

	"github.com/kioskbank/atm/lib/navigation"
	"github.com/kioskbank/atm/lib/session"
)

// State is the guard's current verdict.
type State int

const (
	Pending State = iota
	Satisfied
	Unsatisfied
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Satisfied:
		return "satisfied"
	case Unsatisfied:
		return "unsatisfied"
	default:
		return "unknown"
	}
}

// Store is the slice of session.Store a guard reads.
type Store interface {
	Session() session.Session
	Hydrated() bool
	Subscribe(func(session.Session)) (unsubscribe func())
}

// Guard evaluates a session predicate and redirects when it fails.
type Guard struct {
	name      string
	store     Store
	navigator navigation.Navigator
	predicate func(session.Session) bool
	fallback  navigation.Route
	logger    *slog.Logger

	mu       sync.Mutex
	state    State
	lastSeen *bool
}

// NewAuthGuard admits a screen only for a PIN-authenticated session.
func NewAuthGuard(store Store, navigator navigation.Navigator, logger *slog.Logger) *Guard {
	return newGuard("auth", store, navigator, logger, func(s session.Session) bool {
		return s.IsAuthenticated
	})
}

// NewCardIdentityGuard admits a screen only when a card token is
// present. BIN and last four digits are not consulted.
func NewCardIdentityGuard(store Store, navigator navigation.Navigator, logger *slog.Logger) *Guard {
	return newGuard("card", store, navigator, logger, session.Session.HasCard)
}

// For returns the guard protecting route, or nil for ungated routes.
func For(route navigation.Route, store Store, navigator navigation.Navigator, logger *slog.Logger) *Guard {
	switch navigation.GateOf(route) {
	case navigation.GateCard:
		return NewCardIdentityGuard(store, navigator, logger)
	case navigation.GateAuth:
		return NewAuthGuard(store, navigator, logger)
	default:
		return nil
	}
}

func newGuard(name string, store Store, navigator navigation.Navigator, logger *slog.Logger, predicate func(session.Session) bool) *Guard {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Guard{
		name:      name,
		store:     store,
		navigator: navigator,
		predicate: predicate,
		fallback:  navigation.Card,
		logger:    logger,
	}
}

// Name returns "auth" or "card".
func (g *Guard) Name() string { return g.name }

// State returns the verdict of the most recent evaluation.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Evaluate recomputes the verdict and returns whether the screen may
// render. Before hydration it returns false without navigating. After
// hydration a failing predicate triggers one Replace to the card-entry
// screen per change of input; repeated evaluations of the same failing
// session do not navigate again.
func (g *Guard) Evaluate() bool {
	hydrated := g.store.Hydrated()
	current := g.store.Session()

	g.mu.Lock()
	if !hydrated {
		g.state = Pending
		g.mu.Unlock()
		return false
	}

	ok := g.predicate(current)
	changed := g.lastSeen == nil || *g.lastSeen != ok
	g.lastSeen = &ok
	if ok {
		g.state = Satisfied
		g.mu.Unlock()
		return true
	}
	g.state = Unsatisfied
	g.mu.Unlock()

	if changed {
		g.logger.Info("guard redirect",
			"guard", g.name,
			"to", string(g.fallback),
		)
		g.navigator.Replace(g.fallback)
	}
	return false
}

// Watch evaluates now and again after every store change (including
// hydration) until stop is called.
func (g *Guard) Watch() (stop func()) {
	unsubscribe := g.store.Subscribe(func(session.Session) {
		g.Evaluate()
	})
	g.Evaluate()
	return unsubscribe
}
