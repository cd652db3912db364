// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package navigation

// Route is a screen path.
type Route string

const (
	Card         Route = "/card"
	PIN          Route = "/pin"
	Menu         Route = "/menu"
	Balance      Route = "/balance"
	Deposit      Route = "/deposit"
	Withdraw     Route = "/withdraw"
	Transactions Route = "/transactions"
)

// Gate is the session requirement for entering a route.
type Gate int

const (
	// GateNone routes are always reachable.
	GateNone Gate = iota
	// GateCard routes need an inserted card.
	GateCard
	// GateAuth routes need a PIN-authenticated session.
	GateAuth
)

func (g Gate) String() string {
	switch g {
	case GateNone:
		return "none"
	case GateCard:
		return "card"
	case GateAuth:
		return "auth"
	default:
		return "unknown"
	}
}

// Routes lists every known route in menu order.
var Routes = []Route{Card, PIN, Menu, Balance, Deposit, Withdraw, Transactions}

// GateOf returns the gate for r. Unknown routes are auth-gated.
func GateOf(r Route) Gate {
	switch r {
	case Card:
		return GateNone
	case PIN:
		return GateCard
	default:
		return GateAuth
	}
}

// Known reports whether r is one of Routes.
func Known(r Route) bool {
	for _, known := range Routes {
		if r == known {
			return true
		}
	}
	return false
}
