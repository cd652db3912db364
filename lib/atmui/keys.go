// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package atmui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the kiosk's key bindings. The menu bindings stand in
// for the physical buttons beside the screen.
type KeyMap struct {
	Submit  key.Binding
	Back    key.Binding
	Refresh key.Binding
	Quit    key.Binding

	// Menu buttons.
	Withdraw     key.Binding
	Deposit      key.Binding
	Balance      key.Binding
	ReenterPIN   key.Binding
	Transactions key.Binding
	Exit         key.Binding
}

// DefaultKeyMap binds each menu action to a letter and a digit.
var DefaultKeyMap = KeyMap{
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "confirm"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back to menu"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("C-c", "power off"),
	),
	Withdraw: key.NewBinding(
		key.WithKeys("w", "1"),
		key.WithHelp("1/w", "Withdraw"),
	),
	Deposit: key.NewBinding(
		key.WithKeys("d", "2"),
		key.WithHelp("2/d", "Deposit"),
	),
	Balance: key.NewBinding(
		key.WithKeys("b", "3"),
		key.WithHelp("3/b", "Balance"),
	),
	ReenterPIN: key.NewBinding(
		key.WithKeys("p", "4"),
		key.WithHelp("4/p", "Re-Enter PIN"),
	),
	Transactions: key.NewBinding(
		key.WithKeys("t", "5"),
		key.WithHelp("5/t", "History"),
	),
	Exit: key.NewBinding(
		key.WithKeys("x", "6"),
		key.WithHelp("6/x", "Exit"),
	),
}
