// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package atmui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/kioskbank/atm/lib/navigation"
	"github.com/kioskbank/atm/lib/session"
	"github.com/kioskbank/atm/lib/teller"
)

// View renders the current screen, the key help and any toast.
func (model Model) View() string {
	var body string
	var help []key.Binding
	switch {
	case !model.store.Hydrated():
		body = model.styles.faint.Render("Starting up...")
	case !model.allowed:
		body = model.styles.faint.Render("One moment...")
	default:
		body, help = model.renderScreen()
	}

	sections := []string{model.renderHeader(), model.styles.screen.Render(body)}
	if len(help) > 0 {
		sections = append(sections, model.renderHelp(help))
	}
	if model.toast != nil {
		sections = append(sections, model.renderToast())
	}
	return model.clip(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// clip truncates every line to the window width.
func (model Model) clip(view string) string {
	if model.width <= 0 {
		return view
	}
	lines := strings.Split(view, "\n")
	for i, line := range lines {
		if ansi.StringWidth(line) > model.width {
			lines[i] = ansi.Truncate(line, model.width, "…")
		}
	}
	return strings.Join(lines, "\n")
}

func (model Model) renderHeader() string {
	header := model.styles.title.Render("KIOSK BANK")
	current := model.store.Session()
	if network := session.Deref(current.CardNetwork); network != "" && current.IsAuthenticated {
		badge := model.styles.badge.
			Background(model.theme.NetworkColor(network)).
			Render(strings.ToUpper(network))
		header = lipgloss.JoinHorizontal(lipgloss.Top, header, "  ", badge)
	}
	return header
}

func (model Model) renderHelp(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		help := binding.Help()
		parts = append(parts, model.styles.key.Render(help.Key)+" "+model.styles.faint.Render(help.Desc))
	}
	return strings.Join(parts, model.styles.faint.Render("  •  "))
}

func (model Model) renderToast() string {
	color := model.theme.ToastInfo
	switch model.toast.kind {
	case toastSuccess:
		color = model.theme.ToastSuccess
	case toastWarning:
		color = model.theme.ToastWarning
	case toastError:
		color = model.theme.ToastError
	}
	text := model.styles.title.Foreground(color).Render(model.toast.title)
	if model.toast.description != "" {
		text += "\n" + model.styles.label.Render(model.toast.description)
	}
	return model.styles.toast.BorderForeground(color).Render(text)
}

func (model Model) renderScreen() (string, []key.Binding) {
	keys := model.keys
	switch model.route {
	case navigation.Card:
		return lines(
			model.styles.title.Render("Insert your card"),
			"",
			model.styles.label.Render("Card token"),
			model.cardInput.View(model.styles.label, model.styles.faint),
		), []key.Binding{keys.Submit, keys.Quit}

	case navigation.PIN:
		status := ""
		if model.busy {
			status = model.styles.faint.Render("Verifying...")
		}
		return lines(
			model.styles.title.Render("Welcome to the ATM"),
			"",
			model.styles.label.Render("Enter PIN *"),
			model.pinInput.View(model.styles.label, model.styles.faint),
			status,
		), []key.Binding{keys.Submit}

	case navigation.Menu:
		return model.renderMenu(), nil

	case navigation.Balance:
		amount := model.styles.faint.Render("Loading...")
		if model.balance != nil {
			amount = model.styles.amount.Render(formatBalance(model.balance.Balance))
		}
		return lines(
			model.styles.title.Render("Current Balance"),
			"",
			amount,
		), []key.Binding{keys.Back, keys.Refresh}

	case navigation.Deposit, navigation.Withdraw:
		title := "Withdraw Funds"
		if model.route == navigation.Deposit {
			title = "Deposit Funds"
		}
		status := ""
		if model.busy {
			status = model.styles.faint.Render("Processing...")
		}
		back := keys.Back
		back.SetHelp("esc", "cancel")
		return lines(
			model.styles.title.Render(title),
			"",
			model.styles.label.Render("Amount ($)"),
			model.amountInput.View(model.styles.label, model.styles.faint),
			status,
		), []key.Binding{keys.Submit, back}

	case navigation.Transactions:
		return model.renderTransactions(), []key.Binding{keys.Back, keys.Refresh}
	}
	return model.styles.faint.Render("Unknown screen " + string(model.route)), nil
}

func (model Model) renderMenu() string {
	name := session.Deref(model.store.Session().CustomerName)
	if name == "" {
		name = "Guest"
	}
	button := func(binding key.Binding) string {
		help := binding.Help()
		return model.styles.key.Render("["+help.Key+"]") + " " + model.styles.label.Render(help.Desc)
	}
	left := lines(button(model.keys.Withdraw), button(model.keys.Deposit))
	right := lines(
		button(model.keys.Exit),
		button(model.keys.Balance),
		button(model.keys.ReenterPIN),
		button(model.keys.Transactions),
	)
	status := ""
	if model.busy {
		status = model.styles.faint.Render("Signing out...")
	}
	return lines(
		model.styles.title.Render("Hi "+name+"!"),
		model.styles.label.Render("Please make a choice..."),
		"",
		lipgloss.JoinHorizontal(lipgloss.Top, lipgloss.NewStyle().Width(24).Render(left), right),
		status,
	)
}

func (model Model) renderTransactions() string {
	title := model.styles.title.Render("Recent Transactions")
	switch {
	case model.transactions == nil && model.loading:
		return lines(title, "", model.styles.faint.Render("Loading..."))
	case len(model.transactions) == 0:
		return lines(title, "", model.styles.faint.Render("No transactions yet."))
	}
	rows := []string{title, ""}
	for _, transaction := range model.transactions {
		rows = append(rows, model.renderTransaction(transaction))
	}
	return lines(rows...)
}

func (model Model) renderTransaction(transaction teller.Transaction) string {
	amount := formatBalance(transaction.Amount.String())
	if transaction.Type == kindWithdrawal {
		amount = "-" + amount
	}
	return fmt.Sprintf("%s  %-10s %s",
		model.styles.faint.Render(transaction.CreatedAt.Local().Format("Jan 02 15:04")),
		model.styles.label.Render(transaction.Type),
		model.styles.amount.Render(fmt.Sprintf("%12s", amount)),
	)
}

func lines(parts ...string) string {
	return strings.Join(parts, "\n")
}
