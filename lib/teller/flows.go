// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package teller

import (
	"context"
	"strings"

	"github.com/kioskbank/atm/lib/mutation"
	"github.com/kioskbank/atm/lib/navigation"
	"github.com/kioskbank/atm/lib/session"
)

// InsertCard records a card token typed or swiped at the card
// screen and moves on to PIN entry. The token is trimmed; BIN and
// last four are cleared because the token alone does not carry them.
func (t *Teller) InsertCard(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return &ValidationError{
			Field:       "cardToken",
			Title:       "Card token required",
			Description: "Please enter your card token to continue.",
		}
	}
	t.store.SetCardIdentity(session.CardIdentity{CardToken: session.String(token)})
	t.logger.Info("card inserted", "card", session.Fingerprint(token))
	t.navigator.Push(navigation.PIN)
	return nil
}

// SubmitPIN validates pin and logs in with the session's card token.
// On success the session becomes authenticated with the customer's
// name and card network, and the navigator moves to the menu.
func (t *Teller) SubmitPIN(ctx context.Context, pin string) (PinLoginResponse, error) {
	if err := ValidatePIN(pin); err != nil {
		return PinLoginResponse{}, err
	}
	login := t.PinLogin(mutation.Options[PinLoginResponse]{
		OnSuccess: func(response PinLoginResponse) {
			t.store.SetSession(session.Partial{
				IsAuthenticated: session.Set(true),
				CustomerName:    session.SetString(response.CustomerName),
				CardNetwork:     session.SetString(response.CardNetwork),
			})
			t.logger.Info("customer authenticated", "card_network", response.CardNetwork)
			t.navigator.Push(navigation.Menu)
		},
	})
	result := login.Mutate(ctx, PinLoginArgs{PIN: pin, CardToken: t.store.Session().Token()})
	return result.Value, result.Err
}

// SubmitDeposit parses raw as a positive amount and deposits it.
// Success returns to the menu.
func (t *Teller) SubmitDeposit(ctx context.Context, raw string) (MoneyResponse, error) {
	return t.submitMoney(ctx, raw, t.Deposit)
}

// SubmitWithdraw parses raw as a positive amount and withdraws it.
// Success returns to the menu.
func (t *Teller) SubmitWithdraw(ctx context.Context, raw string) (MoneyResponse, error) {
	return t.submitMoney(ctx, raw, t.Withdraw)
}

func (t *Teller) submitMoney(ctx context.Context, raw string, hook func(mutation.Options[MoneyResponse]) *mutation.Mutation[float64, MoneyResponse]) (MoneyResponse, error) {
	amount, err := ParseAmount(raw)
	if err != nil {
		return MoneyResponse{}, err
	}
	result := hook(mutation.Options[MoneyResponse]{
		OnSuccess: func(MoneyResponse) { t.navigator.Push(navigation.Menu) },
	}).Mutate(ctx, amount)
	return result.Value, result.Err
}

// Exit ends the customer's visit: the local session and every cached
// read are dropped and the card screen is shown before the bank is
// asked to close its session. The logout result is returned but the
// local state is already clear either way.
func (t *Teller) Exit(ctx context.Context) error {
	t.store.ClearSession()
	t.cache.Clear()
	t.navigator.Push(navigation.Card)
	return t.logout.Mutate(ctx, struct{}{}).Err
}
