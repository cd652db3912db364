// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package teller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/kioskbank/atm/lib/apiclient"
	"github.com/kioskbank/atm/lib/clock"
	"github.com/kioskbank/atm/lib/mutation"
	"github.com/kioskbank/atm/lib/navigation"
	"github.com/kioskbank/atm/lib/query"
	"github.com/kioskbank/atm/lib/receipt"
	"github.com/kioskbank/atm/lib/session"
)

// Bank API paths.
const (
	PathPinLogin     = "/auth/pin"
	PathLogout       = "/auth/logout"
	PathBalance      = "/account/balance"
	PathDeposit      = "/account/deposit"
	PathWithdraw     = "/account/withdraw"
	PathTransactions = "/transactions"
)

// Cache keys. Transaction reads append their limit to
// KeyTransactions.
const (
	KeyBalance      query.Key = "balance"
	KeyTransactions query.Key = "transactions/"
)

// DefaultBalanceStaleTime is how long a fetched balance is served
// without asking the bank again.
const DefaultBalanceStaleTime = 60 * time.Second

// DefaultTransactionLimit matches the bank's own default.
const DefaultTransactionLimit = 10

// PinLoginArgs is the input of the PIN login mutation.
type PinLoginArgs struct {
	PIN       string
	CardToken string
}

type pinLoginBody struct {
	PIN       string `json:"pin"`
	CardToken string `json:"cardToken,omitempty"`
}

// PinLoginResponse is the bank's answer to a successful login.
type PinLoginResponse struct {
	CustomerName string `json:"customerName"`
	CardNetwork  string `json:"cardNetwork"`
}

// BalanceResponse carries the balance as the bank formats it: a
// decimal string with two fraction digits.
type BalanceResponse struct {
	Balance string `json:"balance"`
}

// Amount parses the balance string.
func (b BalanceResponse) Amount() (float64, error) {
	return strconv.ParseFloat(b.Balance, 64)
}

// MoneyResponse is the result of a deposit or withdrawal: the new
// balance.
type MoneyResponse = BalanceResponse

type moneyBody struct {
	Amount         float64 `json:"amount"`
	IdempotencyKey string  `json:"idempotencyKey"`
}

// Transaction is one row of the account history. The bank sends
// amounts as decimal strings; json.Number accepts those and bare
// numbers alike.
type Transaction struct {
	ID        int64       `json:"id"`
	Type      string      `json:"type"`
	Amount    json.Number `json:"amount"`
	CreatedAt time.Time   `json:"createdAt"`
}

// TransactionsResponse is the body of GET /transactions.
type TransactionsResponse struct {
	Items []Transaction `json:"items"`
}

// Config wires a Teller.
type Config struct {
	Client    *apiclient.Client
	Store     *session.Store
	Cache     *query.Cache
	Navigator navigation.Navigator

	// Clock stamps receipts. Nil means clock.Real.
	Clock clock.Clock

	// Keys generates idempotency keys. Nil means random UUIDs.
	Keys func() string

	// Journal, when set, records a receipt for every successful
	// deposit and withdrawal.
	Journal *receipt.Journal

	// BalanceStaleTime defaults to DefaultBalanceStaleTime.
	BalanceStaleTime time.Duration

	Logger *slog.Logger
}

// Teller is the kiosk's gateway to the bank.
type Teller struct {
	client    *apiclient.Client
	store     *session.Store
	cache     *query.Cache
	navigator navigation.Navigator
	clock     clock.Clock
	keys      func() string
	journal   *receipt.Journal
	staleTime time.Duration
	logger    *slog.Logger

	balance *query.Query[BalanceResponse]
	logout  *mutation.Mutation[struct{}, struct{}]
}

// New validates config and returns a Teller.
func New(config Config) (*Teller, error) {
	if config.Client == nil {
		return nil, errors.New("teller: Client is required")
	}
	if config.Store == nil {
		return nil, errors.New("teller: Store is required")
	}
	if config.Navigator == nil {
		return nil, errors.New("teller: Navigator is required")
	}

	t := &Teller{
		client:    config.Client,
		store:     config.Store,
		cache:     config.Cache,
		navigator: config.Navigator,
		clock:     config.Clock,
		keys:      config.Keys,
		journal:   config.Journal,
		staleTime: config.BalanceStaleTime,
		logger:    config.Logger,
	}
	if t.clock == nil {
		t.clock = clock.Real()
	}
	if t.logger == nil {
		t.logger = slog.New(slog.DiscardHandler)
	}
	if t.cache == nil {
		t.cache = query.NewCache(t.clock, t.logger)
	}
	if t.keys == nil {
		t.keys = uuid.NewString
	}
	if t.staleTime <= 0 {
		t.staleTime = DefaultBalanceStaleTime
	}

	t.balance = query.New(t.cache, KeyBalance, t.staleTime, t.fetchBalance)
	t.logout = t.Logout(mutation.Options[struct{}]{
		OnSuccess: func(struct{}) { t.logger.Info("bank session closed") },
		OnError: func(err error) {
			t.logger.Warn("logout failed", "error", err)
		},
	})
	return t, nil
}

// Store returns the session store the teller writes to.
func (t *Teller) Store() *session.Store { return t.store }

// Cache returns the query cache shared by the teller's reads.
func (t *Teller) Cache() *query.Cache { return t.cache }

// Balance returns the balance query: fresh for the configured stale
// time, never refetched on focus.
func (t *Teller) Balance() *query.Query[BalanceResponse] {
	return t.balance
}

func (t *Teller) fetchBalance(ctx context.Context) (BalanceResponse, error) {
	response, err := apiclient.Get[BalanceResponse](ctx, t.client, PathBalance)
	if err != nil {
		return BalanceResponse{}, err
	}
	if response == nil {
		return BalanceResponse{}, fmt.Errorf("GET %s: empty response", PathBalance)
	}
	return *response, nil
}

// Transactions returns the query for the newest limit transactions.
// A non-positive limit means DefaultTransactionLimit.
func (t *Teller) Transactions(limit int) *query.Query[[]Transaction] {
	if limit <= 0 {
		limit = DefaultTransactionLimit
	}
	key := KeyTransactions + query.Key(strconv.Itoa(limit))
	path := PathTransactions + "?limit=" + strconv.Itoa(limit)
	return query.New(t.cache, key, t.staleTime, func(ctx context.Context) ([]Transaction, error) {
		response, err := apiclient.Get[TransactionsResponse](ctx, t.client, path)
		if err != nil {
			return nil, err
		}
		if response == nil {
			return nil, nil
		}
		return response.Items, nil
	})
}

// Deposit returns a deposit mutation.
func (t *Teller) Deposit(options mutation.Options[MoneyResponse]) *mutation.Mutation[float64, MoneyResponse] {
	return t.moneyMutation(PathDeposit, receipt.KindDeposit, options)
}

// Withdraw returns a withdrawal mutation.
func (t *Teller) Withdraw(options mutation.Options[MoneyResponse]) *mutation.Mutation[float64, MoneyResponse] {
	return t.moneyMutation(PathWithdraw, receipt.KindWithdrawal, options)
}

func (t *Teller) moneyMutation(path, kind string, options mutation.Options[MoneyResponse]) *mutation.Mutation[float64, MoneyResponse] {
	run := func(ctx context.Context, amount float64) (MoneyResponse, error) {
		// A new key per call: a manual retry is a new operation.
		key := t.keys()
		response, err := apiclient.Post[MoneyResponse](ctx, t.client, path, moneyBody{
			Amount:         amount,
			IdempotencyKey: key,
		})
		if err != nil {
			return MoneyResponse{}, err
		}
		if response == nil {
			return MoneyResponse{}, fmt.Errorf("POST %s: empty response", path)
		}
		t.logger.Info("money mutation completed",
			"kind", kind,
			"amount", amount,
			"idempotency_key", key,
		)
		t.record(kind, amount, key, *response)
		return *response, nil
	}

	hooks := mutation.Options[MoneyResponse]{
		OnSuccess: func(MoneyResponse) {
			t.cache.Invalidate(KeyBalance)
			t.cache.InvalidatePrefix(KeyTransactions)
		},
		OnError: func(err error) {
			if isUnauthorized(err) {
				t.navigator.Push(navigation.Card)
			}
		},
	}
	return mutation.New(run, hooks, options)
}

// record appends a receipt. Journal failures are logged and do not
// fail the mutation: the bank already applied it.
func (t *Teller) record(kind string, amount float64, key string, response MoneyResponse) {
	if t.journal == nil {
		return
	}
	current := t.store.Session()
	entry := receipt.Receipt{
		Kind:           kind,
		Amount:         amount,
		Balance:        response.Balance,
		IdempotencyKey: key,
		CustomerName:   session.Deref(current.CustomerName),
		Time:           t.clock.Now(),
	}
	if current.HasCard() {
		entry.Card = session.Fingerprint(current.Token())
	}
	if err := t.journal.Append(entry); err != nil {
		t.logger.Error("writing receipt failed",
			"kind", kind,
			"idempotency_key", key,
			"journal", t.journal.Path(),
			"error", err,
		)
	}
}

// PinLogin returns the PIN login mutation. The request omits
// cardToken when args.CardToken is empty. It has no local side
// effects; updating the session is the caller's job.
func (t *Teller) PinLogin(options mutation.Options[PinLoginResponse]) *mutation.Mutation[PinLoginArgs, PinLoginResponse] {
	run := func(ctx context.Context, args PinLoginArgs) (PinLoginResponse, error) {
		response, err := apiclient.Post[PinLoginResponse](ctx, t.client, PathPinLogin, pinLoginBody{
			PIN:       args.PIN,
			CardToken: args.CardToken,
		})
		if err != nil {
			return PinLoginResponse{}, err
		}
		if response == nil {
			return PinLoginResponse{}, fmt.Errorf("POST %s: empty response", PathPinLogin)
		}
		return *response, nil
	}
	return mutation.New(run, mutation.Options[PinLoginResponse]{}, options)
}

// Logout returns the logout mutation. Any 2xx counts as success; the
// body is ignored.
func (t *Teller) Logout(options mutation.Options[struct{}]) *mutation.Mutation[struct{}, struct{}] {
	run := func(ctx context.Context, _ struct{}) (struct{}, error) {
		_, err := apiclient.Request[json.RawMessage](ctx, t.client, PathLogout, apiclient.Options{
			Method: http.MethodPost,
		})
		return struct{}{}, err
	}
	return mutation.New(run, mutation.Options[struct{}]{}, options)
}

func isUnauthorized(err error) bool {
	var httpErr *apiclient.HTTPError
	return errors.As(err, &httpErr) && httpErr.Status == http.StatusUnauthorized
}
