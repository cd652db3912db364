// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package atmui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/kioskbank/atm/lib/apiclient"
	"github.com/kioskbank/atm/lib/guard"
	"github.com/kioskbank/atm/lib/navigation"
	"github.com/kioskbank/atm/lib/session"
	"github.com/kioskbank/atm/lib/teller"
)

// maxRedirects bounds the guard/route settling loop in reconcile. A
// guard redirect lands on the card screen, which is ungated, so two
// passes are enough in practice.
const maxRedirects = 4

// Options configures a Model.
type Options struct {
	Teller  *teller.Teller
	History *navigation.History

	// Theme defaults to DefaultTheme when NetworkColors is nil.
	Theme Theme
	// Keys defaults to DefaultKeyMap.
	Keys *KeyMap
	// Renderer defaults to lipgloss.DefaultRenderer.
	Renderer *lipgloss.Renderer
	Logger   *slog.Logger

	// TransactionLimit is the number of entries on the history screen.
	TransactionLimit int
}

// Model is the bubbletea model of the kiosk screen. Every screen is a
// route in the navigation history; the model follows the history
// rather than owning the current screen, so flows in the teller that
// push routes move the display too.
type Model struct {
	ctx     context.Context
	teller  *teller.Teller
	store   *session.Store
	history *navigation.History
	logger  *slog.Logger
	keys    KeyMap
	styles  styles
	theme   Theme

	transactionLimit int

	// schedule delivers a message after a delay. Tests replace it.
	schedule func(time.Duration, tea.Msg) tea.Cmd

	width  int
	height int

	route   navigation.Route
	guard   *guard.Guard
	allowed bool
	loaded  bool
	busy    bool
	loading bool

	cardInput   field
	pinInput    field
	amountInput field

	balance      *teller.BalanceResponse
	transactions []teller.Transaction

	toast       *toast
	nextToastID int
}

type hydratedMsg struct{ err error }

type pinResultMsg struct {
	response teller.PinLoginResponse
	err      error
}

type moneyResultMsg struct {
	kind     string
	response teller.MoneyResponse
	err      error
}

type balanceMsg struct {
	response teller.BalanceResponse
	err      error
}

type transactionsMsg struct {
	items []teller.Transaction
	err   error
}

type exitResultMsg struct{ err error }

// NewModel builds the kiosk model. ctx bounds every request the model
// issues.
func NewModel(ctx context.Context, options Options) (Model, error) {
	if options.Teller == nil {
		return Model{}, errors.New("atmui: Teller is required")
	}
	if options.History == nil {
		return Model{}, errors.New("atmui: History is required")
	}
	theme := options.Theme
	if theme.NetworkColors == nil {
		theme = DefaultTheme
	}
	keys := DefaultKeyMap
	if options.Keys != nil {
		keys = *options.Keys
	}
	renderer := options.Renderer
	if renderer == nil {
		renderer = lipgloss.DefaultRenderer()
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	limit := options.TransactionLimit
	if limit <= 0 {
		limit = teller.DefaultTransactionLimit
	}

	pinInput := newField("••••", 4)
	pinInput.mask = '•'

	return Model{
		ctx:              ctx,
		teller:           options.Teller,
		store:            options.Teller.Store(),
		history:          options.History,
		logger:           logger,
		keys:             keys,
		styles:           newStyles(renderer, theme),
		theme:            theme,
		transactionLimit: limit,
		schedule:         tickSchedule,
		cardInput:        newField("TOK_...", 64),
		pinInput:         pinInput,
		amountInput:      newField("0.00", 16),
	}, nil
}

// NewRenderer returns a lipgloss renderer for output whose color
// profile honors NO_COLOR and CLICOLOR_FORCE.
func NewRenderer(output io.Writer) *lipgloss.Renderer {
	renderer := lipgloss.NewRenderer(output)
	renderer.SetColorProfile(termenv.NewOutput(output).EnvColorProfile())
	return renderer
}

// Init restores the persisted session unless the caller already
// has. Screens stay blank until the store reports hydration.
func (model Model) Init() tea.Cmd {
	store := model.store
	if store.Hydrated() {
		return func() tea.Msg { return hydratedMsg{} }
	}
	ctx := model.ctx
	return func() tea.Msg {
		return hydratedMsg{err: store.Hydrate(ctx)}
	}
}

// Update dispatches the message and then settles the displayed screen
// against the navigation history and its guard.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height

	case tea.FocusMsg, tea.BlurMsg:
		// Window focus does not refetch.
		return model, nil

	case hydratedMsg:
		if message.err != nil {
			model.logger.Warn("session restore failed", "error", message.err)
		}

	case tea.KeyMsg:
		if key.Matches(message, model.keys.Quit) {
			return model, tea.Quit
		}
		model, cmd = model.handleKey(message)

	case pinResultMsg:
		model, cmd = model.handlePinResult(message)

	case moneyResultMsg:
		model, cmd = model.handleMoneyResult(message)

	case balanceMsg:
		model.loading = false
		if message.err != nil {
			model, cmd = model.showToast(toastError, "Error", apiclient.UserMessage(message.err), toastFailure)
			break
		}
		response := message.response
		model.balance = &response

	case transactionsMsg:
		model.loading = false
		if message.err != nil {
			model, cmd = model.showToast(toastError, "Error", apiclient.UserMessage(message.err), toastFailure)
			break
		}
		model.transactions = message.items

	case exitResultMsg:
		model.busy = false
		if message.err != nil {
			model, cmd = model.errorToast(message.err, "Logout failed", toastFailure)
			break
		}
		model, cmd = model.showToast(toastInfo, "Logged out", "", toastShort)

	case toastExpiredMsg:
		if model.toast != nil && model.toast.id == message.id {
			model.toast = nil
		}
	}

	model, settle := model.reconcile()
	return model, tea.Batch(cmd, settle)
}

// reconcile follows the history to its current route, evaluates that
// route's guard and starts the screen's initial load once the guard
// admits it.
func (model Model) reconcile() (Model, tea.Cmd) {
	for range maxRedirects {
		if current := model.history.Current(); current != model.route {
			model = model.enter(current)
		}
		if !model.store.Hydrated() {
			model.allowed = false
			return model, nil
		}
		model.allowed = model.guard == nil || model.guard.Evaluate()
		if model.history.Current() == model.route {
			break
		}
	}
	if !model.allowed || model.loaded {
		return model, nil
	}
	model.loaded = true
	return model.load(false)
}

// enter resets per-screen state for route.
func (model Model) enter(route navigation.Route) Model {
	model.route = route
	model.guard = guard.For(route, model.store, model.history, model.logger)
	model.allowed = false
	model.loaded = false
	model.busy = false
	model.loading = false

	model.cardInput.Reset()
	model.pinInput.Reset()
	model.amountInput.Reset()
	switch route {
	case navigation.Balance:
		model.balance = nil
	case navigation.Transactions:
		model.transactions = nil
	}
	return model
}

// load fetches the data a screen shows. refresh bypasses the cache.
func (model Model) load(refresh bool) (Model, tea.Cmd) {
	ctx := model.ctx
	switch model.route {
	case navigation.Balance:
		query := model.teller.Balance()
		if !refresh {
			if cached, present, fresh := query.Peek(); present && fresh {
				model.balance = &cached
				return model, nil
			}
		}
		model.loading = true
		return model, func() tea.Msg {
			var response teller.BalanceResponse
			var err error
			if refresh {
				response, err = query.Refetch(ctx)
			} else {
				response, err = query.Get(ctx)
			}
			return balanceMsg{response: response, err: err}
		}
	case navigation.Transactions:
		query := model.teller.Transactions(model.transactionLimit)
		model.loading = true
		return model, func() tea.Msg {
			var items []teller.Transaction
			var err error
			if refresh {
				items, err = query.Refetch(ctx)
			} else {
				items, err = query.Get(ctx)
			}
			return transactionsMsg{items: items, err: err}
		}
	}
	return model, nil
}

func (model Model) handleKey(message tea.KeyMsg) (Model, tea.Cmd) {
	if !model.store.Hydrated() || !model.allowed {
		return model, nil
	}
	switch model.route {
	case navigation.Card:
		return model.handleCardKeys(message)
	case navigation.PIN:
		return model.handlePINKeys(message)
	case navigation.Menu:
		return model.handleMenuKeys(message)
	case navigation.Balance, navigation.Transactions:
		switch {
		case key.Matches(message, model.keys.Back):
			model.history.Push(navigation.Menu)
		case key.Matches(message, model.keys.Refresh) && !model.loading:
			return model.load(true)
		}
	case navigation.Deposit, navigation.Withdraw:
		return model.handleAmountKeys(message)
	}
	return model, nil
}

func (model Model) handleCardKeys(message tea.KeyMsg) (Model, tea.Cmd) {
	if key.Matches(message, model.keys.Submit) {
		if err := model.teller.InsertCard(model.cardInput.Value()); err != nil {
			return model.errorToast(err, "Error", toastDefault)
		}
		return model, nil
	}
	model.cardInput.handleKey(message)
	return model, nil
}

func (model Model) handlePINKeys(message tea.KeyMsg) (Model, tea.Cmd) {
	if key.Matches(message, model.keys.Submit) {
		if model.busy {
			return model, nil
		}
		model.busy = true
		pin := model.pinInput.Value()
		tellerRef, ctx := model.teller, model.ctx
		return model, func() tea.Msg {
			response, err := tellerRef.SubmitPIN(ctx, pin)
			return pinResultMsg{response: response, err: err}
		}
	}
	if model.busy {
		return model, nil
	}
	model.pinInput.handleKey(message)
	return model, nil
}

func (model Model) handleMenuKeys(message tea.KeyMsg) (Model, tea.Cmd) {
	if model.busy {
		return model, nil
	}
	switch {
	case key.Matches(message, model.keys.Withdraw):
		model.history.Push(navigation.Withdraw)
	case key.Matches(message, model.keys.Deposit):
		model.history.Push(navigation.Deposit)
	case key.Matches(message, model.keys.Balance):
		model.history.Push(navigation.Balance)
	case key.Matches(message, model.keys.ReenterPIN):
		model.history.Push(navigation.PIN)
	case key.Matches(message, model.keys.Transactions):
		model.history.Push(navigation.Transactions)
	case key.Matches(message, model.keys.Exit):
		model.busy = true
		tellerRef, ctx := model.teller, model.ctx
		return model, func() tea.Msg {
			return exitResultMsg{err: tellerRef.Exit(ctx)}
		}
	}
	return model, nil
}

func (model Model) handleAmountKeys(message tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Back):
		model.history.Push(navigation.Menu)
		return model, nil
	case key.Matches(message, model.keys.Submit):
		if model.busy {
			return model, nil
		}
		model.busy = true
		raw := model.amountInput.Value()
		tellerRef, ctx := model.teller, model.ctx
		kind := receiptKind(model.route)
		return model, func() tea.Msg {
			var response teller.MoneyResponse
			var err error
			if kind == kindDeposit {
				response, err = tellerRef.SubmitDeposit(ctx, raw)
			} else {
				response, err = tellerRef.SubmitWithdraw(ctx, raw)
			}
			return moneyResultMsg{kind: kind, response: response, err: err}
		}
	}
	if model.busy {
		return model, nil
	}
	model.amountInput.handleKey(message)
	return model, nil
}

func (model Model) handlePinResult(message pinResultMsg) (Model, tea.Cmd) {
	model.busy = false
	if message.err != nil {
		model.pinInput.Reset()
		return model.errorToast(message.err, "Request failed", toastFailure)
	}
	return model.showToast(toastSuccess, "Welcome, "+message.response.CustomerName+"!", "", toastLong)
}

const (
	kindDeposit    = "deposit"
	kindWithdrawal = "withdrawal"
)

func receiptKind(route navigation.Route) string {
	if route == navigation.Deposit {
		return kindDeposit
	}
	return kindWithdrawal
}

func (model Model) handleMoneyResult(message moneyResultMsg) (Model, tea.Cmd) {
	model.busy = false
	success, failure := "Withdrawal successful", "Withdrawal failed"
	if message.kind == kindDeposit {
		success, failure = "Deposit successful", "Deposit failed"
	}
	if message.err != nil {
		return model.errorToast(message.err, failure, toastFailure)
	}
	return model.showToast(toastSuccess, success, "New balance: "+formatBalance(message.response.Balance), toastDefault)
}

// Run starts the kiosk screen on the alternate screen and blocks until
// the user quits or ctx ends.
func Run(ctx context.Context, options Options, programOptions ...tea.ProgramOption) error {
	model, err := NewModel(ctx, options)
	if err != nil {
		return err
	}
	programOptions = append([]tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithReportFocus(),
	}, programOptions...)
	_, err = tea.NewProgram(model, programOptions...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
