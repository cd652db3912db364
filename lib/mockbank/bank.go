// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package mockbank

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/kioskbank/atm/lib/clock"
)

// Defaults for Config fields left zero.
const (
	DefaultSessionTTL       = 15 * time.Minute
	DefaultLockoutThreshold = 5
	DefaultLockoutDuration  = 15 * time.Minute
)

// Errors returned by Bank methods. The server maps each to a status
// code; the message is the response detail verbatim.
var (
	ErrInvalidCredentials = errors.New("Invalid PIN or card")
	ErrSessionExpired     = errors.New("Session expired")
	ErrAccountNotFound    = errors.New("Account not found")
	ErrInsufficientFunds  = errors.New("Insufficient funds")
)

// Transaction types.
const (
	TypeDeposit    = "deposit"
	TypeWithdrawal = "withdrawal"
)

// Config configures a Bank.
type Config struct {
	// Seeds defaults to DefaultSeeds.
	Seeds []Seed

	SessionTTL       time.Duration
	LockoutThreshold int
	LockoutDuration  time.Duration

	// BcryptCost defaults to bcrypt.DefaultCost. Tests use
	// bcrypt.MinCost.
	BcryptCost int

	Clock  clock.Clock
	Logger *slog.Logger
}

// Transaction is one ledger row.
type Transaction struct {
	ID             int64
	AccountID      int
	Type           string
	Amount         Cents
	IdempotencyKey string
	CreatedAt      time.Time
}

// AuditEntry records an authentication event.
type AuditEntry struct {
	Card   string
	Action string
	Result string
	Time   time.Time
}

type card struct {
	seed        Seed
	pinHash     []byte
	accountID   int
	tryCount    int
	lockedUntil time.Time
}

type account struct {
	id           int
	customerName string
	balance      Cents
}

type bankSession struct {
	cardToken string
	accountID int
	expiresAt time.Time
	revoked   bool
}

// Session is what a valid session cookie resolves to.
type Session struct {
	CardToken string
	AccountID int
	ExpiresAt time.Time
}

// Bank holds all mock bank state. Safe for concurrent use.
type Bank struct {
	sessionTTL       time.Duration
	lockoutThreshold int
	lockoutDuration  time.Duration
	clock            clock.Clock
	logger           *slog.Logger

	mu           sync.Mutex
	cards        map[string]*card
	accounts     map[int]*account
	sessions     map[string]*bankSession
	transactions []Transaction
	idempotency  map[idempotencyKey]int64
	audit        []AuditEntry
	nextTxID     int64
}

type idempotencyKey struct {
	accountID int
	key       string
}

// New builds a Bank from config, hashing every seed PIN.
func New(config Config) (*Bank, error) {
	seeds := config.Seeds
	if seeds == nil {
		seeds = DefaultSeeds()
	}
	bank := &Bank{
		sessionTTL:       config.SessionTTL,
		lockoutThreshold: config.LockoutThreshold,
		lockoutDuration:  config.LockoutDuration,
		clock:            config.Clock,
		logger:           config.Logger,
		cards:            make(map[string]*card, len(seeds)),
		accounts:         make(map[int]*account, len(seeds)),
		sessions:         make(map[string]*bankSession),
		idempotency:      make(map[idempotencyKey]int64),
		nextTxID:         1,
	}
	if bank.sessionTTL <= 0 {
		bank.sessionTTL = DefaultSessionTTL
	}
	if bank.lockoutThreshold <= 0 {
		bank.lockoutThreshold = DefaultLockoutThreshold
	}
	if bank.lockoutDuration <= 0 {
		bank.lockoutDuration = DefaultLockoutDuration
	}
	if bank.clock == nil {
		bank.clock = clock.Real()
	}
	if bank.logger == nil {
		bank.logger = slog.New(slog.DiscardHandler)
	}
	cost := config.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	for i, seed := range seeds {
		if _, exists := bank.cards[seed.Token]; exists {
			return nil, fmt.Errorf("duplicate card token %q", seed.Token)
		}
		balance, err := parseCents(seed.Balance)
		if err != nil {
			return nil, fmt.Errorf("card %q: balance: %w", seed.Token, err)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(seed.PIN), cost)
		if err != nil {
			return nil, fmt.Errorf("card %q: hashing pin: %w", seed.Token, err)
		}
		accountID := i + 1
		bank.accounts[accountID] = &account{
			id:           accountID,
			customerName: seed.CustomerName,
			balance:      balance,
		}
		bank.cards[seed.Token] = &card{
			seed:      seed,
			pinHash:   hash,
			accountID: accountID,
		}
	}
	return bank, nil
}

// SessionTTL returns how long a session cookie stays valid.
func (b *Bank) SessionTTL() time.Duration { return b.sessionTTL }

// Login checks pin against the card and opens a session. It returns
// the raw session token for the cookie; only its hash is kept.
func (b *Bank) Login(cardToken, pin string) (token, customerName, network string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.clock.Now()
	c, ok := b.cards[cardToken]
	if !ok || c.seed.Blocked {
		return "", "", "", ErrInvalidCredentials
	}
	if now.Before(c.lockedUntil) {
		b.auditLocked(cardToken, "pin_locked", "deny", now)
		return "", "", "", ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(c.pinHash, []byte(pin)) != nil {
		c.tryCount++
		if c.tryCount >= b.lockoutThreshold {
			c.lockedUntil = now.Add(b.lockoutDuration)
			c.tryCount = 0
			b.logger.Warn("card locked", "bin", c.seed.BIN, "last4", c.seed.Last4, "until", c.lockedUntil)
		}
		b.auditLocked(cardToken, "pin_fail", "deny", now)
		return "", "", "", ErrInvalidCredentials
	}

	c.tryCount = 0
	c.lockedUntil = time.Time{}

	token, err = newToken()
	if err != nil {
		return "", "", "", err
	}
	b.sessions[hashToken(token)] = &bankSession{
		cardToken: cardToken,
		accountID: c.accountID,
		expiresAt: now.Add(b.sessionTTL),
	}
	b.auditLocked(cardToken, "pin_ok", "ok", now)
	return token, b.accounts[c.accountID].customerName, c.seed.Network, nil
}

// Authenticate resolves a raw session token.
func (b *Bank) Authenticate(token string) (Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, err := b.sessionLocked(token)
	if err != nil {
		return Session{}, err
	}
	return Session{CardToken: s.cardToken, AccountID: s.accountID, ExpiresAt: s.expiresAt}, nil
}

// Logout revokes the session behind token.
func (b *Bank) Logout(token string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, err := b.sessionLocked(token)
	if err != nil {
		return err
	}
	s.revoked = true
	b.auditLocked(s.cardToken, "logout", "ok", b.clock.Now())
	return nil
}

// Balance returns the account balance.
func (b *Bank) Balance(accountID int) (Cents, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	acct, ok := b.accounts[accountID]
	if !ok {
		return 0, ErrAccountNotFound
	}
	return acct.balance, nil
}

// Deposit adds amount to the account unless key was already used for
// it, and returns the resulting balance.
func (b *Bank) Deposit(accountID int, amount Cents, key string) (Cents, error) {
	return b.apply(accountID, TypeDeposit, amount, key)
}

// Withdraw removes amount unless key was already used or the balance
// would go negative.
func (b *Bank) Withdraw(accountID int, amount Cents, key string) (Cents, error) {
	return b.apply(accountID, TypeWithdrawal, amount, key)
}

func (b *Bank) apply(accountID int, kind string, amount Cents, key string) (Cents, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	acct, ok := b.accounts[accountID]
	if !ok {
		return 0, ErrAccountNotFound
	}
	if _, seen := b.idempotency[idempotencyKey{accountID, key}]; seen {
		b.logger.Info("replayed idempotency key", "account", accountID, "type", kind)
		return acct.balance, nil
	}

	next := acct.balance + amount
	if kind == TypeWithdrawal {
		next = acct.balance - amount
		if next < 0 {
			return 0, ErrInsufficientFunds
		}
	}
	acct.balance = next

	tx := Transaction{
		ID:             b.nextTxID,
		AccountID:      accountID,
		Type:           kind,
		Amount:         amount,
		IdempotencyKey: key,
		CreatedAt:      b.clock.Now().UTC(),
	}
	b.nextTxID++
	b.transactions = append(b.transactions, tx)
	b.idempotency[idempotencyKey{accountID, key}] = tx.ID
	return acct.balance, nil
}

// Transactions returns up to limit of the account's transactions,
// newest first.
func (b *Bank) Transactions(accountID int, limit int) ([]Transaction, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.accounts[accountID]; !ok {
		return nil, ErrAccountNotFound
	}
	var result []Transaction
	for _, tx := range b.transactions {
		if tx.AccountID == accountID {
			result = append(result, tx)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit >= 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Audit returns a copy of the authentication audit log.
func (b *Bank) Audit() []AuditEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]AuditEntry(nil), b.audit...)
}

func (b *Bank) sessionLocked(token string) (*bankSession, error) {
	s, ok := b.sessions[hashToken(token)]
	if !ok || s.revoked || !b.clock.Now().Before(s.expiresAt) {
		return nil, ErrSessionExpired
	}
	return s, nil
}

func (b *Bank) auditLocked(cardToken, action, result string, now time.Time) {
	c := b.cards[cardToken]
	label := cardToken
	if c != nil {
		label = c.seed.BIN + "..." + c.seed.Last4
	}
	b.audit = append(b.audit, AuditEntry{Card: label, Action: action, Result: result, Time: now})
	b.logger.Info("auth event", "card", label, "action", action, "result", result)
}

// newToken returns 32 random bytes, URL-safe base64 without padding.
func newToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
