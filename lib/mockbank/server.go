// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package mockbank

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/kioskbank/atm/lib/netutil"
)

// CookieName is the session cookie the bank sets on PIN login.
const CookieName = "atm_sess"

// Server exposes a Bank over HTTP.
type Server struct {
	bank   *Bank
	router *mux.Router
	logger *slog.Logger
}

// NewServer routes the bank API to bank.
func NewServer(bank *Bank, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{bank: bank, router: mux.NewRouter(), logger: logger}

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/auth/pin", s.handlePinLogin).Methods(http.MethodPost)
	s.router.HandleFunc("/auth/logout", s.requireSession(s.handleLogout)).Methods(http.MethodPost)
	s.router.HandleFunc("/account/balance", s.requireSession(s.handleBalance)).Methods(http.MethodGet)
	s.router.HandleFunc("/account/deposit", s.requireSession(s.handleMoney(bank.Deposit))).Methods(http.MethodPost)
	s.router.HandleFunc("/account/withdraw", s.requireSession(s.handleMoney(bank.Withdraw))).Methods(http.MethodPost)
	s.router.HandleFunc("/transactions", s.requireSession(s.handleTransactions)).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	s.router.Use(s.logRequests)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, session Session, token string)

// requireSession resolves the atm_sess cookie before calling next.
func (s *Server) requireSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(CookieName)
		if err != nil || cookie.Value == "" {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		session, err := s.bank.Authenticate(cookie.Value)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, err.Error())
			return
		}
		next(w, r, session, cookie.Value)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type pinLoginResponse struct {
	CustomerName string `json:"customerName"`
	CardNetwork  string `json:"cardNetwork"`
}

func (s *Server) handlePinLogin(w http.ResponseWriter, r *http.Request) {
	fields, problems := readObject(r)
	if problems == nil {
		problems = validatePinLogin(fields)
	}
	if problems != nil {
		writeValidation(w, problems)
		return
	}
	var cardToken, pin string
	json.Unmarshal(fields["cardToken"], &cardToken)
	json.Unmarshal(fields["pin"], &pin)

	token, customerName, network, err := s.bank.Login(cardToken, pin)
	if err != nil {
		writeBankError(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.bank.SessionTTL() / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, pinLoginResponse{CustomerName: customerName, CardNetwork: network})
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request, _ Session, token string) {
	if err := s.bank.Logout(token); err != nil {
		writeBankError(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

type balanceResponse struct {
	Balance string `json:"balance"`
}

func (s *Server) handleBalance(w http.ResponseWriter, _ *http.Request, session Session, _ string) {
	balance, err := s.bank.Balance(session.AccountID)
	if err != nil {
		writeBankError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{Balance: balance.String()})
}

func (s *Server) handleMoney(apply func(accountID int, amount Cents, key string) (Cents, error)) sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, session Session, _ string) {
		fields, problems := readObject(r)
		var amount Cents
		var key string
		if problems == nil {
			amount, key, problems = validateMoney(fields)
		}
		if problems != nil {
			writeValidation(w, problems)
			return
		}
		balance, err := apply(session.AccountID, amount, key)
		if err != nil {
			writeBankError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, balanceResponse{Balance: balance.String()})
	}
}

type transactionItem struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Amount    string    `json:"amount"`
	CreatedAt time.Time `json:"createdAt"`
}

type transactionsResponse struct {
	Items []transactionItem `json:"items"`
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request, session Session, _ string) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeValidation(w, []fieldProblem{{
				Type: "int_parsing",
				Loc:  []any{"query", "limit"},
				Msg:  "Input should be a valid integer, unable to parse string as an integer",
			}})
			return
		}
		limit = parsed
	}
	transactions, err := s.bank.Transactions(session.AccountID, limit)
	if err != nil {
		writeBankError(w, err)
		return
	}
	items := make([]transactionItem, 0, len(transactions))
	for _, tx := range transactions {
		items = append(items, transactionItem{
			ID:        tx.ID,
			Type:      tx.Type,
			Amount:    tx.Amount.String(),
			CreatedAt: tx.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, transactionsResponse{Items: items})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		started := time.Now()
		next.ServeHTTP(recorder, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"duration", time.Since(started),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// writeBankError maps a Bank error to its status code.
func writeBankError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrSessionExpired):
		writeDetail(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrAccountNotFound):
		writeDetail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInsufficientFunds):
		writeDetail(w, http.StatusBadRequest, err.Error())
	default:
		writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeValidation(w http.ResponseWriter, problems []fieldProblem) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": problems})
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(value)
}

// readObject reads a JSON object body into its raw fields.
func readObject(r *http.Request) (map[string]json.RawMessage, []fieldProblem) {
	body, err := netutil.ReadBody(r.Body)
	if err != nil {
		return nil, []fieldProblem{{Type: "json_invalid", Loc: []any{"body"}, Msg: "JSON decode error"}}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) || len(body) == 0 {
			return nil, []fieldProblem{{Type: "json_invalid", Loc: []any{"body"}, Msg: "JSON decode error"}}
		}
		return nil, []fieldProblem{{
			Type: "model_attributes_type",
			Loc:  []any{"body"},
			Msg:  "Input should be a valid dictionary or object to extract fields from",
		}}
	}
	if fields == nil {
		return nil, []fieldProblem{{
			Type: "model_attributes_type",
			Loc:  []any{"body"},
			Msg:  "Input should be a valid dictionary or object to extract fields from",
		}}
	}
	return fields, nil
}
