// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package apiclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kioskbank/atm/lib/navigation"
	"github.com/kioskbank/atm/lib/session"
)

type balanceResponse struct {
	Balance string `json:"balance"`
}

func newTestClient(t *testing.T, handler http.Handler, interceptors ...Interceptor) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{
		BaseURL:      server.URL,
		Interceptors: interceptors,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestNewRejectsRelativeBaseURL(t *testing.T) {
	t.Parallel()
	if _, err := New(Config{BaseURL: "/api"}); err == nil {
		t.Fatal("New accepted a relative base URL")
	}
}

func TestRequestDecodesSuccess(t *testing.T) {
	t.Parallel()
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/account/balance" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"balance":"1250.00"}`)
	}))

	result, err := Get[balanceResponse](context.Background(), client, "/account/balance")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if result == nil || result.Balance != "1250.00" {
		t.Errorf("result = %+v, want balance 1250.00", result)
	}
}

func TestRequestDefaultHeadersAndOverride(t *testing.T) {
	t.Parallel()
	var seen http.Header
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	}))

	_, err := Request[struct{}](context.Background(), client, "/auth/logout", Options{
		Method: http.MethodPost,
		Header: http.Header{"content-type": {"text/plain"}, "X-Kiosk": {"lobby-1"}},
	})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if got := seen.Get("Content-Type"); got != "text/plain" {
		t.Errorf("Content-Type = %q, want caller override text/plain", got)
	}
	if got := seen.Get("Accept"); got != "application/json" {
		t.Errorf("Accept = %q, want default application/json", got)
	}
	if got := seen.Get("X-Kiosk"); got != "lobby-1" {
		t.Errorf("X-Kiosk = %q, want lobby-1", got)
	}

	_, err = Post[struct{}](context.Background(), client, "/auth/logout", nil)
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if got := seen.Get("Content-Type"); got != "application/json" {
		t.Errorf("default Content-Type = %q, want application/json", got)
	}
}

func TestRequestNoContent(t *testing.T) {
	t.Parallel()
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	result, err := Post[balanceResponse](context.Background(), client, "/auth/logout", nil)
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if result != nil {
		t.Errorf("result = %+v, want nil for 204", result)
	}
}

func TestRequestSendsCookies(t *testing.T) {
	t.Parallel()
	var sawCookie bool
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/pin":
			http.SetCookie(w, &http.Cookie{Name: "atm_sess", Value: "abc", Path: "/", HttpOnly: true})
			io.WriteString(w, `{"customerName":"Alex Rivera","cardNetwork":"visa"}`)
		case "/account/balance":
			cookie, err := r.Cookie("atm_sess")
			sawCookie = err == nil && cookie.Value == "abc"
			io.WriteString(w, `{"balance":"1.00"}`)
		}
	}))

	ctx := context.Background()
	if _, err := Post[map[string]string](ctx, client, "/auth/pin", map[string]string{"pin": "1234"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := Get[balanceResponse](ctx, client, "/account/balance"); err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !sawCookie {
		t.Error("session cookie was not sent on the follow-up request")
	}
}

func TestSuppliedHTTPClientGetsJar(t *testing.T) {
	t.Parallel()
	var sawCookie bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/pin" {
			http.SetCookie(w, &http.Cookie{Name: "atm_sess", Value: "abc", Path: "/"})
			io.WriteString(w, `{}`)
			return
		}
		cookie, err := r.Cookie("atm_sess")
		sawCookie = err == nil && cookie.Value == "abc"
		io.WriteString(w, `{"balance":"1.00"}`)
	}))
	t.Cleanup(server.Close)

	supplied := server.Client()
	client, err := New(Config{BaseURL: server.URL, HTTPClient: supplied})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := context.Background()
	if _, err := Post[map[string]string](ctx, client, "/auth/pin", map[string]string{"pin": "1234"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := Get[balanceResponse](ctx, client, "/account/balance"); err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !sawCookie {
		t.Error("cookie not sent through a supplied client without a jar")
	}
	if supplied.Jar != nil {
		t.Error("New modified the caller's client")
	}
}

func TestRequestHTTPErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantBody    string
	}{
		{
			name:        "detail list",
			status:      http.StatusUnprocessableEntity,
			body:        `{"detail": [{"msg": "A"}, {"msg": "B"}]}`,
			wantMessage: "A\nB",
			wantBody:    `{"detail":[{"msg":"A"},{"msg":"B"}]}`,
		},
		{
			name:        "detail string",
			status:      http.StatusBadRequest,
			body:        `{"detail":"Insufficient funds"}`,
			wantMessage: "Insufficient funds",
			wantBody:    `{"detail":"Insufficient funds"}`,
		},
		{
			name:        "detail list without msg",
			status:      http.StatusUnprocessableEntity,
			body:        `{"detail":[{"loc":["body","amount"]}]}`,
			wantMessage: "",
			wantBody:    `{"detail":[{"loc":["body","amount"]}]}`,
		},
		{
			name:        "empty detail list",
			status:      http.StatusBadRequest,
			body:        `{"detail":[]}`,
			wantMessage: "400 Bad Request",
			wantBody:    `{"detail":[]}`,
		},
		{
			name:        "plain text body",
			status:      http.StatusBadGateway,
			body:        "upstream down",
			wantMessage: "502 Bad Gateway",
			wantBody:    "upstream down",
		},
		{
			name:        "json without detail",
			status:      http.StatusNotFound,
			body:        `{"error":"nope"}`,
			wantMessage: "404 Not Found",
			wantBody:    `{"error":"nope"}`,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(test.status)
				io.WriteString(w, test.body)
			}))

			_, err := Post[balanceResponse](context.Background(), client, "/account/deposit", map[string]any{"amount": 1})
			var httpErr *HTTPError
			if !errors.As(err, &httpErr) {
				t.Fatalf("error = %v (%T), want *HTTPError", err, err)
			}
			if httpErr.Status != test.status {
				t.Errorf("Status = %d, want %d", httpErr.Status, test.status)
			}
			if httpErr.Message != test.wantMessage {
				t.Errorf("Message = %q, want %q", httpErr.Message, test.wantMessage)
			}
			if httpErr.Body != test.wantBody {
				t.Errorf("Body = %q, want %q", httpErr.Body, test.wantBody)
			}
			var transportErr *TransportError
			if errors.As(err, &transportErr) {
				t.Error("HTTP error also classified as a transport error")
			}
		})
	}
}

func TestRequestTransportError(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	client, err := New(Config{BaseURL: baseURL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = Get[balanceResponse](context.Background(), client, "/account/balance")

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("error = %v (%T), want *TransportError", err, err)
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		t.Error("transport failure classified as an HTTP error")
	}
	if UserMessage(err) != FallbackMessage {
		t.Errorf("UserMessage = %q, want fallback", UserMessage(err))
	}
}

func TestSessionExpiryInterceptor(t *testing.T) {
	t.Parallel()
	store := session.NewStore(nil, nil)
	store.SetSession(session.Partial{
		IsAuthenticated: session.Set(true),
		CustomerName:    session.SetString("Alex Rivera"),
		CardToken:       session.SetString("TOK_VISA_1111"),
	})
	history := navigation.NewHistory(navigation.Balance, nil)

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"detail":"Session expired"}`)
	}), SessionExpiry(store, history, nil))

	_, err := Get[balanceResponse](context.Background(), client, "/account/balance")

	// By the time the caller observes the error, the session is
	// already evicted and the navigation recorded.
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.Status != http.StatusUnauthorized {
		t.Fatalf("error = %v, want 401 *HTTPError", err)
	}
	if httpErr.Message != "Session expired" {
		t.Errorf("Message = %q", httpErr.Message)
	}
	got := store.Session()
	if got.IsAuthenticated || got.CustomerName != nil || got.CardToken != nil {
		t.Errorf("session after 401 = %+v, want default", got)
	}
	if history.Current() != navigation.Card {
		t.Errorf("current route = %s, want /card", history.Current())
	}
}

func TestSessionExpiryIgnoresOtherStatuses(t *testing.T) {
	t.Parallel()
	store := session.NewStore(nil, nil)
	store.SetSession(session.Partial{IsAuthenticated: session.Set(true)})
	history := navigation.NewHistory(navigation.Withdraw, nil)

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"detail":"Insufficient funds"}`)
	}), SessionExpiry(store, history, nil))

	Post[balanceResponse](context.Background(), client, "/account/withdraw", map[string]any{"amount": 1e9})

	if !store.Session().IsAuthenticated {
		t.Error("400 cleared the session")
	}
	if len(history.Events()) != 0 {
		t.Errorf("400 navigated: %v", history.Events())
	}
}

func TestUserMessage(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"user message wins", &HTTPError{Status: 400, Message: "Invalid account", Body: `{"detail":"other"}`}, "Invalid account"},
		{"falls back to body detail", &HTTPError{Status: 422, Body: `{"detail":[{"msg":"Field a is required"},{"msg":"Field b is invalid"}]}`}, "Field a is required\nField b is invalid"},
		{"detail list without messages", &HTTPError{Status: 422, Body: `{"detail":[{}]}`}, FallbackMessage},
		{"unknown error", errors.New("unknown"), FallbackMessage},
		{"wrapped http error", wrap(&HTTPError{Status: 401, Message: "Invalid PIN or card"}), "Invalid PIN or card"},
	}
	for _, test := range tests {
		if got := UserMessage(test.err); got != test.want {
			t.Errorf("%s: UserMessage = %q, want %q", test.name, got, test.want)
		}
	}
	if UserMessage(nil) != "" {
		t.Error("UserMessage(nil) should be empty")
	}
}

func wrap(err error) error {
	return &wrapped{err}
}

type wrapped struct{ err error }

func (w *wrapped) Error() string { return "pin login: " + w.err.Error() }
func (w *wrapped) Unwrap() error { return w.err }

func TestReasonPhraseFromStatusLine(t *testing.T) {
	t.Parallel()
	response := &http.Response{StatusCode: 418, Status: "418 Short And Stout"}
	if got := reasonPhrase(response); got != "Short And Stout" {
		t.Errorf("reasonPhrase = %q", got)
	}
	response = &http.Response{StatusCode: 404, Status: "404"}
	if got := reasonPhrase(response); !strings.EqualFold(got, "Not Found") {
		t.Errorf("reasonPhrase fallback = %q", got)
	}
}
