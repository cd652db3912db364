// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kioskbank/atm/lib/netutil"
)

// Config configures a Client.
type Config struct {
	// BaseURL is prefixed verbatim to every request path.
	BaseURL string

	// HTTPClient is used when set (tests pass the httptest server's
	// client). A client without a jar is copied and given Jar.
	// Otherwise a client is built from Jar and Timeout.
	HTTPClient *http.Client

	// Jar holds the bank session cookie. When neither Jar nor
	// HTTPClient.Jar is set, an in-memory jar is created: credentials
	// are always sent.
	Jar http.CookieJar

	// Timeout bounds each round trip when HTTPClient is nil.
	Timeout time.Duration

	// Interceptors see every received response, in order, before it
	// is classified.
	Interceptors []Interceptor

	// UserAgent, when set, is sent with every request.
	UserAgent string

	Logger *slog.Logger
}

// Client sends JSON requests to the bank API.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	interceptors []Interceptor
	userAgent    string
	logger       *slog.Logger
}

// New validates cfg and returns a Client.
func New(cfg Config) (*Client, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("apiclient: base URL must be absolute, got %q", cfg.BaseURL)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	jar := cfg.Jar
	if jar == nil && (cfg.HTTPClient == nil || cfg.HTTPClient.Jar == nil) {
		jar, err = newMemoryJar()
		if err != nil {
			return nil, err
		}
	}

	var httpClient *http.Client
	switch {
	case cfg.HTTPClient == nil:
		httpClient = &http.Client{Jar: jar, Timeout: cfg.Timeout}
	case cfg.HTTPClient.Jar == nil:
		// Copied so the caller's client is left without a jar.
		withJar := *cfg.HTTPClient
		withJar.Jar = jar
		httpClient = &withJar
	default:
		httpClient = cfg.HTTPClient
	}

	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:   httpClient,
		interceptors: append([]Interceptor(nil), cfg.Interceptors...),
		userAgent:    cfg.UserAgent,
		logger:       logger,
	}, nil
}

// BaseURL returns the configured base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Options describes one request.
type Options struct {
	// Method defaults to GET.
	Method string

	// Body is JSON-encoded when non-nil.
	Body any

	// Header entries replace the defaults (Content-Type and Accept,
	// both application/json) key by key.
	Header http.Header
}

// Request sends options to path and decodes a 2xx JSON response into
// a new T. A 204 response returns (nil, nil) without reading the
// body. Failures are *HTTPError or *TransportError; any other error is
// a malformed request or an undecodable success body.
func Request[T any](ctx context.Context, client *Client, path string, options Options) (*T, error) {
	method := options.Method
	if method == "" {
		method = http.MethodGet
	}
	target := client.baseURL + path

	var body io.Reader
	if options.Body != nil {
		encoded, err := json.Marshal(options.Body)
		if err != nil {
			return nil, fmt.Errorf("%s %s: encoding request body: %w", method, path, err)
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: building request: %w", method, path, err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")
	if client.userAgent != "" {
		request.Header.Set("User-Agent", client.userAgent)
	}
	for key, values := range options.Header {
		request.Header[http.CanonicalHeaderKey(key)] = append([]string(nil), values...)
	}

	started := time.Now()
	response, err := client.httpClient.Do(request)
	if err != nil {
		client.logger.Debug("request failed",
			"method", method,
			"path", path,
			"error", err,
		)
		return nil, &TransportError{Method: method, URL: target, Err: err}
	}
	defer response.Body.Close()

	client.logger.Debug("request completed",
		"method", method,
		"path", path,
		"status", response.StatusCode,
		"duration", time.Since(started),
	)

	for _, interceptor := range client.interceptors {
		interceptor.InterceptResponse(ctx, request, response)
	}

	if !netutil.IsSuccess(response.StatusCode) {
		raw, readErr := netutil.ReadBody(response.Body)
		if readErr != nil {
			client.logger.Warn("reading error body failed",
				"path", path,
				"status", response.StatusCode,
				"error", readErr,
			)
		}
		statusText := reasonPhrase(response)
		message, normalized := extractError(response.StatusCode, statusText, raw)
		return nil, &HTTPError{
			Method:     method,
			Path:       path,
			Status:     response.StatusCode,
			StatusText: statusText,
			Body:       normalized,
			Message:    message,
		}
	}

	if response.StatusCode == http.StatusNoContent {
		netutil.Drain(response.Body)
		return nil, nil
	}

	var result T
	if err := netutil.DecodeJSON(response.Body, &result); err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return &result, nil
}

// Get is Request with GET.
func Get[T any](ctx context.Context, client *Client, path string) (*T, error) {
	return Request[T](ctx, client, path, Options{Method: http.MethodGet})
}

// Post is Request with POST and a JSON body. A nil body sends none.
func Post[T any](ctx context.Context, client *Client, path string, body any) (*T, error) {
	return Request[T](ctx, client, path, Options{Method: http.MethodPost, Body: body})
}

// reasonPhrase returns the reason phrase from the status line
// ("404 Not Found" -> "Not Found"), falling back to the standard text.
func reasonPhrase(response *http.Response) string {
	code := strconv.Itoa(response.StatusCode)
	if phrase, ok := strings.CutPrefix(response.Status, code+" "); ok && phrase != "" {
		return phrase
	}
	return http.StatusText(response.StatusCode)
}
