// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/kioskbank/atm/lib/clock"
	"github.com/kioskbank/atm/lib/session"
)

// CookieStorageKey is the storage key PersistentJar saves under.
const CookieStorageKey = "atm-cookies"

func newMemoryJar() (*cookiejar.Jar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("apiclient: creating cookie jar: %w", err)
	}
	return jar, nil
}

// savedCookie is the persisted form of one cookie for the bank's base
// URL. Expires is zero for session cookies.
type savedCookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Path    string    `json:"path,omitempty"`
	Expires time.Time `json:"expires,omitzero"`
}

// PersistentJar is an http.CookieJar that also writes the cookies set
// by the bank to session storage, and restores them when constructed.
// Only cookies for the configured base URL are persisted.
type PersistentJar struct {
	base    *url.URL
	storage session.Storage
	clock   clock.Clock
	logger  *slog.Logger

	mu    sync.Mutex
	inner *cookiejar.Jar
	saved map[string]savedCookie
}

// NewPersistentJar returns a jar for baseURL, pre-loaded from storage.
// Expired cookies in storage are dropped. An unreadable record is
// logged and ignored.
func NewPersistentJar(ctx context.Context, baseURL string, storage session.Storage, clk clock.Clock, logger *slog.Logger) (*PersistentJar, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("apiclient: parsing base URL: %w", err)
	}
	inner, err := newMemoryJar()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if clk == nil {
		clk = clock.Real()
	}

	jar := &PersistentJar{
		base:    base,
		storage: storage,
		clock:   clk,
		logger:  logger,
		inner:   inner,
		saved:   make(map[string]savedCookie),
	}

	raw, found, err := storage.GetItem(ctx, CookieStorageKey)
	if err != nil {
		logger.Warn("reading saved cookies failed", "error", err)
		return jar, nil
	}
	if !found {
		return jar, nil
	}
	var cookies []savedCookie
	if err := json.Unmarshal([]byte(raw), &cookies); err != nil {
		logger.Warn("ignoring unreadable saved cookies", "error", err)
		return jar, nil
	}

	now := clk.Now()
	restored := make([]*http.Cookie, 0, len(cookies))
	for _, cookie := range cookies {
		if !cookie.Expires.IsZero() && !cookie.Expires.After(now) {
			continue
		}
		jar.saved[cookie.Name] = cookie
		// Expiry was checked against clk above; the inner jar holds the
		// restored cookie for the life of the process.
		restored = append(restored, &http.Cookie{
			Name:  cookie.Name,
			Value: cookie.Value,
			Path:  cookie.Path,
		})
	}
	inner.SetCookies(base, restored)
	return jar, nil
}

// SetCookies implements http.CookieJar.
func (j *PersistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.inner.SetCookies(u, cookies)
	if u.Host != j.base.Host {
		return
	}

	now := j.clock.Now()
	for _, cookie := range cookies {
		expires := cookie.Expires
		if cookie.MaxAge > 0 {
			expires = now.Add(time.Duration(cookie.MaxAge) * time.Second)
		}
		if cookie.MaxAge < 0 || (!expires.IsZero() && !expires.After(now)) {
			delete(j.saved, cookie.Name)
			continue
		}
		j.saved[cookie.Name] = savedCookie{
			Name:    cookie.Name,
			Value:   cookie.Value,
			Path:    cookie.Path,
			Expires: expires,
		}
	}
	j.persistLocked()
}

// Cookies implements http.CookieJar.
func (j *PersistentJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.inner.Cookies(u)
}

// Clear forgets every cookie, in memory and in storage.
func (j *PersistentJar) Clear(ctx context.Context) error {
	inner, err := newMemoryJar()
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.inner = inner
	j.saved = make(map[string]savedCookie)
	if err := j.storage.RemoveItem(ctx, CookieStorageKey); err != nil {
		return fmt.Errorf("removing saved cookies: %w", err)
	}
	return nil
}

func (j *PersistentJar) persistLocked() {
	cookies := make([]savedCookie, 0, len(j.saved))
	for _, cookie := range j.saved {
		cookies = append(cookies, cookie)
	}
	data, err := json.Marshal(cookies)
	if err != nil {
		j.logger.Warn("encoding cookies failed", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := j.storage.SetItem(ctx, CookieStorageKey, string(data)); err != nil {
		j.logger.Warn("persisting cookies failed", "error", err)
	}
}
