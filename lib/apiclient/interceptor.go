// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package apiclient

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/kioskbank/atm/lib/navigation"
)

// Interceptor observes every received response before the client
// classifies it. Interceptors must not read the response body.
type Interceptor interface {
	InterceptResponse(ctx context.Context, request *http.Request, response *http.Response)
}

// InterceptorFunc adapts a function to Interceptor.
type InterceptorFunc func(ctx context.Context, request *http.Request, response *http.Response)

func (f InterceptorFunc) InterceptResponse(ctx context.Context, request *http.Request, response *http.Response) {
	f(ctx, request, response)
}

// SessionClearer is the part of the session store the expiry
// interceptor needs.
type SessionClearer interface {
	ClearSession()
}

// SessionExpiry returns the interceptor that handles a 401 from any
// endpoint: it resets the whole session and then pushes the
// card-entry screen. Both happen before the caller receives the
// *HTTPError.
func SessionExpiry(store SessionClearer, navigator navigation.Navigator, logger *slog.Logger) Interceptor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return InterceptorFunc(func(_ context.Context, request *http.Request, response *http.Response) {
		if response.StatusCode != http.StatusUnauthorized {
			return
		}
		logger.Info("bank session rejected, returning to card entry",
			"method", request.Method,
			"path", request.URL.Path,
		)
		store.ClearSession()
		navigator.Push(navigation.Card)
	})
}
