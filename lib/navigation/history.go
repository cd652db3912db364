// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package navigation

import (
	"log/slog"
	"sync"
)

// Navigator moves the user between screens. Push adds a history
// entry; Replace swaps the current one, so "back" never returns to it.
type Navigator interface {
	Push(Route)
	Replace(Route)
}

// Kind distinguishes push from replace in the event log.
type Kind string

const (
	KindPush    Kind = "push"
	KindReplace Kind = "replace"
)

// Event is one recorded navigation.
type Event struct {
	Kind  Kind
	Route Route
}

// History is a thread-safe navigation stack. Navigations may arrive
// from request goroutines (the session-expiry interceptor) while the
// UI goroutine reads Current.
type History struct {
	logger *slog.Logger

	mu        sync.Mutex
	stack     []Route
	events    []Event
	listeners map[int]func(Route)
	nextID    int
}

// NewHistory returns a history positioned at start.
func NewHistory(start Route, logger *slog.Logger) *History {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &History{
		logger:    logger,
		stack:     []Route{start},
		listeners: make(map[int]func(Route)),
	}
}

// Push navigates to r, adding a history entry.
func (h *History) Push(r Route) {
	h.navigate(KindPush, r)
}

// Replace navigates to r, replacing the current entry.
func (h *History) Replace(r Route) {
	h.navigate(KindReplace, r)
}

// Back pops the current entry. It reports false, and stays put, when
// there is nothing to go back to.
func (h *History) Back() bool {
	h.mu.Lock()
	if len(h.stack) < 2 {
		h.mu.Unlock()
		return false
	}
	h.stack = h.stack[:len(h.stack)-1]
	current := h.stack[len(h.stack)-1]
	listeners := h.listenersLocked()
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(current)
	}
	return true
}

// Current returns the route on top of the stack.
func (h *History) Current() Route {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stack[len(h.stack)-1]
}

// Depth returns the number of entries on the stack.
func (h *History) Depth() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.stack)
}

// Events returns a copy of every navigation recorded so far.
func (h *History) Events() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Event(nil), h.events...)
}

// Listen registers fn to be called with the new current route after
// every navigation. The returned function unregisters it.
func (h *History) Listen(fn func(Route)) (stop func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.listeners, id)
		h.mu.Unlock()
	}
}

func (h *History) navigate(kind Kind, r Route) {
	h.mu.Lock()
	from := h.stack[len(h.stack)-1]
	if kind == KindReplace {
		h.stack[len(h.stack)-1] = r
	} else {
		h.stack = append(h.stack, r)
	}
	h.events = append(h.events, Event{Kind: kind, Route: r})
	listeners := h.listenersLocked()
	h.mu.Unlock()

	h.logger.Debug("navigate", "kind", string(kind), "from", string(from), "to", string(r))
	for _, fn := range listeners {
		fn(r)
	}
}

func (h *History) listenersLocked() []func(Route) {
	listeners := make([]func(Route), 0, len(h.listeners))
	for _, fn := range h.listeners {
		listeners = append(listeners, fn)
	}
	return listeners
}
