// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

// Package mutation runs server writes and reports their outcome both
// as a returned [Result] and through optional success/error
// continuations.
//
// A [Mutation] exposes [Mutation.Pending] so a screen can disable its
// submit action while a write is in flight. Nothing here prevents
// concurrent Mutate calls; preventing double submission is the
// caller's job. There are no automatic retries.
package mutation

import (
	"context"
	"sync/atomic"
)

// Result is the outcome of one Mutate call: exactly one of Value and
// Err is meaningful.
type Result[T any] struct {
	Value T
	Err   error
}

// OK reports whether the mutation succeeded.
func (r Result[T]) OK() bool { return r.Err == nil }

// Options are the continuations invoked after a mutation settles.
// Exactly one of OnSuccess and OnError runs per Mutate call.
type Options[T any] struct {
	OnSuccess func(T)
	OnError   func(error)
}

// Mutation wraps a write function.
type Mutation[In, Out any] struct {
	run       func(context.Context, In) (Out, error)
	onSuccess func(Out)
	onError   func(error)
	pending   atomic.Int32
}

// New returns a Mutation that calls run. The hooks are internal
// side effects (cache invalidation, navigation) and run before the
// caller's continuations from options.
func New[In, Out any](run func(context.Context, In) (Out, error), hooks Options[Out], options Options[Out]) *Mutation[In, Out] {
	return &Mutation[In, Out]{
		run:       run,
		onSuccess: chain(hooks.OnSuccess, options.OnSuccess),
		onError:   chain(hooks.OnError, options.OnError),
	}
}

// Mutate runs the write once and returns its result.
func (m *Mutation[In, Out]) Mutate(ctx context.Context, input In) Result[Out] {
	m.pending.Add(1)
	value, err := m.run(ctx, input)
	m.pending.Add(-1)

	if err != nil {
		if m.onError != nil {
			m.onError(err)
		}
		return Result[Out]{Err: err}
	}
	if m.onSuccess != nil {
		m.onSuccess(value)
	}
	return Result[Out]{Value: value}
}

// Pending reports whether any Mutate call is in flight.
func (m *Mutation[In, Out]) Pending() bool {
	return m.pending.Load() > 0
}

func chain[T any](first, second func(T)) func(T) {
	switch {
	case first == nil:
		return second
	case second == nil:
		return first
	}
	return func(v T) {
		first(v)
		second(v)
	}
}
