// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kioskbank/atm/lib/clock"
	"github.com/kioskbank/atm/lib/testutil"
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

type counter struct {
	calls atomic.Int32
	value atomic.Int32
}

func (c *counter) fetch(context.Context) (int, error) {
	c.calls.Add(1)
	return int(c.value.Load()), nil
}

func TestGetServesFreshValue(t *testing.T) {
	fake := clock.Fake(epoch)
	cache := NewCache(fake, nil)
	source := &counter{}
	source.value.Store(100)
	balance := New(cache, "balance", 60*time.Second, source.fetch)
	ctx := context.Background()

	for range 3 {
		got, err := balance.Get(ctx)
		if err != nil || got != 100 {
			t.Fatalf("Get = %d, %v", got, err)
		}
	}
	if source.calls.Load() != 1 {
		t.Errorf("fetches = %d, want 1 within the stale window", source.calls.Load())
	}

	fake.Advance(59 * time.Second)
	balance.Get(ctx)
	if source.calls.Load() != 1 {
		t.Errorf("fetches = %d at 59s, want 1", source.calls.Load())
	}

	fake.Advance(time.Second)
	source.value.Store(200)
	got, _ := balance.Get(ctx)
	if got != 200 || source.calls.Load() != 2 {
		t.Errorf("after 60s: Get = %d with %d fetches, want 200 with 2", got, source.calls.Load())
	}
}

func TestInvalidateForcesFetch(t *testing.T) {
	cache := NewCache(clock.Fake(epoch), nil)
	source := &counter{}
	balance := New(cache, "balance", time.Hour, source.fetch)
	ctx := context.Background()

	balance.Get(ctx)
	cache.Invalidate("balance")

	if _, present, fresh := balance.Peek(); !present || fresh {
		t.Errorf("Peek after Invalidate: present %v fresh %v, want true/false", present, fresh)
	}
	balance.Get(ctx)
	if source.calls.Load() != 2 {
		t.Errorf("fetches = %d, want 2 after invalidation", source.calls.Load())
	}
}

func TestInvalidateOtherKeyDoesNotAffect(t *testing.T) {
	cache := NewCache(clock.Fake(epoch), nil)
	source := &counter{}
	balance := New(cache, "balance", time.Hour, source.fetch)
	ctx := context.Background()

	balance.Get(ctx)
	cache.Invalidate("transactions")
	balance.Get(ctx)
	if source.calls.Load() != 1 {
		t.Errorf("fetches = %d, want 1", source.calls.Load())
	}
}

func TestRefetchAlwaysFetches(t *testing.T) {
	cache := NewCache(clock.Fake(epoch), nil)
	source := &counter{}
	balance := New(cache, "balance", time.Hour, source.fetch)
	ctx := context.Background()

	balance.Get(ctx)
	balance.Refetch(ctx)
	if source.calls.Load() != 2 {
		t.Errorf("fetches = %d, want 2", source.calls.Load())
	}
}

func TestErrorsAreNotCached(t *testing.T) {
	cache := NewCache(clock.Fake(epoch), nil)
	failures := 1
	calls := 0
	balance := New(cache, "balance", time.Hour, func(context.Context) (string, error) {
		calls++
		if failures > 0 {
			failures--
			return "", errors.New("bank unavailable")
		}
		return "1250.00", nil
	})
	ctx := context.Background()

	if _, err := balance.Get(ctx); err == nil {
		t.Fatal("first Get should fail")
	}
	if _, present, _ := balance.Peek(); present {
		t.Error("failed fetch left a cached value")
	}
	got, err := balance.Get(ctx)
	if err != nil || got != "1250.00" || calls != 2 {
		t.Errorf("second Get = %q, %v after %d calls", got, err, calls)
	}
}

func TestInvalidateDuringFetchLeavesResultStale(t *testing.T) {
	cache := NewCache(clock.Fake(epoch), nil)
	var calls atomic.Int32
	balance := New(cache, "balance", time.Hour, func(context.Context) (int, error) {
		n := calls.Add(1)
		if n == 1 {
			// A deposit lands while the first read is in flight.
			cache.Invalidate("balance")
		}
		return int(n), nil
	})
	ctx := context.Background()

	first, _ := balance.Get(ctx)
	second, _ := balance.Get(ctx)
	if first != 1 || second != 2 {
		t.Errorf("Get results = %d, %d; want the second Get to refetch", first, second)
	}
}

func TestConcurrentGetsShareOneFetch(t *testing.T) {
	cache := NewCache(clock.Fake(epoch), nil)
	release := make(chan struct{})
	var calls atomic.Int32
	balance := New(cache, "balance", time.Hour, func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 7, nil
	})

	var started, done sync.WaitGroup
	for range 5 {
		started.Add(1)
		done.Add(1)
		go func() {
			defer done.Done()
			started.Done()
			balance.Get(context.Background())
		}()
	}
	started.Wait()
	time.Sleep(20 * time.Millisecond)
	close(release)
	done.Wait()

	if calls.Load() < 1 || calls.Load() > 2 {
		t.Errorf("fetches = %d, want the concurrent Gets to share", calls.Load())
	}
}

func TestCancelledCallerDoesNotFailOthers(t *testing.T) {
	cache := NewCache(clock.Fake(epoch), nil)
	entered := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	balance := New(cache, "balance", time.Hour, func(ctx context.Context) (int, error) {
		if calls.Add(1) == 1 {
			close(entered)
		}
		<-release
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		return 42, nil
	})

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderDone := make(chan error, 1)
	go func() {
		_, err := balance.Get(leaderCtx)
		leaderDone <- err
	}()
	testutil.Closed(t, entered, "first fetch started")

	type outcome struct {
		value int
		err   error
	}
	followerDone := make(chan outcome, 1)
	go func() {
		value, err := balance.Get(context.Background())
		followerDone <- outcome{value, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	if err := testutil.Receive(t, leaderDone, "cancelled Get"); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled Get = %v, want context.Canceled", err)
	}

	close(release)
	follower := testutil.Receive(t, followerDone, "live Get")
	if follower.err != nil || follower.value != 42 {
		t.Fatalf("live Get = %d, %v; want 42", follower.value, follower.err)
	}
	if value, present, fresh := balance.Peek(); !present || !fresh || value != 42 {
		t.Errorf("Peek = %d present=%v fresh=%v, want the shared result cached", value, present, fresh)
	}
}

func TestFocusRespectsSwitch(t *testing.T) {
	fake := clock.Fake(epoch)
	cache := NewCache(fake, nil)
	source := &counter{}
	balance := New(cache, "balance", time.Minute, source.fetch)
	ctx := context.Background()

	balance.Get(ctx)
	fake.Advance(2 * time.Minute)

	fetched, err := balance.Focus(ctx)
	if fetched || err != nil || source.calls.Load() != 1 {
		t.Errorf("Focus with RefetchOnFocus=false fetched (%v, %v, %d calls)", fetched, err, source.calls.Load())
	}

	balance.RefetchOnFocus = true
	fetched, _ = balance.Focus(ctx)
	if !fetched || source.calls.Load() != 2 {
		t.Errorf("Focus with RefetchOnFocus=true: fetched %v, %d calls", fetched, source.calls.Load())
	}
	fetched, _ = balance.Focus(ctx)
	if fetched {
		t.Error("Focus refetched a fresh value")
	}
}

func TestClear(t *testing.T) {
	cache := NewCache(clock.Fake(epoch), nil)
	source := &counter{}
	balance := New(cache, "balance", time.Hour, source.fetch)
	balance.Get(context.Background())

	cache.Clear()
	if _, present, _ := balance.Peek(); present {
		t.Error("value present after Clear")
	}
}

func TestInvalidatePrefix(t *testing.T) {
	cache := NewCache(clock.Fake(epoch), nil)
	short, long, other := &counter{}, &counter{}, &counter{}
	ctx := context.Background()
	recent := New(cache, "transactions/5", time.Hour, short.fetch)
	all := New(cache, "transactions/50", time.Hour, long.fetch)
	balance := New(cache, "balance", time.Hour, other.fetch)
	recent.Get(ctx)
	all.Get(ctx)
	balance.Get(ctx)

	cache.InvalidatePrefix("transactions/")
	if _, _, fresh := recent.Peek(); fresh {
		t.Error("transactions/5 still fresh")
	}
	if _, _, fresh := all.Peek(); fresh {
		t.Error("transactions/50 still fresh")
	}
	if _, _, fresh := balance.Peek(); !fresh {
		t.Error("balance went stale")
	}
}
