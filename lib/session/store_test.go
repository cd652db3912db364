// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/kioskbank/atm/lib/testutil"
)

func TestSetSessionMergesFields(t *testing.T) {
	store := NewStore(nil, nil)
	store.SetCardIdentity(CardIdentity{CardToken: String("TOK_VISA_1111")})

	store.SetSession(Partial{
		IsAuthenticated: Set(true),
		CustomerName:    SetString("Alex Rivera"),
	})
	store.SetSession(Partial{CardNetwork: SetString("visa")})

	got := store.Session()
	if !got.IsAuthenticated {
		t.Error("IsAuthenticated = false, want true")
	}
	if Deref(got.CustomerName) != "Alex Rivera" {
		t.Errorf("CustomerName = %q, want Alex Rivera", Deref(got.CustomerName))
	}
	if Deref(got.CardNetwork) != "visa" {
		t.Errorf("CardNetwork = %q, want visa", Deref(got.CardNetwork))
	}
	if got.Token() != "TOK_VISA_1111" {
		t.Errorf("CardToken = %q, want TOK_VISA_1111 (untouched by merge)", got.Token())
	}
}

func TestSetSessionUnsetField(t *testing.T) {
	store := NewStore(nil, nil)
	store.SetSession(Partial{CustomerName: SetString("Sam Lee")})
	store.SetSession(Partial{CustomerName: Unset()})

	if got := store.Session().CustomerName; got != nil {
		t.Errorf("CustomerName = %q, want nil", *got)
	}
}

func TestClearSessionIsIdempotent(t *testing.T) {
	store := NewStore(nil, nil)
	store.SetSession(Partial{
		IsAuthenticated: Set(true),
		CustomerName:    SetString("Sam Lee"),
		CardNetwork:     SetString("mastercard"),
		CardToken:       SetString("TOK_MC_2222"),
		BIN:             SetString("555555"),
		Last4:           SetString("2222"),
	})

	store.ClearSession()
	first := store.Session()
	store.ClearSession()
	second := store.Session()

	if !sessionsEqual(first, Default()) {
		t.Errorf("after ClearSession: %+v, want default", first)
	}
	if !sessionsEqual(first, second) {
		t.Errorf("second ClearSession changed state: %+v vs %+v", first, second)
	}
}

func TestSetCardIdentityOverwritesAllFields(t *testing.T) {
	store := NewStore(nil, nil)
	store.SetCardIdentity(CardIdentity{
		CardToken: String("TOK_VISA_1111"),
		BIN:       String("411111"),
		Last4:     String("1111"),
	})

	store.SetCardIdentity(CardIdentity{CardToken: String("X")})

	got := store.Session()
	if got.Token() != "X" {
		t.Errorf("CardToken = %q, want X", got.Token())
	}
	if got.BIN != nil || got.Last4 != nil {
		t.Errorf("BIN/Last4 = %v/%v, want nil/nil", got.BIN, got.Last4)
	}
}

func TestClearCardIdentityPreservesAuthentication(t *testing.T) {
	store := NewStore(nil, nil)
	store.SetSession(Partial{IsAuthenticated: Set(true), CustomerName: SetString("Alex Rivera")})
	store.SetCardIdentity(CardIdentity{CardToken: String("TOK_VISA_1111")})

	store.ClearCardIdentity()

	got := store.Session()
	if !got.IsAuthenticated {
		t.Error("ClearCardIdentity dropped authentication")
	}
	if got.HasCard() {
		t.Errorf("card token still present: %q", got.Token())
	}
	if Deref(got.CustomerName) != "Alex Rivera" {
		t.Errorf("CustomerName = %q, want Alex Rivera", Deref(got.CustomerName))
	}
}

func TestSessionSnapshotsAreIndependent(t *testing.T) {
	store := NewStore(nil, nil)
	store.SetCardIdentity(CardIdentity{CardToken: String("TOK")})

	snapshot := store.Session()
	*snapshot.CardToken = "mutated"

	if got := store.Session().Token(); got != "TOK" {
		t.Errorf("store token = %q after mutating a snapshot, want TOK", got)
	}
}

func TestPersistedRecordShape(t *testing.T) {
	storage := NewMemoryStorage()
	store := NewStore(storage, nil)
	store.SetSession(Partial{
		IsAuthenticated: Set(true),
		CustomerName:    SetString("Alex Rivera"),
	})

	raw, found, err := storage.GetItem(context.Background(), StorageKey)
	if err != nil || !found {
		t.Fatalf("GetItem(%q) = found %v, err %v", StorageKey, found, err)
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	if len(decoded) != 2 {
		t.Errorf("record keys = %v, want session and version only", keys(decoded))
	}

	var fields map[string]any
	if err := json.Unmarshal(decoded["session"], &fields); err != nil {
		t.Fatalf("session is not an object: %v", err)
	}
	if fields["isAuthenticated"] != true {
		t.Errorf("isAuthenticated = %v", fields["isAuthenticated"])
	}
	if _, present := fields["cardNetwork"]; present {
		t.Error("unset cardNetwork should be omitted")
	}
	if value, present := fields["cardToken"]; !present || value != nil {
		t.Errorf("cardToken = %v (present %v), want explicit null", value, present)
	}
}

func TestHydrateRestoresPersistedSession(t *testing.T) {
	storage := NewMemoryStorage()
	first := NewStore(storage, nil)
	first.SetSession(Partial{IsAuthenticated: Set(true), CardNetwork: SetString("maestro")})
	first.SetCardIdentity(CardIdentity{CardToken: String("TOK_MAESTRO_3333")})

	second := NewStore(storage, nil)
	if second.Hydrated() {
		t.Fatal("new store reports hydrated before Hydrate")
	}
	if err := second.Hydrate(context.Background()); err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	if !second.Hydrated() {
		t.Fatal("Hydrated() = false after Hydrate")
	}

	got := second.Session()
	if !got.IsAuthenticated || Deref(got.CardNetwork) != "maestro" || got.Token() != "TOK_MAESTRO_3333" {
		t.Errorf("hydrated session = %+v", got)
	}
}

func TestHydrateWithNoopStorage(t *testing.T) {
	store := NewStore(NoopStorage{}, nil)
	store.SetSession(Partial{IsAuthenticated: Set(true)})

	if err := store.Hydrate(context.Background()); err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	if !store.Session().IsAuthenticated {
		t.Error("Hydrate with nothing persisted replaced the in-memory session")
	}
}

func TestHydrateCorruptRecordStillMounts(t *testing.T) {
	storage := NewMemoryStorage()
	storage.SetItem(context.Background(), StorageKey, "{not json")

	store := NewStore(storage, nil)
	if err := store.Hydrate(context.Background()); err == nil {
		t.Error("Hydrate of a corrupt record returned nil error")
	}
	if !store.Hydrated() {
		t.Error("store not mounted after a failed hydrate")
	}
	if !sessionsEqual(store.Session(), Default()) {
		t.Errorf("session = %+v, want default", store.Session())
	}
}

// slowReadStorage returns what GetItem found at call time, but only
// after release is closed.
type slowReadStorage struct {
	*MemoryStorage
	entered chan struct{}
	release chan struct{}
}

func (s slowReadStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	value, found, err := s.MemoryStorage.GetItem(ctx, key)
	close(s.entered)
	<-s.release
	return value, found, err
}

func TestHydrateKeepsWriteMadeDuringRead(t *testing.T) {
	memory := NewMemoryStorage()
	NewStore(memory, nil).SetSession(Partial{IsAuthenticated: Set(true)})

	storage := slowReadStorage{
		MemoryStorage: memory,
		entered:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	store := NewStore(storage, nil)
	done := make(chan error, 1)
	go func() { done <- store.Hydrate(context.Background()) }()

	testutil.Closed(t, storage.entered, "hydrate reading storage")
	store.SetCardIdentity(CardIdentity{CardToken: String("TOK")})
	close(storage.release)
	if err := testutil.Receive(t, done, "hydrate"); err != nil {
		t.Fatalf("Hydrate: %v", err)
	}

	if !store.Hydrated() {
		t.Error("store not mounted")
	}
	got := store.Session()
	if got.Token() != "TOK" || got.IsAuthenticated {
		t.Errorf("in-memory session = %+v, want the card write to win", got)
	}

	value, _, _ := memory.GetItem(context.Background(), StorageKey)
	var persisted record
	if err := json.Unmarshal([]byte(value), &persisted); err != nil {
		t.Fatal(err)
	}
	if !sessionsEqual(persisted.Session, got) {
		t.Errorf("storage holds %+v, memory holds %+v", persisted.Session, got)
	}
}

type failingStorage struct{ NoopStorage }

func (failingStorage) SetItem(context.Context, string, string) error {
	return errors.New("disk full")
}

func TestWriteFailureKeepsInMemoryState(t *testing.T) {
	store := NewStore(failingStorage{}, nil)
	store.SetSession(Partial{IsAuthenticated: Set(true)})
	if !store.Session().IsAuthenticated {
		t.Error("failed persistence rolled back the in-memory session")
	}
}

func TestSubscribeSeesEveryMutation(t *testing.T) {
	store := NewStore(nil, nil)
	var seen []bool
	unsubscribe := store.Subscribe(func(s Session) {
		seen = append(seen, s.IsAuthenticated)
	})

	store.SetSession(Partial{IsAuthenticated: Set(true)})
	store.ClearSession()
	unsubscribe()
	store.SetSession(Partial{IsAuthenticated: Set(true)})

	if len(seen) != 2 || seen[0] != true || seen[1] != false {
		t.Errorf("listener saw %v, want [true false]", seen)
	}
}

func TestPurgeRemovesRecord(t *testing.T) {
	storage := NewMemoryStorage()
	store := NewStore(storage, nil)
	store.SetSession(Partial{IsAuthenticated: Set(true)})

	if err := store.Purge(context.Background()); err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if _, found, _ := storage.GetItem(context.Background(), StorageKey); found {
		t.Error("record still present after Purge")
	}
	if store.Session().IsAuthenticated {
		t.Error("session still authenticated after Purge")
	}
}

func TestFingerprint(t *testing.T) {
	if Fingerprint("") != "" {
		t.Error("Fingerprint(\"\") should be empty")
	}
	a := Fingerprint("TOK_VISA_1111")
	if len(a) != 12 {
		t.Errorf("fingerprint length = %d, want 12", len(a))
	}
	if a != Fingerprint("TOK_VISA_1111") {
		t.Error("fingerprint is not stable")
	}
	if a == Fingerprint("TOK_MC_2222") {
		t.Error("distinct tokens share a fingerprint")
	}
}

func sessionsEqual(a, b Session) bool {
	return a.IsAuthenticated == b.IsAuthenticated &&
		equalPtr(a.CustomerName, b.CustomerName) &&
		equalPtr(a.CardNetwork, b.CardNetwork) &&
		equalPtr(a.CardToken, b.CardToken) &&
		equalPtr(a.BIN, b.BIN) &&
		equalPtr(a.Last4, b.Last4)
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func keys(m map[string]json.RawMessage) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
