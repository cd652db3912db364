// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package sessionstorage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filippo.io/age"
	"github.com/spf13/afero"

	"github.com/kioskbank/atm/lib/config"
	"github.com/kioskbank/atm/lib/session"
)

// exerciseStorage checks the get/set/remove contract every backend
// must honor.
func exerciseStorage(t *testing.T, storage session.Storage) {
	t.Helper()
	ctx := context.Background()

	if _, found, err := storage.GetItem(ctx, "atm-session"); err != nil || found {
		t.Fatalf("GetItem on empty backend = found %v, err %v", found, err)
	}

	if err := storage.SetItem(ctx, "atm-session", `{"session":{}}`); err != nil {
		t.Fatalf("SetItem: %v", err)
	}
	if err := storage.SetItem(ctx, "atm-session", `{"session":{"isAuthenticated":true}}`); err != nil {
		t.Fatalf("SetItem overwrite: %v", err)
	}
	value, found, err := storage.GetItem(ctx, "atm-session")
	if err != nil || !found {
		t.Fatalf("GetItem after SetItem = found %v, err %v", found, err)
	}
	if value != `{"session":{"isAuthenticated":true}}` {
		t.Errorf("GetItem = %q, want the last written value", value)
	}

	if err := storage.RemoveItem(ctx, "atm-session"); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if _, found, _ := storage.GetItem(ctx, "atm-session"); found {
		t.Error("item still present after RemoveItem")
	}
	if err := storage.RemoveItem(ctx, "atm-session"); err != nil {
		t.Errorf("RemoveItem of a missing key: %v", err)
	}
}

func TestFileBackend(t *testing.T) {
	exerciseStorage(t, NewFile(afero.NewMemMapFs(), "/state"))
}

func TestFileBackendPermissions(t *testing.T) {
	directory := filepath.Join(t.TempDir(), "state")
	storage := NewFile(afero.NewOsFs(), directory)
	if err := storage.SetItem(context.Background(), "atm-session", "{}"); err != nil {
		t.Fatalf("SetItem: %v", err)
	}

	info, err := os.Stat(filepath.Join(directory, "atm-session.json"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("file mode = %o, want 600", info.Mode().Perm())
	}
	dirInfo, err := os.Stat(directory)
	if err != nil {
		t.Fatalf("stat dir: %v", err)
	}
	if dirInfo.Mode().Perm() != 0o700 {
		t.Errorf("directory mode = %o, want 700", dirInfo.Mode().Perm())
	}

	entries, _ := os.ReadDir(directory)
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want 1 (no leftover temp files)", len(entries))
	}
}

func TestFileBackendRejectsPathKeys(t *testing.T) {
	storage := NewFile(afero.NewMemMapFs(), "/state")
	for _, key := range []string{"../escape", "a/b", ""} {
		if err := storage.SetItem(context.Background(), key, "x"); err == nil {
			t.Errorf("SetItem(%q) succeeded, want an error", key)
		}
	}
}

func TestSQLiteBackend(t *testing.T) {
	storage, err := OpenSQLite(filepath.Join(t.TempDir(), "session.db"), nil)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { storage.Close() })
	exerciseStorage(t, storage)
}

func TestRedisBackend(t *testing.T) {
	addr := os.Getenv("ATM_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("ATM_TEST_REDIS_ADDR not set")
	}
	storage, err := DialRedis(context.Background(), addr, "atm-test:"+t.Name()+":")
	if err != nil {
		t.Fatalf("DialRedis: %v", err)
	}
	t.Cleanup(func() { storage.Close() })
	exerciseStorage(t, storage)
}

func TestSealedBackend(t *testing.T) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		t.Fatalf("GenerateX25519Identity: %v", err)
	}
	inner := session.NewMemoryStorage()
	sealed := NewSealed(inner, identity)
	exerciseStorage(t, sealed)

	ctx := context.Background()
	if err := sealed.SetItem(ctx, "atm-session", `{"cardToken":"TOK_VISA_1111"}`); err != nil {
		t.Fatalf("SetItem: %v", err)
	}
	raw, _, _ := inner.GetItem(ctx, "atm-session")
	if strings.Contains(raw, "TOK_VISA_1111") {
		t.Error("inner backend holds the card token in cleartext")
	}

	other, _ := age.GenerateX25519Identity()
	if _, _, err := NewSealed(inner, other).GetItem(ctx, "atm-session"); err == nil {
		t.Error("decrypting with the wrong identity succeeded")
	}
}

func TestGenerateAndLoadIdentity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "session.agekey")
	recipient, err := GenerateIdentity(path)
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	if !strings.HasPrefix(recipient, "age1") {
		t.Errorf("recipient = %q, want age1... prefix", recipient)
	}

	identity, err := LoadIdentity(path)
	if err != nil {
		t.Fatalf("LoadIdentity: %v", err)
	}
	if identity.Recipient().String() != recipient {
		t.Error("loaded identity does not match the generated recipient")
	}

	if _, err := GenerateIdentity(path); err == nil {
		t.Error("GenerateIdentity overwrote an existing file")
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	directory := t.TempDir()

	tests := []struct {
		name string
		cfg  config.StorageConfig
	}{
		{"none", config.StorageConfig{Backend: config.BackendNone}},
		{"memory", config.StorageConfig{Backend: config.BackendMemory}},
		{"file", config.StorageConfig{Backend: config.BackendFile, Path: filepath.Join(directory, "files")}},
		{"sqlite", config.StorageConfig{Backend: config.BackendSQLite, Path: filepath.Join(directory, "db", "session.db")}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			backend, err := Open(ctx, test.cfg, nil)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer backend.Close()
			if backend.Name != test.cfg.Backend {
				t.Errorf("Name = %q, want %q", backend.Name, test.cfg.Backend)
			}
			if err := backend.SetItem(ctx, "probe", "1"); err != nil {
				t.Errorf("SetItem: %v", err)
			}
		})
	}

	if _, err := Open(ctx, config.StorageConfig{Backend: "etcd"}, nil); err == nil {
		t.Error("Open accepted an unknown backend")
	}
}

func TestOpenSealed(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "session.agekey")
	if _, err := GenerateIdentity(keyPath); err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	backend, err := Open(context.Background(), config.StorageConfig{
		Backend:     config.BackendMemory,
		SealKeyFile: keyPath,
	}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := backend.Storage.(*Sealed); !ok {
		t.Errorf("backend storage is %T, want *Sealed", backend.Storage)
	}
}
