// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/kioskbank/atm/cmd/atm/cli"
	"github.com/kioskbank/atm/lib/mockbank"
)

// kiosk is a config file pointing at a fresh mock bank, with file
// storage in a temporary directory.
type kiosk struct {
	t          *testing.T
	dir        string
	configPath string
}

func newKiosk(t *testing.T) *kiosk {
	t.Helper()
	bank, err := mockbank.New(mockbank.Config{BcryptCost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("mockbank.New: %v", err)
	}
	server := httptest.NewServer(mockbank.NewServer(bank, nil))
	t.Cleanup(server.Close)

	dir := t.TempDir()
	configPath := filepath.Join(dir, "atm.yaml")
	contents := fmt.Sprintf(`environment: development
root: %[1]s
api:
  base_url: %[2]s
  timeout: 5s
storage:
  backend: file
  path: %[1]s/state
receipts:
  path: %[1]s/receipts.cbor
log:
  level: error
`, dir, server.URL)
	if err := os.WriteFile(configPath, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}
	return &kiosk{t: t, dir: dir, configPath: configPath}
}

// run executes one atm invocation with --config and returns stdout.
func (k *kiosk) run(args ...string) (string, error) {
	k.t.Helper()
	var stdout bytes.Buffer
	previousOut, previousErr := cli.Stdout, cli.Stderr
	cli.Stdout, cli.Stderr = &stdout, io.Discard
	defer func() { cli.Stdout, cli.Stderr = previousOut, previousErr }()

	err := rootCommand().Execute(context.Background(), append(args, "--config", k.configPath))
	return stdout.String(), err
}

func (k *kiosk) mustRun(args ...string) string {
	k.t.Helper()
	output, err := k.run(args...)
	if err != nil {
		k.t.Fatalf("atm %s: %v", strings.Join(args, " "), err)
	}
	return output
}

func (k *kiosk) pinFile(pin string) string {
	k.t.Helper()
	path := filepath.Join(k.dir, "pin")
	if err := os.WriteFile(path, []byte(pin+"\n"), 0o600); err != nil {
		k.t.Fatal(err)
	}
	return path
}

func (k *kiosk) signIn() {
	k.t.Helper()
	k.mustRun("card", "insert", "TOK_VISA_1111")
	output := k.mustRun("pin", "--pin-file", k.pinFile("1234"))
	if !strings.Contains(output, "Welcome, Alex Rivera!") {
		k.t.Fatalf("pin output = %q", output)
	}
}

func requireCategory(t *testing.T, err error, category cli.ErrorCategory) *cli.ToolError {
	t.Helper()
	var toolErr *cli.ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("err = %v, want a %s ToolError", err, category)
	}
	if toolErr.Category != category {
		t.Fatalf("category = %s (%v), want %s", toolErr.Category, err, category)
	}
	return toolErr
}

func TestGuardsDenyWithoutSession(t *testing.T) {
	k := newKiosk(t)

	_, err := k.run("balance")
	requireCategory(t, err, cli.CategoryDenied)
	if cli.ExitCode(err) != cli.ExitDenied {
		t.Errorf("exit code = %d, want %d", cli.ExitCode(err), cli.ExitDenied)
	}

	_, err = k.run("pin", "--pin-file", k.pinFile("1234"))
	denied := requireCategory(t, err, cli.CategoryDenied)
	if !strings.Contains(denied.Error(), "atm card insert") {
		t.Errorf("denial = %q", denied.Error())
	}
}

func TestCustomerVisit(t *testing.T) {
	k := newKiosk(t)
	k.signIn()

	var balance struct{ Balance string }
	if err := json.Unmarshal([]byte(k.mustRun("balance", "--json")), &balance); err != nil {
		t.Fatal(err)
	}
	if balance.Balance != "1250.00" {
		t.Errorf("balance = %q", balance.Balance)
	}

	output := k.mustRun("deposit", "50")
	if output != "Deposit successful. New balance: $1,300.00\n" {
		t.Errorf("deposit output = %q", output)
	}
	output = k.mustRun("withdraw", "$25.50")
	if !strings.Contains(output, "$1,274.50") {
		t.Errorf("withdraw output = %q", output)
	}

	var items []map[string]any
	if err := json.Unmarshal([]byte(k.mustRun("transactions", "--json", "--limit", "5")), &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[0]["type"] != "withdrawal" {
		t.Errorf("transactions = %v", items)
	}

	var receipts []map[string]any
	if err := json.Unmarshal([]byte(k.mustRun("receipts", "--json")), &receipts); err != nil {
		t.Fatal(err)
	}
	if len(receipts) != 2 || receipts[0]["kind"] != "deposit" || receipts[0]["customerName"] != "Alex Rivera" {
		t.Errorf("receipts = %v", receipts)
	}

	var view sessionView
	if err := json.Unmarshal([]byte(k.mustRun("session", "show", "--json")), &view); err != nil {
		t.Fatal(err)
	}
	if !view.Authenticated || view.CardNetwork != "visa" || view.Card == "" || view.Card == "TOK_VISA_1111" {
		t.Errorf("session = %+v", view)
	}

	if output := k.mustRun("logout"); output != "Logged out.\n" {
		t.Errorf("logout output = %q", output)
	}
	_, err := k.run("balance")
	requireCategory(t, err, cli.CategoryDenied)
}

func TestWrongPINEndsVisit(t *testing.T) {
	k := newKiosk(t)
	k.mustRun("card", "insert", "TOK_VISA_1111")

	_, err := k.run("pin", "--pin-file", k.pinFile("9999"))
	rejected := requireCategory(t, err, cli.CategoryRejected)
	if !strings.Contains(rejected.Error(), "Invalid PIN or card") {
		t.Errorf("message = %q", rejected.Error())
	}

	// The 401 evicted the card as well.
	_, err = k.run("pin", "--pin-file", k.pinFile("1234"))
	requireCategory(t, err, cli.CategoryDenied)
}

func TestClientValidation(t *testing.T) {
	k := newKiosk(t)

	_, err := k.run("card", "insert", "   ")
	requireCategory(t, err, cli.CategoryValidation)

	k.mustRun("card", "insert", "TOK_VISA_1111")
	_, err = k.run("pin", "--pin-file", k.pinFile("12"))
	invalid := requireCategory(t, err, cli.CategoryValidation)
	if !strings.Contains(invalid.Error(), "Invalid PIN") {
		t.Errorf("message = %q", invalid.Error())
	}

	k.mustRun("pin", "--pin-file", k.pinFile("1234"))
	_, err = k.run("deposit", "lots")
	requireCategory(t, err, cli.CategoryValidation)
	_, err = k.run("withdraw", "999999")
	requireCategory(t, err, cli.CategoryRejected)
}

func TestSessionClear(t *testing.T) {
	k := newKiosk(t)
	k.signIn()
	k.mustRun("session", "clear")

	var view sessionView
	if err := json.Unmarshal([]byte(k.mustRun("session", "show", "--json")), &view); err != nil {
		t.Fatal(err)
	}
	if view.Authenticated || view.Card != "" {
		t.Errorf("session after clear = %+v", view)
	}
}

func TestCardEject(t *testing.T) {
	k := newKiosk(t)
	k.mustRun("card", "insert", "TOK_VISA_1111")
	k.mustRun("card", "eject")
	_, err := k.run("pin", "--pin-file", k.pinFile("1234"))
	requireCategory(t, err, cli.CategoryDenied)
}

func TestStorageKeygen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "seal.txt")
	var stdout bytes.Buffer
	previous := cli.Stdout
	cli.Stdout = &stdout
	defer func() { cli.Stdout = previous }()

	if err := rootCommand().Execute(context.Background(), []string{"storage", "keygen", path}); err != nil {
		t.Fatalf("keygen: %v", err)
	}
	if !strings.Contains(stdout.String(), "Public key: age1") {
		t.Errorf("output = %q", stdout.String())
	}
	if err := rootCommand().Execute(context.Background(), []string{"storage", "keygen", path}); err == nil {
		t.Error("keygen overwrote an existing identity")
	}
}

func TestStartRoute(t *testing.T) {
	k := newKiosk(t)
	k.mustRun("card", "insert", "TOK_VISA_1111")
	a, err := openApp(context.Background(), AppParams{ConfigPath: k.configPath}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	if route := startRoute(a.store.Session()); route != "/pin" {
		t.Errorf("start route = %s, want /pin", route)
	}
}
