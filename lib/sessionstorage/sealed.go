// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package sessionstorage

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"

	"github.com/kioskbank/atm/lib/session"
)

// Sealed encrypts every value to an age X25519 identity before handing
// it to the inner backend, and decrypts on the way back. Values are
// stored as base64 of the age ciphertext.
type Sealed struct {
	inner     session.Storage
	identity  *age.X25519Identity
	recipient *age.X25519Recipient
}

// NewSealed wraps inner with encryption to identity.
func NewSealed(inner session.Storage, identity *age.X25519Identity) *Sealed {
	return &Sealed{
		inner:     inner,
		identity:  identity,
		recipient: identity.Recipient(),
	}
}

func (s *Sealed) GetItem(ctx context.Context, key string) (string, bool, error) {
	ciphertext, found, err := s.inner.GetItem(ctx, key)
	if err != nil || !found {
		return "", found, err
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", false, fmt.Errorf("decoding sealed %s: %w", key, err)
	}
	reader, err := age.Decrypt(bytes.NewReader(raw), s.identity)
	if err != nil {
		return "", false, fmt.Errorf("decrypting %s: %w", key, err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return "", false, fmt.Errorf("reading decrypted %s: %w", key, err)
	}
	return string(plaintext), true, nil
}

func (s *Sealed) SetItem(ctx context.Context, key, value string) error {
	var buffer bytes.Buffer
	writer, err := age.Encrypt(&buffer, s.recipient)
	if err != nil {
		return fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := io.WriteString(writer, value); err != nil {
		return fmt.Errorf("encrypting %s: %w", key, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalizing encryption of %s: %w", key, err)
	}
	return s.inner.SetItem(ctx, key, base64.StdEncoding.EncodeToString(buffer.Bytes()))
}

func (s *Sealed) RemoveItem(ctx context.Context, key string) error {
	return s.inner.RemoveItem(ctx, key)
}

// LoadIdentity reads the first X25519 identity from an age identity
// file (the format written by age-keygen and GenerateIdentity).
func LoadIdentity(path string) (*age.X25519Identity, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening identity file %s: %w", path, err)
	}
	defer file.Close()

	identities, err := age.ParseIdentities(file)
	if err != nil {
		return nil, fmt.Errorf("parsing identity file %s: %w", path, err)
	}
	for _, identity := range identities {
		if x25519, ok := identity.(*age.X25519Identity); ok {
			return x25519, nil
		}
	}
	return nil, fmt.Errorf("identity file %s has no X25519 identity", path)
}

// GenerateIdentity creates a new X25519 identity, writes it to path
// with mode 0600, and returns its public recipient string. It refuses
// to overwrite an existing file.
func GenerateIdentity(path string) (string, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return "", fmt.Errorf("generating age identity: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("identity file %s already exists", path)
		}
		return "", fmt.Errorf("creating identity file %s: %w", path, err)
	}

	recipient := identity.Recipient().String()
	contents := strings.Join([]string{
		"# public key: " + recipient,
		identity.String(),
		"",
	}, "\n")
	if _, err := file.WriteString(contents); err != nil {
		file.Close()
		return "", fmt.Errorf("writing identity file %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("closing identity file %s: %w", path, err)
	}
	return recipient, nil
}
