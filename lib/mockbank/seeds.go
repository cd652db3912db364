// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package mockbank

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
)

// Seed describes one card and the account behind it.
type Seed struct {
	Token        string `json:"token"`
	BIN          string `json:"bin"`
	Last4        string `json:"last4"`
	Network      string `json:"network"`
	PIN          string `json:"pin"`
	CustomerName string `json:"customerName"`
	Balance      string `json:"balance"`
	Blocked      bool   `json:"blocked,omitempty"`
}

type seedFile struct {
	Cards []Seed `json:"cards"`
}

// DefaultSeeds returns the built-in development cards.
func DefaultSeeds() []Seed {
	return []Seed{
		{Token: "TOK_VISA_1111", BIN: "411111", Last4: "1111", Network: "visa", PIN: "1234", CustomerName: "Alex Rivera", Balance: "1250.00"},
		{Token: "TOK_MC_2222", BIN: "555555", Last4: "2222", Network: "mastercard", PIN: "4321", CustomerName: "Sam Lee", Balance: "890.00"},
		{Token: "TOK_MAESTRO_3333", BIN: "353535", Last4: "3333", Network: "maestro", PIN: "3333", CustomerName: "Tony Stark", Balance: "2000.00"},
		{Token: "TOK_STAR_4444", BIN: "444444", Last4: "4444", Network: "star", PIN: "4444", CustomerName: "Bruce Wayne", Balance: "1500.00"},
		{Token: "TOK_PULSE_5555", BIN: "555556", Last4: "5555", Network: "pulse", PIN: "5555", CustomerName: "Clark Kent", Balance: "950.00"},
		{Token: "TOK_PLUS_6666", BIN: "666666", Last4: "6666", Network: "plus", PIN: "6666", CustomerName: "Diana Prince", Balance: "1800.00"},
	}
}

// LoadSeeds reads a seed file. The file is JSON with comments and
// trailing commas allowed:
//
//	{
//	  // Visa test card
//	  "cards": [
//	    {"token": "TOK_VISA_1111", "pin": "1234", "customerName": "Alex Rivera",
//	     "network": "visa", "bin": "411111", "last4": "1111", "balance": "1250.00"},
//	  ],
//	}
func LoadSeeds(path string) ([]Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return ParseSeeds(data)
}

// ParseSeeds decodes seed file contents and validates every card.
func ParseSeeds(data []byte) ([]Seed, error) {
	var file seedFile
	if err := json.Unmarshal(jsonc.ToJSON(data), &file); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	if len(file.Cards) == 0 {
		return nil, fmt.Errorf("seed file defines no cards")
	}
	seen := make(map[string]bool, len(file.Cards))
	for i, seed := range file.Cards {
		if seed.Token == "" {
			return nil, fmt.Errorf("card %d: token is required", i)
		}
		if seen[seed.Token] {
			return nil, fmt.Errorf("card %d: duplicate token %q", i, seed.Token)
		}
		seen[seed.Token] = true
		if !pinPattern.MatchString(seed.PIN) {
			return nil, fmt.Errorf("card %q: pin must be exactly 4 digits", seed.Token)
		}
		if _, err := parseCents(seed.Balance); err != nil {
			return nil, fmt.Errorf("card %q: balance: %w", seed.Token, err)
		}
		if seed.CustomerName == "" {
			return nil, fmt.Errorf("card %q: customerName is required", seed.Token)
		}
	}
	return file.Cards, nil
}
