// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package teller

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var pinPattern = regexp.MustCompile(`^\d{4}$`)

// ValidationError is input rejected before any request is sent.
type ValidationError struct {
	// Field names the rejected input: "cardToken", "pin", "amount".
	Field string

	// Title is the headline shown to the customer.
	Title string

	// Description optionally elaborates on Title.
	Description string
}

func (e *ValidationError) Error() string {
	if e.Description == "" {
		return "invalid " + e.Field + ": " + e.Title
	}
	return "invalid " + e.Field + ": " + e.Title + ": " + e.Description
}

// UserMessage is what apiclient.UserMessage shows for this error.
func (e *ValidationError) UserMessage() string {
	if e.Description == "" {
		return e.Title
	}
	return e.Description
}

// ValidatePIN accepts exactly four ASCII digits.
func ValidatePIN(pin string) error {
	if !pinPattern.MatchString(pin) {
		return &ValidationError{
			Field:       "pin",
			Title:       "Invalid PIN",
			Description: "Please enter a 4-digit PIN.",
		}
	}
	return nil
}

// ParseAmount parses a customer-entered amount. Surrounding spaces
// and a leading "$" are tolerated; anything that is not a positive
// finite number is rejected. Rounding to cents is the bank's job.
func ParseAmount(raw string) (float64, error) {
	cleaned := strings.TrimPrefix(strings.TrimSpace(raw), "$")
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		return 0, &ValidationError{
			Field:       "amount",
			Title:       "Invalid amount",
			Description: "Enter a positive number",
		}
	}
	return value, nil
}
