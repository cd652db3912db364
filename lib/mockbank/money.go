// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package mockbank

import (
	"fmt"
	"math/big"
	"regexp"
)

var pinPattern = regexp.MustCompile(`^\d{4}$`)

// Cents is an amount of money in hundredths of the currency unit.
type Cents int64

// String formats c with two fraction digits ("1250.00", "-0.50").
func (c Cents) String() string {
	sign := ""
	value := int64(c)
	if value < 0 {
		sign = "-"
		value = -value
	}
	return fmt.Sprintf("%s%d.%02d", sign, value/100, value%100)
}

var hundred = big.NewRat(100, 1)

// parseRat parses a decimal or JSON number literal exactly.
func parseRat(s string) (*big.Rat, error) {
	value, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("%q is not a decimal number", s)
	}
	return value, nil
}

// quantize rounds value to whole cents, halves away from zero.
func quantize(value *big.Rat) Cents {
	scaled := new(big.Rat).Mul(value, hundred)
	num := new(big.Int).Set(scaled.Num())
	den := scaled.Denom()
	negative := num.Sign() < 0
	num.Abs(num)

	quotient, remainder := new(big.Int).QuoRem(num, den, new(big.Int))
	if new(big.Int).Mul(remainder, big.NewInt(2)).Cmp(den) >= 0 {
		quotient.Add(quotient, big.NewInt(1))
	}
	if negative {
		quotient.Neg(quotient)
	}
	return Cents(quotient.Int64())
}

// parseCents parses a decimal string into cents, rounding half-up.
func parseCents(s string) (Cents, error) {
	value, err := parseRat(s)
	if err != nil {
		return 0, err
	}
	return quantize(value), nil
}
