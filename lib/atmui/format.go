// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package atmui

import (
	"math"
	"strconv"
	"strings"
)

// FormatUSD renders amount as US currency: "$1,300.00", "-$5.25".
func FormatUSD(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	cents := int64(math.Round(amount * 100))
	whole := strconv.FormatInt(cents/100, 10)

	var grouped strings.Builder
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(digit)
	}
	fraction := cents % 100
	return sign + "$" + grouped.String() + "." + strconv.FormatInt(fraction/10, 10) + strconv.FormatInt(fraction%10, 10)
}

// formatBalance formats a bank decimal string, passing through
// anything that does not parse.
func formatBalance(balance string) string {
	value, err := strconv.ParseFloat(balance, 64)
	if err != nil {
		return balance
	}
	return FormatUSD(value)
}
