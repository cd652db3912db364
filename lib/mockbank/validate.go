// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package mockbank

import (
	"encoding/json"
	"sort"
	"strings"
)

// fieldProblem is one entry of a 422 detail list.
type fieldProblem struct {
	Type string `json:"type"`
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
}

func missing(field string) fieldProblem {
	return fieldProblem{Type: "missing", Loc: []any{"body", field}, Msg: "Field required"}
}

func valueError(field, message string) fieldProblem {
	return fieldProblem{Type: "value_error", Loc: []any{"body", field}, Msg: "Value error, " + message}
}

func stringType(field string) fieldProblem {
	return fieldProblem{Type: "string_type", Loc: []any{"body", field}, Msg: "Input should be a valid string"}
}

// stringField decodes a required string field.
func stringField(fields map[string]json.RawMessage, name string) (string, *fieldProblem) {
	raw, ok := fields[name]
	if !ok {
		problem := missing(name)
		return "", &problem
	}
	var value string
	if string(raw) == "null" || json.Unmarshal(raw, &value) != nil {
		problem := stringType(name)
		return "", &problem
	}
	return value, nil
}

func validatePinLogin(fields map[string]json.RawMessage) []fieldProblem {
	var problems []fieldProblem
	if _, problem := stringField(fields, "cardToken"); problem != nil {
		problems = append(problems, *problem)
	}
	pin, problem := stringField(fields, "pin")
	switch {
	case problem != nil:
		problems = append(problems, *problem)
	case pin == "" || strings.Trim(pin, "0123456789") != "":
		problems = append(problems, valueError("pin", "PIN must be numeric"))
	case len(pin) != 4:
		problems = append(problems, valueError("pin", "PIN must be exactly 4 digits"))
	}

	var extras []string
	for name := range fields {
		if name != "cardToken" && name != "pin" {
			extras = append(extras, name)
		}
	}
	sort.Strings(extras)
	for _, name := range extras {
		problems = append(problems, fieldProblem{
			Type: "extra_forbidden",
			Loc:  []any{"body", name},
			Msg:  "Extra inputs are not permitted",
		})
	}
	return problems
}

// validateMoney checks a deposit or withdrawal body. The amount may
// be a JSON number or a decimal string; it must be positive before
// rounding to cents.
func validateMoney(fields map[string]json.RawMessage) (Cents, string, []fieldProblem) {
	var problems []fieldProblem
	var amount Cents

	raw, ok := fields["amount"]
	if !ok {
		problems = append(problems, missing("amount"))
	} else {
		literal := strings.TrimSpace(string(raw))
		var quoted string
		if json.Unmarshal(raw, &quoted) == nil {
			literal = strings.TrimSpace(quoted)
		}
		value, err := parseRat(literal)
		switch {
		case err != nil:
			problems = append(problems, fieldProblem{
				Type: "decimal_parsing",
				Loc:  []any{"body", "amount"},
				Msg:  "Input should be a valid decimal",
			})
		case value.Sign() <= 0:
			problems = append(problems, valueError("amount", "Amount must be greater than zero"))
		default:
			amount = quantize(value)
		}
	}

	key, problem := stringField(fields, "idempotencyKey")
	if problem != nil {
		problems = append(problems, *problem)
	}
	return amount, key, problems
}
