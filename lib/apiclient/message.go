// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// FallbackMessage is shown when no better message can be extracted.
const FallbackMessage = "Something went wrong. Please check your input and try again."

// userMessager is implemented by errors that carry customer-facing
// text: *HTTPError here and validation errors elsewhere.
type userMessager interface {
	UserMessage() string
}

// UserMessage returns the text to show the customer for err. It
// prefers the error's own user message, then a "detail" parsed from an
// HTTP error body, then FallbackMessage. It never returns "".
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var messager userMessager
	if errors.As(err, &messager) {
		if message := messager.UserMessage(); message != "" {
			return message
		}
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if message, ok := detailMessage([]byte(httpErr.Body)); ok && message != "" {
			return message
		}
	}

	return FallbackMessage
}

// extractError builds the message and normalized body for a non-2xx
// response.
func extractError(status int, statusText string, body []byte) (message, normalizedBody string) {
	message = fmt.Sprintf("%d %s", status, statusText)
	normalizedBody = string(body)

	if !json.Valid(body) {
		return message, normalizedBody
	}
	var compacted bytes.Buffer
	if err := json.Compact(&compacted, body); err == nil {
		normalizedBody = compacted.String()
	}
	if detail, ok := detailMessage(body); ok {
		message = detail
	}
	return message, normalizedBody
}

// detailMessage reads the "detail" field of a JSON error body. A
// non-empty list yields each entry's "msg" joined by newlines (entries
// without one are skipped, so the result may be ""); a string yields
// itself. ok is false when there is no usable detail.
func detailMessage(body []byte) (message string, ok bool) {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return "", false
	}

	var list []json.RawMessage
	if err := json.Unmarshal(envelope.Detail, &list); err == nil {
		if len(list) == 0 {
			return "", false
		}
		messages := make([]string, 0, len(list))
		for _, entry := range list {
			var item struct {
				Msg any `json:"msg"`
			}
			if json.Unmarshal(entry, &item) != nil {
				continue
			}
			if text, isString := item.Msg.(string); isString && text != "" {
				messages = append(messages, text)
			}
		}
		return strings.Join(messages, "\n"), true
	}

	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		return text, true
	}
	return "", false
}
