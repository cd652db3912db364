// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package session

// Session is the client's view of the current ATM user.
//
// CustomerName and CardNetwork are absent (nil, omitted from JSON)
// until a PIN login fills them. CardToken, BIN and Last4 are null
// until a card is inserted.
type Session struct {
	IsAuthenticated bool    `json:"isAuthenticated"`
	CustomerName    *string `json:"customerName,omitempty"`
	CardNetwork     *string `json:"cardNetwork,omitempty"`
	CardToken       *string `json:"cardToken"`
	BIN             *string `json:"bin"`
	Last4           *string `json:"last4"`
}

// Default returns the initial session: unauthenticated, no customer,
// no card.
func Default() Session {
	return Session{}
}

// HasCard reports whether a non-empty card token is present. This is
// the only field the card-identity guard looks at.
func (s Session) HasCard() bool {
	return s.CardToken != nil && *s.CardToken != ""
}

// Token returns the card token, or "" when none is set.
func (s Session) Token() string {
	return Deref(s.CardToken)
}

// clone returns a copy that shares no pointers with s.
func (s Session) clone() Session {
	return Session{
		IsAuthenticated: s.IsAuthenticated,
		CustomerName:    clonePtr(s.CustomerName),
		CardNetwork:     clonePtr(s.CardNetwork),
		CardToken:       clonePtr(s.CardToken),
		BIN:             clonePtr(s.BIN),
		Last4:           clonePtr(s.Last4),
	}
}

// CardIdentity is the payload of [Store.SetCardIdentity]. Fields left
// nil are written as null: an identity update always replaces all
// three values together.
type CardIdentity struct {
	CardToken *string
	BIN       *string
	Last4     *string
}

// Update marks a single field of a [Partial] as specified. The zero
// Update leaves the field untouched.
type Update[T any] struct {
	Set   bool
	Value T
}

// Set returns an Update that assigns v.
func Set[T any](v T) Update[T] {
	return Update[T]{Set: true, Value: v}
}

// SetString returns an Update assigning a non-nil pointer to s.
func SetString(s string) Update[*string] {
	return Set(&s)
}

// Unset returns an Update that assigns nil: the field becomes absent
// (customer name, card network) or null (card identity fields).
func Unset() Update[*string] {
	return Update[*string]{Set: true}
}

// Partial is a field-by-field update merged into the session by
// [Store.SetSession]. Unspecified fields keep their prior values.
type Partial struct {
	IsAuthenticated Update[bool]
	CustomerName    Update[*string]
	CardNetwork     Update[*string]
	CardToken       Update[*string]
	BIN             Update[*string]
	Last4           Update[*string]
}

func (p Partial) apply(s Session) Session {
	if p.IsAuthenticated.Set {
		s.IsAuthenticated = p.IsAuthenticated.Value
	}
	if p.CustomerName.Set {
		s.CustomerName = clonePtr(p.CustomerName.Value)
	}
	if p.CardNetwork.Set {
		s.CardNetwork = clonePtr(p.CardNetwork.Value)
	}
	if p.CardToken.Set {
		s.CardToken = clonePtr(p.CardToken.Value)
	}
	if p.BIN.Set {
		s.BIN = clonePtr(p.BIN.Value)
	}
	if p.Last4.Set {
		s.Last4 = clonePtr(p.Last4.Value)
	}
	return s
}

// String returns a pointer to s. Convenience for building sessions
// and identities in literals.
func String(s string) *string {
	return &s
}

// Deref returns *p, or "" for nil.
func Deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func clonePtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
