// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package atmui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// field is a single-line entry box edited at its end, the way a
// keypad works. Characters past limit are dropped.
type field struct {
	buffer      []rune
	limit       int
	placeholder string
	// mask, when non-zero, replaces every character on screen.
	mask rune
}

func newField(placeholder string, limit int) field {
	return field{placeholder: placeholder, limit: limit}
}

// Value returns the entered text.
func (f field) Value() string {
	return string(f.buffer)
}

// Reset empties the field.
func (f *field) Reset() {
	f.buffer = nil
}

// handleKey applies an editing key. Keys that do not edit return
// false.
func (f *field) handleKey(message tea.KeyMsg) bool {
	switch message.Type {
	case tea.KeyBackspace:
		if len(f.buffer) > 0 {
			f.buffer = f.buffer[:len(f.buffer)-1]
		}
	case tea.KeyCtrlU:
		f.buffer = nil
	case tea.KeyRunes, tea.KeySpace:
		runes := message.Runes
		if message.Type == tea.KeySpace {
			runes = []rune{' '}
		}
		for _, character := range runes {
			if f.limit > 0 && len(f.buffer) >= f.limit {
				break
			}
			f.buffer = append(f.buffer, character)
		}
	default:
		return false
	}
	return true
}

// View renders the field with a trailing block cursor.
func (f field) View(text, placeholder lipgloss.Style) string {
	cursor := lipgloss.NewStyle().Reverse(true).Render(" ")
	if len(f.buffer) == 0 {
		return "> " + placeholder.Render(f.placeholder) + cursor
	}
	shown := string(f.buffer)
	if f.mask != 0 {
		shown = strings.Repeat(string(f.mask), len(f.buffer))
	}
	return "> " + text.Render(shown) + cursor
}
