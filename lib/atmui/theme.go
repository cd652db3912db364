// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package atmui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme is the color palette of the kiosk screen. Colors are ANSI
// 256-color codes.
type Theme struct {
	ScreenForeground lipgloss.Color
	ScreenBorder     lipgloss.Color
	Title            lipgloss.Color
	Label            lipgloss.Color
	Faint            lipgloss.Color
	Key              lipgloss.Color
	Amount           lipgloss.Color

	ToastSuccess lipgloss.Color
	ToastInfo    lipgloss.Color
	ToastWarning lipgloss.Color
	ToastError   lipgloss.Color

	// NetworkColors maps a lowercase card network to its badge color.
	NetworkColors map[string]lipgloss.Color
}

// DefaultTheme imitates a green-on-navy ATM display.
var DefaultTheme = Theme{
	ScreenForeground: lipgloss.Color("255"),
	ScreenBorder:     lipgloss.Color("67"),
	Title:            lipgloss.Color("229"),
	Label:            lipgloss.Color("252"),
	Faint:            lipgloss.Color("244"),
	Key:              lipgloss.Color("114"),
	Amount:           lipgloss.Color("156"),

	ToastSuccess: lipgloss.Color("114"),
	ToastInfo:    lipgloss.Color("75"),
	ToastWarning: lipgloss.Color("220"),
	ToastError:   lipgloss.Color("196"),

	NetworkColors: map[string]lipgloss.Color{
		"visa":       lipgloss.Color("27"),
		"mastercard": lipgloss.Color("208"),
		"maestro":    lipgloss.Color("39"),
		"star":       lipgloss.Color("220"),
		"pulse":      lipgloss.Color("161"),
		"plus":       lipgloss.Color("30"),
	},
}

// NetworkColor returns the badge color for network, or Faint for
// networks the theme does not know.
func (theme Theme) NetworkColor(network string) lipgloss.Color {
	if color, ok := theme.NetworkColors[strings.ToLower(network)]; ok {
		return color
	}
	return theme.Faint
}

// styles are the lipgloss styles derived from a Theme for one
// renderer.
type styles struct {
	screen lipgloss.Style
	title  lipgloss.Style
	label  lipgloss.Style
	faint  lipgloss.Style
	key    lipgloss.Style
	amount lipgloss.Style
	badge  lipgloss.Style
	toast  lipgloss.Style
}

func newStyles(renderer *lipgloss.Renderer, theme Theme) styles {
	return styles{
		screen: renderer.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.ScreenBorder).
			Foreground(theme.ScreenForeground).
			Padding(1, 3),
		title:  renderer.NewStyle().Foreground(theme.Title).Bold(true),
		label:  renderer.NewStyle().Foreground(theme.Label),
		faint:  renderer.NewStyle().Foreground(theme.Faint),
		key:    renderer.NewStyle().Foreground(theme.Key).Bold(true),
		amount: renderer.NewStyle().Foreground(theme.Amount).Bold(true),
		badge:  renderer.NewStyle().Bold(true).Padding(0, 1),
		toast:  renderer.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).PaddingLeft(1),
	}
}
