// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package atmui

import (
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kioskbank/atm/lib/apiclient"
	"github.com/kioskbank/atm/lib/teller"
)

type toastKind int

const (
	toastSuccess toastKind = iota
	toastInfo
	toastWarning
	toastError
)

// toast is a transient notice shown under the screen.
type toast struct {
	id          int
	kind        toastKind
	title       string
	description string
}

type toastExpiredMsg struct {
	id int
}

// Toast durations.
const (
	toastShort   = 2 * time.Second
	toastDefault = 3 * time.Second
	toastFailure = 4 * time.Second
	toastLong    = 6 * time.Second
)

// showToast replaces the current toast and schedules its removal.
func (model Model) showToast(kind toastKind, title, description string, duration time.Duration) (Model, tea.Cmd) {
	model.nextToastID++
	model.toast = &toast{
		id:          model.nextToastID,
		kind:        kind,
		title:       title,
		description: description,
	}
	return model, model.schedule(duration, toastExpiredMsg{id: model.nextToastID})
}

// errorToast shows err. Client-side validation keeps its own title;
// everything else is titled with fallbackTitle.
func (model Model) errorToast(err error, fallbackTitle string, duration time.Duration) (Model, tea.Cmd) {
	var validation *teller.ValidationError
	if errors.As(err, &validation) {
		return model.showToast(toastWarning, validation.Title, validation.Description, toastDefault)
	}
	return model.showToast(toastError, fallbackTitle, apiclient.UserMessage(err), duration)
}

// tickSchedule delivers msg after d using the bubbletea timer.
func tickSchedule(d time.Duration, msg tea.Msg) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return msg })
}
