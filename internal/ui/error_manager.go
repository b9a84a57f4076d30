package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// clearErrorMsg is sent after the clear delay; gen identifies which error it belongs to
type clearErrorMsg struct {
	gen int
}

// ErrorManager holds the error shown under the status bar and clears it after a delay.
type ErrorManager struct {
	currentError    error
	errorClearDelay time.Duration
	gen             int
}

// NewErrorManager creates a new ErrorManager with the specified auto-clear delay.
func NewErrorManager(errorClearDelay time.Duration) *ErrorManager {
	return &ErrorManager{
		errorClearDelay: errorClearDelay,
	}
}

// SetError sets the current error to be displayed.
func (em *ErrorManager) SetError(err error) {
	em.currentError = err
	em.gen++
}

// ClearError clears the current error.
func (em *ErrorManager) ClearError() {
	em.currentError = nil
}

// GetError returns the current error.
func (em *ErrorManager) GetError() error {
	return em.currentError
}

// HasError returns true if there is a current error.
func (em *ErrorManager) HasError() bool {
	return em.currentError != nil
}

// ClearAfterDelay returns a tea.Cmd that sends clearErrorMsg after the configured delay.
func (em *ErrorManager) ClearAfterDelay() tea.Cmd {
	gen := em.gen
	return tea.Tick(em.errorClearDelay, func(time.Time) tea.Msg {
		return clearErrorMsg{gen: gen}
	})
}

// handleClear clears the error only if no newer error replaced it since the tick was scheduled
func (em *ErrorManager) handleClear(msg clearErrorMsg) {
	if msg.gen == em.gen {
		em.ClearError()
	}
}
