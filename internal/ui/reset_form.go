package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// ResetForm asks for confirmation before the agent session and sandbox are wiped
type ResetForm struct {
	Completed bool
	confirmed bool
	form      *huh.Form
}

// NewResetForm creates the reset confirmation
func NewResetForm() *ResetForm {
	rf := &ResetForm{}
	rf.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Reset the agent?").
				Description("The conversation, the agent's memory and every file in the sandbox are deleted.").
				Affirmative("Reset").
				Negative("Cancel").
				Value(&rf.confirmed),
		),
	)
	return rf
}

func (rf *ResetForm) Init() tea.Cmd {
	return rf.form.Init()
}

func (rf *ResetForm) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.String() == "esc" || keyMsg.String() == "ctrl+c" {
			rf.confirmed = false
			rf.Completed = true
			return rf, nil
		}
	}

	form, cmd := rf.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		rf.form = f
	}

	if rf.form.State == huh.StateCompleted {
		rf.Completed = true
		return rf, nil
	}
	return rf, cmd
}

func (rf *ResetForm) View() string {
	return rf.form.View()
}

// Confirmed reports whether the user chose to reset
func (rf *ResetForm) Confirmed() bool {
	return rf.confirmed
}
