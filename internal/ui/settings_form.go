package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"anygent/internal/domain"
	"anygent/internal/logging"
	"anygent/internal/services"
	"anygent/internal/store"
)

// modelSelectHeight is the number of model options visible at once
const modelSelectHeight = 8

// SettingsFormResult contains the result of the settings form
type SettingsFormResult struct {
	Cancelled   bool
	Error       error
	Preferences domain.Preferences
}

// SettingsForm edits the API keys and the selected model and persists them
type SettingsForm struct {
	Completed   bool
	form        *huh.Form
	preferences *services.PreferencesService
	result      SettingsFormResult
	store       *store.Store
}

// NewSettingsForm creates a settings form prefilled from the store's preferences.
// models is the list offered by the model picker; the current selection is always included.
func NewSettingsForm(preferences *services.PreferencesService, st *store.Store, models []domain.Model) *SettingsForm {
	sf := &SettingsForm{
		preferences: preferences,
		result:      SettingsFormResult{Preferences: st.Preferences()},
		store:       st,
	}

	sf.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("OpenRouter API key").
				Description("Used by the agent to call the language model").
				EchoMode(huh.EchoModePassword).
				Value(&sf.result.Preferences.APIKey),
			huh.NewInput().
				Title("E2B API key").
				Description("Required for the sandbox the agent writes files into").
				EchoMode(huh.EchoModePassword).
				Value(&sf.result.Preferences.E2BAPIKey),
			huh.NewSelect[string]().
				Title("Model").
				Description("Press / to filter").
				Options(modelOptions(models, sf.result.Preferences.SelectedModel)...).
				Height(modelSelectHeight).
				Value(&sf.result.Preferences.SelectedModel),
		),
	)

	return sf
}

// modelOptions builds picker options labelled "Name (context)", keeping current selectable
func modelOptions(models []domain.Model, current string) []huh.Option[string] {
	options := make([]huh.Option[string], 0, len(models)+1)
	seen := false
	for _, m := range models {
		label := m.Name
		if label == "" {
			label = domain.ModelDisplayName(m.ID)
		}
		if m.ContextLength > 0 {
			label = fmt.Sprintf("%s (%dk)", label, m.ContextLength/1000)
		}
		options = append(options, huh.NewOption(label, m.ID))
		if m.ID == current {
			seen = true
		}
	}
	if !seen && current != "" {
		options = append([]huh.Option[string]{huh.NewOption(domain.ModelDisplayName(current), current)}, options...)
	}
	return options
}

func (sf *SettingsForm) Init() tea.Cmd {
	return sf.form.Init()
}

func (sf *SettingsForm) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.String() == "esc" || keyMsg.String() == "ctrl+c" {
			sf.result.Cancelled = true
			sf.Completed = true
			return sf, nil
		}
	}

	form, cmd := sf.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		sf.form = f
	}

	if sf.form.State == huh.StateCompleted {
		sf.Completed = true
		if err := sf.save(); err != nil {
			logging.Logger.Error("Failed to save settings", "error", err)
			sf.result.Error = err
		}
		return sf, nil
	}

	return sf, cmd
}

func (sf *SettingsForm) View() string {
	if sf.form != nil {
		return sf.form.View()
	}
	return ""
}

// Result returns the form result
func (sf *SettingsForm) Result() SettingsFormResult {
	return sf.result
}

func (sf *SettingsForm) save() error {
	prefs := sf.result.Preferences
	prefs.APIKey = strings.TrimSpace(prefs.APIKey)
	prefs.E2BAPIKey = strings.TrimSpace(prefs.E2BAPIKey)
	sf.result.Preferences = prefs

	logging.Logger.Info("Saving settings",
		"api_key", prefs.APIKey,
		"e2b_api_key", prefs.E2BAPIKey,
		"model", prefs.SelectedModel)

	if err := sf.preferences.Save(context.Background(), sf.store, prefs); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
