package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"anygent/internal/config"
	"anygent/internal/domain"
	"anygent/internal/logging"
)

// SettingsCmd manages settings
type SettingsCmd struct {
	Meta SettingsMetaCmd `cmd:"meta" help:"Show settings file location and available options" default:"1"`
	Keys SettingsKeysCmd `cmd:"keys" help:"Manage keyboard shortcuts"`
	Set  SettingsSetCmd  `cmd:"set" help:"Store an API key or the selected model"`
	Show SettingsShowCmd `cmd:"show" help:"Show stored preferences with credentials masked"`
}

// SettingsMetaCmd displays settings metadata
type SettingsMetaCmd struct {
	Format string `help:"Output format: table or json" enum:"table,json" default:"table"`
}

// Run executes the meta command
func (s *SettingsMetaCmd) Run(cli *CLI) error {
	settingsFile := config.GetSettingsPath()
	example := config.GetSettingsExample()

	if s.Format == "json" {
		return printJSON(map[string]any{
			"settings_file": settingsFile,
			"format":        example,
		})
	}

	fmt.Printf("Settings file: %s\n\n", settingsFile)
	fmt.Println("Example settings.json:")
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, key := range slices.Sorted(maps.Keys(example)) {
		var valueStr string
		switch v := example[key].(type) {
		case string:
			valueStr = v
		case bool:
			valueStr = fmt.Sprintf("%t", v)
		case int:
			valueStr = fmt.Sprintf("%d", v)
		default:
			data, _ := json.Marshal(v)
			valueStr = string(data)
		}
		fmt.Fprintf(w, "%s\t%s\n", key, valueStr)
	}
	w.Flush()

	fmt.Println()
	fmt.Println("Create or edit this file to configure anygent.")
	fmt.Println("API keys and the selected model are stored separately; see 'anygent settings set'.")

	return nil
}

// SettingsSetCmd stores a preference in the preferences database
type SettingsSetCmd struct {
	Name  string `arg:"" help:"Preference to set" enum:"api-key,e2b-api-key,model"`
	Value string `arg:"" help:"New value (empty clears an API key)"`
}

// Run executes the set command
func (s *SettingsSetCmd) Run(cli *CLI) error {
	ctx := context.Background()

	// Stored values only: process overrides must never be persisted
	prefs, err := cli.Container.prefsRepo.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load preferences: %w", err)
	}

	value := strings.TrimSpace(s.Value)
	switch s.Name {
	case "api-key":
		prefs.APIKey = value
	case "e2b-api-key":
		prefs.E2BAPIKey = value
	case "model":
		if value == "" {
			return fmt.Errorf("model cannot be empty")
		}
		prefs.SelectedModel = value
	}

	logging.Logger.Debug("Setting preference", "name", s.Name)

	if err := cli.Container.PreferencesService.Save(ctx, nil, prefs); err != nil {
		return err
	}

	if s.Name == "model" {
		fmt.Printf("Selected model: %s\n", value)
	} else {
		fmt.Printf("Stored %s: %s\n", s.Name, domain.MaskKey(value))
	}
	return nil
}

// SettingsShowCmd prints the effective preferences
type SettingsShowCmd struct{}

// Run executes the show command
func (s *SettingsShowCmd) Run(cli *CLI) error {
	prefs, err := cli.Container.Preferences(context.Background())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Database\t%s\n", config.GetDBPath())
	fmt.Fprintf(w, "Backend\t%s\n", cli.BackendURL)
	fmt.Fprintf(w, "API key\t%s\n", domain.MaskKey(prefs.APIKey))
	fmt.Fprintf(w, "E2B API key\t%s\n", domain.MaskKey(prefs.E2BAPIKey))
	fmt.Fprintf(w, "Model\t%s\n", prefs.SelectedModel)
	w.Flush()
	return nil
}
