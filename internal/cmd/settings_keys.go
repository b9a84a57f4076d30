package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"anygent/internal/config"
	"anygent/internal/logging"
	"anygent/internal/ui"
)

// SettingsKeysCmd manages keyboard shortcuts
type SettingsKeysCmd struct {
	List  SettingsKeysListCmd  `cmd:"list" help:"List all key bindings (defaults and custom)" default:"1"`
	Set   SettingsKeysSetCmd   `cmd:"set" help:"Set a key binding"`
	Unset SettingsKeysUnsetCmd `cmd:"unset" help:"Restore the default binding"`
}

// SettingsKeysListCmd lists all key bindings
type SettingsKeysListCmd struct {
	Format string `help:"Output format: table or json" enum:"table,json" default:"table"`
}

// SettingsKeysSetCmd sets a key binding
type SettingsKeysSetCmd struct {
	Key   string `arg:"" help:"Key name (e.g., send, stop, help)"`
	Value string `arg:"" help:"Key binding (e.g., ctrl+x, or comma-separated for multiple: f1,f2)"`
}

// SettingsKeysUnsetCmd removes a custom key binding
type SettingsKeysUnsetCmd struct {
	Key string `arg:"" help:"Key name"`
}

// keyListEntry is one row of the JSON key listing
type keyListEntry struct {
	Custom  []string `json:"custom,omitempty"`
	Default []string `json:"default"`
	Help    string   `json:"help"`
}

// Run executes the list command
func (s *SettingsKeysListCmd) Run(cli *CLI) error {
	defaults := ui.GetDefaultKeyBindings()
	names := ui.GetValidKeyNames()
	customKeys := cli.settings.Keys

	if s.Format == "json" {
		result := make(map[string]keyListEntry, len(names))
		for _, name := range names {
			result[name] = keyListEntry{
				Custom:  customKeys[name],
				Default: defaults[name],
				Help:    keyHelp(name),
			}
		}
		return printJSON(result)
	}

	fmt.Printf("Key Bindings (settings file: %s)\n\n", config.GetSettingsPath())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "Name\tDefault\tCustom\tAction")
	fmt.Fprintln(w, "────\t───────\t──────\t──────")
	for _, name := range names {
		customStr := "-"
		if custom := customKeys[name]; len(custom) > 0 {
			customStr = strings.Join(custom, ", ")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, strings.Join(defaults[name], ", "), customStr, keyHelp(name))
	}
	w.Flush()

	fmt.Println()
	fmt.Println("Use 'anygent settings keys set <name> <value>' to customize.")
	return nil
}

func keyHelp(name string) string {
	if def := ui.GetKeyDefinition(name); def != nil {
		return def.Help
	}
	return ""
}

// Run executes the set command
func (s *SettingsKeysSetCmd) Run(cli *CLI) error {
	if !ui.IsValidKeyName(s.Key) {
		return fmt.Errorf("unknown key '%s'. Valid keys: %s",
			s.Key, strings.Join(ui.GetValidKeyNames(), ", "))
	}

	values := parseKeyValues(s.Value)
	if len(values) == 0 {
		return fmt.Errorf("value cannot be empty")
	}

	logging.Logger.Debug("Setting key binding", "key", s.Key, "values", values)

	return updateKeyBindings(func(keys config.KeyBindingsConfig) {
		keys[s.Key] = values
	}, fmt.Sprintf("Set '%s' to: %s", s.Key, strings.Join(values, ", ")))
}

// Run executes the unset command
func (s *SettingsKeysUnsetCmd) Run(cli *CLI) error {
	if !ui.IsValidKeyName(s.Key) {
		return fmt.Errorf("unknown key '%s'", s.Key)
	}

	return updateKeyBindings(func(keys config.KeyBindingsConfig) {
		delete(keys, s.Key)
	}, fmt.Sprintf("Restored default for '%s': %s",
		s.Key, strings.Join(ui.GetDefaultKeyBindings()[s.Key], ", ")))
}

// updateKeyBindings applies fn to the stored bindings, validates and saves them
func updateKeyBindings(fn func(config.KeyBindingsConfig), done string) error {
	settings, err := config.LoadSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	if settings.Keys == nil {
		settings.Keys = make(config.KeyBindingsConfig)
	}
	fn(settings.Keys)

	if err := settings.Keys.Validate(ui.GetValidKeyNames()); err != nil {
		return fmt.Errorf("conflict: %w", err)
	}

	if err := config.SaveSettings(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	fmt.Println(done)
	return nil
}

// parseKeyValues parses comma-separated key values
func parseKeyValues(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
