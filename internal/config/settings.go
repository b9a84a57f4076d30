package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Defaults applied when neither flags, env vars nor settings.json say otherwise
const (
	DefaultBackendURL      = "http://localhost:8000"
	DefaultErrorClearDelay = 10
	DefaultMaxIterations   = 500
	DefaultSSHHost         = "localhost"
	DefaultSSHPort         = "23235"
)

// KeyBindingValue supports "a" or ["up", "k"] in JSON
type KeyBindingValue []string

// UnmarshalJSON implements custom unmarshaling for KeyBindingValue
func (kv *KeyBindingValue) UnmarshalJSON(data []byte) error {
	// Try array format first
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*kv = arr
		return nil
	}

	// Fall back to single string
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	if str != "" {
		*kv = []string{str}
	}
	return nil
}

// MarshalJSON implements custom marshaling for KeyBindingValue
func (kv KeyBindingValue) MarshalJSON() ([]byte, error) {
	if len(kv) == 1 {
		return json.Marshal(kv[0])
	}
	return json.Marshal([]string(kv))
}

// KeyBindingsConfig holds custom key binding overrides as a map.
// Keys are binding names (e.g., "send", "help"), values are the key sequences.
type KeyBindingsConfig map[string]KeyBindingValue

// Validate checks for configuration errors in key bindings.
// The validNames parameter should come from ui.GetValidKeyNames().
func (k KeyBindingsConfig) Validate(validNames []string) error {
	if k == nil {
		return nil
	}

	validSet := make(map[string]bool, len(validNames))
	for _, name := range validNames {
		validSet[name] = true
	}

	// Track all keys to detect duplicates
	keyToAction := make(map[string]string)

	for name, keys := range k {
		if !validSet[name] {
			return fmt.Errorf("unknown key binding '%s'", name)
		}

		if len(keys) == 0 {
			continue // Not configured, will use default
		}

		for _, key := range keys {
			if key == "" {
				return fmt.Errorf("key binding for '%s' contains empty value", name)
			}
			if existing, found := keyToAction[key]; found {
				return fmt.Errorf("key '%s' is assigned to both '%s' and '%s'", key, existing, name)
			}
			keyToAction[key] = name
		}
	}

	return nil
}

// Settings represents the structure of ~/.anygent/settings.json.
// Credentials are not part of it; they live in the preferences database.
type Settings struct {
	BackendURL      string            `json:"backend_url,omitempty"`
	Debug           *bool             `json:"debug,omitempty"`
	ErrorClearDelay *int              `json:"error_clear_delay,omitempty"`
	Keys            KeyBindingsConfig `json:"keys,omitempty"`
	Markdown        *bool             `json:"markdown,omitempty"`
	MaxIterations   *int              `json:"max_iterations,omitempty"`
	MaxLogFiles     *int              `json:"max_log_files,omitempty"`
	Sound           *bool             `json:"sound,omitempty"`
	SSHHost         string            `json:"ssh_host,omitempty"`
	SSHPort         string            `json:"ssh_port,omitempty"`
	StatusColors    StatusColors      `json:"status_colors,omitempty"`
}

// StatusColors maps a card or sandbox status to an ANSI color code
type StatusColors map[string]string

// LoadSettings loads settings from $ANYGENT_HOME/settings.json (or ~/.anygent/settings.json if not set)
// Returns empty Settings if file doesn't exist (not an error)
func LoadSettings() (*Settings, error) {
	return LoadSettingsFrom(GetSettingsPath())
}

// LoadSettingsFrom loads settings from an explicit path
func LoadSettingsFrom(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Settings{}, nil // Not an error, use defaults
		}
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("invalid settings.json: %w", err)
	}

	settings.BackendURL = strings.TrimRight(strings.TrimSpace(settings.BackendURL), "/")

	return &settings, nil
}

// SaveSettings saves settings to $ANYGENT_HOME/settings.json
func SaveSettings(settings *Settings) error {
	return SaveSettingsTo(GetSettingsPath(), settings)
}

// SaveSettingsTo saves settings to an explicit path, creating its directory
func SaveSettingsTo(path string, settings *Settings) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	return nil
}

// BackendURLOrDefault returns the configured backend URL or DefaultBackendURL
func (s *Settings) BackendURLOrDefault() string {
	if s == nil || s.BackendURL == "" {
		return DefaultBackendURL
	}
	return s.BackendURL
}

// MarkdownEnabled reports whether assistant text is rendered as markdown (default true)
func (s *Settings) MarkdownEnabled() bool {
	if s == nil || s.Markdown == nil {
		return true
	}
	return *s.Markdown
}

// MaxIterationsOrDefault returns the configured iteration ceiling or DefaultMaxIterations
func (s *Settings) MaxIterationsOrDefault() int {
	if s == nil || s.MaxIterations == nil || *s.MaxIterations <= 0 {
		return DefaultMaxIterations
	}
	return *s.MaxIterations
}

// SoundEnabled reports whether a sound plays when a local run ends (default false)
func (s *Settings) SoundEnabled() bool {
	return s != nil && s.Sound != nil && *s.Sound
}
