package domain

// Preference keys as stored in the preferences table
const (
	PrefAPIKey        = "api_key"
	PrefE2BAPIKey     = "e2b_api_key"
	PrefSelectedModel = "selected_model"
)

// Preferences are the only client state that survives a restart
type Preferences struct {
	APIKey        string
	E2BAPIKey     string
	SelectedModel string
}

// DefaultPreferences returns preferences for a fresh install
func DefaultPreferences() Preferences {
	return Preferences{SelectedModel: DefaultModel}
}

// HasAPIKey reports whether an LLM API key has been configured
func (p Preferences) HasAPIKey() bool {
	return p.APIKey != ""
}

// MaskKey hides all but the last four characters of a credential
func MaskKey(key string) string {
	if key == "" {
		return "<unset>"
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
