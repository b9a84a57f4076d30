package storage

import (
	"anygent/internal/domain"
)

// preferenceModelsToDomain folds key/value rows into domain.Preferences.
// Unknown keys are ignored.
func preferenceModelsToDomain(models []PreferenceModel) domain.Preferences {
	prefs := domain.DefaultPreferences()
	for _, m := range models {
		switch m.Key {
		case domain.PrefAPIKey:
			prefs.APIKey = m.Value
		case domain.PrefE2BAPIKey:
			prefs.E2BAPIKey = m.Value
		case domain.PrefSelectedModel:
			if m.Value != "" {
				prefs.SelectedModel = m.Value
			}
		}
	}
	return prefs
}

// domainToPreferenceModels expands domain.Preferences into one row per key
func domainToPreferenceModels(prefs domain.Preferences) []PreferenceModel {
	return []PreferenceModel{
		{Key: domain.PrefAPIKey, Value: prefs.APIKey},
		{Key: domain.PrefE2BAPIKey, Value: prefs.E2BAPIKey},
		{Key: domain.PrefSelectedModel, Value: prefs.SelectedModel},
	}
}
