package ports

import (
	"context"

	"anygent/internal/domain"
)

// PreferencesReader reads persisted preferences
type PreferencesReader interface {
	// Get returns domain.ErrPreferenceNotFound when key was never set
	Get(ctx context.Context, key string) (string, error)
	Load(ctx context.Context) (domain.Preferences, error)
}

// PreferencesWriter persists preferences
type PreferencesWriter interface {
	Save(ctx context.Context, prefs domain.Preferences) error
	Set(ctx context.Context, key, value string) error
}

// PreferencesRepository is the composite interface
type PreferencesRepository interface {
	PreferencesReader
	PreferencesWriter
	Close() error
}
