package services

import (
	"context"
	"fmt"

	"anygent/internal/domain"
	"anygent/internal/logging"
	"anygent/internal/ports"
	"anygent/internal/store"
)

// PreferencesService moves preferences between the repository and a session store
type PreferencesService struct {
	overrides domain.Preferences
	repo      ports.PreferencesRepository
}

// NewPreferencesService creates a new PreferencesService. Non-empty fields of
// overrides (from flags or the environment) win over stored values and are
// never persisted.
func NewPreferencesService(repo ports.PreferencesRepository, overrides domain.Preferences) *PreferencesService {
	return &PreferencesService{
		overrides: overrides,
		repo:      repo,
	}
}

// Load reads stored preferences, applies overrides and puts the result into st
func (s *PreferencesService) Load(ctx context.Context, st *store.Store) (domain.Preferences, error) {
	prefs, err := s.repo.Load(ctx)
	if err != nil {
		logging.Logger.Error("Failed to load preferences", "error", err)
		return domain.Preferences{}, fmt.Errorf("failed to load preferences: %w", err)
	}

	prefs = s.applyOverrides(prefs)
	if prefs.SelectedModel == "" {
		prefs.SelectedModel = domain.DefaultModel
	}

	logging.Logger.Debug("Preferences loaded",
		"api_key", prefs.APIKey,
		"e2b_api_key", prefs.E2BAPIKey,
		"model", prefs.SelectedModel)

	if st != nil {
		st.SetPreferences(prefs)
	}
	return prefs, nil
}

// Save persists prefs and puts them into st. Fields still holding an
// override value keep their stored value in the repository.
func (s *PreferencesService) Save(ctx context.Context, st *store.Store, prefs domain.Preferences) error {
	logging.Logger.Info("Saving preferences", "model", prefs.SelectedModel)

	persisted, err := s.withoutOverrides(ctx, prefs)
	if err != nil {
		return err
	}

	if err := s.repo.Save(ctx, persisted); err != nil {
		logging.Logger.Error("Failed to save preferences", "error", err)
		return fmt.Errorf("failed to save preferences: %w", err)
	}

	if st != nil {
		st.SetPreferences(s.applyOverrides(prefs))
	}
	return nil
}

// withoutOverrides swaps fields equal to their override back to the stored value
func (s *PreferencesService) withoutOverrides(ctx context.Context, prefs domain.Preferences) (domain.Preferences, error) {
	if s.overrides == (domain.Preferences{}) {
		return prefs, nil
	}

	stored, err := s.repo.Load(ctx)
	if err != nil {
		logging.Logger.Error("Failed to load stored preferences", "error", err)
		return domain.Preferences{}, fmt.Errorf("failed to load stored preferences: %w", err)
	}

	if s.overrides.APIKey != "" && prefs.APIKey == s.overrides.APIKey {
		prefs.APIKey = stored.APIKey
	}
	if s.overrides.E2BAPIKey != "" && prefs.E2BAPIKey == s.overrides.E2BAPIKey {
		prefs.E2BAPIKey = stored.E2BAPIKey
	}
	if s.overrides.SelectedModel != "" && prefs.SelectedModel == s.overrides.SelectedModel {
		prefs.SelectedModel = stored.SelectedModel
	}
	return prefs, nil
}

func (s *PreferencesService) applyOverrides(prefs domain.Preferences) domain.Preferences {
	if s.overrides.APIKey != "" {
		prefs.APIKey = s.overrides.APIKey
	}
	if s.overrides.E2BAPIKey != "" {
		prefs.E2BAPIKey = s.overrides.E2BAPIKey
	}
	if s.overrides.SelectedModel != "" {
		prefs.SelectedModel = s.overrides.SelectedModel
	}
	return prefs
}
