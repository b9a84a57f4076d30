package cmd

import (
	"context"
	"fmt"

	adapterstorage "anygent/internal/adapters/storage"
	"anygent/internal/client"
	"anygent/internal/config"
	"anygent/internal/domain"
	"anygent/internal/logging"
	"anygent/internal/services"
	"anygent/internal/store"
)

// Container holds all dependencies for the application. The backend client
// and the preferences repository are shared by every console session.
type Container struct {
	Client             *client.Client
	PreferencesService *services.PreferencesService

	// Internal - for cleanup and raw preference access
	prefsRepo *adapterstorage.SQLiteRepository
	settings  *config.Settings
}

// NewContainer creates a new Container with all dependencies wired.
// Non-empty fields of overrides win over stored preferences without being saved.
func NewContainer(settings *config.Settings, backendURL string, overrides domain.Preferences) (*Container, error) {
	prefsRepo, err := adapterstorage.NewSQLiteRepository(config.GetDBPath())
	if err != nil {
		return nil, err
	}

	logging.Logger.Debug("Container created",
		"backend", backendURL,
		"api_key_override", overrides.APIKey != "",
		"e2b_api_key_override", overrides.E2BAPIKey != "",
		"model_override", overrides.SelectedModel)

	return &Container{
		Client:             client.New(backendURL),
		PreferencesService: services.NewPreferencesService(prefsRepo, overrides),
		prefsRepo:          prefsRepo,
		settings:           settings,
	}, nil
}

// NewConsole creates a session store with preferences loaded and a console
// service bound to it. Every TUI or SSH session gets its own.
func (c *Container) NewConsole(ctx context.Context) (*services.ConsoleService, error) {
	st := store.New()
	st.SetMaxIterations(c.settings.MaxIterationsOrDefault())

	if _, err := c.PreferencesService.Load(ctx, st); err != nil {
		return nil, fmt.Errorf("failed to create console: %w", err)
	}

	return services.NewConsoleService(c.Client, st), nil
}

// Preferences returns the effective preferences (stored values plus overrides)
func (c *Container) Preferences(ctx context.Context) (domain.Preferences, error) {
	return c.PreferencesService.Load(ctx, nil)
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	if c.prefsRepo != nil {
		return c.prefsRepo.Close()
	}
	return nil
}
