package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"

	"anygent/internal/adapters/sound"
	"anygent/internal/config"
	"anygent/internal/domain"
	"anygent/internal/logging"
	"anygent/internal/services"
	"anygent/internal/ui"
)

const stopOnExitTimeout = 5 * time.Second

// CLI represents the command-line interface structure
type CLI struct {
	Version     kong.VersionFlag `help:"Show version information"`
	APIKey      string           `help:"OpenRouter API key for this process (not persisted)" env:"ANYGENT_API_KEY" name:"api-key"`
	BackendURL  string           `help:"Backend base URL (default http://localhost:8000)" env:"ANYGENT_BACKEND_URL" name:"backend-url"`
	Debug       bool             `help:"Enable debug logging to file" short:"d"`
	DebugFile   string           `help:"Custom path for debug log file (disables automatic cleanup)"`
	E2BAPIKey   string           `help:"E2B API key for this process (not persisted)" env:"ANYGENT_E2B_API_KEY" name:"e2b-api-key"`
	MaxLogFiles int              `help:"Maximum number of log files to keep (0 = unlimited)" default:"1000"`
	Model       string           `help:"Model for this process (not persisted)" env:"ANYGENT_MODEL"`

	Run      RunCmd      `cmd:"" help:"Start the anygent console (default)" default:"1"`
	Chat     ChatCmd     `cmd:"chat" help:"Run the agent once without the console and print the transcript"`
	Stop     StopCmd     `cmd:"stop" help:"Stop the agent run on the backend"`
	Reset    ResetCmd    `cmd:"reset" help:"Reset the agent session and its sandbox"`
	Models   ModelsCmd   `cmd:"models" help:"List the models offered by the backend"`
	Files    FilesCmd    `cmd:"files" help:"Browse the sandbox files (tree, read)"`
	Memory   MemoryCmd   `cmd:"memory" help:"Show the agent memory"`
	Status   StatusCmd   `cmd:"status" help:"Show agent and sandbox status"`
	Settings SettingsCmd `cmd:"settings" help:"Manage settings (meta, keys, set)"`
	Serve    ServeCmd    `cmd:"serve" help:"Serve the console over SSH"`
	Mock     MockCmd     `cmd:"mock" help:"Run a scripted mock backend"`

	// Internal fields (not flags)
	Container *Container       `kong:"-"`
	settings  *config.Settings `kong:"-"`
}

// SetSettings sets the settings on the CLI struct
func (c *CLI) SetSettings(settings *config.Settings) {
	c.settings = settings
}

// AfterApply initializes logging after CLI parsing and applies settings
func (c *CLI) AfterApply() error {
	// Precedence: CLI flags > env vars > settings.json > defaults
	if c.settings == nil {
		c.settings = &config.Settings{}
	}

	if c.MaxLogFiles == logging.DefaultMaxLogFiles {
		if _, hasEnv := os.LookupEnv("ANYGENT_MAX_LOG_FILES"); !hasEnv {
			if c.settings.MaxLogFiles != nil {
				c.MaxLogFiles = *c.settings.MaxLogFiles
			}
		}
	}

	if !c.Debug {
		if _, hasEnv := os.LookupEnv("ANYGENT_DEBUG"); !hasEnv {
			if c.settings.Debug != nil && *c.settings.Debug {
				c.Debug = true
			}
		}
	}

	if c.BackendURL == "" {
		c.BackendURL = c.settings.BackendURLOrDefault()
	}

	if _, err := logging.Initialize(c.Debug, c.DebugFile, c.MaxLogFiles); err != nil {
		return err
	}

	// Container is created after logging so gorm logs through the real logger
	container, err := NewContainer(c.settings, c.BackendURL, domain.Preferences{
		APIKey:        c.APIKey,
		E2BAPIKey:     c.E2BAPIKey,
		SelectedModel: c.Model,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	c.Container = container

	return nil
}

// Close closes all resources held by the CLI
func (c *CLI) Close() error {
	if c.Container != nil {
		return c.Container.Close()
	}
	return nil
}

// consoleOptions are the view settings shared by the local and SSH consoles
type consoleOptions struct {
	DevMode         bool
	ErrorClearDelay time.Duration
	Keys            config.KeyBindingsConfig
	Markdown        bool
}

// newConsoleModel builds a console model on top of a fresh session
func (c *CLI) newConsoleModel(ctx context.Context, opts consoleOptions) (*ui.Model, *services.ConsoleService, error) {
	console, err := c.Container.NewConsole(ctx)
	if err != nil {
		return nil, nil, err
	}

	model := ui.NewModel(ui.ModelConfig{
		Console:         console,
		DevMode:         opts.DevMode,
		ErrorClearDelay: opts.ErrorClearDelay,
		Keys:            opts.Keys,
		Markdown:        opts.Markdown,
		Preferences:     c.Container.PreferencesService,
		StatusConfig:    config.NewStatusConfig(c.settings.StatusColors),
	})
	return model, console, nil
}

// resolveConsoleOptions applies settings.json to the view flags
func (c *CLI) resolveConsoleOptions(dev bool, errorClearDelay int, plain bool) (consoleOptions, error) {
	if errorClearDelay == config.DefaultErrorClearDelay && c.settings.ErrorClearDelay != nil {
		errorClearDelay = *c.settings.ErrorClearDelay
	}

	var keysConfig config.KeyBindingsConfig
	if c.settings.Keys != nil {
		if err := c.settings.Keys.Validate(ui.GetValidKeyNames()); err != nil {
			return consoleOptions{}, fmt.Errorf("invalid key bindings in settings.json: %w", err)
		}
		keysConfig = c.settings.Keys
		logging.Logger.Debug("Custom key bindings loaded and validated")
	}

	return consoleOptions{
		DevMode:         dev,
		ErrorClearDelay: time.Duration(errorClearDelay) * time.Second,
		Keys:            keysConfig,
		Markdown:        c.settings.MarkdownEnabled() && !plain,
	}, nil
}

// attachSound enables run-end sounds for consoles on this machine
func (c *CLI) attachSound(console *services.ConsoleService) {
	if c.settings.SoundEnabled() {
		console.SetSoundPlayer(sound.NewPlayer())
	}
}

// RunCmd starts the TUI application
type RunCmd struct {
	Dev             bool `help:"Enable development mode (shows version info in dialogs)"`
	ErrorClearDelay int  `help:"Seconds before error messages auto-clear" default:"10"`
	Plain           bool `help:"Show assistant replies as plain text instead of markdown"`
}

// Run executes the TUI
func (r *RunCmd) Run(cli *CLI) error {
	logging.Logger.Info("Starting anygent console", "backend", cli.BackendURL)

	opts, err := cli.resolveConsoleOptions(r.Dev, r.ErrorClearDelay, r.Plain)
	if err != nil {
		return err
	}

	model, console, err := cli.newConsoleModel(context.Background(), opts)
	if err != nil {
		return err
	}
	defer model.Close()
	cli.attachSound(console)

	p := tea.NewProgram(model, tea.WithAltScreen())

	logging.Logger.Info("Starting TUI program")
	if _, err := p.Run(); err != nil {
		logging.Logger.Error("TUI program error", "error", err)
		return fmt.Errorf("error running program: %w", err)
	}

	if console.Running() {
		ctx, cancel := context.WithTimeout(context.Background(), stopOnExitTimeout)
		defer cancel()
		if err := console.Stop(ctx); err != nil {
			logging.Logger.Warn("Failed to stop agent on exit", "error", err)
		}
	}

	logging.Logger.Info("TUI program exited normally")
	return nil
}
