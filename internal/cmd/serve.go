package cmd

import (
	"context"
	"fmt"

	"anygent/internal/config"
	"anygent/internal/logging"
	"anygent/internal/server"
	"anygent/internal/ui"
)

// ServeCmd serves the console over SSH
type ServeCmd struct {
	AuthorizedKeys  string `help:"authorized_keys file (default ~/.ssh/authorized_keys)" type:"path"`
	ErrorClearDelay int    `help:"Seconds before error messages auto-clear" default:"10"`
	Host            string `help:"Host to bind to (default localhost)"`
	Plain           bool   `help:"Show assistant replies as plain text instead of markdown"`
	Port            string `help:"Port to listen on (default 23235)"`
}

// Run executes the serve command
func (s *ServeCmd) Run(cli *CLI) error {
	host := firstNonEmpty(s.Host, cli.settings.SSHHost, config.DefaultSSHHost)
	port := firstNonEmpty(s.Port, cli.settings.SSHPort, config.DefaultSSHPort)

	logging.Logger.Info("Starting anygent SSH server",
		"host", host,
		"port", port,
		"backend", cli.BackendURL)

	opts, err := cli.resolveConsoleOptions(false, s.ErrorClearDelay, s.Plain)
	if err != nil {
		return err
	}

	newModel := func() (*ui.Model, error) {
		model, _, err := cli.newConsoleModel(context.Background(), opts)
		return model, err
	}

	var serverOpts []server.Option
	if s.AuthorizedKeys != "" {
		serverOpts = append(serverOpts, server.WithAuthorizedKeysPath(s.AuthorizedKeys))
	}

	srv, err := server.NewServer(host, port, newModel, serverOpts...)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// Blocks until shutdown
	return srv.Start()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
