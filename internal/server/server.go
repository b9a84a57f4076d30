package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/bubbletea"
	wishlogging "github.com/charmbracelet/wish/logging"

	"anygent/internal/config"
	"anygent/internal/logging"
	"anygent/internal/ui"
)

const shutdownTimeout = 30 * time.Second

// ModelFactory builds a console model with its own session store
type ModelFactory func() (*ui.Model, error)

// Server represents the SSH server for anygent
type Server struct {
	addr               string
	authorizedKeysPath string
	hostKeyPath        string
	newModel           ModelFactory
	wishServer         *ssh.Server
}

// Option configures a Server
type Option func(*Server)

// WithAuthorizedKeysPath overrides ~/.ssh/authorized_keys
func WithAuthorizedKeysPath(path string) Option {
	return func(s *Server) {
		s.authorizedKeysPath = path
	}
}

// WithHostKeyPath overrides $ANYGENT_HOME/ssh/id_ed25519
func WithHostKeyPath(path string) Option {
	return func(s *Server) {
		s.hostKeyPath = path
	}
}

// NewServer creates a new SSH server instance
func NewServer(host, port string, newModel ModelFactory, opts ...Option) (*Server, error) {
	s := &Server{
		addr:        net.JoinHostPort(host, port),
		hostKeyPath: filepath.Join(config.GetSSHDir(), "id_ed25519"),
		newModel:    newModel,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.authorizedKeysPath == "" {
		path, err := defaultAuthorizedKeysPath()
		if err != nil {
			return nil, err
		}
		s.authorizedKeysPath = path
	}

	if err := os.MkdirAll(filepath.Dir(s.hostKeyPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create SSH directory: %w", err)
	}

	// Middleware executes in reverse order (last to first)
	wishServer, err := wish.NewServer(
		wish.WithAddress(s.addr),
		wish.WithHostKeyPath(s.hostKeyPath),
		wish.WithPublicKeyAuth(s.publicKeyHandler),
		wish.WithMiddleware(
			bubbletea.Middleware(s.teaHandler),
			activeterm.Middleware(),
			wishlogging.Middleware(),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH server: %w", err)
	}

	s.wishServer = wishServer
	return s, nil
}

// Addr returns the address the server listens on
func (s *Server) Addr() string {
	return s.addr
}

// Start starts the SSH server and blocks until an interrupt or a listener error
func (s *Server) Start() error {
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(done)

	logging.Logger.Info("Starting SSH server", "address", s.addr)
	fmt.Printf("SSH server listening on %s\n", s.addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.wishServer.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			logging.Logger.Error("SSH server error", "error", err)
			errCh <- err
		}
	}()

	select {
	case <-done:
	case err := <-errCh:
		return fmt.Errorf("SSH server failed: %w", err)
	}

	logging.Logger.Info("Shutting down SSH server")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.wishServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown SSH server: %w", err)
	}

	logging.Logger.Info("SSH server stopped")
	return nil
}
