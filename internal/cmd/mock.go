package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"anygent/internal/logging"
	"anygent/internal/mock"
)

// MockCmd runs the scripted mock backend
type MockCmd struct {
	Delay         time.Duration `help:"Pause between streamed events" default:"40ms"`
	Host          string        `help:"Host to bind to" default:"localhost"`
	MaxIterations int           `help:"Iteration ceiling reported by the mock" default:"500"`
	Port          string        `help:"Port to listen on" default:"8000"`
}

// Run executes the mock command
func (m *MockCmd) Run(cli *CLI) error {
	backend := mock.New(
		mock.WithDelay(m.Delay),
		mock.WithMaxIterations(m.MaxIterations),
	)

	addr := net.JoinHostPort(m.Host, m.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           backend.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logging.Logger.Info("Starting mock backend", "address", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	fmt.Printf("Mock backend listening on http://%s\n", addr)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("mock backend failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown mock backend: %w", err)
	}

	logging.Logger.Info("Mock backend stopped")
	return nil
}
