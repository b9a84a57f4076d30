package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"anygent/internal/domain"
	"anygent/internal/logging"
	"anygent/internal/ports"
	"anygent/internal/reducer"
	"anygent/internal/store"
)

const (
	defaultCacheSize      = 128
	defaultRefreshTimeout = 15 * time.Second
)

// ConsoleService orchestrates agent runs and the server snapshots shown next to them
type ConsoleService struct {
	api            ports.AgentAPI
	fileCache      *lru.Cache[string, string]
	reducer        *reducer.Reducer
	refreshTimeout time.Duration
	refreshes      sync.WaitGroup
	sound          ports.SoundPlayer
	store          *store.Store

	mu        sync.Mutex
	cancelRun context.CancelFunc
	lastStats reducer.Stats
	runDone   chan struct{}
	stopped   bool
}

// NewConsoleService creates a new ConsoleService bound to one session store
func NewConsoleService(api ports.AgentAPI, st *store.Store) *ConsoleService {
	cache, _ := lru.New[string, string](defaultCacheSize)
	s := &ConsoleService{
		api:            api,
		fileCache:      cache,
		refreshTimeout: defaultRefreshTimeout,
		store:          st,
	}
	s.reducer = reducer.New(st, s)
	return s
}

// Store returns the session store the service writes to
func (s *ConsoleService) Store() *store.Store {
	return s.store
}

// SetSoundPlayer makes the service play a sound when a run ends. Stopped
// runs stay silent.
func (s *ConsoleService) SetSoundPlayer(player ports.SoundPlayer) {
	s.sound = player
}

// ReducerStats returns the event counters as of the end of the last run
func (s *ConsoleService) ReducerStats() reducer.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastStats
}

// Send runs the agent on message and blocks until the run ends. Validation
// failures return a sentinel error without touching the transcript. Transport
// failures are added to the transcript once and returned wrapped in
// domain.ErrRunFailed.
func (s *ConsoleService) Send(ctx context.Context, message string) (err error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return domain.ErrEmptyMessage
	}

	prefs := s.store.Preferences()
	if !prefs.HasAPIKey() {
		s.store.SetSettingsOpen(true)
		return domain.ErrNoAPIKey
	}

	s.mu.Lock()
	if s.cancelRun != nil {
		s.mu.Unlock()
		return domain.ErrRunInProgress
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancelRun = cancel
	s.runDone = done
	s.stopped = false
	s.mu.Unlock()

	runLog := logging.RunLogger(uuid.NewString(), prefs.SelectedModel)
	started := time.Now()

	defer func() {
		cancel()
		s.reducer.Abort()
		s.store.SetAgentRunning(false)
		s.store.SetCodeStreaming(domain.StopStreaming())

		s.mu.Lock()
		s.cancelRun = nil
		s.lastStats = s.reducer.Stats()
		s.runDone = nil
		s.mu.Unlock()
		close(done)

		stats := s.reducer.Stats()
		runLog.Info("Agent run ended",
			"outcome", s.runOutcome(err),
			"applied", stats.Applied,
			"unknown", stats.Unknown,
			"duration", time.Since(started))

		s.playRunSound(err)
	}()

	runLog.Info("Starting agent run", "length", len(message))

	s.store.AddChatEntry(domain.ChatEntry{Content: message, Type: domain.EntryUser})
	s.store.SetAgentRunning(true)
	s.store.SetCurrentIteration(0)
	s.store.ResetCodeStreaming()
	s.reducer.Reset()

	eventCh, errCh, err := s.api.StreamChat(runCtx, domain.ChatRequest{
		APIKey:    prefs.APIKey,
		E2BAPIKey: prefs.E2BAPIKey,
		Message:   message,
		Model:     prefs.SelectedModel,
	})
	if err != nil {
		return s.endRun(err)
	}

	for ev := range eventCh {
		s.reducer.Apply(ev)
	}

	if err := <-errCh; err != nil {
		return s.endRun(err)
	}
	return nil
}

func (s *ConsoleService) runOutcome(err error) string {
	switch {
	case s.wasStopped():
		return "stopped"
	case err != nil:
		return "failed"
	}
	return "completed"
}

func (s *ConsoleService) playRunSound(err error) {
	if s.sound == nil || s.wasStopped() {
		return
	}
	event := domain.SoundRunComplete
	if err != nil {
		event = domain.SoundRunFailed
	}
	if playErr := s.sound.PlaySoundForEvent(event); playErr != nil {
		logging.Logger.Debug("Failed to play sound", "event", event, "error", playErr)
	}
}

// endRun classifies an error that ended the run early. Cancellation caused
// by Stop is not a failure.
func (s *ConsoleService) endRun(err error) error {
	if s.wasStopped() && errors.Is(err, context.Canceled) {
		logging.Logger.Info("Agent run stopped by user")
		return nil
	}
	return s.failRun(err)
}

func (s *ConsoleService) failRun(err error) error {
	logging.Logger.Error("Agent run failed", "error", err)
	s.store.AddChatEntry(domain.ChatEntry{
		Content: fmt.Sprintf("Error: %s", err.Error()),
		Type:    domain.EntryAssistant,
	})
	s.store.SetCodeStreaming(domain.StopStreaming())
	return fmt.Errorf("%w: %w", domain.ErrRunFailed, err)
}

func (s *ConsoleService) wasStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// Running reports whether a run is in progress
func (s *ConsoleService) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelRun != nil
}

// Stop asks the backend to halt and cancels the local stream. Events decoded
// before the cancellation are still applied. Local state is cleared even when
// the backend call fails.
func (s *ConsoleService) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancelRun
	s.stopped = true
	s.mu.Unlock()

	logging.Logger.Info("Stopping agent run", "local_run", cancel != nil)

	_, err := s.api.Stop(ctx)
	if cancel != nil {
		cancel()
	}
	s.store.SetAgentRunning(false)
	s.store.SetCodeStreaming(domain.StopStreaming())

	if err != nil {
		logging.Logger.Error("Failed to stop agent on server", "error", err)
		return fmt.Errorf("failed to stop agent: %w", err)
	}
	return nil
}

// Reset clears the server session and returns the console to a fresh-session
// state. A run in progress is cancelled first. The local state is cleared
// even when the backend call fails.
func (s *ConsoleService) Reset(ctx context.Context) error {
	if err := s.cancelAndWait(ctx); err != nil {
		return err
	}

	logging.Logger.Info("Resetting session")
	_, resetErr := s.api.Reset(ctx)
	if resetErr != nil {
		logging.Logger.Error("Failed to reset session on server", "error", resetErr)
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return s.loadFileTree(gctx) })
		g.Go(func() error { return s.loadMemory(gctx) })
		if err := g.Wait(); err != nil {
			logging.Logger.Warn("Failed to reload snapshots after reset", "error", err)
		}
	}

	s.reducer.Reset()
	s.store.ResetRun()
	s.fileCache.Purge()

	if resetErr != nil {
		return fmt.Errorf("failed to reset session: %w", resetErr)
	}
	return nil
}

// cancelAndWait cancels the current run, if any, and waits for its cleanup
func (s *ConsoleService) cancelAndWait(ctx context.Context) error {
	s.mu.Lock()
	cancel, done := s.cancelRun, s.runDone
	s.stopped = true
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RefreshFileTree reloads the file tree in the background
func (s *ConsoleService) RefreshFileTree() {
	s.background("file tree", s.loadFileTree)
}

// RefreshMemory reloads the memory snapshot in the background
func (s *ConsoleService) RefreshMemory() {
	s.background("memory", s.loadMemory)
}

// Wait blocks until every background refresh has finished
func (s *ConsoleService) Wait() {
	s.refreshes.Wait()
}

func (s *ConsoleService) background(what string, fn func(context.Context) error) {
	s.refreshes.Add(1)
	go func() {
		defer s.refreshes.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.refreshTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			logging.Logger.Warn("Background refresh failed", "what", what, "error", err)
		}
	}()
}

func (s *ConsoleService) loadFileTree(ctx context.Context) error {
	tree, err := s.api.FileTree(ctx)
	if err != nil {
		return err
	}
	s.store.SetFileTree(tree)
	// Files may have changed on disk
	s.fileCache.Purge()
	return nil
}

func (s *ConsoleService) loadMemory(ctx context.Context) error {
	memory, err := s.api.Memory(ctx)
	if err != nil {
		return err
	}
	s.store.SetMemory(memory)
	return nil
}

// ForceRefreshFileTree asks the backend to rescan the sandbox
func (s *ConsoleService) ForceRefreshFileTree(ctx context.Context) error {
	tree, err := s.api.RefreshFileTree(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh file tree: %w", err)
	}
	s.store.SetFileTree(tree)
	s.fileCache.Purge()
	return nil
}

// LoadInitial fetches the file tree, memory and models in parallel
func (s *ConsoleService) LoadInitial(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.loadFileTree(gctx) })
	g.Go(func() error { return s.loadMemory(gctx) })
	g.Go(func() error { return s.FetchModels(gctx) })

	if err := g.Wait(); err != nil {
		logging.Logger.Warn("Initial load incomplete", "error", err)
		return fmt.Errorf("failed to load initial state: %w", err)
	}
	return nil
}

// FetchModels loads the model list. It is a no-op until an API key is configured.
func (s *ConsoleService) FetchModels(ctx context.Context) error {
	prefs := s.store.Preferences()
	if !prefs.HasAPIKey() {
		return nil
	}

	s.store.SetModelsLoading(true)
	defer s.store.SetModelsLoading(false)

	models, err := s.api.Models(ctx, prefs.APIKey)
	if err != nil {
		return err
	}
	logging.Logger.Debug("Models loaded", "count", len(models))
	s.store.SetModels(models)
	return nil
}

// OpenFile shows path in the file viewer and opens a tab for it
func (s *ConsoleService) OpenFile(ctx context.Context, path string) error {
	content, ok := s.fileCache.Get(path)
	if !ok {
		var err error
		content, err = s.api.ReadFile(ctx, path)
		if err != nil {
			return err
		}
		s.fileCache.Add(path, content)
	}

	s.store.SelectFile(path)
	s.store.SetFileContent(content)
	s.store.AddTab(path)
	return nil
}

// CloseTab closes the tab for path and loads whichever tab becomes selected
func (s *ConsoleService) CloseTab(ctx context.Context, path string) error {
	s.store.RemoveTab(path)
	next := s.store.Snapshot().SelectedFile
	if next == "" || next == path {
		return nil
	}
	return s.OpenFile(ctx, next)
}
