package services

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"anygent/internal/client"
	"anygent/internal/domain"
	"anygent/internal/events"
	backend "anygent/internal/mock"
	portsmocks "anygent/internal/ports/mocks"
	"anygent/internal/store"
)

func newBackendService(t *testing.T, opts ...backend.Option) (*ConsoleService, *store.Store, *backend.Server) {
	t.Helper()
	srv := backend.New(opts...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	st := store.New()
	st.SetPreferences(domain.Preferences{APIKey: "sk-test", E2BAPIKey: "e2b-test", SelectedModel: domain.DefaultModel})
	svc := NewConsoleService(client.New(ts.URL, client.WithTimeout(5*time.Second)), st)
	t.Cleanup(svc.Wait)
	return svc, st, srv
}

func TestSend_FullRunAgainstBackend(t *testing.T) {
	svc, st, srv := newBackendService(t)

	require.NoError(t, svc.Send(context.Background(), "build a landing page"))
	svc.Wait()

	snap := st.Snapshot()
	assert.False(t, snap.AgentRunning)
	assert.False(t, snap.CodeStreaming.IsStreaming)
	assert.Equal(t, domain.SandboxReady, snap.SandboxStatus)
	assert.Equal(t, 3, snap.CurrentIteration)

	var kinds []domain.EntryType
	for _, e := range snap.ChatEntries {
		kinds = append(kinds, e.Type)
	}
	assert.Equal(t, []domain.EntryType{
		domain.EntryUser,
		domain.EntryAssistant,
		domain.EntryFileCard,
		domain.EntryReadFileCard,
		domain.EntryAssistant,
	}, kinds)

	assert.Equal(t, domain.FileCreated, snap.ChatEntries[2].FileStatus)
	assert.Equal(t, domain.ReadDone, snap.ChatEntries[3].ReadStatus)
	assert.Equal(t, srv.Files()["/home/user/index.html"], snap.CodeStreaming.Content)

	// Effects ran: the tree after the write and the memory after complete
	require.NotNil(t, snap.FileTree)
	assert.NotNil(t, snap.FileTree.Find("/home/user/index.html"))
	require.NotNil(t, snap.Memory)
	assert.Equal(t, 1, snap.Memory.Stats.FilesCreated)
}

func TestSend_Validation(t *testing.T) {
	api := portsmocks.NewMockAgentAPI(t)
	st := store.New()
	svc := NewConsoleService(api, st)

	assert.ErrorIs(t, svc.Send(context.Background(), "   "), domain.ErrEmptyMessage)

	assert.ErrorIs(t, svc.Send(context.Background(), "hello"), domain.ErrNoAPIKey)
	assert.True(t, st.Snapshot().SettingsOpen)
	assert.Empty(t, st.ChatEntries())
}

func TestSend_TransportErrorSurfacedOnce(t *testing.T) {
	api := portsmocks.NewMockAgentAPI(t)
	st := store.New()
	st.SetPreferences(domain.Preferences{APIKey: "k", SelectedModel: "m"})
	svc := NewConsoleService(api, st)

	api.On("StreamChat", mock.Anything, mock.MatchedBy(func(req domain.ChatRequest) bool {
		return req.Message == "hi" && req.APIKey == "k" && req.Model == "m"
	})).Return(nil, nil, &client.HTTPError{StatusCode: 502, Body: "bad gateway"})

	err := svc.Send(context.Background(), "hi")

	require.ErrorIs(t, err, domain.ErrRunFailed)
	entries := st.ChatEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "Error: HTTP 502: bad gateway", entries[1].Content)
	assert.False(t, st.AgentRunning())
}

func TestSend_MidStreamFailureClearsBusyState(t *testing.T) {
	api := portsmocks.NewMockAgentAPI(t)
	st := store.New()
	st.SetPreferences(domain.Preferences{APIKey: "k"})
	svc := NewConsoleService(api, st)

	eventCh, errCh := portsmocks.EventStream(errors.New("connection reset"),
		events.Event{Type: events.TypeThoughtStreamStart},
		events.Event{Type: events.TypeThoughtStreamChunk, Chunk: "half a tho"},
		events.Event{Type: events.TypeCodeStreamStart, FilePath: "a.py"},
	)
	api.On("StreamChat", mock.Anything, mock.Anything).Return(eventCh, errCh, nil)

	err := svc.Send(context.Background(), "go")

	require.ErrorIs(t, err, domain.ErrRunFailed)
	snap := st.Snapshot()
	assert.False(t, snap.AgentRunning)
	assert.False(t, snap.CodeStreaming.IsStreaming)
	for _, e := range snap.ChatEntries {
		assert.False(t, e.IsStreaming)
		assert.NotEqual(t, domain.FileWriting, e.FileStatus)
	}
	assert.Equal(t, "Error: connection reset", snap.ChatEntries[len(snap.ChatEntries)-1].Content)
}

func TestSend_UnknownEventsCounted(t *testing.T) {
	api := portsmocks.NewMockAgentAPI(t)
	st := store.New()
	st.SetPreferences(domain.Preferences{APIKey: "k"})
	svc := NewConsoleService(api, st)

	eventCh, errCh := portsmocks.EventStream(nil,
		events.Event{Type: "future_event"},
		events.Event{Type: events.TypeStreamEnd},
	)
	api.On("StreamChat", mock.Anything, mock.Anything).Return(eventCh, errCh, nil)

	require.NoError(t, svc.Send(context.Background(), "go"))
	assert.Equal(t, 1, svc.ReducerStats().Unknown)
	assert.Equal(t, 1, svc.ReducerStats().Applied)
}

func TestSend_RejectsConcurrentRun(t *testing.T) {
	svc, st, _ := newBackendService(t, backend.WithDelay(20*time.Millisecond))

	done := make(chan error, 1)
	go func() { done <- svc.Send(context.Background(), "loop") }()

	require.Eventually(t, svc.Running, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, svc.Send(context.Background(), "second"), domain.ErrRunInProgress)

	require.NoError(t, svc.Stop(context.Background()))
	require.NoError(t, <-done)
	assert.False(t, st.AgentRunning())
	assert.False(t, svc.Running())
}

func TestStop_ClearsLocalStateWhenServerFails(t *testing.T) {
	api := portsmocks.NewMockAgentAPI(t)
	st := store.New()
	st.SetAgentRunning(true)
	st.SetCodeStreaming(domain.StartStreaming("a", domain.ToolEditor, "Editing a"))
	svc := NewConsoleService(api, st)

	api.On("Stop", mock.Anything).Return(domain.Ack{}, errors.New("unreachable"))

	err := svc.Stop(context.Background())

	assert.Error(t, err)
	assert.False(t, st.AgentRunning())
	assert.False(t, st.CodeStreaming().IsStreaming)
}

func TestStop_WhileBackendKeepsStreaming(t *testing.T) {
	api := portsmocks.NewMockAgentAPI(t)
	st := store.New()
	st.SetPreferences(domain.Preferences{APIKey: "sk-test", SelectedModel: domain.DefaultModel})
	svc := NewConsoleService(api, st)

	eventCh := make(chan events.Event, 1)
	errCh := make(chan error, 1)
	api.On("StreamChat", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			eventCh <- events.Event{Type: events.TypeCodeStreamStart, FilePath: "index.html"}
			go func() {
				// ignores the stop request and only ends on cancellation
				<-ctx.Done()
				close(eventCh)
				errCh <- ctx.Err()
				close(errCh)
			}()
		}).
		Return((<-chan events.Event)(eventCh), (<-chan error)(errCh), nil)
	api.On("Stop", mock.Anything).Return(domain.Ack{Success: true}, nil)

	done := make(chan error, 1)
	go func() { done <- svc.Send(context.Background(), "build it") }()

	require.Eventually(t, func() bool { return len(st.ChatEntries()) == 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, svc.Stop(context.Background()))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Send did not return after Stop")
	}

	entries := st.ChatEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, domain.EntryFileCard, entries[1].Type)
	assert.Equal(t, domain.FileError, entries[1].FileStatus)
	for _, e := range entries {
		assert.NotContains(t, e.Content, "Error:")
	}
	assert.False(t, st.AgentRunning())
	assert.False(t, st.CodeStreaming().IsStreaming)
	assert.False(t, svc.Running())
}

func TestReset_FreshSession(t *testing.T) {
	svc, st, srv := newBackendService(t)
	require.NoError(t, svc.Send(context.Background(), "make it"))
	svc.Wait()
	prefs := st.Preferences()

	require.NoError(t, svc.Reset(context.Background()))

	snap := st.Snapshot()
	assert.Empty(t, snap.ChatEntries)
	assert.Equal(t, domain.SandboxIdle, snap.SandboxStatus)
	assert.Zero(t, snap.CurrentIteration)
	assert.Equal(t, domain.CodeStreamingState{}, snap.CodeStreaming)
	assert.Equal(t, prefs, snap.Preferences)
	assert.Empty(t, srv.Files())
	require.NotNil(t, snap.FileTree)
	assert.Empty(t, snap.FileTree.Children)

	// The next run behaves like the first one of a fresh session
	require.NoError(t, svc.Send(context.Background(), "again"))
	assert.Equal(t, domain.EntryUser, st.ChatEntries()[0].Type)
	assert.Equal(t, domain.SandboxReady, st.SandboxStatus())
}

func TestReset_ClearsLocalStateWhenServerFails(t *testing.T) {
	api := portsmocks.NewMockAgentAPI(t)
	st := store.New()
	st.AddChatEntry(domain.ChatEntry{Content: "hi", Type: domain.EntryUser})
	st.SetSandboxStatus(domain.SandboxError)
	st.SetCurrentIteration(4)
	st.SetCodeStreaming(domain.StartStreaming("a", domain.ToolEditor, "Editing a"))
	svc := NewConsoleService(api, st)

	api.On("Reset", mock.Anything).Return(domain.Ack{}, errors.New("unreachable"))

	err := svc.Reset(context.Background())

	assert.ErrorContains(t, err, "failed to reset session")
	snap := st.Snapshot()
	assert.Empty(t, snap.ChatEntries)
	assert.Equal(t, domain.SandboxIdle, snap.SandboxStatus)
	assert.Zero(t, snap.CurrentIteration)
	assert.Equal(t, domain.CodeStreamingState{}, snap.CodeStreaming)
}

func TestLoadInitial(t *testing.T) {
	svc, st, _ := newBackendService(t, backend.WithFile("main.go", "package main\n"))

	require.NoError(t, svc.LoadInitial(context.Background()))

	snap := st.Snapshot()
	require.NotNil(t, snap.FileTree)
	assert.NotNil(t, snap.FileTree.Find("/home/user/main.go"))
	assert.NotNil(t, snap.Memory)
	assert.NotEmpty(t, snap.Models)
	assert.False(t, snap.ModelsLoading)
}

func TestFetchModels_SkippedWithoutKey(t *testing.T) {
	api := portsmocks.NewMockAgentAPI(t)
	svc := NewConsoleService(api, store.New())

	require.NoError(t, svc.FetchModels(context.Background()))
	api.AssertNotCalled(t, "Models", mock.Anything, mock.Anything)
}

func TestOpenFile_UsesCache(t *testing.T) {
	api := portsmocks.NewMockAgentAPI(t)
	st := store.New()
	svc := NewConsoleService(api, st)

	api.On("ReadFile", mock.Anything, "/home/user/a.py").Return("print(1)", nil).Once()
	api.On("ReadFile", mock.Anything, "/home/user/b.py").Return("print(2)", nil).Once()

	require.NoError(t, svc.OpenFile(context.Background(), "/home/user/a.py"))
	require.NoError(t, svc.OpenFile(context.Background(), "/home/user/b.py"))
	require.NoError(t, svc.OpenFile(context.Background(), "/home/user/a.py"))

	snap := st.Snapshot()
	assert.Equal(t, "/home/user/a.py", snap.SelectedFile)
	assert.Equal(t, "print(1)", snap.FileContent)
	assert.Equal(t, []string{"/home/user/a.py", "/home/user/b.py"}, snap.OpenTabs)

	// Closing the selected tab shows the remaining one from cache
	require.NoError(t, svc.CloseTab(context.Background(), "/home/user/a.py"))
	snap = st.Snapshot()
	assert.Equal(t, "/home/user/b.py", snap.SelectedFile)
	assert.Equal(t, "print(2)", snap.FileContent)
}

func TestRefreshFileTree_PurgesCache(t *testing.T) {
	api := portsmocks.NewMockAgentAPI(t)
	st := store.New()
	svc := NewConsoleService(api, st)

	tree := &domain.FileNode{Name: "user", Path: "/home/user", Type: domain.NodeFolder}
	api.On("ReadFile", mock.Anything, "a").Return("v1", nil).Once()
	api.On("ReadFile", mock.Anything, "a").Return("v2", nil).Once()
	api.On("FileTree", mock.Anything).Return(tree, nil).Once()

	require.NoError(t, svc.OpenFile(context.Background(), "a"))
	svc.RefreshFileTree()
	svc.Wait()
	require.NoError(t, svc.OpenFile(context.Background(), "a"))

	assert.Equal(t, "v2", st.Snapshot().FileContent)
	assert.Equal(t, tree, st.FileTree())
}

func TestSend_PlaysSoundWhenRunEnds(t *testing.T) {
	t.Run("complete", func(t *testing.T) {
		api := portsmocks.NewMockAgentAPI(t)
		player := portsmocks.NewMockSoundPlayer(t)
		st := store.New()
		st.SetPreferences(domain.Preferences{APIKey: "k"})
		svc := NewConsoleService(api, st)
		svc.SetSoundPlayer(player)

		eventCh, errCh := portsmocks.EventStream(nil, events.Event{Type: events.TypeStreamEnd})
		api.On("StreamChat", mock.Anything, mock.Anything).Return(eventCh, errCh, nil)
		player.On("PlaySoundForEvent", domain.SoundRunComplete).Return(nil).Once()

		require.NoError(t, svc.Send(context.Background(), "go"))
	})

	t.Run("failed", func(t *testing.T) {
		api := portsmocks.NewMockAgentAPI(t)
		player := portsmocks.NewMockSoundPlayer(t)
		st := store.New()
		st.SetPreferences(domain.Preferences{APIKey: "k"})
		svc := NewConsoleService(api, st)
		svc.SetSoundPlayer(player)

		api.On("StreamChat", mock.Anything, mock.Anything).
			Return(nil, nil, &client.HTTPError{StatusCode: 500, Body: "boom"})
		player.On("PlaySoundForEvent", domain.SoundRunFailed).Return(errors.New("no speaker")).Once()

		require.ErrorIs(t, svc.Send(context.Background(), "go"), domain.ErrRunFailed)
	})

	t.Run("validation errors stay silent", func(t *testing.T) {
		api := portsmocks.NewMockAgentAPI(t)
		player := portsmocks.NewMockSoundPlayer(t)
		svc := NewConsoleService(api, store.New())
		svc.SetSoundPlayer(player)

		require.ErrorIs(t, svc.Send(context.Background(), "go"), domain.ErrNoAPIKey)
		player.AssertNotCalled(t, "PlaySoundForEvent", mock.Anything)
	})
}
