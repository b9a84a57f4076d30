package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anygent/internal/domain"
	"anygent/internal/events"
	"anygent/internal/mock"
)

func newTestClient(t *testing.T, opts ...mock.Option) (*Client, *mock.Server) {
	t.Helper()
	backend := mock.New(opts...)
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)
	return New(srv.URL, WithTimeout(5*time.Second)), backend
}

func TestNew_Defaults(t *testing.T) {
	c := New("")
	assert.Equal(t, DefaultBaseURL, c.BaseURL())

	c = New("http://example.com/")
	assert.Equal(t, "http://example.com", c.BaseURL())
}

func TestSandboxPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "/home/user/app.py", want: "/home/user/app.py"},
		{in: "/src/app.py", want: "/home/user/src/app.py"},
		{in: "app.py", want: "/home/user/app.py"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SandboxPath(tt.in))
		})
	}
}

func TestStreamChat_ScriptedRun(t *testing.T) {
	c, backend := newTestClient(t)

	eventCh, errCh, err := c.StreamChat(context.Background(), domain.ChatRequest{
		APIKey:    "sk-test",
		E2BAPIKey: "e2b-test",
		Message:   "build a landing page",
		Model:     domain.DefaultModel,
	})
	require.NoError(t, err)

	var types []events.Type
	for ev := range eventCh {
		types = append(types, ev.Type)
	}
	require.NoError(t, <-errCh)

	require.NotEmpty(t, types)
	assert.Equal(t, events.TypeSandboxCreating, types[0])
	assert.Equal(t, events.TypeStreamEnd, types[len(types)-1])
	assert.Contains(t, types, events.TypeCodeStreamStart)
	assert.Contains(t, types, events.TypeToolResult)
	assert.Contains(t, types, events.TypeReadFileEnd)
	assert.Contains(t, types, events.TypeComplete)
	assert.Contains(t, backend.Files(), "/home/user/index.html")
}

func TestStreamChat_MissingE2BKey(t *testing.T) {
	c, _ := newTestClient(t)

	eventCh, errCh, err := c.StreamChat(context.Background(), domain.ChatRequest{APIKey: "sk-test", Message: "hi"})
	require.NoError(t, err)

	var got []events.Event
	for ev := range eventCh {
		got = append(got, ev)
	}
	require.NoError(t, <-errCh)

	require.Len(t, got, 2)
	assert.Equal(t, events.TypeError, got[0].Type)
	assert.Contains(t, got[0].Error, "E2B API key is required")
	assert.Equal(t, events.TypeStreamEnd, got[1].Type)
}

func TestChat_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"detail":"upstream down"}`))
	}))
	t.Cleanup(srv.Close)

	_, err := New(srv.URL).Chat(context.Background(), domain.ChatRequest{Message: "hi"})

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	assert.Equal(t, "upstream down", httpErr.Detail())
	assert.Equal(t, "HTTP 502: upstream down", err.Error())
}

func TestModels(t *testing.T) {
	c, _ := newTestClient(t)

	models, err := c.Models(context.Background(), "sk-test")
	require.NoError(t, err)
	require.NotEmpty(t, models)
	assert.Equal(t, domain.DefaultModel, models[0].ID)

	_, err = c.Models(context.Background(), "")
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
}

func TestFiles(t *testing.T) {
	c, _ := newTestClient(t,
		mock.WithFile("src/main.py", "print('hi')\n"),
		mock.WithFile("README.md", "# demo\n"),
	)
	ctx := context.Background()

	tree, err := c.FileTree(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/home/user", tree.Path)
	assert.NotNil(t, tree.Find("/home/user/src/main.py"))
	assert.True(t, tree.Find("/home/user/src").IsDir())

	refreshed, err := c.RefreshFileTree(ctx)
	require.NoError(t, err)
	assert.Equal(t, tree, refreshed)

	content, err := c.ReadFile(ctx, "/src/main.py")
	require.NoError(t, err)
	assert.Equal(t, "print('hi')\n", content)

	_, err = c.ReadFile(ctx, "missing.txt")
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
}

func TestControlEndpoints(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Health(ctx))

	ack, err := c.Stop(ctx)
	require.NoError(t, err)
	assert.True(t, ack.Success)

	ack, err = c.Reset(ctx)
	require.NoError(t, err)
	assert.True(t, ack.Success)

	memory, err := c.Memory(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultMaxIterations, memory.MaxIterations)
	assert.False(t, memory.IsRunning)

	status, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "idle", status.Status)

	sandbox, err := c.SandboxStatus(ctx)
	require.NoError(t, err)
	assert.False(t, sandbox.Exists)
}

func TestStreamChat_CancelStopsStream(t *testing.T) {
	c, _ := newTestClient(t, mock.WithDelay(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())

	eventCh, errCh, err := c.StreamChat(ctx, domain.ChatRequest{APIKey: "k", E2BAPIKey: "e", Message: "loop"})
	require.NoError(t, err)

	<-eventCh
	cancel()

	for range eventCh {
	}
	assert.ErrorIs(t, <-errCh, context.Canceled)
}
