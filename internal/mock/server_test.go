package mock

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anygent/internal/domain"
	"anygent/internal/events"
)

func postChat(t *testing.T, h http.Handler, message, e2bKey string) []events.Event {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"message": message, "api_key": "k", "e2b_api_key": e2bKey})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	var out []events.Event
	for ev, err := range events.NewDecoder(rec.Body).All() {
		require.NoError(t, err)
		out = append(out, ev)
	}
	return out
}

func types(evs []events.Event) []events.Type {
	out := make([]events.Type, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.Type)
	}
	return out
}

func TestEventLine(t *testing.T) {
	line := eventLine(events.TypeToolResult,
		set("tool_name", events.ToolFileWrite),
		setRaw("result", `{"success":true}`),
		set("iteration", 2))

	var ev events.Event
	require.NoError(t, json.Unmarshal([]byte(line), &ev))
	assert.Equal(t, events.TypeToolResult, ev.Type)
	assert.Equal(t, events.ToolFileWrite, ev.ToolName)
	assert.True(t, ev.ResultSuccess())
	assert.Equal(t, 2, ev.Iteration)
}

func TestChat_ScriptedRun(t *testing.T) {
	s := New()
	evs := postChat(t, s.Handler(), "make a page", "e2b")

	got := types(evs)
	assert.Equal(t, events.TypeSandboxCreating, got[0])
	assert.Equal(t, events.TypeSandboxReady, got[1])
	assert.Equal(t, events.TypeIterationStart, got[2])
	assert.Equal(t, events.TypeComplete, got[len(got)-2])
	assert.Equal(t, events.TypeStreamEnd, got[len(got)-1])

	var streamed strings.Builder
	for _, ev := range evs {
		if ev.Type == events.TypeCodeStreamChunk {
			streamed.WriteString(ev.Chunk)
		}
	}
	assert.Equal(t, s.Files()["/home/user/index.html"], streamed.String())

	// The sandbox survives between runs
	second := types(postChat(t, s.Handler(), "again", "e2b"))
	assert.NotContains(t, second, events.TypeSandboxCreating)
}

func TestChat_FailKeyword(t *testing.T) {
	s := New()
	evs := postChat(t, s.Handler(), "please fail", "e2b")

	for _, ev := range evs {
		if ev.Type == events.TypeToolResult {
			assert.False(t, ev.ResultSuccess())
			assert.Equal(t, "Permission denied", ev.ResultError())
		}
		if ev.Type == events.TypeReadFileEnd {
			assert.False(t, ev.ResultSuccess())
		}
	}
	assert.Empty(t, s.Files())
}

func TestChat_CrashKeyword(t *testing.T) {
	s := New()
	body, _ := json.Marshal(map[string]string{"message": "crash now", "api_key": "k", "e2b_api_key": "e"})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(body)))

	dec := events.NewDecoder(rec.Body)
	var got []events.Type
	for ev, err := range dec.All() {
		require.NoError(t, err)
		got = append(got, ev.Type)
	}

	assert.Contains(t, got, events.Type("telemetry_ping"))
	assert.Equal(t, []events.Type{events.TypeError, events.TypeStreamEnd}, got[len(got)-2:])
	assert.Equal(t, 1, dec.Stats().Dropped)
}

func TestChat_LoopReachesCeiling(t *testing.T) {
	s := New(WithMaxIterations(3))
	got := types(postChat(t, s.Handler(), "loop forever", "e2b"))

	assert.Equal(t, []events.Type{events.TypeMaxIterationsReached, events.TypeStreamEnd}, got[len(got)-2:])
}

func TestChat_MissingE2BKey(t *testing.T) {
	got := types(postChat(t, New().Handler(), "hi", ""))
	assert.Equal(t, []events.Type{events.TypeError, events.TypeStreamEnd}, got)
}

func TestReset_ClearsSandbox(t *testing.T) {
	s := New(WithFile("a.txt", "a"))
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat/reset", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Empty(t, s.Files())
}

func TestMemory_Stats(t *testing.T) {
	s := New(WithFile("a.py", "x"), WithFile("lib/b.py", "y"), WithFile("c.md", "z"))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/memory", nil))

	var m domain.Memory
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&m))
	assert.Equal(t, 3, m.Stats.FilesCreated)
	assert.Equal(t, map[string]int{"py": 2, "md": 1}, m.Stats.FileTypes)
	assert.Len(t, m.Stats.FilesInContext, 3)
	assert.NotNil(t, m.Messages)
}

func TestBuildTree(t *testing.T) {
	root := buildTree([]string{"/home/user/a/b/c.txt", "/home/user/a/d.txt", "/home/user/z.go"})

	require.Len(t, root.Children, 2)
	a := root.Children[0]
	assert.Equal(t, "a", a.Name)
	assert.True(t, a.IsDir())
	require.Len(t, a.Children, 2)
	assert.Equal(t, "/home/user/a/b", a.Children[0].Path)
	assert.Equal(t, "c.txt", a.Children[0].Children[0].Name)
	assert.Equal(t, "z.go", root.Children[1].Name)
}

func TestModels_RequiresKey(t *testing.T) {
	rec := httptest.NewRecorder()
	New().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/models", strings.NewReader(`{"api_key":""}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	data, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(data), "Invalid API key")
}
