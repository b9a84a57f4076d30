package reducer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"anygent/internal/domain"
	"anygent/internal/events"
	"anygent/internal/store"
)

type mockEffects struct {
	mock.Mock
}

func (m *mockEffects) RefreshFileTree() { m.Called() }
func (m *mockEffects) RefreshMemory()   { m.Called() }

func newTestReducer(t *testing.T) (*Reducer, *store.Store, *mockEffects) {
	t.Helper()
	s := store.New()
	effects := &mockEffects{}
	effects.On("RefreshFileTree").Maybe()
	effects.On("RefreshMemory").Maybe()
	return New(s, effects), s, effects
}

func applyAll(t *testing.T, r *Reducer, evs ...events.Event) {
	t.Helper()
	for _, ev := range evs {
		r.Apply(ev)
	}
}

func raw(s string) json.RawMessage { return json.RawMessage(s) }

func TestThoughtStream_EndContentIsAuthoritative(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
		final  string
	}{
		{name: "chunks match final", chunks: []string{"Hel", "lo"}, final: "Hello"},
		{name: "chunks differ from final", chunks: []string{"draft ", "text"}, final: "Final answer"},
		{name: "no chunks", chunks: nil, final: "Just the end"},
		{name: "empty final", chunks: []string{"lost"}, final: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, s, _ := newTestReducer(t)

			r.Apply(events.Event{Type: events.TypeThoughtStreamStart})
			entries := s.ChatEntries()
			require.Len(t, entries, 1)
			assert.True(t, entries[0].IsStreaming)
			assert.Equal(t, domain.EntryAssistant, entries[0].Type)

			for _, c := range tt.chunks {
				r.Apply(events.Event{Type: events.TypeThoughtStreamChunk, Chunk: c})
			}
			r.Apply(events.Event{Type: events.TypeThoughtStreamEnd, Content: tt.final})

			entries = s.ChatEntries()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.final, entries[0].Content)
			assert.False(t, entries[0].IsStreaming)
		})
	}
}

func TestThoughtStreamChunk_WithoutStartIsIgnored(t *testing.T) {
	r, s, _ := newTestReducer(t)

	assert.True(t, r.Apply(events.Event{Type: events.TypeThoughtStreamChunk, Chunk: "orphan"}))
	assert.True(t, r.Apply(events.Event{Type: events.TypeThoughtStreamEnd, Content: "orphan"}))

	assert.Empty(t, s.ChatEntries())
}

func TestThought_AppendsCompleteEntry(t *testing.T) {
	r, s, _ := newTestReducer(t)

	r.Apply(events.Event{Type: events.TypeThought, Content: "Planning the layout", Iteration: 2})
	r.Apply(events.Event{Type: events.TypeThought})

	entries := s.ChatEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, "Planning the layout", entries[0].Content)
	assert.Equal(t, 2, entries[0].Iteration)
	assert.False(t, entries[0].IsStreaming)
}

func TestCodeStream_WriteSucceeds(t *testing.T) {
	s := store.New()
	effects := &mockEffects{}
	effects.On("RefreshFileTree").Return().Once()
	r := New(s, effects)

	applyAll(t, r,
		events.Event{Type: events.TypeCodeStreamStart, FilePath: "a.ts"},
		events.Event{Type: events.TypeCodeStreamChunk, Chunk: "fn "},
		events.Event{Type: events.TypeCodeStreamChunk, Chunk: "f(){}"},
		events.Event{Type: events.TypeToolResult, ToolName: events.ToolFileWrite, Result: raw(`{"success":true}`)},
	)

	cs := s.CodeStreaming()
	assert.Equal(t, "fn f(){}", cs.Content)
	assert.Equal(t, "a.ts", cs.FilePath)
	assert.Equal(t, domain.ToolEditor, cs.Tool)
	assert.False(t, cs.IsStreaming)

	entries := s.ChatEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.EntryFileCard, entries[0].Type)
	assert.Equal(t, domain.FileCreated, entries[0].FileStatus)

	effects.AssertExpectations(t)
	effects.AssertNumberOfCalls(t, "RefreshFileTree", 1)
	effects.AssertNotCalled(t, "RefreshMemory")
}

func TestCodeStream_WriteFails(t *testing.T) {
	r, s, effects := newTestReducer(t)

	applyAll(t, r,
		events.Event{Type: events.TypeCodeStreamStart, FilePath: "b.py"},
		events.Event{Type: events.TypeCodeStreamChunk, Chunk: "x = 1"},
		events.Event{Type: events.TypeCodeStreamEnd},
		events.Event{Type: events.TypeToolResult, ToolName: events.ToolFileWrite, Result: raw(`{"success":false,"error":"disk full"}`)},
	)

	entries := s.ChatEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.FileError, entries[0].FileStatus)
	assert.Equal(t, "x = 1", s.CodeStreaming().Content)
	effects.AssertNumberOfCalls(t, "RefreshFileTree", 1)
}

func TestToolResult_OtherToolOrNoOpenCardIsIgnored(t *testing.T) {
	r, s, effects := newTestReducer(t)

	r.Apply(events.Event{Type: events.TypeToolResult, ToolName: events.ToolFileWrite, Result: raw(`{"success":true}`)})
	r.Apply(events.Event{Type: events.TypeCodeStreamStart, FilePath: "c.go"})
	r.Apply(events.Event{Type: events.TypeToolResult, ToolName: "web_search", Result: raw(`{"success":true}`)})

	entries := s.ChatEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.FileWriting, entries[0].FileStatus)
	effects.AssertNotCalled(t, "RefreshFileTree")
}

func TestFileCard_StatusNeverLeavesTerminal(t *testing.T) {
	r, s, _ := newTestReducer(t)

	applyAll(t, r,
		events.Event{Type: events.TypeCodeStreamStart, FilePath: "a.ts"},
		events.Event{Type: events.TypeToolResult, ToolName: events.ToolFileWrite, Result: raw(`{"success":true}`)},
		// Late events for the same card must not reopen or flip it
		events.Event{Type: events.TypeToolError, Error: "late"},
		events.Event{Type: events.TypeToolResult, ToolName: events.ToolFileWrite, Result: raw(`{"success":false}`)},
		events.Event{Type: events.TypeStreamEnd},
	)

	entries := s.ChatEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.FileCreated, entries[0].FileStatus)
}

func TestToolCall_FileWriteFallback(t *testing.T) {
	r, s, effects := newTestReducer(t)

	applyAll(t, r,
		events.Event{
			Type:      events.TypeToolCall,
			ToolName:  events.ToolFileWrite,
			Arguments: raw(`{"file_path":"/home/user/index.html","content":"<h1>hi</h1>"}`),
			Iteration: 1,
		},
		events.Event{Type: events.TypeToolResult, ToolName: events.ToolFileWrite, Result: raw(`{"success":true}`)},
	)

	cs := s.CodeStreaming()
	assert.Equal(t, "/home/user/index.html", cs.FilePath)
	assert.Equal(t, "<h1>hi</h1>", cs.Content)
	assert.Equal(t, "Editing /home/user/index.html", cs.Action)

	entries := s.ChatEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.FileCreated, entries[0].FileStatus)
	assert.Equal(t, 1, entries[0].Iteration)
	effects.AssertNumberOfCalls(t, "RefreshFileTree", 1)
}

func TestToolCall_AfterCodeStreamDoesNotDuplicateCard(t *testing.T) {
	r, s, _ := newTestReducer(t)

	applyAll(t, r,
		events.Event{Type: events.TypeCodeStreamStart, FilePath: "a.ts"},
		events.Event{Type: events.TypeCodeStreamChunk, Chunk: "let a"},
		events.Event{Type: events.TypeToolCall, ToolName: events.ToolFileWrite, Arguments: raw(`{"file_path":"a.ts","content":"let a"}`)},
		events.Event{Type: events.TypeToolCall, ToolName: events.ToolFileRead, Arguments: raw(`{"file_path":"b.ts"}`)},
	)

	assert.Len(t, s.ChatEntries(), 1)
	assert.Equal(t, "let a", s.CodeStreaming().Content)
}

func TestReadFile_Success(t *testing.T) {
	r, s, _ := newTestReducer(t)

	r.Apply(events.Event{Type: events.TypeReadFileStart, FilePath: "/home/user/app.py"})

	cs := s.CodeStreaming()
	assert.Equal(t, domain.ToolReader, cs.Tool)
	assert.True(t, cs.IsStreaming)
	assert.Empty(t, cs.Content)

	entries := s.ChatEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ReadReading, entries[0].ReadStatus)

	r.Apply(events.Event{
		Type:     events.TypeReadFileEnd,
		ToolName: events.ToolFileRead,
		Result:   raw(`{"success":true,"content":"import os\n","file_name":"app.py","total_lines":1,"lines_read":1}`),
	})

	cs = s.CodeStreaming()
	assert.Equal(t, "import os\n", cs.Content)
	assert.False(t, cs.IsStreaming)

	entries = s.ChatEntries()
	assert.Equal(t, domain.ReadDone, entries[0].ReadStatus)
	require.NotNil(t, entries[0].ReadResult)
	assert.Equal(t, "app.py", entries[0].ReadResult.FileName)
	assert.Equal(t, 1, entries[0].ReadResult.TotalLines)
}

func TestReadFile_Failure(t *testing.T) {
	r, s, _ := newTestReducer(t)

	applyAll(t, r,
		events.Event{Type: events.TypeReadFileStart, FilePath: "/home/user/missing.py"},
		events.Event{Type: events.TypeReadFileEnd, Result: raw(`{"success":false,"error":"File not found"}`)},
	)

	entries := s.ChatEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ReadError, entries[0].ReadStatus)
	assert.False(t, s.CodeStreaming().IsStreaming)
	assert.Empty(t, s.CodeStreaming().Content)
}

func TestToolError_ClosesOpenCard(t *testing.T) {
	tests := []struct {
		name  string
		start events.Event
		check func(t *testing.T, e domain.ChatEntry)
	}{
		{
			name:  "open write card",
			start: events.Event{Type: events.TypeCodeStreamStart, FilePath: "a.ts"},
			check: func(t *testing.T, e domain.ChatEntry) { assert.Equal(t, domain.FileError, e.FileStatus) },
		},
		{
			name:  "open read card",
			start: events.Event{Type: events.TypeReadFileStart, FilePath: "a.ts"},
			check: func(t *testing.T, e domain.ChatEntry) { assert.Equal(t, domain.ReadError, e.ReadStatus) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, s, _ := newTestReducer(t)

			applyAll(t, r, tt.start, events.Event{Type: events.TypeToolError, Error: "boom"})

			entries := s.ChatEntries()
			require.Len(t, entries, 1)
			tt.check(t, entries[0])
			assert.False(t, s.CodeStreaming().IsStreaming)
		})
	}
}

func TestNewToolStart_SupersedesOpenCard(t *testing.T) {
	r, s, _ := newTestReducer(t)

	applyAll(t, r,
		events.Event{Type: events.TypeCodeStreamStart, FilePath: "first.ts"},
		events.Event{Type: events.TypeReadFileStart, FilePath: "second.ts"},
	)

	entries := s.ChatEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, domain.FileError, entries[0].FileStatus)
	assert.Equal(t, domain.ReadReading, entries[1].ReadStatus)
	assert.Equal(t, "second.ts", s.CodeStreaming().FilePath)
}

func TestSandboxEvents(t *testing.T) {
	r, s, _ := newTestReducer(t)

	r.Apply(events.Event{Type: events.TypeSandboxCreating})
	assert.Equal(t, domain.SandboxCreating, s.SandboxStatus())
	assert.Empty(t, s.ChatEntries())

	r.Apply(events.Event{Type: events.TypeSandboxReady})
	assert.Equal(t, domain.SandboxReady, s.SandboxStatus())

	r.Apply(events.Event{Type: events.TypeSandboxError, Error: "quota exceeded"})
	assert.Equal(t, domain.SandboxError, s.SandboxStatus())

	entries := s.ChatEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, "Sandbox error: quota exceeded", entries[0].Content)
}

func TestIterationEvents(t *testing.T) {
	r, s, _ := newTestReducer(t)

	r.Apply(events.Event{Type: events.TypeIterationStart, MaxIterations: 25})
	assert.Equal(t, 25, s.MaxIterations())
	assert.Zero(t, s.CurrentIteration())

	r.Apply(events.Event{Type: events.TypeIteration, Iteration: 3, MaxIterations: 25})
	assert.Equal(t, 3, s.CurrentIteration())
}

func TestTerminalEvents_ClearStreaming(t *testing.T) {
	tests := []struct {
		name        string
		event       events.Event
		wantMessage string
		wantRunning bool
	}{
		{
			name:        "max iterations reached",
			event:       events.Event{Type: events.TypeMaxIterationsReached, MaxIterations: 50},
			wantMessage: "Maximum iterations (50) reached. The agent has stopped.",
			wantRunning: true,
		},
		{
			name:        "error",
			event:       events.Event{Type: events.TypeError, Error: "rate limited"},
			wantMessage: "Error: rate limited",
			wantRunning: true,
		},
		{
			name:        "complete",
			event:       events.Event{Type: events.TypeComplete, Content: "done"},
			wantRunning: true,
		},
		{
			name:        "stream end",
			event:       events.Event{Type: events.TypeStreamEnd},
			wantRunning: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, s, _ := newTestReducer(t)
			s.SetAgentRunning(true)
			r.Apply(events.Event{Type: events.TypeCodeStreamStart, FilePath: "a.ts"})

			r.Apply(tt.event)

			assert.False(t, s.CodeStreaming().IsStreaming)
			assert.Equal(t, tt.wantRunning, s.AgentRunning())
			if tt.wantMessage != "" {
				entries := s.ChatEntries()
				assert.Equal(t, tt.wantMessage, entries[len(entries)-1].Content)
			}
		})
	}
}

func TestMaxIterationsReached_FallsBackToStoreLimit(t *testing.T) {
	r, s, _ := newTestReducer(t)

	r.Apply(events.Event{Type: events.TypeMaxIterationsReached})

	entries := s.ChatEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, "Maximum iterations (500) reached. The agent has stopped.", entries[0].Content)
}

func TestComplete_RefreshesMemory(t *testing.T) {
	s := store.New()
	effects := &mockEffects{}
	effects.On("RefreshMemory").Return().Once()
	r := New(s, effects)

	r.Apply(events.Event{Type: events.TypeComplete})

	effects.AssertExpectations(t)
}

func TestStreamEnd_AlwaysStopsRun(t *testing.T) {
	preludes := map[string][]events.Event{
		"success": {
			{Type: events.TypeThought, Content: "ok"},
			{Type: events.TypeComplete},
		},
		"tool error": {
			{Type: events.TypeCodeStreamStart, FilePath: "a"},
			{Type: events.TypeToolError},
		},
		"server fault": {
			{Type: events.TypeError, Error: "500"},
		},
		"mid stream": {
			{Type: events.TypeThoughtStreamStart},
			{Type: events.TypeThoughtStreamChunk, Chunk: "half"},
			{Type: events.TypeReadFileStart, FilePath: "b"},
		},
		"nothing": nil,
	}

	for name, prelude := range preludes {
		t.Run(name, func(t *testing.T) {
			r, s, _ := newTestReducer(t)
			s.SetAgentRunning(true)

			applyAll(t, r, prelude...)
			r.Apply(events.Event{Type: events.TypeStreamEnd})

			assert.False(t, s.AgentRunning())
			assert.False(t, s.CodeStreaming().IsStreaming)
			for _, e := range s.ChatEntries() {
				assert.False(t, e.IsStreaming)
				assert.NotEqual(t, domain.FileWriting, e.FileStatus)
				assert.NotEqual(t, domain.ReadReading, e.ReadStatus)
			}
		})
	}
}

func TestUnknownEvent_NeverMutatesStore(t *testing.T) {
	r, s, effects := newTestReducer(t)
	applyAll(t, r,
		events.Event{Type: events.TypeThoughtStreamStart},
		events.Event{Type: events.TypeCodeStreamStart, FilePath: "a.ts"},
	)
	before := s.Snapshot()

	notified := 0
	s.Subscribe(func() { notified++ })

	recognized := r.Apply(events.Event{Type: "telemetry_ping", Content: "x", Chunk: "y", Iteration: 9})

	assert.False(t, recognized)
	assert.Zero(t, notified)
	assert.Equal(t, before, s.Snapshot())
	assert.Equal(t, 1, r.Stats().Unknown)
	effects.AssertNotCalled(t, "RefreshFileTree")
	effects.AssertNotCalled(t, "RefreshMemory")
}

func TestReset_BehavesLikeFreshSession(t *testing.T) {
	r, s, _ := newTestReducer(t)
	applyAll(t, r,
		events.Event{Type: events.TypeSandboxReady},
		events.Event{Type: events.TypeThoughtStreamStart},
		events.Event{Type: events.TypeCodeStreamStart, FilePath: "a.ts"},
		events.Event{Type: events.TypeCodeStreamChunk, Chunk: "abc"},
	)

	s.ResetRun()
	r.Reset()

	fresh := store.New()
	freshReducer := New(fresh, &mockEffects{})
	assert.Equal(t, fresh.Snapshot(), s.Snapshot())

	// A late chunk from the old run has nowhere to go
	r.Apply(events.Event{Type: events.TypeThoughtStreamChunk, Chunk: "late"})
	r.Apply(events.Event{Type: events.TypeToolResult, ToolName: events.ToolFileWrite, Result: raw(`{"success":true}`)})
	assert.Empty(t, s.ChatEntries())

	run := []events.Event{
		{Type: events.TypeThoughtStreamStart},
		{Type: events.TypeThoughtStreamEnd, Content: "hi"},
	}
	applyAll(t, r, run...)
	applyAll(t, freshReducer, run...)

	got, want := s.ChatEntries(), fresh.ChatEntries()
	require.Len(t, got, 1)
	require.Len(t, want, 1)
	assert.Equal(t, want[0].Content, got[0].Content)
	assert.Equal(t, want[0].IsStreaming, got[0].IsStreaming)
}

func TestAbort_ClosesOpenOperations(t *testing.T) {
	r, s, _ := newTestReducer(t)
	applyAll(t, r,
		events.Event{Type: events.TypeThoughtStreamStart},
		events.Event{Type: events.TypeThoughtStreamChunk, Chunk: "partial"},
		events.Event{Type: events.TypeCodeStreamStart, FilePath: "a.ts"},
	)

	r.Abort()

	entries := s.ChatEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "partial", entries[0].Content)
	assert.False(t, entries[0].IsStreaming)
	assert.Equal(t, domain.FileError, entries[1].FileStatus)

	// Nothing left to close
	r.Abort()
	assert.Len(t, s.ChatEntries(), 2)
}
