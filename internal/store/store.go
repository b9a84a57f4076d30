// Package store holds the client-visible console state. It is the single
// source of truth observed by every view.
package store

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"anygent/internal/domain"
)

// State is a point-in-time copy of everything the console shows
type State struct {
	AgentRunning     bool
	ChatEntries      []domain.ChatEntry
	CodeStreaming    domain.CodeStreamingState
	CurrentIteration int
	FileContent      string
	FileTree         *domain.FileNode
	MaxIterations    int
	Memory           *domain.Memory
	MemoryOpen       bool
	Models           []domain.Model
	ModelsLoading    bool
	OpenTabs         []string
	Preferences      domain.Preferences
	RightPanel       domain.RightPanel
	SandboxStatus    domain.SandboxStatus
	SelectedFile     string
	SettingsOpen     bool
}

// Store guards State and notifies subscribers after every mutation.
// Subscribers run synchronously on the mutating goroutine, outside the lock.
type Store struct {
	mu          sync.RWMutex
	nextSubID   int
	state       State
	subscribers map[int]func()
}

// New creates a store in the fresh-session state
func New() *Store {
	return &Store{
		state:       initialState(domain.DefaultPreferences()),
		subscribers: make(map[int]func()),
	}
}

func initialState(prefs domain.Preferences) State {
	return State{
		MaxIterations: domain.DefaultMaxIterations,
		Preferences:   prefs,
		RightPanel:    domain.PanelComputer,
		SandboxStatus: domain.SandboxIdle,
	}
}

// Subscribe registers fn to be called after each mutation and returns a function that removes it
func (s *Store) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// mutate applies fn under the write lock and then notifies subscribers
func (s *Store) mutate(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	subs := s.snapshotSubscribers()
	s.mu.Unlock()

	for _, sub := range subs {
		sub()
	}
}

func (s *Store) snapshotSubscribers() []func() {
	subs := make([]func(), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	return subs
}

func (s *Store) read(fn func(*State)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&s.state)
}

// Snapshot returns a deep copy of the whole state
func (s *Store) Snapshot() State {
	var out State
	s.read(func(st *State) {
		out = *st
		out.ChatEntries = cloneEntries(st.ChatEntries)
		out.FileTree = st.FileTree.Clone()
		out.Memory = cloneMemory(st.Memory)
		out.Models = slices.Clone(st.Models)
		out.OpenTabs = slices.Clone(st.OpenTabs)
	})
	return out
}

// Chat transcript

// AddChatEntry appends entry to the transcript, assigning an id and timestamp
// when missing, and returns the entry id. Ids are time-ordered.
func (s *Store) AddChatEntry(entry domain.ChatEntry) string {
	if entry.ID == "" {
		entry.ID = uuid.Must(uuid.NewV7()).String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	s.mutate(func(st *State) {
		st.ChatEntries = append(st.ChatEntries, entry)
	})
	return entry.ID
}

// UpdateChatEntry applies fn to the entry with the given id. It reports false
// and leaves the store untouched when no such entry exists.
func (s *Store) UpdateChatEntry(id string, fn func(*domain.ChatEntry)) bool {
	s.mu.Lock()
	idx := slices.IndexFunc(s.state.ChatEntries, func(e domain.ChatEntry) bool { return e.ID == id })
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	entry := &s.state.ChatEntries[idx]
	fn(entry)
	entry.ID = id
	subs := s.snapshotSubscribers()
	s.mu.Unlock()

	for _, sub := range subs {
		sub()
	}
	return true
}

// ChatEntries returns a copy of the transcript in arrival order
func (s *Store) ChatEntries() []domain.ChatEntry {
	var out []domain.ChatEntry
	s.read(func(st *State) { out = cloneEntries(st.ChatEntries) })
	return out
}

// ChatEntry returns the entry with the given id
func (s *Store) ChatEntry(id string) (domain.ChatEntry, bool) {
	var (
		found bool
		out   domain.ChatEntry
	)
	s.read(func(st *State) {
		for _, e := range st.ChatEntries {
			if e.ID == id {
				out, found = e.Clone(), true
				return
			}
		}
	})
	return out, found
}

// ClearChat empties the transcript and resets the sandbox status
func (s *Store) ClearChat() {
	s.mutate(func(st *State) {
		st.ChatEntries = nil
		st.SandboxStatus = domain.SandboxIdle
	})
}

// ResetRun returns every run-scoped field to its fresh-session value.
// Preferences, the file tree, open tabs and UI toggles are kept.
func (s *Store) ResetRun() {
	s.mutate(func(st *State) {
		st.AgentRunning = false
		st.ChatEntries = nil
		st.CodeStreaming = domain.CodeStreamingState{}
		st.CurrentIteration = 0
		st.SandboxStatus = domain.SandboxIdle
	})
}

// Code streaming

// SetCodeStreaming merges patch into the live code mirror
func (s *Store) SetCodeStreaming(patch domain.CodeStreamingPatch) {
	s.mutate(func(st *State) { patch.Apply(&st.CodeStreaming) })
}

// ResetCodeStreaming empties the live code mirror
func (s *Store) ResetCodeStreaming() {
	s.mutate(func(st *State) { st.CodeStreaming = domain.CodeStreamingState{} })
}

// AppendStreamingCode appends chunk to the live code buffer
func (s *Store) AppendStreamingCode(chunk string) {
	s.mutate(func(st *State) { st.CodeStreaming.Content += chunk })
}

// CodeStreaming returns the live code mirror
func (s *Store) CodeStreaming() domain.CodeStreamingState {
	var out domain.CodeStreamingState
	s.read(func(st *State) { out = st.CodeStreaming })
	return out
}

// Run status

func (s *Store) SetAgentRunning(running bool) {
	s.mutate(func(st *State) { st.AgentRunning = running })
}

func (s *Store) AgentRunning() bool {
	var out bool
	s.read(func(st *State) { out = st.AgentRunning })
	return out
}

func (s *Store) SetCurrentIteration(iteration int) {
	s.mutate(func(st *State) { st.CurrentIteration = iteration })
}

func (s *Store) CurrentIteration() int {
	var out int
	s.read(func(st *State) { out = st.CurrentIteration })
	return out
}

// SetMaxIterations sets the display ceiling; non-positive values are ignored
func (s *Store) SetMaxIterations(limit int) {
	if limit <= 0 {
		return
	}
	s.mutate(func(st *State) { st.MaxIterations = limit })
}

func (s *Store) MaxIterations() int {
	var out int
	s.read(func(st *State) { out = st.MaxIterations })
	return out
}

func (s *Store) SetSandboxStatus(status domain.SandboxStatus) {
	s.mutate(func(st *State) { st.SandboxStatus = status })
}

func (s *Store) SandboxStatus() domain.SandboxStatus {
	var out domain.SandboxStatus
	s.read(func(st *State) { out = st.SandboxStatus })
	return out
}

// Server snapshots

// SetFileTree replaces the file tree wholesale
func (s *Store) SetFileTree(root *domain.FileNode) {
	s.mutate(func(st *State) { st.FileTree = root })
}

func (s *Store) FileTree() *domain.FileNode {
	var out *domain.FileNode
	s.read(func(st *State) { out = st.FileTree.Clone() })
	return out
}

func (s *Store) SetMemory(memory *domain.Memory) {
	s.mutate(func(st *State) { st.Memory = memory })
}

func (s *Store) Memory() *domain.Memory {
	var out *domain.Memory
	s.read(func(st *State) { out = cloneMemory(st.Memory) })
	return out
}

func (s *Store) SetModels(models []domain.Model) {
	s.mutate(func(st *State) { st.Models = models })
}

func (s *Store) Models() []domain.Model {
	var out []domain.Model
	s.read(func(st *State) { out = slices.Clone(st.Models) })
	return out
}

func (s *Store) SetModelsLoading(loading bool) {
	s.mutate(func(st *State) { st.ModelsLoading = loading })
}

// File browser

// SelectFile marks path as the file shown in the viewer
func (s *Store) SelectFile(path string) {
	s.mutate(func(st *State) { st.SelectedFile = path })
}

func (s *Store) SetFileContent(content string) {
	s.mutate(func(st *State) { st.FileContent = content })
}

// AddTab opens a tab for path unless one is already open
func (s *Store) AddTab(path string) {
	s.mutate(func(st *State) {
		if !slices.Contains(st.OpenTabs, path) {
			st.OpenTabs = append(st.OpenTabs, path)
		}
	})
}

// RemoveTab closes the tab for path. When it was the selected file, the
// selection moves to the last remaining tab (or clears) and the content is emptied.
func (s *Store) RemoveTab(path string) {
	s.mutate(func(st *State) {
		st.OpenTabs = slices.DeleteFunc(st.OpenTabs, func(p string) bool { return p == path })
		if st.SelectedFile != path {
			return
		}
		st.FileContent = ""
		st.SelectedFile = ""
		if n := len(st.OpenTabs); n > 0 {
			st.SelectedFile = st.OpenTabs[n-1]
		}
	})
}

// Preferences and UI toggles

func (s *Store) SetPreferences(prefs domain.Preferences) {
	s.mutate(func(st *State) { st.Preferences = prefs })
}

func (s *Store) Preferences() domain.Preferences {
	var out domain.Preferences
	s.read(func(st *State) { out = st.Preferences })
	return out
}

func (s *Store) SetSettingsOpen(open bool) {
	s.mutate(func(st *State) { st.SettingsOpen = open })
}

func (s *Store) SetMemoryOpen(open bool) {
	s.mutate(func(st *State) { st.MemoryOpen = open })
}

func (s *Store) SetRightPanel(panel domain.RightPanel) {
	s.mutate(func(st *State) { st.RightPanel = panel })
}

func cloneEntries(entries []domain.ChatEntry) []domain.ChatEntry {
	if entries == nil {
		return nil
	}
	out := make([]domain.ChatEntry, len(entries))
	for i, e := range entries {
		out[i] = e.Clone()
	}
	return out
}

func cloneMemory(m *domain.Memory) *domain.Memory {
	if m == nil {
		return nil
	}
	c := *m
	c.Messages = slices.Clone(m.Messages)
	c.Stats.FilesInContext = slices.Clone(m.Stats.FilesInContext)
	c.Stats.FileTypes = maps.Clone(m.Stats.FileTypes)
	return &c
}
