package ui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"anygent/internal/domain"
	portsmocks "anygent/internal/ports/mocks"
	"anygent/internal/services"
	"anygent/internal/store"
)

func newTestModel(t *testing.T, prefs domain.Preferences) (*Model, *store.Store, *portsmocks.MockAgentAPI) {
	t.Helper()
	api := portsmocks.NewMockAgentAPI(t)
	st := store.New()
	st.SetPreferences(prefs)
	console := services.NewConsoleService(api, st)
	t.Cleanup(console.Wait)

	m := NewModel(ModelConfig{Console: console, Markdown: true})
	t.Cleanup(m.Close)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, st, api
}

func typeText(m *Model, text string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func configuredPrefs() domain.Preferences {
	return domain.Preferences{APIKey: "sk-test", E2BAPIKey: "e2b-test", SelectedModel: domain.DefaultModel}
}

func TestModel_InitialView(t *testing.T) {
	m, _, _ := newTestModel(t, configuredPrefs())

	view := ansi.Strip(m.View())

	assert.Contains(t, view, "Anygent")
	assert.Contains(t, view, "Ask Anygent to help you...")
	assert.Contains(t, view, "Start a conversation to see live code")
	assert.Contains(t, view, "sandbox idle")
	assert.Contains(t, view, "claude-3.5-sonnet")
	assert.Contains(t, view, "Ready")
}

func TestModel_StoreChangesRender(t *testing.T) {
	m, st, _ := newTestModel(t, configuredPrefs())

	st.AddChatEntry(domain.ChatEntry{Type: domain.EntryUser, Content: "build a todo app"})
	st.AddChatEntry(domain.ChatEntry{Type: domain.EntryFileCard, FilePath: "/home/user/index.html", FileStatus: domain.FileCreated})
	st.SetAgentRunning(true)
	st.SetCurrentIteration(2)
	m.Update(storeChangedMsg{})

	view := ansi.Strip(m.View())
	assert.Contains(t, view, "build a todo app")
	assert.Contains(t, view, "/home/user/index.html")
	assert.Contains(t, view, "created")
	assert.Contains(t, view, "Iteration 2/500")
	assert.Contains(t, view, "Thinking...")
}

func TestModel_SendEmptyPromptIsIgnored(t *testing.T) {
	m, _, _ := newTestModel(t, configuredPrefs())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
}

func TestModel_SendWithoutAPIKeyKeepsPrompt(t *testing.T) {
	m, _, _ := newTestModel(t, domain.DefaultPreferences())
	typeText(m, "hello")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.NotNil(t, cmd)
	assert.Equal(t, "hello", m.input.Value())
	assert.ErrorIs(t, m.errorManager.GetError(), domain.ErrNoAPIKey)
	assert.True(t, m.settingsPending)
}

func TestModel_SendStartsRun(t *testing.T) {
	m, st, api := newTestModel(t, configuredPrefs())
	eventCh, errCh := portsmocks.EventStream(nil)
	api.On("StreamChat", mock.Anything, mock.MatchedBy(func(req domain.ChatRequest) bool {
		return req.Message == "hello" && req.APIKey == "sk-test"
	})).Return(eventCh, errCh, nil)

	typeText(m, "hello")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	assert.Empty(t, m.input.Value())

	msg := cmd()
	require.IsType(t, runFinishedMsg{}, msg)
	assert.NoError(t, msg.(runFinishedMsg).err)

	entries := st.ChatEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.EntryUser, entries[0].Type)
	assert.Equal(t, "hello", entries[0].Content)
}

func TestModel_SendWhileRunningShowsError(t *testing.T) {
	m, st, _ := newTestModel(t, configuredPrefs())
	st.SetAgentRunning(true)
	m.Update(storeChangedMsg{})
	typeText(m, "again")

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.ErrorIs(t, m.errorManager.GetError(), domain.ErrRunInProgress)
	assert.Equal(t, "again", m.input.Value())
}

func TestModel_RunFinishedErrors(t *testing.T) {
	m, _, _ := newTestModel(t, configuredPrefs())

	m.Update(runFinishedMsg{err: errors.Join(domain.ErrRunFailed, errors.New("boom"))})
	assert.False(t, m.errorManager.HasError(), "failed runs are reported in the transcript")

	m.Update(runFinishedMsg{err: domain.ErrRunInProgress})
	assert.True(t, m.errorManager.HasError())
}

func TestModel_RejectedRunRestoresPrompt(t *testing.T) {
	m, _, _ := newTestModel(t, configuredPrefs())

	m.Update(runFinishedMsg{err: domain.ErrRunInProgress, prompt: "build a todo app"})

	assert.Equal(t, "build a todo app", m.input.Value())
	assert.ErrorIs(t, m.errorManager.GetError(), domain.ErrRunInProgress)
}

func TestModel_RejectedRunKeepsNewerPrompt(t *testing.T) {
	m, _, _ := newTestModel(t, configuredPrefs())
	typeText(m, "newer")

	m.Update(runFinishedMsg{err: domain.ErrRunInProgress, prompt: "older"})

	assert.Equal(t, "newer", m.input.Value())
}

func TestModel_StopWhenIdleDoesNothing(t *testing.T) {
	m, _, _ := newTestModel(t, configuredPrefs())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlX})

	assert.Nil(t, cmd)
}

func TestModel_TogglePanelLoadsFileTree(t *testing.T) {
	m, st, api := newTestModel(t, configuredPrefs())
	tree := &domain.FileNode{Name: "user", Path: "/home/user", Type: domain.NodeFolder, Children: []*domain.FileNode{
		{Name: "index.html", Path: "/home/user/index.html", Type: domain.NodeFile},
	}}
	api.On("FileTree", mock.Anything).Return(tree, nil).Once()

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m.console.Wait()
	m.Update(storeChangedMsg{})

	assert.Equal(t, domain.PanelFiles, st.Snapshot().RightPanel)
	assert.Contains(t, ansi.Strip(m.View()), "index.html")

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m.Update(storeChangedMsg{})
	assert.Equal(t, domain.PanelComputer, st.Snapshot().RightPanel)
}

func TestModel_OpenFileFromTree(t *testing.T) {
	m, st, api := newTestModel(t, configuredPrefs())
	st.SetFileTree(&domain.FileNode{Name: "user", Path: "/home/user", Type: domain.NodeFolder, Children: []*domain.FileNode{
		{Name: "app.py", Path: "/home/user/app.py", Type: domain.NodeFile},
	}})
	st.SetRightPanel(domain.PanelFiles)
	m.Update(storeChangedMsg{})
	api.On("ReadFile", mock.Anything, "/home/user/app.py").Return("print('hi')", nil).Once()

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlF})
	require.NotNil(t, cmd)
	msg := cmd()

	require.IsType(t, opResultMsg{}, msg)
	assert.NoError(t, msg.(opResultMsg).err)
	snap := st.Snapshot()
	assert.Equal(t, "/home/user/app.py", snap.SelectedFile)
	assert.Equal(t, []string{"/home/user/app.py"}, snap.OpenTabs)
}

func TestModel_HelpDialog(t *testing.T) {
	m, _, _ := newTestModel(t, configuredPrefs())

	m.Update(tea.KeyMsg{Type: tea.KeyF1})
	require.Equal(t, stateHelp, m.state)
	assert.Contains(t, ansi.Strip(m.View()), "send message to the agent")

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, stateChat, m.state)
	assert.Nil(t, m.helpScreen)
}

func TestModel_CommandPaletteDispatches(t *testing.T) {
	m, _, _ := newTestModel(t, configuredPrefs())

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlK})
	require.Equal(t, stateCommandPalette, m.state)

	typeText(m, "keyboard")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, stateHelp, m.state)
}

func TestModel_MemoryDialog(t *testing.T) {
	m, st, api := newTestModel(t, configuredPrefs())
	api.On("Memory", mock.Anything).Return(&domain.Memory{
		SessionID: "abc",
		Stats:     domain.MemoryStats{ToolCalls: 3, FileTypes: map[string]int{"html": 2}},
		Messages:  []map[string]any{{"role": "user", "content": "make a page"}},
	}, nil).Once()

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlO})
	require.Equal(t, stateMemory, m.state)
	assert.True(t, st.Snapshot().MemoryOpen)

	m.console.Wait()
	m.Update(storeChangedMsg{})
	view := ansi.Strip(m.View())
	assert.Contains(t, view, "abc")
	assert.Contains(t, view, ".html")
	assert.Contains(t, view, "make a page")

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, stateChat, m.state)
	assert.False(t, st.Snapshot().MemoryOpen)
}

func TestModel_ResetRequiresConfirmation(t *testing.T) {
	m, _, _ := newTestModel(t, configuredPrefs())

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	require.Equal(t, stateConfirmingReset, m.state)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, stateChat, m.state)
	assert.Nil(t, cmd)
}

func TestModel_SettingsOpenRequestedByStore(t *testing.T) {
	m, st, _ := newTestModel(t, domain.DefaultPreferences())

	st.SetSettingsOpen(true)
	_, cmd := m.Update(storeChangedMsg{})
	require.NotNil(t, cmd)
	assert.True(t, m.settingsPending)

	m.Update(settingsReadyMsg{})
	assert.Equal(t, stateSettings, m.state)
	assert.Contains(t, ansi.Strip(m.View()), "OpenRouter API key")

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, stateChat, m.state)
	assert.False(t, st.Snapshot().SettingsOpen)
}

func TestTruncateTitle(t *testing.T) {
	assert.Equal(t, "short", truncateTitle("short", 40))
	assert.Equal(t, "a b", truncateTitle("a\n  b", 40))
	assert.Equal(t, "abc...", truncateTitle("abcdef", 3))
}
