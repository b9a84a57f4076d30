package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"anygent/internal/config"
	"anygent/internal/domain"
	"anygent/internal/logging"
	"anygent/internal/services"
	"anygent/internal/store"
	"anygent/internal/theme"
)

type uiState int

const (
	stateChat uiState = iota
	stateCommandPalette
	stateConfirmingReset
	stateHelp
	stateMemory
	stateSettings
)

// Layout constants, in terminal lines
const (
	footerHeight    = 2
	headerHeight    = 1
	inputHeight     = 3
	minSplitWidth   = 80
	rightPanelShare = 45
	statusHeight    = 1
	tipInterval     = 20 * time.Second
)

// ModelConfig holds everything needed to build a console Model
type ModelConfig struct {
	Console         *services.ConsoleService
	DevMode         bool
	ErrorClearDelay time.Duration
	Keys            config.KeyBindingsConfig
	Markdown        bool
	Preferences     *services.PreferencesService
	StatusConfig    *config.StatusConfig
}

type Model struct {
	chat            *ChatView                    // Transcript on the left
	commandPalette  *CommandPalette              // Command palette overlay
	computer        *ComputerPanel               // Live code mirror
	console         *services.ConsoleService     // Run orchestration for this session
	devMode         bool                         // Development mode (shows version info in dialogs)
	errorManager    *ErrorManager                // Error display and auto-clearing
	files           *FilesPanel                  // Sandbox file browser
	height          int
	helpScreen      *Dialog                      // Help screen dialog
	input           textarea.Model               // Prompt
	keys            KeyMap                       // Keyboard shortcuts
	listener        *storeListener               // Store change notifications
	markdown        *MarkdownRenderer            // Shared by chat and panels
	memoryDialog    *Dialog                      // Agent memory dialog
	memoryView      *MemoryView                  // Content of memoryDialog, kept to push store updates
	preferences     *services.PreferencesService // Credential persistence
	resetForm       *Dialog                      // Reset confirmation dialog
	settingsForm    *Dialog                      // API keys and model dialog
	settingsPending bool                         // Models are loading before the settings form opens
	snapshot        store.State                  // Last store state rendered
	spinner         spinner.Model
	state           uiState
	statusConfig    *config.StatusConfig // Badge colors for cards and sandbox
	tipIndex        int
	tips            []Tip
	width           int
}

// NewModel creates the console model for one session
func NewModel(cfg ModelConfig) *Model {
	keys := NewKeyMap(cfg.Keys)

	statusConfig := cfg.StatusConfig
	if statusConfig == nil {
		statusConfig = config.NewStatusConfig(nil)
	}
	errorClearDelay := cfg.ErrorClearDelay
	if errorClearDelay <= 0 {
		errorClearDelay = time.Duration(config.DefaultErrorClearDelay) * time.Second
	}

	md := NewMarkdownRenderer(cfg.Markdown)

	input := textarea.New()
	input.Placeholder = "Ask Anygent to help you..."
	input.ShowLineNumbers = false
	input.Prompt = "┃ "
	input.CharLimit = 0
	input.SetHeight(inputHeight)
	input.FocusedStyle.CursorLine = lipgloss.NewStyle()
	input.KeyMap.InsertNewline = keys.Chat.Newline.Binding
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.SpinnerStyle

	m := &Model{
		chat:         NewChatView(md, statusConfig),
		computer:     NewComputerPanel(md),
		console:      cfg.Console,
		devMode:      cfg.DevMode,
		errorManager: NewErrorManager(errorClearDelay),
		files:        NewFilesPanel(md),
		input:        input,
		keys:         keys,
		listener:     newStoreListener(cfg.Console.Store()),
		markdown:     md,
		preferences:  cfg.Preferences,
		spinner:      sp,
		state:        stateChat,
		statusConfig: statusConfig,
		tips:         keys.Tips(),
	}
	m.syncFromStore()
	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.listener.Wait(),
		m.opCmd("load initial state", m.console.LoadInitial),
		tipTick(),
	)
}

// Close stops listening to the store. Call it when the program ends without QuitMsg.
func (m *Model) Close() {
	m.listener.Close()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()

	case storeChangedMsg:
		m.syncFromStore()
		cmds := []tea.Cmd{m.listener.Wait()}
		if m.snapshot.SettingsOpen && m.state == stateChat && !m.settingsPending {
			cmds = append(cmds, m.loadSettingsCmd())
		}
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.snapshot.AgentRunning {
			m.chat.SetEntries(m.snapshot.ChatEntries, m.thinkingIndicator())
		}
		return m, cmd

	case tipTickMsg:
		if len(m.tips) > 0 {
			m.tipIndex = (m.tipIndex + 1) % len(m.tips)
		}
		return m, tipTick()

	case clearErrorMsg:
		m.errorManager.handleClear(msg)
		return m, nil

	case runFinishedMsg:
		return m, m.handleRunFinished(msg)

	case opResultMsg:
		if msg.err != nil {
			logging.Logger.Warn("Console operation failed", "op", msg.op, "error", msg.err)
			return m, m.showError(fmt.Errorf("failed to %s: %w", msg.op, msg.err))
		}
		return m, nil

	case settingsReadyMsg:
		m.settingsPending = false
		if m.state != stateChat {
			return m, nil
		}
		return m, m.openSettings(msg.models)
	}

	switch m.state {
	case stateChat:
		return m.updateChat(msg)
	case stateCommandPalette:
		return m.updateCommandPalette(msg)
	case stateConfirmingReset:
		return m.updateConfirmingReset(msg)
	case stateHelp:
		return m.updateHelp(msg)
	case stateMemory:
		return m.updateMemory(msg)
	case stateSettings:
		return m.updateSettings(msg)
	}
	return m, nil
}

func (m *Model) updateChat(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case QuitMsg:
		m.listener.Close()
		return m, tea.Quit

	case ShowHelpMsg:
		m.helpScreen = NewDialog("Help", NewHelpScreen(&m.keys), m.devMode)
		m.state = stateHelp
		return m, m.initDialog(m.helpScreen)

	case ShowCommandPaletteMsg:
		m.commandPalette = NewCommandPalette(m.snapshot.AgentRunning, m.keys)
		m.commandPalette.width = m.width
		m.state = stateCommandPalette
		return m, m.commandPalette.Init()

	case ShowSettingsMsg:
		return m, m.loadSettingsCmd()

	case ShowMemoryMsg:
		m.console.RefreshMemory()
		m.console.Store().SetMemoryOpen(true)
		m.memoryView = NewMemoryView(&m.keys)
		m.memoryView.SetMemory(m.snapshot.Memory, m.snapshot.CurrentIteration, m.snapshot.MaxIterations)
		m.memoryDialog = NewDialog("Agent Memory", m.memoryView, m.devMode)
		m.state = stateMemory
		return m, m.initDialog(m.memoryDialog)

	case StopRunMsg:
		if !m.snapshot.AgentRunning {
			return m, nil
		}
		return m, m.opCmd("stop agent", m.console.Stop)

	case ResetSessionMsg:
		m.resetForm = NewDialog("Reset", NewResetForm(), m.devMode)
		m.state = stateConfirmingReset
		return m, m.initDialog(m.resetForm)

	case TogglePanelMsg:
		next := domain.PanelFiles
		if m.snapshot.RightPanel == domain.PanelFiles {
			next = domain.PanelComputer
		}
		m.console.Store().SetRightPanel(next)
		if next == domain.PanelFiles && m.snapshot.FileTree == nil {
			m.console.RefreshFileTree()
		}
		return m, nil

	case RefreshFilesMsg:
		return m, m.opCmd("refresh files", m.console.ForceRefreshFileTree)

	case CloseTabMsg:
		selected := m.files.Selected()
		if selected == "" {
			return m, nil
		}
		return m, m.opCmd("close tab", func(ctx context.Context) error {
			return m.console.CloseTab(ctx, selected)
		})

	case ToggleMarkdownMsg:
		m.markdown.Toggle()
		m.chat.Rerender()
		return m, nil

	case tea.MouseMsg:
		return m, m.chat.Update(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleKey maps key presses to action messages. Anything unbound goes to the prompt.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Application.Quit.Binding):
		return m.updateChat(QuitMsg{})
	case key.Matches(msg, k.Application.Help.Binding):
		return m.updateChat(ShowHelpMsg{})
	case key.Matches(msg, k.Application.CommandPalette.Binding):
		return m.updateChat(ShowCommandPaletteMsg{})
	case key.Matches(msg, k.Application.Settings.Binding):
		return m.updateChat(ShowSettingsMsg{})
	case key.Matches(msg, k.Application.Memory.Binding):
		return m.updateChat(ShowMemoryMsg{})
	case key.Matches(msg, k.Application.Markdown.Binding):
		return m.updateChat(ToggleMarkdownMsg{})
	case key.Matches(msg, k.Chat.Stop.Binding):
		return m.updateChat(StopRunMsg{})
	case key.Matches(msg, k.Chat.Reset.Binding):
		return m.updateChat(ResetSessionMsg{})
	case key.Matches(msg, k.Panel.Toggle.Binding):
		return m.updateChat(TogglePanelMsg{})
	case key.Matches(msg, k.Panel.RefreshFiles.Binding):
		return m.updateChat(RefreshFilesMsg{})
	case key.Matches(msg, k.Panel.CloseTab.Binding):
		return m.updateChat(CloseTabMsg{})
	case key.Matches(msg, k.Panel.FileUp.Binding, k.Panel.FileDown.Binding, k.Panel.FileOpen.Binding):
		return m, m.handleFileKey(msg)
	case key.Matches(msg, k.Chat.ScrollUp.Binding):
		m.chat.ScrollUp()
		return m, nil
	case key.Matches(msg, k.Chat.ScrollDown.Binding):
		m.chat.ScrollDown()
		return m, nil
	case key.Matches(msg, k.Chat.Send.Binding):
		return m, m.handleSend()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleFileKey navigates the file tree; the first press brings the files panel forward
func (m *Model) handleFileKey(msg tea.KeyMsg) tea.Cmd {
	if m.snapshot.RightPanel != domain.PanelFiles {
		m.console.Store().SetRightPanel(domain.PanelFiles)
		if m.snapshot.FileTree == nil {
			m.console.RefreshFileTree()
		}
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Panel.FileUp.Binding):
		m.files.MoveUp()
	case key.Matches(msg, m.keys.Panel.FileDown.Binding):
		m.files.MoveDown()
	case key.Matches(msg, m.keys.Panel.FileOpen.Binding):
		if path, ok := m.files.Activate(); ok {
			return m.opCmd("open file", func(ctx context.Context) error {
				return m.console.OpenFile(ctx, path)
			})
		}
	}
	return nil
}

// handleSend starts a run with the prompt text. The prompt is only cleared when the run can start.
func (m *Model) handleSend() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return nil
	}
	if m.snapshot.AgentRunning || m.console.Running() {
		return m.showError(domain.ErrRunInProgress)
	}
	if !m.snapshot.Preferences.HasAPIKey() {
		return tea.Batch(m.showError(domain.ErrNoAPIKey), m.loadSettingsCmd())
	}

	m.input.Reset()
	return func() tea.Msg {
		return runFinishedMsg{err: m.console.Send(context.Background(), text), prompt: text}
	}
}

func (m *Model) handleRunFinished(msg runFinishedMsg) tea.Cmd {
	err := msg.err
	// A run that never started gives the prompt back
	if errors.Is(err, domain.ErrRunInProgress) && m.input.Value() == "" {
		m.input.SetValue(msg.prompt)
	}
	switch {
	case err == nil, errors.Is(err, domain.ErrEmptyMessage):
		return nil
	case errors.Is(err, domain.ErrRunFailed):
		// Already reported in the transcript
		return nil
	case errors.Is(err, domain.ErrNoAPIKey):
		return tea.Batch(m.showError(err), m.loadSettingsCmd())
	}
	return m.showError(err)
}

func (m *Model) showError(err error) tea.Cmd {
	m.errorManager.SetError(err)
	return m.errorManager.ClearAfterDelay()
}

// opCmd runs a console operation off the UI goroutine
func (m *Model) opCmd(op string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return opResultMsg{op: op, err: fn(context.Background())}
	}
}

// loadSettingsCmd refreshes the model list, then opens the settings form
func (m *Model) loadSettingsCmd() tea.Cmd {
	if m.settingsPending {
		return nil
	}
	m.settingsPending = true
	return func() tea.Msg {
		if err := m.console.FetchModels(context.Background()); err != nil {
			logging.Logger.Warn("Failed to load models for settings", "error", err)
		}
		return settingsReadyMsg{models: m.console.Store().Models()}
	}
}

func (m *Model) openSettings(models []domain.Model) tea.Cmd {
	m.console.Store().SetSettingsOpen(true)
	m.settingsForm = NewDialog("Settings", NewSettingsForm(m.preferences, m.console.Store(), models), m.devMode)
	m.state = stateSettings
	return m.initDialog(m.settingsForm)
}

// initDialog initializes a dialog and sends it the current window size
func (m *Model) initDialog(d *Dialog) tea.Cmd {
	initCmd := d.Init()
	_, sizeCmd := d.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
	return tea.Batch(initCmd, sizeCmd)
}

func (m *Model) updateCommandPalette(msg tea.Msg) (tea.Model, tea.Cmd) {
	updated, cmd := m.commandPalette.Update(msg)
	m.commandPalette = updated.(*CommandPalette)

	if m.commandPalette.Completed {
		result := m.commandPalette.Result
		m.state = stateChat
		m.commandPalette = nil

		if result.Cancelled || result.Action == nil {
			return m, nil
		}

		dispatcher := NewActionDispatcher(m.snapshot.AgentRunning)
		if actionMsg := dispatcher.Dispatch(*result.Action); actionMsg != nil {
			return m.updateChat(actionMsg)
		}
		return m, nil
	}

	return m, cmd
}

func (m *Model) updateConfirmingReset(msg tea.Msg) (tea.Model, tea.Cmd) {
	updated, cmd := m.resetForm.Update(msg)
	m.resetForm = updated.(*Dialog)

	if content, ok := m.resetForm.Content().(*ResetForm); ok && content.Completed {
		m.state = stateChat
		m.resetForm = nil
		if !content.Confirmed() {
			return m, nil
		}
		logging.Logger.Info("Resetting agent session")
		return m, m.opCmd("reset agent", m.console.Reset)
	}

	return m, cmd
}

func (m *Model) updateHelp(msg tea.Msg) (tea.Model, tea.Cmd) {
	updated, cmd := m.helpScreen.Update(msg)
	m.helpScreen = updated.(*Dialog)

	if content, ok := m.helpScreen.Content().(*HelpScreen); ok && content.Completed {
		m.state = stateChat
		m.helpScreen = nil
		return m, nil
	}

	return m, cmd
}

func (m *Model) updateMemory(msg tea.Msg) (tea.Model, tea.Cmd) {
	updated, cmd := m.memoryDialog.Update(msg)
	m.memoryDialog = updated.(*Dialog)

	if m.memoryView.Completed {
		m.state = stateChat
		m.memoryDialog = nil
		m.memoryView = nil
		m.console.Store().SetMemoryOpen(false)
		return m, nil
	}

	return m, cmd
}

func (m *Model) updateSettings(msg tea.Msg) (tea.Model, tea.Cmd) {
	updated, cmd := m.settingsForm.Update(msg)
	m.settingsForm = updated.(*Dialog)

	content, ok := m.settingsForm.Content().(*SettingsForm)
	if !ok || !content.Completed {
		return m, cmd
	}

	result := content.Result()
	m.state = stateChat
	m.settingsForm = nil
	m.console.Store().SetSettingsOpen(false)

	if result.Error != nil {
		return m, m.showError(result.Error)
	}
	if result.Cancelled {
		return m, nil
	}
	return m, m.opCmd("load models", m.console.FetchModels)
}

// syncFromStore pulls a fresh snapshot and pushes it into every view
func (m *Model) syncFromStore() {
	m.snapshot = m.console.Store().Snapshot()
	s := m.snapshot

	m.chat.SetEntries(s.ChatEntries, m.thinkingIndicator())
	m.computer.SetState(s.CodeStreaming, s.AgentRunning)
	m.files.SetState(s.FileTree, s.OpenTabs, s.SelectedFile, s.FileContent)
	if m.memoryView != nil {
		m.memoryView.SetMemory(s.Memory, s.CurrentIteration, s.MaxIterations)
	}
}

func (m *Model) thinkingIndicator() string {
	if !m.snapshot.AgentRunning {
		return ""
	}
	return m.spinner.View() + " " + theme.MutedStyle.Render("Thinking...")
}

func (m *Model) splitWidths() (int, int) {
	if m.width < minSplitWidth {
		return m.width, 0
	}
	right := m.width * rightPanelShare / 100
	return m.width - right - 1, right
}

func (m *Model) bodyHeight() int {
	return max(m.height-headerHeight-inputHeight-1-statusHeight-footerHeight, 3)
}

func (m *Model) layout() {
	left, right := m.splitWidths()
	body := m.bodyHeight()

	m.chat.SetSize(left, body)
	m.input.SetWidth(m.width)
	if right > 0 {
		m.computer.SetSize(right, body-1)
		m.files.SetSize(right, body-1)
	}
	m.markdown.SetWidth(max(left, right))
}

func (m *Model) View() string {
	switch m.state {
	case stateCommandPalette:
		if m.commandPalette != nil {
			return bottomAnchoredOverlay(m.mainView(), m.commandPalette.View(), m.width, m.height)
		}
	case stateConfirmingReset:
		if m.resetForm != nil {
			return m.resetForm.View()
		}
	case stateHelp:
		if m.helpScreen != nil {
			return m.helpScreen.View()
		}
	case stateMemory:
		if m.memoryDialog != nil {
			return m.memoryDialog.View()
		}
	case stateSettings:
		if m.settingsForm != nil {
			return m.settingsForm.View()
		}
	}
	return m.mainView()
}

func (m *Model) mainView() string {
	if m.width == 0 {
		return "Loading..."
	}

	left, right := m.splitWidths()
	body := m.bodyHeight()

	chat := lipgloss.NewStyle().Width(left).Height(body).MaxHeight(body).Render(m.chat.View())
	main := chat
	if right > 0 {
		sep := theme.MutedStyle.Render(strings.TrimSuffix(strings.Repeat("│\n", body), "\n"))
		panel := lipgloss.NewStyle().Width(right).Height(body).MaxHeight(body).Render(m.rightPanelView())
		main = lipgloss.JoinHorizontal(lipgloss.Top, chat, sep, panel)
	}

	return strings.Join([]string{
		m.headerView(),
		main,
		theme.MutedStyle.Render(strings.Repeat("─", m.width)),
		m.input.View(),
		m.statusBarView(),
		m.footerView(),
	}, "\n")
}

func (m *Model) headerView() string {
	title := theme.AppNameStyle.Render("Anygent")
	for _, e := range m.snapshot.ChatEntries {
		if e.Type == domain.EntryUser {
			title += theme.MutedStyle.Render(" · " + truncateTitle(e.Content, 40))
			break
		}
	}
	return lipgloss.NewStyle().MaxWidth(m.width).Render(title)
}

func truncateTitle(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

func (m *Model) rightPanelView() string {
	computerTab := theme.TabInactiveStyle.Render("Computer")
	filesTab := theme.TabInactiveStyle.Render("Files")
	var panel string
	if m.snapshot.RightPanel == domain.PanelFiles {
		filesTab = theme.TabActiveStyle.Render("Files")
		panel = m.files.View()
	} else {
		computerTab = theme.TabActiveStyle.Render("Computer")
		panel = m.computer.View()
	}
	return computerTab + filesTab + "\n" + panel
}

func (m *Model) statusBarView() string {
	s := m.snapshot

	var left string
	if s.AgentRunning {
		left = m.spinner.View() + " " + theme.IterationBadgeStyle.Render(fmt.Sprintf("Iteration %d/%d", s.CurrentIteration, s.MaxIterations))
	} else {
		left = theme.MutedStyle.Render("Ready")
	}
	if s.ModelsLoading {
		left += theme.MutedStyle.Render(" · loading models...")
	}

	sandbox := theme.StatusStyle(m.statusConfig.GetColor(string(s.SandboxStatus))).Render("sandbox " + string(s.SandboxStatus))
	right := sandbox + theme.MutedStyle.Render(" · ") + domain.ModelDisplayName(s.Preferences.SelectedModel)

	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return left + strings.Repeat(" ", gap) + right
}

// footerView is always footerHeight lines: an error, a tip, or blank
func (m *Model) footerView() string {
	if m.errorManager.HasError() {
		text := formatErrorForDisplay(m.errorManager.GetError(), m.width)
		if !strings.Contains(text, "\n") {
			text += "\n"
		}
		return theme.ErrorStyle.Render(text)
	}
	if len(m.tips) > 0 {
		return RenderTip(m.tips[m.tipIndex%len(m.tips)]) + "\n"
	}
	return "\n"
}

func tipTick() tea.Cmd {
	return tea.Tick(tipInterval, func(time.Time) tea.Msg {
		return tipTickMsg{}
	})
}
