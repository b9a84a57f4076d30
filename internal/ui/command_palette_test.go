package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paletteNames(cp *CommandPalette) []string {
	names := make([]string, 0, len(cp.actions))
	for _, a := range cp.actions {
		names = append(names, a.Name)
	}
	return names
}

func TestCommandPalette_ContextFiltering(t *testing.T) {
	keys := NewKeyMap(nil)

	idle := NewCommandPalette(false, keys)
	assert.NotContains(t, paletteNames(idle), "stop")
	assert.Contains(t, paletteNames(idle), "reset")

	running := NewCommandPalette(true, keys)
	assert.Contains(t, paletteNames(running), "stop")
}

func TestCommandPalette_FilterAndSelect(t *testing.T) {
	cp := NewCommandPalette(false, NewKeyMap(nil))

	for _, r := range "memo" {
		cp.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	require.NotEmpty(t, cp.actions)
	assert.Equal(t, "memory", cp.actions[0].Name)

	cp.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.True(t, cp.Completed)
	require.NotNil(t, cp.Result.Action)
	assert.Equal(t, ShowMemoryMsg{}, cp.Result.Action.Msg)
}

func TestCommandPalette_Cancel(t *testing.T) {
	cp := NewCommandPalette(false, NewKeyMap(nil))

	cp.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.True(t, cp.Completed)
	assert.True(t, cp.Result.Cancelled)
	assert.Nil(t, cp.Result.Action)
}

func TestFuzzyMatch(t *testing.T) {
	tests := []struct {
		query  string
		target string
		want   bool
	}{
		{"", "anything", true},
		{"rst", "reset agent and sandbox", true},
		{"tgl", "toggle markdown rendering", true},
		{"zz", "reset", false},
		{"tesr", "reset", false},
	}

	for _, tt := range tests {
		t.Run(tt.query+"/"+tt.target, func(t *testing.T) {
			assert.Equal(t, tt.want, fuzzyMatch(tt.query, tt.target))
		})
	}
}

func TestActionDispatcher(t *testing.T) {
	stop := *GetKeyDefinition("stop")
	help := *GetKeyDefinition("help")

	assert.Nil(t, NewActionDispatcher(false).Dispatch(stop))
	assert.Equal(t, StopRunMsg{}, NewActionDispatcher(true).Dispatch(stop))
	assert.Equal(t, ShowHelpMsg{}, NewActionDispatcher(false).Dispatch(help))
	assert.Nil(t, NewActionDispatcher(true).Dispatch(*GetKeyDefinition("send")))
}
