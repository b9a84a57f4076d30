package ui

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anygent/internal/config"
	"anygent/internal/domain"
)

func TestKeyDefinitions_NoPrintableDefaults(t *testing.T) {
	for _, def := range AllKeyDefinitions {
		for _, k := range def.Defaults {
			assert.Falsef(t, utf8.RuneCountInString(k) == 1, "%s binds printable key %q, which the prompt needs", def.Name, k)
		}
	}
}

func TestKeyDefinitions_UniqueNames(t *testing.T) {
	seen := make(map[string]bool)
	for _, def := range AllKeyDefinitions {
		assert.Falsef(t, seen[def.Name], "duplicate key definition %s", def.Name)
		seen[def.Name] = true
	}
	assert.Len(t, GetValidKeyNames(), len(AllKeyDefinitions))
	assert.IsIncreasing(t, GetValidKeyNames())
}

func TestKeyDefinitions_PaletteActionsAreDispatchable(t *testing.T) {
	for _, def := range GetPaletteActions() {
		assert.NotNilf(t, def.Msg, "palette action %s has no message", def.Name)
		if def.Action != "" {
			assert.NotNilf(t, domain.GetActionByName(def.Action), "palette action %s refers to unknown action %s", def.Name, def.Action)
		}
	}
}

func TestNewKeyMap_Defaults(t *testing.T) {
	keys := NewKeyMap(nil)

	assert.Equal(t, []string{"enter"}, keys.Chat.Send.Binding.Keys())
	assert.Equal(t, []string{"ctrl+x"}, keys.Chat.Stop.Binding.Keys())
	assert.Equal(t, []string{"tab"}, keys.Panel.Toggle.Binding.Keys())
	assert.Equal(t, "ctrl+x", keys.Chat.Stop.Binding.Help().Key)

	for _, name := range GetValidKeyNames() {
		b, ok := keys.Binding(name)
		require.Truef(t, ok, "KeyMap has no binding for %s", name)
		assert.Equal(t, GetDefaultKeyBindings()[name], b.Keys())
	}
}

func TestNewKeyMap_CustomOverride(t *testing.T) {
	keys := NewKeyMap(config.KeyBindingsConfig{
		"stop": config.KeyBindingValue{"ctrl+q", "f9"},
	})

	assert.Equal(t, []string{"ctrl+q", "f9"}, keys.Chat.Stop.Binding.Keys())
	assert.Equal(t, "ctrl+q/f9", keys.Chat.Stop.Binding.Help().Key)
	require.NotNil(t, keys.Chat.Stop.Tip)
	assert.Equal(t, []string{"ctrl+q"}, keys.Chat.Stop.Tip.Keys)
}

func TestKeyMap_Tips(t *testing.T) {
	tips := NewKeyMap(nil).Tips()
	require.NotEmpty(t, tips)
	for _, tip := range tips {
		assert.NotContains(t, tip.Text(), "%s")
	}
}

func TestIsValidKeyName(t *testing.T) {
	assert.True(t, IsValidKeyName("send"))
	assert.False(t, IsValidKeyName("attach"))
	assert.Nil(t, GetKeyDefinition("attach"))
}
