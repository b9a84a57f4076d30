package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anygent/internal/config"
)

func TestParseKeyValues(t *testing.T) {
	assert.Equal(t, []string{"ctrl+x"}, parseKeyValues("ctrl+x"))
	assert.Equal(t, []string{"f1", "f2"}, parseKeyValues(" f1 , f2 ,"))
	assert.Empty(t, parseKeyValues(" , "))
}

func TestUpdateKeyBindings(t *testing.T) {
	t.Setenv("ANYGENT_HOME", t.TempDir())

	require.NoError(t, updateKeyBindings(func(keys config.KeyBindingsConfig) {
		keys["stop"] = config.KeyBindingValue{"ctrl+q"}
	}, "ok"))

	settings, err := config.LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, config.KeyBindingValue{"ctrl+q"}, settings.Keys["stop"])

	err = updateKeyBindings(func(keys config.KeyBindingsConfig) {
		keys["reset"] = config.KeyBindingValue{"ctrl+q"}
	}, "ok")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conflict")

	// The conflicting change was not saved
	settings, err = config.LoadSettings()
	require.NoError(t, err)
	assert.NotContains(t, settings.Keys, "reset")

	require.NoError(t, updateKeyBindings(func(keys config.KeyBindingsConfig) {
		delete(keys, "stop")
	}, "ok"))
	settings, err = config.LoadSettings()
	require.NoError(t, err)
	assert.Empty(t, settings.Keys)
}
