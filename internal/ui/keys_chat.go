package ui

import (
	"anygent/internal/config"
)

// ChatKeys defines key bindings for the prompt and the transcript
type ChatKeys struct {
	Newline    KeyWithTip
	Reset      KeyWithTip
	ScrollDown KeyWithTip
	ScrollUp   KeyWithTip
	Send       KeyWithTip
	Stop       KeyWithTip
}

// newChatKeys creates chat key bindings
func newChatKeys(defaults map[string][]string, customKeys config.KeyBindingsConfig) ChatKeys {
	return ChatKeys{
		Newline:    buildBinding("newline", defaults, customKeys),
		Reset:      buildBinding("reset", defaults, customKeys),
		ScrollDown: buildBinding("scroll_down", defaults, customKeys),
		ScrollUp:   buildBinding("scroll_up", defaults, customKeys),
		Send:       buildBinding("send", defaults, customKeys),
		Stop:       buildBinding("stop", defaults, customKeys),
	}
}
