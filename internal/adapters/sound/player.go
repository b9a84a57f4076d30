package sound

import (
	"fmt"
	"io"
	"os"
)

// Player implements ports.SoundPlayer
type Player struct {
	bell io.Writer
}

// NewPlayer creates a sound player that falls back to the terminal bell on stdout
func NewPlayer() *Player {
	return &Player{bell: os.Stdout}
}

// PlaySoundForEvent plays a sound for a run event.
// Platform-specific implementations are in player_*.go files with build tags.
func (p *Player) PlaySoundForEvent(event string) error {
	if err := playForEvent(event); err != nil {
		return p.terminalBell()
	}
	return nil
}

// terminalBell outputs a terminal bell character as fallback
func (p *Player) terminalBell() error {
	_, err := fmt.Fprint(p.bell, "\a")
	return err
}
