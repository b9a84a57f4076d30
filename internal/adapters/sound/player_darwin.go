//go:build darwin

package sound

import (
	"errors"
	"os/exec"

	"anygent/internal/domain"
)

// playForEvent plays sounds on macOS using afplay
func playForEvent(event string) error {
	var soundFiles []string

	switch event {
	case domain.SoundRunFailed:
		soundFiles = []string{
			"/System/Library/Sounds/Basso.aiff",
			"/System/Library/Sounds/Funk.aiff",
		}
	default:
		soundFiles = []string{
			"/System/Library/Sounds/Glass.aiff",
			"/System/Library/Sounds/Tink.aiff",
		}
	}

	for _, soundFile := range soundFiles {
		cmd := exec.Command("afplay", soundFile)
		if err := cmd.Start(); err == nil {
			return nil
		}
	}

	return errors.New("no sound could be played")
}
