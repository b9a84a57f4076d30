//go:build linux

package sound

import (
	"errors"
	"os/exec"

	"anygent/internal/domain"
)

// playForEvent plays freedesktop sounds with paplay
func playForEvent(event string) error {
	soundFile := "/usr/share/sounds/freedesktop/stereo/complete.oga"
	if event == domain.SoundRunFailed {
		soundFile = "/usr/share/sounds/freedesktop/stereo/dialog-error.oga"
	}

	if _, err := exec.LookPath("paplay"); err != nil {
		return errors.New("paplay not available")
	}
	return exec.Command("paplay", soundFile).Start()
}
