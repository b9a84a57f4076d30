//go:build !darwin && !linux

package sound

import "errors"

// playForEvent has no player on other platforms; the caller rings the bell
func playForEvent(event string) error {
	return errors.New("no sound player on this platform")
}
