package ports

// SoundPlayer plays notification sounds
type SoundPlayer interface {
	PlaySoundForEvent(event string) error
}
