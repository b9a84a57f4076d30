package domain

// Sound events played when an agent run ends
const (
	SoundRunComplete = "run_complete"
	SoundRunFailed   = "run_failed"
)
