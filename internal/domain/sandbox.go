package domain

// SandboxStatus is the state of the remote execution environment
type SandboxStatus string

const (
	SandboxCreating SandboxStatus = "creating"
	SandboxError    SandboxStatus = "error"
	SandboxIdle     SandboxStatus = "idle"
	SandboxReady    SandboxStatus = "ready"
)

// RightPanel selects what the right-hand side of the console shows
type RightPanel string

const (
	PanelComputer RightPanel = "computer"
	PanelFiles    RightPanel = "files"
)

// DefaultMaxIterations is the display ceiling until the server reports its own
const DefaultMaxIterations = 500
