package domain

// ChatRequest starts an agent run
type ChatRequest struct {
	APIKey    string `json:"api_key"`
	E2BAPIKey string `json:"e2b_api_key,omitempty"`
	Message   string `json:"message"`
	Model     string `json:"model"`
}

// Ack is the generic reply of the backend's control endpoints
type Ack struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Success bool   `json:"success"`
}

// SandboxInfo is the backend's view of the sandbox
type SandboxInfo struct {
	Error     string         `json:"error,omitempty"`
	Exists    bool           `json:"exists"`
	Info      map[string]any `json:"info,omitempty"`
	IsRunning bool           `json:"is_running"`
}

// AgentStatus is the backend's view of the agent
type AgentStatus struct {
	CurrentIteration int          `json:"current_iteration"`
	IsRunning        bool         `json:"is_running"`
	MaxIterations    int          `json:"max_iterations"`
	Sandbox          *SandboxInfo `json:"sandbox,omitempty"`
	SessionID        string       `json:"session_id"`
	Status           string       `json:"status"`
}
