package ports

import (
	"context"

	"anygent/internal/domain"
	"anygent/internal/events"
)

// AgentRunner starts and controls agent runs
type AgentRunner interface {
	Reset(ctx context.Context) (domain.Ack, error)
	Stop(ctx context.Context) (domain.Ack, error)
	StreamChat(ctx context.Context, req domain.ChatRequest) (<-chan events.Event, <-chan error, error)
}

// ModelLister lists the models the backend can run
type ModelLister interface {
	Models(ctx context.Context, apiKey string) ([]domain.Model, error)
}

// WorkspaceReader reads the sandbox and the agent memory
type WorkspaceReader interface {
	FileTree(ctx context.Context) (*domain.FileNode, error)
	Memory(ctx context.Context) (*domain.Memory, error)
	ReadFile(ctx context.Context, path string) (string, error)
	RefreshFileTree(ctx context.Context) (*domain.FileNode, error)
}

// AgentAPI is the composite interface
type AgentAPI interface {
	AgentRunner
	ModelLister
	WorkspaceReader
}
