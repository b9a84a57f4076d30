// Package mocks provides testify doubles for the ports interfaces
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"anygent/internal/domain"
	"anygent/internal/events"
)

// MockAgentAPI is a mock of ports.AgentAPI
type MockAgentAPI struct {
	mock.Mock
}

// NewMockAgentAPI creates a mock that asserts its expectations when the test ends
func NewMockAgentAPI(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockAgentAPI {
	m := &MockAgentAPI{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockAgentAPI) FileTree(ctx context.Context) (*domain.FileNode, error) {
	args := m.Called(ctx)
	tree, _ := args.Get(0).(*domain.FileNode)
	return tree, args.Error(1)
}

func (m *MockAgentAPI) Memory(ctx context.Context) (*domain.Memory, error) {
	args := m.Called(ctx)
	memory, _ := args.Get(0).(*domain.Memory)
	return memory, args.Error(1)
}

func (m *MockAgentAPI) Models(ctx context.Context, apiKey string) ([]domain.Model, error) {
	args := m.Called(ctx, apiKey)
	models, _ := args.Get(0).([]domain.Model)
	return models, args.Error(1)
}

func (m *MockAgentAPI) ReadFile(ctx context.Context, path string) (string, error) {
	args := m.Called(ctx, path)
	return args.String(0), args.Error(1)
}

func (m *MockAgentAPI) RefreshFileTree(ctx context.Context) (*domain.FileNode, error) {
	args := m.Called(ctx)
	tree, _ := args.Get(0).(*domain.FileNode)
	return tree, args.Error(1)
}

func (m *MockAgentAPI) Reset(ctx context.Context) (domain.Ack, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Ack), args.Error(1)
}

func (m *MockAgentAPI) Stop(ctx context.Context) (domain.Ack, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Ack), args.Error(1)
}

// StreamChat returns the channels configured with Return. Use EventStream to
// build them from a fixed list of events.
func (m *MockAgentAPI) StreamChat(ctx context.Context, req domain.ChatRequest) (<-chan events.Event, <-chan error, error) {
	args := m.Called(ctx, req)
	eventCh, _ := args.Get(0).(<-chan events.Event)
	errCh, _ := args.Get(1).(<-chan error)
	return eventCh, errCh, args.Error(2)
}

// EventStream returns closed channels that deliver evs and then streamErr
func EventStream(streamErr error, evs ...events.Event) (<-chan events.Event, <-chan error) {
	eventCh := make(chan events.Event, len(evs))
	for _, ev := range evs {
		eventCh <- ev
	}
	close(eventCh)

	errCh := make(chan error, 1)
	if streamErr != nil {
		errCh <- streamErr
	}
	close(errCh)
	return eventCh, errCh
}
