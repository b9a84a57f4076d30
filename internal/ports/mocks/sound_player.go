package mocks

import "github.com/stretchr/testify/mock"

// MockSoundPlayer is a mock of ports.SoundPlayer
type MockSoundPlayer struct {
	mock.Mock
}

// NewMockSoundPlayer creates a mock that asserts its expectations when the test ends
func NewMockSoundPlayer(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSoundPlayer {
	m := &MockSoundPlayer{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockSoundPlayer) PlaySoundForEvent(event string) error {
	args := m.Called(event)
	return args.Error(0)
}
