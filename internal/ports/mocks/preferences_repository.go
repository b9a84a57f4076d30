package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"anygent/internal/domain"
)

// MockPreferencesRepository is a mock of ports.PreferencesRepository
type MockPreferencesRepository struct {
	mock.Mock
}

// NewMockPreferencesRepository creates a mock that asserts its expectations when the test ends
func NewMockPreferencesRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPreferencesRepository {
	m := &MockPreferencesRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPreferencesRepository) Close() error {
	return m.Called().Error(0)
}

func (m *MockPreferencesRepository) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockPreferencesRepository) Load(ctx context.Context) (domain.Preferences, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Preferences), args.Error(1)
}

func (m *MockPreferencesRepository) Save(ctx context.Context, prefs domain.Preferences) error {
	return m.Called(ctx, prefs).Error(0)
}

func (m *MockPreferencesRepository) Set(ctx context.Context, key, value string) error {
	return m.Called(ctx, key, value).Error(0)
}
