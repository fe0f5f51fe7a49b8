package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/waypost/waypost/pkg/location"
)

// MockPositionAcquirer is a mock implementation of the services.PositionAcquirer interface
type MockPositionAcquirer struct {
	mock.Mock
}

func (m *MockPositionAcquirer) Acquire(ctx context.Context) (location.Fix, error) {
	args := m.Called(ctx)
	return args.Get(0).(location.Fix), args.Error(1)
}
