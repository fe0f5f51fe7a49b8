package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/waypost/waypost/internal/models"
)

// MockLocationStore is a mock implementation of the store.LocationStore interface
type MockLocationStore struct {
	mock.Mock
}

func (m *MockLocationStore) Create(latitude, longitude float64, timestamp, name string) (int64, error) {
	args := m.Called(latitude, longitude, timestamp, name)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLocationStore) ListAll() ([]models.SavedLocation, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SavedLocation), args.Error(1)
}

func (m *MockLocationStore) DeleteByID(id int64) (bool, error) {
	args := m.Called(id)
	return args.Bool(0), args.Error(1)
}

func (m *MockLocationStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
