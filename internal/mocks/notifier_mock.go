package mocks

import (
	"github.com/meiziya0402-source/PPT/internal/deck"

	"github.com/stretchr/testify/mock"
)

// MockNotifier is a mock type for the Notifier type
type MockNotifier struct {
	mock.Mock
}

// Broadcast provides a mock function with given fields: messageType, topic, payload
func (_m *MockNotifier) Broadcast(messageType string, topic string, payload interface{}) {
	_m.Called(messageType, topic, payload)
}

// NewMockNotifier creates a new instance of MockNotifier.
// Все рассылки разрешены по умолчанию, тест проверяет нужные через AssertCalled.
func NewMockNotifier(t interface {
	mock.TestingT
	Helper()
}) *MockNotifier {
	m := &MockNotifier{}
	m.Mock.Test(t)
	t.Helper()
	m.On("Broadcast", mock.Anything, mock.Anything, mock.Anything).Maybe()
	return m
}

var _ deck.Notifier = (*MockNotifier)(nil)
