package mocks

import (
	"context"

	"github.com/meiziya0402-source/PPT/internal/deck"
	"github.com/meiziya0402-source/PPT/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockContentGenerator is a mock type for the ContentGenerator type
type MockContentGenerator struct {
	mock.Mock
}

// Generate provides a mock function with given fields: ctx, image, mimeType, prompt
func (_m *MockContentGenerator) Generate(ctx context.Context, image []byte, mimeType string, prompt string) (*models.GeneratedDeck, error) {
	ret := _m.Called(ctx, image, mimeType, prompt)

	var r0 *models.GeneratedDeck
	if rf, ok := ret.Get(0).(func(context.Context, []byte, string, string) *models.GeneratedDeck); ok {
		r0 = rf(ctx, image, mimeType, prompt)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.GeneratedDeck)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, []byte, string, string) error); ok {
		r1 = rf(ctx, image, mimeType, prompt)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockContentGenerator creates a new instance of MockContentGenerator. It also registers a testing interface on the mock.
func NewMockContentGenerator(t interface {
	mock.TestingT
	Helper()
}) *MockContentGenerator {
	m := &MockContentGenerator{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ deck.ContentGenerator = (*MockContentGenerator)(nil)
