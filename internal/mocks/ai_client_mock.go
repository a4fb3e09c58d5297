package mocks

import (
	"context"

	"github.com/meiziya0402-source/PPT/internal/generator"

	"github.com/stretchr/testify/mock"
)

// MockAIClient is a mock type for the AIClient type
type MockAIClient struct {
	mock.Mock
}

// Generate provides a mock function with given fields: ctx, req
func (_m *MockAIClient) Generate(ctx context.Context, req generator.Request) (string, generator.UsageInfo, error) {
	ret := _m.Called(ctx, req)

	var r0 string
	if rf, ok := ret.Get(0).(func(context.Context, generator.Request) string); ok {
		r0 = rf(ctx, req)
	} else {
		r0 = ret.String(0)
	}

	var r1 generator.UsageInfo
	if rf, ok := ret.Get(1).(func(context.Context, generator.Request) generator.UsageInfo); ok {
		r1 = rf(ctx, req)
	} else if ret.Get(1) != nil {
		r1 = ret.Get(1).(generator.UsageInfo)
	}

	var r2 error
	if rf, ok := ret.Get(2).(func(context.Context, generator.Request) error); ok {
		r2 = rf(ctx, req)
	} else {
		r2 = ret.Error(2)
	}

	return r0, r1, r2
}

// Model provides a mock function with given fields:
func (_m *MockAIClient) Model() string {
	ret := _m.Called()
	return ret.String(0)
}

// NewMockAIClient creates a new instance of MockAIClient. It also registers a testing interface on the mock.
func NewMockAIClient(t interface {
	mock.TestingT
	Helper()
}) *MockAIClient {
	m := &MockAIClient{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ generator.AIClient = (*MockAIClient)(nil)
