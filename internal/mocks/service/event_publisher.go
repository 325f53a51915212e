package service

import (
	"context"

	"relay/internal/domain/service"

	"github.com/stretchr/testify/mock"
)

// MockEventPublisher is a mock for service.EventPublisher.
type MockEventPublisher struct {
	mock.Mock
}

// NewMockEventPublisher creates the mock and registers expectation checks
// with the test's cleanup.
func NewMockEventPublisher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockEventPublisher {
	m := &MockEventPublisher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockEventPublisher) PublishPostEvent(ctx context.Context, event *service.PostEvent) error {
	args := m.Called(ctx, event)

	return args.Error(0)
}

func (m *MockEventPublisher) Close() error {
	args := m.Called()

	return args.Error(0)
}

// MockEventPublisherExpecter offers the EXPECT-style setup used across the
// test suites.
type MockEventPublisherExpecter struct {
	mock *mock.Mock
}

func (m *MockEventPublisher) EXPECT() *MockEventPublisherExpecter {
	return &MockEventPublisherExpecter{mock: &m.Mock}
}

func (e *MockEventPublisherExpecter) PublishPostEvent(ctx, event any) *mock.Call {
	return e.mock.On("PublishPostEvent", ctx, event)
}

func (e *MockEventPublisherExpecter) Close() *mock.Call {
	return e.mock.On("Close")
}
