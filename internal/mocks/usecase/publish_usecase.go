// Package usecase provides testify mocks for the usecase contracts.
package usecase

import (
	"context"

	"relay/internal/domain/entity"
	"relay/internal/usecase"

	"github.com/stretchr/testify/mock"
)

// MockPublishUsecase is a mock for usecase.PublishUsecase.
type MockPublishUsecase struct {
	mock.Mock
}

// NewMockPublishUsecase creates the mock and registers expectation checks
// with the test's cleanup.
func NewMockPublishUsecase(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPublishUsecase {
	m := &MockPublishUsecase{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockPublishUsecase) Publish(ctx context.Context, input *usecase.PublishInput) (*usecase.PublishOutput, error) {
	args := m.Called(ctx, input)
	if out, ok := args.Get(0).(*usecase.PublishOutput); ok {
		return out, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockPublishUsecase) Schedule(ctx context.Context, input *usecase.ScheduleInput) (*usecase.ScheduleOutput, error) {
	args := m.Called(ctx, input)
	if out, ok := args.Get(0).(*usecase.ScheduleOutput); ok {
		return out, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockPublishUsecase) ExecuteScheduled(ctx context.Context, post *entity.PostRecord) error {
	args := m.Called(ctx, post)

	return args.Error(0)
}

func (m *MockPublishUsecase) ListPosts(ctx context.Context, userID string, platform entity.Platform) ([]*entity.PostRecord, error) {
	args := m.Called(ctx, userID, platform)
	if posts, ok := args.Get(0).([]*entity.PostRecord); ok {
		return posts, args.Error(1)
	}

	return nil, args.Error(1)
}

// MockPublishUsecaseExpecter offers the EXPECT-style setup used across the
// test suites.
type MockPublishUsecaseExpecter struct {
	mock *mock.Mock
}

func (m *MockPublishUsecase) EXPECT() *MockPublishUsecaseExpecter {
	return &MockPublishUsecaseExpecter{mock: &m.Mock}
}

func (e *MockPublishUsecaseExpecter) Publish(ctx, input any) *mock.Call {
	return e.mock.On("Publish", ctx, input)
}

func (e *MockPublishUsecaseExpecter) Schedule(ctx, input any) *mock.Call {
	return e.mock.On("Schedule", ctx, input)
}

func (e *MockPublishUsecaseExpecter) ExecuteScheduled(ctx, post any) *mock.Call {
	return e.mock.On("ExecuteScheduled", ctx, post)
}

func (e *MockPublishUsecaseExpecter) ListPosts(ctx, userID, platform any) *mock.Call {
	return e.mock.On("ListPosts", ctx, userID, platform)
}
