package usecase

import (
	"context"

	"relay/internal/domain/entity"
	"relay/internal/usecase"

	"github.com/stretchr/testify/mock"
)

// MockLinkUsecase is a mock for usecase.LinkUsecase.
type MockLinkUsecase struct {
	mock.Mock
}

// NewMockLinkUsecase creates the mock and registers expectation checks with
// the test's cleanup.
func NewMockLinkUsecase(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockLinkUsecase {
	m := &MockLinkUsecase{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockLinkUsecase) BeginLink(ctx context.Context, userID string, platform entity.Platform, origin entity.LoginOrigin) (*usecase.AuthBeginResult, error) {
	args := m.Called(ctx, userID, platform, origin)
	if result, ok := args.Get(0).(*usecase.AuthBeginResult); ok {
		return result, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockLinkUsecase) CompleteLink(ctx context.Context, platform entity.Platform, state, code string) (*usecase.LinkResult, error) {
	args := m.Called(ctx, platform, state, code)
	if result, ok := args.Get(0).(*usecase.LinkResult); ok {
		return result, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockLinkUsecase) ResolveTransientSession(ctx context.Context, token string) (*usecase.CredentialSummary, error) {
	args := m.Called(ctx, token)
	if summary, ok := args.Get(0).(*usecase.CredentialSummary); ok {
		return summary, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockLinkUsecase) Unlink(ctx context.Context, userID string, platform entity.Platform) (int64, error) {
	args := m.Called(ctx, userID, platform)

	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLinkUsecase) CheckLink(ctx context.Context, userID string, platform entity.Platform) (*usecase.ConnectionStatus, error) {
	args := m.Called(ctx, userID, platform)
	if status, ok := args.Get(0).(*usecase.ConnectionStatus); ok {
		return status, args.Error(1)
	}

	return nil, args.Error(1)
}

// MockLinkUsecaseExpecter offers the EXPECT-style setup used across the test
// suites.
type MockLinkUsecaseExpecter struct {
	mock *mock.Mock
}

func (m *MockLinkUsecase) EXPECT() *MockLinkUsecaseExpecter {
	return &MockLinkUsecaseExpecter{mock: &m.Mock}
}

func (e *MockLinkUsecaseExpecter) BeginLink(ctx, userID, platform, origin any) *mock.Call {
	return e.mock.On("BeginLink", ctx, userID, platform, origin)
}

func (e *MockLinkUsecaseExpecter) CompleteLink(ctx, platform, state, code any) *mock.Call {
	return e.mock.On("CompleteLink", ctx, platform, state, code)
}

func (e *MockLinkUsecaseExpecter) ResolveTransientSession(ctx, token any) *mock.Call {
	return e.mock.On("ResolveTransientSession", ctx, token)
}

func (e *MockLinkUsecaseExpecter) Unlink(ctx, userID, platform any) *mock.Call {
	return e.mock.On("Unlink", ctx, userID, platform)
}

func (e *MockLinkUsecaseExpecter) CheckLink(ctx, userID, platform any) *mock.Call {
	return e.mock.On("CheckLink", ctx, userID, platform)
}
