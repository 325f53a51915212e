// Package service provides testify mocks for the domain service contracts.
package service

import (
	"context"

	"relay/internal/domain/entity"
	"relay/internal/domain/service"

	"github.com/stretchr/testify/mock"
)

// MockAdapter is a mock for service.Adapter.
type MockAdapter struct {
	mock.Mock
}

// NewMockAdapter creates the mock and registers expectation checks with the
// test's cleanup.
func NewMockAdapter(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockAdapter {
	m := &MockAdapter{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockAdapter) Platform() entity.Platform {
	args := m.Called()

	return args.Get(0).(entity.Platform)
}

func (m *MockAdapter) BuildAuthURL(state string) (*service.AuthRequest, error) {
	args := m.Called(state)
	if req, ok := args.Get(0).(*service.AuthRequest); ok {
		return req, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockAdapter) ExchangeCode(ctx context.Context, code, verifier string) (*service.TokenSet, error) {
	args := m.Called(ctx, code, verifier)
	if tokens, ok := args.Get(0).(*service.TokenSet); ok {
		return tokens, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockAdapter) FetchProfile(ctx context.Context, tokens *service.TokenSet) (*service.Identity, error) {
	args := m.Called(ctx, tokens)
	if identity, ok := args.Get(0).(*service.Identity); ok {
		return identity, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockAdapter) Publish(ctx context.Context, cred *entity.Credential, req *service.PublishRequest) (*service.PublishResult, error) {
	args := m.Called(ctx, cred, req)
	if result, ok := args.Get(0).(*service.PublishResult); ok {
		return result, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockAdapter) RefreshToken(ctx context.Context, refreshToken string) (*service.TokenSet, error) {
	args := m.Called(ctx, refreshToken)
	if tokens, ok := args.Get(0).(*service.TokenSet); ok {
		return tokens, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockAdapter) SupportsRefresh() bool {
	args := m.Called()

	return args.Bool(0)
}

func (m *MockAdapter) MaxContentLength() int {
	args := m.Called()

	return args.Int(0)
}

func (m *MockAdapter) RequiresMedia() bool {
	args := m.Called()

	return args.Bool(0)
}

// MockAdapterExpecter offers the EXPECT-style setup used across the test
// suites.
type MockAdapterExpecter struct {
	mock *mock.Mock
}

func (m *MockAdapter) EXPECT() *MockAdapterExpecter {
	return &MockAdapterExpecter{mock: &m.Mock}
}

func (e *MockAdapterExpecter) Platform() *mock.Call {
	return e.mock.On("Platform")
}

func (e *MockAdapterExpecter) BuildAuthURL(state any) *mock.Call {
	return e.mock.On("BuildAuthURL", state)
}

func (e *MockAdapterExpecter) ExchangeCode(ctx, code, verifier any) *mock.Call {
	return e.mock.On("ExchangeCode", ctx, code, verifier)
}

func (e *MockAdapterExpecter) FetchProfile(ctx, tokens any) *mock.Call {
	return e.mock.On("FetchProfile", ctx, tokens)
}

func (e *MockAdapterExpecter) Publish(ctx, cred, req any) *mock.Call {
	return e.mock.On("Publish", ctx, cred, req)
}

func (e *MockAdapterExpecter) RefreshToken(ctx, refreshToken any) *mock.Call {
	return e.mock.On("RefreshToken", ctx, refreshToken)
}

func (e *MockAdapterExpecter) SupportsRefresh() *mock.Call {
	return e.mock.On("SupportsRefresh")
}

func (e *MockAdapterExpecter) MaxContentLength() *mock.Call {
	return e.mock.On("MaxContentLength")
}

func (e *MockAdapterExpecter) RequiresMedia() *mock.Call {
	return e.mock.On("RequiresMedia")
}
