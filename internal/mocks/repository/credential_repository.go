// Package repository provides testify mocks for the persistence contracts.
package repository

import (
	"context"

	"relay/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockCredentialRepository is a mock for repository.CredentialRepository.
type MockCredentialRepository struct {
	mock.Mock
}

// NewMockCredentialRepository creates the mock and registers expectation
// checks with the test's cleanup.
func NewMockCredentialRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCredentialRepository {
	m := &MockCredentialRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockCredentialRepository) Upsert(ctx context.Context, cred *entity.Credential) error {
	args := m.Called(ctx, cred)

	return args.Error(0)
}

func (m *MockCredentialRepository) FindByUserAndPlatform(ctx context.Context, userID string, platform entity.Platform) (*entity.Credential, error) {
	args := m.Called(ctx, userID, platform)
	if cred, ok := args.Get(0).(*entity.Credential); ok {
		return cred, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockCredentialRepository) FindByState(ctx context.Context, state string) (*entity.Credential, error) {
	args := m.Called(ctx, state)
	if cred, ok := args.Get(0).(*entity.Credential); ok {
		return cred, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockCredentialRepository) ClearPendingAuth(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

func (m *MockCredentialRepository) FindBySessionToken(ctx context.Context, token string) (*entity.Credential, error) {
	args := m.Called(ctx, token)
	if cred, ok := args.Get(0).(*entity.Credential); ok {
		return cred, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockCredentialRepository) ClearSessionToken(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

func (m *MockCredentialRepository) UpdateTokens(ctx context.Context, id uuid.UUID, tokens entity.TokenUpdate) error {
	args := m.Called(ctx, id, tokens)

	return args.Error(0)
}

func (m *MockCredentialRepository) Delete(ctx context.Context, userID string, platform entity.Platform) (int64, error) {
	args := m.Called(ctx, userID, platform)

	return args.Get(0).(int64), args.Error(1)
}

// MockCredentialRepositoryExpecter offers the EXPECT-style setup used across
// the test suites.
type MockCredentialRepositoryExpecter struct {
	mock *mock.Mock
}

func (m *MockCredentialRepository) EXPECT() *MockCredentialRepositoryExpecter {
	return &MockCredentialRepositoryExpecter{mock: &m.Mock}
}

func (e *MockCredentialRepositoryExpecter) Upsert(ctx, cred any) *mock.Call {
	return e.mock.On("Upsert", ctx, cred)
}

func (e *MockCredentialRepositoryExpecter) FindByUserAndPlatform(ctx, userID, platform any) *mock.Call {
	return e.mock.On("FindByUserAndPlatform", ctx, userID, platform)
}

func (e *MockCredentialRepositoryExpecter) FindByState(ctx, state any) *mock.Call {
	return e.mock.On("FindByState", ctx, state)
}

func (e *MockCredentialRepositoryExpecter) ClearPendingAuth(ctx, id any) *mock.Call {
	return e.mock.On("ClearPendingAuth", ctx, id)
}

func (e *MockCredentialRepositoryExpecter) FindBySessionToken(ctx, token any) *mock.Call {
	return e.mock.On("FindBySessionToken", ctx, token)
}

func (e *MockCredentialRepositoryExpecter) ClearSessionToken(ctx, id any) *mock.Call {
	return e.mock.On("ClearSessionToken", ctx, id)
}

func (e *MockCredentialRepositoryExpecter) UpdateTokens(ctx, id, tokens any) *mock.Call {
	return e.mock.On("UpdateTokens", ctx, id, tokens)
}

func (e *MockCredentialRepositoryExpecter) Delete(ctx, userID, platform any) *mock.Call {
	return e.mock.On("Delete", ctx, userID, platform)
}
