package repository

import (
	"context"
	"time"

	"relay/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockPostRepository is a mock for repository.PostRepository.
type MockPostRepository struct {
	mock.Mock
}

// NewMockPostRepository creates the mock and registers expectation checks
// with the test's cleanup.
func NewMockPostRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPostRepository {
	m := &MockPostRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockPostRepository) Create(ctx context.Context, post *entity.PostRecord) error {
	args := m.Called(ctx, post)

	return args.Error(0)
}

func (m *MockPostRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.PostRecord, error) {
	args := m.Called(ctx, id)
	if post, ok := args.Get(0).(*entity.PostRecord); ok {
		return post, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockPostRepository) MarkPosted(ctx context.Context, id uuid.UUID, providerPostID, postURL string, postedAt time.Time) error {
	args := m.Called(ctx, id, providerPostID, postURL, postedAt)

	return args.Error(0)
}

func (m *MockPostRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

func (m *MockPostRepository) ListByUserAndPlatform(ctx context.Context, userID string, platform entity.Platform, limit int) ([]*entity.PostRecord, error) {
	args := m.Called(ctx, userID, platform, limit)
	if posts, ok := args.Get(0).([]*entity.PostRecord); ok {
		return posts, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockPostRepository) ListScheduledDue(ctx context.Context, due time.Time) ([]*entity.PostRecord, error) {
	args := m.Called(ctx, due)
	if posts, ok := args.Get(0).([]*entity.PostRecord); ok {
		return posts, args.Error(1)
	}

	return nil, args.Error(1)
}

// MockPostRepositoryExpecter offers the EXPECT-style setup used across the
// test suites.
type MockPostRepositoryExpecter struct {
	mock *mock.Mock
}

func (m *MockPostRepository) EXPECT() *MockPostRepositoryExpecter {
	return &MockPostRepositoryExpecter{mock: &m.Mock}
}

func (e *MockPostRepositoryExpecter) Create(ctx, post any) *mock.Call {
	return e.mock.On("Create", ctx, post)
}

func (e *MockPostRepositoryExpecter) FindByID(ctx, id any) *mock.Call {
	return e.mock.On("FindByID", ctx, id)
}

func (e *MockPostRepositoryExpecter) MarkPosted(ctx, id, providerPostID, postURL, postedAt any) *mock.Call {
	return e.mock.On("MarkPosted", ctx, id, providerPostID, postURL, postedAt)
}

func (e *MockPostRepositoryExpecter) MarkFailed(ctx, id any) *mock.Call {
	return e.mock.On("MarkFailed", ctx, id)
}

func (e *MockPostRepositoryExpecter) ListByUserAndPlatform(ctx, userID, platform, limit any) *mock.Call {
	return e.mock.On("ListByUserAndPlatform", ctx, userID, platform, limit)
}

func (e *MockPostRepositoryExpecter) ListScheduledDue(ctx, due any) *mock.Call {
	return e.mock.On("ListScheduledDue", ctx, due)
}
