package impl

import (
	"context"
	"strings"
	"testing"
	"time"

	"relay/config"
	"relay/internal/domain/entity"
	domainerrors "relay/internal/domain/errors"
	"relay/internal/domain/repository"
	"relay/internal/domain/service"
	"relay/internal/usecase"
	mockRepo "relay/internal/mocks/repository"
	mockService "relay/internal/mocks/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestPublishService(
	credRepo repository.CredentialRepository,
	postRepo repository.PostRepository,
	events service.EventPublisher,
	adapters ...service.Adapter,
) usecase.PublishUsecase {
	cfg := &config.Config{
		Publish: config.PublishConfig{HistoryLimit: 50},
	}

	return NewPublishService(PublishServiceParams{
		CredRepo:       credRepo,
		PostRepo:       postRepo,
		Registry:       service.NewRegistry(adapters),
		EventPublisher: events,
		Config:         cfg,
		Logger:         discardLogger(),
	})
}

func linkedTwitterCredential() *entity.Credential {
	return &entity.Credential{
		ID:           uuid.New(),
		UserID:       "user-1",
		Platform:     entity.PlatformTwitter,
		ProviderID:   "tw-123",
		AccessToken:  "access-token",
		RefreshToken: "refresh-1",
		Profile:      entity.Profile{Username: "jdoe", Name: "Jane Doe"},
	}
}

func TestPublish_EmptyContent(t *testing.T) {
	credRepo := mockRepo.NewMockCredentialRepository(t)
	postRepo := mockRepo.NewMockPostRepository(t)
	events := mockService.NewMockEventPublisher(t)
	adapter := newTwitterAdapterMock(t)

	svc := newTestPublishService(credRepo, postRepo, events, adapter)
	_, err := svc.Publish(context.Background(), &usecase.PublishInput{
		UserID:   "user-1",
		Platform: entity.PlatformTwitter,
		Content:  "",
	})

	require.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestPublish_ContentOverLimit(t *testing.T) {
	credRepo := mockRepo.NewMockCredentialRepository(t)
	postRepo := mockRepo.NewMockPostRepository(t)
	events := mockService.NewMockEventPublisher(t)
	adapter := newTwitterAdapterMock(t)
	adapter.EXPECT().MaxContentLength().Return(280)

	svc := newTestPublishService(credRepo, postRepo, events, adapter)
	_, err := svc.Publish(context.Background(), &usecase.PublishInput{
		UserID:   "user-1",
		Platform: entity.PlatformTwitter,
		Content:  strings.Repeat("a", 281),
	})

	require.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestPublish_ContentAtLimitPasses(t *testing.T) {
	credRepo := mockRepo.NewMockCredentialRepository(t)
	postRepo := mockRepo.NewMockPostRepository(t)
	events := mockService.NewMockEventPublisher(t)
	adapter := newTwitterAdapterMock(t)

	content := strings.Repeat("a", 280)
	adapter.EXPECT().MaxContentLength().Return(280)
	adapter.EXPECT().RequiresMedia().Return(false)
	credRepo.EXPECT().FindByUserAndPlatform(mock.Anything, "user-1", entity.PlatformTwitter).
		Return(linkedTwitterCredential(), nil)
	adapter.EXPECT().Publish(mock.Anything, mock.AnythingOfType("*entity.Credential"), &service.PublishRequest{Content: content}).
		Return(&service.PublishResult{PostID: "99", PostURL: "https://twitter.com/jdoe/status/99"}, nil)
	postRepo.EXPECT().Create(mock.Anything, mock.AnythingOfType("*entity.PostRecord")).Return(nil)
	events.EXPECT().PublishPostEvent(mock.Anything, mock.AnythingOfType("*service.PostEvent")).Return(nil)

	svc := newTestPublishService(credRepo, postRepo, events, adapter)
	out, err := svc.Publish(context.Background(), &usecase.PublishInput{
		UserID:   "user-1",
		Platform: entity.PlatformTwitter,
		Content:  content,
	})

	require.NoError(t, err)
	assert.Equal(t, "99", out.PostID)
}

func TestPublish_MediaRequired(t *testing.T) {
	credRepo := mockRepo.NewMockCredentialRepository(t)
	postRepo := mockRepo.NewMockPostRepository(t)
	events := mockService.NewMockEventPublisher(t)
	adapter := mockService.NewMockAdapter(t)
	adapter.EXPECT().Platform().Return(entity.PlatformInstagram).Maybe()
	adapter.EXPECT().MaxContentLength().Return(2200)
	adapter.EXPECT().RequiresMedia().Return(true)

	svc := newTestPublishService(credRepo, postRepo, events, adapter)
	_, err := svc.Publish(context.Background(), &usecase.PublishInput{
		UserID:   "user-1",
		Platform: entity.PlatformInstagram,
		Content:  "caption only",
	})

	require.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestPublish_NotConnected(t *testing.T) {
	credRepo := mockRepo.NewMockCredentialRepository(t)
	postRepo := mockRepo.NewMockPostRepository(t)
	events := mockService.NewMockEventPublisher(t)
	adapter := newTwitterAdapterMock(t)
	adapter.EXPECT().MaxContentLength().Return(280)
	adapter.EXPECT().RequiresMedia().Return(false)
	credRepo.EXPECT().FindByUserAndPlatform(mock.Anything, "user-1", entity.PlatformTwitter).
		Return(nil, repository.ErrCredentialNotFound)

	svc := newTestPublishService(credRepo, postRepo, events, adapter)
	_, err := svc.Publish(context.Background(), &usecase.PublishInput{
		UserID:   "user-1",
		Platform: entity.PlatformTwitter,
		Content:  "hello",
	})

	require.ErrorIs(t, err, domainerrors.ErrNotConnected)
}

func TestPublish_SuccessRecordsPost(t *testing.T) {
	credRepo := mockRepo.NewMockCredentialRepository(t)
	postRepo := mockRepo.NewMockPostRepository(t)
	events := mockService.NewMockEventPublisher(t)
	adapter := newTwitterAdapterMock(t)

	adapter.EXPECT().MaxContentLength().Return(280)
	adapter.EXPECT().RequiresMedia().Return(false)
	credRepo.EXPECT().FindByUserAndPlatform(mock.Anything, "user-1", entity.PlatformTwitter).
		Return(linkedTwitterCredential(), nil)
	adapter.EXPECT().Publish(mock.Anything, mock.AnythingOfType("*entity.Credential"), &service.PublishRequest{Content: "hello"}).
		Return(&service.PublishResult{PostID: "99", PostURL: "https://twitter.com/jdoe/status/99"}, nil)

	var saved *entity.PostRecord
	postRepo.EXPECT().Create(mock.Anything, mock.AnythingOfType("*entity.PostRecord")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*entity.PostRecord)
		}).
		Return(nil)
	events.EXPECT().PublishPostEvent(mock.Anything, mock.AnythingOfType("*service.PostEvent")).Return(nil)

	svc := newTestPublishService(credRepo, postRepo, events, adapter)
	out, err := svc.Publish(context.Background(), &usecase.PublishInput{
		UserID:    "user-1",
		Platform:  entity.PlatformTwitter,
		Content:   "hello",
		RequestID: "req-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "99", out.PostID)
	assert.Equal(t, "https://twitter.com/jdoe/status/99", out.PostURL)

	require.NotNil(t, saved)
	assert.Equal(t, entity.PostStatusPosted, saved.Status)
	assert.Equal(t, "99", saved.ProviderPostID)
	assert.Equal(t, "jdoe", saved.Account.Username)
	assert.False(t, saved.PostedAt.IsZero())
}

func TestPublish_StoreFailureDoesNotFailPublish(t *testing.T) {
	credRepo := mockRepo.NewMockCredentialRepository(t)
	postRepo := mockRepo.NewMockPostRepository(t)
	events := mockService.NewMockEventPublisher(t)
	adapter := newTwitterAdapterMock(t)

	adapter.EXPECT().MaxContentLength().Return(280)
	adapter.EXPECT().RequiresMedia().Return(false)
	credRepo.EXPECT().FindByUserAndPlatform(mock.Anything, "user-1", entity.PlatformTwitter).
		Return(linkedTwitterCredential(), nil)
	adapter.EXPECT().Publish(mock.Anything, mock.AnythingOfType("*entity.Credential"), mock.AnythingOfType("*service.PublishRequest")).
		Return(&service.PublishResult{PostID: "99", PostURL: "https://twitter.com/jdoe/status/99"}, nil)
	postRepo.EXPECT().Create(mock.Anything, mock.AnythingOfType("*entity.PostRecord")).
		Return(domainerrors.NewDatabaseExecuteError(assert.AnError, "insert failed"))

	svc := newTestPublishService(credRepo, postRepo, events, adapter)
	out, err := svc.Publish(context.Background(), &usecase.PublishInput{
		UserID:   "user-1",
		Platform: entity.PlatformTwitter,
		Content:  "hello",
	})

	require.NoError(t, err)
	assert.Equal(t, "99", out.PostID)
	events.AssertNotCalled(t, "PublishPostEvent", mock.Anything, mock.Anything)
}

func TestPublish_AuthExpiredRefreshesOnceAndRetries(t *testing.T) {
	credRepo := mockRepo.NewMockCredentialRepository(t)
	postRepo := mockRepo.NewMockPostRepository(t)
	events := mockService.NewMockEventPublisher(t)
	adapter := newTwitterAdapterMock(t)

	cred := linkedTwitterCredential()
	adapter.EXPECT().MaxContentLength().Return(280)
	adapter.EXPECT().RequiresMedia().Return(false)
	credRepo.EXPECT().FindByUserAndPlatform(mock.Anything, "user-1", entity.PlatformTwitter).
		Return(cred, nil)

	adapter.EXPECT().Publish(mock.Anything, mock.AnythingOfType("*entity.Credential"), mock.AnythingOfType("*service.PublishRequest")).
		Return(nil, domainerrors.ErrAuthExpired.WrapMessage("token rejected")).Once()
	adapter.EXPECT().SupportsRefresh().Return(true)
	adapter.EXPECT().RefreshToken(mock.Anything, "refresh-1").
		Return(&service.TokenSet{AccessToken: "fresh-token"}, nil).Once()
	credRepo.EXPECT().UpdateTokens(mock.Anything, cred.ID, entity.TokenUpdate{
		AccessToken:  "fresh-token",
		RefreshToken: "refresh-1", // rotation omitted the refresh token, old one kept
	}).Return(nil).Once()
	adapter.EXPECT().Publish(mock.Anything, mock.AnythingOfType("*entity.Credential"), mock.AnythingOfType("*service.PublishRequest")).
		Run(func(args mock.Arguments) {
			retryCred := args.Get(1).(*entity.Credential)
			assert.Equal(t, "fresh-token", retryCred.AccessToken)
		}).
		Return(&service.PublishResult{PostID: "99", PostURL: "https://twitter.com/jdoe/status/99"}, nil).Once()

	postRepo.EXPECT().Create(mock.Anything, mock.AnythingOfType("*entity.PostRecord")).Return(nil)
	events.EXPECT().PublishPostEvent(mock.Anything, mock.AnythingOfType("*service.PostEvent")).Return(nil)

	svc := newTestPublishService(credRepo, postRepo, events, adapter)
	out, err := svc.Publish(context.Background(), &usecase.PublishInput{
		UserID:   "user-1",
		Platform: entity.PlatformTwitter,
		Content:  "hello",
	})

	require.NoError(t, err)
	assert.Equal(t, "99", out.PostID)
}

func TestPublish_AuthExpiredWithoutRefreshSupport(t *testing.T) {
	credRepo := mockRepo.NewMockCredentialRepository(t)
	postRepo := mockRepo.NewMockPostRepository(t)
	events := mockService.NewMockEventPublisher(t)
	adapter := mockService.NewMockAdapter(t)
	adapter.EXPECT().Platform().Return(entity.PlatformLinkedIn).Maybe()

	adapter.EXPECT().MaxContentLength().Return(3000)
	adapter.EXPECT().RequiresMedia().Return(false)
	credRepo.EXPECT().FindByUserAndPlatform(mock.Anything, "user-1", entity.PlatformLinkedIn).
		Return(&entity.Credential{
			ID:          uuid.New(),
			UserID:      "user-1",
			Platform:    entity.PlatformLinkedIn,
			ProviderID:  "li-123",
			AccessToken: "stale-token",
		}, nil)
	adapter.EXPECT().Publish(mock.Anything, mock.AnythingOfType("*entity.Credential"), mock.AnythingOfType("*service.PublishRequest")).
		Return(nil, domainerrors.ErrAuthExpired.WrapMessage("token rejected")).Once()
	adapter.EXPECT().SupportsRefresh().Return(false)

	svc := newTestPublishService(credRepo, postRepo, events, adapter)
	_, err := svc.Publish(context.Background(), &usecase.PublishInput{
		UserID:   "user-1",
		Platform: entity.PlatformLinkedIn,
		Content:  "hello",
	})

	require.ErrorIs(t, err, domainerrors.ErrAuthExpired)
	adapter.AssertNotCalled(t, "RefreshToken", mock.Anything, mock.Anything)
}

func TestPublish_RefreshFailureStopsAfterOneAttempt(t *testing.T) {
	credRepo := mockRepo.NewMockCredentialRepository(t)
	postRepo := mockRepo.NewMockPostRepository(t)
	events := mockService.NewMockEventPublisher(t)
	adapter := newTwitterAdapterMock(t)

	adapter.EXPECT().MaxContentLength().Return(280)
	adapter.EXPECT().RequiresMedia().Return(false)
	credRepo.EXPECT().FindByUserAndPlatform(mock.Anything, "user-1", entity.PlatformTwitter).
		Return(linkedTwitterCredential(), nil)
	adapter.EXPECT().Publish(mock.Anything, mock.AnythingOfType("*entity.Credential"), mock.AnythingOfType("*service.PublishRequest")).
		Return(nil, domainerrors.ErrAuthExpired.WrapMessage("token rejected")).Once()
	adapter.EXPECT().SupportsRefresh().Return(true)
	adapter.EXPECT().RefreshToken(mock.Anything, "refresh-1").
		Return(nil, domainerrors.ErrAuthExpired.WrapMessage("refresh rejected")).Once()

	svc := newTestPublishService(credRepo, postRepo, events, adapter)
	_, err := svc.Publish(context.Background(), &usecase.PublishInput{
		UserID:   "user-1",
		Platform: entity.PlatformTwitter,
		Content:  "hello",
	})

	require.ErrorIs(t, err, domainerrors.ErrAuthExpired)
	credRepo.AssertNotCalled(t, "UpdateTokens", mock.Anything, mock.Anything, mock.Anything)
	adapter.AssertNumberOfCalls(t, "Publish", 1)
}

func TestSchedule_PersistsScheduledRecord(t *testing.T) {
	credRepo := mockRepo.NewMockCredentialRepository(t)
	postRepo := mockRepo.NewMockPostRepository(t)
	events := mockService.NewMockEventPublisher(t)
	adapter := newTwitterAdapterMock(t)

	adapter.EXPECT().MaxContentLength().Return(280)
	adapter.EXPECT().RequiresMedia().Return(false)
	credRepo.EXPECT().FindByUserAndPlatform(mock.Anything, "user-1", entity.PlatformTwitter).
		Return(linkedTwitterCredential(), nil)

	recordID := uuid.New()
	var saved *entity.PostRecord
	postRepo.EXPECT().Create(mock.Anything, mock.AnythingOfType("*entity.PostRecord")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*entity.PostRecord)
			saved.ID = recordID
		}).
		Return(nil)
	events.EXPECT().PublishPostEvent(mock.Anything, mock.AnythingOfType("*service.PostEvent")).Return(nil)

	scheduledFor := time.Now().Add(time.Hour).Truncate(time.Second)
	svc := newTestPublishService(credRepo, postRepo, events, adapter)
	out, err := svc.Schedule(context.Background(), &usecase.ScheduleInput{
		PublishInput: usecase.PublishInput{
			UserID:   "user-1",
			Platform: entity.PlatformTwitter,
			Content:  "later",
		},
		ScheduledFor: scheduledFor,
	})

	require.NoError(t, err)
	assert.Equal(t, recordID.String(), out.PostID)
	assert.Equal(t, scheduledFor, out.ScheduledFor)

	require.NotNil(t, saved)
	assert.Equal(t, entity.PostStatusScheduled, saved.Status)
	require.NotNil(t, saved.ScheduledFor)
	assert.Equal(t, scheduledFor, *saved.ScheduledFor)
	assert.True(t, saved.PostedAt.IsZero())
	adapter.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestSchedule_MissingTimestamp(t *testing.T) {
	credRepo := mockRepo.NewMockCredentialRepository(t)
	postRepo := mockRepo.NewMockPostRepository(t)
	events := mockService.NewMockEventPublisher(t)
	adapter := newTwitterAdapterMock(t)

	adapter.EXPECT().MaxContentLength().Return(280)
	adapter.EXPECT().RequiresMedia().Return(false)
	credRepo.EXPECT().FindByUserAndPlatform(mock.Anything, "user-1", entity.PlatformTwitter).
		Return(linkedTwitterCredential(), nil)

	svc := newTestPublishService(credRepo, postRepo, events, adapter)
	_, err := svc.Schedule(context.Background(), &usecase.ScheduleInput{
		PublishInput: usecase.PublishInput{
			UserID:   "user-1",
			Platform: entity.PlatformTwitter,
			Content:  "later",
		},
	})

	require.ErrorIs(t, err, domainerrors.ErrValidation)
	postRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSchedule_StoreFailureSurfaces(t *testing.T) {
	credRepo := mockRepo.NewMockCredentialRepository(t)
	postRepo := mockRepo.NewMockPostRepository(t)
	events := mockService.NewMockEventPublisher(t)
	adapter := newTwitterAdapterMock(t)

	adapter.EXPECT().MaxContentLength().Return(280)
	adapter.EXPECT().RequiresMedia().Return(false)
	credRepo.EXPECT().FindByUserAndPlatform(mock.Anything, "user-1", entity.PlatformTwitter).
		Return(linkedTwitterCredential(), nil)
	postRepo.EXPECT().Create(mock.Anything, mock.AnythingOfType("*entity.PostRecord")).
		Return(domainerrors.NewDatabaseExecuteError(assert.AnError, "insert failed"))

	svc := newTestPublishService(credRepo, postRepo, events, adapter)
	_, err := svc.Schedule(context.Background(), &usecase.ScheduleInput{
		PublishInput: usecase.PublishInput{
			UserID:   "user-1",
			Platform: entity.PlatformTwitter,
			Content:  "later",
		},
		ScheduledFor: time.Now().Add(time.Hour),
	})

	require.Error(t, err)
	events.AssertNotCalled(t, "PublishPostEvent", mock.Anything, mock.Anything)
}

func TestExecuteScheduled_Success(t *testing.T) {
	credRepo := mockRepo.NewMockCredentialRepository(t)
	postRepo := mockRepo.NewMockPostRepository(t)
	events := mockService.NewMockEventPublisher(t)
	adapter := newTwitterAdapterMock(t)

	post := &entity.PostRecord{
		ID:       uuid.New(),
		UserID:   "user-1",
		Platform: entity.PlatformTwitter,
		Content:  "later",
		Status:   entity.PostStatusScheduled,
	}

	credRepo.EXPECT().FindByUserAndPlatform(mock.Anything, "user-1", entity.PlatformTwitter).
		Return(linkedTwitterCredential(), nil)
	adapter.EXPECT().Publish(mock.Anything, mock.AnythingOfType("*entity.Credential"), &service.PublishRequest{Content: "later"}).
		Return(&service.PublishResult{PostID: "99", PostURL: "https://twitter.com/jdoe/status/99"}, nil)
	postRepo.EXPECT().MarkPosted(mock.Anything, post.ID, "99", "https://twitter.com/jdoe/status/99", mock.AnythingOfType("time.Time")).
		Return(nil)
	events.EXPECT().PublishPostEvent(mock.Anything, mock.AnythingOfType("*service.PostEvent")).Return(nil)

	svc := newTestPublishService(credRepo, postRepo, events, adapter)
	err := svc.ExecuteScheduled(context.Background(), post)

	require.NoError(t, err)
	assert.Equal(t, entity.PostStatusPosted, post.Status)
	assert.Equal(t, "99", post.ProviderPostID)
}

func TestExecuteScheduled_PublishFailureMarksFailed(t *testing.T) {
	credRepo := mockRepo.NewMockCredentialRepository(t)
	postRepo := mockRepo.NewMockPostRepository(t)
	events := mockService.NewMockEventPublisher(t)
	adapter := newTwitterAdapterMock(t)

	post := &entity.PostRecord{
		ID:       uuid.New(),
		UserID:   "user-1",
		Platform: entity.PlatformTwitter,
		Content:  "later",
		Status:   entity.PostStatusScheduled,
	}

	credRepo.EXPECT().FindByUserAndPlatform(mock.Anything, "user-1", entity.PlatformTwitter).
		Return(linkedTwitterCredential(), nil)
	adapter.EXPECT().Publish(mock.Anything, mock.AnythingOfType("*entity.Credential"), mock.AnythingOfType("*service.PublishRequest")).
		Return(nil, domainerrors.ErrPublishFailed.WrapMessage("platform rejected the post"))
	postRepo.EXPECT().MarkFailed(mock.Anything, post.ID).Return(nil)
	events.EXPECT().PublishPostEvent(mock.Anything, mock.AnythingOfType("*service.PostEvent")).Return(nil)

	svc := newTestPublishService(credRepo, postRepo, events, adapter)
	err := svc.ExecuteScheduled(context.Background(), post)

	require.ErrorIs(t, err, domainerrors.ErrPublishFailed)
	assert.Equal(t, entity.PostStatusFailed, post.Status)
}

func TestExecuteScheduled_DisconnectedAccountMarksFailed(t *testing.T) {
	credRepo := mockRepo.NewMockCredentialRepository(t)
	postRepo := mockRepo.NewMockPostRepository(t)
	events := mockService.NewMockEventPublisher(t)
	adapter := newTwitterAdapterMock(t)

	post := &entity.PostRecord{
		ID:       uuid.New(),
		UserID:   "user-1",
		Platform: entity.PlatformTwitter,
		Content:  "later",
		Status:   entity.PostStatusScheduled,
	}

	credRepo.EXPECT().FindByUserAndPlatform(mock.Anything, "user-1", entity.PlatformTwitter).
		Return(nil, repository.ErrCredentialNotFound)
	postRepo.EXPECT().MarkFailed(mock.Anything, post.ID).Return(nil)
	events.EXPECT().PublishPostEvent(mock.Anything, mock.AnythingOfType("*service.PostEvent")).Return(nil)

	svc := newTestPublishService(credRepo, postRepo, events, adapter)
	err := svc.ExecuteScheduled(context.Background(), post)

	require.ErrorIs(t, err, domainerrors.ErrNotConnected)
}

func TestListPosts_MissingUserID(t *testing.T) {
	credRepo := mockRepo.NewMockCredentialRepository(t)
	postRepo := mockRepo.NewMockPostRepository(t)
	events := mockService.NewMockEventPublisher(t)

	svc := newTestPublishService(credRepo, postRepo, events)
	_, err := svc.ListPosts(context.Background(), "", entity.PlatformTwitter)

	require.ErrorIs(t, err, domainerrors.ErrMissingParameter)
}

func TestListPosts_PassesHistoryLimit(t *testing.T) {
	credRepo := mockRepo.NewMockCredentialRepository(t)
	postRepo := mockRepo.NewMockPostRepository(t)
	events := mockService.NewMockEventPublisher(t)

	posts := []*entity.PostRecord{
		{ID: uuid.New(), UserID: "user-1", Platform: entity.PlatformTwitter},
	}
	postRepo.EXPECT().ListByUserAndPlatform(mock.Anything, "user-1", entity.PlatformTwitter, 50).
		Return(posts, nil)

	svc := newTestPublishService(credRepo, postRepo, events)
	got, err := svc.ListPosts(context.Background(), "user-1", entity.PlatformTwitter)

	require.NoError(t, err)
	assert.Len(t, got, 1)
}
