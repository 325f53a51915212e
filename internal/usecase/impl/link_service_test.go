package impl

import (
	"context"
	"io"
	"log/slog"
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

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestLinkService(credRepo repository.CredentialRepository, adapters ...service.Adapter) usecase.LinkUsecase {
	cfg := &config.Config{
		Link: config.LinkConfig{
			PendingAuthTTL:  10 * time.Minute,
			SessionTokenTTL: 10 * time.Minute,
			FrontendURL:     "https://app.example.com/connections",
			MobileScheme:    "mediahub://",
		},
	}

	return NewLinkService(LinkServiceParams{
		CredRepo: credRepo,
		Registry: service.NewRegistry(adapters),
		Config:   cfg,
		Logger:   discardLogger(),
	})
}

func newTwitterAdapterMock(t *testing.T) *mockService.MockAdapter {
	adapter := mockService.NewMockAdapter(t)
	adapter.EXPECT().Platform().Return(entity.PlatformTwitter).Maybe()

	return adapter
}

func TestBeginLink_MissingUserID(t *testing.T) {
	credRepo := mockRepo.NewMockCredentialRepository(t)
	svc := newTestLinkService(credRepo)

	result, err := svc.BeginLink(context.Background(), "", entity.PlatformTwitter, entity.OriginWeb)

	require.ErrorIs(t, err, domainerrors.ErrMissingParameter)
	assert.Nil(t, result)
}

func TestBeginLink_UnsupportedPlatform(t *testing.T) {
	credRepo := mockRepo.NewMockCredentialRepository(t)
	svc := newTestLinkService(credRepo)

	result, err := svc.BeginLink(context.Background(), "user-1", entity.PlatformLinkedIn, entity.OriginWeb)

	require.ErrorIs(t, err, domainerrors.ErrValidation)
	assert.Nil(t, result)
}

func TestBeginLink_PersistsPendingAuth(t *testing.T) {
	credRepo := mockRepo.NewMockCredentialRepository(t)
	adapter := newTwitterAdapterMock(t)

	adapter.EXPECT().BuildAuthURL(mock.AnythingOfType("string")).
		Return(&service.AuthRequest{
			URL:          "https://twitter.com/i/oauth2/authorize?state=abc",
			CodeVerifier: "pkce-verifier",
		}, nil)
	credRepo.EXPECT().FindByUserAndPlatform(mock.Anything, "user-1", entity.PlatformTwitter).
		Return(nil, repository.ErrCredentialNotFound)

	var saved *entity.Credential
	credRepo.EXPECT().Upsert(mock.Anything, mock.AnythingOfType("*entity.Credential")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*entity.Credential)
		}).
		Return(nil)

	svc := newTestLinkService(credRepo, adapter)
	result, err := svc.BeginLink(context.Background(), "user-1", entity.PlatformTwitter, entity.OriginMobile)

	require.NoError(t, err)
	assert.Equal(t, "https://twitter.com/i/oauth2/authorize?state=abc", result.AuthURL)
	assert.Len(t, result.State, 64)

	require.NotNil(t, saved)
	require.NotNil(t, saved.PendingAuth)
	assert.Equal(t, result.State, saved.PendingAuth.State)
	assert.Equal(t, "pkce-verifier", saved.PendingAuth.CodeVerifier)
	assert.Equal(t, entity.OriginMobile, saved.LoginOrigin)
	assert.WithinDuration(t, time.Now(), saved.PendingAuth.CreatedAt, time.Minute)
}

func TestBeginLink_RestartReplacesPendingState(t *testing.T) {
	credRepo := mockRepo.NewMockCredentialRepository(t)
	adapter := newTwitterAdapterMock(t)

	existing := &entity.Credential{
		ID:       uuid.New(),
		UserID:   "user-1",
		Platform: entity.PlatformTwitter,
		PendingAuth: &entity.PendingAuth{
			State:     "stale-state",
			CreatedAt: time.Now().Add(-5 * time.Minute),
		},
	}

	adapter.EXPECT().BuildAuthURL(mock.AnythingOfType("string")).
		Return(&service.AuthRequest{URL: "https://twitter.com/i/oauth2/authorize"}, nil)
	credRepo.EXPECT().FindByUserAndPlatform(mock.Anything, "user-1", entity.PlatformTwitter).
		Return(existing, nil)

	var saved *entity.Credential
	credRepo.EXPECT().Upsert(mock.Anything, mock.AnythingOfType("*entity.Credential")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*entity.Credential)
		}).
		Return(nil)

	svc := newTestLinkService(credRepo, adapter)
	result, err := svc.BeginLink(context.Background(), "user-1", entity.PlatformTwitter, entity.OriginWeb)

	require.NoError(t, err)
	require.NotNil(t, saved.PendingAuth)
	assert.NotEqual(t, "stale-state", saved.PendingAuth.State)
	assert.Equal(t, result.State, saved.PendingAuth.State)
}

func TestCompleteLink_UnknownState(t *testing.T) {
	credRepo := mockRepo.NewMockCredentialRepository(t)
	adapter := newTwitterAdapterMock(t)

	credRepo.EXPECT().FindByState(mock.Anything, "nope").
		Return(nil, repository.ErrStateNotFound)

	svc := newTestLinkService(credRepo, adapter)
	result, err := svc.CompleteLink(context.Background(), entity.PlatformTwitter, "nope", "code")

	require.ErrorIs(t, err, domainerrors.ErrSessionExpired)
	assert.Nil(t, result)
}

func TestCompleteLink_PlatformMismatch(t *testing.T) {
	credRepo := mockRepo.NewMockCredentialRepository(t)
	adapter := newTwitterAdapterMock(t)

	credRepo.EXPECT().FindByState(mock.Anything, "state-1").
		Return(&entity.Credential{
			ID:       uuid.New(),
			UserID:   "user-1",
			Platform: entity.PlatformLinkedIn,
		}, nil)

	svc := newTestLinkService(credRepo, adapter)
	_, err := svc.CompleteLink(context.Background(), entity.PlatformTwitter, "state-1", "code")

	require.ErrorIs(t, err, domainerrors.ErrSessionExpired)
}

func TestCompleteLink_ExpiredPendingAuthIsCleared(t *testing.T) {
	credRepo := mockRepo.NewMockCredentialRepository(t)
	adapter := newTwitterAdapterMock(t)

	credID := uuid.New()
	credRepo.EXPECT().FindByState(mock.Anything, "state-1").
		Return(&entity.Credential{
			ID:       credID,
			UserID:   "user-1",
			Platform: entity.PlatformTwitter,
			PendingAuth: &entity.PendingAuth{
				State:     "state-1",
				CreatedAt: time.Now().Add(-time.Hour),
			},
		}, nil)
	credRepo.EXPECT().ClearPendingAuth(mock.Anything, credID).Return(nil)

	svc := newTestLinkService(credRepo, adapter)
	_, err := svc.CompleteLink(context.Background(), entity.PlatformTwitter, "state-1", "code")

	require.ErrorIs(t, err, domainerrors.ErrSessionExpired)
}

func TestCompleteLink_WebSuccess(t *testing.T) {
	credRepo := mockRepo.NewMockCredentialRepository(t)
	adapter := newTwitterAdapterMock(t)

	expiresAt := time.Now().Add(2 * time.Hour)
	credRepo.EXPECT().FindByState(mock.Anything, "state-1").
		Return(&entity.Credential{
			ID:          uuid.New(),
			UserID:      "user-1",
			Platform:    entity.PlatformTwitter,
			LoginOrigin: entity.OriginWeb,
			PendingAuth: &entity.PendingAuth{
				State:        "state-1",
				CodeVerifier: "pkce-verifier",
				CreatedAt:    time.Now(),
			},
		}, nil)
	adapter.EXPECT().ExchangeCode(mock.Anything, "auth-code", "pkce-verifier").
		Return(&service.TokenSet{
			AccessToken:  "secret-access-token",
			RefreshToken: "secret-refresh-token",
			ExpiresAt:    &expiresAt,
		}, nil)
	adapter.EXPECT().FetchProfile(mock.Anything, mock.AnythingOfType("*service.TokenSet")).
		Return(&service.Identity{
			ProviderID: "tw-123",
			Profile:    entity.Profile{Username: "jdoe", Name: "Jane Doe"},
		}, nil)

	var saved *entity.Credential
	credRepo.EXPECT().Upsert(mock.Anything, mock.AnythingOfType("*entity.Credential")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*entity.Credential)
		}).
		Return(nil)

	svc := newTestLinkService(credRepo, adapter)
	result, err := svc.CompleteLink(context.Background(), entity.PlatformTwitter, "state-1", "auth-code")

	require.NoError(t, err)
	assert.Equal(t, entity.OriginWeb, result.Origin)
	assert.Empty(t, result.SessionToken)
	assert.Empty(t, result.DeepLinkURL)

	assert.Contains(t, result.RedirectURL, "https://app.example.com/connections?")
	assert.Contains(t, result.RedirectURL, "linked=true")
	assert.Contains(t, result.RedirectURL, "username=jdoe")
	assert.NotContains(t, result.RedirectURL, "secret-access-token")
	assert.NotContains(t, result.RedirectURL, "secret-refresh-token")

	require.NotNil(t, saved)
	assert.Equal(t, "tw-123", saved.ProviderID)
	assert.Equal(t, "secret-access-token", saved.AccessToken)
	assert.Nil(t, saved.PendingAuth)
	assert.Empty(t, saved.SessionToken)
}

func TestCompleteLink_MobileMintsSessionToken(t *testing.T) {
	credRepo := mockRepo.NewMockCredentialRepository(t)
	adapter := newTwitterAdapterMock(t)

	credRepo.EXPECT().FindByState(mock.Anything, "state-1").
		Return(&entity.Credential{
			ID:          uuid.New(),
			UserID:      "user-1",
			Platform:    entity.PlatformTwitter,
			LoginOrigin: entity.OriginMobile,
			PendingAuth: &entity.PendingAuth{
				State:        "state-1",
				CodeVerifier: "pkce-verifier",
				CreatedAt:    time.Now(),
			},
		}, nil)
	adapter.EXPECT().ExchangeCode(mock.Anything, "auth-code", "pkce-verifier").
		Return(&service.TokenSet{AccessToken: "secret-access-token"}, nil)
	adapter.EXPECT().FetchProfile(mock.Anything, mock.AnythingOfType("*service.TokenSet")).
		Return(&service.Identity{
			ProviderID: "tw-123",
			Profile:    entity.Profile{Username: "jdoe"},
		}, nil)

	var saved *entity.Credential
	credRepo.EXPECT().Upsert(mock.Anything, mock.AnythingOfType("*entity.Credential")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*entity.Credential)
		}).
		Return(nil)

	svc := newTestLinkService(credRepo, adapter)
	result, err := svc.CompleteLink(context.Background(), entity.PlatformTwitter, "state-1", "auth-code")

	require.NoError(t, err)
	assert.Equal(t, entity.OriginMobile, result.Origin)
	require.NotEmpty(t, result.SessionToken)

	assert.True(t, strings.HasPrefix(result.DeepLinkURL, "mediahub://link?"))
	assert.Contains(t, result.DeepLinkURL, "session_id="+result.SessionToken)
	assert.NotContains(t, result.DeepLinkURL, "secret-access-token")

	require.NotNil(t, saved)
	assert.Equal(t, result.SessionToken, saved.SessionToken)
	require.NotNil(t, saved.SessionTokenExpiresAt)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), *saved.SessionTokenExpiresAt, time.Minute)
}

func TestCompleteLink_ProfileTokenReplacementWins(t *testing.T) {
	credRepo := mockRepo.NewMockCredentialRepository(t)
	adapter := mockService.NewMockAdapter(t)
	adapter.EXPECT().Platform().Return(entity.PlatformFacebook).Maybe()

	credRepo.EXPECT().FindByState(mock.Anything, "state-1").
		Return(&entity.Credential{
			ID:          uuid.New(),
			UserID:      "user-1",
			Platform:    entity.PlatformFacebook,
			LoginOrigin: entity.OriginWeb,
			PendingAuth: &entity.PendingAuth{
				State:     "state-1",
				CreatedAt: time.Now(),
			},
		}, nil)
	adapter.EXPECT().ExchangeCode(mock.Anything, "auth-code", "").
		Return(&service.TokenSet{AccessToken: "user-token"}, nil)
	adapter.EXPECT().FetchProfile(mock.Anything, mock.AnythingOfType("*service.TokenSet")).
		Return(&service.Identity{
			ProviderID: "page-9",
			Profile:    entity.Profile{Username: "My Page", PageID: "page-9"},
			Tokens:     &service.TokenSet{AccessToken: "page-token"},
		}, nil)

	var saved *entity.Credential
	credRepo.EXPECT().Upsert(mock.Anything, mock.AnythingOfType("*entity.Credential")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*entity.Credential)
		}).
		Return(nil)

	svc := newTestLinkService(credRepo, adapter)
	_, err := svc.CompleteLink(context.Background(), entity.PlatformFacebook, "state-1", "auth-code")

	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "page-token", saved.AccessToken)
	assert.Equal(t, "page-9", saved.ProviderID)
}

func TestResolveTransientSession_Success(t *testing.T) {
	credRepo := mockRepo.NewMockCredentialRepository(t)

	credID := uuid.New()
	expiresAt := time.Now().Add(5 * time.Minute)
	credRepo.EXPECT().FindBySessionToken(mock.Anything, "session-1").
		Return(&entity.Credential{
			ID:                    credID,
			UserID:                "user-1",
			Platform:              entity.PlatformTwitter,
			ProviderID:            "tw-123",
			SessionToken:          "session-1",
			SessionTokenExpiresAt: &expiresAt,
			Profile:               entity.Profile{Username: "jdoe"},
		}, nil)
	credRepo.EXPECT().ClearSessionToken(mock.Anything, credID).Return(nil)

	svc := newTestLinkService(credRepo)
	summary, err := svc.ResolveTransientSession(context.Background(), "session-1")

	require.NoError(t, err)
	assert.Equal(t, "user-1", summary.UserID)
	assert.Equal(t, "jdoe", summary.Username)
}

func TestResolveTransientSession_Miss(t *testing.T) {
	credRepo := mockRepo.NewMockCredentialRepository(t)
	credRepo.EXPECT().FindBySessionToken(mock.Anything, "unknown").
		Return(nil, repository.ErrSessionTokenNotFound)

	svc := newTestLinkService(credRepo)
	_, err := svc.ResolveTransientSession(context.Background(), "unknown")

	require.ErrorIs(t, err, domainerrors.ErrSessionExpired)
}

func TestResolveTransientSession_ExpiredStillConsumed(t *testing.T) {
	credRepo := mockRepo.NewMockCredentialRepository(t)

	credID := uuid.New()
	expiresAt := time.Now().Add(-time.Minute)
	credRepo.EXPECT().FindBySessionToken(mock.Anything, "session-1").
		Return(&entity.Credential{
			ID:                    credID,
			UserID:                "user-1",
			SessionToken:          "session-1",
			SessionTokenExpiresAt: &expiresAt,
		}, nil)
	credRepo.EXPECT().ClearSessionToken(mock.Anything, credID).Return(nil)

	svc := newTestLinkService(credRepo)
	_, err := svc.ResolveTransientSession(context.Background(), "session-1")

	require.ErrorIs(t, err, domainerrors.ErrSessionExpired)
}

func TestUnlink_Idempotent(t *testing.T) {
	credRepo := mockRepo.NewMockCredentialRepository(t)
	credRepo.EXPECT().Delete(mock.Anything, "user-1", entity.PlatformTwitter).
		Return(int64(1), nil).Once()
	credRepo.EXPECT().Delete(mock.Anything, "user-1", entity.PlatformTwitter).
		Return(int64(0), nil).Once()

	svc := newTestLinkService(credRepo)

	count, err := svc.Unlink(context.Background(), "user-1", entity.PlatformTwitter)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = svc.Unlink(context.Background(), "user-1", entity.PlatformTwitter)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestCheckLink_NotFound(t *testing.T) {
	credRepo := mockRepo.NewMockCredentialRepository(t)
	credRepo.EXPECT().FindByUserAndPlatform(mock.Anything, "user-1", entity.PlatformTwitter).
		Return(nil, repository.ErrCredentialNotFound)

	svc := newTestLinkService(credRepo)
	status, err := svc.CheckLink(context.Background(), "user-1", entity.PlatformTwitter)

	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.Nil(t, status.Account)
}

func TestCheckLink_PlaceholderRowIsNotConnected(t *testing.T) {
	credRepo := mockRepo.NewMockCredentialRepository(t)
	credRepo.EXPECT().FindByUserAndPlatform(mock.Anything, "user-1", entity.PlatformTwitter).
		Return(&entity.Credential{
			UserID:      "user-1",
			Platform:    entity.PlatformTwitter,
			PendingAuth: &entity.PendingAuth{State: "state-1", CreatedAt: time.Now()},
		}, nil)

	svc := newTestLinkService(credRepo)
	status, err := svc.CheckLink(context.Background(), "user-1", entity.PlatformTwitter)

	require.NoError(t, err)
	assert.False(t, status.Connected)
}

func TestCheckLink_Connected(t *testing.T) {
	credRepo := mockRepo.NewMockCredentialRepository(t)
	credRepo.EXPECT().FindByUserAndPlatform(mock.Anything, "user-1", entity.PlatformTwitter).
		Return(&entity.Credential{
			UserID:      "user-1",
			Platform:    entity.PlatformTwitter,
			ProviderID:  "tw-123",
			AccessToken: "token",
			Profile:     entity.Profile{Username: "jdoe"},
		}, nil)

	svc := newTestLinkService(credRepo)
	status, err := svc.CheckLink(context.Background(), "user-1", entity.PlatformTwitter)

	require.NoError(t, err)
	assert.True(t, status.Connected)
	require.NotNil(t, status.Account)
	assert.Equal(t, "jdoe", status.Account.Username)
}

func TestCheckLink_ExpiredTokenRefreshedOnce(t *testing.T) {
	credRepo := mockRepo.NewMockCredentialRepository(t)
	adapter := newTwitterAdapterMock(t)

	credID := uuid.New()
	expiredAt := time.Now().Add(-time.Hour)
	credRepo.EXPECT().FindByUserAndPlatform(mock.Anything, "user-1", entity.PlatformTwitter).
		Return(&entity.Credential{
			ID:             credID,
			UserID:         "user-1",
			Platform:       entity.PlatformTwitter,
			ProviderID:     "tw-123",
			AccessToken:    "stale-token",
			RefreshToken:   "refresh-1",
			TokenExpiresAt: &expiredAt,
		}, nil)
	adapter.EXPECT().SupportsRefresh().Return(true)
	adapter.EXPECT().RefreshToken(mock.Anything, "refresh-1").
		Return(&service.TokenSet{AccessToken: "fresh-token", RefreshToken: "refresh-2"}, nil).Once()
	credRepo.EXPECT().UpdateTokens(mock.Anything, credID, entity.TokenUpdate{
		AccessToken:  "fresh-token",
		RefreshToken: "refresh-2",
	}).Return(nil).Once()

	svc := newTestLinkService(credRepo, adapter)
	status, err := svc.CheckLink(context.Background(), "user-1", entity.PlatformTwitter)

	require.NoError(t, err)
	assert.True(t, status.Connected)
}

func TestCheckLink_ExpiredTokenWithoutRefreshSupport(t *testing.T) {
	credRepo := mockRepo.NewMockCredentialRepository(t)
	adapter := mockService.NewMockAdapter(t)
	adapter.EXPECT().Platform().Return(entity.PlatformLinkedIn).Maybe()

	expiredAt := time.Now().Add(-time.Hour)
	credRepo.EXPECT().FindByUserAndPlatform(mock.Anything, "user-1", entity.PlatformLinkedIn).
		Return(&entity.Credential{
			UserID:         "user-1",
			Platform:       entity.PlatformLinkedIn,
			ProviderID:     "li-123",
			AccessToken:    "stale-token",
			TokenExpiresAt: &expiredAt,
		}, nil)
	adapter.EXPECT().SupportsRefresh().Return(false)

	svc := newTestLinkService(credRepo, adapter)
	status, err := svc.CheckLink(context.Background(), "user-1", entity.PlatformLinkedIn)

	require.NoError(t, err)
	assert.False(t, status.Connected)
}

func TestCheckLink_RefreshFailureReportsDisconnected(t *testing.T) {
	credRepo := mockRepo.NewMockCredentialRepository(t)
	adapter := newTwitterAdapterMock(t)

	expiredAt := time.Now().Add(-time.Hour)
	credRepo.EXPECT().FindByUserAndPlatform(mock.Anything, "user-1", entity.PlatformTwitter).
		Return(&entity.Credential{
			ID:             uuid.New(),
			UserID:         "user-1",
			Platform:       entity.PlatformTwitter,
			ProviderID:     "tw-123",
			AccessToken:    "stale-token",
			RefreshToken:   "refresh-1",
			TokenExpiresAt: &expiredAt,
		}, nil)
	adapter.EXPECT().SupportsRefresh().Return(true)
	adapter.EXPECT().RefreshToken(mock.Anything, "refresh-1").
		Return(nil, domainerrors.ErrAuthExpired.WrapMessage("refresh rejected")).Once()

	svc := newTestLinkService(credRepo, adapter)
	status, err := svc.CheckLink(context.Background(), "user-1", entity.PlatformTwitter)

	require.NoError(t, err)
	assert.False(t, status.Connected)
}
