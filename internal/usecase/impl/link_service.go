// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/url"
	"time"

	"relay/config"
	"relay/internal/domain/entity"
	domainerrors "relay/internal/domain/errors"
	"relay/internal/domain/repository"
	"relay/internal/domain/service"
	"relay/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// linkService implements the LinkUsecase interface. It is the single link
// state machine shared by every platform; all platform-specific behavior
// lives behind the adapter registry.
type linkService struct {
	credRepo        repository.CredentialRepository
	registry        *service.Registry
	pendingAuthTTL  time.Duration
	sessionTokenTTL time.Duration
	frontendURL     string
	mobileScheme    string
	logger          *slog.Logger
}

// LinkServiceParams holds dependencies for linkService, injected by Fx.
type LinkServiceParams struct {
	fx.In

	CredRepo repository.CredentialRepository
	Registry *service.Registry
	Config   *config.Config
	Logger   *slog.Logger
}

// NewLinkService is the constructor for linkService.
func NewLinkService(params LinkServiceParams) usecase.LinkUsecase {
	return &linkService{
		credRepo:        params.CredRepo,
		registry:        params.Registry,
		pendingAuthTTL:  params.Config.Link.PendingAuthTTL,
		sessionTokenTTL: params.Config.Link.SessionTokenTTL,
		frontendURL:     params.Config.Link.FrontendURL,
		mobileScheme:    params.Config.Link.MobileScheme,
		logger:          params.Logger,
	}
}

// BeginLink starts an authorization flow for the pair. A placeholder
// credential row carries the pending state until the callback lands; starting
// again before that simply replaces the pending state.
func (s *linkService) BeginLink(ctx context.Context, userID string, platform entity.Platform, origin entity.LoginOrigin) (*usecase.AuthBeginResult, error) {
	if userID == "" {
		return nil, domainerrors.ErrMissingParameter.WrapMessage("userId is required")
	}

	adapter := s.registry.Adapter(platform)
	if adapter == nil {
		return nil, domainerrors.ErrValidation.WrapMessage("platform is not supported: " + string(platform))
	}

	state, err := generateNonce()
	if err != nil {
		return nil, err
	}

	authReq, err := adapter.BuildAuthURL(state)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build authorization URL")
	}

	cred, err := s.credRepo.FindByUserAndPlatform(ctx, userID, platform)
	if err != nil {
		if !errors.Is(err, repository.ErrCredentialNotFound) {
			return nil, err
		}
		cred = &entity.Credential{
			UserID:   userID,
			Platform: platform,
		}
	}

	cred.LoginOrigin = origin
	cred.PendingAuth = &entity.PendingAuth{
		State:        state,
		CodeVerifier: authReq.CodeVerifier,
		CreatedAt:    time.Now(),
	}

	if err := s.credRepo.Upsert(ctx, cred); err != nil {
		return nil, err
	}

	s.logger.Info("link flow started",
		slog.String("user_id", userID),
		slog.String("platform", string(platform)),
		slog.String("origin", string(origin)),
	)

	return &usecase.AuthBeginResult{AuthURL: authReq.URL, State: state}, nil
}

// CompleteLink resolves the callback by its state nonce. A miss, a platform
// mismatch, or an expired pending flow all collapse to SessionExpired; the
// caller cannot tell those apart and should not need to.
func (s *linkService) CompleteLink(ctx context.Context, platform entity.Platform, state, code string) (*usecase.LinkResult, error) {
	if state == "" || code == "" {
		return nil, domainerrors.ErrMissingParameter.WrapMessage("code and state are required")
	}

	cred, err := s.credRepo.FindByState(ctx, state)
	if err != nil {
		if errors.Is(err, repository.ErrStateNotFound) {
			return nil, domainerrors.ErrSessionExpired.WrapMessage("unknown or already consumed state")
		}

		return nil, err
	}

	if cred.Platform != platform {
		return nil, domainerrors.ErrSessionExpired.WrapMessage("state does not belong to this platform")
	}

	if cred.PendingAuth == nil || cred.PendingAuth.Expired(s.pendingAuthTTL, time.Now()) {
		if clearErr := s.credRepo.ClearPendingAuth(ctx, cred.ID); clearErr != nil {
			s.logger.Warn("failed to clear expired pending auth", slog.String("error", clearErr.Error()))
		}

		return nil, domainerrors.ErrSessionExpired.WrapMessage("authorization flow expired")
	}

	adapter := s.registry.Adapter(platform)
	if adapter == nil {
		return nil, domainerrors.ErrValidation.WrapMessage("platform is not supported: " + string(platform))
	}

	tokens, err := adapter.ExchangeCode(ctx, code, cred.PendingAuth.CodeVerifier)
	if err != nil {
		return nil, err
	}

	identity, err := adapter.FetchProfile(ctx, tokens)
	if err != nil {
		return nil, err
	}

	// Some platforms swap the user token for a narrower one during profile
	// discovery (Facebook page tokens); the replacement wins.
	if identity.Tokens != nil {
		tokens = identity.Tokens
	}

	cred.ProviderID = identity.ProviderID
	cred.AccessToken = tokens.AccessToken
	cred.RefreshToken = tokens.RefreshToken
	cred.TokenExpiresAt = tokens.ExpiresAt
	cred.Scopes = tokens.Scopes
	cred.Profile = identity.Profile
	cred.PendingAuth = nil
	cred.SessionToken = ""
	cred.SessionTokenExpiresAt = nil

	result := &usecase.LinkResult{Origin: cred.LoginOrigin}

	if cred.LoginOrigin == entity.OriginMobile {
		sessionToken, err := generateNonce()
		if err != nil {
			return nil, err
		}
		expiresAt := time.Now().Add(s.sessionTokenTTL)
		cred.SessionToken = sessionToken
		cred.SessionTokenExpiresAt = &expiresAt

		result.SessionToken = sessionToken
		result.DeepLinkURL = s.buildDeepLinkURL(cred.Platform, sessionToken)
	}

	if err := s.credRepo.Upsert(ctx, cred); err != nil {
		return nil, err
	}

	result.RedirectURL = s.buildWebRedirectURL(cred)
	result.Account = summaryFromCredential(cred)

	s.logger.Info("link flow completed",
		slog.String("user_id", cred.UserID),
		slog.String("platform", string(cred.Platform)),
		slog.String("provider_id", cred.ProviderID),
	)

	return result, nil
}

// ResolveTransientSession consumes a one-shot mobile session handle.
func (s *linkService) ResolveTransientSession(ctx context.Context, token string) (*usecase.CredentialSummary, error) {
	if token == "" {
		return nil, domainerrors.ErrMissingParameter.WrapMessage("session_id is required")
	}

	cred, err := s.credRepo.FindBySessionToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrSessionTokenNotFound) {
			return nil, domainerrors.ErrSessionExpired.WrapMessage("session not found or already consumed")
		}

		return nil, err
	}

	// Single use: the token dies on first touch, valid or not.
	if clearErr := s.credRepo.ClearSessionToken(ctx, cred.ID); clearErr != nil {
		return nil, clearErr
	}

	if cred.SessionTokenExpiresAt != nil && cred.SessionTokenExpiresAt.Before(time.Now()) {
		return nil, domainerrors.ErrSessionExpired.WrapMessage("session expired")
	}

	return summaryFromCredential(cred), nil
}

// Unlink hard-deletes the credential. Deleting a missing credential reports
// zero rows, never an error.
func (s *linkService) Unlink(ctx context.Context, userID string, platform entity.Platform) (int64, error) {
	if userID == "" {
		return 0, domainerrors.ErrMissingParameter.WrapMessage("userId is required")
	}

	count, err := s.credRepo.Delete(ctx, userID, platform)
	if err != nil {
		return 0, err
	}

	s.logger.Info("credential unlinked",
		slog.String("user_id", userID),
		slog.String("platform", string(platform)),
		slog.Int64("deleted", count),
	)

	return count, nil
}

// CheckLink reports whether a usable credential exists. An expired token is
// refreshed once where the platform supports it; otherwise the account counts
// as disconnected.
func (s *linkService) CheckLink(ctx context.Context, userID string, platform entity.Platform) (*usecase.ConnectionStatus, error) {
	if userID == "" {
		return nil, domainerrors.ErrMissingParameter.WrapMessage("userId is required")
	}

	cred, err := s.credRepo.FindByUserAndPlatform(ctx, userID, platform)
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			return &usecase.ConnectionStatus{Connected: false}, nil
		}

		return nil, err
	}

	if !cred.Linked() {
		return &usecase.ConnectionStatus{Connected: false}, nil
	}

	if cred.TokenExpired(time.Now()) {
		adapter := s.registry.Adapter(platform)
		if adapter == nil || !adapter.SupportsRefresh() || cred.RefreshToken == "" {
			return &usecase.ConnectionStatus{Connected: false}, nil
		}

		if err := refreshCredential(ctx, s.credRepo, adapter, cred); err != nil {
			s.logger.Info("credential refresh failed during check",
				slog.String("user_id", userID),
				slog.String("platform", string(platform)),
				slog.String("error", err.Error()),
			)

			return &usecase.ConnectionStatus{Connected: false}, nil
		}
	}

	return &usecase.ConnectionStatus{
		Connected: true,
		Account:   summaryFromCredential(cred),
	}, nil
}

func (s *linkService) buildWebRedirectURL(cred *entity.Credential) string {
	params := url.Values{}
	params.Set("platform", string(cred.Platform))
	params.Set("linked", "true")
	params.Set("userId", cred.UserID)
	params.Set("username", cred.Profile.Username)

	return s.frontendURL + "?" + params.Encode()
}

func (s *linkService) buildDeepLinkURL(platform entity.Platform, sessionToken string) string {
	params := url.Values{}
	params.Set("platform", string(platform))
	params.Set("session_id", sessionToken)

	return s.mobileScheme + "link?" + params.Encode()
}

// refreshCredential runs one refresh and persists the outcome. Shared by the
// check and publish paths.
func refreshCredential(ctx context.Context, credRepo repository.CredentialRepository, adapter service.Adapter, cred *entity.Credential) error {
	tokens, err := adapter.RefreshToken(ctx, cred.RefreshToken)
	if err != nil {
		return err
	}

	update := entity.TokenUpdate{
		AccessToken:    tokens.AccessToken,
		RefreshToken:   tokens.RefreshToken,
		TokenExpiresAt: tokens.ExpiresAt,
	}
	// Platforms may omit a rotated refresh token; keep the old one then.
	if update.RefreshToken == "" {
		update.RefreshToken = cred.RefreshToken
	}

	if err := credRepo.UpdateTokens(ctx, cred.ID, update); err != nil {
		return err
	}

	cred.AccessToken = update.AccessToken
	cred.RefreshToken = update.RefreshToken
	cred.TokenExpiresAt = update.TokenExpiresAt

	return nil
}

func summaryFromCredential(cred *entity.Credential) *usecase.CredentialSummary {
	return &usecase.CredentialSummary{
		UserID:      cred.UserID,
		Platform:    cred.Platform,
		ProviderID:  cred.ProviderID,
		Username:    cred.Profile.Username,
		Name:        cred.Profile.Name,
		AvatarURL:   cred.Profile.AvatarURL,
		ConnectedAt: cred.UpdatedAt,
	}
}

func generateNonce() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "failed to generate nonce")
	}

	return hex.EncodeToString(buf), nil
}
