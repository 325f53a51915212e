package impl

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"relay/config"
	"relay/internal/domain/entity"
	domainerrors "relay/internal/domain/errors"
	"relay/internal/domain/repository"
	"relay/internal/domain/service"
	"relay/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// publishService implements the PublishUsecase interface.
type publishService struct {
	credRepo       repository.CredentialRepository
	postRepo       repository.PostRepository
	registry       *service.Registry
	eventPublisher service.EventPublisher
	historyLimit   int
	logger         *slog.Logger
}

// PublishServiceParams holds dependencies for publishService, injected by Fx.
type PublishServiceParams struct {
	fx.In

	CredRepo       repository.CredentialRepository
	PostRepo       repository.PostRepository
	Registry       *service.Registry
	EventPublisher service.EventPublisher
	Config         *config.Config
	Logger         *slog.Logger
}

// NewPublishService is the constructor for publishService.
func NewPublishService(params PublishServiceParams) usecase.PublishUsecase {
	return &publishService{
		credRepo:       params.CredRepo,
		postRepo:       params.PostRepo,
		registry:       params.Registry,
		eventPublisher: params.EventPublisher,
		historyLimit:   params.Config.Publish.HistoryLimit,
		logger:         params.Logger,
	}
}

// Publish validates and publishes immediately. Validation happens before the
// credential load and before any external call; once the platform accepts the
// post, a local store failure no longer fails the operation.
func (s *publishService) Publish(ctx context.Context, input *usecase.PublishInput) (*usecase.PublishOutput, error) {
	adapter, cred, err := s.prepare(ctx, input)
	if err != nil {
		return nil, err
	}

	result, err := s.publishWithRefresh(ctx, adapter, cred, &service.PublishRequest{
		Content:  input.Content,
		MediaURL: input.MediaURL,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	record := &entity.PostRecord{
		UserID:         input.UserID,
		Platform:       input.Platform,
		ProviderPostID: result.PostID,
		Content:        input.Content,
		MediaURL:       input.MediaURL,
		PostURL:        result.PostURL,
		Status:         entity.PostStatusPosted,
		Account:        snapshotFromCredential(cred),
		PostedAt:       now,
	}

	// The external post exists either way; a failed record write is logged
	// and the publish still reported as successful.
	if err := s.postRepo.Create(ctx, record); err != nil {
		s.logger.Error("failed to record published post",
			slog.String("user_id", input.UserID),
			slog.String("platform", string(input.Platform)),
			slog.String("provider_post_id", result.PostID),
			slog.String("error", err.Error()),
		)
	} else {
		s.emitEvent(ctx, input.RequestID, record)
	}

	return &usecase.PublishOutput{PostID: result.PostID, PostURL: result.PostURL}, nil
}

// Schedule persists a scheduled record for the background scheduler. Unlike
// the immediate path, a store failure here fails the call: nothing external
// has happened yet.
func (s *publishService) Schedule(ctx context.Context, input *usecase.ScheduleInput) (*usecase.ScheduleOutput, error) {
	_, cred, err := s.prepare(ctx, &input.PublishInput)
	if err != nil {
		return nil, err
	}

	if input.ScheduledFor.IsZero() {
		return nil, domainerrors.ErrValidation.WrapMessage("scheduledFor is required")
	}

	scheduledFor := input.ScheduledFor
	record := &entity.PostRecord{
		UserID:       input.UserID,
		Platform:     input.Platform,
		Content:      input.Content,
		MediaURL:     input.MediaURL,
		Status:       entity.PostStatusScheduled,
		Account:      snapshotFromCredential(cred),
		ScheduledFor: &scheduledFor,
	}

	if err := s.postRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	s.emitEvent(ctx, input.RequestID, record)

	s.logger.Info("post scheduled",
		slog.String("user_id", input.UserID),
		slog.String("platform", string(input.Platform)),
		slog.Time("scheduled_for", scheduledFor),
	)

	return &usecase.ScheduleOutput{
		PostID:       record.ID.String(),
		ScheduledFor: scheduledFor,
	}, nil
}

// ExecuteScheduled runs one due record through the publish path and settles
// its status.
func (s *publishService) ExecuteScheduled(ctx context.Context, post *entity.PostRecord) error {
	adapter := s.registry.Adapter(post.Platform)
	if adapter == nil {
		s.markFailed(ctx, post)

		return domainerrors.ErrValidation.WrapMessage("platform is not supported: " + string(post.Platform))
	}

	cred, err := s.credRepo.FindByUserAndPlatform(ctx, post.UserID, post.Platform)
	if err != nil {
		s.markFailed(ctx, post)
		if errors.Is(err, repository.ErrCredentialNotFound) {
			return domainerrors.ErrNotConnected.WrapMessage("account was disconnected before the scheduled time")
		}

		return err
	}

	result, err := s.publishWithRefresh(ctx, adapter, cred, &service.PublishRequest{
		Content:  post.Content,
		MediaURL: post.MediaURL,
	})
	if err != nil {
		s.markFailed(ctx, post)

		return err
	}

	now := time.Now()
	if err := s.postRepo.MarkPosted(ctx, post.ID, result.PostID, result.PostURL, now); err != nil {
		s.logger.Error("failed to mark scheduled post as posted",
			slog.String("post_id", post.ID.String()),
			slog.String("error", err.Error()),
		)

		return err
	}

	post.Status = entity.PostStatusPosted
	post.ProviderPostID = result.PostID
	post.PostURL = result.PostURL
	post.PostedAt = now
	s.emitEvent(ctx, "", post)

	return nil
}

// ListPosts returns the post history, newest first.
func (s *publishService) ListPosts(ctx context.Context, userID string, platform entity.Platform) ([]*entity.PostRecord, error) {
	if userID == "" {
		return nil, domainerrors.ErrMissingParameter.WrapMessage("userId is required")
	}

	return s.postRepo.ListByUserAndPlatform(ctx, userID, platform, s.historyLimit)
}

// prepare runs the shared validation pipeline: content checks first, then
// the credential load.
func (s *publishService) prepare(ctx context.Context, input *usecase.PublishInput) (service.Adapter, *entity.Credential, error) {
	if input.UserID == "" {
		return nil, nil, domainerrors.ErrMissingParameter.WrapMessage("userId is required")
	}

	adapter := s.registry.Adapter(input.Platform)
	if adapter == nil {
		return nil, nil, domainerrors.ErrValidation.WrapMessage("platform is not supported: " + string(input.Platform))
	}

	if input.Content == "" {
		return nil, nil, domainerrors.ErrValidation.WrapMessage("content is required")
	}

	if utf8.RuneCountInString(input.Content) > adapter.MaxContentLength() {
		return nil, nil, domainerrors.ErrValidation.WrapMessage("content exceeds the platform length limit")
	}

	if adapter.RequiresMedia() && input.MediaURL == "" {
		return nil, nil, domainerrors.ErrValidation.WrapMessage("this platform requires media")
	}

	cred, err := s.credRepo.FindByUserAndPlatform(ctx, input.UserID, input.Platform)
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			return nil, nil, domainerrors.ErrNotConnected.WrapMessage("no linked account for this platform")
		}

		return nil, nil, err
	}

	if !cred.Linked() {
		return nil, nil, domainerrors.ErrNotConnected.WrapMessage("link flow was never completed")
	}

	return adapter, cred, nil
}

// publishWithRefresh attempts the publish, and on an auth rejection refreshes
// the token exactly once before one retry. Never loops.
func (s *publishService) publishWithRefresh(ctx context.Context, adapter service.Adapter, cred *entity.Credential, req *service.PublishRequest) (*service.PublishResult, error) {
	result, err := adapter.Publish(ctx, cred, req)
	if err == nil {
		return result, nil
	}

	if !errors.Is(err, domainerrors.ErrAuthExpired) {
		return nil, err
	}

	if !adapter.SupportsRefresh() || cred.RefreshToken == "" {
		return nil, domainerrors.ErrAuthExpired.WrapMessage("token expired and cannot be refreshed")
	}

	if refreshErr := refreshCredential(ctx, s.credRepo, adapter, cred); refreshErr != nil {
		s.logger.Info("token refresh failed",
			slog.String("user_id", cred.UserID),
			slog.String("platform", string(cred.Platform)),
			slog.String("error", refreshErr.Error()),
		)

		return nil, domainerrors.ErrAuthExpired.WrapMessage("token refresh failed")
	}

	return adapter.Publish(ctx, cred, req)
}

func (s *publishService) markFailed(ctx context.Context, post *entity.PostRecord) {
	if err := s.postRepo.MarkFailed(ctx, post.ID); err != nil {
		s.logger.Error("failed to mark scheduled post as failed",
			slog.String("post_id", post.ID.String()),
			slog.String("error", err.Error()),
		)

		return
	}

	post.Status = entity.PostStatusFailed
	s.emitEvent(ctx, "", post)
}

// emitEvent publishes a post lifecycle event. Event delivery is best-effort;
// a broker failure never affects the caller's result.
func (s *publishService) emitEvent(ctx context.Context, requestID string, record *entity.PostRecord) {
	event := &service.PostEvent{
		RequestID:      requestID,
		PostID:         record.ID.String(),
		UserID:         record.UserID,
		Platform:       record.Platform,
		ProviderPostID: record.ProviderPostID,
		Status:         record.Status,
		PostURL:        record.PostURL,
		OccurredAt:     time.Now(),
	}

	if err := s.eventPublisher.PublishPostEvent(ctx, event); err != nil {
		s.logger.Warn("failed to publish post event",
			slog.String("post_id", event.PostID),
			slog.String("error", err.Error()),
		)
	}
}

func snapshotFromCredential(cred *entity.Credential) entity.AccountSnapshot {
	return entity.AccountSnapshot{
		Username:   cred.Profile.Username,
		Name:       cred.Profile.Name,
		AvatarURL:  cred.Profile.AvatarURL,
		ProviderID: cred.ProviderID,
	}
}
