package usecase

import (
	"context"
	"time"

	"relay/internal/domain/entity"
)

// PublishInput is one publish request from the delivery layer.
type PublishInput struct {
	UserID    string
	Platform  entity.Platform
	Content   string
	MediaURL  string
	RequestID string
}

// PublishOutput reports the created post.
type PublishOutput struct {
	PostID  string
	PostURL string
}

// ScheduleInput is a deferred publish request.
type ScheduleInput struct {
	PublishInput

	ScheduledFor time.Time
}

// ScheduleOutput reports the persisted scheduled record.
type ScheduleOutput struct {
	PostID       string
	ScheduledFor time.Time
}

// PublishUsecase publishes content to linked platforms and keeps the local
// post log.
type PublishUsecase interface {
	// Publish validates the content, publishes it through the platform
	// adapter with at most one token refresh, and records the outcome.
	Publish(ctx context.Context, input *PublishInput) (*PublishOutput, error)

	// Schedule persists a scheduled post record for the background scheduler
	// to pick up at its due time. Records survive restarts.
	Schedule(ctx context.Context, input *ScheduleInput) (*ScheduleOutput, error)

	// ExecuteScheduled runs one due scheduled record through the immediate
	// publish path, transitioning it to posted or failed.
	ExecuteScheduled(ctx context.Context, post *entity.PostRecord) error

	// ListPosts returns the user's post history for the platform, newest
	// first, capped at the configured page size.
	ListPosts(ctx context.Context, userID string, platform entity.Platform) ([]*entity.PostRecord, error)
}
