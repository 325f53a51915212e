package repository

import (
	"context"
	"time"

	"relay/internal/domain/entity"
	"relay/internal/errors"

	"github.com/google/uuid"
)

// ErrPostNotFound is returned when a post record lookup misses.
var ErrPostNotFound = errors.New("post record not found")

// PostRepository persists the append-only log of posts created through this
// service. Only scheduled records ever change after creation.
type PostRepository interface {
	// Create appends a new post record.
	Create(ctx context.Context, post *entity.PostRecord) error

	// FindByID loads a single record, or ErrPostNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.PostRecord, error)

	// MarkPosted transitions a scheduled record to posted, attaching the
	// platform's post id and URL.
	MarkPosted(ctx context.Context, id uuid.UUID, providerPostID, postURL string, postedAt time.Time) error

	// MarkFailed transitions a scheduled record to failed.
	MarkFailed(ctx context.Context, id uuid.UUID) error

	// ListByUserAndPlatform returns records for the pair ordered by PostedAt
	// descending, capped at limit.
	ListByUserAndPlatform(ctx context.Context, userID string, platform entity.Platform, limit int) ([]*entity.PostRecord, error)

	// ListScheduledDue returns scheduled records whose ScheduledFor is at or
	// before the given instant, oldest first. The scheduler uses this both for
	// its periodic sweep and for recovery after a restart.
	ListScheduledDue(ctx context.Context, due time.Time) ([]*entity.PostRecord, error)
}
