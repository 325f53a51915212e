package entity

import (
	"time"

	"github.com/google/uuid"
)

// PostStatus tracks the lifecycle of a post record. Immediate publishes are
// created directly as posted; scheduled ones start as scheduled and move to
// posted or failed when the scheduler runs them.
type PostStatus string

const (
	PostStatusScheduled PostStatus = "scheduled"
	PostStatusPosted    PostStatus = "posted"
	PostStatusFailed    PostStatus = "failed"
)

// AccountSnapshot denormalizes the publishing account's identity at post time
// so history listings survive later re-links or disconnects.
type AccountSnapshot struct {
	Username   string
	Name       string
	AvatarURL  string
	ProviderID string
}

// PostRecord is the local log entry for a post created through this service.
// Records are immutable once posted; only scheduled records transition status.
type PostRecord struct {
	ID             uuid.UUID
	UserID         string
	Platform       Platform
	ProviderPostID string // The platform's id for the published post.
	Content        string
	MediaURL       string
	PostURL        string
	Status         PostStatus
	Account        AccountSnapshot
	ScheduledFor   *time.Time // Set only for scheduled publishes.
	PostedAt       time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
