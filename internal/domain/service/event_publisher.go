package service

import (
	"context"
	"time"

	"relay/internal/domain/entity"
)

// PostEvent is emitted after a post record is written, so downstream
// consumers (feeds, digests) can react without polling the store.
type PostEvent struct {
	RequestID      string            `json:"request_id,omitempty"` // For distributed tracing
	PostID         string            `json:"post_id"`
	UserID         string            `json:"user_id"`
	Platform       entity.Platform   `json:"platform"`
	ProviderPostID string            `json:"provider_post_id,omitempty"`
	Status         entity.PostStatus `json:"status"`
	PostURL        string            `json:"post_url,omitempty"`
	OccurredAt     time.Time         `json:"occurred_at"`
}

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	// PublishPostEvent publishes a post lifecycle event for async processing
	PublishPostEvent(ctx context.Context, event *PostEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
