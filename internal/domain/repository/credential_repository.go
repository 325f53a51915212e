// Package repository defines the persistence contracts the domain depends on.
package repository

import (
	"context"

	"relay/internal/domain/entity"
	"relay/internal/errors"

	"github.com/google/uuid"
)

// Sentinel errors returned by repository implementations. Use errors.Is to
// distinguish "not found" from infrastructure failures.
var (
	ErrCredentialNotFound   = errors.New("credential not found")
	ErrStateNotFound        = errors.New("pending auth state not found")
	ErrSessionTokenNotFound = errors.New("session token not found")
)

// CredentialRepository persists linked-account credentials. At most one row
// exists per (UserID, Platform); Upsert enforces that by replacing in place.
type CredentialRepository interface {
	// Upsert creates or replaces the credential keyed by (UserID, Platform).
	// Re-linking overwrites tokens, profile and transient state wholesale.
	Upsert(ctx context.Context, cred *entity.Credential) error

	// FindByUserAndPlatform loads the single credential for the pair, or
	// ErrCredentialNotFound.
	FindByUserAndPlatform(ctx context.Context, userID string, platform entity.Platform) (*entity.Credential, error)

	// FindByState resolves an OAuth callback by its state nonce. The nonce is
	// unique across all in-flight authorizations; a miss means the flow is
	// unknown, already consumed, or swept. Callers map it to SessionExpired.
	FindByState(ctx context.Context, state string) (*entity.Credential, error)

	// ClearPendingAuth drops the transient pending-auth state, used both on
	// success and when a stale flow is detected.
	ClearPendingAuth(ctx context.Context, id uuid.UUID) error

	// FindBySessionToken resolves a transient mobile session handle, or
	// ErrSessionTokenNotFound.
	FindBySessionToken(ctx context.Context, token string) (*entity.Credential, error)

	// ClearSessionToken invalidates the one-shot session handle.
	ClearSessionToken(ctx context.Context, id uuid.UUID) error

	// UpdateTokens persists a refreshed token set without touching profile or
	// transient state.
	UpdateTokens(ctx context.Context, id uuid.UUID, tokens entity.TokenUpdate) error

	// Delete removes the credential for the pair and returns the number of
	// rows removed (0 or 1). Deleting a missing credential is not an error.
	Delete(ctx context.Context, userID string, platform entity.Platform) (int64, error)
}
