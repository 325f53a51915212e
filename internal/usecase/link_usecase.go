// Package usecase defines the application-level contracts exposed to the
// delivery layer.
package usecase

import (
	"context"
	"time"

	"relay/internal/domain/entity"
)

// AuthBeginResult is the outcome of starting a link flow.
type AuthBeginResult struct {
	AuthURL string
	State   string
}

// CredentialSummary is the non-secret view of a linked account handed to
// clients. Tokens never leave the usecase layer.
type CredentialSummary struct {
	UserID      string          `json:"userId"`
	Platform    entity.Platform `json:"platform"`
	ProviderID  string          `json:"providerId"`
	Username    string          `json:"username"`
	Name        string          `json:"name"`
	AvatarURL   string          `json:"avatarUrl,omitempty"`
	ConnectedAt time.Time       `json:"connectedAt"`
}

// LinkResult tells the boundary layer how to finish a completed link flow:
// a plain redirect for web origins, a deep-link bridge page for mobile ones.
// The deep link and redirect carry only non-secret identifiers.
type LinkResult struct {
	Origin       entity.LoginOrigin
	RedirectURL  string
	DeepLinkURL  string
	SessionToken string
	Account      *CredentialSummary
}

// ConnectionStatus reports whether a platform account is linked and usable.
type ConnectionStatus struct {
	Connected bool
	Account   *CredentialSummary
}

// LinkUsecase drives the account-linking state machine shared by every
// platform.
type LinkUsecase interface {
	// BeginLink starts an authorization flow and returns the platform URL to
	// redirect the user-agent to.
	BeginLink(ctx context.Context, userID string, platform entity.Platform, origin entity.LoginOrigin) (*AuthBeginResult, error)

	// CompleteLink resolves an OAuth callback by state nonce, exchanges the
	// code, fetches the profile, and stores the finished credential.
	CompleteLink(ctx context.Context, platform entity.Platform, state, code string) (*LinkResult, error)

	// ResolveTransientSession consumes a one-shot mobile session handle and
	// returns the linked account summary.
	ResolveTransientSession(ctx context.Context, token string) (*CredentialSummary, error)

	// Unlink removes the credential and reports how many rows were deleted.
	// Unlinking an absent credential is not an error.
	Unlink(ctx context.Context, userID string, platform entity.Platform) (int64, error)

	// CheckLink reports whether a usable credential exists, refreshing an
	// expired token once where the platform allows it.
	CheckLink(ctx context.Context, userID string, platform entity.Platform) (*ConnectionStatus, error)
}
