// Package service defines the domain service contracts implemented by the
// infrastructure layer.
package service

import (
	"context"
	"time"

	"relay/internal/domain/entity"
	"relay/internal/errors"
)

// ErrRefreshNotSupported is returned by adapters whose platform issues no
// refresh tokens; an expired access token there always forces a re-link.
var ErrRefreshNotSupported = errors.New("platform does not support token refresh")

// AuthRequest is the outcome of building a platform authorization URL. The
// verifier (PKCE platforms only) must be persisted alongside the state nonce
// so the callback can complete the code exchange.
type AuthRequest struct {
	URL          string
	State        string
	CodeVerifier string
	Scopes       []string
}

// TokenSet is an opaque bundle of platform credentials.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
	Scopes       []string
}

// Identity is the linked account resolved after a code exchange. Platforms
// that swap the user token for a narrower one during discovery (Facebook page
// tokens) return the replacement set in Tokens; otherwise Tokens is nil.
type Identity struct {
	ProviderID string
	Profile    entity.Profile
	Tokens     *TokenSet
}

// PublishRequest is the platform-independent content of a post.
type PublishRequest struct {
	Content  string
	MediaURL string
}

// PublishResult reports the platform's identifiers for a published post.
type PublishResult struct {
	PostID  string
	PostURL string
}

// Adapter encapsulates one platform's OAuth dialect and publish/profile API.
// Implementations map transport failures onto the domain error taxonomy:
// 401-class to ErrAuthExpired, 429-class to ErrRateLimited, everything else
// to ErrPublishFailed (or the flow-specific exchange/profile errors).
type Adapter interface {
	// Platform returns the platform this adapter serves.
	Platform() entity.Platform

	// BuildAuthURL constructs the authorization URL for the given state
	// nonce, generating a PKCE verifier where the platform requires one.
	BuildAuthURL(state string) (*AuthRequest, error)

	// ExchangeCode trades an authorization code (plus the stored verifier,
	// if any) for a token set.
	ExchangeCode(ctx context.Context, code, verifier string) (*TokenSet, error)

	// FetchProfile resolves the external account behind a token set.
	FetchProfile(ctx context.Context, tokens *TokenSet) (*Identity, error)

	// Publish creates a post on the platform using the stored credential.
	Publish(ctx context.Context, cred *entity.Credential, req *PublishRequest) (*PublishResult, error)

	// RefreshToken exchanges a refresh token for a fresh token set, or
	// ErrRefreshNotSupported.
	RefreshToken(ctx context.Context, refreshToken string) (*TokenSet, error)

	// SupportsRefresh reports whether RefreshToken is usable.
	SupportsRefresh() bool

	// MaxContentLength is the platform's post length limit in characters.
	MaxContentLength() int

	// RequiresMedia reports whether the platform rejects text-only posts.
	RequiresMedia() bool
}

// Registry resolves adapters by platform. It is populated once at wiring time
// and read-only afterwards.
type Registry struct {
	adapters map[entity.Platform]Adapter
}

// NewRegistry builds a registry from the wired adapters.
func NewRegistry(adapters []Adapter) *Registry {
	m := make(map[entity.Platform]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Platform()] = a
	}

	return &Registry{adapters: m}
}

// Adapter returns the adapter for the platform, or nil when unsupported.
func (r *Registry) Adapter(platform entity.Platform) Adapter {
	return r.adapters[platform]
}
