// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Platform identifies an external social network supported by the service.
type Platform string

const (
	PlatformTwitter   Platform = "twitter"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
)

// ParsePlatform converts a raw path/query value into a Platform.
func ParsePlatform(raw string) (Platform, error) {
	switch Platform(raw) {
	case PlatformTwitter, PlatformLinkedIn, PlatformFacebook, PlatformInstagram:
		return Platform(raw), nil
	default:
		return "", errors.Errorf("unsupported platform: %q", raw)
	}
}

// LoginOrigin records which client surface initiated a link flow. It decides
// whether the callback ends in a plain web redirect or a mobile deep-link
// bridge backed by a one-shot transient session token.
type LoginOrigin string

const (
	OriginWeb    LoginOrigin = "web"
	OriginMobile LoginOrigin = "mobile"
)

// Profile is a denormalized snapshot of the external account captured at link
// time. It is not refreshed automatically; listings use it as stored.
type Profile struct {
	Username  string // Handle on the platform (may be synthesized, e.g. LinkedIn).
	Name      string // Display name.
	AvatarURL string
	Email     string
	PageID    string // Facebook page backing this credential (Facebook/Instagram only).
}

// PendingAuth is the transient state held between the OAuth redirect and the
// callback, keyed by the state nonce. It is cleared on a successful callback
// and treated as expired once its TTL elapses.
type PendingAuth struct {
	State        string
	CodeVerifier string // PKCE verifier; empty for platforms without PKCE.
	CreatedAt    time.Time
}

// Expired reports whether the pending authorization is older than ttl.
func (p *PendingAuth) Expired(ttl time.Duration, now time.Time) bool {
	return now.Sub(p.CreatedAt) > ttl
}

// Credential is the local record of one linked external account for a given
// user and platform. At most one exists per (UserID, Platform) pair; linking
// again replaces tokens and profile in place.
type Credential struct {
	ID         uuid.UUID
	UserID     string // Opaque identifier of the local application user.
	Platform   Platform
	ProviderID string // The platform's identifier for the linked account or page.

	AccessToken    string
	RefreshToken   string
	TokenExpiresAt *time.Time // Nil for platforms whose tokens do not expire here.
	Scopes         []string

	LoginOrigin LoginOrigin
	PendingAuth *PendingAuth // Present only while a link flow is in flight.

	// SessionToken is the one-shot handle minted for mobile link flows. It is
	// exchanged exactly once through ResolveTransientSession and then cleared.
	SessionToken          string
	SessionTokenExpiresAt *time.Time

	Profile Profile

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TokenUpdate carries a replacement token set for an existing credential,
// produced by a successful refresh.
type TokenUpdate struct {
	AccessToken    string
	RefreshToken   string
	TokenExpiresAt *time.Time
}

// TokenExpired reports whether the stored access token is past its recorded
// expiry. Credentials without an expiry never expire from our perspective.
func (c *Credential) TokenExpired(now time.Time) bool {
	return c.TokenExpiresAt != nil && c.TokenExpiresAt.Before(now)
}

// Linked reports whether the credential actually holds a completed link, as
// opposed to a placeholder row created by BeginLink.
func (c *Credential) Linked() bool {
	return c.ProviderID != "" && c.AccessToken != ""
}
