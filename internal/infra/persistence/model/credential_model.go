// Package model contains the GORM table mappings for the PostgreSQL schema.
package model

import (
	"time"

	"github.com/google/uuid"
)

// CredentialModel mirrors the 'credentials' table. One row per user and
// platform; re-linking rewrites the row in place.
type CredentialModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	UserID     string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_credentials_user_platform"`
	Platform   string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_credentials_user_platform"`
	ProviderID string    `gorm:"type:varchar(255)"`

	AccessToken    string `gorm:"type:text"`
	RefreshToken   string `gorm:"type:text"`
	TokenExpiresAt *time.Time
	Scopes         string `gorm:"type:text"`

	LoginOrigin string `gorm:"type:varchar(16)"`

	// Pending columns hold the in-flight authorization keyed by its state
	// nonce. NULL once the callback lands or the flow is swept.
	PendingState     *string `gorm:"type:varchar(128);uniqueIndex:idx_credentials_pending_state"`
	PendingVerifier  string  `gorm:"type:text"`
	PendingCreatedAt *time.Time

	SessionToken          *string `gorm:"type:varchar(128);uniqueIndex:idx_credentials_session_token"`
	SessionTokenExpiresAt *time.Time

	ProfileUsername  string `gorm:"type:varchar(255)"`
	ProfileName      string `gorm:"type:varchar(255)"`
	ProfileAvatarURL string `gorm:"type:text"`
	ProfileEmail     string `gorm:"type:varchar(255)"`
	ProfilePageID    string `gorm:"type:varchar(255)"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (CredentialModel) TableName() string {
	return "credentials"
}
