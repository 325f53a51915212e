package model

import (
	"time"

	"github.com/google/uuid"
)

// PostModel mirrors the 'posts' table, the append-only log of posts created
// through this service. Only scheduled rows mutate after insert.
type PostModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	UserID         string    `gorm:"type:varchar(255);not null;index:idx_posts_user_platform"`
	Platform       string    `gorm:"type:varchar(32);not null;index:idx_posts_user_platform"`
	ProviderPostID string    `gorm:"type:varchar(255)"`

	Content  string `gorm:"type:text"`
	MediaURL string `gorm:"type:text"`
	PostURL  string `gorm:"type:text"`
	Status   string `gorm:"type:varchar(16);not null;index:idx_posts_status_due"`

	// Account snapshot captured at publish time; listings render from these
	// columns without re-fetching the platform profile.
	AccountUsername   string `gorm:"type:varchar(255)"`
	AccountName       string `gorm:"type:varchar(255)"`
	AccountAvatarURL  string `gorm:"type:text"`
	AccountProviderID string `gorm:"type:varchar(255)"`

	ScheduledFor *time.Time `gorm:"index:idx_posts_status_due"`
	PostedAt     *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (PostModel) TableName() string {
	return "posts"
}
