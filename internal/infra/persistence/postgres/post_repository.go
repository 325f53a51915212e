package postgres

import (
	"context"
	"time"

	"relay/internal/domain/entity"
	domainerrors "relay/internal/domain/errors"
	"relay/internal/domain/repository"
	"relay/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// postRepository implements the domain.PostRepository interface.
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository is the constructor for postRepository.
func NewPostRepository(db *gorm.DB) repository.PostRepository {
	return &postRepository{db: db}
}

// Create appends a new post record.
func (repo *postRepository) Create(ctx context.Context, post *entity.PostRecord) error {
	postM := fromPostDomain(post)

	if err := repo.db.WithContext(ctx).Create(postM).Error; err != nil {
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrStoreUnavailable.WrapMessage("missing required post information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create post record")
	}

	// Update the entity with generated values
	post.ID = postM.ID
	post.CreatedAt = postM.CreatedAt
	post.UpdatedAt = postM.UpdatedAt

	return nil
}

// FindByID loads a single record.
func (repo *postRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.PostRecord, error) {
	var postM model.PostModel

	err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&postM).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrPostNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toPostDomain(&postM), nil
}

// MarkPosted transitions a scheduled record to posted. The status guard keeps
// a concurrent sweep from double-posting the same record.
func (repo *postRepository) MarkPosted(ctx context.Context, id uuid.UUID, providerPostID, postURL string, postedAt time.Time) error {
	result := repo.db.WithContext(ctx).
		Model(&model.PostModel{}).
		Where("id = ? AND status = ?", id, string(entity.PostStatusScheduled)).
		Updates(map[string]any{
			"status":           string(entity.PostStatusPosted),
			"provider_post_id": providerPostID,
			"post_url":         postURL,
			"posted_at":        postedAt,
		})

	if result.Error != nil {
		return errors.WithStack(result.Error)
	}

	if result.RowsAffected == 0 {
		return repository.ErrPostNotFound
	}

	return nil
}

// MarkFailed transitions a scheduled record to failed.
func (repo *postRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Model(&model.PostModel{}).
		Where("id = ? AND status = ?", id, string(entity.PostStatusScheduled)).
		Update("status", string(entity.PostStatusFailed))

	if result.Error != nil {
		return errors.WithStack(result.Error)
	}

	if result.RowsAffected == 0 {
		return repository.ErrPostNotFound
	}

	return nil
}

// ListByUserAndPlatform returns records for the pair, newest first.
func (repo *postRepository) ListByUserAndPlatform(ctx context.Context, userID string, platform entity.Platform, limit int) ([]*entity.PostRecord, error) {
	var postModels []*model.PostModel

	err := repo.db.WithContext(ctx).
		Where("user_id = ? AND platform = ?", userID, string(platform)).
		Order("posted_at DESC NULLS LAST, created_at DESC").
		Limit(limit).
		Find(&postModels).Error

	if err != nil {
		return nil, errors.WithStack(err)
	}

	posts := make([]*entity.PostRecord, 0, len(postModels))
	for _, postM := range postModels {
		posts = append(posts, toPostDomain(postM))
	}

	return posts, nil
}

// ListScheduledDue returns scheduled records due at or before the given
// instant, oldest first.
func (repo *postRepository) ListScheduledDue(ctx context.Context, due time.Time) ([]*entity.PostRecord, error) {
	var postModels []*model.PostModel

	err := repo.db.WithContext(ctx).
		Where("status = ? AND scheduled_for IS NOT NULL AND scheduled_for <= ?", string(entity.PostStatusScheduled), due).
		Order("scheduled_for ASC").
		Find(&postModels).Error

	if err != nil {
		return nil, errors.WithStack(err)
	}

	posts := make([]*entity.PostRecord, 0, len(postModels))
	for _, postM := range postModels {
		posts = append(posts, toPostDomain(postM))
	}

	return posts, nil
}

// --- Mapper Functions ---

// toPostDomain converts a GORM PostModel to a domain PostRecord entity.
func toPostDomain(data *model.PostModel) *entity.PostRecord {
	if data == nil {
		return nil
	}

	post := &entity.PostRecord{
		ID:             data.ID,
		UserID:         data.UserID,
		Platform:       entity.Platform(data.Platform),
		ProviderPostID: data.ProviderPostID,
		Content:        data.Content,
		MediaURL:       data.MediaURL,
		PostURL:        data.PostURL,
		Status:         entity.PostStatus(data.Status),
		Account: entity.AccountSnapshot{
			Username:   data.AccountUsername,
			Name:       data.AccountName,
			AvatarURL:  data.AccountAvatarURL,
			ProviderID: data.AccountProviderID,
		},
		ScheduledFor: data.ScheduledFor,
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}

	if data.PostedAt != nil {
		post.PostedAt = *data.PostedAt
	}

	return post
}

// fromPostDomain converts a domain PostRecord entity to a GORM PostModel.
func fromPostDomain(data *entity.PostRecord) *model.PostModel {
	if data == nil {
		return nil
	}

	postM := &model.PostModel{
		ID:                data.ID,
		UserID:            data.UserID,
		Platform:          string(data.Platform),
		ProviderPostID:    data.ProviderPostID,
		Content:           data.Content,
		MediaURL:          data.MediaURL,
		PostURL:           data.PostURL,
		Status:            string(data.Status),
		AccountUsername:   data.Account.Username,
		AccountName:       data.Account.Name,
		AccountAvatarURL:  data.Account.AvatarURL,
		AccountProviderID: data.Account.ProviderID,
		ScheduledFor:      data.ScheduledFor,
		CreatedAt:         data.CreatedAt,
		UpdatedAt:         data.UpdatedAt,
	}

	if !data.PostedAt.IsZero() {
		postedAt := data.PostedAt
		postM.PostedAt = &postedAt
	}

	return postM
}
