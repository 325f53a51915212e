// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"
	"strings"

	"relay/internal/domain/entity"
	domainerrors "relay/internal/domain/errors"
	"relay/internal/domain/repository"
	"relay/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// credentialRepository implements the domain.CredentialRepository interface.
type credentialRepository struct {
	db *gorm.DB
}

// NewCredentialRepository is the constructor for credentialRepository.
func NewCredentialRepository(db *gorm.DB) repository.CredentialRepository {
	return &credentialRepository{db: db}
}

// Upsert creates or replaces the credential keyed by (UserID, Platform). The
// conflict target is the unique index on those two columns, so re-linking
// rewrites the existing row and keeps its id and created_at.
func (repo *credentialRepository) Upsert(ctx context.Context, cred *entity.Credential) error {
	credM := fromCredentialDomain(cred)

	err := repo.db.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns: []clause.Column{{Name: "user_id"}, {Name: "platform"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"provider_id",
					"access_token",
					"refresh_token",
					"token_expires_at",
					"scopes",
					"login_origin",
					"pending_state",
					"pending_verifier",
					"pending_created_at",
					"session_token",
					"session_token_expires_at",
					"profile_username",
					"profile_name",
					"profile_avatar_url",
					"profile_email",
					"profile_page_id",
					"updated_at",
				}),
			},
			clause.Returning{},
		).
		Create(credM).Error

	if err != nil {
		if isUniqueConstraintViolation(err) {
			// The state or session token nonce collided with another row.
			return domainerrors.ErrValidation.WrapMessage("credential conflicts with an existing record")
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrStoreUnavailable.WrapMessage("missing required credential information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to upsert credential")
	}

	// Update the entity with generated values
	cred.ID = credM.ID
	cred.CreatedAt = credM.CreatedAt
	cred.UpdatedAt = credM.UpdatedAt

	return nil
}

// FindByUserAndPlatform loads the single credential for the pair.
func (repo *credentialRepository) FindByUserAndPlatform(ctx context.Context, userID string, platform entity.Platform) (*entity.Credential, error) {
	var credM model.CredentialModel

	err := repo.db.WithContext(ctx).
		Where("user_id = ? AND platform = ?", userID, string(platform)).
		First(&credM).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrCredentialNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toCredentialDomain(&credM), nil
}

// FindByState resolves an OAuth callback by its state nonce.
func (repo *credentialRepository) FindByState(ctx context.Context, state string) (*entity.Credential, error) {
	var credM model.CredentialModel

	err := repo.db.WithContext(ctx).
		Where("pending_state = ?", state).
		First(&credM).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrStateNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toCredentialDomain(&credM), nil
}

// ClearPendingAuth drops the transient pending-auth columns.
func (repo *credentialRepository) ClearPendingAuth(ctx context.Context, id uuid.UUID) error {
	err := repo.db.WithContext(ctx).
		Model(&model.CredentialModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"pending_state":      nil,
			"pending_verifier":   "",
			"pending_created_at": nil,
		}).Error

	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// FindBySessionToken resolves a transient mobile session handle.
func (repo *credentialRepository) FindBySessionToken(ctx context.Context, token string) (*entity.Credential, error) {
	var credM model.CredentialModel

	err := repo.db.WithContext(ctx).
		Where("session_token = ?", token).
		First(&credM).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrSessionTokenNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toCredentialDomain(&credM), nil
}

// ClearSessionToken invalidates the one-shot session handle.
func (repo *credentialRepository) ClearSessionToken(ctx context.Context, id uuid.UUID) error {
	err := repo.db.WithContext(ctx).
		Model(&model.CredentialModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"session_token":            nil,
			"session_token_expires_at": nil,
		}).Error

	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// UpdateTokens persists a refreshed token set without touching profile or
// transient state.
func (repo *credentialRepository) UpdateTokens(ctx context.Context, id uuid.UUID, tokens entity.TokenUpdate) error {
	result := repo.db.WithContext(ctx).
		Model(&model.CredentialModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"access_token":     tokens.AccessToken,
			"refresh_token":    tokens.RefreshToken,
			"token_expires_at": tokens.TokenExpiresAt,
		})

	if result.Error != nil {
		return errors.WithStack(result.Error)
	}

	if result.RowsAffected == 0 {
		return repository.ErrCredentialNotFound
	}

	return nil
}

// Delete removes the credential for the pair and returns the number of rows
// removed. Deleting a missing credential is not an error.
func (repo *credentialRepository) Delete(ctx context.Context, userID string, platform entity.Platform) (int64, error) {
	result := repo.db.WithContext(ctx).
		Where("user_id = ? AND platform = ?", userID, string(platform)).
		Delete(&model.CredentialModel{})

	if result.Error != nil {
		return 0, errors.WithStack(result.Error)
	}

	return result.RowsAffected, nil
}

// --- Mapper Functions ---

// toCredentialDomain converts a GORM CredentialModel to a domain Credential entity.
func toCredentialDomain(data *model.CredentialModel) *entity.Credential {
	if data == nil {
		return nil
	}

	cred := &entity.Credential{
		ID:                    data.ID,
		UserID:                data.UserID,
		Platform:              entity.Platform(data.Platform),
		ProviderID:            data.ProviderID,
		AccessToken:           data.AccessToken,
		RefreshToken:          data.RefreshToken,
		TokenExpiresAt:        data.TokenExpiresAt,
		Scopes:                splitScopes(data.Scopes),
		LoginOrigin:           entity.LoginOrigin(data.LoginOrigin),
		SessionTokenExpiresAt: data.SessionTokenExpiresAt,
		Profile: entity.Profile{
			Username:  data.ProfileUsername,
			Name:      data.ProfileName,
			AvatarURL: data.ProfileAvatarURL,
			Email:     data.ProfileEmail,
			PageID:    data.ProfilePageID,
		},
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}

	if data.SessionToken != nil {
		cred.SessionToken = *data.SessionToken
	}

	if data.PendingState != nil {
		pending := &entity.PendingAuth{
			State:        *data.PendingState,
			CodeVerifier: data.PendingVerifier,
		}
		if data.PendingCreatedAt != nil {
			pending.CreatedAt = *data.PendingCreatedAt
		}
		cred.PendingAuth = pending
	}

	return cred
}

// fromCredentialDomain converts a domain Credential entity to a GORM CredentialModel.
func fromCredentialDomain(data *entity.Credential) *model.CredentialModel {
	if data == nil {
		return nil
	}

	credM := &model.CredentialModel{
		ID:                    data.ID,
		UserID:                data.UserID,
		Platform:              string(data.Platform),
		ProviderID:            data.ProviderID,
		AccessToken:           data.AccessToken,
		RefreshToken:          data.RefreshToken,
		TokenExpiresAt:        data.TokenExpiresAt,
		Scopes:                strings.Join(data.Scopes, " "),
		LoginOrigin:           string(data.LoginOrigin),
		SessionTokenExpiresAt: data.SessionTokenExpiresAt,
		ProfileUsername:       data.Profile.Username,
		ProfileName:           data.Profile.Name,
		ProfileAvatarURL:      data.Profile.AvatarURL,
		ProfileEmail:          data.Profile.Email,
		ProfilePageID:         data.Profile.PageID,
		CreatedAt:             data.CreatedAt,
		UpdatedAt:             data.UpdatedAt,
	}

	if data.SessionToken != "" {
		credM.SessionToken = &data.SessionToken
	}

	if data.PendingAuth != nil {
		credM.PendingState = &data.PendingAuth.State
		credM.PendingVerifier = data.PendingAuth.CodeVerifier
		pendingCreatedAt := data.PendingAuth.CreatedAt
		credM.PendingCreatedAt = &pendingCreatedAt
	}

	return credM
}

func splitScopes(raw string) []string {
	if raw == "" {
		return nil
	}

	return strings.Fields(raw)
}
