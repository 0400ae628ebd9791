// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"
	"strings"

	"roster/internal/domain/entity"
	"roster/internal/domain/repository"
	"roster/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// credentialColumns is the auth-only projection: identity plus digests.
var credentialColumns = []string{
	"id", "email", "phone", "role", "password_hash", "refresh_token_hash",
}

// credentialRepository implements the domain.CredentialRepository interface using GORM.
// It is the only type that reads or writes digest columns.
type credentialRepository struct {
	db *gorm.DB
}

// NewCredentialRepository is the constructor for credentialRepository.
func NewCredentialRepository(db *gorm.DB) repository.CredentialRepository {
	return &credentialRepository{db: db}
}

// FindByIdentifier retrieves the credential projection matching either the
// lowercased email or the verbatim phone number.
func (repo *credentialRepository) FindByIdentifier(ctx context.Context, identifier string) (*entity.Credential, error) {
	var userM model.UserModel
	err := repo.db.WithContext(ctx).
		Select(credentialColumns).
		Where("email = ? OR phone = ?", strings.ToLower(identifier), identifier).
		First(&userM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrCredentialNotFound
		}

		return nil, wrapStoreError(err, "failed to find credential by identifier")
	}

	return toCredentialDomain(&userM), nil
}

// FindByUserID retrieves the credential projection by account ID.
func (repo *credentialRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Credential, error) {
	var userM model.UserModel
	err := repo.db.WithContext(ctx).
		Select(credentialColumns).
		Where("id = ?", userID).
		First(&userM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrCredentialNotFound
		}

		return nil, wrapStoreError(err, "failed to find credential by user id")
	}

	return toCredentialDomain(&userM), nil
}

// RotateRefreshToken overwrites the stored refresh token digest.
//
// With a non-nil expectedOldHash the UPDATE carries an extra predicate on the
// stored digest, making the rotation a compare-and-swap: of two racing
// refreshes presenting the same token, exactly one sees RowsAffected == 1.
func (repo *credentialRepository) RotateRefreshToken(ctx context.Context, userID uuid.UUID, expectedOldHash *string, newHash *string) error {
	tx := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("id = ?", userID)

	if expectedOldHash != nil {
		tx = tx.Where("refresh_token_hash = ?", *expectedOldHash)
	}

	result := tx.Update("refresh_token_hash", newHash)
	if result.Error != nil {
		return wrapStoreError(result.Error, "failed to rotate refresh token")
	}
	if result.RowsAffected == 0 {
		if expectedOldHash != nil {
			// The row exists but holds a different digest, or was deleted.
			// Either way the presented token no longer owns the session.
			return repository.ErrRefreshTokenMismatch
		}

		return repository.ErrCredentialNotFound
	}

	return nil
}

// toCredentialDomain maps the digest projection to the domain credential.
func toCredentialDomain(userM *model.UserModel) *entity.Credential {
	return &entity.Credential{
		UserID:           userM.ID,
		Email:            userM.Email,
		Phone:            userM.Phone,
		Role:             entity.Role(userM.Role),
		PasswordHash:     userM.PasswordHash,
		RefreshTokenHash: userM.RefreshTokenHash,
	}
}
