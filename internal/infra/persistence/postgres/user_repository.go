// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"
	"strings"

	"roster/internal/domain/entity"
	domainerrors "roster/internal/domain/errors"
	"roster/internal/domain/repository"
	"roster/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// userColumns is the safe projection: everything except the password and
// refresh-token digests. All reads through UserRepository go through it.
var userColumns = []string{
	"id", "name", "email", "phone", "role", "profile_image",
	"address", "state", "city", "country", "pincode",
	"created_at", "updated_at",
}

// sortableColumns whitelists what List may ORDER BY. Anything else falls
// back to created_at.
var sortableColumns = map[string]string{
	"name":       "name",
	"email":      "email",
	"state":      "state",
	"city":       "city",
	"country":    "country",
	"created_at": "created_at",
	"createdAt":  "created_at",
}

// userRepository implements the domain.UserRepository interface using GORM.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository is the constructor for userRepository.
// It returns the repository as a domain.UserRepository interface, adhering to dependency inversion.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

// FindByID retrieves a single user by their unique ID.
func (repo *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var userM model.UserModel
	err := repo.db.WithContext(ctx).
		Select(userColumns).
		Where("id = ?", id).
		First(&userM).Error
	if err != nil {
		// If the error is 'record not found', return a domain-specific error.
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}
		// Otherwise, return the original database error.
		return nil, wrapStoreError(err, "failed to find user by id")
	}

	// Map the persistence model back to a pure domain entity before returning.
	return toUserDomain(&userM), nil
}

// List retrieves a page of users matching the query plus the total matching count.
func (repo *userRepository) List(ctx context.Context, query repository.ListUsersQuery) ([]*entity.User, int64, error) {
	tx := repo.db.WithContext(ctx).Model(&model.UserModel{})

	if query.Search != "" {
		pattern := "%" + query.Search + "%"
		tx = tx.Where(
			"name ILIKE ? OR email ILIKE ? OR state ILIKE ? OR city ILIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}
	if query.State != "" {
		tx = tx.Where("state ILIKE ?", query.State)
	}
	if query.City != "" {
		tx = tx.Where("city ILIKE ?", query.City)
	}

	var total int64
	if err := tx.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, wrapStoreError(err, "failed to count users")
	}

	column, ok := sortableColumns[query.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "ASC"
	if query.SortOrder == repository.SortDesc {
		direction = "DESC"
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	limit := query.Limit
	if limit < 1 {
		limit = 10
	}

	var models []*model.UserModel
	err := tx.
		Select(userColumns).
		Order(column + " " + direction).
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, 0, wrapStoreError(err, "failed to list users")
	}

	users := make([]*entity.User, 0, len(models))
	for _, userM := range models {
		users = append(users, toUserDomain(userM))
	}

	return users, total, nil
}

// Create persists a new user together with its password digest. The email is
// stored lowercased so uniqueness is case-insensitive.
func (repo *userRepository) Create(ctx context.Context, user *entity.User, passwordHash string) error {
	userM := fromUserDomain(user)
	userM.PasswordHash = passwordHash

	if err := repo.db.WithContext(ctx).Create(userM).Error; err != nil {
		// Convert PostgreSQL errors to domain errors
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrUserAlreadyExists.WrapMessage("email or phone already registered")
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WrapMessage("missing required user fields")
		}

		return wrapStoreError(err, "failed to create user")
	}

	// Propagate database-generated values back to the entity.
	user.ID = userM.ID
	user.CreatedAt = userM.CreatedAt
	user.UpdatedAt = userM.UpdatedAt

	return nil
}

// UpdateFields applies a partial update and returns the updated user.
// Nil fields are left untouched; the password digest is never writable here.
func (repo *userRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields repository.UpdateUserFields) (*entity.User, error) {
	updates := map[string]any{}
	if fields.Name != nil {
		updates["name"] = *fields.Name
	}
	if fields.Email != nil {
		updates["email"] = strings.ToLower(*fields.Email)
	}
	if fields.Phone != nil {
		updates["phone"] = *fields.Phone
	}
	if fields.Role != nil {
		updates["role"] = fields.Role.String()
	}
	if fields.ProfileImage != nil {
		updates["profile_image"] = *fields.ProfileImage
	}
	if fields.Address != nil {
		updates["address"] = *fields.Address
	}
	if fields.State != nil {
		updates["state"] = *fields.State
	}
	if fields.City != nil {
		updates["city"] = *fields.City
	}
	if fields.Country != nil {
		updates["country"] = *fields.Country
	}
	if fields.Pincode != nil {
		updates["pincode"] = *fields.Pincode
	}

	if len(updates) > 0 {
		result := repo.db.WithContext(ctx).
			Model(&model.UserModel{}).
			Where("id = ?", id).
			Updates(updates)
		if result.Error != nil {
			if isUniqueConstraintViolation(result.Error) {
				return nil, domainerrors.ErrUserAlreadyExists.WrapMessage("email or phone already registered")
			}

			return nil, wrapStoreError(result.Error, "failed to update user")
		}
		if result.RowsAffected == 0 {
			return nil, repository.ErrUserNotFound
		}
	}

	return repo.FindByID(ctx, id)
}

// Delete removes a user by ID.
func (repo *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.UserModel{})
	if result.Error != nil {
		return wrapStoreError(result.Error, "failed to delete user")
	}
	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

// toUserDomain maps the persistence model to the domain entity. Digest
// columns are deliberately not carried over.
func toUserDomain(userM *model.UserModel) *entity.User {
	return &entity.User{
		ID:           userM.ID,
		Name:         userM.Name,
		Email:        userM.Email,
		Phone:        userM.Phone,
		Role:         entity.Role(userM.Role),
		ProfileImage: userM.ProfileImage,
		Address:      userM.Address,
		State:        userM.State,
		City:         userM.City,
		Country:      userM.Country,
		Pincode:      userM.Pincode,
		CreatedAt:    userM.CreatedAt,
		UpdatedAt:    userM.UpdatedAt,
	}
}

// fromUserDomain maps a domain entity to the persistence model.
func fromUserDomain(user *entity.User) *model.UserModel {
	return &model.UserModel{
		ID:           user.ID,
		Name:         user.Name,
		Email:        strings.ToLower(user.Email),
		Phone:        user.Phone,
		Role:         user.Role.String(),
		ProfileImage: user.ProfileImage,
		Address:      user.Address,
		State:        user.State,
		City:         user.City,
		Country:      user.Country,
		Pincode:      user.Pincode,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}
