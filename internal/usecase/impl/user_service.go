// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"

	deliverycontext "roster/internal/delivery/context"
	"roster/internal/domain/entity"
	domainerrors "roster/internal/domain/errors"
	"roster/internal/domain/repository"
	"roster/internal/domain/service"
	"roster/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// userService implements the UserUsecase interface.
type userService struct {
	userRepo     repository.UserRepository
	imageStorage service.ImageStorage
	logger       *slog.Logger
}

// UserServiceParams holds dependencies for userService, injected by Fx.
type UserServiceParams struct {
	fx.In

	UserRepo     repository.UserRepository
	ImageStorage service.ImageStorage
	Logger       *slog.Logger
}

// NewUserService is the constructor for userService.
func NewUserService(params UserServiceParams) usecase.UserUsecase {
	return &userService{
		userRepo:     params.UserRepo,
		imageStorage: params.ImageStorage,
		logger:       params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *userService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// ListUsers returns a page of users plus pagination metadata.
func (srv *userService) ListUsers(ctx context.Context, input *usecase.ListUsersInput) (*usecase.ListUsersOutput, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	limit := input.Limit
	if limit < 1 {
		limit = 10
	}

	users, total, err := srv.userRepo.List(ctx, repository.ListUsersQuery{
		Page:      page,
		Limit:     limit,
		SortBy:    input.SortBy,
		SortOrder: input.SortOrder,
		Search:    input.Search,
		State:     input.State,
		City:      input.City,
	})
	if err != nil {
		srv.log(ctx).Error("Failed to list users", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to list users")
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))

	return &usecase.ListUsersOutput{
		Users: users,
		Pagination: usecase.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

// GetUser retrieves a single user by ID.
func (srv *userService) GetUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domainerrors.ErrUserNotFound.WrapMessage("user lookup failed")
		}

		return nil, errors.Wrap(err, "failed to find user")
	}

	return user, nil
}

// UpdateUser applies a partial update. Non-admin actors may only touch their
// own account, and their role changes are silently dropped rather than
// rejected. Passwords are never updatable through this path.
func (srv *userService) UpdateUser(ctx context.Context, input *usecase.UpdateUserInput) (*entity.User, error) {
	if input.Actor.UserID != input.UserID && !input.Actor.Role.CanAssignRole() {
		return nil, domainerrors.ErrForbidden.WrapMessage("cannot update another user's account")
	}

	fields := repository.UpdateUserFields{
		Name:    input.Name,
		Email:   input.Email,
		Phone:   input.Phone,
		Address: input.Address,
		State:   input.State,
		City:    input.City,
		Country: input.Country,
		Pincode: input.Pincode,
	}

	if input.Role != nil {
		if input.Actor.Role.CanAssignRole() {
			role := entity.Role(*input.Role)
			if !role.IsValid() {
				return nil, domainerrors.ErrValidationFailed.WrapMessage("unknown role")
			}
			fields.Role = &role
		} else {
			// Dropped, not rejected: the rest of the update still applies.
			srv.log(ctx).Debug("Dropping role change from non-admin actor", slog.Any("actorID", input.Actor.UserID))
		}
	}

	var oldImage string
	if input.ProfileImage != nil && len(input.ProfileImage.Data) > 0 {
		current, err := srv.userRepo.FindByID(ctx, input.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return nil, domainerrors.ErrUserNotFound.WrapMessage("user lookup failed")
			}

			return nil, errors.Wrap(err, "failed to load user before image update")
		}
		oldImage = current.ProfileImage

		key := profileImageKey(input.ProfileImage.ContentType)
		stored, err := srv.imageStorage.Save(ctx, key, input.ProfileImage.Data, input.ProfileImage.ContentType)
		if err != nil {
			return nil, errors.Wrap(err, "failed to store profile image")
		}
		fields.ProfileImage = &stored
	}

	updated, err := srv.userRepo.UpdateFields(ctx, input.UserID, fields)
	if err != nil {
		// Remove the freshly uploaded image if the update never landed.
		if fields.ProfileImage != nil {
			if delErr := srv.imageStorage.Delete(ctx, *fields.ProfileImage); delErr != nil {
				srv.log(ctx).Warn("Failed to clean up profile image after update failure", slog.Any("error", delErr))
			}
		}
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domainerrors.ErrUserNotFound.WrapMessage("user update failed")
		}

		return nil, errors.Wrap(err, "failed to update user")
	}

	// The replaced image is deleted only after the row update committed.
	if fields.ProfileImage != nil && oldImage != "" && oldImage != *fields.ProfileImage {
		if err := srv.imageStorage.Delete(ctx, oldImage); err != nil {
			srv.log(ctx).Warn("Failed to delete replaced profile image", slog.String("key", oldImage), slog.Any("error", err))
		}
	}

	srv.log(ctx).Debug("User updated", slog.Any("userID", input.UserID))

	return updated, nil
}

// DeleteUser removes an account. An administrator may never delete their own
// account; a regular user may only delete their own.
func (srv *userService) DeleteUser(ctx context.Context, actor entity.Identity, userID uuid.UUID) error {
	if actor.UserID == userID && actor.Role == entity.RoleAdmin {
		return domainerrors.ErrAdminSelfDelete.WrapMessage("admin accounts cannot delete themselves")
	}
	if actor.UserID != userID && !actor.Role.CanAssignRole() {
		return domainerrors.ErrForbidden.WrapMessage("cannot delete another user's account")
	}

	target, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domainerrors.ErrUserNotFound.WrapMessage("user lookup failed")
		}

		return errors.Wrap(err, "failed to load user before deletion")
	}

	if err := srv.userRepo.Delete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domainerrors.ErrUserNotFound.WrapMessage("user deletion failed")
		}

		return errors.Wrap(err, "failed to delete user")
	}

	// Image removal is best-effort: the account is already gone.
	if target.ProfileImage != "" {
		if err := srv.imageStorage.Delete(ctx, target.ProfileImage); err != nil {
			srv.log(ctx).Warn("Failed to delete profile image of removed user", slog.String("key", target.ProfileImage), slog.Any("error", err))
		}
	}

	srv.log(ctx).Info("User deleted", slog.Any("userID", userID), slog.Any("actorID", actor.UserID))

	return nil
}
