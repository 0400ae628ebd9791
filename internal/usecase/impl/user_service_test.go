package impl

import (
	"context"
	"testing"

	"roster/internal/domain/entity"
	domainerrors "roster/internal/domain/errors"
	"roster/internal/domain/repository"
	"roster/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newUserServiceForTest(userRepo *mockUserRepository, images *mockImageStorage) usecase.UserUsecase {
	return NewUserService(UserServiceParams{
		UserRepo:     userRepo,
		ImageStorage: images,
		Logger:       newDiscardLogger(),
	})
}

func strPtr(s string) *string { return &s }

func TestUserService_ListUsers_PaginationMetadata(t *testing.T) {
	userRepo := new(mockUserRepository)
	images := new(mockImageStorage)

	ctx := context.Background()
	users := []*entity.User{{ID: uuid.New()}, {ID: uuid.New()}}

	userRepo.On("List", ctx, repository.ListUsersQuery{
		Page:      2,
		Limit:     10,
		SortBy:    "name",
		SortOrder: repository.SortAsc,
		Search:    "ali",
	}).Return(users, int64(25), nil)

	srv := newUserServiceForTest(userRepo, images)
	output, err := srv.ListUsers(ctx, &usecase.ListUsersInput{
		Page:      2,
		Limit:     10,
		SortBy:    "name",
		SortOrder: repository.SortAsc,
		Search:    "ali",
	})

	require.NoError(t, err)
	assert.Len(t, output.Users, 2)
	assert.Equal(t, int64(25), output.Pagination.Total)
	assert.Equal(t, 3, output.Pagination.TotalPages)
	assert.Equal(t, 2, output.Pagination.Page)
}

func TestUserService_ListUsers_DefaultsPageAndLimit(t *testing.T) {
	userRepo := new(mockUserRepository)
	images := new(mockImageStorage)

	ctx := context.Background()
	userRepo.On("List", ctx, mock.MatchedBy(func(q repository.ListUsersQuery) bool {
		return q.Page == 1 && q.Limit == 10
	})).Return([]*entity.User{}, int64(0), nil)

	srv := newUserServiceForTest(userRepo, images)
	output, err := srv.ListUsers(ctx, &usecase.ListUsersInput{Page: 0, Limit: -5})

	require.NoError(t, err)
	assert.Equal(t, 1, output.Pagination.Page)
	assert.Equal(t, 10, output.Pagination.Limit)
}

func TestUserService_UpdateUser_RoleDroppedForNonAdmin(t *testing.T) {
	userRepo := new(mockUserRepository)
	images := new(mockImageStorage)

	ctx := context.Background()
	userID := uuid.New()
	actor := entity.Identity{UserID: userID, Role: entity.RoleUser}

	userRepo.On("UpdateFields", ctx, userID, mock.MatchedBy(func(fields repository.UpdateUserFields) bool {
		// The role change must be silently dropped; the name change survives.
		return fields.Role == nil && fields.Name != nil && *fields.Name == "New Name"
	})).Return(&entity.User{ID: userID, Name: "New Name", Role: entity.RoleUser}, nil)

	srv := newUserServiceForTest(userRepo, images)
	updated, err := srv.UpdateUser(ctx, &usecase.UpdateUserInput{
		Actor:  actor,
		UserID: userID,
		Name:   strPtr("New Name"),
		Role:   strPtr("admin"),
	})

	require.NoError(t, err)
	assert.Equal(t, entity.RoleUser, updated.Role)
	userRepo.AssertExpectations(t)
}

func TestUserService_UpdateUser_AdminMayAssignRole(t *testing.T) {
	userRepo := new(mockUserRepository)
	images := new(mockImageStorage)

	ctx := context.Background()
	targetID := uuid.New()
	actor := entity.Identity{UserID: uuid.New(), Role: entity.RoleAdmin}

	userRepo.On("UpdateFields", ctx, targetID, mock.MatchedBy(func(fields repository.UpdateUserFields) bool {
		return fields.Role != nil && *fields.Role == entity.RoleAdmin
	})).Return(&entity.User{ID: targetID, Role: entity.RoleAdmin}, nil)

	srv := newUserServiceForTest(userRepo, images)
	updated, err := srv.UpdateUser(ctx, &usecase.UpdateUserInput{
		Actor:  actor,
		UserID: targetID,
		Role:   strPtr("admin"),
	})

	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, updated.Role)
}

func TestUserService_UpdateUser_UnknownRoleRejected(t *testing.T) {
	userRepo := new(mockUserRepository)
	images := new(mockImageStorage)

	actor := entity.Identity{UserID: uuid.New(), Role: entity.RoleAdmin}

	srv := newUserServiceForTest(userRepo, images)
	_, err := srv.UpdateUser(context.Background(), &usecase.UpdateUserInput{
		Actor:  actor,
		UserID: uuid.New(),
		Role:   strPtr("superuser"),
	})

	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
	userRepo.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything)
}

func TestUserService_UpdateUser_ForbiddenForOtherAccount(t *testing.T) {
	userRepo := new(mockUserRepository)
	images := new(mockImageStorage)

	actor := entity.Identity{UserID: uuid.New(), Role: entity.RoleUser}

	srv := newUserServiceForTest(userRepo, images)
	_, err := srv.UpdateUser(context.Background(), &usecase.UpdateUserInput{
		Actor:  actor,
		UserID: uuid.New(),
		Name:   strPtr("New Name"),
	})

	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}

func TestUserService_UpdateUser_ReplacesProfileImage(t *testing.T) {
	userRepo := new(mockUserRepository)
	images := new(mockImageStorage)

	ctx := context.Background()
	userID := uuid.New()
	actor := entity.Identity{UserID: userID, Role: entity.RoleUser}

	userRepo.On("FindByID", ctx, userID).
		Return(&entity.User{ID: userID, ProfileImage: "profiles/old.png"}, nil)
	images.On("Save", ctx, mock.AnythingOfType("string"), []byte("img-bytes"), "image/png").
		Return("profiles/new.png", nil)
	userRepo.On("UpdateFields", ctx, userID, mock.MatchedBy(func(fields repository.UpdateUserFields) bool {
		return fields.ProfileImage != nil && *fields.ProfileImage == "profiles/new.png"
	})).Return(&entity.User{ID: userID, ProfileImage: "profiles/new.png"}, nil)
	images.On("Delete", ctx, "profiles/old.png").Return(nil)

	srv := newUserServiceForTest(userRepo, images)
	updated, err := srv.UpdateUser(ctx, &usecase.UpdateUserInput{
		Actor:        actor,
		UserID:       userID,
		ProfileImage: &usecase.ImageUpload{Data: []byte("img-bytes"), ContentType: "image/png"},
	})

	require.NoError(t, err)
	assert.Equal(t, "profiles/new.png", updated.ProfileImage)
	images.AssertExpectations(t)
}

func TestUserService_DeleteUser_AdminSelfDeleteForbidden(t *testing.T) {
	userRepo := new(mockUserRepository)
	images := new(mockImageStorage)

	adminID := uuid.New()
	actor := entity.Identity{UserID: adminID, Role: entity.RoleAdmin}

	srv := newUserServiceForTest(userRepo, images)
	err := srv.DeleteUser(context.Background(), actor, adminID)

	assert.ErrorIs(t, err, domainerrors.ErrAdminSelfDelete)
	userRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestUserService_DeleteUser_RemovesProfileImage(t *testing.T) {
	userRepo := new(mockUserRepository)
	images := new(mockImageStorage)

	ctx := context.Background()
	targetID := uuid.New()
	actor := entity.Identity{UserID: uuid.New(), Role: entity.RoleAdmin}

	userRepo.On("FindByID", ctx, targetID).
		Return(&entity.User{ID: targetID, ProfileImage: "profiles/pic.jpg"}, nil)
	userRepo.On("Delete", ctx, targetID).Return(nil)
	images.On("Delete", ctx, "profiles/pic.jpg").Return(nil)

	srv := newUserServiceForTest(userRepo, images)
	err := srv.DeleteUser(ctx, actor, targetID)

	require.NoError(t, err)
	images.AssertExpectations(t)
}

func TestUserService_DeleteUser_ForbiddenForOtherAccount(t *testing.T) {
	userRepo := new(mockUserRepository)
	images := new(mockImageStorage)

	actor := entity.Identity{UserID: uuid.New(), Role: entity.RoleUser}

	srv := newUserServiceForTest(userRepo, images)
	err := srv.DeleteUser(context.Background(), actor, uuid.New())

	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}

func TestUserService_GetUser_NotFound(t *testing.T) {
	userRepo := new(mockUserRepository)
	images := new(mockImageStorage)

	ctx := context.Background()
	missingID := uuid.New()
	userRepo.On("FindByID", ctx, missingID).Return(nil, repository.ErrUserNotFound)

	srv := newUserServiceForTest(userRepo, images)
	_, err := srv.GetUser(ctx, missingID)

	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}
