package impl

import (
	"context"
	"sync"
	"testing"
	"time"

	"roster/config"
	"roster/internal/domain/entity"
	domainerrors "roster/internal/domain/errors"
	"roster/internal/domain/repository"
	infraauth "roster/internal/infra/auth"
	"roster/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newAuthServiceForTest(
	userRepo repository.UserRepository,
	credRepo repository.CredentialRepository,
	hasher *mockPasswordHasher,
	tokenSvc *mockTokenService,
	images *mockImageStorage,
) usecase.AuthUsecase {
	return NewAuthService(AuthServiceParams{
		TxManager:      &fakeTxManager{factory: &fakeRepoFactory{userRepo: userRepo, credRepo: credRepo}},
		CredentialRepo: credRepo,
		UserRepo:       userRepo,
		Hasher:         hasher,
		TokenService:   tokenSvc,
		ImageStorage:   images,
		Logger:         newDiscardLogger(),
	})
}

func validRegisterInput() *usecase.RegisterInput {
	return &usecase.RegisterInput{
		Name:     "Alice Smith",
		Email:    "alice@example.com",
		Phone:    "0912345678",
		Password: "secret123",
		State:    "Taipei",
		City:     "Taipei",
		Country:  "Taiwan",
		Pincode:  "10001",
	}
}

func TestAuthService_Register_Success(t *testing.T) {
	userRepo := new(mockUserRepository)
	credRepo := new(mockCredentialRepository)
	hasher := new(mockPasswordHasher)
	tokenSvc := new(mockTokenService)
	images := new(mockImageStorage)

	ctx := context.Background()
	userID := uuid.New()

	hasher.On("ValidatePassword", "secret123").Return(nil)
	hasher.On("Hash", "secret123").Return("hashed", nil)
	credRepo.On("FindByIdentifier", ctx, "alice@example.com").Return(nil, repository.ErrCredentialNotFound)
	credRepo.On("FindByIdentifier", ctx, "0912345678").Return(nil, repository.ErrCredentialNotFound)
	userRepo.On("Create", ctx, mock.AnythingOfType("*entity.User"), "hashed").
		Run(func(args mock.Arguments) {
			args.Get(1).(*entity.User).ID = userID
		}).
		Return(nil)
	tokenSvc.On("GenerateTokenPair", userID).Return("access-token", "refresh-token", nil)
	tokenSvc.On("HashToken", "refresh-token").Return("refresh-digest")
	tokenSvc.On("RefreshTokenDuration").Return(7 * 24 * time.Hour)
	credRepo.On("RotateRefreshToken", ctx, userID, (*string)(nil), mock.AnythingOfType("*string")).Return(nil)

	srv := newAuthServiceForTest(userRepo, credRepo, hasher, tokenSvc, images)
	output, err := srv.Register(ctx, validRegisterInput())

	require.NoError(t, err)
	assert.Equal(t, userID, output.User.ID)
	assert.Equal(t, entity.RoleUser, output.User.Role)
	assert.Equal(t, "access-token", output.AccessToken)
	assert.Equal(t, "refresh-token", output.RefreshToken)
	assert.Equal(t, int64(7*24*3600), output.RefreshExpiresIn)
	userRepo.AssertExpectations(t)
	credRepo.AssertExpectations(t)
}

func TestAuthService_Register_DuplicateIdentifier(t *testing.T) {
	userRepo := new(mockUserRepository)
	credRepo := new(mockCredentialRepository)
	hasher := new(mockPasswordHasher)
	tokenSvc := new(mockTokenService)
	images := new(mockImageStorage)

	ctx := context.Background()

	hasher.On("ValidatePassword", "secret123").Return(nil)
	hasher.On("Hash", "secret123").Return("hashed", nil)
	credRepo.On("FindByIdentifier", ctx, "alice@example.com").
		Return(&entity.Credential{UserID: uuid.New()}, nil)

	srv := newAuthServiceForTest(userRepo, credRepo, hasher, tokenSvc, images)
	_, err := srv.Register(ctx, validRegisterInput())

	assert.ErrorIs(t, err, domainerrors.ErrUserAlreadyExists)
	userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_Register_WeakPassword(t *testing.T) {
	userRepo := new(mockUserRepository)
	credRepo := new(mockCredentialRepository)
	hasher := new(mockPasswordHasher)
	tokenSvc := new(mockTokenService)
	images := new(mockImageStorage)

	hasher.On("ValidatePassword", "secret123").
		Return(domainerrors.ErrValidationFailed.WrapMessage("password is too short"))

	srv := newAuthServiceForTest(userRepo, credRepo, hasher, tokenSvc, images)
	_, err := srv.Register(context.Background(), validRegisterInput())

	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
	hasher.AssertNotCalled(t, "Hash", mock.Anything)
}

func TestAuthService_Login_UnknownIdentifierAndWrongPasswordLookAlike(t *testing.T) {
	userRepo := new(mockUserRepository)
	credRepo := new(mockCredentialRepository)
	hasher := new(mockPasswordHasher)
	tokenSvc := new(mockTokenService)
	images := new(mockImageStorage)

	ctx := context.Background()
	userID := uuid.New()

	credRepo.On("FindByIdentifier", ctx, "ghost@example.com").Return(nil, repository.ErrCredentialNotFound)
	credRepo.On("FindByIdentifier", ctx, "alice@example.com").
		Return(&entity.Credential{UserID: userID, PasswordHash: "hashed"}, nil)
	hasher.On("Check", "wrongpass1", "hashed").Return(false)

	srv := newAuthServiceForTest(userRepo, credRepo, hasher, tokenSvc, images)

	_, unknownErr := srv.Login(ctx, &usecase.LoginInput{Identifier: "ghost@example.com", Password: "whatever1"})
	_, wrongPassErr := srv.Login(ctx, &usecase.LoginInput{Identifier: "alice@example.com", Password: "wrongpass1"})

	// Both failures map to the same domain error, so the response can't be
	// used as an account-existence oracle.
	assert.ErrorIs(t, unknownErr, domainerrors.ErrInvalidCredentials)
	assert.ErrorIs(t, wrongPassErr, domainerrors.ErrInvalidCredentials)
}

func TestAuthService_Login_Success(t *testing.T) {
	userRepo := new(mockUserRepository)
	credRepo := new(mockCredentialRepository)
	hasher := new(mockPasswordHasher)
	tokenSvc := new(mockTokenService)
	images := new(mockImageStorage)

	ctx := context.Background()
	userID := uuid.New()
	user := &entity.User{ID: userID, Email: "alice@example.com", Role: entity.RoleUser}

	credRepo.On("FindByIdentifier", ctx, "alice@example.com").
		Return(&entity.Credential{UserID: userID, PasswordHash: "hashed"}, nil)
	hasher.On("Check", "secret123", "hashed").Return(true)
	userRepo.On("FindByID", ctx, userID).Return(user, nil)
	tokenSvc.On("GenerateTokenPair", userID).Return("access-token", "refresh-token", nil)
	tokenSvc.On("HashToken", "refresh-token").Return("refresh-digest")
	tokenSvc.On("RefreshTokenDuration").Return(7 * 24 * time.Hour)
	// Login replaces the stored digest unconditionally.
	credRepo.On("RotateRefreshToken", ctx, userID, (*string)(nil), mock.AnythingOfType("*string")).Return(nil)

	srv := newAuthServiceForTest(userRepo, credRepo, hasher, tokenSvc, images)
	output, err := srv.Login(ctx, &usecase.LoginInput{Identifier: "alice@example.com", Password: "secret123"})

	require.NoError(t, err)
	assert.Equal(t, "access-token", output.AccessToken)
	assert.Equal(t, "refresh-token", output.RefreshToken)
	assert.Equal(t, int64(7*24*3600), output.RefreshExpiresIn)
	assert.Equal(t, user, output.User)
	credRepo.AssertExpectations(t)
}

func TestAuthService_RefreshToken_Success(t *testing.T) {
	userRepo := new(mockUserRepository)
	credRepo := new(mockCredentialRepository)
	hasher := new(mockPasswordHasher)
	tokenSvc := new(mockTokenService)
	images := new(mockImageStorage)

	ctx := context.Background()
	userID := uuid.New()

	tokenSvc.On("VerifyRefreshToken", "old-token").Return(userID, nil)
	tokenSvc.On("HashToken", "old-token").Return("old-digest")
	tokenSvc.On("GenerateTokenPair", userID).Return("new-access", "new-refresh", nil)
	tokenSvc.On("HashToken", "new-refresh").Return("new-digest")
	tokenSvc.On("RefreshTokenDuration").Return(time.Hour)
	credRepo.On("RotateRefreshToken", ctx, userID, mock.AnythingOfType("*string"), mock.AnythingOfType("*string")).
		Return(nil)

	srv := newAuthServiceForTest(userRepo, credRepo, hasher, tokenSvc, images)
	output, err := srv.RefreshToken(ctx, &usecase.RefreshTokenInput{RefreshToken: "old-token"})

	require.NoError(t, err)
	assert.Equal(t, "new-access", output.AccessToken)
	assert.Equal(t, "new-refresh", output.RefreshToken)
	assert.Equal(t, int64(3600), output.RefreshExpiresIn)
	credRepo.AssertExpectations(t)
}

func TestAuthService_RefreshToken_RotatedOutToken(t *testing.T) {
	userRepo := new(mockUserRepository)
	credRepo := new(mockCredentialRepository)
	hasher := new(mockPasswordHasher)
	tokenSvc := new(mockTokenService)
	images := new(mockImageStorage)

	ctx := context.Background()
	userID := uuid.New()

	tokenSvc.On("VerifyRefreshToken", "old-token").Return(userID, nil)
	tokenSvc.On("HashToken", "old-token").Return("old-digest")
	tokenSvc.On("GenerateTokenPair", userID).Return("new-access", "new-refresh", nil)
	tokenSvc.On("HashToken", "new-refresh").Return("new-digest")
	credRepo.On("RotateRefreshToken", ctx, userID, mock.AnythingOfType("*string"), mock.AnythingOfType("*string")).
		Return(repository.ErrRefreshTokenMismatch)

	srv := newAuthServiceForTest(userRepo, credRepo, hasher, tokenSvc, images)
	_, err := srv.RefreshToken(ctx, &usecase.RefreshTokenInput{RefreshToken: "old-token"})

	assert.ErrorIs(t, err, domainerrors.ErrRefreshTokenInvalid)
}

func TestAuthService_RefreshToken_ConcurrentRotationHasOneWinner(t *testing.T) {
	cfg := &config.Config{}
	cfg.SecretKey.Access = "concurrent_access_secret_for_testing"
	cfg.SecretKey.Refresh = "concurrent_refresh_secret_for_testing"
	tokenSvc, err := infraauth.NewJWTService(cfg)
	require.NoError(t, err)

	userID := uuid.New()
	_, refreshToken, err := tokenSvc.GenerateTokenPair(userID)
	require.NoError(t, err)

	store := newInMemoryCredentialStore()
	storedHash := tokenSvc.HashToken(refreshToken)
	store.put(&entity.Credential{
		UserID:           userID,
		Email:            "alice@example.com",
		Role:             entity.RoleUser,
		RefreshTokenHash: &storedHash,
	})

	srv := NewAuthService(AuthServiceParams{
		TxManager:      &fakeTxManager{factory: &fakeRepoFactory{credRepo: store}},
		CredentialRepo: store,
		UserRepo:       new(mockUserRepository),
		Hasher:         new(mockPasswordHasher),
		TokenService:   tokenSvc,
		ImageStorage:   new(mockImageStorage),
		Logger:         newDiscardLogger(),
	})

	const attempts = 8
	results := make([]error, attempts)
	var wg sync.WaitGroup
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, results[i] = srv.RefreshToken(context.Background(), &usecase.RefreshTokenInput{RefreshToken: refreshToken})
		}()
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, domainerrors.ErrRefreshTokenInvalid)
		}
	}
	assert.Equal(t, 1, winners, "exactly one concurrent rotation must win")

	// Replaying the rotated-out token afterwards must also fail.
	_, err = srv.RefreshToken(context.Background(), &usecase.RefreshTokenInput{RefreshToken: refreshToken})
	assert.ErrorIs(t, err, domainerrors.ErrRefreshTokenInvalid)
}

func TestAuthService_Logout_ClearsDigestAndIsIdempotent(t *testing.T) {
	userRepo := new(mockUserRepository)
	credRepo := new(mockCredentialRepository)
	hasher := new(mockPasswordHasher)
	tokenSvc := new(mockTokenService)
	images := new(mockImageStorage)

	ctx := context.Background()
	userID := uuid.New()

	credRepo.On("RotateRefreshToken", ctx, userID, (*string)(nil), (*string)(nil)).
		Return(nil).Once()
	credRepo.On("RotateRefreshToken", ctx, userID, (*string)(nil), (*string)(nil)).
		Return(repository.ErrCredentialNotFound)

	srv := newAuthServiceForTest(userRepo, credRepo, hasher, tokenSvc, images)

	assert.NoError(t, srv.Logout(ctx, userID))
	// A second logout, or a logout for a deleted account, still succeeds.
	assert.NoError(t, srv.Logout(ctx, userID))
}

func TestAuthService_Authorize(t *testing.T) {
	userRepo := new(mockUserRepository)
	credRepo := new(mockCredentialRepository)
	hasher := new(mockPasswordHasher)
	tokenSvc := new(mockTokenService)
	images := new(mockImageStorage)

	ctx := context.Background()
	userID := uuid.New()
	deletedID := uuid.New()

	tokenSvc.On("VerifyAccessToken", "good-token").Return(userID, nil)
	tokenSvc.On("VerifyAccessToken", "orphan-token").Return(deletedID, nil)
	tokenSvc.On("VerifyAccessToken", "bad-token").
		Return(uuid.Nil, domainerrors.ErrUnauthenticated.WrapMessage("token verification failed"))
	credRepo.On("FindByUserID", ctx, userID).
		Return(&entity.Credential{UserID: userID, Role: entity.RoleAdmin}, nil)
	credRepo.On("FindByUserID", ctx, deletedID).Return(nil, repository.ErrCredentialNotFound)

	srv := newAuthServiceForTest(userRepo, credRepo, hasher, tokenSvc, images)

	identity, err := srv.Authorize(ctx, "good-token")
	require.NoError(t, err)
	assert.Equal(t, userID, identity.UserID)
	assert.Equal(t, entity.RoleAdmin, identity.Role)

	_, err = srv.Authorize(ctx, "bad-token")
	assert.ErrorIs(t, err, domainerrors.ErrUnauthenticated)

	// A valid token for a deleted account is just as unauthenticated.
	_, err = srv.Authorize(ctx, "orphan-token")
	assert.ErrorIs(t, err, domainerrors.ErrUnauthenticated)
}
