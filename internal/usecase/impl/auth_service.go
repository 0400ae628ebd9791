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

// authService implements the AuthUsecase interface.
type authService struct {
	txManager      repository.TransactionManager
	credentialRepo repository.CredentialRepository
	userRepo       repository.UserRepository
	hasher         service.PasswordHasher
	tokenService   service.TokenService
	imageStorage   service.ImageStorage
	logger         *slog.Logger
}

// AuthServiceParams holds dependencies for authService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	TxManager      repository.TransactionManager
	CredentialRepo repository.CredentialRepository
	UserRepo       repository.UserRepository
	Hasher         service.PasswordHasher
	TokenService   service.TokenService
	ImageStorage   service.ImageStorage
	Logger         *slog.Logger
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	return &authService{
		txManager:      params.TxManager,
		credentialRepo: params.CredentialRepo,
		userRepo:       params.UserRepo,
		hasher:         params.Hasher,
		tokenService:   params.TokenService,
		imageStorage:   params.ImageStorage,
		logger:         params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// refreshExpiresIn reports the refresh token lifetime in whole seconds, as
// handed to clients alongside each issued pair.
func (srv *authService) refreshExpiresIn() int64 {
	return int64(srv.tokenService.RefreshTokenDuration().Seconds())
}

// Register orchestrates the complete registration process: duplicate check,
// password hashing, account creation, and issuing the first token pair, all
// within a single transaction.
func (srv *authService) Register(ctx context.Context, input *usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	srv.log(ctx).Info("Starting registration", slog.String("email", input.Email))

	if err := srv.hasher.ValidatePassword(input.Password); err != nil {
		srv.log(ctx).Warn("Password validation failed during registration", slog.String("email", input.Email), slog.Any("error", err))

		return nil, errors.Wrap(err, "password does not meet security requirements")
	}

	// bcrypt is CPU-bound, so hash outside the transaction.
	hashedPassword, err := srv.hasher.Hash(input.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password during registration", slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrPasswordHashFailed, "failed to hash password during registration")
	}

	profileImage, err := srv.saveProfileImage(ctx, input.ProfileImage)
	if err != nil {
		return nil, err
	}

	newUser := &entity.User{
		Name:         input.Name,
		Email:        input.Email,
		Phone:        input.Phone,
		Role:         entity.RoleUser,
		ProfileImage: profileImage,
		Address:      input.Address,
		State:        input.State,
		City:         input.City,
		Country:      input.Country,
		Pincode:      input.Pincode,
	}

	output := &usecase.RegisterOutput{}
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		credRepo := repoFactory.CredentialRepo()

		if err := srv.checkDuplicateIdentifiers(ctx, credRepo, input.Email, input.Phone); err != nil {
			return err
		}

		if err := repoFactory.UserRepo().Create(ctx, newUser, hashedPassword); err != nil {
			return errors.Wrap(err, "failed to create user")
		}

		// The account ID exists only after the insert, so the first token
		// pair is issued inside the transaction.
		accessToken, refreshToken, err := srv.tokenService.GenerateTokenPair(newUser.ID)
		if err != nil {
			return errors.Wrap(err, "failed to generate tokens during registration")
		}

		refreshHash := srv.tokenService.HashToken(refreshToken)
		if err := credRepo.RotateRefreshToken(ctx, newUser.ID, nil, &refreshHash); err != nil {
			return errors.Wrap(err, "failed to store refresh token during registration")
		}

		output.User = newUser
		output.AccessToken = accessToken
		output.RefreshToken = refreshToken
		output.RefreshExpiresIn = srv.refreshExpiresIn()

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Registration failed", slog.String("email", input.Email), slog.Any("error", err))

		// Roll back the uploaded image if the account never materialized.
		if profileImage != "" {
			if delErr := srv.imageStorage.Delete(ctx, profileImage); delErr != nil {
				srv.log(ctx).Warn("Failed to clean up profile image after registration failure", slog.Any("error", delErr))
			}
		}

		return nil, err
	}

	srv.log(ctx).Debug("Registration completed", slog.Any("userID", newUser.ID))

	return output, nil
}

// checkDuplicateIdentifiers rejects registration when the email or phone is
// already bound to an account.
func (srv *authService) checkDuplicateIdentifiers(ctx context.Context, credRepo repository.CredentialRepository, email, phone string) error {
	for _, identifier := range []string{email, phone} {
		_, err := credRepo.FindByIdentifier(ctx, identifier)
		if err == nil {
			return domainerrors.ErrUserAlreadyExists.WrapMessage("identifier already registered")
		}
		if !errors.Is(err, repository.ErrCredentialNotFound) {
			return errors.Wrap(err, "failed to check existing identifiers")
		}
	}

	return nil
}

// Login verifies the identifier/password pair and issues a fresh token pair,
// replacing any previously stored refresh token. Unknown identifier and
// wrong password produce the same error.
func (srv *authService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.LoginOutput, error) {
	srv.log(ctx).Debug("Starting login", slog.String("identifier", input.Identifier))

	credential, err := srv.credentialRepo.FindByIdentifier(ctx, input.Identifier)
	if err != nil {
		srv.log(ctx).Warn("Login failed", slog.String("identifier", input.Identifier), slog.Any("error", err))

		if errors.Is(err, repository.ErrCredentialNotFound) {
			return nil, domainerrors.ErrInvalidCredentials.WrapMessage("login failed")
		}

		return nil, errors.Wrap(err, "failed to load credential")
	}

	// Check password outside any transaction (bcrypt is CPU-bound).
	if !srv.hasher.Check(input.Password, credential.PasswordHash) {
		srv.log(ctx).Warn("Login failed", slog.String("identifier", input.Identifier), slog.Any("error", domainerrors.ErrInvalidCredentials))

		return nil, domainerrors.ErrInvalidCredentials.WrapMessage("login failed")
	}

	loggedInUser, err := srv.userRepo.FindByID(ctx, credential.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load user after password check")
	}

	accessToken, refreshToken, err := srv.tokenService.GenerateTokenPair(credential.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate tokens")
	}

	// A successful login unconditionally replaces the stored digest: at most
	// one refresh token is live per account.
	refreshHash := srv.tokenService.HashToken(refreshToken)
	if err := srv.credentialRepo.RotateRefreshToken(ctx, credential.UserID, nil, &refreshHash); err != nil {
		return nil, errors.Wrap(err, "failed to store refresh token during login")
	}

	srv.log(ctx).Debug("Login succeeded", slog.Any("userID", credential.UserID))

	return &usecase.LoginOutput{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		RefreshExpiresIn: srv.refreshExpiresIn(),
		User:             loggedInUser,
	}, nil
}

// RefreshToken rotates the presented refresh token for a new pair. The
// conditional digest swap in the repository guarantees that of two racing
// refreshes with the same token, exactly one wins; the loser and any later
// replay get the same invalid-token error as a forged or expired token.
func (srv *authService) RefreshToken(ctx context.Context, input *usecase.RefreshTokenInput) (*usecase.RefreshTokenOutput, error) {
	userID, err := srv.tokenService.VerifyRefreshToken(input.RefreshToken)
	if err != nil {
		srv.log(ctx).Warn("Refresh token verification failed", slog.Any("error", err))

		return nil, errors.Wrap(err, "refresh failed")
	}

	presentedHash := srv.tokenService.HashToken(input.RefreshToken)

	accessToken, refreshToken, err := srv.tokenService.GenerateTokenPair(userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate tokens during refresh")
	}

	newHash := srv.tokenService.HashToken(refreshToken)
	err = srv.credentialRepo.RotateRefreshToken(ctx, userID, &presentedHash, &newHash)
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenMismatch) {
			srv.log(ctx).Warn("Refresh token reuse or revocation detected", slog.Any("userID", userID))

			return nil, domainerrors.ErrRefreshTokenInvalid.WrapMessage("refresh token is no longer valid")
		}

		return nil, errors.Wrap(err, "failed to rotate refresh token")
	}

	srv.log(ctx).Debug("Refresh token rotated", slog.Any("userID", userID))

	return &usecase.RefreshTokenOutput{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		RefreshExpiresIn: srv.refreshExpiresIn(),
	}, nil
}

// Logout clears the stored refresh token digest, revoking the session. It is
// idempotent: logging out an already logged-out or deleted account succeeds.
func (srv *authService) Logout(ctx context.Context, userID uuid.UUID) error {
	err := srv.credentialRepo.RotateRefreshToken(ctx, userID, nil, nil)
	if err != nil && !errors.Is(err, repository.ErrCredentialNotFound) {
		return errors.Wrap(err, "failed to revoke refresh token")
	}

	srv.log(ctx).Debug("Logged out", slog.Any("userID", userID))

	return nil
}

// Authorize verifies an access token and resolves it to a live account.
// Token failures and a deleted account collapse into the same error.
func (srv *authService) Authorize(ctx context.Context, accessToken string) (*entity.Identity, error) {
	userID, err := srv.tokenService.VerifyAccessToken(accessToken)
	if err != nil {
		return nil, errors.Wrap(err, "authorization failed")
	}

	credential, err := srv.credentialRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			return nil, domainerrors.ErrUnauthenticated.WrapMessage("account no longer exists")
		}

		return nil, errors.Wrap(err, "failed to load credential during authorization")
	}

	return &entity.Identity{
		UserID: credential.UserID,
		Role:   credential.Role,
	}, nil
}

// saveProfileImage stores an uploaded image and returns its key. A nil
// upload yields an empty key.
func (srv *authService) saveProfileImage(ctx context.Context, upload *usecase.ImageUpload) (string, error) {
	if upload == nil || len(upload.Data) == 0 {
		return "", nil
	}

	key := profileImageKey(upload.ContentType)
	stored, err := srv.imageStorage.Save(ctx, key, upload.Data, upload.ContentType)
	if err != nil {
		return "", errors.Wrap(err, "failed to store profile image")
	}

	return stored, nil
}

// profileImageKey builds a unique storage key for an uploaded image.
func profileImageKey(contentType string) string {
	ext := ".bin"
	switch contentType {
	case "image/png":
		ext = ".png"
	case "image/jpeg", "image/jpg":
		ext = ".jpg"
	case "image/webp":
		ext = ".webp"
	}

	return "profiles/" + uuid.NewString() + ext
}
