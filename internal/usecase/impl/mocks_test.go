package impl

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"roster/internal/domain/entity"
	"roster/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTxManager passes every Execute call straight to the callback with a
// fixed repository factory. Transaction semantics are the repository layer's
// concern, not the use case's.
type fakeTxManager struct {
	factory repository.RepositoryFactory
}

func (m *fakeTxManager) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	return fn(m.factory)
}

type fakeRepoFactory struct {
	userRepo repository.UserRepository
	credRepo repository.CredentialRepository
}

func (f *fakeRepoFactory) UserRepo() repository.UserRepository             { return f.userRepo }
func (f *fakeRepoFactory) CredentialRepo() repository.CredentialRepository { return f.credRepo }

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *mockUserRepository) List(ctx context.Context, query repository.ListUsersQuery) ([]*entity.User, int64, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}

	return args.Get(0).([]*entity.User), args.Get(1).(int64), args.Error(2)
}

func (m *mockUserRepository) Create(ctx context.Context, user *entity.User, passwordHash string) error {
	args := m.Called(ctx, user, passwordHash)

	return args.Error(0)
}

func (m *mockUserRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields repository.UpdateUserFields) (*entity.User, error) {
	args := m.Called(ctx, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *mockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

type mockCredentialRepository struct {
	mock.Mock
}

func (m *mockCredentialRepository) FindByIdentifier(ctx context.Context, identifier string) (*entity.Credential, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*entity.Credential), args.Error(1)
}

func (m *mockCredentialRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Credential, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*entity.Credential), args.Error(1)
}

func (m *mockCredentialRepository) RotateRefreshToken(ctx context.Context, userID uuid.UUID, expectedOldHash *string, newHash *string) error {
	args := m.Called(ctx, userID, expectedOldHash, newHash)

	return args.Error(0)
}

type mockPasswordHasher struct {
	mock.Mock
}

func (m *mockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)

	return args.String(0), args.Error(1)
}

func (m *mockPasswordHasher) Check(password, hash string) bool {
	args := m.Called(password, hash)

	return args.Bool(0)
}

func (m *mockPasswordHasher) ValidatePassword(password string) error {
	args := m.Called(password)

	return args.Error(0)
}

type mockTokenService struct {
	mock.Mock
}

func (m *mockTokenService) GenerateTokenPair(userID uuid.UUID) (string, string, error) {
	args := m.Called(userID)

	return args.String(0), args.String(1), args.Error(2)
}

func (m *mockTokenService) VerifyAccessToken(tokenString string) (uuid.UUID, error) {
	args := m.Called(tokenString)

	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *mockTokenService) VerifyRefreshToken(tokenString string) (uuid.UUID, error) {
	args := m.Called(tokenString)

	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *mockTokenService) HashToken(tokenString string) string {
	args := m.Called(tokenString)

	return args.String(0)
}

func (m *mockTokenService) RefreshTokenDuration() time.Duration {
	args := m.Called()

	return args.Get(0).(time.Duration)
}

type mockImageStorage struct {
	mock.Mock
}

func (m *mockImageStorage) Save(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, key, data, contentType)

	return args.String(0), args.Error(1)
}

func (m *mockImageStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)

	return args.Error(0)
}

// inMemoryCredentialStore is a concurrency-safe CredentialRepository for
// exercising the rotation compare-and-swap under racing callers.
type inMemoryCredentialStore struct {
	mu          sync.Mutex
	credentials map[uuid.UUID]*entity.Credential
}

func newInMemoryCredentialStore() *inMemoryCredentialStore {
	return &inMemoryCredentialStore{credentials: make(map[uuid.UUID]*entity.Credential)}
}

func (s *inMemoryCredentialStore) put(cred *entity.Credential) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials[cred.UserID] = cred
}

func (s *inMemoryCredentialStore) FindByIdentifier(_ context.Context, identifier string) (*entity.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cred := range s.credentials {
		if cred.Email == identifier || cred.Phone == identifier {
			copied := *cred

			return &copied, nil
		}
	}

	return nil, repository.ErrCredentialNotFound
}

func (s *inMemoryCredentialStore) FindByUserID(_ context.Context, userID uuid.UUID) (*entity.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.credentials[userID]
	if !ok {
		return nil, repository.ErrCredentialNotFound
	}
	copied := *cred

	return &copied, nil
}

func (s *inMemoryCredentialStore) RotateRefreshToken(_ context.Context, userID uuid.UUID, expectedOldHash *string, newHash *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.credentials[userID]
	if !ok {
		if expectedOldHash != nil {
			return repository.ErrRefreshTokenMismatch
		}

		return repository.ErrCredentialNotFound
	}

	if expectedOldHash != nil {
		if cred.RefreshTokenHash == nil || *cred.RefreshTokenHash != *expectedOldHash {
			return repository.ErrRefreshTokenMismatch
		}
	}

	cred.RefreshTokenHash = newHash

	return nil
}
