package session_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/neointegratech/portal-client/internal/api"
	"github.com/neointegratech/portal-client/internal/domain/model"
	"github.com/neointegratech/portal-client/internal/session"
	apperrors "github.com/neointegratech/portal-client/pkg/errors"
)

// MockAuthService is a mock implementation of session.AuthService.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.TokenResponse), args.Error(1)
}

func (m *MockAuthService) Register(ctx context.Context, req api.RegisterRequest) (*api.TokenResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.TokenResponse), args.Error(1)
}

func (m *MockAuthService) Me(ctx context.Context) (*model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func newTestManager(t *testing.T) (*session.Manager, *MockAuthService, *session.FileStore) {
	t.Helper()
	store := session.NewFileStore(filepath.Join(t.TempDir(), "token"))
	auth := new(MockAuthService)
	return session.NewManager(auth, store, zap.NewNop()), auth, store
}

func signedJWT(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": exp.Unix(),
		"iat": time.Now().Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestManagerLogin(t *testing.T) {
	ctx := context.Background()
	user := &model.User{ID: 1, Email: "ana@example.com", FullName: "Ana"}

	t.Run("success persists token and confirms profile", func(t *testing.T) {
		mgr, auth, store := newTestManager(t)
		auth.On("Login", ctx, api.LoginRequest{Email: "ana@example.com", Password: "secret123"}).
			Return(&api.TokenResponse{AccessToken: "tok-abc", User: user}, nil)

		err := mgr.Login(ctx, session.LoginInput{Email: "ana@example.com", Password: "secret123"})
		require.NoError(t, err)

		assert.True(t, mgr.Authenticated())
		assert.Equal(t, "ana@example.com", mgr.User().Email)

		persisted, err := store.Load()
		require.NoError(t, err)
		assert.Equal(t, "tok-abc", persisted)
		auth.AssertExpectations(t)
	})

	t.Run("token round-trips into a fresh manager", func(t *testing.T) {
		token := signedJWT(t, time.Now().Add(time.Hour))
		mgr, auth, store := newTestManager(t)
		auth.On("Login", mock.Anything, mock.Anything).
			Return(&api.TokenResponse{AccessToken: token, User: user}, nil)

		require.NoError(t, mgr.Login(ctx, session.LoginInput{Email: "ana@example.com", Password: "secret123"}))

		// A new process instance rehydrates the same token.
		fresh := session.NewManager(new(MockAuthService), store, zap.NewNop())
		fresh.Rehydrate()
		assert.Equal(t, token, fresh.Token())
		// Present but not yet confirmed by a profile fetch.
		assert.False(t, fresh.Authenticated())
	})

	t.Run("dependent profile fetch when login response omits user", func(t *testing.T) {
		mgr, auth, _ := newTestManager(t)
		auth.On("Login", mock.Anything, mock.Anything).
			Return(&api.TokenResponse{AccessToken: "tok-abc"}, nil)
		auth.On("Me", ctx).Return(user, nil)

		require.NoError(t, mgr.Login(ctx, session.LoginInput{Email: "ana@example.com", Password: "secret123"}))
		assert.True(t, mgr.Authenticated())
		auth.AssertExpectations(t)
	})

	t.Run("wrong credentials keep the session unauthenticated", func(t *testing.T) {
		mgr, auth, store := newTestManager(t)
		auth.On("Login", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewAppError(apperrors.ErrUnauthenticated, "Invalid email or password", nil))

		err := mgr.Login(ctx, session.LoginInput{Email: "ana@example.com", Password: "wrong-pass"})
		require.Error(t, err)

		assert.False(t, mgr.Authenticated())
		assert.Equal(t, "Invalid email or password", mgr.Err())
		persisted, _ := store.Load()
		assert.Empty(t, persisted)
	})

	t.Run("validation failure never contacts the collaborator", func(t *testing.T) {
		mgr, auth, _ := newTestManager(t)

		err := mgr.Login(ctx, session.LoginInput{Email: "", Password: ""})
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrInvalidArgument, apperrors.CodeOf(err))
		auth.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
	})
}

func TestManagerRegister(t *testing.T) {
	ctx := context.Background()
	valid := session.RegisterInput{
		FullName:        "Ana",
		Email:           "ana@example.com",
		Password:        "secret123",
		ConfirmPassword: "secret123",
	}

	t.Run("success does not authenticate", func(t *testing.T) {
		mgr, auth, store := newTestManager(t)
		auth.On("Register", mock.Anything, mock.Anything).
			Return(&api.TokenResponse{AccessToken: "unused"}, nil)

		require.NoError(t, mgr.Register(ctx, valid))

		assert.False(t, mgr.Authenticated())
		persisted, _ := store.Load()
		assert.Empty(t, persisted)
	})

	t.Run("password mismatch caught before any network call", func(t *testing.T) {
		mgr, auth, _ := newTestManager(t)

		input := valid
		input.ConfirmPassword = "different1"
		err := mgr.Register(ctx, input)
		require.Error(t, err)
		assert.Equal(t, "passwords do not match", mgr.Err())
		auth.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	})

	t.Run("short password caught before any network call", func(t *testing.T) {
		mgr, auth, _ := newTestManager(t)

		input := valid
		input.Password = "short"
		input.ConfirmPassword = "short"
		err := mgr.Register(ctx, input)
		require.Error(t, err)
		assert.Equal(t, "password must be at least 8 characters", mgr.Err())
		auth.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	})

	t.Run("structured server error propagates verbatim", func(t *testing.T) {
		mgr, auth, _ := newTestManager(t)
		auth.On("Register", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewAppError(apperrors.ErrInvalidArgument, "Email already registered", nil))

		err := mgr.Register(ctx, valid)
		require.Error(t, err)
		assert.Equal(t, "Email already registered", mgr.Err())
	})

	t.Run("no response yields a connectivity message", func(t *testing.T) {
		mgr, auth, _ := newTestManager(t)
		auth.On("Register", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewAppError(apperrors.ErrUnavailable, "cannot reach server", nil))

		err := mgr.Register(ctx, valid)
		require.Error(t, err)
		assert.True(t, apperrors.IsUnavailable(err))
		assert.Equal(t, "cannot reach server", mgr.Err())
	})
}

func TestManagerLogoutIdempotent(t *testing.T) {
	mgr, _, store := newTestManager(t)

	// Logging out when already logged out changes nothing and cannot fail.
	mgr.Logout()
	assert.False(t, mgr.Authenticated())

	require.NoError(t, store.Save("tok"))
	mgr.Rehydrate()
	mgr.Logout()
	mgr.Logout()

	assert.False(t, mgr.Authenticated())
	assert.Empty(t, mgr.Token())
	persisted, _ := store.Load()
	assert.Empty(t, persisted)
}

func TestManagerFetchUser(t *testing.T) {
	ctx := context.Background()

	t.Run("authorization rejection invalidates the token", func(t *testing.T) {
		mgr, auth, store := newTestManager(t)
		require.NoError(t, store.Save("stale-token"))
		mgr.Rehydrate()

		auth.On("Me", ctx).
			Return(nil, apperrors.NewAppError(apperrors.ErrUnauthenticated, "Invalid token", nil))

		err := mgr.FetchUser(ctx)
		require.Error(t, err)

		assert.False(t, mgr.Authenticated())
		assert.Empty(t, mgr.Token())
		persisted, _ := store.Load()
		assert.Empty(t, persisted)
	})

	t.Run("without token nothing is fetched", func(t *testing.T) {
		mgr, auth, _ := newTestManager(t)

		err := mgr.FetchUser(ctx)
		require.Error(t, err)
		assert.True(t, apperrors.IsUnauthenticated(err))
		auth.AssertNotCalled(t, "Me", mock.Anything)
	})

	t.Run("network failure does not clear the token", func(t *testing.T) {
		mgr, auth, store := newTestManager(t)
		require.NoError(t, store.Save("tok"))
		mgr.Rehydrate()

		auth.On("Me", ctx).
			Return(nil, apperrors.NewAppError(apperrors.ErrUnavailable, "cannot reach server", nil))

		require.Error(t, mgr.FetchUser(ctx))
		assert.Equal(t, "tok", mgr.Token())
	})
}

func TestManagerRehydrate(t *testing.T) {
	t.Run("expired token is discarded", func(t *testing.T) {
		mgr, _, store := newTestManager(t)
		require.NoError(t, store.Save(signedJWT(t, time.Now().Add(-time.Hour))))

		mgr.Rehydrate()

		assert.Empty(t, mgr.Token())
		persisted, _ := store.Load()
		assert.Empty(t, persisted)
	})

	t.Run("opaque token is kept as-is", func(t *testing.T) {
		mgr, _, store := newTestManager(t)
		require.NoError(t, store.Save("opaque-bearer-token"))

		mgr.Rehydrate()
		assert.Equal(t, "opaque-bearer-token", mgr.Token())
	})
}
