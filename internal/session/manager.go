package session

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/neointegratech/portal-client/internal/api"
	"github.com/neointegratech/portal-client/internal/domain/model"
	apperrors "github.com/neointegratech/portal-client/pkg/errors"
)

// AuthService is the slice of the auth collaborator the manager needs.
// *api.AuthAPI satisfies it.
type AuthService interface {
	Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) (*api.TokenResponse, error)
	Me(ctx context.Context) (*model.User, error)
}

// LoginInput carries login credentials.
type LoginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// RegisterInput carries the new-account form.
type RegisterInput struct {
	FullName        string `validate:"required"`
	Email           string `validate:"required,email"`
	Phone           string `validate:"omitempty"`
	CompanyName     string `validate:"omitempty"`
	Password        string `validate:"required,min=8"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
}

// Manager is the single source of truth for who is logged in and for the
// credential used to authorize backend calls.
type Manager struct {
	auth     AuthService
	store    Store
	logger   *zap.Logger
	validate *validator.Validate

	mu    sync.Mutex
	token string
	user  *model.User
	// confirmed is true once a profile fetch succeeded for the current
	// token. Authenticated requires both token and confirmation.
	confirmed bool
	lastErr   string
}

func NewManager(auth AuthService, store Store, logger *zap.Logger) *Manager {
	return &Manager{
		auth:     auth,
		store:    store,
		logger:   logger,
		validate: validator.New(),
	}
}

// Rehydrate restores the persisted token into memory. It runs once at
// startup, does not touch the network, and leaves validation to the first
// protected call. A token whose embedded expiry has already passed is
// discarded immediately.
func (m *Manager) Rehydrate() {
	token, err := m.store.Load()
	if err != nil {
		m.logger.Warn("failed to load persisted token", zap.Error(err))
		return
	}
	if token == "" {
		return
	}

	if tokenExpired(token) {
		m.logger.Info("persisted token already expired, discarding")
		if err := m.store.Clear(); err != nil {
			m.logger.Warn("failed to clear expired token", zap.Error(err))
		}
		return
	}

	m.mu.Lock()
	m.token = token
	m.confirmed = false
	m.mu.Unlock()

	m.logger.Debug("session token rehydrated")
}

// Login authenticates against the backend, persists the returned token and
// performs the dependent profile fetch. Expected failures come back as
// typed errors carrying a human-readable message; the session is left
// unauthenticated on any failure.
func (m *Manager) Login(ctx context.Context, input LoginInput) error {
	if err := m.validate.Struct(input); err != nil {
		return m.fail(apperrors.NewAppError(apperrors.ErrInvalidArgument, "email and password are required", err))
	}

	resp, err := m.auth.Login(ctx, api.LoginRequest{Email: input.Email, Password: input.Password})
	if err != nil {
		m.logger.Info("login failed", zap.String("email", input.Email), zap.String("code", apperrors.CodeOf(err)))
		return m.fail(err)
	}

	if resp.AccessToken == "" {
		return m.fail(apperrors.NewAppError(apperrors.ErrInternal, "login response carried no token", nil))
	}

	if err := m.store.Save(resp.AccessToken); err != nil {
		return m.fail(err)
	}

	m.mu.Lock()
	m.token = resp.AccessToken
	m.user = resp.User
	m.confirmed = resp.User != nil
	m.lastErr = ""
	m.mu.Unlock()

	m.logger.Info("login succeeded", zap.String("email", input.Email))

	// The login response may omit the profile; confirm it with a
	// dependent fetch so Authenticated() can become true.
	if resp.User == nil {
		if err := m.FetchUser(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Register creates a new account. It never authenticates the caller;
// success still requires an explicit login. The three failure modes
// (structured server error, no response, local request error) each yield
// a distinct message for the user.
func (m *Manager) Register(ctx context.Context, input RegisterInput) error {
	if err := m.validate.Struct(input); err != nil {
		return m.fail(apperrors.NewAppError(apperrors.ErrInvalidArgument, registerValidationMessage(err), err))
	}

	_, err := m.auth.Register(ctx, api.RegisterRequest{
		FullName:    input.FullName,
		Email:       input.Email,
		Phone:       input.Phone,
		CompanyName: input.CompanyName,
		Password:    input.Password,
	})
	if err != nil {
		m.logger.Info("registration failed",
			zap.String("email", input.Email),
			zap.String("code", apperrors.CodeOf(err)))
		return m.fail(err)
	}

	m.mu.Lock()
	m.lastErr = ""
	m.mu.Unlock()

	m.logger.Info("registration succeeded", zap.String("email", input.Email))
	return nil
}

// Logout clears persisted and in-memory state unconditionally. It cannot
// fail and is safe to call when already logged out.
func (m *Manager) Logout() {
	if err := m.store.Clear(); err != nil {
		m.logger.Warn("failed to clear persisted token", zap.Error(err))
	}

	m.mu.Lock()
	m.token = ""
	m.user = nil
	m.confirmed = false
	m.lastErr = ""
	m.mu.Unlock()
}

// FetchUser refreshes the profile for the current token. An authorization
// rejection invalidates the token; navigation is left to the guard.
func (m *Manager) FetchUser(ctx context.Context) error {
	m.mu.Lock()
	token := m.token
	m.mu.Unlock()
	if token == "" {
		return apperrors.NewAppError(apperrors.ErrUnauthenticated, "not logged in", nil)
	}

	user, err := m.auth.Me(ctx)
	if err != nil {
		if apperrors.IsUnauthenticated(err) {
			m.HandleAuthReject()
		}
		return m.fail(err)
	}

	m.mu.Lock()
	m.user = user
	m.confirmed = true
	m.lastErr = ""
	m.mu.Unlock()
	return nil
}

// HandleAuthReject reacts to a 401 from any non-auth endpoint: the token
// is treated as invalid and cleared. Wired into the API client's hook.
func (m *Manager) HandleAuthReject() {
	m.logger.Warn("token rejected, clearing session")
	if err := m.store.Clear(); err != nil {
		m.logger.Warn("failed to clear persisted token", zap.Error(err))
	}

	m.mu.Lock()
	m.token = ""
	m.user = nil
	m.confirmed = false
	m.mu.Unlock()
}

// Authenticated reports whether a token is present and a profile fetch has
// confirmed it since the last token change. Right after Rehydrate a token
// can be present without Authenticated being true yet.
func (m *Manager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token != "" && m.confirmed
}

// User returns the current profile, or nil.
func (m *Manager) User() *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// Token returns the in-memory token.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// PersistedToken reads the durable token. The guard consults it so a
// not-yet-rehydrated session does not produce a false negative.
func (m *Manager) PersistedToken() string {
	token, err := m.store.Load()
	if err != nil {
		return ""
	}
	return token
}

// Err returns the last operation's failure message, or "".
func (m *Manager) Err() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

func (m *Manager) fail(err error) error {
	m.mu.Lock()
	var appErr *apperrors.AppError
	if apperrors.As(err, &appErr) {
		m.lastErr = appErr.Message()
	} else {
		m.lastErr = err.Error()
	}
	m.mu.Unlock()
	return err
}

func registerValidationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if apperrors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			switch {
			case fe.Field() == "ConfirmPassword" && fe.Tag() == "eqfield":
				return "passwords do not match"
			case fe.Field() == "Password" && fe.Tag() == "min":
				return "password must be at least 8 characters"
			}
		}
	}
	return "registration form is incomplete"
}

// tokenExpired parses the token without verifying its signature (the
// backend owns verification) and reports whether its expiry has passed.
// Opaque non-JWT tokens are never considered expired here.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
