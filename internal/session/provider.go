package session

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"cumbre/internal/backend"
	"cumbre/internal/domain"
	apperrors "cumbre/internal/errors"
	"cumbre/internal/session/repository"
	"cumbre/internal/validation"
)

// OAuthTokenParam is the query parameter the OAuth callback delivers the
// bearer token in.
const OAuthTokenParam = "token"

type AuthBackend interface {
	Login(ctx context.Context, email, password string) (*backend.AuthResult, error)
	Register(ctx context.Context, req backend.RegisterRequest) (*backend.AuthResult, error)
	Logout(ctx context.Context, token string) error
	Profile(ctx context.Context, token string) (*domain.User, error)
}

type TokenRepository interface {
	Save(ctx context.Context, token repository.StoredToken) error
	FindBySessionID(ctx context.Context, sessionID string) (*repository.StoredToken, error)
	Delete(ctx context.Context, sessionID string) error
}

type RegisterInput struct {
	Nombre   string `json:"nombre" validate:"required"`
	Apellido string `json:"apellido" validate:"required"`
	Email    string `json:"email" validate:"required,simple_email"`
	Password string `json:"password" validate:"required,min=8"`
	Telefono string `json:"telefono"`
}

var registerMessages = map[string]map[string]string{
	"password": {"min": "password must have at least 8 characters"},
}

// Provider tracks the identity of one browser session. It is safe for
// concurrent use.
type Provider struct {
	sessionID string
	api       AuthBackend
	repo      TokenRepository
	validate  *validatorv10.Validate
	logger    *zap.Logger
	nowFunc   func() time.Time

	mu     sync.RWMutex
	token  string
	claims *Claims
	user   *domain.User
}

func NewProvider(sessionID string, api AuthBackend, repo TokenRepository, logger *zap.Logger) *Provider {
	return &Provider{
		sessionID: sessionID,
		api:       api,
		repo:      repo,
		validate:  validation.New(),
		logger:    logger.With(zap.String("sessionId", sessionID)),
		nowFunc:   time.Now,
	}
}

func (p *Provider) SessionID() string {
	return p.sessionID
}

// CurrentUser returns the logged-in user, or nil when there is none or the
// token has expired.
func (p *Provider) CurrentUser() *domain.User {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.user == nil || p.expiredLocked() {
		return nil
	}
	u := *p.user
	return &u
}

func (p *Provider) Token() string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.expiredLocked() {
		return ""
	}
	return p.token
}

func (p *Provider) expiredLocked() bool {
	return p.claims != nil && p.claims.Expired(p.nowFunc())
}

// Restore loads a persisted token for this session and re-validates it against
// the backend profile endpoint. A missing or rejected token leaves the session
// logged out.
func (p *Provider) Restore(ctx context.Context) error {
	stored, err := p.repo.FindBySessionID(ctx, p.sessionID)
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); ok {
			return nil
		}
		return fmt.Errorf("restoring session token: %w", err)
	}

	claims, _ := parseClaims(stored.Token)
	if claims != nil && claims.Expired(p.nowFunc()) {
		p.logger.Info("persisted token expired")
		return p.forget(ctx)
	}

	user, err := p.api.Profile(ctx, stored.Token)
	if err != nil {
		if _, ok := apperrors.IsNotAuthenticatedError(err); ok {
			p.logger.Info("persisted token rejected by backend")
			return p.forget(ctx)
		}
		return fmt.Errorf("loading profile: %w", err)
	}

	p.set(stored.Token, claims, user)
	return nil
}

func (p *Provider) Login(ctx context.Context, email, password string) (*domain.User, error) {
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password are required",
			apperrors.ValidationDetail{Field: "email", Message: "email is required"},
			apperrors.ValidationDetail{Field: "password", Message: "password is required"},
		)
	}

	res, err := p.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := p.establish(ctx, res.Token, &res.User); err != nil {
		return nil, err
	}

	p.logger.Info("user logged in", zap.Int("userId", res.User.ID))
	return p.CurrentUser(), nil
}

func (p *Provider) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if err := validation.Struct(p.validate, in, registerMessages); err != nil {
		return nil, err
	}

	res, err := p.api.Register(ctx, backend.RegisterRequest{
		Nombre:   in.Nombre,
		Apellido: in.Apellido,
		Email:    in.Email,
		Password: in.Password,
		Telefono: in.Telefono,
	})
	if err != nil {
		return nil, err
	}
	if err := p.establish(ctx, res.Token, &res.User); err != nil {
		return nil, err
	}

	p.logger.Info("user registered", zap.Int("userId", res.User.ID))
	return p.CurrentUser(), nil
}

// Logout always clears local state, even when the backend call fails.
func (p *Provider) Logout(ctx context.Context) error {
	if token := p.Token(); token != "" {
		if err := p.api.Logout(ctx, token); err != nil {
			p.logger.Warn("backend logout failed", zap.Error(err))
		}
	}

	return p.forget(ctx)
}

// Profile refreshes the current user from the backend.
func (p *Provider) Profile(ctx context.Context) (*domain.User, error) {
	token := p.Token()
	if token == "" {
		return nil, apperrors.NewNotAuthenticatedError("login required")
	}

	user, err := p.api.Profile(ctx, token)
	if err != nil {
		if _, ok := apperrors.IsNotAuthenticatedError(err); ok {
			_ = p.forget(ctx)
		}
		return nil, err
	}

	p.mu.Lock()
	p.user = user
	p.mu.Unlock()
	return p.CurrentUser(), nil
}

// HandleOAuthCallback takes the full callback URL, persists the token found in
// its query string and returns the same URL without the token parameter, ready
// to redirect to.
func (p *Provider) HandleOAuthCallback(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", apperrors.NewValidationError("invalid callback url",
			apperrors.ValidationDetail{Field: "url", Message: err.Error()})
	}

	q := u.Query()
	token := q.Get(OAuthTokenParam)
	if token == "" {
		return "", apperrors.NewValidationError("missing token",
			apperrors.ValidationDetail{Field: OAuthTokenParam, Message: "callback did not include a token"})
	}

	user, err := p.api.Profile(ctx, token)
	if err != nil {
		return "", err
	}
	if err := p.establish(ctx, token, user); err != nil {
		return "", err
	}

	q.Del(OAuthTokenParam)
	u.RawQuery = q.Encode()

	p.logger.Info("oauth login completed", zap.Int("userId", user.ID))
	return u.String(), nil
}

func (p *Provider) establish(ctx context.Context, token string, user *domain.User) error {
	if token == "" {
		return apperrors.NewBackendError("auth", 0, "the booking service did not return a session token", nil)
	}

	claims, err := parseClaims(token)
	if err != nil {
		p.logger.Debug("token is not a decodable jwt", zap.Error(err))
	}

	stored := repository.StoredToken{SessionID: p.sessionID, Token: token}
	if user != nil {
		stored.UserID = user.ID
	}
	if claims != nil {
		stored.ExpiresAt = claims.ExpiresAt
		if stored.UserID == 0 {
			stored.UserID = claims.UserID
		}
	}

	if err := p.repo.Save(ctx, stored); err != nil {
		return apperrors.NewInternalError("persisting session token", err)
	}

	p.set(token, claims, user)
	return nil
}

func (p *Provider) set(token string, claims *Claims, user *domain.User) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.token = token
	p.claims = claims
	if user != nil {
		u := *user
		p.user = &u
	}
}

func (p *Provider) forget(ctx context.Context) error {
	p.mu.Lock()
	p.token = ""
	p.claims = nil
	p.user = nil
	p.mu.Unlock()

	if err := p.repo.Delete(ctx, p.sessionID); err != nil {
		return apperrors.NewInternalError("deleting session token", err)
	}
	return nil
}
