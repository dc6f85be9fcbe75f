package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cumbre/internal/backend"
	"cumbre/internal/domain"
	apperrors "cumbre/internal/errors"
	"cumbre/internal/session/repository"
)

type mockAuthBackend struct {
	LoginFunc    func(ctx context.Context, email, password string) (*backend.AuthResult, error)
	RegisterFunc func(ctx context.Context, req backend.RegisterRequest) (*backend.AuthResult, error)
	LogoutFunc   func(ctx context.Context, token string) error
	ProfileFunc  func(ctx context.Context, token string) (*domain.User, error)
}

func (m *mockAuthBackend) Login(ctx context.Context, email, password string) (*backend.AuthResult, error) {
	return m.LoginFunc(ctx, email, password)
}

func (m *mockAuthBackend) Register(ctx context.Context, req backend.RegisterRequest) (*backend.AuthResult, error) {
	return m.RegisterFunc(ctx, req)
}

func (m *mockAuthBackend) Logout(ctx context.Context, token string) error {
	return m.LogoutFunc(ctx, token)
}

func (m *mockAuthBackend) Profile(ctx context.Context, token string) (*domain.User, error) {
	return m.ProfileFunc(ctx, token)
}

// memoryTokenRepository keeps tokens in a map.
type memoryTokenRepository struct {
	tokens  map[string]repository.StoredToken
	deleted []string
}

func newMemoryTokenRepository() *memoryTokenRepository {
	return &memoryTokenRepository{tokens: map[string]repository.StoredToken{}}
}

func (m *memoryTokenRepository) Save(ctx context.Context, token repository.StoredToken) error {
	m.tokens[token.SessionID] = token
	return nil
}

func (m *memoryTokenRepository) FindBySessionID(ctx context.Context, sessionID string) (*repository.StoredToken, error) {
	st, ok := m.tokens[sessionID]
	if !ok {
		return nil, apperrors.NewNotFoundError("not found")
	}
	return &st, nil
}

func (m *memoryTokenRepository) Delete(ctx context.Context, sessionID string) error {
	delete(m.tokens, sessionID)
	m.deleted = append(m.deleted, sessionID)
	return nil
}

func signedToken(t *testing.T, userID int, expiresAt time.Time) string {
	t.Helper()
	claims := tokenClaims{
		UserID: userID,
		Email:  "ana@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

var ana = domain.User{ID: 8, Email: "ana@example.com", Nombre: "Ana", Apellido: "Pérez"}

func TestLogin_PersistsTokenAndUser(t *testing.T) {
	token := signedToken(t, 8, time.Now().Add(time.Hour))
	repo := newMemoryTokenRepository()
	api := &mockAuthBackend{
		LoginFunc: func(ctx context.Context, email, password string) (*backend.AuthResult, error) {
			return &backend.AuthResult{Token: token, User: ana}, nil
		},
	}

	p := NewProvider("sess-1", api, repo, zap.NewNop())
	user, err := p.Login(context.Background(), "ana@example.com", "secret123")
	require.NoError(t, err)

	assert.Equal(t, 8, user.ID)
	assert.Equal(t, token, p.Token())
	require.Contains(t, repo.tokens, "sess-1")
	assert.Equal(t, 8, repo.tokens["sess-1"].UserID)
	assert.NotNil(t, repo.tokens["sess-1"].ExpiresAt)
}

func TestLogin_MissingCredentials(t *testing.T) {
	p := NewProvider("sess-1", &mockAuthBackend{}, newMemoryTokenRepository(), zap.NewNop())

	_, err := p.Login(context.Background(), "", "")
	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok)
	assert.Nil(t, p.CurrentUser())
}

func TestLogin_BackendFailure(t *testing.T) {
	api := &mockAuthBackend{
		LoginFunc: func(ctx context.Context, email, password string) (*backend.AuthResult, error) {
			return nil, apperrors.NewBackendError("auth.login", 401, "Credenciales inválidas", nil)
		},
	}
	p := NewProvider("sess-1", api, newMemoryTokenRepository(), zap.NewNop())

	_, err := p.Login(context.Background(), "ana@example.com", "bad")
	be, ok := apperrors.IsBackendError(err)
	require.True(t, ok)
	assert.Equal(t, "Credenciales inválidas", be.Message)
	assert.Nil(t, p.CurrentUser())
}

func TestCurrentUser_ExpiredToken(t *testing.T) {
	now := time.Now()
	token := signedToken(t, 8, now.Add(time.Minute))
	api := &mockAuthBackend{
		LoginFunc: func(ctx context.Context, email, password string) (*backend.AuthResult, error) {
			return &backend.AuthResult{Token: token, User: ana}, nil
		},
	}

	p := NewProvider("sess-1", api, newMemoryTokenRepository(), zap.NewNop())
	_, err := p.Login(context.Background(), "ana@example.com", "secret123")
	require.NoError(t, err)
	require.NotNil(t, p.CurrentUser())

	p.nowFunc = func() time.Time { return now.Add(2 * time.Minute) }
	assert.Nil(t, p.CurrentUser())
	assert.Empty(t, p.Token())
}

func TestRegister_ValidatesInput(t *testing.T) {
	called := false
	api := &mockAuthBackend{
		RegisterFunc: func(ctx context.Context, req backend.RegisterRequest) (*backend.AuthResult, error) {
			called = true
			return nil, errors.New("should not be called")
		},
	}
	p := NewProvider("sess-1", api, newMemoryTokenRepository(), zap.NewNop())

	_, err := p.Register(context.Background(), RegisterInput{Nombre: "Ana", Email: "abc", Password: "short"})
	ve, ok := apperrors.IsValidationError(err)
	require.True(t, ok)
	fields := ve.Fields()
	assert.Contains(t, fields, "apellido")
	assert.Contains(t, fields, "email")
	assert.Equal(t, "password must have at least 8 characters", fields["password"])
	assert.False(t, called)
}

func TestRegister_Success(t *testing.T) {
	api := &mockAuthBackend{
		RegisterFunc: func(ctx context.Context, req backend.RegisterRequest) (*backend.AuthResult, error) {
			assert.Equal(t, "ana@example.com", req.Email)
			return &backend.AuthResult{Token: "opaque-token", User: ana}, nil
		},
	}
	repo := newMemoryTokenRepository()
	p := NewProvider("sess-2", api, repo, zap.NewNop())

	user, err := p.Register(context.Background(), RegisterInput{
		Nombre: "Ana", Apellido: "Pérez", Email: "ana@example.com", Password: "montaña123",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana Pérez", user.FullName())
	assert.Equal(t, "opaque-token", repo.tokens["sess-2"].Token)
	assert.Nil(t, repo.tokens["sess-2"].ExpiresAt)
}

func TestLogout_ClearsStateEvenWhenBackendFails(t *testing.T) {
	api := &mockAuthBackend{
		LoginFunc: func(ctx context.Context, email, password string) (*backend.AuthResult, error) {
			return &backend.AuthResult{Token: "opaque-token", User: ana}, nil
		},
		LogoutFunc: func(ctx context.Context, token string) error {
			return apperrors.NewBackendError("auth.logout", 500, "boom", nil)
		},
	}
	repo := newMemoryTokenRepository()
	p := NewProvider("sess-1", api, repo, zap.NewNop())
	_, err := p.Login(context.Background(), "ana@example.com", "secret123")
	require.NoError(t, err)

	require.NoError(t, p.Logout(context.Background()))
	assert.Nil(t, p.CurrentUser())
	assert.Empty(t, p.Token())
	assert.NotContains(t, repo.tokens, "sess-1")
}

func TestRestore_LoadsPersistedToken(t *testing.T) {
	token := signedToken(t, 8, time.Now().Add(time.Hour))
	repo := newMemoryTokenRepository()
	repo.tokens["sess-1"] = repository.StoredToken{SessionID: "sess-1", Token: token, UserID: 8}

	api := &mockAuthBackend{
		ProfileFunc: func(ctx context.Context, tok string) (*domain.User, error) {
			assert.Equal(t, token, tok)
			return &ana, nil
		},
	}

	p := NewProvider("sess-1", api, repo, zap.NewNop())
	require.NoError(t, p.Restore(context.Background()))
	require.NotNil(t, p.CurrentUser())
	assert.Equal(t, 8, p.CurrentUser().ID)
}

func TestRestore_NothingPersisted(t *testing.T) {
	p := NewProvider("sess-1", &mockAuthBackend{}, newMemoryTokenRepository(), zap.NewNop())
	require.NoError(t, p.Restore(context.Background()))
	assert.Nil(t, p.CurrentUser())
}

func TestRestore_ExpiredTokenIsForgotten(t *testing.T) {
	repo := newMemoryTokenRepository()
	repo.tokens["sess-1"] = repository.StoredToken{SessionID: "sess-1", Token: signedToken(t, 8, time.Now().Add(-time.Hour))}

	p := NewProvider("sess-1", &mockAuthBackend{}, repo, zap.NewNop())
	require.NoError(t, p.Restore(context.Background()))
	assert.Nil(t, p.CurrentUser())
	assert.Equal(t, []string{"sess-1"}, repo.deleted)
}

func TestRestore_RejectedTokenIsForgotten(t *testing.T) {
	repo := newMemoryTokenRepository()
	repo.tokens["sess-1"] = repository.StoredToken{SessionID: "sess-1", Token: "opaque"}
	api := &mockAuthBackend{
		ProfileFunc: func(ctx context.Context, tok string) (*domain.User, error) {
			return nil, apperrors.NewNotAuthenticatedError("Token inválido")
		},
	}

	p := NewProvider("sess-1", api, repo, zap.NewNop())
	require.NoError(t, p.Restore(context.Background()))
	assert.Nil(t, p.CurrentUser())
	assert.NotContains(t, repo.tokens, "sess-1")
}

func TestHandleOAuthCallback_PersistsAndStripsToken(t *testing.T) {
	token := signedToken(t, 8, time.Now().Add(time.Hour))
	repo := newMemoryTokenRepository()
	api := &mockAuthBackend{
		ProfileFunc: func(ctx context.Context, tok string) (*domain.User, error) {
			return &ana, nil
		},
	}

	p := NewProvider("sess-1", api, repo, zap.NewNop())
	clean, err := p.HandleOAuthCallback(context.Background(), "https://tienda.example/auth/callback?token="+token+"&next=%2Fcarrito")
	require.NoError(t, err)

	assert.Equal(t, "https://tienda.example/auth/callback?next=%2Fcarrito", clean)
	assert.Equal(t, token, repo.tokens["sess-1"].Token)
	assert.Equal(t, 8, p.CurrentUser().ID)
}

func TestHandleOAuthCallback_MissingToken(t *testing.T) {
	p := NewProvider("sess-1", &mockAuthBackend{}, newMemoryTokenRepository(), zap.NewNop())

	_, err := p.HandleOAuthCallback(context.Background(), "https://tienda.example/auth/callback?next=%2F")
	ve, ok := apperrors.IsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, OAuthTokenParam, ve.Details[0].Field)
}
