package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/medora-hq/roster-api/internal/models"
	"github.com/medora-hq/roster-api/pkg/config"
	appErrors "github.com/medora-hq/roster-api/pkg/errors"
)

type mockAuthRepo struct {
	users         map[string]*models.User
	refreshTokens map[string]*models.RefreshToken
	lastLogin     bool
	passwordSet   string
	revokedAll    bool
}

func newMockAuthRepo(users ...*models.User) *mockAuthRepo {
	m := &mockAuthRepo{
		users:         make(map[string]*models.User),
		refreshTokens: make(map[string]*models.RefreshToken),
	}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLogin = true
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	m.passwordSet = passwordHash
	if u, ok := m.users[id]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revokedAll = true
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	rt, ok := m.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rt, nil
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, rt := range m.refreshTokens {
		if rt.ID == id {
			rt.Revoked = true
			rt.RevokedAt = &revokedAt
		}
	}
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Expiration:        time.Hour,
		RefreshExpiration: 24 * time.Hour,
	}
}

func activeUser(t *testing.T, id, email, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           id,
		Email:        email,
		PasswordHash: string(hash),
		FullName:     "Dr Test",
		Role:         models.RoleDoctor,
		Nationality:  models.NationalitySaudi,
		Active:       true,
	}
}

func TestAuthLoginSuccess(t *testing.T) {
	repo := newMockAuthRepo(activeUser(t, "u1", "doc@example.com", "secret123"))
	audit := &recordingAuditor{}
	svc := NewAuthService(repo, audit, nil, testJWTConfig(), "roster-api", zap.NewNop())

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "doc@example.com", Password: "secret123", IP: "10.0.0.1"})
	require.NoError(t, err)

	require.NotEmpty(t, res.AccessToken)
	require.NotEmpty(t, res.RefreshToken)
	require.Equal(t, int64(3600), res.ExpiresIn)
	require.Equal(t, "u1", res.User.ID)
	require.Equal(t, models.NationalitySaudi, res.User.Nationality)
	require.True(t, repo.lastLogin)
	require.Len(t, repo.refreshTokens, 1)

	require.Len(t, audit.entries, 1)
	require.Equal(t, models.AuditActionLogin, audit.entries[0].Action)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "u1", claims.UserID)
	require.Equal(t, models.RoleDoctor, claims.Role)
}

func TestAuthLoginWrongPassword(t *testing.T) {
	repo := newMockAuthRepo(activeUser(t, "u1", "doc@example.com", "secret123"))
	svc := NewAuthService(repo, nil, nil, testJWTConfig(), "", zap.NewNop())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "doc@example.com", Password: "wrong"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthLoginUnknownEmail(t *testing.T) {
	repo := newMockAuthRepo()
	svc := NewAuthService(repo, nil, nil, testJWTConfig(), "", zap.NewNop())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@example.com", Password: "whatever"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthLoginInactiveAccount(t *testing.T) {
	user := activeUser(t, "u1", "doc@example.com", "secret123")
	user.Active = false
	repo := newMockAuthRepo(user)
	svc := NewAuthService(repo, nil, nil, testJWTConfig(), "", zap.NewNop())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "doc@example.com", Password: "secret123"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthRefreshRotatesToken(t *testing.T) {
	repo := newMockAuthRepo(activeUser(t, "u1", "doc@example.com", "secret123"))
	svc := NewAuthService(repo, nil, nil, testJWTConfig(), "", zap.NewNop())

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "doc@example.com", Password: "secret123"})
	require.NoError(t, err)

	res, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)
	require.NotEqual(t, login.RefreshToken, res.RefreshToken)

	// The used token is revoked; a second exchange must fail.
	require.True(t, repo.refreshTokens[login.RefreshToken].Revoked)
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthRefreshExpiredToken(t *testing.T) {
	repo := newMockAuthRepo(activeUser(t, "u1", "doc@example.com", "secret123"))
	repo.refreshTokens["stale"] = &models.RefreshToken{
		ID:        "rt1",
		UserID:    "u1",
		Token:     "stale",
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	}
	svc := NewAuthService(repo, nil, nil, testJWTConfig(), "", zap.NewNop())

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "stale"})
	require.Error(t, err)
	require.Equal(t, "refresh token is expired or revoked", appErrors.FromError(err).Message)
}

func TestAuthLogout(t *testing.T) {
	repo := newMockAuthRepo(activeUser(t, "u1", "doc@example.com", "secret123"))
	audit := &recordingAuditor{}
	svc := NewAuthService(repo, audit, nil, testJWTConfig(), "", zap.NewNop())

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "doc@example.com", Password: "secret123"})
	require.NoError(t, err)

	// A different user cannot revoke someone else's session.
	err = svc.Logout(context.Background(), login.RefreshToken, "u2", "", "")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Logout(context.Background(), login.RefreshToken, "u1", "10.0.0.1", "cli"))
	require.True(t, repo.refreshTokens[login.RefreshToken].Revoked)
	require.Equal(t, models.AuditActionLogout, audit.entries[len(audit.entries)-1].Action)
}

func TestAuthChangePassword(t *testing.T) {
	repo := newMockAuthRepo(activeUser(t, "u1", "doc@example.com", "secret123"))
	svc := NewAuthService(repo, nil, nil, testJWTConfig(), "", zap.NewNop())

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{OldPassword: "nope", NewPassword: "newsecret"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{OldPassword: "secret123", NewPassword: "newsecret"}))
	require.NotEmpty(t, repo.passwordSet)
	require.True(t, repo.revokedAll)

	// Old password no longer works, new one does.
	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "doc@example.com", Password: "secret123"})
	require.Error(t, err)
	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "doc@example.com", Password: "newsecret"})
	require.NoError(t, err)
}

func TestAuthValidateTokenRejectsTampering(t *testing.T) {
	repo := newMockAuthRepo(activeUser(t, "u1", "doc@example.com", "secret123"))
	svc := NewAuthService(repo, nil, nil, testJWTConfig(), "", zap.NewNop())

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "doc@example.com", Password: "secret123"})
	require.NoError(t, err)

	other := NewAuthService(repo, nil, nil, config.JWTConfig{Secret: "other-secret", Expiration: time.Hour, RefreshExpiration: time.Hour}, "", zap.NewNop())
	_, err = other.ValidateToken(login.AccessToken)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthMe(t *testing.T) {
	repo := newMockAuthRepo(activeUser(t, "u1", "doc@example.com", "secret123"))
	svc := NewAuthService(repo, nil, nil, testJWTConfig(), "", zap.NewNop())

	info, err := svc.Me(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, "doc@example.com", info.Email)
	require.Equal(t, models.RoleDoctor, info.Role)
	require.Equal(t, models.NationalitySaudi, info.Nationality)

	_, err = svc.Me(context.Background(), "ghost")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
