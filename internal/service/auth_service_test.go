package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/opencampus/registrar-api/internal/models"
	"github.com/opencampus/registrar-api/pkg/config"
	appErrors "github.com/opencampus/registrar-api/pkg/errors"
)

type mockUserStore struct {
	users   map[string]*models.User
	tokens  map[string]*models.RefreshToken
	revoked []string
}

func (m *mockUserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserStore) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (m *mockUserStore) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if u, ok := m.users[id]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

func (m *mockUserStore) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if m.tokens == nil {
		m.tokens = make(map[string]*models.RefreshToken)
	}
	m.tokens[token.Token] = token
	return nil
}

func (m *mockUserStore) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := m.tokens[token]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserStore) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, t := range m.tokens {
		if t.ID == id {
			t.Revoked = true
			t.RevokedAt = &revokedAt
		}
	}
	m.revoked = append(m.revoked, id)
	return nil
}

func (m *mockUserStore) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	for _, t := range m.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	m.revoked = append(m.revoked, userID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Expiration:        time.Hour,
		RefreshExpiration: 24 * time.Hour,
		Issuer:            "registrar-test",
	}
}

func seededUserStore(t *testing.T) *mockUserStore {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	studentID := "s1"
	return &mockUserStore{users: map[string]*models.User{
		"u1": {ID: "u1", Username: "alice", PasswordHash: string(hash), Role: models.RoleStudent, StudentID: &studentID, Active: true},
	}}
}

func TestAuthServiceLogin(t *testing.T) {
	store := seededUserStore(t)
	svc := NewAuthService(store, testJWTConfig(), validator.New(), zap.NewNop())

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "correct horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, models.RoleStudent, resp.User.Role)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	require.NotNil(t, claims.StudentID)
	assert.Equal(t, "s1", *claims.StudentID)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	store := seededUserStore(t)
	svc := NewAuthService(store, testJWTConfig(), validator.New(), zap.NewNop())

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "wrong"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)

	// unknown user yields the same code
	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "bob", Password: "wrong"})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthServiceRefreshRotates(t *testing.T) {
	store := seededUserStore(t)
	svc := NewAuthService(store, testJWTConfig(), validator.New(), zap.NewNop())

	login, err := svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "correct horse"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// the old token is spent
	_, err = svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestAuthServiceChangePassword(t *testing.T) {
	store := seededUserStore(t)
	svc := NewAuthService(store, testJWTConfig(), validator.New(), zap.NewNop())

	actor := &models.JWTClaims{UserID: "u1", Role: models.RoleStudent}
	err := svc.ChangePassword(context.Background(), actor, models.ChangePasswordRequest{
		OldPassword: "correct horse", NewPassword: "battery staple",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "correct horse"})
	require.Error(t, err)
	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "battery staple"})
	require.NoError(t, err)
}

func TestAuthServiceChangePasswordWrongOld(t *testing.T) {
	store := seededUserStore(t)
	svc := NewAuthService(store, testJWTConfig(), validator.New(), zap.NewNop())

	actor := &models.JWTClaims{UserID: "u1", Role: models.RoleStudent}
	err := svc.ChangePassword(context.Background(), actor, models.ChangePasswordRequest{
		OldPassword: "wrong", NewPassword: "battery staple",
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthServiceInactiveAccount(t *testing.T) {
	store := seededUserStore(t)
	store.users["u1"].Active = false
	svc := NewAuthService(store, testJWTConfig(), validator.New(), zap.NewNop())

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "correct horse"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErr.Code)
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewAuthService(&mockUserStore{}, testJWTConfig(), validator.New(), zap.NewNop())

	_, err := svc.ValidateToken("not-a-token")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}
