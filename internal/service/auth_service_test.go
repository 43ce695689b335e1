package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/meetsync/meetsync-api/internal/models"
	appErrors "github.com/meetsync/meetsync-api/pkg/errors"
)

type mockAuthRepo struct {
	users     map[string]*models.User
	tokens    map[string]*models.RefreshToken
	auditLogs []*models.AuditLog
}

func newMockAuthRepo() *mockAuthRepo {
	return &mockAuthRepo{
		users:  make(map[string]*models.User),
		tokens: make(map[string]*models.RefreshToken),
	}
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "u-new"
	}
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	if u, ok := m.users[id]; ok {
		u.LastLogin = &ts
	}
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if u, ok := m.users[id]; ok {
		u.PasswordHash = passwordHash
		return nil
	}
	return sql.ErrNoRows
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	for _, tok := range m.tokens {
		if tok.UserID == userID {
			tok.Revoked = true
		}
	}
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	copy := *token
	m.tokens[token.Token] = &copy
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if tok, ok := m.tokens[token]; ok {
		copy := *tok
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, tok := range m.tokens {
		if tok.ID == id {
			tok.Revoked = true
			tok.RevokedAt = &revokedAt
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func newAuthFixture(repo *mockAuthRepo) *AuthService {
	return NewAuthService(repo, nil, nil, AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "meetsync-test",
	})
}

func seedUser(t *testing.T, repo *mockAuthRepo, id, email, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{ID: id, Email: email, PasswordHash: string(hash), FullName: "Seed User", Active: true}
	repo.users[id] = user
	return user
}

func TestRegister(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthFixture(repo)

	res, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "  New@Example.com ",
		Password: "secret1",
		FullName: "New User",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, "new@example.com", res.User.Email)

	stored, err := repo.FindByEmail(context.Background(), "new@example.com")
	require.NoError(t, err)
	assert.True(t, stored.Active)
	assert.True(t, stored.MeetingReminders)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(t, repo, "u1", "taken@example.com", "secret1")
	svc := newAuthFixture(repo)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "taken@example.com",
		Password: "secret1",
		FullName: "Other",
	})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", appErrors.FromError(err).Code)
}

func TestLogin(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(t, repo, "u1", "user@example.com", "secret1")
	svc := newAuthFixture(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(t, repo, "u1", "user@example.com", "secret1")
	svc := newAuthFixture(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, "INVALID_CREDENTIALS", appErrors.FromError(err).Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	repo := newMockAuthRepo()
	user := seedUser(t, repo, "u1", "user@example.com", "secret1")
	user.Active = false
	svc := newAuthFixture(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "secret1"})
	require.Error(t, err)
	assert.Equal(t, "ACCOUNT_INACTIVE", appErrors.FromError(err).Code)
}

func TestRefreshTokenRotation(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(t, repo, "u1", "user@example.com", "secret1")
	svc := newAuthFixture(repo)

	session, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "secret1"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: session.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, session.RefreshToken, refreshed.RefreshToken)

	// The spent token cannot be replayed.
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: session.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", appErrors.FromError(err).Code)
}

func TestRefreshTokenExpired(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(t, repo, "u1", "user@example.com", "secret1")
	repo.tokens["old"] = &models.RefreshToken{ID: "t1", UserID: "u1", Token: "old", ExpiresAt: time.Now().Add(-time.Hour)}
	svc := newAuthFixture(repo)

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old"})
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", appErrors.FromError(err).Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(t, repo, "u1", "user@example.com", "secret1")
	svc := newAuthFixture(repo)

	session, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "secret1"})
	require.NoError(t, err)

	err = svc.Logout(context.Background(), session.RefreshToken, "u1", models.LoginRequest{})
	require.NoError(t, err)
	assert.True(t, repo.tokens[session.RefreshToken].Revoked)
}

func TestLogoutForeignToken(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(t, repo, "u1", "user@example.com", "secret1")
	repo.tokens["other"] = &models.RefreshToken{ID: "t1", UserID: "u2", Token: "other", ExpiresAt: time.Now().Add(time.Hour)}
	svc := newAuthFixture(repo)

	err := svc.Logout(context.Background(), "other", "u1", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", appErrors.FromError(err).Code)
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(t, repo, "u1", "user@example.com", "secret1")
	svc := newAuthFixture(repo)

	session, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "secret1"})
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{OldPassword: "secret1", NewPassword: "secret2"})
	require.NoError(t, err)
	assert.True(t, repo.tokens[session.RefreshToken].Revoked)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "secret2"})
	require.NoError(t, err)
}

func TestChangePasswordWrongOld(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(t, repo, "u1", "user@example.com", "secret1")
	svc := newAuthFixture(repo)

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "secret2"})
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthFixture(repo)

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", appErrors.FromError(err).Code)
}
