package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fathussalafi/yayasan-api/internal/models"
	appErrors "github.com/fathussalafi/yayasan-api/pkg/errors"
)

type mockAuthRepo struct {
	userByEmail         *models.User
	userByID            *models.User
	findByEmailErr      error
	findByIDErr         error
	refreshTokens       map[string]*models.RefreshToken
	refreshTokenErr     error
	createRefreshErr    error
	revokeRefreshErr    error
	revokeUserTokensErr error
	updatePasswordErr   error
	created             []*models.User
	lastLoginUpdated    bool
	revokedAll          bool
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findByEmailErr != nil {
		return nil, m.findByEmailErr
	}
	if m.userByEmail == nil {
		return nil, sql.ErrNoRows
	}
	return m.userByEmail, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.findByIDErr != nil {
		return nil, m.findByIDErr
	}
	if m.userByID != nil {
		return m.userByID, nil
	}
	if m.userByEmail == nil {
		return nil, sql.ErrNoRows
	}
	return m.userByEmail, nil
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = "new-user"
	m.created = append(m.created, user)
	return nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if m.updatePasswordErr != nil {
		return m.updatePasswordErr
	}
	if m.userByEmail != nil && m.userByEmail.ID == id {
		m.userByEmail.PasswordHash = passwordHash
	}
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revokedAll = true
	return m.revokeUserTokensErr
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if m.createRefreshErr != nil {
		return m.createRefreshErr
	}
	if m.refreshTokens == nil {
		m.refreshTokens = make(map[string]*models.RefreshToken)
	}
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if m.refreshTokenErr != nil {
		return nil, m.refreshTokenErr
	}
	rt, ok := m.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rt, nil
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	if m.revokeRefreshErr != nil {
		return m.revokeRefreshErr
	}
	for _, token := range m.refreshTokens {
		if token.ID == id {
			token.Revoked = true
			token.RevokedAt = &revokedAt
		}
	}
	return nil
}

type mockAuditWriter struct {
	logs []*models.AuditLog
}

func (m *mockAuditWriter) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.logs = append(m.logs, log)
	return nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour, RefreshTokenExpiry: 24 * time.Hour, Issuer: "yayasan-api"}
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "123", Email: "admin@fathussalafi.sch.id", PasswordHash: hashed(t, "password"), Active: true, Role: models.RoleAdmin}}
	audit := &mockAuditWriter{}
	svc := NewAuthService(repo, audit, nil, zap.NewNop(), testAuthConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@fathussalafi.sch.id", Password: "password"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.Equal(t, models.RoleAdmin, res.User.Role)
	assert.True(t, repo.lastLoginUpdated)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionLogin, audit.logs[0].Action)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "123", PasswordHash: hashed(t, "password"), Active: true}}
	svc := NewAuthService(repo, nil, nil, zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@fathussalafi.sch.id", Password: "nope"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	svc := NewAuthService(&mockAuthRepo{}, nil, nil, zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@example.com", Password: "x"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestAuthServiceLoginInactive(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "123", PasswordHash: hashed(t, "password"), Active: false}}
	svc := NewAuthService(repo, nil, nil, zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@fathussalafi.sch.id", Password: "password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginValidation(t *testing.T) {
	svc := NewAuthService(&mockAuthRepo{}, nil, nil, zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email"})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Details, "email")
	assert.Contains(t, appErr.Details, "password")
}

func TestAuthServiceSingleSessionRevokesPrevious(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "123", PasswordHash: hashed(t, "password"), Active: true}}
	cfg := testAuthConfig()
	cfg.SingleSession = true
	svc := NewAuthService(repo, nil, nil, zap.NewNop(), cfg)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@fathussalafi.sch.id", Password: "password"})
	require.NoError(t, err)
	assert.True(t, repo.revokedAll)
}

func TestAuthServiceRefreshToken(t *testing.T) {
	repo := &mockAuthRepo{refreshTokens: make(map[string]*models.RefreshToken)}
	user := &models.User{ID: "u1", Email: "admin@fathussalafi.sch.id", Active: true, Role: models.RoleAdmin}
	repo.userByID = user
	token := &models.RefreshToken{ID: "rt1", UserID: user.ID, Token: "token", ExpiresAt: time.Now().Add(time.Hour)}
	repo.refreshTokens[token.Token] = token

	svc := NewAuthService(repo, nil, nil, zap.NewNop(), testAuthConfig())

	res, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "token"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEqual(t, "token", res.RefreshToken)
	assert.True(t, repo.refreshTokens["token"].Revoked)

	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "token"})
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceRefreshExpired(t *testing.T) {
	repo := &mockAuthRepo{refreshTokens: map[string]*models.RefreshToken{
		"old": {ID: "rt1", UserID: "u1", Token: "old", ExpiresAt: time.Now().Add(-time.Minute)},
	}}
	svc := NewAuthService(repo, nil, nil, zap.NewNop(), testAuthConfig())

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old"})
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceLogoutForeignToken(t *testing.T) {
	repo := &mockAuthRepo{refreshTokens: map[string]*models.RefreshToken{
		"t": {ID: "rt1", UserID: "owner", Token: "t", ExpiresAt: time.Now().Add(time.Hour)},
	}}
	svc := NewAuthService(repo, nil, nil, zap.NewNop(), testAuthConfig())

	err := svc.Logout(context.Background(), "intruder", models.LogoutRequest{RefreshToken: "t"}, "", "")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.False(t, repo.refreshTokens["t"].Revoked)

	require.NoError(t, svc.Logout(context.Background(), "owner", models.LogoutRequest{RefreshToken: "t"}, "", ""))
	assert.True(t, repo.refreshTokens["t"].Revoked)
}

func TestAuthServiceChangePassword(t *testing.T) {
	oldHash := hashed(t, "old-password")
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "u1", PasswordHash: oldHash, Active: true}}
	svc := NewAuthService(repo, nil, nil, zap.NewNop(), testAuthConfig())

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "newpassword"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	err = svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{OldPassword: "old-password", NewPassword: "newpassword"})
	require.NoError(t, err)
	assert.NotEqual(t, oldHash, repo.userByEmail.PasswordHash)
	assert.True(t, repo.revokedAll)
}

func TestAuthServiceMe(t *testing.T) {
	repo := &mockAuthRepo{userByID: &models.User{ID: "u1", Email: "staff@fathussalafi.sch.id", FullName: "Staf", Role: models.RoleStaff}}
	svc := NewAuthService(repo, nil, nil, zap.NewNop(), testAuthConfig())

	info, err := svc.Me(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStaff, info.Role)
}

func TestAuthServiceCreateUser(t *testing.T) {
	repo := &mockAuthRepo{}
	svc := NewAuthService(repo, nil, nil, zap.NewNop(), testAuthConfig())

	user, err := svc.CreateUser(context.Background(), models.CreateUserRequest{
		Email: " Admin@FathusSalafi.sch.id ", FullName: "Admin", Password: "rahasia123", Role: models.RoleSuperAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, "admin@fathussalafi.sch.id", user.Email)
	assert.True(t, user.Active)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("rahasia123")))
}

func TestAuthServiceCreateUserRejectsDuplicatesAndRoles(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "u1"}}
	svc := NewAuthService(repo, nil, nil, zap.NewNop(), testAuthConfig())

	_, err := svc.CreateUser(context.Background(), models.CreateUserRequest{Email: "a@b.id", FullName: "A", Password: "rahasia123", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = svc.CreateUser(context.Background(), models.CreateUserRequest{Email: "a@b.id", FullName: "A", Password: "rahasia123", Role: "GURU"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestValidateToken(t *testing.T) {
	svc := NewAuthService(&mockAuthRepo{}, nil, nil, zap.NewNop(), testAuthConfig())
	user := &models.User{ID: "u1", Email: "admin@fathussalafi.sch.id", Role: models.RoleAdmin}
	token, _, err := svc.generateAccessToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	other := NewAuthService(&mockAuthRepo{}, nil, nil, zap.NewNop(), AuthConfig{AccessTokenSecret: "different", AccessTokenExpiry: time.Hour})
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
