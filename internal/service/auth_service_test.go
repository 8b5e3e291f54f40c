package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/lingomarket/lingomarket-api/internal/models"
	appErrors "github.com/lingomarket/lingomarket-api/pkg/errors"
)

type fakeAuthRepo struct {
	usersByEmail map[string]*models.User
	usersByID    map[string]*models.User
	tokens       map[string]*models.RefreshToken

	created       []*models.User
	revokedTokens []string
	passwordSets  int
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{
		usersByEmail: make(map[string]*models.User),
		usersByID:    make(map[string]*models.User),
		tokens:       make(map[string]*models.RefreshToken),
	}
}

func (f *fakeAuthRepo) add(user *models.User) {
	f.usersByEmail[user.Email] = user
	f.usersByID[user.ID] = user
}

func (f *fakeAuthRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if user, ok := f.usersByEmail[email]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	if user, ok := f.usersByID[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthRepo) Create(_ context.Context, user *models.User) error {
	f.created = append(f.created, user)
	f.add(user)
	return nil
}

func (f *fakeAuthRepo) UpdateLastLogin(_ context.Context, _ string, _ time.Time) error {
	return nil
}

func (f *fakeAuthRepo) UpdatePassword(_ context.Context, id, hash string, _ time.Time) error {
	f.passwordSets++
	if user, ok := f.usersByID[id]; ok {
		user.PasswordHash = hash
	}
	return nil
}

func (f *fakeAuthRepo) RevokeUserRefreshTokens(_ context.Context, userID string) error {
	for _, token := range f.tokens {
		if token.UserID == userID {
			token.Revoked = true
		}
	}
	return nil
}

func (f *fakeAuthRepo) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	f.tokens[token.Token] = token
	return nil
}

func (f *fakeAuthRepo) FindRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	if stored, ok := f.tokens[token]; ok {
		return stored, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthRepo) RevokeRefreshToken(_ context.Context, id string, _ time.Time) error {
	f.revokedTokens = append(f.revokedTokens, id)
	for _, token := range f.tokens {
		if token.ID == id {
			token.Revoked = true
		}
	}
	return nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "lingomarket-test",
	}
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestRegisterIssuesTokens(t *testing.T) {
	repo := newFakeAuthRepo()
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	resp, err := svc.Register(context.Background(), models.RegisterRequest{
		FullName: "Ana Silva",
		Email:    "Ana@Example.com",
		Password: "supersecret",
		Role:     "trainer",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, models.RoleTrainer, resp.User.Role)

	require.Len(t, repo.created, 1)
	created := repo.created[0]
	assert.Equal(t, "ana@example.com", created.Email)
	assert.True(t, created.Active)
	assert.Equal(t, 25.0, created.HourlyRate)
	assert.NotEqual(t, "supersecret", created.PasswordHash)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	repo := newFakeAuthRepo()
	repo.add(&models.User{ID: "u1", Email: "taken@example.com"})
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		FullName: "Someone Else",
		Email:    "taken@example.com",
		Password: "supersecret",
		Role:     "student",
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}

func TestLoginSucceedsWithValidCredentials(t *testing.T) {
	repo := newFakeAuthRepo()
	repo.add(&models.User{
		ID:           "u1",
		Email:        "ana@example.com",
		PasswordHash: hashPassword(t, "supersecret"),
		FullName:     "Ana Silva",
		Role:         models.RoleStudent,
		Active:       true,
	})
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "ANA@example.com",
		Password: "supersecret",
	})

	require.NoError(t, err)
	assert.Equal(t, "u1", resp.User.ID)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	repo := newFakeAuthRepo()
	repo.add(&models.User{
		ID:           "u1",
		Email:        "ana@example.com",
		PasswordHash: hashPassword(t, "supersecret"),
		Active:       true,
	})
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "ana@example.com",
		Password: "wrong-password",
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	repo := newFakeAuthRepo()
	repo.add(&models.User{
		ID:           "u1",
		Email:        "ana@example.com",
		PasswordHash: hashPassword(t, "supersecret"),
		Active:       false,
	})
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "ana@example.com",
		Password: "supersecret",
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestRefreshRotatesToken(t *testing.T) {
	repo := newFakeAuthRepo()
	repo.add(&models.User{ID: "u1", Email: "ana@example.com", Role: models.RoleStudent, Active: true})
	repo.tokens["old-token"] = &models.RefreshToken{
		ID:        "rt1",
		UserID:    "u1",
		Token:     "old-token",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	resp, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old-token"})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEqual(t, "old-token", resp.RefreshToken)
	assert.Contains(t, repo.revokedTokens, "rt1")
}

func TestRefreshRejectsExpiredToken(t *testing.T) {
	repo := newFakeAuthRepo()
	repo.add(&models.User{ID: "u1", Email: "ana@example.com", Active: true})
	repo.tokens["stale"] = &models.RefreshToken{
		ID:        "rt1",
		UserID:    "u1",
		Token:     "stale",
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "stale"})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestLogoutRejectsForeignToken(t *testing.T) {
	repo := newFakeAuthRepo()
	repo.tokens["token"] = &models.RefreshToken{
		ID:        "rt1",
		UserID:    "owner",
		Token:     "token",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	err := svc.Logout(context.Background(), "token", "intruder")

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.revokedTokens)
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	repo := newFakeAuthRepo()
	repo.add(&models.User{
		ID:           "u1",
		Email:        "ana@example.com",
		PasswordHash: hashPassword(t, "old-password"),
		Active:       true,
	})
	repo.tokens["token"] = &models.RefreshToken{ID: "rt1", UserID: "u1", Token: "token"}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{
		OldPassword: "old-password",
		NewPassword: "new-password-123",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, repo.passwordSets)
	assert.True(t, repo.tokens["token"].Revoked)
}

func TestChangePasswordRejectsWrongOldPassword(t *testing.T) {
	repo := newFakeAuthRepo()
	repo.add(&models.User{
		ID:           "u1",
		Email:        "ana@example.com",
		PasswordHash: hashPassword(t, "old-password"),
	})
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{
		OldPassword: "not-the-password",
		NewPassword: "new-password-123",
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Zero(t, repo.passwordSets)
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	repo := newFakeAuthRepo()
	repo.add(&models.User{ID: "u1", Email: "ana@example.com", Role: models.RoleStudent, Active: true})

	issuer := NewAuthService(repo, nil, nil, AuthConfig{
		AccessTokenSecret:  "other-secret",
		AccessTokenExpiry:  time.Minute,
		RefreshTokenExpiry: time.Hour,
	})
	resp, err := issuer.issueTokens(context.Background(), repo.usersByID["u1"], "", "")
	require.NoError(t, err)

	svc := NewAuthService(repo, nil, nil, testAuthConfig())
	_, err = svc.ValidateToken(resp.AccessToken)

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
