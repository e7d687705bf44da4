package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/conghuan0502/planzaa-api/internal/models"
	appErrors "github.com/conghuan0502/planzaa-api/pkg/errors"
)

type stubUserRepo struct {
	byEmail map[string]*models.User
	byID    map[string]*models.User

	createErr error
	prefsErr  error
	tokenErr  error

	lastPushToken string
	lastReminders bool
	lastPush      bool
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		byEmail: make(map[string]*models.User),
		byID:    make(map[string]*models.User),
	}
}

func (r *stubUserRepo) add(u *models.User) {
	r.byEmail[u.Email] = u
	r.byID[u.ID] = u
}

func (r *stubUserRepo) Create(_ context.Context, user *models.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	user.ID = "user-1"
	r.add(user)
	return nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := r.byEmail[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := r.byID[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (r *stubUserRepo) UpdateNotificationPrefs(_ context.Context, id string, remindersEnabled, pushEnabled bool) error {
	if r.prefsErr != nil {
		return r.prefsErr
	}
	if _, ok := r.byID[id]; !ok {
		return sql.ErrNoRows
	}
	r.lastReminders = remindersEnabled
	r.lastPush = pushEnabled
	return nil
}

func (r *stubUserRepo) SetPushToken(_ context.Context, id, token string) error {
	if r.tokenErr != nil {
		return r.tokenErr
	}
	if _, ok := r.byID[id]; !ok {
		return sql.ErrNoRows
	}
	r.lastPushToken = token
	return nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{Secret: "test-secret", Expiration: time.Hour, Issuer: "planzaa-test"}
}

func TestRegisterDefaultsNotificationPrefsOn(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	info, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "Ana@Example.com",
		Password: "s3cret-pass",
		FullName: "Ana",
	})
	require.NoError(t, err)

	assert.Equal(t, "ana@example.com", info.Email)
	assert.True(t, info.RemindersEnabled)
	assert.True(t, info.PushEnabled)
	assert.False(t, info.HasPushToken)

	stored := repo.byEmail["ana@example.com"]
	require.NotNil(t, stored)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret-pass")))
}

func TestRegisterRejectsTakenEmail(t *testing.T) {
	repo := newStubUserRepo()
	repo.add(&models.User{ID: "user-1", Email: "ana@example.com"})
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "ana@example.com",
		Password: "s3cret-pass",
		FullName: "Ana",
	})
	assert.ErrorIs(t, err, appErrors.ErrEmailTaken)
}

func TestLoginIssuesValidToken(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := newStubUserRepo()
	repo.add(&models.User{ID: "user-1", Email: "ana@example.com", PasswordHash: string(hash), FullName: "Ana"})
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "ana@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ana@example.com", claims.Email)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := newStubUserRepo()
	repo.add(&models.User{ID: "user-1", Email: "ana@example.com", PasswordHash: string(hash)})
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "ana@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestLoginUnknownEmailMapsToInvalidCredentials(t *testing.T) {
	svc := NewAuthService(newStubUserRepo(), nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.com", Password: "whatever1"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestValidateTokenRejectsForgedSecret(t *testing.T) {
	repo := newStubUserRepo()
	hash, _ := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	repo.add(&models.User{ID: "user-1", Email: "ana@example.com", PasswordHash: string(hash)})

	issuer := NewAuthService(repo, nil, nil, AuthConfig{Secret: "other-secret", Expiration: time.Hour})
	resp, err := issuer.Login(context.Background(), models.LoginRequest{Email: "ana@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	verifier := NewAuthService(repo, nil, nil, testAuthConfig())
	_, err = verifier.ValidateToken(resp.AccessToken)
	assert.Error(t, err)
}

func TestUpdateNotificationPrefsPartialPatch(t *testing.T) {
	repo := newStubUserRepo()
	repo.add(&models.User{ID: "user-1", Email: "ana@example.com", RemindersEnabled: true, PushEnabled: true})
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	off := false
	info, err := svc.UpdateNotificationPrefs(context.Background(), "user-1", models.UpdateNotificationPrefsRequest{
		RemindersEnabled: &off,
	})
	require.NoError(t, err)

	assert.False(t, info.RemindersEnabled)
	assert.True(t, info.PushEnabled, "unspecified field keeps its current value")
	assert.False(t, repo.lastReminders)
	assert.True(t, repo.lastPush)
}

func TestSetPushToken(t *testing.T) {
	repo := newStubUserRepo()
	repo.add(&models.User{ID: "user-1", Email: "ana@example.com"})
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	err := svc.SetPushToken(context.Background(), "user-1", models.SetPushTokenRequest{PushToken: "  ExponentPushToken[abc]  "})
	require.NoError(t, err)
	assert.Equal(t, "ExponentPushToken[abc]", repo.lastPushToken)

	err = svc.SetPushToken(context.Background(), "missing", models.SetPushTokenRequest{PushToken: "tok"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
