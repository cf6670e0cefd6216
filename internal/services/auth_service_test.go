package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projectcrm/internal/apperr"
	"projectcrm/internal/authz"
	"projectcrm/internal/models"
)

func TestAuthTokenRoundTrip(t *testing.T) {
	auth := NewAuthService("secret", time.Hour)
	token, exp, err := auth.IssueToken(&models.User{ID: 7, RoleID: authz.RoleManager})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	claims, err := auth.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, authz.RoleManager, claims.RoleID)

	_, err = NewAuthService("other", time.Hour).ParseToken(token)
	assert.Error(t, err)
}

func TestAuthExpiredToken(t *testing.T) {
	auth := NewAuthService("secret", -time.Hour)
	token, _, err := auth.IssueToken(&models.User{ID: 1, RoleID: authz.RoleMember})
	require.NoError(t, err)
	_, err = auth.ParseToken(token)
	assert.Error(t, err)
}

func TestUserAuthenticate(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	auth := NewAuthService("secret", time.Hour)
	users := NewUserService(memUserRepo{st}, auth)

	u := &models.User{FullName: "Ana", Email: "ana@example.com"}
	require.NoError(t, users.CreateUserWithPassword(ctx, u, "s3cret!"))
	assert.Equal(t, authz.RoleMember, u.RoleID)
	assert.NotEqual(t, "s3cret!", u.PasswordHash)

	got, token, err := users.Authenticate(ctx, "ana@example.com", "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NotEmpty(t, token)

	_, _, err = users.Authenticate(ctx, "ana@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = users.Authenticate(ctx, "nobody@example.com", "x")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	err = users.CreateUserWithPassword(ctx, &models.User{FullName: "X", Email: "x@example.com"}, " ")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}
