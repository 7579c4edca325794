package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohanraja088/simple-chat-app-demo/config"
	"github.com/mohanraja088/simple-chat-app-demo/internal/repository/memory"
	chaterrors "github.com/mohanraja088/simple-chat-app-demo/pkg/errors"
)

func newAuthService() *AuthService {
	store := memory.New().Gateway()
	return NewAuthService(store.Users, &config.Config{JWTSecret: "test-secret", JWTExpiryHours: 1})
}

func TestAuth_SignupLoginMe(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService()

	u, err := svc.Signup(ctx, SignupInput{Name: "Alice", Email: " Alice@Example.com ", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, u.Email, u.Username)
	assert.NotEqual(t, "pw", u.PasswordHash)

	res, err := svc.Login(ctx, "alice@example.com", "pw")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, u.ID, res.User.ID)

	userID, err := svc.UserIDFromToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, userID)

	me, err := svc.Me(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", me.Name)
}

func TestAuth_SignupErrors(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService()

	_, err := svc.Signup(ctx, SignupInput{Email: "nope", Password: "pw"})
	assert.ErrorIs(t, err, chaterrors.ErrInvalidInput)

	_, err = svc.Signup(ctx, SignupInput{Email: "a@b.c"})
	assert.ErrorIs(t, err, chaterrors.ErrInvalidInput)

	_, err = svc.Signup(ctx, SignupInput{Email: "a@b.c", Password: "pw"})
	require.NoError(t, err)
	_, err = svc.Signup(ctx, SignupInput{Email: "A@B.C", Password: "pw"})
	assert.ErrorIs(t, err, chaterrors.ErrAlreadyExists)
	assert.Equal(t, 409, HTTPStatus(err))
}

func TestAuth_LoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService()
	_, err := svc.Signup(ctx, SignupInput{Email: "a@b.c", Password: "pw"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "a@b.c", "wrong")
	assert.ErrorIs(t, err, chaterrors.ErrUnauthorized)

	_, err = svc.Login(ctx, "missing@b.c", "pw")
	assert.ErrorIs(t, err, chaterrors.ErrUnauthorized)
}

func TestAuth_ExpiredAndForeignTokens(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService()
	_, err := svc.Signup(ctx, SignupInput{Email: "a@b.c", Password: "pw"})
	require.NoError(t, err)
	res, err := svc.Login(ctx, "a@b.c", "pw")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.UserIDFromToken(res.Token)
	assert.ErrorIs(t, err, chaterrors.ErrUnauthorized)

	other := NewAuthService(memory.New().Gateway().Users, &config.Config{JWTSecret: "other"})
	_, err = other.UserIDFromToken(res.Token)
	assert.ErrorIs(t, err, chaterrors.ErrUnauthorized)

	_, err = svc.UserIDFromToken("")
	assert.ErrorIs(t, err, chaterrors.ErrUnauthorized)
}
