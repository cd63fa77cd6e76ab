package services

import (
	"context"
	"testing"
	"time"

	"lovebox-backend/internal/apperr"
	"lovebox-backend/internal/models"
	"lovebox-backend/internal/permission"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, permission.Policy{})

	user, err := f.users.Register(ctx, RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct horse",
		FullName: "Alice",
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, []string{models.RoleUser}, user.Roles)
	assert.NotEqual(t, "correct horse", user.PasswordHash)

	_, err = f.users.Register(ctx, RegisterInput{Username: "alice", Email: "x@example.com", Password: "pw123456"})
	assert.ErrorIs(t, err, apperr.ErrConflict)
	_, err = f.users.Register(ctx, RegisterInput{Username: "bob", Email: "alice@example.com", Password: "pw123456"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	for _, login := range []string{"alice", "alice@example.com"} {
		token, got, err := f.users.Authenticate(ctx, login, "correct horse")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)

		principal, err := f.users.ValidateJWT(token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, principal.UserID)
		assert.True(t, principal.HasRole(models.RoleUser))
	}

	_, _, err = f.users.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, _, err = f.users.Authenticate(ctx, "nobody", "wrong")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestValidateJWTRejectsBadTokens(t *testing.T) {
	f := newFixture(t, permission.Policy{})

	_, err := f.users.ValidateJWT("not-a-token")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	other := NewUserService(nil, nil, nil, UserServiceConfig{JWTSecret: "other-secret"})
	foreign, err := other.GenerateJWT(&models.User{ID: 7, Roles: []string{models.RoleUser}})
	require.NoError(t, err)
	_, err = f.users.ValidateJWT(foreign)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: 7,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	signed, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = f.users.ValidateJWT(signed)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestFollowOrUnfollowToggles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, permission.Policy{})
	f.seedUsers(t, 1, 2)

	_, err := f.users.FollowOrUnfollow(ctx, 1, 1)
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
	_, err = f.users.FollowOrUnfollow(ctx, 1, 404)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	following, err := f.users.FollowOrUnfollow(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, following)

	is, err := f.users.IsFollowing(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, is)
	is, err = f.users.IsFollowing(ctx, 2, 1)
	require.NoError(t, err)
	assert.False(t, is)

	followers, err := f.users.GetFollowers(ctx, 2, 0, 20)
	require.NoError(t, err)
	require.Len(t, followers.Content, 1)
	assert.Equal(t, int64(1), followers.Content[0].ID)

	followingPage, err := f.users.GetFollowing(ctx, 1, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPageSize, followingPage.Size)
	assert.Len(t, followingPage.Content, 1)

	following, err = f.users.FollowOrUnfollow(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, following)
}

func TestPagedLookupsValidatePage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, permission.Policy{})
	f.seedUsers(t, 1)

	_, err := f.users.FindUsers(ctx, "user", 0, 101)
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
	_, err = f.users.FindUsers(ctx, "user", -1, 20)
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
	_, err = f.users.GetFollowing(ctx, 1, 0, 101)
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
	_, err = f.users.GetFollowers(ctx, 1, -1, 20)
	assert.ErrorIs(t, err, apperr.ErrBadRequest)

	found, err := f.users.FindUsers(ctx, "USER", 0, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(1), found.TotalElements)
}

func TestGetBffPair(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, permission.Policy{})
	f.seedUsers(t, 1, 2, 3)
	seeded := f.seedPair(t, 1, 2)

	pair, err := f.users.GetBffPair(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, pair)
	assert.Equal(t, seeded.ID, pair.ID)

	pair, err = f.users.GetBffPair(ctx, 3)
	require.NoError(t, err)
	assert.Nil(t, pair)
}

func TestAvailabilityAndPushToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, permission.Policy{})
	f.seedUsers(t, 1)

	free, err := f.users.CheckUsernameAvailability(ctx, "user1")
	require.NoError(t, err)
	assert.False(t, free)
	free, err = f.users.CheckEmailAvailability(ctx, "new@example.com")
	require.NoError(t, err)
	assert.True(t, free)

	require.NoError(t, f.users.UpdatePushToken(ctx, 1, "device-token"))
	user, err := f.users.GetUserByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, user.PushToken)
	assert.Equal(t, "device-token", *user.PushToken)

	require.NoError(t, f.users.UpdatePushToken(ctx, 1, ""))
	user, err = f.users.GetUserByID(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, user.PushToken)

	assert.ErrorIs(t, f.users.UpdatePushToken(ctx, 404, "x"), apperr.ErrNotFound)
}

func TestGetUsersByIDs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, permission.Policy{})
	f.seedUsers(t, 1, 2)

	users, err := f.users.GetUsersByIDs(ctx, []int64{1, 2, 2, 404})
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, "user2", users[2].Username)
}
