package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCreateAndJWT(t *testing.T) {
	store := newFakeUserStore()
	svc := NewUserService(store, "test-secret")
	ctx := context.Background()

	user, err := svc.Create(ctx, "Sam")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotEmpty(t, user.Token)

	// The issued token resolves back to the same user.
	userID, err := svc.ValidateJWT(user.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)

	// A token signed with a different secret is rejected.
	other := NewUserService(store, "other-secret")
	_, err = other.ValidateJWT(user.Token)
	assert.Error(t, err)

	_, err = svc.ValidateJWT("not-a-token")
	assert.Error(t, err)
}

func TestUserCreateRequiresName(t *testing.T) {
	svc := NewUserService(newFakeUserStore(), "test-secret")
	_, err := svc.Create(context.Background(), "")
	assert.Error(t, err)
}

func TestUserPushTokenAndArchive(t *testing.T) {
	store := newFakeUserStore()
	svc := NewUserService(store, "test-secret")
	ctx := context.Background()

	user, err := svc.Create(ctx, "Sam")
	require.NoError(t, err)

	token := "device-token"
	require.NoError(t, svc.UpdatePushToken(ctx, user.ID, &token))
	got, err := svc.Get(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PushToken)
	assert.Equal(t, token, *got.PushToken)

	require.NoError(t, svc.UpdatePushToken(ctx, user.ID, nil))
	got, err = svc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, got.PushToken)

	require.NoError(t, svc.Archive(ctx, user.ID))
	got, err = svc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.ArchivedAt)
}
