package services

import (
	"context"
	"testing"

	"noteboard/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeratorLifecycle(t *testing.T) {
	require.NoError(t, db.ConnectTestDB())
	s := NewModeratorService()
	ctx := context.Background()

	moderator, err := s.Register(ctx, " Mod@Example.com ", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, "mod@example.com", moderator.Email)

	// Повторная регистрация того же email запрещена
	_, err = s.Register(ctx, "mod@example.com", "another")
	assert.Error(t, err)

	token, err := s.Login(ctx, "mod@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	got, err := s.CheckToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, moderator.ID, got.ID)

	// Новый логин отзывает старый токен
	token2, err := s.Login(ctx, "mod@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, token, token2)
	_, err = s.CheckToken(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, s.Logout(ctx, token2))
	_, err = s.CheckToken(ctx, token2)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestModeratorLoginWrongPassword(t *testing.T) {
	require.NoError(t, db.ConnectTestDB())
	s := NewModeratorService()
	ctx := context.Background()

	_, err := s.Register(ctx, "mod@example.com", "correct-password")
	require.NoError(t, err)

	_, err = s.Login(ctx, "mod@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Login(ctx, "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
