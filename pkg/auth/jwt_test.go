package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTValidator_ValidateToken(t *testing.T) {
	cfg := JWTConfig{SecretKey: "test-secret", Issuer: "workspace-api", Audience: []string{"workspace-clients"}}
	validator, err := NewJWTValidator(cfg)
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		token, err := GenerateToken(cfg, "user-1", time.Hour)
		require.NoError(t, err)

		claims, err := validator.ValidateToken("Bearer " + token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := GenerateToken(cfg, "user-1", -time.Minute)
		require.NoError(t, err)

		_, err = validator.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := cfg
		other.SecretKey = "other-secret"
		token, err := GenerateToken(other, "user-1", time.Hour)
		require.NoError(t, err)

		_, err = validator.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("wrong audience", func(t *testing.T) {
		other := cfg
		other.Audience = []string{"someone-else"}
		token, err := GenerateToken(other, "user-1", time.Hour)
		require.NoError(t, err)

		_, err = validator.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidClaims)
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := validator.ValidateToken("Bearer ")
		assert.ErrorIs(t, err, ErrMissingToken)
	})
}

func TestNewJWTValidator_RequiresSecret(t *testing.T) {
	_, err := NewJWTValidator(JWTConfig{})
	assert.Error(t, err)
}

func TestUserIDContext(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithUserID(context.Background(), "user-9")
	userID, ok := UserIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "user-9", userID)
}
