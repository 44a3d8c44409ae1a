package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BOHARRY/courtDataAPI-sub002/infrastructure/config"
	"github.com/BOHARRY/courtDataAPI-sub002/pkg/auth"
	apperrors "github.com/BOHARRY/courtDataAPI-sub002/pkg/errors"
)

func echoUser(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(userID))
	})
}

func TestAuthenticate_JWT(t *testing.T) {
	jwtCfg := auth.JWTConfig{SecretKey: "secret", Issuer: "workspace-api"}
	validator, err := auth.NewJWTValidator(jwtCfg)
	require.NoError(t, err)

	valid, err := auth.GenerateToken(jwtCfg, "user-1", time.Minute)
	require.NoError(t, err)
	expired, err := auth.GenerateToken(jwtCfg, "user-1", -time.Minute)
	require.NoError(t, err)
	foreign, err := auth.GenerateToken(auth.JWTConfig{SecretKey: "other", Issuer: "workspace-api"}, "user-1", time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"valid", "Bearer " + valid, http.StatusOK, ""},
		{"lowercase scheme", "bearer " + valid, http.StatusOK, ""},
		{"missing", "", http.StatusUnauthorized, "Missing authorization header"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "Invalid authorization header format"},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, "Token has expired"},
		{"bad signature", "Bearer " + foreign, http.StatusUnauthorized, "Invalid token signature"},
		{"garbage", "Bearer not-a-token", http.StatusUnauthorized, "Invalid token"},
	}

	handler := Authenticate(config.AuthJWT, validator, apperrors.NewErrorHandler(zap.NewNop(), false), zap.NewNop())(echoUser(t))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "user-1", rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), tt.message)
			}
		})
	}
}

func TestAuthenticate_TrustedHeader(t *testing.T) {
	handler := Authenticate(config.AuthTrustedHeader, nil, apperrors.NewErrorHandler(zap.NewNop(), false), zap.NewNop())(echoUser(t))

	t.Run("authorized", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderGatewayAuthorized, "true")
		req.Header.Set(HeaderUserID, "user-9")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-9", rec.Body.String())
	})

	t.Run("not from gateway", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderUserID, "user-9")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("no user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderGatewayAuthorized, "true")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Missing user context")
	})
}
