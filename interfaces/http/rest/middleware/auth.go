package middleware

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/BOHARRY/courtDataAPI-sub002/infrastructure/config"
	"github.com/BOHARRY/courtDataAPI-sub002/pkg/auth"
	apperrors "github.com/BOHARRY/courtDataAPI-sub002/pkg/errors"
)

// Headers set by the API Gateway authorizer in front of the Lambda deployment.
const (
	HeaderGatewayAuthorized = "X-API-Gateway-Authorized"
	HeaderUserID            = "X-User-ID"
)

// Authenticate resolves the caller's user ID and stores it on the request
// context. In jwt mode the bearer token is validated locally; in trusted-header
// mode the gateway has already done so and passes the user ID along.
func Authenticate(mode string, validator *auth.JWTValidator, errs *apperrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var userID string

			switch mode {
			case config.AuthTrustedHeader:
				if r.Header.Get(HeaderGatewayAuthorized) != "true" {
					errs.Handle(w, r, apperrors.NewUnauthorizedError("Request not authorized by API Gateway"))
					return
				}
				userID = strings.TrimSpace(r.Header.Get(HeaderUserID))
				if userID == "" {
					errs.Handle(w, r, apperrors.NewUnauthorizedError("Missing user context from API Gateway"))
					return
				}

			default:
				if validator == nil {
					logger.Error("jwt authentication enabled without a validator")
					errs.Handle(w, r, apperrors.NewInternalError("Authentication system error"))
					return
				}

				header := r.Header.Get("Authorization")
				if header == "" {
					errs.Handle(w, r, apperrors.NewUnauthorizedError("Missing authorization header"))
					return
				}
				parts := strings.SplitN(header, " ", 2)
				if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
					errs.Handle(w, r, apperrors.NewUnauthorizedError("Invalid authorization header format"))
					return
				}

				claims, err := validator.ValidateToken(parts[1])
				if err != nil {
					errs.Handle(w, r, apperrors.NewUnauthorizedError(tokenMessage(err)))
					return
				}
				userID = claims.UserID
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
		})
	}
}

func tokenMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token has expired"
	case errors.Is(err, auth.ErrInvalidSignature):
		return "Invalid token signature"
	case errors.Is(err, auth.ErrMissingToken):
		return "Missing authorization token"
	default:
		return "Invalid token"
	}
}
