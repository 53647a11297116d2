package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	id "agegate/pkg/domain"
	dErrors "agegate/pkg/domain-errors"
	"agegate/pkg/platform/httputil"
	"agegate/pkg/requestcontext"
)

// TokenValidator resolves a bearer token into an authenticated user ID at a
// given instant.
type TokenValidator interface {
	ExtractUserID(tokenString string, now time.Time) (id.UserID, error)
}

// RequireAuth parses the Authorization header, validates the bearer token,
// and stores the authenticated user ID in the request context. Requests
// without a valid token are rejected with 401 before the handler runs.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}

			userID, err := validator.ExtractUserID(token, requestcontext.Now(ctx))
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithUserID(ctx, userID)))
		})
	}
}
