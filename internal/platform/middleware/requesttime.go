package middleware

import (
	"net/http"
	"time"

	"agegate/pkg/requestcontext"
)

// RequestTime captures the current time once at the start of the request so
// token validation, age evaluation, and audit timestamps all observe the same
// instant.
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
