package middleware

import (
	"net/http"

	"agegate/internal/platform/device"
	"agegate/pkg/requestcontext"
)

// Device parses the User-Agent header once per request and stores the
// display label for audit records.
func Device(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithDevice(r.Context(), device.ParseUserAgent(r.UserAgent()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
