package middleware

import (
	"context"
	"net/http"
	"strings"

	"docvault/internal/auth"
	"docvault/internal/httputil"
)

type contextKey string

// UserKey is the request-context key for the authenticated subject.
const UserKey contextKey = "user"

// Auth verifies the bearer token on every request except the exempt paths
// and stores the subject in the request context.
func Auth(issuer *auth.TokenIssuer, exempt ...string) func(http.Handler) http.Handler {
	exemptPaths := make(map[string]bool, len(exempt))
	for _, p := range exempt {
		exemptPaths[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if exemptPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			subject, err := issuer.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				httputil.RespondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
