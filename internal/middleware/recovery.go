package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"docvault/internal/httputil"
)

// Recovery converts a handler panic into a problem+json 500. The stack is
// logged once here; handlers below never see the panic.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					logger.Error("handler panic",
						"panic", v,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					httputil.RespondError(w, http.StatusInternalServerError, "unexpected server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
