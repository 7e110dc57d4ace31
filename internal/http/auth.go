package httpapi

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
)

type contextKey string

const UserIDKey contextKey = "userId"

// DevUser is assumed when no auth header is present and dev mode is on.
const DevUser = "dev-user"

// ExtractUserMiddleware reads the user set by the fronting proxy. With
// allowDev, requests without a user header run as DevUser instead of being
// rejected.
func ExtractUserMiddleware(logger *log.Logger, allowDev bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Traefik BasicAuth sets this header
			userId := r.Header.Get("X-Auth-User")

			// Also check common alternatives
			if userId == "" {
				userId = r.Header.Get("X-Forwarded-User")
			}
			if userId == "" {
				userId = r.Header.Get("Remote-User")
			}

			if userId == "" && allowDev {
				userId = DevUser
				logger.Warn("no auth header, using dev user", "path", r.URL.Path)
			}

			if userId == "" {
				logger.Warn("authentication failed: no user header found", "path", r.URL.Path)
				RespondError(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			logger.Debug("authenticated request", "user", userId)

			ctx := context.WithValue(r.Context(), UserIDKey, userId)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUserId(r *http.Request) string {
	userId, ok := r.Context().Value(UserIDKey).(string)
	if !ok {
		return ""
	}
	return userId
}
