package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-redis/redis/v8"

	"github.com/marketpulse/backend/internal/auth"
	"github.com/marketpulse/backend/internal/models"
)

type contextKey int

const userKey contextKey = iota

// UserFromContext returns the identity the auth middleware resolved for
// this request.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok
}

// WithUser attaches a resolved identity to the context.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// RequireAuth rejects requests whose bearer token is missing, malformed,
// expired, forged, blacklisted, or bound to a deleted account. Every
// failure mode produces the same response body so a caller cannot tell
// which check failed.
func RequireAuth(tokens *auth.TokenService, rdb *redis.Client) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")

			if rdb != nil {
				if parts := strings.Split(authHeader, " "); len(parts) == 2 {
					key := "blacklist:" + parts[1]
					if err := rdb.Get(r.Context(), key).Err(); err == nil {
						unauthorized(w)
						return
					}
				}
			}

			user, err := tokens.Authenticate(authHeader)
			if err != nil {
				log.Printf("[AUTH] Rejected request to %s: %v", r.URL.Path, err)
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireAdmin sits behind RequireAuth and gates admin-only routes.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			unauthorized(w)
			return
		}
		if !user.IsAdmin {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]string{"error": "Admin privileges required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "Invalid or expired token"})
}
