package middleware

import (
	"context"
	"net/http"
	"strings"

	"veenoe/internal/model"
	"veenoe/internal/service"
)

type contextKey string

const UserKey contextKey = "user"

// AuthMiddleware authenticates requests via bearer tokens.
type AuthMiddleware struct {
	verifier service.IdentityVerifier
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(verifier service.IdentityVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// RequireUser validates the bearer token from the Authorization
// header and stores the verified user in the request context.
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		token := extractBearerToken(r)
		if token == "" {
			http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
			return
		}

		user, err := m.verifier.VerifyToken(token)
		if err != nil {
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUser extracts the authenticated user from context.
func GetUser(ctx context.Context) *model.AuthenticatedUser {
	if v := ctx.Value(UserKey); v != nil {
		return v.(*model.AuthenticatedUser)
	}
	return nil
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
