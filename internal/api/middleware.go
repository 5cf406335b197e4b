package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"instore-backend/internal/auth"
	"instore-backend/internal/database"
)

type contextKey string

const claimsContextKey contextKey = "auth-claims"

// AuthMiddleware verifies the bearer token and attaches its claims to the
// request context.
func AuthMiddleware(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeJsonError(w, http.StatusUnauthorized, errors.New("missing authorization header"))
				return
			}

			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				writeJsonError(w, http.StatusUnauthorized, errors.New("authorization header must be a bearer token"))
				return
			}

			claims, err := tokens.VerifyToken(tokenString)
			if err != nil {
				writeJsonError(w, http.StatusUnauthorized, errors.New("invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly rejects requests whose token does not carry the admin role. It
// must run after AuthMiddleware.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeJsonError(w, http.StatusUnauthorized, errors.New("missing authorization"))
			return
		}
		if claims.Role != database.RoleAdmin {
			writeJsonError(w, http.StatusForbidden, errors.New("admin access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*auth.Claims)
	return claims, ok
}
