// Package middleware provides HTTP middleware for authentication.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jonathan/adwriter/internal/types"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

// claimsKey is the context key for the authenticated identity claims.
const claimsKey ContextKey = "identityClaims"

// TokenValidator validates a bearer token and returns the identity claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*types.IdentityClaims, error)
}

// Auth validates the Authorization header and stores the identity claims on
// the request context. Requests without a valid token are rejected; the
// authorization-code flow that produced the token lives entirely at the
// identity provider.
func Auth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := validator.ValidateToken(strings.TrimSpace(parts[1]))
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Claims extracts the authenticated identity claims from the request
// context.
func Claims(r *http.Request) (*types.IdentityClaims, error) {
	claims, ok := r.Context().Value(claimsKey).(*types.IdentityClaims)
	if !ok || claims == nil {
		return nil, fmt.Errorf("identity claims not found in request context")
	}
	return claims, nil
}

// WithClaims returns a context carrying the given claims (for tests).
func WithClaims(ctx context.Context, claims *types.IdentityClaims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}
