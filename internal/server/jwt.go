package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jonathan/adwriter/internal/types"
)

// tokenClaims is the JWT claim set the identity provider issues.
type tokenClaims struct {
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	CompanyHint string `json:"company,omitempty"`
	jwt.RegisteredClaims
}

// JWTService validates provider-issued bearer tokens and extracts the
// identity claims the application consumes.
type JWTService struct {
	secret []byte
}

// NewJWTService creates a validator for tokens signed with the shared
// secret.
func NewJWTService(secret string) *JWTService {
	return &JWTService{secret: []byte(secret)}
}

// ValidateToken validates a token string and returns the identity claims.
func (s *JWTService) ValidateToken(tokenString string) (*types.IdentityClaims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("token string is empty")
	}

	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrSignatureInvalid):
			return nil, fmt.Errorf("invalid token signature: %w", err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("token expired: %w", err)
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("malformed token: %w", err)
		default:
			return nil, fmt.Errorf("failed to parse token: %w", err)
		}
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}
	// Without a subject there is no tenant partition to scope the request
	// to; such tokens must never reach a data path.
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	return &types.IdentityClaims{
		Subject:     claims.Subject,
		Name:        claims.Name,
		Email:       claims.Email,
		CompanyHint: claims.CompanyHint,
	}, nil
}
