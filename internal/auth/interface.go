package auth

import (
	"context"
	"time"

	"lingoclass/internal/domain/models"
)

// JWTVerifier defines the interface for JWT token verification.
// The middleware stays agnostic to how keys are obtained.
type JWTVerifier interface {
	// VerifyToken validates a JWT token string and returns the parsed claims.
	// Returns domain.ErrUnauthorized if the token is invalid, expired, or has an invalid signature.
	VerifyToken(tokenString string) (*models.TeacherClaims, error)

	// Close releases any resources held by the verifier (the JWKS refresh goroutine).
	Close() error
}

// SessionStore tracks logged-out sessions until their tokens would have
// expired anyway.
type SessionStore interface {
	Revoke(ctx context.Context, sessionID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}
