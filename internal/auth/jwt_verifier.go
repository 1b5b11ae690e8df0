package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"lingoclass/internal/domain"
	"lingoclass/internal/domain/models"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// allowedAlgorithms prevents algorithm confusion: symmetric and "none"
// tokens are rejected before the key is looked up.
var allowedAlgorithms = []string{"RS256", "ES256"}

// TeacherJWTVerifier implements JWTVerifier using keys from a JWKS endpoint.
type TeacherJWTVerifier struct {
	keyFunc jwt.Keyfunc
	cancel  context.CancelFunc
	logger  *slog.Logger
}

// NewJWTVerifier creates a verifier that fetches public keys from jwksURL.
// keyfunc caches the set and refreshes it in the background until Close.
func NewJWTVerifier(jwksURL string, logger *slog.Logger) (JWTVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}

	ctx, cancel := context.WithCancel(context.Background())
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create JWKS client: %w", err)
	}

	logger.Info("JWT verifier initialized", "jwks_url", jwksURL)

	return newVerifier(jwks.Keyfunc, cancel, logger), nil
}

func newVerifier(keyFunc jwt.Keyfunc, cancel context.CancelFunc, logger *slog.Logger) *TeacherJWTVerifier {
	return &TeacherJWTVerifier{
		keyFunc: keyFunc,
		cancel:  cancel,
		logger:  logger,
	}
}

// VerifyToken validates a JWT token and extracts teacher claims.
func (v *TeacherJWTVerifier) VerifyToken(tokenString string) (*models.TeacherClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&models.TeacherClaims{},
		v.keyFunc,
		jwt.WithValidMethods(allowedAlgorithms),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		v.logger.Debug("token rejected", "error", err.Error())
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*models.TeacherClaims)
	if !ok || !token.Valid {
		v.logger.Error("failed to extract claims from token")
		return nil, domain.ErrUnauthorized
	}

	if _, err := claims.GetTeacherID(); err != nil {
		v.logger.Debug("token has invalid subject", "subject", claims.Subject)
		return nil, domain.ErrUnauthorized
	}

	// Without a session id the token could never be logged out
	if claims.SessionID == "" {
		v.logger.Debug("token missing session claim", "subject", claims.Subject)
		return nil, domain.ErrUnauthorized
	}

	return claims, nil
}

// Close stops the background JWKS refresh.
func (v *TeacherJWTVerifier) Close() error {
	if v.cancel != nil {
		v.cancel()
	}
	v.logger.Info("JWT verifier closed")
	return nil
}
