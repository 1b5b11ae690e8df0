package handler

import (
	"log/slog"
	"net/http"
	"time"

	"lingoclass/internal/auth"
	"lingoclass/internal/httputil"
	"lingoclass/internal/metrics"
)

// SessionHandler handles logout
type SessionHandler struct {
	sessions auth.SessionStore
	fallback time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewSessionHandler creates a new session handler. fallbackTTL bounds the
// revocation of tokens that carry no expiry.
func NewSessionHandler(sessions auth.SessionStore, fallbackTTL time.Duration, m *metrics.Metrics, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		fallback: fallbackTTL,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// Logout revokes the session of the presented token
// DELETE /api/auth/session
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := httputil.GetClaims(r)
	if claims == nil {
		httputil.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	ttl := h.fallback
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(h.now())
	}

	if err := h.sessions.Revoke(r.Context(), claims.SessionID, ttl); err != nil {
		h.logger.Error("failed to revoke session", "error", err, "subject", claims.Subject)
		httputil.RespondError(w, http.StatusServiceUnavailable, "session store unavailable")
		return
	}

	if h.metrics != nil {
		h.metrics.SessionsRevoked.Inc()
	}
	h.logger.Info("session revoked", "subject", claims.Subject)

	httputil.RespondNoContent(w)
}
