package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"lingoclass/internal/auth"
	"lingoclass/internal/domain"
	"lingoclass/internal/domain/repositories"
	"lingoclass/internal/httputil"
)

// AuthMiddleware verifies the bearer token, rejects logged-out sessions and
// loads the teacher into the request context. Paths in public skip it.
//
// Inactive teachers are still loaded; authorization decides what they may do.
func AuthMiddleware(
	verifier auth.JWTVerifier,
	sessions auth.SessionStore,
	teachers repositories.TeacherRepository,
	logger *slog.Logger,
	public ...string,
) func(http.Handler) http.Handler {
	skip := make(map[string]bool, len(public))
	for _, p := range public {
		skip[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || skip[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				httputil.RespondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			revoked, err := sessions.IsRevoked(r.Context(), claims.SessionID)
			if err != nil {
				logger.Error("session lookup failed", "error", err)
				httputil.RespondError(w, http.StatusServiceUnavailable, "session store unavailable")
				return
			}
			if revoked {
				httputil.RespondError(w, http.StatusUnauthorized, "session has been logged out")
				return
			}

			// VerifyToken already checked the subject parses
			teacherID, _ := claims.GetTeacherID()
			teacher, err := teachers.GetByID(r.Context(), teacherID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					httputil.RespondError(w, http.StatusUnauthorized, "unknown teacher")
					return
				}
				logger.Error("failed to load teacher", "error", err, "teacher_id", teacherID)
				httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			next.ServeHTTP(w, httputil.WithTeacher(r, teacher, claims))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
