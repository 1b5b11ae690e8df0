package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"lingoclass/internal/domain"
	"lingoclass/internal/domain/models"
	"lingoclass/internal/httputil"
)

// extrasError is implemented by errors that carry structured problem fields.
type extrasError interface {
	error
	Extras() map[string]interface{}
}

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	var (
		deniedErr   *domain.AccessDeniedError
		conflictErr *domain.ConflictError
		extrasErr   extrasError
	)

	switch {
	case errors.As(err, &deniedErr):
		httputil.RespondError(w, http.StatusForbidden, deniedErr.Reason)
	case errors.Is(err, domain.ErrPaymentRequired) && errors.As(err, &extrasErr):
		httputil.RespondErrorWithExtras(w, http.StatusPaymentRequired, extrasErr.Error(), extrasErr.Extras())
	case errors.Is(err, domain.ErrPaymentRequired):
		httputil.RespondError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &conflictErr):
		var extras map[string]interface{}
		if conflictErr.ResourceID != "" {
			extras = map[string]interface{}{
				"resource_type": conflictErr.ResourceType,
				"resource_id":   conflictErr.ResourceID,
			}
		}
		httputil.RespondErrorWithExtras(w, http.StatusConflict, conflictErr.Error(), extras)
	case errors.Is(err, domain.ErrConflict):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("unhandled error", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// PathID parses a positive integer path parameter. On failure it writes a
// 400 and returns false.
func PathID(w http.ResponseWriter, r *http.Request, name, label string) (int64, bool) {
	raw := r.PathValue(name)
	if raw == "" {
		httputil.RespondError(w, http.StatusBadRequest, label+" is required")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		httputil.RespondError(w, http.StatusBadRequest, label+" must be a positive integer")
		return 0, false
	}
	return id, true
}

// requireTeacher returns the authenticated teacher. Routes behind the auth
// middleware always have one; a missing teacher is answered with 401.
func requireTeacher(w http.ResponseWriter, r *http.Request) (*models.Teacher, bool) {
	teacher := httputil.GetTeacher(r)
	if teacher == nil {
		httputil.RespondError(w, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	return teacher, true
}
