package handler

import (
	"log/slog"
	"net/http"

	"lingoclass/internal/domain/services"
	"lingoclass/internal/httputil"
)

// PermissionHandler lets organization owners grant and revoke permissions
type PermissionHandler struct {
	permissionService services.PermissionService
	logger            *slog.Logger
}

// NewPermissionHandler creates a new permission handler
func NewPermissionHandler(permissionService services.PermissionService, logger *slog.Logger) *PermissionHandler {
	return &PermissionHandler{
		permissionService: permissionService,
		logger:            logger,
	}
}

// Grant gives a member an explicit permission
// POST /api/organizations/{id}/permissions
func (h *PermissionHandler) Grant(w http.ResponseWriter, r *http.Request) {
	teacher, ok := requireTeacher(w, r)
	if !ok {
		return
	}
	orgID, ok := PathID(w, r, "id", "Organization ID")
	if !ok {
		return
	}

	var req services.PermissionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	grant, err := h.permissionService.Grant(r.Context(), teacher, orgID, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, grant)
}

// Revoke removes an explicit permission
// DELETE /api/organizations/{id}/permissions
func (h *PermissionHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	teacher, ok := requireTeacher(w, r)
	if !ok {
		return
	}
	orgID, ok := PathID(w, r, "id", "Organization ID")
	if !ok {
		return
	}

	var req services.PermissionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.permissionService.Revoke(r.Context(), teacher, orgID, &req); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondNoContent(w)
}
