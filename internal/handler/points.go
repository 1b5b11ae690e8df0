package handler

import (
	"log/slog"
	"net/http"

	"lingoclass/internal/domain/models"
	"lingoclass/internal/domain/services"
	"lingoclass/internal/httputil"
)

// PointsHandler serves organization points and teacher quota requests
type PointsHandler struct {
	usageService services.UsageService
	logger       *slog.Logger
}

// NewPointsHandler creates a new points handler
func NewPointsHandler(usageService services.UsageService, logger *slog.Logger) *PointsHandler {
	return &PointsHandler{
		usageService: usageService,
		logger:       logger,
	}
}

// UsageLogPage is one page of the usage log
type UsageLogPage struct {
	Logs   []models.PointsUsageLog `json:"logs"`
	Total  int                     `json:"total"`
	Offset int                     `json:"offset"`
}

// GetOrganizationPoints reports an organization's balance
// GET /api/organizations/{id}/points
func (h *PointsHandler) GetOrganizationPoints(w http.ResponseWriter, r *http.Request) {
	teacher, ok := requireTeacher(w, r)
	if !ok {
		return
	}
	orgID, ok := PathID(w, r, "id", "Organization ID")
	if !ok {
		return
	}

	info, err := h.usageService.OrganizationPoints(r.Context(), teacher, orgID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, info)
}

// CheckOrganizationPoints answers whether a usage would be accepted
// POST /api/organizations/{id}/points/check
func (h *PointsHandler) CheckOrganizationPoints(w http.ResponseWriter, r *http.Request) {
	teacher, ok := requireTeacher(w, r)
	if !ok {
		return
	}
	orgID, ok := PathID(w, r, "id", "Organization ID")
	if !ok {
		return
	}

	var req services.CheckPointsRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.usageService.CheckOrganization(r.Context(), teacher, orgID, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// DeductOrganizationPoints charges a usage to the organization in the path
// POST /api/organizations/{id}/points/deduct
func (h *PointsHandler) DeductOrganizationPoints(w http.ResponseWriter, r *http.Request) {
	teacher, ok := requireTeacher(w, r)
	if !ok {
		return
	}
	orgID, ok := PathID(w, r, "id", "Organization ID")
	if !ok {
		return
	}

	var req services.DeductPointsRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.OrganizationID != nil && *req.OrganizationID != orgID {
		httputil.RespondError(w, http.StatusBadRequest, "organization_id does not match the path")
		return
	}
	req.OrganizationID = &orgID

	h.deduct(w, r, teacher, &req)
}

// ListOrganizationLogs pages the organization's usage log
// GET /api/organizations/{id}/points/logs?limit=&offset=
func (h *PointsHandler) ListOrganizationLogs(w http.ResponseWriter, r *http.Request) {
	teacher, ok := requireTeacher(w, r)
	if !ok {
		return
	}
	orgID, ok := PathID(w, r, "id", "Organization ID")
	if !ok {
		return
	}

	limit, err := httputil.QueryInt(r, "limit", 0)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := httputil.QueryInt(r, "offset", 0)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	logs, total, err := h.usageService.OrganizationLogs(r.Context(), teacher, orgID, limit, offset)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, UsageLogPage{
		Logs:   logs,
		Total:  total,
		Offset: max(offset, 0),
	})
}

// GetTeacherQuota reports the caller's subscription quota
// GET /api/teachers/me/quota
func (h *PointsHandler) GetTeacherQuota(w http.ResponseWriter, r *http.Request) {
	teacher, ok := requireTeacher(w, r)
	if !ok {
		return
	}

	info, err := h.usageService.TeacherQuota(r.Context(), teacher)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, info)
}

// DeductTeacherQuota charges a usage to the caller's subscription period
// POST /api/teachers/me/quota/deduct
func (h *PointsHandler) DeductTeacherQuota(w http.ResponseWriter, r *http.Request) {
	teacher, ok := requireTeacher(w, r)
	if !ok {
		return
	}

	var req services.DeductPointsRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.OrganizationID != nil {
		httputil.RespondError(w, http.StatusBadRequest, "organization usage is charged through the organization endpoint")
		return
	}

	h.deduct(w, r, teacher, &req)
}

func (h *PointsHandler) deduct(w http.ResponseWriter, r *http.Request, teacher *models.Teacher, req *services.DeductPointsRequest) {
	log, err := h.usageService.Deduct(r.Context(), teacher, req)
	if err != nil {
		handleError(w, err)
		return
	}

	h.logger.Debug("usage log written",
		"log_id", log.ID,
		"request_id", httputil.GetRequestID(r),
	)

	httputil.RespondJSON(w, http.StatusCreated, log)
}
