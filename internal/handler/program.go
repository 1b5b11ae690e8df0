package handler

import (
	"log/slog"
	"net/http"

	"lingoclass/internal/domain/services"
	"lingoclass/internal/httputil"
)

// ProgramHandler handles teaching material HTTP requests
type ProgramHandler struct {
	programService services.ProgramService
	logger         *slog.Logger
}

// NewProgramHandler creates a new program handler
func NewProgramHandler(programService services.ProgramService, logger *slog.Logger) *ProgramHandler {
	return &ProgramHandler{
		programService: programService,
		logger:         logger,
	}
}

// GetProgram retrieves a program
// GET /api/programs/{id}
func (h *ProgramHandler) GetProgram(w http.ResponseWriter, r *http.Request) {
	teacher, ok := requireTeacher(w, r)
	if !ok {
		return
	}
	id, ok := PathID(w, r, "id", "Program ID")
	if !ok {
		return
	}

	program, err := h.programService.GetProgram(r.Context(), teacher, id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, program)
}

// UpdateProgram updates a program
// PATCH /api/programs/{id}
func (h *ProgramHandler) UpdateProgram(w http.ResponseWriter, r *http.Request) {
	teacher, ok := requireTeacher(w, r)
	if !ok {
		return
	}
	id, ok := PathID(w, r, "id", "Program ID")
	if !ok {
		return
	}

	var req services.UpdateProgramRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	program, err := h.programService.UpdateProgram(r.Context(), teacher, id, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, program)
}

// DeleteProgram soft-deletes a program
// DELETE /api/programs/{id}
func (h *ProgramHandler) DeleteProgram(w http.ResponseWriter, r *http.Request) {
	teacher, ok := requireTeacher(w, r)
	if !ok {
		return
	}
	id, ok := PathID(w, r, "id", "Program ID")
	if !ok {
		return
	}

	if err := h.programService.DeleteProgram(r.Context(), teacher, id); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondNoContent(w)
}

// GetLesson retrieves a lesson
// GET /api/lessons/{id}
func (h *ProgramHandler) GetLesson(w http.ResponseWriter, r *http.Request) {
	teacher, ok := requireTeacher(w, r)
	if !ok {
		return
	}
	id, ok := PathID(w, r, "id", "Lesson ID")
	if !ok {
		return
	}

	lesson, err := h.programService.GetLesson(r.Context(), teacher, id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, lesson)
}

// UpdateLesson updates a lesson
// PATCH /api/lessons/{id}
func (h *ProgramHandler) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	teacher, ok := requireTeacher(w, r)
	if !ok {
		return
	}
	id, ok := PathID(w, r, "id", "Lesson ID")
	if !ok {
		return
	}

	var req services.UpdateLessonRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	lesson, err := h.programService.UpdateLesson(r.Context(), teacher, id, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, lesson)
}

// GetContent retrieves a content item
// GET /api/contents/{id}
func (h *ProgramHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	teacher, ok := requireTeacher(w, r)
	if !ok {
		return
	}
	id, ok := PathID(w, r, "id", "Content ID")
	if !ok {
		return
	}

	content, err := h.programService.GetContent(r.Context(), teacher, id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, content)
}

// UpdateContent updates a content item, including assignment copies
// PATCH /api/contents/{id}
func (h *ProgramHandler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	teacher, ok := requireTeacher(w, r)
	if !ok {
		return
	}
	id, ok := PathID(w, r, "id", "Content ID")
	if !ok {
		return
	}

	var req services.UpdateContentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	content, err := h.programService.UpdateContent(r.Context(), teacher, id, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, content)
}

// ListOrganizationPrograms lists an organization's programs
// GET /api/organizations/{id}/programs
func (h *ProgramHandler) ListOrganizationPrograms(w http.ResponseWriter, r *http.Request) {
	teacher, ok := requireTeacher(w, r)
	if !ok {
		return
	}
	orgID, ok := PathID(w, r, "id", "Organization ID")
	if !ok {
		return
	}

	programs, err := h.programService.ListOrganizationPrograms(r.Context(), teacher, orgID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, programs)
}

// ListSchoolPrograms lists a school's programs
// GET /api/schools/{id}/programs
func (h *ProgramHandler) ListSchoolPrograms(w http.ResponseWriter, r *http.Request) {
	teacher, ok := requireTeacher(w, r)
	if !ok {
		return
	}
	schoolID, ok := PathID(w, r, "id", "School ID")
	if !ok {
		return
	}

	programs, err := h.programService.ListSchoolPrograms(r.Context(), teacher, schoolID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, programs)
}
