package handler

import (
	"log/slog"
	"net/http"

	"lingoclass/internal/domain/services"
	"lingoclass/internal/httputil"
)

// ClassroomHandler serves both classroom pathways. Personal routes live under
// /api/teachers, school routes under /api/schools/{schoolID}.
type ClassroomHandler struct {
	classroomService services.ClassroomService
	logger           *slog.Logger
}

// NewClassroomHandler creates a new classroom handler
func NewClassroomHandler(classroomService services.ClassroomService, logger *slog.Logger) *ClassroomHandler {
	return &ClassroomHandler{
		classroomService: classroomService,
		logger:           logger,
	}
}

// CreateStudent adds a student to a personal classroom
// POST /api/teachers/classrooms/{id}/students
func (h *ClassroomHandler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	teacher, ok := requireTeacher(w, r)
	if !ok {
		return
	}
	classroomID, ok := PathID(w, r, "id", "Classroom ID")
	if !ok {
		return
	}

	var req services.CreateStudentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	student, err := h.classroomService.CreateStudent(r.Context(), teacher, classroomID, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, student)
}

// UpdateClassroom updates a personal classroom
// PATCH /api/teachers/classrooms/{id}
func (h *ClassroomHandler) UpdateClassroom(w http.ResponseWriter, r *http.Request) {
	teacher, ok := requireTeacher(w, r)
	if !ok {
		return
	}
	classroomID, ok := PathID(w, r, "id", "Classroom ID")
	if !ok {
		return
	}

	var req services.UpdateClassroomRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	classroom, err := h.classroomService.UpdateClassroom(r.Context(), teacher, classroomID, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, classroom)
}

// DeleteClassroom deactivates a personal classroom
// DELETE /api/teachers/classrooms/{id}
func (h *ClassroomHandler) DeleteClassroom(w http.ResponseWriter, r *http.Request) {
	teacher, ok := requireTeacher(w, r)
	if !ok {
		return
	}
	classroomID, ok := PathID(w, r, "id", "Classroom ID")
	if !ok {
		return
	}

	if err := h.classroomService.DeleteClassroom(r.Context(), teacher, classroomID); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondNoContent(w)
}

// CreateSchoolStudent adds a student to a school classroom
// POST /api/schools/{schoolID}/classrooms/{id}/students
func (h *ClassroomHandler) CreateSchoolStudent(w http.ResponseWriter, r *http.Request) {
	teacher, ok := requireTeacher(w, r)
	if !ok {
		return
	}
	schoolID, classroomID, ok := schoolClassroomIDs(w, r)
	if !ok {
		return
	}

	var req services.CreateStudentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	student, err := h.classroomService.CreateSchoolStudent(r.Context(), teacher, schoolID, classroomID, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, student)
}

// UpdateSchoolClassroom updates a school classroom
// PATCH /api/schools/{schoolID}/classrooms/{id}
func (h *ClassroomHandler) UpdateSchoolClassroom(w http.ResponseWriter, r *http.Request) {
	teacher, ok := requireTeacher(w, r)
	if !ok {
		return
	}
	schoolID, classroomID, ok := schoolClassroomIDs(w, r)
	if !ok {
		return
	}

	var req services.UpdateClassroomRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	classroom, err := h.classroomService.UpdateSchoolClassroom(r.Context(), teacher, schoolID, classroomID, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, classroom)
}

// DeleteSchoolClassroom deactivates a school classroom
// DELETE /api/schools/{schoolID}/classrooms/{id}
func (h *ClassroomHandler) DeleteSchoolClassroom(w http.ResponseWriter, r *http.Request) {
	teacher, ok := requireTeacher(w, r)
	if !ok {
		return
	}
	schoolID, classroomID, ok := schoolClassroomIDs(w, r)
	if !ok {
		return
	}

	if err := h.classroomService.DeleteSchoolClassroom(r.Context(), teacher, schoolID, classroomID); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondNoContent(w)
}

func schoolClassroomIDs(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	schoolID, ok := PathID(w, r, "schoolID", "School ID")
	if !ok {
		return 0, 0, false
	}
	classroomID, ok := PathID(w, r, "id", "Classroom ID")
	if !ok {
		return 0, 0, false
	}
	return schoolID, classroomID, true
}
