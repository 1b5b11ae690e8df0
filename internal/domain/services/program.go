package services

import (
	"context"

	"lingoclass/internal/domain/models"
)

// UpdateProgramRequest is a partial update; nil fields are left unchanged.
type UpdateProgramRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsTemplate  *bool   `json:"is_template"`
}

// UpdateLessonRequest is a partial update; nil fields are left unchanged.
type UpdateLessonRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	OrderIndex  *int    `json:"order_index"`
}

// UpdateContentRequest is a partial update; nil fields are left unchanged.
type UpdateContentRequest struct {
	Title *string `json:"title"`
	Level *string `json:"level"`
}

// ProgramService defines teaching material operations. Reads need
// membership-level access, writes need owner-level access.
type ProgramService interface {
	GetProgram(ctx context.Context, teacher *models.Teacher, id int64) (*models.Program, error)
	UpdateProgram(ctx context.Context, teacher *models.Teacher, id int64, req *UpdateProgramRequest) (*models.Program, error)
	DeleteProgram(ctx context.Context, teacher *models.Teacher, id int64) error

	GetLesson(ctx context.Context, teacher *models.Teacher, id int64) (*models.Lesson, error)
	UpdateLesson(ctx context.Context, teacher *models.Teacher, id int64, req *UpdateLessonRequest) (*models.Lesson, error)

	GetContent(ctx context.Context, teacher *models.Teacher, id int64) (*models.Content, error)
	// UpdateContent also accepts assignment copies owned by the teacher
	UpdateContent(ctx context.Context, teacher *models.Teacher, id int64, req *UpdateContentRequest) (*models.Content, error)

	ListOrganizationPrograms(ctx context.Context, teacher *models.Teacher, organizationID int64) ([]models.Program, error)
	ListSchoolPrograms(ctx context.Context, teacher *models.Teacher, schoolID int64) ([]models.Program, error)
}
