package repositories

import (
	"context"

	"lingoclass/internal/domain/models"
)

// ProgramRepository persists the Program -> Lesson -> Content hierarchy.
// All Get methods filter out inactive and soft-deleted rows and return
// domain.ErrNotFound for them.
type ProgramRepository interface {
	GetProgram(ctx context.Context, id int64) (*models.Program, error)
	UpdateProgram(ctx context.Context, program *models.Program) error
	// SoftDeleteProgram marks the program and its lessons inactive.
	SoftDeleteProgram(ctx context.Context, id int64) error
	ListByOrganization(ctx context.Context, organizationID int64) ([]models.Program, error)
	ListBySchool(ctx context.Context, schoolID int64) ([]models.Program, error)

	GetLesson(ctx context.Context, id int64) (*models.Lesson, error)
	UpdateLesson(ctx context.Context, lesson *models.Lesson) error

	GetContent(ctx context.Context, id int64) (*models.Content, error)
	UpdateContent(ctx context.Context, content *models.Content) error

	// FindAssignmentForContent returns an active assignment owned by
	// teacherID that references contentID, or domain.ErrNotFound.
	FindAssignmentForContent(ctx context.Context, contentID, teacherID int64) (*models.Assignment, error)
}
