package repositories

import (
	"context"

	"lingoclass/internal/domain/models"
)

// ClassroomRepository persists classrooms and their students.
type ClassroomRepository interface {
	// GetByID returns an active classroom with SchoolID filled from its
	// active school link, or domain.ErrNotFound.
	GetByID(ctx context.Context, id int64) (*models.Classroom, error)
	Update(ctx context.Context, classroom *models.Classroom) error
	SoftDelete(ctx context.Context, id int64) error

	// CreateStudent inserts the student and enrolls them in the classroom.
	// A duplicate student number within the classroom returns a
	// *domain.ConflictError.
	CreateStudent(ctx context.Context, student *models.Student) error
}
