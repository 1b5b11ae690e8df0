package services

import (
	"context"

	"lingoclass/internal/domain/models"
)

// CreateStudentRequest represents a request to add a student to a classroom
type CreateStudentRequest struct {
	Name          string  `json:"name"`
	Email         *string `json:"email"`
	StudentNumber *string `json:"student_number"`
}

// UpdateClassroomRequest is a partial update; nil fields are left unchanged.
type UpdateClassroomRequest struct {
	Name  *string `json:"name"`
	Level *string `json:"level"`
}

// ClassroomService has two pathways. The personal one only reaches
// classrooms without a school link; the school one only reaches classrooms
// linked to the given school.
type ClassroomService interface {
	CreateStudent(ctx context.Context, teacher *models.Teacher, classroomID int64, req *CreateStudentRequest) (*models.Student, error)
	UpdateClassroom(ctx context.Context, teacher *models.Teacher, classroomID int64, req *UpdateClassroomRequest) (*models.Classroom, error)
	DeleteClassroom(ctx context.Context, teacher *models.Teacher, classroomID int64) error

	CreateSchoolStudent(ctx context.Context, teacher *models.Teacher, schoolID, classroomID int64, req *CreateStudentRequest) (*models.Student, error)
	UpdateSchoolClassroom(ctx context.Context, teacher *models.Teacher, schoolID, classroomID int64, req *UpdateClassroomRequest) (*models.Classroom, error)
	DeleteSchoolClassroom(ctx context.Context, teacher *models.Teacher, schoolID, classroomID int64) error
}
