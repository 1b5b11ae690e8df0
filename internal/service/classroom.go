package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"lingoclass/internal/config"
	"lingoclass/internal/domain"
	"lingoclass/internal/domain/models"
	"lingoclass/internal/domain/repositories"
	"lingoclass/internal/domain/services"
)

// classroomService implements the ClassroomService interface
type classroomService struct {
	classroomRepo repositories.ClassroomRepository
	orgRepo       repositories.OrganizationRepository
	resolver      services.PermissionResolver
	logger        *slog.Logger
	now           func() time.Time
}

// NewClassroomService creates a new classroom service
func NewClassroomService(
	classroomRepo repositories.ClassroomRepository,
	orgRepo repositories.OrganizationRepository,
	resolver services.PermissionResolver,
	logger *slog.Logger,
) services.ClassroomService {
	return &classroomService{
		classroomRepo: classroomRepo,
		orgRepo:       orgRepo,
		resolver:      resolver,
		logger:        logger,
		now:           time.Now,
	}
}

// CreateStudent adds a student to one of the teacher's own classrooms
func (s *classroomService) CreateStudent(ctx context.Context, teacher *models.Teacher, classroomID int64, req *services.CreateStudentRequest) (*models.Student, error) {
	if err := s.validateCreateStudent(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	classroom, err := s.personalClassroom(ctx, teacher, classroomID, services.ClassroomCreateStudent)
	if err != nil {
		return nil, err
	}
	return s.createStudent(ctx, teacher, classroom, req)
}

// UpdateClassroom updates one of the teacher's own classrooms
func (s *classroomService) UpdateClassroom(ctx context.Context, teacher *models.Teacher, classroomID int64, req *services.UpdateClassroomRequest) (*models.Classroom, error) {
	if err := s.validateUpdateClassroom(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	classroom, err := s.personalClassroom(ctx, teacher, classroomID, services.ClassroomUpdate)
	if err != nil {
		return nil, err
	}
	return s.updateClassroom(ctx, teacher, classroom, req)
}

// DeleteClassroom soft-deletes one of the teacher's own classrooms
func (s *classroomService) DeleteClassroom(ctx context.Context, teacher *models.Teacher, classroomID int64) error {
	classroom, err := s.personalClassroom(ctx, teacher, classroomID, services.ClassroomDelete)
	if err != nil {
		return err
	}
	return s.deleteClassroom(ctx, teacher, classroom)
}

// CreateSchoolStudent adds a student to a classroom managed by the school
func (s *classroomService) CreateSchoolStudent(ctx context.Context, teacher *models.Teacher, schoolID, classroomID int64, req *services.CreateStudentRequest) (*models.Student, error) {
	if err := s.validateCreateStudent(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	classroom, err := s.schoolClassroom(ctx, teacher, schoolID, classroomID)
	if err != nil {
		return nil, err
	}
	return s.createStudent(ctx, teacher, classroom, req)
}

// UpdateSchoolClassroom updates a classroom managed by the school
func (s *classroomService) UpdateSchoolClassroom(ctx context.Context, teacher *models.Teacher, schoolID, classroomID int64, req *services.UpdateClassroomRequest) (*models.Classroom, error) {
	if err := s.validateUpdateClassroom(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	classroom, err := s.schoolClassroom(ctx, teacher, schoolID, classroomID)
	if err != nil {
		return nil, err
	}
	return s.updateClassroom(ctx, teacher, classroom, req)
}

// DeleteSchoolClassroom soft-deletes a classroom managed by the school
func (s *classroomService) DeleteSchoolClassroom(ctx context.Context, teacher *models.Teacher, schoolID, classroomID int64) error {
	classroom, err := s.schoolClassroom(ctx, teacher, schoolID, classroomID)
	if err != nil {
		return err
	}
	return s.deleteClassroom(ctx, teacher, classroom)
}

// personalClassroom loads a classroom for the personal pathway.
func (s *classroomService) personalClassroom(ctx context.Context, teacher *models.Teacher, classroomID int64, op services.ClassroomOperation) (*models.Classroom, error) {
	classroom, err := s.classroomRepo.GetByID(ctx, classroomID)
	if err != nil {
		return nil, err
	}

	if d := s.resolver.ResolveClassroomMutation(ctx, classroom, teacher, op); !d.Allowed {
		return nil, denied(d)
	}
	return classroom, nil
}

// schoolClassroom loads a classroom for the school pathway. The classroom
// must be linked to the school in the path.
func (s *classroomService) schoolClassroom(ctx context.Context, teacher *models.Teacher, schoolID, classroomID int64) (*models.Classroom, error) {
	school, err := s.orgRepo.GetSchool(ctx, schoolID)
	if err != nil {
		return nil, err
	}

	if d := s.resolver.ResolveSchoolAccess(ctx, school, teacher); !d.Allowed {
		return nil, denied(d)
	}

	classroom, err := s.classroomRepo.GetByID(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	if classroom.SchoolID == nil || *classroom.SchoolID != schoolID {
		return nil, &domain.NotFoundError{Message: "classroom not found in this school"}
	}
	return classroom, nil
}

func (s *classroomService) createStudent(ctx context.Context, teacher *models.Teacher, classroom *models.Classroom, req *services.CreateStudentRequest) (*models.Student, error) {
	student := &models.Student{
		Name:          strings.TrimSpace(req.Name),
		Email:         trimmed(req.Email),
		StudentNumber: trimmed(req.StudentNumber),
		ClassroomID:   classroom.ID,
		IsActive:      true,
		CreatedAt:     s.now(),
	}

	if err := s.classroomRepo.CreateStudent(ctx, student); err != nil {
		return nil, err
	}

	s.logger.Info("student created",
		"id", student.ID,
		"classroom_id", classroom.ID,
		"teacher_id", teacher.ID,
	)
	return student, nil
}

func (s *classroomService) updateClassroom(ctx context.Context, teacher *models.Teacher, classroom *models.Classroom, req *services.UpdateClassroomRequest) (*models.Classroom, error) {
	if req.Name != nil {
		classroom.Name = *trimmed(req.Name)
	}
	if req.Level != nil {
		classroom.Level = trimmed(req.Level)
	}
	classroom.UpdatedAt = s.now()

	if err := s.classroomRepo.Update(ctx, classroom); err != nil {
		return nil, err
	}

	s.logger.Info("classroom updated",
		"id", classroom.ID,
		"teacher_id", teacher.ID,
	)
	return classroom, nil
}

func (s *classroomService) deleteClassroom(ctx context.Context, teacher *models.Teacher, classroom *models.Classroom) error {
	if err := s.classroomRepo.SoftDelete(ctx, classroom.ID); err != nil {
		return err
	}

	s.logger.Info("classroom deleted",
		"id", classroom.ID,
		"teacher_id", teacher.ID,
	)
	return nil
}

func (s *classroomService) validateCreateStudent(req *services.CreateStudentRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Name,
			validation.Required,
			validation.Length(1, config.MaxStudentNameLength),
			validation.By(notBlank),
		),
		validation.Field(&req.Email, is.EmailFormat),
		validation.Field(&req.StudentNumber,
			validation.NilOrNotEmpty,
			validation.Length(1, config.MaxStudentNumberLength),
		),
	)
}

func (s *classroomService) validateUpdateClassroom(req *services.UpdateClassroomRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Name,
			validation.NilOrNotEmpty,
			validation.Length(1, config.MaxClassroomNameLength),
			validation.By(notBlank),
		),
		validation.Field(&req.Level, validation.Length(0, config.MaxLevelLength)),
	)
}
