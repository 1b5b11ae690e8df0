package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"lingoclass/internal/config"
	"lingoclass/internal/domain"
	"lingoclass/internal/domain/models"
	"lingoclass/internal/domain/repositories"
	"lingoclass/internal/domain/services"
)

// programService implements the ProgramService interface
type programService struct {
	programRepo repositories.ProgramRepository
	orgRepo     repositories.OrganizationRepository
	resolver    services.PermissionResolver
	logger      *slog.Logger
	now         func() time.Time
}

// NewProgramService creates a new program service
func NewProgramService(
	programRepo repositories.ProgramRepository,
	orgRepo repositories.OrganizationRepository,
	resolver services.PermissionResolver,
	logger *slog.Logger,
) services.ProgramService {
	return &programService{
		programRepo: programRepo,
		orgRepo:     orgRepo,
		resolver:    resolver,
		logger:      logger,
		now:         time.Now,
	}
}

// GetProgram retrieves a program the teacher can read
func (s *programService) GetProgram(ctx context.Context, teacher *models.Teacher, id int64) (*models.Program, error) {
	program, err := s.programRepo.GetProgram(ctx, id)
	if err != nil {
		return nil, err
	}

	if d := s.resolver.ResolveProgramAccess(ctx, program, teacher, false); !d.Allowed {
		return nil, denied(d)
	}
	return program, nil
}

// UpdateProgram applies a partial update
func (s *programService) UpdateProgram(ctx context.Context, teacher *models.Teacher, id int64, req *services.UpdateProgramRequest) (*models.Program, error) {
	if err := s.validateUpdateProgram(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	program, err := s.programRepo.GetProgram(ctx, id)
	if err != nil {
		return nil, err
	}

	if d := s.resolver.ResolveProgramAccess(ctx, program, teacher, true); !d.Allowed {
		return nil, denied(d)
	}

	if req.Name != nil {
		program.Name = *trimmed(req.Name)
	}
	if req.Description != nil {
		program.Description = trimmed(req.Description)
	}
	if req.IsTemplate != nil {
		program.IsTemplate = *req.IsTemplate
	}
	program.UpdatedAt = s.now()

	if err := s.programRepo.UpdateProgram(ctx, program); err != nil {
		return nil, err
	}

	s.logger.Info("program updated",
		"id", program.ID,
		"teacher_id", teacher.ID,
	)
	return program, nil
}

// DeleteProgram soft-deletes a program and its lessons
func (s *programService) DeleteProgram(ctx context.Context, teacher *models.Teacher, id int64) error {
	program, err := s.programRepo.GetProgram(ctx, id)
	if err != nil {
		return err
	}

	if d := s.resolver.ResolveProgramAccess(ctx, program, teacher, true); !d.Allowed {
		return denied(d)
	}

	if err := s.programRepo.SoftDeleteProgram(ctx, id); err != nil {
		return err
	}

	s.logger.Info("program deleted",
		"id", id,
		"teacher_id", teacher.ID,
	)
	return nil
}

// GetLesson retrieves a lesson through its program
func (s *programService) GetLesson(ctx context.Context, teacher *models.Teacher, id int64) (*models.Lesson, error) {
	lesson, err := s.programRepo.GetLesson(ctx, id)
	if err != nil {
		return nil, err
	}

	if d, _ := s.resolver.ResolveLessonAccess(ctx, lesson, teacher, false); !d.Allowed {
		return nil, denied(d)
	}
	return lesson, nil
}

// UpdateLesson applies a partial update
func (s *programService) UpdateLesson(ctx context.Context, teacher *models.Teacher, id int64, req *services.UpdateLessonRequest) (*models.Lesson, error) {
	if err := s.validateUpdateLesson(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	lesson, err := s.programRepo.GetLesson(ctx, id)
	if err != nil {
		return nil, err
	}

	if d, _ := s.resolver.ResolveLessonAccess(ctx, lesson, teacher, true); !d.Allowed {
		return nil, denied(d)
	}

	if req.Name != nil {
		lesson.Name = *trimmed(req.Name)
	}
	if req.Description != nil {
		lesson.Description = trimmed(req.Description)
	}
	if req.OrderIndex != nil {
		lesson.OrderIndex = *req.OrderIndex
	}
	lesson.UpdatedAt = s.now()

	if err := s.programRepo.UpdateLesson(ctx, lesson); err != nil {
		return nil, err
	}

	s.logger.Info("lesson updated",
		"id", lesson.ID,
		"program_id", lesson.ProgramID,
		"teacher_id", teacher.ID,
	)
	return lesson, nil
}

// GetContent retrieves content, including assignment copies the teacher owns
func (s *programService) GetContent(ctx context.Context, teacher *models.Teacher, id int64) (*models.Content, error) {
	content, err := s.programRepo.GetContent(ctx, id)
	if err != nil {
		return nil, err
	}

	if access := s.resolver.ResolveContentAccess(ctx, content, teacher, false, true); !access.Decision.Allowed {
		return nil, denied(access.Decision)
	}
	return content, nil
}

// UpdateContent applies a partial update
func (s *programService) UpdateContent(ctx context.Context, teacher *models.Teacher, id int64, req *services.UpdateContentRequest) (*models.Content, error) {
	if err := s.validateUpdateContent(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	content, err := s.programRepo.GetContent(ctx, id)
	if err != nil {
		return nil, err
	}

	if access := s.resolver.ResolveContentAccess(ctx, content, teacher, true, true); !access.Decision.Allowed {
		return nil, denied(access.Decision)
	}

	if req.Title != nil {
		content.Title = *trimmed(req.Title)
	}
	if req.Level != nil {
		content.Level = trimmed(req.Level)
	}
	content.UpdatedAt = s.now()

	if err := s.programRepo.UpdateContent(ctx, content); err != nil {
		return nil, err
	}

	s.logger.Info("content updated",
		"id", content.ID,
		"assignment_copy", content.IsAssignmentCopy,
		"teacher_id", teacher.ID,
	)
	return content, nil
}

// ListOrganizationPrograms lists an organization's programs for its members
func (s *programService) ListOrganizationPrograms(ctx context.Context, teacher *models.Teacher, organizationID int64) ([]models.Program, error) {
	if d := s.resolver.ResolveOrganizationAccess(ctx, organizationID, teacher, false); !d.Allowed {
		return nil, denied(d)
	}
	return s.programRepo.ListByOrganization(ctx, organizationID)
}

// ListSchoolPrograms lists a school's programs for its managers
func (s *programService) ListSchoolPrograms(ctx context.Context, teacher *models.Teacher, schoolID int64) ([]models.Program, error) {
	school, err := s.orgRepo.GetSchool(ctx, schoolID)
	if err != nil {
		return nil, err
	}

	if d := s.resolver.ResolveSchoolAccess(ctx, school, teacher); !d.Allowed {
		return nil, denied(d)
	}
	return s.programRepo.ListBySchool(ctx, schoolID)
}

func (s *programService) validateUpdateProgram(req *services.UpdateProgramRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Name,
			validation.NilOrNotEmpty,
			validation.Length(1, config.MaxProgramNameLength),
			validation.By(notBlank),
		),
		validation.Field(&req.Description, validation.Length(0, config.MaxDescriptionLength)),
	)
}

func (s *programService) validateUpdateLesson(req *services.UpdateLessonRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Name,
			validation.NilOrNotEmpty,
			validation.Length(1, config.MaxLessonNameLength),
			validation.By(notBlank),
		),
		validation.Field(&req.Description, validation.Length(0, config.MaxDescriptionLength)),
		validation.Field(&req.OrderIndex, validation.Min(0)),
	)
}

func (s *programService) validateUpdateContent(req *services.UpdateContentRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Title,
			validation.NilOrNotEmpty,
			validation.Length(1, config.MaxContentTitleLength),
			validation.By(notBlank),
		),
		validation.Field(&req.Level, validation.Length(0, config.MaxLevelLength)),
	)
}
