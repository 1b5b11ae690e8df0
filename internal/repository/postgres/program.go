package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"lingoclass/internal/domain"
	"lingoclass/internal/domain/models"
	"lingoclass/internal/domain/repositories"
)

// PostgresProgramRepository implements the ProgramRepository interface
type PostgresProgramRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewProgramRepository creates a new program repository
func NewProgramRepository(config *RepositoryConfig) repositories.ProgramRepository {
	return &PostgresProgramRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const programColumns = `id, name, description, teacher_id, organization_id, school_id,
	is_template, is_active, created_at, updated_at, deleted_at`

func scanProgram(row pgx.Row, p *models.Program) error {
	return row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.TeacherID,
		&p.OrganizationID,
		&p.SchoolID,
		&p.IsTemplate,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.DeletedAt,
	)
}

// GetProgram retrieves an active, undeleted program
func (r *PostgresProgramRepository) GetProgram(ctx context.Context, id int64) (*models.Program, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND is_active AND deleted_at IS NULL
	`, programColumns, r.tables.Programs)

	var program models.Program
	executor := GetExecutor(ctx, r.pool)
	if err := scanProgram(executor.QueryRow(ctx, query, id), &program); err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("program %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get program: %w", err)
	}

	return &program, nil
}

// UpdateProgram writes the editable program fields
func (r *PostgresProgramRepository) UpdateProgram(ctx context.Context, program *models.Program) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, description = $2, is_template = $3, updated_at = $4
		WHERE id = $5 AND deleted_at IS NULL
	`, r.tables.Programs)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		program.Name,
		program.Description,
		program.IsTemplate,
		program.UpdatedAt,
		program.ID,
	)
	if err != nil {
		return fmt.Errorf("update program: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("program %d: %w", program.ID, domain.ErrNotFound)
	}

	return nil
}

// SoftDeleteProgram marks the program deleted and deactivates its lessons
// in one statement.
func (r *PostgresProgramRepository) SoftDeleteProgram(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`
		WITH deleted AS (
			UPDATE %s
			SET is_active = FALSE, deleted_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND deleted_at IS NULL
			RETURNING id
		), lessons AS (
			UPDATE %s
			SET is_active = FALSE, updated_at = NOW()
			WHERE program_id IN (SELECT id FROM deleted) AND is_active
		)
		SELECT COUNT(*) FROM deleted
	`, r.tables.Programs, r.tables.Lessons)

	var deleted int
	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, id).Scan(&deleted); err != nil {
		return fmt.Errorf("delete program: %w", err)
	}

	if deleted == 0 {
		return fmt.Errorf("program %d: %w", id, domain.ErrNotFound)
	}

	return nil
}

// ListByOrganization lists an organization's active programs, newest first
func (r *PostgresProgramRepository) ListByOrganization(ctx context.Context, organizationID int64) ([]models.Program, error) {
	return r.list(ctx, "organization_id", organizationID)
}

// ListBySchool lists a school's active programs, newest first
func (r *PostgresProgramRepository) ListBySchool(ctx context.Context, schoolID int64) ([]models.Program, error) {
	return r.list(ctx, "school_id", schoolID)
}

// list filters on an owner column. column is always a constant.
func (r *PostgresProgramRepository) list(ctx context.Context, column string, ownerID int64) ([]models.Program, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1 AND is_active AND deleted_at IS NULL
		ORDER BY updated_at DESC
	`, programColumns, r.tables.Programs, column)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	defer rows.Close()

	programs := []models.Program{}
	for rows.Next() {
		var program models.Program
		if err := scanProgram(rows, &program); err != nil {
			return nil, fmt.Errorf("scan program: %w", err)
		}
		programs = append(programs, program)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate programs: %w", err)
	}

	return programs, nil
}

// GetLesson retrieves an active lesson
func (r *PostgresProgramRepository) GetLesson(ctx context.Context, id int64) (*models.Lesson, error) {
	query := fmt.Sprintf(`
		SELECT id, program_id, name, description, order_index, is_active, updated_at
		FROM %s
		WHERE id = $1 AND is_active
	`, r.tables.Lessons)

	var lesson models.Lesson
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&lesson.ID,
		&lesson.ProgramID,
		&lesson.Name,
		&lesson.Description,
		&lesson.OrderIndex,
		&lesson.IsActive,
		&lesson.UpdatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("lesson %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get lesson: %w", err)
	}

	return &lesson, nil
}

// UpdateLesson writes the editable lesson fields
func (r *PostgresProgramRepository) UpdateLesson(ctx context.Context, lesson *models.Lesson) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, description = $2, order_index = $3, updated_at = $4
		WHERE id = $5 AND is_active
	`, r.tables.Lessons)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		lesson.Name,
		lesson.Description,
		lesson.OrderIndex,
		lesson.UpdatedAt,
		lesson.ID,
	)
	if err != nil {
		return fmt.Errorf("update lesson: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("lesson %d: %w", lesson.ID, domain.ErrNotFound)
	}

	return nil
}

// GetContent retrieves active content, including assignment copies
func (r *PostgresProgramRepository) GetContent(ctx context.Context, id int64) (*models.Content, error) {
	query := fmt.Sprintf(`
		SELECT id, lesson_id, title, type, level, is_assignment_copy, is_active, updated_at
		FROM %s
		WHERE id = $1 AND is_active
	`, r.tables.Contents)

	var content models.Content
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&content.ID,
		&content.LessonID,
		&content.Title,
		&content.Type,
		&content.Level,
		&content.IsAssignmentCopy,
		&content.IsActive,
		&content.UpdatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("content %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get content: %w", err)
	}

	return &content, nil
}

// UpdateContent writes the editable content fields
func (r *PostgresProgramRepository) UpdateContent(ctx context.Context, content *models.Content) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, level = $2, updated_at = $3
		WHERE id = $4 AND is_active
	`, r.tables.Contents)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		content.Title,
		content.Level,
		content.UpdatedAt,
		content.ID,
	)
	if err != nil {
		return fmt.Errorf("update content: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("content %d: %w", content.ID, domain.ErrNotFound)
	}

	return nil
}

// FindAssignmentForContent finds an active assignment of the teacher that
// uses the content
func (r *PostgresProgramRepository) FindAssignmentForContent(ctx context.Context, contentID, teacherID int64) (*models.Assignment, error) {
	query := fmt.Sprintf(`
		SELECT a.id, a.teacher_id, a.classroom_id, a.title, a.is_active, a.created_at
		FROM %s a
		JOIN %s ac ON ac.assignment_id = a.id
		WHERE ac.content_id = $1 AND a.teacher_id = $2 AND a.is_active
		ORDER BY a.created_at DESC
		LIMIT 1
	`, r.tables.Assignments, r.tables.AssignmentContents)

	var a models.Assignment
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, contentID, teacherID).Scan(
		&a.ID,
		&a.TeacherID,
		&a.ClassroomID,
		&a.Title,
		&a.IsActive,
		&a.CreatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("assignment for content %d: %w", contentID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("find assignment for content: %w", err)
	}

	return &a, nil
}
