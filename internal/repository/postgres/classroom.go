package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
	"lingoclass/internal/domain"
	"lingoclass/internal/domain/models"
	"lingoclass/internal/domain/repositories"
)

// PostgresClassroomRepository implements the ClassroomRepository interface
type PostgresClassroomRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewClassroomRepository creates a new classroom repository
func NewClassroomRepository(config *RepositoryConfig) repositories.ClassroomRepository {
	return &PostgresClassroomRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// GetByID retrieves an active classroom and its current school link
func (r *PostgresClassroomRepository) GetByID(ctx context.Context, id int64) (*models.Classroom, error) {
	query := fmt.Sprintf(`
		SELECT c.id, c.name, c.level, c.teacher_id, c.is_active, cs.school_id, c.created_at, c.updated_at
		FROM %s c
		LEFT JOIN %s cs ON cs.classroom_id = c.id AND cs.is_active
		WHERE c.id = $1 AND c.is_active
	`, r.tables.Classrooms, r.tables.ClassroomSchools)

	var classroom models.Classroom
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&classroom.ID,
		&classroom.Name,
		&classroom.Level,
		&classroom.TeacherID,
		&classroom.IsActive,
		&classroom.SchoolID,
		&classroom.CreatedAt,
		&classroom.UpdatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("classroom %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get classroom: %w", err)
	}

	return &classroom, nil
}

// Update writes the editable classroom fields
func (r *PostgresClassroomRepository) Update(ctx context.Context, classroom *models.Classroom) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, level = $2, updated_at = $3
		WHERE id = $4 AND is_active
	`, r.tables.Classrooms)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		classroom.Name,
		classroom.Level,
		classroom.UpdatedAt,
		classroom.ID,
	)
	if err != nil {
		return fmt.Errorf("update classroom: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("classroom %d: %w", classroom.ID, domain.ErrNotFound)
	}

	return nil
}

// SoftDelete deactivates the classroom
func (r *PostgresClassroomRepository) SoftDelete(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND is_active
	`, r.tables.Classrooms)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete classroom: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("classroom %d: %w", id, domain.ErrNotFound)
	}

	return nil
}

// CreateStudent inserts the student and the enrollment in one statement.
// The enrollment carries the student number so the partial unique index
// rejects duplicates within a classroom.
func (r *PostgresClassroomRepository) CreateStudent(ctx context.Context, student *models.Student) error {
	query := fmt.Sprintf(`
		WITH s AS (
			INSERT INTO %s (name, email, student_number, is_active, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at
		)
		INSERT INTO %s (classroom_id, student_id, student_number, is_active, enrolled_at)
		SELECT $6, s.id, $3, TRUE, s.created_at FROM s
		RETURNING student_id
	`, r.tables.Students, r.tables.ClassroomStudents)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		student.Name,
		student.Email,
		student.StudentNumber,
		student.IsActive,
		student.CreatedAt,
		student.ClassroomID,
	).Scan(&student.ID)

	if err != nil {
		if IsPgDuplicateError(err) && student.StudentNumber != nil {
			existingID, queryErr := r.getStudentIDByNumber(ctx, student.ClassroomID, *student.StudentNumber)
			if queryErr != nil {
				return fmt.Errorf("student number '%s' already used in this classroom: %w", *student.StudentNumber, domain.ErrConflict)
			}
			return &domain.ConflictError{
				Message:      fmt.Sprintf("student number '%s' already used in this classroom", *student.StudentNumber),
				ResourceType: "student",
				ResourceID:   strconv.FormatInt(existingID, 10),
			}
		}
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("classroom %d: %w", student.ClassroomID, domain.ErrNotFound)
		}
		return fmt.Errorf("create student: %w", err)
	}

	return nil
}

func (r *PostgresClassroomRepository) getStudentIDByNumber(ctx context.Context, classroomID int64, number string) (int64, error) {
	query := fmt.Sprintf(`
		SELECT student_id
		FROM %s
		WHERE classroom_id = $1 AND student_number = $2 AND is_active
	`, r.tables.ClassroomStudents)

	var id int64
	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, classroomID, number).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}
