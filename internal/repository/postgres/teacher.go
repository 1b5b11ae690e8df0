package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"lingoclass/internal/domain"
	"lingoclass/internal/domain/models"
	"lingoclass/internal/domain/repositories"
)

// PostgresTeacherRepository implements the TeacherRepository interface
type PostgresTeacherRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewTeacherRepository creates a new teacher repository
func NewTeacherRepository(config *RepositoryConfig) repositories.TeacherRepository {
	return &PostgresTeacherRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// GetByID retrieves a teacher by ID, active or not
func (r *PostgresTeacherRepository) GetByID(ctx context.Context, id int64) (*models.Teacher, error) {
	query := fmt.Sprintf(`
		SELECT id, email, name, is_active, created_at
		FROM %s
		WHERE id = $1
	`, r.tables.Teachers)

	var teacher models.Teacher
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&teacher.ID,
		&teacher.Email,
		&teacher.Name,
		&teacher.IsActive,
		&teacher.CreatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("teacher %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get teacher: %w", err)
	}

	return &teacher, nil
}
