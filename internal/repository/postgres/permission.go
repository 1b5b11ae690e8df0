package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"lingoclass/internal/domain"
	"lingoclass/internal/domain/models"
	"lingoclass/internal/domain/repositories"
)

// PostgresPermissionRepository implements the PermissionRepository interface
type PostgresPermissionRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewPermissionRepository creates a new permission grant repository
func NewPermissionRepository(config *RepositoryConfig) repositories.PermissionRepository {
	return &PostgresPermissionRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// CreateGrant inserts a grant
func (r *PostgresPermissionRepository) CreateGrant(ctx context.Context, grant *models.PermissionGrant) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (teacher_id, organization_id, resource, action, granted_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, r.tables.PermissionGrants)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		grant.TeacherID,
		grant.OrganizationID,
		grant.Resource,
		grant.Action,
		grant.GrantedBy,
		grant.CreatedAt,
	).Scan(&grant.ID, &grant.CreatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("teacher %d already holds %s", grant.TeacherID, grant.Resource),
				ResourceType: "grant",
			}
		}
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("grant references a missing row: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("create grant: %w", err)
	}

	return nil
}

// DeleteGrant removes a grant
func (r *PostgresPermissionRepository) DeleteGrant(ctx context.Context, teacherID, organizationID int64, resource, action string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE teacher_id = $1 AND organization_id = $2 AND resource = $3 AND action = $4
	`, r.tables.PermissionGrants)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, teacherID, organizationID, resource, action)
	if err != nil {
		return fmt.Errorf("delete grant: %w", err)
	}

	if result.RowsAffected() == 0 {
		return &domain.NotFoundError{Message: fmt.Sprintf("teacher %d does not hold %s", teacherID, resource)}
	}

	return nil
}

// ListGrants returns every grant, for building the policy
func (r *PostgresPermissionRepository) ListGrants(ctx context.Context) ([]models.PermissionGrant, error) {
	query := fmt.Sprintf(`
		SELECT id, teacher_id, organization_id, resource, action, granted_by, created_at
		FROM %s
		ORDER BY organization_id, teacher_id, id
	`, r.tables.PermissionGrants)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}
	defer rows.Close()

	grants := []models.PermissionGrant{}
	for rows.Next() {
		var g models.PermissionGrant
		if err := rows.Scan(&g.ID, &g.TeacherID, &g.OrganizationID, &g.Resource, &g.Action, &g.GrantedBy, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		grants = append(grants, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grants: %w", err)
	}

	return grants, nil
}
