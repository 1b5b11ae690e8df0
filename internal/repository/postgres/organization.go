package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"lingoclass/internal/domain"
	"lingoclass/internal/domain/models"
	"lingoclass/internal/domain/repositories"
)

// PostgresOrganizationRepository reads organizations, schools and the
// memberships that tie teachers to them.
type PostgresOrganizationRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewOrganizationRepository creates a repository serving both the
// OrganizationRepository and MembershipRepository interfaces.
func NewOrganizationRepository(config *RepositoryConfig) *PostgresOrganizationRepository {
	return &PostgresOrganizationRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

var (
	_ repositories.OrganizationRepository = (*PostgresOrganizationRepository)(nil)
	_ repositories.MembershipRepository   = (*PostgresOrganizationRepository)(nil)
)

// GetOrganization retrieves an organization with its points columns
func (r *PostgresOrganizationRepository) GetOrganization(ctx context.Context, id int64) (*models.Organization, error) {
	query := fmt.Sprintf(`
		SELECT id, name, is_active, total_points, used_points, last_points_update
		FROM %s
		WHERE id = $1
	`, r.tables.Organizations)

	var org models.Organization
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&org.ID,
		&org.Name,
		&org.IsActive,
		&org.TotalPoints,
		&org.UsedPoints,
		&org.LastPointsUpdate,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("organization %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get organization: %w", err)
	}

	return &org, nil
}

// GetSchool retrieves an active school
func (r *PostgresOrganizationRepository) GetSchool(ctx context.Context, id int64) (*models.School, error) {
	query := fmt.Sprintf(`
		SELECT id, organization_id, name, is_active
		FROM %s
		WHERE id = $1 AND is_active
	`, r.tables.Schools)

	var school models.School
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&school.ID,
		&school.OrganizationID,
		&school.Name,
		&school.IsActive,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("school %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get school: %w", err)
	}

	return &school, nil
}

// GetOrganizationMembership retrieves the teacher's active membership.
// Organization state is not checked here; points deductions report an
// inactive organization themselves.
func (r *PostgresOrganizationRepository) GetOrganizationMembership(ctx context.Context, teacherID, organizationID int64) (*models.TeacherOrganization, error) {
	query := fmt.Sprintf(`
		SELECT id, teacher_id, organization_id, role, is_active
		FROM %s
		WHERE teacher_id = $1 AND organization_id = $2 AND is_active
	`, r.tables.TeacherOrganizations)

	var m models.TeacherOrganization
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, teacherID, organizationID).Scan(
		&m.ID,
		&m.TeacherID,
		&m.OrganizationID,
		&m.Role,
		&m.IsActive,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("membership of teacher %d in organization %d: %w", teacherID, organizationID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get organization membership: %w", err)
	}

	return &m, nil
}

// GetSchoolMembership retrieves the teacher's active school membership
func (r *PostgresOrganizationRepository) GetSchoolMembership(ctx context.Context, teacherID, schoolID int64) (*models.TeacherSchool, error) {
	query := fmt.Sprintf(`
		SELECT id, teacher_id, school_id, roles, is_active
		FROM %s
		WHERE teacher_id = $1 AND school_id = $2 AND is_active
	`, r.tables.TeacherSchools)

	var m models.TeacherSchool
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, teacherID, schoolID).Scan(
		&m.ID,
		&m.TeacherID,
		&m.SchoolID,
		&m.Roles,
		&m.IsActive,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("membership of teacher %d in school %d: %w", teacherID, schoolID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get school membership: %w", err)
	}

	return &m, nil
}

// ListActiveOrganizationMemberships returns every active membership in an
// active organization
func (r *PostgresOrganizationRepository) ListActiveOrganizationMemberships(ctx context.Context) ([]models.TeacherOrganization, error) {
	query := fmt.Sprintf(`
		SELECT m.id, m.teacher_id, m.organization_id, m.role, m.is_active
		FROM %s m
		JOIN %s o ON o.id = m.organization_id
		WHERE m.is_active AND o.is_active
		ORDER BY m.organization_id, m.teacher_id
	`, r.tables.TeacherOrganizations, r.tables.Organizations)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	memberships := []models.TeacherOrganization{}
	for rows.Next() {
		var m models.TeacherOrganization
		if err := rows.Scan(&m.ID, &m.TeacherID, &m.OrganizationID, &m.Role, &m.IsActive); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		memberships = append(memberships, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memberships: %w", err)
	}

	return memberships, nil
}
