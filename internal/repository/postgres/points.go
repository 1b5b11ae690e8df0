package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"lingoclass/internal/domain"
	"lingoclass/internal/domain/models"
	"lingoclass/internal/domain/repositories"
)

// errLockOutsideTx guards FOR UPDATE reads, whose lock would be released
// as soon as the statement finished.
var errLockOutsideTx = errors.New("row lock requested outside a transaction")

// PostgresPointsRepository implements the PointsRepository interface
type PostgresPointsRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewPointsRepository creates a new points repository
func NewPointsRepository(config *RepositoryConfig) repositories.PointsRepository {
	return &PostgresPointsRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

func lockClause(ctx context.Context, forUpdate bool) (string, error) {
	if !forUpdate {
		return "", nil
	}
	if !repositories.InTx(ctx) {
		return "", errLockOutsideTx
	}
	return "FOR UPDATE", nil
}

// GetOrganizationBalance loads the organization's points
func (r *PostgresPointsRepository) GetOrganizationBalance(ctx context.Context, organizationID int64, forUpdate bool) (*models.PointsBalance, error) {
	lock, err := lockClause(ctx, forUpdate)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT id, total_points, used_points, is_active, last_points_update
		FROM %s
		WHERE id = $1
		%s
	`, r.tables.Organizations, lock)

	balance := models.PointsBalance{OwnerKind: models.OwnerOrganization}
	executor := GetExecutor(ctx, r.pool)
	err = executor.QueryRow(ctx, query, organizationID).Scan(
		&balance.OwnerID,
		&balance.TotalPoints,
		&balance.UsedPoints,
		&balance.IsActive,
		&balance.LastUpdated,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("organization %d: %w", organizationID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get organization balance: %w", err)
	}

	return &balance, nil
}

// GetActiveSubscriptionPeriod loads the period currently in force for the
// teacher. If periods overlap the one ending last wins.
func (r *PostgresPointsRepository) GetActiveSubscriptionPeriod(ctx context.Context, teacherID int64, forUpdate bool) (*models.SubscriptionPeriod, error) {
	lock, err := lockClause(ctx, forUpdate)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT id, teacher_id, plan_name, quota_total, quota_used, start_date, end_date, status
		FROM %s
		WHERE teacher_id = $1 AND status = 'active'
		  AND start_date <= NOW() AND end_date > NOW()
		ORDER BY end_date DESC
		LIMIT 1
		%s
	`, r.tables.SubscriptionPeriods, lock)

	var p models.SubscriptionPeriod
	executor := GetExecutor(ctx, r.pool)
	err = executor.QueryRow(ctx, query, teacherID).Scan(
		&p.ID,
		&p.TeacherID,
		&p.PlanName,
		&p.QuotaTotal,
		&p.QuotaUsed,
		&p.StartDate,
		&p.EndDate,
		&p.Status,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("active subscription period for teacher %d: %w", teacherID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get subscription period: %w", err)
	}

	return &p, nil
}

// UpdateBalance writes the used points back to the owning row
func (r *PostgresPointsRepository) UpdateBalance(ctx context.Context, balance *models.PointsBalance) error {
	var (
		query string
		args  []interface{}
	)
	switch balance.OwnerKind {
	case models.OwnerOrganization:
		query = fmt.Sprintf(`
			UPDATE %s
			SET used_points = $1, last_points_update = $2
			WHERE id = $3
		`, r.tables.Organizations)
		args = []interface{}{balance.UsedPoints, balance.LastUpdated, balance.OwnerID}
	case models.OwnerSubscriptionPeriod:
		query = fmt.Sprintf(`
			UPDATE %s
			SET quota_used = $1
			WHERE id = $2
		`, r.tables.SubscriptionPeriods)
		args = []interface{}{balance.UsedPoints, balance.OwnerID}
	default:
		return fmt.Errorf("unknown balance owner %q", balance.OwnerKind)
	}

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s balance: %w", balance.OwnerKind, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%s %d: %w", balance.OwnerKind, balance.OwnerID, domain.ErrNotFound)
	}

	return nil
}

// InsertUsageLog appends a usage log row
func (r *PostgresPointsRepository) InsertUsageLog(ctx context.Context, log *models.PointsUsageLog) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (
			owner_kind, owner_id, teacher_id, student_id, assignment_id,
			feature_type, unit_count, unit_type,
			points_used, points_before, points_after, detail, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at
	`, r.tables.PointsUsageLogs)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		log.OwnerKind,
		log.OwnerID,
		log.TeacherID,
		log.StudentID,
		log.AssignmentID,
		log.FeatureType,
		log.UnitCount,
		log.UnitType,
		log.PointsUsed,
		log.PointsBefore,
		log.PointsAfter,
		log.Detail,
		log.CreatedAt,
	).Scan(&log.ID, &log.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert usage log: %w", err)
	}

	return nil
}

// ListUsageLogs pages an owner's usage log, newest first
func (r *PostgresPointsRepository) ListUsageLogs(ctx context.Context, ownerKind string, ownerID int64, limit, offset int) ([]models.PointsUsageLog, int, error) {
	executor := GetExecutor(ctx, r.pool)

	countQuery := fmt.Sprintf(`
		SELECT COUNT(*) FROM %s WHERE owner_kind = $1 AND owner_id = $2
	`, r.tables.PointsUsageLogs)

	var total int
	if err := executor.QueryRow(ctx, countQuery, ownerKind, ownerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count usage logs: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, owner_kind, owner_id, teacher_id, student_id, assignment_id,
		       feature_type, unit_count, unit_type,
		       points_used, points_before, points_after, detail, created_at
		FROM %s
		WHERE owner_kind = $1 AND owner_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`, r.tables.PointsUsageLogs)

	rows, err := executor.Query(ctx, query, ownerKind, ownerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list usage logs: %w", err)
	}
	defer rows.Close()

	logs := []models.PointsUsageLog{}
	for rows.Next() {
		var l models.PointsUsageLog
		err := rows.Scan(
			&l.ID,
			&l.OwnerKind,
			&l.OwnerID,
			&l.TeacherID,
			&l.StudentID,
			&l.AssignmentID,
			&l.FeatureType,
			&l.UnitCount,
			&l.UnitType,
			&l.PointsUsed,
			&l.PointsBefore,
			&l.PointsAfter,
			&l.Detail,
			&l.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan usage log: %w", err)
		}
		logs = append(logs, l)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate usage logs: %w", err)
	}

	return logs, total, nil
}
