package repositories

import (
	"context"

	"lingoclass/internal/domain/models"
)

// PointsRepository stores points balances and the usage log.
type PointsRepository interface {
	// GetOrganizationBalance loads the organization's points. With
	// forUpdate the row stays locked until the surrounding transaction ends.
	GetOrganizationBalance(ctx context.Context, organizationID int64, forUpdate bool) (*models.PointsBalance, error)

	// GetActiveSubscriptionPeriod returns the teacher's current active
	// period, or domain.ErrNotFound.
	GetActiveSubscriptionPeriod(ctx context.Context, teacherID int64, forUpdate bool) (*models.SubscriptionPeriod, error)

	// UpdateBalance writes UsedPoints and LastUpdated back to the owner row.
	UpdateBalance(ctx context.Context, balance *models.PointsBalance) error

	// InsertUsageLog appends a log row. ID and CreatedAt are filled in.
	InsertUsageLog(ctx context.Context, log *models.PointsUsageLog) error

	// ListUsageLogs pages through an owner's log, newest first, and returns
	// the total row count.
	ListUsageLogs(ctx context.Context, ownerKind string, ownerID int64, limit, offset int) ([]models.PointsUsageLog, int, error)
}
