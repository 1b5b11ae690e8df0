package quota

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"lingoclass/internal/config"
	"lingoclass/internal/domain"
	"lingoclass/internal/domain/models"
	"lingoclass/internal/domain/services"
)

// UnitConverter turns a usage amount into points.
type UnitConverter interface {
	ConvertUnitsToPoints(count float64, unit string) (int64, error)
}

// Ledger holds the pure points arithmetic. It mutates the balances it is
// handed but never touches storage; Service persists the results.
type Ledger struct {
	converter UnitConverter
	logger    *slog.Logger
	now       func() time.Time
}

// NewLedger creates a ledger using converter for unit rates
func NewLedger(converter UnitConverter, logger *slog.Logger) *Ledger {
	return &Ledger{
		converter: converter,
		logger:    logger,
		now:       time.Now,
	}
}

// ConvertUnitsToPoints returns floor(count * rate). Unknown units return
// *domain.InvalidUnitError.
func (l *Ledger) ConvertUnitsToPoints(count float64, unit string) (int64, error) {
	return l.converter.ConvertUnitsToPoints(count, unit)
}

// EffectiveLimit is total points plus the buffer, rounded down.
func EffectiveLimit(total int64) int64 {
	if total <= 0 {
		return 0
	}
	return total * (100 + config.BufferPercentage) / 100
}

// CheckSufficient is an advisory check that ignores the buffer, so it never
// promises more than Deduct will accept.
func CheckSufficient(balance *models.PointsBalance, required int64) bool {
	if balance == nil || !balance.IsActive {
		return false
	}
	return balance.TotalPoints-balance.UsedPoints >= required
}

// Deduct charges usage against balance. On success balance.UsedPoints and
// balance.LastUpdated are updated and the log row to persist is returned.
// On any error balance is left unchanged.
func (l *Ledger) Deduct(balance *models.PointsBalance, usage *services.UsageRecord) (*models.PointsUsageLog, error) {
	if usage == nil {
		return nil, fmt.Errorf("%w: usage is required", domain.ErrValidation)
	}
	if math.IsNaN(usage.UnitCount) || usage.UnitCount <= 0 {
		return nil, fmt.Errorf("%w: unit_count must be greater than zero", domain.ErrValidation)
	}
	if balance == nil || !balance.IsActive {
		return nil, inactiveError(balance)
	}

	pointsUsed, err := l.ConvertUnitsToPoints(usage.UnitCount, usage.UnitType)
	if err != nil {
		return nil, err
	}

	limit := EffectiveLimit(balance.TotalPoints)
	before := balance.UsedPoints
	after := before + pointsUsed

	if after > limit {
		return nil, &domain.QuotaExceededError{
			PointsRequested:  pointsUsed,
			PointsUsedBefore: before,
			TotalPoints:      balance.TotalPoints,
			EffectiveLimit:   limit,
			BufferPercentage: config.BufferPercentage,
			OverLimit:        after - limit,
		}
	}

	now := l.now()
	balance.UsedPoints = after
	balance.LastUpdated = &now

	if after > balance.TotalPoints {
		l.logger.Warn("points balance in buffer zone",
			"owner_kind", balance.OwnerKind,
			"owner_id", balance.OwnerID,
			"used_points", after,
			"total_points", balance.TotalPoints,
			"buffer_remaining", limit-after,
		)
	}

	return &models.PointsUsageLog{
		OwnerKind:    balance.OwnerKind,
		OwnerID:      balance.OwnerID,
		TeacherID:    usage.TeacherID,
		StudentID:    usage.StudentID,
		AssignmentID: usage.AssignmentID,
		FeatureType:  usage.FeatureType,
		UnitCount:    usage.UnitCount,
		UnitType:     usage.UnitType,
		PointsUsed:   pointsUsed,
		PointsBefore: before,
		PointsAfter:  after,
		Detail:       usage.Detail,
		CreatedAt:    now,
	}, nil
}

// PreCheck answers whether a usage would be accepted right now, applying
// the same buffer as Deduct. Nothing is mutated.
func (l *Ledger) PreCheck(balance *models.PointsBalance, unitCount float64, unitType string) (*models.PreCheckResult, error) {
	if math.IsNaN(unitCount) || unitCount <= 0 {
		return nil, fmt.Errorf("%w: unit_count must be greater than zero", domain.ErrValidation)
	}
	points, err := l.ConvertUnitsToPoints(unitCount, unitType)
	if err != nil {
		return nil, err
	}

	result := &models.PreCheckResult{PointsRequired: points}
	if balance == nil || !balance.IsActive {
		result.Reason = inactiveError(balance).Error()
		return result, nil
	}

	limit := EffectiveLimit(balance.TotalPoints)
	after := balance.UsedPoints + points

	result.EffectiveLimit = limit
	result.PointsAvailable = max(balance.TotalPoints-balance.UsedPoints, 0)
	result.UsesBuffer = after > balance.TotalPoints
	result.Allowed = after <= limit
	if !result.Allowed {
		result.Reason = "points quota exceeded"
	}
	return result, nil
}

func inactiveError(balance *models.PointsBalance) *domain.OrganizationInactiveError {
	if balance == nil {
		return &domain.OrganizationInactiveError{OwnerKind: models.OwnerOrganization}
	}
	return &domain.OrganizationInactiveError{OwnerKind: balance.OwnerKind, OwnerID: balance.OwnerID}
}
