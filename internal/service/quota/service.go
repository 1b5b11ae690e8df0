package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"lingoclass/internal/config"
	"lingoclass/internal/domain"
	"lingoclass/internal/domain/models"
	"lingoclass/internal/domain/repositories"
	"lingoclass/internal/domain/services"
)

// Recorder receives deduction metrics. May be nil.
type Recorder interface {
	RecordDeduction(ownerKind, featureType string, points int64)
	RecordRejection(reason string)
}

// Service implements services.QuotaService on top of the points repository.
type Service struct {
	points    repositories.PointsRepository
	txManager repositories.TransactionManager
	ledger    *Ledger
	recorder  Recorder
	logger    *slog.Logger
}

// NewService creates a new quota service
func NewService(
	points repositories.PointsRepository,
	txManager repositories.TransactionManager,
	ledger *Ledger,
	recorder Recorder,
	logger *slog.Logger,
) *Service {
	return &Service{
		points:    points,
		txManager: txManager,
		ledger:    ledger,
		recorder:  recorder,
		logger:    logger,
	}
}

var _ services.QuotaService = (*Service)(nil)

// DeductOrganization charges the organization's points.
func (s *Service) DeductOrganization(ctx context.Context, organizationID int64, usage *services.UsageRecord) (*models.PointsUsageLog, error) {
	return s.deduct(ctx, usage, func(ctx context.Context) (*models.PointsBalance, error) {
		return s.points.GetOrganizationBalance(ctx, organizationID, true)
	})
}

// DeductSubscription charges the teacher's active subscription period.
func (s *Service) DeductSubscription(ctx context.Context, teacherID int64, usage *services.UsageRecord) (*models.PointsUsageLog, error) {
	return s.deduct(ctx, usage, func(ctx context.Context) (*models.PointsBalance, error) {
		return s.subscriptionBalance(ctx, teacherID, true)
	})
}

// deduct runs lock, compute, update and log in one transaction so a
// balance change is never visible without its log row.
func (s *Service) deduct(ctx context.Context, usage *services.UsageRecord, load func(context.Context) (*models.PointsBalance, error)) (*models.PointsUsageLog, error) {
	var entry *models.PointsUsageLog

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		balance, err := load(txCtx)
		if err != nil {
			return err
		}

		entry, err = s.ledger.Deduct(balance, usage)
		if err != nil {
			return err
		}

		if err := s.points.UpdateBalance(txCtx, balance); err != nil {
			return fmt.Errorf("update balance: %w", err)
		}
		if err := s.points.InsertUsageLog(txCtx, entry); err != nil {
			return fmt.Errorf("insert usage log: %w", err)
		}
		return nil
	})
	if err != nil {
		s.rejected(usage, err)
		return nil, err
	}

	if s.recorder != nil {
		s.recorder.RecordDeduction(entry.OwnerKind, entry.FeatureType, entry.PointsUsed)
	}
	s.logger.Info("points deducted",
		"owner_kind", entry.OwnerKind,
		"owner_id", entry.OwnerID,
		"teacher_id", entry.TeacherID,
		"feature_type", entry.FeatureType,
		"points_used", entry.PointsUsed,
		"points_after", entry.PointsAfter,
	)
	return entry, nil
}

// CheckOrganization is a dry run against the organization's current balance.
func (s *Service) CheckOrganization(ctx context.Context, organizationID int64, unitCount float64, unitType string) (*models.PreCheckResult, error) {
	balance, err := s.points.GetOrganizationBalance(ctx, organizationID, false)
	if err != nil {
		return nil, err
	}
	return s.ledger.PreCheck(balance, unitCount, unitType)
}

// OrganizationPointsInfo reports the organization's balance status.
func (s *Service) OrganizationPointsInfo(ctx context.Context, organizationID int64) (*models.PointsInfo, error) {
	balance, err := s.points.GetOrganizationBalance(ctx, organizationID, false)
	if err != nil {
		return nil, err
	}
	return PointsInfo(balance), nil
}

// SubscriptionPointsInfo reports the teacher's active period status.
func (s *Service) SubscriptionPointsInfo(ctx context.Context, teacherID int64) (*models.PointsInfo, error) {
	period, err := s.points.GetActiveSubscriptionPeriod(ctx, teacherID, false)
	if err != nil {
		return nil, err
	}
	return PointsInfo(period.Balance(s.ledger.now())), nil
}

// ListOrganizationLogs pages through the organization's usage log.
func (s *Service) ListOrganizationLogs(ctx context.Context, organizationID int64, limit, offset int) ([]models.PointsUsageLog, int, error) {
	if limit <= 0 {
		limit = config.DefaultUsageLogPageSize
	}
	limit = min(limit, config.MaxUsageLogPageSize)
	offset = max(offset, 0)

	return s.points.ListUsageLogs(ctx, models.OwnerOrganization, organizationID, limit, offset)
}

// subscriptionBalance maps a missing active period to an inactive balance
// so callers block the feature instead of returning 404.
func (s *Service) subscriptionBalance(ctx context.Context, teacherID int64, forUpdate bool) (*models.PointsBalance, error) {
	period, err := s.points.GetActiveSubscriptionPeriod(ctx, teacherID, forUpdate)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.OrganizationInactiveError{OwnerKind: models.OwnerSubscriptionPeriod}
		}
		return nil, err
	}
	return period.Balance(s.ledger.now()), nil
}

func (s *Service) rejected(usage *services.UsageRecord, err error) {
	var (
		exceeded *domain.QuotaExceededError
		inactive *domain.OrganizationInactiveError
		badUnit  *domain.InvalidUnitError
		reason   string
	)
	switch {
	case errors.As(err, &exceeded):
		reason = "quota_exceeded"
		s.logger.Warn("points deduction rejected",
			"teacher_id", usage.TeacherID,
			"feature_type", usage.FeatureType,
			"points_requested", exceeded.PointsRequested,
			"over_limit", exceeded.OverLimit,
		)
	case errors.As(err, &inactive):
		reason = "inactive"
	case errors.As(err, &badUnit):
		reason = "invalid_unit"
	case errors.Is(err, domain.ErrValidation):
		reason = "validation"
	default:
		s.logger.Error("points deduction failed", "error", err)
		return
	}
	if s.recorder != nil {
		s.recorder.RecordRejection(reason)
	}
}
