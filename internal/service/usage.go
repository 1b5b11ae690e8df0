package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"lingoclass/internal/domain"
	"lingoclass/internal/domain/models"
	"lingoclass/internal/domain/services"
	"lingoclass/internal/metering"
	"lingoclass/internal/service/authz"
)

// FeatureCatalog lists the metered features.
type FeatureCatalog interface {
	Feature(name string) (*metering.Feature, bool)
	FeatureNames() []string
}

// usageService implements the UsageService interface
type usageService struct {
	quota    services.QuotaService
	resolver services.PermissionResolver
	features FeatureCatalog
	logger   *slog.Logger
}

// NewUsageService creates a new usage service
func NewUsageService(
	quota services.QuotaService,
	resolver services.PermissionResolver,
	features FeatureCatalog,
	logger *slog.Logger,
) services.UsageService {
	return &usageService{
		quota:    quota,
		resolver: resolver,
		features: features,
		logger:   logger,
	}
}

// Deduct charges a usage to the organization named in the request, or to
// the teacher's active subscription period when none is named.
func (s *usageService) Deduct(ctx context.Context, teacher *models.Teacher, req *services.DeductPointsRequest) (*models.PointsUsageLog, error) {
	if err := s.validateDeduct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	usage := &services.UsageRecord{
		TeacherID:    teacher.ID,
		StudentID:    req.StudentID,
		AssignmentID: req.AssignmentID,
		FeatureType:  req.FeatureType,
		UnitCount:    req.UnitCount,
		UnitType:     req.UnitType,
		Detail:       req.Detail,
	}
	if usage.UnitType == "" {
		feature, _ := s.features.Feature(req.FeatureType)
		usage.UnitType = feature.DefaultUnit
	}

	if req.OrganizationID != nil {
		if d := s.resolver.ResolveOrganizationAccess(ctx, *req.OrganizationID, teacher, false); !d.Allowed {
			return nil, denied(d)
		}
		s.logger.Debug("charging organization",
			"organization_id", *req.OrganizationID,
			"teacher_id", teacher.ID,
			"feature_type", usage.FeatureType,
		)
		return s.quota.DeductOrganization(ctx, *req.OrganizationID, usage)
	}

	if !teacher.IsActive {
		return nil, &domain.AccessDeniedError{Reason: authz.ReasonTeacherInactive}
	}
	return s.quota.DeductSubscription(ctx, teacher.ID, usage)
}

// CheckOrganization previews a deduction against the organization balance
func (s *usageService) CheckOrganization(ctx context.Context, teacher *models.Teacher, organizationID int64, req *services.CheckPointsRequest) (*models.PreCheckResult, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.UnitCount, validation.By(positiveCount)),
		validation.Field(&req.UnitType, validation.Required),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if d := s.resolver.ResolveOrganizationAccess(ctx, organizationID, teacher, false); !d.Allowed {
		return nil, denied(d)
	}
	return s.quota.CheckOrganization(ctx, organizationID, req.UnitCount, req.UnitType)
}

// OrganizationPoints reports the organization's balance to its members
func (s *usageService) OrganizationPoints(ctx context.Context, teacher *models.Teacher, organizationID int64) (*models.PointsInfo, error) {
	if d := s.resolver.ResolveOrganizationAccess(ctx, organizationID, teacher, false); !d.Allowed {
		return nil, denied(d)
	}
	return s.quota.OrganizationPointsInfo(ctx, organizationID)
}

// OrganizationLogs pages the usage log for owners and points managers
func (s *usageService) OrganizationLogs(ctx context.Context, teacher *models.Teacher, organizationID int64, limit, offset int) ([]models.PointsUsageLog, int, error) {
	if d := s.resolver.ResolveOrganizationPermission(ctx, organizationID, teacher, models.PermissionManagePoints); !d.Allowed {
		return nil, 0, denied(d)
	}
	return s.quota.ListOrganizationLogs(ctx, organizationID, limit, offset)
}

// TeacherQuota reports the teacher's active subscription period
func (s *usageService) TeacherQuota(ctx context.Context, teacher *models.Teacher) (*models.PointsInfo, error) {
	info, err := s.quota.SubscriptionPointsInfo(ctx, teacher.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.NotFoundError{Message: "no active subscription period"}
		}
		return nil, err
	}
	return info, nil
}

func (s *usageService) validateDeduct(req *services.DeductPointsRequest) error {
	features := make([]interface{}, 0)
	for _, name := range s.features.FeatureNames() {
		features = append(features, name)
	}

	return validation.ValidateStruct(req,
		validation.Field(&req.OrganizationID, validation.Min(int64(1))),
		validation.Field(&req.FeatureType, validation.Required, validation.In(features...)),
		validation.Field(&req.UnitCount, validation.By(positiveCount)),
	)
}

func positiveCount(value interface{}) error {
	n, ok := value.(float64)
	if !ok {
		return errors.New("must be a number")
	}
	if math.IsNaN(n) || math.IsInf(n, 0) || n <= 0 {
		return errors.New("must be greater than zero")
	}
	return nil
}
