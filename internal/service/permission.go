package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"lingoclass/internal/domain"
	"lingoclass/internal/domain/models"
	"lingoclass/internal/domain/repositories"
	"lingoclass/internal/domain/services"
	"lingoclass/internal/service/authz"
)

// ReasonOwnerRequired is returned when a non-owner manages grants.
const ReasonOwnerRequired = "only organization owners can manage permissions"

var grantablePermissions = []interface{}{
	models.PermissionManageMaterials,
	models.PermissionManageSchools,
	models.PermissionManagePoints,
}

// permissionService implements the PermissionService interface
type permissionService struct {
	memberRepo repositories.MembershipRepository
	grantRepo  repositories.PermissionRepository
	policy     services.PolicyStore
	logger     *slog.Logger
	now        func() time.Time
}

// NewPermissionService creates a new permission service. The policy store
// is reloaded after every change.
func NewPermissionService(
	memberRepo repositories.MembershipRepository,
	grantRepo repositories.PermissionRepository,
	policy services.PolicyStore,
	logger *slog.Logger,
) services.PermissionService {
	return &permissionService{
		memberRepo: memberRepo,
		grantRepo:  grantRepo,
		policy:     policy,
		logger:     logger,
		now:        time.Now,
	}
}

// Grant gives a member an explicit write permission in the organization
func (s *permissionService) Grant(ctx context.Context, caller *models.Teacher, organizationID int64, req *services.PermissionRequest) (*models.PermissionGrant, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := s.requireOwner(ctx, caller, organizationID); err != nil {
		return nil, err
	}

	if _, err := s.memberRepo.GetOrganizationMembership(ctx, req.TeacherID, organizationID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.NotFoundError{Message: "teacher is not a member of this organization"}
		}
		return nil, err
	}

	grant := &models.PermissionGrant{
		TeacherID:      req.TeacherID,
		OrganizationID: organizationID,
		Resource:       req.Permission,
		Action:         models.ActionWrite,
		GrantedBy:      caller.ID,
		CreatedAt:      s.now(),
	}
	if err := s.grantRepo.CreateGrant(ctx, grant); err != nil {
		return nil, err
	}

	s.logger.Info("permission granted",
		"organization_id", organizationID,
		"teacher_id", req.TeacherID,
		"permission", req.Permission,
		"granted_by", caller.ID,
	)
	s.reload(ctx)
	return grant, nil
}

// Revoke removes an explicit permission
func (s *permissionService) Revoke(ctx context.Context, caller *models.Teacher, organizationID int64, req *services.PermissionRequest) error {
	if err := s.validateRequest(req); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := s.requireOwner(ctx, caller, organizationID); err != nil {
		return err
	}

	if err := s.grantRepo.DeleteGrant(ctx, req.TeacherID, organizationID, req.Permission, models.ActionWrite); err != nil {
		return err
	}

	s.logger.Info("permission revoked",
		"organization_id", organizationID,
		"teacher_id", req.TeacherID,
		"permission", req.Permission,
		"revoked_by", caller.ID,
	)
	s.reload(ctx)
	return nil
}

func (s *permissionService) requireOwner(ctx context.Context, caller *models.Teacher, organizationID int64) error {
	if caller == nil || !caller.IsActive {
		return &domain.AccessDeniedError{Reason: authz.ReasonTeacherInactive}
	}

	membership, err := s.memberRepo.GetOrganizationMembership(ctx, caller.ID, organizationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.AccessDeniedError{Reason: authz.ReasonNoOrganizationAccess}
		}
		return err
	}
	if membership.Role != models.RoleOrgOwner {
		return &domain.AccessDeniedError{Reason: ReasonOwnerRequired}
	}
	return nil
}

// reload refreshes the policy store. The change is already committed, so a
// failure only delays it until the next periodic reload.
func (s *permissionService) reload(ctx context.Context) {
	if err := s.policy.Reload(ctx); err != nil {
		s.logger.Error("policy reload failed", "error", err)
	}
}

func (s *permissionService) validateRequest(req *services.PermissionRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.TeacherID, validation.Required, validation.Min(int64(1))),
		validation.Field(&req.Permission, validation.Required, validation.In(grantablePermissions...)),
	)
}
