package repositories

import (
	"context"

	"lingoclass/internal/domain/models"
)

// PermissionRepository stores explicit permission grants.
type PermissionRepository interface {
	// CreateGrant inserts a grant. An existing identical grant returns a
	// *domain.ConflictError.
	CreateGrant(ctx context.Context, grant *models.PermissionGrant) error

	// DeleteGrant removes a grant, or returns domain.ErrNotFound.
	DeleteGrant(ctx context.Context, teacherID, organizationID int64, resource, action string) error

	ListGrants(ctx context.Context) ([]models.PermissionGrant, error)
}
