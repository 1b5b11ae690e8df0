package services

import (
	"context"

	"lingoclass/internal/domain/models"
)

// PermissionRequest names the member and the permission to grant or revoke
type PermissionRequest struct {
	TeacherID  int64  `json:"teacher_id"`
	Permission string `json:"permission"`
}

// PermissionService manages explicit grants inside an organization.
// Only the organization's owners may call it.
type PermissionService interface {
	Grant(ctx context.Context, caller *models.Teacher, organizationID int64, req *PermissionRequest) (*models.PermissionGrant, error)
	Revoke(ctx context.Context, caller *models.Teacher, organizationID int64, req *PermissionRequest) error
}
