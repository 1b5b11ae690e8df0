package repositories

import (
	"context"

	"lingoclass/internal/domain/models"
)

// TeacherRepository loads principals.
type TeacherRepository interface {
	// GetByID returns the teacher regardless of active state.
	// Returns domain.ErrNotFound if no row exists.
	GetByID(ctx context.Context, id int64) (*models.Teacher, error)
}

// MembershipRepository reads organization and school memberships.
type MembershipRepository interface {
	// GetOrganizationMembership returns the teacher's active membership in the
	// organization, or domain.ErrNotFound.
	GetOrganizationMembership(ctx context.Context, teacherID, organizationID int64) (*models.TeacherOrganization, error)

	// GetSchoolMembership returns the teacher's active membership in the
	// school, or domain.ErrNotFound.
	GetSchoolMembership(ctx context.Context, teacherID, schoolID int64) (*models.TeacherSchool, error)

	// ListActiveOrganizationMemberships returns every active organization
	// membership. Used to build role bindings for the policy engine.
	ListActiveOrganizationMemberships(ctx context.Context) ([]models.TeacherOrganization, error)
}

// OrganizationRepository reads organizations and schools.
type OrganizationRepository interface {
	GetOrganization(ctx context.Context, id int64) (*models.Organization, error)

	// GetSchool returns an active school, or domain.ErrNotFound.
	GetSchool(ctx context.Context, id int64) (*models.School, error)
}
