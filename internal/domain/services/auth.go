package services

import (
	"context"

	"lingoclass/internal/domain/models"
)

// ClassroomOperation is a mutation on a classroom through the personal
// teacher pathway.
type ClassroomOperation string

const (
	ClassroomCreateStudent ClassroomOperation = "create_student"
	ClassroomUpdate        ClassroomOperation = "update"
	ClassroomDelete        ClassroomOperation = "delete"
)

// ContentAccess is the outcome of a content check plus the parents that
// were resolved on the way. Program and Lesson are nil when access came
// through an assignment copy.
type ContentAccess struct {
	Decision models.Decision
	Program  *models.Program
	Lesson   *models.Lesson
}

// PermissionResolver decides whether a teacher may read or write a resource.
//
// Callers load the resource first and return 404 for missing or inactive
// rows. Resolvers never return errors: any lookup failure is a denial.
type PermissionResolver interface {
	// ResolveProgramAccess walks the program's ownership: personal,
	// organization, school, template, then deny.
	ResolveProgramAccess(ctx context.Context, program *models.Program, teacher *models.Teacher, requireOwner bool) models.Decision

	// ResolveLessonAccess checks the lesson's program and returns it.
	ResolveLessonAccess(ctx context.Context, lesson *models.Lesson, teacher *models.Teacher, requireOwner bool) (models.Decision, *models.Program)

	// ResolveContentAccess checks an assignment copy via its assignment when
	// allowAssignmentCopy is set, otherwise via lesson and program.
	ResolveContentAccess(ctx context.Context, content *models.Content, teacher *models.Teacher, requireOwner, allowAssignmentCopy bool) ContentAccess

	// ResolveClassroomMutation gates the personal classroom endpoints.
	// School classrooms are always denied here.
	ResolveClassroomMutation(ctx context.Context, classroom *models.Classroom, teacher *models.Teacher, op ClassroomOperation) models.Decision

	// ResolveSchoolAccess grants school admins and holders of the parent
	// organization's manage_materials permission.
	ResolveSchoolAccess(ctx context.Context, school *models.School, teacher *models.Teacher) models.Decision

	// ResolveOrganizationAccess requires an active membership. With
	// requireOwner, non-owners also need manage_materials.
	ResolveOrganizationAccess(ctx context.Context, organizationID int64, teacher *models.Teacher, requireOwner bool) models.Decision

	// ResolveOrganizationPermission requires org_owner or an explicit
	// write grant for permission in the organization.
	ResolveOrganizationPermission(ctx context.Context, organizationID int64, teacher *models.Teacher, permission string) models.Decision
}

// PolicyChecker answers whether a teacher holds (resource, action) in a
// policy domain such as "org-12".
type PolicyChecker interface {
	Check(ctx context.Context, teacherID int64, domain, resource, action string) (bool, error)
}

// PolicyStore is a PolicyChecker whose rules can be rebuilt from storage.
type PolicyStore interface {
	PolicyChecker
	Reload(ctx context.Context) error
}
