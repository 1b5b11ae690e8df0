package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"lingoclass/internal/domain"
	"lingoclass/internal/domain/models"
	"lingoclass/internal/domain/services"
)

// Denial reasons surfaced to clients as the problem detail.
const (
	ReasonTeacherInactive         = "teacher account is inactive"
	ReasonNoOrganizationAccess    = "no access to organization"
	ReasonInsufficientPermissions = "insufficient permissions"
	ReasonNoSchoolAccess          = "no access to school"
	ReasonTemplateNotOwned        = "cannot edit templates created by others"
	ReasonProgramDenied           = "access denied to this program"
	ReasonParentMissing           = "parent resource not found"
	ReasonAssignmentCopy          = "no access to this assignment content"
	ReasonSchoolClassroom         = "school classroom, must use school management"
	ReasonNotClassroomOwner       = "not the classroom owner"
)

// Resource labels for decision metrics
const (
	resourceProgram      = "program"
	resourceLesson       = "lesson"
	resourceContent      = "content"
	resourceClassroom    = "classroom"
	resourceSchool       = "school"
	resourceOrganization = "organization"
)

// MembershipReader provides the membership rows the resolver consults.
type MembershipReader interface {
	GetOrganizationMembership(ctx context.Context, teacherID, organizationID int64) (*models.TeacherOrganization, error)
	GetSchoolMembership(ctx context.Context, teacherID, schoolID int64) (*models.TeacherSchool, error)
	GetSchool(ctx context.Context, id int64) (*models.School, error)
}

// HierarchyReader loads the parents of lessons and content.
type HierarchyReader interface {
	GetProgram(ctx context.Context, id int64) (*models.Program, error)
	GetLesson(ctx context.Context, id int64) (*models.Lesson, error)
	FindAssignmentForContent(ctx context.Context, contentID, teacherID int64) (*models.Assignment, error)
}

// DecisionRecorder counts decisions. May be nil.
type DecisionRecorder interface {
	RecordDecision(resource string, allowed bool)
}

// OrganizationDomain is the policy domain of an organization.
func OrganizationDomain(organizationID int64) string {
	return fmt.Sprintf("org-%d", organizationID)
}

// Resolver implements services.PermissionResolver over membership rows and
// a policy checker. Every failure resolves to a denial.
type Resolver struct {
	members   MembershipReader
	hierarchy HierarchyReader
	policy    services.PolicyChecker
	recorder  DecisionRecorder
	logger    *slog.Logger
}

// NewResolver creates a new permission resolver
func NewResolver(
	members MembershipReader,
	hierarchy HierarchyReader,
	policy services.PolicyChecker,
	recorder DecisionRecorder,
	logger *slog.Logger,
) *Resolver {
	return &Resolver{
		members:   members,
		hierarchy: hierarchy,
		policy:    policy,
		recorder:  recorder,
		logger:    logger,
	}
}

var _ services.PermissionResolver = (*Resolver)(nil)

// ResolveProgramAccess applies the ownership rules in order; the first
// matching rule decides.
func (r *Resolver) ResolveProgramAccess(ctx context.Context, program *models.Program, teacher *models.Teacher, requireOwner bool) models.Decision {
	d := r.programAccess(ctx, program, teacher, requireOwner)
	r.record(ctx, resourceProgram, teacher, d)
	return d
}

// ResolveLessonAccess checks the lesson's program. The program is returned
// only when access is permitted.
func (r *Resolver) ResolveLessonAccess(ctx context.Context, lesson *models.Lesson, teacher *models.Teacher, requireOwner bool) (models.Decision, *models.Program) {
	d, program := r.lessonAccess(ctx, lesson, teacher, requireOwner)
	r.record(ctx, resourceLesson, teacher, d)
	return d, program
}

// ResolveContentAccess checks assignment copies through their assignment
// before falling back to the lesson chain, since copies have no lesson.
func (r *Resolver) ResolveContentAccess(ctx context.Context, content *models.Content, teacher *models.Teacher, requireOwner, allowAssignmentCopy bool) services.ContentAccess {
	access := r.contentAccess(ctx, content, teacher, requireOwner, allowAssignmentCopy)
	r.record(ctx, resourceContent, teacher, access.Decision)
	return access
}

// ResolveClassroomMutation gates the personal classroom endpoints. A school
// link denies even the classroom's own teacher.
func (r *Resolver) ResolveClassroomMutation(ctx context.Context, classroom *models.Classroom, teacher *models.Teacher, op services.ClassroomOperation) models.Decision {
	var d models.Decision
	switch {
	case !isActive(teacher):
		d = models.Denied(ReasonTeacherInactive)
	case classroom == nil:
		d = models.Denied(ReasonParentMissing)
	case classroom.IsSchoolClassroom():
		d = models.Denied(ReasonSchoolClassroom)
	case classroom.TeacherID == teacher.ID:
		d = models.Permitted()
	default:
		d = models.Denied(ReasonNotClassroomOwner)
	}
	if !d.Allowed {
		r.logger.Debug("classroom mutation denied",
			"operation", string(op),
			"reason", d.Reason,
		)
	}
	r.record(ctx, resourceClassroom, teacher, d)
	return d
}

// ResolveSchoolAccess permits school admins and anyone holding
// manage_materials in the school's organization.
func (r *Resolver) ResolveSchoolAccess(ctx context.Context, school *models.School, teacher *models.Teacher) models.Decision {
	var d models.Decision
	switch {
	case !isActive(teacher):
		d = models.Denied(ReasonTeacherInactive)
	case school == nil:
		d = models.Denied(ReasonNoSchoolAccess)
	default:
		d = r.schoolAccess(ctx, school, teacher)
	}
	r.record(ctx, resourceSchool, teacher, d)
	return d
}

// ResolveOrganizationAccess requires an active membership; requireOwner
// additionally requires org_owner or manage_materials.
func (r *Resolver) ResolveOrganizationAccess(ctx context.Context, organizationID int64, teacher *models.Teacher, requireOwner bool) models.Decision {
	d := models.Denied(ReasonTeacherInactive)
	if isActive(teacher) {
		d = r.organizationAccess(ctx, organizationID, teacher, requireOwner)
	}
	r.record(ctx, resourceOrganization, teacher, d)
	return d
}

// ResolveOrganizationPermission requires org_owner or an explicit grant of
// permission in the organization.
func (r *Resolver) ResolveOrganizationPermission(ctx context.Context, organizationID int64, teacher *models.Teacher, permission string) models.Decision {
	d := models.Denied(ReasonTeacherInactive)
	if isActive(teacher) {
		d = r.organizationPermission(ctx, organizationID, teacher, permission)
	}
	r.record(ctx, resourceOrganization, teacher, d)
	return d
}

func (r *Resolver) programAccess(ctx context.Context, program *models.Program, teacher *models.Teacher, requireOwner bool) models.Decision {
	if !isActive(teacher) {
		return models.Denied(ReasonTeacherInactive)
	}
	if program == nil {
		return models.Denied(ReasonProgramDenied)
	}

	// 1. Personal program
	if program.OrganizationID == nil && program.CreatedBy(teacher.ID) {
		return models.Permitted()
	}

	// 2. Organization program
	if program.OrganizationID != nil {
		return r.organizationAccess(ctx, *program.OrganizationID, teacher, requireOwner)
	}

	// 3. School program
	if program.SchoolID != nil {
		school, err := r.members.GetSchool(ctx, *program.SchoolID)
		if err != nil {
			r.lookupFailed("school", *program.SchoolID, err)
			return models.Denied(ReasonNoSchoolAccess)
		}
		return r.schoolAccess(ctx, school, teacher)
	}

	// 4. Public template. Its creator already matched rule 1.
	if program.IsTemplate {
		if requireOwner {
			return models.Denied(ReasonTemplateNotOwned)
		}
		return models.Permitted()
	}

	return models.Denied(ReasonProgramDenied)
}

func (r *Resolver) lessonAccess(ctx context.Context, lesson *models.Lesson, teacher *models.Teacher, requireOwner bool) (models.Decision, *models.Program) {
	if !isActive(teacher) {
		return models.Denied(ReasonTeacherInactive), nil
	}
	if lesson == nil {
		return models.Denied(ReasonParentMissing), nil
	}

	program, err := r.hierarchy.GetProgram(ctx, lesson.ProgramID)
	if err != nil {
		r.lookupFailed("program", lesson.ProgramID, err)
		return models.Denied(ReasonParentMissing), nil
	}

	d := r.programAccess(ctx, program, teacher, requireOwner)
	if !d.Allowed {
		return d, nil
	}
	return d, program
}

func (r *Resolver) contentAccess(ctx context.Context, content *models.Content, teacher *models.Teacher, requireOwner, allowAssignmentCopy bool) services.ContentAccess {
	if !isActive(teacher) {
		return services.ContentAccess{Decision: models.Denied(ReasonTeacherInactive)}
	}
	if content == nil {
		return services.ContentAccess{Decision: models.Denied(ReasonParentMissing)}
	}

	if allowAssignmentCopy && content.IsAssignmentCopy {
		if _, err := r.hierarchy.FindAssignmentForContent(ctx, content.ID, teacher.ID); err != nil {
			r.lookupFailed("assignment for content", content.ID, err)
			return services.ContentAccess{Decision: models.Denied(ReasonAssignmentCopy)}
		}
		return services.ContentAccess{Decision: models.Permitted()}
	}

	if content.LessonID == nil {
		return services.ContentAccess{Decision: models.Denied(ReasonParentMissing)}
	}

	lesson, err := r.hierarchy.GetLesson(ctx, *content.LessonID)
	if err != nil {
		r.lookupFailed("lesson", *content.LessonID, err)
		return services.ContentAccess{Decision: models.Denied(ReasonParentMissing)}
	}

	d, program := r.lessonAccess(ctx, lesson, teacher, requireOwner)
	if !d.Allowed {
		return services.ContentAccess{Decision: d}
	}
	return services.ContentAccess{Decision: d, Program: program, Lesson: lesson}
}

func (r *Resolver) schoolAccess(ctx context.Context, school *models.School, teacher *models.Teacher) models.Decision {
	membership, err := r.members.GetSchoolMembership(ctx, teacher.ID, school.ID)
	switch {
	case err == nil && membership.HasRole(models.RoleSchoolAdmin):
		return models.Permitted()
	case err != nil:
		r.lookupFailed("school membership", school.ID, err)
	}

	// Schools inherit their organization's material managers
	if d := r.organizationPermission(ctx, school.OrganizationID, teacher, models.PermissionManageMaterials); d.Allowed {
		return d
	}
	return models.Denied(ReasonNoSchoolAccess)
}

func (r *Resolver) organizationAccess(ctx context.Context, organizationID int64, teacher *models.Teacher, requireOwner bool) models.Decision {
	membership, err := r.members.GetOrganizationMembership(ctx, teacher.ID, organizationID)
	if err != nil {
		r.lookupFailed("organization membership", organizationID, err)
		return models.Denied(ReasonNoOrganizationAccess)
	}
	if membership.Role == models.RoleOrgOwner {
		return models.Permitted()
	}
	if !requireOwner {
		return models.Permitted()
	}
	return r.checkPolicy(ctx, teacher.ID, organizationID, models.PermissionManageMaterials)
}

func (r *Resolver) organizationPermission(ctx context.Context, organizationID int64, teacher *models.Teacher, permission string) models.Decision {
	membership, err := r.members.GetOrganizationMembership(ctx, teacher.ID, organizationID)
	if err != nil {
		r.lookupFailed("organization membership", organizationID, err)
		return models.Denied(ReasonNoOrganizationAccess)
	}
	if membership.Role == models.RoleOrgOwner {
		return models.Permitted()
	}
	return r.checkPolicy(ctx, teacher.ID, organizationID, permission)
}

func (r *Resolver) checkPolicy(ctx context.Context, teacherID, organizationID int64, permission string) models.Decision {
	ok, err := r.policy.Check(ctx, teacherID, OrganizationDomain(organizationID), permission, models.ActionWrite)
	if err != nil {
		r.logger.Error("policy check failed",
			"teacher_id", teacherID,
			"organization_id", organizationID,
			"permission", permission,
			"error", err,
		)
		return models.Denied(ReasonInsufficientPermissions)
	}
	if !ok {
		return models.Denied(ReasonInsufficientPermissions)
	}
	return models.Permitted()
}

// lookupFailed logs unexpected lookup errors. Missing rows are an ordinary
// denial and are not logged.
func (r *Resolver) lookupFailed(what string, id int64, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		return
	}
	r.logger.Error("authorization lookup failed",
		"lookup", what,
		"id", id,
		"error", err,
	)
}

func (r *Resolver) record(ctx context.Context, resource string, teacher *models.Teacher, d models.Decision) {
	if r.recorder != nil {
		r.recorder.RecordDecision(resource, d.Allowed)
	}
	if !d.Allowed {
		var teacherID int64
		if teacher != nil {
			teacherID = teacher.ID
		}
		r.logger.DebugContext(ctx, "access denied",
			"resource", resource,
			"teacher_id", teacherID,
			"reason", d.Reason,
		)
	}
}

func isActive(teacher *models.Teacher) bool {
	return teacher != nil && teacher.IsActive
}
