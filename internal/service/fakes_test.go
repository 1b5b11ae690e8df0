package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"lingoclass/internal/domain"
	"lingoclass/internal/domain/models"
	"lingoclass/internal/domain/services"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }

func activeTeacher(id int64) *models.Teacher {
	return &models.Teacher{ID: id, Name: fmt.Sprintf("teacher %d", id), IsActive: true}
}

// fakeResolver returns canned decisions and remembers how it was asked.
type fakeResolver struct {
	decision     models.Decision
	calls        int
	requireOwner bool
	allowCopy    bool
	op           services.ClassroomOperation
	permission   string
}

func allowAll() *fakeResolver { return &fakeResolver{decision: models.Permitted()} }

func denyAll(reason string) *fakeResolver { return &fakeResolver{decision: models.Denied(reason)} }

func (f *fakeResolver) ResolveProgramAccess(ctx context.Context, program *models.Program, teacher *models.Teacher, requireOwner bool) models.Decision {
	f.calls++
	f.requireOwner = requireOwner
	return f.decision
}

func (f *fakeResolver) ResolveLessonAccess(ctx context.Context, lesson *models.Lesson, teacher *models.Teacher, requireOwner bool) (models.Decision, *models.Program) {
	f.calls++
	f.requireOwner = requireOwner
	return f.decision, nil
}

func (f *fakeResolver) ResolveContentAccess(ctx context.Context, content *models.Content, teacher *models.Teacher, requireOwner, allowAssignmentCopy bool) services.ContentAccess {
	f.calls++
	f.requireOwner = requireOwner
	f.allowCopy = allowAssignmentCopy
	return services.ContentAccess{Decision: f.decision}
}

func (f *fakeResolver) ResolveClassroomMutation(ctx context.Context, classroom *models.Classroom, teacher *models.Teacher, op services.ClassroomOperation) models.Decision {
	f.calls++
	f.op = op
	return f.decision
}

func (f *fakeResolver) ResolveSchoolAccess(ctx context.Context, school *models.School, teacher *models.Teacher) models.Decision {
	f.calls++
	return f.decision
}

func (f *fakeResolver) ResolveOrganizationAccess(ctx context.Context, organizationID int64, teacher *models.Teacher, requireOwner bool) models.Decision {
	f.calls++
	f.requireOwner = requireOwner
	return f.decision
}

func (f *fakeResolver) ResolveOrganizationPermission(ctx context.Context, organizationID int64, teacher *models.Teacher, permission string) models.Decision {
	f.calls++
	f.permission = permission
	return f.decision
}

type fakeProgramRepo struct {
	programs map[int64]*models.Program
	lessons  map[int64]*models.Lesson
	contents map[int64]*models.Content
	deleted  []int64
	updates  int
}

func newFakeProgramRepo() *fakeProgramRepo {
	return &fakeProgramRepo{
		programs: make(map[int64]*models.Program),
		lessons:  make(map[int64]*models.Lesson),
		contents: make(map[int64]*models.Content),
	}
}

func (f *fakeProgramRepo) GetProgram(ctx context.Context, id int64) (*models.Program, error) {
	p, ok := f.programs[id]
	if !ok || !p.IsActive {
		return nil, &domain.NotFoundError{Message: "program not found"}
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProgramRepo) UpdateProgram(ctx context.Context, program *models.Program) error {
	f.updates++
	cp := *program
	f.programs[program.ID] = &cp
	return nil
}

func (f *fakeProgramRepo) SoftDeleteProgram(ctx context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	f.programs[id].IsActive = false
	return nil
}

func (f *fakeProgramRepo) ListByOrganization(ctx context.Context, organizationID int64) ([]models.Program, error) {
	var out []models.Program
	for _, p := range f.programs {
		if p.OrganizationID != nil && *p.OrganizationID == organizationID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProgramRepo) ListBySchool(ctx context.Context, schoolID int64) ([]models.Program, error) {
	var out []models.Program
	for _, p := range f.programs {
		if p.SchoolID != nil && *p.SchoolID == schoolID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProgramRepo) GetLesson(ctx context.Context, id int64) (*models.Lesson, error) {
	l, ok := f.lessons[id]
	if !ok || !l.IsActive {
		return nil, &domain.NotFoundError{Message: "lesson not found"}
	}
	cp := *l
	return &cp, nil
}

func (f *fakeProgramRepo) UpdateLesson(ctx context.Context, lesson *models.Lesson) error {
	f.updates++
	cp := *lesson
	f.lessons[lesson.ID] = &cp
	return nil
}

func (f *fakeProgramRepo) GetContent(ctx context.Context, id int64) (*models.Content, error) {
	c, ok := f.contents[id]
	if !ok || !c.IsActive {
		return nil, &domain.NotFoundError{Message: "content not found"}
	}
	cp := *c
	return &cp, nil
}

func (f *fakeProgramRepo) UpdateContent(ctx context.Context, content *models.Content) error {
	f.updates++
	cp := *content
	f.contents[content.ID] = &cp
	return nil
}

func (f *fakeProgramRepo) FindAssignmentForContent(ctx context.Context, contentID, teacherID int64) (*models.Assignment, error) {
	return nil, domain.ErrNotFound
}

type fakeOrgRepo struct {
	schools map[int64]*models.School
}

func (f *fakeOrgRepo) GetOrganization(ctx context.Context, id int64) (*models.Organization, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeOrgRepo) GetSchool(ctx context.Context, id int64) (*models.School, error) {
	s, ok := f.schools[id]
	if !ok {
		return nil, &domain.NotFoundError{Message: "school not found"}
	}
	return s, nil
}

type fakeClassroomRepo struct {
	classrooms map[int64]*models.Classroom
	students   []models.Student
	deleted    []int64
	createErr  error
}

func (f *fakeClassroomRepo) GetByID(ctx context.Context, id int64) (*models.Classroom, error) {
	c, ok := f.classrooms[id]
	if !ok || !c.IsActive {
		return nil, &domain.NotFoundError{Message: "classroom not found"}
	}
	cp := *c
	return &cp, nil
}

func (f *fakeClassroomRepo) Update(ctx context.Context, classroom *models.Classroom) error {
	cp := *classroom
	f.classrooms[classroom.ID] = &cp
	return nil
}

func (f *fakeClassroomRepo) SoftDelete(ctx context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeClassroomRepo) CreateStudent(ctx context.Context, student *models.Student) error {
	if f.createErr != nil {
		return f.createErr
	}
	student.ID = int64(len(f.students) + 1)
	f.students = append(f.students, *student)
	return nil
}

type memberKey struct{ teacherID, organizationID int64 }

type fakeMembers struct {
	orgs map[memberKey]models.TeacherOrganization
}

func newFakeMembers() *fakeMembers {
	return &fakeMembers{orgs: make(map[memberKey]models.TeacherOrganization)}
}

func (f *fakeMembers) add(teacherID, organizationID int64, role string) {
	f.orgs[memberKey{teacherID, organizationID}] = models.TeacherOrganization{
		TeacherID: teacherID, OrganizationID: organizationID, Role: role, IsActive: true,
	}
}

func (f *fakeMembers) GetOrganizationMembership(ctx context.Context, teacherID, organizationID int64) (*models.TeacherOrganization, error) {
	m, ok := f.orgs[memberKey{teacherID, organizationID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &m, nil
}

func (f *fakeMembers) GetSchoolMembership(ctx context.Context, teacherID, schoolID int64) (*models.TeacherSchool, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeMembers) ListActiveOrganizationMemberships(ctx context.Context) ([]models.TeacherOrganization, error) {
	var out []models.TeacherOrganization
	for _, m := range f.orgs {
		out = append(out, m)
	}
	return out, nil
}

type fakeGrants struct {
	grants []models.PermissionGrant
}

func (f *fakeGrants) CreateGrant(ctx context.Context, grant *models.PermissionGrant) error {
	for _, g := range f.grants {
		if g.TeacherID == grant.TeacherID && g.OrganizationID == grant.OrganizationID &&
			g.Resource == grant.Resource && g.Action == grant.Action {
			return &domain.ConflictError{Message: "grant already exists", ResourceType: "grant"}
		}
	}
	grant.ID = int64(len(f.grants) + 1)
	f.grants = append(f.grants, *grant)
	return nil
}

func (f *fakeGrants) DeleteGrant(ctx context.Context, teacherID, organizationID int64, resource, action string) error {
	for i, g := range f.grants {
		if g.TeacherID == teacherID && g.OrganizationID == organizationID && g.Resource == resource && g.Action == action {
			f.grants = append(f.grants[:i], f.grants[i+1:]...)
			return nil
		}
	}
	return &domain.NotFoundError{Message: "grant not found"}
}

func (f *fakeGrants) ListGrants(ctx context.Context) ([]models.PermissionGrant, error) {
	return f.grants, nil
}

type fakePolicyStore struct {
	reloads int
	err     error
}

func (f *fakePolicyStore) Check(ctx context.Context, teacherID int64, dom, resource, action string) (bool, error) {
	return false, nil
}

func (f *fakePolicyStore) Reload(ctx context.Context) error {
	f.reloads++
	return f.err
}

// fakeQuota records which balance a usage was routed to.
type fakeQuota struct {
	orgCharged      *int64
	teacherCharged  *int64
	usage           *services.UsageRecord
	checked         bool
	logsLimit       int
	subscriptionErr error
}

func (f *fakeQuota) DeductOrganization(ctx context.Context, organizationID int64, usage *services.UsageRecord) (*models.PointsUsageLog, error) {
	f.orgCharged = &organizationID
	f.usage = usage
	return &models.PointsUsageLog{OwnerKind: models.OwnerOrganization, OwnerID: organizationID}, nil
}

func (f *fakeQuota) DeductSubscription(ctx context.Context, teacherID int64, usage *services.UsageRecord) (*models.PointsUsageLog, error) {
	f.teacherCharged = &teacherID
	f.usage = usage
	return &models.PointsUsageLog{OwnerKind: models.OwnerSubscriptionPeriod}, nil
}

func (f *fakeQuota) CheckOrganization(ctx context.Context, organizationID int64, unitCount float64, unitType string) (*models.PreCheckResult, error) {
	f.checked = true
	return &models.PreCheckResult{Allowed: true}, nil
}

func (f *fakeQuota) OrganizationPointsInfo(ctx context.Context, organizationID int64) (*models.PointsInfo, error) {
	return &models.PointsInfo{TotalPoints: 1800}, nil
}

func (f *fakeQuota) SubscriptionPointsInfo(ctx context.Context, teacherID int64) (*models.PointsInfo, error) {
	if f.subscriptionErr != nil {
		return nil, f.subscriptionErr
	}
	return &models.PointsInfo{TotalPoints: 600}, nil
}

func (f *fakeQuota) ListOrganizationLogs(ctx context.Context, organizationID int64, limit, offset int) ([]models.PointsUsageLog, int, error) {
	f.logsLimit = limit
	return nil, 0, nil
}
