package authz

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"lingoclass/internal/domain"
	"lingoclass/internal/domain/models"
)

type orgKey struct{ teacherID, orgID int64 }
type schoolKey struct{ teacherID, schoolID int64 }

type fakeMembers struct {
	orgs    map[orgKey]*models.TeacherOrganization
	schools map[schoolKey]*models.TeacherSchool
	school  map[int64]*models.School
	err     error // returned from every lookup when set
}

func newFakeMembers() *fakeMembers {
	return &fakeMembers{
		orgs:    make(map[orgKey]*models.TeacherOrganization),
		schools: make(map[schoolKey]*models.TeacherSchool),
		school:  make(map[int64]*models.School),
	}
}

func (f *fakeMembers) addOrg(teacherID, orgID int64, role string) {
	f.orgs[orgKey{teacherID, orgID}] = &models.TeacherOrganization{
		TeacherID: teacherID, OrganizationID: orgID, Role: role, IsActive: true,
	}
}

func (f *fakeMembers) addSchool(teacherID, schoolID int64, roles ...string) {
	f.schools[schoolKey{teacherID, schoolID}] = &models.TeacherSchool{
		TeacherID: teacherID, SchoolID: schoolID, Roles: roles, IsActive: true,
	}
}

func (f *fakeMembers) GetOrganizationMembership(ctx context.Context, teacherID, orgID int64) (*models.TeacherOrganization, error) {
	if f.err != nil {
		return nil, f.err
	}
	m, ok := f.orgs[orgKey{teacherID, orgID}]
	if !ok {
		return nil, fmt.Errorf("membership: %w", domain.ErrNotFound)
	}
	return m, nil
}

func (f *fakeMembers) GetSchoolMembership(ctx context.Context, teacherID, schoolID int64) (*models.TeacherSchool, error) {
	if f.err != nil {
		return nil, f.err
	}
	m, ok := f.schools[schoolKey{teacherID, schoolID}]
	if !ok {
		return nil, fmt.Errorf("school membership: %w", domain.ErrNotFound)
	}
	return m, nil
}

func (f *fakeMembers) GetSchool(ctx context.Context, id int64) (*models.School, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.school[id]
	if !ok {
		return nil, fmt.Errorf("school %d: %w", id, domain.ErrNotFound)
	}
	return s, nil
}

func (f *fakeMembers) ListActiveOrganizationMemberships(ctx context.Context) ([]models.TeacherOrganization, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.TeacherOrganization
	for _, m := range f.orgs {
		out = append(out, *m)
	}
	return out, nil
}

type assignmentKey struct{ contentID, teacherID int64 }

type fakeHierarchy struct {
	programs    map[int64]*models.Program
	lessons     map[int64]*models.Lesson
	assignments map[assignmentKey]*models.Assignment
}

func newFakeHierarchy() *fakeHierarchy {
	return &fakeHierarchy{
		programs:    make(map[int64]*models.Program),
		lessons:     make(map[int64]*models.Lesson),
		assignments: make(map[assignmentKey]*models.Assignment),
	}
}

func (f *fakeHierarchy) GetProgram(ctx context.Context, id int64) (*models.Program, error) {
	p, ok := f.programs[id]
	if !ok {
		return nil, fmt.Errorf("program %d: %w", id, domain.ErrNotFound)
	}
	return p, nil
}

func (f *fakeHierarchy) GetLesson(ctx context.Context, id int64) (*models.Lesson, error) {
	l, ok := f.lessons[id]
	if !ok {
		return nil, fmt.Errorf("lesson %d: %w", id, domain.ErrNotFound)
	}
	return l, nil
}

func (f *fakeHierarchy) FindAssignmentForContent(ctx context.Context, contentID, teacherID int64) (*models.Assignment, error) {
	a, ok := f.assignments[assignmentKey{contentID, teacherID}]
	if !ok {
		return nil, fmt.Errorf("assignment: %w", domain.ErrNotFound)
	}
	return a, nil
}

type grantKey struct {
	teacherID int64
	domain    string
	resource  string
	action    string
}

// fakePolicy answers from an explicit grant set and counts calls.
type fakePolicy struct {
	grants map[grantKey]bool
	err    error
	calls  int
}

func newFakePolicy() *fakePolicy {
	return &fakePolicy{grants: make(map[grantKey]bool)}
}

func (f *fakePolicy) grant(teacherID, orgID int64, resource string) {
	f.grants[grantKey{teacherID, OrganizationDomain(orgID), resource, models.ActionWrite}] = true
}

func (f *fakePolicy) Check(ctx context.Context, teacherID int64, dom, resource, action string) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.grants[grantKey{teacherID, dom, resource, action}], nil
}

type countingRecorder struct {
	permitted map[string]int
	denied    map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{permitted: map[string]int{}, denied: map[string]int{}}
}

func (c *countingRecorder) RecordDecision(resource string, allowed bool) {
	if allowed {
		c.permitted[resource]++
	} else {
		c.denied[resource]++
	}
}

var errDatabaseDown = errors.New("connection refused")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }

func activeTeacher(id int64) *models.Teacher {
	return &models.Teacher{ID: id, IsActive: true}
}
