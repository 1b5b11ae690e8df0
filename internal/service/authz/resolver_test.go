package authz

import (
	"context"
	"testing"

	"lingoclass/internal/domain/models"
	"lingoclass/internal/domain/services"
)

const (
	teacherA = int64(1)
	teacherB = int64(2)
	teacherC = int64(3)
	orgO     = int64(10)
	schoolS  = int64(20)
)

type fixture struct {
	members   *fakeMembers
	hierarchy *fakeHierarchy
	policy    *fakePolicy
	recorder  *countingRecorder
	resolver  *Resolver
}

func newFixture() *fixture {
	f := &fixture{
		members:   newFakeMembers(),
		hierarchy: newFakeHierarchy(),
		policy:    newFakePolicy(),
		recorder:  newCountingRecorder(),
	}
	f.resolver = NewResolver(f.members, f.hierarchy, f.policy, f.recorder, discardLogger())
	return f
}

func TestResolveProgramAccess_Personal(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	program := &models.Program{ID: 1, TeacherID: ptr(teacherA), IsActive: true}

	for _, requireOwner := range []bool{false, true} {
		if d := f.resolver.ResolveProgramAccess(ctx, program, activeTeacher(teacherA), requireOwner); !d.Allowed {
			t.Errorf("owner requireOwner=%v: expected permitted, got %q", requireOwner, d.Reason)
		}
		if d := f.resolver.ResolveProgramAccess(ctx, program, activeTeacher(teacherB), requireOwner); d.Allowed {
			t.Errorf("other teacher requireOwner=%v: expected denied", requireOwner)
		}
	}
}

func TestResolveProgramAccess_Organization(t *testing.T) {
	program := &models.Program{ID: 2, OrganizationID: ptr(orgO), IsActive: true}

	tests := []struct {
		name         string
		setup        func(f *fixture)
		creator      *int64
		teacherID    int64
		requireOwner bool
		wantAllowed  bool
		wantReason   string
	}{
		{
			name:         "owner writes",
			setup:        func(f *fixture) { f.members.addOrg(teacherA, orgO, models.RoleOrgOwner) },
			teacherID:    teacherA,
			requireOwner: true,
			wantAllowed:  true,
		},
		{
			name:        "owner reads",
			setup:       func(f *fixture) { f.members.addOrg(teacherA, orgO, models.RoleOrgOwner) },
			teacherID:   teacherA,
			wantAllowed: true,
		},
		{
			name:        "admin reads by membership",
			setup:       func(f *fixture) { f.members.addOrg(teacherB, orgO, models.RoleOrgAdmin) },
			teacherID:   teacherB,
			wantAllowed: true,
		},
		{
			name:         "admin without grant cannot write",
			setup:        func(f *fixture) { f.members.addOrg(teacherB, orgO, models.RoleOrgAdmin) },
			teacherID:    teacherB,
			requireOwner: true,
			wantReason:   ReasonInsufficientPermissions,
		},
		{
			name: "admin with grant writes",
			setup: func(f *fixture) {
				f.members.addOrg(teacherB, orgO, models.RoleOrgAdmin)
				f.policy.grant(teacherB, orgO, models.PermissionManageMaterials)
			},
			teacherID:    teacherB,
			requireOwner: true,
			wantAllowed:  true,
		},
		{
			name: "grant in another organization does not count",
			setup: func(f *fixture) {
				f.members.addOrg(teacherB, orgO, models.RoleOrgAdmin)
				f.policy.grant(teacherB, orgO+1, models.PermissionManageMaterials)
			},
			teacherID:    teacherB,
			requireOwner: true,
			wantReason:   ReasonInsufficientPermissions,
		},
		{
			name:       "non-member reads",
			setup:      func(f *fixture) {},
			teacherID:  teacherC,
			wantReason: ReasonNoOrganizationAccess,
		},
		{
			name:         "non-member writes",
			setup:        func(f *fixture) {},
			teacherID:    teacherC,
			requireOwner: true,
			wantReason:   ReasonNoOrganizationAccess,
		},
		{
			name:       "creator without membership",
			setup:      func(f *fixture) {},
			creator:    ptr(teacherA),
			teacherID:  teacherA,
			wantReason: ReasonNoOrganizationAccess,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.setup(f)

			p := *program
			p.TeacherID = tt.creator

			d := f.resolver.ResolveProgramAccess(context.Background(), &p, activeTeacher(tt.teacherID), tt.requireOwner)
			if d.Allowed != tt.wantAllowed {
				t.Fatalf("Allowed = %v, want %v (reason %q)", d.Allowed, tt.wantAllowed, d.Reason)
			}
			if !tt.wantAllowed && d.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", d.Reason, tt.wantReason)
			}
		})
	}
}

func TestResolveProgramAccess_OwnerSkipsPolicy(t *testing.T) {
	f := newFixture()
	f.members.addOrg(teacherA, orgO, models.RoleOrgOwner)
	program := &models.Program{ID: 2, OrganizationID: ptr(orgO), IsActive: true}

	f.resolver.ResolveProgramAccess(context.Background(), program, activeTeacher(teacherA), true)

	if f.policy.calls != 0 {
		t.Errorf("policy consulted %d times for org_owner, want 0", f.policy.calls)
	}
}

func TestResolveProgramAccess_School(t *testing.T) {
	program := &models.Program{ID: 3, SchoolID: ptr(schoolS), IsActive: true}

	tests := []struct {
		name        string
		setup       func(f *fixture)
		teacherID   int64
		wantAllowed bool
	}{
		{
			name:        "school admin",
			setup:       func(f *fixture) { f.members.addSchool(teacherA, schoolS, models.RoleTeacher, models.RoleSchoolAdmin) },
			teacherID:   teacherA,
			wantAllowed: true,
		},
		{
			name:      "plain school teacher",
			setup:     func(f *fixture) { f.members.addSchool(teacherB, schoolS, models.RoleTeacher) },
			teacherID: teacherB,
		},
		{
			name: "organization owner inherits",
			setup: func(f *fixture) {
				f.members.addOrg(teacherA, orgO, models.RoleOrgOwner)
			},
			teacherID:   teacherA,
			wantAllowed: true,
		},
		{
			name: "organization manage_materials inherits",
			setup: func(f *fixture) {
				f.members.addOrg(teacherB, orgO, models.RoleOrgAdmin)
				f.policy.grant(teacherB, orgO, models.PermissionManageMaterials)
			},
			teacherID:   teacherB,
			wantAllowed: true,
		},
		{
			name: "organization admin without grant",
			setup: func(f *fixture) {
				f.members.addOrg(teacherB, orgO, models.RoleOrgAdmin)
			},
			teacherID: teacherB,
		},
		{
			name:      "stranger",
			setup:     func(f *fixture) {},
			teacherID: teacherC,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.members.school[schoolS] = &models.School{ID: schoolS, OrganizationID: orgO, IsActive: true}
			tt.setup(f)

			d := f.resolver.ResolveProgramAccess(context.Background(), program, activeTeacher(tt.teacherID), true)
			if d.Allowed != tt.wantAllowed {
				t.Fatalf("Allowed = %v, want %v (reason %q)", d.Allowed, tt.wantAllowed, d.Reason)
			}
			if !d.Allowed && d.Reason != ReasonNoSchoolAccess {
				t.Errorf("Reason = %q, want %q", d.Reason, ReasonNoSchoolAccess)
			}
		})
	}
}

func TestResolveProgramAccess_Template(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	template := &models.Program{ID: 4, TeacherID: ptr(teacherA), IsTemplate: true, IsActive: true}

	if d := f.resolver.ResolveProgramAccess(ctx, template, activeTeacher(teacherB), false); !d.Allowed {
		t.Errorf("any teacher should read a template, got %q", d.Reason)
	}

	d := f.resolver.ResolveProgramAccess(ctx, template, activeTeacher(teacherB), true)
	if d.Allowed || d.Reason != ReasonTemplateNotOwned {
		t.Errorf("non-creator edit: got %+v, want denied %q", d, ReasonTemplateNotOwned)
	}

	if d := f.resolver.ResolveProgramAccess(ctx, template, activeTeacher(teacherA), true); !d.Allowed {
		t.Errorf("creator should edit own template, got %q", d.Reason)
	}
}

func TestResolveProgramAccess_Unowned(t *testing.T) {
	f := newFixture()
	program := &models.Program{ID: 5, IsActive: true}

	d := f.resolver.ResolveProgramAccess(context.Background(), program, activeTeacher(teacherA), false)
	if d.Allowed || d.Reason != ReasonProgramDenied {
		t.Errorf("got %+v, want denied %q", d, ReasonProgramDenied)
	}
}

func TestResolveProgramAccess_FailClosed(t *testing.T) {
	ctx := context.Background()

	t.Run("inactive teacher", func(t *testing.T) {
		f := newFixture()
		program := &models.Program{ID: 1, TeacherID: ptr(teacherA), IsActive: true}
		inactive := &models.Teacher{ID: teacherA, IsActive: false}

		d := f.resolver.ResolveProgramAccess(ctx, program, inactive, false)
		if d.Allowed || d.Reason != ReasonTeacherInactive {
			t.Errorf("got %+v, want denied %q", d, ReasonTeacherInactive)
		}
	})

	t.Run("nil teacher", func(t *testing.T) {
		f := newFixture()
		program := &models.Program{ID: 1, TeacherID: ptr(teacherA), IsActive: true}
		if d := f.resolver.ResolveProgramAccess(ctx, program, nil, false); d.Allowed {
			t.Error("nil teacher must be denied")
		}
	})

	t.Run("membership lookup error", func(t *testing.T) {
		f := newFixture()
		f.members.addOrg(teacherA, orgO, models.RoleOrgOwner)
		f.members.err = errDatabaseDown
		program := &models.Program{ID: 2, OrganizationID: ptr(orgO), IsActive: true}

		if d := f.resolver.ResolveProgramAccess(ctx, program, activeTeacher(teacherA), false); d.Allowed {
			t.Error("lookup error must deny")
		}
	})

	t.Run("policy engine error", func(t *testing.T) {
		f := newFixture()
		f.members.addOrg(teacherB, orgO, models.RoleOrgAdmin)
		f.policy.grant(teacherB, orgO, models.PermissionManageMaterials)
		f.policy.err = errDatabaseDown
		program := &models.Program{ID: 2, OrganizationID: ptr(orgO), IsActive: true}

		d := f.resolver.ResolveProgramAccess(ctx, program, activeTeacher(teacherB), true)
		if d.Allowed || d.Reason != ReasonInsufficientPermissions {
			t.Errorf("got %+v, want denied %q", d, ReasonInsufficientPermissions)
		}
	})

	t.Run("missing school", func(t *testing.T) {
		f := newFixture()
		program := &models.Program{ID: 3, SchoolID: ptr(schoolS), IsActive: true}

		if d := f.resolver.ResolveProgramAccess(ctx, program, activeTeacher(teacherA), false); d.Allowed {
			t.Error("missing school must deny")
		}
	})
}

func TestResolveLessonAccess(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	program := &models.Program{ID: 1, TeacherID: ptr(teacherA), IsActive: true}
	f.hierarchy.programs[1] = program
	lesson := &models.Lesson{ID: 100, ProgramID: 1, IsActive: true}

	d, got := f.resolver.ResolveLessonAccess(ctx, lesson, activeTeacher(teacherA), true)
	if !d.Allowed {
		t.Fatalf("owner denied: %q", d.Reason)
	}
	if got != program {
		t.Errorf("expected parent program to be returned")
	}

	d, got = f.resolver.ResolveLessonAccess(ctx, lesson, activeTeacher(teacherB), false)
	if d.Allowed {
		t.Fatal("other teacher permitted")
	}
	if got != nil {
		t.Error("program must not be returned on denial")
	}

	orphan := &models.Lesson{ID: 101, ProgramID: 999, IsActive: true}
	if d, _ := f.resolver.ResolveLessonAccess(ctx, orphan, activeTeacher(teacherA), false); d.Allowed || d.Reason != ReasonParentMissing {
		t.Errorf("orphan lesson: got %+v, want denied %q", d, ReasonParentMissing)
	}
}

func TestResolveContentAccess(t *testing.T) {
	setup := func() *fixture {
		f := newFixture()
		f.hierarchy.programs[1] = &models.Program{ID: 1, TeacherID: ptr(teacherA), IsActive: true}
		f.hierarchy.lessons[100] = &models.Lesson{ID: 100, ProgramID: 1, IsActive: true}
		f.hierarchy.assignments[assignmentKey{contentID: 501, teacherID: teacherB}] = &models.Assignment{ID: 9, TeacherID: teacherB, IsActive: true}
		return f
	}
	ctx := context.Background()

	t.Run("regular content through lesson chain", func(t *testing.T) {
		f := setup()
		content := &models.Content{ID: 500, LessonID: ptr(int64(100)), IsActive: true}

		access := f.resolver.ResolveContentAccess(ctx, content, activeTeacher(teacherA), true, false)
		if !access.Decision.Allowed {
			t.Fatalf("owner denied: %q", access.Decision.Reason)
		}
		if access.Program == nil || access.Lesson == nil {
			t.Error("expected program and lesson to be returned")
		}
	})

	t.Run("assignment copy by assignment teacher", func(t *testing.T) {
		f := setup()
		content := &models.Content{ID: 501, IsAssignmentCopy: true, IsActive: true}

		access := f.resolver.ResolveContentAccess(ctx, content, activeTeacher(teacherB), true, true)
		if !access.Decision.Allowed {
			t.Fatalf("assignment teacher denied: %q", access.Decision.Reason)
		}
		if access.Program != nil || access.Lesson != nil {
			t.Error("assignment copy must return no parents")
		}
	})

	t.Run("assignment copy checked before lesson chain", func(t *testing.T) {
		f := setup()
		// A stale lesson pointer must not be followed for copies
		content := &models.Content{ID: 501, LessonID: ptr(int64(100)), IsAssignmentCopy: true, IsActive: true}

		access := f.resolver.ResolveContentAccess(ctx, content, activeTeacher(teacherA), false, true)
		if access.Decision.Allowed {
			t.Error("program owner must not reach an assignment copy through the lesson chain")
		}
		if access.Decision.Reason != ReasonAssignmentCopy {
			t.Errorf("Reason = %q, want %q", access.Decision.Reason, ReasonAssignmentCopy)
		}
	})

	t.Run("assignment copy by another teacher", func(t *testing.T) {
		f := setup()
		content := &models.Content{ID: 501, IsAssignmentCopy: true, IsActive: true}

		if access := f.resolver.ResolveContentAccess(ctx, content, activeTeacher(teacherC), false, true); access.Decision.Allowed {
			t.Error("unrelated teacher permitted")
		}
	})

	t.Run("assignment copy when copies are not allowed", func(t *testing.T) {
		f := setup()
		content := &models.Content{ID: 501, IsAssignmentCopy: true, IsActive: true}

		access := f.resolver.ResolveContentAccess(ctx, content, activeTeacher(teacherB), false, false)
		if access.Decision.Allowed {
			t.Error("copy reachable without allowAssignmentCopy")
		}
	})
}

func TestResolveClassroomMutation(t *testing.T) {
	ops := []services.ClassroomOperation{
		services.ClassroomCreateStudent,
		services.ClassroomUpdate,
		services.ClassroomDelete,
	}

	personal := &models.Classroom{ID: 1, TeacherID: teacherA, IsActive: true}
	school := &models.Classroom{ID: 2, TeacherID: teacherA, SchoolID: ptr(schoolS), IsActive: true}

	for _, op := range ops {
		t.Run(string(op), func(t *testing.T) {
			f := newFixture()
			ctx := context.Background()

			if d := f.resolver.ResolveClassroomMutation(ctx, personal, activeTeacher(teacherA), op); !d.Allowed {
				t.Errorf("owner denied on personal classroom: %q", d.Reason)
			}

			d := f.resolver.ResolveClassroomMutation(ctx, personal, activeTeacher(teacherB), op)
			if d.Allowed || d.Reason != ReasonNotClassroomOwner {
				t.Errorf("other teacher: got %+v, want denied %q", d, ReasonNotClassroomOwner)
			}

			// The assigned teacher still cannot use the personal pathway
			d = f.resolver.ResolveClassroomMutation(ctx, school, activeTeacher(teacherA), op)
			if d.Allowed || d.Reason != ReasonSchoolClassroom {
				t.Errorf("school classroom: got %+v, want denied %q", d, ReasonSchoolClassroom)
			}
		})
	}
}

func TestResolveSchoolAccess(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	school := &models.School{ID: schoolS, OrganizationID: orgO, IsActive: true}
	f.members.addSchool(teacherA, schoolS, models.RoleSchoolAdmin)
	f.members.addSchool(teacherB, schoolS, models.RoleTeacher)

	if d := f.resolver.ResolveSchoolAccess(ctx, school, activeTeacher(teacherA)); !d.Allowed {
		t.Errorf("school admin denied: %q", d.Reason)
	}
	if d := f.resolver.ResolveSchoolAccess(ctx, school, activeTeacher(teacherB)); d.Allowed {
		t.Error("plain teacher permitted")
	}
	if d := f.resolver.ResolveSchoolAccess(ctx, nil, activeTeacher(teacherA)); d.Allowed {
		t.Error("nil school permitted")
	}
}

func TestResolveOrganizationPermission(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.members.addOrg(teacherA, orgO, models.RoleOrgOwner)
	f.members.addOrg(teacherB, orgO, models.RoleOrgAdmin)
	f.members.addOrg(teacherC, orgO, models.RoleTeacher)
	f.policy.grant(teacherB, orgO, models.PermissionManagePoints)

	tests := []struct {
		teacherID int64
		want      bool
	}{
		{teacherA, true},
		{teacherB, true},
		{teacherC, false},
	}
	for _, tt := range tests {
		d := f.resolver.ResolveOrganizationPermission(ctx, orgO, activeTeacher(tt.teacherID), models.PermissionManagePoints)
		if d.Allowed != tt.want {
			t.Errorf("teacher %d: Allowed = %v, want %v", tt.teacherID, d.Allowed, tt.want)
		}
	}

	if d := f.resolver.ResolveOrganizationAccess(ctx, orgO, activeTeacher(teacherC), false); !d.Allowed {
		t.Error("member should have read access")
	}
	if d := f.resolver.ResolveOrganizationAccess(ctx, orgO+1, activeTeacher(teacherA), false); d.Allowed {
		t.Error("owner of another organization permitted")
	}
}

func TestResolver_RecordsDecisions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	program := &models.Program{ID: 1, TeacherID: ptr(teacherA), IsActive: true}

	f.resolver.ResolveProgramAccess(ctx, program, activeTeacher(teacherA), false)
	f.resolver.ResolveProgramAccess(ctx, program, activeTeacher(teacherB), false)
	f.resolver.ResolveClassroomMutation(ctx, &models.Classroom{TeacherID: teacherA}, activeTeacher(teacherA), services.ClassroomUpdate)

	if f.recorder.permitted[resourceProgram] != 1 || f.recorder.denied[resourceProgram] != 1 {
		t.Errorf("program decisions = %d permitted / %d denied, want 1/1",
			f.recorder.permitted[resourceProgram], f.recorder.denied[resourceProgram])
	}
	if f.recorder.permitted[resourceClassroom] != 1 {
		t.Errorf("classroom permitted = %d, want 1", f.recorder.permitted[resourceClassroom])
	}
}

// Scenario: a personal program is writable by its creator and invisible to others.
func TestScenario_PersonalProgram(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p1 := &models.Program{ID: 1, TeacherID: ptr(teacherA), IsActive: true}

	if d := f.resolver.ResolveProgramAccess(ctx, p1, activeTeacher(teacherA), true); !d.Allowed {
		t.Errorf("A on P1 (owner): expected permitted, got %q", d.Reason)
	}
	if d := f.resolver.ResolveProgramAccess(ctx, p1, activeTeacher(teacherB), false); d.Allowed {
		t.Error("B on P1 (read): expected denied")
	}
}

// Scenario: an org_admin without a manage_materials grant reads but cannot write.
func TestScenario_OrganizationAdminWithoutGrant(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.members.addOrg(teacherA, orgO, models.RoleOrgOwner)
	f.members.addOrg(teacherB, orgO, models.RoleOrgAdmin)
	p2 := &models.Program{ID: 2, OrganizationID: ptr(orgO), IsActive: true}

	if d := f.resolver.ResolveProgramAccess(ctx, p2, activeTeacher(teacherA), true); !d.Allowed {
		t.Errorf("A on P2 (owner): expected permitted, got %q", d.Reason)
	}
	d := f.resolver.ResolveProgramAccess(ctx, p2, activeTeacher(teacherB), true)
	if d.Allowed || d.Reason != ReasonInsufficientPermissions {
		t.Errorf("B on P2 (owner): got %+v, want denied %q", d, ReasonInsufficientPermissions)
	}
	if d := f.resolver.ResolveProgramAccess(ctx, p2, activeTeacher(teacherB), false); !d.Allowed {
		t.Errorf("B on P2 (read): expected permitted, got %q", d.Reason)
	}
}
