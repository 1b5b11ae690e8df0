package service

import (
	"context"
	"errors"
	"testing"

	"lingoclass/internal/domain"
	"lingoclass/internal/domain/models"
	"lingoclass/internal/domain/services"
)

func newClassroomFixture(resolver *fakeResolver) (*fakeClassroomRepo, services.ClassroomService) {
	repo := &fakeClassroomRepo{classrooms: map[int64]*models.Classroom{
		1: {ID: 1, Name: "Room A", TeacherID: 10, IsActive: true},
		2: {ID: 2, Name: "Room B", TeacherID: 10, IsActive: true, SchoolID: ptr(int64(8))},
		3: {ID: 3, Name: "Room C", TeacherID: 11, IsActive: true, SchoolID: ptr(int64(9))},
	}}
	orgs := &fakeOrgRepo{schools: map[int64]*models.School{
		8: {ID: 8, OrganizationID: 5, Name: "North", IsActive: true},
		9: {ID: 9, OrganizationID: 5, Name: "South", IsActive: true},
	}}
	return repo, NewClassroomService(repo, orgs, resolver, discardLogger())
}

func TestClassroomService_PersonalPathwayPassesOperation(t *testing.T) {
	ctx := context.Background()
	teacher := activeTeacher(10)

	tests := []struct {
		name string
		call func(svc services.ClassroomService) error
		want services.ClassroomOperation
	}{
		{"create student", func(svc services.ClassroomService) error {
			_, err := svc.CreateStudent(ctx, teacher, 1, &services.CreateStudentRequest{Name: "Mei"})
			return err
		}, services.ClassroomCreateStudent},
		{"update", func(svc services.ClassroomService) error {
			_, err := svc.UpdateClassroom(ctx, teacher, 1, &services.UpdateClassroomRequest{Level: ptr("A2")})
			return err
		}, services.ClassroomUpdate},
		{"delete", func(svc services.ClassroomService) error {
			return svc.DeleteClassroom(ctx, teacher, 1)
		}, services.ClassroomDelete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := allowAll()
			_, svc := newClassroomFixture(resolver)

			if err := tt.call(svc); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resolver.op != tt.want {
				t.Errorf("op = %q, want %q", resolver.op, tt.want)
			}
		})
	}
}

func TestClassroomService_PersonalPathwayDenied(t *testing.T) {
	repo, svc := newClassroomFixture(denyAll("school classroom, must use school management"))

	_, err := svc.CreateStudent(context.Background(), activeTeacher(10), 2, &services.CreateStudentRequest{Name: "Mei"})

	var denied *domain.AccessDeniedError
	if !errors.As(err, &denied) || denied.Reason != "school classroom, must use school management" {
		t.Fatalf("expected school classroom denial, got %v", err)
	}
	if len(repo.students) != 0 {
		t.Error("no student should be created")
	}
}

func TestClassroomService_CreateStudent(t *testing.T) {
	repo, svc := newClassroomFixture(allowAll())

	student, err := svc.CreateStudent(context.Background(), activeTeacher(10), 1, &services.CreateStudentRequest{
		Name:          "  Mei Lin ",
		Email:         ptr("mei@example.com"),
		StudentNumber: ptr("S-001"),
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}

	if student.ID == 0 || student.ClassroomID != 1 || !student.IsActive {
		t.Errorf("unexpected student %+v", student)
	}
	if student.Name != "Mei Lin" {
		t.Errorf("name = %q, want trimmed", student.Name)
	}
	if len(repo.students) != 1 {
		t.Errorf("students = %d, want 1", len(repo.students))
	}
}

func TestClassroomService_CreateStudentConflict(t *testing.T) {
	repo, svc := newClassroomFixture(allowAll())
	repo.createErr = &domain.ConflictError{Message: "student number already used", ResourceType: "student"}

	_, err := svc.CreateStudent(context.Background(), activeTeacher(10), 1, &services.CreateStudentRequest{Name: "Mei", StudentNumber: ptr("S-001")})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestClassroomService_Validation(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		req  *services.CreateStudentRequest
	}{
		{"missing name", &services.CreateStudentRequest{}},
		{"blank name", &services.CreateStudentRequest{Name: "   "}},
		{"bad email", &services.CreateStudentRequest{Name: "Mei", Email: ptr("not-an-email")}},
		{"empty student number", &services.CreateStudentRequest{Name: "Mei", StudentNumber: ptr("")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := allowAll()
			_, svc := newClassroomFixture(resolver)

			if _, err := svc.CreateStudent(ctx, activeTeacher(10), 1, tt.req); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if resolver.calls != 0 {
				t.Error("invalid requests should fail before authorization")
			}
		})
	}
}

func TestClassroomService_SchoolPathway(t *testing.T) {
	ctx := context.Background()

	t.Run("linked classroom", func(t *testing.T) {
		repo, svc := newClassroomFixture(allowAll())
		got, err := svc.UpdateSchoolClassroom(ctx, activeTeacher(20), 8, 2, &services.UpdateClassroomRequest{Name: ptr("Room B2")})
		if err != nil {
			t.Fatalf("UpdateSchoolClassroom() failed: %v", err)
		}
		if got.Name != "Room B2" || repo.classrooms[2].Name != "Room B2" {
			t.Error("update not applied")
		}
	})

	t.Run("classroom in another school", func(t *testing.T) {
		_, svc := newClassroomFixture(allowAll())
		err := svc.DeleteSchoolClassroom(ctx, activeTeacher(20), 8, 3)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("personal classroom", func(t *testing.T) {
		_, svc := newClassroomFixture(allowAll())
		_, err := svc.CreateSchoolStudent(ctx, activeTeacher(20), 8, 1, &services.CreateStudentRequest{Name: "Mei"})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("no school access", func(t *testing.T) {
		repo, svc := newClassroomFixture(denyAll("no access to school"))
		err := svc.DeleteSchoolClassroom(ctx, activeTeacher(20), 8, 2)
		if !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
		if len(repo.deleted) != 0 {
			t.Error("denied delete must not write")
		}
	})

	t.Run("unknown school", func(t *testing.T) {
		_, svc := newClassroomFixture(allowAll())
		err := svc.DeleteSchoolClassroom(ctx, activeTeacher(20), 404, 2)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("create student", func(t *testing.T) {
		repo, svc := newClassroomFixture(allowAll())
		if _, err := svc.CreateSchoolStudent(ctx, activeTeacher(20), 8, 2, &services.CreateStudentRequest{Name: "Mei"}); err != nil {
			t.Fatalf("CreateSchoolStudent() failed: %v", err)
		}
		if len(repo.students) != 1 || repo.students[0].ClassroomID != 2 {
			t.Errorf("students = %+v", repo.students)
		}
	})
}
