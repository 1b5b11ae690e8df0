package service

import (
	"context"
	"errors"
	"testing"

	"lingoclass/internal/domain"
	"lingoclass/internal/domain/models"
	"lingoclass/internal/domain/services"
)

type permissionFixture struct {
	members *fakeMembers
	grants  *fakeGrants
	policy  *fakePolicyStore
	svc     services.PermissionService
}

func newPermissionFixture() *permissionFixture {
	f := &permissionFixture{
		members: newFakeMembers(),
		grants:  &fakeGrants{},
		policy:  &fakePolicyStore{},
	}
	f.members.add(1, 5, models.RoleOrgOwner)
	f.members.add(2, 5, models.RoleOrgAdmin)
	f.members.add(3, 5, models.RoleTeacher)
	f.svc = NewPermissionService(f.members, f.grants, f.policy, discardLogger())
	return f
}

func TestPermissionService_Grant(t *testing.T) {
	f := newPermissionFixture()

	grant, err := f.svc.Grant(context.Background(), activeTeacher(1), 5, &services.PermissionRequest{
		TeacherID: 3, Permission: models.PermissionManageMaterials,
	})
	if err != nil {
		t.Fatalf("Grant() failed: %v", err)
	}

	want := models.PermissionGrant{
		ID: 1, TeacherID: 3, OrganizationID: 5,
		Resource: models.PermissionManageMaterials, Action: models.ActionWrite, GrantedBy: 1,
		CreatedAt: grant.CreatedAt,
	}
	if *grant != want {
		t.Errorf("grant = %+v\nwant %+v", *grant, want)
	}
	if f.policy.reloads != 1 {
		t.Errorf("policy reloaded %d times, want 1", f.policy.reloads)
	}
}

func TestPermissionService_GrantRejections(t *testing.T) {
	tests := []struct {
		name    string
		caller  *models.Teacher
		req     *services.PermissionRequest
		wantErr error
	}{
		{"admin is not owner", activeTeacher(2), &services.PermissionRequest{TeacherID: 3, Permission: models.PermissionManagePoints}, domain.ErrForbidden},
		{"outsider", activeTeacher(99), &services.PermissionRequest{TeacherID: 3, Permission: models.PermissionManagePoints}, domain.ErrForbidden},
		{"inactive owner", &models.Teacher{ID: 1}, &services.PermissionRequest{TeacherID: 3, Permission: models.PermissionManagePoints}, domain.ErrForbidden},
		{"grantee not a member", activeTeacher(1), &services.PermissionRequest{TeacherID: 42, Permission: models.PermissionManagePoints}, domain.ErrNotFound},
		{"unknown permission", activeTeacher(1), &services.PermissionRequest{TeacherID: 3, Permission: "delete_everything"}, domain.ErrValidation},
		{"missing teacher", activeTeacher(1), &services.PermissionRequest{Permission: models.PermissionManagePoints}, domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPermissionFixture()

			_, err := f.svc.Grant(context.Background(), tt.caller, 5, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if len(f.grants.grants) != 0 || f.policy.reloads != 0 {
				t.Error("rejected grant must not write or reload")
			}
		})
	}
}

func TestPermissionService_DuplicateGrant(t *testing.T) {
	f := newPermissionFixture()
	ctx := context.Background()
	req := &services.PermissionRequest{TeacherID: 3, Permission: models.PermissionManageSchools}

	if _, err := f.svc.Grant(ctx, activeTeacher(1), 5, req); err != nil {
		t.Fatalf("first grant: %v", err)
	}
	if _, err := f.svc.Grant(ctx, activeTeacher(1), 5, req); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestPermissionService_Revoke(t *testing.T) {
	f := newPermissionFixture()
	ctx := context.Background()
	req := &services.PermissionRequest{TeacherID: 3, Permission: models.PermissionManagePoints}

	if _, err := f.svc.Grant(ctx, activeTeacher(1), 5, req); err != nil {
		t.Fatalf("Grant() failed: %v", err)
	}
	if err := f.svc.Revoke(ctx, activeTeacher(1), 5, req); err != nil {
		t.Fatalf("Revoke() failed: %v", err)
	}
	if len(f.grants.grants) != 0 {
		t.Error("grant should be removed")
	}
	if f.policy.reloads != 2 {
		t.Errorf("reloads = %d, want 2", f.policy.reloads)
	}

	if err := f.svc.Revoke(ctx, activeTeacher(1), 5, req); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second revoke: expected ErrNotFound, got %v", err)
	}
}

func TestPermissionService_ReloadFailureKeepsGrant(t *testing.T) {
	f := newPermissionFixture()
	f.policy.err = errors.New("database down")

	_, err := f.svc.Grant(context.Background(), activeTeacher(1), 5, &services.PermissionRequest{
		TeacherID: 2, Permission: models.PermissionManageMaterials,
	})
	if err != nil {
		t.Fatalf("Grant() should succeed once persisted, got %v", err)
	}
	if len(f.grants.grants) != 1 {
		t.Error("grant should be persisted")
	}
}
