package models

import (
	"slices"
	"time"
)

// Organization roles
const (
	RoleOrgOwner = "org_owner"
	RoleOrgAdmin = "org_admin"
	RoleTeacher  = "teacher"
)

// School roles
const (
	RoleSchoolAdmin = "school_admin"
)

type Teacher struct {
	ID        int64     `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name" db:"name"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Organization struct {
	ID               int64      `json:"id" db:"id"`
	Name             string     `json:"name" db:"name"`
	IsActive         bool       `json:"is_active" db:"is_active"`
	TotalPoints      int64      `json:"total_points" db:"total_points"`
	UsedPoints       int64      `json:"used_points" db:"used_points"`
	LastPointsUpdate *time.Time `json:"last_points_update,omitempty" db:"last_points_update"`
}

type School struct {
	ID             int64  `json:"id" db:"id"`
	OrganizationID int64  `json:"organization_id" db:"organization_id"`
	Name           string `json:"name" db:"name"`
	IsActive       bool   `json:"is_active" db:"is_active"`
}

// TeacherOrganization is a teacher's membership in an organization.
// At most one active row exists per (teacher, organization).
type TeacherOrganization struct {
	ID             int64  `json:"id" db:"id"`
	TeacherID      int64  `json:"teacher_id" db:"teacher_id"`
	OrganizationID int64  `json:"organization_id" db:"organization_id"`
	Role           string `json:"role" db:"role"`
	IsActive       bool   `json:"is_active" db:"is_active"`
}

// TeacherSchool is a teacher's membership in a school. A member may hold
// several roles at once.
type TeacherSchool struct {
	ID        int64    `json:"id" db:"id"`
	TeacherID int64    `json:"teacher_id" db:"teacher_id"`
	SchoolID  int64    `json:"school_id" db:"school_id"`
	Roles     []string `json:"roles" db:"roles"`
	IsActive  bool     `json:"is_active" db:"is_active"`
}

// HasRole reports whether the membership carries role.
func (m *TeacherSchool) HasRole(role string) bool {
	return slices.Contains(m.Roles, role)
}
