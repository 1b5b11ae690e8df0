package models

import "time"

// Grantable permissions within an organization
const (
	PermissionManageMaterials = "manage_materials"
	PermissionManageSchools   = "manage_schools"
	PermissionManagePoints    = "manage_points"
)

// ActionWrite is the only action grants currently carry.
const ActionWrite = "write"

// PermissionGrant gives one organization member an explicit permission
// beyond what their role implies.
type PermissionGrant struct {
	ID             int64     `json:"id" db:"id"`
	TeacherID      int64     `json:"teacher_id" db:"teacher_id"`
	OrganizationID int64     `json:"organization_id" db:"organization_id"`
	Resource       string    `json:"resource" db:"resource"`
	Action         string    `json:"action" db:"action"`
	GrantedBy      int64     `json:"granted_by" db:"granted_by"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Permitted is the allowing decision.
func Permitted() Decision {
	return Decision{Allowed: true}
}

// Denied is a refusal carrying a user-facing reason.
func Denied(reason string) Decision {
	return Decision{Reason: reason}
}
