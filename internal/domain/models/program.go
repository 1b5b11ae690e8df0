package models

import "time"

// OwnershipKind identifies which foreign key on a Program is authoritative.
type OwnershipKind string

const (
	OwnershipPersonal     OwnershipKind = "personal"
	OwnershipOrganization OwnershipKind = "organization"
	OwnershipSchool       OwnershipKind = "school"
	OwnershipUnowned      OwnershipKind = "unowned"
)

// Ownership is the tagged form of a Program's owner.
type Ownership struct {
	Kind OwnershipKind `json:"kind"`
	ID   int64         `json:"id,omitempty"`
}

type Program struct {
	ID             int64      `json:"id" db:"id"`
	Name           string     `json:"name" db:"name"`
	Description    *string    `json:"description,omitempty" db:"description"`
	TeacherID      *int64     `json:"teacher_id,omitempty" db:"teacher_id"`
	OrganizationID *int64     `json:"organization_id,omitempty" db:"organization_id"`
	SchoolID       *int64     `json:"school_id,omitempty" db:"school_id"`
	IsTemplate     bool       `json:"is_template" db:"is_template"`
	IsActive       bool       `json:"is_active" db:"is_active"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Ownership derives the owner from the foreign keys. Organization and school
// take precedence over the creating teacher.
func (p *Program) Ownership() Ownership {
	switch {
	case p.OrganizationID != nil:
		return Ownership{Kind: OwnershipOrganization, ID: *p.OrganizationID}
	case p.SchoolID != nil:
		return Ownership{Kind: OwnershipSchool, ID: *p.SchoolID}
	case p.TeacherID != nil:
		return Ownership{Kind: OwnershipPersonal, ID: *p.TeacherID}
	default:
		return Ownership{Kind: OwnershipUnowned}
	}
}

// CreatedBy reports whether teacherID is the program's teacher_id.
func (p *Program) CreatedBy(teacherID int64) bool {
	return p.TeacherID != nil && *p.TeacherID == teacherID
}

type Lesson struct {
	ID          int64     `json:"id" db:"id"`
	ProgramID   int64     `json:"program_id" db:"program_id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	OrderIndex  int       `json:"order_index" db:"order_index"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type Content struct {
	ID               int64     `json:"id" db:"id"`
	LessonID         *int64    `json:"lesson_id,omitempty" db:"lesson_id"`
	Title            string    `json:"title" db:"title"`
	Type             string    `json:"type" db:"type"`
	Level            *string   `json:"level,omitempty" db:"level"`
	IsAssignmentCopy bool      `json:"is_assignment_copy" db:"is_assignment_copy"`
	IsActive         bool      `json:"is_active" db:"is_active"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

type Assignment struct {
	ID          int64     `json:"id" db:"id"`
	TeacherID   int64     `json:"teacher_id" db:"teacher_id"`
	ClassroomID int64     `json:"classroom_id" db:"classroom_id"`
	Title       string    `json:"title" db:"title"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// AssignmentContent links an assignment to the content copies it uses.
type AssignmentContent struct {
	AssignmentID int64 `json:"assignment_id" db:"assignment_id"`
	ContentID    int64 `json:"content_id" db:"content_id"`
	OrderIndex   int   `json:"order_index" db:"order_index"`
}
