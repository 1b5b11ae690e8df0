package models

import "time"

type Classroom struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Level     *string   `json:"level,omitempty" db:"level"`
	TeacherID int64     `json:"teacher_id" db:"teacher_id"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	SchoolID  *int64    `json:"school_id,omitempty" db:"school_id"` // From the active classroom-school link
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsSchoolClassroom reports whether the classroom is managed by a school.
func (c *Classroom) IsSchoolClassroom() bool {
	return c.SchoolID != nil
}

type Student struct {
	ID            int64     `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Email         *string   `json:"email,omitempty" db:"email"`
	StudentNumber *string   `json:"student_number,omitempty" db:"student_number"`
	ClassroomID   int64     `json:"classroom_id" db:"classroom_id"`
	IsActive      bool      `json:"is_active" db:"is_active"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
