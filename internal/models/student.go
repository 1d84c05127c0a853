package models

import "time"

// StudentStatus represents the lifecycle of a student record.
type StudentStatus string

// Possible student statuses.
const (
	StudentStatusActive    StudentStatus = "ACTIVE"
	StudentStatusOnLeave   StudentStatus = "ON_LEAVE"
	StudentStatusWithdrawn StudentStatus = "WITHDRAWN"
	StudentStatusGraduated StudentStatus = "GRADUATED"
)

// Student represents a learner registered in the institution. StudentID is
// the institutional number used as the primary key; enrollments reference it.
type Student struct {
	StudentID      string        `db:"student_id" json:"student_id"`
	Name           string        `db:"name" json:"name"`
	Gender         string        `db:"gender" json:"gender"`
	Age            int           `db:"age" json:"age"`
	Major          string        `db:"major" json:"major"`
	ClassName      string        `db:"class_name" json:"class_name"`
	Phone          string        `db:"phone" json:"phone"`
	Email          string        `db:"email" json:"email"`
	EnrollmentDate *time.Time    `db:"enrollment_date" json:"enrollment_date,omitempty"`
	Status         StudentStatus `db:"status" json:"status"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Major     string
	ClassName string
	Status    StudentStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
