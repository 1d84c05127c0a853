package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusEnrolled  EnrollmentStatus = "ENROLLED"
	EnrollmentStatusDropped   EnrollmentStatus = "DROPPED"
	EnrollmentStatusCompleted EnrollmentStatus = "COMPLETED"
)

// Active reports whether the status counts toward capacity and GPA.
func (s EnrollmentStatus) Active() bool {
	return s == EnrollmentStatusEnrolled || s == EnrollmentStatusCompleted
}

// Enrollment captures a student's registration to a course for a semester.
// The (student_id, course_id, semester) triple is unique; score and grade
// are set together by the scoring flow and cleared on re-enrollment.
type Enrollment struct {
	ID         string           `db:"id" json:"id"`
	StudentID  string           `db:"student_id" json:"student_id"`
	CourseID   string           `db:"course_id" json:"course_id"`
	Semester   string           `db:"semester" json:"semester"`
	Score      *float64         `db:"score" json:"score,omitempty"`
	Grade      *string          `db:"grade" json:"grade,omitempty"`
	Status     EnrollmentStatus `db:"status" json:"status"`
	EnrolledAt time.Time        `db:"enrolled_at" json:"enrolled_at"`
	DroppedAt  *time.Time       `db:"dropped_at" json:"dropped_at,omitempty"`
}

// EnrollmentKey identifies one enrollment by its natural key.
type EnrollmentKey struct {
	StudentID string `json:"student_id" validate:"required"`
	CourseID  string `json:"course_id" validate:"required"`
	Semester  string `json:"semester" validate:"required"`
}

// EnrollmentDetail enriches Enrollment with student and course info.
type EnrollmentDetail struct {
	Enrollment
	StudentName string  `db:"student_name" json:"student_name"`
	CourseName  string  `db:"course_name" json:"course_name"`
	Credits     float64 `db:"credits" json:"credits"`
}

// RosterEntry lists one student enrolled in a course for a semester.
type RosterEntry struct {
	Enrollment
	StudentName string `db:"student_name" json:"student_name"`
	Major       string `db:"major" json:"major"`
	ClassName   string `db:"class_name" json:"class_name"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID string
	CourseID  string
	Semester  string
	Status    EnrollmentStatus
	Page      int
	PageSize  int
}
