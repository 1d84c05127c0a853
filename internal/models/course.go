package models

import "time"

// CourseType classifies how a course counts toward a programme.
type CourseType string

// Possible course types.
const (
	CourseTypeRequired  CourseType = "REQUIRED"
	CourseTypeElective  CourseType = "ELECTIVE"
	CourseTypePracticum CourseType = "PRACTICUM"
)

// Course represents an offered course. MaxCapacity bounds the number of
// enrolled students per semester; schedule and classroom are opaque strings.
type Course struct {
	CourseID    string     `db:"course_id" json:"course_id"`
	Name        string     `db:"name" json:"name"`
	Credits     float64    `db:"credits" json:"credits"`
	TeacherID   *string    `db:"teacher_id" json:"teacher_id,omitempty"`
	Department  string     `db:"department" json:"department"`
	Semester    string     `db:"semester" json:"semester"`
	Type        CourseType `db:"course_type" json:"course_type"`
	MaxCapacity int        `db:"max_capacity" json:"max_capacity"`
	Classroom   string     `db:"classroom" json:"classroom"`
	Schedule    string     `db:"schedule" json:"schedule"`
	Description string     `db:"description" json:"description"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// CourseAvailability enriches Course with the current enrolled headcount.
type CourseAvailability struct {
	Course
	EnrolledCount int `db:"enrolled_count" json:"enrolled_count"`
}

// CourseFilter provides filters for listing courses.
type CourseFilter struct {
	Search     string
	Semester   string
	Department string
	Type       CourseType
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
