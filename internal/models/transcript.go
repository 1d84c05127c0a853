package models

// TranscriptEntry is one row of a student's transcript, joined with course
// context. Ordered by semester descending then course ID ascending.
type TranscriptEntry struct {
	Semester   string           `db:"semester" json:"semester"`
	CourseID   string           `db:"course_id" json:"course_id"`
	CourseName string           `db:"course_name" json:"course_name"`
	Credits    float64          `db:"credits" json:"credits"`
	CourseType CourseType       `db:"course_type" json:"course_type"`
	Score      *float64         `db:"score" json:"score,omitempty"`
	Grade      *string          `db:"grade" json:"grade,omitempty"`
	Status     EnrollmentStatus `db:"status" json:"status"`
}

// GPAReport summarises a student's grade point average. TotalPoints and GPA
// are rounded to two decimals for display; zero credits yields a zero GPA.
type GPAReport struct {
	StudentID    string  `json:"student_id"`
	GPA          float64 `json:"gpa"`
	TotalCredits float64 `json:"total_credits"`
	TotalPoints  float64 `json:"total_points"`
}
