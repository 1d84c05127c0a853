package models

import "time"

// KeyCount is a generic grouped count row (major, status, gender, type...).
type KeyCount struct {
	Key   string `db:"key" json:"key"`
	Count int    `db:"count" json:"count"`
}

// StudentStatistics aggregates student headcounts.
type StudentStatistics struct {
	TotalStudents int        `json:"total_students"`
	ByMajor       []KeyCount `json:"by_major"`
	ByStatus      []KeyCount `json:"by_status"`
	ByGender      []KeyCount `json:"by_gender"`
}

// CourseStatistics aggregates course counts.
type CourseStatistics struct {
	TotalCourses int        `json:"total_courses"`
	ByType       []KeyCount `json:"by_type"`
	BySemester   []KeyCount `json:"by_semester"`
	ByDepartment []KeyCount `json:"by_department"`
}

// PopularCourse is one row of the enrollment leaderboard.
type PopularCourse struct {
	CourseID   string `db:"course_id" json:"course_id"`
	CourseName string `db:"course_name" json:"course_name"`
	Count      int    `db:"count" json:"count"`
}

// CourseLoadBucket counts students holding exactly CourseCount active
// enrollments.
type CourseLoadBucket struct {
	CourseCount  int `db:"course_count" json:"course_count"`
	StudentCount int `db:"student_count" json:"student_count"`
}

// EnrollmentStatistics aggregates system-wide enrollment figures.
type EnrollmentStatistics struct {
	TotalEnrollments int                `json:"total_enrollments"`
	PopularCourses   []PopularCourse    `json:"popular_courses"`
	CourseLoad       []CourseLoadBucket `json:"course_load"`
}

// FailedStudent identifies a student with at least one failing score.
type FailedStudent struct {
	StudentID string `db:"student_id" json:"student_id"`
	Name      string `db:"name" json:"name"`
}

// ScoreStatistics aggregates scored enrollments, optionally per semester.
type ScoreStatistics struct {
	Semester          string          `json:"semester,omitempty"`
	TotalScores       int             `json:"total_scores"`
	OverallAvg        float64         `json:"overall_avg"`
	GradeDistribution []KeyCount      `json:"grade_distribution"`
	FailedStudents    []FailedStudent `json:"failed_students"`
}

// ScoreDistribution summarises scores for one course and semester. Avg, Max
// and Min are only meaningful when Count > 0; callers must guard on Count.
type ScoreDistribution struct {
	Count     int            `json:"count"`
	Avg       float64        `json:"avg"`
	Max       float64        `json:"max"`
	Min       float64        `json:"min"`
	Histogram map[string]int `json:"histogram"`
}

// Histogram bucket labels for ScoreDistribution, highest first.
var ScoreBuckets = []string{"90-100", "80-89", "70-79", "60-69", "0-59"}

// SystemMetrics is a lightweight instrumentation snapshot.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"avg_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"avg_db_query_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
