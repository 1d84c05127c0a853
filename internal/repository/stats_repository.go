package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/opencampus/registrar-api/internal/models"
)

// StatsRepository serves the read-only grouped counts behind the statistics
// endpoints. All queries tolerate running concurrently with mutations; a
// slightly stale snapshot is acceptable.
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository constructs the repository.
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// StudentStatistics aggregates student headcounts by major, status and gender.
func (r *StatsRepository) StudentStatistics(ctx context.Context) (*models.StudentStatistics, error) {
	stats := &models.StudentStatistics{}
	if err := r.db.GetContext(ctx, &stats.TotalStudents, `SELECT COUNT(*) FROM students`); err != nil {
		return nil, fmt.Errorf("count students: %w", err)
	}

	if err := r.db.SelectContext(ctx, &stats.ByMajor,
		`SELECT major AS key, COUNT(*) AS count FROM students
         WHERE major <> '' GROUP BY major ORDER BY count DESC`); err != nil {
		return nil, fmt.Errorf("students by major: %w", err)
	}
	if err := r.db.SelectContext(ctx, &stats.ByStatus,
		`SELECT status AS key, COUNT(*) AS count FROM students GROUP BY status ORDER BY key ASC`); err != nil {
		return nil, fmt.Errorf("students by status: %w", err)
	}
	if err := r.db.SelectContext(ctx, &stats.ByGender,
		`SELECT gender AS key, COUNT(*) AS count FROM students GROUP BY gender ORDER BY key ASC`); err != nil {
		return nil, fmt.Errorf("students by gender: %w", err)
	}
	return stats, nil
}

// CourseStatistics aggregates course counts by type, semester and department.
func (r *StatsRepository) CourseStatistics(ctx context.Context) (*models.CourseStatistics, error) {
	stats := &models.CourseStatistics{}
	if err := r.db.GetContext(ctx, &stats.TotalCourses, `SELECT COUNT(*) FROM courses`); err != nil {
		return nil, fmt.Errorf("count courses: %w", err)
	}

	if err := r.db.SelectContext(ctx, &stats.ByType,
		`SELECT course_type AS key, COUNT(*) AS count FROM courses GROUP BY course_type ORDER BY key ASC`); err != nil {
		return nil, fmt.Errorf("courses by type: %w", err)
	}
	if err := r.db.SelectContext(ctx, &stats.BySemester,
		`SELECT semester AS key, COUNT(*) AS count FROM courses
         WHERE semester <> '' GROUP BY semester ORDER BY key DESC`); err != nil {
		return nil, fmt.Errorf("courses by semester: %w", err)
	}
	if err := r.db.SelectContext(ctx, &stats.ByDepartment,
		`SELECT department AS key, COUNT(*) AS count FROM courses
         WHERE department <> '' GROUP BY department ORDER BY count DESC`); err != nil {
		return nil, fmt.Errorf("courses by department: %w", err)
	}
	return stats, nil
}

// EnrollmentStatistics aggregates system-wide enrollment figures: the
// popularity leaderboard and how many students carry exactly k active
// enrollments.
func (r *StatsRepository) EnrollmentStatistics(ctx context.Context, topN int) (*models.EnrollmentStatistics, error) {
	if topN <= 0 {
		topN = 10
	}
	stats := &models.EnrollmentStatistics{}
	if err := r.db.GetContext(ctx, &stats.TotalEnrollments,
		`SELECT COUNT(*) FROM enrollments WHERE status <> $1`, models.EnrollmentStatusDropped); err != nil {
		return nil, fmt.Errorf("count enrollments: %w", err)
	}

	popularQuery := fmt.Sprintf(`SELECT c.course_id, c.name AS course_name, COUNT(*) AS count
        FROM enrollments e
        JOIN courses c ON c.course_id = e.course_id
        WHERE e.status <> $1
        GROUP BY c.course_id, c.name
        ORDER BY count DESC, c.course_id ASC
        LIMIT %d`, topN)
	if err := r.db.SelectContext(ctx, &stats.PopularCourses, popularQuery,
		models.EnrollmentStatusDropped); err != nil {
		return nil, fmt.Errorf("popular courses: %w", err)
	}

	const loadQuery = `SELECT course_count, COUNT(*) AS student_count
        FROM (SELECT student_id, COUNT(*) AS course_count
              FROM enrollments WHERE status <> $1
              GROUP BY student_id) t
        GROUP BY course_count
        ORDER BY course_count ASC`
	if err := r.db.SelectContext(ctx, &stats.CourseLoad, loadQuery,
		models.EnrollmentStatusDropped); err != nil {
		return nil, fmt.Errorf("course load histogram: %w", err)
	}
	return stats, nil
}

// ScoreStatistics aggregates scored, non-dropped enrollments; semester
// narrows the window when non-empty.
func (r *StatsRepository) ScoreStatistics(ctx context.Context, semester string) (*models.ScoreStatistics, error) {
	where := "WHERE e.score IS NOT NULL AND e.status <> $1"
	args := []interface{}{models.EnrollmentStatusDropped}
	if semester != "" {
		where += fmt.Sprintf(" AND e.semester = $%d", len(args)+1)
		args = append(args, semester)
	}

	stats := &models.ScoreStatistics{Semester: semester}

	var summary struct {
		Total int             `db:"total"`
		Avg   sql.NullFloat64 `db:"avg"`
	}
	summaryQuery := fmt.Sprintf(
		`SELECT COUNT(*) AS total, AVG(e.score) AS avg FROM enrollments e %s`, where)
	if err := r.db.GetContext(ctx, &summary, summaryQuery, args...); err != nil {
		return nil, fmt.Errorf("score summary: %w", err)
	}
	stats.TotalScores = summary.Total
	if summary.Avg.Valid {
		stats.OverallAvg = summary.Avg.Float64
	}

	gradeQuery := fmt.Sprintf(
		`SELECT e.grade AS key, COUNT(*) AS count FROM enrollments e %s GROUP BY e.grade ORDER BY key ASC`, where)
	if err := r.db.SelectContext(ctx, &stats.GradeDistribution, gradeQuery, args...); err != nil {
		return nil, fmt.Errorf("grade distribution: %w", err)
	}

	failedQuery := fmt.Sprintf(`SELECT DISTINCT s.student_id, s.name
        FROM enrollments e
        JOIN students s ON s.student_id = e.student_id
        %s AND e.score < 60
        ORDER BY s.student_id ASC`, where)
	if err := r.db.SelectContext(ctx, &stats.FailedStudents, failedQuery, args...); err != nil {
		return nil, fmt.Errorf("failed students: %w", err)
	}
	return stats, nil
}

// ScoreDistribution summarises scored enrollments for one course+semester.
// An empty set yields Count=0 with zeroed aggregates and empty buckets.
func (r *StatsRepository) ScoreDistribution(ctx context.Context, courseID, semester string) (*models.ScoreDistribution, error) {
	var summary struct {
		Total int             `db:"total"`
		Avg   sql.NullFloat64 `db:"avg"`
		Max   sql.NullFloat64 `db:"max"`
		Min   sql.NullFloat64 `db:"min"`
	}
	const summaryQuery = `SELECT COUNT(*) AS total, AVG(score) AS avg, MAX(score) AS max, MIN(score) AS min
        FROM enrollments
        WHERE course_id = $1 AND semester = $2 AND score IS NOT NULL AND status <> $3`
	if err := r.db.GetContext(ctx, &summary, summaryQuery, courseID, semester,
		models.EnrollmentStatusDropped); err != nil {
		return nil, fmt.Errorf("score distribution summary: %w", err)
	}

	dist := &models.ScoreDistribution{
		Count:     summary.Total,
		Histogram: make(map[string]int, len(models.ScoreBuckets)),
	}
	for _, bucket := range models.ScoreBuckets {
		dist.Histogram[bucket] = 0
	}
	if summary.Avg.Valid {
		dist.Avg = summary.Avg.Float64
	}
	if summary.Max.Valid {
		dist.Max = summary.Max.Float64
	}
	if summary.Min.Valid {
		dist.Min = summary.Min.Float64
	}

	const bucketQuery = `SELECT CASE
            WHEN score >= 90 THEN '90-100'
            WHEN score >= 80 THEN '80-89'
            WHEN score >= 70 THEN '70-79'
            WHEN score >= 60 THEN '60-69'
            ELSE '0-59'
        END AS key, COUNT(*) AS count
        FROM enrollments
        WHERE course_id = $1 AND semester = $2 AND score IS NOT NULL AND status <> $3
        GROUP BY key`
	var buckets []models.KeyCount
	if err := r.db.SelectContext(ctx, &buckets, bucketQuery, courseID, semester,
		models.EnrollmentStatusDropped); err != nil {
		return nil, fmt.Errorf("score distribution buckets: %w", err)
	}
	for _, b := range buckets {
		dist.Histogram[b.Key] = b.Count
	}
	return dist, nil
}
