package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/opencampus/registrar-api/internal/models"
)

// Sentinel outcomes surfaced by the transactional enroll. The service layer
// translates them into typed API errors.
var (
	ErrDuplicateEnrollment = errors.New("active enrollment already exists")
	ErrCapacityReached     = errors.New("course capacity reached")
)

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Enroll inserts an enrollment after checking the duplicate and capacity
// preconditions. The course row is locked for the duration of the
// check-then-insert so two concurrent calls cannot both pass the capacity
// check and oversubscribe the course. A previously dropped row for the same
// triple is revived in place, clearing score and grade.
func (r *EnrollmentRepository) Enroll(ctx context.Context, key models.EnrollmentKey) (*models.Enrollment, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin enroll tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var capacity int
	if err := tx.GetContext(ctx, &capacity,
		`SELECT max_capacity FROM courses WHERE course_id = $1 FOR UPDATE`, key.CourseID); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("lock course row: %w", err)
	}

	var existing models.Enrollment
	hasRow := true
	err = tx.GetContext(ctx, &existing,
		`SELECT id, student_id, course_id, semester, score, grade, status, enrolled_at, dropped_at
         FROM enrollments WHERE student_id = $1 AND course_id = $2 AND semester = $3`,
		key.StudentID, key.CourseID, key.Semester)
	if err != nil {
		if err != sql.ErrNoRows {
			return nil, fmt.Errorf("check existing enrollment: %w", err)
		}
		hasRow = false
	}
	if hasRow && existing.Status.Active() {
		return nil, ErrDuplicateEnrollment
	}

	var enrolled int
	if err := tx.GetContext(ctx, &enrolled,
		`SELECT COUNT(*) FROM enrollments WHERE course_id = $1 AND semester = $2 AND status = $3`,
		key.CourseID, key.Semester, models.EnrollmentStatusEnrolled); err != nil {
		return nil, fmt.Errorf("count enrolled: %w", err)
	}
	if enrolled >= capacity {
		return nil, ErrCapacityReached
	}

	enrollment := &models.Enrollment{
		StudentID:  key.StudentID,
		CourseID:   key.CourseID,
		Semester:   key.Semester,
		Status:     models.EnrollmentStatusEnrolled,
		EnrolledAt: time.Now().UTC(),
	}
	if hasRow {
		enrollment.ID = existing.ID
		if _, err := tx.ExecContext(ctx,
			`UPDATE enrollments SET status = $2, score = NULL, grade = NULL, enrolled_at = $3, dropped_at = NULL
             WHERE id = $1`,
			existing.ID, enrollment.Status, enrollment.EnrolledAt); err != nil {
			return nil, fmt.Errorf("revive enrollment: %w", err)
		}
	} else {
		enrollment.ID = uuid.NewString()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO enrollments (id, student_id, course_id, semester, status, enrolled_at)
             VALUES ($1, $2, $3, $4, $5, $6)`,
			enrollment.ID, enrollment.StudentID, enrollment.CourseID, enrollment.Semester,
			enrollment.Status, enrollment.EnrolledAt); err != nil {
			return nil, fmt.Errorf("create enrollment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit enroll tx: %w", err)
	}
	return enrollment, nil
}

// Drop marks an enrolled row as dropped, releasing its capacity slot.
// Returns sql.ErrNoRows when no row is in ENROLLED state for the triple,
// so a second drop never silently succeeds.
func (r *EnrollmentRepository) Drop(ctx context.Context, key models.EnrollmentKey) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE enrollments SET status = $4, dropped_at = $5
         WHERE student_id = $1 AND course_id = $2 AND semester = $3 AND status = $6`,
		key.StudentID, key.CourseID, key.Semester,
		models.EnrollmentStatusDropped, time.Now().UTC(), models.EnrollmentStatusEnrolled)
	if err != nil {
		return fmt.Errorf("drop enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("drop enrollment rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetScore writes score and grade on an active enrollment. Status is left
// untouched; re-scoring overwrites the previous value. Returns
// sql.ErrNoRows when no active row exists for the triple.
func (r *EnrollmentRepository) SetScore(ctx context.Context, key models.EnrollmentKey, score float64, grade string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE enrollments SET score = $4, grade = $5
         WHERE student_id = $1 AND course_id = $2 AND semester = $3 AND status IN ($6, $7)`,
		key.StudentID, key.CourseID, key.Semester, score, grade,
		models.EnrollmentStatusEnrolled, models.EnrollmentStatusCompleted)
	if err != nil {
		return fmt.Errorf("set score: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set score rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindByKey returns the enrollment row for a triple.
func (r *EnrollmentRepository) FindByKey(ctx context.Context, key models.EnrollmentKey) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, course_id, semester, score, grade, status, enrolled_at, dropped_at
        FROM enrollments WHERE student_id = $1 AND course_id = $2 AND semester = $3`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, key.StudentID, key.CourseID, key.Semester); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// List returns enrollments filtered by the provided criteria.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	base := `FROM enrollments e
JOIN students s ON s.student_id = e.student_id
JOIN courses c ON c.course_id = e.course_id`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("e.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.Semester != "" {
		conditions = append(conditions, fmt.Sprintf("e.semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT e.id, e.student_id, e.course_id, e.semester, e.score, e.grade, e.status,
        e.enrolled_at, e.dropped_at, s.name AS student_name, c.name AS course_name, c.credits
        %s ORDER BY e.semester DESC, e.course_id ASC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// Roster returns the students enrolled in a course for a semester.
func (r *EnrollmentRepository) Roster(ctx context.Context, courseID, semester string) ([]models.RosterEntry, error) {
	const query = `SELECT e.id, e.student_id, e.course_id, e.semester, e.score, e.grade, e.status,
        e.enrolled_at, e.dropped_at, s.name AS student_name, s.major, s.class_name
        FROM enrollments e
        JOIN students s ON s.student_id = e.student_id
        WHERE e.course_id = $1 AND e.semester = $2 AND e.status IN ($3, $4)
        ORDER BY e.student_id ASC`
	var roster []models.RosterEntry
	if err := r.db.SelectContext(ctx, &roster, query, courseID, semester,
		models.EnrollmentStatusEnrolled, models.EnrollmentStatusCompleted); err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	return roster, nil
}

// Transcript returns a student's enrollments joined with course context,
// newest semester first, course ID ascending within a semester.
func (r *EnrollmentRepository) Transcript(ctx context.Context, studentID string) ([]models.TranscriptEntry, error) {
	const query = `SELECT e.semester, e.course_id, c.name AS course_name, c.credits, c.course_type,
        e.score, e.grade, e.status
        FROM enrollments e
        JOIN courses c ON c.course_id = e.course_id
        WHERE e.student_id = $1 AND e.status <> $2
        ORDER BY e.semester DESC, e.course_id ASC`
	var entries []models.TranscriptEntry
	if err := r.db.SelectContext(ctx, &entries, query, studentID, models.EnrollmentStatusDropped); err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}
	return entries, nil
}
