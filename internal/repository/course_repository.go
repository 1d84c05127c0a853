package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/opencampus/registrar-api/internal/models"
)

// CourseRepository handles persistence of courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = `course_id, name, credits, teacher_id, department, semester, course_type,
        max_capacity, classroom, schedule, description, created_at, updated_at`

// FindByID returns a course by its code.
func (r *CourseRepository) FindByID(ctx context.Context, courseID string) (*models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses WHERE course_id = $1`, courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, courseID); err != nil {
		return nil, err
	}
	return &course, nil
}

// List returns courses filtered by the provided criteria.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	base := "FROM courses"
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		conditions = append(conditions, fmt.Sprintf(
			"(course_id ILIKE $%d OR name ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, pattern)
	}
	if filter.Semester != "" {
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("course_type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"course_id": "course_id",
		"name":      "name",
		"credits":   "credits",
		"semester":  "semester",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "course_id"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
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

	query := fmt.Sprintf(`SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		courseColumns, base+clause, orderBy, order, size, offset)

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// Available returns courses for a semester that still have open seats,
// with their current enrolled headcount.
func (r *CourseRepository) Available(ctx context.Context, semester string) ([]models.CourseAvailability, error) {
	query := fmt.Sprintf(`SELECT %s,
        (SELECT COUNT(*) FROM enrollments e
         WHERE e.course_id = courses.course_id AND e.semester = $1 AND e.status = $2) AS enrolled_count
        FROM courses
        WHERE semester = $1
          AND max_capacity > (SELECT COUNT(*) FROM enrollments e
                              WHERE e.course_id = courses.course_id AND e.semester = $1 AND e.status = $2)
        ORDER BY course_id ASC`, courseColumns)
	var courses []models.CourseAvailability
	if err := r.db.SelectContext(ctx, &courses, query, semester, models.EnrollmentStatusEnrolled); err != nil {
		return nil, fmt.Errorf("list available courses: %w", err)
	}
	return courses, nil
}

// Create persists a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now
	if course.Type == "" {
		course.Type = models.CourseTypeElective
	}
	const query = `INSERT INTO courses (course_id, name, credits, teacher_id, department, semester,
        course_type, max_capacity, classroom, schedule, description, created_at, updated_at)
        VALUES (:course_id, :name, :credits, :teacher_id, :department, :semester,
        :course_type, :max_capacity, :classroom, :schedule, :description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update overwrites the mutable fields of a course.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET name = :name, credits = :credits, teacher_id = :teacher_id,
        department = :department, semester = :semester, course_type = :course_type,
        max_capacity = :max_capacity, classroom = :classroom, schedule = :schedule,
        description = :description, updated_at = :updated_at
        WHERE course_id = :course_id`
	res, err := r.db.NamedExecContext(ctx, query, course)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update course rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a course. Enrollment rows cascade via the foreign key.
func (r *CourseRepository) Delete(ctx context.Context, courseID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE course_id = $1`, courseID)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete course rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
