package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/opencampus/registrar-api/internal/models"
	"github.com/opencampus/registrar-api/internal/repository"
	appErrors "github.com/opencampus/registrar-api/pkg/errors"
)

type enrollmentLedger interface {
	Enroll(ctx context.Context, key models.EnrollmentKey) (*models.Enrollment, error)
	Drop(ctx context.Context, key models.EnrollmentKey) error
	FindByKey(ctx context.Context, key models.EnrollmentKey) (*models.Enrollment, error)
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	Roster(ctx context.Context, courseID, semester string) ([]models.RosterEntry, error)
}

type studentReader interface {
	FindByID(ctx context.Context, studentID string) (*models.Student, error)
}

type courseReader interface {
	FindByID(ctx context.Context, courseID string) (*models.Course, error)
}

// EnrollRequest describes an enrollment creation request.
type EnrollRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	CourseID  string `json:"course_id" validate:"required"`
	Semester  string `json:"semester" validate:"required"`
}

// DropRequest describes a drop request for the same triple.
type DropRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	CourseID  string `json:"course_id" validate:"required"`
	Semester  string `json:"semester" validate:"required"`
}

// EnrollmentService orchestrates enrollment workflows. The acting identity
// is always passed in explicitly; there is no ambient session state.
type EnrollmentService struct {
	repo      enrollmentLedger
	students  studentReader
	courses   courseReader
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService. A nil cache disables
// statistics invalidation.
func NewEnrollmentService(repo enrollmentLedger, students studentReader, courses courseReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, students: students, courses: courses, cache: cache, validator: validate, logger: logger}
}

// Enroll registers a student to a course for a semester. Preconditions are
// checked in order: student exists, course exists, no active enrollment for
// the triple, capacity not reached. The duplicate and capacity checks run
// again inside the repository transaction, so concurrent callers cannot
// oversubscribe the course between check and insert.
func (s *EnrollmentService) Enroll(ctx context.Context, actor *models.JWTClaims, req EnrollRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	if err := requireSelfOrStaff(actor, req.StudentID); err != nil {
		return nil, err
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Status != models.StudentStatusActive {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student is not active")
	}
	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	key := models.EnrollmentKey{StudentID: req.StudentID, CourseID: req.CourseID, Semester: req.Semester}
	enrollment, err := s.repo.Enroll(ctx, key)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEnrollment):
			return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, "")
		case errors.Is(err, repository.ErrCapacityReached):
			return nil, appErrors.Clone(appErrors.ErrCourseFull, "")
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
		}
	}

	_ = s.cache.Invalidate(ctx, statsCachePattern)
	s.logger.Info("student enrolled",
		zap.String("student_id", key.StudentID),
		zap.String("course_id", key.CourseID),
		zap.String("semester", key.Semester))
	return enrollment, nil
}

// Drop releases a student's seat in a course. Only a row in ENROLLED state
// qualifies; a second drop for the same triple fails with NOT_ENROLLED so
// double-drop bugs surface to the caller.
func (s *EnrollmentService) Drop(ctx context.Context, actor *models.JWTClaims, req DropRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid drop payload")
	}
	if err := requireSelfOrStaff(actor, req.StudentID); err != nil {
		return err
	}

	key := models.EnrollmentKey{StudentID: req.StudentID, CourseID: req.CourseID, Semester: req.Semester}
	if err := s.repo.Drop(ctx, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotEnrolled, "")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to drop enrollment")
	}

	_ = s.cache.Invalidate(ctx, statsCachePattern)
	s.logger.Info("student dropped",
		zap.String("student_id", key.StudentID),
		zap.String("course_id", key.CourseID),
		zap.String("semester", key.Semester))
	return nil
}

// List returns enrollments with pagination metadata. Student callers only
// see their own rows.
func (s *EnrollmentService) List(ctx context.Context, actor *models.JWTClaims, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	if actor != nil && actor.Role == models.RoleStudent {
		if actor.StudentID == nil {
			return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "student account has no student record")
		}
		filter.StudentID = *actor.StudentID
	}
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return enrollments, pagination, nil
}

// Roster returns the students enrolled in a course for a semester.
func (s *EnrollmentService) Roster(ctx context.Context, courseID, semester string) ([]models.RosterEntry, error) {
	if courseID == "" || semester == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course_id and semester are required")
	}
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	roster, err := s.repo.Roster(ctx, courseID, semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list roster")
	}
	return roster, nil
}

// requireSelfOrStaff allows admins and teachers to act on any student and
// restricts student callers to their own record.
func requireSelfOrStaff(actor *models.JWTClaims, studentID string) error {
	if actor == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "")
	}
	switch actor.Role {
	case models.RoleAdmin, models.RoleTeacher:
		return nil
	case models.RoleStudent:
		if actor.StudentID != nil && *actor.StudentID == studentID {
			return nil
		}
		return appErrors.Clone(appErrors.ErrForbidden, "students may only act on their own enrollments")
	default:
		return appErrors.Clone(appErrors.ErrForbidden, "")
	}
}
