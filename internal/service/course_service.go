package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/opencampus/registrar-api/internal/models"
	appErrors "github.com/opencampus/registrar-api/pkg/errors"
)

type courseStore interface {
	FindByID(ctx context.Context, courseID string) (*models.Course, error)
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	Available(ctx context.Context, semester string) ([]models.CourseAvailability, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, courseID string) error
}

// CreateCourseRequest holds fields for publishing a course.
type CreateCourseRequest struct {
	CourseID    string            `json:"course_id" validate:"required,max=32"`
	Name        string            `json:"name" validate:"required,max=128"`
	Credits     float64           `json:"credits" validate:"required,gt=0,lte=20"`
	TeacherID   *string           `json:"teacher_id"`
	Department  string            `json:"department" validate:"omitempty,max=128"`
	Semester    string            `json:"semester" validate:"required,max=32"`
	Type        models.CourseType `json:"course_type" validate:"omitempty,oneof=REQUIRED ELECTIVE PRACTICUM"`
	MaxCapacity int               `json:"max_capacity" validate:"required,gt=0,lte=1000"`
	Classroom   string            `json:"classroom" validate:"omitempty,max=64"`
	Schedule    string            `json:"schedule" validate:"omitempty,max=128"`
	Description string            `json:"description" validate:"omitempty,max=1024"`
}

// UpdateCourseRequest holds updatable course fields. Nil pointers keep the
// stored value. Shrinking MaxCapacity below the current headcount is allowed;
// it only blocks further enrollment.
type UpdateCourseRequest struct {
	Name        *string            `json:"name" validate:"omitempty,max=128"`
	Credits     *float64           `json:"credits" validate:"omitempty,gt=0,lte=20"`
	TeacherID   *string            `json:"teacher_id"`
	Department  *string            `json:"department" validate:"omitempty,max=128"`
	Semester    *string            `json:"semester" validate:"omitempty,max=32"`
	Type        *models.CourseType `json:"course_type" validate:"omitempty,oneof=REQUIRED ELECTIVE PRACTICUM"`
	MaxCapacity *int               `json:"max_capacity" validate:"omitempty,gt=0,lte=1000"`
	Classroom   *string            `json:"classroom" validate:"omitempty,max=64"`
	Schedule    *string            `json:"schedule" validate:"omitempty,max=128"`
	Description *string            `json:"description" validate:"omitempty,max=1024"`
}

// CourseService manages the course catalogue.
type CourseService struct {
	repo      courseStore
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs CourseService. A nil cache disables
// statistics invalidation.
func NewCourseService(repo courseStore, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// Get returns one course by code.
func (s *CourseService) Get(ctx context.Context, courseID string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// List returns courses matching the filter with pagination metadata.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return courses, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Available lists courses for a semester that still have open seats.
func (s *CourseService) Available(ctx context.Context, semester string) ([]models.CourseAvailability, error) {
	if semester == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester is required")
	}
	courses, err := s.repo.Available(ctx, semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list available courses")
	}
	return courses, nil
}

// Create publishes a new course.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if existing, err := s.repo.FindByID(ctx, req.CourseID); err == nil && existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course already exists")
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course")
	}

	course := &models.Course{
		CourseID:    req.CourseID,
		Name:        req.Name,
		Credits:     req.Credits,
		TeacherID:   req.TeacherID,
		Department:  req.Department,
		Semester:    req.Semester,
		Type:        req.Type,
		MaxCapacity: req.MaxCapacity,
		Classroom:   req.Classroom,
		Schedule:    req.Schedule,
		Description: req.Description,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	_ = s.cache.Invalidate(ctx, statsCachePattern)
	s.logger.Info("course created", zap.String("course_id", course.CourseID))
	return course, nil
}

// Update applies a partial update to a course.
func (s *CourseService) Update(ctx context.Context, courseID string, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course, err := s.repo.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	if req.Name != nil {
		course.Name = *req.Name
	}
	if req.Credits != nil {
		course.Credits = *req.Credits
	}
	if req.TeacherID != nil {
		course.TeacherID = req.TeacherID
	}
	if req.Department != nil {
		course.Department = *req.Department
	}
	if req.Semester != nil {
		course.Semester = *req.Semester
	}
	if req.Type != nil {
		course.Type = *req.Type
	}
	if req.MaxCapacity != nil {
		course.MaxCapacity = *req.MaxCapacity
	}
	if req.Classroom != nil {
		course.Classroom = *req.Classroom
	}
	if req.Schedule != nil {
		course.Schedule = *req.Schedule
	}
	if req.Description != nil {
		course.Description = *req.Description
	}

	if err := s.repo.Update(ctx, course); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	_ = s.cache.Invalidate(ctx, statsCachePattern)
	s.logger.Info("course updated", zap.String("course_id", courseID))
	return course, nil
}

// Delete removes a course and, via cascade, its enrollment rows.
func (s *CourseService) Delete(ctx context.Context, courseID string) error {
	if err := s.repo.Delete(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	_ = s.cache.Invalidate(ctx, statsCachePattern)
	s.logger.Info("course deleted", zap.String("course_id", courseID))
	return nil
}
