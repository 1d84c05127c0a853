package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/opencampus/registrar-api/internal/models"
	appErrors "github.com/opencampus/registrar-api/pkg/errors"
)

type studentStore interface {
	FindByID(ctx context.Context, studentID string) (*models.Student, error)
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, studentID string) error
}

// CreateStudentRequest holds fields for registering a student.
type CreateStudentRequest struct {
	StudentID      string     `json:"student_id" validate:"required,max=32"`
	Name           string     `json:"name" validate:"required,max=128"`
	Gender         string     `json:"gender" validate:"omitempty,oneof=M F OTHER"`
	Age            int        `json:"age" validate:"omitempty,gte=14,lte=80"`
	Major          string     `json:"major" validate:"omitempty,max=128"`
	ClassName      string     `json:"class_name" validate:"omitempty,max=64"`
	Phone          string     `json:"phone" validate:"omitempty,max=32"`
	Email          string     `json:"email" validate:"omitempty,email"`
	EnrollmentDate *time.Time `json:"enrollment_date"`
}

// UpdateStudentRequest holds updatable student fields. Nil pointers keep the
// stored value.
type UpdateStudentRequest struct {
	Name           *string               `json:"name" validate:"omitempty,max=128"`
	Gender         *string               `json:"gender" validate:"omitempty,oneof=M F OTHER"`
	Age            *int                  `json:"age" validate:"omitempty,gte=14,lte=80"`
	Major          *string               `json:"major" validate:"omitempty,max=128"`
	ClassName      *string               `json:"class_name" validate:"omitempty,max=64"`
	Phone          *string               `json:"phone" validate:"omitempty,max=32"`
	Email          *string               `json:"email" validate:"omitempty,email"`
	EnrollmentDate *time.Time            `json:"enrollment_date"`
	Status         *models.StudentStatus `json:"status" validate:"omitempty,oneof=ACTIVE ON_LEAVE WITHDRAWN GRADUATED"`
}

// StudentService manages student records.
type StudentService struct {
	repo      studentStore
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs StudentService. A nil cache disables
// statistics invalidation.
func NewStudentService(repo studentStore, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// Get returns one student. Student callers may only read their own record.
func (s *StudentService) Get(ctx context.Context, actor *models.JWTClaims, studentID string) (*models.Student, error) {
	if err := requireSelfOrStaff(actor, studentID); err != nil {
		return nil, err
	}
	student, err := s.repo.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// List returns students matching the filter with pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Create registers a new student as ACTIVE.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if existing, err := s.repo.FindByID(ctx, req.StudentID); err == nil && existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already exists")
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student")
	}

	student := &models.Student{
		StudentID:      req.StudentID,
		Name:           req.Name,
		Gender:         req.Gender,
		Age:            req.Age,
		Major:          req.Major,
		ClassName:      req.ClassName,
		Phone:          req.Phone,
		Email:          req.Email,
		EnrollmentDate: req.EnrollmentDate,
		Status:         models.StudentStatusActive,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	_ = s.cache.Invalidate(ctx, statsCachePattern)
	s.logger.Info("student created", zap.String("student_id", student.StudentID))
	return student, nil
}

// Update applies a partial update to a student record.
func (s *StudentService) Update(ctx context.Context, studentID string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.repo.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	if req.Name != nil {
		student.Name = *req.Name
	}
	if req.Gender != nil {
		student.Gender = *req.Gender
	}
	if req.Age != nil {
		student.Age = *req.Age
	}
	if req.Major != nil {
		student.Major = *req.Major
	}
	if req.ClassName != nil {
		student.ClassName = *req.ClassName
	}
	if req.Phone != nil {
		student.Phone = *req.Phone
	}
	if req.Email != nil {
		student.Email = *req.Email
	}
	if req.EnrollmentDate != nil {
		student.EnrollmentDate = req.EnrollmentDate
	}
	if req.Status != nil {
		student.Status = *req.Status
	}

	if err := s.repo.Update(ctx, student); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	_ = s.cache.Invalidate(ctx, statsCachePattern)
	s.logger.Info("student updated", zap.String("student_id", studentID))
	return student, nil
}

// Delete removes a student and, via cascade, their enrollment rows.
func (s *StudentService) Delete(ctx context.Context, studentID string) error {
	if err := s.repo.Delete(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	_ = s.cache.Invalidate(ctx, statsCachePattern)
	s.logger.Info("student deleted", zap.String("student_id", studentID))
	return nil
}
