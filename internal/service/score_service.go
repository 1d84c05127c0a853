package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/opencampus/registrar-api/internal/gradebook"
	"github.com/opencampus/registrar-api/internal/models"
	appErrors "github.com/opencampus/registrar-api/pkg/errors"
)

type scoreWriter interface {
	FindByKey(ctx context.Context, key models.EnrollmentKey) (*models.Enrollment, error)
	SetScore(ctx context.Context, key models.EnrollmentKey, score float64, grade string) error
}

// SetScoreRequest carries a score for one enrollment triple.
type SetScoreRequest struct {
	StudentID string  `json:"student_id" validate:"required"`
	CourseID  string  `json:"course_id" validate:"required"`
	Semester  string  `json:"semester" validate:"required"`
	Score     float64 `json:"score"`
}

// ScoreService attaches scores to enrollments and derives the display
// grade. Re-scoring overwrites the previous value; enrollment status is
// never changed here.
type ScoreService struct {
	repo      scoreWriter
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScoreService constructs ScoreService. A nil cache disables statistics
// invalidation.
func NewScoreService(repo scoreWriter, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ScoreService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScoreService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// SetScore records a score for the triple. The enrollment must be in
// ENROLLED or COMPLETED state; dropped rows are not scorable. The stored
// grade is the five-level display label; grade points are always derived
// from the raw score at aggregation time.
func (s *ScoreService) SetScore(ctx context.Context, actor *models.JWTClaims, req SetScoreRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score payload")
	}
	if err := requireStaff(actor); err != nil {
		return nil, err
	}

	key := models.EnrollmentKey{StudentID: req.StudentID, CourseID: req.CourseID, Semester: req.Semester}
	enrollment, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if !enrollment.Status.Active() {
		return nil, appErrors.Clone(appErrors.ErrEnrollmentClosed, "")
	}
	if !gradebook.ValidScore(req.Score) {
		return nil, appErrors.Clone(appErrors.ErrScoreOutOfRange, "")
	}

	grade := gradebook.Descriptive(req.Score)
	if err := s.repo.SetScore(ctx, key, req.Score, grade); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set score")
	}

	score := req.Score
	enrollment.Score = &score
	enrollment.Grade = &grade

	_ = s.cache.Invalidate(ctx, statsCachePattern)
	s.logger.Info("score recorded",
		zap.String("student_id", key.StudentID),
		zap.String("course_id", key.CourseID),
		zap.String("semester", key.Semester),
		zap.Float64("score", score),
		zap.String("grade", grade))
	return enrollment, nil
}

// requireStaff allows only admins and teachers to record scores.
func requireStaff(actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "")
	}
	if actor.Role == models.RoleAdmin || actor.Role == models.RoleTeacher {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "only staff may record scores")
}
