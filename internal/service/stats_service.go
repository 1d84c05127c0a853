package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/opencampus/registrar-api/internal/models"
	appErrors "github.com/opencampus/registrar-api/pkg/errors"
)

type statsSource interface {
	StudentStatistics(ctx context.Context) (*models.StudentStatistics, error)
	CourseStatistics(ctx context.Context) (*models.CourseStatistics, error)
	EnrollmentStatistics(ctx context.Context, topN int) (*models.EnrollmentStatistics, error)
	ScoreStatistics(ctx context.Context, semester string) (*models.ScoreStatistics, error)
	ScoreDistribution(ctx context.Context, courseID, semester string) (*models.ScoreDistribution, error)
}

// StatsService serves aggregated, read-only statistics. Responses may be
// cached; a snapshot a few minutes stale is acceptable for every endpoint
// here, so no invalidation runs on the mutation paths.
type StatsService struct {
	repo     statsSource
	cache    *CacheService
	metrics  *MetricsService
	cacheTTL time.Duration
	topN     int
	logger   *zap.Logger
}

// NewStatsService constructs StatsService.
func NewStatsService(repo statsSource, cache *CacheService, metrics *MetricsService, cacheTTL time.Duration, topN int, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if topN <= 0 {
		topN = 10
	}
	return &StatsService{repo: repo, cache: cache, metrics: metrics, cacheTTL: cacheTTL, topN: topN, logger: logger}
}

// Students returns student headcount aggregates.
func (s *StatsService) Students(ctx context.Context) (*models.StudentStatistics, error) {
	var stats models.StudentStatistics
	key := statsCacheKey("students")
	if hit, _ := s.cache.Get(ctx, key, &stats); hit {
		return &stats, nil
	}

	start := time.Now()
	result, err := s.repo.StudentStatistics(ctx)
	s.observeQuery("student_statistics", start)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute student statistics")
	}
	s.store(ctx, key, result)
	return result, nil
}

// Courses returns course count aggregates.
func (s *StatsService) Courses(ctx context.Context) (*models.CourseStatistics, error) {
	var stats models.CourseStatistics
	key := statsCacheKey("courses")
	if hit, _ := s.cache.Get(ctx, key, &stats); hit {
		return &stats, nil
	}

	start := time.Now()
	result, err := s.repo.CourseStatistics(ctx)
	s.observeQuery("course_statistics", start)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute course statistics")
	}
	s.store(ctx, key, result)
	return result, nil
}

// Enrollments returns the enrollment leaderboard and course-load histogram.
func (s *StatsService) Enrollments(ctx context.Context) (*models.EnrollmentStatistics, error) {
	var stats models.EnrollmentStatistics
	key := statsCacheKey("enrollments")
	if hit, _ := s.cache.Get(ctx, key, &stats); hit {
		return &stats, nil
	}

	start := time.Now()
	result, err := s.repo.EnrollmentStatistics(ctx, s.topN)
	s.observeQuery("enrollment_statistics", start)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute enrollment statistics")
	}
	s.store(ctx, key, result)
	return result, nil
}

// Scores returns score aggregates, optionally narrowed to one semester.
func (s *StatsService) Scores(ctx context.Context, semester string) (*models.ScoreStatistics, error) {
	var stats models.ScoreStatistics
	key := statsCacheKey("scores", semester)
	if hit, _ := s.cache.Get(ctx, key, &stats); hit {
		return &stats, nil
	}

	start := time.Now()
	result, err := s.repo.ScoreStatistics(ctx, semester)
	s.observeQuery("score_statistics", start)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute score statistics")
	}
	s.store(ctx, key, result)
	return result, nil
}

// CourseDistribution returns the score histogram for a course and semester.
// A course with no recorded scores yields Count=0 with empty buckets rather
// than an error.
func (s *StatsService) CourseDistribution(ctx context.Context, courseID, semester string) (*models.ScoreDistribution, error) {
	if courseID == "" || semester == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course_id and semester are required")
	}

	var dist models.ScoreDistribution
	key := statsCacheKey("distribution", courseID, semester)
	if hit, _ := s.cache.Get(ctx, key, &dist); hit {
		return &dist, nil
	}

	start := time.Now()
	result, err := s.repo.ScoreDistribution(ctx, courseID, semester)
	s.observeQuery("score_distribution", start)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute score distribution")
	}
	s.store(ctx, key, result)
	return result, nil
}

// System returns the instrumentation snapshot. Never cached; it is cheap
// and staleness would defeat its purpose.
func (s *StatsService) System(ctx context.Context) models.SystemMetrics {
	return s.metrics.Snapshot()
}

func (s *StatsService) store(ctx context.Context, key string, value interface{}) {
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Debug("stats cache write skipped", zap.String("key", key), zap.Error(err))
	}
}

func (s *StatsService) observeQuery(label string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveDBQuery(label, time.Since(start))
	}
}

// statsCachePattern matches every cached statistics payload. Mutating
// services invalidate with it so stale aggregates never outlive a change
// by more than one request.
const statsCachePattern = "stats:*"

func statsCacheKey(parts ...string) string {
	key := "stats"
	for _, p := range parts {
		if p == "" {
			p = "all"
		}
		key = fmt.Sprintf("%s:%s", key, p)
	}
	return key
}
