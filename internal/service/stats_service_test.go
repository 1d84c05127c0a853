package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opencampus/registrar-api/internal/models"
	appErrors "github.com/opencampus/registrar-api/pkg/errors"
)

type mockStatsSource struct {
	students     *models.StudentStatistics
	distribution *models.ScoreDistribution
	calls        int
}

func (m *mockStatsSource) StudentStatistics(ctx context.Context) (*models.StudentStatistics, error) {
	m.calls++
	return m.students, nil
}

func (m *mockStatsSource) CourseStatistics(ctx context.Context) (*models.CourseStatistics, error) {
	return &models.CourseStatistics{}, nil
}

func (m *mockStatsSource) EnrollmentStatistics(ctx context.Context, topN int) (*models.EnrollmentStatistics, error) {
	return &models.EnrollmentStatistics{}, nil
}

func (m *mockStatsSource) ScoreStatistics(ctx context.Context, semester string) (*models.ScoreStatistics, error) {
	return &models.ScoreStatistics{Semester: semester}, nil
}

func (m *mockStatsSource) ScoreDistribution(ctx context.Context, courseID, semester string) (*models.ScoreDistribution, error) {
	return m.distribution, nil
}

type memoryCacheRepo struct {
	values  map[string][]byte
	sets    int
	deletes []string
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	return appErrors.ErrCacheMiss
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.values == nil {
		m.values = make(map[string][]byte)
	}
	m.values[key] = nil
	m.sets++
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.deletes = append(m.deletes, pattern)
	return nil
}

func TestStatsServiceStudents(t *testing.T) {
	source := &mockStatsSource{students: &models.StudentStatistics{
		TotalStudents: 3,
		ByMajor:       []models.KeyCount{{Key: "CS", Count: 2}, {Key: "Math", Count: 1}},
	}}
	svc := NewStatsService(source, nil, nil, time.Minute, 10, zap.NewNop())

	stats, err := svc.Students(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalStudents)
	assert.Len(t, stats.ByMajor, 2)
}

func TestStatsServiceCachesResults(t *testing.T) {
	source := &mockStatsSource{students: &models.StudentStatistics{TotalStudents: 1}}
	cacheRepo := &memoryCacheRepo{}
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := NewStatsService(source, cacheSvc, nil, time.Minute, 10, zap.NewNop())

	_, err := svc.Students(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cacheRepo.sets)
	assert.Contains(t, cacheRepo.values, "stats:students")
}

func TestStatsServiceEmptyDistribution(t *testing.T) {
	histogram := make(map[string]int, len(models.ScoreBuckets))
	for _, b := range models.ScoreBuckets {
		histogram[b] = 0
	}
	source := &mockStatsSource{distribution: &models.ScoreDistribution{Count: 0, Histogram: histogram}}
	svc := NewStatsService(source, nil, nil, time.Minute, 10, zap.NewNop())

	dist, err := svc.CourseDistribution(context.Background(), "c1", "2025-FALL")
	require.NoError(t, err)
	assert.Equal(t, 0, dist.Count)
	assert.Equal(t, 0.0, dist.Avg)
	for _, bucket := range models.ScoreBuckets {
		assert.Equal(t, 0, dist.Histogram[bucket])
	}
}

func TestStatsServiceDistributionRequiresArgs(t *testing.T) {
	svc := NewStatsService(&mockStatsSource{}, nil, nil, time.Minute, 10, zap.NewNop())

	_, err := svc.CourseDistribution(context.Background(), "", "2025-FALL")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestStatsServiceScoresSemesterKey(t *testing.T) {
	source := &mockStatsSource{}
	svc := NewStatsService(source, nil, nil, time.Minute, 10, zap.NewNop())

	stats, err := svc.Scores(context.Background(), "2025-FALL")
	require.NoError(t, err)
	assert.Equal(t, "2025-FALL", stats.Semester)
}
