package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opencampus/registrar-api/internal/models"
	appErrors "github.com/opencampus/registrar-api/pkg/errors"
)

type mockScoreWriter struct {
	rows map[models.EnrollmentKey]models.Enrollment
}

func (m *mockScoreWriter) FindByKey(ctx context.Context, key models.EnrollmentKey) (*models.Enrollment, error) {
	if e, ok := m.rows[key]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockScoreWriter) SetScore(ctx context.Context, key models.EnrollmentKey, score float64, grade string) error {
	e, ok := m.rows[key]
	if !ok || !e.Status.Active() {
		return sql.ErrNoRows
	}
	e.Score = &score
	e.Grade = &grade
	m.rows[key] = e
	return nil
}

func teacherClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "u-teacher", Role: models.RoleTeacher}
}

func enrolledRow(key models.EnrollmentKey) models.Enrollment {
	return models.Enrollment{
		ID:        "e1",
		StudentID: key.StudentID,
		CourseID:  key.CourseID,
		Semester:  key.Semester,
		Status:    models.EnrollmentStatusEnrolled,
	}
}

func TestScoreServiceSetScore(t *testing.T) {
	key := models.EnrollmentKey{StudentID: "s1", CourseID: "c1", Semester: "2025-FALL"}
	repo := &mockScoreWriter{rows: map[models.EnrollmentKey]models.Enrollment{key: enrolledRow(key)}}
	svc := NewScoreService(repo, nil, validator.New(), zap.NewNop())

	enrollment, err := svc.SetScore(context.Background(), teacherClaims(), SetScoreRequest{
		StudentID: "s1", CourseID: "c1", Semester: "2025-FALL", Score: 85,
	})
	require.NoError(t, err)
	require.NotNil(t, enrollment.Score)
	assert.Equal(t, 85.0, *enrollment.Score)
	require.NotNil(t, enrollment.Grade)
	assert.Equal(t, "Good", *enrollment.Grade)
}

func TestScoreServiceOverwrite(t *testing.T) {
	key := models.EnrollmentKey{StudentID: "s1", CourseID: "c1", Semester: "2025-FALL"}
	repo := &mockScoreWriter{rows: map[models.EnrollmentKey]models.Enrollment{key: enrolledRow(key)}}
	svc := NewScoreService(repo, nil, validator.New(), zap.NewNop())

	req := SetScoreRequest{StudentID: "s1", CourseID: "c1", Semester: "2025-FALL", Score: 55}
	_, err := svc.SetScore(context.Background(), teacherClaims(), req)
	require.NoError(t, err)

	req.Score = 92
	enrollment, err := svc.SetScore(context.Background(), teacherClaims(), req)
	require.NoError(t, err)
	assert.Equal(t, 92.0, *enrollment.Score)
	assert.Equal(t, "Excellent", *enrollment.Grade)

	stored := repo.rows[key]
	assert.Equal(t, 92.0, *stored.Score)
}

func TestScoreServiceOutOfRange(t *testing.T) {
	key := models.EnrollmentKey{StudentID: "s1", CourseID: "c1", Semester: "2025-FALL"}
	repo := &mockScoreWriter{rows: map[models.EnrollmentKey]models.Enrollment{key: enrolledRow(key)}}
	svc := NewScoreService(repo, nil, validator.New(), zap.NewNop())

	for _, score := range []float64{-0.5, 100.1, 150} {
		_, err := svc.SetScore(context.Background(), teacherClaims(), SetScoreRequest{
			StudentID: "s1", CourseID: "c1", Semester: "2025-FALL", Score: score,
		})
		var appErr *appErrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, appErrors.ErrScoreOutOfRange.Code, appErr.Code)
	}
}

func TestScoreServiceBoundaryScores(t *testing.T) {
	key := models.EnrollmentKey{StudentID: "s1", CourseID: "c1", Semester: "2025-FALL"}
	repo := &mockScoreWriter{rows: map[models.EnrollmentKey]models.Enrollment{key: enrolledRow(key)}}
	svc := NewScoreService(repo, nil, validator.New(), zap.NewNop())

	for _, score := range []float64{0, 100} {
		_, err := svc.SetScore(context.Background(), teacherClaims(), SetScoreRequest{
			StudentID: "s1", CourseID: "c1", Semester: "2025-FALL", Score: score,
		})
		require.NoError(t, err)
	}
}

func TestScoreServiceMissingEnrollment(t *testing.T) {
	repo := &mockScoreWriter{}
	svc := NewScoreService(repo, nil, validator.New(), zap.NewNop())

	_, err := svc.SetScore(context.Background(), teacherClaims(), SetScoreRequest{
		StudentID: "s1", CourseID: "c1", Semester: "2025-FALL", Score: 85,
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestScoreServiceDroppedEnrollment(t *testing.T) {
	key := models.EnrollmentKey{StudentID: "s1", CourseID: "c1", Semester: "2025-FALL"}
	row := enrolledRow(key)
	row.Status = models.EnrollmentStatusDropped
	repo := &mockScoreWriter{rows: map[models.EnrollmentKey]models.Enrollment{key: row}}
	svc := NewScoreService(repo, nil, validator.New(), zap.NewNop())

	_, err := svc.SetScore(context.Background(), teacherClaims(), SetScoreRequest{
		StudentID: "s1", CourseID: "c1", Semester: "2025-FALL", Score: 85,
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrEnrollmentClosed.Code, appErr.Code)
}

func TestScoreServiceSetScoreInvalidatesStatsCache(t *testing.T) {
	key := models.EnrollmentKey{StudentID: "s1", CourseID: "c1", Semester: "2025-FALL"}
	repo := &mockScoreWriter{rows: map[models.EnrollmentKey]models.Enrollment{key: enrolledRow(key)}}
	cacheRepo := &memoryCacheRepo{}
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := NewScoreService(repo, cacheSvc, validator.New(), zap.NewNop())

	_, err := svc.SetScore(context.Background(), teacherClaims(), SetScoreRequest{
		StudentID: "s1", CourseID: "c1", Semester: "2025-FALL", Score: 85,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"stats:*"}, cacheRepo.deletes)
}

func TestScoreServiceStudentForbidden(t *testing.T) {
	key := models.EnrollmentKey{StudentID: "s1", CourseID: "c1", Semester: "2025-FALL"}
	repo := &mockScoreWriter{rows: map[models.EnrollmentKey]models.Enrollment{key: enrolledRow(key)}}
	svc := NewScoreService(repo, nil, validator.New(), zap.NewNop())

	_, err := svc.SetScore(context.Background(), studentClaims("s1"), SetScoreRequest{
		StudentID: "s1", CourseID: "c1", Semester: "2025-FALL", Score: 85,
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}
