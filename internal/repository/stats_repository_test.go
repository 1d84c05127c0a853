package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/opencampus/registrar-api/internal/models"
)

func TestStatsRepositoryScoreDistributionEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStatsRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) AS total, AVG(score) AS avg, MAX(score) AS max, MIN(score) AS min")).
		WithArgs("c1", "2025-FALL", models.EnrollmentStatusDropped).
		WillReturnRows(sqlmock.NewRows([]string{"total", "avg", "max", "min"}).AddRow(0, nil, nil, nil))
	mock.ExpectQuery("SELECT CASE").
		WithArgs("c1", "2025-FALL", models.EnrollmentStatusDropped).
		WillReturnRows(sqlmock.NewRows([]string{"key", "count"}))

	dist, err := repo.ScoreDistribution(context.Background(), "c1", "2025-FALL")
	require.NoError(t, err)
	require.Equal(t, 0, dist.Count)
	require.Equal(t, 0.0, dist.Avg)
	require.Len(t, dist.Histogram, len(models.ScoreBuckets))
	for _, bucket := range models.ScoreBuckets {
		require.Equal(t, 0, dist.Histogram[bucket])
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsRepositoryScoreDistributionBuckets(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStatsRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) AS total, AVG(score) AS avg, MAX(score) AS max, MIN(score) AS min")).
		WithArgs("c1", "2025-FALL", models.EnrollmentStatusDropped).
		WillReturnRows(sqlmock.NewRows([]string{"total", "avg", "max", "min"}).AddRow(3, 78.5, 95.0, 55.0))
	mock.ExpectQuery("SELECT CASE").
		WithArgs("c1", "2025-FALL", models.EnrollmentStatusDropped).
		WillReturnRows(sqlmock.NewRows([]string{"key", "count"}).
			AddRow("90-100", 1).
			AddRow("70-79", 1).
			AddRow("0-59", 1))

	dist, err := repo.ScoreDistribution(context.Background(), "c1", "2025-FALL")
	require.NoError(t, err)
	require.Equal(t, 3, dist.Count)
	require.Equal(t, 95.0, dist.Max)
	require.Equal(t, 1, dist.Histogram["90-100"])
	require.Equal(t, 0, dist.Histogram["80-89"])
	require.Equal(t, 1, dist.Histogram["0-59"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsRepositoryStudentStatistics(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStatsRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(10))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT major AS key, COUNT(*) AS count FROM students")).
		WillReturnRows(sqlmock.NewRows([]string{"key", "count"}).AddRow("CS", 6).AddRow("Math", 4))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status AS key, COUNT(*) AS count FROM students")).
		WillReturnRows(sqlmock.NewRows([]string{"key", "count"}).AddRow("ACTIVE", 9).AddRow("ON_LEAVE", 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT gender AS key, COUNT(*) AS count FROM students")).
		WillReturnRows(sqlmock.NewRows([]string{"key", "count"}).AddRow("F", 5).AddRow("M", 5))

	stats, err := repo.StudentStatistics(context.Background())
	require.NoError(t, err)
	require.Equal(t, 10, stats.TotalStudents)
	require.Len(t, stats.ByMajor, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}
