package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/opencampus/registrar-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func testKey() models.EnrollmentKey {
	return models.EnrollmentKey{StudentID: "s1", CourseID: "c1", Semester: "2025-FALL"}
}

func TestEnrollmentRepositoryEnroll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)
	key := testKey()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT max_capacity FROM courses WHERE course_id = $1 FOR UPDATE")).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"max_capacity"}).AddRow(30))
	mock.ExpectQuery(regexp.QuoteMeta("FROM enrollments WHERE student_id = $1 AND course_id = $2 AND semester = $3")).
		WithArgs("s1", "c1", "2025-FALL").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments WHERE course_id = $1 AND semester = $2 AND status = $3")).
		WithArgs("c1", "2025-FALL", models.EnrollmentStatusEnrolled).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	enrollment, err := repo.Enroll(context.Background(), key)
	require.NoError(t, err)
	require.Equal(t, models.EnrollmentStatusEnrolled, enrollment.Status)
	require.NotEmpty(t, enrollment.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryEnrollDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)
	key := testKey()

	rows := sqlmock.NewRows([]string{"id", "student_id", "course_id", "semester", "score", "grade", "status", "enrolled_at", "dropped_at"}).
		AddRow("e1", "s1", "c1", "2025-FALL", nil, nil, models.EnrollmentStatusEnrolled, time.Now(), nil)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT max_capacity FROM courses WHERE course_id = $1 FOR UPDATE")).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"max_capacity"}).AddRow(30))
	mock.ExpectQuery(regexp.QuoteMeta("FROM enrollments WHERE student_id = $1 AND course_id = $2 AND semester = $3")).
		WithArgs("s1", "c1", "2025-FALL").
		WillReturnRows(rows)
	mock.ExpectRollback()

	_, err := repo.Enroll(context.Background(), key)
	require.ErrorIs(t, err, ErrDuplicateEnrollment)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryEnrollCapacityReached(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)
	key := testKey()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT max_capacity FROM courses WHERE course_id = $1 FOR UPDATE")).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"max_capacity"}).AddRow(30))
	mock.ExpectQuery(regexp.QuoteMeta("FROM enrollments WHERE student_id = $1 AND course_id = $2 AND semester = $3")).
		WithArgs("s1", "c1", "2025-FALL").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments WHERE course_id = $1 AND semester = $2 AND status = $3")).
		WithArgs("c1", "2025-FALL", models.EnrollmentStatusEnrolled).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(30))
	mock.ExpectRollback()

	_, err := repo.Enroll(context.Background(), key)
	require.ErrorIs(t, err, ErrCapacityReached)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryEnrollRevivesDroppedRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)
	key := testKey()

	score := 88.0
	grade := "Good"
	dropped := time.Now().Add(-time.Hour)
	rows := sqlmock.NewRows([]string{"id", "student_id", "course_id", "semester", "score", "grade", "status", "enrolled_at", "dropped_at"}).
		AddRow("e1", "s1", "c1", "2025-FALL", score, grade, models.EnrollmentStatusDropped, time.Now().Add(-2*time.Hour), dropped)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT max_capacity FROM courses WHERE course_id = $1 FOR UPDATE")).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"max_capacity"}).AddRow(30))
	mock.ExpectQuery(regexp.QuoteMeta("FROM enrollments WHERE student_id = $1 AND course_id = $2 AND semester = $3")).
		WithArgs("s1", "c1", "2025-FALL").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments WHERE course_id = $1 AND semester = $2 AND status = $3")).
		WithArgs("c1", "2025-FALL", models.EnrollmentStatusEnrolled).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET status = $2, score = NULL, grade = NULL")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	enrollment, err := repo.Enroll(context.Background(), key)
	require.NoError(t, err)
	require.Equal(t, "e1", enrollment.ID)
	require.Nil(t, enrollment.Score)
	require.Nil(t, enrollment.Grade)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryEnrollMissingCourse(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT max_capacity FROM courses WHERE course_id = $1 FOR UPDATE")).
		WithArgs("c1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Enroll(context.Background(), testKey())
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryDropNoActiveRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET status = $4, dropped_at = $5")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Drop(context.Background(), testKey())
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryDrop(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET status = $4, dropped_at = $5")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Drop(context.Background(), testKey()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositorySetScoreInactive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET score = $4, grade = $5")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetScore(context.Background(), testKey(), 85, "Good")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryTranscript(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	score := 91.5
	grade := "Excellent"
	rows := sqlmock.NewRows([]string{"semester", "course_id", "course_name", "credits", "course_type", "score", "grade", "status"}).
		AddRow("2025-FALL", "c1", "Databases", 3.0, models.CourseTypeRequired, score, grade, models.EnrollmentStatusEnrolled).
		AddRow("2025-FALL", "c2", "Networks", 2.0, models.CourseTypeElective, nil, nil, models.EnrollmentStatusEnrolled)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE e.student_id = $1 AND e.status <> $2")).
		WithArgs("s1", models.EnrollmentStatusDropped).
		WillReturnRows(rows)

	entries, err := repo.Transcript(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.NotNil(t, entries[0].Score)
	require.Nil(t, entries[1].Score)
	require.NoError(t, mock.ExpectationsWereMet())
}
