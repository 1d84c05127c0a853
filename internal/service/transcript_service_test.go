package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opencampus/registrar-api/internal/models"
	appErrors "github.com/opencampus/registrar-api/pkg/errors"
	"github.com/opencampus/registrar-api/pkg/export"
)

type mockTranscriptSource struct {
	entries map[string][]models.TranscriptEntry
}

func (m *mockTranscriptSource) Transcript(ctx context.Context, studentID string) ([]models.TranscriptEntry, error) {
	return m.entries[studentID], nil
}

func scored(v float64) *float64 { return &v }

func TestTranscriptServiceGPA(t *testing.T) {
	// (3cr, 90) -> 4.0, (2cr, 60) -> 1.0: GPA = (12+2)/5 = 2.80
	source := &mockTranscriptSource{entries: map[string][]models.TranscriptEntry{
		"s1": {
			{Semester: "2025-FALL", CourseID: "c1", Credits: 3, Score: scored(90)},
			{Semester: "2025-FALL", CourseID: "c2", Credits: 2, Score: scored(60)},
		},
	}}
	svc := NewTranscriptService(source, activeStudents("s1"), export.NewCSVExporter(), export.NewPDFExporter(), "", zap.NewNop())

	report, err := svc.GPA(context.Background(), adminClaims(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 2.80, report.GPA)
	assert.Equal(t, 5.0, report.TotalCredits)
	assert.Equal(t, 14.0, report.TotalPoints)
}

func TestTranscriptServiceGPASkipsUnscored(t *testing.T) {
	source := &mockTranscriptSource{entries: map[string][]models.TranscriptEntry{
		"s1": {
			{Semester: "2025-FALL", CourseID: "c1", Credits: 3, Score: scored(75)},
			{Semester: "2025-FALL", CourseID: "c2", Credits: 4, Score: nil},
		},
	}}
	svc := NewTranscriptService(source, activeStudents("s1"), export.NewCSVExporter(), export.NewPDFExporter(), "", zap.NewNop())

	report, err := svc.GPA(context.Background(), adminClaims(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 3.0, report.TotalCredits)
	assert.Equal(t, 2.7, report.GPA)
}

func TestTranscriptServiceGPAEmpty(t *testing.T) {
	source := &mockTranscriptSource{entries: map[string][]models.TranscriptEntry{}}
	svc := NewTranscriptService(source, activeStudents("s1"), export.NewCSVExporter(), export.NewPDFExporter(), "", zap.NewNop())

	report, err := svc.GPA(context.Background(), adminClaims(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, report.GPA)
	assert.Equal(t, 0.0, report.TotalCredits)
}

func TestTranscriptServiceUnknownStudent(t *testing.T) {
	source := &mockTranscriptSource{}
	svc := NewTranscriptService(source, activeStudents(), export.NewCSVExporter(), export.NewPDFExporter(), "", zap.NewNop())

	_, err := svc.Transcript(context.Background(), adminClaims(), "ghost")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestTranscriptServiceSelfAccess(t *testing.T) {
	source := &mockTranscriptSource{entries: map[string][]models.TranscriptEntry{
		"s1": {{Semester: "2025-FALL", CourseID: "c1", Credits: 3, Score: scored(90)}},
	}}
	svc := NewTranscriptService(source, activeStudents("s1"), export.NewCSVExporter(), export.NewPDFExporter(), "", zap.NewNop())

	entries, err := svc.Transcript(context.Background(), studentClaims("s1"), "s1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = svc.Transcript(context.Background(), studentClaims("s2"), "s1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestTranscriptServiceExportCSV(t *testing.T) {
	grade := "Excellent"
	source := &mockTranscriptSource{entries: map[string][]models.TranscriptEntry{
		"s1": {{Semester: "2025-FALL", CourseID: "c1", CourseName: "Databases", Credits: 3, Score: scored(90), Grade: &grade}},
	}}
	svc := NewTranscriptService(source, activeStudents("s1"), export.NewCSVExporter(), export.NewPDFExporter(), "", zap.NewNop())

	payload, contentType, err := svc.Export(context.Background(), adminClaims(), "s1", "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	body := string(payload)
	assert.True(t, strings.Contains(body, "Databases"))
	assert.True(t, strings.Contains(body, "Excellent"))
}

func TestTranscriptServiceExportPDF(t *testing.T) {
	source := &mockTranscriptSource{entries: map[string][]models.TranscriptEntry{
		"s1": {{Semester: "2025-FALL", CourseID: "c1", CourseName: "Databases", Credits: 3}},
	}}
	svc := NewTranscriptService(source, activeStudents("s1"), export.NewCSVExporter(), export.NewPDFExporter(), "", zap.NewNop())

	payload, contentType, err := svc.Export(context.Background(), adminClaims(), "s1", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.NotEmpty(t, payload)
}

func TestTranscriptServiceExportBadFormat(t *testing.T) {
	source := &mockTranscriptSource{entries: map[string][]models.TranscriptEntry{"s1": {}}}
	svc := NewTranscriptService(source, activeStudents("s1"), export.NewCSVExporter(), export.NewPDFExporter(), "", zap.NewNop())

	_, _, err := svc.Export(context.Background(), adminClaims(), "s1", "xlsx")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}
