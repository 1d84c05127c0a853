package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/opencampus/registrar-api/internal/gradebook"
	"github.com/opencampus/registrar-api/internal/models"
	appErrors "github.com/opencampus/registrar-api/pkg/errors"
	"github.com/opencampus/registrar-api/pkg/export"
)

type transcriptSource interface {
	Transcript(ctx context.Context, studentID string) ([]models.TranscriptEntry, error)
}

type tableExporter interface {
	Render(table export.Table) ([]byte, error)
}

type pdfExporter interface {
	Render(table export.Table, title string) ([]byte, error)
}

// TranscriptService computes per-student transcript and GPA views.
type TranscriptService struct {
	repo     transcriptSource
	students studentReader
	csv      tableExporter
	pdf      pdfExporter
	pdfTitle string
	logger   *zap.Logger
}

// NewTranscriptService constructs TranscriptService.
func NewTranscriptService(repo transcriptSource, students studentReader, csv tableExporter, pdf pdfExporter, pdfTitle string, logger *zap.Logger) *TranscriptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pdfTitle == "" {
		pdfTitle = "Academic Transcript"
	}
	return &TranscriptService{repo: repo, students: students, csv: csv, pdf: pdf, pdfTitle: pdfTitle, logger: logger}
}

// Transcript returns the student's enrollment history joined with course
// context, newest semester first.
func (s *TranscriptService) Transcript(ctx context.Context, actor *models.JWTClaims, studentID string) ([]models.TranscriptEntry, error) {
	if err := requireSelfOrStaff(actor, studentID); err != nil {
		return nil, err
	}
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	entries, err := s.repo.Transcript(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transcript")
	}
	return entries, nil
}

// GPA aggregates grade points over scored, non-dropped enrollments using
// the ten-tier table. Accumulation runs at full precision; GPA and total
// points are rounded to two decimals for display. A student with no scored
// enrollments gets a 0.0 GPA with zero credits rather than a division by
// zero.
func (s *TranscriptService) GPA(ctx context.Context, actor *models.JWTClaims, studentID string) (*models.GPAReport, error) {
	entries, err := s.Transcript(ctx, actor, studentID)
	if err != nil {
		return nil, err
	}

	var credits, points float64
	for _, entry := range entries {
		if entry.Score == nil {
			continue
		}
		credits += entry.Credits
		points += entry.Credits * gradebook.Point(*entry.Score)
	}

	report := &models.GPAReport{
		StudentID:    studentID,
		TotalCredits: credits,
		TotalPoints:  round2(points),
	}
	if credits > 0 {
		report.GPA = round2(points / credits)
	}
	return report, nil
}

// Export renders the transcript as CSV or PDF bytes.
func (s *TranscriptService) Export(ctx context.Context, actor *models.JWTClaims, studentID, format string) ([]byte, string, error) {
	entries, err := s.Transcript(ctx, actor, studentID)
	if err != nil {
		return nil, "", err
	}

	table := export.Table{
		Headers: []string{"Semester", "Course ID", "Course", "Credits", "Type", "Score", "Grade"},
	}
	for _, entry := range entries {
		score, grade := "-", "-"
		if entry.Score != nil {
			score = fmt.Sprintf("%.1f", *entry.Score)
		}
		if entry.Grade != nil {
			grade = *entry.Grade
		}
		table.Rows = append(table.Rows, []string{
			entry.Semester,
			entry.CourseID,
			entry.CourseName,
			fmt.Sprintf("%.1f", entry.Credits),
			string(entry.CourseType),
			score,
			grade,
		})
	}

	switch format {
	case "csv", "":
		payload, err := s.csv.Render(table)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", nil
	case "pdf":
		payload, err := s.pdf.Render(table, fmt.Sprintf("%s - %s", s.pdfTitle, studentID))
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
