package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-app/internal/dto"
	"github.com/noah-isme/attendance-app/internal/models"
	appErrors "github.com/noah-isme/attendance-app/pkg/errors"
	"github.com/noah-isme/attendance-app/pkg/export"
	"github.com/noah-isme/attendance-app/pkg/logger"
)

type reportRepository interface {
	StudentTotals(ctx context.Context, sess *models.SessionContext, studentID, start, end string) ([]models.SubjectAttendanceTotal, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string, subtitle ...string) ([]byte, error)
}

// ReportConfig tunes the student report.
type ReportConfig struct {
	DefaultWindow time.Duration
}

// ReportService builds a student's per-subject attendance summary.
type ReportService struct {
	repo   reportRepository
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
	cfg    ReportConfig
	now    func() time.Time
}

// NewReportService constructs a ReportService. Nil renderers fall back to the default exporters.
func NewReportService(repo reportRepository, cfg ReportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultWindow <= 0 {
		cfg.DefaultWindow = 15 * 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ReportService{repo: repo, csv: csv, pdf: pdf, logger: logger, cfg: cfg, now: time.Now}
}

// StudentReport returns per-subject totals plus an overall row. Only students
// may view reports, and only their own.
func (s *ReportService) StudentReport(ctx context.Context, sess *models.SessionContext, query dto.ReportQuery) (*models.AttendanceReport, error) {
	if !sess.Authenticated() || sess.User == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if sess.Role() != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "attendance reports are available to students only")
	}
	studentID := strings.TrimSpace(query.StudentID)
	if studentID == "" {
		studentID = sess.User.ID
	}
	if studentID != sess.User.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students may only view their own attendance")
	}

	window, err := s.resolveWindow(query.StartDate, query.EndDate)
	if err != nil {
		return nil, err
	}
	start, end := window.Start.Format(models.DateLayout), window.End.Format(models.DateLayout)

	rows, err := s.repo.StudentTotals(ctx, sess, studentID, start, end)
	if err != nil {
		logger.ForContext(ctx, s.logger).Warn("failed to load attendance report", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	report := &models.AttendanceReport{
		StudentID: studentID,
		StartDate: start,
		EndDate:   end,
		Subjects:  make([]models.SubjectAttendanceTotal, 0, len(rows)),
		Total:     models.SubjectAttendanceTotal{Name: "Total"},
	}
	for _, row := range rows {
		row.Percentage = models.Percentage(row.PresentCount, row.TotalLectures)
		report.Subjects = append(report.Subjects, row)
		report.Total.TotalLectures += row.TotalLectures
		report.Total.PresentCount += row.PresentCount
	}
	report.Total.Percentage = models.Percentage(report.Total.PresentCount, report.Total.TotalLectures)
	return report, nil
}

// Export renders the student report as CSV or PDF.
func (s *ReportService) Export(ctx context.Context, sess *models.SessionContext, query dto.ExportQuery) (*dto.ExportFile, error) {
	format := dto.ExportFormat(strings.ToLower(string(query.Format)))
	if format == "" {
		format = dto.ExportFormatCSV
	}
	if format != dto.ExportFormatCSV && format != dto.ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", query.Format))
	}

	report, err := s.StudentReport(ctx, sess, query.ReportQuery)
	if err != nil {
		return nil, err
	}
	dataset := reportDataset(report)
	filename := fmt.Sprintf("attendance_%s_%s_%s.%s", sanitizeFilename(report.StudentID), report.StartDate, report.EndDate, format)

	var payload []byte
	var contentType string
	switch format {
	case dto.ExportFormatPDF:
		subtitle := fmt.Sprintf("%s to %s", report.StartDate, report.EndDate)
		if sess.User.Name != "" {
			subtitle = sess.User.Name + ", " + subtitle
		}
		payload, err = s.pdf.Render(dataset, "Attendance Report", subtitle)
		contentType = "application/pdf"
	default:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}
	return &dto.ExportFile{Filename: filename, ContentType: contentType, Data: payload}, nil
}

func (s *ReportService) resolveWindow(rawStart, rawEnd string) (models.ReportWindow, error) {
	now := s.now()
	y, m, d := now.Date()
	end := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	if strings.TrimSpace(rawEnd) != "" {
		parsed, err := models.ParseDate(rawEnd)
		if err != nil {
			return models.ReportWindow{}, appErrors.Clone(appErrors.ErrValidation, "endDate must be YYYY-MM-DD")
		}
		end = parsed
	}
	start := end.Add(-s.cfg.DefaultWindow)
	if strings.TrimSpace(rawStart) != "" {
		parsed, err := models.ParseDate(rawStart)
		if err != nil {
			return models.ReportWindow{}, appErrors.Clone(appErrors.ErrValidation, "startDate must be YYYY-MM-DD")
		}
		start = parsed
	}
	if start.After(end) {
		return models.ReportWindow{}, appErrors.Clone(appErrors.ErrValidation, "startDate must not be after endDate")
	}
	return models.ReportWindow{Start: start, End: end}, nil
}

func reportDataset(report *models.AttendanceReport) export.Dataset {
	ds := export.Dataset{Headers: []string{"Subject", "Lectures", "Present", "Percentage"}}
	for _, row := range report.Subjects {
		ds.Rows = append(ds.Rows, reportRow(row))
	}
	ds.Footer = reportRow(report.Total)
	return ds
}

func reportRow(row models.SubjectAttendanceTotal) []string {
	name := row.Name
	if name == "" {
		name = row.SubjectID
	}
	return []string{
		name,
		strconv.Itoa(row.TotalLectures),
		strconv.Itoa(row.PresentCount),
		strconv.FormatFloat(row.Percentage, 'f', 2, 64) + "%",
	}
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
