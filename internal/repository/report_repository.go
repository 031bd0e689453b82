package repository

import (
	"context"
	"net/url"

	"github.com/noah-isme/attendance-app/internal/models"
)

// ReportRepository reads per-subject attendance totals for students.
type ReportRepository struct {
	api apiDoer
}

// NewReportRepository constructs the repository.
func NewReportRepository(api apiDoer) *ReportRepository {
	return &ReportRepository{api: api}
}

// StudentTotals fetches totals for studentID between start and end (YYYY-MM-DD, inclusive).
func (r *ReportRepository) StudentTotals(ctx context.Context, sess *models.SessionContext, studentID, start, end string) ([]models.SubjectAttendanceTotal, error) {
	q := url.Values{"studentId": {studentID}}
	setIfNotEmpty(q, "startDate", start)
	setIfNotEmpty(q, "endDate", end)
	var rows []models.SubjectAttendanceTotal
	if err := r.api.Get(ctx, tokenOf(sess), pathAttendanceReports, q, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
