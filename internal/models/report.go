package models

import "time"

// SubjectAttendanceTotal is one row of a student's attendance report.
type SubjectAttendanceTotal struct {
	SubjectID     string  `json:"subject,omitempty"`
	Name          string  `json:"name"`
	TotalLectures int     `json:"totalLectures"`
	PresentCount  int     `json:"presentCount"`
	Percentage    float64 `json:"percentage"`
}

// AttendanceReport aggregates per-subject totals for a student over a window.
type AttendanceReport struct {
	StudentID string                   `json:"studentId"`
	StartDate string                   `json:"startDate"`
	EndDate   string                   `json:"endDate"`
	Subjects  []SubjectAttendanceTotal `json:"subjects"`
	Total     SubjectAttendanceTotal   `json:"total"`
}

// ReportWindow is the inclusive date range of a report.
type ReportWindow struct {
	Start time.Time
	End   time.Time
}

// Percentage returns present/total as a percentage rounded to two decimals;
// zero lectures yield zero.
func Percentage(present, total int) float64 {
	if total <= 0 {
		return 0
	}
	raw := float64(present) / float64(total) * 100
	return float64(int64(raw*100+0.5)) / 100
}
