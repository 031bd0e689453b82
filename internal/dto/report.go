package dto

// ReportQuery captures GET /reports/attendance filters. Dates are YYYY-MM-DD.
type ReportQuery struct {
	StudentID string `form:"studentId"`
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
}

// ExportFormat selects the report export encoding.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportQuery captures GET /reports/attendance/export filters.
type ExportQuery struct {
	ReportQuery
	Format ExportFormat `form:"format"`
}

// ExportFile is a rendered report ready to download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}
