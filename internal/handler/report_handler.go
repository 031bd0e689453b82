package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-app/internal/dto"
	"github.com/noah-isme/attendance-app/internal/models"
	appErrors "github.com/noah-isme/attendance-app/pkg/errors"
	"github.com/noah-isme/attendance-app/pkg/response"
)

type reportService interface {
	StudentReport(ctx context.Context, sess *models.SessionContext, query dto.ReportQuery) (*models.AttendanceReport, error)
	Export(ctx context.Context, sess *models.SessionContext, query dto.ExportQuery) (*dto.ExportFile, error)
}

// ReportHandler serves the student attendance report.
type ReportHandler struct {
	service reportService
}

// NewReportHandler constructs a ReportHandler.
func NewReportHandler(svc reportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// AttendanceReport godoc
// @Summary Student attendance report
// @Description Per-subject attendance with a total row. Defaults to the last 15 days.
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param startDate query string false "Start date (YYYY-MM-DD)"
// @Param endDate query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports/attendance [get]
func (h *ReportHandler) AttendanceReport(c *gin.Context) {
	sess, ok := sessionFromContext(c)
	if !ok {
		return
	}
	var query dto.ReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report query"))
		return
	}
	report, err := h.service.StudentReport(c.Request.Context(), sess, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, map[string]interface{}{
		"startDate": report.StartDate,
		"endDate":   report.EndDate,
	})
}

// ExportReport godoc
// @Summary Download attendance report
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Param startDate query string false "Start date (YYYY-MM-DD)"
// @Param endDate query string false "End date (YYYY-MM-DD)"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /reports/attendance/export [get]
func (h *ReportHandler) ExportReport(c *gin.Context) {
	sess, ok := sessionFromContext(c)
	if !ok {
		return
	}
	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export query"))
		return
	}
	file, err := h.service.Export(c.Request.Context(), sess, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
