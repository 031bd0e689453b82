package dto

import "github.com/noah-isme/attendance-app/internal/models"

// SubjectBatchResponse is returned by GET /api/utils/subjectBatch.
type SubjectBatchResponse struct {
	Subject models.Subject `json:"subject"`
}

// AvailableSessionsResponse is returned by GET /api/utils/available-sessions.
type AvailableSessionsResponse struct {
	AvailableSessions []models.SessionLabel `json:"availableSessions"`
}

// BatchesResponse is returned by GET /api/utils/batches.
type BatchesResponse struct {
	Subject          *models.Subject          `json:"subject"`
	Batches          []string                 `json:"batches"`
	Students         []models.Student         `json:"students"`
	AttendanceRecord *models.AttendanceRecord `json:"attendanceRecord"`
}

// UpdateLookupResponse is returned by GET /api/update.
type UpdateLookupResponse struct {
	Students         []models.Student         `json:"students"`
	AttendanceRecord *models.AttendanceRecord `json:"attendanceRecord"`
}

// CreateAttendanceRequest is the POST /api/attendance body. Contents and
// PointsDiscussed are mutually exclusive; nil pointers are omitted.
type CreateAttendanceRequest struct {
	Subject           string                   `json:"subject"`
	Session           []models.SessionLabel    `json:"session"`
	AttendanceRecords []models.AttendanceEntry `json:"attendanceRecords"`
	Contents          *[]string                `json:"contents,omitempty"`
	PointsDiscussed   *[]string                `json:"pointsDiscussed,omitempty"`
	BatchID           *string                  `json:"batchId"`
}

// UpdateAttendanceRequest is the PUT /api/attendance body.
type UpdateAttendanceRequest struct {
	Subject           string                   `json:"subject"`
	Date              string                   `json:"date"`
	Session           models.SessionLabel      `json:"session"`
	AttendanceRecords []models.AttendanceEntry `json:"attendanceRecords"`
	Contents          *[]string                `json:"contents,omitempty"`
	PointsDiscussed   *[]string                `json:"pointsDiscussed,omitempty"`
	BatchID           *string                  `json:"batchId"`
}

// LoginResponse is returned by POST /api/applogin.
type LoginResponse struct {
	Token string             `json:"token"`
	User  models.UserProfile `json:"user"`
}

// SessionCheckResponse is returned by GET /api/applogin.
type SessionCheckResponse struct {
	User models.UserProfile `json:"user"`
}

// MessageResponse is the backend's generic message/error body.
type MessageResponse struct {
	Msg     string `json:"msg,omitempty"`
	Message string `json:"message,omitempty"`
}

// Text returns whichever message field the backend populated.
func (m MessageResponse) Text() string {
	if m.Msg != "" {
		return m.Msg
	}
	return m.Message
}
