package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-app/internal/dto"
	"github.com/noah-isme/attendance-app/internal/middleware"
	"github.com/noah-isme/attendance-app/internal/models"
	"github.com/noah-isme/attendance-app/internal/service"
	"github.com/noah-isme/attendance-app/internal/workflow"
	appErrors "github.com/noah-isme/attendance-app/pkg/errors"
)

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

type envelope struct {
	Data  json.RawMessage  `json:"data"`
	Error *appErrors.Error `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) *appErrors.Error {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	if dest != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, dest))
	}
	return env.Error
}

type authServiceMock struct {
	sess      *models.SessionContext
	err       error
	loggedOut string
	resetMsg  string
}

func (m *authServiceMock) Login(ctx context.Context, req models.LoginRequest) (*models.SessionContext, error) {
	return m.sess, m.err
}

func (m *authServiceMock) Logout(ctx context.Context, token string) error {
	m.loggedOut = token
	return nil
}

func (m *authServiceMock) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) (string, error) {
	return m.resetMsg, m.err
}

func TestAuthHandlerLogin(t *testing.T) {
	mock := &authServiceMock{sess: &models.SessionContext{Token: "tok", User: &models.UserProfile{ID: "F001", Role: models.RoleFaculty}}}
	h := NewAuthHandler(mock)

	payload, _ := json.Marshal(models.LoginRequest{UserID: "F001", Password: "pw", Role: models.RoleFaculty})
	c, w := newGinContext(http.MethodPost, "/auth/login", payload)
	h.Login(c)

	require.Equal(t, http.StatusOK, w.Code)
	var sess models.SessionContext
	assert.Nil(t, decodeEnvelope(t, w, &sess))
	assert.Equal(t, "tok", sess.Token)
}

func TestAuthHandlerLoginFailure(t *testing.T) {
	h := NewAuthHandler(&authServiceMock{err: appErrors.Clone(appErrors.ErrInvalidCredentials, "Invalid credentials")})

	c, w := newGinContext(http.MethodPost, "/auth/login", []byte(`{"_id":"F001","password":"x","role":"faculty"}`))
	h.Login(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	appErr := decodeEnvelope(t, w, nil)
	require.NotNil(t, appErr)
	assert.Equal(t, "Invalid credentials", appErr.Message)
}

func TestAuthHandlerLogoutAndProfile(t *testing.T) {
	mock := &authServiceMock{}
	h := NewAuthHandler(mock)

	c, w := newGinContext(http.MethodGet, "/profile", nil)
	h.Profile(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	sess := &models.SessionContext{Token: "tok", User: &models.UserProfile{ID: "F001", Name: "Dr. Rao"}}
	c, w = newGinContext(http.MethodGet, "/profile", nil)
	c.Set(middleware.ContextSessionKey, sess)
	h.Profile(c)
	require.Equal(t, http.StatusOK, w.Code)
	var profile models.UserProfile
	decodeEnvelope(t, w, &profile)
	assert.Equal(t, "Dr. Rao", profile.Name)

	c, w = newGinContext(http.MethodPost, "/auth/logout", nil)
	c.Set(middleware.ContextSessionKey, sess)
	h.Logout(c)
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, "tok", mock.loggedOut)
}

type handlerSelector struct{}

func (handlerSelector) Options(_ context.Context, _ *models.SessionContext, subjectID, _ string, _ time.Time) (models.SelectorOptions, bool) {
	subject := &models.Subject{ID: subjectID, Type: models.SubjectTypeTheory}
	return models.SelectorOptions{Subject: subject, Batches: []string{}, AvailableSessions: models.SessionLabels("1", "2"), SessionsKnown: true}, true
}

type handlerLoader struct{}

func (handlerLoader) Load(context.Context, *models.SessionContext, workflow.Mode, models.Tuple) (*models.Roster, error) {
	students := []models.Student{{ID: "a", RollNumber: "2"}, {ID: "b", RollNumber: "10"}, {ID: "c", RollNumber: "9"}}
	models.SortStudents(students)
	return &models.Roster{Students: students}, nil
}

type handlerSubmitter struct {
	last *workflow.Submission
}

func (s *handlerSubmitter) Submit(_ context.Context, _ *models.SessionContext, sub workflow.Submission) error {
	s.last = &sub
	return nil
}

func newWorkflowRouter(submitter *handlerSubmitter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	registry := service.NewWorkflowService(handlerSelector{}, handlerLoader{}, submitter, nil, service.WorkflowConfig{SessionSlots: []string{"1", "2", "3"}}, nil)
	h := NewWorkflowHandler(registry)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		token := c.GetHeader("X-Test-Token")
		c.Set(middleware.ContextSessionKey, &models.SessionContext{Token: token, User: &models.UserProfile{ID: token, Role: models.RoleFaculty}})
	})
	r.POST("/workflows", h.Create)
	r.GET("/workflows/:id", h.Get)
	r.PUT("/workflows/:id/subject", h.SelectSubject)
	r.POST("/workflows/:id/sessions/:session/toggle", h.ToggleSession)
	r.POST("/workflows/:id/students/:studentId/toggle", h.ToggleStudent)
	r.POST("/workflows/:id/submit", h.Submit)
	return r
}

func call(r http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-Token", token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWorkflowHandlerTakeAttendance(t *testing.T) {
	submitter := &handlerSubmitter{}
	r := newWorkflowRouter(submitter)

	w := call(r, http.MethodPost, "/workflows", "tok-a", `{"mode":"create"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var snap dto.WorkflowSnapshot
	decodeEnvelope(t, w, &snap)
	base := "/workflows/" + snap.ID

	require.Equal(t, http.StatusOK, call(r, http.MethodPut, base+"/subject", "tok-a", `{"subjectId":"CS101"}`).Code)
	w = call(r, http.MethodPost, base+"/sessions/1/toggle", "tok-a", "")
	require.Equal(t, http.StatusOK, w.Code)
	decodeEnvelope(t, w, &snap)
	assert.Equal(t, "ready", snap.State)
	require.Len(t, snap.Students, 3)
	assert.Equal(t, "9", snap.Students[1].RollNumber)

	w = call(r, http.MethodPost, base+"/students/b/toggle", "tok-a", "")
	require.Equal(t, http.StatusOK, w.Code)
	var toggled dto.ToggleResult
	decodeEnvelope(t, w, &toggled)
	assert.True(t, toggled.Value)
	assert.Equal(t, 1, toggled.Workflow.PresentCount)

	w = call(r, http.MethodPost, base+"/submit", "tok-a", "")
	require.Equal(t, http.StatusOK, w.Code)
	var result dto.SubmitResult
	decodeEnvelope(t, w, &result)
	assert.Equal(t, 3, result.Records)
	assert.Equal(t, 1, result.PresentCount)
	assert.Equal(t, "idle", result.Workflow.State)
	require.NotNil(t, submitter.last)
	assert.Equal(t, []models.AttendanceEntry{
		{Student: "a", Status: models.AttendanceStatusAbsent},
		{Student: "c", Status: models.AttendanceStatusAbsent},
		{Student: "b", Status: models.AttendanceStatusPresent},
	}, submitter.last.Records)
}

func TestWorkflowHandlerErrors(t *testing.T) {
	r := newWorkflowRouter(&handlerSubmitter{})

	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodPost, "/workflows", "tok-a", `{"mode":"bogus"}`).Code)

	w := call(r, http.MethodPost, "/workflows", "tok-a", `{"mode":"update"}`)
	var snap dto.WorkflowSnapshot
	decodeEnvelope(t, w, &snap)
	base := "/workflows/" + snap.ID

	assert.Equal(t, http.StatusForbidden, call(r, http.MethodGet, base, "tok-b", "").Code)
	assert.Equal(t, http.StatusNotFound, call(r, http.MethodGet, "/workflows/missing", "tok-a", "").Code)

	w = call(r, http.MethodPost, base+"/submit", "tok-a", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	appErr := decodeEnvelope(t, w, nil)
	require.NotNil(t, appErr)
	assert.Equal(t, "please select a subject", appErr.Message)

	assert.Equal(t, http.StatusPreconditionFailed, call(r, http.MethodPost, base+"/students/a/toggle", "tok-a", "").Code)
}

type reportServiceMock struct {
	report *models.AttendanceReport
	file   *dto.ExportFile
	query  dto.ExportQuery
	err    error
}

func (m *reportServiceMock) StudentReport(ctx context.Context, sess *models.SessionContext, query dto.ReportQuery) (*models.AttendanceReport, error) {
	return m.report, m.err
}

func (m *reportServiceMock) Export(ctx context.Context, sess *models.SessionContext, query dto.ExportQuery) (*dto.ExportFile, error) {
	m.query = query
	return m.file, m.err
}

func TestReportHandlerAttendanceReport(t *testing.T) {
	mock := &reportServiceMock{report: &models.AttendanceReport{StudentID: "S001", StartDate: "2026-10-04", EndDate: "2026-10-19"}}
	h := NewReportHandler(mock)

	c, w := newGinContext(http.MethodGet, "/reports/attendance?startDate=2026-10-04", nil)
	c.Set(middleware.ContextSessionKey, &models.SessionContext{Token: "t", User: &models.UserProfile{ID: "S001", Role: models.RoleStudent}})
	h.AttendanceReport(c)

	require.Equal(t, http.StatusOK, w.Code)
	var report models.AttendanceReport
	decodeEnvelope(t, w, &report)
	assert.Equal(t, "S001", report.StudentID)
}

func TestReportHandlerExport(t *testing.T) {
	mock := &reportServiceMock{file: &dto.ExportFile{Filename: "attendance.csv", ContentType: "text/csv", Data: []byte("Subject\n")}}
	h := NewReportHandler(mock)

	c, w := newGinContext(http.MethodGet, "/reports/attendance/export?format=csv&endDate=2026-10-19", nil)
	c.Set(middleware.ContextSessionKey, &models.SessionContext{Token: "t", User: &models.UserProfile{ID: "S001", Role: models.RoleStudent}})
	h.ExportReport(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attendance.csv")
	assert.Equal(t, dto.ExportFormatCSV, mock.query.Format)
	assert.Equal(t, "2026-10-19", mock.query.EndDate)
}

func TestReportHandlerForbidden(t *testing.T) {
	h := NewReportHandler(&reportServiceMock{err: appErrors.ErrForbidden})

	c, w := newGinContext(http.MethodGet, "/reports/attendance", nil)
	c.Set(middleware.ContextSessionKey, &models.SessionContext{Token: "t", User: &models.UserProfile{ID: "F001", Role: models.RoleFaculty}})
	h.AttendanceReport(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
