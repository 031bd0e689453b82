package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-app/internal/dto"
	"github.com/noah-isme/attendance-app/internal/models"
	"github.com/noah-isme/attendance-app/pkg/config"
	appErrors "github.com/noah-isme/attendance-app/pkg/errors"
	"github.com/noah-isme/attendance-app/pkg/storage"
)

type fakeBackend struct {
	srv *httptest.Server

	mu        sync.Mutex
	submitted *dto.CreateAttendanceRequest
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	gin.SetMode(gin.TestMode)
	fb := &fakeBackend{}
	faculty := gin.H{"id": "F001", "name": "Dr. Rao", "role": "faculty", "subjects": []string{"CS101"}}

	r := gin.New()
	r.POST("/api/applogin", func(c *gin.Context) {
		var req models.LoginRequest
		_ = c.ShouldBindJSON(&req)
		if req.Password != "pw" {
			c.JSON(http.StatusUnauthorized, gin.H{"msg": "Invalid credentials"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": "tok", "user": faculty})
	})
	r.GET("/api/applogin", func(c *gin.Context) {
		if c.GetHeader("Authorization") != "Bearer tok" {
			c.JSON(http.StatusUnauthorized, gin.H{"msg": "expired"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": faculty})
	})
	r.GET("/api/utils/subjectBatch", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"subject": gin.H{"_id": "CS101", "subType": "theory", "batch": []string{}, "content": []gin.H{
			{"_id": "u1", "title": "Intro", "status": "covered"},
			{"_id": "u2", "title": "Joins"},
		}}})
	})
	r.GET("/api/utils/available-sessions", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"availableSessions": []interface{}{1, "2"}})
	})
	r.GET("/api/utils/batches", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"subject": gin.H{"_id": "CS101", "subType": "theory"},
			"students": []gin.H{
				{"_id": "a", "rollNumber": "2", "name": "Asha"},
				{"_id": "b", "rollNumber": "10", "name": "Bilal"},
				{"_id": "c", "rollNumber": "9", "name": "Chen"},
			},
		})
	})
	r.POST("/api/attendance", func(c *gin.Context) {
		var req dto.CreateAttendanceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
			return
		}
		fb.mu.Lock()
		fb.submitted = &req
		fb.mu.Unlock()
		c.JSON(http.StatusOK, gin.H{"msg": "Attendance saved"})
	})

	fb.srv = httptest.NewServer(r)
	t.Cleanup(fb.srv.Close)
	return fb
}

func newTestApp(baseURL string, store storage.Store) *app {
	cfg := &config.Config{
		Upstream: config.UpstreamConfig{BaseURL: baseURL, Timeout: 2 * time.Second},
		Workflow: config.WorkflowConfig{SessionSlots: []string{"1", "2", "3"}},
		Reports:  config.ReportsConfig{DefaultWindow: 15 * 24 * time.Hour},
	}
	return newApp(cfg, nil, store)
}

func run(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(a)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTakeSubmitsRosterInRollOrder(t *testing.T) {
	fb := newFakeBackend(t)
	a := newTestApp(fb.srv.URL, storage.NewMemoryStore())

	out, err := run(t, a, "login", "--id", "F001", "--password", "pw")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as Dr. Rao (faculty)")

	out, err = run(t, a, "take", "--subject", "CS101", "--session", "1", "--present", "b", "--content", "u2")
	require.NoError(t, err)
	assert.Contains(t, out, "1 of 3 present")

	fb.mu.Lock()
	defer fb.mu.Unlock()
	require.NotNil(t, fb.submitted)
	assert.Equal(t, "CS101", fb.submitted.Subject)
	assert.Equal(t, []models.SessionLabel{"1"}, fb.submitted.Session)
	assert.Equal(t, []models.AttendanceEntry{
		{Student: "a", Status: models.AttendanceStatusAbsent},
		{Student: "c", Status: models.AttendanceStatusAbsent},
		{Student: "b", Status: models.AttendanceStatusPresent},
	}, fb.submitted.AttendanceRecords)
	require.NotNil(t, fb.submitted.Contents)
	assert.Equal(t, []string{"u2"}, *fb.submitted.Contents)
	assert.Nil(t, fb.submitted.BatchID)
}

func TestTakeRejectsUnavailableSession(t *testing.T) {
	fb := newFakeBackend(t)
	a := newTestApp(fb.srv.URL, storage.NewMemoryStore())
	_, err := run(t, a, "login", "--id", "F001", "--password", "pw")
	require.NoError(t, err)

	_, err = run(t, a, "take", "--subject", "CS101", "--session", "3")
	require.Error(t, err)

	fb.mu.Lock()
	defer fb.mu.Unlock()
	assert.Nil(t, fb.submitted)
}

func TestTakeRejectsStudentNotOnRoster(t *testing.T) {
	fb := newFakeBackend(t)
	a := newTestApp(fb.srv.URL, storage.NewMemoryStore())
	_, err := run(t, a, "login", "--id", "F001", "--password", "pw")
	require.NoError(t, err)

	_, err = run(t, a, "take", "--subject", "CS101", "--session", "1", "--present", "b,zz")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Equal(t, "student zz is not on the roster", err.Error())

	_, err = run(t, a, "take", "--subject", "CS101", "--session", "1", "--all", "--absent", "zz")
	require.Error(t, err)

	fb.mu.Lock()
	defer fb.mu.Unlock()
	assert.Nil(t, fb.submitted)
}

func TestTakeDryRunPrintsRoster(t *testing.T) {
	fb := newFakeBackend(t)
	a := newTestApp(fb.srv.URL, storage.NewMemoryStore())
	_, err := run(t, a, "login", "--id", "F001", "--password", "pw")
	require.NoError(t, err)

	out, err := run(t, a, "take", "--subject", "CS101", "--session", "2", "--all", "--absent", "c", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Chen")
	assert.Contains(t, out, "2 of 3 present")

	fb.mu.Lock()
	defer fb.mu.Unlock()
	assert.Nil(t, fb.submitted)
}

func TestLoginFailureSurfacesBackendMessage(t *testing.T) {
	fb := newFakeBackend(t)
	a := newTestApp(fb.srv.URL, storage.NewMemoryStore())

	_, err := run(t, a, "login", "--id", "F001", "--password", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", err.Error())
}

func TestWhoamiFallsBackToSavedProfileOffline(t *testing.T) {
	fb := newFakeBackend(t)
	a := newTestApp(fb.srv.URL, storage.NewMemoryStore())
	_, err := run(t, a, "login", "--id", "F001", "--password", "pw")
	require.NoError(t, err)

	out, err := run(t, a, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Dr. Rao (F001, faculty)")
	assert.NotContains(t, out, "offline")

	fb.srv.Close()
	out, err = run(t, a, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Subjects: CS101")
	assert.Contains(t, out, "offline")
}

func TestLogoutForgetsSession(t *testing.T) {
	fb := newFakeBackend(t)
	a := newTestApp(fb.srv.URL, storage.NewMemoryStore())
	_, err := run(t, a, "login", "--id", "F001", "--password", "pw")
	require.NoError(t, err)

	out, err := run(t, a, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")

	_, err = run(t, a, "whoami")
	require.Error(t, err)
	assert.Equal(t, "not logged in", err.Error())
}
