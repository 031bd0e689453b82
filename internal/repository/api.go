package repository

import (
	"context"
	"net/url"

	"github.com/noah-isme/attendance-app/internal/models"
)

// Backend endpoint paths.
const (
	pathSubjectBatch      = "/api/utils/subjectBatch"
	pathAvailableSessions = "/api/utils/available-sessions"
	pathBatches           = "/api/utils/batches"
	pathUpdateLookup      = "/api/update"
	pathAttendance        = "/api/attendance"
	pathAttendanceReports = "/api/attendance-reports"
	pathLogin             = "/api/applogin"
	pathResetPassword     = "/api/reset-password"
)

// apiDoer is the subset of apiclient.Client used by repositories.
type apiDoer interface {
	Get(ctx context.Context, token, path string, query url.Values, dest interface{}) error
	Post(ctx context.Context, token, path string, body, dest interface{}) error
	Put(ctx context.Context, token, path string, body, dest interface{}) error
}

func tokenOf(sess *models.SessionContext) string {
	if sess == nil {
		return ""
	}
	return sess.Token
}

func setIfNotEmpty(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}
