package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-app/internal/models"
	appErrors "github.com/noah-isme/attendance-app/pkg/errors"
)

type stubAuthenticator struct {
	sessions map[string]*models.SessionContext
}

func (s *stubAuthenticator) Authenticate(ctx context.Context, token string) (*models.SessionContext, error) {
	if sess, ok := s.sessions[token]; ok {
		return sess, nil
	}
	return nil, appErrors.ErrSessionExpired
}

type stubHTTPObserver struct {
	paths []string
}

func (s *stubHTTPObserver) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	s.paths = append(s.paths, method+" "+path)
}

func newRouter(observer HTTPObserver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	auth := &stubAuthenticator{sessions: map[string]*models.SessionContext{
		"faculty-token": {Token: "faculty-token", User: &models.UserProfile{ID: "F001", Role: models.RoleFaculty}},
		"student-token": {Token: "student-token", User: &models.UserProfile{ID: "S001", Role: models.RoleStudent}},
	}}
	r := gin.New()
	r.Use(Metrics(observer))
	r.GET("/workflows", JWT(auth), RequireRoles(models.RoleFaculty), func(c *gin.Context) {
		c.String(http.StatusOK, SessionFromContext(c).User.ID)
	})
	r.GET("/optional", OptionalJWT(auth), func(c *gin.Context) {
		if sess := SessionFromContext(c); sess != nil {
			c.String(http.StatusOK, sess.User.ID)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})
	return r
}

func doRequest(r http.Handler, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTRequiresBearer(t *testing.T) {
	r := newRouter(nil)

	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "/workflows", "").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "/workflows", "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "/workflows", "Bearer unknown").Code)

	w := doRequest(r, "/workflows", "Bearer faculty-token")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "F001", w.Body.String())
}

func TestRequireRolesForbidsOtherRoles(t *testing.T) {
	r := newRouter(nil)
	assert.Equal(t, http.StatusForbidden, doRequest(r, "/workflows", "Bearer student-token").Code)
}

func TestOptionalJWT(t *testing.T) {
	r := newRouter(nil)
	assert.Equal(t, "anonymous", doRequest(r, "/optional", "Bearer unknown").Body.String())
	assert.Equal(t, "S001", doRequest(r, "/optional", "bearer student-token").Body.String())
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	observer := &stubHTTPObserver{}
	r := newRouter(observer)

	doRequest(r, "/workflows", "Bearer faculty-token")
	doRequest(r, "/nope", "")

	assert.Equal(t, []string{"GET /workflows", "GET unmatched"}, observer.paths)
}
