package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-app/internal/middleware"
	"github.com/noah-isme/attendance-app/internal/models"
	appErrors "github.com/noah-isme/attendance-app/pkg/errors"
	"github.com/noah-isme/attendance-app/pkg/response"
)

func sessionFromContext(c *gin.Context) (*models.SessionContext, bool) {
	sess := middleware.SessionFromContext(c)
	if !sess.Authenticated() {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return sess, true
}

func intParam(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, name+" must be an integer"))
		return 0, false
	}
	return v, true
}
