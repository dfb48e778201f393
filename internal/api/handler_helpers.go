package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/vipinnagar8700/meditationLife-sub000/internal"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/auth"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/response"
)

// HandleError renders err as an envelope. Server-side failures are logged
// with their cause; the client only sees the generic message.
func HandleError(c *gin.Context, logger internal.Logger, err error) {
	requestID := c.GetString("request_id")
	appErr := internal.AsAppError(err)
	if appErr.Status >= http.StatusInternalServerError {
		logger.Errorw(appErr.Message, "request_id", requestID, "code", appErr.Code, "error", appErr.Err)
	} else {
		logger.Debugf("[request_id=%s] %s", requestID, appErr.Error())
	}
	c.JSON(appErr.Status, response.Failure(appErr))
}

func HandleSuccess(c *gin.Context, logger internal.Logger, resp response.APIResponse) {
	requestID := c.GetString("request_id")
	logger.Debugf("[request_id=%s] Success", requestID)
	c.JSON(http.StatusOK, resp)
}

// bindJSON reports a malformed body as a validation error.
func bindJSON(c *gin.Context, logger internal.Logger, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		HandleError(c, logger, internal.ValidationError("Invalid JSON body"))
		return false
	}
	return true
}

// queryInt returns 0 for missing or unparsable values so callers fall back
// to their defaults.
func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}

func principal(c *gin.Context) *internal.Principal {
	return auth.PrincipalFrom(c)
}
