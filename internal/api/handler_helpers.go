package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Loquest/Mentl2/internal"
	"github.com/Loquest/Mentl2/internal/auth"
	"github.com/Loquest/Mentl2/internal/response"
	"github.com/Loquest/Mentl2/internal/service"
)

// statusFor maps domain sentinels to HTTP statuses.
func statusFor(err error) (int, bool) {
	switch {
	case errors.Is(err, internal.ErrValidation):
		return http.StatusBadRequest, true
	case errors.Is(err, internal.ErrDuplicateDate), errors.Is(err, internal.ErrConflict):
		return http.StatusConflict, true
	case errors.Is(err, internal.ErrNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, internal.ErrForbidden):
		return http.StatusForbidden, true
	case errors.Is(err, internal.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, true
	case errors.Is(err, service.ErrLLMUnavailable):
		return http.StatusServiceUnavailable, true
	}
	return 0, false
}

// HandleError writes the error envelope. status is used when err is not a known sentinel.
// Server errors never echo err to the client.
func HandleError(c *gin.Context, logger internal.Logger, err error, status int, msg string) {
	requestID := c.GetString("request_id")
	if s, ok := statusFor(err); ok {
		status = s
	}
	if status >= http.StatusInternalServerError {
		logger.Errorw(msg, "request_id", requestID, "status", status, "error", err)
	} else {
		logger.Warnw(msg, "request_id", requestID, "status", status, "error", err)
	}

	detail := msg + ": " + err.Error()
	var resp response.APIResponse
	switch status {
	case http.StatusBadRequest:
		resp = response.BadRequest(detail)
	case http.StatusUnauthorized:
		resp = response.Unauthorized(detail)
	case http.StatusForbidden:
		resp = response.Forbidden(detail)
	case http.StatusNotFound:
		resp = response.NotFound(detail)
	case http.StatusConflict:
		resp = response.Conflict(detail)
	case http.StatusServiceUnavailable:
		resp = response.NewAppError(status, "unavailable", msg)
	case http.StatusInternalServerError:
		resp = response.InternalError(msg)
	default:
		resp = response.NewAppError(status, "error", msg)
	}
	c.JSON(status, resp)
}

func HandleSuccess(c *gin.Context, logger internal.Logger, data interface{}, meta map[string]any) {
	respond(c, logger, http.StatusOK, data, meta)
}

func HandleCreated(c *gin.Context, logger internal.Logger, data interface{}) {
	respond(c, logger, http.StatusCreated, data, nil)
}

func respond(c *gin.Context, logger internal.Logger, status int, data interface{}, meta map[string]any) {
	logger.Debugw("success", "request_id", c.GetString("request_id"), "status", status)
	c.JSON(status, response.Success(data, meta))
}
