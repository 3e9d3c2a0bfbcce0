package response

import (
	"net/http"

	"github.com/Loquest/Mentl2/internal"
)

// APIResponse is the {data, meta, error} envelope every endpoint returns.
type APIResponse struct {
	Data  interface{}        `json:"data,omitempty"`
	Meta  map[string]any     `json:"meta,omitempty"`
	Error *internal.AppError `json:"error,omitempty"`
}

func Success(data interface{}, meta map[string]any) APIResponse {
	return APIResponse{Data: data, Meta: meta}
}

func BadRequest(msg string) APIResponse {
	return NewAppError(http.StatusBadRequest, "bad_request", msg)
}

func Unauthorized(msg string) APIResponse {
	return NewAppError(http.StatusUnauthorized, "unauthorized", msg)
}

func Forbidden(msg string) APIResponse {
	return NewAppError(http.StatusForbidden, "forbidden", msg)
}

func NotFound(msg string) APIResponse {
	return NewAppError(http.StatusNotFound, "not_found", msg)
}

func Conflict(msg string) APIResponse {
	return NewAppError(http.StatusConflict, "conflict", msg)
}

func InternalError(msg string) APIResponse {
	return NewAppError(http.StatusInternalServerError, "internal", msg)
}

func NewAppError(status int, code, msg string) APIResponse {
	e := internal.NewAppError(status, msg)
	e.Code = code
	return APIResponse{Error: e}
}
