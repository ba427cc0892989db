package http

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/render"

	finErrors "github.com/ezoic/finml/pkg/errors"
)

// Error levels. A warning means the request was refused and the session is
// unchanged.
const (
	LevelWarning = "warning"
	LevelError   = "error"
)

// Error codes.
const (
	CodePrerequisite   = "PREREQUISITE_NOT_MET"
	CodeLoad           = "LOAD_FAILED"
	CodeInvalidInput   = "INVALID_INPUT"
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeTooLarge       = "PAYLOAD_TOO_LARGE"
	CodeNotFound       = "NOT_FOUND"
	CodeInternal       = "INTERNAL"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Level   string            `json:"level"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  []ValidationError `json:"fields,omitempty"`

	status int
}

// Render implements render.Renderer.
func (e *ErrorResponse) Render(_ http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.status)
	return nil
}

// Status returns the HTTP status the response is sent with.
func (e *ErrorResponse) Status() int { return e.status }

func newErrorResponse(status int, level, code, message string) *ErrorResponse {
	return &ErrorResponse{Level: level, Code: code, Message: message, status: status}
}

// errorFor maps a session error onto its response.
func errorFor(err error) *ErrorResponse {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, finErrors.ErrPrerequisiteNotMet):
		return newErrorResponse(http.StatusConflict, LevelWarning, CodePrerequisite, err.Error())
	case errors.Is(err, finErrors.ErrLoad):
		return newErrorResponse(http.StatusUnprocessableEntity, LevelError, CodeLoad, err.Error())
	case errors.As(err, &maxBytes):
		return newErrorResponse(http.StatusRequestEntityTooLarge, LevelError, CodeTooLarge, err.Error())
	case errors.Is(err, finErrors.ErrInvalidInput),
		errors.Is(err, finErrors.ErrDimensionMismatch),
		errors.Is(err, finErrors.ErrEmptyData):
		return newErrorResponse(http.StatusBadRequest, LevelError, CodeInvalidInput, err.Error())
	default:
		return newErrorResponse(http.StatusInternalServerError, LevelError, CodeInternal, err.Error())
	}
}
