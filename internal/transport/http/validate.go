package http

import (
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// ValidationError describes one rejected request field.
type ValidationError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// decodeAndValidate reads an optional JSON body into req, fills defaults and
// validates it. An empty body is treated as an empty object.
func decodeAndValidate(r *http.Request, req interface{}) *ErrorResponse {
	if err := render.DecodeJSON(r.Body, req); err != nil && !errors.Is(err, io.EOF) {
		return newErrorResponse(http.StatusBadRequest, LevelError, CodeInvalidRequest,
			"malformed JSON body: "+err.Error())
	}
	if err := defaults.Set(req); err != nil {
		return newErrorResponse(http.StatusInternalServerError, LevelError, CodeInternal, err.Error())
	}
	if err := validate.StructCtx(r.Context(), req); err != nil {
		resp := newErrorResponse(http.StatusBadRequest, LevelError, CodeInvalidRequest, "request validation failed")
		resp.Fields = fieldErrors(err)
		return resp
	}
	return nil
}

func fieldErrors(err error) []ValidationError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []ValidationError{{Code: "ERR_UNKNOWN", Message: err.Error()}}
	}
	out := make([]ValidationError, 0, len(ve))
	for _, fe := range ve {
		out = append(out, ValidationError{
			Code:    "ERR_" + strings.ToUpper(fe.Tag()),
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a date formatted as %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}
