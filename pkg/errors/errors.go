// Package errors defines the error taxonomy shared by every finml package.
//
// All constructors attach a stack trace through cockroachdb/errors, so
// printing an error with "%+v" shows where it was raised. The returned values
// stay compatible with the standard library: errors.Is and errors.As find the
// typed errors and sentinels through any number of wrappers.
//
// The pipeline distinguishes two user-facing categories:
//
//   - LoadError: a file could not be parsed or a market-data fetch returned
//     nothing. Shown to the user, never retried.
//   - PrerequisiteError: a stage was invoked before the stage it depends on.
//     The session is left untouched and the caller shows a warning.
//
// Everything else (ValueError, DimensionError, NotFittedError, ModelError,
// ValidationError) describes invalid input or a numeric failure.
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Sentinel errors.
var (
	ErrEmptyData          = errors.New("empty data")
	ErrSingularMatrix     = errors.New("singular matrix")
	ErrDimensionMismatch  = errors.New("dimension mismatch")
	ErrNotImplemented     = errors.New("not implemented")
	ErrNotFitted          = errors.New("not fitted")
	ErrInvalidInput       = errors.New("invalid input")
	ErrLoad               = errors.New("load failed")
	ErrPrerequisiteNotMet = errors.New("prerequisite not met")
)

const prefix = "finml"

// ValueError reports an argument with an unacceptable value.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s: %s: %s", prefix, e.Op, e.Message)
}

// Is reports ValueError as ErrInvalidInput.
func (e *ValueError) Is(target error) bool { return target == ErrInvalidInput }

// DimensionError reports mismatched shapes. Axis 0 refers to rows, 1 to columns.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s: %s: dimension mismatch on axis %d: expected %d, got %d",
		prefix, e.Op, e.Axis, e.Expected, e.Got)
}

// Unwrap exposes ErrDimensionMismatch.
func (e *DimensionError) Unwrap() error { return ErrDimensionMismatch }

// NotFittedError is returned when an estimator is used before Fit.
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("%s: %s: not fitted, call Fit before %s", prefix, e.ModelName, e.Method)
}

// Unwrap exposes ErrNotFitted.
func (e *NotFittedError) Unwrap() error { return ErrNotFitted }

// ModelError wraps a failure inside an estimator or a numeric routine.
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s: %s", prefix, e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %s: %v", prefix, e.Op, e.Kind, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// ValidationError reports a field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
	Value  interface{}
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("%s: invalid %s: %s", prefix, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: invalid %s: %s (got %v)", prefix, e.Field, e.Reason, e.Value)
}

// Is reports ValidationError as ErrInvalidInput.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// LoadError is returned when a dataset cannot be obtained.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: load %s: %v", prefix, e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is reports LoadError as ErrLoad.
func (e *LoadError) Is(target error) bool { return target == ErrLoad }

// PrerequisiteError is returned when a stage runs before its dependency.
type PrerequisiteError struct {
	Stage    string
	Requires string
}

func (e *PrerequisiteError) Error() string {
	return fmt.Sprintf("%s: %s requires %s to be completed first", prefix, e.Stage, e.Requires)
}

// Is reports PrerequisiteError as ErrPrerequisiteNotMet.
func (e *PrerequisiteError) Is(target error) bool { return target == ErrPrerequisiteNotMet }

// NewValueError creates a ValueError.
func NewValueError(op, message string) error {
	return errors.WithStackDepth(&ValueError{Op: op, Message: message}, 1)
}

// NewDimensionError creates a DimensionError.
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStackDepth(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}, 1)
}

// NewNotFittedError creates a NotFittedError.
func NewNotFittedError(modelName, method string) error {
	return errors.WithStackDepth(&NotFittedError{ModelName: modelName, Method: method}, 1)
}

// NewModelError creates a ModelError wrapping err.
func NewModelError(op, kind string, err error) error {
	return errors.WithStackDepth(&ModelError{Op: op, Kind: kind, Err: err}, 1)
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, reason string, value interface{}) error {
	return errors.WithStackDepth(&ValidationError{Field: field, Reason: reason, Value: value}, 1)
}

// NewLoadError creates a LoadError for the named source.
func NewLoadError(source string, err error) error {
	if err == nil {
		err = ErrEmptyData
	}
	return errors.WithStackDepth(&LoadError{Source: source, Err: err}, 1)
}

// NewPrerequisiteError creates a PrerequisiteError.
func NewPrerequisiteError(stage, requires string) error {
	return errors.WithStackDepth(&PrerequisiteError{Stage: stage, Requires: requires}, 1)
}

// Recover converts a panic into an error assigned to *err. It must be
// deferred directly:
//
//	func (lr *LinearRegression) Fit(X, y mat.Matrix) (err error) {
//		defer errors.Recover(&err, "LinearRegression.Fit")
//		...
//	}
func Recover(err *error, op string) {
	if r := recover(); r != nil {
		var cause error
		switch v := r.(type) {
		case error:
			cause = v
		default:
			cause = errors.Newf("%v", v)
		}
		*err = errors.WithStackDepth(&ModelError{Op: op, Kind: "panic", Err: cause}, 1)
	}
}
