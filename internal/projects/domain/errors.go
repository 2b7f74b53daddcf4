package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("project not found")
	ErrInvalidStatus = errors.New("invalid project status")
)

// FieldError is a per-field validation failure, serialized as
// {path, message} in error bodies.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationErrors carries all field failures for a payload.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s: %s", v[0].Path, v[0].Message)
}

// AsValidationErrors unwraps err into ValidationErrors if possible.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var v ValidationErrors
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
