package assessments

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrDuplicateCycle    = errors.New("cycle already exists for territory")
	ErrResultNotReady    = errors.New("result not ready")
	ErrEnqueueFailed     = errors.New("enqueue failed")
)

const (
	ErrorCodeDuplicateCycle = "DUPLICATE_CYCLE"
	ErrorCodeResultNotReady = "RESULT_NOT_READY"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// ValidationError is returned when request input is rejected before any
// state changes.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Issue)
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(parts, "; "))
}

func (e *ValidationError) add(field, issue string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Issue: issue})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
