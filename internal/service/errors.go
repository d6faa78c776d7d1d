package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Domain errors. Callers classify with errors.Is.
var (
	ErrValidation    = errors.New("validation failed")
	ErrConflict      = errors.New("exam already started or finished")
	ErrNotFound      = errors.New("not found")
	ErrAttemptLocked = errors.New("attempt is locked")
	ErrInternal      = errors.New("internal error")
)

// ValidationError carries field-level messages. It matches ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// internal wraps a store failure so it matches ErrInternal while keeping the cause.
func internal(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
}
