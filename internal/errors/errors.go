package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrUnauthorized = errors.New("user is not authorized")
var ErrForbidden = errors.New("operation is forbidden for user")

var ErrNotFound = errors.New("not found")
var ErrCapacityExceeded = errors.New("not enough seats available")

// ValidationError collects per-field problems found before any write.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}

// Invalid builds a single-field validation error.
func Invalid(field, msg string) *ValidationError {
	v := NewValidationError()
	v.Add(field, msg)
	return v
}

func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

// OrNil returns nil when no field failed, so callers can `return v.OrNil()`.
func (e *ValidationError) OrNil() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// CapacityError carries the numbers behind a rejected booking.
type CapacityError struct {
	Requested int
	Available int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("not enough seats available: requested %d, available %d", e.Requested, e.Available)
}

func (e *CapacityError) Unwrap() error {
	return ErrCapacityExceeded
}

func CapacityExceeded(requested, available int) error {
	if available < 0 {
		available = 0
	}
	return &CapacityError{Requested: requested, Available: available}
}

// NotFound wraps ErrNotFound with the entity name and id.
func NotFound(entity string, id any) error {
	return fmt.Errorf("%s %v: %w", entity, id, ErrNotFound)
}

// TransientStoreError marks a store failure that is safe to retry.
type TransientStoreError struct {
	Op  string
	Err error
}

func (e *TransientStoreError) Error() string {
	if e.Op == "" {
		return "temporary store failure: " + e.Err.Error()
	}
	return fmt.Sprintf("temporary store failure during %s: %v", e.Op, e.Err)
}

func (e *TransientStoreError) Unwrap() error {
	return e.Err
}

func (e *TransientStoreError) Temporary() bool {
	return true
}

func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransientStoreError{Op: op, Err: err}
}

func IsTransient(err error) bool {
	var t *TransientStoreError
	return errors.As(err, &t)
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
