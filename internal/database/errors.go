package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	apperrors "tourdesk/internal/errors"

	"github.com/lib/pq"
)

// Constraint guarding 0 <= reserved_seats <= total_seats
const SeatsConstraint = "slots_reserved_seats_check"

var transientCodes = map[pq.ErrorCode]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
	"57P01": true, // admin_shutdown
	"57P03": true, // cannot_connect_now
	"53300": true, // too_many_connections
}

// Classify maps driver errors onto the domain taxonomy
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "23514" && pqErr.Constraint == SeatsConstraint:
			return fmt.Errorf("%s: %w", op, apperrors.ErrCapacityExceeded)
		case pqErr.Code == "23503":
			return fmt.Errorf("%s: referenced row: %w", op, apperrors.ErrNotFound)
		case pqErr.Code.Class() == "08" || transientCodes[pqErr.Code]:
			return apperrors.Transient(op, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if isRetryableError(err) {
		return apperrors.Transient(op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// IsUniqueViolation reports a unique constraint failure
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	if apperrors.IsTransient(err) {
		return true
	}

	errStr := err.Error()
	retryableErrors := []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"timeout",
		"driver: bad connection",
	}
	for _, retryable := range retryableErrors {
		if strings.Contains(errStr, retryable) {
			return true
		}
	}
	return false
}
