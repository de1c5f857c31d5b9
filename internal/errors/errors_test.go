package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapacityErrorUnwraps(t *testing.T) {
	err := fmt.Errorf("create reservation: %w", CapacityExceeded(3, -1))

	assert.True(t, errors.Is(err, ErrCapacityExceeded))
	var capErr *CapacityError
	assert.True(t, errors.As(err, &capErr))
	assert.Equal(t, 0, capErr.Available)
	assert.Equal(t, "not enough seats available: requested 3, available 0", capErr.Error())
}

func TestValidationError(t *testing.T) {
	v := NewValidationError()
	assert.NoError(t, v.OrNil())

	v.Add("time", "must be a time in HH:MM format")
	v.Add("date", "is required")
	v.Add("date", "ignored second message")

	err := v.OrNil()
	assert.True(t, IsValidation(fmt.Errorf("wrapped: %w", err)))
	assert.Equal(t, "validation failed: date: is required; time: must be a time in HH:MM format", err.Error())
}

func TestTransientAndNotFound(t *testing.T) {
	cause := errors.New("connection reset by peer")
	err := Transient("list slots", cause)

	assert.True(t, IsTransient(err))
	assert.True(t, errors.Is(err, cause))
	assert.Nil(t, Transient("noop", nil))

	nf := NotFound("slot", "abc")
	assert.True(t, errors.Is(nf, ErrNotFound))
	assert.False(t, IsTransient(nf))
}
