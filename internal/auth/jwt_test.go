package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewJWTService("secret", 1)
	userID := uuid.New()

	token, err := svc.Generate(userID, "guide@example.com")
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "guide@example.com", claims.Email)
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	token, err := NewJWTService("one", 1).Generate(uuid.New(), "a@example.com")
	require.NoError(t, err)

	_, err = NewJWTService("two", 1).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsGarbage(t *testing.T) {
	_, err := NewJWTService("secret", 1).Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong"))
}
