package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "agegate/pkg/domain"
	dErrors "agegate/pkg/domain-errors"
)

var testNow = time.Date(2024, time.June, 1, 12, 30, 0, 0, time.UTC)

func TestNewUser_Invariants(t *testing.T) {
	birthDate := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

	t.Run("constructs a valid user", func(t *testing.T) {
		u, err := NewUser(id.NewUserID(), "Alice", "alice@example.com", birthDate, "hash", testNow)
		require.NoError(t, err)
		assert.Equal(t, "Alice", u.Username)
		assert.Equal(t, "alice", u.NormalizedUsername)
		assert.Equal(t, birthDate, u.BirthDate)
		assert.Equal(t, testNow, u.CreatedAt)
	})

	t.Run("rejects empty username", func(t *testing.T) {
		_, err := NewUser(id.NewUserID(), "   ", "a@example.com", birthDate, "hash", testNow)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("rejects oversized username", func(t *testing.T) {
		_, err := NewUser(id.NewUserID(), strings.Repeat("a", 65), "a@example.com", birthDate, "hash", testNow)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("rejects empty email", func(t *testing.T) {
		_, err := NewUser(id.NewUserID(), "alice", "", birthDate, "hash", testNow)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("rejects missing password hash", func(t *testing.T) {
		_, err := NewUser(id.NewUserID(), "alice", "a@example.com", birthDate, "", testNow)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("rejects future birth date", func(t *testing.T) {
		_, err := NewUser(id.NewUserID(), "alice", "a@example.com", testNow.AddDate(1, 0, 0), "hash", testNow)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("truncates birth date to midnight UTC", func(t *testing.T) {
		noon := time.Date(2000, time.January, 1, 12, 45, 9, 0, time.UTC)
		u, err := NewUser(id.NewUserID(), "alice", "a@example.com", noon, "hash", testNow)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC), u.BirthDate)
	})
}

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "alice", NormalizeUsername("  ALICE "))
	assert.Equal(t, "bob", NormalizeUsername("Bob"))
	assert.Equal(t, "", NormalizeUsername("   "))
}
