package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIs_MatchesOnCodeAndMessage(t *testing.T) {
	err := New(CodeUnauthorized, "invalid credentials")

	assert.ErrorIs(t, err, New(CodeUnauthorized, "invalid credentials"))
	assert.NotErrorIs(t, err, New(CodeUnauthorized, "token has expired"))
	assert.NotErrorIs(t, err, New(CodeForbidden, "invalid credentials"))
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeInternal, "failed to load user")

	require.ErrorIs(t, err, cause)
	assert.True(t, HasCode(err, CodeInternal))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestHasCode_SeesThroughWrapping(t *testing.T) {
	inner := New(CodeNotFound, "user not found")
	outer := fmt.Errorf("lookup: %w", inner)

	assert.True(t, HasCode(outer, CodeNotFound))
	assert.False(t, HasCode(outer, CodeInternal))
	assert.False(t, HasCode(errors.New("plain"), CodeNotFound))
}

func TestGetCode_DefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, GetCode(errors.New("boom")))
	assert.Equal(t, CodeConflict, GetCode(New(CodeConflict, "taken")))
}
