// Package models holds the account aggregate.
package models

import (
	"strings"
	"time"

	id "agegate/pkg/domain"
	dErrors "agegate/pkg/domain-errors"
)

// User is the identity record tracked by the service.
//
// Invariants:
//   - Username is non-empty, at most 64 characters, and unique under its
//     normalized form
//   - BirthDate is a calendar date (midnight UTC) and never in the future
//   - PasswordHash is opaque to everything except pkg/secrets
//   - The record is created at registration and never mutated afterwards
type User struct {
	ID                 id.UserID
	Username           string
	NormalizedUsername string
	Email              string
	BirthDate          time.Time
	PasswordHash       string
	CreatedAt          time.Time
}

// NormalizeUsername produces the canonical lookup form of a username.
// Matching is case-insensitive and ignores surrounding whitespace.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// NewUser validates invariants and constructs a user record. The password
// hash is produced by the caller so this constructor stays free of crypto.
func NewUser(userID id.UserID, username, email string, birthDate time.Time, passwordHash string, now time.Time) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "username cannot be empty")
	}
	if len(username) > 64 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "username must be 64 characters or less")
	}
	if email == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "email cannot be empty")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "password hash cannot be empty")
	}

	birthDate = truncateToDate(birthDate)
	if birthDate.After(now) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "birth date is in the future")
	}

	return &User{
		ID:                 userID,
		Username:           username,
		NormalizedUsername: NormalizeUsername(username),
		Email:              email,
		BirthDate:          birthDate,
		PasswordHash:       passwordHash,
		CreatedAt:          now,
	}, nil
}

func truncateToDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
