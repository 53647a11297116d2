// Package domain holds typed identifiers shared across features. Distinct ID
// types prevent cross-type assignment at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "agegate/pkg/domain-errors"
)

// UserID identifies a registered account.
type UserID uuid.UUID

// NewUserID generates a fresh random user ID.
func NewUserID() UserID {
	return UserID(uuid.New())
}

// ParseUserID parses and validates a user ID at a trust boundary.
// Empty strings, malformed UUIDs, and the nil UUID are all rejected.
func ParseUserID(s string) (UserID, error) {
	parsed, err := parseUUID(s)
	if err != nil {
		return UserID{}, err
	}
	return UserID(parsed), nil
}

func (id UserID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether the ID is the zero value.
func (id UserID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return parsed, nil
}
