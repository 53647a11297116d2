// Package agepolicy implements the minimum-age authorization policy. The
// evaluator is a pure function over explicit inputs; the clock is always
// injected so evaluations are deterministic under test.
package agepolicy

import (
	"time"

	dErrors "agegate/pkg/domain-errors"
)

// Errors surfaced by policy evaluation. Underage and unauthenticated denials
// stay distinct so the transport layer can map them to 403 vs 401.
var (
	ErrInvalidBirthDate = dErrors.New(dErrors.CodeInvalidInput, "birth date is in the future")
	ErrUnderage         = dErrors.New(dErrors.CodeForbidden, "minimum age requirement not met")
	ErrUnauthenticated  = dErrors.New(dErrors.CodeUnauthorized, "authentication required")
)

// Requirement is the configured minimum-age rule. It is built once at startup
// and shared read-only across all evaluations.
type Requirement struct {
	MinimumAge int
}

// NewRequirement validates the configured minimum age.
func NewRequirement(minimumAge int) (Requirement, error) {
	if minimumAge < 0 {
		return Requirement{}, dErrors.New(dErrors.CodeInvariantViolation, "minimum age cannot be negative")
	}
	return Requirement{MinimumAge: minimumAge}, nil
}

// Outcome is the result of evaluating a requirement against a birth date.
type Outcome int

const (
	Deny Outcome = iota
	Allow
)

// Evaluate decides whether a subject born on birthDate satisfies the
// requirement at the instant now. The boundary is inclusive: a subject whose
// birthday falls on now's calendar date has already reached the new age.
// A birth date after now is invalid and never allows access.
func Evaluate(birthDate time.Time, req Requirement, now time.Time) (Outcome, error) {
	if birthDate.After(now) {
		return Deny, ErrInvalidBirthDate
	}
	if age(birthDate, now) >= req.MinimumAge {
		return Allow, nil
	}
	return Deny, nil
}

// age computes whole calendar years between birthDate and now, accounting for
// whether the birthday has occurred yet this year. Feb 29 birthdays roll to
// Mar 1 in non-leap years via AddDate normalization.
func age(birthDate, now time.Time) int {
	years := now.Year() - birthDate.Year()
	if years < 0 {
		return years
	}
	if birthDate.AddDate(years, 0, 0).After(now) {
		years--
	}
	return years
}
