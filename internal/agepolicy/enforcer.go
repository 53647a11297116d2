package agepolicy

import "time"

// DenialReason explains a denied decision.
type DenialReason string

const (
	DenialUnauthenticated  DenialReason = "unauthenticated"
	DenialUnderage         DenialReason = "underage"
	DenialInvalidBirthDate DenialReason = "invalid_birth_date"
)

// Subject is the authenticated principal under evaluation. A nil subject
// means no authenticated user is present.
type Subject struct {
	BirthDate time.Time
}

// Decision is the one-shot outcome of an authorization check. It starts
// pending and transitions to decided exactly once; the first decision wins
// and later attempts are ignored.
type Decision struct {
	decided bool
	granted bool
	reason  DenialReason
}

func (d *Decision) grant() {
	if d.decided {
		return
	}
	d.decided = true
	d.granted = true
}

func (d *Decision) deny(reason DenialReason) {
	if d.decided {
		return
	}
	d.decided = true
	d.reason = reason
}

// Decided reports whether the decision left the pending state.
func (d *Decision) Decided() bool { return d.decided }

// Granted reports whether access was granted. A pending decision is not
// granted.
func (d *Decision) Granted() bool { return d.decided && d.granted }

// Reason returns the denial reason, empty for granted or pending decisions.
func (d *Decision) Reason() DenialReason {
	if d.granted {
		return ""
	}
	return d.reason
}

// Err maps a denied decision onto the policy error taxonomy. Granted
// decisions return nil.
func (d *Decision) Err() error {
	if d.Granted() {
		return nil
	}
	switch d.reason {
	case DenialUnderage:
		return ErrUnderage
	case DenialInvalidBirthDate:
		return ErrInvalidBirthDate
	default:
		return ErrUnauthenticated
	}
}

// Enforcer gates protected operations on the configured age requirement.
// There is exactly one requirement type, so the evaluator is called directly
// rather than through a handler registry.
type Enforcer struct {
	requirement Requirement
}

// NewEnforcer builds an enforcer for the given requirement.
func NewEnforcer(requirement Requirement) *Enforcer {
	return &Enforcer{requirement: requirement}
}

// Requirement exposes the configured rule for logging and responses.
func (e *Enforcer) Requirement() Requirement { return e.requirement }

// Authorize evaluates the age policy for subject at the instant now and
// returns the terminal decision. It never blocks and has no side effects.
func (e *Enforcer) Authorize(subject *Subject, now time.Time) Decision {
	var d Decision
	if subject == nil {
		d.deny(DenialUnauthenticated)
		return d
	}

	outcome, err := Evaluate(subject.BirthDate, e.requirement, now)
	switch {
	case err != nil:
		d.deny(DenialInvalidBirthDate)
	case outcome == Allow:
		d.grant()
	default:
		d.deny(DenialUnderage)
	}
	return d
}
