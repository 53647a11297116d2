package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: a uniqueness constraint would be violated
// - ErrAmbiguous: a lookup matched more than one candidate
// - ErrExpired: token/lockout window has expired
// - ErrUnavailable: backing service temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrAmbiguous   = errors.New("ambiguous match")
	ErrExpired     = errors.New("expired")
	ErrUnavailable = errors.New("unavailable")
)
