// Package token issues and validates the signed bearer tokens returned by
// login. Tokens are JWTs signed with a symmetric HMAC-SHA-256 key; no server
// side record is kept, the token itself is the credential.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	id "agegate/pkg/domain"
	dErrors "agegate/pkg/domain-errors"
)

// Validation failures are distinct values so callers can tell an expired
// token from a forged one.
var (
	ErrExpired   = dErrors.New(dErrors.CodeUnauthorized, "token has expired")
	ErrSignature = dErrors.New(dErrors.CodeUnauthorized, "invalid token signature")
	ErrMalformed = dErrors.New(dErrors.CodeUnauthorized, "invalid token")
)

// Claims is the identity claim set embedded in issued tokens. Field order is
// fixed by the struct so identical inputs always serialize to identical token
// bytes. login_timestamp is informational only; expiry is enforced through
// the registered exp claim.
type Claims struct {
	Username       string `json:"username"`
	UserID         string `json:"id"`
	BirthDate      string `json:"birth_date"`
	LoginTimestamp string `json:"login_timestamp"`
	jwt.RegisteredClaims
}

// NewClaims assembles the claim set for a user at login time. Pure: the
// inputs are copied into string form and nothing is mutated. The birth date
// is carried as an ISO-8601 calendar date, the login instant as RFC 3339.
func NewClaims(userID id.UserID, username string, birthDate, issuedAt time.Time) Claims {
	return Claims{
		Username:       username,
		UserID:         userID.String(),
		BirthDate:      birthDate.Format(time.DateOnly),
		LoginTimestamp: issuedAt.UTC().Format(time.RFC3339),
	}
}

// Service signs and validates bearer tokens. The signing key and TTL come
// from configuration at construction time and are never read from ambient
// state; the key must not be logged.
type Service struct {
	signingKey []byte
	ttl        time.Duration
}

// NewService constructs a token service with the configured key and TTL.
func NewService(signingKey string, ttl time.Duration) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		ttl:        ttl,
	}
}

// TTL returns the configured token lifetime.
func (s *Service) TTL() time.Duration { return s.ttl }

// Issue signs claims into a bearer token expiring at now + TTL. Issuance is a
// pure transform over its inputs: the same claims and now produce the same
// token bytes.
func (s *Service) Issue(claims Claims, now time.Time) (string, error) {
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return signed, nil
}

// Validate checks the signature and expiry of a token at the instant now and
// returns its claims. Clock-skew tolerance is zero: a token is already
// expired when now equals its expiry.
func (s *Service) Validate(tokenString string, now time.Time) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithTimeFunc(func() time.Time { return now }))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrSignature
		default:
			return nil, ErrMalformed
		}
	}

	if !parsed.Valid {
		return nil, ErrMalformed
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, ErrMalformed
	}
	return claims, nil
}

// ExtractUserID validates a token and parses the user identity claim. Used by
// the bearer-auth middleware.
func (s *Service) ExtractUserID(tokenString string, now time.Time) (id.UserID, error) {
	claims, err := s.Validate(tokenString, now)
	if err != nil {
		return id.UserID{}, err
	}
	userID, err := id.ParseUserID(claims.UserID)
	if err != nil {
		return id.UserID{}, ErrMalformed
	}
	return userID, nil
}
