// Package service orchestrates registration, credential verification, and
// token issuance for the account module. All time comparisons use the
// request-scoped clock; nothing here reads the wall clock directly.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"agegate/internal/account/lockout"
	"agegate/internal/account/metrics"
	"agegate/internal/account/models"
	"agegate/internal/token"
	id "agegate/pkg/domain"
	dErrors "agegate/pkg/domain-errors"
	"agegate/pkg/platform/audit"
	"agegate/pkg/platform/sentinel"
	"agegate/pkg/requestcontext"
	"agegate/pkg/secrets"
)

// Login failures collapse unknown users and wrong passwords into one error
// value so callers cannot enumerate usernames. Lockout is the only
// distinguishable failure, and it is keyed to the attempted name regardless
// of whether that account exists.
var (
	ErrInvalidCredentials = dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	ErrAccountLocked      = lockout.ErrLocked
	ErrRegistrationFailed = dErrors.New(dErrors.CodeBadRequest, "registration failed")
)

// UserStore persists user records.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByNormalizedUsername(ctx context.Context, normalized string) (*models.User, error)
}

// LockoutPolicy throttles repeated credential failures.
type LockoutPolicy interface {
	Check(ctx context.Context, key string, now time.Time) error
	RecordFailure(ctx context.Context, key string, now time.Time) error
	Clear(ctx context.Context, key string) error
}

// TokenIssuer signs identity claims into bearer tokens.
type TokenIssuer interface {
	Issue(claims token.Claims, now time.Time) (string, error)
	TTL() time.Duration
}

// Service wires the account operations together.
type Service struct {
	users    UserStore
	tokens   TokenIssuer
	lockouts LockoutPolicy
	logger   *slog.Logger
	metrics  *metrics.Metrics
	audit    *audit.Recorder
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLockout(policy LockoutPolicy) Option {
	return func(s *Service) { s.lockouts = policy }
}

func WithAudit(recorder *audit.Recorder) Option {
	return func(s *Service) { s.audit = recorder }
}

// New constructs an account service.
func New(users UserStore, tokens TokenIssuer, opts ...Option) *Service {
	s := &Service{users: users, tokens: tokens}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterRequest carries validated registration input.
type RegisterRequest struct {
	Username  string
	Email     string
	Password  string
	BirthDate time.Time
}

// Register creates a new account. Uniqueness failures surface as a generic
// registration error so responses never reveal which field collided.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	now := requestcontext.Now(ctx)

	hash, err := secrets.Hash(req.Password)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			return nil, dErrors.New(dErrors.CodeValidation, "invalid password")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	user, err := models.NewUser(id.NewUserID(), req.Username, req.Email, req.BirthDate, hash, now)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, "invalid registration request")
		}
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, ErrRegistrationFailed
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	s.logEvent(ctx, "user_registered", "user_id", user.ID)
	s.audit.Record(ctx, audit.Event{
		UserID:   user.ID,
		Username: user.NormalizedUsername,
		Action:   audit.ActionUserRegistered,
	})
	if s.metrics != nil {
		s.metrics.UsersRegistered.Inc()
	}
	return user, nil
}

// LoginResult is returned to the transport layer after a successful login.
type LoginResult struct {
	Token     string
	ExpiresIn int
	User      *models.User
}

// Login verifies a username/password pair and issues a bearer token. The
// username match is case-insensitive; a lookup that yields zero or more than
// one candidate fails exactly like a wrong password.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	now := requestcontext.Now(ctx)
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveLogin(start)
		}
	}()

	normalized := models.NormalizeUsername(username)

	if s.lockouts != nil {
		if err := s.lockouts.Check(ctx, normalized, now); err != nil {
			if errors.Is(err, lockout.ErrLocked) {
				if s.metrics != nil {
					s.metrics.Lockouts.Inc()
				}
				return nil, ErrAccountLocked
			}
			return nil, err
		}
	}

	user, err := s.users.FindByNormalizedUsername(ctx, normalized)
	switch {
	case errors.Is(err, sentinel.ErrNotFound), errors.Is(err, sentinel.ErrAmbiguous):
		// Burn a bcrypt comparison so unknown users cost the same as wrong
		// passwords, then fail identically.
		_ = secrets.VerifyDummy(password)
		return nil, s.failLogin(ctx, normalized, now)
	case err != nil:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve user")
	}

	if err := secrets.Verify(password, user.PasswordHash); err != nil {
		return nil, s.failLogin(ctx, normalized, now)
	}

	if s.lockouts != nil {
		if err := s.lockouts.Clear(ctx, normalized); err != nil {
			// A stale failure record must not block a verified login.
			s.logEvent(ctx, "lockout_clear_failed", "error", err)
		}
	}

	claims := token.NewClaims(user.ID, user.Username, user.BirthDate, now)
	signed, err := s.tokens.Issue(claims, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	s.logEvent(ctx, "user_logged_in", "user_id", user.ID)
	s.audit.Record(ctx, audit.Event{
		UserID:   user.ID,
		Username: user.NormalizedUsername,
		Action:   audit.ActionLoginSucceeded,
		Device:   requestcontext.Device(ctx),
	})
	if s.metrics != nil {
		s.metrics.LoginSuccess.Inc()
	}

	return &LoginResult{
		Token:     signed,
		ExpiresIn: int(s.tokens.TTL().Seconds()),
		User:      user,
	}, nil
}

// GetUser resolves the identity record for an authenticated user ID.
func (s *Service) GetUser(ctx context.Context, userID id.UserID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "unknown user")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return user, nil
}

// failLogin records the failure against the lockout budget and returns the
// uniform credential error, or the lock error when this attempt tripped it.
func (s *Service) failLogin(ctx context.Context, normalized string, now time.Time) error {
	if s.metrics != nil {
		s.metrics.LoginFailure.Inc()
	}
	s.logEvent(ctx, "login_failed", "username", normalized)
	s.audit.Record(ctx, audit.Event{
		Username: normalized,
		Action:   audit.ActionLoginFailed,
		Device:   requestcontext.Device(ctx),
	})

	if s.lockouts != nil {
		if err := s.lockouts.RecordFailure(ctx, normalized, now); err != nil {
			if errors.Is(err, lockout.ErrLocked) {
				if s.metrics != nil {
					s.metrics.Lockouts.Inc()
				}
				s.audit.Record(ctx, audit.Event{
					Username: normalized,
					Action:   audit.ActionAccountLocked,
				})
				return ErrAccountLocked
			}
			s.logEvent(ctx, "lockout_record_failed", "error", err)
		}
	}
	return ErrInvalidCredentials
}

func (s *Service) logEvent(ctx context.Context, event string, attributes ...any) {
	if s.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}
