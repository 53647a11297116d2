// Package lockout tracks failed login attempts per account and enforces a
// temporary hard lock once the failure budget is spent. Stores are pluggable:
// in-memory for single-node deployments, Redis when instances share state.
package lockout

import (
	"context"
	"errors"
	"log/slog"
	"time"

	dErrors "agegate/pkg/domain-errors"
)

// ErrLocked is returned while an account is inside its lock window.
var ErrLocked = dErrors.New(dErrors.CodeForbidden, "account temporarily locked")

// Config bounds the failure budget and lock duration.
type Config struct {
	MaxFailures int
	Window      time.Duration
	LockFor     time.Duration
}

// DefaultConfig allows 5 attempts per 15 minutes, then locks for 15 minutes.
func DefaultConfig() Config {
	return Config{
		MaxFailures: 5,
		Window:      15 * time.Minute,
		LockFor:     15 * time.Minute,
	}
}

// Record is the per-account failure state kept by stores.
type Record struct {
	FailureCount   int        `json:"failure_count"`
	FirstFailureAt time.Time  `json:"first_failure_at"`
	LastFailureAt  time.Time  `json:"last_failure_at"`
	LockedUntil    *time.Time `json:"locked_until,omitempty"`
}

// Locked reports whether the record is hard-locked at the instant now.
func (r *Record) Locked(now time.Time) bool {
	return r.LockedUntil != nil && now.Before(*r.LockedUntil)
}

// Store persists lockout records keyed by normalized username.
type Store interface {
	Get(ctx context.Context, key string) (*Record, error)
	Put(ctx context.Context, key string, record *Record, ttl time.Duration) error
	Clear(ctx context.Context, key string) error
}

// Service applies the lockout policy over a Store.
type Service struct {
	store  Store
	config Config
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithConfig(config Config) Option {
	return func(s *Service) { s.config = config }
}

// New constructs a lockout service.
func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("lockout store is required")
	}
	svc := &Service{store: store, config: DefaultConfig()}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Check returns ErrLocked while key is inside its lock window. Missing or
// expired records pass.
func (s *Service) Check(ctx context.Context, key string, now time.Time) error {
	record, err := s.store.Get(ctx, key)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load lockout record")
	}
	if record == nil {
		return nil
	}
	if record.Locked(now) {
		return ErrLocked
	}
	return nil
}

// RecordFailure counts a failed attempt inside the sliding window and applies
// the hard lock once the budget is exhausted. Returns ErrLocked when this
// failure triggered or extended a lock.
func (s *Service) RecordFailure(ctx context.Context, key string, now time.Time) error {
	record, err := s.store.Get(ctx, key)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load lockout record")
	}
	if record == nil || now.Sub(record.FirstFailureAt) > s.config.Window {
		record = &Record{FirstFailureAt: now}
	}

	record.FailureCount++
	record.LastFailureAt = now

	locked := false
	if record.FailureCount >= s.config.MaxFailures {
		until := now.Add(s.config.LockFor)
		record.LockedUntil = &until
		locked = true
	}

	ttl := s.config.Window
	if s.config.LockFor > ttl {
		ttl = s.config.LockFor
	}
	if err := s.store.Put(ctx, key, record, ttl); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist lockout record")
	}

	if locked {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "account lockout triggered",
				"key", key,
				"failure_count", record.FailureCount,
				"locked_until", record.LockedUntil,
			)
		}
		return ErrLocked
	}
	return nil
}

// Clear forgets all failure state for key, called after a successful login.
func (s *Service) Clear(ctx context.Context, key string) error {
	if err := s.store.Clear(ctx, key); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear lockout record")
	}
	return nil
}
