// Package user provides user record storage. The in-memory implementation
// backs tests and single-node development; PostgreSQL backs production.
package user

import (
	"context"
	"sync"

	"agegate/internal/account/models"
	id "agegate/pkg/domain"
	"agegate/pkg/platform/sentinel"
)

// InMemoryStore keeps user records in process memory. It favors clarity over
// performance and enforces the same uniqueness rules as the SQL schema.
type InMemoryStore struct {
	mu           sync.RWMutex
	byID         map[id.UserID]models.User
	byNormalized map[string]id.UserID
	byEmail      map[string]id.UserID
}

// New constructs an empty in-memory user store.
func New() *InMemoryStore {
	return &InMemoryStore{
		byID:         make(map[id.UserID]models.User),
		byNormalized: make(map[string]id.UserID),
		byEmail:      make(map[string]id.UserID),
	}
}

// Create persists a new user. Duplicate normalized usernames or emails return
// sentinel.ErrConflict, mirroring the SQL unique indexes.
func (s *InMemoryStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byNormalized[user.NormalizedUsername]; exists {
		return sentinel.ErrConflict
	}
	if _, exists := s.byEmail[user.Email]; exists {
		return sentinel.ErrConflict
	}

	s.byID[user.ID] = *user
	s.byNormalized[user.NormalizedUsername] = user.ID
	s.byEmail[user.Email] = user.ID
	return nil
}

// FindByID returns the user with the given ID or sentinel.ErrNotFound.
func (s *InMemoryStore) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byID[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &user, nil
}

// FindByNormalizedUsername resolves the single user matching the normalized
// name, or sentinel.ErrNotFound.
func (s *InMemoryStore) FindByNormalizedUsername(_ context.Context, normalized string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, ok := s.byNormalized[normalized]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	user := s.byID[userID]
	return &user, nil
}
