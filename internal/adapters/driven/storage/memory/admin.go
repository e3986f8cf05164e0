package memory

import (
	"context"
	"fmt"

	"github.com/custodia-labs/couchlab/internal/core/domain"
)

// Ping reports the in-memory server version.
func (s *DocumentStore) Ping(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failure != nil {
		return "", s.failure
	}
	return "memory", nil
}

// CreateDatabase marks the database created. Only the first call reports true.
func (s *DocumentStore) CreateDatabase(_ context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failure != nil {
		return false, s.failure
	}
	if s.created {
		return false, nil
	}
	s.created = true
	return true, nil
}

// CreateIndex records an index definition.
func (s *DocumentStore) CreateIndex(_ context.Context, idx domain.IndexDefinition) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failure != nil {
		return false, s.failure
	}
	if _, ok := s.indexes[idx.Name]; ok {
		return false, nil
	}
	s.indexes[idx.Name] = idx
	return true, nil
}

// Indexes returns the recorded index names.
func (s *DocumentStore) Indexes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.indexes))
	for name := range s.indexes {
		names = append(names, name)
	}
	return names
}

// PutUser records a user.
func (s *DocumentStore) PutUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failure != nil {
		return s.failure
	}
	if _, ok := s.users[user.Name]; ok {
		return fmt.Errorf("user %s: %w", user.Name, domain.ErrAlreadyExists)
	}
	s.users[user.Name] = user
	return nil
}

// User returns a recorded user.
func (s *DocumentStore) User(name string) (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[name]
	return u, ok
}

// GetSecurity returns the security object, empty when never set.
func (s *DocumentStore) GetSecurity(_ context.Context) (*domain.SecurityDoc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failure != nil {
		return nil, s.failure
	}
	if s.security == nil {
		return &domain.SecurityDoc{}, nil
	}
	sec := *s.security
	return &sec, nil
}

// PutSecurity replaces the security object.
func (s *DocumentStore) PutSecurity(_ context.Context, sec domain.SecurityDoc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failure != nil {
		return s.failure
	}
	s.security = &sec
	return nil
}
