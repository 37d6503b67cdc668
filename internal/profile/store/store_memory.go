// Package store persists verification profiles.
package store

import (
	"context"
	"sync"

	"viewergate/internal/profile/models"
	id "viewergate/pkg/domain"
	"viewergate/pkg/platform/sentinel"
)

// InMemoryStore is a process-local profile repository.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[id.AccountID]*models.VerificationProfile
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{profiles: make(map[id.AccountID]*models.VerificationProfile)}
}

// Create inserts a new profile. Returns sentinel.ErrConflict if one exists.
func (s *InMemoryStore) Create(_ context.Context, p *models.VerificationProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.AccountID]; ok {
		return sentinel.ErrConflict
	}
	s.profiles[p.AccountID] = p.Clone()
	return nil
}

// Update replaces a profile whose stored version is exactly p.Version-1.
func (s *InMemoryStore) Update(_ context.Context, p *models.VerificationProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.profiles[p.AccountID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Version != p.Version-1 {
		return sentinel.ErrConflict
	}
	s.profiles[p.AccountID] = p.Clone()
	return nil
}

func (s *InMemoryStore) FindByAccountID(_ context.Context, accountID id.AccountID) (*models.VerificationProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[accountID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return p.Clone(), nil
}
