package store

import (
	"context"
	"strings"
	"sync"

	"viewergate/internal/account"
	id "viewergate/pkg/domain"
	"viewergate/pkg/platform/sentinel"
)

// InMemoryStore keeps accounts by ID with a case-insensitive email index.
type InMemoryStore struct {
	mu      sync.RWMutex
	byID    map[id.AccountID]*account.Account
	byEmail map[string]id.AccountID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		byID:    make(map[id.AccountID]*account.Account),
		byEmail: make(map[string]id.AccountID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, a *account.Account) error {
	key := strings.ToLower(a.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[key]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.byID[a.ID]; ok {
		return sentinel.ErrConflict
	}
	c := *a
	s.byID[a.ID] = &c
	s.byEmail[key] = a.ID
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, a *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[a.ID]; !ok {
		return sentinel.ErrNotFound
	}
	c := *a
	s.byID[a.ID] = &c
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, accountID id.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[accountID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byEmail, strings.ToLower(a.Email))
	delete(s.byID, accountID)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, accountID id.AccountID) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[accountID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *a
	return &c, nil
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accountID, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *s.byID[accountID]
	return &c, nil
}
