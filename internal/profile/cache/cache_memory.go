// Package cache holds the per-session verification profile cache.
package cache

import (
	"context"
	"sync"

	"viewergate/internal/profile/models"
	id "viewergate/pkg/domain"
	"viewergate/pkg/platform/sentinel"
)

// InMemoryCache keeps profiles for signed-in accounts in process memory.
type InMemoryCache struct {
	mu       sync.RWMutex
	profiles map[id.AccountID]*models.VerificationProfile
}

func NewInMemory() *InMemoryCache {
	return &InMemoryCache{profiles: make(map[id.AccountID]*models.VerificationProfile)}
}

func (c *InMemoryCache) Get(_ context.Context, accountID id.AccountID) (*models.VerificationProfile, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.profiles[accountID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return p.Clone(), nil
}

func (c *InMemoryCache) Set(_ context.Context, p *models.VerificationProfile) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profiles[p.AccountID] = p.Clone()
	return nil
}

func (c *InMemoryCache) Delete(_ context.Context, accountID id.AccountID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.profiles, accountID)
	return nil
}
