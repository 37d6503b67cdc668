package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"viewergate/internal/catalog/models"
	"viewergate/pkg/platform/sentinel"
)

// InMemoryStore serves a catalog snapshot held in memory.
type InMemoryStore struct {
	mu       sync.RWMutex
	entities []models.Entity
	collabs  []models.Collab
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{}
}

// Replace swaps the whole snapshot.
func (s *InMemoryStore) Replace(_ context.Context, entities []models.Entity, collabs []models.Collab) error {
	e := append([]models.Entity(nil), entities...)
	c := append([]models.Collab(nil), collabs...)
	sortEntities(e)
	sortCollabs(c)
	s.mu.Lock()
	s.entities, s.collabs = e, c
	s.mu.Unlock()
	return nil
}

func (s *InMemoryStore) ListEntities(_ context.Context) ([]models.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Entity(nil), s.entities...), nil
}

func (s *InMemoryStore) FindEntity(_ context.Context, key string) (*models.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entities {
		if strings.EqualFold(e.Key, key) {
			found := e
			return &found, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListCollabs(_ context.Context) ([]models.Collab, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Collab(nil), s.collabs...), nil
}

func sortEntities(e []models.Entity) {
	sort.SliceStable(e, func(i, j int) bool {
		if e[i].Position != e[j].Position {
			return e[i].Position < e[j].Position
		}
		return e[i].Key < e[j].Key
	})
}

func sortCollabs(c []models.Collab) {
	sort.SliceStable(c, func(i, j int) bool {
		if c[i].Position != c[j].Position {
			return c[i].Position < c[j].Position
		}
		return c[i].ID < c[j].ID
	})
}

// Seed is the on-disk catalog format. Entity identifiers are kept in the
// data source's raw separator-delimited form.
type Seed struct {
	Entities []SeedEntity    `json:"entities"`
	Collabs  []models.Collab `json:"collabs"`
}

type SeedEntity struct {
	Key             string `json:"key"`
	DisplayName     string `json:"display_name"`
	Identifiers     string `json:"identifiers"`
	CoverRef        string `json:"cover_ref"`
	OutboundLink    string `json:"outbound_link"`
	GenderSensitive *bool  `json:"gender_sensitive"`
}

// Entities converts the seed rows, numbering positions in file order.
// Entities are gender sensitive unless the seed says otherwise.
func (s Seed) ToEntities() []models.Entity {
	out := make([]models.Entity, 0, len(s.Entities))
	for i, se := range s.Entities {
		sensitive := true
		if se.GenderSensitive != nil {
			sensitive = *se.GenderSensitive
		}
		out = append(out, models.Entity{
			Key:             strings.TrimSpace(se.Key),
			DisplayName:     strings.TrimSpace(se.DisplayName),
			Identifiers:     models.ParseIdentifiers(se.Identifiers),
			CoverRef:        se.CoverRef,
			OutboundLink:    strings.TrimSpace(se.OutboundLink),
			GenderSensitive: sensitive,
			Position:        i,
		})
	}
	return out
}

func (s Seed) ToCollabs() []models.Collab {
	out := make([]models.Collab, 0, len(s.Collabs))
	for i, c := range s.Collabs {
		c.Position = i
		out = append(out, c)
	}
	return out
}

// ReadSeedFile parses a catalog seed file.
func ReadSeedFile(path string) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog seed: %w", err)
	}
	defer f.Close()
	var seed Seed
	if err := json.NewDecoder(f).Decode(&seed); err != nil {
		return nil, fmt.Errorf("decode catalog seed: %w", err)
	}
	for i, e := range seed.Entities {
		if strings.TrimSpace(e.Key) == "" {
			return nil, fmt.Errorf("catalog seed entity %d has no key", i)
		}
	}
	return &seed, nil
}
