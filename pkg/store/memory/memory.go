// Package memory provides an in-memory CacheStorage used by tests and by
// deployments that run without a database.
package memory

import (
	"context"
	"sync"

	"github.com/weft-labs/weft/backend/pkg/common"
)

// CacheMemStorage implements store.CacheStorage with plain maps guarded
// by a mutex. Values are copied on the way in and out so callers cannot
// alias internal state.
type CacheMemStorage struct {
	mu         sync.RWMutex
	entities   map[common.EntityID]common.Entity
	properties map[common.PropertyID]common.Property
	claims     map[common.EntityID][]common.Claim
	labels     map[string]common.LabelResult
}

func NewCacheMemStorage() *CacheMemStorage {
	s := &CacheMemStorage{}
	s.reset()
	return s
}

func (s *CacheMemStorage) reset() {
	s.entities = make(map[common.EntityID]common.Entity)
	s.properties = make(map[common.PropertyID]common.Property)
	s.claims = make(map[common.EntityID][]common.Claim)
	s.labels = make(map[string]common.LabelResult)
}

func (s *CacheMemStorage) GetEntities(_ context.Context, ids []common.EntityID) (map[common.EntityID]common.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[common.EntityID]common.Entity, len(ids))
	for _, id := range ids {
		if e, ok := s.entities[id]; ok {
			out[id] = e
		}
	}
	return out, nil
}

func (s *CacheMemStorage) PutEntities(_ context.Context, entities []common.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entities {
		s.entities[e.ID] = e
	}
	return nil
}

func (s *CacheMemStorage) GetProperties(_ context.Context, ids []common.PropertyID) (map[common.PropertyID]common.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[common.PropertyID]common.Property, len(ids))
	for _, id := range ids {
		if p, ok := s.properties[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (s *CacheMemStorage) PutProperties(_ context.Context, properties []common.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range properties {
		if existing, ok := s.properties[p.ID]; ok {
			existing.Label = p.Label
			existing.Description = p.Description
			existing.CachedAt = p.CachedAt
			s.properties[p.ID] = existing
			continue
		}
		s.properties[p.ID] = p
	}
	return nil
}

func (s *CacheMemStorage) PutPropertiesIfAbsent(_ context.Context, properties []common.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range properties {
		if _, ok := s.properties[p.ID]; ok {
			continue
		}
		s.properties[p.ID] = p
	}
	return nil
}

func (s *CacheMemStorage) IncrementPropertyUsage(_ context.Context, id common.PropertyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.properties[id]
	if !ok {
		return nil
	}
	p.GlobalUsage++
	s.properties[id] = p
	return nil
}

func (s *CacheMemStorage) SetPropertyVisible(_ context.Context, id common.PropertyID, visible bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.properties[id]
	if !ok {
		return nil
	}
	p.Visible = visible
	s.properties[id] = p
	return nil
}

func (s *CacheMemStorage) GetClaims(_ context.Context, entityIDs []common.EntityID) (map[common.EntityID][]common.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[common.EntityID][]common.Claim, len(entityIDs))
	for _, id := range entityIDs {
		if claims, ok := s.claims[id]; ok {
			cp := make([]common.Claim, len(claims))
			copy(cp, claims)
			out[id] = cp
		}
	}
	return out, nil
}

func (s *CacheMemStorage) ReplaceClaims(_ context.Context, entityID common.EntityID, claims []common.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]common.Claim, len(claims))
	copy(cp, claims)
	s.claims[entityID] = cp
	return nil
}

func (s *CacheMemStorage) GetLabelResults(_ context.Context, labels []string) (map[string]common.LabelResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]common.LabelResult, len(labels))
	for _, l := range labels {
		if r, ok := s.labels[l]; ok {
			out[l] = r
		}
	}
	return out, nil
}

func (s *CacheMemStorage) PutLabelResults(_ context.Context, results []common.LabelResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range results {
		s.labels[r.Label] = r
	}
	return nil
}

func (s *CacheMemStorage) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	return nil
}
