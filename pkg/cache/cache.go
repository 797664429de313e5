// Package cache implements the TTL layer over the backing cache storage.
// Reads partition keys into already-valid data and stale/missing keys
// without touching the network; writes are write-through with a refreshed
// timestamp. Records are never evicted, staleness is decided lazily at
// read time and the only deletion is an explicit clear-all.
package cache

import (
	"context"
	"time"

	"github.com/weft-labs/weft/backend/pkg/common"
	"github.com/weft-labs/weft/backend/pkg/store"
)

// DefaultTTL is the freshness bound for every store.
const DefaultTTL = 24 * time.Hour

// WritePolicy names the two property write modes. UpsertRefresh updates
// label and description text after a re-fetch; InsertIfAbsent seeds rows
// without ever clobbering user-adjusted usage or visibility state.
type WritePolicy int

const (
	UpsertRefresh WritePolicy = iota
	InsertIfAbsent
)

// Service bundles the four independent TTL stores. It is passed into the
// resolution pipeline explicitly; there is no process-wide singleton.
type Service struct {
	Entities   *EntityCache
	Properties *PropertyCache
	Claims     *ClaimCache
	Labels     *LabelCache

	storage store.CacheStorage
}

// Option adjusts a Service. Used by tests to control the clock and TTL.
type Option func(*settings)

type settings struct {
	ttl time.Duration
	now func() time.Time
}

func WithTTL(ttl time.Duration) Option {
	return func(s *settings) { s.ttl = ttl }
}

func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

func NewService(storage store.CacheStorage, opts ...Option) *Service {
	cfg := settings{ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Service{
		Entities:   &EntityCache{storage: storage, settings: cfg},
		Properties: &PropertyCache{storage: storage, settings: cfg},
		Claims:     &ClaimCache{storage: storage, settings: cfg},
		Labels:     &LabelCache{storage: storage, settings: cfg},
		storage:    storage,
	}
}

// Clear wipes every store.
func (s *Service) Clear(ctx context.Context) error {
	return s.storage.Clear(ctx)
}

// Now exposes the service clock, so pipeline timestamps line up with
// freshness decisions in tests.
func (s *Service) Now() time.Time {
	return s.Entities.now()
}

// fresh reports whether a record written at cachedAt may still be
// served. The boundary is exclusive: a record aged exactly TTL is stale.
func (c settings) fresh(cachedAt time.Time) bool {
	return c.now().Sub(cachedAt) < c.ttl
}

// EntityCache is the TTL store for entity records keyed by entity ID.
type EntityCache struct {
	storage store.CacheStorage
	settings
}

// GetFresh partitions ids into still-fresh records and stale-or-missing
// ids. Duplicate input ids are collapsed; every distinct id lands in
// exactly one of the two result sets.
func (c *EntityCache) GetFresh(ctx context.Context, ids []common.EntityID) (map[common.EntityID]common.Entity, []common.EntityID, error) {
	ids = dedupe(ids)
	cached, err := c.storage.GetEntities(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	fresh := make(map[common.EntityID]common.Entity)
	var stale []common.EntityID
	for _, id := range ids {
		if e, ok := cached[id]; ok && c.fresh(e.CachedAt) {
			fresh[id] = e
			continue
		}
		stale = append(stale, id)
	}
	return fresh, stale, nil
}

// Save write-through upserts entities with a refreshed timestamp.
func (c *EntityCache) Save(ctx context.Context, entities []common.Entity) error {
	now := c.now()
	stamped := make([]common.Entity, len(entities))
	for i, e := range entities {
		e.CachedAt = now
		stamped[i] = e
	}
	return c.storage.PutEntities(ctx, stamped)
}

// PropertyCache is the TTL store for property records keyed by property ID.
type PropertyCache struct {
	storage store.CacheStorage
	settings
}

func (c *PropertyCache) GetFresh(ctx context.Context, ids []common.PropertyID) (map[common.PropertyID]common.Property, []common.PropertyID, error) {
	ids = dedupe(ids)
	cached, err := c.storage.GetProperties(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	fresh := make(map[common.PropertyID]common.Property)
	var stale []common.PropertyID
	for _, id := range ids {
		if p, ok := cached[id]; ok && c.fresh(p.CachedAt) {
			fresh[id] = p
			continue
		}
		stale = append(stale, id)
	}
	return fresh, stale, nil
}

// Get returns property records regardless of freshness. Ranking prefers
// a stale label over no label; freshness only gates re-fetching.
func (c *PropertyCache) Get(ctx context.Context, ids []common.PropertyID) (map[common.PropertyID]common.Property, error) {
	return c.storage.GetProperties(ctx, dedupe(ids))
}

// Save writes properties under the given policy.
func (c *PropertyCache) Save(ctx context.Context, properties []common.Property, policy WritePolicy) error {
	now := c.now()
	stamped := make([]common.Property, len(properties))
	for i, p := range properties {
		p.CachedAt = now
		stamped[i] = p
	}
	if policy == InsertIfAbsent {
		return c.storage.PutPropertiesIfAbsent(ctx, stamped)
	}
	return c.storage.PutProperties(ctx, stamped)
}

// RecordUsage bumps the cross-table usage counter of a property once.
func (c *PropertyCache) RecordUsage(ctx context.Context, id common.PropertyID) error {
	return c.storage.IncrementPropertyUsage(ctx, id)
}

// SetVisible toggles the user-facing visibility of a property.
func (c *PropertyCache) SetVisible(ctx context.Context, id common.PropertyID, visible bool) error {
	return c.storage.SetPropertyVisible(ctx, id, visible)
}

// ClaimCache is the TTL store for claim sets keyed by entity ID.
type ClaimCache struct {
	storage store.CacheStorage
	settings
}

// GetFresh partitions entity ids by the freshness of their whole claim
// set: an entity is fresh only if at least one claim row exists and every
// claim row is fresh. One stale row invalidates the entity's entire set,
// since claims are fetched and replaced atomically per entity.
func (c *ClaimCache) GetFresh(ctx context.Context, entityIDs []common.EntityID) (map[common.EntityID][]common.Claim, []common.EntityID, error) {
	entityIDs = dedupe(entityIDs)
	cached, err := c.storage.GetClaims(ctx, entityIDs)
	if err != nil {
		return nil, nil, err
	}

	fresh := make(map[common.EntityID][]common.Claim)
	var stale []common.EntityID
	for _, id := range entityIDs {
		claims := cached[id]
		if len(claims) > 0 && c.allFresh(claims) {
			fresh[id] = claims
			continue
		}
		stale = append(stale, id)
	}
	return fresh, stale, nil
}

func (c *ClaimCache) allFresh(claims []common.Claim) bool {
	for _, claim := range claims {
		if !c.fresh(claim.CachedAt) {
			return false
		}
	}
	return true
}

// Save replaces one entity's claim set with a refreshed timestamp.
func (c *ClaimCache) Save(ctx context.Context, entityID common.EntityID, claims []common.Claim) error {
	now := c.now()
	stamped := make([]common.Claim, len(claims))
	for i, claim := range claims {
		claim.CachedAt = now
		stamped[i] = claim
	}
	return c.storage.ReplaceClaims(ctx, entityID, stamped)
}

// LabelCache is the TTL store for label query results keyed by the
// normalized label. Negative results (empty match maps) are cached like
// any other row so unmatched labels do not keep re-hitting the network.
type LabelCache struct {
	storage store.CacheStorage
	settings
}

func (c *LabelCache) GetFresh(ctx context.Context, labels []string) (map[string]common.LabelResult, []string, error) {
	labels = dedupe(labels)
	cached, err := c.storage.GetLabelResults(ctx, labels)
	if err != nil {
		return nil, nil, err
	}

	fresh := make(map[string]common.LabelResult)
	var stale []string
	for _, l := range labels {
		if r, ok := cached[l]; ok && c.fresh(r.CachedAt) {
			fresh[l] = r
			continue
		}
		stale = append(stale, l)
	}
	return fresh, stale, nil
}

func (c *LabelCache) Save(ctx context.Context, results []common.LabelResult) error {
	now := c.now()
	stamped := make([]common.LabelResult, len(results))
	for i, r := range results {
		r.CachedAt = now
		stamped[i] = r
	}
	return c.storage.PutLabelResults(ctx, stamped)
}

func dedupe[K comparable](keys []K) []K {
	seen := make(map[K]struct{}, len(keys))
	out := keys[:0:0]
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
