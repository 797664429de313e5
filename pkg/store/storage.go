package store

import (
	"context"

	"github.com/weft-labs/weft/backend/pkg/common"
)

// CacheStorage is the persistence surface consumed by the TTL cache
// layer: four independently keyed tables for entities, properties,
// claims and label query results. Implementations must treat absent or
// malformed rows as cache misses, never as errors.
type CacheStorage interface {
	GetEntities(ctx context.Context, ids []common.EntityID) (map[common.EntityID]common.Entity, error)
	PutEntities(ctx context.Context, entities []common.Entity) error

	GetProperties(ctx context.Context, ids []common.PropertyID) (map[common.PropertyID]common.Property, error)
	// PutProperties upserts, refreshing label, description and cached_at
	// while leaving usage and visibility untouched on existing rows.
	PutProperties(ctx context.Context, properties []common.Property) error
	// PutPropertiesIfAbsent inserts rows that do not exist yet and leaves
	// existing rows completely untouched.
	PutPropertiesIfAbsent(ctx context.Context, properties []common.Property) error
	IncrementPropertyUsage(ctx context.Context, id common.PropertyID) error
	SetPropertyVisible(ctx context.Context, id common.PropertyID, visible bool) error

	GetClaims(ctx context.Context, entityIDs []common.EntityID) (map[common.EntityID][]common.Claim, error)
	// ReplaceClaims atomically swaps the full claim set of one entity.
	ReplaceClaims(ctx context.Context, entityID common.EntityID, claims []common.Claim) error

	GetLabelResults(ctx context.Context, labels []string) (map[string]common.LabelResult, error)
	PutLabelResults(ctx context.Context, results []common.LabelResult) error

	// Clear wipes all four tables. The only deletion the cache performs.
	Clear(ctx context.Context) error
}
