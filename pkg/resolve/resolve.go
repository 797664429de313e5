// Package resolve implements the resolution pipeline: table labels go out
// to the graph client, come back as disambiguated entity matches, and
// every intermediate result is written through the TTL cache so repeat
// requests stay off the network.
package resolve

import (
	"context"

	"github.com/weft-labs/weft/backend/pkg/cache"
	"github.com/weft-labs/weft/backend/pkg/common"
	"github.com/weft-labs/weft/backend/pkg/logger"
	"github.com/weft-labs/weft/backend/pkg/wikidata"
)

// GraphClient is the slice of the Wikidata client the pipeline needs.
type GraphClient interface {
	FetchEntitiesByID(ctx context.Context, ids []common.EntityID) (map[common.EntityID]wikidata.RawEntity, error)
	FetchEntitiesByLabel(ctx context.Context, labels []string) (map[string]common.LabelResult, error)
	Language() string
}

// RefreshPublisher hands entity IDs with stale claim sets to a background
// worker that pre-warms the cache.
type RefreshPublisher interface {
	PublishRefresh(ctx context.Context, entityIDs []common.EntityID) error
}

// Service is the resolution pipeline exposed to the column-injection
// consumer. It owns no global state; client and cache are injected.
type Service struct {
	client    GraphClient
	cache     *cache.Service
	publisher RefreshPublisher
}

// Option adjusts a Service.
type Option func(*Service)

// WithRefreshPublisher enables background claim pre-warming after a
// resolve. Without it the pipeline fetches everything on demand.
func WithRefreshPublisher(p RefreshPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

func NewService(client GraphClient, cacheSvc *cache.Service, opts ...Option) *Service {
	s := &Service{client: client, cache: cacheSvc}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolution is the outcome of resolving one table's key column.
type Resolution struct {
	Rows         []common.RowMatch             `json:"rows"`
	PrimaryTypes []string                      `json:"primary_types"`
	TypeScores   map[string]int                `json:"type_scores"`
	Candidates   map[string]common.LabelResult `json:"candidates"`
}

// ResolveRows resolves the raw cell texts of a key column to entities.
// Labels are normalized, looked up through the label cache, and only the
// stale remainder goes out to the SPARQL endpoint. selectedTypes narrows
// candidate selection; pass nil for the first-candidate default. Rows
// that match nothing are reported unmatched, they never fail the call.
func (s *Service) ResolveRows(ctx context.Context, labels []string, selectedTypes []string) (*Resolution, error) {
	normalized := make([]string, len(labels))
	for i, l := range labels {
		normalized[i] = wikidata.NormalizeLabel(l)
	}

	distinct := wikidata.NormalizeLabels(labels)
	results, stale, err := s.cache.Labels.GetFresh(ctx, distinct)
	if err != nil {
		return nil, err
	}

	if len(stale) > 0 {
		fetched, err := s.client.FetchEntitiesByLabel(ctx, stale)
		if err != nil {
			return nil, err
		}
		toSave := make([]common.LabelResult, 0, len(fetched))
		for label, r := range fetched {
			results[label] = r
			toSave = append(toSave, r)
		}
		if err := s.cache.Labels.Save(ctx, toSave); err != nil {
			return nil, err
		}
	}

	// Score types over rows, not over distinct labels: two rows sharing
	// a label both count.
	var scoringRows []common.LabelResult
	for _, n := range normalized {
		if n == "" {
			continue
		}
		if r, ok := results[n]; ok {
			scoringRows = append(scoringRows, r)
		}
	}
	scores, primary := ScoreTypes(scoringRows)

	rows := make([]common.RowMatch, len(labels))
	var resolved []common.EntityID
	for i, n := range normalized {
		rows[i] = common.RowMatch{Row: i}
		r, ok := results[n]
		if n == "" || !ok {
			continue
		}
		id, display, matched := resolveCandidate(r, selectedTypes)
		if !matched {
			continue
		}
		rows[i].EntityID = id
		rows[i].Label = display
		resolved = append(resolved, id)
	}

	s.prewarmClaims(ctx, resolved)

	return &Resolution{
		Rows:         rows,
		PrimaryTypes: primary,
		TypeScores:   scores,
		Candidates:   results,
	}, nil
}

// prewarmClaims hands entities with stale claim sets to the refresh
// worker. Best effort: a dead queue only costs the pre-warm.
func (s *Service) prewarmClaims(ctx context.Context, ids []common.EntityID) {
	if s.publisher == nil || len(ids) == 0 {
		return
	}
	_, stale, err := s.cache.Claims.GetFresh(ctx, ids)
	if err != nil || len(stale) == 0 {
		return
	}
	if err := s.publisher.PublishRefresh(ctx, stale); err != nil {
		logger.Warn("Failed to publish refresh job", "entities", len(stale), "err", err)
	}
}

// GetClaims returns the claim sets for the given entities, serving fresh
// cache entries and fetching only the stale remainder. Entities the
// upstream no longer knows are absent from the result.
func (s *Service) GetClaims(ctx context.Context, entityIDs []common.EntityID) (map[common.EntityID][]common.Claim, error) {
	fresh, stale, err := s.cache.Claims.GetFresh(ctx, entityIDs)
	if err != nil {
		return nil, err
	}
	if len(stale) == 0 {
		return fresh, nil
	}

	fetched, err := s.FetchAndCache(ctx, stale)
	if err != nil {
		return nil, err
	}
	for id, claims := range fetched {
		fresh[id] = claims
	}
	return fresh, nil
}

// GetEntities returns the fresh cached entity records (label and
// description) for the given IDs. Records are written by FetchAndCache;
// stale or never-fetched entries are simply omitted, this never goes to
// the network.
func (s *Service) GetEntities(ctx context.Context, entityIDs []common.EntityID) (map[common.EntityID]common.Entity, error) {
	fresh, _, err := s.cache.Entities.GetFresh(ctx, entityIDs)
	return fresh, err
}

// FetchAndCache pulls entity records for the given IDs, parses their
// claims and write-through saves entities and claim sets. Each entity's
// cache write happens only after its batch fully parsed. Also used by
// the refresh worker.
func (s *Service) FetchAndCache(ctx context.Context, ids []common.EntityID) (map[common.EntityID][]common.Claim, error) {
	records, err := s.client.FetchEntitiesByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	lang := s.client.Language()
	out := make(map[common.EntityID][]common.Claim, len(records))
	entities := make([]common.Entity, 0, len(records))
	for id, rec := range records {
		claims := wikidata.ParseClaims(rec, s.cache.Now())
		entities = append(entities, common.Entity{
			ID:          id,
			Label:       rec.Label(lang),
			Description: rec.Description(lang),
		})
		if err := s.cache.Claims.Save(ctx, id, claims); err != nil {
			return nil, err
		}
		out[id] = claims
	}
	if err := s.cache.Entities.Save(ctx, entities); err != nil {
		return nil, err
	}
	return out, nil
}

// RankProperties computes the ranked column-candidate list for a set of
// resolved entities: row coverage from their claim sets, property labels
// from the property cache (re-fetched when stale), cross-table usage and
// visibility from the stored property rows.
func (s *Service) RankProperties(ctx context.Context, entityIDs []common.EntityID) ([]common.PropertyStat, error) {
	claims, err := s.GetClaims(ctx, entityIDs)
	if err != nil {
		return nil, err
	}
	coverage := AggregateCoverage(claims, countDistinct(entityIDs))

	propertyIDs := make([]common.PropertyID, 0, len(coverage))
	for id := range coverage {
		propertyIDs = append(propertyIDs, id)
	}

	if err := s.refreshProperties(ctx, propertyIDs); err != nil {
		return nil, err
	}
	properties, err := s.cache.Properties.Get(ctx, propertyIDs)
	if err != nil {
		return nil, err
	}
	return rankProperties(coverage, properties), nil
}

// refreshProperties re-fetches stale or unknown property records.
// Property records are entities too, so they go through the same
// document API; the write policy refreshes text without touching usage
// or visibility.
func (s *Service) refreshProperties(ctx context.Context, ids []common.PropertyID) error {
	_, stale, err := s.cache.Properties.GetFresh(ctx, ids)
	if err != nil || len(stale) == 0 {
		return err
	}

	fetchIDs := make([]common.EntityID, len(stale))
	for i, id := range stale {
		fetchIDs[i] = common.EntityID(id)
	}
	records, err := s.client.FetchEntitiesByID(ctx, fetchIDs)
	if err != nil {
		return err
	}

	lang := s.client.Language()
	properties := make([]common.Property, 0, len(records))
	for id, rec := range records {
		properties = append(properties, common.Property{
			ID:          common.PropertyID(id),
			Label:       rec.Label(lang),
			Description: rec.Description(lang),
			Visible:     true,
		})
	}
	return s.cache.Properties.Save(ctx, properties, cache.UpsertRefresh)
}

// RecordPropertyUse registers one "add this property as a column"
// action. The insert-if-absent seed keeps the increment from racing a
// concurrent refresh into a lost row, and never clobbers an existing one.
func (s *Service) RecordPropertyUse(ctx context.Context, id common.PropertyID) error {
	seed := common.Property{ID: id, Visible: true}
	if err := s.cache.Properties.Save(ctx, []common.Property{seed}, cache.InsertIfAbsent); err != nil {
		return err
	}
	return s.cache.Properties.RecordUsage(ctx, id)
}

// SetPropertyVisible toggles a property in the candidate list.
func (s *Service) SetPropertyVisible(ctx context.Context, id common.PropertyID, visible bool) error {
	return s.cache.Properties.SetVisible(ctx, id, visible)
}

// ClearCache wipes all four stores.
func (s *Service) ClearCache(ctx context.Context) error {
	return s.cache.Clear(ctx)
}

func countDistinct(ids []common.EntityID) int {
	seen := make(map[common.EntityID]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return len(seen)
}
