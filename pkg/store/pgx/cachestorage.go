// Package pgx implements store.CacheStorage on PostgreSQL.
package pgx

import (
	"context"
	"encoding/json"

	"github.com/weft-labs/weft/backend/internal/util"
	"github.com/weft-labs/weft/backend/pkg/common"
	"github.com/weft-labs/weft/backend/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CacheDBStorage implements the CacheStorage interface on four Postgres
// tables. Malformed rows (e.g. undecodable jsonb written by an older
// version) are logged and treated as cache misses.
type CacheDBStorage struct {
	conn pgxIConn
}

// NewCacheDBStorage creates a CacheDBStorage on an existing connection
// or pool. The schema is owned by the migrations under
// internal/db/migrations.
func NewCacheDBStorage(conn pgxIConn) *CacheDBStorage {
	return &CacheDBStorage{conn: conn}
}

func (s *CacheDBStorage) GetEntities(ctx context.Context, ids []common.EntityID) (map[common.EntityID]common.Entity, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, label, description, cached_at
		FROM wd_entities
		WHERE id = ANY($1)`, idStrings(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[common.EntityID]common.Entity, len(ids))
	for rows.Next() {
		var e common.Entity
		if err := rows.Scan(&e.ID, &e.Label, &e.Description, &e.CachedAt); err != nil {
			return nil, err
		}
		out[e.ID] = e
	}
	return out, rows.Err()
}

func (s *CacheDBStorage) PutEntities(ctx context.Context, entities []common.Entity) error {
	for _, e := range entities {
		_, err := s.conn.Exec(ctx, `
			INSERT INTO wd_entities (id, label, description, cached_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE
			SET label = EXCLUDED.label,
			    description = EXCLUDED.description,
			    cached_at = EXCLUDED.cached_at`,
			string(e.ID),
			util.SanitizePostgresText(e.Label),
			util.SanitizePostgresText(e.Description),
			e.CachedAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *CacheDBStorage) GetProperties(ctx context.Context, ids []common.PropertyID) (map[common.PropertyID]common.Property, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, label, description, global_usage, visible, cached_at
		FROM wd_properties
		WHERE id = ANY($1)`, propertyStrings(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[common.PropertyID]common.Property, len(ids))
	for rows.Next() {
		var p common.Property
		if err := rows.Scan(&p.ID, &p.Label, &p.Description, &p.GlobalUsage, &p.Visible, &p.CachedAt); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

// PutProperties refreshes label, description and cached_at. Usage count
// and visibility are user state and are deliberately left alone.
func (s *CacheDBStorage) PutProperties(ctx context.Context, properties []common.Property) error {
	for _, p := range properties {
		_, err := s.conn.Exec(ctx, `
			INSERT INTO wd_properties (id, label, description, global_usage, visible, cached_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE
			SET label = EXCLUDED.label,
			    description = EXCLUDED.description,
			    cached_at = EXCLUDED.cached_at`,
			string(p.ID),
			util.SanitizePostgresText(p.Label),
			util.SanitizePostgresText(p.Description),
			p.GlobalUsage,
			p.Visible,
			p.CachedAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *CacheDBStorage) PutPropertiesIfAbsent(ctx context.Context, properties []common.Property) error {
	for _, p := range properties {
		_, err := s.conn.Exec(ctx, `
			INSERT INTO wd_properties (id, label, description, global_usage, visible, cached_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO NOTHING`,
			string(p.ID),
			util.SanitizePostgresText(p.Label),
			util.SanitizePostgresText(p.Description),
			p.GlobalUsage,
			p.Visible,
			p.CachedAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *CacheDBStorage) IncrementPropertyUsage(ctx context.Context, id common.PropertyID) error {
	_, err := s.conn.Exec(ctx, `
		UPDATE wd_properties SET global_usage = global_usage + 1 WHERE id = $1`,
		string(id))
	return err
}

func (s *CacheDBStorage) SetPropertyVisible(ctx context.Context, id common.PropertyID, visible bool) error {
	_, err := s.conn.Exec(ctx, `
		UPDATE wd_properties SET visible = $2 WHERE id = $1`,
		string(id), visible)
	return err
}

func (s *CacheDBStorage) GetClaims(ctx context.Context, entityIDs []common.EntityID) (map[common.EntityID][]common.Claim, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT entity_id, property_id, claim_values, cached_at
		FROM wd_claims
		WHERE entity_id = ANY($1)`, idStrings(entityIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[common.EntityID][]common.Claim)
	for rows.Next() {
		var c common.Claim
		var rawValues []byte
		if err := rows.Scan(&c.EntityID, &c.PropertyID, &rawValues, &c.CachedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(rawValues, &c.Values); err != nil {
			logger.Warn("Dropping undecodable claim row", "entity", c.EntityID, "property", c.PropertyID, "err", err)
			continue
		}
		out[c.EntityID] = append(out[c.EntityID], c)
	}
	return out, rows.Err()
}

// ReplaceClaims swaps an entity's full claim set inside one transaction
// so readers never observe a mix of old and new facts.
func (s *CacheDBStorage) ReplaceClaims(ctx context.Context, entityID common.EntityID, claims []common.Claim) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM wd_claims WHERE entity_id = $1`, string(entityID)); err != nil {
		return err
	}
	for _, c := range claims {
		values, err := json.Marshal(c.Values)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO wd_claims (entity_id, property_id, claim_values, cached_at)
			VALUES ($1, $2, $3, $4)`,
			string(c.EntityID), string(c.PropertyID), values, c.CachedAt)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *CacheDBStorage) GetLabelResults(ctx context.Context, labels []string) (map[string]common.LabelResult, error) {
	// Rows are stored under the sanitized label, so lookups must use the
	// same key and map hits back to the label the caller asked with.
	keys := make([]string, len(labels))
	requested := make(map[string]string, len(labels))
	for i, l := range labels {
		k := util.SanitizePostgresText(l)
		keys[i] = k
		requested[k] = l
	}

	rows, err := s.conn.Query(ctx, `
		SELECT label, matches, match_order, cached_at
		FROM wd_labels
		WHERE label = ANY($1)`, keys)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]common.LabelResult, len(labels))
	for rows.Next() {
		var r common.LabelResult
		var rawMatches, rawOrder []byte
		if err := rows.Scan(&r.Label, &rawMatches, &rawOrder, &r.CachedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(rawMatches, &r.Matches); err != nil {
			logger.Warn("Dropping undecodable label row", "label", r.Label, "err", err)
			continue
		}
		if err := json.Unmarshal(rawOrder, &r.Order); err != nil {
			logger.Warn("Dropping undecodable label row", "label", r.Label, "err", err)
			continue
		}
		label, ok := requested[r.Label]
		if !ok {
			continue
		}
		r.Label = label
		out[label] = r
	}
	return out, rows.Err()
}

func (s *CacheDBStorage) PutLabelResults(ctx context.Context, results []common.LabelResult) error {
	for _, r := range results {
		matches, err := json.Marshal(r.Matches)
		if err != nil {
			return err
		}
		order, err := json.Marshal(r.Order)
		if err != nil {
			return err
		}
		_, err = s.conn.Exec(ctx, `
			INSERT INTO wd_labels (label, matches, match_order, cached_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (label) DO UPDATE
			SET matches = EXCLUDED.matches,
			    match_order = EXCLUDED.match_order,
			    cached_at = EXCLUDED.cached_at`,
			util.SanitizePostgresText(r.Label), matches, order, r.CachedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *CacheDBStorage) Clear(ctx context.Context) error {
	_, err := s.conn.Exec(ctx, `
		TRUNCATE wd_entities, wd_properties, wd_claims, wd_labels`)
	return err
}

func idStrings(ids []common.EntityID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func propertyStrings(ids []common.PropertyID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
