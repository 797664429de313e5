package common

import "time"

// EntityID is a Wikidata item identifier, e.g. "Q90".
type EntityID string

// PropertyID is a Wikidata property identifier, e.g. "P31".
type PropertyID string

// Entity is the cached record of a knowledge-graph item. Its claims are
// kept in the claim store, not inline. Entities are created on the first
// successful fetch and are immutable once cached except for the CachedAt
// refresh on re-fetch.
type Entity struct {
	ID          EntityID  `json:"id"`
	Label       string    `json:"label"`
	Description string    `json:"description,omitempty"`
	CachedAt    time.Time `json:"cached_at"`
}

// Property represents a knowledge-graph property that can be appended to
// a table as a new column. GlobalUsage counts how often a user has added
// this property as a column, cumulative across all tables.
type Property struct {
	ID          PropertyID `json:"id"`
	Label       string     `json:"label"`
	Description string     `json:"description"`
	GlobalUsage int64      `json:"global_usage"`
	Visible     bool       `json:"visible"`
	CachedAt    time.Time  `json:"cached_at"`
}

// Claim groups every value a single entity has for a single property.
// Multi-valued properties keep all of their values.
type Claim struct {
	EntityID   EntityID     `json:"entity_id"`
	PropertyID PropertyID   `json:"property_id"`
	Values     []ClaimValue `json:"values"`
	CachedAt   time.Time    `json:"cached_at"`
}

// ValueKind tags the type of a claim value.
type ValueKind string

const (
	KindEntityRef  ValueKind = "entity-ref"
	KindString     ValueKind = "string"
	KindTime       ValueKind = "time"
	KindQuantity   ValueKind = "quantity"
	KindCoordinate ValueKind = "coordinate"
	KindUnknown    ValueKind = "unknown"
)

// ClaimValue is a single typed value of a claim. RefID is set if and only
// if Kind is KindEntityRef.
type ClaimValue struct {
	Kind    ValueKind `json:"kind"`
	Display string    `json:"display"`
	RefID   EntityID  `json:"ref_id,omitempty"`
}

// LabelMatch is one candidate entity for a queried label.
type LabelMatch struct {
	Label         string   `json:"label"`
	InstanceTypes []string `json:"instance_types"`
}

// LabelResult is the cached outcome of a label query, keyed by the
// normalized label. An empty Matches map records that the label matched
// nothing, so the miss is not re-queried before the TTL lapses.
type LabelResult struct {
	Label    string                  `json:"label"`
	Matches  map[EntityID]LabelMatch `json:"matches"`
	Order    []EntityID              `json:"order"`
	CachedAt time.Time               `json:"cached_at"`
}

// RowMatch reports the resolution outcome for one source table row.
// EntityID is empty when no match was found.
type RowMatch struct {
	Row      int      `json:"row"`
	EntityID EntityID `json:"entity_id,omitempty"`
	Label    string   `json:"label,omitempty"`
}

// PropertyStat is one entry of the ranked property list offered to the
// user as a column candidate.
type PropertyStat struct {
	ID              PropertyID `json:"id"`
	Label           string     `json:"label"`
	Description     string     `json:"description"`
	CoveragePercent int        `json:"coverage_percent"`
	GlobalUsage     int64      `json:"global_usage"`
	Visible         bool       `json:"visible"`
}
