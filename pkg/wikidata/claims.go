package wikidata

import (
	"encoding/json"
	"time"

	"github.com/weft-labs/weft/backend/pkg/common"
)

// RawEntity is the wire shape of one wbgetentities record. Labels and
// descriptions are keyed by language code; claims by property ID.
type RawEntity struct {
	ID           string                `json:"id"`
	Labels       map[string]langValue  `json:"labels"`
	Descriptions map[string]langValue  `json:"descriptions"`
	Claims       map[string][]rawClaim `json:"claims"`
}

type langValue struct {
	Language string `json:"language"`
	Value    string `json:"value"`
}

type rawClaim struct {
	MainSnak rawSnak `json:"mainsnak"`
	Rank     string  `json:"rank"`
}

type rawSnak struct {
	SnakType  string        `json:"snaktype"`
	Property  string        `json:"property"`
	DataValue *rawDataValue `json:"datavalue"`
}

type rawDataValue struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// Label returns the record's label in the given language, falling back to
// the entity ID when no label exists.
func (e RawEntity) Label(lang string) string {
	if lv, ok := e.Labels[lang]; ok && lv.Value != "" {
		return lv.Value
	}
	return e.ID
}

// Description returns the record's description in the given language.
func (e RawEntity) Description(lang string) string {
	return e.Descriptions[lang].Value
}

// ParseClaims converts a raw entity record into normalized claims. Snaks
// without a value slot ("novalue"/"somevalue") are skipped, every other
// value is converted through a fixed dispatch on the datavalue type, and
// anything unrecognized is preserved verbatim as an unknown value.
// Properties left with zero convertible values are dropped, so the result
// never contains a claim with an empty value list.
func ParseClaims(e RawEntity, cachedAt time.Time) []common.Claim {
	claims := make([]common.Claim, 0, len(e.Claims))
	for prop, raws := range e.Claims {
		values := make([]common.ClaimValue, 0, len(raws))
		for _, rc := range raws {
			snak := rc.MainSnak
			if snak.SnakType != "value" || snak.DataValue == nil {
				continue
			}
			values = append(values, convertValue(*snak.DataValue))
		}
		if len(values) == 0 {
			continue
		}
		claims = append(claims, common.Claim{
			EntityID:   common.EntityID(e.ID),
			PropertyID: common.PropertyID(prop),
			Values:     values,
			CachedAt:   cachedAt,
		})
	}
	return claims
}

func convertValue(dv rawDataValue) common.ClaimValue {
	switch dv.Type {
	case "wikibase-entityid":
		var v struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(dv.Value, &v); err == nil && v.ID != "" {
			return common.ClaimValue{
				Kind:    common.KindEntityRef,
				Display: v.ID,
				RefID:   common.EntityID(v.ID),
			}
		}
	case "string":
		var v string
		if err := json.Unmarshal(dv.Value, &v); err == nil {
			return common.ClaimValue{Kind: common.KindString, Display: v}
		}
	case "monolingualtext":
		var v struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(dv.Value, &v); err == nil {
			return common.ClaimValue{Kind: common.KindString, Display: v.Text}
		}
	case "time":
		var v struct {
			Time      string `json:"time"`
			Precision int    `json:"precision"`
		}
		if err := json.Unmarshal(dv.Value, &v); err == nil {
			return common.ClaimValue{
				Kind:    common.KindTime,
				Display: FormatTime(v.Time, v.Precision),
			}
		}
	case "quantity":
		var v struct {
			Amount string `json:"amount"`
		}
		if err := json.Unmarshal(dv.Value, &v); err == nil {
			return common.ClaimValue{
				Kind:    common.KindQuantity,
				Display: FormatQuantity(v.Amount),
			}
		}
	case "globecoordinate":
		var v struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		}
		if err := json.Unmarshal(dv.Value, &v); err == nil {
			return common.ClaimValue{
				Kind:    common.KindCoordinate,
				Display: FormatCoordinate(v.Latitude, v.Longitude),
			}
		}
	}
	// Unrecognized or malformed types keep their serialized form.
	return common.ClaimValue{Kind: common.KindUnknown, Display: string(dv.Value)}
}
