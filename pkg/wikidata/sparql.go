package wikidata

import (
	"fmt"
	"strings"
)

// LabelBinding is one flat row of the label query result. The endpoint
// does not group rows; one binding is emitted per (entity, instance-of
// type) pair and InstanceType may be empty when the entity has none.
type LabelBinding struct {
	EntityID     string
	MatchedLabel string
	DisplayLabel string
	InstanceType string
}

// sparql JSON result envelope.
type sparqlResponse struct {
	Results struct {
		Bindings []map[string]sparqlValue `json:"bindings"`
	} `json:"results"`
}

type sparqlValue struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

const entityURIPrefix = "http://www.wikidata.org/entity/"

// buildLabelQuery renders the label lookup query with an inlined VALUES
// clause of language-tagged literals. Callers are responsible for keeping
// the label count within the batch limit.
func buildLabelQuery(labels []string, lang string) string {
	var values strings.Builder
	for _, l := range labels {
		fmt.Fprintf(&values, "\"%s\"@%s ", escapeLiteral(l), lang)
	}
	return fmt.Sprintf(`SELECT ?item ?matched ?itemLabel ?typeLabel WHERE {
  VALUES ?matched { %s}
  ?item rdfs:label ?matched.
  OPTIONAL {
    ?item wdt:P31 ?type.
    ?type rdfs:label ?typeLabel.
    FILTER(LANG(?typeLabel) = "%s")
  }
  SERVICE wikibase:label { bd:serviceParam wikibase:language "%s". }
}`, values.String(), lang, lang)
}

func escapeLiteral(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

func (r sparqlResponse) labelBindings() []LabelBinding {
	out := make([]LabelBinding, 0, len(r.Results.Bindings))
	for _, b := range r.Results.Bindings {
		item := b["item"].Value
		if !strings.HasPrefix(item, entityURIPrefix) {
			continue
		}
		out = append(out, LabelBinding{
			EntityID:     strings.TrimPrefix(item, entityURIPrefix),
			MatchedLabel: b["matched"].Value,
			DisplayLabel: b["itemLabel"].Value,
			InstanceType: b["typeLabel"].Value,
		})
	}
	return out
}
