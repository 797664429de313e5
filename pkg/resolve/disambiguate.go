package resolve

import (
	"math"
	"sort"

	"github.com/weft-labs/weft/backend/pkg/common"
)

// ScoreTypes computes the dominant instance-of types over a label set.
// Every row contributes the union of its candidates' types exactly once,
// so a type carried by many candidates of the same row cannot inflate its
// own score. Scores are percentages over the rows that had at least one
// candidate. Primary types are all types tied for the maximum; ties are
// kept, not broken.
func ScoreTypes(rows []common.LabelResult) (map[string]int, []string) {
	counts := make(map[string]int)
	rowsWithCandidates := 0

	for _, row := range rows {
		if len(row.Matches) == 0 {
			continue
		}
		rowsWithCandidates++

		union := make(map[string]struct{})
		for _, m := range row.Matches {
			for _, t := range m.InstanceTypes {
				union[t] = struct{}{}
			}
		}
		for t := range union {
			counts[t]++
		}
	}

	scores := make(map[string]int, len(counts))
	if rowsWithCandidates == 0 {
		return scores, nil
	}

	best := 0
	for t, n := range counts {
		pct := int(math.Round(100 * float64(n) / float64(rowsWithCandidates)))
		scores[t] = pct
		if pct > best {
			best = pct
		}
	}

	var primary []string
	for t, pct := range scores {
		if pct == best {
			primary = append(primary, t)
		}
	}
	sort.Strings(primary)
	return scores, primary
}

// resolveCandidate picks one entity for a row. Without a type selection
// the first-encountered candidate wins. With a selection, the first
// candidate (in insertion order) whose instance-of set intersects the
// selection wins; otherwise the row stays unresolved. The choice is
// deterministic for a given selection.
func resolveCandidate(row common.LabelResult, selectedTypes []string) (common.EntityID, string, bool) {
	if len(row.Order) == 0 {
		return "", "", false
	}
	if len(selectedTypes) == 0 {
		id := row.Order[0]
		return id, row.Matches[id].Label, true
	}

	selected := make(map[string]struct{}, len(selectedTypes))
	for _, t := range selectedTypes {
		selected[t] = struct{}{}
	}
	for _, id := range row.Order {
		for _, t := range row.Matches[id].InstanceTypes {
			if _, ok := selected[t]; ok {
				return id, row.Matches[id].Label, true
			}
		}
	}
	return "", "", false
}
