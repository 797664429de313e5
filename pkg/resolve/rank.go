package resolve

import (
	"math"
	"sort"

	"github.com/weft-labs/weft/backend/pkg/common"
)

// AggregateCoverage computes, per property, the percentage of resolved
// entities exposing it. An entity contributes each distinct property once
// no matter how many values it holds for it.
func AggregateCoverage(claimsByEntity map[common.EntityID][]common.Claim, totalEntities int) map[common.PropertyID]int {
	coverage := make(map[common.PropertyID]int)
	if totalEntities == 0 {
		return coverage
	}

	counts := make(map[common.PropertyID]int)
	for _, claims := range claimsByEntity {
		seen := make(map[common.PropertyID]struct{}, len(claims))
		for _, c := range claims {
			if _, ok := seen[c.PropertyID]; ok {
				continue
			}
			seen[c.PropertyID] = struct{}{}
			counts[c.PropertyID]++
		}
	}
	for id, n := range counts {
		coverage[id] = int(math.Round(100 * float64(n) / float64(totalEntities)))
	}
	return coverage
}

// rankProperties orders column candidates. Cross-table popularity is the
// primary signal; row coverage in the current table breaks ties; the
// property ID breaks the remaining ties to keep the order stable.
func rankProperties(coverage map[common.PropertyID]int, properties map[common.PropertyID]common.Property) []common.PropertyStat {
	stats := make([]common.PropertyStat, 0, len(coverage))
	for id, pct := range coverage {
		stat := common.PropertyStat{
			ID:              id,
			CoveragePercent: pct,
			Visible:         true,
		}
		if p, ok := properties[id]; ok {
			stat.Label = p.Label
			stat.Description = p.Description
			stat.GlobalUsage = p.GlobalUsage
			stat.Visible = p.Visible
		}
		stats = append(stats, stat)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].GlobalUsage != stats[j].GlobalUsage {
			return stats[i].GlobalUsage > stats[j].GlobalUsage
		}
		if stats[i].CoveragePercent != stats[j].CoveragePercent {
			return stats[i].CoveragePercent > stats[j].CoveragePercent
		}
		return stats[i].ID < stats[j].ID
	})
	return stats
}
