package autoscaler

import (
	"sort"

	"github.com/aws-samples/sample-ManagedAutoScaler/autoscaler/structs"
)

// sortZonesByReaderCount returns the configured zones ordered by ascending
// reader count, so the least populated zone is tried first. The sort is
// stable; zones with equal counts keep their configured order.
func sortZonesByReaderCount(distribution structs.ZoneDistribution, zones []string) []string {
	sorted := make([]string, len(zones))
	copy(sorted, zones)

	sort.SliceStable(sorted, func(i, j int) bool {
		return distribution[sorted[i]] < distribution[sorted[j]]
	})

	return sorted
}

// placementPlan lazily generates the ordered sequence of placement
// candidates for one scale-up run. The preferred instance type is always
// tried across every zone first; the fallback grid then follows in the
// order the configured strategy dictates. Candidates are produced one at a
// time so consumption can stop at the first viable one.
type placementPlan struct {
	preferred string
	fallbacks []string
	zones     []string
	strategy  string

	preferredDone bool
	typeIdx       int
	zoneIdx       int
}

// newPlacementPlan builds a placement plan from the scale-up configuration
// and the pre-sorted zone list.
func newPlacementPlan(config *structs.ScaleUp, zones []string) *placementPlan {
	return &placementPlan{
		preferred: config.PreferredInstanceType,
		fallbacks: config.InstanceTypePriority,
		zones:     zones,
		strategy:  config.FallbackStrategy,
	}
}

// next returns the next placement candidate to try, or false once the
// sequence is exhausted.
func (p *placementPlan) next() (structs.PlacementCandidate, bool) {
	if !p.preferredDone {
		if p.preferred != "" && p.zoneIdx < len(p.zones) {
			candidate := structs.PlacementCandidate{
				InstanceType:     p.preferred,
				AvailabilityZone: p.zones[p.zoneIdx],
			}
			p.zoneIdx++
			return candidate, true
		}

		p.preferredDone = true
		p.typeIdx, p.zoneIdx = 0, 0
	}

	if len(p.fallbacks) == 0 || len(p.zones) == 0 {
		return structs.PlacementCandidate{}, false
	}

	switch p.strategy {
	case structs.StrategyAZPriority:
		// Zone major order: exhaust every fallback type in the emptiest
		// zone before moving to the next zone.
		if p.zoneIdx >= len(p.zones) {
			return structs.PlacementCandidate{}, false
		}

		candidate := structs.PlacementCandidate{
			InstanceType:     p.fallbacks[p.typeIdx],
			AvailabilityZone: p.zones[p.zoneIdx],
		}

		p.typeIdx++
		if p.typeIdx == len(p.fallbacks) {
			p.typeIdx = 0
			p.zoneIdx++
		}

		return candidate, true

	default:
		// Type major order is the default: exhaust every zone for the
		// highest priority fallback type before moving to the next type.
		if p.typeIdx >= len(p.fallbacks) {
			return structs.PlacementCandidate{}, false
		}

		candidate := structs.PlacementCandidate{
			InstanceType:     p.fallbacks[p.typeIdx],
			AvailabilityZone: p.zones[p.zoneIdx],
		}

		p.zoneIdx++
		if p.zoneIdx == len(p.zones) {
			p.zoneIdx = 0
			p.typeIdx++
		}

		return candidate, true
	}
}
