package discovery

import (
	"sort"

	"github.com/sells-group/insights-cli/internal/geo"
	"github.com/sells-group/insights-cli/internal/model"
)

// Dedupe collapses candidates sharing a place_id. The first-seen candidate
// wins; later duplicates are discarded without merging fields. Output order
// follows first-seen order, and the function is idempotent.
func Dedupe(in []model.PlaceCandidate) []model.PlaceCandidate {
	seen := make(map[string]struct{}, len(in))
	out := make([]model.PlaceCandidate, 0, len(in))
	for _, c := range in {
		if c.PlaceID == "" {
			continue
		}
		if _, dup := seen[c.PlaceID]; dup {
			continue
		}
		seen[c.PlaceID] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Promote converts deduplicated candidates into Places, computing each one's
// great-circle distance from the search center. Distance is always computed
// here, never taken from the provider.
func Promote(in []model.PlaceCandidate, center model.Coordinate) []model.Place {
	out := make([]model.Place, 0, len(in))
	for _, c := range in {
		out = append(out, model.Place{
			PlaceID:        c.PlaceID,
			Name:           c.Name,
			Location:       c.Location,
			Address:        c.Vicinity,
			Types:          c.Types,
			DistanceMiles:  geo.HaversineMiles(center, c.Location),
			SourceTile:     c.SourceTile,
			SourceStrategy: c.SourceStrategy,
		})
	}
	return out
}

// FilterRadius keeps places whose distance from the center is at most
// radiusMiles, boundary inclusive, and orders survivors nearest-first.
// This filter is the sole authority on whether a place is in scope.
func FilterRadius(in []model.Place, radiusMiles float64) []model.Place {
	out := make([]model.Place, 0, len(in))
	for _, p := range in {
		if p.DistanceMiles <= radiusMiles {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceMiles < out[j].DistanceMiles
	})
	return out
}
