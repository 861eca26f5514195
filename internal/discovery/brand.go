package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/insights-cli/internal/model"
	"github.com/sells-group/insights-cli/internal/resilience"
	"github.com/sells-group/insights-cli/pkg/places"
)

// BrandSearch discovers places with one ranked text query ("keyword near
// address"), paginated until the provider stops or the page cap is hit.
// It never tiles; ranked search covers brand lookups well beyond r_max.
type BrandSearch struct {
	client places.Client
}

// NewBrandSearch creates the brand strategy.
func NewBrandSearch(client places.Client) *BrandSearch {
	return &BrandSearch{client: client}
}

// Name implements Strategy.
func (s *BrandSearch) Name() model.Strategy { return model.StrategyBrand }

// Discover implements Strategy.
func (s *BrandSearch) Discover(ctx context.Context, q model.SearchQuery) ([]model.PlaceCandidate, []model.Warning, error) {
	query := strings.TrimSpace(q.Keyword)
	if q.Address != "" {
		query = fmt.Sprintf("%s near %s", query, q.Address)
	}

	log := zap.L().With(zap.String("component", "discovery.brand"), zap.String("query", query))
	log.Info("starting brand search")

	results, err := s.client.TextSearch(ctx, query)
	warnings, err := downgradePartial(err, len(results), "text search")
	if err != nil {
		return nil, nil, err
	}

	candidates := make([]model.PlaceCandidate, 0, len(results))
	for _, r := range results {
		if r.PlaceID == "" {
			continue
		}
		candidates = append(candidates, candidateFromResult(r, model.UntiledSource, model.StrategyBrand))
	}

	log.Info("brand search complete", zap.Int("candidates", len(candidates)))
	return candidates, warnings, nil
}

// downgradePartial converts a fetch error into a warning when some results
// were collected. A failure with nothing collected stays fatal: that is total
// provider unavailability, not a partial outcome.
func downgradePartial(err error, collected int, unit string) ([]model.Warning, error) {
	if err == nil {
		return nil, nil
	}
	if errors.Is(err, resilience.ErrQuotaExceeded) {
		return []model.Warning{
			{Code: model.WarnQuotaExceeded, Detail: unit + ": provider quota exceeded"},
			{Code: model.WarnCoverageIncomplete, Detail: unit + " stopped early, results may be incomplete"},
		}, nil
	}
	if collected == 0 {
		return nil, err
	}
	return []model.Warning{
		{Code: model.WarnPageFailed, Detail: fmt.Sprintf("%s: %v", unit, err)},
		{Code: model.WarnCoverageIncomplete, Detail: unit + " stopped early, results may be incomplete"},
	}, nil
}

func candidateFromResult(r places.Result, tile int, strategy model.Strategy) model.PlaceCandidate {
	vicinity := r.Vicinity
	if vicinity == "" {
		vicinity = r.FormattedAddress
	}
	return model.PlaceCandidate{
		PlaceID:        r.PlaceID,
		Name:           r.Name,
		Location:       model.Coordinate{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng},
		Vicinity:       vicinity,
		Types:          r.Types,
		SourceTile:     tile,
		SourceStrategy: strategy,
	}
}
