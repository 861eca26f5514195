// Package discovery turns a search query into a duplicate-free, radius-true
// set of places using one of two interchangeable strategies: a ranked brand
// text search, or a tiled nearby-search sweep of the whole circle.
package discovery

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/insights-cli/internal/model"
	"github.com/sells-group/insights-cli/pkg/places"
)

// Config holds the discovery knobs shared by both strategies.
type Config struct {
	// TileRadiusMeters is the provider's per-call search radius cap.
	TileRadiusMeters float64

	// TileConcurrency bounds parallel tile fetches for the coverage strategy.
	TileConcurrency int
}

// Strategy produces raw place candidates for a search query. Strategies may
// return places outside the requested radius; the radius filter downstream is
// the only authority on scope.
type Strategy interface {
	Name() model.Strategy
	Discover(ctx context.Context, q model.SearchQuery) ([]model.PlaceCandidate, []model.Warning, error)
}

// New selects the strategy implementation for the query's strategy field.
func New(strategy model.Strategy, client places.Client, cfg Config) (Strategy, error) {
	switch strategy {
	case model.StrategyBrand:
		return NewBrandSearch(client), nil
	case model.StrategyCoverage:
		return NewGeoCoverage(client, cfg), nil
	default:
		return nil, eris.Errorf("discovery: unknown strategy %q", strategy)
	}
}
