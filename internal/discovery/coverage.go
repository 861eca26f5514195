package discovery

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/insights-cli/internal/geo"
	"github.com/sells-group/insights-cli/internal/model"
	"github.com/sells-group/insights-cli/internal/resilience"
	"github.com/sells-group/insights-cli/internal/tiling"
	"github.com/sells-group/insights-cli/pkg/places"
)

// GeoCoverage discovers places by covering the search circle with tiles and
// running a nearby search per tile. Tiles are fetched concurrently, but
// results are merged in tile order so dedup sees a stable sequence no matter
// which request finishes first.
type GeoCoverage struct {
	client      places.Client
	gen         *tiling.Generator
	concurrency int
}

// NewGeoCoverage creates the coverage strategy.
func NewGeoCoverage(client places.Client, cfg Config) *GeoCoverage {
	concurrency := cfg.TileConcurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	return &GeoCoverage{
		client:      client,
		gen:         tiling.NewGenerator(cfg.TileRadiusMeters),
		concurrency: concurrency,
	}
}

// Name implements Strategy.
func (s *GeoCoverage) Name() model.Strategy { return model.StrategyCoverage }

// Discover implements Strategy. A tile that still fails after retries becomes
// a warning, never a run failure; quota exhaustion stops the remaining tiles.
func (s *GeoCoverage) Discover(ctx context.Context, q model.SearchQuery) ([]model.PlaceCandidate, []model.Warning, error) {
	tiles, err := s.gen.Plan(q.Center, geo.MilesToMeters(q.RadiusMiles))
	if err != nil {
		return nil, nil, err
	}

	log := zap.L().With(
		zap.String("component", "discovery.coverage"),
		zap.Float64("radius_miles", q.RadiusMiles),
		zap.Int("tiles", len(tiles)),
	)
	log.Info("starting coverage sweep")

	byTile := make([][]places.Result, len(tiles))
	tileErrs := make([]error, len(tiles))
	var quotaHit atomic.Bool

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, tile := range tiles {
		g.Go(func() error {
			if quotaHit.Load() || gctx.Err() != nil {
				tileErrs[i] = gctx.Err()
				return nil
			}

			results, err := s.client.NearbySearch(gctx,
				tile.Center.Lat, tile.Center.Lng, int(tile.RadiusMeters), q.Keyword)
			byTile[i] = results
			if err != nil {
				tileErrs[i] = err
				if errors.Is(err, resilience.ErrQuotaExceeded) {
					quotaHit.Store(true)
				}
			}
			return nil // tile failures never abort the sweep
		})
	}
	_ = g.Wait()

	var candidates []model.PlaceCandidate
	var warnings []model.Warning
	failed := 0
	for i, tile := range tiles {
		for _, r := range byTile[i] {
			if r.PlaceID == "" {
				continue
			}
			candidates = append(candidates, candidateFromResult(r, tile.Index, model.StrategyCoverage))
		}
		if tileErrs[i] != nil {
			failed++
			if !errors.Is(tileErrs[i], resilience.ErrQuotaExceeded) && !errors.Is(tileErrs[i], context.Canceled) {
				warnings = append(warnings, model.Warning{
					Code:   model.WarnTileFailed,
					Detail: fmt.Sprintf("tile %d: %v", tile.Index, tileErrs[i]),
				})
			}
		}
	}

	if quotaHit.Load() {
		warnings = append(warnings, model.Warning{
			Code:   model.WarnQuotaExceeded,
			Detail: "provider quota exceeded during coverage sweep",
		})
	}
	if failed > 0 {
		if failed == len(tiles) && len(candidates) == 0 && !quotaHit.Load() {
			return nil, nil, eris.Errorf("discovery: all %d tiles failed", len(tiles))
		}
		warnings = append(warnings, model.Warning{
			Code:   model.WarnCoverageIncomplete,
			Detail: fmt.Sprintf("%d of %d tiles incomplete, results may be incomplete", failed, len(tiles)),
		})
	}

	log.Info("coverage sweep complete",
		zap.Int("candidates", len(candidates)),
		zap.Int("failed_tiles", failed),
	)
	return candidates, warnings, nil
}
