// Package reviews fetches place details and review rows for the places that
// survived the radius filter.
package reviews

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/insights-cli/internal/model"
	"github.com/sells-group/insights-cli/internal/resilience"
	"github.com/sells-group/insights-cli/pkg/places"
)

// Collector fetches per-place details through a bounded worker pool.
type Collector struct {
	client      places.Client
	concurrency int
}

// NewCollector creates a Collector. Concurrency bounds parallel details
// fetches; values below 1 fall back to 8.
func NewCollector(client places.Client, concurrency int) *Collector {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Collector{client: client, concurrency: concurrency}
}

// Collect enriches each place with its details and emits one Review row per
// review the provider exposes. The provider returns only a small recent
// subset per place; that is an upstream limitation, not an error. A place
// whose details fetch fails is kept with zero reviews and reported as a
// warning. Output order follows input place order regardless of which fetch
// finishes first.
func (c *Collector) Collect(ctx context.Context, in []model.Place) ([]model.Place, []model.Review, []model.Warning, error) {
	log := zap.L().With(zap.String("component", "reviews.collector"), zap.Int("places", len(in)))
	log.Info("collecting reviews")

	enriched := make([]model.Place, len(in))
	copy(enriched, in)
	byPlace := make([][]model.Review, len(in))
	fetchErrs := make([]error, len(in))
	var quotaHit atomic.Bool

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i := range in {
		g.Go(func() error {
			if quotaHit.Load() || gctx.Err() != nil {
				fetchErrs[i] = gctx.Err()
				return nil
			}

			details, err := c.client.Details(gctx, in[i].PlaceID)
			if err != nil {
				fetchErrs[i] = err
				if errors.Is(err, resilience.ErrQuotaExceeded) {
					quotaHit.Store(true)
				}
				return nil // per-place failures never abort the run
			}

			enriched[i] = enrich(in[i], details)
			byPlace[i] = reviewRows(enriched[i], details.Reviews)
			return nil
		})
	}
	_ = g.Wait()

	var out []model.Review
	var warnings []model.Warning
	for i := range in {
		out = append(out, byPlace[i]...)
		if err := fetchErrs[i]; err != nil &&
			!errors.Is(err, resilience.ErrQuotaExceeded) && !errors.Is(err, context.Canceled) {
			warnings = append(warnings, model.Warning{
				Code:   model.WarnDetailsUnavailable,
				Detail: fmt.Sprintf("place %s: %v", in[i].PlaceID, err),
			})
		}
	}
	if quotaHit.Load() {
		warnings = append(warnings, model.Warning{
			Code:   model.WarnQuotaExceeded,
			Detail: "provider quota exceeded while collecting reviews",
		})
	}

	log.Info("review collection complete",
		zap.Int("reviews", len(out)),
		zap.Int("warnings", len(warnings)),
	)
	return enriched, out, warnings, nil
}

// enrich overlays details onto a discovered place. The details response is
// authoritative for name, address, and coordinates when present.
func enrich(p model.Place, d *places.Details) model.Place {
	if d.Name != "" {
		p.Name = d.Name
	}
	if d.FormattedAddress != "" {
		p.Address = d.FormattedAddress
	}
	if d.Geometry.Location.Lat != 0 || d.Geometry.Location.Lng != 0 {
		p.Location = model.Coordinate{Lat: d.Geometry.Location.Lat, Lng: d.Geometry.Location.Lng}
	}
	comp := d.Components()
	p.City = comp.City
	p.State = comp.State
	p.Zip = comp.Zip
	p.Country = comp.Country
	p.AvgRating = d.Rating
	p.RatingsTotal = d.UserRatingsTotal
	return p
}

func reviewRows(p model.Place, in []places.Review) []model.Review {
	rows := make([]model.Review, 0, len(in))
	for _, r := range in {
		var ts time.Time
		if r.Time > 0 {
			ts = time.Unix(r.Time, 0).UTC()
		}
		rows = append(rows, model.Review{
			PlaceID:   p.PlaceID,
			PlaceName: p.Name,
			Author:    r.AuthorName,
			Rating:    r.Rating,
			Text:      r.Text,
			Time:      ts,
			Address:   p.Address,
			City:      p.City,
			State:     p.State,
			Zip:       p.Zip,
		})
	}
	return rows
}
