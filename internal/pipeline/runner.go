// Package pipeline orchestrates a discovery run end to end: resolve the
// address, discover places, dedupe and radius-filter them, collect reviews,
// label sentiment, aggregate analytics, and persist the result.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/insights-cli/internal/analytics"
	"github.com/sells-group/insights-cli/internal/config"
	"github.com/sells-group/insights-cli/internal/discovery"
	"github.com/sells-group/insights-cli/internal/model"
	"github.com/sells-group/insights-cli/internal/reviews"
	"github.com/sells-group/insights-cli/internal/sentiment"
	"github.com/sells-group/insights-cli/internal/store"
	"github.com/sells-group/insights-cli/pkg/geocode"
	"github.com/sells-group/insights-cli/pkg/places"
)

// Runner wires the pipeline stages together. The store is optional; with a
// nil store the run executes without persistence.
type Runner struct {
	cfg        *config.Config
	store      store.Store
	geocoder   geocode.Client
	places     places.Client
	classifier *sentiment.Classifier
}

// New creates a Runner with all dependencies.
func New(cfg *config.Config, st store.Store, geoClient geocode.Client, placesClient places.Client) *Runner {
	return &Runner{
		cfg:        cfg,
		store:      st,
		geocoder:   geoClient,
		places:     placesClient,
		classifier: sentiment.New(),
	}
}

// Run executes the full pipeline for one query. An empty result set is a
// valid outcome, not an error. Cancellation mid-run yields the stages that
// completed, marked partial, with a nil error.
func (r *Runner) Run(ctx context.Context, q model.SearchQuery) (*model.RunResult, error) {
	log := zap.L().With(
		zap.String("component", "pipeline"),
		zap.String("address", q.Address),
		zap.String("strategy", string(q.Strategy)),
	)

	if err := q.Validate(); err != nil {
		return nil, err
	}

	result := &model.RunResult{Query: q}

	var runID string
	if r.store != nil {
		run, err := r.store.CreateRun(ctx, q)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: create run")
		}
		runID = run.ID
		result.RunID = runID
		log = log.With(zap.String("run_id", runID))
	}
	log.Info("pipeline: starting run")

	res, err := r.execute(ctx, q, result, log)
	if r.store != nil {
		status := model.RunStatusFailed
		placeCount, reviewCount := 0, 0
		if err == nil {
			status = res.Status()
			placeCount = len(res.Places)
			reviewCount = len(res.Reviews)
		}
		if completeErr := r.store.CompleteRun(context.WithoutCancel(ctx), runID, status, result.Warnings, placeCount, reviewCount); completeErr != nil {
			log.Warn("pipeline: failed to finalize run record", zap.Error(completeErr))
		}
	}
	return res, err
}

func (r *Runner) execute(ctx context.Context, q model.SearchQuery, result *model.RunResult, log *zap.Logger) (*model.RunResult, error) {
	// Stage 1: address resolution. An unresolvable address is fatal; there is
	// no center to search around.
	center := q.Center
	if q.Address != "" {
		loc, err := r.geocoder.Resolve(ctx, q.Address)
		if err != nil {
			if errors.Is(err, geocode.ErrNoMatch) {
				return nil, eris.Wrapf(err, "pipeline: address %q did not resolve", q.Address)
			}
			return nil, eris.Wrap(err, "pipeline: geocode")
		}
		center = model.Coordinate{Lat: loc.Latitude, Lng: loc.Longitude}
		result.ResolvedAddress = loc.FormattedAddress
		log.Info("pipeline: address resolved",
			zap.Float64("lat", center.Lat),
			zap.Float64("lng", center.Lng),
		)
	}
	q.Center = center

	// Stage 2: discovery.
	strat, err := discovery.New(q.Strategy, r.places, discovery.Config{
		TileRadiusMeters: r.cfg.Discovery.TileRadiusMeters,
		TileConcurrency:  r.cfg.Discovery.TileConcurrency,
	})
	if err != nil {
		return nil, err
	}
	candidates, warns, err := strat.Discover(ctx, q)
	result.Warnings = append(result.Warnings, warns...)
	if err != nil {
		if canceled(err) {
			return r.partial(result, "discovery interrupted"), nil
		}
		return nil, err
	}

	// Stage 3: dedupe, distance, radius filter.
	filtered := discovery.FilterRadius(discovery.Promote(discovery.Dedupe(candidates), center), q.RadiusMiles)
	log.Info("pipeline: discovery complete",
		zap.Int("candidates", len(candidates)),
		zap.Int("in_radius", len(filtered)),
	)
	if len(filtered) == 0 {
		result.Places = []model.Place{}
		return result, r.persist(ctx, result, log)
	}
	if ctx.Err() != nil {
		result.Places = filtered
		res := r.partial(result, "run interrupted before review collection")
		return res, r.persist(ctx, res, log)
	}

	// Stage 4: review collection.
	collector := reviews.NewCollector(r.places, r.cfg.Reviews.Concurrency)
	enriched, revs, warns, err := collector.Collect(ctx, filtered)
	result.Warnings = append(result.Warnings, warns...)
	if err != nil {
		if canceled(err) {
			result.Places = filtered
			res := r.partial(result, "review collection interrupted")
			return res, r.persist(ctx, res, log)
		}
		return nil, err
	}
	result.Places = enriched
	if ctx.Err() != nil {
		// Some detail fetches were skipped; keep what landed.
		result.Warnings = append(result.Warnings, model.Warning{
			Code:   model.WarnCoverageIncomplete,
			Detail: "review collection interrupted",
		})
	}

	// Stage 5: sentiment and issue labeling.
	for i := range revs {
		revs[i].Sentiment = r.classifier.Classify(revs[i].Rating, revs[i].Text)
		revs[i].Issues = sentiment.IssueFlags(revs[i].Text)
	}
	result.Reviews = revs

	// Stage 6: aggregation.
	result.Analytics = analytics.Aggregate(enriched, revs, analytics.Options{
		HighNegativeShare: r.cfg.Analytics.HighNegativeShare,
		HighNegativeFloor: r.cfg.Analytics.HighNegativeFloor,
	})

	log.Info("pipeline: run complete",
		zap.Int("places", len(result.Places)),
		zap.Int("reviews", len(result.Reviews)),
		zap.Int("warnings", len(result.Warnings)),
	)
	return result, r.persist(ctx, result, log)
}

// partial marks a result incomplete after an interruption. Everything
// gathered so far stays in the result.
func (r *Runner) partial(result *model.RunResult, detail string) *model.RunResult {
	result.Warnings = append(result.Warnings, model.Warning{
		Code:   model.WarnCoverageIncomplete,
		Detail: detail,
	})
	if result.Places == nil {
		result.Places = []model.Place{}
	}
	return result
}

// persist writes the datasets under the run ID. Persistence failures are
// fatal; the caller asked for a durable run.
func (r *Runner) persist(ctx context.Context, result *model.RunResult, log *zap.Logger) error {
	if r.store == nil || result.RunID == "" {
		return nil
	}
	// Saves run on a fresh context so a canceled run can still land.
	if ctx.Err() != nil {
		ctx = context.WithoutCancel(ctx)
	}
	if err := r.store.SavePlaces(ctx, result.RunID, result.Places); err != nil {
		return eris.Wrap(err, "pipeline: save places")
	}
	if err := r.store.SaveReviews(ctx, result.RunID, result.Reviews); err != nil {
		return eris.Wrap(err, "pipeline: save reviews")
	}
	if err := r.store.SaveAnalytics(ctx, result.RunID, result.Analytics); err != nil {
		return eris.Wrap(err, "pipeline: save analytics")
	}
	log.Info("pipeline: run persisted",
		zap.String("run_id", result.RunID),
		zap.Int("places", len(result.Places)),
	)
	return nil
}

func canceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Describe renders a one-line human summary of a result for CLI output.
func Describe(res *model.RunResult) string {
	status := "complete"
	if len(res.Warnings) > 0 {
		status = "partial"
	}
	return fmt.Sprintf("%s: %d places, %d reviews, %d warnings",
		status, len(res.Places), len(res.Reviews), len(res.Warnings))
}
