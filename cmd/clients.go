package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/insights-cli/internal/model"
	"github.com/sells-group/insights-cli/internal/resilience"
	"github.com/sells-group/insights-cli/internal/store"
	"github.com/sells-group/insights-cli/pkg/geocode"
	"github.com/sells-group/insights-cli/pkg/places"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.SQLitePath
		if path == "" {
			path = "insights.db"
		}
		return store.NewSQLite(path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initOptionalStore returns a nil store when persistence is disabled.
func initOptionalStore(ctx context.Context, skip bool) (store.Store, error) {
	if skip {
		return nil, nil
	}
	return initStore(ctx)
}

func initPlaces() (places.Client, error) {
	if cfg.Google.Key == "" {
		return nil, eris.New("google API key is required (INSIGHTS_GOOGLE_KEY)")
	}
	return places.NewClient(cfg.Google.Key,
		places.WithBaseURL(cfg.Google.BaseURL),
		places.WithRateLimit(cfg.Google.RequestsPerSecond),
		places.WithMaxPages(cfg.Google.MaxPages),
		places.WithPageTokenWait(time.Duration(cfg.Google.PageTokenWaitMS)*time.Millisecond),
		places.WithRetry(retryConfig()),
	), nil
}

func retryConfig() resilience.RetryConfig {
	rc := resilience.DefaultRetryConfig()
	if cfg.Google.MaxRetries > 0 {
		rc.MaxAttempts = cfg.Google.MaxRetries + 1
	}
	return rc
}

// resolveCenter geocodes the address when given, otherwise uses explicit
// coordinates.
func resolveCenter(ctx context.Context, address string, lat, lng float64) (model.Coordinate, error) {
	if address != "" {
		gc, err := initGeocoder()
		if err != nil {
			return model.Coordinate{}, err
		}
		loc, err := gc.Resolve(ctx, address)
		if err != nil {
			return model.Coordinate{}, eris.Wrapf(err, "resolve %q", address)
		}
		return model.Coordinate{Lat: loc.Latitude, Lng: loc.Longitude}, nil
	}
	if lat == 0 && lng == 0 {
		return model.Coordinate{}, eris.New("either --address or --lat/--lng is required")
	}
	return model.Coordinate{Lat: lat, Lng: lng}, nil
}

func initGeocoder() (geocode.Client, error) {
	if cfg.Google.Key == "" {
		return nil, eris.New("google API key is required (INSIGHTS_GOOGLE_KEY)")
	}
	return geocode.NewClient(cfg.Google.Key,
		geocode.WithBaseURL(cfg.Google.BaseURL),
		geocode.WithRateLimit(cfg.Google.RequestsPerSecond),
		geocode.WithRetry(retryConfig()),
	), nil
}
