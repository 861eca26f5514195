// Package store persists discovery runs and their place/review/analytics
// tables, with SQLite and Postgres backends.
package store

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/insights-cli/internal/model"
)

// Store defines the persistence interface for pipeline runs.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, q model.SearchQuery) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, status model.RunStatus, warnings []model.Warning, placeCount, reviewCount int) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)

	// Datasets
	SavePlaces(ctx context.Context, runID string, places []model.Place) error
	SaveReviews(ctx context.Context, runID string, reviews []model.Review) error
	SaveAnalytics(ctx context.Context, runID string, rows []model.AnalyticRow) error
	LoadResult(ctx context.Context, runID string) (*model.RunResult, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

func marshalJSON(v any, what string) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", eris.Wrapf(err, "store: marshal %s", what)
	}
	return string(b), nil
}

func unmarshalJSON(s string, v any, what string) error {
	if s == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return eris.Wrapf(err, "store: unmarshal %s", what)
	}
	return nil
}
