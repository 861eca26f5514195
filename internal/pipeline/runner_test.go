package pipeline

import (
	"context"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/insights-cli/internal/config"
	"github.com/sells-group/insights-cli/internal/model"
	"github.com/sells-group/insights-cli/pkg/geocode"
	"github.com/sells-group/insights-cli/pkg/places"
)

// -- fakes --

type fakeGeocoder struct {
	result *geocode.Result
	err    error
}

func (f *fakeGeocoder) Resolve(context.Context, string) (*geocode.Result, error) {
	return f.result, f.err
}

type fakePlaces struct {
	mu      sync.Mutex
	nearby  []places.Result
	details map[string]*places.Details
	cancel  context.CancelFunc
}

func (f *fakePlaces) NearbySearch(context.Context, float64, float64, int, string) ([]places.Result, error) {
	return f.nearby, nil
}

func (f *fakePlaces) TextSearch(context.Context, string) ([]places.Result, error) {
	return f.nearby, nil
}

func (f *fakePlaces) Details(_ context.Context, placeID string) (*places.Details, error) {
	f.mu.Lock()
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.mu.Unlock()
	if d, ok := f.details[placeID]; ok {
		return d, nil
	}
	return &places.Details{PlaceID: placeID}, nil
}

func (f *fakePlaces) Autocomplete(context.Context, string) ([]places.Prediction, error) {
	return nil, eris.New("not implemented")
}

func (f *fakePlaces) Stats() places.Stats { return places.Stats{} }

type fakeStore struct {
	mu        sync.Mutex
	created   []model.SearchQuery
	completed []model.RunStatus
	places    []model.Place
	reviews   []model.Review
	analytics []model.AnalyticRow
}

func (f *fakeStore) CreateRun(_ context.Context, q model.SearchQuery) (*model.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, q)
	return &model.Run{ID: "run-1", Query: q, Status: model.RunStatusRunning}, nil
}

func (f *fakeStore) CompleteRun(_ context.Context, _ string, status model.RunStatus, _ []model.Warning, _, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, status)
	return nil
}

func (f *fakeStore) GetRun(context.Context, string) (*model.Run, error) {
	return nil, eris.New("not implemented")
}

func (f *fakeStore) ListRuns(context.Context, int) ([]model.Run, error) { return nil, nil }

func (f *fakeStore) SavePlaces(_ context.Context, _ string, in []model.Place) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.places = in
	return nil
}

func (f *fakeStore) SaveReviews(_ context.Context, _ string, in []model.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviews = in
	return nil
}

func (f *fakeStore) SaveAnalytics(_ context.Context, _ string, in []model.AnalyticRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analytics = in
	return nil
}

func (f *fakeStore) LoadResult(context.Context, string) (*model.RunResult, error) {
	return nil, eris.New("not implemented")
}

func (f *fakeStore) Migrate(context.Context) error { return nil }

func (f *fakeStore) Close() error { return nil }

// -- fixtures --

func testConfig() *config.Config {
	return &config.Config{
		Discovery: config.DiscoveryConfig{TileRadiusMeters: 40000, TileConcurrency: 2},
		Reviews:   config.ReviewsConfig{Concurrency: 2},
		Analytics: config.AnalyticsConfig{HighNegativeShare: 0.30, HighNegativeFloor: 5},
	}
}

func testQuery() model.SearchQuery {
	return model.SearchQuery{
		Address:     "Trenton, NJ",
		RadiusMiles: 10,
		Strategy:    model.StrategyCoverage,
	}
}

func nearbyResult(id string, lat, lng float64) places.Result {
	return places.Result{
		PlaceID:  id,
		Name:     "Place " + id,
		Geometry: places.Geometry{Location: places.Location{Lat: lat, Lng: lng}},
	}
}

func TestRunEndToEnd(t *testing.T) {
	center := geocode.Result{Latitude: 40.22, Longitude: -74.76, FormattedAddress: "Trenton, NJ, USA"}
	pc := &fakePlaces{
		nearby: []places.Result{
			nearbyResult("near", 40.22, -74.76),
			nearbyResult("near", 40.22, -74.76), // duplicate collapses
			nearbyResult("far", 45.0, -74.76),   // outside the 10 mile radius
		},
		details: map[string]*places.Details{
			"near": {
				PlaceID: "near",
				Name:    "Near Diner",
				Reviews: []places.Review{
					{AuthorName: "Ana", Rating: 5, Text: "great service"},
					{AuthorName: "Bo", Rating: 1, Text: "dirty tables"},
				},
			},
		},
	}
	st := &fakeStore{}

	runner := New(testConfig(), st, &fakeGeocoder{result: &center}, pc)
	res, err := runner.Run(context.Background(), testQuery())
	require.NoError(t, err)

	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, "Trenton, NJ, USA", res.ResolvedAddress)
	assert.Empty(t, res.Warnings)

	require.Len(t, res.Places, 1, "duplicate collapsed, far place filtered")
	assert.Equal(t, "Near Diner", res.Places[0].Name)

	require.Len(t, res.Reviews, 2)
	assert.Equal(t, model.SentimentPositive, res.Reviews[0].Sentiment)
	assert.Equal(t, model.SentimentNegative, res.Reviews[1].Sentiment)
	assert.True(t, res.Reviews[1].Issues.Cleanliness)

	require.Len(t, res.Analytics, 1)
	row := res.Analytics[0]
	assert.Equal(t, 2, row.ReviewCount)
	assert.Equal(t, row.ReviewCount, row.PositiveCount+row.NeutralCount+row.NegativeCount)

	// Persistence saw the same datasets and a complete status.
	assert.Len(t, st.places, 1)
	assert.Len(t, st.reviews, 2)
	assert.Len(t, st.analytics, 1)
	require.Len(t, st.completed, 1)
	assert.Equal(t, model.RunStatusComplete, st.completed[0])
}

func TestRunUnresolvableAddressIsFatal(t *testing.T) {
	st := &fakeStore{}
	runner := New(testConfig(), st, &fakeGeocoder{err: eris.Wrap(geocode.ErrNoMatch, "geocode")}, &fakePlaces{})

	_, err := runner.Run(context.Background(), testQuery())
	require.Error(t, err)
	assert.ErrorIs(t, err, geocode.ErrNoMatch)

	require.Len(t, st.completed, 1)
	assert.Equal(t, model.RunStatusFailed, st.completed[0])
}

func TestRunEmptyResultIsValid(t *testing.T) {
	center := geocode.Result{Latitude: 40.22, Longitude: -74.76}
	st := &fakeStore{}
	runner := New(testConfig(), st, &fakeGeocoder{result: &center}, &fakePlaces{})

	res, err := runner.Run(context.Background(), testQuery())
	require.NoError(t, err)
	assert.Empty(t, res.Places)
	assert.Empty(t, res.Warnings)
	require.Len(t, st.completed, 1)
	assert.Equal(t, model.RunStatusComplete, st.completed[0])
}

func TestRunValidatesQuery(t *testing.T) {
	runner := New(testConfig(), nil, &fakeGeocoder{}, &fakePlaces{})

	_, err := runner.Run(context.Background(), model.SearchQuery{Strategy: model.StrategyCoverage})
	assert.Error(t, err, "zero radius is rejected")

	_, err = runner.Run(context.Background(), model.SearchQuery{
		RadiusMiles: 5, Strategy: model.StrategyBrand,
	})
	assert.Error(t, err, "brand strategy requires a keyword")
}

func TestRunCancellationYieldsPartial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	center := geocode.Result{Latitude: 40.22, Longitude: -74.76}
	pc := &fakePlaces{
		nearby: []places.Result{nearbyResult("P1", 40.22, -74.76)},
		cancel: cancel, // cancels the run during review collection
	}
	st := &fakeStore{}

	runner := New(testConfig(), st, &fakeGeocoder{result: &center}, pc)
	res, err := runner.Run(ctx, testQuery())
	require.NoError(t, err, "cancellation is a partial outcome, not a failure")

	require.NotNil(t, res)
	assert.NotEmpty(t, res.Places, "work done before the cancel is kept")

	codes := make([]string, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		codes = append(codes, w.Code)
	}
	assert.Contains(t, codes, model.WarnCoverageIncomplete)

	require.Len(t, st.completed, 1)
	assert.Equal(t, model.RunStatusPartial, st.completed[0])
}

func TestRunWithoutStore(t *testing.T) {
	center := geocode.Result{Latitude: 40.22, Longitude: -74.76}
	pc := &fakePlaces{nearby: []places.Result{nearbyResult("P1", 40.22, -74.76)}}

	runner := New(testConfig(), nil, &fakeGeocoder{result: &center}, pc)
	res, err := runner.Run(context.Background(), testQuery())
	require.NoError(t, err)
	assert.Empty(t, res.RunID)
	assert.Len(t, res.Places, 1)
}
