package reviews

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/insights-cli/internal/model"
	"github.com/sells-group/insights-cli/internal/resilience"
	"github.com/sells-group/insights-cli/pkg/places"
)

// fakeDetailsClient serves canned details keyed by place ID.
type fakeDetailsClient struct {
	details map[string]*places.Details
	errs    map[string]error
}

func (f *fakeDetailsClient) Details(_ context.Context, placeID string) (*places.Details, error) {
	if err := f.errs[placeID]; err != nil {
		return nil, err
	}
	if d, ok := f.details[placeID]; ok {
		return d, nil
	}
	return &places.Details{PlaceID: placeID}, nil
}

func (f *fakeDetailsClient) NearbySearch(context.Context, float64, float64, int, string) ([]places.Result, error) {
	return nil, eris.New("not implemented")
}

func (f *fakeDetailsClient) TextSearch(context.Context, string) ([]places.Result, error) {
	return nil, eris.New("not implemented")
}

func (f *fakeDetailsClient) Autocomplete(context.Context, string) ([]places.Prediction, error) {
	return nil, eris.New("not implemented")
}

func (f *fakeDetailsClient) Stats() places.Stats { return places.Stats{} }

func TestCollectEnrichesPlacesAndEmitsReviews(t *testing.T) {
	reviewedAt := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	client := &fakeDetailsClient{details: map[string]*places.Details{
		"P1": {
			PlaceID:          "P1",
			Name:             "Tony's Pizza",
			FormattedAddress: "1 Main St, Trenton, NJ 08601, USA",
			Geometry:         places.Geometry{Location: places.Location{Lat: 40.22, Lng: -74.76}},
			AddressComponents: []places.AddressComponent{
				{LongName: "Trenton", Types: []string{"locality"}},
				{LongName: "New Jersey", ShortName: "NJ", Types: []string{"administrative_area_level_1"}},
				{LongName: "08601", Types: []string{"postal_code"}},
				{LongName: "United States", ShortName: "US", Types: []string{"country"}},
			},
			Rating:           4.4,
			UserRatingsTotal: 213,
			Reviews: []places.Review{
				{AuthorName: "Ana", Rating: 5, Text: "great slice", Time: reviewedAt.Unix()},
				{AuthorName: "Bo", Rating: 2, Text: "cold fries", Time: 0},
			},
		},
	}}

	c := NewCollector(client, 2)
	in := []model.Place{{PlaceID: "P1", Name: "tonys", DistanceMiles: 1.2}}

	enriched, revs, warnings, err := c.Collect(context.Background(), in)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, enriched, 1)

	p := enriched[0]
	assert.Equal(t, "Tony's Pizza", p.Name, "details name is authoritative")
	assert.Equal(t, "Trenton", p.City)
	assert.Equal(t, "NJ", p.State)
	assert.Equal(t, "08601", p.Zip)
	assert.Equal(t, "US", p.Country)
	assert.Equal(t, 4.4, p.AvgRating)
	assert.Equal(t, 213, p.RatingsTotal)
	assert.Equal(t, 1.2, p.DistanceMiles, "computed distance is never overwritten")

	require.Len(t, revs, 2)
	assert.Equal(t, "P1", revs[0].PlaceID)
	assert.Equal(t, "Tony's Pizza", revs[0].PlaceName)
	assert.Equal(t, reviewedAt, revs[0].Time)
	assert.True(t, revs[1].Time.IsZero(), "zero unix time stays unset")
	assert.Equal(t, "Trenton", revs[0].City, "rows carry the place address")
}

func TestCollectKeepsPlaceOnDetailsFailure(t *testing.T) {
	client := &fakeDetailsClient{
		details: map[string]*places.Details{
			"ok": {PlaceID: "ok", Name: "Fine Diner"},
		},
		errs: map[string]error{"broken": eris.New("details fetch failed")},
	}

	c := NewCollector(client, 2)
	in := []model.Place{{PlaceID: "broken", Name: "kept as-is"}, {PlaceID: "ok"}}

	enriched, revs, warnings, err := c.Collect(context.Background(), in)
	require.NoError(t, err)
	assert.Empty(t, revs)

	require.Len(t, enriched, 2)
	assert.Equal(t, "kept as-is", enriched[0].Name)
	assert.Equal(t, "Fine Diner", enriched[1].Name)

	require.Len(t, warnings, 1)
	assert.Equal(t, model.WarnDetailsUnavailable, warnings[0].Code)
	assert.Contains(t, warnings[0].Detail, "broken")
}

func TestCollectOutputFollowsInputOrder(t *testing.T) {
	details := make(map[string]*places.Details)
	ids := []string{"e", "a", "c", "b", "d"}
	for _, id := range ids {
		details[id] = &places.Details{
			PlaceID: id,
			Reviews: []places.Review{{AuthorName: id, Rating: 4}},
		}
	}
	client := &fakeDetailsClient{details: details}

	c := NewCollector(client, 5)
	var in []model.Place
	for _, id := range ids {
		in = append(in, model.Place{PlaceID: id})
	}

	for trial := 0; trial < 5; trial++ {
		_, revs, _, err := c.Collect(context.Background(), in)
		require.NoError(t, err)
		require.Len(t, revs, len(ids))
		for i, id := range ids {
			assert.Equal(t, id, revs[i].PlaceID)
		}
	}
}

func TestCollectQuotaBecomesWarning(t *testing.T) {
	client := &fakeDetailsClient{
		errs: map[string]error{"P1": eris.Wrap(resilience.ErrQuotaExceeded, "places")},
	}

	c := NewCollector(client, 1)
	enriched, _, warnings, err := c.Collect(context.Background(), []model.Place{{PlaceID: "P1"}})
	require.NoError(t, err)
	assert.Len(t, enriched, 1)

	require.Len(t, warnings, 1)
	assert.Equal(t, model.WarnQuotaExceeded, warnings[0].Code)
}
