package tiling

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/insights-cli/internal/geo"
	"github.com/sells-group/insights-cli/internal/model"
)

func TestPlanSingleTileWhenRadiusFits(t *testing.T) {
	gen := NewGenerator(40000)
	center := model.Coordinate{Lat: 40, Lng: -74}

	tiles, err := gen.Plan(center, 5000)
	require.NoError(t, err)
	require.Len(t, tiles, 1)
	assert.Equal(t, 0, tiles[0].Index)
	assert.Equal(t, center, tiles[0].Center)
	assert.Equal(t, 5000.0, tiles[0].RadiusMeters)
}

func TestPlanSingleTileAtExactCap(t *testing.T) {
	gen := NewGenerator(40000)
	tiles, err := gen.Plan(model.Coordinate{Lat: 40, Lng: -74}, 40000)
	require.NoError(t, err)
	assert.Len(t, tiles, 1)
}

func TestPlanRejectsBadInputs(t *testing.T) {
	gen := NewGenerator(40000)
	_, err := gen.Plan(model.Coordinate{}, 0)
	assert.Error(t, err)

	_, err = gen.Plan(model.Coordinate{}, -5)
	assert.Error(t, err)

	gen = &Generator{TileRadiusMeters: 1000, SpacingFactor: 1.5}
	_, err = gen.Plan(model.Coordinate{}, 5000)
	assert.Error(t, err, "spacing at or above sqrt 2 leaves gaps")
}

func TestPlanGridCoversRequestedCircle(t *testing.T) {
	center := model.Coordinate{Lat: 40, Lng: -74}
	radius := geo.MilesToMeters(5)
	gen := NewGenerator(geo.MilesToMeters(2))

	tiles, err := gen.Plan(center, radius)
	require.NoError(t, err)
	require.Greater(t, len(tiles), 4)
	assert.Equal(t, center, tiles[0].Center, "query center is always tile 0")

	// Sample points on rings out to the rim; every one must be inside a tile.
	for ring := 0.0; ring <= 1.0; ring += 0.1 {
		for bearing := 0.0; bearing < 360; bearing += 15 {
			p := offset(center, radius*ring, bearing)
			assert.True(t, Covers(tiles, p),
				"point at ring %.1f bearing %.0f uncovered", ring, bearing)
		}
	}
}

func TestPlanCoverageProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 20; trial++ {
		center := model.Coordinate{
			Lat: rng.Float64()*120 - 60,
			Lng: rng.Float64()*360 - 180,
		}
		tileRadius := 1000 + rng.Float64()*39000
		radius := tileRadius * (1 + rng.Float64()*9)

		gen := NewGenerator(tileRadius)
		tiles, err := gen.Plan(center, radius)
		require.NoError(t, err)

		for i := 0; i < 50; i++ {
			d := radius * math.Sqrt(rng.Float64())
			p := offset(center, d, rng.Float64()*360)
			assert.True(t, Covers(tiles, p),
				"trial %d: point %.0fm from center uncovered with tile radius %.0fm", trial, d, tileRadius)
		}
	}
}

func TestPlanOrderIsDeterministic(t *testing.T) {
	center := model.Coordinate{Lat: 40, Lng: -74}
	gen := NewGenerator(10000)

	first, err := gen.Plan(center, 30000)
	require.NoError(t, err)
	second, err := gen.Plan(center, 30000)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	for i, tile := range first {
		assert.Equal(t, i, tile.Index)
	}
}

func TestEncodeGeoJSON(t *testing.T) {
	gen := NewGenerator(10000)
	tiles, err := gen.Plan(model.Coordinate{Lat: 40, Lng: -74}, 30000)
	require.NoError(t, err)

	out, err := EncodeGeoJSON(tiles)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"FeatureCollection"`)
	assert.Contains(t, string(out), `"radius_meters"`)
}

// offset moves approximately dist meters from p along a compass bearing, using
// the same flat-step math the planner uses for grid spacing.
func offset(p model.Coordinate, dist, bearingDeg float64) model.Coordinate {
	rad := bearingDeg * math.Pi / 180
	north := dist * math.Cos(rad)
	east := dist * math.Sin(rad)
	return model.Coordinate{
		Lat: p.Lat + geo.MetersToLatDegrees(north),
		Lng: p.Lng + geo.MetersToLngDegrees(east, p.Lat),
	}
}
