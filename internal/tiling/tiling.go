// Package tiling plans circular query tiles that cover a search circle larger
// than the provider's per-call radius cap.
//
// The plan is a square grid of tile centers spaced at SpacingFactor × tile
// radius. With the default factor of 1.25 the farthest point of any grid cell
// sits at (1.25/√2) ≈ 0.88 tile radii from the nearest center, so adjacent
// tile disks overlap and the union of kept disks contains the whole circle.
package tiling

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	geomath "github.com/sells-group/insights-cli/internal/geo"
	"github.com/sells-group/insights-cli/internal/model"
)

// DefaultSpacingFactor is the grid step as a fraction of the tile radius.
// Must stay below √2 or cell corners fall outside every tile disk.
const DefaultSpacingFactor = 1.25

// Generator plans tile grids for a fixed provider radius cap.
type Generator struct {
	// TileRadiusMeters is the provider's maximum per-call search radius.
	TileRadiusMeters float64

	// SpacingFactor overrides DefaultSpacingFactor when positive.
	SpacingFactor float64
}

// NewGenerator creates a Generator for the given per-call radius cap.
func NewGenerator(tileRadiusMeters float64) *Generator {
	return &Generator{TileRadiusMeters: tileRadiusMeters}
}

// Plan covers the circle (center, radiusMeters) with tiles. The order is
// deterministic: the query center is always tile 0, followed by the grid in
// row-major order (south to north, west to east). When the requested radius
// fits in a single provider call the plan is exactly one tile.
func (g *Generator) Plan(center model.Coordinate, radiusMeters float64) ([]model.Tile, error) {
	if radiusMeters <= 0 {
		return nil, eris.New("tiling: radius must be positive")
	}
	if g.TileRadiusMeters <= 0 {
		return nil, eris.New("tiling: tile radius must be positive")
	}

	if radiusMeters <= g.TileRadiusMeters {
		return []model.Tile{{Index: 0, Center: center, RadiusMeters: radiusMeters}}, nil
	}

	spacing := g.SpacingFactor
	if spacing <= 0 {
		spacing = DefaultSpacingFactor
	}
	if spacing >= math.Sqrt2 {
		return nil, eris.Errorf("tiling: spacing factor %.2f breaks coverage (must be < √2)", spacing)
	}

	step := g.TileRadiusMeters * spacing
	dLat := geomath.MetersToLatDegrees(step)
	dLng := geomath.MetersToLngDegrees(step, center.Lat)

	// Keep every grid node whose tile disk can intersect the circle. That is
	// generous at the rim but guarantees the node nearest to any in-circle
	// point survives the cut.
	reach := radiusMeters + g.TileRadiusMeters
	span := int(math.Ceil(reach / step))

	tiles := []model.Tile{{Index: 0, Center: center, RadiusMeters: g.TileRadiusMeters}}
	for i := -span; i <= span; i++ {
		for j := -span; j <= span; j++ {
			if i == 0 && j == 0 {
				continue // the query center is already tile 0
			}
			node := model.Coordinate{
				Lat: center.Lat + float64(i)*dLat,
				Lng: center.Lng + float64(j)*dLng,
			}
			if geomath.HaversineMeters(center, node) > reach {
				continue
			}
			tiles = append(tiles, model.Tile{
				Index:        len(tiles),
				Center:       node,
				RadiusMeters: g.TileRadiusMeters,
			})
		}
	}
	return tiles, nil
}

// Covers reports whether at least one tile disk contains the point.
func Covers(tiles []model.Tile, p model.Coordinate) bool {
	for _, t := range tiles {
		if geomath.HaversineMeters(t.Center, p) <= t.RadiusMeters {
			return true
		}
	}
	return false
}

// EncodeGeoJSON renders a tile plan as a GeoJSON FeatureCollection of tile
// center points, for inspecting a plan on a map.
func EncodeGeoJSON(tiles []model.Tile) ([]byte, error) {
	fc := geojson.FeatureCollection{}
	for _, t := range tiles {
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       strconv.Itoa(t.Index),
			Geometry: geom.NewPointFlat(geom.XY, []float64{t.Center.Lng, t.Center.Lat}),
			Properties: map[string]interface{}{
				"index":         t.Index,
				"radius_meters": t.RadiusMeters,
			},
		})
	}
	out, err := json.Marshal(&fc)
	if err != nil {
		return nil, eris.Wrap(err, "tiling: encode geojson")
	}
	return out, nil
}
