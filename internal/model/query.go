package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Strategy selects how places are discovered.
type Strategy string

const (
	// StrategyBrand issues a single ranked text search for a brand/keyword.
	StrategyBrand Strategy = "brand"
	// StrategyCoverage tiles the search circle and runs a nearby search per tile.
	StrategyCoverage Strategy = "coverage"
)

// ParseStrategy converts a string into a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "brand":
		return StrategyBrand, nil
	case "coverage", "geo", "grid":
		return StrategyCoverage, nil
	default:
		return "", eris.Errorf("unknown strategy: %q (valid: brand, coverage)", s)
	}
}

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// SearchQuery describes one discovery run. Address is the user's free-text
// input; Center is filled in after geocoding.
type SearchQuery struct {
	Address     string     `json:"address"`
	Center      Coordinate `json:"center"`
	RadiusMiles float64    `json:"radius_miles"`
	Strategy    Strategy   `json:"strategy"`
	Keyword     string     `json:"keyword,omitempty"`
}

// Validate checks the query before it enters the pipeline.
func (q SearchQuery) Validate() error {
	if q.RadiusMiles <= 0 {
		return eris.New("query: radius must be positive")
	}
	switch q.Strategy {
	case StrategyBrand:
		if strings.TrimSpace(q.Keyword) == "" {
			return eris.New("query: brand strategy requires a keyword")
		}
	case StrategyCoverage:
	default:
		return eris.Errorf("query: unknown strategy %q", q.Strategy)
	}
	return nil
}
