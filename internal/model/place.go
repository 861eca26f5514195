package model

// UntiledSource marks candidates produced by a strategy that does not tile.
const UntiledSource = -1

// Tile is one circular query region in a coverage plan.
type Tile struct {
	Index        int        `json:"index"`
	Center       Coordinate `json:"center"`
	RadiusMeters float64    `json:"radius_meters"`
}

// PlaceCandidate is a raw discovery hit before dedup and radius filtering.
// The same place can appear in several candidates when tiles overlap or
// pagination repeats results.
type PlaceCandidate struct {
	PlaceID        string     `json:"place_id"`
	Name           string     `json:"name"`
	Location       Coordinate `json:"location"`
	Vicinity       string     `json:"vicinity,omitempty"`
	Types          []string   `json:"types,omitempty"`
	SourceTile     int        `json:"source_tile"`
	SourceStrategy Strategy   `json:"source_strategy"`
}

// Place is a deduplicated candidate, enriched with details once reviews
// are collected. Exactly one Place survives per place_id.
type Place struct {
	PlaceID        string     `json:"place_id"`
	Name           string     `json:"name"`
	Location       Coordinate `json:"location"`
	Address        string     `json:"address,omitempty"`
	City           string     `json:"city,omitempty"`
	State          string     `json:"state,omitempty"`
	Zip            string     `json:"zip,omitempty"`
	Country        string     `json:"country,omitempty"`
	Types          []string   `json:"types,omitempty"`
	AvgRating      float64    `json:"avg_rating,omitempty"`
	RatingsTotal   int        `json:"ratings_total,omitempty"`
	DistanceMiles  float64    `json:"distance_miles"`
	SourceTile     int        `json:"source_tile"`
	SourceStrategy Strategy   `json:"source_strategy"`
}
