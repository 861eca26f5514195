package model

// AnalyticRow aggregates one place's reviews. Zero-review places still get a
// row, with zero counts and a nil mean rating.
type AnalyticRow struct {
	PlaceID       string         `json:"place_id"`
	Name          string         `json:"name"`
	Address       string         `json:"address,omitempty"`
	Location      Coordinate     `json:"location"`
	DistanceMiles float64        `json:"distance_miles"`
	ReviewCount   int            `json:"review_count"`
	RatingCounts  [5]int         `json:"rating_counts"` // index 0 holds 1-star count
	MeanRating    *float64       `json:"mean_rating,omitempty"`
	PositiveCount int            `json:"positive_count"`
	NeutralCount  int            `json:"neutral_count"`
	NegativeCount int            `json:"negative_count"`
	MonthlyCounts map[string]int `json:"monthly_counts,omitempty"` // "2006-01" buckets
	HighNegative  bool           `json:"high_negative"`
}
