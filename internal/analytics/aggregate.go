// Package analytics builds per-place insight rows from labeled reviews.
package analytics

import (
	"github.com/sells-group/insights-cli/internal/model"
)

// Options control aggregation thresholds.
type Options struct {
	// HighNegativeShare is the negative-review fraction at which a place is
	// flagged, once it has enough reviews.
	HighNegativeShare float64

	// HighNegativeFloor is the minimum review count before the flag can
	// trip, guarding against small-sample false flags.
	HighNegativeFloor int
}

// DefaultOptions returns the documented thresholds: 30% negative share with
// at least 5 reviews.
func DefaultOptions() Options {
	return Options{HighNegativeShare: 0.30, HighNegativeFloor: 5}
}

// Aggregate builds one AnalyticRow per place, in place order. Places with no
// reviews get an all-zero row with a nil mean rating rather than being
// omitted. For every row the sentiment counts sum to the review count.
func Aggregate(places []model.Place, reviews []model.Review, opts Options) []model.AnalyticRow {
	if opts.HighNegativeShare <= 0 {
		opts = DefaultOptions()
	}

	byPlace := make(map[string][]model.Review, len(places))
	for _, r := range reviews {
		byPlace[r.PlaceID] = append(byPlace[r.PlaceID], r)
	}

	rows := make([]model.AnalyticRow, 0, len(places))
	for _, p := range places {
		rows = append(rows, buildRow(p, byPlace[p.PlaceID], opts))
	}
	return rows
}

func buildRow(p model.Place, revs []model.Review, opts Options) model.AnalyticRow {
	row := model.AnalyticRow{
		PlaceID:       p.PlaceID,
		Name:          p.Name,
		Address:       p.Address,
		Location:      p.Location,
		DistanceMiles: p.DistanceMiles,
		ReviewCount:   len(revs),
	}
	if len(revs) == 0 {
		return row
	}

	row.MonthlyCounts = make(map[string]int)
	ratingSum, rated := 0, 0
	for _, r := range revs {
		if r.Rating >= 1 && r.Rating <= 5 {
			row.RatingCounts[r.Rating-1]++
			ratingSum += r.Rating
			rated++
		}
		switch r.Sentiment {
		case model.SentimentPositive:
			row.PositiveCount++
		case model.SentimentNegative:
			row.NegativeCount++
		default:
			row.NeutralCount++
		}
		if !r.Time.IsZero() {
			row.MonthlyCounts[r.Time.UTC().Format("2006-01")]++
		}
	}

	if rated > 0 {
		mean := float64(ratingSum) / float64(rated)
		row.MeanRating = &mean
	}

	negShare := float64(row.NegativeCount) / float64(len(revs))
	row.HighNegative = len(revs) >= opts.HighNegativeFloor && negShare >= opts.HighNegativeShare
	return row
}
