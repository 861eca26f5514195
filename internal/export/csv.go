// Package export renders run datasets as CSV files and XLSX workbooks.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/insights-cli/internal/model"
)

var placesHeader = []string{
	"place_id", "name", "address", "city", "state", "zip", "country",
	"lat", "lon", "distance_miles", "avg_rating", "ratings_total",
	"source_strategy", "source_tile",
}

var reviewsHeader = []string{
	"place_id", "place_name", "author", "rating", "text", "reviewed_at",
	"sentiment", "issue_food", "issue_service", "issue_cleanliness", "issue_price",
	"address", "city", "state", "zip",
}

var analyticsHeader = []string{
	"place_id", "name", "address", "lat", "lon", "distance_miles",
	"review_count", "mean_rating", "positive_count", "neutral_count",
	"negative_count", "high_negative_flag",
}

// WritePlacesCSV writes one row per place, in slice order.
func WritePlacesCSV(w io.Writer, places []model.Place) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(placesHeader); err != nil {
		return eris.Wrap(err, "export: write places header")
	}
	for _, p := range places {
		row := []string{
			p.PlaceID, p.Name, p.Address, p.City, p.State, p.Zip, p.Country,
			formatFloat(p.Location.Lat, 6),
			formatFloat(p.Location.Lng, 6),
			formatFloat(p.DistanceMiles, 2),
			formatFloat(p.AvgRating, 1),
			strconv.Itoa(p.RatingsTotal),
			string(p.SourceStrategy),
			strconv.Itoa(p.SourceTile),
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "export: write place row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush places csv")
}

// WriteReviewsCSV writes one row per review, in slice order.
func WriteReviewsCSV(w io.Writer, reviews []model.Review) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reviewsHeader); err != nil {
		return eris.Wrap(err, "export: write reviews header")
	}
	for _, r := range reviews {
		reviewedAt := ""
		if !r.Time.IsZero() {
			reviewedAt = r.Time.UTC().Format(time.RFC3339)
		}
		row := []string{
			r.PlaceID, r.PlaceName, r.Author,
			strconv.Itoa(r.Rating), r.Text, reviewedAt,
			string(r.Sentiment),
			formatBool(r.Issues.Food),
			formatBool(r.Issues.Service),
			formatBool(r.Issues.Cleanliness),
			formatBool(r.Issues.Price),
			r.Address, r.City, r.State, r.Zip,
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "export: write review row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush reviews csv")
}

// WriteAnalyticsCSV writes one row per place analytic, in slice order. Places
// with no reviews emit an empty mean_rating cell rather than zero.
func WriteAnalyticsCSV(w io.Writer, rows []model.AnalyticRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(analyticsHeader); err != nil {
		return eris.Wrap(err, "export: write analytics header")
	}
	for _, a := range rows {
		mean := ""
		if a.MeanRating != nil {
			mean = formatFloat(*a.MeanRating, 2)
		}
		row := []string{
			a.PlaceID, a.Name, a.Address,
			formatFloat(a.Location.Lat, 6),
			formatFloat(a.Location.Lng, 6),
			formatFloat(a.DistanceMiles, 2),
			strconv.Itoa(a.ReviewCount),
			mean,
			strconv.Itoa(a.PositiveCount),
			strconv.Itoa(a.NeutralCount),
			strconv.Itoa(a.NegativeCount),
			formatBool(a.HighNegative),
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "export: write analytics row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush analytics csv")
}

func formatFloat(f float64, prec int) string {
	return strconv.FormatFloat(f, 'f', prec, 64)
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
