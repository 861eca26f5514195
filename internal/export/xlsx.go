package export

import (
	"io"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/insights-cli/internal/model"
)

// WriteWorkbook writes a three-sheet XLSX workbook (Places, Reviews,
// Analytics) for a run's datasets.
func WriteWorkbook(w io.Writer, result *model.RunResult) error {
	f := xlsx.NewFile()

	if err := addPlacesSheet(f, result.Places); err != nil {
		return err
	}
	if err := addReviewsSheet(f, result.Reviews); err != nil {
		return err
	}
	if err := addAnalyticsSheet(f, result.Analytics); err != nil {
		return err
	}

	return eris.Wrap(f.Write(w), "export: write workbook")
}

func addPlacesSheet(f *xlsx.File, places []model.Place) error {
	sheet, err := f.AddSheet("Places")
	if err != nil {
		return eris.Wrap(err, "export: add places sheet")
	}
	headerRow(sheet, placesHeader)
	for _, p := range places {
		row := sheet.AddRow()
		row.AddCell().SetString(p.PlaceID)
		row.AddCell().SetString(p.Name)
		row.AddCell().SetString(p.Address)
		row.AddCell().SetString(p.City)
		row.AddCell().SetString(p.State)
		row.AddCell().SetString(p.Zip)
		row.AddCell().SetString(p.Country)
		row.AddCell().SetFloat(p.Location.Lat)
		row.AddCell().SetFloat(p.Location.Lng)
		row.AddCell().SetFloat(p.DistanceMiles)
		row.AddCell().SetFloat(p.AvgRating)
		row.AddCell().SetInt(p.RatingsTotal)
		row.AddCell().SetString(string(p.SourceStrategy))
		row.AddCell().SetInt(p.SourceTile)
	}
	return nil
}

func addReviewsSheet(f *xlsx.File, reviews []model.Review) error {
	sheet, err := f.AddSheet("Reviews")
	if err != nil {
		return eris.Wrap(err, "export: add reviews sheet")
	}
	headerRow(sheet, reviewsHeader)
	for _, r := range reviews {
		reviewedAt := ""
		if !r.Time.IsZero() {
			reviewedAt = r.Time.UTC().Format(time.RFC3339)
		}
		row := sheet.AddRow()
		row.AddCell().SetString(r.PlaceID)
		row.AddCell().SetString(r.PlaceName)
		row.AddCell().SetString(r.Author)
		row.AddCell().SetInt(r.Rating)
		row.AddCell().SetString(r.Text)
		row.AddCell().SetString(reviewedAt)
		row.AddCell().SetString(string(r.Sentiment))
		row.AddCell().SetString(formatBool(r.Issues.Food))
		row.AddCell().SetString(formatBool(r.Issues.Service))
		row.AddCell().SetString(formatBool(r.Issues.Cleanliness))
		row.AddCell().SetString(formatBool(r.Issues.Price))
		row.AddCell().SetString(r.Address)
		row.AddCell().SetString(r.City)
		row.AddCell().SetString(r.State)
		row.AddCell().SetString(r.Zip)
	}
	return nil
}

func addAnalyticsSheet(f *xlsx.File, rows []model.AnalyticRow) error {
	sheet, err := f.AddSheet("Analytics")
	if err != nil {
		return eris.Wrap(err, "export: add analytics sheet")
	}
	headerRow(sheet, analyticsHeader)
	for _, a := range rows {
		row := sheet.AddRow()
		row.AddCell().SetString(a.PlaceID)
		row.AddCell().SetString(a.Name)
		row.AddCell().SetString(a.Address)
		row.AddCell().SetFloat(a.Location.Lat)
		row.AddCell().SetFloat(a.Location.Lng)
		row.AddCell().SetFloat(a.DistanceMiles)
		row.AddCell().SetInt(a.ReviewCount)
		if a.MeanRating != nil {
			row.AddCell().SetFloat(*a.MeanRating)
		} else {
			row.AddCell().SetString("")
		}
		row.AddCell().SetInt(a.PositiveCount)
		row.AddCell().SetInt(a.NeutralCount)
		row.AddCell().SetInt(a.NegativeCount)
		row.AddCell().SetString(formatBool(a.HighNegative))
	}
	return nil
}

func headerRow(sheet *xlsx.Sheet, cols []string) {
	row := sheet.AddRow()
	for _, c := range cols {
		row.AddCell().SetString(c)
	}
}
