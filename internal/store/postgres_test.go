package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/insights-cli/internal/model"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresFromPool(mock), mock
}

func TestPostgresMigrate(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS runs").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	assert.NoError(t, st.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateRun(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO runs").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), string(model.RunStatusRunning), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := st.CreateRun(context.Background(), testQuery())
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCompleteRun(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec("UPDATE runs SET").
		WithArgs(string(model.RunStatusComplete), pgxmock.AnyArg(), 3, 9, pgxmock.AnyArg(), "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := st.CompleteRun(context.Background(), "run-1", model.RunStatusComplete, nil, 3, 9)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCompleteRunUnknownID(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec("UPDATE runs SET").
		WithArgs(string(model.RunStatusComplete), pgxmock.AnyArg(), 0, 0, pgxmock.AnyArg(), "nope").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := st.CompleteRun(context.Background(), "nope", model.RunStatusComplete, nil, 0, 0)
	assert.Error(t, err)
}

func TestPostgresSavePlaces(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO places").
		WithArgs("run-1", "P1", "Tony's Pizza", "1 Main St", "Trenton", "NJ", "08601", "US",
			40.22, -74.76, 1.25, 4.4, 213, pgxmock.AnyArg(), 0, string(model.StrategyCoverage)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := st.SavePlaces(context.Background(), "run-1", []model.Place{{
		PlaceID:        "P1",
		Name:           "Tony's Pizza",
		Address:        "1 Main St",
		City:           "Trenton",
		State:          "NJ",
		Zip:            "08601",
		Country:        "US",
		Location:       model.Coordinate{Lat: 40.22, Lng: -74.76},
		DistanceMiles:  1.25,
		AvgRating:      4.4,
		RatingsTotal:   213,
		SourceTile:     0,
		SourceStrategy: model.StrategyCoverage,
	}})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveReviews(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO reviews").
		WithArgs("run-1", "P1", "Tony's Pizza", "Ana", 5, "great slice", pgxmock.AnyArg(),
			string(model.SentimentPositive), pgxmock.AnyArg(), "", "", "", "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := st.SaveReviews(context.Background(), "run-1", []model.Review{{
		PlaceID:   "P1",
		PlaceName: "Tony's Pizza",
		Author:    "Ana",
		Rating:    5,
		Text:      "great slice",
		Time:      time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC),
		Sentiment: model.SentimentPositive,
	}})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetRun(t *testing.T) {
	st, mock := newMockStore(t)
	now := time.Now().UTC()

	rows := pgxmock.NewRows([]string{
		"id", "query", "status", "warnings", "place_count", "review_count", "created_at", "updated_at",
	}).AddRow("run-1", `{"address":"Trenton, NJ","radius_miles":10,"strategy":"coverage","center":{"lat":0,"lng":0}}`,
		model.RunStatusComplete, `[{"code":"tile_failed","detail":"tile 3"}]`, 5, 20, now, now)

	mock.ExpectQuery("SELECT id, query, status").
		WithArgs("run-1").
		WillReturnRows(rows)

	run, err := st.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, "Trenton, NJ", run.Query.Address)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	require.Len(t, run.Warnings, 1)
	assert.Equal(t, model.WarnTileFailed, run.Warnings[0].Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListRuns(t *testing.T) {
	st, mock := newMockStore(t)
	now := time.Now().UTC()

	rows := pgxmock.NewRows([]string{
		"id", "query", "status", "warnings", "place_count", "review_count", "created_at", "updated_at",
	}).
		AddRow("run-2", `{"address":"b"}`, model.RunStatusComplete, "", 1, 2, now, now).
		AddRow("run-1", `{"address":"a"}`, model.RunStatusFailed, "", 0, 0, now, now)

	mock.ExpectQuery("SELECT id, query, status").
		WithArgs(10).
		WillReturnRows(rows)

	runs, err := st.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
