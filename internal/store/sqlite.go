package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/insights-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	query        TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	warnings     TEXT,
	place_count  INTEGER NOT NULL DEFAULT 0,
	review_count INTEGER NOT NULL DEFAULT 0,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS places (
	run_id          TEXT NOT NULL REFERENCES runs(id),
	place_id        TEXT NOT NULL,
	name            TEXT NOT NULL,
	address         TEXT,
	city            TEXT,
	state           TEXT,
	zip             TEXT,
	country         TEXT,
	lat             REAL NOT NULL,
	lng             REAL NOT NULL,
	distance_miles  REAL NOT NULL,
	avg_rating      REAL,
	ratings_total   INTEGER,
	types           TEXT,
	source_tile     INTEGER NOT NULL,
	source_strategy TEXT NOT NULL,
	PRIMARY KEY (run_id, place_id)
);

CREATE TABLE IF NOT EXISTS reviews (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	place_id   TEXT NOT NULL,
	place_name TEXT,
	author     TEXT,
	rating     INTEGER NOT NULL,
	body       TEXT,
	reviewed_at DATETIME,
	sentiment  TEXT,
	issues     TEXT,
	address    TEXT,
	city       TEXT,
	state      TEXT,
	zip        TEXT
);

CREATE TABLE IF NOT EXISTS analytics (
	run_id         TEXT NOT NULL REFERENCES runs(id),
	place_id       TEXT NOT NULL,
	name           TEXT NOT NULL,
	address        TEXT,
	lat            REAL NOT NULL,
	lng            REAL NOT NULL,
	distance_miles REAL NOT NULL,
	review_count   INTEGER NOT NULL,
	rating_1       INTEGER NOT NULL,
	rating_2       INTEGER NOT NULL,
	rating_3       INTEGER NOT NULL,
	rating_4       INTEGER NOT NULL,
	rating_5       INTEGER NOT NULL,
	mean_rating    REAL,
	positive_count INTEGER NOT NULL,
	neutral_count  INTEGER NOT NULL,
	negative_count INTEGER NOT NULL,
	monthly_counts TEXT,
	high_negative  INTEGER NOT NULL,
	PRIMARY KEY (run_id, place_id)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_reviews_run_place ON reviews(run_id, place_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, q model.SearchQuery) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	queryJSON, err := marshalJSON(q, "query")
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, query, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, queryJSON, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Query:     q,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, status model.RunStatus, warnings []model.Warning, placeCount, reviewCount int) error {
	warnJSON, err := marshalJSON(warnings, "warnings")
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, warnings = ?, place_count = ?, review_count = ?, updated_at = ? WHERE id = ?`,
		string(status), warnJSON, placeCount, reviewCount, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, runID)
}

func (s *SQLiteStore) SavePlaces(ctx context.Context, runID string, places []model.Place) error {
	for _, p := range places {
		typesJSON, err := marshalJSON(p.Types, "types")
		if err != nil {
			return err
		}
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO places (run_id, place_id, name, address, city, state, zip, country,
				lat, lng, distance_miles, avg_rating, ratings_total, types, source_tile, source_strategy)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, p.PlaceID, p.Name, p.Address, p.City, p.State, p.Zip, p.Country,
			p.Location.Lat, p.Location.Lng, p.DistanceMiles, p.AvgRating, p.RatingsTotal,
			typesJSON, p.SourceTile, string(p.SourceStrategy),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert place %s", p.PlaceID)
		}
	}
	return nil
}

func (s *SQLiteStore) SaveReviews(ctx context.Context, runID string, reviews []model.Review) error {
	for _, r := range reviews {
		issuesJSON, err := marshalJSON(r.Issues, "issues")
		if err != nil {
			return err
		}
		var reviewedAt any
		if !r.Time.IsZero() {
			reviewedAt = r.Time.UTC()
		}
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO reviews (run_id, place_id, place_name, author, rating, body, reviewed_at,
				sentiment, issues, address, city, state, zip)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, r.PlaceID, r.PlaceName, r.Author, r.Rating, r.Text, reviewedAt,
			string(r.Sentiment), issuesJSON, r.Address, r.City, r.State, r.Zip,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert review for %s", r.PlaceID)
		}
	}
	return nil
}

func (s *SQLiteStore) SaveAnalytics(ctx context.Context, runID string, rows []model.AnalyticRow) error {
	for _, a := range rows {
		monthlyJSON, err := marshalJSON(a.MonthlyCounts, "monthly counts")
		if err != nil {
			return err
		}
		var mean any
		if a.MeanRating != nil {
			mean = *a.MeanRating
		}
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO analytics (run_id, place_id, name, address, lat, lng, distance_miles,
				review_count, rating_1, rating_2, rating_3, rating_4, rating_5, mean_rating,
				positive_count, neutral_count, negative_count, monthly_counts, high_negative)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, a.PlaceID, a.Name, a.Address, a.Location.Lat, a.Location.Lng, a.DistanceMiles,
			a.ReviewCount, a.RatingCounts[0], a.RatingCounts[1], a.RatingCounts[2],
			a.RatingCounts[3], a.RatingCounts[4], mean,
			a.PositiveCount, a.NeutralCount, a.NegativeCount, monthlyJSON, a.HighNegative,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert analytics for %s", a.PlaceID)
		}
	}
	return nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, query, status, warnings, place_count, review_count, created_at, updated_at
		 FROM runs WHERE id = ?`, runID)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, status, warnings, place_count, review_count, created_at, updated_at
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list runs")
}

func (s *SQLiteStore) LoadResult(ctx context.Context, runID string) (*model.RunResult, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	result := &model.RunResult{RunID: run.ID, Query: run.Query, Warnings: run.Warnings}

	places, err := s.db.QueryContext(ctx, `
		SELECT place_id, name, address, city, state, zip, country, lat, lng,
			distance_miles, avg_rating, ratings_total, types, source_tile, source_strategy
		FROM places WHERE run_id = ? ORDER BY distance_miles`, runID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load places")
	}
	defer places.Close() //nolint:errcheck
	for places.Next() {
		var p model.Place
		var avgRating sql.NullFloat64
		var ratingsTotal sql.NullInt64
		var typesJSON, strategy string
		if err := places.Scan(&p.PlaceID, &p.Name, &p.Address, &p.City, &p.State, &p.Zip, &p.Country,
			&p.Location.Lat, &p.Location.Lng, &p.DistanceMiles, &avgRating, &ratingsTotal,
			&typesJSON, &p.SourceTile, &strategy); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan place")
		}
		p.AvgRating = avgRating.Float64
		p.RatingsTotal = int(ratingsTotal.Int64)
		p.SourceStrategy = model.Strategy(strategy)
		if err := unmarshalJSON(typesJSON, &p.Types, "types"); err != nil {
			return nil, err
		}
		result.Places = append(result.Places, p)
	}
	if err := places.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: load places")
	}

	reviews, err := s.db.QueryContext(ctx, `
		SELECT place_id, place_name, author, rating, body, reviewed_at, sentiment, issues,
			address, city, state, zip
		FROM reviews WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load reviews")
	}
	defer reviews.Close() //nolint:errcheck
	for reviews.Next() {
		var r model.Review
		var reviewedAt sql.NullTime
		var sentiment, issuesJSON string
		if err := reviews.Scan(&r.PlaceID, &r.PlaceName, &r.Author, &r.Rating, &r.Text,
			&reviewedAt, &sentiment, &issuesJSON, &r.Address, &r.City, &r.State, &r.Zip); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan review")
		}
		if reviewedAt.Valid {
			r.Time = reviewedAt.Time.UTC()
		}
		r.Sentiment = model.SentimentLabel(sentiment)
		if err := unmarshalJSON(issuesJSON, &r.Issues, "issues"); err != nil {
			return nil, err
		}
		result.Reviews = append(result.Reviews, r)
	}
	if err := reviews.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: load reviews")
	}

	analytics, err := s.db.QueryContext(ctx, `
		SELECT place_id, name, address, lat, lng, distance_miles, review_count,
			rating_1, rating_2, rating_3, rating_4, rating_5, mean_rating,
			positive_count, neutral_count, negative_count, monthly_counts, high_negative
		FROM analytics WHERE run_id = ? ORDER BY distance_miles`, runID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load analytics")
	}
	defer analytics.Close() //nolint:errcheck
	for analytics.Next() {
		var a model.AnalyticRow
		var mean sql.NullFloat64
		var monthlyJSON string
		if err := analytics.Scan(&a.PlaceID, &a.Name, &a.Address, &a.Location.Lat, &a.Location.Lng,
			&a.DistanceMiles, &a.ReviewCount,
			&a.RatingCounts[0], &a.RatingCounts[1], &a.RatingCounts[2], &a.RatingCounts[3], &a.RatingCounts[4],
			&mean, &a.PositiveCount, &a.NeutralCount, &a.NegativeCount, &monthlyJSON, &a.HighNegative); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan analytics")
		}
		if mean.Valid {
			v := mean.Float64
			a.MeanRating = &v
		}
		if err := unmarshalJSON(monthlyJSON, &a.MonthlyCounts, "monthly counts"); err != nil {
			return nil, err
		}
		result.Analytics = append(result.Analytics, a)
	}
	if err := analytics.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: load analytics")
	}

	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*model.Run, error) {
	var r model.Run
	var queryJSON string
	var warnJSON sql.NullString
	if err := row.Scan(&r.ID, &queryJSON, &r.Status, &warnJSON, &r.PlaceCount, &r.ReviewCount,
		&r.CreatedAt, &r.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, eris.Wrap(err, "sqlite: run not found")
		}
		return nil, eris.Wrap(err, "sqlite: scan run")
	}
	if err := unmarshalJSON(queryJSON, &r.Query, "query"); err != nil {
		return nil, err
	}
	if warnJSON.Valid {
		if err := unmarshalJSON(warnJSON.String, &r.Warnings, "warnings"); err != nil {
			return nil, err
		}
	}
	return &r, nil
}

func checkRowsAffected(res sql.Result, runID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: run %s not found", runID)
	}
	return nil
}
