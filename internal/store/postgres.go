package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/insights-cli/internal/model"
)

// PgxPool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool PgxPool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool, primarily for tests.
func NewPostgresFromPool(pool PgxPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	query        JSONB NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	warnings     JSONB,
	place_count  INTEGER NOT NULL DEFAULT 0,
	review_count INTEGER NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
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
	lat             DOUBLE PRECISION NOT NULL,
	lng             DOUBLE PRECISION NOT NULL,
	distance_miles  DOUBLE PRECISION NOT NULL,
	avg_rating      DOUBLE PRECISION,
	ratings_total   INTEGER,
	types           JSONB,
	source_tile     INTEGER NOT NULL,
	source_strategy TEXT NOT NULL,
	PRIMARY KEY (run_id, place_id)
);

CREATE TABLE IF NOT EXISTS reviews (
	id          BIGSERIAL PRIMARY KEY,
	run_id      TEXT NOT NULL REFERENCES runs(id),
	place_id    TEXT NOT NULL,
	place_name  TEXT,
	author      TEXT,
	rating      INTEGER NOT NULL,
	body        TEXT,
	reviewed_at TIMESTAMPTZ,
	sentiment   TEXT,
	issues      JSONB,
	address     TEXT,
	city        TEXT,
	state       TEXT,
	zip         TEXT
);

CREATE TABLE IF NOT EXISTS analytics (
	run_id         TEXT NOT NULL REFERENCES runs(id),
	place_id       TEXT NOT NULL,
	name           TEXT NOT NULL,
	address        TEXT,
	lat            DOUBLE PRECISION NOT NULL,
	lng            DOUBLE PRECISION NOT NULL,
	distance_miles DOUBLE PRECISION NOT NULL,
	review_count   INTEGER NOT NULL,
	rating_1       INTEGER NOT NULL,
	rating_2       INTEGER NOT NULL,
	rating_3       INTEGER NOT NULL,
	rating_4       INTEGER NOT NULL,
	rating_5       INTEGER NOT NULL,
	mean_rating    DOUBLE PRECISION,
	positive_count INTEGER NOT NULL,
	neutral_count  INTEGER NOT NULL,
	negative_count INTEGER NOT NULL,
	monthly_counts JSONB,
	high_negative  BOOLEAN NOT NULL,
	PRIMARY KEY (run_id, place_id)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_reviews_run_place ON reviews(run_id, place_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, q model.SearchQuery) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	queryJSON, err := marshalJSON(q, "query")
	if err != nil {
		return nil, err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs (id, query, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, queryJSON, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Query:     q,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, status model.RunStatus, warnings []model.Warning, placeCount, reviewCount int) error {
	warnJSON, err := marshalJSON(warnings, "warnings")
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, warnings = $2, place_count = $3, review_count = $4, updated_at = $5 WHERE id = $6`,
		string(status), warnJSON, placeCount, reviewCount, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: run %s not found", runID)
	}
	return nil
}

func (s *PostgresStore) SavePlaces(ctx context.Context, runID string, places []model.Place) error {
	for _, p := range places {
		typesJSON, err := marshalJSON(p.Types, "types")
		if err != nil {
			return err
		}
		_, err = s.pool.Exec(ctx, `
			INSERT INTO places (run_id, place_id, name, address, city, state, zip, country,
				lat, lng, distance_miles, avg_rating, ratings_total, types, source_tile, source_strategy)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
			runID, p.PlaceID, p.Name, p.Address, p.City, p.State, p.Zip, p.Country,
			p.Location.Lat, p.Location.Lng, p.DistanceMiles, p.AvgRating, p.RatingsTotal,
			typesJSON, p.SourceTile, string(p.SourceStrategy),
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert place %s", p.PlaceID)
		}
	}
	return nil
}

func (s *PostgresStore) SaveReviews(ctx context.Context, runID string, reviews []model.Review) error {
	for _, r := range reviews {
		issuesJSON, err := marshalJSON(r.Issues, "issues")
		if err != nil {
			return err
		}
		var reviewedAt *time.Time
		if !r.Time.IsZero() {
			t := r.Time.UTC()
			reviewedAt = &t
		}
		_, err = s.pool.Exec(ctx, `
			INSERT INTO reviews (run_id, place_id, place_name, author, rating, body, reviewed_at,
				sentiment, issues, address, city, state, zip)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			runID, r.PlaceID, r.PlaceName, r.Author, r.Rating, r.Text, reviewedAt,
			string(r.Sentiment), issuesJSON, r.Address, r.City, r.State, r.Zip,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert review for %s", r.PlaceID)
		}
	}
	return nil
}

func (s *PostgresStore) SaveAnalytics(ctx context.Context, runID string, rows []model.AnalyticRow) error {
	for _, a := range rows {
		monthlyJSON, err := marshalJSON(a.MonthlyCounts, "monthly counts")
		if err != nil {
			return err
		}
		_, err = s.pool.Exec(ctx, `
			INSERT INTO analytics (run_id, place_id, name, address, lat, lng, distance_miles,
				review_count, rating_1, rating_2, rating_3, rating_4, rating_5, mean_rating,
				positive_count, neutral_count, negative_count, monthly_counts, high_negative)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
			runID, a.PlaceID, a.Name, a.Address, a.Location.Lat, a.Location.Lng, a.DistanceMiles,
			a.ReviewCount, a.RatingCounts[0], a.RatingCounts[1], a.RatingCounts[2],
			a.RatingCounts[3], a.RatingCounts[4], a.MeanRating,
			a.PositiveCount, a.NeutralCount, a.NegativeCount, monthlyJSON, a.HighNegative,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert analytics for %s", a.PlaceID)
		}
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, query, status, COALESCE(warnings::text, ''), place_count, review_count, created_at, updated_at
		 FROM runs WHERE id = $1`, runID)
	return scanRunPg(row)
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, query, status, COALESCE(warnings::text, ''), place_count, review_count, created_at, updated_at
		 FROM runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var out []model.Run
	for rows.Next() {
		r, err := scanRunPg(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list runs")
}

func (s *PostgresStore) LoadResult(ctx context.Context, runID string) (*model.RunResult, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	result := &model.RunResult{RunID: run.ID, Query: run.Query, Warnings: run.Warnings}

	places, err := s.pool.Query(ctx, `
		SELECT place_id, name, COALESCE(address, ''), COALESCE(city, ''), COALESCE(state, ''),
			COALESCE(zip, ''), COALESCE(country, ''), lat, lng, distance_miles,
			COALESCE(avg_rating, 0), COALESCE(ratings_total, 0), COALESCE(types::text, ''),
			source_tile, source_strategy
		FROM places WHERE run_id = $1 ORDER BY distance_miles`, runID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load places")
	}
	defer places.Close()
	for places.Next() {
		var p model.Place
		var typesJSON, strategy string
		if err := places.Scan(&p.PlaceID, &p.Name, &p.Address, &p.City, &p.State, &p.Zip, &p.Country,
			&p.Location.Lat, &p.Location.Lng, &p.DistanceMiles, &p.AvgRating, &p.RatingsTotal,
			&typesJSON, &p.SourceTile, &strategy); err != nil {
			return nil, eris.Wrap(err, "postgres: scan place")
		}
		p.SourceStrategy = model.Strategy(strategy)
		if err := unmarshalJSON(typesJSON, &p.Types, "types"); err != nil {
			return nil, err
		}
		result.Places = append(result.Places, p)
	}
	if err := places.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: load places")
	}

	reviews, err := s.pool.Query(ctx, `
		SELECT place_id, COALESCE(place_name, ''), COALESCE(author, ''), rating, COALESCE(body, ''),
			reviewed_at, COALESCE(sentiment, ''), COALESCE(issues::text, ''),
			COALESCE(address, ''), COALESCE(city, ''), COALESCE(state, ''), COALESCE(zip, '')
		FROM reviews WHERE run_id = $1 ORDER BY id`, runID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load reviews")
	}
	defer reviews.Close()
	for reviews.Next() {
		var r model.Review
		var reviewedAt *time.Time
		var sentiment, issuesJSON string
		if err := reviews.Scan(&r.PlaceID, &r.PlaceName, &r.Author, &r.Rating, &r.Text,
			&reviewedAt, &sentiment, &issuesJSON, &r.Address, &r.City, &r.State, &r.Zip); err != nil {
			return nil, eris.Wrap(err, "postgres: scan review")
		}
		if reviewedAt != nil {
			r.Time = reviewedAt.UTC()
		}
		r.Sentiment = model.SentimentLabel(sentiment)
		if err := unmarshalJSON(issuesJSON, &r.Issues, "issues"); err != nil {
			return nil, err
		}
		result.Reviews = append(result.Reviews, r)
	}
	if err := reviews.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: load reviews")
	}

	analytics, err := s.pool.Query(ctx, `
		SELECT place_id, name, COALESCE(address, ''), lat, lng, distance_miles, review_count,
			rating_1, rating_2, rating_3, rating_4, rating_5, mean_rating,
			positive_count, neutral_count, negative_count, COALESCE(monthly_counts::text, ''), high_negative
		FROM analytics WHERE run_id = $1 ORDER BY distance_miles`, runID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load analytics")
	}
	defer analytics.Close()
	for analytics.Next() {
		var a model.AnalyticRow
		var mean *float64
		var monthlyJSON string
		if err := analytics.Scan(&a.PlaceID, &a.Name, &a.Address, &a.Location.Lat, &a.Location.Lng,
			&a.DistanceMiles, &a.ReviewCount,
			&a.RatingCounts[0], &a.RatingCounts[1], &a.RatingCounts[2], &a.RatingCounts[3], &a.RatingCounts[4],
			&mean, &a.PositiveCount, &a.NeutralCount, &a.NegativeCount, &monthlyJSON, &a.HighNegative); err != nil {
			return nil, eris.Wrap(err, "postgres: scan analytics")
		}
		a.MeanRating = mean
		if err := unmarshalJSON(monthlyJSON, &a.MonthlyCounts, "monthly counts"); err != nil {
			return nil, err
		}
		result.Analytics = append(result.Analytics, a)
	}
	if err := analytics.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: load analytics")
	}

	return result, nil
}

func scanRunPg(row pgx.Row) (*model.Run, error) {
	var r model.Run
	var queryJSON, warnJSON string
	if err := row.Scan(&r.ID, &queryJSON, &r.Status, &warnJSON, &r.PlaceCount, &r.ReviewCount,
		&r.CreatedAt, &r.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrap(err, "postgres: run not found")
		}
		return nil, eris.Wrap(err, "postgres: scan run")
	}
	if err := unmarshalJSON(queryJSON, &r.Query, "query"); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(warnJSON, &r.Warnings, "warnings"); err != nil {
		return nil, err
	}
	return &r, nil
}
