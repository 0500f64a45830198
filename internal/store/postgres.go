package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/statadvice/accidents/internal/db"
	"github.com/statadvice/accidents/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool; used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: func() {}}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS analysis_runs (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL DEFAULT 'running',
	eps_meters  DOUBLE PRECISION NOT NULL,
	min_pts     INTEGER NOT NULL,
	records     INTEGER NOT NULL DEFAULT 0,
	districts   INTEGER NOT NULL DEFAULT 0,
	clusters    INTEGER NOT NULL DEFAULT 0,
	error       TEXT,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS accidents (
	id              TEXT PRIMARY KEY,
	occurred_at     TIMESTAMPTZ NOT NULL,
	severity        TEXT NOT NULL,
	severity_binary TEXT NOT NULL,
	district        TEXT NOT NULL,
	lat             DOUBLE PRECISION NOT NULL,
	lon             DOUBLE PRECISION NOT NULL,
	cluster         INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_accidents_occurred_at ON accidents(occurred_at);
CREATE INDEX IF NOT EXISTS idx_accidents_district ON accidents(district);
CREATE INDEX IF NOT EXISTS idx_accidents_cluster ON accidents(cluster);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.closeFn()
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, run model.AnalysisRun) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO analysis_runs (id, status, eps_meters, min_pts, started_at)
		VALUES ($1, $2, $3, $4, $5)`,
		run.ID, string(run.Status), run.EpsMeters, run.MinPts, run.StartedAt.UTC())
	return eris.Wrap(err, "postgres: create run")
}

func (s *PostgresStore) FinishRun(ctx context.Context, run model.AnalysisRun) error {
	finished := run.FinishedAt
	if finished.IsZero() {
		finished = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		UPDATE analysis_runs
		SET status = $1, records = $2, districts = $3, clusters = $4, error = $5, finished_at = $6
		WHERE id = $7`,
		string(run.Status), run.Records, run.Districts, run.Clusters, run.Error, finished, run.ID)
	return eris.Wrap(err, "postgres: finish run")
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]model.AnalysisRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, status, eps_meters, min_pts, records, districts, clusters,
		       COALESCE(error, ''), started_at, COALESCE(finished_at, started_at)
		FROM analysis_runs
		ORDER BY started_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.AnalysisRun
	for rows.Next() {
		var r model.AnalysisRun
		var status string
		if err := rows.Scan(&r.ID, &status, &r.EpsMeters, &r.MinPts, &r.Records,
			&r.Districts, &r.Clusters, &r.Error, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		r.Status = model.RunStatus(status)
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: iterate runs")
}

func (s *PostgresStore) ReplaceAccidents(ctx context.Context, records []model.AccidentRecord) error {
	if _, err := s.pool.Exec(ctx, `TRUNCATE accidents`); err != nil {
		return eris.Wrap(err, "postgres: truncate accidents")
	}

	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, []any{
			r.ID, r.Time.UTC(), string(r.Severity), string(r.SeverityBinary),
			r.District, r.Lat, r.Lon, r.Cluster,
		})
	}

	columns := []string{"id", "occurred_at", "severity", "severity_binary", "district", "lat", "lon", "cluster"}
	if _, err := db.CopyFrom(ctx, s.pool, "accidents", columns, rows); err != nil {
		return eris.Wrap(err, "postgres: copy accidents")
	}
	return nil
}

func (s *PostgresStore) CountAccidents(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM accidents`).Scan(&n)
	return n, eris.Wrap(err, "postgres: count accidents")
}
