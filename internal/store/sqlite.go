package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/statadvice/accidents/internal/model"
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
CREATE TABLE IF NOT EXISTS analysis_runs (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL DEFAULT 'running',
	eps_meters  REAL NOT NULL,
	min_pts     INTEGER NOT NULL,
	records     INTEGER NOT NULL DEFAULT 0,
	districts   INTEGER NOT NULL DEFAULT 0,
	clusters    INTEGER NOT NULL DEFAULT 0,
	error       TEXT,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME
);

CREATE TABLE IF NOT EXISTS accidents (
	id              TEXT PRIMARY KEY,
	occurred_at     DATETIME NOT NULL,
	severity        TEXT NOT NULL,
	severity_binary TEXT NOT NULL,
	district        TEXT NOT NULL,
	lat             REAL NOT NULL,
	lon             REAL NOT NULL,
	cluster         INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_accidents_occurred_at ON accidents(occurred_at);
CREATE INDEX IF NOT EXISTS idx_accidents_district ON accidents(district);
CREATE INDEX IF NOT EXISTS idx_accidents_cluster ON accidents(cluster);
CREATE INDEX IF NOT EXISTS idx_analysis_runs_started_at ON analysis_runs(started_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, run model.AnalysisRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analysis_runs (id, status, eps_meters, min_pts, started_at)
		VALUES (?, ?, ?, ?, ?)`,
		run.ID, string(run.Status), run.EpsMeters, run.MinPts, run.StartedAt.UTC())
	return eris.Wrap(err, "sqlite: create run")
}

func (s *SQLiteStore) FinishRun(ctx context.Context, run model.AnalysisRun) error {
	finished := run.FinishedAt
	if finished.IsZero() {
		finished = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE analysis_runs
		SET status = ?, records = ?, districts = ?, clusters = ?, error = ?, finished_at = ?
		WHERE id = ?`,
		string(run.Status), run.Records, run.Districts, run.Clusters, run.Error, finished, run.ID)
	return eris.Wrap(err, "sqlite: finish run")
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.AnalysisRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, status, eps_meters, min_pts, records, districts, clusters,
		       COALESCE(error, ''), started_at, COALESCE(finished_at, started_at)
		FROM analysis_runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.AnalysisRun
	for rows.Next() {
		var r model.AnalysisRun
		var status string
		if err := rows.Scan(&r.ID, &status, &r.EpsMeters, &r.MinPts, &r.Records,
			&r.Districts, &r.Clusters, &r.Error, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		r.Status = model.RunStatus(status)
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

func (s *SQLiteStore) ReplaceAccidents(ctx context.Context, records []model.AccidentRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM accidents`); err != nil {
		return eris.Wrap(err, "sqlite: clear accidents")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO accidents (id, occurred_at, severity, severity_binary, district, lat, lon, cluster)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			r.ID, r.Time.UTC(), string(r.Severity), string(r.SeverityBinary),
			r.District, r.Lat, r.Lon, r.Cluster); err != nil {
			return eris.Wrapf(err, "sqlite: insert accident %s", r.ID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit accidents")
}

func (s *SQLiteStore) CountAccidents(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accidents`).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count accidents")
}
