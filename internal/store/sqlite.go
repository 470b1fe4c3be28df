package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/firmlink/internal/model"
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
		"PRAGMA foreign_keys=ON",
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
	id          TEXT PRIMARY KEY,
	registry    TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	stats       TEXT,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at DATETIME
);

CREATE TABLE IF NOT EXISTS match_results (
	run_id           TEXT NOT NULL REFERENCES runs(id),
	source_locator   TEXT NOT NULL,
	raw_name         TEXT NOT NULL,
	firm_id          TEXT NOT NULL,
	strategy         TEXT NOT NULL,
	final_confidence REAL NOT NULL,
	PRIMARY KEY (run_id, source_locator)
);

CREATE TABLE IF NOT EXISTS samples (
	run_id TEXT PRIMARY KEY REFERENCES runs(id),
	seed   INTEGER NOT NULL,
	items  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS reports (
	run_id TEXT PRIMARY KEY REFERENCES runs(id),
	report TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_registry ON runs(registry);
CREATE INDEX IF NOT EXISTS idx_match_results_run_id ON match_results(run_id);
CREATE INDEX IF NOT EXISTS idx_match_results_firm_id ON match_results(firm_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, registry string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, registry, status, created_at) VALUES (?, ?, ?, ?)`,
		id, registry, string(model.RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Registry:  registry,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
	}, nil
}

func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, status model.RunStatus, stats *model.RunStats) error {
	statsJSON, err := marshalStats(stats)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, stats = ?, finished_at = ? WHERE id = ?`,
		string(status), statsJSON, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, registry, status, stats, created_at, finished_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, registry, status, stats, created_at, finished_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Registry != "" {
		query += ` AND registry = ?`
		args = append(args, filter.Registry)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) AppendResults(ctx context.Context, runID string, results []model.MatchResult) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin results tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO match_results (run_id, source_locator, raw_name, firm_id, strategy, final_confidence)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare results insert")
	}
	defer stmt.Close()

	for _, r := range results {
		if _, err := stmt.ExecContext(ctx,
			runID, r.SourceLocator, r.RawName, r.FirmID, string(r.Strategy), r.FinalConfidence,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert result %s", r.SourceLocator)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit results")
}

func (s *SQLiteStore) GetResults(ctx context.Context, runID string) ([]model.MatchResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_locator, raw_name, firm_id, strategy, final_confidence
		 FROM match_results WHERE run_id = ? ORDER BY source_locator`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get results for run %s", runID)
	}
	defer rows.Close()

	var results []model.MatchResult
	for rows.Next() {
		var r model.MatchResult
		if err := rows.Scan(&r.SourceLocator, &r.RawName, &r.FirmID, &r.Strategy, &r.FinalConfidence); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan result")
		}
		results = append(results, r)
	}
	return results, eris.Wrap(rows.Err(), "sqlite: results iterate")
}

func (s *SQLiteStore) SaveSample(ctx context.Context, sample model.ValidationSample) error {
	itemsJSON, err := json.Marshal(sample.Items)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal sample items")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO samples (run_id, seed, items) VALUES (?, ?, ?)
		 ON CONFLICT (run_id) DO UPDATE SET seed = excluded.seed, items = excluded.items`,
		sample.RunID, sample.Seed, string(itemsJSON),
	)
	return eris.Wrapf(err, "sqlite: save sample for run %s", sample.RunID)
}

func (s *SQLiteStore) GetSample(ctx context.Context, runID string) (*model.ValidationSample, error) {
	sample := model.ValidationSample{RunID: runID}
	var itemsJSON string

	err := s.db.QueryRowContext(ctx,
		`SELECT seed, items FROM samples WHERE run_id = ?`, runID,
	).Scan(&sample.Seed, &itemsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get sample for run %s", runID)
	}
	if err := json.Unmarshal([]byte(itemsJSON), &sample.Items); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal sample items")
	}
	return &sample, nil
}

func (s *SQLiteStore) SaveReport(ctx context.Context, report model.PrecisionReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal report")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (run_id, report) VALUES (?, ?)
		 ON CONFLICT (run_id) DO UPDATE SET report = excluded.report`,
		report.RunID, string(reportJSON),
	)
	return eris.Wrapf(err, "sqlite: save report for run %s", report.RunID)
}

func (s *SQLiteStore) GetReport(ctx context.Context, runID string) (*model.PrecisionReport, error) {
	var reportJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT report FROM reports WHERE run_id = ?`, runID,
	).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get report for run %s", runID)
	}

	var report model.PrecisionReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal report")
	}
	return &report, nil
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

func marshalStats(stats *model.RunStats) (sql.NullString, error) {
	if stats == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(stats)
	if err != nil {
		return sql.NullString{}, eris.Wrap(err, "marshal run stats")
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var statsJSON sql.NullString
	var finishedAt sql.NullTime

	err := row.Scan(&r.ID, &r.Registry, &r.Status, &statsJSON, &r.CreatedAt, &finishedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if statsJSON.Valid {
		r.Stats = &model.RunStats{}
		if err := json.Unmarshal([]byte(statsJSON.String), r.Stats); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal run stats")
		}
	}
	if finishedAt.Valid {
		r.FinishedAt = finishedAt.Time
	}
	return &r, nil
}
