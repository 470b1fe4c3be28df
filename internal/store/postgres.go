package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/firmlink/internal/db"
	"github.com/sells-group/firmlink/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// resultColumns is the match_results column order shared by COPY and SELECT.
var resultColumns = []string{
	"run_id", "source_locator", "raw_name", "firm_id", "strategy", "final_confidence",
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_run":  `INSERT INTO runs (id, registry, status, created_at) VALUES ($1, $2, $3, $4)`,
	"finish_run":  `UPDATE runs SET status = $1, stats = $2, finished_at = $3 WHERE id = $4`,
	"get_run":     `SELECT id, registry, status, stats, created_at, finished_at FROM runs WHERE id = $1`,
	"get_results": `SELECT source_locator, raw_name, firm_id, strategy, final_confidence FROM match_results WHERE run_id = $1 ORDER BY source_locator`,
	"get_sample":  `SELECT seed, items FROM samples WHERE run_id = $1`,
	"get_report":  `SELECT report FROM reports WHERE run_id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: pool.Close}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	registry    TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	stats       JSONB,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS match_results (
	run_id           TEXT NOT NULL REFERENCES runs(id),
	source_locator   TEXT NOT NULL,
	raw_name         TEXT NOT NULL,
	firm_id          TEXT NOT NULL,
	strategy         TEXT NOT NULL,
	final_confidence DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (run_id, source_locator)
);

CREATE TABLE IF NOT EXISTS samples (
	run_id TEXT PRIMARY KEY REFERENCES runs(id),
	seed   BIGINT NOT NULL,
	items  JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS reports (
	run_id TEXT PRIMARY KEY REFERENCES runs(id),
	report JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_registry ON runs(registry);
CREATE INDEX IF NOT EXISTS idx_match_results_run_id ON match_results(run_id);
CREATE INDEX IF NOT EXISTS idx_match_results_firm_id ON match_results(firm_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, registry string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, registry, status, created_at) VALUES ($1, $2, $3, $4)`,
		id, registry, string(model.RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Registry:  registry,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
	}, nil
}

func (s *PostgresStore) FinishRun(ctx context.Context, runID string, status model.RunStatus, stats *model.RunStats) error {
	var statsJSON []byte
	if stats != nil {
		var err error
		if statsJSON, err = json.Marshal(stats); err != nil {
			return eris.Wrap(err, "postgres: marshal run stats")
		}
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, stats = $2, finished_at = $3 WHERE id = $4`,
		string(status), statsJSON, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, registry, status, stats, created_at, finished_at FROM runs WHERE id = $1`,
		runID,
	)
	return scanPgRun(row)
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, registry, status, stats, created_at, finished_at FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Registry != "" {
		query += fmt.Sprintf(` AND registry = $%d`, argIdx)
		args = append(args, filter.Registry)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanPgRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) AppendResults(ctx context.Context, runID string, results []model.MatchResult) error {
	rows := make([][]any, len(results))
	for i, r := range results {
		rows[i] = []any{runID, r.SourceLocator, r.RawName, r.FirmID, string(r.Strategy), r.FinalConfidence}
	}

	_, err := db.CopyFrom(ctx, s.pool, "match_results", resultColumns, rows)
	return eris.Wrapf(err, "postgres: append results for run %s", runID)
}

func (s *PostgresStore) GetResults(ctx context.Context, runID string) ([]model.MatchResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT source_locator, raw_name, firm_id, strategy, final_confidence
		 FROM match_results WHERE run_id = $1 ORDER BY source_locator`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get results for run %s", runID)
	}
	defer rows.Close()

	var results []model.MatchResult
	for rows.Next() {
		var r model.MatchResult
		if err := rows.Scan(&r.SourceLocator, &r.RawName, &r.FirmID, &r.Strategy, &r.FinalConfidence); err != nil {
			return nil, eris.Wrap(err, "postgres: scan result")
		}
		results = append(results, r)
	}
	return results, eris.Wrap(rows.Err(), "postgres: results iterate")
}

func (s *PostgresStore) SaveSample(ctx context.Context, sample model.ValidationSample) error {
	itemsJSON, err := json.Marshal(sample.Items)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal sample items")
	}

	_, err = s.pool.Exec(ctx,
		db.UpsertSQL("samples", []string{"run_id", "seed", "items"}, []string{"run_id"}),
		sample.RunID, sample.Seed, itemsJSON,
	)
	return eris.Wrapf(err, "postgres: save sample for run %s", sample.RunID)
}

func (s *PostgresStore) GetSample(ctx context.Context, runID string) (*model.ValidationSample, error) {
	sample := model.ValidationSample{RunID: runID}
	var itemsJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT seed, items FROM samples WHERE run_id = $1`, runID,
	).Scan(&sample.Seed, &itemsJSON)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get sample for run %s", runID)
	}
	if err := json.Unmarshal(itemsJSON, &sample.Items); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal sample items")
	}
	return &sample, nil
}

func (s *PostgresStore) SaveReport(ctx context.Context, report model.PrecisionReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal report")
	}

	_, err = s.pool.Exec(ctx,
		db.UpsertSQL("reports", []string{"run_id", "report"}, []string{"run_id"}),
		report.RunID, reportJSON,
	)
	return eris.Wrapf(err, "postgres: save report for run %s", report.RunID)
}

func (s *PostgresStore) GetReport(ctx context.Context, runID string) (*model.PrecisionReport, error) {
	var reportJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT report FROM reports WHERE run_id = $1`, runID,
	).Scan(&reportJSON)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get report for run %s", runID)
	}

	var report model.PrecisionReport
	if err := json.Unmarshal(reportJSON, &report); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal report")
	}
	return &report, nil
}

func scanPgRun(row pgx.Row) (*model.Run, error) {
	var r model.Run
	var statsJSON []byte
	var finishedAt *time.Time

	err := row.Scan(&r.ID, &r.Registry, &r.Status, &statsJSON, &r.CreatedAt, &finishedAt)
	if err == pgx.ErrNoRows {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan run")
	}

	if len(statsJSON) > 0 {
		r.Stats = &model.RunStats{}
		if err := json.Unmarshal(statsJSON, r.Stats); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal run stats")
		}
	}
	if finishedAt != nil {
		r.FinishedAt = *finishedAt
	}
	return &r, nil
}
