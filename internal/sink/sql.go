package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/vocabstats/internal/aggregator"
	"github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/sqlite"
)

type sqlClient interface {
	InTx(ctx context.Context, fn func(tx *sql.Tx) error) error
	Placeholder(n int) string
	Ping(ctx context.Context) error
	Close() error
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS vocab_runs (
		run_id      TEXT PRIMARY KEY,
		started_at  TIMESTAMPTZ NOT NULL,
		units       INTEGER NOT NULL,
		documents   BIGINT NOT NULL,
		skipped     INTEGER NOT NULL,
		vocabulary  INTEGER NOT NULL,
		report      JSONB NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS term_stats (
		run_id  TEXT NOT NULL REFERENCES vocab_runs(run_id) ON DELETE CASCADE,
		token   TEXT NOT NULL,
		tf      BIGINT NOT NULL,
		df      BIGINT NOT NULL,
		PRIMARY KEY (run_id, token)
	)`,
	`CREATE INDEX IF NOT EXISTS term_stats_tf_idx ON term_stats (run_id, tf DESC)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS vocab_runs (
		run_id      TEXT PRIMARY KEY,
		started_at  TIMESTAMP NOT NULL,
		units       INTEGER NOT NULL,
		documents   INTEGER NOT NULL,
		skipped     INTEGER NOT NULL,
		vocabulary  INTEGER NOT NULL,
		report      TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS term_stats (
		run_id  TEXT NOT NULL REFERENCES vocab_runs(run_id) ON DELETE CASCADE,
		token   TEXT NOT NULL,
		tf      INTEGER NOT NULL,
		df      INTEGER NOT NULL,
		PRIMARY KEY (run_id, token)
	)`,
	`CREATE INDEX IF NOT EXISTS term_stats_tf_idx ON term_stats (run_id, tf DESC)`,
}

// SQL stores a run as one vocab_runs row plus one term_stats row per token,
// all in a single transaction. Writing the same run id again replaces it.
type SQL struct {
	name   string
	client sqlClient
	schema []string
	logger *slog.Logger
}

func OpenSQLite(ctx context.Context, path string) (*SQL, error) {
	c, err := sqlite.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	return newSQL("sqlite", c, sqliteSchema), nil
}

func OpenPostgres(ctx context.Context, cfg config.PostgresConfig) (*PostgresSink, error) {
	c, err := postgres.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &PostgresSink{newSQL("postgres", c, postgresSchema)}, nil
}

// PostgresSink is the SQL sink on a remote server, retried on failure.
type PostgresSink struct {
	*SQL
}

func (PostgresSink) networked() {}

func newSQL(name string, c sqlClient, schema []string) *SQL {
	return &SQL{
		name:   name,
		client: c,
		schema: schema,
		logger: logger.WithComponent(name + "-sink"),
	}
}

func (s *SQL) Name() string { return s.name }

func (s *SQL) Close() error { return s.client.Close() }

func (s *SQL) Ping(ctx context.Context) error { return s.client.Ping(ctx) }

func (s *SQL) Write(ctx context.Context, res *aggregator.Result) error {
	runID := res.Report.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	report, err := json.Marshal(res.Report)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	p := s.client.Placeholder
	entries := res.Counts.Sorted()

	return s.client.InTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range s.schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("creating schema: %w", err)
			}
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM term_stats WHERE run_id = "+p(1), runID); err != nil {
			return fmt.Errorf("clearing previous term stats: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM vocab_runs WHERE run_id = "+p(1), runID); err != nil {
			return fmt.Errorf("clearing previous run: %w", err)
		}
		_, err := tx.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO vocab_runs (run_id, started_at, units, documents, skipped, vocabulary, report)
				VALUES (%s, %s, %s, %s, %s, %s, %s)`, p(1), p(2), p(3), p(4), p(5), p(6), p(7)),
			runID,
			res.Report.StartedAt.UTC(),
			res.Report.Units,
			res.Report.Counted,
			len(res.Report.Skipped),
			len(res.Counts),
			string(report),
		)
		if err != nil {
			return fmt.Errorf("inserting run: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
			"INSERT INTO term_stats (run_id, token, tf, df) VALUES (%s, %s, %s, %s)", p(1), p(2), p(3), p(4)))
		if err != nil {
			return fmt.Errorf("preparing term insert: %w", err)
		}
		defer stmt.Close()
		for _, e := range entries {
			if _, err := stmt.ExecContext(ctx, runID, e.Token, e.TF, e.DF); err != nil {
				return fmt.Errorf("inserting token %q: %w", e.Token, err)
			}
		}
		s.logger.Debug("run stored", "run_id", runID, "tokens", len(entries))
		return nil
	})
}
