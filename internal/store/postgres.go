// Package store persists backtest runs to Postgres for later comparison.
// Persistence is optional; every command works without a DSN.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/marketskies/baroscan/internal/backtest"
)

const schema = `
CREATE TABLE IF NOT EXISTS backtest_runs (
	id          TEXT PRIMARY KEY,
	model       TEXT NOT NULL,
	profile     TEXT NOT NULL,
	lookback    TEXT NOT NULL,
	started     TIMESTAMPTZ NOT NULL,
	elapsed_ms  BIGINT NOT NULL,
	tested      INT NOT NULL,
	beats       INT NOT NULL,
	avg_annualized FLOAT8 NOT NULL,
	avg_sharpe     FLOAT8 NOT NULL,
	avg_drawdown   FLOAT8 NOT NULL,
	avg_win_rate   FLOAT8 NOT NULL
);

CREATE TABLE IF NOT EXISTS backtest_trades (
	run_id      TEXT NOT NULL REFERENCES backtest_runs(id) ON DELETE CASCADE,
	ticker      TEXT NOT NULL,
	entry_date  DATE NOT NULL,
	entry_price FLOAT8 NOT NULL,
	exit_date   DATE NOT NULL,
	exit_price  FLOAT8 NOT NULL,
	profit      FLOAT8 NOT NULL
);
CREATE INDEX IF NOT EXISTS backtest_trades_run_idx ON backtest_trades(run_id, ticker);
`

// Store wraps the Postgres connection.
type Store struct {
	db      *sqlx.DB
	timeout time.Duration
}

// Open connects to Postgres and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s := &Store{db: db, timeout: 10 * time.Second}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// SaveRun persists a run header and its trade log in one transaction.
func (s *Store) SaveRun(ctx context.Context, report backtest.RunReport) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO backtest_runs
		(id, model, profile, lookback, started, elapsed_ms, tested, beats,
		 avg_annualized, avg_sharpe, avg_drawdown, avg_win_rate)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		report.ID, report.Model, string(report.Profile), report.Lookback,
		report.Started, report.Elapsed.Milliseconds(), report.Tested, report.Beats,
		report.AvgAnnualized, report.AvgSharpe, report.AvgDrawdown, report.AvgWinRate)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, o := range report.Outcomes {
		for _, t := range o.Trades {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO backtest_trades
				(run_id, ticker, entry_date, entry_price, exit_date, exit_price, profit)
				VALUES ($1,$2,$3,$4,$5,$6,$7)`,
				report.ID, o.Ticker, t.EntryDate, t.EntryPrice, t.ExitDate, t.ExitPrice, t.Profit)
			if err != nil {
				return fmt.Errorf("insert trade for %s: %w", o.Ticker, err)
			}
		}
	}
	return tx.Commit()
}
