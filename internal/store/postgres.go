// Package store keeps a history of converted batches in PostgreSQL.
package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/CandleConvert/internal/config"
	"github.com/JonMunkholm/CandleConvert/internal/core"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS candle_batches (
    id          UUID PRIMARY KEY,
    source      TEXT NOT NULL,
    timeframe   INTEGER NOT NULL,
    total_rows  INTEGER NOT NULL,
    converted   INTEGER NOT NULL,
    skipped     INTEGER NOT NULL,
    duration_ms BIGINT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS candle_batches_created_at_idx ON candle_batches (created_at DESC);

CREATE TABLE IF NOT EXISTS batch_candles (
    batch_id UUID NOT NULL REFERENCES candle_batches (id) ON DELETE CASCADE,
    seq      INTEGER NOT NULL,
    symbol   TEXT,
    ts       TIMESTAMP NOT NULL,
    open     DOUBLE PRECISION NOT NULL,
    high     DOUBLE PRECISION NOT NULL,
    low      DOUBLE PRECISION NOT NULL,
    close    DOUBLE PRECISION NOT NULL,
    volume   BIGINT NOT NULL,
    PRIMARY KEY (batch_id, seq)
);
`

// candleColumns is the CopyFrom column order for batch_candles.
var candleColumns = []string{"batch_id", "seq", "symbol", "ts", "open", "high", "low", "close", "volume"}

// Open connects a pool using the database settings and verifies it with a ping.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Postgres is a core.BatchStore backed by a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// New creates a store on pool.
func New(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema creates the history tables if they do not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// SaveBatch writes the summary and its candles in one transaction.
func (p *Postgres) SaveBatch(ctx context.Context, rec core.BatchRecord) error {
	id, err := batchUUID(rec.Summary.ID)
	if err != nil {
		return err
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	s := rec.Summary
	_, err = tx.Exec(ctx, `
		INSERT INTO candle_batches (id, source, timeframe, total_rows, converted, skipped, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, s.Source, int32(s.Timeframe), int32(s.TotalRows), int32(s.Converted), int32(s.Skipped),
		s.DurationMs, pgtype.Timestamptz{Time: s.CreatedAt, Valid: true},
	)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}

	if len(rec.Candles) > 0 {
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"batch_candles"}, candleColumns, pgx.CopyFromRows(candleRows(id, rec.Candles)))
		if err != nil {
			return fmt.Errorf("copy candles: %w", err)
		}
		if int(n) != len(rec.Candles) {
			return fmt.Errorf("copy candles: wrote %d of %d rows", n, len(rec.Candles))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// RecentBatches returns up to limit summaries, newest first.
func (p *Postgres) RecentBatches(ctx context.Context, limit int) ([]core.BatchSummary, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, source, timeframe, total_rows, converted, skipped, duration_ms, created_at
		FROM candle_batches
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}
	defer rows.Close()

	summaries := []core.BatchSummary{}
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read batches: %w", err)
	}
	return summaries, nil
}

func scanSummary(rows pgx.Rows) (core.BatchSummary, error) {
	var (
		id         pgtype.UUID
		source     string
		timeframe  int32
		totalRows  int32
		converted  int32
		skipped    int32
		durationMs int64
		createdAt  pgtype.Timestamptz
	)
	if err := rows.Scan(&id, &source, &timeframe, &totalRows, &converted, &skipped, &durationMs, &createdAt); err != nil {
		return core.BatchSummary{}, fmt.Errorf("scan batch: %w", err)
	}

	return core.BatchSummary{
		ID:         uuid.UUID(id.Bytes).String(),
		Source:     source,
		Timeframe:  core.Timeframe(timeframe),
		TotalRows:  int(totalRows),
		Converted:  int(converted),
		Skipped:    int(skipped),
		DurationMs: durationMs,
		CreatedAt:  createdAt.Time,
	}, nil
}

func batchUUID(id string) (pgtype.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return pgtype.UUID{}, fmt.Errorf("batch id %q: %w", id, err)
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}, nil
}

// candleRows builds CopyFrom rows in candleColumns order. seq keeps the file
// order of the batch.
func candleRows(id pgtype.UUID, candles []core.Candle) [][]any {
	rows := make([][]any, len(candles))
	for i, c := range candles {
		rows[i] = []any{
			id,
			int32(i),
			c.Symbol(),
			pgtype.Timestamp{Time: c.Timestamp(), Valid: true},
			c.Open(),
			c.High(),
			c.Low(),
			c.Close(),
			c.Volume(),
		}
	}
	return rows
}

var _ core.BatchStore = (*Postgres)(nil)
