package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/CandleConvert/internal/config"
	"github.com/JonMunkholm/CandleConvert/internal/core"
)

func sampleCandles() []core.Candle {
	ts := time.Date(2024, 1, 2, 9, 15, 0, 0, time.UTC)
	return []core.Candle{
		core.NewCandle(pgtype.Text{String: "BANKNIFTY", Valid: true}, ts, 101, 102.5, 100, 101.25, 1500),
		core.NewCandle(pgtype.Text{}, ts.Add(time.Minute), 1, 2, 0.5, 1.5, 0),
	}
}

func TestCandleRows(t *testing.T) {
	id, err := batchUUID(uuid.NewString())
	require.NoError(t, err)

	rows := candleRows(id, sampleCandles())
	require.Len(t, rows, 2)

	for i, row := range rows {
		assert.Len(t, row, len(candleColumns))
		assert.Equal(t, id, row[0])
		assert.Equal(t, int32(i), row[1])
	}
	assert.Equal(t, pgtype.Text{String: "BANKNIFTY", Valid: true}, rows[0][2])
	assert.False(t, rows[1][2].(pgtype.Text).Valid)
	assert.Equal(t, int64(1500), rows[0][8])
}

func TestBatchUUID_Invalid(t *testing.T) {
	_, err := batchUUID("not-a-uuid")
	assert.Error(t, err)
}

// openTestStore connects to TEST_DATABASE_URL or skips.
func openTestStore(t *testing.T) *Postgres {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := Open(ctx, config.DatabaseConfig{URL: url, MaxConns: 2, MinConns: 0})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	s := New(pool)
	require.NoError(t, s.EnsureSchema(ctx))
	return s
}

func TestPostgres_SaveAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	summary := core.BatchSummary{
		ID:         uuid.NewString(),
		Source:     "https://example.com/data.csv",
		Timeframe:  5,
		TotalRows:  3,
		Converted:  2,
		Skipped:    1,
		DurationMs: 12,
		CreatedAt:  time.Now().Add(time.Hour).UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, s.SaveBatch(ctx, core.BatchRecord{Summary: summary, Candles: sampleCandles()}))

	got, err := s.RecentBatches(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, summary.ID, got[0].ID)
	assert.Equal(t, summary.Converted, got[0].Converted)
	assert.True(t, summary.CreatedAt.Equal(got[0].CreatedAt))

	var count int
	require.NoError(t, s.pool.QueryRow(ctx, "SELECT count(*) FROM batch_candles WHERE batch_id = $1", summary.ID).Scan(&count))
	assert.Equal(t, 2, count)
}

func TestPostgres_SaveEmptyBatch(t *testing.T) {
	s := openTestStore(t)

	err := s.SaveBatch(context.Background(), core.BatchRecord{Summary: core.BatchSummary{
		ID:        uuid.NewString(),
		Source:    "upload:empty.csv",
		Timeframe: 1,
		CreatedAt: time.Now(),
	}})
	assert.NoError(t, err)
}
