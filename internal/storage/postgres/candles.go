package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ndolgov/moex-analyzer/internal/domain"
	"github.com/ndolgov/moex-analyzer/pkg/metrics"
)

// CandleStore persists futures candle series. The (ticker, interval, begin)
// key makes repeated fetches of overlapping windows idempotent.
type CandleStore struct {
	pool *pgxpool.Pool
}

func NewCandleStore(pool *pgxpool.Pool) *CandleStore {
	return &CandleStore{pool: pool}
}

func (s *CandleStore) InitSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS candles (
            ticker TEXT NOT NULL,
            interval INTEGER NOT NULL,
            begin_at TIMESTAMP NOT NULL,
            end_at TIMESTAMP NOT NULL,
            open NUMERIC,
            close NUMERIC,
            high NUMERIC,
            low NUMERIC,
            value NUMERIC,
            volume NUMERIC,
            openposition NUMERIC,
            PRIMARY KEY (ticker, interval, begin_at)
        )
    `)
	if err != nil {
		return fmt.Errorf("creating candles schema: %w", err)
	}
	return nil
}

func (s *CandleStore) UpsertCandles(ctx context.Context, candles []domain.Candle) (int64, error) {
	if len(candles) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, c := range candles {
		batch.Queue(`
            INSERT INTO candles (
                ticker, interval, begin_at, end_at, open, close, high, low,
                value, volume, openposition
            ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
            ON CONFLICT (ticker, interval, begin_at) DO UPDATE SET
                end_at = EXCLUDED.end_at,
                open = EXCLUDED.open,
                close = EXCLUDED.close,
                high = EXCLUDED.high,
                low = EXCLUDED.low,
                value = EXCLUDED.value,
                volume = EXCLUDED.volume,
                openposition = EXCLUDED.openposition
        `,
			c.Ticker, c.Interval, c.Begin, c.End, c.Open, c.Close, c.High, c.Low,
			c.Value, c.Volume, c.OpenPosition,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	var stored int64
	for range candles {
		if _, err := results.Exec(); err != nil {
			return stored, fmt.Errorf("upserting candle batch: %w", err)
		}
		stored++
	}

	metrics.CandlesStored.WithLabelValues(strconv.Itoa(candles[0].Interval)).Add(float64(stored))

	return stored, nil
}

func (s *CandleStore) GetCandles(ctx context.Context, filter domain.CandleFilter) ([]domain.Candle, error) {
	query := `
        SELECT ticker, interval, begin_at, end_at, open, close, high, low,
               value, volume, openposition
        FROM candles
        WHERE ticker = $1 AND interval = $2
    `

	args := []interface{}{filter.Ticker, filter.Interval}
	argCount := 2

	if filter.StartDate != nil {
		argCount++
		query += fmt.Sprintf(" AND begin_at >= $%d", argCount)
		args = append(args, *filter.StartDate)
	}

	if filter.EndDate != nil {
		argCount++
		query += fmt.Sprintf(" AND begin_at <= $%d", argCount)
		args = append(args, *filter.EndDate)
	}

	query += " ORDER BY begin_at ASC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying candles: %w", err)
	}
	defer rows.Close()

	var candles []domain.Candle
	for rows.Next() {
		var c domain.Candle
		err := rows.Scan(
			&c.Ticker, &c.Interval, &c.Begin, &c.End, &c.Open, &c.Close,
			&c.High, &c.Low, &c.Value, &c.Volume, &c.OpenPosition,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning candle row: %w", err)
		}
		candles = append(candles, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating candle rows: %w", err)
	}

	return candles, nil
}
