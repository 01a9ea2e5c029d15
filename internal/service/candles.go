package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ndolgov/moex-analyzer/internal/domain"
	"github.com/ndolgov/moex-analyzer/internal/moex"
	"github.com/ndolgov/moex-analyzer/pkg/logger"
	"go.uber.org/zap"
)

const (
	intervalHourly = 60
	intervalDaily  = 24
)

// CandlesFeed is the slice of the exchange client the candle service needs.
type CandlesFeed interface {
	Candles(ctx context.Context, ticker string, from, to time.Time, interval int) (*moex.Table, error)
}

// CandleWriter persists fetched series; nil storage means fetch-only.
type CandleWriter interface {
	InitSchema(ctx context.Context) error
	UpsertCandles(ctx context.Context, candles []domain.Candle) (int64, error)
}

type CandlesService struct {
	feed  CandlesFeed
	store CandleWriter
	now   func() time.Time
}

func NewCandlesService(feed CandlesFeed, store CandleWriter) *CandlesService {
	return &CandlesService{
		feed:  feed,
		store: store,
		now:   time.Now,
	}
}

// Hourly1y fetches one year of hourly candles up to today.
func (s *CandlesService) Hourly1y(ctx context.Context, ticker string) ([]domain.Candle, error) {
	return s.fetch(ctx, ticker, intervalHourly, 365)
}

// Daily3y fetches three years of daily candles up to today.
func (s *CandlesService) Daily3y(ctx context.Context, ticker string) ([]domain.Candle, error) {
	return s.fetch(ctx, ticker, intervalDaily, 365*3)
}

func (s *CandlesService) fetch(ctx context.Context, ticker string, interval, daysBack int) ([]domain.Candle, error) {
	today := s.now()
	// The feed treats the upper bound as exclusive on some endpoints, so ask
	// through tomorrow and trim future rows afterwards.
	endDate := today.AddDate(0, 0, 1)
	startDate := today.AddDate(0, 0, -daysBack)

	table, err := s.feed.Candles(ctx, ticker, startDate, endDate, interval)
	if err != nil {
		return nil, fmt.Errorf("fetching candles for %s: %w", ticker, err)
	}

	candles := dropAfter(moex.ParseCandles(ticker, interval, table), today)

	if s.store != nil && len(candles) > 0 {
		if err := s.persist(ctx, candles); err != nil {
			logger.Warn("persisting candles failed",
				zap.String("ticker", ticker),
				zap.Int("interval", interval),
				zap.Error(err))
		}
	}

	return candles, nil
}

func (s *CandlesService) persist(ctx context.Context, candles []domain.Candle) error {
	if err := s.store.InitSchema(ctx); err != nil {
		return err
	}

	stored, err := s.store.UpsertCandles(ctx, candles)
	if err != nil {
		return err
	}

	logger.Debug("candles persisted", zap.Int64("rows", stored))
	return nil
}

func dropAfter(candles []domain.Candle, maxDate time.Time) []domain.Candle {
	y, m, d := maxDate.Date()
	cutoff := time.Date(y, m, d, 23, 59, 59, 0, time.UTC)

	filtered := candles[:0]
	for _, c := range candles {
		if !c.Begin.After(cutoff) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}
