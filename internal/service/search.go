package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ndolgov/moex-analyzer/internal/bonds"
	"github.com/ndolgov/moex-analyzer/internal/domain"
	"github.com/ndolgov/moex-analyzer/internal/moex"
	"github.com/ndolgov/moex-analyzer/internal/storage/cache"
	"github.com/ndolgov/moex-analyzer/pkg/logger"
	"github.com/ndolgov/moex-analyzer/pkg/metrics"
	"go.uber.org/zap"
)

const bondsCacheKey = "bonds:payload"

const noBondsFound = "По заданным фильтрам облигации не найдены."

// BondsFeed is the slice of the exchange client the search pipeline needs.
type BondsFeed interface {
	Bonds(ctx context.Context) (*moex.BondsPayload, error)
	AmortizationSchedule(ctx context.Context, secID string) (*moex.Table, error)
}

// BondSearchService runs the full pipeline: fetch, ingest, merge, filter,
// rank. The raw exchange payload is cached in Redis when a cache is wired;
// the amortization oracle keeps its own process-lifetime schedule cache.
type BondSearchService struct {
	feed          BondsFeed
	oracle        *bonds.AmortizationOracle
	redisCache    *cache.RedisCache
	enrichWorkers int
	now           func() time.Time
}

func NewBondSearchService(feed BondsFeed, redisCache *cache.RedisCache, enrichWorkers int) *BondSearchService {
	return &BondSearchService{
		feed:          feed,
		oracle:        bonds.NewAmortizationOracle(feed),
		redisCache:    redisCache,
		enrichWorkers: enrichWorkers,
		now:           time.Now,
	}
}

// Search returns the canonical records matching the filters, unranked.
func (s *BondSearchService) Search(ctx context.Context, filters domain.BondSearchFilters) ([]domain.Bond, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.BondSearchDuration)

	payload, err := s.bondsPayload(ctx)
	if err != nil {
		metrics.BondSearches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("fetching bonds payload: %w", err)
	}

	items := bonds.ParseBonds(payload)
	merged := len(items)

	items = bonds.ApplyFilters(ctx, items, filters, s.now(), s.oracle, s.enrichWorkers)

	metrics.BondSearches.WithLabelValues("success").Inc()
	logger.Debug("bond search finished",
		zap.Int("merged", merged),
		zap.Int("matched", len(items)))

	return items, nil
}

// TopByYield runs Search, ranks by coupon yield and truncates to limit.
// The surviving bonds get their amortization flag refreshed so the report
// shows authoritative values, not provisional feed flags.
func (s *BondSearchService) TopByYield(ctx context.Context, filters domain.BondSearchFilters, limit int) ([]domain.Bond, int, error) {
	found, err := s.Search(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	top := bonds.TopByCouponYield(found, limit)
	bonds.EnrichAmortization(ctx, s.oracle, top, s.enrichWorkers)

	return top, len(found), nil
}

// Report renders the ranked top of a search as the fixed-width text table.
func (s *BondSearchService) Report(ctx context.Context, filters domain.BondSearchFilters, limit int) (string, error) {
	top, total, err := s.TopByYield(ctx, filters, limit)
	if err != nil {
		return "", err
	}

	if total == 0 {
		return noBondsFound, nil
	}

	header := fmt.Sprintf("Найдено облигаций: %d\nПоказано: %d\n\n", total, len(top))
	return header + bonds.FormatTable(top, s.now()), nil
}

func (s *BondSearchService) bondsPayload(ctx context.Context) (*moex.BondsPayload, error) {
	if s.redisCache != nil {
		var cached moex.BondsPayload
		if err := s.redisCache.Get(ctx, bondsCacheKey, &cached); err == nil {
			metrics.RecordCacheHit()
			return &cached, nil
		}
		metrics.RecordCacheMiss()
	}

	payload, err := s.feed.Bonds(ctx)
	if err != nil {
		return nil, err
	}

	if s.redisCache != nil {
		if err := s.redisCache.Set(ctx, bondsCacheKey, payload); err != nil {
			logger.Warn("caching bonds payload failed", zap.Error(err))
		}
	}

	return payload, nil
}
