package bonds

import (
	"context"
	"sync"
	"time"

	"github.com/ndolgov/moex-analyzer/internal/domain"
	"github.com/ndolgov/moex-analyzer/internal/moex"
	"github.com/ndolgov/moex-analyzer/pkg/logger"
	"github.com/ndolgov/moex-analyzer/pkg/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

var hundred = decimal.NewFromInt(100)

// ScheduleFetcher supplies the raw amortization schedule of one instrument.
type ScheduleFetcher interface {
	AmortizationSchedule(ctx context.Context, secID string) (*moex.Table, error)
}

// AmortizationOracle answers whether an instrument has a partial early
// principal repayment schedule, overriding the provisional ingestion flag.
// Schedules are fetched at most once per identifier for the lifetime of the
// oracle; concurrent lookups for the same identifier are deduplicated.
type AmortizationOracle struct {
	fetcher ScheduleFetcher
	group   singleflight.Group

	mu    sync.RWMutex
	cache map[string]*moex.Table
}

func NewAmortizationOracle(fetcher ScheduleFetcher) *AmortizationOracle {
	return &AmortizationOracle{
		fetcher: fetcher,
		cache:   make(map[string]*moex.Table),
	}
}

// HasAmortization reports whether the instrument repays principal before
// maturity. The decision over the fetched schedule rows:
//
//  1. any row with a percent-of-face value below 100 means amortization;
//  2. else any row with a positive amount dated strictly before the
//     instrument's maturity (when one is supplied) means amortization;
//  3. else, without a maturity date, more than one schedule row is taken
//     as evidence of amortization;
//  4. otherwise there is none.
func (o *AmortizationOracle) HasAmortization(ctx context.Context, secID string, maturity *time.Time) (bool, error) {
	schedule, err := o.schedule(ctx, secID)
	if err != nil {
		return false, err
	}
	return scheduleHasAmortization(schedule, maturity), nil
}

func (o *AmortizationOracle) schedule(ctx context.Context, secID string) (*moex.Table, error) {
	o.mu.RLock()
	cached, ok := o.cache[secID]
	o.mu.RUnlock()
	if ok {
		return cached, nil
	}

	result, err, _ := o.group.Do(secID, func() (any, error) {
		o.mu.RLock()
		cached, ok := o.cache[secID]
		o.mu.RUnlock()
		if ok {
			return cached, nil
		}

		schedule, err := o.fetcher.AmortizationSchedule(ctx, secID)
		if err != nil {
			metrics.RecordAmortizationFetch("error")
			return nil, err
		}
		metrics.RecordAmortizationFetch("success")

		o.mu.Lock()
		o.cache[secID] = schedule
		o.mu.Unlock()

		return schedule, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*moex.Table), nil
}

func scheduleHasAmortization(schedule *moex.Table, maturity *time.Time) bool {
	if schedule.Empty() {
		return false
	}

	acc := moex.NewAccessor(schedule)

	for _, row := range schedule.Data {
		valuePct := moex.ToDecimal(acc.Get(row, "valueprc"))
		value := moex.ToDecimal(acc.Get(row, "value"))
		repaymentDate := moex.ToDate(acc.Get(row, "amortdate"))

		// A repayment below full face value implies partial early redemption.
		if valuePct != nil && valuePct.LessThan(hundred) {
			return true
		}

		if value != nil && value.IsPositive() &&
			repaymentDate != nil && maturity != nil && repaymentDate.Before(*maturity) {
			return true
		}
	}

	// Documented heuristic for callers that cannot supply a maturity date:
	// a multi-row schedule is treated as evidence of amortization.
	if maturity == nil {
		return len(schedule.Data) > 1
	}

	return false
}

// EnrichAmortization refreshes the amortization flag of every bond with the
// oracle's authoritative answer. Lookups for distinct instruments run
// concurrently; a failed lookup leaves the provisional flag untouched and
// never fails the batch.
func EnrichAmortization(ctx context.Context, oracle *AmortizationOracle, items []domain.Bond, workers int) {
	if oracle == nil || len(items) == 0 {
		return
	}
	if workers <= 0 {
		workers = 1
	}

	var g errgroup.Group
	g.SetLimit(workers)

	for i := range items {
		bond := &items[i]
		g.Go(func() error {
			has, err := oracle.HasAmortization(ctx, bond.SecID, bond.MaturityDate)
			if err != nil {
				logger.Debug("amortization lookup failed, keeping provisional flag",
					zap.String("secid", bond.SecID),
					zap.Error(err))
				return nil
			}
			bond.HasAmortization = has
			return nil
		})
	}

	_ = g.Wait()
}
