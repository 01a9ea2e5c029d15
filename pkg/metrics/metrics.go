package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ISSRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iss_requests_total",
		Help: "Total number of requests to the MOEX ISS feed",
	}, []string{"endpoint", "status"})

	ISSRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "iss_request_duration_seconds",
		Help:    "Duration of MOEX ISS requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	BondsParsed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bonds_parsed_total",
		Help: "Total number of raw bond rows ingested",
	}, []string{"status"})

	BondSearches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bond_searches_total",
		Help: "Total number of bond search invocations",
	}, []string{"status"})

	BondSearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bond_search_duration_seconds",
		Help:    "Duration of bond search pipeline runs",
		Buckets: prometheus.DefBuckets,
	})

	AmortizationFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "amortization_fetches_total",
		Help: "Total number of amortization schedule fetches",
	}, []string{"status"})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total number of cache hits",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total number of cache misses",
	})

	CandlesStored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "candles_stored_total",
		Help: "Total number of candle rows upserted into storage",
	}, []string{"interval"})
)

func RecordCacheHit() {
	CacheHits.Inc()
}

func RecordCacheMiss() {
	CacheMisses.Inc()
}

func RecordISSRequest(endpoint, status string, duration float64) {
	ISSRequests.WithLabelValues(endpoint, status).Inc()
	ISSRequestDuration.WithLabelValues(endpoint).Observe(duration)
}

func RecordAmortizationFetch(status string) {
	AmortizationFetches.WithLabelValues(status).Inc()
}

type Timer struct {
	start time.Time
}

func NewTimer() *Timer {
	return &Timer{
		start: time.Now(),
	}
}

func (t *Timer) ObserveDuration(observer prometheus.Observer) {
	observer.Observe(time.Since(t.start).Seconds())
}

func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}
