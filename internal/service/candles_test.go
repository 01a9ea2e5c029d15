package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ndolgov/moex-analyzer/internal/domain"
	"github.com/ndolgov/moex-analyzer/internal/moex"
)

type fakeCandlesFeed struct {
	table *moex.Table

	gotTicker   string
	gotInterval int
	gotFrom     time.Time
	gotTo       time.Time
}

func (f *fakeCandlesFeed) Candles(ctx context.Context, ticker string, from, to time.Time, interval int) (*moex.Table, error) {
	f.gotTicker = ticker
	f.gotInterval = interval
	f.gotFrom = from
	f.gotTo = to
	return f.table, nil
}

type fakeWriter struct {
	initErr   error
	upsertErr error
	stored    []domain.Candle
}

func (w *fakeWriter) InitSchema(ctx context.Context) error { return w.initErr }

func (w *fakeWriter) UpsertCandles(ctx context.Context, candles []domain.Candle) (int64, error) {
	if w.upsertErr != nil {
		return 0, w.upsertErr
	}
	w.stored = append(w.stored, candles...)
	return int64(len(candles)), nil
}

func candleTable(begins ...string) *moex.Table {
	data := make([][]any, len(begins))
	for i, begin := range begins {
		data[i] = []any{52.0, 52.5, begin, begin}
	}
	return &moex.Table{
		Columns: []string{"open", "close", "begin", "end"},
		Data:    data,
	}
}

func newTestCandlesService(feed CandlesFeed, store CandleWriter) *CandlesService {
	svc := NewCandlesService(feed, store)
	svc.now = func() time.Time {
		return time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestHourly1yWindowAndTrim(t *testing.T) {
	feed := &fakeCandlesFeed{table: candleTable(
		"2026-08-25 10:00:00",
		"2026-08-26 10:00:00",
		// Served because the request upper bound is tomorrow, trimmed here.
		"2026-08-27 10:00:00",
	)}
	writer := &fakeWriter{}
	svc := newTestCandlesService(feed, writer)

	candles, err := svc.Hourly1y(context.Background(), "RIH6")
	if err != nil {
		t.Fatalf("Hourly1y() error: %v", err)
	}

	if feed.gotTicker != "RIH6" || feed.gotInterval != 60 {
		t.Errorf("request = %s/%d", feed.gotTicker, feed.gotInterval)
	}
	wantFrom := time.Date(2025, 8, 26, 12, 0, 0, 0, time.UTC)
	if !feed.gotFrom.Equal(wantFrom) {
		t.Errorf("from = %v, want %v", feed.gotFrom, wantFrom)
	}

	if len(candles) != 2 {
		t.Fatalf("candles = %d, want future row trimmed", len(candles))
	}
	if len(writer.stored) != 2 {
		t.Errorf("stored = %d, want 2", len(writer.stored))
	}
}

func TestDaily3yInterval(t *testing.T) {
	feed := &fakeCandlesFeed{table: candleTable("2026-08-25 00:00:00")}
	svc := newTestCandlesService(feed, nil)

	if _, err := svc.Daily3y(context.Background(), "RIH6"); err != nil {
		t.Fatalf("Daily3y() error: %v", err)
	}
	if feed.gotInterval != 24 {
		t.Errorf("interval = %d, want 24", feed.gotInterval)
	}
	wantFrom := time.Date(2023, 8, 27, 12, 0, 0, 0, time.UTC)
	if !feed.gotFrom.Equal(wantFrom) {
		t.Errorf("from = %v, want %v", feed.gotFrom, wantFrom)
	}
}

// Storage failure is logged, not surfaced: the fetched series still comes back.
func TestFetchSurvivesStorageFailure(t *testing.T) {
	feed := &fakeCandlesFeed{table: candleTable("2026-08-25 10:00:00")}
	writer := &fakeWriter{upsertErr: errors.New("db down")}
	svc := newTestCandlesService(feed, writer)

	candles, err := svc.Hourly1y(context.Background(), "RIH6")
	if err != nil {
		t.Fatalf("Hourly1y() error: %v", err)
	}
	if len(candles) != 1 {
		t.Errorf("candles = %d, want 1", len(candles))
	}
}
