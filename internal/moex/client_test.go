package moex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func TestClientBonds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/engines/stock/markets/bonds/securities.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("iss.meta") != "off" {
			t.Errorf("iss.meta = %q, want off", q.Get("iss.meta"))
		}
		if q.Get("iss.only") != "securities,marketdata" {
			t.Errorf("iss.only = %q", q.Get("iss.only"))
		}
		if q.Get("securities.columns") == "" {
			t.Error("securities.columns not set")
		}

		json.NewEncoder(w).Encode(map[string]any{
			"securities": map[string]any{
				"columns": []string{"SECID", "SHORTNAME"},
				"data":    [][]any{{"SU26238RMFS4", "ОФЗ 26238"}},
			},
			"marketdata": map[string]any{
				"columns": []string{"SECID", "LAST"},
				"data":    [][]any{{"SU26238RMFS4", 52.3}},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, 100)

	payload, err := client.Bonds(context.Background())
	if err != nil {
		t.Fatalf("Bonds() error: %v", err)
	}
	if len(payload.Securities.Data) != 1 {
		t.Errorf("securities rows = %d, want 1", len(payload.Securities.Data))
	}
	if len(payload.MarketData.Data) != 1 {
		t.Errorf("marketdata rows = %d, want 1", len(payload.MarketData.Data))
	}
}

func TestClientAmortizationSchedule(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/securities/RU000A105EX7/bondization.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"amortizations": map[string]any{
				"columns": []string{"amortdate", "valueprc", "value"},
				"data":    [][]any{{"2026-06-01", 25.0, 250.0}},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, 100)

	schedule, err := client.AmortizationSchedule(context.Background(), "RU000A105EX7")
	if err != nil {
		t.Fatalf("AmortizationSchedule() error: %v", err)
	}
	if len(schedule.Data) != 1 {
		t.Errorf("schedule rows = %d, want 1", len(schedule.Data))
	}
}

func TestClientCandlesPaging(t *testing.T) {
	page1 := [][]any{
		{52.0, 52.5, "2026-01-12 10:00:00", "2026-01-12 10:59:59"},
		{52.5, 52.7, "2026-01-12 11:00:00", "2026-01-12 11:59:59"},
	}
	page2 := [][]any{
		{52.7, 52.9, "2026-01-12 12:00:00", "2026-01-12 12:59:59"},
	}

	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		start, _ := strconv.Atoi(r.URL.Query().Get("start"))

		var data [][]any
		switch {
		case start == 0:
			data = page1
		case start == 2:
			data = page2
		default:
			data = nil
		}

		json.NewEncoder(w).Encode(map[string]any{
			"candles": map[string]any{
				"columns": []string{"open", "close", "begin", "end"},
				"data":    data,
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, 2)

	from := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 13, 0, 0, 0, 0, time.UTC)

	table, err := client.Candles(context.Background(), "RIH6", from, to, 60)
	if err != nil {
		t.Fatalf("Candles() error: %v", err)
	}
	if len(table.Data) != 3 {
		t.Errorf("merged rows = %d, want 3", len(table.Data))
	}
	if requests != 3 {
		t.Errorf("requests = %d, want 3", requests)
	}
}

// Some endpoints ignore the start offset and keep serving the same page;
// paging must detect the repeat and stop instead of looping.
func TestClientCandlesRepeatedPageGuard(t *testing.T) {
	page := [][]any{
		{52.0, 52.5, "2026-01-12 10:00:00", "2026-01-12 10:59:59"},
	}

	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		json.NewEncoder(w).Encode(map[string]any{
			"candles": map[string]any{
				"columns": []string{"open", "close", "begin", "end"},
				"data":    page,
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, 100)

	from := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 13, 0, 0, 0, 0, time.UTC)

	table, err := client.Candles(context.Background(), "RIH6", from, to, 60)
	if err != nil {
		t.Fatalf("Candles() error: %v", err)
	}
	if len(table.Data) != 1 {
		t.Errorf("merged rows = %d, want 1", len(table.Data))
	}
	if requests != 2 {
		t.Errorf("requests = %d, want 2", requests)
	}
}

func TestClientErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, 100)

	if _, err := client.Bonds(context.Background()); err == nil {
		t.Error("Bonds() on 502 returned nil error")
	}
}

func TestParseCandles(t *testing.T) {
	table := &Table{
		Columns: []string{"open", "close", "high", "low", "value", "volume", "begin", "end"},
		Data: [][]any{
			{52.0, 52.5, 53.0, 51.8, 1000.0, 10.0, "2026-01-12 10:00:00", "2026-01-12 10:59:59"},
			{52.5, 52.7, 52.9, 52.4, 500.0, 5.0, nil, "2026-01-12 11:59:59"},
			{52.7, nil, 52.9, 52.6, 200.0, 2.0, "2026-01-12 12:00:00", nil},
		},
	}

	candles := ParseCandles("RIH6", 60, table)

	// The second row has no begin timestamp and is dropped.
	if len(candles) != 2 {
		t.Fatalf("candles = %d, want 2", len(candles))
	}

	first := candles[0]
	if first.Ticker != "RIH6" || first.Interval != 60 {
		t.Errorf("series key = %s/%d", first.Ticker, first.Interval)
	}
	if first.Open == nil || first.Open.String() != "52" {
		t.Errorf("open = %v, want 52", first.Open)
	}

	// Missing end falls back to begin.
	second := candles[1]
	if !second.End.Equal(second.Begin) {
		t.Errorf("end = %v, want begin %v", second.End, second.Begin)
	}
	if second.Close != nil {
		t.Errorf("close = %v, want nil", second.Close)
	}
}
