package api

import (
	"time"

	"github.com/ndolgov/moex-analyzer/internal/domain"
)

type BondSearchResponse struct {
	Total          int           `json:"total"`
	Count          int           `json:"count"`
	Bonds          []domain.Bond `json:"bonds"`
	ProcessingTime string        `json:"processing_time,omitempty"`
}

type CandlesResponse struct {
	Ticker   string          `json:"ticker"`
	Interval int             `json:"interval"`
	Count    int             `json:"count"`
	Candles  []domain.Candle `json:"candles"`
}

type HealthResponse struct {
	Status    string                   `json:"status"`
	Version   string                   `json:"version"`
	Timestamp time.Time                `json:"timestamp"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

type ServiceHealth struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

type SystemStatsResponse struct {
	Database DatabaseStats `json:"database"`
	Cache    CacheStats    `json:"cache"`
	API      APIStats      `json:"api"`
}

type DatabaseStats struct {
	ActiveConnections int32  `json:"active_connections"`
	IdleConnections   int32  `json:"idle_connections"`
	TotalConnections  int32  `json:"total_connections"`
	WaitCount         int64  `json:"wait_count"`
	WaitDuration      string `json:"wait_duration"`
}

type CacheStats struct {
	MemoryUsed string `json:"memory_used"`
}

type APIStats struct {
	ActiveGoroutines int `json:"active_goroutines"`
}

type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      int       `json:"code"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
