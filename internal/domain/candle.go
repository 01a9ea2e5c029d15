package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candle is one OHLC row of a futures candle series as served by the
// exchange feed. Begin/End are exchange-local timestamps.
type Candle struct {
	Ticker       string           `db:"ticker" json:"ticker"`
	Interval     int              `db:"interval" json:"interval"`
	Begin        time.Time        `db:"begin" json:"begin"`
	End          time.Time        `db:"end" json:"end"`
	Open         *decimal.Decimal `db:"open" json:"open,omitempty"`
	Close        *decimal.Decimal `db:"close" json:"close,omitempty"`
	High         *decimal.Decimal `db:"high" json:"high,omitempty"`
	Low          *decimal.Decimal `db:"low" json:"low,omitempty"`
	Value        *decimal.Decimal `db:"value" json:"value,omitempty"`
	Volume       *decimal.Decimal `db:"volume" json:"volume,omitempty"`
	OpenPosition *decimal.Decimal `db:"openposition" json:"openposition,omitempty"`
}

type CandleFilter struct {
	Ticker    string
	Interval  int
	StartDate *time.Time
	EndDate   *time.Time
}
