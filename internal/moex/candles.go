package moex

import (
	"github.com/ndolgov/moex-analyzer/internal/domain"
)

// ParseCandles converts a candles table into typed rows. Rows without a
// parseable begin timestamp are dropped: the series key requires one.
func ParseCandles(ticker string, interval int, t *Table) []domain.Candle {
	if t.Empty() {
		return nil
	}

	acc := NewAccessor(t)
	candles := make([]domain.Candle, 0, len(t.Data))

	for _, row := range t.Data {
		begin := ToDateTime(acc.Get(row, "begin"))
		if begin == nil {
			continue
		}
		end := ToDateTime(acc.Get(row, "end"))
		if end == nil {
			end = begin
		}

		candles = append(candles, domain.Candle{
			Ticker:       ticker,
			Interval:     interval,
			Begin:        *begin,
			End:          *end,
			Open:         ToDecimal(acc.Get(row, "open")),
			Close:        ToDecimal(acc.Get(row, "close")),
			High:         ToDecimal(acc.Get(row, "high")),
			Low:          ToDecimal(acc.Get(row, "low")),
			Value:        ToDecimal(acc.Get(row, "value")),
			Volume:       ToDecimal(acc.Get(row, "volume")),
			OpenPosition: ToDecimal(acc.Get(row, "openposition")),
		})
	}

	return candles
}
