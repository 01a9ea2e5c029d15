package moex

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Cell coercion for ISS payload values. JSON cells arrive as float64,
// string or nil depending on column; anything malformed degrades to nil so
// one bad row never fails a batch.

func ToString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return decimal.NewFromFloat(val).String()
	default:
		return ""
	}
}

// ToDecimal parses a numeric cell. Negative and unparseable values resolve
// to nil: canonical records carry a valid non-negative number or nothing.
func ToDecimal(v any) *decimal.Decimal {
	var d decimal.Decimal
	switch val := v.(type) {
	case float64:
		d = decimal.NewFromFloat(val)
	case int:
		d = decimal.NewFromInt(int64(val))
	case string:
		parsed, err := decimal.NewFromString(strings.Replace(strings.TrimSpace(val), ",", ".", -1))
		if err != nil {
			return nil
		}
		d = parsed
	default:
		return nil
	}
	if d.IsNegative() {
		return nil
	}
	return &d
}

func ToInt(v any) *int {
	d := ToDecimal(v)
	if d == nil {
		return nil
	}
	i := int(d.IntPart())
	return &i
}

// ToDate parses the 10-character ISO calendar date the feed uses. Parse
// failures mean "no date known".
func ToDate(v any) *time.Time {
	s := ToString(v)
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}

// ToDateTime parses the "YYYY-MM-DD HH:MM:SS" timestamps of candle rows.
func ToDateTime(v any) *time.Time {
	s := ToString(v)
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		return nil
	}
	return &t
}

// Truthy mirrors the feed's flag convention: numeric zero and empty text
// are false, any other present value is true.
func Truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		return val != ""
	default:
		return true
	}
}
