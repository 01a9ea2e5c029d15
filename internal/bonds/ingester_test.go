package bonds

import (
	"testing"

	"github.com/ndolgov/moex-analyzer/internal/domain"
	"github.com/ndolgov/moex-analyzer/internal/moex"
)

var securitiesColumns = []string{
	"SECID", "SHORTNAME", "MATDATE", "COUPONFREQUENCY", "COUPONPERIOD",
	"COUPONPERCENT", "COUPONVALUE", "FACEUNIT", "FACEVALUE",
	"BONDTYPE", "COUPONTYPE", "AMORTIZATION", "OFFERDATE", "SECTYPE",
}

func securityRow(overrides map[string]any) []any {
	defaults := map[string]any{
		"SECID":           "RU000A000001",
		"SHORTNAME":       "Облигация 1",
		"MATDATE":         "2027-05-12",
		"COUPONFREQUENCY": 2.0,
		"COUPONPERIOD":    182.0,
		"COUPONPERCENT":   8.5,
		"COUPONVALUE":     40.0,
		"FACEUNIT":        "RUB",
		"FACEVALUE":       1000.0,
		"BONDTYPE":        "Облигации с фиксированным купоном",
		"COUPONTYPE":      nil,
		"AMORTIZATION":    0.0,
		"OFFERDATE":       nil,
		"SECTYPE":         "6",
	}
	for k, v := range overrides {
		defaults[k] = v
	}

	row := make([]any, len(securitiesColumns))
	for i, col := range securitiesColumns {
		row[i] = defaults[col]
	}
	return row
}

func payloadOf(securities [][]any, market [][]any) *moex.BondsPayload {
	return &moex.BondsPayload{
		Securities: moex.Table{Columns: securitiesColumns, Data: securities},
		MarketData: moex.Table{
			Columns: []string{"SECID", "LAST", "MARKETPRICE", "WAPRICE"},
			Data:    market,
		},
	}
}

func TestParseBondsBasics(t *testing.T) {
	payload := payloadOf(
		[][]any{securityRow(nil)},
		[][]any{{"RU000A000001", 98.5, 98.0, 97.9}},
	)

	items := ParseBonds(payload)
	if len(items) != 1 {
		t.Fatalf("bonds = %d, want 1", len(items))
	}

	b := items[0]
	if b.SecID != "RU000A000001" || b.Name != "Облигация 1" {
		t.Errorf("identity = %s/%s", b.SecID, b.Name)
	}
	if b.CouponType != domain.CouponFixed {
		t.Errorf("coupon type = %s, want fixed", b.CouponType)
	}
	if !b.IsCorporate || b.IsOFZ || b.IsMunicipal {
		t.Errorf("issuer flags = %v/%v/%v", b.IsOFZ, b.IsMunicipal, b.IsCorporate)
	}
	if b.CurrentPrice == nil || b.CurrentPrice.String() != "98.5" {
		t.Errorf("price = %v, want LAST 98.5", b.CurrentPrice)
	}
	if b.MaturityDate == nil {
		t.Error("maturity = nil")
	}
	if b.HasAmortization || b.HasOffer {
		t.Errorf("flags = %v/%v, want false/false", b.HasAmortization, b.HasOffer)
	}
}

func TestParseBondsPricePriority(t *testing.T) {
	tests := []struct {
		name string
		row  []any
		want string
	}{
		{"last wins", []any{"RU000A000001", 98.5, 98.0, 97.9}, "98.5"},
		{"marketprice fallback", []any{"RU000A000001", nil, 98.0, 97.9}, "98"},
		{"waprice fallback", []any{"RU000A000001", nil, nil, 97.9}, "97.9"},
		{"negative last skipped", []any{"RU000A000001", -1.0, 98.0, 97.9}, "98"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := payloadOf([][]any{securityRow(nil)}, [][]any{tt.row})
			items := ParseBonds(payload)
			if len(items) != 1 || items[0].CurrentPrice == nil {
				t.Fatalf("no price parsed")
			}
			if got := items[0].CurrentPrice.String(); got != tt.want {
				t.Errorf("price = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseBondsNoMarketRow(t *testing.T) {
	payload := payloadOf([][]any{securityRow(nil)}, nil)

	items := ParseBonds(payload)
	if len(items) != 1 {
		t.Fatalf("bonds = %d, want 1", len(items))
	}
	if items[0].CurrentPrice != nil {
		t.Errorf("price = %v, want nil", items[0].CurrentPrice)
	}
}

func TestParseBondsFallbacks(t *testing.T) {
	payload := payloadOf([][]any{securityRow(map[string]any{
		"SHORTNAME": nil,
		"FACEUNIT":  nil,
		"MATDATE":   "не определено",
	})}, nil)

	items := ParseBonds(payload)
	if len(items) != 1 {
		t.Fatalf("bonds = %d, want 1", len(items))
	}

	b := items[0]
	if b.Name != b.SecID {
		t.Errorf("name = %q, want secid fallback", b.Name)
	}
	if b.Currency != "RUB" {
		t.Errorf("currency = %q, want RUB", b.Currency)
	}
	// An unparseable maturity degrades to nil, the record survives.
	if b.MaturityDate != nil {
		t.Errorf("maturity = %v, want nil", b.MaturityDate)
	}
}

func TestParseBondsDropsRowsWithoutSecID(t *testing.T) {
	payload := payloadOf([][]any{
		securityRow(map[string]any{"SECID": nil}),
		securityRow(map[string]any{"SECID": "  "}),
		securityRow(nil),
	}, nil)

	items := ParseBonds(payload)
	if len(items) != 1 {
		t.Errorf("bonds = %d, want 1", len(items))
	}
}

func TestParseBondsMergesDuplicates(t *testing.T) {
	payload := payloadOf([][]any{
		securityRow(map[string]any{"SECID": "AAA", "MATDATE": nil, "BONDTYPE": "фиксированный купон"}),
		securityRow(map[string]any{"SECID": "BBB"}),
		securityRow(map[string]any{"SECID": "AAA", "MATDATE": "2028-01-01", "BONDTYPE": "плавающий купон", "OFFERDATE": "2026-03-01"}),
	}, nil)

	items := ParseBonds(payload)
	if len(items) != 2 {
		t.Fatalf("bonds = %d, want 2", len(items))
	}

	// Encounter order is preserved.
	if items[0].SecID != "AAA" || items[1].SecID != "BBB" {
		t.Errorf("order = %s, %s", items[0].SecID, items[1].SecID)
	}

	merged := items[0]
	if merged.MaturityDate == nil {
		t.Error("maturity not filled from duplicate")
	}
	if merged.CouponType != domain.CouponFloat {
		t.Errorf("coupon type = %s, want float upgrade", merged.CouponType)
	}
	if !merged.HasOffer {
		t.Error("offer flag not merged")
	}
}

func TestParseBondsEmptyPayload(t *testing.T) {
	if got := ParseBonds(nil); got != nil {
		t.Errorf("ParseBonds(nil) = %v, want nil", got)
	}
	if got := ParseBonds(&moex.BondsPayload{}); got != nil {
		t.Errorf("ParseBonds(empty) = %v, want nil", got)
	}
}
