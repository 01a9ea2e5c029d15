package bonds

import (
	"context"
	"strings"
	"time"

	"github.com/ndolgov/moex-analyzer/internal/domain"
)

// Legacy Soviet-ruble codes still present in older listings map onto the
// modern ruble code before currency comparison.
var currencyAliases = map[string]string{
	"RUR": "RUB",
	"SUR": "RUB",
}

// NormalizeCurrency upper-cases a currency code and folds legacy ruble
// aliases onto RUB.
func NormalizeCurrency(currency string) string {
	upper := strings.ToUpper(currency)
	if alias, ok := currencyAliases[upper]; ok {
		return alias
	}
	return upper
}

// ApplyFilters narrows the bond set stage by stage; absent filter fields
// pass through. The amortization stage refreshes the provisional flag with
// the oracle's authoritative answer before filtering on it.
func ApplyFilters(ctx context.Context, items []domain.Bond, filters domain.BondSearchFilters, today time.Time, oracle *AmortizationOracle, enrichWorkers int) []domain.Bond {
	today = truncateToDate(today)

	if filters.MaturityFrom != nil || filters.MaturityTo != nil {
		filtered := items[:0]
		for _, b := range items {
			if b.MaturityDate == nil {
				continue
			}
			months := MonthsToMaturity(today, *b.MaturityDate)
			if months < 0 {
				continue
			}
			if filters.MaturityFrom != nil && months < filters.MaturityFrom.TotalMonths() {
				continue
			}
			if filters.MaturityTo != nil && months > filters.MaturityTo.TotalMonths() {
				continue
			}
			filtered = append(filtered, b)
		}
		items = filtered
	}

	if filters.Currency != "" {
		target := NormalizeCurrency(filters.Currency)
		items = keep(items, func(b domain.Bond) bool {
			return NormalizeCurrency(b.Currency) == target
		})
	}

	if filters.CouponFrequency != nil {
		items = keep(items, func(b domain.Bond) bool {
			return b.CouponFrequency != nil && *b.CouponFrequency == *filters.CouponFrequency
		})
	}

	if filters.CouponType != nil {
		items = keep(items, func(b domain.Bond) bool {
			return b.CouponType == *filters.CouponType
		})
	}

	if filters.BondType != nil {
		items = filterByBondType(items, *filters.BondType)
	}

	if filters.HasAmortization != nil {
		EnrichAmortization(ctx, oracle, items, enrichWorkers)
		items = keep(items, func(b domain.Bond) bool {
			return b.HasAmortization == *filters.HasAmortization
		})
	}

	if filters.HasOffer != nil {
		items = keep(items, func(b domain.Bond) bool {
			return b.HasOffer == *filters.HasOffer
		})
	}

	return items
}

func filterByBondType(items []domain.Bond, bondType domain.BondType) []domain.Bond {
	switch bondType {
	case domain.BondOFZ:
		return keep(items, func(b domain.Bond) bool { return b.IsOFZ })
	case domain.BondMunicipal:
		return keep(items, func(b domain.Bond) bool { return b.IsMunicipal })
	case domain.BondCorporate:
		return keep(items, func(b domain.Bond) bool { return b.IsCorporate })
	default:
		return items
	}
}

func keep(items []domain.Bond, predicate func(domain.Bond) bool) []domain.Bond {
	filtered := items[:0]
	for _, b := range items {
		if predicate(b) {
			filtered = append(filtered, b)
		}
	}
	return filtered
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
