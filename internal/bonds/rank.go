package bonds

import (
	"sort"

	"github.com/ndolgov/moex-analyzer/internal/domain"
)

// SortByCouponYield orders bonds with a computable coupon yield first,
// highest yield on top; bonds without one keep their relative order at the
// tail. The sort is stable so equal keys preserve encounter order.
func SortByCouponYield(items []domain.Bond) []domain.Bond {
	type ranked struct {
		bond   domain.Bond
		absent bool
		yield  float64
	}

	entries := make([]ranked, len(items))
	for i, b := range items {
		yield, ok := CouponYieldPct(b)
		entries[i] = ranked{bond: b, absent: !ok, yield: yield}
	}

	sort.SliceStable(entries, func(a, b int) bool {
		if entries[a].absent != entries[b].absent {
			return !entries[a].absent
		}
		return entries[a].yield > entries[b].yield
	})

	result := make([]domain.Bond, len(entries))
	for i, e := range entries {
		result[i] = e.bond
	}
	return result
}

// TopByCouponYield sorts and truncates to the first limit entries; a
// non-positive limit keeps everything.
func TopByCouponYield(items []domain.Bond, limit int) []domain.Bond {
	sorted := SortByCouponYield(items)
	if limit > 0 && limit < len(sorted) {
		return sorted[:limit]
	}
	return sorted
}
