package bonds

import (
	"math"
	"time"

	"github.com/ndolgov/moex-analyzer/internal/domain"
)

// Derived yield metrics. Every function returns ok=false when an input it
// depends on is absent or the result is non-finite or non-positive where a
// positive value is required.

// PriceMoney converts the percent-of-face quote into a currency amount.
func PriceMoney(b domain.Bond) (float64, bool) {
	if b.CurrentPrice == nil || b.FaceValue == nil {
		return 0, false
	}
	price := b.FaceValue.InexactFloat64() * b.CurrentPrice.InexactFloat64() / 100
	if !isFinite(price) {
		return 0, false
	}
	return price, true
}

// CouponsPerYear prefers the coupon period in days over the declared
// payments-per-year frequency.
func CouponsPerYear(b domain.Bond) (float64, bool) {
	if b.CouponPeriod != nil && *b.CouponPeriod > 0 {
		return 365 / float64(*b.CouponPeriod), true
	}
	if b.CouponFrequency != nil && *b.CouponFrequency > 0 {
		return float64(*b.CouponFrequency), true
	}
	return 0, false
}

func AnnualCouponAmount(b domain.Bond) (float64, bool) {
	if b.NextCoupon == nil {
		return 0, false
	}
	perYear, ok := CouponsPerYear(b)
	if !ok {
		return 0, false
	}
	amount := b.NextCoupon.InexactFloat64() * perYear
	if !isFinite(amount) {
		return 0, false
	}
	return amount, true
}

func CouponYieldPct(b domain.Bond) (float64, bool) {
	price, ok := PriceMoney(b)
	if !ok || price <= 0 {
		return 0, false
	}
	annualCoupon, ok := AnnualCouponAmount(b)
	if !ok {
		return 0, false
	}
	pct := annualCoupon / price * 100
	if !isFinite(pct) {
		return 0, false
	}
	return pct, true
}

// TotalYieldPct adds the annualized redemption gain to the coupon stream.
// Defined only for bonds maturing strictly in the future.
func TotalYieldPct(b domain.Bond, today time.Time) (float64, bool) {
	price, ok := PriceMoney(b)
	if !ok || price <= 0 {
		return 0, false
	}
	annualCoupon, ok := AnnualCouponAmount(b)
	if !ok {
		return 0, false
	}
	if b.MaturityDate == nil || b.FaceValue == nil {
		return 0, false
	}

	daysToMaturity := daysBetween(today, *b.MaturityDate)
	if daysToMaturity <= 0 {
		return 0, false
	}
	yearsToMaturity := float64(daysToMaturity) / 365

	redemptionGainPerYear := (b.FaceValue.InexactFloat64() - price) / yearsToMaturity
	pct := (annualCoupon + redemptionGainPerYear) / price * 100
	if !isFinite(pct) {
		return 0, false
	}
	return pct, true
}

func daysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	start := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	end := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
