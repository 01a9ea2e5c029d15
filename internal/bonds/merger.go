package bonds

import (
	"github.com/ndolgov/moex-analyzer/internal/domain"
)

// mergeInto folds a duplicate raw record into the canonical one. Scalars
// follow first-non-null-wins: a later non-null value never overrides an
// existing one. The coupon type is upgraded only when the incoming
// classification outranks the canonical one. Flags merge with OR, except
// corporate, which is a residual category and is suppressed once the record
// is known to be OFZ or municipal.
func mergeInto(dst *domain.Bond, src domain.Bond) {
	if dst.MaturityDate == nil && src.MaturityDate != nil {
		dst.MaturityDate = src.MaturityDate
	}
	if dst.CouponFrequency == nil && src.CouponFrequency != nil {
		dst.CouponFrequency = src.CouponFrequency
	}
	if dst.CouponPeriod == nil && src.CouponPeriod != nil {
		dst.CouponPeriod = src.CouponPeriod
	}
	if dst.FaceValue == nil && src.FaceValue != nil {
		dst.FaceValue = src.FaceValue
	}
	if dst.CurrentPrice == nil && src.CurrentPrice != nil {
		dst.CurrentPrice = src.CurrentPrice
	}
	if dst.NextCoupon == nil && src.NextCoupon != nil {
		dst.NextCoupon = src.NextCoupon
	}

	if src.CouponType.Rank() > dst.CouponType.Rank() {
		dst.CouponType = src.CouponType
	}

	dst.HasAmortization = dst.HasAmortization || src.HasAmortization
	dst.HasOffer = dst.HasOffer || src.HasOffer
	dst.IsOFZ = dst.IsOFZ || src.IsOFZ
	dst.IsMunicipal = dst.IsMunicipal || src.IsMunicipal

	corporateSeen := dst.IsCorporate || src.IsCorporate
	dst.IsCorporate = corporateSeen && !dst.IsOFZ && !dst.IsMunicipal
}
