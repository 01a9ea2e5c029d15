package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CouponType is the coupon taxonomy of a bond. Unknown means the feed
// carried a coupon rate but no recognizable type description.
type CouponType string

const (
	CouponFixed   CouponType = "fixed"
	CouponFloat   CouponType = "float"
	CouponNone    CouponType = "none"
	CouponUnknown CouponType = "unknown"
)

// Rank orders coupon types for merge conflicts: a more specific
// classification from any duplicate row wins even if it arrived later.
func (t CouponType) Rank() int {
	switch t {
	case CouponFloat:
		return 3
	case CouponFixed:
		return 2
	case CouponNone:
		return 1
	default:
		return 0
	}
}

type BondType string

const (
	BondOFZ       BondType = "ofz"
	BondCorporate BondType = "corporate"
	BondMunicipal BondType = "municipal"
)

// Bond is the canonical per-instrument record, one per SECID after merge.
type Bond struct {
	SecID           string           `json:"secid"`
	Name            string           `json:"name"`
	MaturityDate    *time.Time       `json:"maturity_date,omitempty"`
	CouponType      CouponType       `json:"coupon_type"`
	CouponFrequency *int             `json:"coupon_frequency,omitempty"`
	CouponPeriod    *int             `json:"coupon_period,omitempty"`
	Currency        string           `json:"currency"`
	FaceValue       *decimal.Decimal `json:"face_value,omitempty"`

	IsOFZ       bool `json:"is_ofz"`
	IsMunicipal bool `json:"is_municipal"`
	IsCorporate bool `json:"is_corporate"`

	HasAmortization bool `json:"has_amortization"`
	HasOffer        bool `json:"has_offer"`

	CurrentPrice *decimal.Decimal `json:"current_price,omitempty"`
	NextCoupon   *decimal.Decimal `json:"next_coupon,omitempty"`
}

// MaturityDelta is a year+month offset from today, used both as a filter
// bound and as the months-remaining value computed per bond.
type MaturityDelta struct {
	Years  int `json:"years"`
	Months int `json:"months"`
}

func (d MaturityDelta) TotalMonths() int {
	return d.Years*12 + d.Months
}

// BondSearchFilters describes one search. Nil fields mean "no constraint".
// Callers are responsible for bound ordering (MaturityFrom <= MaturityTo);
// the filter engine does not validate it.
type BondSearchFilters struct {
	MaturityFrom *MaturityDelta `json:"maturity_from,omitempty"`
	MaturityTo   *MaturityDelta `json:"maturity_to,omitempty"`

	CouponType *CouponType `json:"coupon_type,omitempty"`
	BondType   *BondType   `json:"bond_type,omitempty"`

	CouponFrequency *int   `json:"coupon_frequency,omitempty"`
	Currency        string `json:"currency,omitempty"`

	HasAmortization *bool `json:"has_amortization,omitempty"`
	HasOffer        *bool `json:"has_offer,omitempty"`
}
