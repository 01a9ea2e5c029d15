package bonds

import (
	"reflect"
	"testing"
	"time"

	"github.com/ndolgov/moex-analyzer/internal/domain"
)

func datePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

func intPtr(v int) *int { return &v }

func TestMergeIntoFirstNonNullWins(t *testing.T) {
	dst := domain.Bond{
		SecID:        "RU000A000001",
		MaturityDate: datePtr(2027, 5, 12),
		FaceValue:    decPtr("1000"),
	}
	src := domain.Bond{
		SecID:           "RU000A000001",
		MaturityDate:    datePtr(2030, 1, 1),
		CouponFrequency: intPtr(2),
		CurrentPrice:    decPtr("98.5"),
	}

	mergeInto(&dst, src)

	// Existing values survive, gaps are filled.
	if !dst.MaturityDate.Equal(*datePtr(2027, 5, 12)) {
		t.Errorf("maturity = %v, want first value kept", dst.MaturityDate)
	}
	if dst.CouponFrequency == nil || *dst.CouponFrequency != 2 {
		t.Errorf("frequency = %v, want 2", dst.CouponFrequency)
	}
	if dst.CurrentPrice == nil || dst.CurrentPrice.String() != "98.5" {
		t.Errorf("price = %v, want 98.5", dst.CurrentPrice)
	}
	if dst.FaceValue.String() != "1000" {
		t.Errorf("face = %v, want 1000", dst.FaceValue)
	}
}

func TestMergeIntoCouponTypeUpgrade(t *testing.T) {
	tests := []struct {
		name string
		dst  domain.CouponType
		src  domain.CouponType
		want domain.CouponType
	}{
		{"float over fixed", domain.CouponFixed, domain.CouponFloat, domain.CouponFloat},
		{"fixed does not downgrade float", domain.CouponFloat, domain.CouponFixed, domain.CouponFloat},
		{"fixed over none", domain.CouponNone, domain.CouponFixed, domain.CouponFixed},
		{"none over unknown", domain.CouponUnknown, domain.CouponNone, domain.CouponNone},
		{"unknown never wins", domain.CouponNone, domain.CouponUnknown, domain.CouponNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := domain.Bond{CouponType: tt.dst}
			mergeInto(&dst, domain.Bond{CouponType: tt.src})
			if dst.CouponType != tt.want {
				t.Errorf("coupon type = %s, want %s", dst.CouponType, tt.want)
			}
		})
	}
}

func TestMergeIntoFlags(t *testing.T) {
	dst := domain.Bond{HasAmortization: false, HasOffer: true}
	mergeInto(&dst, domain.Bond{HasAmortization: true, HasOffer: false})

	if !dst.HasAmortization || !dst.HasOffer {
		t.Errorf("flags = %v/%v, want true/true", dst.HasAmortization, dst.HasOffer)
	}
}

// A record classified corporate by the residual default loses that flag as
// soon as any duplicate identifies it as government or municipal.
func TestMergeIntoCorporateResidualSuppressed(t *testing.T) {
	dst := domain.Bond{IsCorporate: true}
	mergeInto(&dst, domain.Bond{IsOFZ: true})

	if !dst.IsOFZ {
		t.Error("IsOFZ = false, want true")
	}
	if dst.IsCorporate {
		t.Error("IsCorporate = true, want suppressed")
	}

	dst = domain.Bond{IsMunicipal: true}
	mergeInto(&dst, domain.Bond{IsCorporate: true})
	if dst.IsCorporate {
		t.Error("IsCorporate = true after municipal merge, want false")
	}
}

// Merging a record into itself changes nothing.
func TestMergeIntoIdempotent(t *testing.T) {
	bond := domain.Bond{
		SecID:           "RU000A000001",
		Name:            "Облигация",
		MaturityDate:    datePtr(2027, 5, 12),
		CouponType:      domain.CouponFloat,
		CouponFrequency: intPtr(4),
		Currency:        "RUB",
		FaceValue:       decPtr("1000"),
		IsCorporate:     true,
		HasAmortization: true,
		CurrentPrice:    decPtr("98.5"),
		NextCoupon:      decPtr("20.5"),
	}

	merged := bond
	mergeInto(&merged, bond)

	if !reflect.DeepEqual(merged, bond) {
		t.Errorf("self-merge changed record:\n got %+v\nwant %+v", merged, bond)
	}
}
