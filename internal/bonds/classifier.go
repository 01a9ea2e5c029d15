package bonds

import (
	"strings"

	"github.com/ndolgov/moex-analyzer/internal/domain"
	"github.com/shopspring/decimal"
)

// Marker vocabularies for coupon-type detection, checked in order:
// zero-coupon first, then floating, then fixed. The first matching set wins,
// so "переменный фиксированный" classifies as float.
var (
	noneMarkers = []string{"безкупон", "бескупон", "zero", "no coupon", "нул"}

	floatMarkers = []string{
		"перем",
		"плав",
		"float",
		"variable",
		"индекс",
		"инфля",
		"ruonia",
		"mosprime",
		"ключ",
		"key rate",
		"link",
		"rate",
	}

	fixedMarkers = []string{"фикс", "fixed", "пост", "constant"}
)

// Government and municipal issue codes of the SECTYPE column; everything
// outside the three sets falls back to corporate.
var (
	ofzSecTypes       = map[string]bool{"3": true, "5": true}
	municipalSecTypes = map[string]bool{"4": true, "C": true}
	corporateSecTypes = map[string]bool{"6": true, "7": true, "8": true}
)

const ofzTickerPrefix = "SU"

// detectCouponType infers the coupon taxonomy from the concatenated
// descriptive text of an instrument, falling back to the numeric coupon
// rate when no text is present: no rate or a zero rate means no coupon,
// a positive rate with no recognizable description stays unknown.
func detectCouponType(typeText string, couponRate *decimal.Decimal) domain.CouponType {
	text := strings.ToLower(typeText)

	if text != "" {
		if containsAny(text, noneMarkers) {
			return domain.CouponNone
		}
		if containsAny(text, floatMarkers) {
			return domain.CouponFloat
		}
		if containsAny(text, fixedMarkers) {
			return domain.CouponFixed
		}
	}

	if couponRate == nil || couponRate.IsZero() {
		return domain.CouponNone
	}

	return domain.CouponUnknown
}

// classifyIssuer derives the bond-type flags of one raw row. Corporate is
// the residual category: it is asserted whenever nothing else matches.
func classifyIssuer(secID, secType string) (isOFZ, isMunicipal, isCorporate bool) {
	code := strings.ToUpper(strings.TrimSpace(secType))

	isOFZ = strings.HasPrefix(secID, ofzTickerPrefix) || ofzSecTypes[code]
	isMunicipal = municipalSecTypes[code]
	isCorporate = corporateSecTypes[code]

	if !isOFZ && !isMunicipal && !isCorporate {
		isCorporate = true
	}

	return isOFZ, isMunicipal, isCorporate
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}
