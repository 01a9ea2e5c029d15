package bonds

import (
	"github.com/ndolgov/moex-analyzer/internal/domain"
	"github.com/ndolgov/moex-analyzer/internal/moex"
	"github.com/ndolgov/moex-analyzer/pkg/metrics"
	"github.com/shopspring/decimal"
)

// Live-quote columns tried in priority order when resolving the current
// price of an instrument.
var priceColumns = []string{"LAST", "MARKETPRICE", "WAPRICE"}

// ParseBonds converts the two-table bonds dump into canonical records, one
// per SECID. Duplicate rows for the same identifier (split listings,
// duplicate board entries) are folded by mergeInto in encounter order.
// Rows without an identifier are dropped.
func ParseBonds(payload *moex.BondsPayload) []domain.Bond {
	if payload == nil || payload.Securities.Empty() {
		return nil
	}

	securities := moex.NewAccessor(&payload.Securities)
	market := moex.NewAccessor(&payload.MarketData)

	marketBySecID := make(map[string][]any)
	for _, row := range payload.MarketData.Data {
		secID := moex.ToString(market.Get(row, "SECID"))
		if secID != "" {
			marketBySecID[secID] = row
		}
	}

	bondsBySecID := make(map[string]*domain.Bond)
	var order []string

	for _, row := range payload.Securities.Data {
		secID := moex.ToString(securities.Get(row, "SECID"))
		if secID == "" {
			metrics.BondsParsed.WithLabelValues("dropped").Inc()
			continue
		}

		bond := parseRow(secID, row, securities, market, marketBySecID[secID])
		metrics.BondsParsed.WithLabelValues("parsed").Inc()

		existing, ok := bondsBySecID[secID]
		if !ok {
			bondsBySecID[secID] = &bond
			order = append(order, secID)
			continue
		}
		mergeInto(existing, bond)
	}

	result := make([]domain.Bond, 0, len(order))
	for _, secID := range order {
		result = append(result, *bondsBySecID[secID])
	}
	return result
}

func parseRow(secID string, row []any, securities, market *moex.Accessor, marketRow []any) domain.Bond {
	name := moex.ToString(securities.Get(row, "SHORTNAME"))
	if name == "" {
		name = secID
	}

	currency := moex.ToString(securities.Get(row, "FACEUNIT"))
	if currency == "" {
		currency = "RUB"
	}

	isOFZ, isMunicipal, isCorporate := classifyIssuer(secID, moex.ToString(securities.Get(row, "SECTYPE")))

	var currentPrice *decimal.Decimal
	if marketRow != nil {
		for _, col := range priceColumns {
			if currentPrice = moex.ToDecimal(market.Get(marketRow, col)); currentPrice != nil {
				break
			}
		}
	}

	typeText := moex.ToString(securities.Get(row, "BONDTYPE"))
	if couponText := moex.ToString(securities.Get(row, "COUPONTYPE")); couponText != "" {
		if typeText != "" {
			typeText += " "
		}
		typeText += couponText
	}

	return domain.Bond{
		SecID:           secID,
		Name:            name,
		MaturityDate:    moex.ToDate(securities.Get(row, "MATDATE")),
		CouponType:      detectCouponType(typeText, moex.ToDecimal(securities.Get(row, "COUPONPERCENT"))),
		CouponFrequency: moex.ToInt(securities.Get(row, "COUPONFREQUENCY")),
		CouponPeriod:    moex.ToInt(securities.Get(row, "COUPONPERIOD")),
		Currency:        currency,
		FaceValue:       moex.ToDecimal(securities.Get(row, "FACEVALUE")),
		IsOFZ:           isOFZ,
		IsMunicipal:     isMunicipal,
		IsCorporate:     isCorporate,
		HasAmortization: moex.Truthy(securities.Get(row, "AMORTIZATION")),
		HasOffer:        moex.Truthy(securities.Get(row, "OFFERDATE")),
		CurrentPrice:    currentPrice,
		NextCoupon:      moex.ToDecimal(securities.Get(row, "COUPONVALUE")),
	}
}
