package bonds

import (
	"fmt"
	"strings"
	"time"

	"github.com/ndolgov/moex-analyzer/internal/domain"
	"github.com/shopspring/decimal"
)

const notAvailable = "н/д"

var couponTypeLabels = map[domain.CouponType]string{
	domain.CouponFixed:   "фиксированный",
	domain.CouponFloat:   "плавающий",
	domain.CouponNone:    "без купона",
	domain.CouponUnknown: "неизвестно",
}

var currencyLabels = map[string]string{
	"RUB": "руб",
	"RUR": "руб",
	"SUR": "руб",
	"USD": "долл. США",
	"EUR": "евро",
	"CNY": "юань",
	"GBP": "фунт стерл.",
	"CHF": "швейц. франк",
	"JPY": "иена",
}

var tableHeader = []string{
	"Код",
	"Название",
	"Погашение",
	"До погаш.",
	"Тип купона",
	"Период купона, дн",
	"Валюта",
	"Цена, %",
	"След. купон",
	"Купон. доходн., %",
	"Полн. доходн., %",
	"Аморт.",
	"Оферта",
}

// FormatTable renders bonds as a left-aligned fixed-width text table with a
// separator rule under the header. Numbers use two decimals with a comma
// for the decimal point; absent values render as the placeholder.
func FormatTable(items []domain.Bond, today time.Time) string {
	rows := make([][]string, 0, len(items)+1)
	rows = append(rows, tableHeader)

	for _, b := range items {
		rows = append(rows, []string{
			b.SecID,
			orPlaceholder(b.Name),
			formatMaturityDate(b.MaturityDate),
			formatTimeToMaturity(b.MaturityDate, today),
			formatCouponType(b.CouponType),
			formatInt(b.CouponPeriod),
			formatCurrency(b.Currency),
			formatDecimal(b.CurrentPrice),
			formatDecimal(b.NextCoupon),
			formatYield(CouponYieldPct(b)),
			formatYield(TotalYieldPct(b, today)),
			formatBool(b.HasAmortization),
			formatBool(b.HasOffer),
		})
	}

	widths := make([]int, len(tableHeader))
	for _, row := range rows {
		for i, cell := range row {
			if len([]rune(cell)) > widths[i] {
				widths[i] = len([]rune(cell))
			}
		}
	}

	var sb strings.Builder
	for idx, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = padRight(cell, widths[i])
		}
		sb.WriteString(strings.Join(cells, "  "))
		sb.WriteString("\n")

		if idx == 0 {
			rule := make([]string, len(widths))
			for i, w := range widths {
				rule[i] = strings.Repeat("-", w)
			}
			sb.WriteString(strings.Join(rule, "  "))
			sb.WriteString("\n")
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

func padRight(s string, width int) string {
	if pad := width - len([]rune(s)); pad > 0 {
		return s + strings.Repeat(" ", pad)
	}
	return s
}

func formatMaturityDate(maturity *time.Time) string {
	if maturity == nil {
		return "-"
	}
	return maturity.Format("2006-01-02")
}

// formatTimeToMaturity renders remaining lifetime as whole years and months
// (30-day months, matching the report the exchange bot always printed).
func formatTimeToMaturity(maturity *time.Time, today time.Time) string {
	if maturity == nil {
		return notAvailable
	}
	daysLeft := daysBetween(today, *maturity)
	if daysLeft <= 0 {
		return "погашена"
	}
	totalMonths := daysLeft / 30
	return fmt.Sprintf("%dг %dм", totalMonths/12, totalMonths%12)
}

func formatCouponType(t domain.CouponType) string {
	if label, ok := couponTypeLabels[t]; ok {
		return label
	}
	return "неизвестно"
}

func formatCurrency(code string) string {
	if code == "" {
		return notAvailable
	}
	if label, ok := currencyLabels[code]; ok {
		return label
	}
	return fmt.Sprintf("валюта %s", code)
}

func formatDecimal(d *decimal.Decimal) string {
	if d == nil {
		return notAvailable
	}
	return strings.Replace(d.StringFixed(2), ".", ",", 1)
}

func formatYield(value float64, ok bool) string {
	if !ok {
		return notAvailable
	}
	return strings.Replace(fmt.Sprintf("%.2f", value), ".", ",", 1)
}

func formatBool(value bool) string {
	if value {
		return "Да"
	}
	return "Нет"
}

func formatInt(value *int) string {
	if value == nil {
		return notAvailable
	}
	return fmt.Sprintf("%d", *value)
}

func orPlaceholder(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}
