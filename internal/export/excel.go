package export

import (
	"fmt"

	"github.com/ndolgov/moex-analyzer/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var candleHeader = []string{"Date", "Time", "Open", "High", "Low", "Close", "Volume"}

// CandlesWorkbook builds the two-sheet workbook the candle export serves:
// one year of hourly rows and three years of daily rows.
func CandlesWorkbook(hourly, daily []domain.Candle) (*excelize.File, error) {
	f := excelize.NewFile()

	const hourlySheet = "hourly_1y"
	if err := f.SetSheetName("Sheet1", hourlySheet); err != nil {
		return nil, fmt.Errorf("renaming sheet: %w", err)
	}
	if err := writeCandleSheet(f, hourlySheet, hourly); err != nil {
		return nil, err
	}

	const dailySheet = "daily_3y"
	if _, err := f.NewSheet(dailySheet); err != nil {
		return nil, fmt.Errorf("creating sheet %s: %w", dailySheet, err)
	}
	if err := writeCandleSheet(f, dailySheet, daily); err != nil {
		return nil, err
	}

	return f, nil
}

func writeCandleSheet(f *excelize.File, sheet string, candles []domain.Candle) error {
	header := make([]interface{}, len(candleHeader))
	for i, h := range candleHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header on %s: %w", sheet, err)
	}

	for i, c := range candles {
		row := []interface{}{
			c.Begin.Format("2006-01-02"),
			c.Begin.Format("15:04:05"),
			cellValue(c.Open),
			cellValue(c.High),
			cellValue(c.Low),
			cellValue(c.Close),
			cellValue(c.Volume),
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing row %d on %s: %w", i+2, sheet, err)
		}
	}

	return nil
}

func cellValue(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.InexactFloat64()
}
