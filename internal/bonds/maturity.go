package bonds

import "time"

// AlreadyMatured is the months-remaining sentinel for instruments whose
// maturity date is on or before today.
const AlreadyMatured = -1

// MonthsToMaturity returns the number of complete calendar months between
// today and the maturity date. When the maturity day of month has not been
// reached yet, the final month is not complete and is not counted.
func MonthsToMaturity(today, maturity time.Time) int {
	ty, tm, td := today.Date()
	my, mm, md := maturity.Date()

	// Compare calendar dates, not instants: payload dates carry no zone.
	if my < ty || (my == ty && (mm < tm || (mm == tm && md <= td))) {
		return AlreadyMatured
	}

	months := (my-ty)*12 + int(mm) - int(tm)
	if md < td {
		months--
	}

	return months
}
