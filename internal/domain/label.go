package domain

import (
	"fmt"
	"time"
)

// AnnualMonth is the sentinel month written for annual rows.
const AnnualMonth = 14

// DateLayout is the format of the first daily label column.
const DateLayout = "01/02/2006"

// DaysInYear returns 366 for leap years and 365 otherwise.
func DaysInYear(year int) int {
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC).YearDay()
}

// DailyLabel returns the date, month and year fields of 1-based band b:
// DailyLabel(2016, 60) -> ["02/29/2016", "02", "2016"].
func DailyLabel(year, band int) []string {
	d := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, band-1)
	return []string{d.Format(DateLayout), d.Format("01"), d.Format("2006")}
}

// AggregateLabel labels a monthly or annual band, e.g. "tmax_199903".
// Annual bands always carry month 14.
func AggregateLabel(parameter string, year, band int, monthly bool) string {
	month := AnnualMonth
	if monthly {
		month = band
	}
	return fmt.Sprintf("%s_%04d%02d", parameter, year, month)
}
