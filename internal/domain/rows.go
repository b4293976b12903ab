package domain

import (
	"fmt"
	"strings"
)

// OutputRow is one CSV data line. Values align positionally with the
// reference grid header.
type OutputRow struct {
	Label  []string
	Values []float64
}

// Fields returns the label columns followed by the formatted values, as
// written to one CSV record.
func (r OutputRow) Fields() []string {
	fields := make([]string, 0, len(r.Label)+len(r.Values))
	fields = append(fields, r.Label...)
	for _, v := range r.Values {
		fields = append(fields, FormatValue(v))
	}
	return fields
}

// CheckDailyBands rejects daily rasters whose bands cannot map one-to-one
// onto the days of year starting Jan 1: more bands than days, or a
// 365-band file in a leap year, which would shift every date after Feb 28.
// Shorter files are partial years and are accepted.
func CheckDailyBands(year, bands int) error {
	days := DaysInYear(year)
	if bands > days || (days == 366 && bands == 365) {
		return fmt.Errorf("%w: %d bands, %d days in %d", ErrBandCount, bands, days, year)
	}
	return nil
}

// ExtractRows reads every band of a reprojected raster and returns one
// encoded, labelled row per band. points is the reference header length.
func ExtractRows(r Raster, rec FileRecord, dt DataType, parameter string, points int) ([]OutputRow, error) {
	year, err := rec.Year()
	if err != nil {
		return nil, err
	}

	bands := r.BandCount()
	if dt.IsDaily() {
		if err := CheckDailyBands(year, bands); err != nil {
			return nil, fmt.Errorf("%s: %w", rec.Path(), err)
		}
	}

	monthly := rec.IsMonthly()
	rows := make([]OutputRow, 0, bands)
	for b := 1; b <= bands; b++ {
		values, err := r.ReadBand(b)
		if err != nil {
			return nil, fmt.Errorf("%s band %d: %w", rec.Path(), b, err)
		}
		if len(values) != points {
			return nil, fmt.Errorf("%s band %d: %w: %d values, want %d",
				rec.Path(), b, ErrGridMismatch, len(values), points)
		}

		var label []string
		if dt.IsDaily() {
			label = DailyLabel(year, b)
		} else {
			label = []string{AggregateLabel(parameter, year, b, monthly)}
		}
		rows = append(rows, OutputRow{Label: label, Values: EncodeValues(parameter, values)})
	}
	return rows, nil
}

// Target is one (data type, parameter) output.
type Target struct {
	DataType  DataType
	Parameter string
}

// FileName follows "{DATATYPE}_DAYMET_{REGION}_{PARAMETER}.csv", upper-cased.
func (t Target) FileName(region string) string {
	return strings.ToUpper(fmt.Sprintf("%s_DAYMET_%s_%s", t.DataType.Name, region, t.Parameter)) + ".csv"
}

// RowWriter receives the rows of one Target in emission order.
type RowWriter interface {
	Path() string
	WriteRow(row OutputRow) error
	Close() error
}
