// Command validate checks the integrity of extraction output CSV files: the
// header shape, row widths, numeric values, and label ordering.
//
// Usage:
//
//	go run ./cmd/validate out/DAILY_DAYMET_GYE_TMAX.csv
//	go run ./cmd/validate -dir out
package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/couchcryptid/daymet-etl/internal/domain"
)

const headerLead = "point number ->"

// maxErrors caps the errors reported per phase so a shifted file stays readable.
const maxErrors = 20

// aggregateLabelRe matches "tmax_199903" and "prcp_199914".
var aggregateLabelRe = regexp.MustCompile(`^([a-z]+)_(\d{4})(\d{2})$`)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
	total  int
}

func (p *phase) errorf(format string, args ...any) {
	p.total++
	if len(p.errors) < maxErrors {
		p.errors = append(p.errors, fmt.Sprintf(format, args...))
	}
}

func (p *phase) passed() bool { return p.total == 0 }

func main() {
	dir := flag.String("dir", "", "validate every .csv file in this directory")
	flag.Parse()

	paths := flag.Args()
	if *dir != "" {
		matches, err := filepath.Glob(filepath.Join(*dir, "*.csv"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
			os.Exit(1)
		}
		paths = append(paths, matches...)
	}
	if len(paths) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(paths, os.Stdout))
}

func run(paths []string, out io.Writer) int {
	fmt.Fprintln(out, "=== Daymet Output Validation ===")

	allPassed := true
	for _, path := range paths {
		if !validateFile(path, out) {
			allPassed = false
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

// table is a parsed output file.
type table struct {
	daily  bool
	points int
	rows   [][]string
}

func validateFile(path string, out io.Writer) bool {
	fmt.Fprintf(out, "\n%s\n", path)

	t, err := loadTable(path)
	if err != nil {
		fmt.Fprintf(out, "  FATAL: %v\n", err)
		return false
	}

	phases := []*phase{
		validateRowWidths(t),
		validateValues(t),
	}
	if t.daily {
		phases = append(phases, validateDailyLabels(t))
	} else {
		phases = append(phases, validateAggregateLabels(t))
	}

	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", p.total)
			allPassed = false
		}
		fmt.Fprintf(out, "  %-32s %s\n", p.name, status)
	}
	fmt.Fprintf(out, "  rows: %d, points: %d\n", len(t.rows), t.points)

	for _, p := range phases {
		for i, e := range p.errors {
			fmt.Fprintf(out, "    [%d] %s\n", i+1, e)
		}
	}
	return allPassed
}

func loadTable(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	all, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, errors.New("empty file")
	}

	header := all[0]
	if header[0] != headerLead {
		return nil, fmt.Errorf("header starts with %q, want %q", header[0], headerLead)
	}
	t := &table{rows: all[1:]}
	points := header[1:]
	if len(header) >= 3 && header[1] == "month" && header[2] == "year" {
		t.daily = true
		points = header[3:]
	}
	for _, p := range points {
		if _, err := strconv.ParseFloat(p, 64); err != nil {
			return nil, fmt.Errorf("header point %q is not numeric", p)
		}
	}
	t.points = len(points)
	return t, nil
}

func (t *table) labelWidth() int {
	if t.daily {
		return 3
	}
	return 1
}

func validateRowWidths(t *table) *phase {
	p := &phase{name: "Row widths"}
	want := t.labelWidth() + t.points
	for i, row := range t.rows {
		if len(row) != want {
			p.errorf("line %d: %d fields, want %d", i+2, len(row), want)
		}
	}
	return p
}

func validateValues(t *table) *phase {
	p := &phase{name: "Numeric values"}
	lw := t.labelWidth()
	for i, row := range t.rows {
		for j := lw; j < len(row); j++ {
			if _, err := strconv.ParseFloat(row[j], 64); err != nil {
				p.errorf("line %d column %d: %q is not numeric", i+2, j+1, row[j])
			}
		}
	}
	return p
}

// validateDailyLabels requires consecutive days within a year and strictly
// increasing dates across years. A year may end early, since partial
// files are accepted, but must start on Jan 1.
func validateDailyLabels(t *table) *phase {
	p := &phase{name: "Daily label order"}
	var prev time.Time
	for i, row := range t.rows {
		line := i + 2
		if len(row) < 3 {
			continue
		}
		d, err := time.Parse(domain.DateLayout, row[0])
		if err != nil {
			p.errorf("line %d: bad date %q", line, row[0])
			continue
		}
		if row[1] != d.Format("01") || row[2] != d.Format("2006") {
			p.errorf("line %d: month/year %s,%s do not match %s", line, row[1], row[2], row[0])
		}

		switch {
		case prev.IsZero() || d.Year() != prev.Year():
			if d.YearDay() != 1 {
				p.errorf("line %d: first row of %d is %s, want 01/01", line, d.Year(), row[0])
			}
			if !prev.IsZero() && !d.After(prev) {
				p.errorf("line %d: %s does not follow %s", line, row[0], prev.Format(domain.DateLayout))
			}
		case !d.Equal(prev.AddDate(0, 0, 1)):
			p.errorf("line %d: %s does not follow %s", line, row[0], prev.Format(domain.DateLayout))
		}
		prev = d
	}
	return p
}

// validateAggregateLabels requires one parameter throughout, months 01-12 or
// the annual 14, and non-decreasing year-month order.
func validateAggregateLabels(t *table) *phase {
	p := &phase{name: "Aggregate label order"}
	var param string
	prev := -1
	for i, row := range t.rows {
		line := i + 2
		if len(row) == 0 {
			continue
		}
		m := aggregateLabelRe.FindStringSubmatch(row[0])
		if m == nil {
			p.errorf("line %d: bad label %q", line, row[0])
			continue
		}
		if param == "" {
			param = m[1]
		} else if m[1] != param {
			p.errorf("line %d: parameter %q, file started with %q", line, m[1], param)
		}

		year, _ := strconv.Atoi(m[2])
		month, _ := strconv.Atoi(m[3])
		if (month < 1 || month > 12) && month != domain.AnnualMonth {
			p.errorf("line %d: month %02d out of range", line, month)
		}
		key := year*100 + month
		if key < prev {
			p.errorf("line %d: %s is out of order", line, row[0])
		}
		prev = key
	}
	return p
}
