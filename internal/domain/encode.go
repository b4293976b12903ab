package domain

import (
	"math"
	"strconv"
	"strings"
)

// PrecipitationParameter is scaled before rounding.
const PrecipitationParameter = "prcp"

// EncodeValues applies the parameter-specific transform in place and
// returns values: prcp is multiplied by 100 and rounded to 1 decimal,
// anything else is rounded to 2 decimals.
func EncodeValues(parameter string, values []float64) []float64 {
	if parameter == PrecipitationParameter {
		for i, v := range values {
			values[i] = roundTo(v*100, 1)
		}
		return values
	}
	for i, v := range values {
		values[i] = roundTo(v, 2)
	}
	return values
}

func roundTo(v float64, decimals int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	p := math.Pow10(decimals)
	return math.Round(v*p) / p
}

// FormatValue renders an encoded value with the shortest exact decimal and
// at least one fractional digit: 1 -> "1.0", 1.23 -> "1.23".
func FormatValue(v float64) string {
	return formatShortest(v, true)
}

// FormatPoint renders a reference grid point identifier without a
// trailing fraction when it is integral: 10 -> "10".
func FormatPoint(v float64) string {
	return formatShortest(v, false)
}

// formatShortest prints v as its shortest round-trip decimal. Magnitudes
// below 1e-4 or at least 1e16 use exponent form ("1e+22"); non-finite
// values print as "nan", "inf" and "-inf".
func formatShortest(v float64, fraction bool) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	if v != 0 {
		e := strconv.FormatFloat(v, 'e', -1, 64)
		exp, err := strconv.Atoi(e[strings.IndexByte(e, 'e')+1:])
		if err == nil && (exp < -4 || exp >= 16) {
			return e
		}
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if fraction && !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
