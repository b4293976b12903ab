package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeValues(t *testing.T) {
	t.Run("prcp scaled and rounded to 1 decimal", func(t *testing.T) {
		got := EncodeValues("prcp", []float64{1.2345, 0, 0.004})
		assert.Equal(t, []float64{123.5, 0, 0.4}, got)
	})

	t.Run("other parameters rounded to 2 decimals", func(t *testing.T) {
		got := EncodeValues("tmax", []float64{1.2345, -3.14159, 7})
		assert.Equal(t, []float64{1.23, -3.14, 7}, got)
	})

	t.Run("float32 sourced values", func(t *testing.T) {
		got := EncodeValues("prcp", []float64{float64(float32(1.2345))})
		assert.Equal(t, []float64{123.5}, got)
	})

	t.Run("non-finite values pass through", func(t *testing.T) {
		got := EncodeValues("tmin", []float64{math.NaN(), math.Inf(-1)})
		assert.True(t, math.IsNaN(got[0]))
		assert.True(t, math.IsInf(got[1], -1))
	})
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1, "1.0"},
		{1.23, "1.23"},
		{123.5, "123.5"},
		{-9999, "-9999.0"},
		{0, "0.0"},
		{math.Inf(1), "inf"},
		{math.NaN(), "nan"},
		{math.Inf(-1), "-inf"},
		{1e15, "1000000000000000.0"},
		{1e16, "1e+16"},
		{-2.5e22, "-2.5e+22"},
		{0.0001, "0.0001"},
		{0.00001, "1e-05"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatValue(tt.in))
	}
}

func TestFormatPoint(t *testing.T) {
	assert.Equal(t, "10", FormatPoint(10))
	assert.Equal(t, "10.5", FormatPoint(10.5))
	assert.Equal(t, "1e+22", FormatPoint(1e22))
}

func TestFormatPoint_NonFiniteMatchesValues(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		assert.Equal(t, FormatValue(v), FormatPoint(v))
	}
	assert.Equal(t, "nan", FormatPoint(math.NaN()))
}
